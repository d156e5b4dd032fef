package models

import (
	"time"

	"github.com/google/uuid"
)

// Service is a bookable discipline under a category (e.g. cleaning, plumbing).
type Service struct {
	ID         uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID uuid.UUID     `gorm:"column:category_id;type:uuid;not null"`
	Name       string        `gorm:"column:name;not null"`
	Types      []ServiceType `gorm:"foreignKey:ServiceID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}
