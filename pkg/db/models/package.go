package models

import (
	"time"

	"github.com/google/uuid"
)

// Package is a named bundle of sub-packages. Name and media stay NULL for
// shell packages created before the admin finishes the listing.
type Package struct {
	ID            uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ServiceTypeID uuid.UUID     `gorm:"column:service_type_id;type:uuid;not null"`
	Name          *string       `gorm:"column:name"`
	MediaURL      *string       `gorm:"column:media_url"`
	Items         []PackageItem `gorm:"foreignKey:PackageID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}
