package models

import (
	"time"

	"github.com/google/uuid"
)

// ConsentItem is a question the customer answers before booking a sub-package.
type ConsentItem struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PackageItemID uuid.UUID `gorm:"column:package_item_id;type:uuid;not null"`
	Question      string    `gorm:"column:question;not null"`
	IsRequired    bool      `gorm:"column:is_required;not null;default:false"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
