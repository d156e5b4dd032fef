package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PackageItem is the bookable sub-package leaf with its own price and time.
type PackageItem struct {
	ID                  uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PackageID           uuid.UUID         `gorm:"column:package_id;type:uuid;not null"`
	Name                string            `gorm:"column:name;not null"`
	Description         *string           `gorm:"column:description"`
	Price               decimal.Decimal   `gorm:"column:price;type:numeric(12,2);not null"`
	TimeRequiredMinutes int               `gorm:"column:time_required_minutes;not null;default:0"`
	MediaURL            *string           `gorm:"column:media_url"`
	PreferenceGroups    []PreferenceGroup `gorm:"foreignKey:PackageItemID;constraint:OnDelete:CASCADE"`
	Addons              []Addon           `gorm:"foreignKey:PackageItemID;constraint:OnDelete:CASCADE"`
	ConsentItems        []ConsentItem     `gorm:"foreignKey:PackageItemID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
