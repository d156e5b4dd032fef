package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Addon is an optional extra attached to a sub-package.
type Addon struct {
	ID                  uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PackageItemID       uuid.UUID       `gorm:"column:package_item_id;type:uuid;not null"`
	Name                string          `gorm:"column:name;not null"`
	Description         *string         `gorm:"column:description"`
	Price               decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null;default:0"`
	TimeRequiredMinutes int             `gorm:"column:time_required_minutes;not null;default:0"`
	CreatedAt           time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
