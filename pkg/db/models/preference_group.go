package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PreferenceGroup is a named option set on a sub-package. Requiredness lives
// on the group, not on the individual options.
type PreferenceGroup struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PackageItemID uuid.UUID          `gorm:"column:package_item_id;type:uuid;not null;uniqueIndex:ux_preference_groups_item_key"`
	GroupKey      string             `gorm:"column:group_key;not null;uniqueIndex:ux_preference_groups_item_key"`
	IsRequired    bool               `gorm:"column:is_required;not null;default:false"`
	Options       []PreferenceOption `gorm:"foreignKey:PreferenceGroupID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// PreferenceOption is a single selectable value with its own price/time.
type PreferenceOption struct {
	ID                  uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PreferenceGroupID   uuid.UUID       `gorm:"column:preference_group_id;type:uuid;not null"`
	Value               string          `gorm:"column:value;not null"`
	Price               decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null;default:0"`
	TimeRequiredMinutes int             `gorm:"column:time_required_minutes;not null;default:0"`
	CreatedAt           time.Time       `gorm:"column:created_at;autoCreateTime"`
}
