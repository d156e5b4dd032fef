package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookingPreference records a preference option chosen for a booking.
type BookingPreference struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BookingID          uuid.UUID `gorm:"column:booking_id;type:uuid;not null"`
	PreferenceOptionID uuid.UUID `gorm:"column:preference_option_id;type:uuid;not null"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
}

// BookingAddon records an addon chosen for a booking with its price snapshot.
type BookingAddon struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BookingID     uuid.UUID       `gorm:"column:booking_id;type:uuid;not null"`
	PackageItemID uuid.UUID       `gorm:"column:package_item_id;type:uuid;not null"`
	AddonID       uuid.UUID       `gorm:"column:addon_id;type:uuid;not null"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null;default:0"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// BookingConsent records the answer given to a consent question.
type BookingConsent struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BookingID     uuid.UUID `gorm:"column:booking_id;type:uuid;not null"`
	ConsentItemID uuid.UUID `gorm:"column:consent_item_id;type:uuid;not null"`
	Accepted      bool      `gorm:"column:accepted;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}
