package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/servio-app/servio-backend/pkg/enums"
)

// Booking is a customer's request for service on a date and time slot.
// Vendor stays NULL until an admin assigns one. The service lineage is
// recorded at creation so eligibility never has to re-walk the catalog.
type Booking struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID            uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	VendorID          *uuid.UUID          `gorm:"column:vendor_id;type:uuid"`
	ServiceCategoryID uuid.UUID           `gorm:"column:service_category_id;type:uuid;not null"`
	ServiceID         uuid.UUID           `gorm:"column:service_id;type:uuid;not null"`
	ServiceTypeID     uuid.UUID           `gorm:"column:service_type_id;type:uuid;not null"`
	Status            enums.BookingStatus `gorm:"column:status;not null;default:pending"`
	BookingDate       time.Time           `gorm:"column:booking_date;type:date;not null"`
	BookingTime       string              `gorm:"column:booking_time;not null"`
	Notes             *string             `gorm:"column:notes"`
	MediaURL          *string             `gorm:"column:media_url"`
	CompletedFlag     bool                `gorm:"column:completed_flag;not null;default:false"`
	PaymentIntentID   *string             `gorm:"column:payment_intent_id"`
	Packages          []BookingPackage    `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// ScheduledAt combines the booking date and HH:MM slot into a single instant
// in the given location.
func (b Booking) ScheduledAt(loc *time.Location) (time.Time, error) {
	t, err := time.Parse("15:04", b.BookingTime)
	if err != nil {
		return time.Time{}, err
	}
	d := b.BookingDate
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}
