package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookingPackage binds a booking to one booked package.
type BookingPackage struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BookingID   uuid.UUID           `gorm:"column:booking_id;type:uuid;not null"`
	PackageID   uuid.UUID           `gorm:"column:package_id;type:uuid;not null"`
	SubPackages []BookingSubPackage `gorm:"foreignKey:BookingPackageID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
}

// BookingSubPackage is a booked sub-package line item. Price is the snapshot
// captured at booking time and never re-read from the catalog.
type BookingSubPackage struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BookingID        uuid.UUID       `gorm:"column:booking_id;type:uuid;not null"`
	BookingPackageID uuid.UUID       `gorm:"column:booking_package_id;type:uuid;not null"`
	PackageItemID    uuid.UUID       `gorm:"column:package_item_id;type:uuid;not null"`
	Price            decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Quantity         int             `gorm:"column:quantity;not null;default:1"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
}
