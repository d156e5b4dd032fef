package models

import (
	"time"

	"github.com/google/uuid"
)

// VendorAssignment links a vendor to a package, optionally narrowed to a
// single sub-package. A NULL package_item_id covers the whole package.
type VendorAssignment struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID      uuid.UUID  `gorm:"column:vendor_id;type:uuid;not null;uniqueIndex:ux_vendor_assignments"`
	PackageID     uuid.UUID  `gorm:"column:package_id;type:uuid;not null;uniqueIndex:ux_vendor_assignments"`
	PackageItemID *uuid.UUID `gorm:"column:package_item_id;type:uuid;uniqueIndex:ux_vendor_assignments"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
}
