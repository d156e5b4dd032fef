package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/servio-app/servio-backend/pkg/enums"
)

// VendorPackageApplication is a vendor's request to serve a package, held in
// staging until an admin decides it.
type VendorPackageApplication struct {
	ID        uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID  uuid.UUID               `gorm:"column:vendor_id;type:uuid;not null"`
	PackageID uuid.UUID               `gorm:"column:package_id;type:uuid;not null"`
	Status    enums.ApplicationStatus `gorm:"column:status;not null;default:pending"`
	DecidedBy *uuid.UUID              `gorm:"column:decided_by;type:uuid"`
	DecidedAt *time.Time              `gorm:"column:decided_at"`
	Items     []VendorApplicationItem `gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// VendorApplicationItem narrows an application to specific sub-packages.
// An application with no items covers the whole package.
type VendorApplicationItem struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ApplicationID uuid.UUID `gorm:"column:application_id;type:uuid;not null"`
	PackageItemID uuid.UUID `gorm:"column:package_item_id;type:uuid;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}
