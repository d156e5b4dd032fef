package models

import (
	"time"

	"github.com/google/uuid"
)

// ServiceType groups packages under a service. A NULL vendor id marks the
// admin-owned global type; vendor-scoped types carry the owning vendor.
type ServiceType struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ServiceID uuid.UUID  `gorm:"column:service_id;type:uuid;not null"`
	VendorID  *uuid.UUID `gorm:"column:vendor_id;type:uuid"`
	Packages  []Package  `gorm:"foreignKey:ServiceTypeID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// IsGlobal reports whether the type is admin-owned.
func (s ServiceType) IsGlobal() bool {
	return s.VendorID == nil
}
