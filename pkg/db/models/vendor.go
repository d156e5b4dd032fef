package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/servio-app/servio-backend/pkg/enums"
)

// Vendor is a provider account. Type distinguishes individuals from companies
// for eligibility branching; ManualAssignment is the per-vendor toggle that
// gates direct assignment to bookings.
type Vendor struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           uuid.UUID        `gorm:"column:user_id;type:uuid;not null"`
	DisplayName      string           `gorm:"column:display_name;not null"`
	Type             enums.VendorType `gorm:"column:type;not null"`
	ManualAssignment bool             `gorm:"column:manual_assignment;not null;default:false"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// VendorServiceRegistration records a vendor's enrollment in a service.
type VendorServiceRegistration struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID  uuid.UUID `gorm:"column:vendor_id;type:uuid;not null;uniqueIndex:ux_vendor_service_registrations"`
	ServiceID uuid.UUID `gorm:"column:service_id;type:uuid;not null;uniqueIndex:ux_vendor_service_registrations"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
