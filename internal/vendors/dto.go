package vendors

import "github.com/google/uuid"

// CreateVendorInput is the vendor onboarding payload.
type CreateVendorInput struct {
	UserID      uuid.UUID `json:"user_id" validate:"required"`
	DisplayName string    `json:"display_name" validate:"required,min=2,max=120"`
	Type        string    `json:"type" validate:"required"`
}

// RegisterServiceInput enrolls a vendor into one service.
type RegisterServiceInput struct {
	VendorID  uuid.UUID
	ServiceID uuid.UUID `json:"service_id" validate:"required"`
}
