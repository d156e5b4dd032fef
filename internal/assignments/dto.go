package assignments

import (
	"github.com/google/uuid"
)

// SelectionInput names one package and optionally narrows it to specific
// sub-packages. Empty SubPackageIDs means the whole package.
type SelectionInput struct {
	PackageID     uuid.UUID   `json:"package_id"`
	SubPackageIDs []uuid.UUID `json:"sub_package_ids,omitempty"`
}

// AssignInput is the admin-direct assignment payload.
type AssignInput struct {
	VendorID   uuid.UUID        `json:"vendor_id"`
	Selections []SelectionInput `json:"selections"`
}

// ApplyInput is the vendor application payload.
type ApplyInput struct {
	VendorID   uuid.UUID        `json:"vendor_id"`
	Selections []SelectionInput `json:"selections"`
}

// DecisionInput carries an admin's ruling on a pending application.
type DecisionInput struct {
	ApplicationID uuid.UUID
	Approve       bool
	DecidedBy     uuid.UUID
}
