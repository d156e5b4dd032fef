package bookings

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/servio-app/servio-backend/pkg/db/models"
	"github.com/servio-app/servio-backend/pkg/enums"
)

// SubPackageSelection is one booked sub-package line. Price is the amount the
// client agreed to at booking time and is stored as-is.
type SubPackageSelection struct {
	SubPackageID uuid.UUID       `json:"sub_package_id"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity,omitempty"`
}

// PackageSelection groups the booked sub-packages under one package.
type PackageSelection struct {
	PackageID   uuid.UUID             `json:"package_id"`
	SubPackages []SubPackageSelection `json:"sub_packages"`
}

// AddonSelection is one addon chosen for a booked sub-package.
type AddonSelection struct {
	PackageItemID uuid.UUID       `json:"package_item_id"`
	AddonID       uuid.UUID       `json:"addon_id"`
	Price         decimal.Decimal `json:"price"`
}

// ConsentAnswer is the customer's answer to one consent question.
type ConsentAnswer struct {
	ConsentItemID uuid.UUID `json:"consent_item_id"`
	Accepted      bool      `json:"accepted"`
}

// BookingInput is the booking creation payload.
type BookingInput struct {
	ServiceCategoryID uuid.UUID          `json:"service_category_id"`
	ServiceID         uuid.UUID          `json:"service_id"`
	ServiceTypeID     uuid.UUID          `json:"service_type_id"`
	BookingDate       time.Time          `json:"booking_date"`
	BookingTime       string             `json:"booking_time"`
	Notes             *string            `json:"notes,omitempty"`
	MediaURL          *string            `json:"media_url,omitempty"`
	Packages          []PackageSelection `json:"packages"`
	Preferences       []uuid.UUID        `json:"preferences,omitempty"`
	Addons            []AddonSelection   `json:"addons,omitempty"`
	Consents          []ConsentAnswer    `json:"consents,omitempty"`
}

// DecisionInput carries an admin's approve-or-cancel ruling.
type DecisionInput struct {
	BookingID uuid.UUID
	Status    enums.BookingStatus
}

// AssignInput binds a booking to a manually assigned vendor.
type AssignInput struct {
	BookingID uuid.UUID
	VendorID  uuid.UUID
}

// DecideAndAssignInput combines a status ruling with an optional vendor
// assignment, validated and applied in one transaction.
type DecideAndAssignInput struct {
	BookingID uuid.UUID
	Status    enums.BookingStatus
	VendorID  *uuid.UUID
}

// VendorStatusInput is a vendor-driven progress transition.
type VendorStatusInput struct {
	BookingID uuid.UUID
	VendorID  uuid.UUID
	Status    enums.BookingStatus
}

// ListParams configures cursor pagination for booking listings.
type ListParams struct {
	Limit  int
	Cursor string
}

// ListResult wraps one page of bookings and the cursor for the next.
type ListResult struct {
	Items  []models.Booking `json:"items"`
	Cursor string           `json:"cursor"`
}
