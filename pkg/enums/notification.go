package enums

import "fmt"

// NotificationKind identifies the state transition a notification reports.
type NotificationKind string

const (
	NotificationKindBookingCreated     NotificationKind = "booking_created"
	NotificationKindBookingApproved    NotificationKind = "booking_approved"
	NotificationKindBookingCancelled   NotificationKind = "booking_cancelled"
	NotificationKindBookingStarted     NotificationKind = "booking_started"
	NotificationKindBookingCompleted   NotificationKind = "booking_completed"
	NotificationKindVendorAssigned     NotificationKind = "vendor_assigned"
	NotificationKindNewBooking         NotificationKind = "new_booking"
	NotificationKindPackageAssigned    NotificationKind = "package_assigned"
	NotificationKindApplicationDecided NotificationKind = "application_decided"
)

var validNotificationKinds = []NotificationKind{
	NotificationKindBookingCreated,
	NotificationKindBookingApproved,
	NotificationKindBookingCancelled,
	NotificationKindBookingStarted,
	NotificationKindBookingCompleted,
	NotificationKindVendorAssigned,
	NotificationKindNewBooking,
	NotificationKindPackageAssigned,
	NotificationKindApplicationDecided,
}

// IsValid checks whether the given kind matches the canonical enum.
func (n NotificationKind) IsValid() bool {
	for _, candidate := range validNotificationKinds {
		if candidate == n {
			return true
		}
	}
	return false
}

// RecipientType identifies who a notification is addressed to.
type RecipientType string

const (
	RecipientTypeUser   RecipientType = "user"
	RecipientTypeVendor RecipientType = "vendor"
	RecipientTypeAdmin  RecipientType = "admin"
)

// IsValid reports whether the value is a known RecipientType.
func (r RecipientType) IsValid() bool {
	switch r {
	case RecipientTypeUser, RecipientTypeVendor, RecipientTypeAdmin:
		return true
	default:
		return false
	}
}

// ParseRecipientType converts raw input into a RecipientType.
func ParseRecipientType(value string) (RecipientType, error) {
	switch RecipientType(value) {
	case RecipientTypeUser:
		return RecipientTypeUser, nil
	case RecipientTypeVendor:
		return RecipientTypeVendor, nil
	case RecipientTypeAdmin:
		return RecipientTypeAdmin, nil
	default:
		return "", fmt.Errorf("invalid recipient type %q", value)
	}
}
