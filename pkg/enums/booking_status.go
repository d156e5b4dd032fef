package enums

import "fmt"

// BookingStatus tracks the lifecycle of a booking.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusApproved  BookingStatus = "approved"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusStarted   BookingStatus = "started"
	BookingStatusCompleted BookingStatus = "completed"
)

var validBookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusApproved,
	BookingStatusCancelled,
	BookingStatusStarted,
	BookingStatusCompleted,
}

// bookingStatusCodes maps statuses onto the numeric wire codes clients send.
var bookingStatusCodes = map[BookingStatus]int{
	BookingStatusPending:   0,
	BookingStatusApproved:  1,
	BookingStatusCancelled: 2,
	BookingStatusStarted:   3,
	BookingStatusCompleted: 4,
}

// String implements fmt.Stringer.
func (b BookingStatus) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BookingStatus.
func (b BookingStatus) IsValid() bool {
	for _, candidate := range validBookingStatuses {
		if candidate == b {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (b BookingStatus) IsTerminal() bool {
	return b == BookingStatusCancelled || b == BookingStatusCompleted
}

// Code returns the numeric wire code for the status.
func (b BookingStatus) Code() int {
	return bookingStatusCodes[b]
}

// ParseBookingStatusCode converts a numeric wire code into a BookingStatus.
func ParseBookingStatusCode(code int) (BookingStatus, error) {
	for status, candidate := range bookingStatusCodes {
		if candidate == code {
			return status, nil
		}
	}
	return "", fmt.Errorf("invalid booking status code %d", code)
}
