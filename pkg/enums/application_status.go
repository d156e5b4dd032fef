package enums

import "fmt"

// ApplicationStatus tracks a vendor package application.
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusApproved ApplicationStatus = "approved"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

var applicationStatusCodes = map[ApplicationStatus]int{
	ApplicationStatusPending:  0,
	ApplicationStatusApproved: 1,
	ApplicationStatusRejected: 2,
}

// String implements fmt.Stringer.
func (a ApplicationStatus) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ApplicationStatus.
func (a ApplicationStatus) IsValid() bool {
	_, ok := applicationStatusCodes[a]
	return ok
}

// Code returns the numeric wire code for the status.
func (a ApplicationStatus) Code() int {
	return applicationStatusCodes[a]
}

// ParseApplicationStatusCode converts a numeric wire code into an ApplicationStatus.
func ParseApplicationStatusCode(code int) (ApplicationStatus, error) {
	for status, candidate := range applicationStatusCodes {
		if candidate == code {
			return status, nil
		}
	}
	return "", fmt.Errorf("invalid application status code %d", code)
}
