package bookings

import (
	"context"

	"github.com/google/uuid"

	"github.com/servio-app/servio-backend/pkg/db/models"
	"github.com/servio-app/servio-backend/pkg/enums"
	pkgerrors "github.com/servio-app/servio-backend/pkg/errors"
)

// GetEligibleVendors unions three vendor sets for the booking's service:
// individual registrations with the manual toggle on, company registrations
// with the toggle on, and vendors holding any catalog assignment under the
// service. The third branch ignores the toggle because the assignment was
// already an explicit grant.
func (s *service) GetEligibleVendors(ctx context.Context, bookingID uuid.UUID) ([]models.Vendor, error) {
	if bookingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}
	booking, err := s.loadBooking(ctx, s.repo, bookingID)
	if err != nil {
		return nil, err
	}

	individuals, err := s.vendors.ListRegisteredVendors(ctx, booking.ServiceID, enums.VendorTypeIndividual, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list individual vendors")
	}
	companies, err := s.vendors.ListRegisteredVendors(ctx, booking.ServiceID, enums.VendorTypeCompany, true)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list company vendors")
	}
	assigned, err := s.vendors.ListAssignedVendors(ctx, booking.ServiceID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assigned vendors")
	}

	seen := make(map[uuid.UUID]struct{})
	eligible := make([]models.Vendor, 0, len(individuals)+len(companies)+len(assigned))
	for _, group := range [][]models.Vendor{individuals, companies, assigned} {
		for _, vendor := range group {
			if _, ok := seen[vendor.ID]; ok {
				continue
			}
			seen[vendor.ID] = struct{}{}
			eligible = append(eligible, vendor)
		}
	}
	return eligible, nil
}
