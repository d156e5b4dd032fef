package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/servio-app/servio-backend/internal/notifications"
	"github.com/servio-app/servio-backend/pkg/db/models"
	"github.com/servio-app/servio-backend/pkg/enums"
	pkgerrors "github.com/servio-app/servio-backend/pkg/errors"
	"github.com/servio-app/servio-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type vendorReader interface {
	FindVendor(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
	IsRegisteredForService(ctx context.Context, vendorID, serviceID uuid.UUID) (bool, error)
	ListRegisteredVendors(ctx context.Context, serviceID uuid.UUID, vendorType enums.VendorType, manualOnly bool) ([]models.Vendor, error)
	ListAssignedVendors(ctx context.Context, serviceID uuid.UUID) ([]models.Vendor, error)
}

// Service defines booking lifecycle operations.
type Service interface {
	BookService(ctx context.Context, userID uuid.UUID, input BookingInput) (*models.Booking, error)
	ApproveOrRejectBooking(ctx context.Context, input DecisionInput) error
	AssignBookingToVendor(ctx context.Context, input AssignInput) error
	ApproveOrAssignBooking(ctx context.Context, input DecideAndAssignInput) error
	UpdateBookingStatusByVendor(ctx context.Context, input VendorStatusInput) error
	GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	ListUserBookings(ctx context.Context, userID uuid.UUID, params ListParams) (*ListResult, error)
	ListVendorBookings(ctx context.Context, vendorID uuid.UUID, params ListParams) (*ListResult, error)
	GetEligibleVendors(ctx context.Context, bookingID uuid.UUID) ([]models.Vendor, error)
}

const bookingTimeLayout = "15:04"

type service struct {
	repo        Repository
	vendors     vendorReader
	tx          txRunner
	notifier    notifications.Dispatcher
	startWindow time.Duration
}

// NewService builds a bookings service. startWindow is how early a vendor may
// mark a booking started relative to its scheduled slot.
func NewService(repo Repository, vendors vendorReader, tx txRunner, notifier notifications.Dispatcher, startWindow time.Duration) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("bookings repository required")
	}
	if vendors == nil {
		return nil, fmt.Errorf("vendor reader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notification dispatcher required")
	}
	if startWindow <= 0 {
		startWindow = 10 * time.Minute
	}
	return &service{
		repo:        repo,
		vendors:     vendors,
		tx:          tx,
		notifier:    notifier,
		startWindow: startWindow,
	}, nil
}

func (s *service) BookService(ctx context.Context, userID uuid.UUID, input BookingInput) (*models.Booking, error) {
	if err := validateBookingInput(userID, input); err != nil {
		return nil, err
	}

	booking := &models.Booking{
		ID:                uuid.New(),
		UserID:            userID,
		ServiceCategoryID: input.ServiceCategoryID,
		ServiceID:         input.ServiceID,
		ServiceTypeID:     input.ServiceTypeID,
		Status:            enums.BookingStatusPending,
		BookingDate:       input.BookingDate,
		BookingTime:       input.BookingTime,
		Notes:             input.Notes,
		MediaURL:          input.MediaURL,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// The lock closes the race window between the duplicate check and
		// the insert for concurrent requests on the same user and package.
		for _, pkg := range input.Packages {
			if err := repo.LockUserPackage(ctx, userID, pkg.PackageID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock booking creation")
			}
			duplicate, err := repo.HasNonTerminalBooking(ctx, userID, input.ServiceTypeID, pkg.PackageID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check duplicate booking")
			}
			if duplicate {
				return pkgerrors.New(pkgerrors.CodeConflict, "an active booking already exists for this package").
					WithDetails(map[string]any{"package_id": pkg.PackageID.String()})
			}
		}

		for _, pkg := range input.Packages {
			row := models.BookingPackage{
				ID:        uuid.New(),
				BookingID: booking.ID,
				PackageID: pkg.PackageID,
			}
			for _, sub := range pkg.SubPackages {
				quantity := sub.Quantity
				if quantity <= 0 {
					quantity = 1
				}
				row.SubPackages = append(row.SubPackages, models.BookingSubPackage{
					ID:               uuid.New(),
					BookingID:        booking.ID,
					BookingPackageID: row.ID,
					PackageItemID:    sub.SubPackageID,
					Price:            sub.Price,
					Quantity:         quantity,
				})
			}
			booking.Packages = append(booking.Packages, row)
		}

		if err := repo.Create(ctx, booking); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create booking")
		}

		var preferences []models.BookingPreference
		for _, optionID := range input.Preferences {
			preferences = append(preferences, models.BookingPreference{
				ID:                 uuid.New(),
				BookingID:          booking.ID,
				PreferenceOptionID: optionID,
			})
		}
		if err := repo.CreatePreferences(ctx, preferences); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create booking preferences")
		}

		var addons []models.BookingAddon
		for _, addon := range input.Addons {
			addons = append(addons, models.BookingAddon{
				ID:            uuid.New(),
				BookingID:     booking.ID,
				PackageItemID: addon.PackageItemID,
				AddonID:       addon.AddonID,
				Price:         addon.Price,
			})
		}
		if err := repo.CreateAddons(ctx, addons); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create booking addons")
		}

		var consents []models.BookingConsent
		for _, consent := range input.Consents {
			consents = append(consents, models.BookingConsent{
				ID:            uuid.New(),
				BookingID:     booking.ID,
				ConsentItemID: consent.ConsentItemID,
				Accepted:      consent.Accepted,
			})
		}
		if err := repo.CreateConsents(ctx, consents); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create booking consents")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(ctx, notifications.Event{
		Kind:          enums.NotificationKindBookingCreated,
		RecipientID:   userID,
		RecipientType: enums.RecipientTypeUser,
		Title:         "Booking received",
		Body:          "Your booking was received and is awaiting approval.",
		Data:          map[string]any{"booking_id": booking.ID.String()},
	})
	return booking, nil
}

func validateBookingInput(userID uuid.UUID, input BookingInput) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.ServiceCategoryID == uuid.Nil || input.ServiceID == uuid.Nil || input.ServiceTypeID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "service lineage ids required")
	}
	if input.BookingDate.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "booking date required")
	}
	if _, err := time.Parse(bookingTimeLayout, input.BookingTime); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "booking time must be HH:MM")
	}
	if len(input.Packages) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one package required")
	}
	for _, pkg := range input.Packages {
		if pkg.PackageID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "package id required")
		}
		if len(pkg.SubPackages) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "at least one sub-package required per package").
				WithDetails(map[string]any{"package_id": pkg.PackageID.String()})
		}
		for _, sub := range pkg.SubPackages {
			if sub.SubPackageID == uuid.Nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "sub-package id required")
			}
			if sub.Price.IsNegative() {
				return pkgerrors.New(pkgerrors.CodeValidation, "sub-package price cannot be negative")
			}
		}
	}
	return nil
}

// requireDecidable gates approvals and cancellations. Only pending and
// approved bookings can still be ruled on; a started booking belongs to the
// vendor flow and terminal statuses never change again.
func requireDecidable(status enums.BookingStatus) error {
	if status != enums.BookingStatusPending && status != enums.BookingStatusApproved {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "booking can no longer be decided").
			WithDetails(map[string]any{"status": status.String()})
	}
	return nil
}

func (s *service) ApproveOrRejectBooking(ctx context.Context, input DecisionInput) error {
	if input.Status != enums.BookingStatusApproved && input.Status != enums.BookingStatusCancelled {
		return pkgerrors.New(pkgerrors.CodeValidation, "decision status must be approved or cancelled")
	}

	var booking *models.Booking
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		found, err := s.loadBooking(ctx, repo, input.BookingID)
		if err != nil {
			return err
		}
		if err := requireDecidable(found.Status); err != nil {
			return err
		}
		booking = found
		return s.updateStatus(ctx, repo, found.ID, input.Status, nil)
	})
	if err != nil {
		return err
	}

	s.notifyUserDecision(ctx, booking, input.Status)
	return nil
}

func (s *service) AssignBookingToVendor(ctx context.Context, input AssignInput) error {
	var booking *models.Booking
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		found, err := s.loadBooking(ctx, repo, input.BookingID)
		if err != nil {
			return err
		}
		if found.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "booking is in a terminal state").
				WithDetails(map[string]any{"status": found.Status.String()})
		}
		if err := s.verifyVendorAssignable(ctx, input.VendorID, found.ServiceID); err != nil {
			return err
		}
		booking = found
		return s.updateStatus(ctx, repo, found.ID, found.Status, &input.VendorID)
	})
	if err != nil {
		return err
	}

	s.notifyVendorAssigned(ctx, booking, input.VendorID)
	return nil
}

func (s *service) ApproveOrAssignBooking(ctx context.Context, input DecideAndAssignInput) error {
	if input.Status != enums.BookingStatusApproved && input.Status != enums.BookingStatusCancelled {
		return pkgerrors.New(pkgerrors.CodeValidation, "decision status must be approved or cancelled")
	}
	if input.Status == enums.BookingStatusCancelled && input.VendorID != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "cannot assign a vendor while cancelling")
	}

	var booking *models.Booking
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		found, err := s.loadBooking(ctx, repo, input.BookingID)
		if err != nil {
			return err
		}
		if err := requireDecidable(found.Status); err != nil {
			return err
		}
		if input.VendorID != nil {
			if err := s.verifyVendorAssignable(ctx, *input.VendorID, found.ServiceID); err != nil {
				return err
			}
		}
		booking = found
		return s.updateStatus(ctx, repo, found.ID, input.Status, input.VendorID)
	})
	if err != nil {
		return err
	}

	s.notifyUserDecision(ctx, booking, input.Status)
	if input.VendorID != nil {
		s.notifyVendorAssigned(ctx, booking, *input.VendorID)
	}
	return nil
}

func (s *service) UpdateBookingStatusByVendor(ctx context.Context, input VendorStatusInput) error {
	if input.Status != enums.BookingStatusStarted && input.Status != enums.BookingStatusCompleted {
		return pkgerrors.New(pkgerrors.CodeValidation, "vendor status must be started or completed")
	}
	if input.VendorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}

	var booking *models.Booking
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		found, err := s.loadBooking(ctx, repo, input.BookingID)
		if err != nil {
			return err
		}
		if found.VendorID == nil || *found.VendorID != input.VendorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "booking is not assigned to this vendor")
		}
		if input.Status == enums.BookingStatusStarted && found.Status != enums.BookingStatusApproved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "booking must be approved before it can be started").
				WithDetails(map[string]any{"status": found.Status.String()})
		}
		if input.Status == enums.BookingStatusCompleted && found.Status != enums.BookingStatusStarted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "booking must be started before it can be completed").
				WithDetails(map[string]any{"status": found.Status.String()})
		}

		updates := map[string]any{"status": input.Status}
		if input.Status == enums.BookingStatusStarted {
			scheduled, err := found.ScheduledAt(time.Local)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse booking slot")
			}
			if time.Now().Before(scheduled.Add(-s.startWindow)) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "too early to start this booking").
					WithDetails(map[string]any{"scheduled_at": scheduled.Format(time.RFC3339)})
			}
		}
		if input.Status == enums.BookingStatusCompleted {
			updates["completed_flag"] = true
		}

		booking = found
		if err := repo.Update(ctx, found.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update booking status")
		}
		return nil
	})
	if err != nil {
		return err
	}

	kind := enums.NotificationKindBookingStarted
	body := "Your vendor has started the booked service."
	if input.Status == enums.BookingStatusCompleted {
		kind = enums.NotificationKindBookingCompleted
		body = "Your booked service has been completed."
	}
	s.notifier.Dispatch(ctx, notifications.Event{
		Kind:          kind,
		RecipientID:   booking.UserID,
		RecipientType: enums.RecipientTypeUser,
		Title:         "Booking update",
		Body:          body,
		Data:          map[string]any{"booking_id": booking.ID.String()},
	})
	return nil
}

func (s *service) GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id required")
	}
	return s.loadBooking(ctx, s.repo, id)
}

func (s *service) ListUserBookings(ctx context.Context, userID uuid.UUID, params ListParams) (*ListResult, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	query, err := buildListParams(params)
	if err != nil {
		return nil, err
	}
	rows, next, err := s.repo.ListByUser(ctx, userID, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bookings")
	}
	return buildListResult(rows, next), nil
}

func (s *service) ListVendorBookings(ctx context.Context, vendorID uuid.UUID, params ListParams) (*ListResult, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	query, err := buildListParams(params)
	if err != nil {
		return nil, err
	}
	rows, next, err := s.repo.ListByVendor(ctx, vendorID, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bookings")
	}
	return buildListResult(rows, next), nil
}

func buildListParams(params ListParams) (listBookingsParams, error) {
	query := listBookingsParams{Limit: params.Limit}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return listBookingsParams{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}
	return query, nil
}

func buildListResult(rows []models.Booking, next *pagination.Cursor) *ListResult {
	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}
}

func (s *service) loadBooking(ctx context.Context, repo Repository, id uuid.UUID) (*models.Booking, error) {
	booking, err := repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	return booking, nil
}

// verifyVendorAssignable enforces the manual-assignment toggle and the
// service registration requirement before a vendor can receive a booking.
func (s *service) verifyVendorAssignable(ctx context.Context, vendorID, serviceID uuid.UUID) error {
	vendor, err := s.vendors.FindVendor(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	if !vendor.ManualAssignment {
		return pkgerrors.New(pkgerrors.CodeConflict, "vendor has manual assignment disabled")
	}
	registered, err := s.vendors.IsRegisteredForService(ctx, vendorID, serviceID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check service registration")
	}
	if !registered {
		return pkgerrors.New(pkgerrors.CodeConflict, "vendor is not registered for this service")
	}
	return nil
}

func (s *service) updateStatus(ctx context.Context, repo Repository, id uuid.UUID, status enums.BookingStatus, vendorID *uuid.UUID) error {
	updates := map[string]any{"status": status}
	if vendorID != nil {
		updates["vendor_id"] = *vendorID
	}
	if err := repo.Update(ctx, id, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update booking")
	}
	return nil
}

func (s *service) notifyUserDecision(ctx context.Context, booking *models.Booking, status enums.BookingStatus) {
	kind := enums.NotificationKindBookingApproved
	body := "Your booking was approved."
	if status == enums.BookingStatusCancelled {
		kind = enums.NotificationKindBookingCancelled
		body = "Your booking was cancelled."
	}
	s.notifier.Dispatch(ctx, notifications.Event{
		Kind:          kind,
		RecipientID:   booking.UserID,
		RecipientType: enums.RecipientTypeUser,
		Title:         "Booking update",
		Body:          body,
		Data:          map[string]any{"booking_id": booking.ID.String()},
	})
}

func (s *service) notifyVendorAssigned(ctx context.Context, booking *models.Booking, vendorID uuid.UUID) {
	s.notifier.Dispatch(ctx, notifications.Event{
		Kind:          enums.NotificationKindVendorAssigned,
		RecipientID:   booking.UserID,
		RecipientType: enums.RecipientTypeUser,
		Title:         "Vendor assigned",
		Body:          "A vendor was assigned to your booking.",
		Data:          map[string]any{"booking_id": booking.ID.String(), "vendor_id": vendorID.String()},
	})
	s.notifier.Dispatch(ctx, notifications.Event{
		Kind:          enums.NotificationKindNewBooking,
		RecipientID:   vendorID,
		RecipientType: enums.RecipientTypeVendor,
		Title:         "New booking",
		Body:          "You were assigned a new booking.",
		Data:          map[string]any{"booking_id": booking.ID.String()},
	})
}
