package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/servio-app/servio-backend/api/responses"
	"github.com/servio-app/servio-backend/api/validators"
	"github.com/servio-app/servio-backend/internal/bookings"
	pkgerrors "github.com/servio-app/servio-backend/pkg/errors"
	"github.com/servio-app/servio-backend/pkg/enums"
	"github.com/servio-app/servio-backend/pkg/logger"
	"github.com/servio-app/servio-backend/pkg/pagination"
)

const bookingDateLayout = "2006-01-02"

type createBookingRequest struct {
	ServiceCategoryID uuid.UUID                   `json:"service_category_id" validate:"required"`
	ServiceID         uuid.UUID                   `json:"service_id" validate:"required"`
	ServiceTypeID     uuid.UUID                   `json:"service_type_id" validate:"required"`
	BookingDate       string                      `json:"booking_date" validate:"required"`
	BookingTime       string                      `json:"booking_time" validate:"required"`
	Notes             *string                     `json:"notes,omitempty"`
	MediaURL          *string                     `json:"media_url,omitempty"`
	Packages          []bookings.PackageSelection `json:"packages" validate:"required,min=1"`
	Preferences       []uuid.UUID                 `json:"preferences,omitempty"`
	Addons            []bookings.AddonSelection   `json:"addons,omitempty"`
	Consents          []bookings.ConsentAnswer    `json:"consents,omitempty"`
}

type bookingDecisionRequest struct {
	Status   int        `json:"status"`
	VendorID *uuid.UUID `json:"vendor_id,omitempty"`
}

type bookingAssignRequest struct {
	VendorID uuid.UUID `json:"vendor_id" validate:"required"`
}

type vendorStatusRequest struct {
	Status int `json:"status"`
}

// CreateBooking books a service for the calling user, snapshotting prices as
// submitted.
func CreateBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		userID, err := actorUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createBookingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bookingDate, err := time.Parse(bookingDateLayout, req.BookingDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "booking_date must use YYYY-MM-DD"))
			return
		}

		input := bookings.BookingInput{
			ServiceCategoryID: req.ServiceCategoryID,
			ServiceID:         req.ServiceID,
			ServiceTypeID:     req.ServiceTypeID,
			BookingDate:       bookingDate,
			BookingTime:       req.BookingTime,
			Notes:             req.Notes,
			MediaURL:          req.MediaURL,
			Packages:          req.Packages,
			Preferences:       req.Preferences,
			Addons:            req.Addons,
			Consents:          req.Consents,
		}

		booking, err := svc.BookService(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, booking)
	}
}

// GetBooking returns one booking with its selection tree.
func GetBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		bookingID, err := validators.ParseUUIDParam(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		booking, err := svc.GetBooking(r.Context(), bookingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, booking)
	}
}

// ListUserBookings pages through the calling user's bookings, newest first.
func ListUserBookings(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		userID, err := actorUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := bookingListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListUserBookings(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// ListVendorBookings pages through bookings assigned to the calling vendor.
func ListVendorBookings(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		vendorID, err := actorVendorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := bookingListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListVendorBookings(r.Context(), vendorID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// DecideBooking applies an admin's approve-or-cancel ruling. When vendor_id is
// present the ruling and the assignment land in one transaction.
func DecideBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		bookingID, err := validators.ParseUUIDParam(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req bookingDecisionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseBookingStatusCode(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown booking status code"))
			return
		}

		if req.VendorID != nil {
			input := bookings.DecideAndAssignInput{BookingID: bookingID, Status: status, VendorID: req.VendorID}
			err = svc.ApproveOrAssignBooking(r.Context(), input)
		} else {
			err = svc.ApproveOrRejectBooking(r.Context(), bookings.DecisionInput{BookingID: bookingID, Status: status})
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": status.Code()})
	}
}

// AssignBooking binds a booking to a manually assignable vendor.
func AssignBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		bookingID, err := validators.ParseUUIDParam(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req bookingAssignRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := bookings.AssignInput{BookingID: bookingID, VendorID: req.VendorID}
		if err := svc.AssignBookingToVendor(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "assigned"})
	}
}

// ListEligibleVendors returns the vendors a booking could be assigned to.
func ListEligibleVendors(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		bookingID, err := validators.ParseUUIDParam(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vendors, err := svc.GetEligibleVendors(r.Context(), bookingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, vendors)
	}
}

// UpdateVendorBookingStatus lets the assigned vendor move a booking to started
// or completed.
func UpdateVendorBookingStatus(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		vendorID, err := actorVendorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bookingID, err := validators.ParseUUIDParam(r, "bookingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req vendorStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseBookingStatusCode(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown booking status code"))
			return
		}

		input := bookings.VendorStatusInput{BookingID: bookingID, VendorID: vendorID, Status: status}
		if err := svc.UpdateBookingStatusByVendor(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": status.Code()})
	}
}

func bookingListParams(r *http.Request) (bookings.ListParams, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return bookings.ListParams{}, err
	}
	return bookings.ListParams{
		Limit:  limit,
		Cursor: r.URL.Query().Get("cursor"),
	}, nil
}
