package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/servio-app/servio-backend/api/middleware"
	"github.com/servio-app/servio-backend/api/responses"
	"github.com/servio-app/servio-backend/api/validators"
	"github.com/servio-app/servio-backend/internal/assignments"
	pkgerrors "github.com/servio-app/servio-backend/pkg/errors"
	"github.com/servio-app/servio-backend/pkg/enums"
	"github.com/servio-app/servio-backend/pkg/logger"
)

type selectionsRequest struct {
	Selections []assignments.SelectionInput `json:"selections" validate:"required,min=1,dive"`
}

type applicationDecisionRequest struct {
	Status int `json:"status"`
}

// AssignPackages grants a vendor the selected packages directly, skipping the
// application flow.
func AssignPackages(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		vendorID, err := validators.ParseUUIDParam(r, "vendorId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req selectionsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := assignments.AssignInput{VendorID: vendorID, Selections: req.Selections}
		if err := svc.AssignPackageToVendor(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"status": "assigned"})
	}
}

// ListVendorAssignments returns the calling vendor's live grants.
func ListVendorAssignments(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		vendorID, err := actorVendorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListVendorAssignments(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// ApplyForPackages opens a pending application for the calling vendor.
func ApplyForPackages(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		vendorID, err := actorVendorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req selectionsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := assignments.ApplyInput{VendorID: vendorID, Selections: req.Selections}
		ids, err := svc.ApplyPackagesToVendor(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"application_ids": ids})
	}
}

// ListApplications returns applications, optionally filtered by numeric status
// code.
func ListApplications(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		var filter *enums.ApplicationStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			code, err := strconv.Atoi(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "status must be a numeric code"))
				return
			}
			status, err := enums.ParseApplicationStatusCode(code)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown application status code"))
				return
			}
			filter = &status
		}

		apps, err := svc.ListApplications(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, apps)
	}
}

// DecideApplication approves or rejects a pending application. Approval
// migrates the requested rows into live assignments.
func DecideApplication(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		applicationID, err := validators.ParseUUIDParam(r, "applicationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req applicationDecisionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseApplicationStatusCode(req.Status)
		if err != nil || status == enums.ApplicationStatusPending {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "status must be the approved or rejected code"))
			return
		}

		decidedBy, err := actorUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := assignments.DecisionInput{
			ApplicationID: applicationID,
			Approve:       status == enums.ApplicationStatusApproved,
			DecidedBy:     decidedBy,
		}
		if err := svc.UpdateApplicationStatus(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": status.String()})
	}
}

// RemoveAssignment revokes one assignment row.
func RemoveAssignment(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		assignmentID, err := validators.ParseUUIDParam(r, "assignmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveVendorPackage(r.Context(), assignmentID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}

func actorUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "user identity required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity malformed")
	}
	return id, nil
}

func actorVendorID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.VendorIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor identity required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor identity malformed")
	}
	return id, nil
}
