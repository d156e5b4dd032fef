package controllers

import (
	"net/http"

	"github.com/servio-app/servio-backend/api/responses"
	"github.com/servio-app/servio-backend/api/validators"
	"github.com/servio-app/servio-backend/internal/catalog"
	pkgerrors "github.com/servio-app/servio-backend/pkg/errors"
	"github.com/servio-app/servio-backend/pkg/logger"
)

type catalogPackagesRequest struct {
	Packages []catalog.PackageInput `json:"packages" validate:"required,min=1,dive"`
}

// CreateCatalogPackages builds the package tree under a service, creating the
// global service type on demand.
func CreateCatalogPackages(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		serviceID, err := validators.ParseUUIDParam(r, "serviceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req catalogPackagesRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		serviceTypeID, err := svc.CreateCatalogPackages(r.Context(), serviceID, req.Packages)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"service_type_id": serviceTypeID.String()})
	}
}

// EditCatalogPackages applies the full-replacement edit across the submitted
// packages.
func EditCatalogPackages(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var req catalogPackagesRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.EditCatalogPackages(r.Context(), req.Packages); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}

func DeleteCatalogPackage(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		packageID, err := validators.ParseUUIDParam(r, "packageId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteCatalogPackage(r.Context(), packageID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// GetCatalog returns the full service tree down to preference options.
func GetCatalog(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		serviceID, err := validators.ParseUUIDParam(r, "serviceId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		tree, err := svc.GetCatalog(r.Context(), serviceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tree)
	}
}
