package vendors

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/servio-app/servio-backend/pkg/db"
	"github.com/servio-app/servio-backend/pkg/db/models"
	pkgerrors "github.com/servio-app/servio-backend/pkg/errors"
	"github.com/servio-app/servio-backend/pkg/enums"
)

// Service exposes vendor onboarding and dispatch configuration.
type Service interface {
	CreateVendor(ctx context.Context, input CreateVendorInput) (*models.Vendor, error)
	GetVendor(ctx context.Context, vendorID uuid.UUID) (*models.Vendor, error)
	RegisterForService(ctx context.Context, input RegisterServiceInput) error
	SetManualAssignment(ctx context.Context, vendorID uuid.UUID, enabled bool) error
}

type service struct {
	repo Repository
}

// NewService builds the vendors service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("vendors service requires a repository")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateVendor(ctx context.Context, input CreateVendorInput) (*models.Vendor, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.DisplayName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "display name required")
	}
	vendorType, err := enums.ParseVendorType(input.Type)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "type must be individual or company")
	}

	vendor := &models.Vendor{
		ID:          uuid.New(),
		UserID:      input.UserID,
		DisplayName: input.DisplayName,
		Type:        vendorType,
	}
	created, err := s.repo.CreateVendor(ctx, vendor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create vendor")
	}
	return created, nil
}

func (s *service) GetVendor(ctx context.Context, vendorID uuid.UUID) (*models.Vendor, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	vendor, err := s.repo.FindVendor(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	return vendor, nil
}

// RegisterForService is idempotent. Re-registering an enrolled vendor is a
// no-op rather than a conflict.
func (s *service) RegisterForService(ctx context.Context, input RegisterServiceInput) error {
	if input.VendorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if input.ServiceID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "service id required")
	}

	if _, err := s.repo.FindVendor(ctx, input.VendorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}

	registered, err := s.repo.IsRegisteredForService(ctx, input.VendorID, input.ServiceID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check registration")
	}
	if registered {
		return nil
	}

	reg := &models.VendorServiceRegistration{
		ID:        uuid.New(),
		VendorID:  input.VendorID,
		ServiceID: input.ServiceID,
	}
	if err := s.repo.RegisterService(ctx, reg); err != nil {
		// concurrent registration loses the insert race, same outcome
		if db.IsUniqueViolation(err, "ux_vendor_service_registrations") {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register service")
	}
	return nil
}

func (s *service) SetManualAssignment(ctx context.Context, vendorID uuid.UUID, enabled bool) error {
	if vendorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if _, err := s.repo.FindVendor(ctx, vendorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}
	if err := s.repo.SetManualAssignment(ctx, vendorID, enabled); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update manual assignment")
	}
	return nil
}
