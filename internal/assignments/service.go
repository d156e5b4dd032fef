package assignments

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
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type vendorReader interface {
	FindVendor(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
}

type catalogReader interface {
	FindPackage(ctx context.Context, id uuid.UUID) (*models.Package, error)
	FindPackageItem(ctx context.Context, id uuid.UUID) (*models.PackageItem, error)
}

// Service defines the vendor assignment overlay operations.
type Service interface {
	AssignPackageToVendor(ctx context.Context, input AssignInput) error
	ApplyPackagesToVendor(ctx context.Context, input ApplyInput) ([]uuid.UUID, error)
	UpdateApplicationStatus(ctx context.Context, input DecisionInput) error
	RemoveVendorPackage(ctx context.Context, assignmentID uuid.UUID) error
	ListVendorAssignments(ctx context.Context, vendorID uuid.UUID) ([]models.VendorAssignment, error)
	ListApplications(ctx context.Context, status *enums.ApplicationStatus) ([]models.VendorPackageApplication, error)
}

type service struct {
	repo     Repository
	vendors  vendorReader
	catalog  catalogReader
	tx       txRunner
	notifier notifications.Dispatcher
}

// NewService builds an assignments service with the required dependencies.
func NewService(repo Repository, vendors vendorReader, catalog catalogReader, tx txRunner, notifier notifications.Dispatcher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("assignments repository required")
	}
	if vendors == nil {
		return nil, fmt.Errorf("vendor reader required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notification dispatcher required")
	}
	return &service{repo: repo, vendors: vendors, catalog: catalog, tx: tx, notifier: notifier}, nil
}

func (s *service) AssignPackageToVendor(ctx context.Context, input AssignInput) error {
	if input.VendorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if len(input.Selections) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one selection required")
	}

	if _, err := s.vendors.FindVendor(ctx, input.VendorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}

	var created int
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, sel := range input.Selections {
			if err := s.verifySelection(ctx, sel); err != nil {
				return err
			}
			if len(sel.SubPackageIDs) == 0 {
				n, err := s.upsertAssignment(ctx, repo, input.VendorID, sel.PackageID, nil)
				if err != nil {
					return err
				}
				created += n
				continue
			}
			for _, itemID := range sel.SubPackageIDs {
				id := itemID
				n, err := s.upsertAssignment(ctx, repo, input.VendorID, sel.PackageID, &id)
				if err != nil {
					return err
				}
				created += n
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// One batched notification per call regardless of how many rows landed.
	s.notifier.Dispatch(ctx, notifications.Event{
		Kind:          enums.NotificationKindPackageAssigned,
		RecipientID:   input.VendorID,
		RecipientType: enums.RecipientTypeVendor,
		Title:         "New packages assigned",
		Body:          "An administrator granted you access to catalog packages.",
		Data:          map[string]any{"assigned_count": created},
	})
	return nil
}

// upsertAssignment inserts the row unless the identical grant already exists.
// Re-assigning the same pair is a no-op, not an error.
func (s *service) upsertAssignment(ctx context.Context, repo Repository, vendorID, packageID uuid.UUID, itemID *uuid.UUID) (int, error) {
	exists, err := repo.AssignmentExists(ctx, vendorID, packageID, itemID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check assignment")
	}
	if exists {
		return 0, nil
	}
	row := &models.VendorAssignment{
		ID:            uuid.New(),
		VendorID:      vendorID,
		PackageID:     packageID,
		PackageItemID: itemID,
	}
	if err := repo.CreateAssignment(ctx, row); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create assignment")
	}
	return 1, nil
}

func (s *service) verifySelection(ctx context.Context, sel SelectionInput) error {
	if sel.PackageID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "selection missing package id")
	}
	if _, err := s.catalog.FindPackage(ctx, sel.PackageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "package not found").
				WithDetails(map[string]any{"package_id": sel.PackageID.String()})
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load package")
	}
	for _, itemID := range sel.SubPackageIDs {
		item, err := s.catalog.FindPackageItem(ctx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "sub-package not found").
					WithDetails(map[string]any{"sub_package_id": itemID.String()})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sub-package")
		}
		if item.PackageID != sel.PackageID {
			return pkgerrors.New(pkgerrors.CodeValidation, "sub-package does not belong to package")
		}
	}
	return nil
}

func (s *service) ApplyPackagesToVendor(ctx context.Context, input ApplyInput) ([]uuid.UUID, error) {
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if len(input.Selections) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one selection required")
	}

	if _, err := s.vendors.FindVendor(ctx, input.VendorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
	}

	var ids []uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, sel := range input.Selections {
			if err := s.verifySelection(ctx, sel); err != nil {
				return err
			}
			app := &models.VendorPackageApplication{
				ID:        uuid.New(),
				VendorID:  input.VendorID,
				PackageID: sel.PackageID,
				Status:    enums.ApplicationStatusPending,
			}
			for _, itemID := range sel.SubPackageIDs {
				app.Items = append(app.Items, models.VendorApplicationItem{
					ID:            uuid.New(),
					ApplicationID: app.ID,
					PackageItemID: itemID,
				})
			}
			if err := repo.CreateApplication(ctx, app); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create application")
			}
			ids = append(ids, app.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *service) UpdateApplicationStatus(ctx context.Context, input DecisionInput) error {
	if input.ApplicationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "application id required")
	}

	var vendorID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		app, err := repo.FindApplication(ctx, input.ApplicationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Approval already migrated and deleted the application, so a
				// second decision call lands here.
				return pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load application")
		}
		if app.Status != enums.ApplicationStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "application already decided")
		}
		vendorID = app.VendorID

		if !input.Approve {
			updates := map[string]any{
				"status":     enums.ApplicationStatusRejected,
				"decided_by": input.DecidedBy,
				"decided_at": time.Now().UTC(),
			}
			if err := repo.UpdateApplication(ctx, app.ID, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject application")
			}
			if err := repo.DeleteApplicationItems(ctx, app.ID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete application items")
			}
			return nil
		}

		// Approval is a one-way migration into the assignment overlay.
		if len(app.Items) == 0 {
			if _, err := s.upsertAssignment(ctx, repo, app.VendorID, app.PackageID, nil); err != nil {
				return err
			}
		}
		for _, item := range app.Items {
			itemID := item.PackageItemID
			if _, err := s.upsertAssignment(ctx, repo, app.VendorID, app.PackageID, &itemID); err != nil {
				return err
			}
		}
		if err := repo.DeleteApplicationItems(ctx, app.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete application items")
		}
		if err := repo.DeleteApplication(ctx, app.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete application")
		}
		return nil
	})
	if err != nil {
		return err
	}

	decision := "rejected"
	if input.Approve {
		decision = "approved"
	}
	s.notifier.Dispatch(ctx, notifications.Event{
		Kind:          enums.NotificationKindApplicationDecided,
		RecipientID:   vendorID,
		RecipientType: enums.RecipientTypeVendor,
		Title:         "Package application " + decision,
		Body:          "Your catalog package application was " + decision + ".",
		Data:          map[string]any{"application_id": input.ApplicationID.String(), "decision": decision},
	})
	return nil
}

func (s *service) RemoveVendorPackage(ctx context.Context, assignmentID uuid.UUID) error {
	if assignmentID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "assignment id required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindAssignment(ctx, assignmentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignment")
		}
		if err := repo.DeleteAssignment(ctx, assignmentID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete assignment")
		}
		return nil
	})
}

func (s *service) ListVendorAssignments(ctx context.Context, vendorID uuid.UUID) ([]models.VendorAssignment, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	rows, err := s.repo.ListAssignmentsByVendor(ctx, vendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assignments")
	}
	return rows, nil
}

func (s *service) ListApplications(ctx context.Context, status *enums.ApplicationStatus) ([]models.VendorPackageApplication, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid application status")
	}
	apps, err := s.repo.ListApplications(ctx, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list applications")
	}
	return apps, nil
}
