package assignments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/servio-app/servio-backend/pkg/db/models"
	"github.com/servio-app/servio-backend/pkg/enums"
)

// Repository defines persistence operations for the assignment overlay.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	AssignmentExists(ctx context.Context, vendorID, packageID uuid.UUID, itemID *uuid.UUID) (bool, error)
	CreateAssignment(ctx context.Context, row *models.VendorAssignment) error
	FindAssignment(ctx context.Context, id uuid.UUID) (*models.VendorAssignment, error)
	ListAssignmentsByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.VendorAssignment, error)
	DeleteAssignment(ctx context.Context, id uuid.UUID) error
	CreateApplication(ctx context.Context, app *models.VendorPackageApplication) error
	FindApplication(ctx context.Context, id uuid.UUID) (*models.VendorPackageApplication, error)
	ListApplications(ctx context.Context, status *enums.ApplicationStatus) ([]models.VendorPackageApplication, error)
	UpdateApplication(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteApplicationItems(ctx context.Context, applicationID uuid.UUID) error
	DeleteApplication(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an assignments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) AssignmentExists(ctx context.Context, vendorID, packageID uuid.UUID, itemID *uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).
		Model(&models.VendorAssignment{}).
		Where("vendor_id = ? AND package_id = ?", vendorID, packageID)
	if itemID == nil {
		q = q.Where("package_item_id IS NULL")
	} else {
		q = q.Where("package_item_id = ?", *itemID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) CreateAssignment(ctx context.Context, row *models.VendorAssignment) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) FindAssignment(ctx context.Context, id uuid.UUID) (*models.VendorAssignment, error) {
	var row models.VendorAssignment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) ListAssignmentsByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.VendorAssignment, error) {
	var rows []models.VendorAssignment
	err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) DeleteAssignment(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.VendorAssignment{}).Error
}

func (r *repository) CreateApplication(ctx context.Context, app *models.VendorPackageApplication) error {
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *repository) FindApplication(ctx context.Context, id uuid.UUID) (*models.VendorPackageApplication, error) {
	var app models.VendorPackageApplication
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *repository) ListApplications(ctx context.Context, status *enums.ApplicationStatus) ([]models.VendorPackageApplication, error) {
	q := r.db.WithContext(ctx).Preload("Items").Order("created_at ASC")
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var apps []models.VendorPackageApplication
	if err := q.Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *repository) UpdateApplication(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.VendorPackageApplication{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) DeleteApplicationItems(ctx context.Context, applicationID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		Delete(&models.VendorApplicationItem{}).Error
}

func (r *repository) DeleteApplication(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.VendorPackageApplication{}).Error
}
