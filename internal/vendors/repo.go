package vendors

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/servio-app/servio-backend/pkg/db/models"
	"github.com/servio-app/servio-backend/pkg/enums"
)

// Repository defines persistence operations for vendor accounts and their
// service registrations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateVendor(ctx context.Context, vendor *models.Vendor) (*models.Vendor, error)
	FindVendor(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
	RegisterService(ctx context.Context, reg *models.VendorServiceRegistration) error
	IsRegisteredForService(ctx context.Context, vendorID, serviceID uuid.UUID) (bool, error)
	ListRegisteredVendors(ctx context.Context, serviceID uuid.UUID, vendorType enums.VendorType, manualOnly bool) ([]models.Vendor, error)
	ListAssignedVendors(ctx context.Context, serviceID uuid.UUID) ([]models.Vendor, error)
	SetManualAssignment(ctx context.Context, vendorID uuid.UUID, enabled bool) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a vendors repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateVendor(ctx context.Context, vendor *models.Vendor) (*models.Vendor, error) {
	if err := r.db.WithContext(ctx).Create(vendor).Error; err != nil {
		return nil, err
	}
	return vendor, nil
}

func (r *repository) FindVendor(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	var vendor models.Vendor
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&vendor).Error
	if err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *repository) RegisterService(ctx context.Context, reg *models.VendorServiceRegistration) error {
	return r.db.WithContext(ctx).Create(reg).Error
}

func (r *repository) IsRegisteredForService(ctx context.Context, vendorID, serviceID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.VendorServiceRegistration{}).
		Where("vendor_id = ? AND service_id = ?", vendorID, serviceID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListRegisteredVendors(ctx context.Context, serviceID uuid.UUID, vendorType enums.VendorType, manualOnly bool) ([]models.Vendor, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Vendor{}).
		Joins("JOIN vendor_service_registrations vsr ON vsr.vendor_id = vendors.id").
		Where("vsr.service_id = ? AND vendors.type = ?", serviceID, vendorType)
	if manualOnly {
		q = q.Where("vendors.manual_assignment = ?", true)
	}
	var out []models.Vendor
	if err := q.Order("vendors.created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) ListAssignedVendors(ctx context.Context, serviceID uuid.UUID) ([]models.Vendor, error) {
	var out []models.Vendor
	err := r.db.WithContext(ctx).
		Model(&models.Vendor{}).
		Distinct("vendors.*").
		Joins("JOIN vendor_assignments va ON va.vendor_id = vendors.id").
		Joins("JOIN packages p ON p.id = va.package_id").
		Joins("JOIN service_types st ON st.id = p.service_type_id").
		Where("st.service_id = ?", serviceID).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) SetManualAssignment(ctx context.Context, vendorID uuid.UUID, enabled bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Vendor{}).
		Where("id = ?", vendorID).
		Update("manual_assignment", enabled).Error
}
