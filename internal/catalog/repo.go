package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/servio-app/servio-backend/pkg/db/models"
)

// Repository defines persistence operations for the catalog tree.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindService(ctx context.Context, id uuid.UUID) (*models.Service, error)
	FindGlobalServiceType(ctx context.Context, serviceID uuid.UUID) (*models.ServiceType, error)
	CreateServiceType(ctx context.Context, st *models.ServiceType) error
	FindPackage(ctx context.Context, id uuid.UUID) (*models.Package, error)
	CreatePackage(ctx context.Context, pkg *models.Package) error
	UpdatePackage(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeletePackage(ctx context.Context, id uuid.UUID) error
	FindPackageItem(ctx context.Context, id uuid.UUID) (*models.PackageItem, error)
	CreatePackageItem(ctx context.Context, item *models.PackageItem) error
	UpdatePackageItem(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListPackageItemIDs(ctx context.Context, packageID uuid.UUID) ([]uuid.UUID, error)
	DeletePackageItems(ctx context.Context, ids []uuid.UUID) error
	DeleteItemChildren(ctx context.Context, itemIDs []uuid.UUID) error
	DeletePreferencesByItem(ctx context.Context, itemID uuid.UUID) error
	CreatePreferenceGroups(ctx context.Context, groups []models.PreferenceGroup) error
	ListAddonIDs(ctx context.Context, itemID uuid.UUID) ([]uuid.UUID, error)
	CreateAddons(ctx context.Context, addons []models.Addon) error
	UpdateAddon(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteAddonsNotIn(ctx context.Context, itemID uuid.UUID, keep []uuid.UUID) error
	ListConsentIDs(ctx context.Context, itemID uuid.UUID) ([]uuid.UUID, error)
	CreateConsentItems(ctx context.Context, items []models.ConsentItem) error
	UpdateConsentItem(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteConsentItemsNotIn(ctx context.Context, itemID uuid.UUID, keep []uuid.UUID) error
	FindServiceTree(ctx context.Context, serviceID uuid.UUID) (*models.Service, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindService(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	var svc models.Service
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&svc).Error; err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *repository) FindGlobalServiceType(ctx context.Context, serviceID uuid.UUID) (*models.ServiceType, error) {
	var st models.ServiceType
	err := r.db.WithContext(ctx).
		Where("service_id = ? AND vendor_id IS NULL", serviceID).
		First(&st).Error
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (r *repository) CreateServiceType(ctx context.Context, st *models.ServiceType) error {
	return r.db.WithContext(ctx).Create(st).Error
}

func (r *repository) FindPackage(ctx context.Context, id uuid.UUID) (*models.Package, error) {
	var pkg models.Package
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&pkg).Error; err != nil {
		return nil, err
	}
	return &pkg, nil
}

func (r *repository) CreatePackage(ctx context.Context, pkg *models.Package) error {
	return r.db.WithContext(ctx).Create(pkg).Error
}

func (r *repository) UpdatePackage(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Package{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) DeletePackage(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Package{}).Error
}

func (r *repository) FindPackageItem(ctx context.Context, id uuid.UUID) (*models.PackageItem, error) {
	var item models.PackageItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) CreatePackageItem(ctx context.Context, item *models.PackageItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) UpdatePackageItem(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.PackageItem{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) ListPackageItemIDs(ctx context.Context, packageID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.PackageItem{}).
		Where("package_id = ?", packageID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) DeletePackageItems(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.PackageItem{}).Error
}

// DeleteItemChildren removes every preference/addon/consent row under the
// given sub-packages. Cascade is engine-driven, not left to the database.
func (r *repository) DeleteItemChildren(ctx context.Context, itemIDs []uuid.UUID) error {
	if len(itemIDs) == 0 {
		return nil
	}
	db := r.db.WithContext(ctx)

	var groupIDs []uuid.UUID
	err := db.Model(&models.PreferenceGroup{}).
		Where("package_item_id IN ?", itemIDs).
		Pluck("id", &groupIDs).Error
	if err != nil {
		return err
	}
	if len(groupIDs) > 0 {
		if err := db.Where("preference_group_id IN ?", groupIDs).Delete(&models.PreferenceOption{}).Error; err != nil {
			return err
		}
	}
	if err := db.Where("package_item_id IN ?", itemIDs).Delete(&models.PreferenceGroup{}).Error; err != nil {
		return err
	}
	if err := db.Where("package_item_id IN ?", itemIDs).Delete(&models.Addon{}).Error; err != nil {
		return err
	}
	return db.Where("package_item_id IN ?", itemIDs).Delete(&models.ConsentItem{}).Error
}

func (r *repository) DeletePreferencesByItem(ctx context.Context, itemID uuid.UUID) error {
	db := r.db.WithContext(ctx)

	var groupIDs []uuid.UUID
	err := db.Model(&models.PreferenceGroup{}).
		Where("package_item_id = ?", itemID).
		Pluck("id", &groupIDs).Error
	if err != nil {
		return err
	}
	if len(groupIDs) > 0 {
		if err := db.Where("preference_group_id IN ?", groupIDs).Delete(&models.PreferenceOption{}).Error; err != nil {
			return err
		}
	}
	return db.Where("package_item_id = ?", itemID).Delete(&models.PreferenceGroup{}).Error
}

func (r *repository) CreatePreferenceGroups(ctx context.Context, groups []models.PreferenceGroup) error {
	if len(groups) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&groups).Error
}

func (r *repository) ListAddonIDs(ctx context.Context, itemID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Addon{}).
		Where("package_item_id = ?", itemID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) CreateAddons(ctx context.Context, addons []models.Addon) error {
	if len(addons) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&addons).Error
}

func (r *repository) UpdateAddon(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Addon{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) DeleteAddonsNotIn(ctx context.Context, itemID uuid.UUID, keep []uuid.UUID) error {
	q := r.db.WithContext(ctx).Where("package_item_id = ?", itemID)
	if len(keep) > 0 {
		q = q.Where("id NOT IN ?", keep)
	}
	return q.Delete(&models.Addon{}).Error
}

func (r *repository) ListConsentIDs(ctx context.Context, itemID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.ConsentItem{}).
		Where("package_item_id = ?", itemID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) CreateConsentItems(ctx context.Context, items []models.ConsentItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) UpdateConsentItem(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.ConsentItem{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) DeleteConsentItemsNotIn(ctx context.Context, itemID uuid.UUID, keep []uuid.UUID) error {
	q := r.db.WithContext(ctx).Where("package_item_id = ?", itemID)
	if len(keep) > 0 {
		q = q.Where("id NOT IN ?", keep)
	}
	return q.Delete(&models.ConsentItem{}).Error
}

func (r *repository) FindServiceTree(ctx context.Context, serviceID uuid.UUID) (*models.Service, error) {
	var svc models.Service
	err := r.db.WithContext(ctx).
		Preload("Types.Packages.Items.PreferenceGroups.Options").
		Preload("Types.Packages.Items.Addons").
		Preload("Types.Packages.Items.ConsentItems").
		Where("id = ?", serviceID).
		First(&svc).Error
	if err != nil {
		return nil, err
	}
	return &svc, nil
}
