package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/servio-app/servio-backend/pkg/db/models"
	pkgerrors "github.com/servio-app/servio-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the catalog mutation and read operations.
type Service interface {
	CreateCatalogPackages(ctx context.Context, serviceID uuid.UUID, packages []PackageInput) (uuid.UUID, error)
	EditCatalogPackages(ctx context.Context, packages []PackageInput) error
	DeleteCatalogPackage(ctx context.Context, packageID uuid.UUID) error
	GetCatalog(ctx context.Context, serviceID uuid.UUID) (*models.Service, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService builds a catalog service with the required dependencies.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) CreateCatalogPackages(ctx context.Context, serviceID uuid.UUID, packages []PackageInput) (uuid.UUID, error) {
	if serviceID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "service id required")
	}
	if len(packages) == 0 {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one package required")
	}
	for i, pkg := range packages {
		if len(pkg.SubPackages) == 0 {
			return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("package %d requires at least one sub-package", i))
		}
		for j, sub := range pkg.SubPackages {
			if err := validateNewSubPackage(sub, i, j); err != nil {
				return uuid.Nil, err
			}
		}
	}

	var serviceTypeID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindService(ctx, serviceID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service")
		}

		st, err := repo.FindGlobalServiceType(ctx, serviceID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			st = &models.ServiceType{ID: uuid.New(), ServiceID: serviceID}
			if err := repo.CreateServiceType(ctx, st); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create service type")
			}
		} else if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service type")
		}
		serviceTypeID = st.ID

		for _, pkg := range packages {
			row := &models.Package{ID: uuid.New(), ServiceTypeID: st.ID}
			// A package shell with null name/media is allowed; it becomes a
			// named package only when both fields are present.
			if pkg.Name != nil && pkg.MediaURL != nil {
				row.Name = pkg.Name
				row.MediaURL = pkg.MediaURL
			}
			if err := repo.CreatePackage(ctx, row); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create package")
			}
			for _, sub := range pkg.SubPackages {
				if _, err := s.insertSubPackage(ctx, repo, row.ID, sub); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return serviceTypeID, nil
}

func (s *service) EditCatalogPackages(ctx context.Context, packages []PackageInput) error {
	if len(packages) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one package required")
	}
	for i, pkg := range packages {
		if pkg.PackageID == nil || *pkg.PackageID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("package %d missing package id", i))
		}
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, pkg := range packages {
			if err := s.editPackage(ctx, repo, pkg); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *service) editPackage(ctx context.Context, repo Repository, pkg PackageInput) error {
	row, err := repo.FindPackage(ctx, *pkg.PackageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "package not found").
				WithDetails(map[string]any{"package_id": pkg.PackageID.String()})
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load package")
	}

	updates := map[string]any{}
	if pkg.Name != nil {
		updates["name"] = *pkg.Name
	}
	if pkg.MediaURL != nil {
		updates["media_url"] = *pkg.MediaURL
	}
	if err := repo.UpdatePackage(ctx, row.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update package")
	}

	// The submission is a full replacement payload; collect the surviving
	// sub-package ids so everything absent can be pruned afterwards.
	submittedItemIDs := make(map[uuid.UUID]struct{}, len(pkg.SubPackages))
	for j, sub := range pkg.SubPackages {
		var itemID uuid.UUID
		if sub.SubPackageID != nil && *sub.SubPackageID != uuid.Nil {
			itemID = *sub.SubPackageID
			if err := s.updateSubPackage(ctx, repo, row.ID, itemID, sub); err != nil {
				return err
			}
		} else {
			if err := validateNewSubPackage(sub, 0, j); err != nil {
				return err
			}
			itemID, err = s.insertSubPackage(ctx, repo, row.ID, sub)
			if err != nil {
				return err
			}
		}
		submittedItemIDs[itemID] = struct{}{}

		if err := s.replacePreferences(ctx, repo, itemID, sub.Preferences); err != nil {
			return err
		}
		if err := s.diffAddons(ctx, repo, itemID, sub.Addons); err != nil {
			return err
		}
		if err := s.diffConsents(ctx, repo, itemID, sub.ConsentForm); err != nil {
			return err
		}
	}

	storedIDs, err := repo.ListPackageItemIDs(ctx, row.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list package items")
	}
	var removed []uuid.UUID
	for _, id := range storedIDs {
		if _, ok := submittedItemIDs[id]; !ok {
			removed = append(removed, id)
		}
	}
	if len(removed) > 0 {
		if err := repo.DeleteItemChildren(ctx, removed); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "prune sub-package children")
		}
		if err := repo.DeletePackageItems(ctx, removed); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "prune sub-packages")
		}
	}
	return nil
}

func (s *service) DeleteCatalogPackage(ctx context.Context, packageID uuid.UUID) error {
	if packageID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "package id required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindPackage(ctx, packageID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "package not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load package")
		}
		itemIDs, err := repo.ListPackageItemIDs(ctx, packageID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list package items")
		}
		if err := repo.DeleteItemChildren(ctx, itemIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete sub-package children")
		}
		if err := repo.DeletePackageItems(ctx, itemIDs); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete sub-packages")
		}
		if err := repo.DeletePackage(ctx, packageID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete package")
		}
		return nil
	})
}

func (s *service) GetCatalog(ctx context.Context, serviceID uuid.UUID) (*models.Service, error) {
	if serviceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service id required")
	}
	svc, err := s.repo.FindServiceTree(ctx, serviceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog tree")
	}
	return svc, nil
}

func (s *service) insertSubPackage(ctx context.Context, repo Repository, packageID uuid.UUID, sub SubPackageInput) (uuid.UUID, error) {
	item := &models.PackageItem{
		ID:        uuid.New(),
		PackageID: packageID,
		Name:      *sub.Name,
		Price:     *sub.Price,
	}
	if sub.Description != nil {
		item.Description = sub.Description
	}
	if sub.TimeRequiredMinutes != nil {
		item.TimeRequiredMinutes = *sub.TimeRequiredMinutes
	}
	if sub.MediaURL != nil {
		item.MediaURL = sub.MediaURL
	}
	if err := repo.CreatePackageItem(ctx, item); err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sub-package")
	}
	if err := s.replacePreferences(ctx, repo, item.ID, sub.Preferences); err != nil {
		return uuid.Nil, err
	}
	if err := s.diffAddons(ctx, repo, item.ID, sub.Addons); err != nil {
		return uuid.Nil, err
	}
	if err := s.diffConsents(ctx, repo, item.ID, sub.ConsentForm); err != nil {
		return uuid.Nil, err
	}
	return item.ID, nil
}

func (s *service) updateSubPackage(ctx context.Context, repo Repository, packageID, itemID uuid.UUID, sub SubPackageInput) error {
	item, err := repo.FindPackageItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "sub-package not found").
				WithDetails(map[string]any{"sub_package_id": itemID.String()})
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sub-package")
	}
	if item.PackageID != packageID {
		return pkgerrors.New(pkgerrors.CodeValidation, "sub-package does not belong to package")
	}

	updates := map[string]any{}
	if sub.Name != nil {
		updates["name"] = *sub.Name
	}
	if sub.Description != nil {
		updates["description"] = *sub.Description
	}
	if sub.Price != nil {
		if sub.Price.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
		}
		updates["price"] = *sub.Price
	}
	if sub.TimeRequiredMinutes != nil {
		updates["time_required_minutes"] = *sub.TimeRequiredMinutes
	}
	if sub.MediaURL != nil {
		updates["media_url"] = *sub.MediaURL
	}
	if err := repo.UpdatePackageItem(ctx, itemID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update sub-package")
	}
	return nil
}

// replacePreferences drops every stored preference row for the sub-package
// and re-inserts from the payload. Preference groups have no stable client
// identity, so full replace is the correct treatment here.
func (s *service) replacePreferences(ctx context.Context, repo Repository, itemID uuid.UUID, groups []PreferenceGroupInput) error {
	if err := repo.DeletePreferencesByItem(ctx, itemID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear preferences")
	}
	if len(groups) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(groups))
	rows := make([]models.PreferenceGroup, 0, len(groups))
	for _, g := range groups {
		if g.GroupKey == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "preference group key required")
		}
		if _, dup := seen[g.GroupKey]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, "duplicate preference group key").
				WithDetails(map[string]any{"group_key": g.GroupKey})
		}
		seen[g.GroupKey] = struct{}{}

		group := models.PreferenceGroup{
			ID:            uuid.New(),
			PackageItemID: itemID,
			GroupKey:      g.GroupKey,
			IsRequired:    g.IsRequired,
		}
		for _, opt := range g.Items {
			group.Options = append(group.Options, models.PreferenceOption{
				ID:                  uuid.New(),
				PreferenceGroupID:   group.ID,
				Value:               opt.Value,
				Price:               opt.Price,
				TimeRequiredMinutes: opt.TimeRequiredMinutes,
			})
		}
		rows = append(rows, group)
	}
	if err := repo.CreatePreferenceGroups(ctx, rows); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert preferences")
	}
	return nil
}

// diffAddons updates rows carrying an id, inserts rows without one, then
// prunes every stored addon whose id was not submitted. Submitted ids must
// belong to this sub-package; an id owned elsewhere is rejected, not updated.
func (s *service) diffAddons(ctx context.Context, repo Repository, itemID uuid.UUID, addons []AddonInput) error {
	storedIDs, err := repo.ListAddonIDs(ctx, itemID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addons")
	}
	owned := make(map[uuid.UUID]struct{}, len(storedIDs))
	for _, id := range storedIDs {
		owned[id] = struct{}{}
	}

	keep := make([]uuid.UUID, 0, len(addons))
	var inserts []models.Addon
	for _, a := range addons {
		if a.AddonID != nil && *a.AddonID != uuid.Nil {
			if _, ok := owned[*a.AddonID]; !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "addon does not belong to sub-package").
					WithDetails(map[string]any{"addon_id": a.AddonID.String()})
			}
			updates := map[string]any{}
			if a.Name != nil {
				updates["name"] = *a.Name
			}
			if a.Description != nil {
				updates["description"] = *a.Description
			}
			if a.Price != nil {
				updates["price"] = *a.Price
			}
			if a.TimeRequiredMinutes != nil {
				updates["time_required_minutes"] = *a.TimeRequiredMinutes
			}
			if err := repo.UpdateAddon(ctx, *a.AddonID, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update addon")
			}
			keep = append(keep, *a.AddonID)
			continue
		}
		if a.Name == nil || *a.Name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "addon name required")
		}
		row := models.Addon{ID: uuid.New(), PackageItemID: itemID, Name: *a.Name}
		if a.Description != nil {
			row.Description = a.Description
		}
		if a.Price != nil {
			row.Price = *a.Price
		}
		if a.TimeRequiredMinutes != nil {
			row.TimeRequiredMinutes = *a.TimeRequiredMinutes
		}
		inserts = append(inserts, row)
		keep = append(keep, row.ID)
	}
	if err := repo.CreateAddons(ctx, inserts); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert addons")
	}
	if err := repo.DeleteAddonsNotIn(ctx, itemID, keep); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "prune addons")
	}
	return nil
}

// diffConsents applies the same diff-and-prune treatment as addons.
func (s *service) diffConsents(ctx context.Context, repo Repository, itemID uuid.UUID, consents []ConsentInput) error {
	storedIDs, err := repo.ListConsentIDs(ctx, itemID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list consent items")
	}
	owned := make(map[uuid.UUID]struct{}, len(storedIDs))
	for _, id := range storedIDs {
		owned[id] = struct{}{}
	}

	keep := make([]uuid.UUID, 0, len(consents))
	var inserts []models.ConsentItem
	for _, c := range consents {
		if c.ConsentID != nil && *c.ConsentID != uuid.Nil {
			if _, ok := owned[*c.ConsentID]; !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "consent item does not belong to sub-package").
					WithDetails(map[string]any{"consent_id": c.ConsentID.String()})
			}
			updates := map[string]any{"is_required": c.IsRequired}
			if c.Question != nil {
				updates["question"] = *c.Question
			}
			if err := repo.UpdateConsentItem(ctx, *c.ConsentID, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update consent item")
			}
			keep = append(keep, *c.ConsentID)
			continue
		}
		if c.Question == nil || *c.Question == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "consent question required")
		}
		row := models.ConsentItem{
			ID:            uuid.New(),
			PackageItemID: itemID,
			Question:      *c.Question,
			IsRequired:    c.IsRequired,
		}
		inserts = append(inserts, row)
		keep = append(keep, row.ID)
	}
	if err := repo.CreateConsentItems(ctx, inserts); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert consent items")
	}
	if err := repo.DeleteConsentItemsNotIn(ctx, itemID, keep); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "prune consent items")
	}
	return nil
}

func validateNewSubPackage(sub SubPackageInput, pkgIdx, subIdx int) error {
	if sub.SubPackageID != nil && *sub.SubPackageID != uuid.Nil {
		return nil
	}
	if sub.Name == nil || *sub.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("sub-package %d.%d missing item name", pkgIdx, subIdx))
	}
	if sub.Price == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("sub-package %d.%d missing price", pkgIdx, subIdx))
	}
	if sub.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("sub-package %d.%d price must be non-negative", pkgIdx, subIdx))
	}
	return nil
}
