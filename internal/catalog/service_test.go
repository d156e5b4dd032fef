package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/servio-app/servio-backend/pkg/db/models"
	pkgerrors "github.com/servio-app/servio-backend/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (g gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS services (
  id TEXT PRIMARY KEY,
  category_id TEXT NOT NULL,
  name TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS service_types (
  id TEXT PRIMARY KEY,
  service_id TEXT NOT NULL,
  vendor_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS packages (
  id TEXT PRIMARY KEY,
  service_type_id TEXT NOT NULL,
  name TEXT,
  media_url TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS package_items (
  id TEXT PRIMARY KEY,
  package_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT,
  price NUMERIC NOT NULL,
  time_required_minutes INTEGER NOT NULL DEFAULT 0,
  media_url TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS preference_groups (
  id TEXT PRIMARY KEY,
  package_item_id TEXT NOT NULL,
  group_key TEXT NOT NULL,
  is_required INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS preference_options (
  id TEXT PRIMARY KEY,
  preference_group_id TEXT NOT NULL,
  value TEXT NOT NULL,
  price NUMERIC NOT NULL DEFAULT 0,
  time_required_minutes INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS addons (
  id TEXT PRIMARY KEY,
  package_item_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT,
  price NUMERIC NOT NULL DEFAULT 0,
  time_required_minutes INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS consent_items (
  id TEXT PRIMARY KEY,
  package_item_id TEXT NOT NULL,
  question TEXT NOT NULL,
  is_required INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
	}
	for _, stmt := range stmts {
		require.NoError(t, db.Exec(stmt).Error)
	}

	t.Cleanup(func() {
		for _, table := range []string{"consent_items", "addons", "preference_options", "preference_groups", "package_items", "packages", "service_types", "services"} {
			db.Exec("DELETE FROM " + table)
		}
	})
	return db
}

func newCatalogService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), gormTxRunner{db: db})
	require.NoError(t, err)
	return svc
}

func seedService(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, db.Create(&models.Service{ID: id, CategoryID: uuid.New(), Name: "cleaning"}).Error)
	return id
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func decPtr(d decimal.Decimal) *decimal.Decimal { return &d }

func basicSubPackage(name string, price int64) SubPackageInput {
	return SubPackageInput{
		Name:                strPtr(name),
		Price:               decPtr(decimal.NewFromInt(price)),
		TimeRequiredMinutes: intPtr(60),
	}
}

func TestCreateCatalogPackagesBuildsTree(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc := newCatalogService(t, db)
	ctx := context.Background()

	serviceID := seedService(t, db)
	sub := basicSubPackage("deep clean", 120)
	sub.Preferences = []PreferenceGroupInput{
		{GroupKey: "rooms", IsRequired: true, Items: []PreferenceOptionInput{
			{Value: "2 rooms", Price: decimal.NewFromInt(0)},
			{Value: "4 rooms", Price: decimal.NewFromInt(40)},
		}},
	}
	sub.Addons = []AddonInput{{Name: strPtr("windows"), Price: decPtr(decimal.NewFromInt(25))}}
	sub.ConsentForm = []ConsentInput{{Question: strPtr("pets at home?"), IsRequired: true}}

	typeID, err := svc.CreateCatalogPackages(ctx, serviceID, []PackageInput{{
		Name:        strPtr("Home Cleaning"),
		MediaURL:    strPtr("https://cdn/img.png"),
		SubPackages: []SubPackageInput{sub},
	}})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, typeID)

	var st models.ServiceType
	require.NoError(t, db.Where("id = ?", typeID).First(&st).Error)
	assert.Equal(t, serviceID, st.ServiceID)
	assert.True(t, st.IsGlobal())

	var pkgs []models.Package
	require.NoError(t, db.Where("service_type_id = ?", typeID).Find(&pkgs).Error)
	require.Len(t, pkgs, 1)
	require.NotNil(t, pkgs[0].Name)
	assert.Equal(t, "Home Cleaning", *pkgs[0].Name)

	var items []models.PackageItem
	require.NoError(t, db.Where("package_id = ?", pkgs[0].ID).Find(&items).Error)
	require.Len(t, items, 1)

	var groups []models.PreferenceGroup
	require.NoError(t, db.Where("package_item_id = ?", items[0].ID).Find(&groups).Error)
	require.Len(t, groups, 1)
	assert.True(t, groups[0].IsRequired)

	var options []models.PreferenceOption
	require.NoError(t, db.Where("preference_group_id = ?", groups[0].ID).Find(&options).Error)
	assert.Len(t, options, 2)
}

func TestCreateCatalogPackagesAllowsShellPackage(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc := newCatalogService(t, db)
	ctx := context.Background()

	serviceID := seedService(t, db)
	typeID, err := svc.CreateCatalogPackages(ctx, serviceID, []PackageInput{{
		Name:        strPtr("incomplete"),
		SubPackages: []SubPackageInput{basicSubPackage("basic", 50)},
	}})
	require.NoError(t, err)

	var pkgs []models.Package
	require.NoError(t, db.Where("service_type_id = ?", typeID).Find(&pkgs).Error)
	require.Len(t, pkgs, 1)
	assert.Nil(t, pkgs[0].Name, "name without media stays a shell")
	assert.Nil(t, pkgs[0].MediaURL)
}

func TestCreateCatalogPackagesReusesGlobalServiceType(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc := newCatalogService(t, db)
	ctx := context.Background()

	serviceID := seedService(t, db)
	first, err := svc.CreateCatalogPackages(ctx, serviceID, []PackageInput{{
		SubPackages: []SubPackageInput{basicSubPackage("a", 10)},
	}})
	require.NoError(t, err)

	second, err := svc.CreateCatalogPackages(ctx, serviceID, []PackageInput{{
		SubPackages: []SubPackageInput{basicSubPackage("b", 20)},
	}})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCreateCatalogPackagesValidation(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc := newCatalogService(t, db)
	ctx := context.Background()

	_, err := svc.CreateCatalogPackages(ctx, uuid.Nil, nil)
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.CreateCatalogPackages(ctx, uuid.New(), []PackageInput{{}})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.CreateCatalogPackages(ctx, uuid.New(), []PackageInput{{
		SubPackages: []SubPackageInput{{Name: strPtr("x"), Price: decPtr(decimal.NewFromInt(-5))}},
	}})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.CreateCatalogPackages(ctx, uuid.New(), []PackageInput{{
		SubPackages: []SubPackageInput{basicSubPackage("x", 10)},
	}})
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestEditPreservesIdentityAndPrunesOmitted(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc := newCatalogService(t, db)
	ctx := context.Background()

	serviceID := seedService(t, db)
	subA := basicSubPackage("A", 100)
	subB := basicSubPackage("B", 200)
	subB.Preferences = []PreferenceGroupInput{
		{GroupKey: "size", Items: []PreferenceOptionInput{{Value: "large"}}},
	}
	subB.Addons = []AddonInput{{Name: strPtr("extra"), Price: decPtr(decimal.NewFromInt(5))}}
	subB.ConsentForm = []ConsentInput{{Question: strPtr("ok?"), IsRequired: false}}

	typeID, err := svc.CreateCatalogPackages(ctx, serviceID, []PackageInput{{
		SubPackages: []SubPackageInput{subA, subB},
	}})
	require.NoError(t, err)

	var pkg models.Package
	require.NoError(t, db.Where("service_type_id = ?", typeID).First(&pkg).Error)

	var itemA, itemB models.PackageItem
	require.NoError(t, db.Where("package_id = ? AND name = ?", pkg.ID, "A").First(&itemA).Error)
	require.NoError(t, db.Where("package_id = ? AND name = ?", pkg.ID, "B").First(&itemB).Error)

	// Resubmit only A, untouched except description; B is omitted.
	err = svc.EditCatalogPackages(ctx, []PackageInput{{
		PackageID: &pkg.ID,
		SubPackages: []SubPackageInput{{
			SubPackageID: &itemA.ID,
			Description:  strPtr("updated"),
		}},
	}})
	require.NoError(t, err)

	var items []models.PackageItem
	require.NoError(t, db.Where("package_id = ?", pkg.ID).Find(&items).Error)
	require.Len(t, items, 1, "no new sub-package may be created for A")
	assert.Equal(t, itemA.ID, items[0].ID)
	assert.Equal(t, "A", items[0].Name, "unsubmitted fields keep their old value")
	require.NotNil(t, items[0].Description)
	assert.Equal(t, "updated", *items[0].Description)

	// Every child row of B is gone.
	var count int64
	db.Model(&models.PreferenceGroup{}).Where("package_item_id = ?", itemB.ID).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.Addon{}).Where("package_item_id = ?", itemB.ID).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.ConsentItem{}).Where("package_item_id = ?", itemB.ID).Count(&count)
	assert.Zero(t, count)
}

func TestEditDiffsAddonsById(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc := newCatalogService(t, db)
	ctx := context.Background()

	serviceID := seedService(t, db)
	sub := basicSubPackage("item", 10)
	sub.Addons = []AddonInput{
		{Name: strPtr("keep-me"), Price: decPtr(decimal.NewFromInt(1))},
		{Name: strPtr("drop-me"), Price: decPtr(decimal.NewFromInt(2))},
	}
	typeID, err := svc.CreateCatalogPackages(ctx, serviceID, []PackageInput{{SubPackages: []SubPackageInput{sub}}})
	require.NoError(t, err)

	var pkg models.Package
	require.NoError(t, db.Where("service_type_id = ?", typeID).First(&pkg).Error)
	var item models.PackageItem
	require.NoError(t, db.Where("package_id = ?", pkg.ID).First(&item).Error)
	var kept models.Addon
	require.NoError(t, db.Where("package_item_id = ? AND name = ?", item.ID, "keep-me").First(&kept).Error)

	err = svc.EditCatalogPackages(ctx, []PackageInput{{
		PackageID: &pkg.ID,
		SubPackages: []SubPackageInput{{
			SubPackageID: &item.ID,
			Addons: []AddonInput{
				{AddonID: &kept.ID, Price: decPtr(decimal.NewFromInt(9))},
				{Name: strPtr("brand-new")},
			},
		}},
	}})
	require.NoError(t, err)

	var addons []models.Addon
	require.NoError(t, db.Where("package_item_id = ?", item.ID).Order("name").Find(&addons).Error)
	require.Len(t, addons, 2)
	assert.Equal(t, "brand-new", addons[0].Name)
	assert.Equal(t, kept.ID, addons[1].ID)
	assert.True(t, addons[1].Price.Equal(decimal.NewFromInt(9)))
}

func TestEditRejectsChildIDsFromAnotherSubPackage(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc := newCatalogService(t, db)
	ctx := context.Background()

	serviceID := seedService(t, db)
	subA := basicSubPackage("A", 10)
	subB := basicSubPackage("B", 20)
	subB.Addons = []AddonInput{{Name: strPtr("foreign-addon"), Price: decPtr(decimal.NewFromInt(3))}}
	subB.ConsentForm = []ConsentInput{{Question: strPtr("foreign question?"), IsRequired: true}}
	typeID, err := svc.CreateCatalogPackages(ctx, serviceID, []PackageInput{{SubPackages: []SubPackageInput{subA, subB}}})
	require.NoError(t, err)

	var pkg models.Package
	require.NoError(t, db.Where("service_type_id = ?", typeID).First(&pkg).Error)
	var itemA, itemB models.PackageItem
	require.NoError(t, db.Where("package_id = ? AND name = ?", pkg.ID, "A").First(&itemA).Error)
	require.NoError(t, db.Where("package_id = ? AND name = ?", pkg.ID, "B").First(&itemB).Error)
	var foreignAddon models.Addon
	require.NoError(t, db.Where("package_item_id = ?", itemB.ID).First(&foreignAddon).Error)
	var foreignConsent models.ConsentItem
	require.NoError(t, db.Where("package_item_id = ?", itemB.ID).First(&foreignConsent).Error)

	// Submitting B's addon id under A must fail, not hijack the row.
	err = svc.EditCatalogPackages(ctx, []PackageInput{{
		PackageID: &pkg.ID,
		SubPackages: []SubPackageInput{{
			SubPackageID: &itemA.ID,
			Addons:       []AddonInput{{AddonID: &foreignAddon.ID, Price: decPtr(decimal.NewFromInt(999))}},
		}},
	}})
	requireCode(t, err, pkgerrors.CodeNotFound)

	err = svc.EditCatalogPackages(ctx, []PackageInput{{
		PackageID: &pkg.ID,
		SubPackages: []SubPackageInput{{
			SubPackageID: &itemA.ID,
			ConsentForm:  []ConsentInput{{ConsentID: &foreignConsent.ID, Question: strPtr("rewritten")}},
		}},
	}})
	requireCode(t, err, pkgerrors.CodeNotFound)

	// B's rows are untouched, still attached to B.
	var addon models.Addon
	require.NoError(t, db.Where("id = ?", foreignAddon.ID).First(&addon).Error)
	assert.Equal(t, itemB.ID, addon.PackageItemID)
	assert.True(t, addon.Price.Equal(decimal.NewFromInt(3)), "price %s", addon.Price)

	var consent models.ConsentItem
	require.NoError(t, db.Where("id = ?", foreignConsent.ID).First(&consent).Error)
	assert.Equal(t, itemB.ID, consent.PackageItemID)
	assert.Equal(t, "foreign question?", consent.Question)
}

func TestEditReplacesPreferencesWholesale(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc := newCatalogService(t, db)
	ctx := context.Background()

	serviceID := seedService(t, db)
	sub := basicSubPackage("item", 10)
	sub.Preferences = []PreferenceGroupInput{
		{GroupKey: "old-group", Items: []PreferenceOptionInput{{Value: "v1"}}},
	}
	typeID, err := svc.CreateCatalogPackages(ctx, serviceID, []PackageInput{{SubPackages: []SubPackageInput{sub}}})
	require.NoError(t, err)

	var pkg models.Package
	require.NoError(t, db.Where("service_type_id = ?", typeID).First(&pkg).Error)
	var item models.PackageItem
	require.NoError(t, db.Where("package_id = ?", pkg.ID).First(&item).Error)

	err = svc.EditCatalogPackages(ctx, []PackageInput{{
		PackageID: &pkg.ID,
		SubPackages: []SubPackageInput{{
			SubPackageID: &item.ID,
			Preferences: []PreferenceGroupInput{
				{GroupKey: "new-group", IsRequired: true, Items: []PreferenceOptionInput{{Value: "v2"}}},
			},
		}},
	}})
	require.NoError(t, err)

	var groups []models.PreferenceGroup
	require.NoError(t, db.Where("package_item_id = ?", item.ID).Find(&groups).Error)
	require.Len(t, groups, 1)
	assert.Equal(t, "new-group", groups[0].GroupKey)
}

func TestDeleteCatalogPackageCascades(t *testing.T) {
	db := setupCatalogTestDB(t)
	svc := newCatalogService(t, db)
	ctx := context.Background()

	serviceID := seedService(t, db)
	sub := basicSubPackage("item", 10)
	sub.Preferences = []PreferenceGroupInput{{GroupKey: "g", Items: []PreferenceOptionInput{{Value: "v"}}}}
	sub.Addons = []AddonInput{{Name: strPtr("a")}}
	sub.ConsentForm = []ConsentInput{{Question: strPtr("q")}}
	typeID, err := svc.CreateCatalogPackages(ctx, serviceID, []PackageInput{{SubPackages: []SubPackageInput{sub}}})
	require.NoError(t, err)

	var pkg models.Package
	require.NoError(t, db.Where("service_type_id = ?", typeID).First(&pkg).Error)

	require.NoError(t, svc.DeleteCatalogPackage(ctx, pkg.ID))

	for _, m := range []any{&models.Package{}, &models.PackageItem{}, &models.PreferenceGroup{}, &models.PreferenceOption{}, &models.Addon{}, &models.ConsentItem{}} {
		var count int64
		require.NoError(t, db.Model(m).Count(&count).Error)
		assert.Zero(t, count)
	}

	err = svc.DeleteCatalogPackage(ctx, pkg.ID)
	requireCode(t, err, pkgerrors.CodeNotFound)
}

// failOnItemRepo fails the Nth sub-package insert to exercise rollback.
type failOnItemRepo struct {
	Repository
	calls  *int
	failAt int
}

func (f failOnItemRepo) WithTx(tx *gorm.DB) Repository {
	return failOnItemRepo{Repository: f.Repository.WithTx(tx), calls: f.calls, failAt: f.failAt}
}

func (f failOnItemRepo) CreatePackageItem(ctx context.Context, item *models.PackageItem) error {
	*f.calls++
	if *f.calls == f.failAt {
		return errors.New("simulated insert failure")
	}
	return f.Repository.CreatePackageItem(ctx, item)
}

func TestCreateRollsBackCompletelyOnFailure(t *testing.T) {
	db := setupCatalogTestDB(t)
	ctx := context.Background()

	serviceID := seedService(t, db)
	calls := 0
	svc, err := NewService(failOnItemRepo{Repository: NewRepository(db), calls: &calls, failAt: 3}, gormTxRunner{db: db})
	require.NoError(t, err)

	_, err = svc.CreateCatalogPackages(ctx, serviceID, []PackageInput{
		{SubPackages: []SubPackageInput{basicSubPackage("a", 1)}},
		{SubPackages: []SubPackageInput{basicSubPackage("b", 2)}},
		{SubPackages: []SubPackageInput{basicSubPackage("c", 3)}},
	})
	require.Error(t, err)

	var pkgCount, itemCount, typeCount int64
	require.NoError(t, db.Model(&models.Package{}).Count(&pkgCount).Error)
	require.NoError(t, db.Model(&models.PackageItem{}).Count(&itemCount).Error)
	require.NoError(t, db.Model(&models.ServiceType{}).Count(&typeCount).Error)
	assert.Zero(t, pkgCount, "failed create must not leave packages behind")
	assert.Zero(t, itemCount)
	assert.Zero(t, typeCount)
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr, "expected typed error, got %v", err)
	assert.Equal(t, code, appErr.Code())
}
