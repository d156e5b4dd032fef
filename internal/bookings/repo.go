package bookings

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/servio-app/servio-backend/pkg/db/models"
	"github.com/servio-app/servio-backend/pkg/enums"
	"github.com/servio-app/servio-backend/pkg/pagination"
)

// Repository defines persistence operations for bookings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LockUserPackage(ctx context.Context, userID, packageID uuid.UUID) error
	HasNonTerminalBooking(ctx context.Context, userID, serviceTypeID, packageID uuid.UUID) (bool, error)
	Create(ctx context.Context, booking *models.Booking) error
	Find(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	CreatePreferences(ctx context.Context, rows []models.BookingPreference) error
	CreateAddons(ctx context.Context, rows []models.BookingAddon) error
	CreateConsents(ctx context.Context, rows []models.BookingConsent) error
	ListByUser(ctx context.Context, userID uuid.UUID, params listBookingsParams) ([]models.Booking, *pagination.Cursor, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID, params listBookingsParams) ([]models.Booking, *pagination.Cursor, error)
}

type listBookingsParams struct {
	Limit  int
	Cursor *pagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a bookings repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// LockUserPackage serializes concurrent creation attempts for the same user
// and package. The lock is transaction scoped, released on commit or
// rollback. Engines without advisory locks skip it.
func (r *repository) LockUserPackage(ctx context.Context, userID, packageID uuid.UUID) error {
	if r.db.Dialector.Name() != "postgres" {
		return nil
	}
	key := userID.String() + ":" + packageID.String()
	return r.db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error
}

func (r *repository) HasNonTerminalBooking(ctx context.Context, userID, serviceTypeID, packageID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Joins("JOIN booking_packages ON booking_packages.booking_id = bookings.id").
		Where("bookings.user_id = ? AND bookings.service_type_id = ? AND booking_packages.package_id = ?", userID, serviceTypeID, packageID).
		Where("bookings.status NOT IN ?", []enums.BookingStatus{enums.BookingStatusCancelled, enums.BookingStatusCompleted}).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) Create(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Preload("Packages.SubPackages").
		Where("id = ?", id).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) CreatePreferences(ctx context.Context, rows []models.BookingPreference) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *repository) CreateAddons(ctx context.Context, rows []models.BookingAddon) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *repository) CreateConsents(ctx context.Context, rows []models.BookingConsent) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, params listBookingsParams) ([]models.Booking, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("user_id = ?", userID)
	return r.listPage(query, params)
}

func (r *repository) ListByVendor(ctx context.Context, vendorID uuid.UUID, params listBookingsParams) ([]models.Booking, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("vendor_id = ?", vendorID)
	return r.listPage(query, params)
}

func (r *repository) listPage(query *gorm.DB, params listBookingsParams) ([]models.Booking, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var bookings []models.Booking
	err := query.
		Preload("Packages.SubPackages").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&bookings).Error
	if err != nil {
		return nil, nil, err
	}

	if len(bookings) > normalized {
		next := bookings[normalized]
		bookings = bookings[:normalized]
		return bookings, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return bookings, nil, nil
}
