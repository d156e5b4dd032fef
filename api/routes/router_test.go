package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/servio-app/servio-backend/internal/assignments"
	"github.com/servio-app/servio-backend/internal/bookings"
	"github.com/servio-app/servio-backend/internal/catalog"
	"github.com/servio-app/servio-backend/internal/notifications"
	"github.com/servio-app/servio-backend/internal/vendors"
	"github.com/servio-app/servio-backend/pkg/config"
	"github.com/servio-app/servio-backend/pkg/db/models"
	"github.com/servio-app/servio-backend/pkg/enums"
	"github.com/servio-app/servio-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type memStore struct {
	data map[string]string
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]string)}
}

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", goredis.Nil
}

func (m *memStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	str, _ := value.(string)
	m.data[key] = str
	return nil
}

func (m *memStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	m.data[key] = str
	return true, nil
}

func (m *memStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("test:%s:%s", scope, id)
}

type stubCatalogService struct{}

func (stubCatalogService) CreateCatalogPackages(ctx context.Context, serviceID uuid.UUID, packages []catalog.PackageInput) (uuid.UUID, error) {
	return uuid.New(), nil
}

func (stubCatalogService) EditCatalogPackages(ctx context.Context, packages []catalog.PackageInput) error {
	panic("unimplemented")
}

func (stubCatalogService) DeleteCatalogPackage(ctx context.Context, packageID uuid.UUID) error {
	panic("unimplemented")
}

func (stubCatalogService) GetCatalog(ctx context.Context, serviceID uuid.UUID) (*models.Service, error) {
	return &models.Service{ID: serviceID}, nil
}

type stubVendorsService struct{}

func (stubVendorsService) CreateVendor(ctx context.Context, input vendors.CreateVendorInput) (*models.Vendor, error) {
	panic("unimplemented")
}

func (stubVendorsService) GetVendor(ctx context.Context, vendorID uuid.UUID) (*models.Vendor, error) {
	return &models.Vendor{ID: vendorID}, nil
}

func (stubVendorsService) RegisterForService(ctx context.Context, input vendors.RegisterServiceInput) error {
	panic("unimplemented")
}

func (stubVendorsService) SetManualAssignment(ctx context.Context, vendorID uuid.UUID, enabled bool) error {
	panic("unimplemented")
}

type stubAssignmentsService struct{}

func (stubAssignmentsService) AssignPackageToVendor(ctx context.Context, input assignments.AssignInput) error {
	panic("unimplemented")
}

func (stubAssignmentsService) ApplyPackagesToVendor(ctx context.Context, input assignments.ApplyInput) ([]uuid.UUID, error) {
	panic("unimplemented")
}

func (stubAssignmentsService) UpdateApplicationStatus(ctx context.Context, input assignments.DecisionInput) error {
	panic("unimplemented")
}

func (stubAssignmentsService) RemoveVendorPackage(ctx context.Context, assignmentID uuid.UUID) error {
	panic("unimplemented")
}

func (stubAssignmentsService) ListVendorAssignments(ctx context.Context, vendorID uuid.UUID) ([]models.VendorAssignment, error) {
	return []models.VendorAssignment{}, nil
}

func (stubAssignmentsService) ListApplications(ctx context.Context, status *enums.ApplicationStatus) ([]models.VendorPackageApplication, error) {
	return []models.VendorPackageApplication{}, nil
}

type stubBookingsService struct {
	decisions []bookings.DecisionInput
}

func (s *stubBookingsService) BookService(ctx context.Context, userID uuid.UUID, input bookings.BookingInput) (*models.Booking, error) {
	return &models.Booking{ID: uuid.New(), UserID: userID}, nil
}

func (s *stubBookingsService) ApproveOrRejectBooking(ctx context.Context, input bookings.DecisionInput) error {
	s.decisions = append(s.decisions, input)
	return nil
}

func (s *stubBookingsService) AssignBookingToVendor(ctx context.Context, input bookings.AssignInput) error {
	panic("unimplemented")
}

func (s *stubBookingsService) ApproveOrAssignBooking(ctx context.Context, input bookings.DecideAndAssignInput) error {
	panic("unimplemented")
}

func (s *stubBookingsService) UpdateBookingStatusByVendor(ctx context.Context, input bookings.VendorStatusInput) error {
	panic("unimplemented")
}

func (s *stubBookingsService) GetBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return &models.Booking{ID: id}, nil
}

func (s *stubBookingsService) ListUserBookings(ctx context.Context, userID uuid.UUID, params bookings.ListParams) (*bookings.ListResult, error) {
	return &bookings.ListResult{}, nil
}

func (s *stubBookingsService) ListVendorBookings(ctx context.Context, vendorID uuid.UUID, params bookings.ListParams) (*bookings.ListResult, error) {
	return &bookings.ListResult{}, nil
}

func (s *stubBookingsService) GetEligibleVendors(ctx context.Context, bookingID uuid.UUID) ([]models.Vendor, error) {
	return []models.Vendor{}, nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, recipient notifications.Recipient, notificationID uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, recipient notifications.Recipient) (int64, error) {
	return 0, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
	}
}

func newTestRouter(bookingsSvc bookings.Service) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	if bookingsSvc == nil {
		bookingsSvc = &stubBookingsService{}
	}
	return New(Deps{
		Config:        testConfig(),
		Logger:        logg,
		DB:            stubPinger{},
		Redis:         stubPinger{},
		Idempotency:   newMemStore(),
		Catalog:       stubCatalogService{},
		Vendors:       stubVendorsService{},
		Assignments:   stubAssignmentsService{},
		Bookings:      bookingsSvc,
		Notifications: stubNotificationsService{},
	})
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(nil)
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestCatalogRejectsMalformedServiceID(t *testing.T) {
	router := newTestRouter(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/services/not-a-uuid", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCatalogReturnsTree(t *testing.T) {
	router := newTestRouter(nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/services/"+uuid.NewString(), nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestUserBookingsRequireIdentityHeader(t *testing.T) {
	router := newTestRouter(nil)

	anonymous := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, anonymous)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without identity got %d", resp.Code)
	}

	identified := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
	identified.Header.Set("X-User-Id", uuid.NewString())
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, identified)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with identity got %d", resp.Code)
	}
}

func TestVendorAssignmentsRequireVendorHeader(t *testing.T) {
	router := newTestRouter(nil)

	anonymous := httptest.NewRequest(http.MethodGet, "/api/v1/vendor/assignments", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, anonymous)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without vendor identity got %d", resp.Code)
	}

	vendor := httptest.NewRequest(http.MethodGet, "/api/v1/vendor/assignments", nil)
	vendor.Header.Set("X-Vendor-Id", uuid.NewString())
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, vendor)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with vendor identity got %d", resp.Code)
	}
}

func TestCreateBookingRequiresIdempotencyKey(t *testing.T) {
	router := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(`{}`))
	req.Header.Set("X-User-Id", uuid.NewString())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without idempotency key got %d", resp.Code)
	}
}

func TestBookingDecisionRoutesToService(t *testing.T) {
	svc := &stubBookingsService{}
	router := newTestRouter(svc)

	bookingID := uuid.New()
	body := `{"status":2}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/bookings/"+bookingID.String()+"/decision", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", uuid.NewString())
	req.Header.Set("X-User-Id", uuid.NewString())
	req.Header.Set("X-Actor-Role", "admin")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", resp.Code, resp.Body.String())
	}
	if len(svc.decisions) != 1 {
		t.Fatalf("expected one decision call, got %d", len(svc.decisions))
	}
	if svc.decisions[0].BookingID != bookingID {
		t.Fatalf("decision routed to wrong booking")
	}
	if svc.decisions[0].Status != enums.BookingStatusCancelled {
		t.Fatalf("expected cancelled status, got %s", svc.decisions[0].Status)
	}
}

func TestMetricsEndpointServesWhenRegistryPresent(t *testing.T) {
	router := newTestRouter(nil)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	// registry is nil in this setup, chi should 404 rather than panic
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without registry got %d", resp.Code)
	}
}
