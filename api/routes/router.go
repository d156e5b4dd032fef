package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/servio-app/servio-backend/api/controllers"
	"github.com/servio-app/servio-backend/api/middleware"
	"github.com/servio-app/servio-backend/internal/assignments"
	"github.com/servio-app/servio-backend/internal/bookings"
	"github.com/servio-app/servio-backend/internal/catalog"
	"github.com/servio-app/servio-backend/internal/notifications"
	"github.com/servio-app/servio-backend/internal/vendors"
	"github.com/servio-app/servio-backend/pkg/config"
	"github.com/servio-app/servio-backend/pkg/db"
	"github.com/servio-app/servio-backend/pkg/logger"
	"github.com/servio-app/servio-backend/pkg/metrics"
	pkgredis "github.com/servio-app/servio-backend/pkg/redis"
)

// Deps bundles everything the router needs.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            db.Pinger
	Redis         pkgredis.Pinger
	Idempotency   pkgredis.IdempotencyStore
	HTTPMetrics   *metrics.HTTPMetrics
	Registry      *prometheus.Registry
	Catalog       catalog.Service
	Vendors       vendors.Service
	Assignments   assignments.Service
	Bookings      bookings.Service
	Notifications notifications.Service
}

// New assembles the HTTP surface. Middleware order matters: recovery first so
// panics in later middleware still produce a response, then request identity,
// then logging so every log line carries the request id.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer(d.Logger))
	r.Use(middleware.RequestID(d.Logger))
	r.Use(middleware.Actor(d.Logger))
	r.Use(middleware.Logging(d.Logger, d.HTTPMetrics))
	r.Use(middleware.CORS())

	r.Get("/health/live", controllers.HealthLive(d.Config))
	r.Get("/health/ready", controllers.HealthReady(d.Config, d.Logger, d.DB, d.Redis))

	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(d.Idempotency, d.Logger))

		r.Get("/catalog/services/{serviceId}", controllers.GetCatalog(d.Catalog, d.Logger))

		r.Post("/bookings", controllers.CreateBooking(d.Bookings, d.Logger))
		r.Get("/bookings", controllers.ListUserBookings(d.Bookings, d.Logger))
		r.Get("/bookings/{bookingId}", controllers.GetBooking(d.Bookings, d.Logger))

		r.Route("/vendor", func(r chi.Router) {
			r.Get("/assignments", controllers.ListVendorAssignments(d.Assignments, d.Logger))
			r.Post("/applications", controllers.ApplyForPackages(d.Assignments, d.Logger))
			r.Post("/services", controllers.RegisterVendorService(d.Vendors, d.Logger))
			r.Get("/bookings", controllers.ListVendorBookings(d.Bookings, d.Logger))
			r.Post("/bookings/{bookingId}/status", controllers.UpdateVendorBookingStatus(d.Bookings, d.Logger))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(d.Notifications, d.Logger))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(d.Notifications, d.Logger))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(d.Notifications, d.Logger))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(d.Idempotency, d.Logger))

		r.Route("/catalog", func(r chi.Router) {
			r.Post("/services/{serviceId}/packages", controllers.CreateCatalogPackages(d.Catalog, d.Logger))
			r.Put("/packages", controllers.EditCatalogPackages(d.Catalog, d.Logger))
			r.Delete("/packages/{packageId}", controllers.DeleteCatalogPackage(d.Catalog, d.Logger))
		})

		r.Route("/vendors", func(r chi.Router) {
			r.Post("/", controllers.CreateVendor(d.Vendors, d.Logger))
			r.Get("/{vendorId}", controllers.GetVendor(d.Vendors, d.Logger))
			r.Put("/{vendorId}/manual-assignment", controllers.SetManualAssignment(d.Vendors, d.Logger))
			r.Post("/{vendorId}/assignments", controllers.AssignPackages(d.Assignments, d.Logger))
		})

		r.Route("/applications", func(r chi.Router) {
			r.Get("/", controllers.ListApplications(d.Assignments, d.Logger))
			r.Post("/{applicationId}/status", controllers.DecideApplication(d.Assignments, d.Logger))
		})

		r.Delete("/assignments/{assignmentId}", controllers.RemoveAssignment(d.Assignments, d.Logger))

		r.Route("/bookings", func(r chi.Router) {
			r.Post("/{bookingId}/decision", controllers.DecideBooking(d.Bookings, d.Logger))
			r.Post("/{bookingId}/assign", controllers.AssignBooking(d.Bookings, d.Logger))
			r.Get("/{bookingId}/eligible-vendors", controllers.ListEligibleVendors(d.Bookings, d.Logger))
		})
	})

	return r
}
