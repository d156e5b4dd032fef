package middleware

import (
	"net/http"
	"strings"

	"github.com/servio-app/servio-backend/pkg/logger"
)

const (
	userIDHeader   = "X-User-Id"
	vendorIDHeader = "X-Vendor-Id"
	roleHeader     = "X-Actor-Role"
)

// Actor lifts the identity headers set by the gateway into the request
// context. Authentication itself happens upstream; the core trusts these
// headers inside the service mesh.
func Actor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if userID := strings.TrimSpace(r.Header.Get(userIDHeader)); userID != "" {
				ctx = WithUserID(ctx, userID)
				if logg != nil {
					ctx = logg.WithUserID(ctx, userID)
				}
			}
			if vendorID := strings.TrimSpace(r.Header.Get(vendorIDHeader)); vendorID != "" {
				ctx = WithVendorID(ctx, vendorID)
				if logg != nil {
					ctx = logg.WithVendorID(ctx, vendorID)
				}
			}
			if role := strings.TrimSpace(r.Header.Get(roleHeader)); role != "" {
				ctx = WithRole(ctx, role)
				if logg != nil {
					ctx = logg.WithActorRole(ctx, role)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
