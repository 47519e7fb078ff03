package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iota-uz/orgtree/pkg/composables"
	"github.com/iota-uz/orgtree/pkg/configuration"
)

// TenantFromHeader injects the tenant id from the configured request header
// into the context. Requests without a parseable tenant id pass through
// unchanged; controllers reject them when tenant scoping is required.
func TenantFromHeader() mux.MiddlewareFunc {
	header := configuration.Use().TenantIDHeader
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw := r.Header.Get(header); raw != "" {
				if tenantID, err := uuid.Parse(raw); err == nil {
					r = r.WithContext(composables.WithTenantID(r.Context(), tenantID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
