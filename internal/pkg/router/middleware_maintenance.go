package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/pkg/config"
)

// middlewareMaintenance blocks routes listed in app.maintenance.endpoints.
// An entry is either a route path ("/api/v1/identity/login") or a method and a
// route path ("POST /api/v1/identity/login"); "*" blocks every route.
func middlewareMaintenance(cfg config.Config) Middleware {
	blocked := make(map[string]struct{})
	if cfg != nil {
		for _, entry := range cfg.GetArray("app.maintenance.endpoints") {
			if entry = strings.Join(strings.Fields(entry), " "); entry != "" {
				blocked[entry] = struct{}{}
			}
		}
	}

	_, all := blocked["*"]

	return func(next http.Handler) http.Handler {
		if len(blocked) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			_, byPath := blocked[route]
			_, byMethod := blocked[r.Method+" "+route]
			if all || byPath || byMethod {
				w.Header().Set("Retry-After", "120")
				writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
