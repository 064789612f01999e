// Package httptransport is the thin HTTP layer. Handlers delegate to
// domain services without embedding business logic so transport concerns
// remain isolated.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sigil/internal/platform/middleware"
	"sigil/pkg/platform/httputil"
)

// HealthChecker reports the readiness of one dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// RouterConfig collects the handlers and checks the router mounts.
type RouterConfig struct {
	Auth     *AuthHandler
	Accounts *AccountHandler
	Logger   *slog.Logger
	Health   map[string]HealthChecker
}

// NewRouter wires middleware, the API handlers, and the operational
// endpoints into one chi router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestMetadata)
	r.Use(middleware.Logger(cfg.Logger))

	cfg.Auth.Register(r)
	cfg.Accounts.Register(r)

	r.Get("/healthz", handleHealth(cfg.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

func handleHealth(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check.Health(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[name] = err.Error()
			}
		}
		httputil.WriteJSON(w, status, body)
	}
}
