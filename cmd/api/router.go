package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel"

	"github.com/dinarko/dinarko/pkg/middleware"
)

// SetupRouter configures all routes and returns the HTTP handler
func SetupRouter(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()

	registerIngestRoutes(mux, deps)
	registerUtilityRoutes(mux, deps)

	tracer := otel.GetTracerProvider().Tracer("dinarko/api")

	stack := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.Tracing(tracer),
		middleware.Recover(deps.Logger),
		middleware.Logger(deps.Logger),
	}
	if deps.Config.RateLimitPerSecond > 0 && deps.Config.RateLimitBurst > 0 {
		stack = append(stack, middleware.RateLimit(deps.Config.RateLimitPerSecond, deps.Config.RateLimitBurst))
	}

	handler := middleware.Chain(mux, stack...)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		MaxAge:         7200,
	})

	return corsHandler.Handler(handler)
}

// registerIngestRoutes registers the notification intake endpoints
func registerIngestRoutes(mux *http.ServeMux, deps *Dependencies) {
	mux.HandleFunc("POST /v1/notifications", wrapIntakeRoute(deps.IngestHandler.Capture))
	mux.HandleFunc("POST /v1/notifications/batch", wrapIntakeRoute(deps.IngestHandler.CaptureBatch))

	deps.Logger.Info("registered intake routes",
		slog.String("single", "/v1/notifications"),
		slog.String("batch", "/v1/notifications/batch"))
}

func wrapIntakeRoute(next http.HandlerFunc) http.HandlerFunc {
	const maxBodyBytes int64 = 1 << 20 // 1 MiB

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("X-Content-Type-Options", "nosniff")

		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		}

		next(w, r)
	}
}

// registerUtilityRoutes registers health check, metrics, and other utility routes
func registerUtilityRoutes(mux *http.ServeMux, deps *Dependencies) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		if err := deps.DB.Health(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			if _, writeErr := w.Write([]byte("database unhealthy")); writeErr != nil {
				deps.Logger.Error("failed to write health response", slog.Any("error", writeErr))
			}
			return
		}
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			deps.Logger.Error("failed to write health response", slog.Any("error", err))
		}
	})
	deps.Logger.Info("registered health check", "path", "/health")

	mux.HandleFunc("/health/details", func(w http.ResponseWriter, _ *http.Request) {
		type status struct {
			Status string `json:"status"`
			Detail string `json:"detail,omitempty"`
		}
		result := map[string]status{
			"db":    {Status: "ok"},
			"ready": {Status: "ok"},
		}

		if err := deps.DB.Health(); err != nil {
			result["db"] = status{Status: "fail", Detail: err.Error()}
			result["ready"] = status{Status: "fail", Detail: "db unavailable"}
		}

		for _, v := range result {
			if v.Status == "fail" {
				w.WriteHeader(http.StatusServiceUnavailable)
				if err := json.NewEncoder(w).Encode(result); err != nil {
					deps.Logger.Error("failed to encode health details", slog.Any("error", err))
				}
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(result); err != nil {
			deps.Logger.Error("failed to encode health details", slog.Any("error", err))
		}
	})
	deps.Logger.Info("registered health details", "path", "/health/details")

	mux.HandleFunc("/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ready")); err != nil {
			deps.Logger.Error("failed to write readiness response", slog.Any("error", err))
		}
	})
	deps.Logger.Info("registered readiness check", "path", "/ready")

	mux.Handle("/metrics", promhttp.Handler())
	deps.Logger.Info("registered metrics endpoint", "path", "/metrics")
}
