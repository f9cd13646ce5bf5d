package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/delordemm1/realestate-api/internal/config"
	"github.com/delordemm1/realestate-api/internal/metrics"
	appmw "github.com/delordemm1/realestate-api/internal/middleware"
)

// Module is implemented by every feature module that exposes HTTP operations.
type Module interface {
	RegisterRoutes(api huma.API)
}

// HealthResponse is the body of the health check.
type HealthResponse struct {
	Body struct {
		Status string `json:"status"`
	}
}

// New builds the router, mounts /metrics and registers the modules' operations.
func New(cfg *config.Config, log *slog.Logger, modules ...Module) chi.Router {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(appmw.Metrics)

	router.Handle("/metrics", metrics.Handler())

	apiConfig := huma.DefaultConfig("Real Estate API", "1.0.0")
	apiConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	api := humachi.New(router, apiConfig)

	for _, m := range modules {
		m.RegisterRoutes(api)
	}

	huma.Register(api, huma.Operation{
		OperationID: "get-health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health Check",
		Description: "Responds with the server's health status.",
		Tags:        []string{"system"},
	}, func(ctx context.Context, _ *struct{}) (*HealthResponse, error) {
		resp := &HealthResponse{}
		resp.Body.Status = "ok"
		return resp, nil
	})

	log.Info("routes registered", "modules", len(modules), "env", cfg.Server.Env)
	return router
}
