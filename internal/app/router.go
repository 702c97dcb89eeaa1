package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/go-chi/chi/v5"
	openapimiddleware "github.com/oapi-codegen/nethttp-middleware"

	"github.com/horeca-backoffice/apps/api/internal/analytics"
	"github.com/horeca-backoffice/apps/api/internal/archive"
	"github.com/horeca-backoffice/apps/api/internal/audit"
	"github.com/horeca-backoffice/apps/api/internal/auth"
	"github.com/horeca-backoffice/apps/api/internal/config"
	"github.com/horeca-backoffice/apps/api/internal/handlers"
	"github.com/horeca-backoffice/apps/api/internal/httpx"
	"github.com/horeca-backoffice/apps/api/internal/importer"
	"github.com/horeca-backoffice/apps/api/internal/middleware"
)

// Store is the persistence the API needs; *store.Postgres and
// *memstore.Store both satisfy it.
type Store interface {
	importer.Store
	analytics.Store
	audit.Store
	middleware.TenantResolver
}

// Dependencies are built by the caller. Cache and Archive are optional.
type Dependencies struct {
	Store   Store
	Cache   analytics.Cache
	Archive archive.Archiver
}

func NewRouter(cfg config.Config, deps Dependencies, logger *slog.Logger) (http.Handler, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openapiSpec)
	if err != nil {
		return nil, fmt.Errorf("load openapi spec: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("validate openapi spec: %w", err)
	}

	// Bearer credentials are checked by RequireTenant before validation runs.
	validate := openapimiddleware.OapiRequestValidatorWithOptions(doc, &openapimiddleware.Options{
		Options: openapi3filter.Options{
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		},
		SilenceServersWarning: true,
		ErrorHandler: func(w http.ResponseWriter, message string, statusCode int) {
			httpx.WriteJSON(w, statusCode, httpx.ErrorEnvelope{
				Error:     message,
				Code:      "validation_error",
				RequestID: w.Header().Get("X-Request-Id"),
			})
		},
	})

	imports := importer.NewService(deps.Store, importer.Options{
		Workers:          cfg.ImportWorkers,
		MaxRows:          cfg.ImportMaxRows,
		DefaultCompanyID: cfg.DefaultCompanyID,
		PlaceholderName:  cfg.PlaceholderCompanyName,
		AllowZeroPrice:   cfg.PriceImportAllowZero,
		DefaultCurrency:  cfg.DefaultCurrency,
	}, logger)
	agg := analytics.NewAggregator(deps.Store, deps.Cache, cfg.AnalyticsCacheTTL, logger)
	h := handlers.NewServer(cfg, imports, agg, deps.Archive, audit.NewLogger(deps.Store), logger)

	authMW := middleware.AuthMiddleware{
		Verifier: auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer),
		Tenants:  deps.Store,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.SecurityHeaders(cfg.Env))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.LimitBodyBytesWithOverrides(cfg.APIMaxBodyBytes, []middleware.BodyLimitOverride{
		{PathPrefix: "/imports/", PathSuffix: "/upload", MaxBytes: cfg.ImportMaxFileBytes},
	}))

	api := chi.NewRouter()
	api.With(validate).Get("/health", h.GetHealth)

	api.Group(func(importRoutes chi.Router) {
		if cfg.ImportRateLimitPerMin > 0 {
			limiter := middleware.NewIPRateLimiterWithMaxEntries(cfg.ImportRateLimitPerMin, time.Minute, cfg.RateLimitMaxIPs)
			importRoutes.Use(limiter.Middleware("Too many import requests"))
		}
		importRoutes.With(validate).Post("/imports/customers", h.PostImportsCustomers)
		importRoutes.With(validate).Post("/imports/products", h.PostImportsProducts)
		importRoutes.With(authMW.RequireTenant, validate).Post("/imports/prices", h.PostImportsPrices)
		// Multipart uploads are not described in the OpenAPI document.
		importRoutes.Post("/imports/{kind}/upload", h.PostImportsUpload)
	})

	api.With(validate).Get("/analytics/customers/comparison", h.GetAnalyticsCustomersComparison)

	r.Mount("/api", api)
	return r, nil
}
