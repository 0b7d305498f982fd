// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// security headers, and the edge gate in front of the form API.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Form endpoints only reachable through the edge gate
package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	_ "github.com/CoolAssPuppy/landing-pages/docs"
	"github.com/CoolAssPuppy/landing-pages/internal/config"
	"github.com/CoolAssPuppy/landing-pages/internal/csrf"
	"github.com/CoolAssPuppy/landing-pages/internal/domain"
	"github.com/CoolAssPuppy/landing-pages/internal/http/handlers"
	"github.com/CoolAssPuppy/landing-pages/internal/http/middleware"
	"github.com/CoolAssPuppy/landing-pages/internal/integrations/customerio"
	"github.com/CoolAssPuppy/landing-pages/internal/integrations/hubspot"
	"github.com/CoolAssPuppy/landing-pages/internal/origin"
	"github.com/CoolAssPuppy/landing-pages/internal/ratelimit"
	"github.com/CoolAssPuppy/landing-pages/internal/repo"
	"github.com/CoolAssPuppy/landing-pages/internal/security"
	"github.com/CoolAssPuppy/landing-pages/internal/services"
)

const (
	apiBasePath = "/api"
	formPath    = apiBasePath + "/form"
	maxBodySize = 1 << 20
)

// submissionRepoShim adapts the repository free functions to the
// services.SubmissionRepo interface expected by the SubmissionService.
type submissionRepoShim struct{}

// CreateSubmission proxies repo.CreateSubmission.
func (submissionRepoShim) CreateSubmission(ctx context.Context, db *gorm.DB, s *domain.Submission) error {
	return repo.CreateSubmission(ctx, db, s)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. db may be nil to run without the submission ledger; store backs the
// edge gate's rate limiter.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Gzip (non-API routes) and security headers
//  8. EdgeGate on every /api/ path, including 404/405: rate limit → origin → hardening/CORS
func RegisterRoutes(r *gin.Engine, db *gorm.DB, store ratelimit.Store, cfg config.Config) error {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-Vercel-Proxy-Signature"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(maxBodySize))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Compression for docs and health; API replies are tiny and promhttp
	// negotiates its own encoding.
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{apiBasePath + "/", "/metrics"})))

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// 8) Edge gate for everything under /api/, matched or not
	guard := origin.NewGuard(origin.Options{
		AllowedOrigins: cfg.Origins.AllowedOrigins,
		SiteURL:        cfg.Origins.SiteURL,
		PreviewHost:    cfg.Origins.PreviewHost,
		Production:     cfg.IsProduction(),
	})
	limiter := ratelimit.New(store, ratelimit.Policy{
		Window:  cfg.RateLimit.Window,
		APIMax:  cfg.RateLimit.APIMax,
		FormMax: cfg.RateLimit.FormMax,
	})
	r.Use(middleware.EdgeGate(middleware.GateOptions{
		Limiter:    limiter,
		Origins:    guard,
		FormPath:   formPath,
		PathPrefix: apiBasePath + "/",
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: handlers ← services ← repo/db + collaborators
	codec, err := csrf.NewCodec(cfg.CSRFSecret)
	if err != nil {
		return err
	}

	hs := hubspot.New(cfg.HubSpot.APIURL, cfg.HubSpot.AccessToken, outboundLimiter(cfg.Outbound))
	hs.HTTP.Timeout = cfg.Outbound.Timeout
	cio := customerio.New(cfg.CustomerIO.TrackURL, cfg.CustomerIO.SiteID, cfg.CustomerIO.APIKey, outboundLimiter(cfg.Outbound))
	cio.HTTP.Timeout = cfg.Outbound.Timeout

	subSvc := services.NewSubmissionService(db, submissionRepoShim{}, hs, cio)
	if cfg.Outbound.Timeout > 0 {
		subSvc.Timeout = cfg.Outbound.Timeout
	}

	h := handlers.New(codec, subSvc, security.Detector{Production: cfg.IsProduction()})

	// Public API
	api := groupWithPrefix(r, apiBasePath)
	{
		api.GET("/csrf", h.IssueCSRF)
		api.OPTIONS("/csrf", h.CSRFPreflight)

		api.POST("/form", h.SubmitForm)
		api.OPTIONS("/form", h.FormPreflight)
	}
	return nil
}

// outboundLimiter returns a per-collaborator throttle, or nil when disabled.
func outboundLimiter(o config.OutboundConfig) *rate.Limiter {
	if o.RPS <= 0 {
		return nil
	}
	burst := o.Burst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(o.RPS), burst)
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
