package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/geminid/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Metrics is exposed at /metrics. Nil uses the global registry.
	Metrics *metric.Registry

	// Logger for request logging.
	Logger *slog.Logger

	// Ready reports whether the Gemini listener is accepting. Nil means always ready.
	Ready func() bool

	// Hosts lists the configured virtual hosts for /sites.
	Hosts func() []string

	// AllowList is the IP/CIDR allowlist for /metrics and /sites (empty = no restriction).
	AllowList []string

	// EnableAudit logs every request.
	EnableAudit bool
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = metric.Global()
	}

	h := &handler{ready: cfg.Ready, hosts: cfg.Hosts}

	base := []Middleware{RequestID(), Recover(cfg.Logger)}
	if cfg.EnableAudit {
		base = append(base, Audit(cfg.Logger))
	}
	restricted := append(append([]Middleware{}, base...), NetworkACL(&NetworkACLConfig{
		AllowList: cfg.AllowList,
		Logger:    cfg.Logger,
	}))

	mux := http.NewServeMux()

	// Health endpoints - never restricted
	mux.Handle("GET /health", Chain(http.HandlerFunc(h.handleHealth), base...))
	mux.Handle("GET /ready", Chain(http.HandlerFunc(h.handleReady), base...))

	mux.Handle("GET /metrics", Chain(metrics.Handler(), restricted...))
	mux.Handle("GET /sites", Chain(http.HandlerFunc(h.handleSites), restricted...))

	return mux
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		EnableAudit: false,
	}
}
