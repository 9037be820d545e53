package router

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/salesrecon/backend/internal/infrastructure/logger"
	"github.com/salesrecon/backend/internal/interfaces/http/handler"
	"github.com/salesrecon/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Config assembles the engine's cross-cutting concerns
type Config struct {
	Logger  *zap.Logger
	Tracing middleware.TracingConfig
	CORS    middleware.CORSConfig
	// Registry receives the HTTP collectors; nil disables them
	Registry prometheus.Registerer
	// Metrics serves /metrics; nil leaves the route unmounted
	Metrics http.Handler
	// RunLimiter guards the run trigger; nil leaves it unlimited
	RunLimiter *middleware.RateLimiter
}

// Handlers are the endpoint groups. Pipeline may be nil to serve a
// read-only API.
type Handlers struct {
	System   *handler.SystemHandler
	Orders   *handler.OrderHandler
	Tiers    *handler.TierHandler
	Reports  *handler.ReportHandler
	Pipeline *handler.PipelineHandler
}

// NewEngine builds the gin engine with middleware, probes and /api/v1 routes
func NewEngine(cfg Config, h Handlers) (*gin.Engine, error) {
	if h.System == nil || h.Orders == nil || h.Tiers == nil || h.Reports == nil {
		return nil, errors.New("system, order, tier and report handlers are required")
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	engine.Use(
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.Tracing(cfg.Tracing),
		middleware.SpanAnnotator(),
		middleware.Secure(),
		middleware.CORSWithConfig(cfg.CORS),
	)
	if cfg.Registry != nil {
		httpMetrics, err := middleware.NewHTTPMetrics(cfg.Registry)
		if err != nil {
			return nil, err
		}
		engine.Use(httpMetrics.Middleware())
	}

	engine.GET("/health", h.System.Health)
	if cfg.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	system := NewGroup("/system").GET("/info", h.System.GetSystemInfo)

	orders := NewGroup("/orders").
		GET("/canonical", h.Orders.ListCanonical).
		GET("/canonical/:order_id", h.Orders.GetCanonical).
		GET("/curated", h.Orders.ListCurated).
		GET("/quarantine", h.Orders.ListQuarantine)

	tiers := NewGroup("/tiers").
		GET("", h.Tiers.ListAssignments).
		GET("/export", h.Tiers.ExportCSV).
		GET("/elbow", h.Tiers.Elbow)

	reports := NewGroup("/reports").
		GET("/top-city-per-hour", h.Reports.TopCityPerHour).
		GET("/top-city-hours", h.Reports.TopCityHours).
		GET("/tiers", h.Reports.TierSummaries)

	var runs *Group
	if h.Pipeline != nil {
		var guard []gin.HandlerFunc
		if cfg.RunLimiter != nil {
			guard = append(guard, middleware.RateLimit(cfg.RunLimiter))
		}
		runs = NewGroup("/pipeline", guard...).POST("/runs", h.Pipeline.Run)
	}

	mountAPI(engine, system, orders, tiers, reports, runs)
	return engine, nil
}
