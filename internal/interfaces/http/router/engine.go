package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pos/backend/internal/domain/shared"
	"github.com/pos/backend/internal/infrastructure/auth"
	"github.com/pos/backend/internal/infrastructure/config"
	"github.com/pos/backend/internal/infrastructure/logger"
	"github.com/pos/backend/internal/interfaces/http/handler"
	"github.com/pos/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineConfig selects the optional parts of the HTTP stack
type EngineConfig struct {
	ServiceName      string
	Version          string
	Production       bool
	HTTP             config.HTTPConfig
	Payment          config.PaymentConfig
	TracingEnabled   bool
	ProfilingEnabled bool
	// RequestTimeout bounds each request context; zero disables it
	RequestTimeout time.Duration
}

// Dependencies are the collaborators the HTTP layer is built on.
// Meter, IdempotencyStore and DB may be nil.
type Dependencies struct {
	Logger           *zap.Logger
	DB               handler.Pinger
	PaymentService   handler.PaymentService
	TokenValidator   middleware.TokenValidator
	IdempotencyStore shared.IdempotencyStore
	Meter            metric.Meter
	TracingOptions   []otelgin.Option
}

// NewEngine builds the gin engine with the middleware chain and all routes.
func NewEngine(cfg EngineConfig, deps Dependencies) (*gin.Engine, error) {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if deps.PaymentService == nil || deps.TokenValidator == nil {
		return nil, fmt.Errorf("router: payment service and token validator are required")
	}

	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// RequestID runs first so recovery and access logs carry it
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.ServiceName,
		Enabled:     cfg.TracingEnabled,
		Options:     deps.TracingOptions,
	}))
	if deps.Meter != nil {
		httpMetrics, err := middleware.HTTPMetrics(deps.Meter)
		if err != nil {
			return nil, fmt.Errorf("router: http metrics: %w", err)
		}
		engine.Use(httpMetrics)
	}
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(corsConfig(cfg.HTTP)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.Timeout(cfg.RequestTimeout))

	systemHandler := handler.NewSystemHandler(cfg.ServiceName, cfg.Version, deps.DB)
	engine.GET("/health", systemHandler.Health)

	exposeDetail := cfg.Payment.ExposeErrorDetail && !cfg.Production
	paymentHandler := handler.NewPaymentHandler(deps.PaymentService, exposeDetail)

	financeRoutes := NewDomainGroup("finance", "/finance")
	financeRoutes.Use(
		middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
			Validator: deps.TokenValidator,
			Logger:    log,
		}),
		middleware.SpanAttributes(),
		middleware.Profiling(cfg.ProfilingEnabled),
	)

	createPayment := []gin.HandlerFunc{middleware.RequirePermission(auth.PermissionPaymentCreate)}
	if cfg.Payment.IdempotencyEnabled && deps.IdempotencyStore != nil {
		createPayment = append(createPayment, middleware.Idempotency(middleware.IdempotencyConfig{
			Store:  deps.IdempotencyStore,
			TTL:    cfg.Payment.IdempotencyTTL,
			Logger: log,
		}))
	}
	createPayment = append(createPayment, paymentHandler.Create)

	readPayments := middleware.RequirePermission(auth.PermissionPaymentRead)

	financeRoutes.POST("/payments", createPayment...)
	financeRoutes.GET("/payments", readPayments, paymentHandler.List)
	financeRoutes.GET("/payments/:id", readPayments, paymentHandler.Get)
	financeRoutes.GET("/customers/:id/outstanding", readPayments, paymentHandler.Outstanding)

	systemRoutes := NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	prefix := NewRouter(engine, WithAPIVersion("v1")).
		Register(financeRoutes).
		Register(systemRoutes).
		Setup()
	log.Debug("API routes mounted",
		zap.String("prefix", prefix),
		zap.Strings("finance", financeRoutes.Routes()),
		zap.Strings("system", systemRoutes.Routes()),
	)

	return engine, nil
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.CORSAllowOrigins
	if len(cfg.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.CORSAllowHeaders
	}
	return cors
}
