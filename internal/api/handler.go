package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"textile-backoffice/internal/service"
	"textile-backoffice/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Pinger is a dependency checked by the readiness probe
type Pinger interface {
	Ping(ctx context.Context) error
}

// ChangeStream delivers change notifications for server-sent events
type ChangeStream interface {
	SubscribeChanges(ctx context.Context) (<-chan string, error)
}

// Services groups the application services behind the HTTP API
type Services struct {
	Users     *service.UserService
	Catalog   *service.CatalogService
	Customers *service.CustomerService
	Orders    *service.OrderService
	Activity  *service.ActivityLogService
	Dashboard *service.DashboardService
}

// Handler contains HTTP handlers
type Handler struct {
	svc     Services
	changes ChangeStream
	checks  map[string]Pinger
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler. changes may be nil, which disables
// the change stream.
func NewHandler(svc Services, changes ChangeStream, checks map[string]Pinger) *Handler {
	return &Handler{
		svc:     svc,
		changes: changes,
		checks:  checks,
		logger:  util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(requestLogger(h.logger))

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.POST("/auth/login", h.login)

	authed := v1.Group("", h.authenticate())
	h.registerSessionRoutes(authed)
	h.registerUserRoutes(authed)
	h.registerProductRoutes(authed)
	h.registerCustomerRoutes(authed)
	h.registerOrderRoutes(authed)
	h.registerHistoryRoutes(authed)
	h.registerDashboardRoutes(authed)
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck pings every dependency
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := gin.H{}
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			deps[name] = err.Error()
			continue
		}
		deps[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	c.JSON(status, gin.H{
		"status":       state,
		"dependencies": deps,
		"time":         time.Now().Unix(),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
