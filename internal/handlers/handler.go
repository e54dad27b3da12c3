package handlers

import (
	"signal_chart/internal/logger"
	"signal_chart/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Options tunes the HTTP layer.
type Options struct {
	// AuthEnabled puts mutating routes behind the Bearer middleware.
	AuthEnabled bool
	ImageWidth  int
	ImageHeight int
}

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	opts     Options
	hub      *hub
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, opts Options) *Handler {
	h := &Handler{services: services, log: log, opts: opts, hub: newHub()}
	if services != nil && services.Chart != nil {
		services.Chart.Subscribe(h.hub)
	}
	return h
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints
	h.registerAPIRoutes(router)

	// Chart stream (HTTP upgrade) on the same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/token", h.issueToken)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.GET("/range", h.getRange)
		api.GET("/chart/state", h.getChartState)
		api.GET("/chart/image.png", h.getChartImage)
		api.GET("/logs", h.getLogs)
		api.GET("/logs/summary", h.getLogSummary)
	}

	mutating := api.Group("")
	if h.opts.AuthEnabled {
		mutating.Use(h.operatorMiddleware)
	}
	{
		// Body example: {"value":42}
		mutating.PUT("/range/:side/:unit", h.setSlider)
		// Body example: {"mid":3} (optional)
		mutating.POST("/chart/update", h.updateChart)
		mutating.POST("/chart/toggle", h.toggleChart)
	}
}
