package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	httpmw "github.com/johnquangdev/telemed-assistant/internal/infrastructure/http/middleware"
	"github.com/johnquangdev/telemed-assistant/internal/infrastructure/metrics"
	"github.com/johnquangdev/telemed-assistant/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg       *config.Config
	videoCall *VideoCall
	events    *Events
	metrics   *metrics.Recorder
	tokens    httpmw.TokenValidator
	logger    *zap.Logger
}

// NewRouter creates a new router with all handlers.
// tokens is only consulted when auth is enabled; recorder may be nil.
func NewRouter(
	cfg *config.Config,
	videoCall *VideoCall,
	events *Events,
	recorder *metrics.Recorder,
	tokens httpmw.TokenValidator,
	logger *zap.Logger,
) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		cfg:       cfg,
		videoCall: videoCall,
		events:    events,
		metrics:   recorder,
		tokens:    tokens,
		logger:    logger,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	if rt.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(rt.metrics.Handler()))
	}

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api/telemed")
	rt.setupVideoCallRoutes(api)
}

// setupVideoCallRoutes configures the video call request routes
func (rt *Router) setupVideoCallRoutes(g *echo.Group) {
	authEnabled := rt.cfg.Auth.Enabled && rt.tokens != nil
	if authEnabled {
		g.Use(httpmw.EchoAuth(rt.tokens, rt.logger))
	}

	g.POST("/video-call-request", rt.videoCall.SubmitRequest)
	g.GET("/video-call-status/:id", rt.videoCall.GetStatus)
	g.GET("/pending-requests", rt.videoCall.ListPending)
	g.POST("/accept-request/:id", rt.videoCall.AcceptRequest)
	g.POST("/decline-request/:id", rt.videoCall.DeclineRequest)

	if authEnabled && len(rt.cfg.Auth.AdminRoles) > 0 {
		g.POST("/cleanup-old-requests", rt.videoCall.CleanupOldRequests, httpmw.RequireRole(rt.cfg.Auth.AdminRoles...))
	} else {
		g.POST("/cleanup-old-requests", rt.videoCall.CleanupOldRequests)
	}

	if rt.events != nil {
		g.GET("/events", rt.events.Stream)
	} else {
		g.GET("/events", rt.notImplemented)
	}
}

// notImplemented returns 501 Not Implemented response
func (rt *Router) notImplemented(c echo.Context) error {
	return c.JSON(http.StatusNotImplemented, map[string]interface{}{
		"success": false,
		"error":   "This endpoint is not enabled",
		"path":    c.Request().URL.Path,
		"method":  c.Request().Method,
	})
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": rt.cfg.Server.Environment,
		"store":       rt.cfg.Telemed.StoreDriver,
		"broker":      rt.cfg.Telemed.BrokerDriver,
	})
}
