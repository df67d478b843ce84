package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/wellcast-go/internal/api/handlers"
	"github.com/irfndi/wellcast-go/internal/middleware"
)

// Service is the full set of operations the API exposes
type Service interface {
	handlers.SignalService
	handlers.ForecastService
}

// Dependencies groups everything the router needs. Metrics and HTTPRecorder
// may be nil.
type Dependencies struct {
	Service        Service
	Health         *handlers.HealthHandler
	Auth           *middleware.AuthMiddleware
	Metrics        http.Handler
	HTTPRecorder   middleware.HTTPRecorder
	ServiceName    string
	AllowedOrigins []string
}

// NewRouter builds the gin engine with the standard middleware chain
func NewRouter(deps Dependencies, logger *logrus.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.TelemetryMiddleware(deps.ServiceName),
		middleware.RequestLogger(logger),
		middleware.CORS(deps.AllowedOrigins),
	)
	if deps.HTTPRecorder != nil {
		router.Use(middleware.MetricsMiddleware(deps.HTTPRecorder))
	}

	SetupRoutes(router, deps, logger)
	return router
}

// SetupRoutes registers every route on router
func SetupRoutes(router *gin.Engine, deps Dependencies, logger *logrus.Logger) {
	router.GET("/health", deps.Health.HealthCheck)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	signalHandler := handlers.NewSignalHandler(deps.Service, logger)
	forecastHandler := handlers.NewForecastHandler(deps.Service, logger)

	v1 := router.Group("/api/v1")
	{
		users := v1.Group("/users/:userId", deps.Auth.RequireAuth(), deps.Auth.RequireSubjectAccess("userId"))
		{
			users.POST("/signals", signalHandler.RecordSignals)
			users.GET("/signals", signalHandler.ListSignals)
			users.POST("/forecasts", forecastHandler.GenerateForecast)
			users.GET("/forecasts", forecastHandler.ForecastHistory)
			users.GET("/forecasts/latest", forecastHandler.LatestForecast)
		}

		forecasts := v1.Group("/forecasts", deps.Auth.RequireAuth())
		{
			forecasts.POST("/preview", forecastHandler.PreviewForecast)
		}
	}
}
