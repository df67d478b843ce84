package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/wellcast-go/internal/models"
)

// ForecastService is the part of the forecast service the forecast routes use
type ForecastService interface {
	GenerateForecast(ctx context.Context, userID string, override *models.ForecastConfigOverride) (*models.BurnoutForecast, error)
	PreviewForecast(ctx context.Context, userID string, signals []models.WellnessSignal, override *models.ForecastConfigOverride) (*models.BurnoutForecast, error)
	LatestForecast(ctx context.Context, userID string) (*models.BurnoutForecast, error)
	ForecastHistory(ctx context.Context, userID string, limit int) ([]*models.BurnoutForecast, error)
}

// ForecastHandler serves the forecast routes
type ForecastHandler struct {
	service ForecastService
	logger  *logrus.Logger
}

// GenerateForecastRequest is the optional body of a generate call
type GenerateForecastRequest struct {
	Config *models.ForecastConfigOverride `json:"config,omitempty"`
}

// PreviewForecastRequest carries caller-supplied signals for a forecast that is not stored
type PreviewForecastRequest struct {
	UserID  string                         `json:"userId" binding:"required"`
	Signals []models.WellnessSignal        `json:"signals"`
	Config  *models.ForecastConfigOverride `json:"config,omitempty"`
}

// ForecastHistoryResponse wraps stored forecasts, newest first
type ForecastHistoryResponse struct {
	UserID    string                    `json:"userId"`
	Count     int                       `json:"count"`
	Forecasts []*models.BurnoutForecast `json:"forecasts"`
}

// NewForecastHandler creates a handler backed by service
func NewForecastHandler(service ForecastService, logger *logrus.Logger) *ForecastHandler {
	return &ForecastHandler{service: service, logger: logger}
}

// GenerateForecast handles POST /api/v1/users/:userId/forecasts. The body is
// optional.
func (h *ForecastHandler) GenerateForecast(c *gin.Context) {
	var req GenerateForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	forecast, err := h.service.GenerateForecast(c.Request.Context(), c.Param("userId"), req.Config)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, forecast)
}

// LatestForecast handles GET /api/v1/users/:userId/forecasts/latest
func (h *ForecastHandler) LatestForecast(c *gin.Context) {
	forecast, err := h.service.LatestForecast(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, forecast)
}

// ForecastHistory handles GET /api/v1/users/:userId/forecasts?limit=N
func (h *ForecastHandler) ForecastHistory(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer", Field: "limit"})
			return
		}
		limit = n
	}

	userID := c.Param("userId")
	history, err := h.service.ForecastHistory(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ForecastHistoryResponse{UserID: userID, Count: len(history), Forecasts: history})
}

// PreviewForecast handles POST /api/v1/forecasts/preview. Nothing is stored.
func (h *ForecastHandler) PreviewForecast(c *gin.Context) {
	var req PreviewForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	forecast, err := h.service.PreviewForecast(c.Request.Context(), req.UserID, req.Signals, req.Config)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, forecast)
}
