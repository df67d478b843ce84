package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/wellcast-go/internal/models"
)

// SignalService is the part of the forecast service the signal routes use
type SignalService interface {
	RecordSignals(ctx context.Context, userID string, signals []models.WellnessSignal) ([]models.WellnessSignal, error)
	ListSignals(ctx context.Context, userID string, lookbackDays int) ([]models.WellnessSignal, error)
}

// SignalHandler serves the signal routes
type SignalHandler struct {
	service SignalService
	logger  *logrus.Logger
}

// RecordSignalsRequest is a batch of signals for one user
type RecordSignalsRequest struct {
	Signals []models.WellnessSignal `json:"signals" binding:"required"`
}

// SignalsResponse lists a user's signals inside the lookback window
type SignalsResponse struct {
	UserID  string                  `json:"userId"`
	Count   int                     `json:"count"`
	Signals []models.WellnessSignal `json:"signals"`
}

// NewSignalHandler creates a handler backed by service
func NewSignalHandler(service SignalService, logger *logrus.Logger) *SignalHandler {
	return &SignalHandler{service: service, logger: logger}
}

// RecordSignals handles POST /api/v1/users/:userId/signals
func (h *SignalHandler) RecordSignals(c *gin.Context) {
	var req RecordSignalsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	userID := c.Param("userId")
	saved, err := h.service.RecordSignals(c.Request.Context(), userID, req.Signals)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, SignalsResponse{UserID: userID, Count: len(saved), Signals: saved})
}

// ListSignals handles GET /api/v1/users/:userId/signals?days=N
func (h *SignalHandler) ListSignals(c *gin.Context) {
	days := 0
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "days must be a positive integer", Field: "days"})
			return
		}
		days = n
	}

	userID := c.Param("userId")
	signals, err := h.service.ListSignals(c.Request.Context(), userID, days)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, SignalsResponse{UserID: userID, Count: len(signals), Signals: signals})
}
