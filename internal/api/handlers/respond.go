package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/wellcast-go/internal/services"
	"github.com/irfndi/wellcast-go/internal/utils"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// respondError maps service errors onto status codes. Internal errors are
// logged and reported without detail.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	var ve *utils.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ve.Message, Field: ve.Field})
	case errors.Is(err, services.ErrForecastNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "No forecast found for this user"})
	default:
		_ = c.Error(err)
		logger.WithError(err).WithFields(logrus.Fields{
			"path":    c.FullPath(),
			"user_id": c.Param("userId"),
		}).Error("Request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}
