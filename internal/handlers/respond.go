package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/school-system/gradebook/internal/analysis"
	"github.com/school-system/gradebook/internal/services"
	"github.com/school-system/gradebook/internal/store"
)

const analysisFailedMessage = "Error generating analysis. Please try again."

// statusClientClosedRequest follows the nginx convention for a client that hung up.
const statusClientClosedRequest = 499

// respondError maps service and store errors onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	if errors.Is(err, context.Canceled) && c.Request.Context().Err() != nil {
		log.Debug().Str("trace_id", c.GetString("trace_id")).Msg("Client closed request")
		c.AbortWithStatus(statusClientClosedRequest)
		return
	}

	status := http.StatusInternalServerError
	msg := err.Error()

	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrReference),
		errors.Is(err, services.ErrImmutableReference),
		errors.Is(err, analysis.ErrNoGrades):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, analysis.ErrAnalysisFailed):
		status = http.StatusBadGateway
		msg = analysisFailedMessage
	default:
		log.Error().Err(err).Str("trace_id", c.GetString("trace_id")).Msg("Request failed")
		msg = "internal server error"
	}

	_ = c.Error(err)
	c.JSON(status, gin.H{"error": msg})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

// confirmed gates destructive requests on ?confirm=true.
func confirmed(c *gin.Context) bool {
	if c.Query("confirm") != "true" {
		c.JSON(http.StatusPreconditionRequired, gin.H{"error": "deletion must be confirmed with confirm=true"})
		return false
	}
	return true
}

func respondDeleted(c *gin.Context, ok bool, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Deleted successfully"})
}

// ComponentInput is a grade component as typed into a form: a number, a numeric string, blank or null.
type ComponentInput string

func (v *ComponentInput) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*v = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = ComponentInput(s)
		return nil
	}
	*v = ComponentInput(b)
	return nil
}
