package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"roombook/internal/service"
	"roombook/internal/store"
)

const defaultHeartbeat = 10 * time.Second

// Handler serves the REST endpoints on top of the booking service.
type Handler struct {
	svc       *service.Service
	heartbeat time.Duration
	logger    zerolog.Logger
}

func NewHandler(svc *service.Service, heartbeat time.Duration, logger zerolog.Logger) *Handler {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &Handler{
		svc:       svc,
		heartbeat: heartbeat,
		logger:    logger.With().Str("component", "api").Logger(),
	}
}

func (h *Handler) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": msg})
}

// fail maps service errors onto HTTP responses.
func (h *Handler) fail(c *gin.Context, err error) {
	var conflict *service.ConflictError
	switch {
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{
			"ok":           false,
			"reason":       "conflict",
			"conflicts":    conflict.Conflicts,
			"alternatives": conflict.Alternatives,
		})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, store.ErrDuplicateID),
		errors.Is(err, service.ErrRoomInUse),
		errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": err.Error()})
	case service.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	default:
		h.logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
	}
}
