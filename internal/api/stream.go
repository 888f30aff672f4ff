package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"roombook/internal/events"
	"roombook/internal/metrics"
)

const streamBuffer = 64

var errSlowClient = errors.New("stream client buffer full")

// Stream pushes every broadcast event to the client as server-sent events.
// A client that falls behind by more than streamBuffer events is
// disconnected and the overflow is reported back to the bus.
func (h *Handler) Stream(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "streaming unsupported"})
		return
	}

	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	queue := make(chan events.Event, streamBuffer)
	overflow := make(chan struct{})
	var once sync.Once
	unsubscribe := h.svc.Store().Subscribe(func(event events.Event) error {
		select {
		case queue <- event:
			return nil
		default:
			once.Do(func() { close(overflow) })
			return errSlowClient
		}
	})
	defer unsubscribe()

	metrics.StreamClientConnected()
	defer metrics.StreamClientDisconnected()
	h.logger.Debug().Str("client_ip", c.ClientIP()).Msg("stream client connected")

	send := func(event events.Event) bool {
		data, err := json.Marshal(event)
		if err != nil {
			h.logger.Error().Err(err).Str("event", string(event.Type)).Msg("encode stream event")
			return true
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !send(events.New(events.Connected, nil)) {
		return
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-overflow:
			h.logger.Warn().Str("client_ip", c.ClientIP()).Msg("stream client too slow, closing")
			return
		default:
		}

		select {
		case <-ctx.Done():
			h.logger.Debug().Str("client_ip", c.ClientIP()).Msg("stream client disconnected")
			return
		case event := <-queue:
			if !send(event) {
				return
			}
		case <-ticker.C:
			if !send(events.New(events.Heartbeat, nil)) {
				return
			}
		}
	}
}
