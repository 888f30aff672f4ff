package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"roombook/internal/models"
)

func (h *Handler) ListNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"notifications": h.svc.ListNotifications()})
}

func (h *Handler) CreateNotification(c *gin.Context) {
	var req notificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid notification payload")
		return
	}
	n, err := h.svc.Notify(req.Message, models.NotificationKind(req.Kind))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "notification": n})
}

// MarkNotifications sets the read flag on the listed IDs; read defaults to true.
func (h *Handler) MarkNotifications(c *gin.Context) {
	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid payload")
		return
	}
	read := true
	if req.Read != nil {
		read = *req.Read
	}
	updated := h.svc.MarkNotificationsRead(req.IDs, read)
	c.JSON(http.StatusOK, gin.H{"ok": true, "updated": updated})
}
