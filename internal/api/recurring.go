package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"roombook/internal/models"
)

func (h *Handler) ListRecurring(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"recurringBookings": h.svc.ListRecurring()})
}

func (h *Handler) CreateRecurring(c *gin.Context) {
	var req recurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid recurring booking payload")
		return
	}

	res, err := h.svc.CreateRecurring(req.input())
	if err != nil {
		h.fail(c, err)
		return
	}

	skipped := make([]skippedResponse, 0, len(res.Skipped))
	for _, s := range res.Skipped {
		skipped = append(skipped, skippedResponse{
			Start:     models.Millis(s.Start),
			End:       models.Millis(s.End),
			Conflicts: s.Conflicts,
		})
	}
	c.JSON(http.StatusCreated, gin.H{
		"ok":                true,
		"recurring":         res.Recurring,
		"generatedBookings": len(res.Generated),
		"skipped":           skipped,
	})
}
