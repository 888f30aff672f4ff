package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"roombook/internal/models"
	"roombook/internal/scheduling"
	"roombook/internal/service"
)

func (h *Handler) ListBookings(c *gin.Context) {
	filter := service.BookingFilter{
		Status: models.BookingStatus(c.Query("status")),
		RoomID: c.Query("roomId"),
		Query:  c.Query("q"),
	}
	var err error
	if filter.From, err = queryMillis(c, "from"); err != nil {
		h.badRequest(c, "invalid from timestamp")
		return
	}
	if filter.To, err = queryMillis(c, "to"); err != nil {
		h.badRequest(c, "invalid to timestamp")
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": h.svc.ListBookings(filter)})
}

func queryMillis(c *gin.Context, key string) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, nil
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return models.FromMillis(ms), nil
}

func (h *Handler) GetBooking(c *gin.Context) {
	b, err := h.svc.GetBooking(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) CreateBooking(c *gin.Context) {
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid booking payload")
		return
	}

	b, err := h.svc.CreateBooking(req.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "booking": b})
}

func (h *Handler) UpdateBooking(c *gin.Context) {
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid booking payload")
		return
	}

	b, err := h.svc.UpdateBooking(c.Param("id"), req.patch())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "booking": b})
}

func (h *Handler) DeleteBooking(c *gin.Context) {
	if _, err := h.svc.DeleteBooking(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) ApproveBooking(c *gin.Context) {
	h.respondTransition(c, h.svc.ApproveBooking)
}

func (h *Handler) RejectBooking(c *gin.Context) {
	h.respondTransition(c, h.svc.RejectBooking)
}

func (h *Handler) CancelBooking(c *gin.Context) {
	h.respondTransition(c, h.svc.CancelBooking)
}

func (h *Handler) respondTransition(c *gin.Context, op func(string) (models.Booking, error)) {
	b, err := op(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "booking": b})
}

func (h *Handler) CheckConflict(c *gin.Context) {
	var req windowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "roomId, start and end are required")
		return
	}

	conflicts, err := h.svc.CheckConflict(req.RoomID, models.FromMillis(req.Start), models.FromMillis(req.End), req.ExcludeID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if conflicts == nil {
		conflicts = []models.Booking{}
	}
	c.JSON(http.StatusOK, gin.H{"conflicts": conflicts})
}

func (h *Handler) SuggestAlternatives(c *gin.Context) {
	var req windowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "roomId, start and end are required")
		return
	}

	limit := scheduling.DefaultSuggestionLimit
	if req.Limit != nil {
		limit = *req.Limit
	}
	alternatives, err := h.svc.SuggestAlternatives(req.RoomID, models.FromMillis(req.Start), models.FromMillis(req.End), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alternatives": alternatives})
}
