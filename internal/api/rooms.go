package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"roombook/internal/service"
)

// ListRooms accepts building, capacity (minimum) and repeated equipment
// query parameters.
func (h *Handler) ListRooms(c *gin.Context) {
	filter := service.RoomFilter{
		Building:  c.Query("building"),
		Equipment: c.QueryArray("equipment"),
	}
	if raw := c.Query("capacity"); raw != "" {
		capacity, err := strconv.Atoi(raw)
		if err != nil {
			h.badRequest(c, "invalid capacity")
			return
		}
		filter.MinCapacity = capacity
	}
	c.JSON(http.StatusOK, gin.H{"rooms": h.svc.ListRooms(filter)})
}

func (h *Handler) CreateRoom(c *gin.Context) {
	var req roomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid room payload")
		return
	}
	room, err := h.svc.CreateRoom(req.room())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"room": room})
}

func (h *Handler) UpdateRoom(c *gin.Context) {
	var req roomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid room payload")
		return
	}
	room, err := h.svc.UpdateRoom(c.Param("id"), req.patch())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room})
}

func (h *Handler) DeleteRoom(c *gin.Context) {
	if _, err := h.svc.DeleteRoom(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
