package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"roombook/internal/service"
)

// Options tunes the HTTP surface.
type Options struct {
	AllowedOrigins  []string
	RateLimitPerSec float64
	RateLimitBurst  int
	Heartbeat       time.Duration
}

// NewRouter builds the gin engine serving the booking API and live stream.
func NewRouter(svc *service.Service, opts Options, logger zerolog.Logger) *gin.Engine {
	h := NewHandler(svc, opts.Heartbeat, logger)

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(h.logger), Metrics())

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	if opts.RateLimitPerSec > 0 {
		api.Use(RateLimit(opts.RateLimitPerSec, opts.RateLimitBurst))
	}
	{
		bookings := api.Group("/bookings")
		{
			bookings.GET("", h.ListBookings)
			bookings.POST("", h.CreateBooking)
			bookings.GET("/:id", h.GetBooking)
			bookings.PUT("/:id", h.UpdateBooking)
			bookings.DELETE("/:id", h.DeleteBooking)
			bookings.POST("/:id/approve", h.ApproveBooking)
			bookings.POST("/:id/reject", h.RejectBooking)
			bookings.POST("/:id/cancel", h.CancelBooking)
		}

		api.POST("/conflicts", h.CheckConflict)
		api.POST("/alternatives", h.SuggestAlternatives)

		rooms := api.Group("/rooms")
		{
			rooms.GET("", h.ListRooms)
			rooms.POST("", h.CreateRoom)
			rooms.PUT("/:id", h.UpdateRoom)
			rooms.DELETE("/:id", h.DeleteRoom)
		}

		notifications := api.Group("/notifications")
		{
			notifications.GET("", h.ListNotifications)
			notifications.POST("", h.CreateNotification)
			notifications.PATCH("", h.MarkNotifications)
		}

		recurring := api.Group("/recurring-bookings")
		{
			recurring.GET("", h.ListRecurring)
			recurring.POST("", h.CreateRecurring)
		}

		equipment := api.Group("/equipment")
		{
			equipment.GET("", h.ListEquipment)
			equipment.POST("", h.CreateEquipment)
			equipment.PUT("/:id", h.UpdateEquipment)
			equipment.DELETE("/:id", h.DeleteEquipment)
		}

		users := api.Group("/users")
		{
			users.GET("", h.ListUsers)
			users.POST("", h.CreateUser)
			users.PUT("/:id", h.UpdateUser)
			users.DELETE("/:id", h.DeleteUser)
		}
	}

	// The stream is long-lived and kept out of the rate-limited group.
	r.GET("/api/stream", h.Stream)

	return r
}
