package api

import (
	"context"
	"net/http"
	"time"

	"github.com/Domenick1991/metroreserve/internal/domain"
	"github.com/gin-gonic/gin"
)

type BookingReports interface {
	Stats(ctx context.Context) (*domain.BookingStats, error)
	RecentBookings(ctx context.Context) ([]domain.RecentBooking, error)
}

type PassengerSearcher interface {
	Search(ctx context.Context, filter domain.PassengerFilter) ([]domain.PassengerSummary, error)
}

type AdminHandler struct {
	reports    BookingReports
	passengers PassengerSearcher
}

type recentBookingResponse struct {
	bookingResponse
	Email    string          `json:"email"`
	Category domain.Category `json:"type"`
}

type passengerSummaryResponse struct {
	passengerResponse
	TotalBookings int    `json:"total_bookings"`
	TotalSpent    string `json:"total_spent"`
	CreatedAt     string `json:"created_at"`
}

func NewAdminHandler(reports BookingReports, passengers PassengerSearcher) *AdminHandler {
	return &AdminHandler{reports: reports, passengers: passengers}
}

// Register mounts admin routes. The group must run RequireAuth and
// RequireAdmin.
func (h *AdminHandler) Register(router *gin.RouterGroup) {
	router.GET("/stats", h.getStats)
	router.GET("/bookings/recent", h.recentBookings)
	router.GET("/passengers", h.searchPassengers)
}

func (h *AdminHandler) getStats(c *gin.Context) {
	stats, err := h.reports.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) recentBookings(c *gin.Context) {
	recent, err := h.reports.RecentBookings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]recentBookingResponse, 0, len(recent))
	for _, rb := range recent {
		resp = append(resp, recentBookingResponse{
			bookingResponse: toBookingResponse(rb.Booking),
			Email:           rb.Email,
			Category:        rb.Category,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// searchPassengers filters by ?email= substring and ?type= category. A type
// of "all" is the same as no type.
func (h *AdminHandler) searchPassengers(c *gin.Context) {
	filter := domain.PassengerFilter{
		Email:    c.Query("email"),
		Category: domain.Category(c.Query("type")),
	}
	if filter.Category == "all" {
		filter.Category = ""
	}
	found, err := h.passengers.Search(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]passengerSummaryResponse, 0, len(found))
	for i := range found {
		s := &found[i]
		resp = append(resp, passengerSummaryResponse{
			passengerResponse: toPassengerResponse(&s.Passenger),
			TotalBookings:     s.ConfirmedBookings,
			TotalSpent:        s.TotalSpent.StringFixed(2),
			CreatedAt:         s.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, resp)
}
