package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/metroreserve/internal/domain"
	"github.com/Domenick1991/metroreserve/internal/service/booking"
	"github.com/Domenick1991/metroreserve/internal/service/selection"
	"github.com/Domenick1991/metroreserve/internal/ticket"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service   booking.BookingUseCase
	selection selection.SelectionUseCase
}

type createBookingRequest struct {
	SeatIDs []domain.SeatID `json:"seat_ids"`
}

type bookingResponse struct {
	ID          string               `json:"id"`
	SeatID      domain.SeatID        `json:"seat_id"`
	Cabin       int                  `json:"cabin"`
	Row         int                  `json:"row"`
	Side        domain.Side          `json:"side"`
	SeatNumber  int                  `json:"seat_number"`
	Status      domain.BookingStatus `json:"status"`
	Amount      string               `json:"amount"`
	BookedAt    string               `json:"booked_at"`
	CancelledAt string               `json:"cancelled_at,omitempty"`
}

type bookResponse struct {
	BookedCount int               `json:"booked_count"`
	Bookings    []bookingResponse `json:"bookings"`
}

func NewBookingHandler(service booking.BookingUseCase, selection selection.SelectionUseCase) *BookingHandler {
	return &BookingHandler{service: service, selection: selection}
}

// Register mounts booking routes. The group must run RequireAuth.
func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.list)
	router.DELETE("/:id", h.cancel)
	router.GET("/:id/ticket", h.ticket)
	router.GET("/:id/ticket.png", h.ticketQR)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}

	ctx := c.Request.Context()
	pid := passengerID(c)
	seatIDs := req.SeatIDs
	if len(seatIDs) == 0 && h.selection != nil {
		selected, err := h.selection.List(ctx, pid)
		if err != nil {
			respondError(c, err)
			return
		}
		seatIDs = selected
	}

	res, err := h.service.Book(ctx, pid, seatIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := bookResponse{BookedCount: res.BookedCount, Bookings: make([]bookingResponse, 0, len(res.Bookings))}
	for _, b := range res.Bookings {
		resp.Bookings = append(resp.Bookings, toBookingResponse(b))
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *BookingHandler) list(c *gin.Context) {
	bookings, err := h.service.ListMyBookings(c.Request.Context(), passengerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		resp = append(resp, toBookingResponse(b))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	b, err := h.service.Cancel(c.Request.Context(), c.Param("id"), passengerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(*b))
}

func (h *BookingHandler) ticket(c *gin.Context) {
	t, err := h.service.Ticket(c.Request.Context(), c.Param("id"), passengerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *BookingHandler) ticketQR(c *gin.Context) {
	size := ticket.DefaultQRSize
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 64 || n > 1024 {
			badRequest(c, "size must be between 64 and 1024")
			return
		}
		size = n
	}

	t, err := h.service.Ticket(c.Request.Context(), c.Param("id"), passengerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	png, err := t.QRCode(size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func toBookingResponse(b domain.Booking) bookingResponse {
	resp := bookingResponse{
		ID:         b.ID,
		SeatID:     b.SeatID,
		Cabin:      b.SeatID.Cabin,
		Row:        b.SeatID.Row,
		Side:       b.SeatID.Side,
		SeatNumber: b.SeatID.Number(),
		Status:     b.Status,
		Amount:     b.Amount.StringFixed(2),
		BookedAt:   b.BookedAt.UTC().Format(time.RFC3339),
	}
	if b.CancelledAt != nil {
		resp.CancelledAt = b.CancelledAt.UTC().Format(time.RFC3339)
	}
	return resp
}
