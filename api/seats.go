package api

import (
	"net/http"

	"github.com/Domenick1991/metroreserve/internal/domain"
	"github.com/Domenick1991/metroreserve/internal/service/seats"
	"github.com/Domenick1991/metroreserve/internal/service/selection"
	"github.com/gin-gonic/gin"
)

type SeatHandler struct {
	seats     seats.SeatUseCase
	selection selection.SelectionUseCase
}

type seatResponse struct {
	ID         domain.SeatID `json:"id"`
	Cabin      int           `json:"cabin"`
	Row        int           `json:"row"`
	Side       domain.Side   `json:"side"`
	SeatNumber int           `json:"seat_number"`
	IsBooked   bool          `json:"is_booked"`
	BookedByMe bool          `json:"booked_by_me"`
	Selectable bool          `json:"selectable"`
	Reason     string        `json:"reason,omitempty"`
}

type toggleResponse struct {
	SeatID   domain.SeatID `json:"seat_id"`
	Selected bool          `json:"selected"`
	Changed  bool          `json:"changed"`
	Reason   string        `json:"reason,omitempty"`
}

type selectionResponse struct {
	SeatIDs []domain.SeatID `json:"seat_ids"`
}

func NewSeatHandler(seats seats.SeatUseCase, selection selection.SelectionUseCase) *SeatHandler {
	return &SeatHandler{seats: seats, selection: selection}
}

// RegisterSeats mounts the seat map. The group should run OptionalAuth.
func (h *SeatHandler) RegisterSeats(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/:seat_id", h.get)
}

// RegisterSelection mounts selection routes. The group must run RequireAuth.
func (h *SeatHandler) RegisterSelection(router *gin.RouterGroup) {
	router.GET("", h.listSelection)
	router.POST("/:seat_id", h.toggle)
	router.DELETE("", h.clearSelection)
}

func (h *SeatHandler) list(c *gin.Context) {
	pid := passengerID(c)
	views, err := h.seats.List(c.Request.Context(), pid)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]seatResponse, 0, len(views))
	for _, v := range views {
		resp = append(resp, toSeatResponse(v, pid))
	}
	c.JSON(http.StatusOK, resp)
}

func toSeatResponse(v seats.SeatView, pid string) seatResponse {
	return seatResponse{
		ID:         v.ID,
		Cabin:      v.ID.Cabin,
		Row:        v.ID.Row,
		Side:       v.ID.Side,
		SeatNumber: v.ID.Number(),
		IsBooked:   v.IsBooked(),
		BookedByMe: pid != "" && v.BookedBy == pid,
		Selectable: v.Selectable,
		Reason:     v.Reason,
	}
}

func (h *SeatHandler) get(c *gin.Context) {
	id, err := domain.ParseSeatID(c.Param("seat_id"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	pid := passengerID(c)
	seat, err := h.seats.Get(c.Request.Context(), pid, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSeatResponse(*seat, pid))
}

func (h *SeatHandler) toggle(c *gin.Context) {
	id, err := domain.ParseSeatID(c.Param("seat_id"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	res, err := h.selection.Toggle(c.Request.Context(), passengerID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toggleResponse{
		SeatID:   res.SeatID,
		Selected: res.Selected,
		Changed:  res.Changed,
		Reason:   res.Reason,
	})
}

func (h *SeatHandler) listSelection(c *gin.Context) {
	ids, err := h.selection.List(c.Request.Context(), passengerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if ids == nil {
		ids = []domain.SeatID{}
	}
	c.JSON(http.StatusOK, selectionResponse{SeatIDs: ids})
}

func (h *SeatHandler) clearSelection(c *gin.Context) {
	if err := h.selection.Clear(c.Request.Context(), passengerID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
