package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/Domenick1991/metroreserve/internal/domain"
	"github.com/Domenick1991/metroreserve/internal/eligibility"
	"github.com/Domenick1991/metroreserve/internal/service/seats"
	"github.com/Domenick1991/metroreserve/internal/service/selection"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSeatUseCase struct {
	mock.Mock
}

func (m *MockSeatUseCase) List(ctx context.Context, passengerID string) ([]seats.SeatView, error) {
	args := m.Called(ctx, passengerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]seats.SeatView), args.Error(1)
}

func (m *MockSeatUseCase) Get(ctx context.Context, passengerID string, id domain.SeatID) (*seats.SeatView, error) {
	args := m.Called(ctx, passengerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*seats.SeatView), args.Error(1)
}

func TestSeatHandler_list(t *testing.T) {
	mockSeats := &MockSeatUseCase{}
	handler := NewSeatHandler(mockSeats, &MockSelectionUseCase{})

	c, w := testContext("GET", "/api/seats", nil)
	views := []seats.SeatView{
		{Seat: domain.Seat{ID: domain.SeatID{Cabin: 1, Row: 1, Side: domain.SideLeft}}, Reason: eligibility.ReasonWomenOnly},
		{Seat: domain.Seat{ID: domain.SeatID{Cabin: 3, Row: 2, Side: domain.SideRight}, BookedBy: "p1"}, Reason: eligibility.ReasonAlreadyBooked},
		{Seat: domain.Seat{ID: domain.SeatID{Cabin: 3, Row: 3, Side: domain.SideLeft}}, Selectable: true},
	}
	mockSeats.On("List", c.Request.Context(), "p1").Return(views, nil)

	handler.list(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var response []seatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response, 3)
	assert.Equal(t, eligibility.ReasonWomenOnly, response[0].Reason)
	assert.False(t, response[0].Selectable)
	assert.True(t, response[1].IsBooked)
	assert.True(t, response[1].BookedByMe)
	assert.Equal(t, 4, response[1].SeatNumber)
	assert.True(t, response[2].Selectable)
	assert.Equal(t, "3-3L", response[2].ID.String())
}

func TestSeatHandler_toggle(t *testing.T) {
	mockSelection := &MockSelectionUseCase{}
	handler := NewSeatHandler(&MockSeatUseCase{}, mockSelection)

	c, w := testContext("POST", "/api/selection/2-5R", nil)
	c.Params = gin.Params{{Key: "seat_id", Value: "2-5R"}}
	id := domain.SeatID{Cabin: 2, Row: 5, Side: domain.SideRight}
	mockSelection.On("Toggle", c.Request.Context(), "p1", id).
		Return(&selection.ToggleResult{SeatID: id, Reason: eligibility.ReasonPriority}, nil)

	handler.toggle(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var response toggleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.False(t, response.Changed)
	assert.Equal(t, eligibility.ReasonPriority, response.Reason)
	mockSelection.AssertExpectations(t)
}

func TestSeatHandler_toggle_BadSeat(t *testing.T) {
	mockSelection := &MockSelectionUseCase{}
	handler := NewSeatHandler(&MockSeatUseCase{}, mockSelection)

	c, w := testContext("POST", "/api/selection/6-1L", nil)
	c.Params = gin.Params{{Key: "seat_id", Value: "6-1L"}}

	handler.toggle(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSelection.AssertNotCalled(t, "Toggle", mock.Anything, mock.Anything, mock.Anything)
}

func TestSeatHandler_selection(t *testing.T) {
	mockSelection := &MockSelectionUseCase{}
	handler := NewSeatHandler(&MockSeatUseCase{}, mockSelection)

	c, w := testContext("GET", "/api/selection", nil)
	mockSelection.On("List", c.Request.Context(), "p1").Return(nil, nil)
	handler.listSelection(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"seat_ids":[]}`, w.Body.String())

	c, w = testContext("DELETE", "/api/selection", nil)
	mockSelection.On("Clear", c.Request.Context(), "p1").Return(nil)
	handler.clearSelection(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestSeatHandler_get(t *testing.T) {
	mockSeats := &MockSeatUseCase{}
	handler := NewSeatHandler(mockSeats, nil)

	c, w := testContext("GET", "/api/seats/4-1L", nil)
	c.Params = gin.Params{{Key: "seat_id", Value: "4-1L"}}
	id := domain.SeatID{Cabin: 4, Row: 1, Side: domain.SideLeft}
	view := &seats.SeatView{
		Seat:   domain.Seat{ID: id, BookedBy: "someone"},
		Reason: eligibility.ReasonAlreadyBooked,
	}
	mockSeats.On("Get", c.Request.Context(), "p1", id).Return(view, nil)

	handler.get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var response seatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.IsBooked)
	assert.False(t, response.BookedByMe)
	assert.False(t, response.Selectable)
	assert.Equal(t, eligibility.ReasonAlreadyBooked, response.Reason)
}

func TestSeatHandler_get_Selectable(t *testing.T) {
	mockSeats := &MockSeatUseCase{}
	handler := NewSeatHandler(mockSeats, nil)

	c, w := testContext("GET", "/api/seats/4-2R", nil)
	c.Params = gin.Params{{Key: "seat_id", Value: "4-2R"}}
	id := domain.SeatID{Cabin: 4, Row: 2, Side: domain.SideRight}
	mockSeats.On("Get", c.Request.Context(), "p1", id).Return(&seats.SeatView{Seat: domain.Seat{ID: id}, Selectable: true}, nil)

	handler.get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var response seatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Selectable)
	assert.Empty(t, response.Reason)
}
