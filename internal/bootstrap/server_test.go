package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/metroreserve/config"
	"github.com/Domenick1991/metroreserve/internal/auth"
	"github.com/Domenick1991/metroreserve/internal/repository"
	"github.com/Domenick1991/metroreserve/internal/service/booking"
	"github.com/Domenick1991/metroreserve/internal/service/passenger"
	"github.com/Domenick1991/metroreserve/internal/service/seats"
	"github.com/Domenick1991/metroreserve/internal/service/selection"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestRouter(t *testing.T, checks map[string]func(context.Context) error) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger, _ := test.NewNullLogger()

	store := repository.NewMemoryStore()
	picks := selection.NewMemoryStore()
	tokens := auth.NewTokenManager("test-secret", time.Hour)

	svc := Services{
		Seats:     seats.NewSeatService(store.Seats(), store.Passengers(), nil, logger),
		Selection: selection.NewSelectionService(picks, store.Seats(), store.Passengers()),
		Bookings: booking.NewBookingService(store.Bookings(), store.Seats(), store.Passengers(),
			decimal.RequireFromString("25.00"),
			booking.WithSelection(picks),
			booking.WithLogger(logger),
		),
		Passengers: passenger.NewPassengerService(store.Passengers(), tokens, bcrypt.MinCost, []string{"admin@metro.test"}, logger),
		Tokens:     tokens,
		Checks:     checks,
	}
	return NewRouter(&config.Config{}, svc, logger)
}

type client struct {
	t     *testing.T
	h     http.Handler
	token string
}

func (c *client) call(method, path string, body interface{}, out interface{}) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.h.ServeHTTP(w, req)
	if out != nil && w.Body.Len() > 0 {
		require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w.Code
}

func (c *client) login(email string) {
	c.t.Helper()
	var resp struct {
		Token string `json:"token"`
	}
	code := c.call(http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": "pw"}, &resp)
	require.Contains(c.t, []int{http.StatusOK, http.StatusCreated}, code)
	c.token = resp.Token
}

type seatJSON struct {
	ID         string `json:"id"`
	Selectable bool   `json:"selectable"`
	Reason     string `json:"reason"`
}

type bookingJSON struct {
	ID     string `json:"id"`
	SeatID string `json:"seat_id"`
	Status string `json:"status"`
}

func TestRouter_BookingFlow(t *testing.T) {
	h := newTestRouter(t, nil)
	rider := &client{t: t, h: h}
	rider.login("w@metro.test")

	var me map[string]interface{}
	require.Equal(t, http.StatusOK, rider.call(http.MethodPut, "/api/passengers/me/onboarding",
		map[string]interface{}{"type": "women", "has_luggage": true}, &me))
	assert.Equal(t, true, me["onboarded"])

	var seatMap []seatJSON
	require.Equal(t, http.StatusOK, rider.call(http.MethodGet, "/api/seats", nil, &seatMap))
	require.Len(t, seatMap, 100)
	for _, s := range seatMap {
		assert.True(t, s.Selectable, s.ID)
	}

	var toggled map[string]interface{}
	require.Equal(t, http.StatusOK, rider.call(http.MethodPost, "/api/selection/1-1L", nil, &toggled))
	assert.Equal(t, true, toggled["selected"])
	require.Equal(t, http.StatusOK, rider.call(http.MethodPost, "/api/selection/2-1L", nil, &toggled))

	var booked struct {
		BookedCount int           `json:"booked_count"`
		Bookings    []bookingJSON `json:"bookings"`
	}
	require.Equal(t, http.StatusCreated, rider.call(http.MethodPost, "/api/bookings", nil, &booked))
	assert.Equal(t, 2, booked.BookedCount)

	var sel struct {
		SeatIDs []string `json:"seat_ids"`
	}
	require.Equal(t, http.StatusOK, rider.call(http.MethodGet, "/api/selection", nil, &sel))
	assert.Empty(t, sel.SeatIDs)

	var mine []bookingJSON
	require.Equal(t, http.StatusOK, rider.call(http.MethodGet, "/api/bookings", nil, &mine))
	assert.Len(t, mine, 2)

	target := booked.Bookings[0]
	var tk map[string]interface{}
	require.Equal(t, http.StatusOK, rider.call(http.MethodGet, "/api/bookings/"+target.ID+"/ticket", nil, &tk))
	assert.Equal(t, "METRO-"+target.ID+"-"+target.SeatID, tk["qr_code"])

	// A general passenger is turned away from both restricted cabins.
	other := &client{t: t, h: h}
	other.login("g@metro.test")
	var errResp map[string]string
	assert.Equal(t, http.StatusForbidden, other.call(http.MethodPost, "/api/bookings",
		map[string]interface{}{"seat_ids": []string{"1-2L"}}, &errResp))
	assert.Equal(t, "Women-only cabin.", errResp["message"])
	assert.Equal(t, "1-2L", errResp["seat_id"])

	assert.Equal(t, http.StatusConflict, other.call(http.MethodPost, "/api/bookings",
		map[string]interface{}{"seat_ids": []string{"3-1L", target.SeatID}}, &errResp))
	assert.Equal(t, "already_booked", errResp["error"])

	assert.Equal(t, http.StatusNotFound, other.call(http.MethodDelete, "/api/bookings/"+target.ID, nil, nil))
	assert.Equal(t, http.StatusNotFound, other.call(http.MethodGet, "/api/bookings/"+target.ID+"/ticket", nil, nil))

	var cancelled bookingJSON
	require.Equal(t, http.StatusOK, rider.call(http.MethodDelete, "/api/bookings/"+target.ID, nil, &cancelled))
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Equal(t, http.StatusNotFound, rider.call(http.MethodDelete, "/api/bookings/"+target.ID, nil, nil))

	// The freed seat is listed again, restricted only by its cabin.
	require.Equal(t, "1-1L", target.SeatID)
	require.Equal(t, http.StatusOK, other.call(http.MethodGet, "/api/seats", nil, &seatMap))
	assert.Equal(t, "1-1L", seatMap[0].ID)
	assert.Equal(t, "Women-only cabin.", seatMap[0].Reason)

	assert.Equal(t, http.StatusForbidden, rider.call(http.MethodGet, "/api/admin/stats", nil, nil))

	admin := &client{t: t, h: h}
	admin.login("admin@metro.test")
	var stats map[string]interface{}
	require.Equal(t, http.StatusOK, admin.call(http.MethodGet, "/api/admin/stats", nil, &stats))
	assert.Equal(t, float64(1), stats["total_bookings"])
}

func TestRouter_AdminReportsAndCabins(t *testing.T) {
	h := newTestRouter(t, nil)
	rider := &client{t: t, h: h}
	rider.login("e@metro.test")
	require.Equal(t, http.StatusOK, rider.call(http.MethodPut, "/api/passengers/me/onboarding",
		map[string]interface{}{"type": "elderly"}, nil))
	assert.Equal(t, http.StatusBadRequest, rider.call(http.MethodPut, "/api/passengers/me/onboarding",
		map[string]interface{}{"type": "women"}, nil))

	require.Equal(t, http.StatusCreated, rider.call(http.MethodPost, "/api/bookings",
		map[string]interface{}{"seat_ids": []string{"2-1L", "4-1R"}}, nil))

	var detail seatJSON
	require.Equal(t, http.StatusOK, rider.call(http.MethodGet, "/api/seats/2-2L", nil, &detail))
	assert.True(t, detail.Selectable)
	require.Equal(t, http.StatusOK, rider.call(http.MethodGet, "/api/seats/1-2L", nil, &detail))
	assert.False(t, detail.Selectable)
	assert.Equal(t, "Women-only cabin.", detail.Reason)

	anon := &client{t: t, h: h}
	var cabins []map[string]interface{}
	require.Equal(t, http.StatusOK, anon.call(http.MethodGet, "/api/cabins", nil, &cabins))
	require.Len(t, cabins, 5)
	assert.Equal(t, float64(1), cabins[1]["booked_seats"])
	assert.Equal(t, float64(1), cabins[3]["booked_seats"])

	assert.Equal(t, http.StatusForbidden, rider.call(http.MethodGet, "/api/admin/bookings/recent", nil, nil))

	admin := &client{t: t, h: h}
	admin.login("admin@metro.test")
	var recent []map[string]interface{}
	require.Equal(t, http.StatusOK, admin.call(http.MethodGet, "/api/admin/bookings/recent", nil, &recent))
	require.Len(t, recent, 2)
	assert.Equal(t, "e@metro.test", recent[0]["email"])
	assert.Equal(t, "elderly", recent[0]["type"])

	var found []map[string]interface{}
	require.Equal(t, http.StatusOK, admin.call(http.MethodGet, "/api/admin/passengers?email=E@METRO&type=elderly", nil, &found))
	require.Len(t, found, 1)
	assert.Equal(t, float64(2), found[0]["total_bookings"])
	assert.Equal(t, "50.00", found[0]["total_spent"])

	require.Equal(t, http.StatusOK, admin.call(http.MethodGet, "/api/admin/passengers?type=all", nil, &found))
	assert.Len(t, found, 2)
	assert.Equal(t, http.StatusBadRequest, admin.call(http.MethodGet, "/api/admin/passengers?type=astronaut", nil, nil))
}

func TestRouter_RequiresLogin(t *testing.T) {
	h := newTestRouter(t, nil)
	anon := &client{t: t, h: h}

	assert.Equal(t, http.StatusUnauthorized, anon.call(http.MethodPost, "/api/bookings", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, anon.call(http.MethodPost, "/api/selection/3-1L", nil, nil))

	var seatMap []seatJSON
	require.Equal(t, http.StatusOK, anon.call(http.MethodGet, "/api/seats", nil, &seatMap))
	assert.Equal(t, "Please login first.", seatMap[50].Reason)
}

func TestRouter_HealthAndReadiness(t *testing.T) {
	h := newTestRouter(t, map[string]func(context.Context) error{
		"postgres": func(context.Context) error { return nil },
		"kafka":    func(context.Context) error { return errors.New("no brokers") },
	})
	c := &client{t: t, h: h}

	assert.Equal(t, http.StatusOK, c.call(http.MethodGet, "/healthz", nil, nil))

	var ready map[string]string
	assert.Equal(t, http.StatusServiceUnavailable, c.call(http.MethodGet, "/readyz", nil, &ready))
	assert.Equal(t, "ok", ready["postgres"])
	assert.Equal(t, "no brokers", ready["kafka"])

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
