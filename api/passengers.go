package api

import (
	"net/http"
	"time"

	"github.com/Domenick1991/metroreserve/internal/domain"
	"github.com/Domenick1991/metroreserve/internal/service/passenger"
	"github.com/gin-gonic/gin"
)

type PassengerHandler struct {
	service passenger.PassengerUseCase
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type profileRequest struct {
	Category   domain.Category `json:"type" binding:"required"`
	HasLuggage bool            `json:"has_luggage"`
}

type passengerResponse struct {
	ID         string          `json:"id"`
	Email      string          `json:"email"`
	Category   domain.Category `json:"type"`
	HasLuggage bool            `json:"has_luggage"`
	Onboarded  bool            `json:"onboarded"`
}

type loginResponse struct {
	Token     string            `json:"token"`
	ExpiresAt string            `json:"expires_at"`
	Role      domain.Role       `json:"role"`
	Created   bool              `json:"created"`
	Passenger passengerResponse `json:"passenger"`
}

func NewPassengerHandler(service passenger.PassengerUseCase) *PassengerHandler {
	return &PassengerHandler{service: service}
}

func (h *PassengerHandler) RegisterAuth(router *gin.RouterGroup) {
	router.POST("/login", h.login)
}

// RegisterMe mounts profile routes. The group must run RequireAuth.
func (h *PassengerHandler) RegisterMe(router *gin.RouterGroup) {
	router.GET("", h.me)
	router.PUT("/onboarding", h.onboard)
	router.PATCH("", h.update)
}

func (h *PassengerHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}
	res, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	c.JSON(status, loginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt.UTC().Format(time.RFC3339),
		Role:      res.Role,
		Created:   res.Created,
		Passenger: toPassengerResponse(res.Passenger),
	})
}

func (h *PassengerHandler) me(c *gin.Context) {
	p, err := h.service.Get(c.Request.Context(), passengerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPassengerResponse(p))
}

func (h *PassengerHandler) onboard(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "passenger type is required")
		return
	}
	p, err := h.service.Onboard(c.Request.Context(), passengerID(c), req.Category, req.HasLuggage)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPassengerResponse(p))
}

func (h *PassengerHandler) update(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "passenger type is required")
		return
	}
	p, err := h.service.UpdateProfile(c.Request.Context(), passengerID(c), req.Category, req.HasLuggage)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPassengerResponse(p))
}

func toPassengerResponse(p *domain.Passenger) passengerResponse {
	return passengerResponse{
		ID:         p.ID,
		Email:      p.Email,
		Category:   p.Category,
		HasLuggage: p.HasLuggage,
		Onboarded:  p.Onboarded,
	}
}
