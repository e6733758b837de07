package api

import (
	"context"
	"net/http"

	"github.com/Domenick1991/metroreserve/internal/domain"
	"github.com/gin-gonic/gin"
)

type CabinReader interface {
	Cabins(ctx context.Context) ([]domain.CabinOccupancy, error)
}

// CabinHandler serves the public per-cabin occupancy.
type CabinHandler struct {
	cabins CabinReader
}

func NewCabinHandler(cabins CabinReader) *CabinHandler {
	return &CabinHandler{cabins: cabins}
}

func (h *CabinHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
}

func (h *CabinHandler) list(c *gin.Context) {
	cabins, err := h.cabins.Cabins(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cabins)
}
