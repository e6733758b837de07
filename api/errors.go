package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/metroreserve/internal/domain"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	SeatID  string `json:"seat_id,omitempty"`
}

func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.ErrUnauthenticated:
		return http.StatusUnauthorized
	case domain.ErrNotFound:
		return http.StatusNotFound
	case domain.ErrAlreadyBooked, domain.ErrTransactionConflict:
		return http.StatusConflict
	case domain.ErrIneligible:
		return http.StatusForbidden
	case domain.ErrInvalidRequest:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError writes the error envelope and records err on the context
// for RequestLogger. Unexpected errors are never echoed to the client.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	status := statusFor(err)
	resp := errorResponse{Error: domain.Code(err), Message: "internal server error"}
	if status != http.StatusInternalServerError {
		resp.Message = err.Error()
		var derr *domain.Error
		if errors.As(err, &derr) {
			if derr.Reason != "" {
				resp.Message = derr.Reason
			}
			if derr.Seat != nil {
				resp.SeatID = derr.Seat.String()
			}
		}
	}
	c.AbortWithStatusJSON(status, resp)
}

func badRequest(c *gin.Context, message string) {
	respondError(c, domain.NewError(domain.ErrInvalidRequest, message))
}
