package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/Domenick1991/metroreserve/internal/auth"
	"github.com/Domenick1991/metroreserve/internal/domain"
	"github.com/Domenick1991/metroreserve/internal/eligibility"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	ctxPassengerID = "passenger_id"
	ctxRole        = "role"
)

type TokenParser interface {
	Parse(raw string) (*auth.Claims, error)
}

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			respondError(c, domain.NewError(domain.ErrUnauthenticated, eligibility.ReasonLoginRequired))
			return
		}
		claims, err := tokens.Parse(raw)
		if err != nil {
			respondError(c, err)
			return
		}
		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a token is present. A present
// but invalid token is still rejected.
func OptionalAuth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}
		claims, err := tokens.Parse(raw)
		if err != nil {
			respondError(c, err)
			return
		}
		setIdentity(c, claims)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if role, _ := c.Get(ctxRole); role != domain.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, errorResponse{
				Error:   "forbidden",
				Message: "admin role required",
			})
			return
		}
		c.Next()
	}
}

func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  status,
			"latency": time.Since(start).String(),
		})
		if pid := passengerID(c); pid != "" {
			entry = entry.WithField(ctxPassengerID, pid)
		}
		if len(c.Errors) > 0 {
			entry = entry.WithError(c.Errors.Last().Err)
		}

		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Info("request rejected")
		default:
			entry.Debug("request served")
		}
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func setIdentity(c *gin.Context, claims *auth.Claims) {
	c.Set(ctxPassengerID, claims.Subject)
	c.Set(ctxRole, claims.Role)
}

func passengerID(c *gin.Context) string {
	return c.GetString(ctxPassengerID)
}
