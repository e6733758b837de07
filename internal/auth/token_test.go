package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/metroreserve/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_IssueAndParse(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	raw, exp, err := m.Issue("p1", domain.RoleAdmin)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := m.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "p1", claims.Subject)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
}

func TestTokenManager_RejectsBadTokens(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	raw, _, err := m.Issue("p1", domain.RolePassenger)
	require.NoError(t, err)

	other := NewTokenManager("other-secret", time.Hour)
	_, err = other.Parse(raw)
	assert.True(t, errors.Is(err, domain.ErrUnauthenticated))

	_, err = m.Parse("garbage")
	assert.True(t, errors.Is(err, domain.ErrUnauthenticated))

	expired := NewTokenManager("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	raw, _, err = expired.Issue("p1", domain.RolePassenger)
	require.NoError(t, err)
	_, err = m.Parse(raw)
	assert.True(t, errors.Is(err, domain.ErrUnauthenticated))

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "p1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Parse(none)
	assert.True(t, errors.Is(err, domain.ErrUnauthenticated))
}

func TestTokenManager_RequiresSubject(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)
	raw, _, err := m.Issue("", domain.RolePassenger)
	require.NoError(t, err)

	_, err = m.Parse(raw)
	assert.True(t, errors.Is(err, domain.ErrUnauthenticated))
}
