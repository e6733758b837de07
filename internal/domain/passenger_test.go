package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassenger_Onboard(t *testing.T) {
	p := NewPassenger("p1", "a@example.com", "hash")
	assert.Equal(t, CategoryGeneral, p.Category)
	assert.False(t, p.Onboarded)

	require.NoError(t, p.Onboard(CategoryWomen, true))
	assert.Equal(t, CategoryWomen, p.Category)
	assert.True(t, p.HasLuggage)
	assert.True(t, p.Onboarded)

	err := p.Onboard(CategoryElderly, false)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
	assert.Equal(t, CategoryWomen, p.Category)
}

func TestPassenger_UpdateProfile(t *testing.T) {
	p := NewPassenger("p1", "a@example.com", "hash")
	assert.True(t, errors.Is(p.UpdateProfile(CategoryElderly, false), ErrInvalidRequest))

	require.NoError(t, p.Onboard(CategoryGeneral, false))
	require.NoError(t, p.UpdateProfile(CategoryDisabled, true))
	assert.Equal(t, CategoryDisabled, p.Category)
	assert.True(t, p.HasLuggage)

	err := p.UpdateProfile(Category("admin"), false)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
	assert.Equal(t, CategoryDisabled, p.Category)
}

func TestError_Unwrap(t *testing.T) {
	err := NewSeatError(ErrIneligible, SeatID{Cabin: 1, Row: 1, Side: SideLeft}, "Women-only cabin.")
	assert.True(t, errors.Is(err, ErrIneligible))
	assert.Equal(t, ErrIneligible, KindOf(err))
	assert.Equal(t, "ineligible: seat 1-1L: Women-only cabin.", err.Error())

	assert.Nil(t, KindOf(errors.New("boom")))
}

func TestCode(t *testing.T) {
	assert.Equal(t, "already_booked", Code(NewError(ErrAlreadyBooked, "")))
	assert.Equal(t, "transaction_conflict", Code(ErrTransactionConflict))
	assert.Equal(t, "internal", Code(errors.New("db down")))
}
