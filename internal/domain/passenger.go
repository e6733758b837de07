package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryGeneral  Category = "general"
	CategoryWomen    Category = "women"
	CategoryElderly  Category = "elderly"
	CategoryDisabled Category = "disabled"
	CategoryPregnant Category = "pregnant"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryGeneral, CategoryWomen, CategoryElderly, CategoryDisabled, CategoryPregnant:
		return true
	}
	return false
}

type Role string

const (
	RolePassenger Role = "passenger"
	RoleAdmin     Role = "admin"
)

type Passenger struct {
	ID           string
	Email        string
	PasswordHash string
	Category     Category
	HasLuggage   bool
	Onboarded    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PassengerFilter narrows a passenger search. Zero fields match everything.
type PassengerFilter struct {
	// Email matches case-insensitively anywhere in the address.
	Email    string
	Category Category
}

// PassengerSummary carries the confirmed booking totals of one passenger.
type PassengerSummary struct {
	Passenger
	ConfirmedBookings int
	TotalSpent        decimal.Decimal
}

// NewPassenger returns a passenger as created on first login: general
// category, no luggage, not yet onboarded.
func NewPassenger(id, email, passwordHash string) *Passenger {
	return &Passenger{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		Category:     CategoryGeneral,
	}
}

// Onboard records the category the passenger identifies into. It can
// run once; later changes go through UpdateProfile.
func (p *Passenger) Onboard(category Category, hasLuggage bool) error {
	if p.Onboarded {
		return NewError(ErrInvalidRequest, "passenger is already onboarded")
	}
	if err := p.setProfile(category, hasLuggage); err != nil {
		return err
	}
	p.Onboarded = true
	return nil
}

func (p *Passenger) UpdateProfile(category Category, hasLuggage bool) error {
	if !p.Onboarded {
		return NewError(ErrInvalidRequest, "passenger must complete onboarding first")
	}
	return p.setProfile(category, hasLuggage)
}

func (p *Passenger) setProfile(category Category, hasLuggage bool) error {
	if !category.Valid() {
		return NewError(ErrInvalidRequest, "unknown passenger category "+string(category))
	}
	p.Category = category
	p.HasLuggage = hasLuggage
	return nil
}
