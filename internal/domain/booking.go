package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type Booking struct {
	ID          string
	PassengerID string
	SeatID      SeatID
	Status      BookingStatus
	Amount      decimal.Decimal
	BookedAt    time.Time
	CancelledAt *time.Time
}

func (b Booking) IsActive() bool {
	return b.Status == BookingStatusConfirmed
}

// RecentBooking is a confirmed booking joined with the passenger who holds it.
type RecentBooking struct {
	Booking
	Email    string
	Category Category
}

// CabinOccupancy is the booked share of a single cabin.
type CabinOccupancy struct {
	Cabin         int             `json:"cabin"`
	TotalSeats    int             `json:"total_seats"`
	BookedSeats   int             `json:"booked_seats"`
	OccupancyRate decimal.Decimal `json:"occupancy_rate"`
}

// BookingStats aggregates confirmed bookings for the admin dashboard.
type BookingStats struct {
	TotalBookings    int              `json:"total_bookings"`
	UniquePassengers int              `json:"unique_passengers"`
	TotalRevenue     decimal.Decimal  `json:"total_revenue"`
	BookingsToday    int              `json:"bookings_today"`
	Cabins           []CabinOccupancy `json:"cabin_occupancy"`
}

// OccupancyRate returns booked*100/total rounded to one decimal place.
func OccupancyRate(booked, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(booked)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(1)
}
