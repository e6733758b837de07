// Package ticket renders a booking as a passenger ticket.
package ticket

import (
	"fmt"
	"time"

	"github.com/Domenick1991/metroreserve/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
)

const DefaultQRSize = 256

type Passenger struct {
	Email      string          `json:"email"`
	Category   domain.Category `json:"type"`
	HasLuggage bool            `json:"has_luggage"`
}

type Seat struct {
	ID     domain.SeatID `json:"id"`
	Cabin  int           `json:"cabin"`
	Number int           `json:"seat_number"`
	Row    int           `json:"row"`
	Side   domain.Side   `json:"side"`
}

type Ticket struct {
	ID          string               `json:"id"`
	BookingDate time.Time            `json:"booking_date"`
	Status      domain.BookingStatus `json:"status"`
	Amount      decimal.Decimal      `json:"amount"`
	Passenger   Passenger            `json:"passenger"`
	Seat        Seat                 `json:"seat"`
	Code        string               `json:"qr_code"`
	ValidUntil  time.Time            `json:"valid_until"`
}

func New(b domain.Booking, p domain.Passenger, issuedAt time.Time, validity time.Duration) Ticket {
	return Ticket{
		ID:          b.ID,
		BookingDate: b.BookedAt,
		Status:      b.Status,
		Amount:      b.Amount,
		Passenger: Passenger{
			Email:      p.Email,
			Category:   p.Category,
			HasLuggage: p.HasLuggage,
		},
		Seat: Seat{
			ID:     b.SeatID,
			Cabin:  b.SeatID.Cabin,
			Number: b.SeatID.Number(),
			Row:    b.SeatID.Row,
			Side:   b.SeatID.Side,
		},
		Code:       Code(b.ID, b.SeatID),
		ValidUntil: issuedAt.Add(validity),
	}
}

// Code is the value scanned at the gate.
func Code(bookingID string, seat domain.SeatID) string {
	return fmt.Sprintf("METRO-%s-%s", bookingID, seat)
}

// QRCode encodes the ticket code as a size x size PNG.
func (t Ticket) QRCode(size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	png, err := qrcode.Encode(t.Code, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode ticket qr: %w", err)
	}
	return png, nil
}
