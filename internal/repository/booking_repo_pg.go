package repository

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/Domenick1991/metroreserve/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type BookingRepository interface {
	// CreateConfirmed marks every referenced seat booked and stores the
	// bookings in one transaction. Either all of them persist or none.
	CreateConfirmed(ctx context.Context, bookings []domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	ListByPassenger(ctx context.Context, passengerID string) ([]domain.Booking, error)
	// Cancel moves a confirmed booking owned by passengerID to cancelled
	// and frees its seat in the same transaction.
	Cancel(ctx context.Context, id, passengerID string, at time.Time) (*domain.Booking, error)
	Stats(ctx context.Context, since time.Time) (*domain.BookingStats, error)
	// RecentBookings lists confirmed bookings newest first, at most limit.
	RecentBookings(ctx context.Context, limit int) ([]domain.RecentBooking, error)
	CabinOccupancy(ctx context.Context) ([]domain.CabinOccupancy, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, passenger_id, seat_id, status, amount::text, booked_at, cancelled_at`

// scanBooking reads bookingColumns followed by any extra columns.
func scanBooking(row pgx.Row, extra ...any) (*domain.Booking, error) {
	var (
		b      domain.Booking
		seatID string
		amount string
	)
	dest := append([]any{&b.ID, &b.PassengerID, &seatID, &b.Status, &amount, &b.BookedAt, &b.CancelledAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	id, err := domain.ParseSeatID(seatID)
	if err != nil {
		return nil, err
	}
	b.SeatID = id
	if b.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) CreateConfirmed(ctx context.Context, bookings []domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return classify("begin booking", err)
	}
	defer tx.Rollback(ctx)

	// Lock seats in a stable order so overlapping multi-seat requests
	// cannot deadlock each other.
	order := make([]int, len(bookings))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return domain.SeatLess(bookings[order[a]].SeatID, bookings[order[b]].SeatID)
	})

	for _, i := range order {
		if err := markBooked(ctx, tx, bookings[i].SeatID, bookings[i].PassengerID); err != nil {
			return err
		}
	}

	for i := range bookings {
		b := &bookings[i]
		b.Status = domain.BookingStatusConfirmed
		if err := tx.QueryRow(ctx, `INSERT INTO bookings (id, passenger_id, seat_id, amount, status)
			VALUES ($1, $2, $3, $4::numeric, $5)
			RETURNING booked_at`, b.ID, b.PassengerID, b.SeatID.String(), b.Amount.StringFixed(2), b.Status).
			Scan(&b.BookedAt); err != nil {
			return classify("insert booking", err)
		}
	}

	return classify("commit booking", tx.Commit(ctx))
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewError(domain.ErrNotFound, "booking not found")
	}
	if err != nil {
		return nil, classify("get booking", err)
	}
	return b, nil
}

func (r *PGBookingRepository) ListByPassenger(ctx context.Context, passengerID string) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE passenger_id=$1 AND status=$2 ORDER BY booked_at DESC`, passengerID, domain.BookingStatusConfirmed)
	if err != nil {
		return nil, classify("list bookings", err)
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, classify("scan booking", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, classify("list bookings", rows.Err())
}

func (r *PGBookingRepository) Cancel(ctx context.Context, id, passengerID string, at time.Time) (*domain.Booking, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, classify("begin cancel", err)
	}
	defer tx.Rollback(ctx)

	b, err := scanBooking(tx.QueryRow(ctx, `UPDATE bookings SET status=$1, cancelled_at=$2
		WHERE id=$3 AND passenger_id=$4 AND status=$5
		RETURNING `+bookingColumns,
		domain.BookingStatusCancelled, at, id, passengerID, domain.BookingStatusConfirmed))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewError(domain.ErrNotFound, "booking not found or already cancelled")
	}
	if err != nil {
		return nil, classify("cancel booking", err)
	}

	if err := markFree(ctx, tx, b.SeatID, passengerID); err != nil {
		return nil, err
	}
	if err := classify("commit cancel", tx.Commit(ctx)); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *PGBookingRepository) Stats(ctx context.Context, since time.Time) (*domain.BookingStats, error) {
	var (
		stats   domain.BookingStats
		revenue string
	)
	if err := r.db.QueryRow(ctx, `SELECT
			COUNT(*),
			COUNT(DISTINCT passenger_id),
			COALESCE(SUM(amount), 0)::text,
			COUNT(*) FILTER (WHERE booked_at >= $2)
		FROM bookings WHERE status=$1`, domain.BookingStatusConfirmed, since).
		Scan(&stats.TotalBookings, &stats.UniquePassengers, &revenue, &stats.BookingsToday); err != nil {
		return nil, classify("booking stats", err)
	}
	var err error
	if stats.TotalRevenue, err = decimal.NewFromString(revenue); err != nil {
		return nil, classify("parse revenue", err)
	}

	if stats.Cabins, err = r.CabinOccupancy(ctx); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *PGBookingRepository) CabinOccupancy(ctx context.Context) ([]domain.CabinOccupancy, error) {
	rows, err := r.db.Query(ctx, `SELECT cabin, COUNT(*), COUNT(*) FILTER (WHERE booked_by IS NOT NULL)
		FROM seats GROUP BY cabin ORDER BY cabin`)
	if err != nil {
		return nil, classify("cabin occupancy", err)
	}
	defer rows.Close()

	cabins := make([]domain.CabinOccupancy, 0, domain.CabinCount)
	for rows.Next() {
		var c domain.CabinOccupancy
		if err := rows.Scan(&c.Cabin, &c.TotalSeats, &c.BookedSeats); err != nil {
			return nil, classify("scan occupancy", err)
		}
		c.OccupancyRate = domain.OccupancyRate(c.BookedSeats, c.TotalSeats)
		cabins = append(cabins, c)
	}
	return cabins, classify("cabin occupancy", rows.Err())
}

func (r *PGBookingRepository) RecentBookings(ctx context.Context, limit int) ([]domain.RecentBooking, error) {
	rows, err := r.db.Query(ctx, `SELECT b.id, b.passenger_id, b.seat_id, b.status, b.amount::text, b.booked_at, b.cancelled_at,
			p.email, p.category
		FROM bookings b JOIN passengers p ON p.id = b.passenger_id
		WHERE b.status=$1
		ORDER BY b.booked_at DESC, b.seat_id
		LIMIT $2`, domain.BookingStatusConfirmed, limit)
	if err != nil {
		return nil, classify("recent bookings", err)
	}
	defer rows.Close()

	recent := make([]domain.RecentBooking, 0)
	for rows.Next() {
		var rb domain.RecentBooking
		b, err := scanBooking(rows, &rb.Email, &rb.Category)
		if err != nil {
			return nil, classify("scan booking", err)
		}
		rb.Booking = *b
		recent = append(recent, rb)
	}
	return recent, classify("recent bookings", rows.Err())
}

var _ BookingRepository = (*PGBookingRepository)(nil)
