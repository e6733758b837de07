package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/metroreserve/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SeatRepository is the seat inventory. MarkBooked and MarkFree are
// conditional writes: they only change a seat that is in the expected
// state.
type SeatRepository interface {
	List(ctx context.Context) ([]domain.Seat, error)
	GetByID(ctx context.Context, id domain.SeatID) (*domain.Seat, error)
	GetMany(ctx context.Context, ids []domain.SeatID) ([]domain.Seat, error)
	MarkBooked(ctx context.Context, id domain.SeatID, passengerID string) error
	MarkFree(ctx context.Context, id domain.SeatID) error
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so seat writes
// can join a booking transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PGSeatRepository struct {
	db *pgxpool.Pool
}

func NewSeatRepository(db *pgxpool.Pool) SeatRepository {
	return &PGSeatRepository{db: db}
}

const seatColumns = `cabin, row_number, side, COALESCE(booked_by, '')`

func scanSeat(row pgx.Row) (domain.Seat, error) {
	var (
		s    domain.Seat
		side string
	)
	if err := row.Scan(&s.ID.Cabin, &s.ID.Row, &side, &s.BookedBy); err != nil {
		return domain.Seat{}, err
	}
	s.ID.Side = domain.Side(side)
	return s, nil
}

func (r *PGSeatRepository) List(ctx context.Context) ([]domain.Seat, error) {
	rows, err := r.db.Query(ctx, `SELECT `+seatColumns+` FROM seats ORDER BY cabin, row_number, side`)
	if err != nil {
		return nil, classify("list seats", err)
	}
	defer rows.Close()

	seats := make([]domain.Seat, 0, domain.CabinCount*domain.RowsPerCabin*2)
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, classify("scan seat", err)
		}
		seats = append(seats, s)
	}
	return seats, classify("list seats", rows.Err())
}

func (r *PGSeatRepository) GetByID(ctx context.Context, id domain.SeatID) (*domain.Seat, error) {
	s, err := scanSeat(r.db.QueryRow(ctx, `SELECT `+seatColumns+` FROM seats WHERE id=$1`, id.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewSeatError(domain.ErrNotFound, id, "no such seat")
	}
	if err != nil {
		return nil, classify("get seat", err)
	}
	return &s, nil
}

func (r *PGSeatRepository) GetMany(ctx context.Context, ids []domain.SeatID) ([]domain.Seat, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}

	rows, err := r.db.Query(ctx, `SELECT `+seatColumns+` FROM seats WHERE id = ANY($1)`, keys)
	if err != nil {
		return nil, classify("get seats", err)
	}
	defer rows.Close()

	found := make(map[domain.SeatID]domain.Seat, len(ids))
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, classify("scan seat", err)
		}
		found[s.ID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, classify("get seats", err)
	}
	return inRequestOrder(ids, found)
}

func (r *PGSeatRepository) MarkBooked(ctx context.Context, id domain.SeatID, passengerID string) error {
	return markBooked(ctx, r.db, id, passengerID)
}

func (r *PGSeatRepository) MarkFree(ctx context.Context, id domain.SeatID) error {
	return markFree(ctx, r.db, id, "")
}

func markBooked(ctx context.Context, q querier, id domain.SeatID, passengerID string) error {
	tag, err := q.Exec(ctx, `UPDATE seats SET booked_by=$1, updated_at=now() WHERE id=$2 AND booked_by IS NULL`, passengerID, id.String())
	if err != nil {
		return classify("mark seat booked", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if err := seatExists(ctx, q, id); err != nil {
		return err
	}
	return domain.NewSeatError(domain.ErrAlreadyBooked, id, "Seat already booked.")
}

// markFree releases a booked seat. A non-empty owner restricts the write
// to seats booked by that passenger.
func markFree(ctx context.Context, q querier, id domain.SeatID, owner string) error {
	tag, err := q.Exec(ctx, `UPDATE seats SET booked_by=NULL, updated_at=now()
		WHERE id=$1 AND booked_by IS NOT NULL AND ($2 = '' OR booked_by = $2)`, id.String(), owner)
	if err != nil {
		return classify("mark seat free", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if err := seatExists(ctx, q, id); err != nil {
		return err
	}
	return domain.NewSeatError(domain.ErrInvalidRequest, id, "seat is not booked")
}

func seatExists(ctx context.Context, q querier, id domain.SeatID) error {
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM seats WHERE id=$1)`, id.String()).Scan(&exists); err != nil {
		return classify("check seat", err)
	}
	if !exists {
		return domain.NewSeatError(domain.ErrNotFound, id, "no such seat")
	}
	return nil
}

func inRequestOrder(ids []domain.SeatID, found map[domain.SeatID]domain.Seat) ([]domain.Seat, error) {
	seats := make([]domain.Seat, 0, len(ids))
	for _, id := range ids {
		s, ok := found[id]
		if !ok {
			return nil, domain.NewSeatError(domain.ErrNotFound, id, "no such seat")
		}
		seats = append(seats, s)
	}
	return seats, nil
}

var _ SeatRepository = (*PGSeatRepository)(nil)
