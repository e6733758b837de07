package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/metroreserve/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const confirmedSeatIndex = "bookings_one_confirmed_per_seat"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS passengers (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		category      TEXT NOT NULL DEFAULT 'general'
			CHECK (category IN ('general', 'women', 'elderly', 'disabled', 'pregnant')),
		has_luggage   BOOLEAN NOT NULL DEFAULT FALSE,
		onboarded     BOOLEAN NOT NULL DEFAULT FALSE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS seats (
		id          TEXT PRIMARY KEY,
		cabin       INTEGER NOT NULL CHECK (cabin BETWEEN 1 AND 5),
		row_number  INTEGER NOT NULL CHECK (row_number BETWEEN 1 AND 10),
		side        TEXT NOT NULL CHECK (side IN ('L', 'R')),
		seat_number INTEGER NOT NULL,
		booked_by   TEXT REFERENCES passengers(id) ON DELETE SET NULL,
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (cabin, row_number, side)
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id           TEXT PRIMARY KEY,
		passenger_id TEXT NOT NULL REFERENCES passengers(id) ON DELETE CASCADE,
		seat_id      TEXT NOT NULL REFERENCES seats(id),
		amount       NUMERIC(10, 2) NOT NULL,
		status       TEXT NOT NULL CHECK (status IN ('confirmed', 'cancelled')),
		booked_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		cancelled_at TIMESTAMPTZ
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + confirmedSeatIndex + ` ON bookings (seat_id) WHERE status = 'confirmed'`,
	`CREATE INDEX IF NOT EXISTS bookings_passenger_idx ON bookings (passenger_id, booked_at DESC)`,
}

// Migrate creates the schema and seeds the fixed seat inventory. Seats
// are always seeded free; existing rows are left untouched.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	batch := &pgx.Batch{}
	for _, s := range domain.Layout() {
		batch.Queue(`INSERT INTO seats (id, cabin, row_number, side, seat_number)
			VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING`,
			s.ID.String(), s.ID.Cabin, s.ID.Row, string(s.ID.Side), s.ID.Number())
	}
	if err := db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("seed seats: %w", err)
	}
	return nil
}
