package repository

import (
	"errors"
	"fmt"

	"github.com/Domenick1991/metroreserve/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicate is returned when an insert collides with a unique key.
var ErrDuplicate = errors.New("duplicate")

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// classify turns store-level failures that callers can act on into domain
// errors. Everything else is wrapped and returned as is.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if domain.KindOf(err) != nil {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NewError(domain.ErrNotFound, op)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return domain.NewError(domain.ErrTransactionConflict, "concurrent update, reload seats and retry")
		case pgUniqueViolation:
			if pgErr.ConstraintName == confirmedSeatIndex {
				return domain.NewError(domain.ErrAlreadyBooked, "seat already booked")
			}
			return ErrDuplicate
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
