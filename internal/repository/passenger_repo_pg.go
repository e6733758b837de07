package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/Domenick1991/metroreserve/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PassengerRepository interface {
	Create(ctx context.Context, p *domain.Passenger) error
	GetByID(ctx context.Context, id string) (*domain.Passenger, error)
	GetByEmail(ctx context.Context, email string) (*domain.Passenger, error)
	// Onboard stores the profile and sets onboarded, only if the passenger
	// was not onboarded yet.
	Onboard(ctx context.Context, p *domain.Passenger) error
	// UpdateProfile stores category and luggage of an onboarded passenger.
	UpdateProfile(ctx context.Context, p *domain.Passenger) error
	// Search lists passengers newest first, at most limit of them.
	Search(ctx context.Context, filter domain.PassengerFilter, limit int) ([]domain.PassengerSummary, error)
}

type PGPassengerRepository struct {
	db *pgxpool.Pool
}

func NewPassengerRepository(db *pgxpool.Pool) PassengerRepository {
	return &PGPassengerRepository{db: db}
}

const passengerColumns = `id, email, password_hash, category, has_luggage, onboarded, created_at, updated_at`

func scanPassenger(row pgx.Row) (*domain.Passenger, error) {
	var p domain.Passenger
	if err := row.Scan(&p.ID, &p.Email, &p.PasswordHash, &p.Category, &p.HasLuggage, &p.Onboarded, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PGPassengerRepository) Create(ctx context.Context, p *domain.Passenger) error {
	err := r.db.QueryRow(ctx, `INSERT INTO passengers (id, email, password_hash, category, has_luggage, onboarded)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`, p.ID, p.Email, p.PasswordHash, p.Category, p.HasLuggage, p.Onboarded).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	return classify("create passenger", err)
}

func (r *PGPassengerRepository) GetByID(ctx context.Context, id string) (*domain.Passenger, error) {
	return r.getOne(ctx, `SELECT `+passengerColumns+` FROM passengers WHERE id=$1`, id)
}

func (r *PGPassengerRepository) GetByEmail(ctx context.Context, email string) (*domain.Passenger, error) {
	return r.getOne(ctx, `SELECT `+passengerColumns+` FROM passengers WHERE email=$1`, email)
}

func (r *PGPassengerRepository) getOne(ctx context.Context, query, arg string) (*domain.Passenger, error) {
	p, err := scanPassenger(r.db.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewError(domain.ErrNotFound, "passenger not found")
	}
	if err != nil {
		return nil, classify("get passenger", err)
	}
	return p, nil
}

func (r *PGPassengerRepository) Onboard(ctx context.Context, p *domain.Passenger) error {
	err := r.db.QueryRow(ctx, `UPDATE passengers SET category=$1, has_luggage=$2, onboarded=TRUE, updated_at=now()
		WHERE id=$3 AND onboarded=FALSE RETURNING updated_at`, p.Category, p.HasLuggage, p.ID).Scan(&p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return r.rejectUpdate(ctx, p.ID, "passenger is already onboarded")
	}
	if err != nil {
		return classify("onboard passenger", err)
	}
	p.Onboarded = true
	return nil
}

func (r *PGPassengerRepository) UpdateProfile(ctx context.Context, p *domain.Passenger) error {
	err := r.db.QueryRow(ctx, `UPDATE passengers SET category=$1, has_luggage=$2, updated_at=now()
		WHERE id=$3 AND onboarded=TRUE RETURNING updated_at`, p.Category, p.HasLuggage, p.ID).Scan(&p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return r.rejectUpdate(ctx, p.ID, "passenger must complete onboarding first")
	}
	return classify("update passenger", err)
}

// rejectUpdate explains a conditional update that matched no row.
func (r *PGPassengerRepository) rejectUpdate(ctx context.Context, id, reason string) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return domain.NewError(domain.ErrInvalidRequest, reason)
}

func (r *PGPassengerRepository) Search(ctx context.Context, filter domain.PassengerFilter, limit int) ([]domain.PassengerSummary, error) {
	rows, err := r.db.Query(ctx, `SELECT p.id, p.email, p.password_hash, p.category, p.has_luggage, p.onboarded,
			p.created_at, p.updated_at, COUNT(b.id), COALESCE(SUM(b.amount), 0)::text
		FROM passengers p
		LEFT JOIN bookings b ON b.passenger_id = p.id AND b.status = $1
		WHERE ($2::text = '' OR p.email ILIKE '%' || $2 || '%')
			AND ($3::text = '' OR p.category = $3)
		GROUP BY p.id
		ORDER BY p.created_at DESC
		LIMIT $4`,
		domain.BookingStatusConfirmed, likeEscaper.Replace(filter.Email), string(filter.Category), limit)
	if err != nil {
		return nil, classify("search passengers", err)
	}
	defer rows.Close()

	found := make([]domain.PassengerSummary, 0)
	for rows.Next() {
		var (
			s     domain.PassengerSummary
			spent string
		)
		if err := rows.Scan(&s.ID, &s.Email, &s.PasswordHash, &s.Category, &s.HasLuggage, &s.Onboarded,
			&s.CreatedAt, &s.UpdatedAt, &s.ConfirmedBookings, &spent); err != nil {
			return nil, classify("scan passenger", err)
		}
		if s.TotalSpent, err = decimal.NewFromString(spent); err != nil {
			return nil, classify("parse total spent", err)
		}
		found = append(found, s)
	}
	return found, classify("search passengers", rows.Err())
}

// likeEscaper keeps user input literal inside an ILIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

var _ PassengerRepository = (*PGPassengerRepository)(nil)
