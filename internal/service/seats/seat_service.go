package seats

import (
	"context"
	"errors"

	"github.com/Domenick1991/metroreserve/internal/domain"
	"github.com/Domenick1991/metroreserve/internal/eligibility"
	"github.com/Domenick1991/metroreserve/internal/repository"
	"github.com/sirupsen/logrus"
)

type SeatUseCase interface {
	List(ctx context.Context, passengerID string) ([]SeatView, error)
	Get(ctx context.Context, passengerID string, id domain.SeatID) (*SeatView, error)
}

// SeatView is a seat as seen by one caller.
type SeatView struct {
	domain.Seat
	Selectable bool
	Reason     string
}

// Cache holds the seat list snapshot. SetSeats must refuse the write when the
// generation moved since it was read.
type Cache interface {
	GetSeats(ctx context.Context) ([]domain.Seat, error)
	SeatsGeneration(ctx context.Context) (int64, error)
	SetSeats(ctx context.Context, seats []domain.Seat, generation int64) (bool, error)
}

type SeatService struct {
	seats      repository.SeatRepository
	passengers repository.PassengerRepository
	cache      Cache
	logger     *logrus.Logger
}

func NewSeatService(seats repository.SeatRepository, passengers repository.PassengerRepository, cache Cache, logger *logrus.Logger) *SeatService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &SeatService{seats: seats, passengers: passengers, cache: cache, logger: logger}
}

// List returns every seat annotated for passengerID. An empty or unknown
// passenger ID is treated as an anonymous caller.
func (s *SeatService) List(ctx context.Context, passengerID string) ([]SeatView, error) {
	all, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	p, err := s.caller(ctx, passengerID)
	if err != nil {
		return nil, err
	}

	views := make([]SeatView, 0, len(all))
	for _, seat := range all {
		views = append(views, annotate(p, seat))
	}
	return views, nil
}

// Get reads one seat straight from the repository, annotated for passengerID.
func (s *SeatService) Get(ctx context.Context, passengerID string, id domain.SeatID) (*SeatView, error) {
	seat, err := s.seats.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := s.caller(ctx, passengerID)
	if err != nil {
		return nil, err
	}
	view := annotate(p, *seat)
	return &view, nil
}

func (s *SeatService) caller(ctx context.Context, passengerID string) (*domain.Passenger, error) {
	if passengerID == "" {
		return nil, nil
	}
	p, err := s.passengers.GetByID(ctx, passengerID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

func annotate(p *domain.Passenger, seat domain.Seat) SeatView {
	reason := eligibility.RestrictionReason(p, seat)
	return SeatView{Seat: seat, Selectable: reason == "", Reason: reason}
}

func (s *SeatService) load(ctx context.Context) ([]domain.Seat, error) {
	if s.cache == nil {
		return s.seats.List(ctx)
	}

	cached, err := s.cache.GetSeats(ctx)
	if err == nil && cached != nil {
		return cached, nil
	}
	if err != nil {
		s.logger.WithError(err).Warn("seat cache read failed")
	}

	// The generation is read before the repository so a booking committed
	// during the read invalidates this refill.
	gen, genErr := s.cache.SeatsGeneration(ctx)
	if genErr != nil {
		s.logger.WithError(genErr).Warn("seat cache generation read failed")
	}

	all, err := s.seats.List(ctx)
	if err != nil {
		return nil, err
	}
	if genErr != nil {
		return all, nil
	}

	written, err := s.cache.SetSeats(ctx, all, gen)
	switch {
	case err != nil:
		s.logger.WithError(err).Warn("seat cache write failed")
	case !written:
		s.logger.WithField("generation", gen).Debug("seat cache refill skipped, invalidated meanwhile")
	}
	return all, nil
}

var _ SeatUseCase = (*SeatService)(nil)
