// Package selection keeps the seats a passenger has picked but not yet
// booked. A selection is advisory: booking re-checks every seat.
package selection

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/metroreserve/internal/domain"
	"github.com/Domenick1991/metroreserve/internal/eligibility"
	"github.com/Domenick1991/metroreserve/internal/metrics"
	"github.com/Domenick1991/metroreserve/internal/repository"
)

type SelectionUseCase interface {
	Toggle(ctx context.Context, passengerID string, seatID domain.SeatID) (*ToggleResult, error)
	List(ctx context.Context, passengerID string) ([]domain.SeatID, error)
	Clear(ctx context.Context, passengerID string) error
}

type Store interface {
	SelectionMembers(ctx context.Context, passengerID string) ([]domain.SeatID, error)
	InSelection(ctx context.Context, passengerID string, seat domain.SeatID) (bool, error)
	AddToSelection(ctx context.Context, passengerID string, seat domain.SeatID) error
	RemoveFromSelection(ctx context.Context, passengerID string, seats ...domain.SeatID) error
	ClearSelection(ctx context.Context, passengerID string) error
}

// ToggleResult reports the selection state of the seat after a toggle.
// Changed is false when an ineligible seat was left out; Reason says why.
type ToggleResult struct {
	SeatID   domain.SeatID
	Selected bool
	Changed  bool
	Reason   string
}

type SelectionService struct {
	store      Store
	seats      repository.SeatRepository
	passengers repository.PassengerRepository
}

func NewSelectionService(store Store, seats repository.SeatRepository, passengers repository.PassengerRepository) *SelectionService {
	return &SelectionService{store: store, seats: seats, passengers: passengers}
}

func (s *SelectionService) Toggle(ctx context.Context, passengerID string, seatID domain.SeatID) (*ToggleResult, error) {
	if !seatID.Valid() {
		return nil, domain.NewError(domain.ErrInvalidRequest, "invalid seat id")
	}
	p, err := s.passenger(ctx, passengerID)
	if err != nil {
		return nil, err
	}
	seat, err := s.seats.GetByID(ctx, seatID)
	if err != nil {
		return nil, err
	}

	selected, err := s.store.InSelection(ctx, p.ID, seatID)
	if err != nil {
		return nil, fmt.Errorf("read selection: %w", err)
	}
	if selected {
		if err := s.store.RemoveFromSelection(ctx, p.ID, seatID); err != nil {
			return nil, fmt.Errorf("remove from selection: %w", err)
		}
		metrics.ObserveToggle(metrics.ToggleRemoved)
		return &ToggleResult{SeatID: seatID, Selected: false, Changed: true}, nil
	}

	if reason := eligibility.RestrictionReason(p, *seat); reason != "" {
		metrics.ObserveToggle(metrics.ToggleRejected)
		return &ToggleResult{SeatID: seatID, Selected: false, Changed: false, Reason: reason}, nil
	}

	if err := s.store.AddToSelection(ctx, p.ID, seatID); err != nil {
		return nil, fmt.Errorf("add to selection: %w", err)
	}
	metrics.ObserveToggle(metrics.ToggleAdded)
	return &ToggleResult{SeatID: seatID, Selected: true, Changed: true}, nil
}

func (s *SelectionService) List(ctx context.Context, passengerID string) ([]domain.SeatID, error) {
	if passengerID == "" {
		return nil, domain.NewError(domain.ErrUnauthenticated, eligibility.ReasonLoginRequired)
	}
	ids, err := s.store.SelectionMembers(ctx, passengerID)
	if err != nil {
		return nil, fmt.Errorf("read selection: %w", err)
	}
	return ids, nil
}

func (s *SelectionService) Clear(ctx context.Context, passengerID string) error {
	if passengerID == "" {
		return domain.NewError(domain.ErrUnauthenticated, eligibility.ReasonLoginRequired)
	}
	if err := s.store.ClearSelection(ctx, passengerID); err != nil {
		return fmt.Errorf("clear selection: %w", err)
	}
	return nil
}

func (s *SelectionService) passenger(ctx context.Context, id string) (*domain.Passenger, error) {
	if id == "" {
		return nil, domain.NewError(domain.ErrUnauthenticated, eligibility.ReasonLoginRequired)
	}
	p, err := s.passengers.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewError(domain.ErrUnauthenticated, eligibility.ReasonLoginRequired)
	}
	return p, err
}

var _ SelectionUseCase = (*SelectionService)(nil)
