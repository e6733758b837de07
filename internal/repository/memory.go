package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/metroreserve/internal/domain"
	"github.com/shopspring/decimal"
)

// MemoryStore keeps seats, bookings and passengers in process. All
// mutations run under one lock, which gives the same conditional-write
// and all-or-nothing guarantees as the PostgreSQL repositories.
type MemoryStore struct {
	mu         sync.Mutex
	seats      map[domain.SeatID]*domain.Seat
	order      []domain.SeatID
	bookings   map[string]*domain.Booking
	passengers map[string]*domain.Passenger
	emails     map[string]string
	now        func() time.Time
}

func NewMemoryStore() *MemoryStore {
	layout := domain.Layout()
	s := &MemoryStore{
		seats:      make(map[domain.SeatID]*domain.Seat, len(layout)),
		order:      make([]domain.SeatID, 0, len(layout)),
		bookings:   make(map[string]*domain.Booking),
		passengers: make(map[string]*domain.Passenger),
		emails:     make(map[string]string),
		now:        time.Now,
	}
	for _, seat := range layout {
		s.seats[seat.ID] = &seat
		s.order = append(s.order, seat.ID)
	}
	return s
}

func (s *MemoryStore) Seats() SeatRepository {
	return memorySeats{s}
}

func (s *MemoryStore) Bookings() BookingRepository {
	return memoryBookings{s}
}

func (s *MemoryStore) Passengers() PassengerRepository {
	return memoryPassengers{s}
}

type memorySeats struct{ s *MemoryStore }

func (m memorySeats) List(ctx context.Context) ([]domain.Seat, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	seats := make([]domain.Seat, 0, len(m.s.order))
	for _, id := range m.s.order {
		seats = append(seats, *m.s.seats[id])
	}
	return seats, nil
}

func (m memorySeats) GetByID(ctx context.Context, id domain.SeatID) (*domain.Seat, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	seat, ok := m.s.seats[id]
	if !ok {
		return nil, domain.NewSeatError(domain.ErrNotFound, id, "no such seat")
	}
	cp := *seat
	return &cp, nil
}

func (m memorySeats) GetMany(ctx context.Context, ids []domain.SeatID) ([]domain.Seat, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	found := make(map[domain.SeatID]domain.Seat, len(ids))
	for _, id := range ids {
		if seat, ok := m.s.seats[id]; ok {
			found[id] = *seat
		}
	}
	return inRequestOrder(ids, found)
}

func (m memorySeats) MarkBooked(ctx context.Context, id domain.SeatID, passengerID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.s.markBookedLocked(id, passengerID)
}

func (m memorySeats) MarkFree(ctx context.Context, id domain.SeatID) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.s.markFreeLocked(id, "")
}

func (s *MemoryStore) markBookedLocked(id domain.SeatID, passengerID string) error {
	seat, ok := s.seats[id]
	if !ok {
		return domain.NewSeatError(domain.ErrNotFound, id, "no such seat")
	}
	if seat.IsBooked() {
		return domain.NewSeatError(domain.ErrAlreadyBooked, id, "Seat already booked.")
	}
	seat.BookedBy = passengerID
	return nil
}

func (s *MemoryStore) markFreeLocked(id domain.SeatID, owner string) error {
	seat, ok := s.seats[id]
	if !ok {
		return domain.NewSeatError(domain.ErrNotFound, id, "no such seat")
	}
	if !seat.IsBooked() || (owner != "" && seat.BookedBy != owner) {
		return domain.NewSeatError(domain.ErrInvalidRequest, id, "seat is not booked")
	}
	seat.BookedBy = ""
	return nil
}

type memoryBookings struct{ s *MemoryStore }

func (m memoryBookings) CreateConfirmed(ctx context.Context, bookings []domain.Booking) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	// Validate everything before the first write so a failure leaves
	// the store untouched.
	seen := make(map[domain.SeatID]bool, len(bookings))
	for _, b := range bookings {
		seat, ok := m.s.seats[b.SeatID]
		if !ok {
			return domain.NewSeatError(domain.ErrNotFound, b.SeatID, "no such seat")
		}
		if seat.IsBooked() || seen[b.SeatID] {
			return domain.NewSeatError(domain.ErrAlreadyBooked, b.SeatID, "Seat already booked.")
		}
		if _, dup := m.s.bookings[b.ID]; dup {
			return ErrDuplicate
		}
		seen[b.SeatID] = true
	}

	now := m.s.now()
	for i := range bookings {
		b := &bookings[i]
		b.Status = domain.BookingStatusConfirmed
		b.BookedAt = now
		m.s.seats[b.SeatID].BookedBy = b.PassengerID
		stored := *b
		m.s.bookings[b.ID] = &stored
	}
	return nil
}

func (m memoryBookings) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	b, ok := m.s.bookings[id]
	if !ok {
		return nil, domain.NewError(domain.ErrNotFound, "booking not found")
	}
	cp := *b
	return &cp, nil
}

func (m memoryBookings) ListByPassenger(ctx context.Context, passengerID string) ([]domain.Booking, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	bookings := make([]domain.Booking, 0)
	for _, b := range m.s.bookings {
		if b.PassengerID == passengerID && b.IsActive() {
			bookings = append(bookings, *b)
		}
	}
	sort.Slice(bookings, func(i, j int) bool {
		if !bookings[i].BookedAt.Equal(bookings[j].BookedAt) {
			return bookings[i].BookedAt.After(bookings[j].BookedAt)
		}
		return domain.SeatLess(bookings[i].SeatID, bookings[j].SeatID)
	})
	return bookings, nil
}

func (m memoryBookings) Cancel(ctx context.Context, id, passengerID string, at time.Time) (*domain.Booking, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	b, ok := m.s.bookings[id]
	if !ok || b.PassengerID != passengerID || !b.IsActive() {
		return nil, domain.NewError(domain.ErrNotFound, "booking not found or already cancelled")
	}
	if err := m.s.markFreeLocked(b.SeatID, passengerID); err != nil {
		return nil, err
	}
	b.Status = domain.BookingStatusCancelled
	b.CancelledAt = &at
	cp := *b
	return &cp, nil
}

func (m memoryBookings) Stats(ctx context.Context, since time.Time) (*domain.BookingStats, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	stats := domain.BookingStats{TotalRevenue: decimal.Zero}
	unique := make(map[string]bool)
	for _, b := range m.s.bookings {
		if !b.IsActive() {
			continue
		}
		stats.TotalBookings++
		stats.TotalRevenue = stats.TotalRevenue.Add(b.Amount)
		unique[b.PassengerID] = true
		if !b.BookedAt.Before(since) {
			stats.BookingsToday++
		}
	}
	stats.UniquePassengers = len(unique)

	stats.Cabins = m.s.cabinOccupancyLocked()
	return &stats, nil
}

func (m memoryBookings) CabinOccupancy(ctx context.Context) ([]domain.CabinOccupancy, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.s.cabinOccupancyLocked(), nil
}

func (m memoryBookings) RecentBookings(ctx context.Context, limit int) ([]domain.RecentBooking, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	recent := make([]domain.RecentBooking, 0)
	for _, b := range m.s.bookings {
		if !b.IsActive() {
			continue
		}
		p, ok := m.s.passengers[b.PassengerID]
		if !ok {
			continue
		}
		recent = append(recent, domain.RecentBooking{Booking: *b, Email: p.Email, Category: p.Category})
	}
	sort.Slice(recent, func(i, j int) bool {
		if !recent[i].BookedAt.Equal(recent[j].BookedAt) {
			return recent[i].BookedAt.After(recent[j].BookedAt)
		}
		return domain.SeatLess(recent[i].SeatID, recent[j].SeatID)
	})
	if limit > 0 && len(recent) > limit {
		recent = recent[:limit]
	}
	return recent, nil
}

func (s *MemoryStore) cabinOccupancyLocked() []domain.CabinOccupancy {
	cabins := make([]domain.CabinOccupancy, 0, domain.CabinCount)
	for cabin := 1; cabin <= domain.CabinCount; cabin++ {
		c := domain.CabinOccupancy{Cabin: cabin}
		for _, id := range s.order {
			if id.Cabin != cabin {
				continue
			}
			c.TotalSeats++
			if s.seats[id].IsBooked() {
				c.BookedSeats++
			}
		}
		c.OccupancyRate = domain.OccupancyRate(c.BookedSeats, c.TotalSeats)
		cabins = append(cabins, c)
	}
	return cabins
}

type memoryPassengers struct{ s *MemoryStore }

func (m memoryPassengers) Create(ctx context.Context, p *domain.Passenger) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	email := strings.ToLower(p.Email)
	if _, ok := m.s.emails[email]; ok {
		return ErrDuplicate
	}
	if _, ok := m.s.passengers[p.ID]; ok {
		return ErrDuplicate
	}
	now := m.s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	cp := *p
	m.s.passengers[p.ID] = &cp
	m.s.emails[email] = p.ID
	return nil
}

func (m memoryPassengers) GetByID(ctx context.Context, id string) (*domain.Passenger, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	p, ok := m.s.passengers[id]
	if !ok {
		return nil, domain.NewError(domain.ErrNotFound, "passenger not found")
	}
	cp := *p
	return &cp, nil
}

func (m memoryPassengers) GetByEmail(ctx context.Context, email string) (*domain.Passenger, error) {
	m.s.mu.Lock()
	id, ok := m.s.emails[strings.ToLower(email)]
	m.s.mu.Unlock()
	if !ok {
		return nil, domain.NewError(domain.ErrNotFound, "passenger not found")
	}
	return m.GetByID(ctx, id)
}

func (m memoryPassengers) Onboard(ctx context.Context, p *domain.Passenger) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	stored, ok := m.s.passengers[p.ID]
	if !ok {
		return domain.NewError(domain.ErrNotFound, "passenger not found")
	}
	if stored.Onboarded {
		return domain.NewError(domain.ErrInvalidRequest, "passenger is already onboarded")
	}
	p.Onboarded, stored.Onboarded = true, true
	m.s.storeProfileLocked(stored, p)
	return nil
}

func (m memoryPassengers) UpdateProfile(ctx context.Context, p *domain.Passenger) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	stored, ok := m.s.passengers[p.ID]
	if !ok {
		return domain.NewError(domain.ErrNotFound, "passenger not found")
	}
	if !stored.Onboarded {
		return domain.NewError(domain.ErrInvalidRequest, "passenger must complete onboarding first")
	}
	m.s.storeProfileLocked(stored, p)
	return nil
}

func (s *MemoryStore) storeProfileLocked(stored, p *domain.Passenger) {
	p.UpdatedAt = s.now()
	stored.Category = p.Category
	stored.HasLuggage = p.HasLuggage
	stored.UpdatedAt = p.UpdatedAt
}

func (m memoryPassengers) Search(ctx context.Context, filter domain.PassengerFilter, limit int) ([]domain.PassengerSummary, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	needle := strings.ToLower(filter.Email)
	found := make([]domain.PassengerSummary, 0)
	for _, p := range m.s.passengers {
		if needle != "" && !strings.Contains(strings.ToLower(p.Email), needle) {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		summary := domain.PassengerSummary{Passenger: *p, TotalSpent: decimal.Zero}
		for _, b := range m.s.bookings {
			if b.PassengerID == p.ID && b.IsActive() {
				summary.ConfirmedBookings++
				summary.TotalSpent = summary.TotalSpent.Add(b.Amount)
			}
		}
		found = append(found, summary)
	}
	sort.Slice(found, func(i, j int) bool {
		if !found[i].CreatedAt.Equal(found[j].CreatedAt) {
			return found[i].CreatedAt.After(found[j].CreatedAt)
		}
		return found[i].Email < found[j].Email
	})
	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}
	return found, nil
}

var (
	_ SeatRepository      = memorySeats{}
	_ BookingRepository   = memoryBookings{}
	_ PassengerRepository = memoryPassengers{}
)
