package booking

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/metroreserve/internal/domain"
	"github.com/Domenick1991/metroreserve/internal/eligibility"
	"github.com/Domenick1991/metroreserve/internal/kafka"
	"github.com/Domenick1991/metroreserve/internal/metrics"
	"github.com/Domenick1991/metroreserve/internal/repository"
	"github.com/Domenick1991/metroreserve/internal/ticket"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type BookingUseCase interface {
	Book(ctx context.Context, passengerID string, seatIDs []domain.SeatID) (*BookResult, error)
	ListMyBookings(ctx context.Context, passengerID string) ([]domain.Booking, error)
	Cancel(ctx context.Context, bookingID, passengerID string) (*domain.Booking, error)
	Ticket(ctx context.Context, bookingID, passengerID string) (*ticket.Ticket, error)
	Stats(ctx context.Context) (*domain.BookingStats, error)
	RecentBookings(ctx context.Context) ([]domain.RecentBooking, error)
	Cabins(ctx context.Context) ([]domain.CabinOccupancy, error)
}

const recentBookingsLimit = 50

type Cache interface {
	InvalidateSeats(ctx context.Context) error
}

type Selection interface {
	RemoveFromSelection(ctx context.Context, passengerID string, seats ...domain.SeatID) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookResult struct {
	BookedCount int
	Bookings    []domain.Booking
}

type BookingService struct {
	bookings           repository.BookingRepository
	seats              repository.SeatRepository
	passengers         repository.PassengerRepository
	price              decimal.Decimal
	cache              Cache
	selection          Selection
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	ticketValidity     time.Duration
	logger             *logrus.Logger
	now                func() time.Time
}

type BookingServiceOption func(*BookingService)

func WithCache(cache Cache) BookingServiceOption {
	return func(s *BookingService) {
		s.cache = cache
	}
}

func WithSelection(selection Selection) BookingServiceOption {
	return func(s *BookingService) {
		s.selection = selection
	}
}

// WithProducer publishes booking events to bookingTopic.
func WithProducer(producer Producer, bookingTopic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.bookingTopic = bookingTopic
	}
}

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithTicketValidity(d time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.ticketValidity = d
	}
}

func WithLogger(logger *logrus.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	seats repository.SeatRepository,
	passengers repository.PassengerRepository,
	price decimal.Decimal,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:       bookings,
		seats:          seats,
		passengers:     passengers,
		price:          price,
		ticketValidity: 24 * time.Hour,
		logger:         logrus.StandardLogger(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Book reserves every seat in seatIDs for the passenger or none of them.
// Eligibility is evaluated against freshly read state; a selection made
// earlier grants nothing.
func (s *BookingService) Book(ctx context.Context, passengerID string, seatIDs []domain.SeatID) (*BookResult, error) {
	started := s.now()
	result, err := s.book(ctx, passengerID, seatIDs)

	outcome := metrics.ResultSuccess
	fields := logrus.Fields{"passenger_id": passengerID, "seats": len(seatIDs)}
	if err != nil {
		outcome = domain.Code(err)
		var derr *domain.Error
		if errors.As(err, &derr) && derr.Seat != nil {
			fields["seat_id"] = derr.Seat.String()
		}
	}
	metrics.ObserveBooking(outcome, len(seatIDs), s.now().Sub(started))

	switch {
	case err == nil:
		s.logger.WithFields(fields).Info("seats booked")
	case domain.KindOf(err) != nil:
		s.logger.WithFields(fields).WithField("result", outcome).Info("booking rejected")
	default:
		s.logger.WithFields(fields).WithError(err).Error("booking failed")
	}
	if err != nil {
		return nil, err
	}

	s.afterBook(ctx, passengerID, result.Bookings)
	return result, nil
}

func (s *BookingService) book(ctx context.Context, passengerID string, seatIDs []domain.SeatID) (*BookResult, error) {
	if err := validateSeatIDs(seatIDs); err != nil {
		return nil, err
	}
	p, err := s.passenger(ctx, passengerID)
	if err != nil {
		return nil, err
	}
	seats, err := s.seats.GetMany(ctx, seatIDs)
	if err != nil {
		return nil, err
	}
	for _, seat := range seats {
		if err := eligibility.Check(p, seat); err != nil {
			return nil, err
		}
	}

	bookings := make([]domain.Booking, 0, len(seats))
	for _, seat := range seats {
		bookings = append(bookings, domain.Booking{
			ID:          uuid.NewString(),
			PassengerID: p.ID,
			SeatID:      seat.ID,
			Status:      domain.BookingStatusConfirmed,
			Amount:      s.price,
		})
	}
	if err := s.bookings.CreateConfirmed(ctx, bookings); err != nil {
		return nil, err
	}
	return &BookResult{BookedCount: len(bookings), Bookings: bookings}, nil
}

func (s *BookingService) afterBook(ctx context.Context, passengerID string, bookings []domain.Booking) {
	s.invalidateSeats(ctx)

	if s.selection != nil {
		ids := make([]domain.SeatID, 0, len(bookings))
		for _, b := range bookings {
			ids = append(ids, b.SeatID)
		}
		if err := s.selection.RemoveFromSelection(ctx, passengerID, ids...); err != nil {
			s.logger.WithError(err).WithField("passenger_id", passengerID).Warn("failed to prune selection")
		}
	}

	for i := range bookings {
		s.publish(ctx, kafka.EventBookingConfirmed, &bookings[i])
	}
}

func (s *BookingService) ListMyBookings(ctx context.Context, passengerID string) ([]domain.Booking, error) {
	if passengerID == "" {
		return nil, domain.NewError(domain.ErrUnauthenticated, eligibility.ReasonLoginRequired)
	}
	return s.bookings.ListByPassenger(ctx, passengerID)
}

// Cancel releases a confirmed booking owned by passengerID. A second
// cancel of the same booking is NotFound and changes nothing.
func (s *BookingService) Cancel(ctx context.Context, bookingID, passengerID string) (*domain.Booking, error) {
	fields := logrus.Fields{"booking_id": bookingID, "passenger_id": passengerID}
	if bookingID == "" || passengerID == "" {
		metrics.ObserveCancellation(domain.Code(domain.ErrInvalidRequest))
		return nil, domain.NewError(domain.ErrInvalidRequest, "booking id and passenger id are required")
	}

	cancelled, err := s.bookings.Cancel(ctx, bookingID, passengerID, s.now().UTC())
	if err != nil {
		metrics.ObserveCancellation(domain.Code(err))
		if domain.KindOf(err) == nil {
			s.logger.WithFields(fields).WithError(err).Error("cancellation failed")
		}
		return nil, err
	}
	metrics.ObserveCancellation(metrics.ResultSuccess)
	s.logger.WithFields(fields).WithField("seat_id", cancelled.SeatID.String()).Info("booking cancelled")

	s.invalidateSeats(ctx)
	s.publish(ctx, kafka.EventBookingCancelled, cancelled)
	return cancelled, nil
}

func (s *BookingService) Ticket(ctx context.Context, bookingID, passengerID string) (*ticket.Ticket, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.PassengerID != passengerID {
		return nil, domain.NewError(domain.ErrNotFound, "booking not found")
	}
	p, err := s.passengers.GetByID(ctx, passengerID)
	if err != nil {
		return nil, err
	}
	t := ticket.New(*b, *p, s.now().UTC(), s.ticketValidity)
	return &t, nil
}

// Stats reports bookings of the last 24 hours as today's.
func (s *BookingService) Stats(ctx context.Context) (*domain.BookingStats, error) {
	return s.bookings.Stats(ctx, s.now().Add(-24*time.Hour))
}

func (s *BookingService) RecentBookings(ctx context.Context) ([]domain.RecentBooking, error) {
	return s.bookings.RecentBookings(ctx, recentBookingsLimit)
}

// Cabins reports live occupancy per cabin.
func (s *BookingService) Cabins(ctx context.Context) ([]domain.CabinOccupancy, error) {
	return s.bookings.CabinOccupancy(ctx)
}

func (s *BookingService) passenger(ctx context.Context, id string) (*domain.Passenger, error) {
	if id == "" {
		return nil, domain.NewError(domain.ErrUnauthenticated, eligibility.ReasonLoginRequired)
	}
	p, err := s.passengers.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NewError(domain.ErrUnauthenticated, eligibility.ReasonLoginRequired)
	}
	return p, err
}

func (s *BookingService) invalidateSeats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateSeats(ctx); err != nil {
		s.logger.WithError(err).Warn("failed to invalidate seat cache")
	}
}

func (s *BookingService) publish(ctx context.Context, eventType string, b *domain.Booking) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:        eventType,
		BookingID:   b.ID,
		PassengerID: b.PassengerID,
		SeatID:      b.SeatID.String(),
		Cabin:       b.SeatID.Cabin,
		Amount:      b.Amount.StringFixed(2),
		Status:      string(b.Status),
		OccurredAt:  s.now().UTC(),
	}
	topics := []string{s.bookingTopic}
	if s.notificationsTopic != "" {
		topics = append(topics, s.notificationsTopic)
	}
	for _, topic := range topics {
		if err := s.producer.Publish(ctx, topic, b.ID, event); err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"topic":      topic,
				"booking_id": b.ID,
				"event":      eventType,
			}).Warn("failed to publish booking event")
		}
	}
}

func validateSeatIDs(ids []domain.SeatID) error {
	if len(ids) == 0 {
		return domain.NewError(domain.ErrInvalidRequest, "no seats requested")
	}
	seen := make(map[domain.SeatID]bool, len(ids))
	for _, id := range ids {
		if !id.Valid() {
			return domain.NewSeatError(domain.ErrInvalidRequest, id, "invalid seat id")
		}
		if seen[id] {
			return domain.NewSeatError(domain.ErrInvalidRequest, id, "seat requested twice")
		}
		seen[id] = true
	}
	return nil
}

var _ BookingUseCase = (*BookingService)(nil)
