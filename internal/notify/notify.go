// Package notify turns booking events into passenger notifications.
package notify

import (
	"context"
	"fmt"

	"github.com/Domenick1991/metroreserve/internal/kafka"
	"github.com/sirupsen/logrus"
)

type Sender struct {
	logger *logrus.Logger
}

func NewSender(logger *logrus.Logger) *Sender {
	return &Sender{logger: logger}
}

// Message renders the text sent to the passenger. Unknown event types
// produce "".
func Message(event kafka.BookingEvent) string {
	switch event.Type {
	case kafka.EventBookingConfirmed:
		return fmt.Sprintf("Your seat %s in cabin %d is confirmed (booking %s, %s).", event.SeatID, event.Cabin, event.BookingID, event.Amount)
	case kafka.EventBookingCancelled:
		return fmt.Sprintf("Your booking %s for seat %s has been cancelled.", event.BookingID, event.SeatID)
	}
	return ""
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	text := Message(event)
	if text == "" {
		s.logger.WithField("type", event.Type).Debug("ignoring event")
		return nil
	}
	s.logger.WithFields(logrus.Fields{
		"passenger_id": event.PassengerID,
		"booking_id":   event.BookingID,
		"type":         event.Type,
	}).Info(text)
	return nil
}
