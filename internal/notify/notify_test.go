package notify

import (
	"context"
	"testing"

	"github.com/Domenick1991/metroreserve/internal/kafka"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage(t *testing.T) {
	confirmed := kafka.BookingEvent{Type: kafka.EventBookingConfirmed, BookingID: "b1", SeatID: "1-1L", Cabin: 1, Amount: "25.00"}
	assert.Equal(t, "Your seat 1-1L in cabin 1 is confirmed (booking b1, 25.00).", Message(confirmed))

	cancelled := kafka.BookingEvent{Type: kafka.EventBookingCancelled, BookingID: "b1", SeatID: "1-1L"}
	assert.Equal(t, "Your booking b1 for seat 1-1L has been cancelled.", Message(cancelled))

	assert.Empty(t, Message(kafka.BookingEvent{Type: "something_else"}))
}

func TestSender_Send(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	sender := NewSender(logger)

	require.NoError(t, sender.Send(context.Background(), kafka.BookingEvent{
		Type:        kafka.EventBookingCancelled,
		BookingID:   "b9",
		PassengerID: "p1",
		SeatID:      "3-4R",
	}))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "p1", entry.Data["passenger_id"])
	assert.Contains(t, entry.Message, "b9")
}
