package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Domenick1991/skybook/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBookingEvent(t *testing.T) {
	at := time.Date(2024, 1, 15, 12, 0, 0, 0, time.FixedZone("EST", -5*3600))
	b := &domain.Booking{
		ID:               "b1",
		UserID:           "u1",
		FlightID:         "f1",
		SeatNumber:       "12A",
		PassengerEmail:   "jane@example.com",
		BookingReference: "SKY1A2B3C4D",
		Status:           domain.BookingStatusConfirmed,
		TotalAmount:      1745,
	}

	ev := NewBookingEvent(BookingCreated, b, at)
	assert.Equal(t, "booking_created", ev.Type)
	assert.Equal(t, "SKY1A2B3C4D", ev.BookingReference)
	assert.Equal(t, 1, ev.Passengers)
	assert.Equal(t, time.UTC, ev.OccurredAt.Location())

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "confirmed", decoded["status"])
	assert.Equal(t, "12A", decoded["seat_number"])
	assert.Equal(t, 1745.0, decoded["total_amount"])
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), "topic", "key", BookingEvent{}))
}
