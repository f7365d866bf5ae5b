package events

import (
	"context"
	"time"

	"github.com/Domenick1991/skybook/internal/domain"
)

const (
	BookingCreated       = "booking_created"
	BookingCancelled     = "booking_cancelled"
	BookingStatusChanged = "booking_status_changed"
)

// BookingEvent is the message published for every booking state change.
type BookingEvent struct {
	Type             string               `json:"type"`
	BookingID        string               `json:"booking_id"`
	BookingReference string               `json:"booking_reference"`
	UserID           string               `json:"user_id"`
	FlightID         string               `json:"flight_id"`
	SeatNumber       string               `json:"seat_number"`
	PassengerEmail   string               `json:"passenger_email"`
	Passengers       int                  `json:"passengers"`
	Status           domain.BookingStatus `json:"status"`
	TotalAmount      float64              `json:"total_amount"`
	OccurredAt       time.Time            `json:"occurred_at"`
}

func NewBookingEvent(eventType string, b *domain.Booking, at time.Time) BookingEvent {
	return BookingEvent{
		Type:             eventType,
		BookingID:        b.ID,
		BookingReference: b.BookingReference,
		UserID:           b.UserID,
		FlightID:         b.FlightID,
		SeatNumber:       b.SeatNumber,
		PassengerEmail:   b.PassengerEmail,
		Passengers:       b.SeatCount(),
		Status:           b.Status,
		TotalAmount:      b.TotalAmount,
		OccurredAt:       at.UTC(),
	}
}

// Publisher delivers a payload to a topic (Kafka) or queue (RabbitMQ).
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
}

// Nop drops every event. It backs events.broker=none.
type Nop struct{}

func (Nop) Publish(context.Context, string, string, interface{}) error { return nil }
