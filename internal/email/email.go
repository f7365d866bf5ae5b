package email

import (
	"context"
	"fmt"

	"github.com/Domenick1991/skybook/internal/events"
	"go.uber.org/zap"
)

// Sender turns booking events into passenger notifications. Delivery is a
// structured log line; there is no mail transport.
type Sender struct {
	logger *zap.Logger
}

func NewSender(logger *zap.Logger) *Sender {
	return &Sender{logger: logger.Named("email")}
}

func (s *Sender) Send(ctx context.Context, event events.BookingEvent) error {
	if event.PassengerEmail == "" {
		s.logger.Warn("event without recipient", zap.String("booking_id", event.BookingID), zap.String("type", event.Type))
		return nil
	}
	s.logger.Info("notification sent",
		zap.String("to", event.PassengerEmail),
		zap.String("subject", Subject(event)),
		zap.String("booking_reference", event.BookingReference),
		zap.String("flight_id", event.FlightID),
		zap.String("seat", event.SeatNumber),
	)
	return nil
}

func Subject(event events.BookingEvent) string {
	switch event.Type {
	case events.BookingCreated:
		return fmt.Sprintf("Booking %s confirmed", event.BookingReference)
	case events.BookingCancelled:
		return fmt.Sprintf("Booking %s cancelled", event.BookingReference)
	case events.BookingStatusChanged:
		return fmt.Sprintf("Booking %s is now %s", event.BookingReference, event.Status)
	default:
		return fmt.Sprintf("Update on booking %s", event.BookingReference)
	}
}
