package booking

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/Domenick1991/skybook/internal/domain"
	"github.com/Domenick1991/skybook/internal/events"
	"github.com/Domenick1991/skybook/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	seatRows      = 30
	seatLetters   = "ABCDEF"
	lockAttempts  = 10
	referenceCode = "SKY"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, actor domain.Actor, input CreateBookingInput) (*domain.Booking, error)
	CancelBooking(ctx context.Context, actor domain.Actor, id string) (*domain.Booking, error)
	ListBookings(ctx context.Context, actor domain.Actor) ([]domain.Booking, error)
	GetBooking(ctx context.Context, actor domain.Actor, id string) (*domain.Booking, error)
	UpdateBookingStatus(ctx context.Context, actor domain.Actor, id string, status domain.BookingStatus) (*domain.Booking, error)
	Stats(ctx context.Context, actor domain.Actor) (*domain.Stats, error)
}

type Cache interface {
	AcquireSeatLock(ctx context.Context, flightID, seat string, ttl time.Duration) (bool, error)
	ReleaseSeatLock(ctx context.Context, flightID, seat string) error
	InvalidateFlights(ctx context.Context) error
}

type BookingService struct {
	bookings           repository.BookingRepository
	flights            repository.FlightRepository
	cache              Cache
	producer           events.Publisher
	bookingTopic       string
	notificationsTopic string
	flatFee            float64
	seatHoldTTL        time.Duration
	logger             *zap.Logger
	now                func() time.Time
	shuffle            func(seats []string)
}

type CreateBookingInput struct {
	FlightID       string                `json:"flight_id"`
	PassengerName  string                `json:"passenger_name"`
	PassengerEmail string                `json:"passenger_email"`
	PassengerPhone string                `json:"passenger_phone"`
	SeatPreference domain.SeatPreference `json:"seat_preference"`
	MealPreference domain.MealPreference `json:"meal_preference"`
	Passengers     int                   `json:"passengers"`
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithFlatFee(fee float64) BookingServiceOption {
	return func(s *BookingService) {
		s.flatFee = fee
	}
}

func WithSeatHoldTTL(ttl time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.seatHoldTTL = ttl
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	flights repository.FlightRepository,
	cache Cache,
	producer events.Publisher,
	bookingTopic string,
	logger *zap.Logger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:     bookings,
		flights:      flights,
		cache:        cache,
		producer:     producer,
		bookingTopic: bookingTopic,
		flatFee:      45,
		seatHoldTTL:  30 * time.Second,
		logger:       logger.Named("booking"),
		now:          time.Now,
		shuffle: func(seats []string) {
			rand.Shuffle(len(seats), func(i, j int) { seats[i], seats[j] = seats[j], seats[i] })
		},
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) CreateBooking(ctx context.Context, actor domain.Actor, input CreateBookingInput) (*domain.Booking, error) {
	if err := normalizeInput(&input); err != nil {
		return nil, err
	}

	flight, err := s.flights.GetByID(ctx, input.FlightID)
	if err != nil {
		return nil, err
	}
	if flight.AvailableSeats < input.Passengers {
		return nil, domain.ErrInsufficientSeats
	}
	if flight.Status != domain.FlightStatusActive {
		return nil, domain.Validationf("Flight is not open for booking")
	}

	seat, locked := s.assignSeat(ctx, flight.ID, input.SeatPreference)
	if locked {
		defer s.releaseSeat(ctx, flight.ID, seat)
	}

	booking := &domain.Booking{
		ID:               uuid.NewString(),
		UserID:           actor.UserID,
		FlightID:         flight.ID,
		PassengerName:    input.PassengerName,
		PassengerEmail:   input.PassengerEmail,
		PassengerPhone:   input.PassengerPhone,
		SeatNumber:       seat,
		SeatPreference:   input.SeatPreference,
		MealPreference:   input.MealPreference,
		BookingReference: newReference(),
		Status:           domain.BookingStatusConfirmed,
		PaymentStatus:    domain.PaymentStatusCompleted,
		TotalAmount:      s.total(flight.Price, input.Passengers),
		Passengers:       input.Passengers,
	}
	if err := s.bookings.CreateConfirmed(ctx, booking); err != nil {
		return nil, err
	}

	booked := *flight
	booked.AvailableSeats -= input.Passengers
	booking.Flight = &booked

	s.invalidate(ctx)
	s.publish(ctx, events.BookingCreated, booking)
	s.logger.Info("booking created",
		zap.String("booking_id", booking.ID),
		zap.String("reference", booking.BookingReference),
		zap.String("flight_id", flight.ID),
		zap.Int("passengers", booking.Passengers),
	)
	return booking, nil
}

func normalizeInput(in *CreateBookingInput) error {
	in.FlightID = strings.TrimSpace(in.FlightID)
	in.PassengerName = strings.TrimSpace(in.PassengerName)
	in.PassengerEmail = strings.ToLower(strings.TrimSpace(in.PassengerEmail))
	in.PassengerPhone = strings.TrimSpace(in.PassengerPhone)

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"flight_id", in.FlightID},
		{"passenger_name", in.PassengerName},
		{"passenger_email", in.PassengerEmail},
		{"passenger_phone", in.PassengerPhone},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return domain.Validationf("missing required fields: %s", strings.Join(missing, ", "))
	}

	if in.Passengers == 0 {
		in.Passengers = 1
	}
	if in.Passengers < 1 {
		return domain.Validationf("passengers must be at least 1")
	}
	if in.SeatPreference == "" {
		in.SeatPreference = domain.SeatWindow
	}
	if !in.SeatPreference.Valid() {
		return domain.Validationf("seat_preference must be one of window, aisle, middle")
	}
	if in.MealPreference == "" {
		in.MealPreference = domain.MealRegular
	}
	if !in.MealPreference.Valid() {
		return domain.Validationf("meal_preference must be one of regular, vegetarian, vegan, kosher, halal")
	}
	return nil
}

// total is the fare for all passengers plus the flat booking fee, in cents precision.
func (s *BookingService) total(price float64, passengers int) float64 {
	return math.Round((price*float64(passengers)+s.flatFee)*100) / 100
}

func newReference() string {
	return referenceCode + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// assignSeat picks a seat no live booking on the flight holds, preferring
// the passenger's seat type, and holds it with a short lock so concurrent
// bookings do not pick it too. Uniqueness is best-effort: when no seat can
// be held a random one is returned unlocked.
func (s *BookingService) assignSeat(ctx context.Context, flightID string, pref domain.SeatPreference) (string, bool) {
	occupied, err := s.bookings.OccupiedSeats(ctx, flightID)
	if err != nil {
		s.logger.Warn("occupied seats lookup failed", zap.String("flight_id", flightID), zap.Error(err))
	}
	taken := make(map[string]bool, len(occupied))
	for _, seat := range occupied {
		taken[seat] = true
	}

	var preferred, other []string
	for _, seat := range seatGrid() {
		if taken[seat] {
			continue
		}
		if seatType(seat) == pref {
			preferred = append(preferred, seat)
		} else {
			other = append(other, seat)
		}
	}
	s.shuffle(preferred)
	s.shuffle(other)
	candidates := append(preferred, other...)

	if s.cache == nil {
		if len(candidates) > 0 {
			return candidates[0], false
		}
		return s.randomSeat(), false
	}

	for i, seat := range candidates {
		if i == lockAttempts {
			break
		}
		ok, err := s.cache.AcquireSeatLock(ctx, flightID, seat, s.seatHoldTTL)
		if err != nil {
			s.logger.Warn("seat lock unavailable", zap.String("flight_id", flightID), zap.Error(err))
			return seat, false
		}
		if ok {
			return seat, true
		}
	}
	return s.randomSeat(), false
}

func (s *BookingService) randomSeat() string {
	grid := seatGrid()
	s.shuffle(grid)
	return grid[0]
}

func (s *BookingService) releaseSeat(ctx context.Context, flightID, seat string) {
	if err := s.cache.ReleaseSeatLock(ctx, flightID, seat); err != nil {
		s.logger.Warn("seat lock release failed", zap.String("flight_id", flightID), zap.String("seat", seat), zap.Error(err))
	}
}

func seatGrid() []string {
	seats := make([]string, 0, seatRows*len(seatLetters))
	for row := 1; row <= seatRows; row++ {
		for _, letter := range seatLetters {
			seats = append(seats, fmt.Sprintf("%d%c", row, letter))
		}
	}
	return seats
}

func seatType(seat string) domain.SeatPreference {
	switch seat[len(seat)-1] {
	case 'A', 'F':
		return domain.SeatWindow
	case 'C', 'D':
		return domain.SeatAisle
	default:
		return domain.SeatMiddle
	}
}

func (s *BookingService) CancelBooking(ctx context.Context, actor domain.Actor, id string) (*domain.Booking, error) {
	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(current.UserID) {
		return nil, domain.ErrAccessDenied
	}
	if current.Status == domain.BookingStatusCancelled {
		return nil, domain.ErrAlreadyCancelled
	}

	cancelled, err := s.bookings.Cancel(ctx, id)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.publish(ctx, events.BookingCancelled, cancelled)
	s.logger.Info("booking cancelled", zap.String("booking_id", id), zap.String("by", actor.UserID))
	return cancelled, nil
}

func (s *BookingService) ListBookings(ctx context.Context, actor domain.Actor) ([]domain.Booking, error) {
	filter := domain.BookingFilter{}
	if !actor.IsAdmin() {
		filter.UserID = actor.UserID
	}
	bookings, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		for i := range bookings {
			bookings[i].User = nil
		}
	}
	return bookings, nil
}

func (s *BookingService) GetBooking(ctx context.Context, actor domain.Actor, id string) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(booking.UserID) {
		return nil, domain.ErrAccessDenied
	}
	return booking, nil
}

// UpdateBookingStatus is the admin override. It follows the admin edges of
// the transition table; moving to cancelled restores seats like a cancel.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, actor domain.Actor, id string, status domain.BookingStatus) (*domain.Booking, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrAccessDenied
	}
	if !status.Valid() {
		return nil, domain.Validationf("status must be one of pending, confirmed, cancelled")
	}

	current, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanOverride(current.Status, status) {
		return nil, domain.ErrInvalidTransition
	}
	if current.Status == status {
		return current, nil
	}

	var updated *domain.Booking
	if status == domain.BookingStatusCancelled {
		updated, err = s.bookings.Cancel(ctx, id)
	} else {
		updated, err = s.bookings.UpdateStatus(ctx, id, status)
	}
	if err != nil {
		return nil, err
	}
	if status == domain.BookingStatusCancelled {
		s.invalidate(ctx)
	}
	s.publish(ctx, events.BookingStatusChanged, updated)
	s.logger.Info("booking status overridden",
		zap.String("booking_id", id),
		zap.String("from", string(current.Status)),
		zap.String("to", string(status)),
		zap.String("by", actor.UserID),
	)
	return updated, nil
}

func (s *BookingService) Stats(ctx context.Context, actor domain.Actor) (*domain.Stats, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrAccessDenied
	}
	return s.bookings.Stats(ctx)
}

func (s *BookingService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateFlights(ctx); err != nil {
		s.logger.Warn("flight cache invalidation failed", zap.Error(err))
	}
}

// publish is best-effort: failures are logged and never fail the operation.
func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := events.NewBookingEvent(eventType, booking, s.now())
	if err := s.producer.Publish(ctx, s.bookingTopic, booking.BookingReference, event); err != nil {
		s.logger.Warn("publish failed", zap.String("type", eventType), zap.String("topic", s.bookingTopic), zap.Error(err))
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, booking.BookingReference, event); err != nil {
			s.logger.Warn("publish failed", zap.String("type", eventType), zap.String("topic", s.notificationsTopic), zap.Error(err))
		}
	}
}

var _ BookingUseCase = (*BookingService)(nil)
