package booking

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/Domenick1991/skybook/internal/domain"
	"github.com/Domenick1991/skybook/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) CreateConfirmed(ctx context.Context, booking *domain.Booking) error {
	return m.Called(ctx, booking).Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) OccupiedSeats(ctx context.Context, flightID string) ([]string, error) {
	args := m.Called(ctx, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockBookingRepository) Cancel(ctx context.Context, id string) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) (*domain.Booking, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) Stats(ctx context.Context) (*domain.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Stats), args.Error(1)
}

type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) Search(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Flight), args.Int(1), args.Error(2)
}

func (m *MockFlightRepository) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	return m.Called(ctx, flight).Error(0)
}

func (m *MockFlightRepository) Update(ctx context.Context, flight *domain.Flight) (*domain.Flight, error) {
	args := m.Called(ctx, flight)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockFlightRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) AcquireSeatLock(ctx context.Context, flightID, seat string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, flightID, seat, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) ReleaseSeatLock(ctx context.Context, flightID, seat string) error {
	return m.Called(ctx, flightID, seat).Error(0)
}

func (m *MockCache) InvalidateFlights(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	return m.Called(ctx, topic, key, value).Error(0)
}

var (
	owner    = domain.Actor{UserID: "user-1", Role: domain.RoleUser}
	stranger = domain.Actor{UserID: "user-2", Role: domain.RoleUser}
	admin    = domain.Actor{UserID: "admin-1", Role: domain.RoleAdmin}
)

type fixture struct {
	bookings *MockBookingRepository
	flights  *MockFlightRepository
	cache    *MockCache
	producer *MockProducer
	svc      *BookingService
}

func newFixture(opts ...BookingServiceOption) *fixture {
	f := &fixture{
		bookings: &MockBookingRepository{},
		flights:  &MockFlightRepository{},
		cache:    &MockCache{},
		producer: &MockProducer{},
	}
	f.svc = NewBookingService(f.bookings, f.flights, f.cache, f.producer, "booking.events", zap.NewNop(), opts...)
	f.svc.shuffle = func([]string) {}
	f.svc.now = func() time.Time { return time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC) }
	return f
}

func flight(available int) *domain.Flight {
	dep := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	return &domain.Flight{
		ID:             "f1",
		FlightNumber:   "AA123",
		Origin:         "New York",
		Destination:    "London",
		DepartureTime:  dep,
		ArrivalTime:    dep.Add(7 * time.Hour),
		Price:          850,
		AvailableSeats: available,
		TotalSeats:     180,
		Status:         domain.FlightStatusActive,
	}
}

func validInput(passengers int) CreateBookingInput {
	return CreateBookingInput{
		FlightID:       "f1",
		PassengerName:  "Jane Doe",
		PassengerEmail: "Jane@Example.com",
		PassengerPhone: "+1 555 0100",
		Passengers:     passengers,
	}
}

var referencePattern = regexp.MustCompile(`^SKY[0-9A-F]{8}$`)

func TestBookingService_CreateBooking_Success(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.flights.On("GetByID", ctx, "f1").Return(flight(45), nil)
	f.bookings.On("OccupiedSeats", ctx, "f1").Return([]string{"1A"}, nil)
	f.cache.On("AcquireSeatLock", ctx, "f1", "1F", 30*time.Second).Return(true, nil)
	f.cache.On("ReleaseSeatLock", ctx, "f1", "1F").Return(nil)
	f.cache.On("InvalidateFlights", ctx).Return(nil)
	f.bookings.On("CreateConfirmed", ctx, mock.MatchedBy(func(b *domain.Booking) bool {
		return b.TotalAmount == 1745 &&
			b.Passengers == 2 &&
			b.Status == domain.BookingStatusConfirmed &&
			b.PaymentStatus == domain.PaymentStatusCompleted &&
			b.SeatNumber == "1F" &&
			b.UserID == "user-1" &&
			b.PassengerEmail == "jane@example.com" &&
			b.SeatPreference == domain.SeatWindow &&
			b.MealPreference == domain.MealRegular &&
			referencePattern.MatchString(b.BookingReference)
	})).Return(nil)
	f.producer.On("Publish", ctx, "booking.events", mock.Anything, mock.MatchedBy(func(ev events.BookingEvent) bool {
		return ev.Type == events.BookingCreated && ev.Passengers == 2
	})).Return(nil)

	booking, err := f.svc.CreateBooking(ctx, owner, validInput(2))
	require.NoError(t, err)
	assert.Equal(t, 1745.0, booking.TotalAmount)
	assert.Equal(t, domain.BookingStatusConfirmed, booking.Status)
	require.NotNil(t, booking.Flight)
	assert.Equal(t, 43, booking.Flight.AvailableSeats)

	f.bookings.AssertExpectations(t)
	f.cache.AssertExpectations(t)
	f.producer.AssertExpectations(t)
}

func TestBookingService_CreateBooking_DrainsThenInsufficient(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.flights.On("GetByID", ctx, "f1").Return(flight(2), nil).Once()
	f.bookings.On("OccupiedSeats", ctx, "f1").Return([]string{}, nil)
	f.cache.On("AcquireSeatLock", ctx, "f1", mock.Anything, mock.Anything).Return(true, nil)
	f.cache.On("ReleaseSeatLock", ctx, "f1", mock.Anything).Return(nil)
	f.cache.On("InvalidateFlights", ctx).Return(nil)
	f.bookings.On("CreateConfirmed", ctx, mock.Anything).Return(nil)
	f.producer.On("Publish", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	booking, err := f.svc.CreateBooking(ctx, owner, validInput(2))
	require.NoError(t, err)
	assert.Equal(t, 0, booking.Flight.AvailableSeats)

	f.flights.On("GetByID", ctx, "f1").Return(flight(0), nil).Once()
	_, err = f.svc.CreateBooking(ctx, owner, validInput(1))
	assert.ErrorIs(t, err, domain.ErrInsufficientSeats)
	f.bookings.AssertNumberOfCalls(t, "CreateConfirmed", 1)
}

func TestBookingService_CreateBooking_StoreRejectsOversell(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.flights.On("GetByID", ctx, "f1").Return(flight(1), nil)
	f.bookings.On("OccupiedSeats", ctx, "f1").Return([]string{}, nil)
	f.cache.On("AcquireSeatLock", ctx, "f1", mock.Anything, mock.Anything).Return(true, nil)
	f.cache.On("ReleaseSeatLock", ctx, "f1", mock.Anything).Return(nil)
	f.bookings.On("CreateConfirmed", ctx, mock.Anything).Return(domain.ErrInsufficientSeats)

	_, err := f.svc.CreateBooking(ctx, owner, validInput(1))
	assert.ErrorIs(t, err, domain.ErrInsufficientSeats)
	f.cache.AssertCalled(t, "ReleaseSeatLock", ctx, "f1", mock.Anything)
	f.producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_CreateBooking_Validation(t *testing.T) {
	f := newFixture()
	tests := []struct {
		name   string
		mutate func(*CreateBookingInput)
	}{
		{"missing flight", func(in *CreateBookingInput) { in.FlightID = "" }},
		{"missing name", func(in *CreateBookingInput) { in.PassengerName = " " }},
		{"missing phone", func(in *CreateBookingInput) { in.PassengerPhone = "" }},
		{"negative passengers", func(in *CreateBookingInput) { in.Passengers = -1 }},
		{"bad seat preference", func(in *CreateBookingInput) { in.SeatPreference = "exit" }},
		{"bad meal preference", func(in *CreateBookingInput) { in.MealPreference = "steak" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput(1)
			tt.mutate(&in)
			_, err := f.svc.CreateBooking(context.Background(), owner, in)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
	f.flights.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestBookingService_CreateBooking_FlightNotFound(t *testing.T) {
	f := newFixture()
	f.flights.On("GetByID", mock.Anything, "f1").Return(nil, domain.ErrFlightNotFound)

	_, err := f.svc.CreateBooking(context.Background(), owner, validInput(1))
	assert.ErrorIs(t, err, domain.ErrFlightNotFound)
}

func TestBookingService_CreateBooking_InactiveFlight(t *testing.T) {
	f := newFixture()
	cancelled := flight(10)
	cancelled.Status = domain.FlightStatusCancelled
	f.flights.On("GetByID", mock.Anything, "f1").Return(cancelled, nil)

	_, err := f.svc.CreateBooking(context.Background(), owner, validInput(1))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestBookingService_CreateBooking_DegradedDependencies(t *testing.T) {
	f := newFixture(WithFlatFee(0))
	ctx := context.Background()

	f.flights.On("GetByID", ctx, "f1").Return(flight(10), nil)
	f.bookings.On("OccupiedSeats", ctx, "f1").Return(nil, errors.New("db hiccup"))
	f.cache.On("AcquireSeatLock", ctx, "f1", "1A", mock.Anything).Return(false, errors.New("redis down"))
	f.cache.On("InvalidateFlights", ctx).Return(errors.New("redis down"))
	f.bookings.On("CreateConfirmed", ctx, mock.Anything).Return(nil)
	f.producer.On("Publish", ctx, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	booking, err := f.svc.CreateBooking(ctx, owner, validInput(1))
	require.NoError(t, err)
	assert.Equal(t, "1A", booking.SeatNumber)
	assert.Equal(t, 850.0, booking.TotalAmount)
	f.cache.AssertNotCalled(t, "ReleaseSeatLock", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_AssignSeat_PrefersTypeAndSkipsLocked(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.bookings.On("OccupiedSeats", ctx, "f1").Return([]string{"1C"}, nil)
	f.cache.On("AcquireSeatLock", ctx, "f1", "1D", mock.Anything).Return(false, nil)
	f.cache.On("AcquireSeatLock", ctx, "f1", "2C", mock.Anything).Return(true, nil)

	seat, locked := f.svc.assignSeat(ctx, "f1", domain.SeatAisle)
	assert.Equal(t, "2C", seat)
	assert.True(t, locked)
}

func TestBookingService_AssignSeat_GridExhausted(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.bookings.On("OccupiedSeats", ctx, "f1").Return(seatGrid(), nil)

	seat, locked := f.svc.assignSeat(ctx, "f1", domain.SeatWindow)
	assert.False(t, locked)
	assert.Contains(t, seatGrid(), seat)
	f.cache.AssertNotCalled(t, "AcquireSeatLock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSeatGridAndType(t *testing.T) {
	grid := seatGrid()
	assert.Len(t, grid, 180)
	assert.Equal(t, "1A", grid[0])
	assert.Equal(t, "30F", grid[179])
	assert.Equal(t, domain.SeatWindow, seatType("12F"))
	assert.Equal(t, domain.SeatAisle, seatType("7C"))
	assert.Equal(t, domain.SeatMiddle, seatType("30E"))
}

func TestNewReference_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		ref := newReference()
		assert.Regexp(t, referencePattern, ref)
		assert.False(t, seen[ref], "duplicate reference %s", ref)
		seen[ref] = true
	}
}

func confirmedBooking() *domain.Booking {
	return &domain.Booking{
		ID:               "b1",
		UserID:           "user-1",
		FlightID:         "f1",
		BookingReference: "SKY0000000A",
		Status:           domain.BookingStatusConfirmed,
		PaymentStatus:    domain.PaymentStatusCompleted,
		Passengers:       2,
	}
}

func TestBookingService_CancelBooking(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cancelled := confirmedBooking()
	cancelled.Status = domain.BookingStatusCancelled
	cancelled.PaymentStatus = domain.PaymentStatusRefunded

	f.bookings.On("GetByID", ctx, "b1").Return(confirmedBooking(), nil).Once()
	f.bookings.On("Cancel", ctx, "b1").Return(cancelled, nil).Once()
	f.cache.On("InvalidateFlights", ctx).Return(nil)
	f.producer.On("Publish", ctx, "booking.events", "SKY0000000A", mock.MatchedBy(func(ev events.BookingEvent) bool {
		return ev.Type == events.BookingCancelled
	})).Return(nil)

	got, err := f.svc.CancelBooking(ctx, owner, "b1")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusRefunded, got.PaymentStatus)

	// Second attempt sees the cancelled booking and never reaches the store.
	f.bookings.On("GetByID", ctx, "b1").Return(cancelled, nil).Once()
	_, err = f.svc.CancelBooking(ctx, owner, "b1")
	assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)
	f.bookings.AssertNumberOfCalls(t, "Cancel", 1)
}

func TestBookingService_CancelBooking_Access(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.bookings.On("GetByID", ctx, "b1").Return(confirmedBooking(), nil)
	f.bookings.On("GetByID", ctx, "missing").Return(nil, domain.ErrBookingNotFound)

	_, err := f.svc.CancelBooking(ctx, stranger, "b1")
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	_, err = f.svc.CancelBooking(ctx, admin, "missing")
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
	f.bookings.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything)
}

func TestBookingService_CancelBooking_ConcurrentCancel(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.bookings.On("GetByID", ctx, "b1").Return(confirmedBooking(), nil)
	f.bookings.On("Cancel", ctx, "b1").Return(nil, domain.ErrAlreadyCancelled)

	_, err := f.svc.CancelBooking(ctx, admin, "b1")
	assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)
}

func TestBookingService_ListBookings(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	summary := &domain.UserSummary{ID: "user-1", FullName: "Jane", Email: "jane@example.com"}

	f.bookings.On("List", ctx, domain.BookingFilter{UserID: "user-1"}).
		Return([]domain.Booking{{ID: "b1", UserID: "user-1", User: summary}}, nil)
	f.bookings.On("List", ctx, domain.BookingFilter{}).
		Return([]domain.Booking{{ID: "b1", User: summary}, {ID: "b2"}}, nil)

	own, err := f.svc.ListBookings(ctx, owner)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Nil(t, own[0].User)

	all, err := f.svc.ListBookings(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, summary, all[0].User)
}

func TestBookingService_GetBooking(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.bookings.On("GetByID", ctx, "b1").Return(confirmedBooking(), nil)

	_, err := f.svc.GetBooking(ctx, owner, "b1")
	assert.NoError(t, err)
	_, err = f.svc.GetBooking(ctx, admin, "b1")
	assert.NoError(t, err)
	_, err = f.svc.GetBooking(ctx, stranger, "b1")
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
}

func TestBookingService_UpdateBookingStatus(t *testing.T) {
	f := newFixture(WithNotificationsTopic("notifications"))
	ctx := context.Background()

	pending := confirmedBooking()
	pending.Status = domain.BookingStatusPending
	f.bookings.On("GetByID", ctx, "b1").Return(confirmedBooking(), nil)
	f.bookings.On("UpdateStatus", ctx, "b1", domain.BookingStatusPending).Return(pending, nil)
	f.producer.On("Publish", ctx, "booking.events", mock.Anything, mock.Anything).Return(nil)
	f.producer.On("Publish", ctx, "notifications", mock.Anything, mock.Anything).Return(nil)

	got, err := f.svc.UpdateBookingStatus(ctx, admin, "b1", domain.BookingStatusPending)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusPending, got.Status)
	f.producer.AssertNumberOfCalls(t, "Publish", 2)
}

func TestBookingService_UpdateBookingStatus_ToCancelledRestoresSeats(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cancelled := confirmedBooking()
	cancelled.Status = domain.BookingStatusCancelled
	f.bookings.On("GetByID", ctx, "b1").Return(confirmedBooking(), nil)
	f.bookings.On("Cancel", ctx, "b1").Return(cancelled, nil)
	f.cache.On("InvalidateFlights", ctx).Return(nil)
	f.producer.On("Publish", ctx, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	got, err := f.svc.UpdateBookingStatus(ctx, admin, "b1", domain.BookingStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCancelled, got.Status)
	f.bookings.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_UpdateBookingStatus_Rejections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	cancelled := confirmedBooking()
	cancelled.Status = domain.BookingStatusCancelled
	f.bookings.On("GetByID", ctx, "b1").Return(cancelled, nil)

	_, err := f.svc.UpdateBookingStatus(ctx, owner, "b1", domain.BookingStatusConfirmed)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)

	_, err = f.svc.UpdateBookingStatus(ctx, admin, "b1", "refunded")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.UpdateBookingStatus(ctx, admin, "b1", domain.BookingStatusConfirmed)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	f.producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_UpdateBookingStatus_SameIsNoop(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.bookings.On("GetByID", ctx, "b1").Return(confirmedBooking(), nil)

	got, err := f.svc.UpdateBookingStatus(ctx, admin, "b1", domain.BookingStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusConfirmed, got.Status)
	f.bookings.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_Stats(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.bookings.On("Stats", ctx).Return(&domain.Stats{TotalBookings: 3, Revenue: 2590}, nil)

	stats, err := f.svc.Stats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalBookings)

	_, err = f.svc.Stats(ctx, owner)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
}
