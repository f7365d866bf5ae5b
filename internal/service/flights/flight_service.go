package flights

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Domenick1991/skybook/internal/domain"
	"github.com/Domenick1991/skybook/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxSearchOffset = math.MaxInt32

type FlightUseCase interface {
	Search(ctx context.Context, input SearchInput) (*SearchResult, error)
	GetByID(ctx context.Context, id string) (*domain.Flight, error)
	Create(ctx context.Context, input FlightInput) (*domain.Flight, error)
	Update(ctx context.Context, id string, input FlightUpdate) (*domain.Flight, error)
	Delete(ctx context.Context, id string) error
}

// SearchCache stores search pages. SearchKey pins a query to the current
// cache generation and InvalidateFlights moves to a new one.
type SearchCache interface {
	SearchKey(ctx context.Context, query string) (string, error)
	GetSearch(ctx context.Context, key string, dst any) (bool, error)
	SetSearch(ctx context.Context, key string, value any) error
	InvalidateFlights(ctx context.Context) error
}

type SearchInput struct {
	Origin        string
	Destination   string
	DepartureDate string
	SortBy        string
	Page          int
	Limit         int
}

type SearchResult struct {
	Flights    []domain.Flight   `json:"flights"`
	Pagination domain.Pagination `json:"pagination"`
}

type FlightInput struct {
	FlightNumber   string              `json:"flight_number"`
	Airline        string              `json:"airline"`
	Origin         string              `json:"origin"`
	Destination    string              `json:"destination"`
	DepartureTime  time.Time           `json:"departure_time"`
	ArrivalTime    time.Time           `json:"arrival_time"`
	Price          float64             `json:"price"`
	AvailableSeats *int                `json:"available_seats"`
	TotalSeats     int                 `json:"total_seats"`
	AircraftType   string              `json:"aircraft_type"`
	Status         domain.FlightStatus `json:"status"`
}

// FlightUpdate is a partial update; nil fields keep their value. Seat
// availability is owned by bookings and cannot be set here.
type FlightUpdate struct {
	FlightNumber  *string              `json:"flight_number"`
	Airline       *string              `json:"airline"`
	Origin        *string              `json:"origin"`
	Destination   *string              `json:"destination"`
	DepartureTime *time.Time           `json:"departure_time"`
	ArrivalTime   *time.Time           `json:"arrival_time"`
	Price         *float64             `json:"price"`
	TotalSeats    *int                 `json:"total_seats"`
	AircraftType  *string              `json:"aircraft_type"`
	Status        *domain.FlightStatus `json:"status"`
}

type FlightService struct {
	repo         repository.FlightRepository
	cache        SearchCache
	defaultLimit int
	maxLimit     int
	logger       *zap.Logger
}

type FlightServiceOption func(*FlightService)

func WithPageLimits(defaultLimit, maxLimit int) FlightServiceOption {
	return func(s *FlightService) {
		s.defaultLimit = defaultLimit
		s.maxLimit = maxLimit
	}
}

func NewFlightService(repo repository.FlightRepository, cache SearchCache, logger *zap.Logger, opts ...FlightServiceOption) *FlightService {
	s := &FlightService{repo: repo, cache: cache, defaultLimit: 10, maxLimit: 100, logger: logger.Named("flights")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FlightService) Search(ctx context.Context, input SearchInput) (*SearchResult, error) {
	filter, page, err := s.filter(input)
	if err != nil {
		return nil, err
	}

	// The key is resolved before the read so a page built across an
	// invalidation lands under the old generation.
	var key string
	if s.cache != nil {
		if key, err = s.cache.SearchKey(ctx, cacheKey(filter)); err != nil {
			s.logger.Warn("search cache generation read failed", zap.Error(err))
		}
	}
	if key != "" {
		var cached SearchResult
		hit, err := s.cache.GetSearch(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("search cache read failed", zap.Error(err))
		} else if hit {
			return &cached, nil
		}
	}

	flights, total, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, err
	}
	result := &SearchResult{Flights: flights, Pagination: domain.NewPagination(page, filter.Limit, total)}

	if key != "" {
		if err := s.cache.SetSearch(ctx, key, result); err != nil {
			s.logger.Warn("search cache write failed", zap.Error(err))
		}
	}
	return result, nil
}

func (s *FlightService) filter(input SearchInput) (domain.FlightFilter, int, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	limit := input.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	// Pages past maxSearchOffset are empty; clamping keeps the offset from
	// overflowing.
	if maxPage := maxSearchOffset/limit + 1; page > maxPage {
		page = maxPage
	}

	filter := domain.FlightFilter{
		Origin:      strings.TrimSpace(input.Origin),
		Destination: strings.TrimSpace(input.Destination),
		SortBy:      domain.SortByPrice,
		Limit:       limit,
		Offset:      (page - 1) * limit,
	}
	switch domain.FlightSort(input.SortBy) {
	case domain.SortByDeparture, domain.SortByDuration:
		filter.SortBy = domain.FlightSort(input.SortBy)
	}

	if input.DepartureDate != "" {
		day, err := parseDate(input.DepartureDate)
		if err != nil {
			return filter, 0, err
		}
		next := day.AddDate(0, 0, 1)
		filter.DepartureFrom = &day
		filter.DepartureTo = &next
	}
	return filter, page, nil
}

// parseDate accepts YYYY-MM-DD or an RFC3339 timestamp and returns the
// start of that calendar day in UTC.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, domain.Validationf("departure_date must be YYYY-MM-DD")
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

func cacheKey(f domain.FlightFilter) string {
	var from string
	if f.DepartureFrom != nil {
		from = f.DepartureFrom.Format(time.DateOnly)
	}
	return fmt.Sprintf("o=%s|d=%s|date=%s|sort=%s|limit=%d|offset=%d",
		strings.ToLower(f.Origin), strings.ToLower(f.Destination), from, f.SortBy, f.Limit, f.Offset)
}

func (s *FlightService) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *FlightService) Create(ctx context.Context, input FlightInput) (*domain.Flight, error) {
	flight := &domain.Flight{
		ID:            uuid.NewString(),
		FlightNumber:  strings.ToUpper(strings.TrimSpace(input.FlightNumber)),
		Airline:       strings.TrimSpace(input.Airline),
		Origin:        strings.TrimSpace(input.Origin),
		Destination:   strings.TrimSpace(input.Destination),
		DepartureTime: input.DepartureTime,
		ArrivalTime:   input.ArrivalTime,
		Price:         input.Price,
		TotalSeats:    input.TotalSeats,
		AircraftType:  strings.TrimSpace(input.AircraftType),
		Status:        input.Status,
	}
	flight.AvailableSeats = input.TotalSeats
	if input.AvailableSeats != nil {
		flight.AvailableSeats = *input.AvailableSeats
	}
	if flight.Status == "" {
		flight.Status = domain.FlightStatusActive
	}
	if err := validateFlight(flight); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, flight); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.logger.Info("flight created", zap.String("flight_id", flight.ID), zap.String("flight_number", flight.FlightNumber))
	return flight, nil
}

func (s *FlightService) Update(ctx context.Context, id string, input FlightUpdate) (*domain.Flight, error) {
	flight, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	booked := flight.TotalSeats - flight.AvailableSeats

	if input.FlightNumber != nil {
		flight.FlightNumber = strings.ToUpper(strings.TrimSpace(*input.FlightNumber))
	}
	if input.Airline != nil {
		flight.Airline = strings.TrimSpace(*input.Airline)
	}
	if input.Origin != nil {
		flight.Origin = strings.TrimSpace(*input.Origin)
	}
	if input.Destination != nil {
		flight.Destination = strings.TrimSpace(*input.Destination)
	}
	if input.DepartureTime != nil {
		flight.DepartureTime = *input.DepartureTime
	}
	if input.ArrivalTime != nil {
		flight.ArrivalTime = *input.ArrivalTime
	}
	if input.Price != nil {
		flight.Price = *input.Price
	}
	if input.TotalSeats != nil {
		flight.TotalSeats = *input.TotalSeats
		flight.AvailableSeats = flight.TotalSeats - booked
	}
	if input.AircraftType != nil {
		flight.AircraftType = strings.TrimSpace(*input.AircraftType)
	}
	if input.Status != nil {
		flight.Status = *input.Status
	}
	if flight.AvailableSeats < 0 {
		return nil, domain.Validationf("total_seats cannot be below the %d seats already booked", booked)
	}
	if err := validateFlight(flight); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, flight)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return updated, nil
}

// Delete removes the flight only. Its bookings stay and keep the dangling id.
func (s *FlightService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	s.logger.Info("flight deleted", zap.String("flight_id", id))
	return nil
}

func (s *FlightService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateFlights(ctx); err != nil {
		s.logger.Warn("flight cache invalidation failed", zap.Error(err))
	}
}

func validateFlight(f *domain.Flight) error {
	required := []struct{ name, value string }{
		{"flight_number", f.FlightNumber},
		{"airline", f.Airline},
		{"origin", f.Origin},
		{"destination", f.Destination},
		{"aircraft_type", f.AircraftType},
	}
	var missing []string
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return domain.Validationf("missing required fields: %s", strings.Join(missing, ", "))
	}

	switch {
	case f.DepartureTime.IsZero() || f.ArrivalTime.IsZero():
		return domain.Validationf("departure_time and arrival_time are required")
	case !f.ArrivalTime.After(f.DepartureTime):
		return domain.Validationf("arrival_time must be after departure_time")
	case f.Price < 0:
		return domain.Validationf("price must not be negative")
	case f.TotalSeats < 1:
		return domain.Validationf("total_seats must be at least 1")
	case f.AvailableSeats < 0 || f.AvailableSeats > f.TotalSeats:
		return domain.Validationf("available_seats must be between 0 and total_seats")
	case !f.Status.Valid():
		return domain.Validationf("status must be one of active, cancelled, delayed")
	}
	return nil
}

var _ FlightUseCase = (*FlightService)(nil)
