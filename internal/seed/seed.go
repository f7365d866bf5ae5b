package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/skybook/internal/auth"
	"github.com/Domenick1991/skybook/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
}

type FlightStore interface {
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, flight *domain.Flight) error
}

type account struct {
	email, password, username, fullName, phone string
	role                                       domain.Role
}

var accounts = []account{
	{"admin@skybook.com", "admin123", "admin", "Admin User", "+1 (555) 123-4567", domain.RoleAdmin},
	{"user@skybook.com", "user123", "user", "John Doe", "+1 (555) 987-6543", domain.RoleUser},
}

func sampleFlights() []domain.Flight {
	at := func(s string) time.Time {
		t, _ := time.Parse(time.RFC3339, s)
		return t
	}
	return []domain.Flight{
		{FlightNumber: "AA123", Airline: "American Airlines", Origin: "New York", Destination: "London",
			DepartureTime: at("2024-01-15T10:00:00Z"), ArrivalTime: at("2024-01-15T22:00:00Z"),
			Price: 850, AvailableSeats: 45, TotalSeats: 180, AircraftType: "Boeing 777"},
		{FlightNumber: "BA456", Airline: "British Airways", Origin: "New York", Destination: "London",
			DepartureTime: at("2024-01-15T14:30:00Z"), ArrivalTime: at("2024-01-16T02:30:00Z"),
			Price: 920, AvailableSeats: 32, TotalSeats: 200, AircraftType: "Airbus A350"},
		{FlightNumber: "UA789", Airline: "United Airlines", Origin: "New York", Destination: "London",
			DepartureTime: at("2024-01-15T18:45:00Z"), ArrivalTime: at("2024-01-16T06:45:00Z"),
			Price: 780, AvailableSeats: 67, TotalSeats: 220, AircraftType: "Boeing 787"},
		{FlightNumber: "DL101", Airline: "Delta Airlines", Origin: "Los Angeles", Destination: "Tokyo",
			DepartureTime: at("2024-01-16T11:00:00Z"), ArrivalTime: at("2024-01-17T15:30:00Z"),
			Price: 1200, AvailableSeats: 28, TotalSeats: 250, AircraftType: "Boeing 777"},
		{FlightNumber: "AF202", Airline: "Air France", Origin: "Paris", Destination: "New York",
			DepartureTime: at("2024-01-17T09:15:00Z"), ArrivalTime: at("2024-01-17T12:45:00Z"),
			Price: 950, AvailableSeats: 52, TotalSeats: 190, AircraftType: "Airbus A330"},
	}
}

// Run creates the demo accounts that are missing and, on an empty catalog,
// the sample flights. It is safe to run on every start.
func Run(ctx context.Context, users UserStore, flights FlightStore, bcryptCost int, logger *zap.Logger) error {
	for _, a := range accounts {
		_, err := users.GetByEmail(ctx, a.email)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrUserNotFound) {
			return fmt.Errorf("seed lookup %s: %w", a.email, err)
		}
		hash, err := auth.HashPassword(a.password, bcryptCost)
		if err != nil {
			return fmt.Errorf("seed hash: %w", err)
		}
		user := &domain.User{
			ID:           uuid.NewString(),
			Email:        a.email,
			Username:     a.username,
			PasswordHash: hash,
			FullName:     a.fullName,
			Phone:        a.phone,
			Role:         a.role,
		}
		if err := users.Create(ctx, user); err != nil {
			return fmt.Errorf("seed user %s: %w", a.email, err)
		}
		logger.Info("seeded user", zap.String("email", a.email), zap.String("role", string(a.role)))
	}

	count, err := flights.Count(ctx)
	if err != nil {
		return fmt.Errorf("seed count flights: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, f := range sampleFlights() {
		f.ID = uuid.NewString()
		f.Status = domain.FlightStatusActive
		if err := flights.Create(ctx, &f); err != nil {
			return fmt.Errorf("seed flight %s: %w", f.FlightNumber, err)
		}
	}
	logger.Info("seeded sample flights", zap.Int("count", len(sampleFlights())))
	return nil
}
