package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/skybook/internal/domain"
	"github.com/jackc/pgx/v5"
)

type BookingRepository interface {
	// CreateConfirmed takes the booking's seats from its flight and stores the
	// booking in one transaction.
	CreateConfirmed(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error)
	OccupiedSeats(ctx context.Context, flightID string) ([]string, error)
	// Cancel marks the booking cancelled and refunded and gives its seats back
	// to the flight, if the flight still exists.
	Cancel(ctx context.Context, id string) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) (*domain.Booking, error)
	Stats(ctx context.Context) (*domain.Stats, error)
}

type PGBookingRepository struct {
	db DB
}

func NewBookingRepository(db DB) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `b.id, b.user_id, b.flight_id, b.passenger_name, b.passenger_email, b.passenger_phone,
	b.seat_number, b.seat_preference, b.meal_preference, b.booking_reference, b.status, b.payment_status,
	b.total_amount, b.passengers, b.created_at, b.updated_at`

const bookingSelect = `SELECT ` + bookingColumns + `,
	f.id, f.flight_number, f.airline, f.origin, f.destination, f.departure_time, f.arrival_time,
	f.price, f.available_seats, f.total_seats, f.aircraft_type, f.status, f.created_at, f.updated_at,
	u.id, u.full_name, u.email
	FROM bookings b
	LEFT JOIN flights f ON f.id = b.flight_id
	LEFT JOIN users u ON u.id = b.user_id`

// joinedFlight holds the nullable side of the flights join.
type joinedFlight struct {
	ID, FlightNumber, Airline, Origin, Destination, AircraftType, Status *string
	DepartureTime, ArrivalTime, CreatedAt, UpdatedAt                     *time.Time
	Price                                                                *float64
	AvailableSeats, TotalSeats                                           *int
}

func (j joinedFlight) flight() *domain.Flight {
	if j.ID == nil {
		return nil
	}
	return &domain.Flight{
		ID:             *j.ID,
		FlightNumber:   *j.FlightNumber,
		Airline:        *j.Airline,
		Origin:         *j.Origin,
		Destination:    *j.Destination,
		DepartureTime:  *j.DepartureTime,
		ArrivalTime:    *j.ArrivalTime,
		Price:          *j.Price,
		AvailableSeats: *j.AvailableSeats,
		TotalSeats:     *j.TotalSeats,
		AircraftType:   *j.AircraftType,
		Status:         domain.FlightStatus(*j.Status),
		CreatedAt:      *j.CreatedAt,
		UpdatedAt:      *j.UpdatedAt,
	}
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b                           domain.Booking
		f                           joinedFlight
		userID, userName, userEmail *string
	)
	err := row.Scan(&b.ID, &b.UserID, &b.FlightID, &b.PassengerName, &b.PassengerEmail, &b.PassengerPhone,
		&b.SeatNumber, &b.SeatPreference, &b.MealPreference, &b.BookingReference, &b.Status, &b.PaymentStatus,
		&b.TotalAmount, &b.Passengers, &b.CreatedAt, &b.UpdatedAt,
		&f.ID, &f.FlightNumber, &f.Airline, &f.Origin, &f.Destination, &f.DepartureTime, &f.ArrivalTime,
		&f.Price, &f.AvailableSeats, &f.TotalSeats, &f.AircraftType, &f.Status, &f.CreatedAt, &f.UpdatedAt,
		&userID, &userName, &userEmail)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	b.Flight = f.flight()
	if userID != nil {
		b.User = &domain.UserSummary{ID: *userID, FullName: *userName, Email: *userEmail}
	}
	return &b, nil
}

func (r *PGBookingRepository) CreateConfirmed(ctx context.Context, b *domain.Booking) error {
	if !validID(b.FlightID) {
		return domain.ErrFlightNotFound
	}
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE flights
			SET available_seats = available_seats - $2, updated_at = now()
			WHERE id = $1 AND available_seats >= $2`, b.FlightID, b.SeatCount())
		if err != nil {
			return fmt.Errorf("reserve seats: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM flights WHERE id = $1)`, b.FlightID).Scan(&exists); err != nil {
				return fmt.Errorf("check flight: %w", err)
			}
			if !exists {
				return domain.ErrFlightNotFound
			}
			return domain.ErrInsufficientSeats
		}

		err = tx.QueryRow(ctx, `INSERT INTO bookings (id, user_id, flight_id, passenger_name, passenger_email, passenger_phone,
				seat_number, seat_preference, meal_preference, booking_reference, status, payment_status, total_amount, passengers)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			RETURNING created_at, updated_at`,
			b.ID, b.UserID, b.FlightID, b.PassengerName, b.PassengerEmail, b.PassengerPhone,
			b.SeatNumber, b.SeatPreference, b.MealPreference, b.BookingReference, b.Status, b.PaymentStatus,
			b.TotalAmount, b.SeatCount()).
			Scan(&b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert booking: %w", translate(err))
		}
		return nil
	})
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	if !validID(id) {
		return nil, domain.ErrBookingNotFound
	}
	b, err := scanBooking(r.db.QueryRow(ctx, bookingSelect+` WHERE b.id = $1`, id))
	if err != nil && !errors.Is(err, domain.ErrBookingNotFound) {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return b, err
}

func (r *PGBookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	query := bookingSelect
	var args []any
	if filter.UserID != "" {
		if !validID(filter.UserID) {
			return []domain.Booking{}, nil
		}
		query += ` WHERE b.user_id = $1`
		args = append(args, filter.UserID)
	}
	query += ` ORDER BY b.created_at DESC, b.id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *PGBookingRepository) OccupiedSeats(ctx context.Context, flightID string) ([]string, error) {
	if !validID(flightID) {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `SELECT seat_number FROM bookings
		WHERE flight_id = $1 AND status <> 'cancelled' AND seat_number <> ''`, flightID)
	if err != nil {
		return nil, fmt.Errorf("occupied seats: %w", err)
	}
	seats, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("occupied seats: %w", err)
	}
	return seats, nil
}

func (r *PGBookingRepository) Cancel(ctx context.Context, id string) (*domain.Booking, error) {
	if !validID(id) {
		return nil, domain.ErrBookingNotFound
	}
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		var (
			flightID   string
			passengers int
		)
		err := tx.QueryRow(ctx, `UPDATE bookings
			SET status = 'cancelled', payment_status = 'refunded', updated_at = now()
			WHERE id = $1 AND status <> 'cancelled'
			RETURNING flight_id, passengers`, id).Scan(&flightID, &passengers)
		if errors.Is(err, pgx.ErrNoRows) {
			return r.missingOrCancelled(ctx, tx, id)
		}
		if err != nil {
			return fmt.Errorf("cancel booking: %w", err)
		}

		// A deleted flight matches no row and the restore is skipped.
		if _, err := tx.Exec(ctx, `UPDATE flights
			SET available_seats = LEAST(total_seats, available_seats + $2), updated_at = now()
			WHERE id = $1`, flightID, passengers); err != nil {
			return fmt.Errorf("restore seats: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *PGBookingRepository) missingOrCancelled(ctx context.Context, tx pgx.Tx, id string) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check booking: %w", err)
	}
	if !exists {
		return domain.ErrBookingNotFound
	}
	return domain.ErrAlreadyCancelled
}

// UpdateStatus sets a non-cancelled status on a booking that is not
// cancelled. Cancellation goes through Cancel.
func (r *PGBookingRepository) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) (*domain.Booking, error) {
	if !validID(id) {
		return nil, domain.ErrBookingNotFound
	}
	if status == domain.BookingStatusCancelled {
		return r.Cancel(ctx, id)
	}
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE bookings SET status = $2, updated_at = now()
			WHERE id = $1 AND status <> 'cancelled'`, id, status)
		if err != nil {
			return fmt.Errorf("update booking status: %w", translate(err))
		}
		if tag.RowsAffected() == 0 {
			err := r.missingOrCancelled(ctx, tx, id)
			if errors.Is(err, domain.ErrAlreadyCancelled) {
				return domain.ErrInvalidTransition
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *PGBookingRepository) Stats(ctx context.Context) (*domain.Stats, error) {
	var s domain.Stats
	err := r.db.QueryRow(ctx, `SELECT
			(SELECT count(*) FROM users),
			(SELECT count(*) FROM flights),
			(SELECT count(*) FROM bookings),
			(SELECT count(*) FROM bookings WHERE status = 'confirmed'),
			(SELECT COALESCE(sum(total_amount), 0)::float8 FROM bookings WHERE status <> 'cancelled')`).
		Scan(&s.TotalUsers, &s.TotalFlights, &s.TotalBookings, &s.ConfirmedBookings, &s.Revenue)
	if err != nil {
		return nil, fmt.Errorf("booking stats: %w", err)
	}
	return &s, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
