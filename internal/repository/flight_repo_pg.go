package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Domenick1991/skybook/internal/domain"
	"github.com/jackc/pgx/v5"
)

type FlightRepository interface {
	Search(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, int, error)
	GetByID(ctx context.Context, id string) (*domain.Flight, error)
	Create(ctx context.Context, flight *domain.Flight) error
	Update(ctx context.Context, flight *domain.Flight) (*domain.Flight, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type PGFlightRepository struct {
	db DB
}

func NewFlightRepository(db DB) FlightRepository {
	return &PGFlightRepository{db: db}
}

const flightColumns = `id, flight_number, airline, origin, destination, departure_time, arrival_time, price, available_seats, total_seats, aircraft_type, status, created_at, updated_at`

func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var f domain.Flight
	if err := row.Scan(&f.ID, &f.FlightNumber, &f.Airline, &f.Origin, &f.Destination, &f.DepartureTime, &f.ArrivalTime,
		&f.Price, &f.AvailableSeats, &f.TotalSeats, &f.AircraftType, &f.Status, &f.CreatedAt, &f.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrFlightNotFound
		}
		return nil, err
	}
	return &f, nil
}

// searchQuery builds the WHERE clause and ORDER BY for a catalog search.
func searchQuery(filter domain.FlightFilter) (where string, orderBy string, args []any) {
	conds := []string{"status = 'active'"}
	if filter.Origin != "" {
		args = append(args, escapeLike(filter.Origin))
		conds = append(conds, fmt.Sprintf("origin ILIKE '%%' || $%d::text || '%%'", len(args)))
	}
	if filter.Destination != "" {
		args = append(args, escapeLike(filter.Destination))
		conds = append(conds, fmt.Sprintf("destination ILIKE '%%' || $%d::text || '%%'", len(args)))
	}
	if filter.DepartureFrom != nil {
		args = append(args, *filter.DepartureFrom)
		conds = append(conds, fmt.Sprintf("departure_time >= $%d", len(args)))
	}
	if filter.DepartureTo != nil {
		args = append(args, *filter.DepartureTo)
		conds = append(conds, fmt.Sprintf("departure_time < $%d", len(args)))
	}

	switch filter.SortBy {
	case domain.SortByDeparture, domain.SortByDuration:
		orderBy = "departure_time ASC, id ASC"
	default:
		orderBy = "price ASC, departure_time ASC, id ASC"
	}
	return strings.Join(conds, " AND "), orderBy, args
}

// escapeLike makes user input match literally inside a LIKE pattern.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *PGFlightRepository) Search(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, int, error) {
	where, orderBy, args := searchQuery(filter)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM flights WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count flights: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM flights WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		flightColumns, where, orderBy, len(args)+1, len(args)+2)
	rows, err := r.db.Query(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("search flights: %w", err)
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan flight: %w", err)
		}
		flights = append(flights, *f)
	}
	return flights, total, rows.Err()
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	if !validID(id) {
		return nil, domain.ErrFlightNotFound
	}
	f, err := scanFlight(r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1`, id))
	if err != nil && !errors.Is(err, domain.ErrFlightNotFound) {
		return nil, fmt.Errorf("get flight: %w", err)
	}
	return f, err
}

func (r *PGFlightRepository) Create(ctx context.Context, f *domain.Flight) error {
	err := r.db.QueryRow(ctx, `INSERT INTO flights (id, flight_number, airline, origin, destination, departure_time, arrival_time,
			price, available_seats, total_seats, aircraft_type, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`,
		f.ID, f.FlightNumber, f.Airline, f.Origin, f.Destination, f.DepartureTime, f.ArrivalTime,
		f.Price, f.AvailableSeats, f.TotalSeats, f.AircraftType, f.Status).
		Scan(&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create flight: %w", translate(err))
	}
	return nil
}

// Update rewrites the admin-editable columns. available_seats is never
// written directly: it moves by the change in total_seats so seats taken
// by concurrent bookings are preserved.
func (r *PGFlightRepository) Update(ctx context.Context, f *domain.Flight) (*domain.Flight, error) {
	if !validID(f.ID) {
		return nil, domain.ErrFlightNotFound
	}
	updated, err := scanFlight(r.db.QueryRow(ctx, `UPDATE flights SET
			flight_number=$2, airline=$3, origin=$4, destination=$5, departure_time=$6, arrival_time=$7,
			price=$8, available_seats = available_seats + ($9 - total_seats), total_seats=$9,
			aircraft_type=$10, status=$11, updated_at=now()
		WHERE id=$1
		RETURNING `+flightColumns,
		f.ID, f.FlightNumber, f.Airline, f.Origin, f.Destination, f.DepartureTime, f.ArrivalTime,
		f.Price, f.TotalSeats, f.AircraftType, f.Status))
	if err != nil && !errors.Is(err, domain.ErrFlightNotFound) {
		return nil, fmt.Errorf("update flight: %w", translate(err))
	}
	return updated, err
}

func (r *PGFlightRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrFlightNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM flights WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete flight: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrFlightNotFound
	}
	return nil
}

func (r *PGFlightRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM flights`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count flights: %w", err)
	}
	return n, nil
}

var _ FlightRepository = (*PGFlightRepository)(nil)
