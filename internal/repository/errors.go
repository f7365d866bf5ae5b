package repository

import (
	"errors"

	"github.com/Domenick1991/skybook/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

// uniqueConstraints maps constraint names to the conflict they represent.
var uniqueConstraints = map[string]error{
	"users_email_key":                domain.ErrDuplicateEmail,
	"flights_flight_number_key":      domain.ErrDuplicateFlightNumber,
	"bookings_booking_reference_key": domain.ErrReferenceCollision,
}

// translate converts constraint violations into domain errors and returns
// every other error unchanged.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		if derr, ok := uniqueConstraints[pgErr.ConstraintName]; ok {
			return derr
		}
		return domain.Validationf("duplicate value violates %s", pgErr.ConstraintName)
	case pgCheckViolation:
		return domain.Validationf("value violates %s", pgErr.ConstraintName)
	}
	return err
}

// validID reports whether id can be stored in a uuid column. Malformed ids
// never match a row, so callers answer them with not found.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
