package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/skybook/internal/domain"
	"github.com/jackc/pgx/v5"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	UpdateProfile(ctx context.Context, user *domain.User) (*domain.User, error)
	UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type PGUserRepository struct {
	db DB
}

func NewUserRepository(db DB) UserRepository {
	return &PGUserRepository{db: db}
}

const userColumns = `id, email, username, password_hash, full_name, phone, role, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.FullName, &u.Phone, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *PGUserRepository) Create(ctx context.Context, user *domain.User) error {
	err := r.db.QueryRow(ctx, `INSERT INTO users (id, email, username, password_hash, full_name, phone, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		user.ID, user.Email, user.Username, user.PasswordHash, user.FullName, user.Phone, user.Role).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", translate(err))
	}
	return nil
}

func (r *PGUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if !validID(id) {
		return nil, domain.ErrUserNotFound
	}
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return u, err
}

func (r *PGUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email))
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, err
}

func (r *PGUserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *PGUserRepository) UpdateProfile(ctx context.Context, user *domain.User) (*domain.User, error) {
	if !validID(user.ID) {
		return nil, domain.ErrUserNotFound
	}
	u, err := scanUser(r.db.QueryRow(ctx, `UPDATE users
		SET username=$2, full_name=$3, phone=$4, updated_at=now()
		WHERE id=$1
		RETURNING `+userColumns, user.ID, user.Username, user.FullName, user.Phone))
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("update profile: %w", translate(err))
	}
	return u, err
}

func (r *PGUserRepository) UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	if !validID(id) {
		return nil, domain.ErrUserNotFound
	}
	u, err := scanUser(r.db.QueryRow(ctx, `UPDATE users SET role=$2, updated_at=now() WHERE id=$1 RETURNING `+userColumns, id, role))
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("update role: %w", translate(err))
	}
	return u, err
}

// Delete removes the user. Their live bookings are cancelled and refunded and
// the seats go back to the flights in the same transaction; the booking rows
// stay.
func (r *PGUserRepository) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return domain.ErrUserNotFound
	}
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `UPDATE bookings
			SET status = 'cancelled', payment_status = 'refunded', updated_at = now()
			WHERE user_id = $1 AND status <> 'cancelled'
			RETURNING flight_id, passengers`, id)
		if err != nil {
			return fmt.Errorf("cancel user bookings: %w", err)
		}
		var released []releasedSeats
		for rows.Next() {
			var s releasedSeats
			if err := rows.Scan(&s.FlightID, &s.Passengers); err != nil {
				rows.Close()
				return fmt.Errorf("scan cancelled booking: %w", err)
			}
			released = append(released, s)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("cancel user bookings: %w", err)
		}
		for _, s := range released {
			if _, err := tx.Exec(ctx, `UPDATE flights
				SET available_seats = LEAST(total_seats, available_seats + $2), updated_at = now()
				WHERE id = $1`, s.FlightID, s.Passengers); err != nil {
				return fmt.Errorf("restore seats: %w", err)
			}
		}

		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrUserNotFound
		}
		return nil
	})
}

// releasedSeats is one cancelled booking's claim on a flight.
type releasedSeats struct {
	FlightID   string
	Passengers int
}

func (r *PGUserRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

var _ UserRepository = (*PGUserRepository)(nil)
