package users

import (
	"context"
	"strings"

	"github.com/Domenick1991/skybook/internal/domain"
	"github.com/Domenick1991/skybook/internal/repository"
	"go.uber.org/zap"
)

type UserUseCase interface {
	List(ctx context.Context, actor domain.Actor) ([]domain.User, error)
	Profile(ctx context.Context, actor domain.Actor) (*domain.User, error)
	UpdateProfile(ctx context.Context, actor domain.Actor, input ProfileInput) (*domain.User, error)
	Delete(ctx context.Context, actor domain.Actor, id string) error
	UpdateRole(ctx context.Context, actor domain.Actor, id string, role domain.Role) (*domain.User, error)
}

// ProfileInput carries the self-editable fields. Nil fields are unchanged.
type ProfileInput struct {
	Username *string `json:"username"`
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
}

// FlightCache drops cached search results when seat counts change.
type FlightCache interface {
	InvalidateFlights(ctx context.Context) error
}

type UserService struct {
	users  repository.UserRepository
	cache  FlightCache
	logger *zap.Logger
}

type UserServiceOption func(*UserService)

func WithFlightCache(cache FlightCache) UserServiceOption {
	return func(s *UserService) {
		s.cache = cache
	}
}

func NewUserService(users repository.UserRepository, logger *zap.Logger, opts ...UserServiceOption) *UserService {
	s := &UserService{users: users, logger: logger.Named("users")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *UserService) List(ctx context.Context, actor domain.Actor) ([]domain.User, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrAccessDenied
	}
	return s.users.List(ctx)
}

func (s *UserService) Profile(ctx context.Context, actor domain.Actor) (*domain.User, error) {
	return s.users.GetByID(ctx, actor.UserID)
}

func (s *UserService) UpdateProfile(ctx context.Context, actor domain.Actor, input ProfileInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if input.Username != nil {
		v := strings.TrimSpace(*input.Username)
		if v == "" {
			return nil, domain.Validationf("username must not be empty")
		}
		user.Username = v
	}
	if input.FullName != nil {
		v := strings.TrimSpace(*input.FullName)
		if v == "" {
			return nil, domain.Validationf("full_name must not be empty")
		}
		user.FullName = v
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}
	return s.users.UpdateProfile(ctx, user)
}

// Delete removes a user. The store cancels their live bookings and returns
// the seats, so cached searches are dropped afterwards. Admins cannot delete
// themselves.
func (s *UserService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if !actor.IsAdmin() {
		return domain.ErrAccessDenied
	}
	if id == actor.UserID {
		return domain.Validationf("cannot delete your own account")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user deleted", zap.String("user_id", id), zap.String("by", actor.UserID))
	if s.cache != nil {
		if err := s.cache.InvalidateFlights(ctx); err != nil {
			s.logger.Warn("flight cache invalidation failed", zap.Error(err))
		}
	}
	return nil
}

func (s *UserService) UpdateRole(ctx context.Context, actor domain.Actor, id string, role domain.Role) (*domain.User, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrAccessDenied
	}
	if !role.Valid() {
		return nil, domain.Validationf("role must be one of user, admin")
	}
	user, err := s.users.UpdateRole(ctx, id, role)
	if err != nil {
		return nil, err
	}
	s.logger.Info("role changed", zap.String("user_id", id), zap.String("role", string(role)))
	return user, nil
}

var _ UserUseCase = (*UserService)(nil)
