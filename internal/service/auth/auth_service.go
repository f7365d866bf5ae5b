package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	authn "github.com/Domenick1991/skybook/internal/auth"
	"github.com/Domenick1991/skybook/internal/domain"
	"github.com/Domenick1991/skybook/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	minPasswordLength = 6
	// bcrypt rejects longer input.
	maxPasswordLength = 72
)

type AuthUseCase interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	ResolveToken(ctx context.Context, token string) (*domain.User, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
}

type TokenIssuer interface {
	Issue(userID string, role domain.Role) (string, time.Time, error)
	Parse(raw string) (string, error)
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type AuthService struct {
	users      repository.UserRepository
	tokens     TokenIssuer
	bcryptCost int
	logger     *zap.Logger
}

func NewAuthService(users repository.UserRepository, tokens TokenIssuer, bcryptCost int, logger *zap.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, bcryptCost: bcryptCost, logger: logger.Named("auth")}
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if len(input.Password) < minPasswordLength {
		return nil, domain.Validationf("password must be at least %d characters", minPasswordLength)
	}
	if len(input.Password) > maxPasswordLength {
		return nil, domain.Validationf("password must be at most %d bytes", maxPasswordLength)
	}
	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return nil, domain.Validationf("full_name is required")
	}
	username := strings.TrimSpace(input.Username)
	if username == "" {
		username = email[:strings.IndexByte(email, '@')]
	}

	hash, err := authn.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		FullName:     fullName,
		Phone:        strings.TrimSpace(input.Phone),
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return s.result(user)
}

// Login answers unknown emails and wrong passwords with the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, domain.Validationf("email and password are required")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !authn.VerifyPassword(user.PasswordHash, password) {
		return nil, domain.ErrInvalidCredentials
	}
	return s.result(user)
}

// ResolveToken returns the user a bearer token was issued to. Tokens of
// deleted users are rejected.
func (s *AuthService) ResolveToken(ctx context.Context, token string) (*domain.User, error) {
	userID, err := s.tokens.Parse(token)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *AuthService) result(user *domain.User) (*AuthResult, error) {
	token, _, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", domain.Validationf("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", domain.Validationf("email is invalid")
	}
	return email, nil
}

var _ AuthUseCase = (*AuthService)(nil)
