package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"westrates-service/internal/domain"
)

const minPasswordLen = 8

type UserCreate struct {
	Email    string
	Username string
	Password string
	Role     domain.Role
}

// Token is an issued access token with its expiry.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

type UserService struct {
	users  UserRepo
	hasher PasswordHasher
	tokens TokenIssuer
	clock  Clock
}

type UsersOption func(*UserService)

func WithUsersClock(c Clock) UsersOption { return func(s *UserService) { s.clock = c } }

func NewUserService(users UserRepo, hasher PasswordHasher, tokens TokenIssuer, opts ...UsersOption) *UserService {
	s := &UserService{users: users, hasher: hasher, tokens: tokens}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = realClock{}
	}
	return s
}

func (s *UserService) RegisterUser(ctx context.Context, in UserCreate) (domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return domain.User{}, fmt.Errorf("%w: invalid email", ErrValidation)
	}
	if in.Username == "" {
		return domain.User{}, fmt.Errorf("%w: username is required", ErrValidation)
	}
	if len(in.Password) < minPasswordLen {
		return domain.User{}, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen)
	}
	if !domain.ValidRole(in.Role) {
		return domain.User{}, fmt.Errorf("%w: unknown role %q", ErrValidation, in.Role)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	return s.users.Insert(ctx, domain.User{
		Email:        email,
		Username:     in.Username,
		PasswordHash: hash,
		Active:       true,
		Role:         in.Role,
		CreatedAt:    s.clock.Now(),
	})
}

// Authenticate exchanges valid credentials for an access token. Missing
// users, wrong passwords and deactivated accounts are all reported as
// ErrUnauthorized so callers cannot probe which one it was.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (Token, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Token{}, ErrUnauthorized
		}
		return Token{}, err
	}
	if !u.Active {
		return Token{}, ErrUnauthorized
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		return Token{}, ErrUnauthorized
	}
	tok, exp, err := s.tokens.Issue(u.Email, u.Role)
	if err != nil {
		return Token{}, fmt.Errorf("issue token: %w", err)
	}
	return Token{AccessToken: tok, ExpiresAt: exp}, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (s *UserService) ListUsersByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	if !domain.ValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	return s.users.ListByRole(ctx, role)
}

func (s *UserService) ListUsersByCreatedRange(ctx context.Context, start, end time.Time) ([]domain.User, error) {
	r, err := domain.NewDateRange(start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: start after end", ErrValidation)
	}
	return s.users.ListByCreatedRange(ctx, r.Start, r.End)
}

func (s *UserService) UpdateUser(ctx context.Context, id int64, patch UserUpdate) (domain.User, error) {
	if patch.Role != nil && !domain.ValidRole(*patch.Role) {
		return domain.User{}, fmt.Errorf("%w: unknown role %q", ErrValidation, *patch.Role)
	}
	if patch.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*patch.Email))
		if email == "" || !strings.Contains(email, "@") {
			return domain.User{}, fmt.Errorf("%w: invalid email", ErrValidation)
		}
		patch.Email = &email
	}
	return s.users.Update(ctx, id, patch)
}

func (s *UserService) DeactivateUser(ctx context.Context, id int64) (domain.User, error) {
	inactive := false
	return s.users.Update(ctx, id, UserUpdate{Active: &inactive})
}

func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	return s.users.Delete(ctx, id)
}
