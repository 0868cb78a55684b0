package application

import (
	"context"
	"time"

	"westrates-service/internal/domain"
)

// RateUpdate carries a partial rate mutation; nil fields are left untouched.
type RateUpdate struct {
	From *domain.Currency
	To   *domain.Currency
	Rate *float64
}

// UserUpdate carries a partial user mutation; nil fields are left untouched.
type UserUpdate struct {
	Email    *string
	Username *string
	Role     *domain.Role
	Active   *bool
}

type RateRepo interface {
	Insert(ctx context.Context, r domain.Rate) (domain.Rate, error)
	GetByID(ctx context.Context, id int64) (domain.Rate, error)
	ListByRange(ctx context.Context, start, end time.Time) ([]domain.Rate, error)
	ListLastByPair(ctx context.Context, from, to domain.Currency, n int) ([]domain.Rate, error)
	ListAll(ctx context.Context) ([]domain.Rate, error)
	Update(ctx context.Context, id int64, patch RateUpdate) (domain.Rate, error)
	Delete(ctx context.Context, id int64) error
}

type UserRepo interface {
	Insert(ctx context.Context, u domain.User) (domain.User, error)
	GetByID(ctx context.Context, id int64) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	ListByCreatedRange(ctx context.Context, start, end time.Time) ([]domain.User, error)
	Update(ctx context.Context, id int64, patch UserUpdate) (domain.User, error)
	Delete(ctx context.Context, id int64) error
}

// QuoteQuery configures one fetch against the external marketplace.
type QuoteQuery struct {
	Fiat      string
	Asset     string
	TradeType string
	Page      int
	Rows      int
}

// QuoteSource fetches raw quoted prices for one query. Implementations
// return ErrTransport when the source is unreachable or unparsable and
// ErrEmptySample when it answered with no usable prices.
type QuoteSource interface {
	FetchPrices(ctx context.Context, q QuoteQuery) ([]float64, error)
}

// IdempotencyStore handles short-lived request deduplication.
type IdempotencyStore interface {
	// TryReserve returns true if key was absent and is now reserved.
	TryReserve(ctx context.Context, key string) (bool, error)
}

// NoopIdempotency always succeeds; useful for tests/dev when Redis is disabled.
type NoopIdempotency struct{}

func (NoopIdempotency) TryReserve(context.Context, string) (bool, error) { return true, nil }

// UnitOfWork provides a minimal transaction boundary using context propagation.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoopUoW executes the function without starting a transaction.
type NoopUoW struct{}

func (NoopUoW) Do(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

type TokenClaims struct {
	Email string
	Role  domain.Role
}

type TokenIssuer interface {
	Issue(email string, role domain.Role) (token string, expiresAt time.Time, err error)
	Verify(token string) (TokenClaims, error)
}

// Worker represents a background processor of scheduled work.
// Implementations must run until the context is canceled.
type Worker interface {
	Start(ctx context.Context) error
}
