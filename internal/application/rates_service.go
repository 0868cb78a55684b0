package application

import (
	"context"
	"fmt"
	"time"

	"westrates-service/internal/domain"
)

// RateCreate carries the data for a new rate observation. A zero
// Timestamp defaults to the registration time.
type RateCreate struct {
	From      domain.Currency
	To        domain.Currency
	Rate      float64
	Timestamp time.Time
}

type RatesService struct {
	rates RateRepo
	uow   UnitOfWork
	idem  IdempotencyStore
	clock Clock
	loc   *time.Location
}

type RatesOption func(*RatesService)

func WithRatesClock(c Clock) RatesOption      { return func(s *RatesService) { s.clock = c } }
func WithUnitOfWork(u UnitOfWork) RatesOption { return func(s *RatesService) { s.uow = u } }
func WithIdempotency(i IdempotencyStore) RatesOption {
	return func(s *RatesService) { s.idem = i }
}

// WithRatesLocation pins named-range day windows to one timezone, the
// same one the ingestion scheduler stamps observations in.
func WithRatesLocation(loc *time.Location) RatesOption {
	return func(s *RatesService) { s.loc = loc }
}

func NewRatesService(rates RateRepo, opts ...RatesOption) *RatesService {
	s := &RatesService{rates: rates}
	for _, opt := range opts {
		opt(s)
	}
	if s.uow == nil {
		s.uow = NoopUoW{}
	}
	if s.idem == nil {
		s.idem = NoopIdempotency{}
	}
	if s.clock == nil {
		s.clock = realClock{}
	}
	return s
}

// RegisterRate validates and persists one observation. A non-nil idemKey
// rejects duplicate submissions with ErrConflict.
func (s *RatesService) RegisterRate(ctx context.Context, in RateCreate, idemKey *string) (domain.Rate, error) {
	if !domain.ValidCurrency(in.From) {
		return domain.Rate{}, fmt.Errorf("%w: from_currency %q", ErrValidation, in.From)
	}
	if !domain.ValidCurrency(in.To) {
		return domain.Rate{}, fmt.Errorf("%w: to_currency %q", ErrValidation, in.To)
	}
	if in.Rate <= 0 {
		return domain.Rate{}, fmt.Errorf("%w: rate must be positive", ErrValidation)
	}
	if idemKey != nil && *idemKey != "" {
		ok, err := s.idem.TryReserve(ctx, *idemKey)
		if err != nil {
			return domain.Rate{}, fmt.Errorf("idempotency reserve: %w", err)
		}
		if !ok {
			return domain.Rate{}, ErrConflict
		}
	}
	if in.Timestamp.IsZero() {
		in.Timestamp = s.clock.Now()
	}

	var out domain.Rate
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.rates.Insert(ctx, domain.Rate{
			From:      in.From,
			To:        in.To,
			Rate:      in.Rate,
			Timestamp: in.Timestamp,
		})
		return err
	})
	if err != nil {
		return domain.Rate{}, err
	}
	return out, nil
}

func (s *RatesService) GetRateByID(ctx context.Context, id int64) (domain.Rate, error) {
	return s.rates.GetByID(ctx, id)
}

func (s *RatesService) ListAllRates(ctx context.Context) ([]domain.Rate, error) {
	return s.rates.ListAll(ctx)
}

// GetRatesByRange returns observations inside the inclusive calendar-day
// window [start, end]. A start after end is rejected with ErrValidation.
func (s *RatesService) GetRatesByRange(ctx context.Context, start, end time.Time) ([]domain.Rate, error) {
	r, err := domain.NewDateRange(start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: start after end", ErrValidation)
	}
	return s.rates.ListByRange(ctx, r.Start, r.End)
}

func (s *RatesService) GetRatesNamedRange(ctx context.Context, name string) ([]domain.Rate, error) {
	r, err := ResolveNamed(name, s.clock.Now(), s.loc)
	if err != nil {
		return nil, err
	}
	return s.rates.ListByRange(ctx, r.Start, r.End)
}

// GetLatestByPair returns the n most recent observations for one pair,
// strictly descending by timestamp.
func (s *RatesService) GetLatestByPair(ctx context.Context, from, to domain.Currency, n int) ([]domain.Rate, error) {
	if !domain.ValidCurrency(from) || !domain.ValidCurrency(to) {
		return nil, fmt.Errorf("%w: unsupported pair %s/%s", ErrValidation, from, to)
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: limit must be at least 1", ErrValidation)
	}
	return s.rates.ListLastByPair(ctx, from, to, n)
}

// UpdateRate applies a partial mutation; nil fields keep their current value.
func (s *RatesService) UpdateRate(ctx context.Context, id int64, patch RateUpdate) (domain.Rate, error) {
	if patch.From != nil && !domain.ValidCurrency(*patch.From) {
		return domain.Rate{}, fmt.Errorf("%w: from_currency %q", ErrValidation, *patch.From)
	}
	if patch.To != nil && !domain.ValidCurrency(*patch.To) {
		return domain.Rate{}, fmt.Errorf("%w: to_currency %q", ErrValidation, *patch.To)
	}
	if patch.Rate != nil && *patch.Rate <= 0 {
		return domain.Rate{}, fmt.Errorf("%w: rate must be positive", ErrValidation)
	}

	var out domain.Rate
	err := s.uow.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.rates.Update(ctx, id, patch)
		return err
	})
	if err != nil {
		return domain.Rate{}, err
	}
	return out, nil
}

func (s *RatesService) DeleteRate(ctx context.Context, id int64) error {
	return s.uow.Do(ctx, func(ctx context.Context) error {
		return s.rates.Delete(ctx, id)
	})
}
