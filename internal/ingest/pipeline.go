package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"westrates-service/internal/aggregate"
	"westrates-service/internal/application"
	"westrates-service/internal/domain"

	"go.uber.org/zap"
)

// State tracks where a run currently is. A failed run passes through
// StateFailed and always settles back on StateIdle; the schedule is
// never halted by a bad cycle.
type State string

const (
	StateIdle        State = "idle"
	StateFetching    State = "fetching"
	StateAggregating State = "aggregating"
	StatePersisting  State = "persisting"
	StateFailed      State = "failed"
)

// Status is a snapshot of the pipeline for observability. LastError
// holds the failure of the most recent cycle, nil after a clean one.
type Status struct {
	State       State
	LastSuccess time.Time
	LastError   error
}

// Pair is the currency pair a pipeline writes observations for.
type Pair struct {
	From domain.Currency
	To   domain.Currency
}

// Pipeline runs one ingestion cycle: fetch quotes, aggregate them and
// persist a single observation stamped with the cycle start time.
type Pipeline struct {
	Source application.QuoteSource
	Rates  application.RateRepo
	UoW    application.UnitOfWork
	Query  application.QuoteQuery
	Pair   Pair
	Log    *zap.Logger

	mu          sync.Mutex
	state       State
	lastSuccess time.Time
	lastErr     error
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.state
	if s == "" {
		s = StateIdle
	}
	return Status{State: s, LastSuccess: p.lastSuccess, LastError: p.lastErr}
}

func (p *Pipeline) log() *zap.Logger {
	if p.Log == nil {
		return zap.NewNop()
	}
	return p.Log
}

// RunOnce executes one cycle. Transport failures and empty samples are
// returned for the caller to log and skip; nothing is persisted unless
// the whole cycle succeeded.
func (p *Pipeline) RunOnce(ctx context.Context, startedAt time.Time) (err error) {
	log := p.log().With(
		zap.String("pair", string(p.Pair.From)+"/"+string(p.Pair.To)),
		zap.Time("cycle_start", startedAt),
	)
	defer func() {
		if err != nil {
			p.setState(StateFailed)
		}
		p.mu.Lock()
		p.lastErr = err
		p.state = StateIdle
		p.mu.Unlock()
	}()

	p.setState(StateFetching)
	prices, err := p.Source.FetchPrices(ctx, p.Query)
	if err != nil {
		switch {
		case errors.Is(err, application.ErrTransport):
			log.Warn("ingest.fetch_transport_failure", zap.Error(err))
		case errors.Is(err, application.ErrEmptySample):
			log.Warn("ingest.fetch_empty_sample", zap.Error(err))
		default:
			log.Error("ingest.fetch_failed", zap.Error(err))
		}
		return err
	}

	p.setState(StateAggregating)
	sum := aggregate.Summarize(prices)
	if sum.Mean == nil {
		log.Warn("ingest.aggregation_empty")
		return fmt.Errorf("%w: aggregation produced no mean", application.ErrEmptySample)
	}

	p.setState(StatePersisting)
	obs := domain.Rate{
		From:      p.Pair.From,
		To:        p.Pair.To,
		Rate:      *sum.Mean,
		Timestamp: startedAt,
	}
	uow := p.UoW
	if uow == nil {
		uow = application.NoopUoW{}
	}
	var persisted domain.Rate
	err = uow.Do(ctx, func(ctx context.Context) error {
		var err error
		persisted, err = p.Rates.Insert(ctx, obs)
		return err
	})
	if err != nil {
		log.Error("ingest.persist_failed", zap.Error(err))
		return fmt.Errorf("persist observation: %w", err)
	}

	p.mu.Lock()
	p.lastSuccess = startedAt
	p.mu.Unlock()

	log.Info("ingest.cycle_done",
		zap.Int64("id", persisted.ID),
		zap.Float64("mean", *sum.Mean),
		zap.Float64("median", *sum.Median),
		zap.Int("sample_size", len(prices)),
	)
	return nil
}
