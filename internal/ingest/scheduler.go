package ingest

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
)

// DefaultHours are the wall-clock hours a scheduler fires at when none
// are configured.
var DefaultHours = []int{0, 6, 12, 18}

// Scheduler fires the pipeline at fixed wall-clock hours in a given
// location. Ticks run inline, so a slow cycle delays the next one
// rather than overlapping it.
type Scheduler struct {
	Pipeline *Pipeline
	Hours    []int
	Loc      *time.Location
	Timeout  time.Duration
	Log      *zap.Logger

	now func() time.Time
}

func (s *Scheduler) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Scheduler) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *Scheduler) hours() []int {
	if len(s.Hours) == 0 {
		return DefaultHours
	}
	return s.Hours
}

func (s *Scheduler) location() *time.Location {
	if s.Loc == nil {
		return time.UTC
	}
	return s.Loc
}

// nextRun returns the first scheduled instant strictly after now.
func (s *Scheduler) nextRun(now time.Time) time.Time {
	loc := s.location()
	local := now.In(loc)
	hours := append([]int(nil), s.hours()...)
	sort.Ints(hours)
	for _, h := range hours {
		candidate := time.Date(local.Year(), local.Month(), local.Day(), h, 0, 0, 0, loc)
		if candidate.After(now) {
			return candidate
		}
	}
	next := local.AddDate(0, 0, 1)
	return time.Date(next.Year(), next.Month(), next.Day(), hours[0], 0, 0, 0, loc)
}

// Start blocks until ctx is cancelled, running one pipeline cycle at
// each scheduled hour. A failed cycle is logged and skipped.
func (s *Scheduler) Start(ctx context.Context) error {
	log := s.log()
	for {
		now := s.clock()
		next := s.nextRun(now)
		log.Info("scheduler.waiting", zap.Time("next_run", next))

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info("scheduler.stopped")
			return ctx.Err()
		case <-timer.C:
		}

		s.tick(ctx, next)
	}
}

func (s *Scheduler) tick(ctx context.Context, startedAt time.Time) {
	log := s.log()
	tickCtx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		tickCtx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	if err := s.Pipeline.RunOnce(tickCtx, startedAt); err != nil {
		log.Warn("scheduler.tick_skipped", zap.Error(err))
	}
}
