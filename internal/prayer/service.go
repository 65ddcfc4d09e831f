package prayer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Store persists fetched schedules across restarts
type Store interface {
	Save(day time.Time, t *Times) error
	Load(day time.Time) (*Times, error)
}

// Service keeps today's schedule in memory and refreshes it on a cron
// schedule. Readers never wait on the API.
type Service struct {
	fetcher  Fetcher
	store    Store
	schedule cron.Schedule
	logger   zerolog.Logger
	now      func() time.Time

	mu          sync.RWMutex
	current     *Times
	nextRefresh time.Time
}

// NewService creates the service. expr is a standard 5-field cron expression.
func NewService(fetcher Fetcher, expr string, logger zerolog.Logger) (*Service, error) {
	// Standard 5-field format: minute hour day-of-month month day-of-week
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid prayer refresh schedule %q: %w", expr, err)
	}
	return &Service{
		fetcher:  fetcher,
		schedule: schedule,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// SetStore enables persistence. Call before Run.
func (s *Service) SetStore(store Store) {
	s.store = store
}

// Restore adopts today's persisted schedule, if one exists, so the next
// refresh waits for the cron schedule instead of running at once.
func (s *Service) Restore() bool {
	if s.store == nil {
		return false
	}
	now := s.now()
	times, err := s.store.Load(now)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read cached prayer times")
		return false
	}
	if times == nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		s.current = times
		s.nextRefresh = s.schedule.Next(times.FetchedAt.In(now.Location()))
	}
	return true
}

// Today returns the cached schedule, if any
func (s *Service) Today() (*Times, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.current != nil
}

// NextRefresh returns when the next scheduled refresh is due
func (s *Service) NextRefresh() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextRefresh
}

// Refresh fetches today's schedule. On failure the previous one is kept.
func (s *Service) Refresh(ctx context.Context) error {
	now := s.now()
	times, err := s.fetcher.Fetch(ctx, now)

	s.mu.Lock()
	if err != nil {
		// Retry on the next tick rather than waiting a whole day
		s.nextRefresh = now.Add(time.Minute)
		s.mu.Unlock()
		return err
	}
	s.current = times
	s.nextRefresh = s.schedule.Next(now)
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Save(now, times); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to persist prayer times")
		}
	}
	return nil
}

// due reports whether a refresh should run at now
func (s *Service) due(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current == nil || !now.Before(s.nextRefresh)
}

// Run checks every minute whether a refresh is due until ctx is done
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	if s.Restore() {
		s.logger.Info().Time("next_refresh_at", s.NextRefresh()).Msg("Restored cached prayer times")
	}

	// Run immediately on startup, then every minute
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Service) tick(ctx context.Context) {
	if !s.due(s.now()) {
		return
	}
	if err := s.Refresh(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Failed to refresh prayer times")
		return
	}
	s.logger.Info().Time("next_refresh_at", s.NextRefresh()).Msg("Prayer times refreshed")
}
