package session

import (
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/authdeck/internal/db"
)

// sweepSchedule is how often expired sessions are collected. Expiry is also
// detected lazily on Validate; the sweeper exists so signed-out states reach
// stream subscribers without anyone polling.
const sweepSchedule = "@every 1m"

// Sweeper periodically expires stale sessions and records the expiries in
// the audit trail
type Sweeper struct {
	store  *Store
	events *db.DB
	logger *slog.Logger
	cron   *cron.Cron
}

// NewSweeper creates a sweeper for a store
func NewSweeper(store *Store, events *db.DB, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		store:  store,
		events: events,
		logger: logger,
	}
}

// Start schedules the sweep job
func (s *Sweeper) Start() error {
	c := cron.New()
	_, err := c.AddFunc(sweepSchedule, s.sweep)
	if err != nil {
		return err
	}
	c.Start()
	s.cron = c
	s.logger.Info("session sweeper started", "schedule", sweepSchedule)
	return nil
}

// Stop cancels the sweep job
func (s *Sweeper) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Sweeper) sweep() {
	expired := s.store.Sweep()
	if len(expired) == 0 {
		return
	}

	for _, rec := range expired {
		if s.events == nil {
			continue
		}
		event := db.NewAuthEvent(db.EventSessionExpired, rec.Email, "", "")
		if err := s.events.InsertAuthEvent(event); err != nil {
			s.logger.Error("failed to record session expiry", "error", err)
		}
	}

	s.logger.Info("expired sessions swept", "count", len(expired))
}
