// Package scheduler wires up the cron job that periodically runs discovery
// for every user with active search preferences.
package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/jobscout/jobscout/internal/engine/discovery"
	"github.com/jobscout/jobscout/internal/jobs"
)

// ActivePreferenceLister returns every preference row with the active flag.
type ActivePreferenceLister interface {
	ListActive(ctx context.Context) ([]*jobs.Preferences, error)
}

// ProfileGetter reads profile snapshots.
type ProfileGetter interface {
	Get(ctx context.Context, userID string) (*jobs.Profile, error)
}

// DiscoveryRunner runs one discovery pass.
type DiscoveryRunner interface {
	Run(ctx context.Context, userID string, profile *jobs.Profile, prefs *jobs.Preferences, opts discovery.Options) *discovery.Result
}

// Scheduler wraps robfig/cron and manages the periodic discovery sweep.
type Scheduler struct {
	cron     *cron.Cron
	prefs    ActivePreferenceLister
	profiles ProfileGetter
	runner   DiscoveryRunner
	logger   *zap.Logger
	spec     string
}

// New creates a Scheduler that sweeps every intervalHours hours.
func New(prefs ActivePreferenceLister, profiles ProfileGetter, runner DiscoveryRunner, intervalHours int, logger *zap.Logger) *Scheduler {
	if intervalHours <= 0 {
		intervalHours = 6
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:     cron.New(),
		prefs:    prefs,
		profiles: profiles,
		runner:   runner,
		logger:   logger,
		spec:     fmt.Sprintf("@every %dh", intervalHours),
	}
}

// Start registers the sweep and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.sweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info("discovery scheduler started", zap.String("spec", s.spec))
	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("discovery scheduler stopped")
}

// sweep runs discovery for every user with active preferences. Per-user
// failures only skip that user.
func (s *Scheduler) sweep(ctx context.Context) {
	active, err := s.prefs.ListActive(ctx)
	if err != nil {
		s.logger.Error("listing active preferences failed", zap.Error(err))
		return
	}
	if len(active) == 0 {
		s.logger.Debug("no active preferences; nothing to discover")
		return
	}

	s.logger.Info("discovery sweep started", zap.Int("users", len(active)))
	for _, prefs := range active {
		profile, err := s.profiles.Get(ctx, prefs.UserID)
		if err != nil {
			if errors.Is(err, jobs.ErrNotFound) {
				s.logger.Debug("skipping user without a profile", zap.String("user_id", prefs.UserID))
			} else {
				s.logger.Warn("loading profile failed",
					zap.String("user_id", prefs.UserID),
					zap.Error(err),
				)
			}
			continue
		}

		// Scheduled sweeps always refresh; serving the cache here would
		// make the cron tick a no-op.
		s.runner.Run(ctx, prefs.UserID, profile, prefs, discovery.Options{ForceRefresh: true})
	}
	s.logger.Info("discovery sweep complete", zap.Int("users", len(active)))
}
