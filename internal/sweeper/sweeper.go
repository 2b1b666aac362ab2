// Package sweeper runs the periodic background maintenance pass: expired
// reservation cleanup and a registry freshness log line. Grounded on the
// teacher's use of a scheduler library (server/internal/scheduler) for
// periodic work rather than a hand-rolled ticker loop — this package uses
// gocron instead of the teacher's cron-on-policies scheduler because there
// is no policy model here, just one fixed interval.
package sweeper

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/beads-village/bv/internal/metrics"
	"github.com/beads-village/bv/internal/registry"
	"github.com/beads-village/bv/internal/reservation"
)

// DefaultInterval is how often the sweep runs.
const DefaultInterval = 30 * time.Second

// Sweeper periodically removes expired reservations in workspace and logs
// team liveness, if a team hub is configured.
type Sweeper struct {
	scheduler gocron.Scheduler
	workspace string
	agentID   string
	teamDir   string
	logger    *zap.Logger
}

// New builds a Sweeper. teamDir may be empty if no team hub is configured.
func New(workspace, agentID, teamDir string, logger *zap.Logger) (*Sweeper, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Sweeper{
		scheduler: sched,
		workspace: workspace,
		agentID:   agentID,
		teamDir:   teamDir,
		logger:    logger.Named("sweeper"),
	}, nil
}

// Start schedules the sweep job and begins running it asynchronously.
// Call Stop to end it; ctx is passed to each sweep pass and cancelling it
// does not stop the scheduler.
func (s *Sweeper) Start(ctx context.Context) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(DefaultInterval),
		gocron.NewTask(func() { s.runOnce(ctx) }),
	)
	if err != nil {
		return err
	}
	s.scheduler.Start()
	return nil
}

// Stop blocks until the scheduler has shut down its worker goroutines.
func (s *Sweeper) Stop() error {
	return s.scheduler.Shutdown()
}

func (s *Sweeper) runOnce(ctx context.Context) {
	engine := reservation.New(s.workspace, s.agentID)
	removed, err := engine.Sweep(ctx)
	if err != nil {
		s.logger.Warn("reservation sweep failed", zap.Error(err))
		return
	}
	metrics.SweeperRuns.Inc()
	if removed > 0 {
		metrics.SweeperExpiredReservations.Add(float64(removed))
	}

	if s.teamDir == "" {
		return
	}
	reg := registry.New(s.teamDir, s.agentID)
	active, err := reg.Active(0)
	if err != nil {
		s.logger.Warn("registry freshness check failed", zap.Error(err))
		return
	}
	s.logger.Debug("team freshness", zap.Int("active_agents", len(active)))
}
