package tasks

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// pruneSpec runs usage pruning every day at 03:00.
const pruneSpec = "0 3 * * *"

// BoardEvicter drops idle live boards.
type BoardEvicter interface {
	EvictIdle(cutoff time.Time) int
}

// UsagePruner deletes old usage rows.
type UsagePruner interface {
	PruneUsage(ctx context.Context, before time.Time) (int64, error)
}

// Scheduler runs the periodic maintenance jobs.
type Scheduler struct {
	cron      *cron.Cron
	boards    BoardEvicter
	usage     UsagePruner
	idleTTL   time.Duration
	retention time.Duration
	now       func() time.Time
	log       *zap.Logger
}

// New creates a scheduler. Jobs are registered by Start.
func New(boards BoardEvicter, usage UsagePruner, idleTTL time.Duration, retentionDays int, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		boards:    boards,
		usage:     usage,
		idleTTL:   idleTTL,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		now:       time.Now,
		log:       log,
	}
}

// Start registers the jobs and starts the cron runner.
func (s *Scheduler) Start(evictSpec string) error {
	if _, err := s.cron.AddFunc(evictSpec, s.EvictIdleBoards); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(pruneSpec, s.PruneUsage); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("maintenance jobs started", zap.String("evict_spec", evictSpec))
	return nil
}

// Stop halts the runner and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// EvictIdleBoards drops boards idle longer than the TTL.
func (s *Scheduler) EvictIdleBoards() {
	if n := s.boards.EvictIdle(s.now().Add(-s.idleTTL)); n > 0 {
		s.log.Info("evicted idle boards", zap.Int("count", n))
	}
}

// PruneUsage deletes usage rows past the retention window.
func (s *Scheduler) PruneUsage() {
	if s.retention <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.usage.PruneUsage(ctx, s.now().Add(-s.retention))
	if err != nil {
		s.log.Error("usage pruning failed", zap.Error(err))
		return
	}
	s.log.Info("pruned usage rows", zap.Int64("count", n))
}
