// Package jobs runs the periodic background work of the server.
package jobs

import (
	"context"
	"fmt"

	"perfume-backoffice/internal/cache"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler marks every cached collection stale on a cron spec, so edits
// made outside this process show up without a restart.
type Scheduler struct {
	cron  *cron.Cron
	cache *cache.Client
}

func NewScheduler(c *cache.Client) *Scheduler {
	return &Scheduler{
		cron:  cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
		cache: c,
	}
}

// AddRefresh schedules the refresh. An empty spec schedules nothing.
func (s *Scheduler) AddRefresh(spec string) error {
	if spec == "" {
		return nil
	}
	if _, err := s.cron.AddFunc(spec, s.Refresh); err != nil {
		return fmt.Errorf("schedule cache refresh %q: %w", spec, err)
	}
	zap.S().Infof("cache refresh scheduled: %s", spec)
	return nil
}

func (s *Scheduler) Refresh() {
	keys := s.cache.Keys()
	s.cache.InvalidateAll(context.Background())
	zap.S().Debugw("cache refreshed", "collections", keys)
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
