// SPDX-License-Identifier: AGPL-3.0-only

// Package scheduler periodically re-scans the docs folder so courses dropped
// in while the server runs get indexed without a restart.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dpare01/course-rag/internal/logging"
)

// Reindexer is the piece of the RAG system the scheduler drives.
type Reindexer interface {
	IndexFolder(ctx context.Context, path string) (int, int, error)
}

// Scheduler runs a reindex job on a cron schedule.
type Scheduler struct {
	cron      *cron.Cron
	reindexer Reindexer
	docsPath  string
	logger    *logging.Logger

	mu      sync.RWMutex
	entryID cron.EntryID
	lastRun time.Time
	lastErr error
}

// New creates a scheduler that reindexes docsPath via reindexer.
func New(reindexer Reindexer, docsPath string, logger *logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.GetDefaultLogger()
	}
	c := cron.New(
		cron.WithParser(cron.NewParser(
			cron.SecondOptional|cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor)),
		cron.WithChain(
			cron.Recover(cron.DefaultLogger),
		),
	)
	return &Scheduler{
		cron:      c,
		reindexer: reindexer,
		docsPath:  docsPath,
		logger:    logger,
	}
}

// Schedule registers the reindex job with a cron expression and starts the
// scheduler. The job runs until ctx is cancelled or Stop is called.
func (s *Scheduler) Schedule(ctx context.Context, spec string) error {
	entryID, err := s.cron.AddFunc(spec, func() { s.runReindex(ctx) })
	if err != nil {
		return fmt.Errorf("invalid reindex schedule %q: %w", spec, err)
	}

	s.mu.Lock()
	s.entryID = entryID
	s.mu.Unlock()

	s.cron.Start()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Infof("Reindex scheduled (%s) for %s", spec, s.docsPath)
	return nil
}

// Stop halts the scheduler. Jobs already running are allowed to finish.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// NextRun reports when the reindex job fires next. Zero when unscheduled.
func (s *Scheduler) NextRun() time.Time {
	s.mu.RLock()
	entryID := s.entryID
	s.mu.RUnlock()

	for _, entry := range s.cron.Entries() {
		if entry.ID == entryID {
			return entry.Next
		}
	}
	return time.Time{}
}

// LastRun reports the last reindex attempt and its outcome.
func (s *Scheduler) LastRun() (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun, s.lastErr
}

func (s *Scheduler) runReindex(ctx context.Context) {
	s.logger.Debugf("Reindexing %s", s.docsPath)

	courses, chunks, err := s.reindexer.IndexFolder(ctx, s.docsPath)

	s.mu.Lock()
	s.lastRun = time.Now()
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.logger.Errorf("Reindex failed: %v", err)
		return
	}
	if courses > 0 {
		s.logger.Infof("Reindex added %d courses (%d chunks)", courses, chunks)
	}
}
