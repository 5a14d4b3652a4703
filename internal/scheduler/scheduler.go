package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"news-assistant/internal/session"
)

const jobTimeout = time.Minute

// Pruner deletes history older than a cutoff
type Pruner interface {
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler runs periodic maintenance: history pruning and session sweeping
type Scheduler struct {
	cron      *cron.Cron
	mu        sync.Mutex
	started   bool
	pruner    Pruner
	retention time.Duration
	sweeper   session.Sweeper
	now       func() time.Time
}

// New schedules maintenance on spec (standard cron syntax or descriptors
// such as "@daily"). pruner and sweeper may be nil.
func New(spec string, pruner Pruner, retention time.Duration, sweeper session.Sweeper) (*Scheduler, error) {
	s := &Scheduler{
		cron:      cron.New(),
		pruner:    pruner,
		retention: retention,
		sweeper:   sweeper,
		now:       time.Now,
	}
	if _, err := s.cron.AddFunc(spec, s.RunMaintenance); err != nil {
		return nil, fmt.Errorf("add maintenance job %q: %w", spec, err)
	}
	return s, nil
}

// RunMaintenance performs one maintenance pass
func (s *Scheduler) RunMaintenance() {
	now := s.now()
	if s.pruner != nil && s.retention > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		removed, err := s.pruner.PruneOlderThan(ctx, now.Add(-s.retention))
		cancel()
		if err != nil {
			log.Printf("[Scheduler] History prune failed: %v", err)
		} else if removed > 0 {
			log.Printf("[Scheduler] Pruned %d summaries older than %s", removed, s.retention)
		}
	}
	if s.sweeper != nil {
		if removed := s.sweeper.Sweep(now); removed > 0 {
			log.Printf("[Scheduler] Swept %d expired sessions", removed)
		}
	}
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		s.cron.Start()
		s.started = true
		log.Printf("[Scheduler] Started")
	}
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		<-s.cron.Stop().Done()
		s.started = false
		log.Printf("[Scheduler] Stopped")
	}
}
