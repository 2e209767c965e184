package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/chris/copiloto/internal/notes"
)

// Scheduler runs periodic housekeeping. Today that is pruning notes the
// retention policy no longer allows.
type Scheduler struct {
	cron    *cron.Cron
	pruner  notes.Pruner
	timeout time.Duration
	now     func() time.Time
}

func New(pruner notes.Pruner) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		pruner:  pruner,
		timeout: time.Minute,
		now:     time.Now,
	}
}

// SchedulePrune registers the prune job on cronExpr. An empty expression
// leaves pruning off.
func (s *Scheduler) SchedulePrune(cronExpr string) error {
	if cronExpr == "" {
		log.Println("scheduler: note pruning disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(cronExpr, s.prune); err != nil {
		return fmt.Errorf("invalid cron %q: %w", cronExpr, err)
	}
	log.Printf("scheduler: pruning notes on %q", cronExpr)
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Println("scheduler started")
}

// Stop halts the cron and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	n, err := s.pruner.Prune(ctx, s.now())
	if err != nil {
		log.Printf("scheduler: pruning notes: %v", err)
		return
	}
	if n > 0 {
		log.Printf("scheduler: pruned %d note(s)", n)
	}
}
