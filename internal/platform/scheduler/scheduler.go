package scheduler

import (
	"context"
	"fmt"
	"time"

	"pill-tracker/internal/platform/logger"

	"github.com/robfig/cron/v3"
)

// Job es una tarea periódica. Recibe un ctx que se cancela en Stop.
type Job func(ctx context.Context) error

type Scheduler struct {
	engine *cron.Cron
	log    logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func New(log logger.Logger, loc *time.Location) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	if loc == nil {
		loc = time.UTC
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		engine: cron.New(cron.WithLocation(loc)),
		log:    log.With(map[string]any{"component": "scheduler"}),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registra un job con spec cron de 5 campos ("0 3 * * *").
func (s *Scheduler) Add(name, spec string, job Job) error {
	_, err := s.engine.AddFunc(spec, func() {
		s.run(name, job)
	})
	if err != nil {
		return fmt.Errorf("scheduler: add job %s (%q): %w", name, spec, err)
	}
	s.log.Info("job registered", map[string]any{"job": name, "spec": spec})
	return nil
}

func (s *Scheduler) run(name string, job Job) {
	started := time.Now()
	if err := job(s.ctx); err != nil {
		s.log.Error("job failed", map[string]any{"job": name, "err": err})
		return
	}
	s.log.Info("job finished", map[string]any{"job": name, "duration_ms": time.Since(started).Milliseconds()})
}

func (s *Scheduler) Start() {
	s.engine.Start()
}

// Stop cancela el ctx de los jobs y espera a los que estén corriendo.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.engine.Stop().Done()
}
