package sched

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is one scheduled unit of work. It gets a context bounded by the job timeout.
type Job func(ctx context.Context)

// Scheduler runs jobs on cron specs ("@every 5m", "*/10 * * * *").
// Overlapping runs of the same job are skipped.
type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
	log     *zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler builds a UTC scheduler. timeout <= 0 defaults to 30s per run.
func NewScheduler(timeout time.Duration, logger *zerolog.Logger) *Scheduler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	l := logger.With().Str("component", "scheduler").Logger()
	cl := cronLogger{log: &l}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		timeout: timeout,
		log:     &l,
	}
}

// Add registers job under a cron schedule expression. It must be called before Start.
func (s *Scheduler) Add(schedule, name string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		parent := s.ctx
		if parent == nil {
			parent = context.Background()
		}
		ctx, cancel := context.WithTimeout(parent, s.timeout)
		defer cancel()
		start := time.Now()
		job(ctx)
		s.log.Debug().Str("job", name).Dur("duration", time.Since(start)).Msg("job finished")
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, schedule, err)
	}
	return nil
}

// Start begins running jobs; calling it twice has no effect.
func (s *Scheduler) Start(parent context.Context) {
	if s.ctx != nil {
		return
	}
	s.ctx, s.cancel = context.WithCancel(parent)
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("scheduler started")
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.cron.Stop().Done()
	s.ctx, s.cancel = nil, nil
	s.log.Info().Msg("scheduler stopped")
}

// cronLogger routes cron's own logging into zerolog.
type cronLogger struct {
	log *zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
