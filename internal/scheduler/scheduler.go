package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrEmptySchedule is returned by New when no cron spec is given.
var ErrEmptySchedule = errors.New("empty rebuild schedule")

// Job is the unit of work run on every tick, usually (*Pipeline).Rebuild.
type Job func(ctx context.Context) error

var runs = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "search_index_scheduled_runs_total",
		Help: "Scheduled search index rebuilds by result.",
	},
	[]string{"result"},
)

func init() {
	prometheus.MustRegister(runs)
}

// Scheduler runs a Job on a cron schedule. Overlapping ticks are skipped while
// a run is still in progress.
type Scheduler struct {
	cron    *cron.Cron
	spec    string
	job     Job
	timeout time.Duration

	mu      sync.Mutex
	entryID cron.EntryID
	started bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithTimeout bounds every run. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) { s.timeout = d }
}

// WithLocation evaluates the schedule in loc instead of UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.cron = newCron(loc)
		}
	}
}

func newCron(loc *time.Location) *cron.Cron {
	logger := cronLogger{l: log.Logger.With().Str("component", "scheduler").Logger()}
	return cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
}

// New parses spec (standard five-field cron syntax or descriptors such as
// "@every 30m" and "@hourly") and registers job. The scheduler is idle until
// Start is called.
func New(spec string, job Job, opts ...Option) (*Scheduler, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, ErrEmptySchedule
	}
	if job == nil {
		return nil, errors.New("nil scheduler job")
	}
	s := &Scheduler{cron: newCron(time.UTC), spec: spec, job: job}
	for _, o := range opts {
		o(s)
	}
	id, err := s.cron.AddFunc(spec, s.run)
	if err != nil {
		return nil, fmt.Errorf("parse rebuild schedule %q: %w", spec, err)
	}
	s.entryID = id
	return s, nil
}

func (s *Scheduler) run() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	start := time.Now()
	if err := s.job(ctx); err != nil {
		runs.WithLabelValues("error").Inc()
		log.Error().Err(err).Str("schedule", s.spec).Msg("scheduled rebuild failed")
		return
	}
	runs.WithLabelValues("ok").Inc()
	log.Debug().Str("schedule", s.spec).Dur("took", time.Since(start)).Msg("scheduled rebuild done")
}

// Start begins firing the job. It is a no-op when already started.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.cron.Start()
	s.started = true
	log.Info().Str("schedule", s.spec).Time("next", s.Next()).Msg("index rebuild scheduler started")
}

// Stop halts the schedule and waits for a running job to finish or for ctx to
// expire, whichever comes first.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	done := s.cron.Stop()
	s.mu.Unlock()

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next returns the next activation time, or the zero time when the scheduler
// has not been started.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entryID).Next
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	l zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
