// package scheduler runs registered jobs on cron schedules by polling for due jobs.
//
// Jobs run inline on the polling goroutine, one at a time, so a slow job delays the next poll instead of
// overlapping with another run.
package scheduler

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dwarchive/internal/models"
	"github.com/desertthunder/dwarchive/internal/shared"
	"github.com/robfig/cron/v3"
)

const DefaultPollInterval = time.Second

// JobFunc is the work of a job. trigger tells it whether it runs on schedule or as a catch-up run.
type JobFunc func(ctx context.Context, trigger models.Trigger) error

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Job is a registered job.
type Job struct {
	name     string
	spec     string
	schedule cron.Schedule
	fn       JobFunc

	mu      sync.Mutex
	next    time.Time
	lastRun time.Time
	lastErr error
	runs    int
}

func (j *Job) Name() string { return j.name }
func (j *Job) Spec() string { return j.spec }

// Next returns when the job is next due.
func (j *Job) Next() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.next
}

// LastRun returns when the job last started, or the zero time.
func (j *Job) LastRun() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastRun
}

// LastErr returns the error of the last run.
func (j *Job) LastErr() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastErr
}

// Runs returns how many times the job has run.
func (j *Job) Runs() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.runs
}

func (j *Job) due(now time.Time) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return !now.Before(j.next)
}

// Option configures a [Scheduler].
type Option func(*Scheduler)

// WithLocation evaluates cron expressions in loc.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithInterval sets how often [Scheduler.Start] polls for due jobs.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithClock replaces the time source.
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithLogger sets the logger for job runs.
func WithLogger(l *log.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// Scheduler holds jobs and runs them when due.
type Scheduler struct {
	mu       sync.Mutex
	jobs     []*Job
	location *time.Location
	interval time.Duration
	clock    Clock
	logger   *log.Logger
}

// New creates a scheduler polling every second in the local time zone.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		location: time.Local,
		interval: DefaultPollInterval,
		clock:    systemClock{},
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = shared.WithLogger(s.logger, "component", "scheduler")
	return s
}

func (s *Scheduler) now() time.Time {
	return s.clock.Now().In(s.location)
}

// Every registers fn under name to run on the standard five-field cron expression expr (descriptors such as
// "@weekly" are accepted).
func (s *Scheduler) Every(name, expr string, fn JobFunc) (*Job, error) {
	if fn == nil {
		return nil, fmt.Errorf("%w: job %q has no function", shared.ErrInvalidArgument, name)
	}

	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: job %q: bad schedule %q: %v", shared.ErrInvalidArgument, name, expr, err)
	}

	job := &Job{name: name, spec: expr, schedule: schedule, fn: fn}
	job.next = schedule.Next(s.now())

	s.mu.Lock()
	s.jobs = append(s.jobs, job)
	s.mu.Unlock()

	s.logger.Debug("registered job", "job", name, "schedule", expr, "next", job.next)
	return job, nil
}

// Jobs returns the registered jobs.
func (s *Scheduler) Jobs() []*Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Job(nil), s.jobs...)
}

// NextRun returns the earliest time any job is due, or the zero time with no jobs.
func (s *Scheduler) NextRun() time.Time {
	var next time.Time
	for _, job := range s.Jobs() {
		if n := job.Next(); next.IsZero() || n.Before(next) {
			next = n
		}
	}
	return next
}

// RunAll runs every job now, regardless of schedule, and reschedules each from the current time.
func (s *Scheduler) RunAll(ctx context.Context) {
	for _, job := range s.Jobs() {
		if ctx.Err() != nil {
			return
		}
		s.run(ctx, job, models.TriggerCatchUp)
	}
}

// RunPending runs the jobs that are due and returns how many ran.
func (s *Scheduler) RunPending(ctx context.Context) int {
	now := s.now()
	ran := 0
	for _, job := range s.Jobs() {
		if ctx.Err() != nil {
			break
		}
		if job.due(now) {
			s.run(ctx, job, models.TriggerScheduled)
			ran++
		}
	}
	return ran
}

// Start optionally runs all jobs once, then polls for due jobs until ctx is done.
func (s *Scheduler) Start(ctx context.Context, catchUp bool) error {
	if catchUp {
		s.logger.Info("running catch-up for all jobs")
		s.RunAll(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("scheduler started", "jobs", len(s.Jobs()), "next", s.NextRun(), "poll", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return nil
		case <-ticker.C:
			s.RunPending(ctx)
		}
	}
}

// run executes job. Errors and panics are logged; the job stays scheduled either way.
func (s *Scheduler) run(ctx context.Context, job *Job, trigger models.Trigger) {
	start := s.now()
	logger := s.logger.With("job", job.name, "trigger", trigger)
	logger.Info("running job")

	err := call(ctx, job.fn, trigger)

	finished := s.now()
	job.mu.Lock()
	job.lastRun = start
	job.lastErr = err
	job.runs++
	job.next = job.schedule.Next(finished)
	next := job.next
	job.mu.Unlock()

	if err != nil {
		logger.Error("job failed", "error", err, "next", next)
		return
	}
	logger.Info("job finished", "took", finished.Sub(start), "next", next)
}

func call(ctx context.Context, fn JobFunc, trigger models.Trigger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return fn(ctx, trigger)
}
