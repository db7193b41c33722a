package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/adhocore/gronx"
	"github.com/rs/zerolog"

	"telegram-media-relay/internal/domain"
	"telegram-media-relay/internal/domain/model"
	"telegram-media-relay/internal/infra/logging"
	"telegram-media-relay/internal/infra/metrics"
)

// Runner executes one scheduled post for a folder.
type Runner interface {
	RunScheduled(ctx context.Context, folder string) error
}

// Locker claims a trigger slot so that replicas sharing the lock store post it once.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) error
}

type Options struct {
	PollInterval time.Duration // default 1s
	JobTimeout   time.Duration // default 5m
	Location     *time.Location
	Locker       Locker // optional
}

type job struct {
	entry model.ScheduleEntry
	next  time.Time
	last  *time.Time
}

// Scheduler fires each entry's Runner call when its cron trigger passes.
// Runs are executed one at a time on the scheduler goroutine; triggers missed
// while the process was down are not caught up.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	timeout  time.Duration
	loc      *time.Location
	locker   Locker
	log      *zerolog.Logger
	now      func() time.Time

	mu    sync.Mutex // guards jobs
	jobs  []*job
	runMu sync.Mutex // one run at a time, cron or manual

	lifeMu sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(entries []model.ScheduleEntry, runner Runner, opts Options, logger *zerolog.Logger) (*Scheduler, error) {
	if runner == nil {
		return nil, fmt.Errorf("%w: runner is nil", domain.ErrInvalidArgument)
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = 5 * time.Minute
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	gron := gronx.New()
	seen := make(map[string]struct{}, len(entries))
	jobs := make([]*job, 0, len(entries))
	for _, e := range entries {
		entry, err := model.NewScheduleEntry(e.Name, e.Cron, e.Folder)
		if err != nil {
			return nil, err
		}
		if !gron.IsValid(entry.Cron) {
			return nil, fmt.Errorf("%w: schedule %q has invalid cron %q", domain.ErrInvalidArgument, entry.Name, entry.Cron)
		}
		if _, dup := seen[entry.Name]; dup {
			return nil, fmt.Errorf("%w: schedule %q is defined twice", domain.ErrInvalidArgument, entry.Name)
		}
		seen[entry.Name] = struct{}{}
		jobs = append(jobs, &job{entry: *entry})
	}

	schedLog := logger.With().Str("component", "Scheduler").Logger()
	return &Scheduler{
		runner:   runner,
		interval: opts.PollInterval,
		timeout:  opts.JobTimeout,
		loc:      opts.Location,
		locker:   opts.Locker,
		log:      &schedLog,
		now:      time.Now,
		jobs:     jobs,
	}, nil
}

// Start computes the next trigger of every entry from the current time and
// begins polling. Calling Start on a running scheduler has no effect.
func (s *Scheduler) Start(parent context.Context) error {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	if s.cancel != nil {
		return nil
	}
	if err := s.plan(s.now()); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)
	return nil
}

// Stop cancels the polling loop and waits for an in-flight run. It is idempotent.
func (s *Scheduler) Stop() {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
	s.log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer func() {
		ticker.Stop()
		close(done)
	}()

	s.log.Info().Dur("interval", s.interval).Int("entries", len(s.jobs)).Msg("scheduler started")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, s.now())
		}
	}
}

// plan sets every entry's next trigger to the first one after the minute containing from.
func (s *Scheduler) plan(from time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		next, err := s.nextAfter(j.entry.Cron, from)
		if err != nil {
			return fmt.Errorf("schedule %q: %w", j.entry.Name, err)
		}
		j.next = next
		s.log.Info().Str("schedule", j.entry.Name).Time("next_run", next).Msg("schedule planned")
	}
	return nil
}

// nextAfter resolves cron triggers at minute granularity in the scheduler's zone.
func (s *Scheduler) nextAfter(expr string, ref time.Time) (time.Time, error) {
	return gronx.NextTickAfter(expr, ref.In(s.loc).Truncate(time.Minute), false)
}

// tick fires every entry whose trigger is due at now, then moves it to its next trigger.
func (s *Scheduler) tick(ctx context.Context, now time.Time) {
	s.mu.Lock()
	due := make([]*job, 0, 1)
	for _, j := range s.jobs {
		if !j.next.IsZero() && !now.Before(j.next) {
			due = append(due, j)
		}
	}
	s.mu.Unlock()

	for _, j := range due {
		if ctx.Err() != nil {
			return
		}
		s.mu.Lock()
		entry, slot := j.entry, j.next
		s.mu.Unlock()

		if s.claim(ctx, entry.Name, slot) {
			s.execute(ctx, j, entry)
		}

		ref := s.now()
		if ref.Before(slot) {
			ref = slot
		}
		next, err := s.nextAfter(entry.Cron, ref)
		s.mu.Lock()
		if err != nil {
			s.log.Error().Err(err).Str("schedule", entry.Name).Msg("failed to compute next run; entry disabled")
			j.next = time.Time{}
		} else {
			j.next = next
		}
		s.mu.Unlock()
	}
}

// claim reports whether this process owns the trigger slot. Without a locker it always does.
func (s *Scheduler) claim(ctx context.Context, name string, slot time.Time) bool {
	if s.locker == nil {
		return true
	}
	key := fmt.Sprintf("schedule_lock:%s:%d", name, slot.Unix())
	// held past the run so that a late replica sees the slot as taken
	err := s.locker.TryLock(ctx, key, s.timeout+time.Hour)
	switch {
	case err == nil:
		return true
	case errors.Is(err, domain.ErrLocked):
		s.log.Info().Str("schedule", name).Time("slot", slot).Msg("slot already claimed by another instance")
		return false
	default:
		s.log.Warn().Err(err).Str("schedule", name).Msg("slot lock unavailable, running anyway")
		return true
	}
}

func (s *Scheduler) execute(ctx context.Context, j *job, entry model.ScheduleEntry) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	defer logging.TraceDuration(s.log, "Scheduler.execute")()

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := s.now()
	err := s.runner.RunScheduled(runCtx, entry.Folder)

	s.mu.Lock()
	j.last = &started
	s.mu.Unlock()

	if err != nil {
		metrics.IncScheduledRun(entry.Name, "failed")
		s.log.Error().Err(err).Str("schedule", entry.Name).Str("folder", entry.Folder).Msg("scheduled run failed")
		return err
	}
	metrics.IncScheduledRun(entry.Name, "ok")
	s.log.Info().Str("schedule", entry.Name).Dur("took", s.now().Sub(started)).Msg("scheduled run finished")
	return nil
}

// RunNow fires the named entry immediately without moving its next trigger.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	var target *job
	for _, j := range s.jobs {
		if j.entry.Name == name {
			target = j
			break
		}
	}
	s.mu.Unlock()
	if target == nil {
		return fmt.Errorf("%w: schedule %q", domain.ErrNotFound, name)
	}
	return s.execute(ctx, target, target.entry)
}

// Entries returns every entry with its next and last trigger, in configuration order.
func (s *Scheduler) Entries() []model.ScheduleStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ScheduleStatus, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, model.ScheduleStatus{ScheduleEntry: j.entry, NextRun: j.next, LastRun: j.last})
	}
	return out
}
