// Package services – Scheduler
//
// Scheduler draws the gift assignments once the configured deadline has
// passed, exactly once for the lifetime of the database:
//
//   - ARMED:    waiting for the deadline, or due but not yet executed.
//   - RUNNING:  snapshot taken; pairing and records being written.
//   - COMPLETE: has_run is durably true. Terminal.
//
// The in-memory timer is only a trigger. The durable scheduled_jobs row is
// the source of truth: OnStartup consults it on every process start, and a
// run writes all participant records and flips has_run in one transaction,
// so a crash at any point leaves either no records from that run or a
// completed job. The flip is a compare-and-set, so two processes racing on
// the same database cannot both commit a pairing.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/tbourn/go-gift-exchange/internal/derangement"
	"github.com/tbourn/go-gift-exchange/internal/domain"
	"github.com/tbourn/go-gift-exchange/internal/repo"
)

// SchedulerState is the lifecycle state of the assignment job.
type SchedulerState string

const (
	StateArmed    SchedulerState = "armed"
	StateRunning  SchedulerState = "running"
	StateComplete SchedulerState = "complete"
)

// SchedulerStatus is a point-in-time view of the job for status endpoints.
type SchedulerStatus struct {
	State            SchedulerState `json:"state"`
	Deadline         time.Time      `json:"deadline"`
	HasRun           bool           `json:"has_run"`
	RanAt            *time.Time     `json:"ran_at,omitempty"`
	ParticipantCount int            `json:"participant_count"`
	Registered       int64          `json:"registered"`
	Attempts         int            `json:"attempts"`
	LastError        string         `json:"last_error,omitempty"`
}

// Timer is the subset of *time.Timer the scheduler needs.
type Timer interface {
	Stop() bool
}

// Scheduler arms, runs, and reports the one-shot assignment job.
type Scheduler struct {
	DB       *gorm.DB
	Deadline time.Time
	JobName  string

	// Shuffler drives the draw; nil means a fresh crypto-seeded generator
	// per run.
	Shuffler derangement.Shuffler

	// RetryInterval re-arms the timer after a failed run. Zero disables
	// in-process retries; restart recovery still applies.
	RetryInterval time.Duration

	// Now and AfterFunc are the clock and timer; they default to the time
	// package.
	Now       func() time.Time
	AfterFunc func(d time.Duration, f func()) Timer

	Logger zerolog.Logger

	runMu sync.Mutex // serializes runs within the process

	mu      sync.Mutex
	state   SchedulerState
	timer   Timer
	closed  bool
	baseCtx context.Context
}

// NewScheduler constructs a Scheduler for the given deadline.
func NewScheduler(db *gorm.DB, deadline time.Time) *Scheduler {
	return &Scheduler{
		DB:       db,
		Deadline: deadline,
		JobName:  domain.AssignmentJobName,
		Now:      time.Now,
		AfterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
		Logger: log.With().Str("component", "scheduler").Logger(),
		state:  StateArmed,
	}
}

// OnStartup must be called on every process start. It records the job row if
// missing and then, depending on the durable state:
//   - has_run already true: marks the scheduler COMPLETE, writes nothing.
//   - deadline passed: runs the draw synchronously and returns its outcome.
//   - otherwise: arms a timer for the deadline.
//
// Calling it again is safe; an existing timer is replaced.
func (s *Scheduler) OnStartup(ctx context.Context, now time.Time) error {
	job, err := repo.EnsureJob(ctx, s.DB, s.jobName(), s.Deadline)
	if err != nil {
		return fmt.Errorf("load scheduled job: %w", err)
	}

	s.mu.Lock()
	s.closed = false
	s.baseCtx = context.WithoutCancel(ctx)
	s.mu.Unlock()

	if !job.Deadline.Equal(s.Deadline.UTC()) {
		s.Logger.Warn().
			Time("stored_deadline", job.Deadline).
			Time("configured_deadline", s.Deadline).
			Msg("configured deadline differs from the one recorded at first start")
	}

	if job.HasRun {
		s.setState(StateComplete)
		assignmentCompleted.Set(1)
		s.Logger.Info().Time("ran_at", deref(job.RanAt)).Int("participants", job.ParticipantCount).
			Msg("assignments already drawn; nothing to do")
		return nil
	}
	assignmentCompleted.Set(0)

	if now.Before(s.Deadline) {
		wait := s.Deadline.Sub(now)
		s.arm(wait)
		s.Logger.Info().Time("deadline", s.Deadline).Dur("in", wait).Msg("assignment run armed")
		return nil
	}

	s.Logger.Info().Time("deadline", s.Deadline).Msg("deadline passed without a completed run; catching up")
	if err := s.Run(ctx); err != nil {
		if errors.Is(err, ErrNotDue) {
			// now was sampled ahead of the scheduler clock.
			s.arm(s.Deadline.Sub(s.now()))
			return nil
		}
		s.scheduleRetry()
		return err
	}
	return nil
}

// OnShutdown cancels any pending timer. Durable state is untouched, so the
// next OnStartup resumes from the database.
func (s *Scheduler) OnShutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Run executes the draw if the deadline has passed and it has not completed
// yet. It returns nil when the job is (now or already) complete.
func (s *Scheduler) Run(ctx context.Context) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	now := s.now()
	if now.Before(s.Deadline) {
		return ErrNotDue
	}

	ctx, span := otel.Tracer("services/Scheduler").Start(ctx, "Run")
	defer span.End()

	if _, err := repo.EnsureJob(ctx, s.DB, s.jobName(), s.Deadline); err != nil {
		return fmt.Errorf("load scheduled job: %w", err)
	}

	s.setState(StateRunning)
	start := time.Now()

	var (
		skipped bool
		count   int
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := repo.LockJob(ctx, tx, s.jobName())
		if err != nil {
			return err
		}
		if job.HasRun {
			skipped = true
			return nil
		}

		snapshot, err := repo.ListParticipants(ctx, tx)
		if err != nil {
			return err
		}
		if err := s.assign(ctx, tx, snapshot, now); err != nil {
			return err
		}
		count = len(snapshot)
		return repo.MarkJobComplete(ctx, tx, s.jobName(), now, count)
	})
	if errors.Is(err, repo.ErrAlreadyRun) {
		skipped, err = true, nil
	}

	if err != nil {
		s.setState(StateArmed)
		outcome := outcomeFailed
		if errors.Is(err, ErrInsufficientParticipants) {
			outcome = outcomeInsufficient
		}
		assignmentRuns.WithLabelValues(outcome).Inc()
		span.RecordError(err)
		if ferr := repo.RecordJobFailure(context.WithoutCancel(ctx), s.DB, s.jobName(), err.Error()); ferr != nil {
			s.Logger.Error().Err(ferr).Msg("could not record run failure")
		}
		s.Logger.Error().Err(err).Str("outcome", outcome).Msg("assignment run aborted; has_run left false")
		return err
	}

	s.setState(StateComplete)
	assignmentCompleted.Set(1)
	if skipped {
		assignmentRuns.WithLabelValues(outcomeSkipped).Inc()
		s.Logger.Info().Msg("assignment run skipped; already complete")
		return nil
	}

	assignmentRuns.WithLabelValues(outcomeCompleted).Inc()
	assignmentRunDuration.Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.Int("participants", count))
	s.Logger.Info().Int("participants", count).Dur("took", time.Since(start)).Msg("assignments drawn and recorded")
	return nil
}

// assign draws the pairing for snapshot and writes one record per giver.
func (s *Scheduler) assign(ctx context.Context, tx *gorm.DB, snapshot []domain.Participant, at time.Time) error {
	ids := make([]string, len(snapshot))
	byID := make(map[string]*domain.Participant, len(snapshot))
	for i := range snapshot {
		ids[i] = snapshot[i].Identity
		byID[ids[i]] = &snapshot[i]
	}

	shuffler := s.Shuffler
	if shuffler == nil {
		rng, err := derangement.NewSecureShuffler()
		if err != nil {
			return err
		}
		shuffler = rng
	}

	pairs, err := derangement.Generate(ids, shuffler)
	if err != nil {
		return err
	}

	for _, giver := range ids {
		recipient := byID[pairs[giver]]
		if err := repo.RecordAssignment(ctx, tx, giver, recipient.Identity, FormatAssignment(recipient), at); err != nil {
			return fmt.Errorf("record assignment for %q: %w", giver, err)
		}
	}
	return nil
}

// Status reports the durable job state merged with the in-process state.
func (s *Scheduler) Status(ctx context.Context) (*SchedulerStatus, error) {
	st := &SchedulerStatus{State: s.State(), Deadline: s.Deadline}

	job, err := repo.GetJob(ctx, s.DB, s.jobName())
	switch {
	case errors.Is(err, repo.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		st.HasRun = job.HasRun
		st.RanAt = job.RanAt
		st.ParticipantCount = job.ParticipantCount
		st.Attempts = job.Attempts
		st.LastError = job.LastError
		if job.HasRun {
			st.State = StateComplete
		}
	}

	if st.Registered, err = repo.CountParticipants(ctx, s.DB); err != nil {
		return nil, err
	}
	return st, nil
}

// State returns the in-process lifecycle state.
func (s *Scheduler) State() SchedulerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == "" {
		return StateArmed
	}
	return s.state
}

// FormatAssignment renders the record a giver reads about their recipient.
// Contact and wishes are captured as they are at draw time.
func FormatAssignment(recipient *domain.Participant) string {
	var b strings.Builder
	b.WriteString("You are gifting to: ")
	b.WriteString(recipient.Identity)
	b.WriteString("\nContact: ")
	b.WriteString(orNone(recipient.ContactInfo))
	b.WriteString("\nWishes: ")
	b.WriteString(orNone(recipient.Wishes))
	return b.String()
}

// fire is the timer callback.
func (s *Scheduler) fire() {
	s.mu.Lock()
	s.timer = nil
	closed := s.closed
	ctx := s.baseCtx
	s.mu.Unlock()
	if closed {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	err := s.Run(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotDue):
		// Wall clock lags the monotonic timer; wait out the remainder.
		s.arm(s.Deadline.Sub(s.now()))
	default:
		s.scheduleRetry()
	}
}

func (s *Scheduler) scheduleRetry() {
	if s.RetryInterval <= 0 {
		return
	}
	s.Logger.Info().Dur("in", s.RetryInterval).Msg("assignment run retry armed")
	s.arm(s.RetryInterval)
}

// arm replaces any pending timer with one firing after d.
func (s *Scheduler) arm(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	after := s.AfterFunc
	if after == nil {
		after = func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
	}
	s.timer = after(d, s.fire)
	if s.state != StateComplete {
		s.state = StateArmed
	}
}

func (s *Scheduler) setState(st SchedulerState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Scheduler) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Scheduler) jobName() string {
	if s.JobName == "" {
		return domain.AssignmentJobName
	}
	return s.JobName
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}

func deref(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
