package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tbourn/go-gift-exchange/internal/derangement"
	"github.com/tbourn/go-gift-exchange/internal/domain"
	"github.com/tbourn/go-gift-exchange/internal/repo"
)

// ----- Fake timer and clock -----

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type schedulerHarness struct {
	db     *gorm.DB
	sched  *Scheduler
	mu     sync.Mutex
	clock  time.Time
	timers []*fakeTimer
}

var testDeadline = time.Date(2025, 12, 24, 18, 0, 0, 0, time.UTC)

func newSchedulerHarness(t *testing.T, db *gorm.DB) *schedulerHarness {
	t.Helper()
	if db == nil {
		db = newServiceDB(t)
	}
	h := &schedulerHarness{db: db, clock: testDeadline.Add(-time.Hour)}
	s := NewScheduler(db, testDeadline)
	s.Shuffler = derangement.NewSeededShuffler(7)
	s.Now = func() time.Time {
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.clock
	}
	s.AfterFunc = func(d time.Duration, f func()) Timer {
		h.mu.Lock()
		defer h.mu.Unlock()
		ft := &fakeTimer{d: d, f: f}
		h.timers = append(h.timers, ft)
		return ft
	}
	h.sched = s
	return h
}

func (h *schedulerHarness) setClock(t time.Time) {
	h.mu.Lock()
	h.clock = t
	h.mu.Unlock()
}

func (h *schedulerHarness) lastTimer(t *testing.T) *fakeTimer {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	require.NotEmpty(t, h.timers, "no timer armed")
	return h.timers[len(h.timers)-1]
}

func (h *schedulerHarness) register(t *testing.T, ids ...string) {
	t.Helper()
	for _, id := range ids {
		_, err := repo.CreateParticipant(context.Background(), h.db, id, "hash")
		require.NoError(t, err)
	}
}

func (h *schedulerHarness) participants(t *testing.T) map[string]domain.Participant {
	t.Helper()
	list, err := repo.ListParticipants(context.Background(), h.db)
	require.NoError(t, err)
	out := make(map[string]domain.Participant, len(list))
	for _, p := range list {
		out[p.Identity] = p
	}
	return out
}

func (h *schedulerHarness) job(t *testing.T) *domain.ScheduledJob {
	t.Helper()
	job, err := repo.GetJob(context.Background(), h.db, domain.AssignmentJobName)
	require.NoError(t, err)
	return job
}

// requireSingleCycle checks every participant gifts to someone else and that
// following the chain from any start visits everyone before returning.
func requireSingleCycle(t *testing.T, ps map[string]domain.Participant) {
	t.Helper()
	var start string
	for id, p := range ps {
		require.NotNil(t, p.AssignedTo, "%s has no assignment", id)
		require.NotEqual(t, id, *p.AssignedTo, "%s gifts to themself", id)
		start = id
	}
	seen := map[string]bool{}
	cur := start
	for range ps {
		require.False(t, seen[cur], "cycle closed early at %s", cur)
		seen[cur] = true
		cur = *ps[cur].AssignedTo
	}
	require.Equal(t, start, cur)
	require.Len(t, seen, len(ps))
}

// ----- Tests -----

func TestOnStartup_BeforeDeadline_ArmsTimerAndWritesNothing(t *testing.T) {
	h := newSchedulerHarness(t, nil)
	h.register(t, "ann", "bob", "cy")

	require.NoError(t, h.sched.OnStartup(context.Background(), h.sched.Now()))

	tm := h.lastTimer(t)
	assert.Equal(t, time.Hour, tm.d)
	assert.Equal(t, StateArmed, h.sched.State())
	assert.False(t, h.job(t).HasRun)
	for id, p := range h.participants(t) {
		assert.False(t, p.HasAssignment(), "%s assigned before deadline", id)
	}
}

func TestTimerFire_DrawsThreeCycleAndRecords(t *testing.T) {
	h := newSchedulerHarness(t, nil)
	h.register(t, "ann", "bob", "cy")
	ctx := context.Background()
	require.NoError(t, repo.UpdateWishes(ctx, h.db, "bob", "a kite"))
	require.NoError(t, repo.UpdateContact(ctx, h.db, "bob", "bob@example.com"))

	require.NoError(t, h.sched.OnStartup(ctx, h.sched.Now()))
	h.setClock(testDeadline)
	h.lastTimer(t).f()

	job := h.job(t)
	require.True(t, job.HasRun)
	assert.Equal(t, 3, job.ParticipantCount)
	assert.Equal(t, 1, job.Attempts)
	require.NotNil(t, job.RanAt)
	assert.True(t, job.RanAt.Equal(testDeadline))
	assert.Equal(t, StateComplete, h.sched.State())

	ps := h.participants(t)
	requireSingleCycle(t, ps)
	for _, p := range ps {
		if *p.AssignedTo == "bob" {
			assert.Equal(t, "You are gifting to: bob\nContact: bob@example.com\nWishes: a kite", *p.AssignmentRecord)
		} else {
			assert.Contains(t, *p.AssignmentRecord, "Contact: (none)\nWishes: (none)")
		}
	}
}

func TestRun_TwoParticipantsSwap(t *testing.T) {
	h := newSchedulerHarness(t, nil)
	h.register(t, "ann", "bob")
	h.setClock(testDeadline.Add(time.Minute))

	require.NoError(t, h.sched.Run(context.Background()))

	ps := h.participants(t)
	assert.Equal(t, "bob", *ps["ann"].AssignedTo)
	assert.Equal(t, "ann", *ps["bob"].AssignedTo)
	assert.True(t, strings.HasPrefix(*ps["ann"].AssignmentRecord, "You are gifting to: bob\n"))
}

func TestRun_NotDueBeforeDeadline(t *testing.T) {
	h := newSchedulerHarness(t, nil)
	h.register(t, "ann", "bob")

	err := h.sched.Run(context.Background())
	require.ErrorIs(t, err, ErrNotDue)
	_, err = repo.GetJob(context.Background(), h.db, domain.AssignmentJobName)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestRun_InsufficientParticipants_LeavesFlagFalse(t *testing.T) {
	for _, ids := range [][]string{nil, {"ann"}} {
		h := newSchedulerHarness(t, nil)
		h.register(t, ids...)
		h.setClock(testDeadline)

		err := h.sched.Run(context.Background())
		require.ErrorIs(t, err, ErrInsufficientParticipants)

		job := h.job(t)
		assert.False(t, job.HasRun)
		assert.Equal(t, 1, job.Attempts)
		assert.NotEmpty(t, job.LastError)
		assert.Equal(t, StateArmed, h.sched.State())
		for _, p := range h.participants(t) {
			assert.False(t, p.HasAssignment())
		}
	}
}

func TestOnStartup_AfterDeadline_CatchesUpSynchronously(t *testing.T) {
	h := newSchedulerHarness(t, nil)
	h.register(t, "ann", "bob", "cy", "dee")
	h.setClock(testDeadline.Add(72 * time.Hour))

	require.NoError(t, h.sched.OnStartup(context.Background(), h.sched.Now()))

	assert.True(t, h.job(t).HasRun)
	assert.Empty(t, h.timers)
	requireSingleCycle(t, h.participants(t))
}

func TestOnStartup_AfterCompletion_IsNoOp(t *testing.T) {
	db := newServiceDB(t)
	first := newSchedulerHarness(t, db)
	first.register(t, "ann", "bob", "cy")
	first.setClock(testDeadline)
	require.NoError(t, first.sched.Run(context.Background()))
	before := first.participants(t)

	// A new process against the same database.
	second := newSchedulerHarness(t, db)
	second.sched.Shuffler = derangement.NewSeededShuffler(99)
	second.setClock(testDeadline.Add(24 * time.Hour))
	require.NoError(t, second.sched.OnStartup(context.Background(), second.sched.Now()))

	assert.Equal(t, StateComplete, second.sched.State())
	assert.Empty(t, second.timers)
	after := second.participants(t)
	for id, p := range before {
		assert.Equal(t, *p.AssignmentRecord, *after[id].AssignmentRecord)
		assert.True(t, p.AssignedAt.Equal(*after[id].AssignedAt))
	}
	assert.Equal(t, 1, second.job(t).Attempts)

	// An explicit Run is skipped as well.
	require.NoError(t, second.sched.Run(context.Background()))
	assert.Equal(t, 1, second.job(t).Attempts)
}

func TestRun_LateRegistrantIsNotAssigned(t *testing.T) {
	h := newSchedulerHarness(t, nil)
	h.register(t, "ann", "bob", "cy")
	h.setClock(testDeadline)
	require.NoError(t, h.sched.Run(context.Background()))

	h.register(t, "late")
	require.NoError(t, h.sched.Run(context.Background()))

	ps := h.participants(t)
	late := ps["late"]
	assert.False(t, late.HasAssignment())
	for id, p := range ps {
		if id != "late" {
			assert.NotEqual(t, "late", *p.AssignedTo)
		}
	}
	assert.Equal(t, 3, h.job(t).ParticipantCount)
}

func TestRecordsAreFrozenAfterDraw(t *testing.T) {
	h := newSchedulerHarness(t, nil)
	h.register(t, "ann", "bob")
	ctx := context.Background()
	require.NoError(t, repo.UpdateWishes(ctx, h.db, "bob", "socks"))
	h.setClock(testDeadline)
	require.NoError(t, h.sched.Run(ctx))

	require.NoError(t, repo.UpdateWishes(ctx, h.db, "bob", "a bicycle"))

	ps := h.participants(t)
	assert.Contains(t, *ps["ann"].AssignmentRecord, "Wishes: socks")
	assert.Equal(t, "a bicycle", ps["bob"].Wishes)
}

func TestOnShutdown_StopsTimerAndSuppressesFire(t *testing.T) {
	h := newSchedulerHarness(t, nil)
	h.register(t, "ann", "bob")
	require.NoError(t, h.sched.OnStartup(context.Background(), h.sched.Now()))
	tm := h.lastTimer(t)

	h.sched.OnShutdown()
	assert.True(t, tm.stopped)

	h.setClock(testDeadline)
	tm.f()
	assert.False(t, h.job(t).HasRun)
}

func TestOnStartup_ReplacesExistingTimer(t *testing.T) {
	h := newSchedulerHarness(t, nil)
	ctx := context.Background()
	require.NoError(t, h.sched.OnStartup(ctx, h.sched.Now()))
	first := h.lastTimer(t)
	require.NoError(t, h.sched.OnStartup(ctx, h.sched.Now()))

	assert.True(t, first.stopped)
	assert.Len(t, h.timers, 2)
}

func TestFire_EarlyRearmsForRemainder(t *testing.T) {
	h := newSchedulerHarness(t, nil)
	h.register(t, "ann", "bob")
	require.NoError(t, h.sched.OnStartup(context.Background(), h.sched.Now()))

	h.setClock(testDeadline.Add(-2 * time.Second))
	h.lastTimer(t).f()

	assert.False(t, h.job(t).HasRun)
	assert.Equal(t, 2*time.Second, h.lastTimer(t).d)

	h.setClock(testDeadline)
	h.lastTimer(t).f()
	assert.True(t, h.job(t).HasRun)
}

func TestOnStartup_NowPastDeadlineButClockIsNot_ArmsForRemainder(t *testing.T) {
	h := newSchedulerHarness(t, nil)
	h.sched.RetryInterval = 5 * time.Minute
	h.register(t, "ann", "bob")
	h.setClock(testDeadline.Add(-3 * time.Second))

	require.NoError(t, h.sched.OnStartup(context.Background(), testDeadline.Add(time.Minute)))

	assert.Equal(t, 3*time.Second, h.lastTimer(t).d)
	assert.Equal(t, StateArmed, h.sched.State())
	job := h.job(t)
	assert.False(t, job.HasRun)
	assert.Zero(t, job.Attempts)
	assert.Empty(t, job.LastError)
}

func TestRun_WriteFailureMidDraw_RollsBackEveryRecord(t *testing.T) {
	h := newSchedulerHarness(t, nil)
	h.register(t, "ann", "bob", "cy", "dee")

	var updates int
	err := h.db.Callback().Update().Before("gorm:update").Register("test:fail_third_assignment", func(tx *gorm.DB) {
		if tx.Statement.Table != "participants" {
			return
		}
		updates++
		if updates == 3 {
			_ = tx.AddError(errors.New("injected write failure"))
		}
	})
	require.NoError(t, err)

	h.setClock(testDeadline)
	err = h.sched.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "injected write failure")
	assert.Equal(t, 3, updates)

	for id, p := range h.participants(t) {
		assert.False(t, p.HasAssignment(), "%s kept a partial record", id)
		assert.Nil(t, p.AssignedTo, id)
	}
	job := h.job(t)
	assert.False(t, job.HasRun)
	assert.Equal(t, 1, job.Attempts)
	assert.Contains(t, job.LastError, "record assignment")
	assert.Equal(t, StateArmed, h.sched.State())
}

func TestFailedRun_RetriesOnInterval(t *testing.T) {
	h := newSchedulerHarness(t, nil)
	h.sched.RetryInterval = 5 * time.Minute
	h.register(t, "ann")
	h.setClock(testDeadline)

	err := h.sched.OnStartup(context.Background(), h.sched.Now())
	require.ErrorIs(t, err, ErrInsufficientParticipants)
	retry := h.lastTimer(t)
	assert.Equal(t, 5*time.Minute, retry.d)

	h.register(t, "bob")
	h.setClock(testDeadline.Add(5 * time.Minute))
	retry.f()

	job := h.job(t)
	assert.True(t, job.HasRun)
	assert.Equal(t, 2, job.Attempts)
	assert.Empty(t, job.LastError)
	assert.Equal(t, 2, job.ParticipantCount)
}

func TestFailedRun_NoRetryWhenDisabled(t *testing.T) {
	h := newSchedulerHarness(t, nil)
	h.register(t, "ann")
	h.setClock(testDeadline)

	err := h.sched.OnStartup(context.Background(), h.sched.Now())
	require.Error(t, err)
	assert.Empty(t, h.timers)
}

func TestRun_ConcurrentCallsDrawOnce(t *testing.T) {
	h := newSchedulerHarness(t, nil)
	h.register(t, "ann", "bob", "cy", "dee", "eve")
	h.setClock(testDeadline)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = h.sched.Run(context.Background())
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, h.job(t).Attempts)
	requireSingleCycle(t, h.participants(t))
}

func TestStatus(t *testing.T) {
	h := newSchedulerHarness(t, nil)
	ctx := context.Background()

	st, err := h.sched.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateArmed, st.State)
	assert.False(t, st.HasRun)
	assert.True(t, st.Deadline.Equal(testDeadline))

	h.register(t, "ann", "bob")
	h.setClock(testDeadline)
	require.NoError(t, h.sched.Run(ctx))

	st, err = h.sched.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateComplete, st.State)
	assert.True(t, st.HasRun)
	assert.Equal(t, 2, st.ParticipantCount)
	assert.EqualValues(t, 2, st.Registered)
	require.NotNil(t, st.RanAt)
}

func TestFormatAssignment(t *testing.T) {
	got := FormatAssignment(&domain.Participant{Identity: "bob", ContactInfo: "  ", Wishes: "tea"})
	want := "You are gifting to: bob\nContact: (none)\nWishes: tea"
	if got != want {
		t.Fatalf("FormatAssignment = %q, want %q", got, want)
	}
}
