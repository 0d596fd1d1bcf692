package querycache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/studio/pkg/slogx"
	"github.com/stretchr/testify/require"
)

type calendarArg struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// backend is a counting data source whose value can be changed by tests.
type backend struct {
	calls atomic.Int32
	value atomic.Int32
	fail  atomic.Bool
}

func (b *backend) fetch(_ context.Context, arg calendarArg) (string, error) {
	b.calls.Add(1)
	if b.fail.Load() {
		return "", errors.New("backend down")
	}
	return arg.From + "#" + string(rune('0'+b.value.Load())), nil
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	return New("test", Config{Logger: slogx.Discard()})
}

func newCalendarQuery(c *Cache, b *backend) *Query[calendarArg, string] {
	return NewQuery(c, QueryDef[calendarArg, string]{
		Name:  "calendar",
		Fetch: b.fetch,
		Provides: func(calendarArg, string) []Tag {
			return Tags("Calendar")
		},
	})
}

func TestSubscribeServesFreshEntriesFromCache(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	b := &backend{}
	q := newCalendarQuery(newTestCache(t), b)
	week := calendarArg{From: "2026-01-05", To: "2026-01-11"}

	first, err := q.Subscribe(ctx, week, Options{}, nil)
	require.NoError(t, err)
	require.True(t, first.State().IsSuccess())
	require.Equal(t, "2026-01-05#0", first.State().Data)

	second, err := q.Subscribe(ctx, week, Options{}, nil)
	require.NoError(t, err)
	require.Equal(t, first.State().Data, second.State().Data)
	require.EqualValues(t, 1, b.calls.Load())

	_, err = q.Subscribe(ctx, calendarArg{From: "2026-01-12"}, Options{}, nil)
	require.NoError(t, err)
	require.EqualValues(t, 2, b.calls.Load())
}

func TestRefetchOnMountOrArgChange(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	b := &backend{}
	q := newCalendarQuery(newTestCache(t), b)
	week := calendarArg{From: "a"}

	_, err := q.Subscribe(ctx, week, Options{}, nil)
	require.NoError(t, err)

	sub, err := q.Subscribe(ctx, week, Options{RefetchOnMountOrArgChange: true}, nil)
	require.NoError(t, err)
	require.EqualValues(t, 2, b.calls.Load())

	// Same argument again is not an argument change.
	require.NoError(t, sub.Update(ctx, week, Options{RefetchOnMountOrArgChange: true}))
	require.EqualValues(t, 2, b.calls.Load())

	require.NoError(t, sub.Update(ctx, calendarArg{From: "b"}, Options{RefetchOnMountOrArgChange: true}))
	require.EqualValues(t, 3, b.calls.Load())
	require.Equal(t, "b#0", sub.State().Data)
}

func TestSkip(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	b := &backend{}
	c := newTestCache(t)
	q := newCalendarQuery(c, b)

	sub, err := q.Subscribe(ctx, calendarArg{From: "a"}, Options{Skip: true}, nil)
	require.NoError(t, err)
	require.Equal(t, Uninitialized, sub.State().Status)
	require.ErrorIs(t, sub.Refetch(ctx), ErrSkipped)
	require.Zero(t, b.calls.Load())
	require.Zero(t, c.Len())

	require.NoError(t, sub.Update(ctx, calendarArg{From: "a"}, Options{}))
	require.EqualValues(t, 1, b.calls.Load())
	require.True(t, sub.State().IsSuccess())
}

func TestConcurrentSubscribersShareOneRequest(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	var calls atomic.Int32
	q := NewQuery(newTestCache(t), QueryDef[string, int]{
		Name: "slow",
		Fetch: func(context.Context, string) (int, error) {
			calls.Add(1)
			<-release
			return 42, nil
		},
	})

	var wg sync.WaitGroup
	states := make([]State[int], 3)
	errs := make([]error, 3)
	for i := range states {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub, err := q.Subscribe(t.Context(), "k", Options{}, nil)
			states[i], errs[i] = sub.State(), err
		}()
	}

	require.Eventually(t, func() bool { return q.Select("k").IsFetching() }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	require.EqualValues(t, 1, calls.Load())
	for i, s := range states {
		require.NoError(t, errs[i])
		require.Equal(t, 42, s.Data)
	}
}

func TestAbandonedSubscriberDoesNotCancelRequest(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	var sawCancel atomic.Bool
	q := NewQuery(newTestCache(t), QueryDef[string, int]{
		Name: "slow",
		Fetch: func(ctx context.Context, _ string) (int, error) {
			<-release
			sawCancel.Store(ctx.Err() != nil)
			return 7, nil
		},
	})

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() {
		sub, err := q.Subscribe(ctx, "k", Options{}, nil)
		sub.Unsubscribe()
		done <- err
	}()

	require.Eventually(t, func() bool { return q.Select("k").IsFetching() }, time.Second, time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	close(release)
	require.Eventually(t, func() bool { return q.Select("k").IsSuccess() }, time.Second, time.Millisecond)
	require.Equal(t, 7, q.Select("k").Data)
	require.False(t, sawCancel.Load())
}

func TestMutationInvalidatesTags(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	b := &backend{}
	c := newTestCache(t)
	q := newCalendarQuery(c, b)

	observed, err := q.Subscribe(ctx, calendarArg{From: "observed"}, Options{}, nil)
	require.NoError(t, err)

	idle, err := q.Subscribe(ctx, calendarArg{From: "idle"}, Options{}, nil)
	require.NoError(t, err)
	idle.Unsubscribe()
	require.EqualValues(t, 2, b.calls.Load())

	var sideEffects int
	complete := NewMutation(c, MutationDef[string, string]{
		Name: "complete",
		Do: func(context.Context, string) (string, error) {
			b.value.Store(1)
			return "done", nil
		},
		Invalidates: func(string, string) []Tag { return Tags("Calendar") },
		OnSuccess:   func(context.Context, string, string) { sideEffects++ },
	})

	data, err := complete.Run(ctx, "session-1")
	require.NoError(t, err)
	require.Equal(t, "done", data)
	require.Equal(t, 1, sideEffects)
	require.True(t, complete.State().IsSuccess())

	// The observed entry was refetched before Run returned.
	require.EqualValues(t, 3, b.calls.Load())
	require.Equal(t, "observed#1", observed.State().Data)
	require.False(t, observed.State().Stale)

	// The idle entry is stale and refetches on its next observer.
	require.True(t, q.Select(calendarArg{From: "idle"}).Stale)
	again, err := q.Subscribe(ctx, calendarArg{From: "idle"}, Options{}, nil)
	require.NoError(t, err)
	require.Equal(t, "idle#1", again.State().Data)
	require.EqualValues(t, 4, b.calls.Load())
}

func TestMutationFailureDoesNotInvalidate(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	b := &backend{}
	c := newTestCache(t)
	q := newCalendarQuery(c, b)

	_, err := q.Subscribe(ctx, calendarArg{From: "a"}, Options{}, nil)
	require.NoError(t, err)

	boom := errors.New("SESSION_ALREADY_COMPLETED")
	m := NewMutation(c, MutationDef[string, string]{
		Name:        "complete",
		Do:          func(context.Context, string) (string, error) { return "", boom },
		Invalidates: func(string, string) []Tag { return Tags("Calendar") },
		OnSuccess:   func(context.Context, string, string) { t.Fatal("side effect on failure") },
	})

	_, err = m.Run(ctx, "x")
	require.ErrorIs(t, err, boom)
	require.True(t, m.State().IsError())
	require.ErrorIs(t, m.State().Err, boom)
	require.EqualValues(t, 1, b.calls.Load())

	m.Reset()
	require.Equal(t, Uninitialized, m.State().Status)
}

func TestMutationInvalidatesOtherCaches(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	b := &backend{}
	schedule := New("schedule", Config{Logger: slogx.Discard()})
	enrollment := New("enrollment", Config{Logger: slogx.Discard()})
	q := newCalendarQuery(schedule, b)

	sub, err := q.Subscribe(ctx, calendarArg{From: "a"}, Options{}, nil)
	require.NoError(t, err)

	enroll := NewMutation(enrollment, MutationDef[string, string]{
		Name:        "enroll",
		Do:          func(context.Context, string) (string, error) { b.value.Store(2); return "ok", nil },
		Invalidates: func(string, string) []Tag { return Tags("Enrollments", "Calendar") },
	}, schedule)

	_, err = enroll.Run(ctx, "group")
	require.NoError(t, err)
	require.Equal(t, "a#2", sub.State().Data)
}

func TestTagMatching(t *testing.T) {
	t.Parallel()

	require.True(t, TypeTag("Users").Invalidates(IDTag("Users", "1")))
	require.True(t, IDTag("Users", "1").Invalidates(IDTag("Users", "1")))
	require.False(t, IDTag("Users", "1").Invalidates(IDTag("Users", "2")))
	require.False(t, IDTag("Users", "1").Invalidates(TypeTag("Users")))
	require.False(t, TypeTag("Users").Invalidates(TypeTag("Payments")))

	ctx := t.Context()
	c := newTestCache(t)
	var calls atomic.Int32
	q := NewQuery(c, QueryDef[string, string]{
		Name:  "user",
		Fetch: func(_ context.Context, id string) (string, error) { calls.Add(1); return id, nil },
		Provides: func(id string, _ string) []Tag {
			return []Tag{IDTag("Users", id)}
		},
	})

	one, err := q.Subscribe(ctx, "1", Options{}, nil)
	require.NoError(t, err)
	_, err = q.Subscribe(ctx, "2", Options{}, nil)
	require.NoError(t, err)

	require.NoError(t, c.Invalidate(ctx, IDTag("Users", "1")))
	require.EqualValues(t, 3, calls.Load())
	require.False(t, q.Select("2").Stale)
	require.True(t, one.State().IsSuccess())
}

func TestErrorsKeepPreviousData(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	b := &backend{}
	q := newCalendarQuery(newTestCache(t), b)

	sub, err := q.Subscribe(ctx, calendarArg{From: "a"}, Options{}, nil)
	require.NoError(t, err)

	b.fail.Store(true)
	err = sub.Refetch(ctx)
	require.Error(t, err)

	state := sub.State()
	require.True(t, state.IsError())
	require.EqualError(t, state.Err, "backend down")
	require.True(t, state.HasData)
	require.Equal(t, "a#0", state.Data)

	b.fail.Store(false)
	require.NoError(t, sub.Update(ctx, calendarArg{From: "a"}, Options{}))
	require.True(t, sub.State().IsSuccess())
}

func TestExpected(t *testing.T) {
	t.Parallel()

	require.Nil(t, Expected(nil))
	base := errors.New("unauthorized")
	err := Expected(base)
	require.True(t, IsExpected(err))
	require.ErrorIs(t, err, base)
	require.False(t, IsExpected(base))
}

func TestInvalidationDuringFetchKeepsEntryStale(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	c := newTestCache(t)
	release := make(chan struct{})
	var calls atomic.Int32
	q := NewQuery(c, QueryDef[string, int]{
		Name: "slow",
		Fetch: func(context.Context, string) (int, error) {
			calls.Add(1)
			<-release
			return 1, nil
		},
		Provides: func(string, int) []Tag { return Tags("Calendar") },
	})

	// Seed tags, then start a refetch that predates the invalidation.
	go func() { _, _ = q.Fetch(ctx, "k", false) }()
	release <- struct{}{}
	require.Eventually(t, func() bool { return q.Select("k").IsSuccess() }, time.Second, time.Millisecond)

	go func() { _, _ = q.Fetch(ctx, "k", true) }()
	require.Eventually(t, func() bool { return q.Select("k").IsFetching() }, time.Second, time.Millisecond)

	require.NoError(t, c.Invalidate(ctx, TypeTag("Calendar")))
	release <- struct{}{}

	require.Eventually(t, func() bool { return !q.Select("k").IsFetching() }, time.Second, time.Millisecond)
	require.True(t, q.Select("k").Stale)

	// The next load issues a fresh request instead of trusting the old one.
	go func() { release <- struct{}{} }()
	_, err := q.Fetch(ctx, "k", false)
	require.NoError(t, err)
	require.False(t, q.Select("k").Stale)
	require.EqualValues(t, 3, calls.Load())
}

func TestListenerSeesTransitions(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var seen []Status
	q := newCalendarQuery(newTestCache(t), &backend{})

	_, err := q.Subscribe(t.Context(), calendarArg{From: "a"}, Options{}, func(s State[string]) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s.Status)
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []Status{Pending, Fulfilled}, seen)
}

func TestResetKeepsObservers(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	c := newTestCache(t)
	b := &backend{}
	q := newCalendarQuery(c, b)

	sub, err := q.Subscribe(ctx, calendarArg{From: "a"}, Options{}, nil)
	require.NoError(t, err)
	_, err = q.Fetch(ctx, calendarArg{From: "b"}, false)
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	c.Reset()
	require.Equal(t, 1, c.Len())
	require.Equal(t, Uninitialized, sub.State().Status)
	require.False(t, sub.State().HasData)

	require.NoError(t, sub.Refetch(ctx))
	require.True(t, sub.State().IsSuccess())
}

func TestCollect(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	var clockMu sync.Mutex
	clock := func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		clockMu.Lock()
		defer clockMu.Unlock()
		now = now.Add(d)
	}

	c := New("test", Config{Retention: time.Minute, Logger: slogx.Discard(), Now: clock})
	q := newCalendarQuery(c, &backend{})

	kept, err := q.Subscribe(ctx, calendarArg{From: "kept"}, Options{}, nil)
	require.NoError(t, err)
	dropped, err := q.Subscribe(ctx, calendarArg{From: "dropped"}, Options{}, nil)
	require.NoError(t, err)
	dropped.Unsubscribe()

	advance(30 * time.Second)
	require.Zero(t, c.Collect(clock()))

	advance(31 * time.Second)
	require.Equal(t, 1, c.Collect(clock()))
	require.Equal(t, []string{q.Key(calendarArg{From: "kept"})}, c.Keys())
	require.True(t, kept.State().IsSuccess())

	collector := NewCollector(slogx.Discard(), time.Hour, c)
	kept.Unsubscribe()
	advance(2 * time.Minute)
	require.Equal(t, 1, collector.CollectAll(clock()))
	require.Zero(t, c.Len())
}

func TestCollectorStartStop(t *testing.T) {
	t.Parallel()

	c := New("test", Config{Logger: slogx.Discard()})
	q := newCalendarQuery(c, &backend{})
	_, err := q.Fetch(t.Context(), calendarArg{From: "a"}, false)
	require.NoError(t, err)

	collector := NewCollector(slogx.Discard(), 5*time.Millisecond, c)
	collector.Start()
	require.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
	collector.Stop()
}
