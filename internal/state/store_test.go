package state

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/five82/trainlog/internal/workout"
)

type fakeSource struct {
	mu        sync.Mutex
	plan      workout.Plan
	err       error
	fallback  workout.Plan
	calls     int
	fallbacks int
	hook      func()
}

func (f *fakeSource) FetchWorkoutPlan(ctx context.Context) (workout.Plan, error) {
	f.mu.Lock()
	f.calls++
	plan, err, hook := f.plan.Clone(), f.err, f.hook
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return plan, err
}

func (f *fakeSource) FallbackWorkoutPlan(ctx context.Context) workout.Plan {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fallbacks++
	return f.fallback.Clone()
}

func (f *fakeSource) set(plan workout.Plan, err error) {
	f.mu.Lock()
	f.plan, f.err = plan, err
	f.mu.Unlock()
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func benchPlan() workout.Plan {
	return workout.Plan{Exercises: []workout.Exercise{{
		Name: "Жим лежа",
		Sets: []workout.Set{{Number: 1}, {Number: 2}},
	}}}
}

func newTestStore(src *fakeSource) (*Store, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	return NewStore(src, Options{TTL: 3 * time.Second, Now: clock.Now}), clock
}

func TestStore_OneRemoteCallWithinTTL(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{plan: benchPlan()}
	s, clock := newTestStore(src)

	if _, err := s.Plan(ctx, false); err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	clock.Advance(time.Second)
	if _, err := s.Plan(ctx, false); err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	if src.calls != 1 {
		t.Fatalf("remote calls = %d, want 1 within TTL", src.calls)
	}

	clock.Advance(3 * time.Second)
	_, _ = s.Plan(ctx, false)
	if src.calls != 2 {
		t.Fatalf("remote calls = %d, want 2 after TTL", src.calls)
	}
}

func TestStore_ForceAlwaysFetches(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{plan: benchPlan()}
	s, _ := newTestStore(src)

	for i := 0; i < 3; i++ {
		_, _ = s.Plan(ctx, true)
	}
	if src.calls != 3 {
		t.Fatalf("remote calls = %d, want 3", src.calls)
	}
}

func TestStore_StaleOnFailure(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{plan: benchPlan()}
	s, _ := newTestStore(src)

	_, _ = s.Plan(ctx, false)
	src.set(workout.Plan{}, errors.New("down"))

	plan, err := s.Plan(ctx, true)
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	if len(plan.Exercises) != 1 || plan.Exercises[0].Name != "Жим лежа" {
		t.Fatalf("plan = %#v, want stale cached plan", plan)
	}
	if src.fallbacks != 0 {
		t.Fatalf("fallback consulted although a cached plan exists")
	}
	snap := s.Snapshot()
	if snap.Origin != OriginStale || !snap.Degraded() || snap.LastError == nil {
		t.Fatalf("snapshot = %#v, want stale with error", snap)
	}
}

func TestStore_FallbackWithoutCache(t *testing.T) {
	ctx := context.Background()
	fallback := workout.Plan{Exercises: []workout.Exercise{
		{Name: "Тяга", Sets: []workout.Set{{Number: 1, Completed: true, Skipped: true}}},
		{Name: "  "},
	}}
	src := &fakeSource{err: errors.New("down"), fallback: fallback}
	s, _ := newTestStore(src)

	plan, err := s.Plan(ctx, false)
	if err != nil {
		t.Fatalf("Plan returned error: %v", err)
	}
	if src.fallbacks != 1 {
		t.Fatalf("fallbacks = %d, want 1", src.fallbacks)
	}
	if len(plan.Exercises) != 1 {
		t.Fatalf("plan not normalized: %#v", plan)
	}
	set := plan.Exercises[0].Sets[0]
	if !set.Completed || set.Skipped || !plan.Exercises[0].Completed {
		t.Fatalf("normalized set = %#v", set)
	}
	if s.Snapshot().Origin != OriginFallback {
		t.Fatalf("origin = %s, want fallback", s.Snapshot().Origin)
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{err: errors.New("down")}
	s, _ := newTestStore(src)

	_, _ = s.Plan(ctx, true)
	if snap := s.Snapshot(); snap.ConsecutiveFailures != 1 || snap.IsOffline() {
		t.Fatalf("after 1 failure: %d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}
	_, _ = s.Plan(ctx, true)
	if snap := s.Snapshot(); snap.ConsecutiveFailures != 2 || !snap.IsOffline() {
		t.Fatalf("after 2 failures: %d offline=%v", snap.ConsecutiveFailures, snap.IsOffline())
	}

	src.set(benchPlan(), nil)
	_, _ = s.Plan(ctx, true)
	if snap := s.Snapshot(); snap.ConsecutiveFailures != 0 || snap.IsOffline() || snap.Origin != OriginRemote {
		t.Fatalf("after success: %#v", snap)
	}
}

func TestStore_SnapshotClonesPlan(t *testing.T) {
	src := &fakeSource{plan: benchPlan()}
	s, _ := newTestStore(src)
	_, _ = s.Plan(context.Background(), false)

	snap := s.Snapshot()
	snap.Plan.Exercises[0].Sets[0].Completed = true
	again := s.Snapshot()
	if again.Plan.Exercises[0].Sets[0].Completed {
		t.Fatalf("Snapshot should clone the plan")
	}
}

func TestStore_ApplyAndConfirm(t *testing.T) {
	src := &fakeSource{plan: benchPlan()}
	s, _ := newTestStore(src)

	if _, _, ok := s.Apply("Жим лежа", 1, func(*workout.Set) {}); ok {
		t.Fatalf("Apply succeeded without a cached plan")
	}
	_, _ = s.Plan(context.Background(), false)

	seq1, plan, ok := s.Apply("Жим лежа", 1, func(set *workout.Set) { set.SetState(workout.Completed) })
	if !ok || !plan.Exercises[0].Sets[0].Completed {
		t.Fatalf("Apply = %v %#v", ok, plan)
	}
	seq2, _, _ := s.Apply("Жим лежа", 1, func(set *workout.Set) { set.SetState(workout.Skipped) })
	if seq2 <= seq1 {
		t.Fatalf("sequence not increasing: %d then %d", seq1, seq2)
	}
	if s.Confirm("Жим лежа", 1, seq1) {
		t.Fatalf("stale confirmation accepted")
	}
	if !s.Confirm("Жим лежа", 1, seq2) {
		t.Fatalf("latest confirmation rejected")
	}
	if _, _, ok := s.Apply("Жим лежа", 9, func(*workout.Set) {}); ok {
		t.Fatalf("Apply succeeded for a missing set")
	}

	seq3, plan, ok := s.ApplyExercise("Жим лежа", func(ex *workout.Exercise) {
		for i := range ex.Sets {
			ex.Sets[i].SetState(workout.Completed)
		}
	})
	if !ok || !plan.Exercises[0].Completed {
		t.Fatalf("ApplyExercise = %v %#v", ok, plan)
	}
	if !s.Confirm("Жим лежа", 2, seq3) || s.Confirm("Жим лежа", 1, seq2) {
		t.Fatalf("exercise sequence not recorded per set")
	}
}

func TestStore_FetchKeepsSetsChangedDuringFetch(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{plan: benchPlan()}
	s, _ := newTestStore(src)
	_, _ = s.Plan(ctx, false)

	// The server still reports set 1 pending; the user completes it while the fetch is in flight.
	src.mu.Lock()
	src.hook = func() {
		s.Apply("Жим лежа", 1, func(set *workout.Set) { set.SetState(workout.Completed) })
	}
	src.mu.Unlock()

	plan, _ := s.Plan(ctx, true)
	if !plan.Exercises[0].Sets[0].Completed {
		t.Fatalf("fetch overwrote a newer local change: %#v", plan.Exercises[0].Sets[0])
	}

	src.mu.Lock()
	src.hook = nil
	src.mu.Unlock()
	plan, _ = s.Plan(ctx, true)
	if plan.Exercises[0].Sets[0].Completed {
		t.Fatalf("change made before the fetch started should be replaced by server state")
	}
}

func TestStore_InvalidateAndReset(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{plan: benchPlan()}
	s, _ := newTestStore(src)

	_, _ = s.Plan(ctx, false)
	s.Invalidate()
	if _, ok := s.Cached(); !ok {
		t.Fatalf("Invalidate dropped the cached plan")
	}
	if s.Age() != -1 {
		t.Fatalf("Age after Invalidate = %v, want -1", s.Age())
	}
	_, _ = s.Plan(ctx, false)
	if src.calls != 2 {
		t.Fatalf("calls = %d, want refetch after Invalidate", src.calls)
	}

	s.Reset()
	if _, ok := s.Cached(); ok {
		t.Fatalf("Reset kept the cached plan")
	}
	if !reflect.DeepEqual(s.Snapshot(), Snapshot{}) {
		t.Fatalf("Snapshot after Reset = %#v", s.Snapshot())
	}
}

func TestStore_NeedsRebuild(t *testing.T) {
	s, _ := newTestStore(&fakeSource{})
	plan := benchPlan()

	if !s.NeedsRebuild(plan) {
		t.Fatalf("first render should rebuild")
	}
	if s.NeedsRebuild(plan) {
		t.Fatalf("same plan should only patch")
	}
	heavier := plan.Clone()
	heavier.Exercises[0].WorkingWeight = 100
	if s.NeedsRebuild(heavier) {
		t.Fatalf("weight change should only patch")
	}
	done := plan.Clone()
	done.Exercises[0].Sets[0].Completed = true
	if !s.NeedsRebuild(done) {
		t.Fatalf("completion change should rebuild")
	}
	if !s.NeedsRebuild(workout.Plan{}) {
		t.Fatalf("empty plan should rebuild")
	}
	if !s.NeedsRebuild(done) {
		t.Fatalf("plan after empty plan should rebuild")
	}
}

func TestStore_RefreshAsyncReportsOnlyChanges(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{plan: benchPlan()}
	s, _ := newTestStore(src)
	_, _ = s.Plan(ctx, false)

	changed := 0
	<-s.RefreshAsync(ctx, func(workout.Plan) { changed++ })
	if changed != 0 {
		t.Fatalf("onChange called for an identical plan")
	}

	next := benchPlan()
	next.Exercises[0].Sets[1].Completed = true
	src.set(next, nil)
	<-s.RefreshAsync(ctx, func(workout.Plan) { changed++ })
	if changed != 1 {
		t.Fatalf("onChange calls = %d, want 1", changed)
	}
}

func TestStore_PlanHonoursCanceledContext(t *testing.T) {
	src := &fakeSource{plan: benchPlan()}
	s, _ := newTestStore(src)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Plan(ctx, true); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if src.calls != 0 {
		t.Fatalf("fetched with a canceled context")
	}
}
