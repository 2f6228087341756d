package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/five82/trainlog/internal/logging"
	"github.com/five82/trainlog/internal/workout"
)

// DefaultTTL collapses bursts of near-simultaneous plan reads.
const DefaultTTL = 3 * time.Second

// Source provides today's plan. FetchWorkoutPlan reaches the backend;
// FallbackWorkoutPlan answers from local storage and never fails.
type Source interface {
	FetchWorkoutPlan(ctx context.Context) (workout.Plan, error)
	FallbackWorkoutPlan(ctx context.Context) workout.Plan
}

// Origin tells where the cached plan came from.
type Origin int

const (
	OriginNone Origin = iota
	OriginRemote
	OriginStale
	OriginFallback
)

func (o Origin) String() string {
	switch o {
	case OriginRemote:
		return "remote"
	case OriginStale:
		return "stale"
	case OriginFallback:
		return "fallback"
	default:
		return "none"
	}
}

// Snapshot represents the latest plan data available to the UI.
type Snapshot struct {
	Plan                workout.Plan
	HasPlan             bool
	Origin              Origin
	FetchedAt           time.Time
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive failed fetches
}

// IsOffline returns true when the backend has been unreachable for multiple fetches.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Degraded reports whether the plan shown is not fresh from the backend.
func (s Snapshot) Degraded() bool {
	return s.HasPlan && s.Origin != OriginRemote
}

// Options configures a Store.
type Options struct {
	TTL    time.Duration
	Now    func() time.Time
	Logger *log.Logger
}

type setRef struct {
	exercise string
	number   int
}

type entry struct {
	plan      workout.Plan
	fetchedAt time.Time
}

// Store is the read-through cache of today's plan and the only writer of it.
type Store struct {
	source Source
	ttl    time.Duration
	now    func() time.Time
	logger *log.Logger

	mu          sync.RWMutex
	entry       *entry
	origin      Origin
	lastUpdated time.Time
	lastErr     error
	failures    int

	seq    uint64
	setSeq map[setRef]uint64

	rendered    string
	hasRendered bool
}

// NewStore builds a plan cache over source.
func NewStore(source Source, opts Options) *Store {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		source: source,
		ttl:    ttl,
		now:    now,
		logger: logging.OrDiscard(opts.Logger).With("component", "plan-cache"),
		setSeq: map[setRef]uint64{},
	}
}

// Plan returns today's plan. Without force a cached plan younger than the TTL is returned
// without a backend call. A failed fetch serves the previous plan when there is one, and
// the local fallback plan otherwise. The error is non-nil only when ctx is already done.
func (s *Store) Plan(ctx context.Context, force bool) (workout.Plan, error) {
	if err := ctx.Err(); err != nil {
		return workout.Plan{}, err
	}
	if !force {
		if plan, ok := s.fresh(); ok {
			return plan, nil
		}
	}

	startSeq := s.currentSeq()
	plan, err := s.source.FetchWorkoutPlan(ctx)
	if err == nil {
		return s.storeFetched(workout.Normalize(plan), startSeq), nil
	}

	s.logger.Warn("plan fetch failed", "error", err)
	if stale, ok := s.recordFailure(err); ok {
		return stale, nil
	}
	fallback := workout.Normalize(s.source.FallbackWorkoutPlan(ctx))
	return s.storeFallback(fallback), nil
}

func (s *Store) fresh() (workout.Plan, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.entry == nil || s.entry.fetchedAt.IsZero() {
		return workout.Plan{}, false
	}
	if s.now().Sub(s.entry.fetchedAt) >= s.ttl {
		return workout.Plan{}, false
	}
	return s.entry.plan.Clone(), true
}

func (s *Store) currentSeq() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq
}

// storeFetched replaces the entry, keeping the cached values of sets changed after the
// fetch started.
func (s *Store) storeFetched(plan workout.Plan, startSeq uint64) workout.Plan {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entry != nil {
		for ref, seq := range s.setSeq {
			if seq <= startSeq {
				continue
			}
			carrySet(&plan, s.entry.plan, ref)
		}
	}
	now := s.now()
	s.entry = &entry{plan: plan, fetchedAt: now}
	s.origin = OriginRemote
	s.lastUpdated = now
	s.lastErr = nil
	s.failures = 0
	return plan.Clone()
}

func carrySet(dst *workout.Plan, src workout.Plan, ref setRef) {
	srcEx := src.Exercise(ref.exercise)
	dstEx := dst.Exercise(ref.exercise)
	if srcEx == nil || dstEx == nil {
		return
	}
	srcSet, dstSet := srcEx.Set(ref.number), dstEx.Set(ref.number)
	if srcSet == nil || dstSet == nil {
		return
	}
	dstSet.Completed = srcSet.Completed
	dstSet.Skipped = srcSet.Skipped
	if srcSet.PerformedReps != nil {
		reps := *srcSet.PerformedReps
		dstSet.PerformedReps = &reps
	}
	dstEx.RollUp()
}

func (s *Store) recordFailure(err error) (workout.Plan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
	s.lastUpdated = s.now()
	s.failures++
	if s.entry == nil {
		return workout.Plan{}, false
	}
	s.origin = OriginStale
	return s.entry.plan.Clone(), true
}

func (s *Store) storeFallback(plan workout.Plan) workout.Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entry != nil {
		// Another fetch populated the cache meanwhile.
		return s.entry.plan.Clone()
	}
	s.entry = &entry{plan: plan, fetchedAt: s.now()}
	s.origin = OriginFallback
	return plan.Clone()
}

// RefreshAsync force-refreshes the plan in the background and calls onChange when the
// result renders differently from what was cached. The returned channel closes when done.
func (s *Store) RefreshAsync(ctx context.Context, onChange func(workout.Plan)) <-chan struct{} {
	done := make(chan struct{})
	before, had := s.Cached()
	go func() {
		defer close(done)
		plan, err := s.Plan(ctx, true)
		if err != nil {
			return
		}
		if had && workout.Fingerprint(before) == workout.Fingerprint(plan) {
			return
		}
		if onChange != nil {
			onChange(plan)
		}
	}()
	return done
}

// Cached returns the cached plan regardless of age.
func (s *Store) Cached() (workout.Plan, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.entry == nil {
		return workout.Plan{}, false
	}
	return s.entry.plan.Clone(), true
}

// Age returns how long ago the cached plan was stored, or -1 without one.
func (s *Store) Age() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.entry == nil || s.entry.fetchedAt.IsZero() {
		return -1
	}
	return s.now().Sub(s.entry.fetchedAt)
}

// Invalidate makes the next Plan call fetch. The cached plan stays available as stale data.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entry != nil {
		s.entry.fetchedAt = time.Time{}
	}
}

// Reset drops every piece of cached state, for example on user switch.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry = nil
	s.origin = OriginNone
	s.lastErr = nil
	s.lastUpdated = time.Time{}
	s.failures = 0
	s.setSeq = map[setRef]uint64{}
	s.rendered = ""
	s.hasRendered = false
}

// Apply mutates one cached set optimistically under a new sequence number and rolls the
// exercise up. ok is false when the plan, exercise or set is not cached.
func (s *Store) Apply(exercise string, number int, fn func(*workout.Set)) (seq uint64, plan workout.Plan, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entry == nil {
		return 0, workout.Plan{}, false
	}
	ex := s.entry.plan.Exercise(exercise)
	if ex == nil {
		return 0, workout.Plan{}, false
	}
	set := ex.Set(number)
	if set == nil {
		return 0, workout.Plan{}, false
	}
	fn(set)
	ex.RollUp()
	s.seq++
	s.setSeq[setRef{exercise: exercise, number: number}] = s.seq
	return s.seq, s.entry.plan.Clone(), true
}

// ApplyExercise mutates every set of a cached exercise under one new sequence number.
func (s *Store) ApplyExercise(exercise string, fn func(*workout.Exercise)) (seq uint64, plan workout.Plan, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entry == nil {
		return 0, workout.Plan{}, false
	}
	ex := s.entry.plan.Exercise(exercise)
	if ex == nil {
		return 0, workout.Plan{}, false
	}
	fn(ex)
	ex.RollUp()
	s.seq++
	for _, set := range ex.Sets {
		s.setSeq[setRef{exercise: exercise, number: set.Number}] = s.seq
	}
	return s.seq, s.entry.plan.Clone(), true
}

// Confirm reports whether seq is still the newest transition of the set. Confirmations
// of superseded transitions must be ignored.
func (s *Store) Confirm(exercise string, number int, seq uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.setSeq[setRef{exercise: exercise, number: number}] == seq
}

// NeedsRebuild reports whether plan renders structurally differently from the last plan
// it was asked about, and records plan as rendered. Empty plans reset the record.
func (s *Store) NeedsRebuild(plan workout.Plan) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if plan.Empty() {
		s.rendered = ""
		s.hasRendered = false
		return true
	}
	fp := workout.Fingerprint(plan)
	if s.hasRendered && fp == s.rendered {
		return false
	}
	s.rendered = fp
	s.hasRendered = true
	return true
}

// Snapshot returns a copy of the current cache state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Origin:              s.origin,
		LastUpdated:         s.lastUpdated,
		ConsecutiveFailures: s.failures,
	}
	if s.entry != nil {
		snap.Plan = s.entry.plan.Clone()
		snap.HasPlan = true
		snap.FetchedAt = s.entry.fetchedAt
	}
	if s.lastErr != nil {
		snap.LastError = fmt.Errorf("%w", s.lastErr)
	}
	return snap
}
