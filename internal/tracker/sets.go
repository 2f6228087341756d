package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/five82/trainlog/internal/api"
	"github.com/five82/trainlog/internal/logging"
	"github.com/five82/trainlog/internal/state"
	"github.com/five82/trainlog/internal/workout"
)

// SetUpdater sends set changes to the backend.
type SetUpdater interface {
	UpdateSetState(ctx context.Context, update api.SetStateUpdate) (api.SetStateResult, error)
}

var (
	ErrUnknownSet = errors.New("set not in today's plan")
	ErrNoSets     = errors.New("exercise has no sets")
)

// Outcome describes a set change after the backend answered. The optimistic change is
// never rolled back; Err and Offline only drive status messaging.
type Outcome struct {
	Plan     workout.Plan
	Exercise string
	Sets     []int
	State    workout.SetState
	// Offline is set when the change was stored only on this device.
	Offline bool
	// Err is the remote failure, if any.
	Err error
	// Superseded is set when a newer change to the same set was issued meanwhile.
	Superseded bool
	// Unchanged is set when nothing had to be sent.
	Unchanged bool
}

// Sets applies set transitions to the cached plan and sends them to the backend.
type Sets struct {
	client SetUpdater
	plans  *state.Store
	logger *log.Logger
}

// NewSets wires a Sets service.
func NewSets(client SetUpdater, plans *state.Store, logger *log.Logger) *Sets {
	return &Sets{client: client, plans: plans, logger: logging.OrDiscard(logger).With("component", "sets")}
}

func (s *Sets) ensurePlan(ctx context.Context) error {
	if _, ok := s.plans.Cached(); ok {
		return nil
	}
	_, err := s.plans.Plan(ctx, false)
	return err
}

// ToggleSet moves one set to its next state: pending, completed, skipped, pending.
func (s *Sets) ToggleSet(ctx context.Context, exercise string, number int) (Outcome, error) {
	if err := s.ensurePlan(ctx); err != nil {
		return Outcome{}, err
	}
	var next workout.SetState
	seq, plan, ok := s.plans.Apply(exercise, number, func(set *workout.Set) {
		next = set.State().Next()
		set.SetState(next)
	})
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s #%d", ErrUnknownSet, exercise, number)
	}

	completed, skipped := next.Flags()
	out := Outcome{Plan: plan, Exercise: exercise, Sets: []int{number}, State: next}
	s.send(ctx, &out, api.SetStateUpdate{
		ExerciseName: exercise,
		SetNumber:    number,
		Completed:    &completed,
		Skipped:      &skipped,
	}, seq)
	return out, nil
}

// ToggleExercise completes every set of the exercise, or resets all of them to pending
// when they are all completed already.
func (s *Sets) ToggleExercise(ctx context.Context, exercise string) (Outcome, error) {
	if err := s.ensurePlan(ctx); err != nil {
		return Outcome{}, err
	}
	var (
		target  workout.SetState
		numbers []int
	)
	seq, plan, ok := s.plans.ApplyExercise(exercise, func(ex *workout.Exercise) {
		target = ex.BulkTarget()
		for i := range ex.Sets {
			ex.Sets[i].SetState(target)
			numbers = append(numbers, ex.Sets[i].Number)
		}
	})
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownSet, exercise)
	}
	if len(numbers) == 0 {
		return Outcome{}, fmt.Errorf("%w: %s", ErrNoSets, exercise)
	}

	out := Outcome{Plan: plan, Exercise: exercise, Sets: numbers, State: target}
	completed, skipped := target.Flags()
	for _, n := range numbers {
		s.send(ctx, &out, api.SetStateUpdate{
			ExerciseName: exercise,
			SetNumber:    n,
			Completed:    &completed,
			Skipped:      &skipped,
		}, seq)
	}
	return out, nil
}

// SetReps records performed reps for a set. Completion flags are left unchanged. Nothing is
// sent when the trimmed value equals the stored one.
func (s *Sets) SetReps(ctx context.Context, exercise string, number int, value string) (Outcome, error) {
	if err := s.ensurePlan(ctx); err != nil {
		return Outcome{}, err
	}
	value = strings.TrimSpace(value)

	cached, _ := s.plans.Cached()
	ex := cached.Exercise(exercise)
	if ex == nil || ex.Set(number) == nil {
		return Outcome{}, fmt.Errorf("%w: %s #%d", ErrUnknownSet, exercise, number)
	}
	current := ex.Set(number)
	loaded := ""
	if current.PerformedReps != nil {
		loaded = strings.TrimSpace(*current.PerformedReps)
	}
	if value == loaded {
		return Outcome{Plan: cached, Exercise: exercise, Sets: []int{number}, State: current.State(), Unchanged: true}, nil
	}

	seq, plan, ok := s.plans.Apply(exercise, number, func(set *workout.Set) {
		reps := value
		set.PerformedReps = &reps
	})
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s #%d", ErrUnknownSet, exercise, number)
	}
	out := Outcome{Plan: plan, Exercise: exercise, Sets: []int{number}, State: current.State()}
	s.send(ctx, &out, api.SetStateUpdate{ExerciseName: exercise, SetNumber: number, Reps: &value}, seq)
	return out, nil
}

func (s *Sets) send(ctx context.Context, out *Outcome, update api.SetStateUpdate, seq uint64) {
	res, err := s.client.UpdateSetState(ctx, update)
	if !s.plans.Confirm(update.ExerciseName, update.SetNumber, seq) {
		s.logger.Debug("ignoring superseded set confirmation", "exercise", update.ExerciseName, "set", update.SetNumber, "seq", seq)
		out.Superseded = true
		return
	}
	switch {
	case err != nil:
		s.logger.Warn("set update failed", "exercise", update.ExerciseName, "set", update.SetNumber, "error", err)
		out.Err = errors.Join(out.Err, err)
	case res.Offline:
		out.Offline = true
		out.Err = errors.Join(out.Err, res.Cause)
	}
}
