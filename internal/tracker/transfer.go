package tracker

import (
	"context"
	"errors"
	"time"

	"github.com/five82/trainlog/internal/state"
	"github.com/five82/trainlog/internal/workout"
)

var (
	ErrEmptyPlan        = errors.New("no workout plan to transfer")
	ErrNothingCompleted = errors.New("no completed exercises to transfer")
)

// TransferResult is the workouts note after a transfer.
type TransferResult struct {
	Text     string
	Appended string
	Offline  bool
}

// TransferResults appends the completed part of today's plan to the day's workouts note.
// The plan is always fetched fresh.
func TransferResults(ctx context.Context, plans *state.Store, notes *Notes, day string, now time.Time) (TransferResult, error) {
	plan, err := plans.Plan(ctx, true)
	if err != nil {
		return TransferResult{}, err
	}
	if plan.Empty() {
		return TransferResult{}, ErrEmptyPlan
	}
	results, ok := workout.ResultsText(plan, now)
	if !ok {
		return TransferResult{}, ErrNothingCompleted
	}

	existing, err := notes.Load(ctx, day, workout.KindWorkouts)
	if err != nil {
		return TransferResult{}, err
	}
	text := workout.AppendResults(existing.Text, results)
	saved, err := notes.Save(ctx, day, workout.KindWorkouts, text)
	if err != nil {
		return TransferResult{}, err
	}
	return TransferResult{Text: text, Appended: results, Offline: saved.Note.Offline}, nil
}
