package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/five82/trainlog/internal/workout"
)

// FetchWorkoutPlan retrieves today's plan, bounded by the plan timeout. The payload is
// decoded tolerantly; sets changed locally after a failed update keep their local state
// until an update for them succeeds.
func (c *Client) FetchWorkoutPlan(ctx context.Context) (workout.Plan, error) {
	if c == nil {
		return workout.Plan{}, fmt.Errorf("client is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, c.planTimeout)
	defer cancel()

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, PathPlanToday, nil, &raw); err != nil {
		return workout.Plan{}, err
	}
	plan, err := workout.DecodePlan(raw)
	if err != nil {
		return workout.Plan{}, &Error{Kind: KindMalformedResponse, Method: http.MethodGet, Path: PathPlanToday, Err: err}
	}
	return c.overlayLocalSets(ctx, plan), nil
}

// FallbackWorkoutPlan returns today's locally stored plan, or an empty plan.
func (c *Client) FallbackWorkoutPlan(ctx context.Context) workout.Plan {
	empty := workout.Plan{Exercises: []workout.Exercise{}}
	raw, ok := c.fallback.ReadRaw(ctx, c.planKey())
	if !ok {
		return empty
	}
	plan, err := workout.DecodePlan(raw)
	if err != nil {
		return empty
	}
	return plan
}

// UpdateSetState sends a set change. When the call fails but the change lands in the
// fallback plan, the result is OK and Offline with the remote failure in Cause.
func (c *Client) UpdateSetState(ctx context.Context, update SetStateUpdate) (SetStateResult, error) {
	if c == nil {
		return SetStateResult{}, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(update.ExerciseName) == "" {
		return SetStateResult{}, fmt.Errorf("exercise name required")
	}
	if update.SetNumber <= 0 {
		return SetStateResult{}, fmt.Errorf("set number must be positive, got %d", update.SetNumber)
	}

	var result SetStateResult
	err := c.do(ctx, http.MethodPost, PathSetState, update, &result)
	if err == nil && !result.OK {
		err = &Error{Kind: KindClient, Method: http.MethodPost, Path: PathSetState, Status: http.StatusOK, Err: errors.New("set state rejected")}
	}
	setKey := c.setKey(update.ExerciseName, update.SetNumber)
	if err == nil {
		c.clearDirty(setKey)
		return result, nil
	}

	c.logger.Warn("set state update failed, writing offline plan",
		"exercise", update.ExerciseName, "set", update.SetNumber, "error", err)
	if !c.offlineApplySetState(ctx, update) {
		return SetStateResult{}, errors.Join(err, &Error{Kind: KindLocalStorageUnavailable, Err: errors.New("fallback write dropped")})
	}
	c.markDirty(setKey)
	return SetStateResult{OK: true, Offline: true, Cause: err}, nil
}

// offlineApplySetState upserts the exercise and set into today's fallback plan and applies
// the non-nil fields of update.
func (c *Client) offlineApplySetState(ctx context.Context, update SetStateUpdate) bool {
	plan := c.FallbackWorkoutPlan(ctx)

	ex := plan.Exercise(update.ExerciseName)
	if ex == nil {
		plan.Exercises = append(plan.Exercises, workout.Exercise{Name: update.ExerciseName, Sets: []workout.Set{}})
		ex = &plan.Exercises[len(plan.Exercises)-1]
	}
	set := ex.Set(update.SetNumber)
	if set == nil {
		ex.Sets = append(ex.Sets, workout.Set{Number: update.SetNumber})
		slices.SortFunc(ex.Sets, func(a, b workout.Set) int { return a.Number - b.Number })
		set = ex.Set(update.SetNumber)
	}
	applyUpdate(set, update)
	ex.RollUp()

	return c.fallback.Write(ctx, c.planKey(), plan)
}

func applyUpdate(set *workout.Set, update SetStateUpdate) {
	if update.Completed != nil {
		set.Completed = *update.Completed
		if set.Completed {
			set.Skipped = false
		}
	}
	if update.Skipped != nil {
		set.Skipped = *update.Skipped
		if set.Skipped {
			set.Completed = false
		}
	}
	if update.Reps != nil {
		reps := *update.Reps
		set.PerformedReps = &reps
	}
}

// overlayLocalSets copies the locally stored state of dirty sets onto a fetched plan.
func (c *Client) overlayLocalSets(ctx context.Context, plan workout.Plan) workout.Plan {
	prefix := c.planKey() + "#"
	dirty := c.dirtyWithPrefix(prefix)
	if len(dirty) == 0 {
		return plan
	}
	local := c.FallbackWorkoutPlan(ctx)
	for _, key := range dirty {
		name, number, ok := parseSetKey(strings.TrimPrefix(key, prefix))
		if !ok {
			continue
		}
		localEx := local.Exercise(name)
		remoteEx := plan.Exercise(name)
		if localEx == nil || remoteEx == nil {
			continue
		}
		localSet, remoteSet := localEx.Set(number), remoteEx.Set(number)
		if localSet == nil || remoteSet == nil {
			continue
		}
		remoteSet.Completed = localSet.Completed
		remoteSet.Skipped = localSet.Skipped
		if localSet.PerformedReps != nil {
			reps := *localSet.PerformedReps
			remoteSet.PerformedReps = &reps
		}
		remoteEx.RollUp()
	}
	return plan
}

func (c *Client) planKey() string {
	return c.key("workout_plan", c.today())
}

func (c *Client) setKey(exercise string, number int) string {
	return c.planKey() + "#" + exercise + "#" + strconv.Itoa(number)
}

func parseSetKey(rest string) (string, int, bool) {
	idx := strings.LastIndex(rest, "#")
	if idx <= 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(rest[idx+1:])
	if err != nil {
		return "", 0, false
	}
	return rest[:idx], n, true
}
