package workout

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// ErrMalformedPlan is returned when a payload is not a JSON object at all.
var ErrMalformedPlan = errors.New("plan payload is not an object")

// DecodePlan decodes a plan payload field by field so a single bad value does not
// reject the whole document. exercises that are not an array become empty, exercises
// without a usable name are dropped, and sets that are not an array become empty.
func DecodePlan(data []byte) (Plan, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil || top == nil {
		return Plan{}, ErrMalformedPlan
	}

	plan := Plan{Exercises: []Exercise{}}
	decodeInto(top["date"], &plan.Date)
	decodeInto(top["has_plan"], &plan.HasPlan)

	var rawExercises []json.RawMessage
	if !decodeInto(top["exercises"], &rawExercises) {
		return plan, nil
	}
	for _, raw := range rawExercises {
		ex, ok := decodeExercise(raw)
		if !ok {
			continue
		}
		plan.Exercises = append(plan.Exercises, ex)
	}
	return Normalize(plan), nil
}

func decodeExercise(raw json.RawMessage) (Exercise, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Exercise{}, false
	}
	var ex Exercise
	if !decodeInto(fields["name"], &ex.Name) || strings.TrimSpace(ex.Name) == "" {
		return Exercise{}, false
	}
	ex.WorkingWeight, _ = decodeNumber(fields["working_weight"])
	ex.MaxWeight, _ = decodeNumber(fields["max_weight"])
	decodeInto(fields["completed"], &ex.Completed)

	ex.Sets = []Set{}
	var rawSets []json.RawMessage
	if decodeInto(fields["sets"], &rawSets) {
		for _, rs := range rawSets {
			if s, ok := decodeSet(rs); ok {
				ex.Sets = append(ex.Sets, s)
			}
		}
	}
	return ex, true
}

func decodeSet(raw json.RawMessage) (Set, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Set{}, false
	}
	var s Set
	n, ok := decodeNumber(fields["number"])
	if !ok {
		return Set{}, false
	}
	s.Number = int(n)
	decodeInto(fields["info"], &s.Info)
	if w, ok := decodeNumber(fields["weight_kg"]); ok {
		s.WeightKG = &w
	}
	s.Reps = decodeOptionalString(fields["reps"])
	s.PerformedReps = decodeOptionalString(fields["performed_reps"])
	decodeInto(fields["completed"], &s.Completed)
	decodeInto(fields["skipped"], &s.Skipped)
	return s, true
}

// Normalize enforces the structural invariants on an already typed plan. It is applied
// to every plan regardless of where it came from.
func Normalize(p Plan) Plan {
	out := p.Clone()
	exercises := make([]Exercise, 0, len(out.Exercises))
	for _, ex := range out.Exercises {
		if strings.TrimSpace(ex.Name) == "" {
			continue
		}
		if ex.Sets == nil {
			ex.Sets = []Set{}
		}
		for i := range ex.Sets {
			if ex.Sets[i].Completed && ex.Sets[i].Skipped {
				ex.Sets[i].Skipped = false
			}
		}
		if len(ex.Sets) > 0 {
			ex.RollUp()
		}
		exercises = append(exercises, ex)
	}
	out.Exercises = exercises
	return out
}

func decodeInto(raw json.RawMessage, dest any) bool {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

// decodeNumber accepts JSON numbers and numeric strings such as "80", "80кг" or "80 kg".
func decodeNumber(raw json.RawMessage) (float64, bool) {
	var f float64
	if decodeInto(raw, &f) {
		return f, true
	}
	var s string
	if !decodeInto(raw, &s) {
		return 0, false
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "кг")
	s = strings.TrimSuffix(s, "kg")
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func decodeOptionalString(raw json.RawMessage) *string {
	var s string
	if decodeInto(raw, &s) {
		return &s
	}
	var f float64
	if decodeInto(raw, &f) {
		v := strconv.FormatFloat(f, 'f', -1, 64)
		return &v
	}
	return nil
}
