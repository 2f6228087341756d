package workout

import (
	"strings"
	"time"
)

// Kind tags a daily note.
type Kind string

const (
	KindPlan         Kind = "plan"
	KindMeals        Kind = "meals"
	KindWorkouts     Kind = "workouts"
	KindMeasurements Kind = "measurements"
)

// Valid reports whether k is one of the known note kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindPlan, KindMeals, KindWorkouts, KindMeasurements:
		return true
	}
	return false
}

// Note is the free-form content stored for an entry key. Offline marks a note served
// from or saved to the local fallback store.
type Note struct {
	Text    string `json:"text"`
	Offline bool   `json:"-"`
}

// Plan is today's structured workout plan.
type Plan struct {
	Date      string     `json:"date,omitempty"`
	HasPlan   bool       `json:"has_plan,omitempty"`
	Exercises []Exercise `json:"exercises"`
}

// Exercise is one named movement of the plan. Name identifies it within the plan.
type Exercise struct {
	Name          string  `json:"name"`
	WorkingWeight float64 `json:"working_weight"`
	MaxWeight     float64 `json:"max_weight"`
	Completed     bool    `json:"completed"`
	Sets          []Set   `json:"sets"`
}

// Set is one numbered set of an exercise.
type Set struct {
	Number        int      `json:"number"`
	Info          string   `json:"info"`
	WeightKG      *float64 `json:"weight_kg"`
	Reps          *string  `json:"reps"`
	PerformedReps *string  `json:"performed_reps"`
	Completed     bool     `json:"completed"`
	Skipped       bool     `json:"skipped"`
}

// Exercise returns a pointer to the named exercise, or nil.
func (p *Plan) Exercise(name string) *Exercise {
	for i := range p.Exercises {
		if p.Exercises[i].Name == name {
			return &p.Exercises[i]
		}
	}
	return nil
}

// Set returns a pointer to the set with the given number, or nil.
func (e *Exercise) Set(number int) *Set {
	for i := range e.Sets {
		if e.Sets[i].Number == number {
			return &e.Sets[i]
		}
	}
	return nil
}

// Empty reports whether the plan has no exercises.
func (p Plan) Empty() bool {
	return len(p.Exercises) == 0
}

// Clone returns a deep copy, so cached plans can be handed out without sharing sets.
func (p Plan) Clone() Plan {
	dup := p
	if p.Exercises == nil {
		return dup
	}
	dup.Exercises = make([]Exercise, len(p.Exercises))
	for i, ex := range p.Exercises {
		dup.Exercises[i] = ex
		if ex.Sets != nil {
			dup.Exercises[i].Sets = make([]Set, len(ex.Sets))
			for j, s := range ex.Sets {
				dup.Exercises[i].Sets[j] = s.clone()
			}
		}
	}
	return dup
}

func (s Set) clone() Set {
	dup := s
	if s.WeightKG != nil {
		w := *s.WeightKG
		dup.WeightKG = &w
	}
	dup.Reps = cloneString(s.Reps)
	dup.PerformedReps = cloneString(s.PerformedReps)
	return dup
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	s := *v
	return &s
}

// Progress counts completed sets over all sets of the plan.
func (p Plan) Progress() (done, total int) {
	for _, ex := range p.Exercises {
		for _, s := range ex.Sets {
			total++
			if s.Completed {
				done++
			}
		}
	}
	return done, total
}

// Moscow is the backend's day boundary zone.
var Moscow = time.FixedZone("MSK", 3*60*60)

const dayLayout = "2006-01-02"

// Day formats t as the backend's ISO day in Moscow time.
func Day(t time.Time) string {
	return t.In(Moscow).Format(dayLayout)
}

// ParseDay parses an ISO day.
func ParseDay(day string) (time.Time, error) {
	return time.ParseInLocation(dayLayout, strings.TrimSpace(day), Moscow)
}

// AddDays shifts an ISO day by n days. Invalid input is returned unchanged.
func AddDays(day string, n int) string {
	t, err := ParseDay(day)
	if err != nil {
		return day
	}
	return t.AddDate(0, 0, n).Format(dayLayout)
}
