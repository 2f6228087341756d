package workout

// SetState is the tri-state of a single set.
type SetState int

const (
	Pending SetState = iota
	Completed
	Skipped
)

func (s SetState) String() string {
	switch s {
	case Completed:
		return "completed"
	case Skipped:
		return "skipped"
	default:
		return "pending"
	}
}

// Next returns the state a single toggle moves to: pending, completed, skipped, pending.
func (s SetState) Next() SetState {
	switch s {
	case Pending:
		return Completed
	case Completed:
		return Skipped
	default:
		return Pending
	}
}

// Flags returns the wire representation of the state.
func (s SetState) Flags() (completed, skipped bool) {
	return s == Completed, s == Skipped
}

// StateOf derives the state from the wire flags. completed wins over skipped.
func StateOf(completed, skipped bool) SetState {
	switch {
	case completed:
		return Completed
	case skipped:
		return Skipped
	default:
		return Pending
	}
}

// State returns the set's current state.
func (s Set) State() SetState {
	return StateOf(s.Completed, s.Skipped)
}

// SetState assigns st to the set.
func (s *Set) SetState(st SetState) {
	s.Completed, s.Skipped = st.Flags()
}

// AllCompleted reports whether the exercise has at least one set and every set is completed.
func (e Exercise) AllCompleted() bool {
	if len(e.Sets) == 0 {
		return false
	}
	for _, s := range e.Sets {
		if !s.Completed {
			return false
		}
	}
	return true
}

// RollUp recomputes the exercise flag from its sets. Exercises without sets keep their flag.
func (e *Exercise) RollUp() {
	if len(e.Sets) == 0 {
		return
	}
	e.Completed = e.AllCompleted()
}

// BulkTarget returns the state every set moves to on an exercise toggle: pending when all
// sets are already completed, completed otherwise.
func (e Exercise) BulkTarget() SetState {
	if e.AllCompleted() {
		return Pending
	}
	return Completed
}

// ApplyState sets one set and rolls the exercise up. It reports whether the set exists.
func (e *Exercise) ApplyState(number int, st SetState) bool {
	s := e.Set(number)
	if s == nil {
		return false
	}
	s.SetState(st)
	e.RollUp()
	return true
}
