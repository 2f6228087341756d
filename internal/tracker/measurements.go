package tracker

import (
	"context"
	"time"

	"github.com/five82/trainlog/internal/measure"
	"github.com/five82/trainlog/internal/workout"
)

const (
	// PreviousScanDays bounds the backward search for an earlier measurement.
	PreviousScanDays = 90
	// HistoryLimit caps the number of history entries.
	HistoryLimit = 10
)

// Measurements stores body measurements in the measurements note of each day.
type Measurements struct {
	notes NoteClient
	now   func() time.Time
}

// NewMeasurements wires a Measurements service. now defaults to time.Now.
func NewMeasurements(notes NoteClient, now func() time.Time) *Measurements {
	if now == nil {
		now = time.Now
	}
	return &Measurements{notes: notes, now: now}
}

// Load returns the day's values, empty when nothing readable is stored.
func (m *Measurements) Load(ctx context.Context, day string) (measure.Values, error) {
	note, err := m.notes.GetNote(ctx, day, workout.KindMeasurements)
	if err != nil {
		return nil, err
	}
	payload, ok := measure.Parse(note.Text)
	if !ok || payload.Values == nil {
		return measure.Values{}, nil
	}
	return payload.Values, nil
}

// Save writes the day's values as a versioned payload.
func (m *Measurements) Save(ctx context.Context, day string, values measure.Values) (workout.Note, error) {
	text, err := measure.NewPayload(values, m.now()).Encode()
	if err != nil {
		return workout.Note{}, err
	}
	return m.notes.PutNote(ctx, day, workout.KindMeasurements, text)
}

// Previous finds the closest earlier day with values, looking back up to PreviousScanDays.
func (m *Measurements) Previous(ctx context.Context, day string) (measure.Entry, bool, error) {
	for i := 1; i <= PreviousScanDays; i++ {
		prev := workout.AddDays(day, -i)
		values, err := m.Load(ctx, prev)
		if err != nil {
			return measure.Entry{}, false, err
		}
		if len(values) > 0 {
			return measure.Entry{Day: prev, Values: values}, true, nil
		}
	}
	return measure.Entry{}, false, nil
}

// History lists up to HistoryLimit days with values, newest first, from day back over
// PreviousScanDays days.
func (m *Measurements) History(ctx context.Context, day string) ([]measure.Entry, error) {
	var out []measure.Entry
	for i := 0; i <= PreviousScanDays && len(out) < HistoryLimit; i++ {
		d := workout.AddDays(day, -i)
		values, err := m.Load(ctx, d)
		if err != nil {
			return nil, err
		}
		if len(values) > 0 {
			out = append(out, measure.Entry{Day: d, Values: values})
		}
	}
	return out, nil
}

// Overview is the measurement view of one day.
type Overview struct {
	Current  measure.Values
	Previous *measure.Entry
	Deltas   []measure.Delta
}

// Overview loads the day's values and compares them with the previous entry.
func (m *Measurements) Overview(ctx context.Context, day string) (Overview, error) {
	current, err := m.Load(ctx, day)
	if err != nil {
		return Overview{}, err
	}
	prev, found, err := m.Previous(ctx, day)
	if err != nil {
		return Overview{}, err
	}
	ov := Overview{Current: current}
	var prevValues measure.Values
	if found {
		ov.Previous = &prev
		prevValues = prev.Values
	}
	ov.Deltas = measure.Deltas(current, prevValues)
	return ov, nil
}
