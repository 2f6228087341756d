package tracker

import (
	"context"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/five82/trainlog/internal/logging"
	"github.com/five82/trainlog/internal/workout"
)

// NoteClient reads and writes daily notes.
type NoteClient interface {
	GetNote(ctx context.Context, day string, kind workout.Kind) (workout.Note, error)
	PutNote(ctx context.Context, day string, kind workout.Kind, text string) (workout.Note, error)
}

type entryKey struct {
	day  string
	kind workout.Kind
}

// Notes loads and saves daily notes, skipping saves of text that did not change.
type Notes struct {
	client NoteClient
	logger *log.Logger

	mu   sync.Mutex
	last map[entryKey]string
}

// NewNotes wires a Notes service.
func NewNotes(client NoteClient, logger *log.Logger) *Notes {
	return &Notes{
		client: client,
		logger: logging.OrDiscard(logger).With("component", "notes"),
		last:   map[entryKey]string{},
	}
}

// LoadedNote is a note together with the kind it was actually read from.
type LoadedNote struct {
	workout.Note
	Source workout.Kind
}

// Load reads a note and remembers its text for Save.
func (n *Notes) Load(ctx context.Context, day string, kind workout.Kind) (workout.Note, error) {
	note, err := n.client.GetNote(ctx, day, kind)
	if err != nil {
		return workout.Note{}, err
	}
	n.remember(day, kind, note.Text)
	return note, nil
}

// LoadPlan reads the training plan text. Plans were once stored under the workouts kind,
// so when the plan note is blank a non-blank workouts note is used instead.
func (n *Notes) LoadPlan(ctx context.Context, day string) (LoadedNote, error) {
	plan, err := n.client.GetNote(ctx, day, workout.KindPlan)
	if err != nil {
		return LoadedNote{}, err
	}
	loaded := LoadedNote{Note: plan, Source: workout.KindPlan}
	if strings.TrimSpace(plan.Text) == "" {
		legacy, err := n.client.GetNote(ctx, day, workout.KindWorkouts)
		if err == nil && strings.TrimSpace(legacy.Text) != "" {
			loaded = LoadedNote{Note: legacy, Source: workout.KindWorkouts}
		}
	}
	n.remember(day, workout.KindPlan, loaded.Text)
	return loaded, nil
}

// SaveResult reports a save. Skipped saves sent nothing. ShadowErr is the failure of the
// compatibility copy of a plan into the workouts note; it never fails the save itself.
type SaveResult struct {
	Note      workout.Note
	Skipped   bool
	ShadowErr error
}

// Save stores a note unless text equals the last loaded or saved text for the entry.
// Plans are also copied into the workouts note for older readers.
func (n *Notes) Save(ctx context.Context, day string, kind workout.Kind, text string) (SaveResult, error) {
	if last, ok := n.lastText(day, kind); ok && last == text {
		return SaveResult{Note: workout.Note{Text: text}, Skipped: true}, nil
	}

	saved, err := n.client.PutNote(ctx, day, kind, text)
	if err != nil {
		return SaveResult{}, err
	}
	n.remember(day, kind, text)

	result := SaveResult{Note: saved}
	if kind == workout.KindPlan {
		if _, err := n.client.PutNote(ctx, day, workout.KindWorkouts, text); err != nil {
			n.logger.Warn("plan shadow write to workouts failed", "day", day, "error", err)
			result.ShadowErr = err
		}
	}
	return result, nil
}

// Forget drops the remembered text of an entry so the next Save always sends.
func (n *Notes) Forget(day string, kind workout.Kind) {
	n.mu.Lock()
	delete(n.last, entryKey{day: day, kind: kind})
	n.mu.Unlock()
}

func (n *Notes) remember(day string, kind workout.Kind, text string) {
	n.mu.Lock()
	n.last[entryKey{day: day, kind: kind}] = text
	n.mu.Unlock()
}

func (n *Notes) lastText(day string, kind workout.Kind) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	text, ok := n.last[entryKey{day: day, kind: kind}]
	return text, ok
}
