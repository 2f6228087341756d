package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/five82/trainlog/internal/workout"
)

func notePath(day string, kind workout.Kind) *url.URL {
	values := url.Values{}
	values.Set("d", day)
	values.Set("kind", string(kind))
	return &url.URL{Path: PathNotes, RawQuery: values.Encode()}
}

func validNoteArgs(day string, kind workout.Kind) error {
	if _, err := workout.ParseDay(day); err != nil {
		return fmt.Errorf("invalid day %q: %w", day, err)
	}
	if !kind.Valid() {
		return fmt.Errorf("invalid note kind %q", kind)
	}
	return nil
}

// GetNote reads a daily note. A failed call is answered from the fallback store (empty text
// when nothing is stored); an error is returned only for invalid arguments.
func (c *Client) GetNote(ctx context.Context, day string, kind workout.Kind) (workout.Note, error) {
	if err := validNoteArgs(day, kind); err != nil {
		return workout.Note{}, err
	}
	key := c.key("note", day, string(kind))
	if c.isDirty(key) {
		return c.offlineNote(ctx, key), nil
	}

	var note workout.Note
	if err := c.doURL(ctx, http.MethodGet, notePath(day, kind), nil, &note); err != nil {
		c.logger.Warn("get note failed, using offline fallback", "day", day, "kind", kind, "error", err)
		return c.offlineNote(ctx, key), nil
	}
	return note, nil
}

func (c *Client) offlineNote(ctx context.Context, key string) workout.Note {
	note := workout.Note{}
	c.fallback.Read(ctx, key, &note)
	note.Offline = true
	return note
}

// PutNote saves a daily note. When the call fails but the text lands in the fallback store
// the save counts as successful and the returned note is marked Offline.
func (c *Client) PutNote(ctx context.Context, day string, kind workout.Kind, text string) (workout.Note, error) {
	if err := validNoteArgs(day, kind); err != nil {
		return workout.Note{}, err
	}
	key := c.key("note", day, string(kind))

	saved := workout.Note{Text: text}
	err := c.doURL(ctx, http.MethodPut, notePath(day, kind), workout.Note{Text: text}, &saved)
	if err == nil {
		c.clearDirty(key)
		return saved, nil
	}

	c.logger.Warn("put note failed, writing offline fallback", "day", day, "kind", kind, "error", err)
	if !c.fallback.Write(ctx, key, workout.Note{Text: text}) {
		return workout.Note{}, errors.Join(err, &Error{Kind: KindLocalStorageUnavailable, Err: errors.New("fallback write dropped")})
	}
	c.markDirty(key)
	return workout.Note{Text: text, Offline: true}, nil
}

// GetStats returns statistics for the last days. previous selects the preceding period of
// the same length. Failures yield an empty report marked Offline.
func (c *Client) GetStats(ctx context.Context, days int, previous bool) (Stats, error) {
	if days <= 0 {
		return Stats{}, fmt.Errorf("days must be positive, got %d", days)
	}
	values := url.Values{}
	values.Set("days", strconv.Itoa(days))
	if previous {
		values.Set("previous", "true")
	}
	var stats Stats
	if err := c.doURL(ctx, http.MethodGet, &url.URL{Path: PathStats, RawQuery: values.Encode()}, nil, &stats); err != nil {
		c.logger.Warn("get stats failed", "days", days, "error", err)
		return emptyStats(), nil
	}
	if stats.Summary == nil {
		stats.Summary = map[string]any{}
	}
	return stats, nil
}
