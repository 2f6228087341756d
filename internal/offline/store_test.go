package offline

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "offline.db"), nil)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestKey_IsDeterministic(t *testing.T) {
	got := Key("42", "note", "2025-01-02", "plan")
	want := "offline_api_v1:42:note:2025-01-02:plan"
	if got != want {
		t.Fatalf("Key = %q, want %q", got, want)
	}
	if Key("42", "profile") != "offline_api_v1:42:profile" {
		t.Fatalf("Key without qualifiers = %q", Key("42", "profile"))
	}
}

func TestStore_WriteThenRead(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	type goals struct {
		WeeklyWorkouts int `json:"weekly_workouts"`
	}
	if !s.Write(ctx, Key("1", "goals"), goals{WeeklyWorkouts: 5}) {
		t.Fatalf("Write returned false")
	}

	got := goals{WeeklyWorkouts: 3}
	if !s.Read(ctx, Key("1", "goals"), &got) {
		t.Fatalf("Read returned false, want true")
	}
	if got.WeeklyWorkouts != 5 {
		t.Fatalf("WeeklyWorkouts = %d, want 5", got.WeeklyWorkouts)
	}

	// Last write wins.
	s.Write(ctx, Key("1", "goals"), goals{WeeklyWorkouts: 2})
	s.Read(ctx, Key("1", "goals"), &got)
	if got.WeeklyWorkouts != 2 {
		t.Fatalf("WeeklyWorkouts = %d, want 2 after overwrite", got.WeeklyWorkouts)
	}
}

func TestStore_ReadMissingKeepsDefault(t *testing.T) {
	s := newTestStore(t)
	got := map[string]bool{"enabled": true}
	if s.Read(context.Background(), Key("1", "reminders"), &got) {
		t.Fatalf("Read returned true for missing key")
	}
	if !got["enabled"] {
		t.Fatalf("default overwritten: %#v", got)
	}
}

func TestStore_UnavailableBehavesEmpty(t *testing.T) {
	ctx := context.Background()
	s := Unavailable(nil)

	if s.Write(ctx, "k", "v") {
		t.Fatalf("Write on unavailable store returned true")
	}
	def := "default"
	if s.Read(ctx, "k", &def) || def != "default" {
		t.Fatalf("Read on unavailable store = %q, want default untouched", def)
	}
	if len(s.Scan(ctx, "")) != 0 {
		t.Fatalf("Scan on unavailable store returned records")
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
}

func TestStore_ClosedDatabaseIsSwallowed(t *testing.T) {
	ctx := context.Background()
	s, err := Open(filepath.Join(t.TempDir(), "offline.db"), nil)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	_ = s.Close()

	if s.Write(ctx, "k", 1) {
		t.Fatalf("Write after close returned true")
	}
	n := 7
	if s.Read(ctx, "k", &n) || n != 7 {
		t.Fatalf("Read after close = %d, want default 7", n)
	}
}

func TestStore_ScanByPrefix(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Write(ctx, Key("1", "note", "2025-01-01", "plan"), map[string]string{"text": "a"})
	s.Write(ctx, Key("1", "note", "2025-01-02", "meals"), map[string]string{"text": "b"})
	s.Write(ctx, Key("2", "note", "2025-01-01", "plan"), map[string]string{"text": "c"})

	got := s.Scan(ctx, Key("1", "note")+":")
	if len(got) != 2 {
		t.Fatalf("Scan returned %d records, want 2: %v", len(got), got)
	}
	if _, ok := got["2025-01-02:meals"]; !ok {
		t.Fatalf("Scan keys = %v, want suffix 2025-01-02:meals", got)
	}
}

func TestStore_ScanByPrefixNonASCIIUser(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Write(ctx, Key("иван", "note", "2025-01-01", "plan"), map[string]string{"text": "a"})
	s.Write(ctx, Key("иван", "note", "2025-01-02", "meals"), map[string]string{"text": "b"})
	s.Write(ctx, Key("иванов", "note", "2025-01-01", "plan"), map[string]string{"text": "c"})

	got := s.Scan(ctx, Key("иван", "note")+":")
	if len(got) != 2 {
		t.Fatalf("Scan returned %d records, want 2: %v", len(got), got)
	}
	if _, ok := got["2025-01-01:plan"]; !ok {
		t.Fatalf("Scan keys = %v, want suffix 2025-01-01:plan", got)
	}
}
