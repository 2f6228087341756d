package tracker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/five82/trainlog/internal/api"
	"github.com/five82/trainlog/internal/measure"
	"github.com/five82/trainlog/internal/offline"
	"github.com/five82/trainlog/internal/state"
	"github.com/five82/trainlog/internal/workout"
)

type fakeBackend struct {
	mu        sync.Mutex
	plan      workout.Plan
	notes     map[string]string
	updates   []api.SetStateUpdate
	updateErr error
	putErr    map[workout.Kind]error
	puts      int
}

func newFakeBackend(plan workout.Plan) *fakeBackend {
	return &fakeBackend{plan: plan, notes: map[string]string{}, putErr: map[workout.Kind]error{}}
}

func (f *fakeBackend) FetchWorkoutPlan(ctx context.Context) (workout.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.plan.Clone(), nil
}

func (f *fakeBackend) FallbackWorkoutPlan(ctx context.Context) workout.Plan {
	return workout.Plan{Exercises: []workout.Exercise{}}
}

func (f *fakeBackend) UpdateSetState(ctx context.Context, u api.SetStateUpdate) (api.SetStateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, u)
	if f.updateErr != nil {
		return api.SetStateResult{}, f.updateErr
	}
	if ex := f.plan.Exercise(u.ExerciseName); ex != nil {
		if set := ex.Set(u.SetNumber); set != nil {
			if u.Completed != nil {
				set.Completed = *u.Completed
			}
			if u.Skipped != nil {
				set.Skipped = *u.Skipped
			}
			if u.Reps != nil {
				r := *u.Reps
				set.PerformedReps = &r
			}
			ex.RollUp()
		}
	}
	return api.SetStateResult{OK: true}, nil
}

func noteKey(day string, kind workout.Kind) string { return day + "|" + string(kind) }

func (f *fakeBackend) GetNote(ctx context.Context, day string, kind workout.Kind) (workout.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return workout.Note{Text: f.notes[noteKey(day, kind)]}, nil
}

func (f *fakeBackend) PutNote(ctx context.Context, day string, kind workout.Kind, text string) (workout.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if err := f.putErr[kind]; err != nil {
		return workout.Note{}, err
	}
	f.notes[noteKey(day, kind)] = text
	return workout.Note{Text: text}, nil
}

func benchPlan() workout.Plan {
	w := 80.0
	return workout.Plan{Exercises: []workout.Exercise{{
		Name: "Жим лежа",
		Sets: []workout.Set{{Number: 1, WeightKG: &w}, {Number: 2, WeightKG: &w}},
	}}}
}

func newSets(t *testing.T, backend *fakeBackend) (*Sets, *state.Store) {
	t.Helper()
	plans := state.NewStore(backend, state.Options{})
	return NewSets(backend, plans, nil), plans
}

func TestSets_BenchPressScenario(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(benchPlan())
	sets, plans := newSets(t, backend)

	out, err := sets.ToggleSet(ctx, "Жим лежа", 1)
	if err != nil {
		t.Fatalf("ToggleSet returned error: %v", err)
	}
	ex := out.Plan.Exercise("Жим лежа")
	if out.State != workout.Completed || !ex.Set(1).Completed {
		t.Fatalf("set 1 = %s, want completed", out.State)
	}
	if ex.Completed {
		t.Fatalf("exercise completed with set 2 pending")
	}

	out, err = sets.ToggleSet(ctx, "Жим лежа", 2)
	if err != nil {
		t.Fatalf("ToggleSet returned error: %v", err)
	}
	if !out.Plan.Exercise("Жим лежа").Completed {
		t.Fatalf("exercise not completed after both sets")
	}
	cached, _ := plans.Cached()
	if !cached.Exercise("Жим лежа").Completed {
		t.Fatalf("cached plan not updated")
	}

	if len(backend.updates) != 2 {
		t.Fatalf("updates = %d, want 2", len(backend.updates))
	}
	u := backend.updates[0]
	if u.ExerciseName != "Жим лежа" || u.SetNumber != 1 || !*u.Completed || *u.Skipped || u.Reps != nil {
		t.Fatalf("first update = %#v", u)
	}
}

func TestSets_ToggleCyclesThroughStates(t *testing.T) {
	ctx := context.Background()
	sets, _ := newSets(t, newFakeBackend(benchPlan()))

	want := []workout.SetState{workout.Completed, workout.Skipped, workout.Pending, workout.Completed}
	for i, w := range want {
		out, err := sets.ToggleSet(ctx, "Жим лежа", 1)
		if err != nil {
			t.Fatalf("toggle %d returned error: %v", i+1, err)
		}
		if out.State != w {
			t.Fatalf("toggle %d = %s, want %s", i+1, out.State, w)
		}
	}
}

func TestSets_ToggleExerciseTwice(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(benchPlan())
	sets, _ := newSets(t, backend)

	out, err := sets.ToggleExercise(ctx, "Жим лежа")
	if err != nil {
		t.Fatalf("ToggleExercise returned error: %v", err)
	}
	if out.State != workout.Completed || !out.Plan.Exercise("Жим лежа").Completed {
		t.Fatalf("first toggle = %s", out.State)
	}
	out, _ = sets.ToggleExercise(ctx, "Жим лежа")
	if out.State != workout.Pending {
		t.Fatalf("second toggle = %s, want pending", out.State)
	}
	for _, s := range out.Plan.Exercise("Жим лежа").Sets {
		if s.State() != workout.Pending {
			t.Fatalf("set %d = %s", s.Number, s.State())
		}
	}
	if len(backend.updates) != 4 {
		t.Fatalf("updates = %d, want one per set per toggle", len(backend.updates))
	}
}

func TestSets_ToggleExerciseClearsSkips(t *testing.T) {
	plan := benchPlan()
	plan.Exercises[0].Sets[0].Skipped = true
	sets, _ := newSets(t, newFakeBackend(plan))

	out, err := sets.ToggleExercise(context.Background(), "Жим лежа")
	if err != nil {
		t.Fatalf("ToggleExercise returned error: %v", err)
	}
	for _, s := range out.Plan.Exercise("Жим лежа").Sets {
		if !s.Completed || s.Skipped {
			t.Fatalf("set %d = %#v, want completed", s.Number, s)
		}
	}
}

func TestSets_FailureKeepsOptimisticState(t *testing.T) {
	backend := newFakeBackend(benchPlan())
	backend.updateErr = &api.Error{Kind: api.KindServer, Err: errors.New("boom")}
	sets, plans := newSets(t, backend)

	out, err := sets.ToggleSet(context.Background(), "Жим лежа", 1)
	if err != nil {
		t.Fatalf("ToggleSet returned error: %v", err)
	}
	if !errors.Is(out.Err, api.ErrServer) {
		t.Fatalf("Outcome.Err = %v, want server error", out.Err)
	}
	cached, _ := plans.Cached()
	if !cached.Exercise("Жим лежа").Set(1).Completed {
		t.Fatalf("optimistic change rolled back")
	}
}

func TestSets_UnknownSet(t *testing.T) {
	sets, _ := newSets(t, newFakeBackend(benchPlan()))
	if _, err := sets.ToggleSet(context.Background(), "Присед", 1); !errors.Is(err, ErrUnknownSet) {
		t.Fatalf("err = %v, want ErrUnknownSet", err)
	}

	noSets := workout.Plan{Exercises: []workout.Exercise{{Name: "Планка", Sets: []workout.Set{}}}}
	sets, _ = newSets(t, newFakeBackend(noSets))
	if _, err := sets.ToggleExercise(context.Background(), "Планка"); !errors.Is(err, ErrNoSets) {
		t.Fatalf("err = %v, want ErrNoSets", err)
	}
}

func TestSets_SetReps(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(benchPlan())
	sets, _ := newSets(t, backend)

	out, err := sets.SetReps(ctx, "Жим лежа", 1, " 10 ")
	if err != nil {
		t.Fatalf("SetReps returned error: %v", err)
	}
	set := out.Plan.Exercise("Жим лежа").Set(1)
	if set.PerformedReps == nil || *set.PerformedReps != "10" || set.Completed {
		t.Fatalf("set = %#v, want reps 10 and flags unchanged", set)
	}
	u := backend.updates[0]
	if u.Completed != nil || u.Skipped != nil || u.Reps == nil || *u.Reps != "10" {
		t.Fatalf("update = %#v, want reps only", u)
	}

	out, _ = sets.SetReps(ctx, "Жим лежа", 1, "10")
	if !out.Unchanged || len(backend.updates) != 1 {
		t.Fatalf("unchanged reps were sent again")
	}
}

func TestSets_OfflineOutcomeThroughClient(t *testing.T) {
	ctx := context.Background()
	var mu sync.Mutex
	failSetState := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case r.URL.Path == api.PathPlanToday:
			_, _ = w.Write([]byte(`{"exercises":[{"name":"Жим лежа","sets":[{"number":1},{"number":2}]}]}`))
		case failSetState:
			w.WriteHeader(http.StatusBadGateway)
		default:
			_, _ = w.Write([]byte(`{"ok":true}`))
		}
	}))
	t.Cleanup(server.Close)

	store, err := offline.Open(filepath.Join(t.TempDir(), "offline.db"), nil)
	if err != nil {
		t.Fatalf("offline.Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	client, err := api.NewClient(api.Options{BaseURL: server.URL, UserID: "7", Fallback: store})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	plans := state.NewStore(client, state.Options{})
	sets := NewSets(client, plans, nil)

	mu.Lock()
	failSetState = true
	mu.Unlock()
	out, err := sets.ToggleSet(ctx, "Жим лежа", 1)
	if err != nil {
		t.Fatalf("ToggleSet returned error: %v", err)
	}
	if !out.Offline || !errors.Is(out.Err, api.ErrServer) {
		t.Fatalf("outcome = %#v, want offline with server cause", out)
	}

	// The backend still reports the set pending; the local change wins on refresh.
	mu.Lock()
	failSetState = false
	mu.Unlock()
	plan, _ := plans.Plan(ctx, true)
	if !plan.Exercise("Жим лежа").Set(1).Completed {
		t.Fatalf("refresh lost the offline change")
	}
}

func TestNotes_LoadPlanLegacyPrecedence(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name       string
		plan       string
		workouts   string
		wantText   string
		wantSource workout.Kind
	}{
		{"plan wins", "Жим 4x8", "old", "Жим 4x8", workout.KindPlan},
		{"blank plan uses workouts", "  \n", "old plan", "old plan", workout.KindWorkouts},
		{"both blank keeps plan", "", "  ", "", workout.KindPlan},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend(workout.Plan{})
			backend.notes[noteKey("2025-03-01", workout.KindPlan)] = tt.plan
			backend.notes[noteKey("2025-03-01", workout.KindWorkouts)] = tt.workouts
			notes := NewNotes(backend, nil)

			got, err := notes.LoadPlan(ctx, "2025-03-01")
			if err != nil {
				t.Fatalf("LoadPlan returned error: %v", err)
			}
			if got.Source != tt.wantSource {
				t.Fatalf("Source = %s, want %s", got.Source, tt.wantSource)
			}
			if tt.wantSource == workout.KindPlan && got.Text != tt.plan {
				t.Fatalf("Text = %q, want %q", got.Text, tt.plan)
			}
			if tt.wantSource == workout.KindWorkouts && got.Text != tt.wantText {
				t.Fatalf("Text = %q, want %q", got.Text, tt.wantText)
			}
		})
	}
}

func TestNotes_SaveSkipsUnchangedAndShadowsPlan(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(workout.Plan{})
	backend.notes[noteKey("2025-03-01", workout.KindPlan)] = "same"
	notes := NewNotes(backend, nil)

	if _, err := notes.Load(ctx, "2025-03-01", workout.KindPlan); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	res, err := notes.Save(ctx, "2025-03-01", workout.KindPlan, "same")
	if err != nil || !res.Skipped || backend.puts != 0 {
		t.Fatalf("Save of unchanged text = %#v, %v, puts %d", res, err, backend.puts)
	}

	res, err = notes.Save(ctx, "2025-03-01", workout.KindPlan, "new plan")
	if err != nil || res.Skipped {
		t.Fatalf("Save = %#v, %v", res, err)
	}
	if backend.notes[noteKey("2025-03-01", workout.KindWorkouts)] != "new plan" {
		t.Fatalf("plan not shadowed into workouts")
	}

	backend.putErr[workout.KindWorkouts] = errors.New("legacy down")
	res, err = notes.Save(ctx, "2025-03-01", workout.KindPlan, "newer plan")
	if err != nil {
		t.Fatalf("shadow failure failed the primary save: %v", err)
	}
	if res.ShadowErr == nil {
		t.Fatalf("ShadowErr not reported")
	}
	if backend.notes[noteKey("2025-03-01", workout.KindPlan)] != "newer plan" {
		t.Fatalf("primary save lost")
	}

	// Meals are not shadowed.
	before := backend.puts
	_, _ = notes.Save(ctx, "2025-03-01", workout.KindMeals, "каша")
	if backend.puts != before+1 {
		t.Fatalf("meals save sent %d requests, want 1", backend.puts-before)
	}
}

func TestNotes_SaveFailureKeepsRetrying(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(workout.Plan{})
	backend.putErr[workout.KindMeals] = errors.New("down")
	notes := NewNotes(backend, nil)

	if _, err := notes.Save(ctx, "2025-03-01", workout.KindMeals, "x"); err == nil {
		t.Fatalf("Save returned nil error")
	}
	delete(backend.putErr, workout.KindMeals)
	res, err := notes.Save(ctx, "2025-03-01", workout.KindMeals, "x")
	if err != nil || res.Skipped {
		t.Fatalf("retry after failure skipped: %#v, %v", res, err)
	}
}

func TestMeasurements_PreviousAndHistory(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(workout.Plan{})
	m := NewMeasurements(backend, func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, workout.Moscow) })

	if _, err := m.Save(ctx, "2025-03-01", measure.Values{"waist_cm": 82}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	backend.notes[noteKey("2025-03-05", workout.KindMeasurements)] = "garbage"
	if _, err := m.Save(ctx, "2025-03-10", measure.Values{"waist_cm": 80}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	ov, err := m.Overview(ctx, "2025-03-10")
	if err != nil {
		t.Fatalf("Overview returned error: %v", err)
	}
	if ov.Previous == nil || ov.Previous.Day != "2025-03-01" {
		t.Fatalf("Previous = %#v, want 2025-03-01", ov.Previous)
	}
	var waist measure.Delta
	for _, d := range ov.Deltas {
		if d.Field.Key == "waist_cm" {
			waist = d
		}
	}
	if waist.Text != "-2 см" || waist.Trend != measure.TrendNegative {
		t.Fatalf("waist delta = %#v", waist)
	}

	history, err := m.History(ctx, "2025-03-10")
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if len(history) != 2 || history[0].Day != "2025-03-10" || history[1].Day != "2025-03-01" {
		t.Fatalf("history = %#v", history)
	}

	ov, _ = m.Overview(ctx, "2025-01-01")
	if ov.Previous != nil {
		t.Fatalf("Previous found outside the scan window")
	}
	for _, d := range ov.Deltas {
		if d.Text != "—" || d.Trend != measure.TrendEmpty {
			t.Fatalf("delta without previous = %#v", d)
		}
	}
}

func TestMeasurements_PreviousScanWindow(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(workout.Plan{})
	m := NewMeasurements(backend, nil)
	_, _ = m.Save(ctx, "2025-01-01", measure.Values{"hips_cm": 95})

	if _, found, _ := m.Previous(ctx, workout.AddDays("2025-01-01", 90)); !found {
		t.Fatalf("entry 90 days back not found")
	}
	if _, found, _ := m.Previous(ctx, workout.AddDays("2025-01-01", 91)); found {
		t.Fatalf("entry 91 days back found")
	}
}

func TestTransferResults(t *testing.T) {
	ctx := context.Background()
	plan := benchPlan()
	plan.Exercises[0].Sets[0].Completed = true
	reps := "10"
	plan.Exercises[0].Sets[0].PerformedReps = &reps
	backend := newFakeBackend(plan)
	backend.notes[noteKey("2025-03-01", workout.KindWorkouts)] = "утро: зарядка"
	plans := state.NewStore(backend, state.Options{})
	notes := NewNotes(backend, nil)
	at := time.Date(2025, 3, 1, 18, 0, 0, 0, workout.Moscow)

	res, err := TransferResults(ctx, plans, notes, "2025-03-01", at)
	if err != nil {
		t.Fatalf("TransferResults returned error: %v", err)
	}
	want := "утро: зарядка\n\n---\n\nТренировка 01.03.2025\n\n**Жим лежа**\n1 подход 80кг × 10"
	if res.Text != want {
		t.Fatalf("text =\n%q\nwant\n%q", res.Text, want)
	}
	if backend.notes[noteKey("2025-03-01", workout.KindWorkouts)] != want {
		t.Fatalf("workouts note not saved")
	}
	if !strings.HasPrefix(res.Appended, "Тренировка") {
		t.Fatalf("Appended = %q", res.Appended)
	}
}

func TestTransferResults_NothingToTransfer(t *testing.T) {
	ctx := context.Background()
	notes := NewNotes(newFakeBackend(workout.Plan{}), nil)

	empty := state.NewStore(newFakeBackend(workout.Plan{}), state.Options{})
	if _, err := TransferResults(ctx, empty, notes, "2025-03-01", time.Now()); !errors.Is(err, ErrEmptyPlan) {
		t.Fatalf("err = %v, want ErrEmptyPlan", err)
	}
	pending := state.NewStore(newFakeBackend(benchPlan()), state.Options{})
	if _, err := TransferResults(ctx, pending, notes, "2025-03-01", time.Now()); !errors.Is(err, ErrNothingCompleted) {
		t.Fatalf("err = %v, want ErrNothingCompleted", err)
	}
}

// heldBackend holds the first set update until release is closed and then fails it.
type heldBackend struct {
	*fakeBackend
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (h *heldBackend) UpdateSetState(ctx context.Context, u api.SetStateUpdate) (api.SetStateResult, error) {
	first := false
	h.once.Do(func() { first = true })
	if first {
		close(h.entered)
		<-h.release
		return api.SetStateResult{}, &api.Error{Kind: api.KindNetworkUnavailable, Err: errors.New("connection reset")}
	}
	return h.fakeBackend.UpdateSetState(ctx, u)
}

func TestSets_OlderConfirmationIsSuperseded(t *testing.T) {
	ctx := context.Background()
	backend := &heldBackend{
		fakeBackend: newFakeBackend(benchPlan()),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	plans := state.NewStore(backend, state.Options{})
	sets := NewSets(backend, plans, nil)

	type result struct {
		out Outcome
		err error
	}
	older := make(chan result, 1)
	go func() {
		out, err := sets.ToggleSet(ctx, "Жим лежа", 1)
		older <- result{out, err}
	}()
	<-backend.entered

	newer, err := sets.ToggleSet(ctx, "Жим лежа", 1)
	if err != nil {
		t.Fatalf("ToggleSet returned error: %v", err)
	}
	if newer.Superseded || newer.Err != nil || newer.State != workout.Skipped {
		t.Fatalf("newer outcome = %+v, want skipped and confirmed", newer)
	}

	close(backend.release)
	r := <-older
	if r.err != nil {
		t.Fatalf("older ToggleSet returned error: %v", r.err)
	}
	if !r.out.Superseded {
		t.Fatalf("older outcome not marked superseded")
	}
	if r.out.Err != nil || r.out.Offline {
		t.Fatalf("superseded outcome carries err=%v offline=%v", r.out.Err, r.out.Offline)
	}
	if r.out.State != workout.Completed {
		t.Fatalf("older outcome state = %s, want completed", r.out.State)
	}

	cached, _ := plans.Cached()
	if got := cached.Exercise("Жим лежа").Set(1).State(); got != workout.Skipped {
		t.Fatalf("cached state = %s, want skipped", got)
	}
}
