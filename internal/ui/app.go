package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/five82/trainlog/internal/logging"
	"github.com/five82/trainlog/internal/prefs"
	"github.com/five82/trainlog/internal/state"
	"github.com/five82/trainlog/internal/status"
	"github.com/five82/trainlog/internal/tracker"
	"github.com/five82/trainlog/internal/workout"
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Plans     *state.Store
	Sets      *tracker.Sets
	Notes     *tracker.Notes
	Day       string
	Now       func() time.Time
	PollTick  time.Duration
	ThemeName string
	PrefsPath string
	Logger    *log.Logger
}

// row is one line of the plan list. set is zero for an exercise header.
type row struct {
	exercise string
	set      int
}

func (r row) isSet() bool { return r.set > 0 }

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	plans     *state.Store
	sets      *tracker.Sets
	notes     *tracker.Notes
	day       string
	now       func() time.Time
	prefsPath string
	pollTick  time.Duration
	logger    *log.Logger

	// UI state
	theme    Theme
	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	width    int
	height   int
	ready    bool
	showHelp bool

	// Reps editor
	editing   bool
	editRow   row
	repsInput textinput.Model

	// Data state
	plan     workout.Plan
	hasPlan  bool
	snapshot state.Snapshot
	rows     []row
	cursor   int
	loading  bool

	statusKind status.Kind
	statusText string
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	day := opts.Day
	if day == "" {
		day = workout.Day(now())
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = time.Second
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = "Dracula"
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	input := textinput.New()
	input.Placeholder = "10"
	input.CharLimit = 32
	input.Prompt = "Повторы: "

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return Model{
		ctx:        ctx,
		plans:      opts.Plans,
		sets:       opts.Sets,
		notes:      opts.Notes,
		day:        day,
		now:        now,
		prefsPath:  prefsPath,
		pollTick:   pollTick,
		logger:     logging.OrDiscard(opts.Logger).With("component", "ui"),
		theme:      GetTheme(themeName),
		keys:       DefaultKeyMap(),
		help:       help.New(),
		spinner:    spin,
		repsInput:  input,
		loading:    true,
		statusKind: status.Loading,
		statusText: status.Message(status.Loading, ""),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		tickCmd(m.pollTick),
	}
	if m.plans != nil {
		cmds = append(cmds, loadPlanCmd(m.ctx, m.plans, false))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		return m, nil

	case tickMsg:
		return m.handleTick()

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case planMsg:
		return m.handlePlan(msg)

	case outcomeMsg:
		return m.handleOutcome(msg)

	case transferMsg:
		return m.handleTransfer(msg)
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if m.editing {
		return m.handleEditKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		if m.prefsPath != "" {
			p, _ := prefs.Load(m.prefsPath)
			p.Theme = m.theme.Name
			if err := prefs.Save(m.prefsPath, p); err != nil {
				m.logger.Warn("save theme preference failed", "error", err)
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		if m.plans == nil {
			return m, nil
		}
		m.setStatus(status.Loading, "")
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, loadPlanCmd(m.ctx, m.plans, true))

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
	case key.Matches(msg, m.keys.Bottom):
		if len(m.rows) > 0 {
			m.cursor = len(m.rows) - 1
		}

	case key.Matches(msg, m.keys.Toggle):
		return m.toggleSelected()

	case key.Matches(msg, m.keys.EditReps):
		return m.startEditing()

	case key.Matches(msg, m.keys.Transfer):
		if m.plans == nil || m.notes == nil {
			return m, nil
		}
		m.setStatus(status.Saving, "")
		return m, transferCmd(m.ctx, m.plans, m.notes, m.day, m.now())
	}

	return m, nil
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.editing = false
		m.repsInput.Blur()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		m.editing = false
		m.repsInput.Blur()
		if m.sets == nil {
			return m, nil
		}
		m.setStatus(status.Saving, "")
		r := m.editRow
		return m, setRepsCmd(m.ctx, m.sets, r.exercise, r.set, m.repsInput.Value())
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.repsInput, cmd = m.repsInput.Update(msg)
	return m, cmd
}

func (m Model) selected() (row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return row{}, false
	}
	return m.rows[m.cursor], true
}

func (m Model) toggleSelected() (tea.Model, tea.Cmd) {
	r, ok := m.selected()
	if !ok || m.sets == nil {
		return m, nil
	}
	m.setStatus(status.Saving, "")
	if r.isSet() {
		return m, toggleSetCmd(m.ctx, m.sets, r.exercise, r.set)
	}
	return m, toggleExerciseCmd(m.ctx, m.sets, r.exercise)
}

func (m Model) startEditing() (tea.Model, tea.Cmd) {
	r, ok := m.selected()
	if !ok || !r.isSet() {
		return m, nil
	}
	current := ""
	if ex := m.plan.Exercise(r.exercise); ex != nil {
		if s := ex.Set(r.set); s != nil && s.PerformedReps != nil {
			current = *s.PerformedReps
		}
	}
	m.editing = true
	m.editRow = r
	m.repsInput.SetValue(current)
	m.repsInput.CursorEnd()
	return m, m.repsInput.Focus()
}

// handleTick re-reads the cached plan, which the background poller keeps fresh.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.plans != nil {
		cmds = append(cmds, cachedPlanCmd(m.plans))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handlePlan(msg planMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.loading = false
		m.setStatus(status.FromError(msg.err), msg.err.Error())
		return m, nil
	}
	if !msg.ok {
		return m, nil
	}
	m.snapshot = msg.snapshot
	m.setPlan(msg.plan)
	if msg.fetched {
		m.loading = false
		if msg.snapshot.Degraded() {
			m.setStatus(status.Offline, m.day)
		} else {
			m.setStatus(status.Loaded, m.day)
		}
	}
	return m, nil
}

func (m Model) handleOutcome(msg outcomeMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.setStatus(status.FromError(msg.err), msg.err.Error())
		return m, nil
	}
	out := msg.outcome
	if out.Superseded {
		// A newer transition of the same set owns the screen and the status line.
		return m, nil
	}
	// The cache holds every optimistic change made since out.Plan was taken.
	plan := out.Plan
	if m.plans != nil {
		if cached, ok := m.plans.Cached(); ok {
			plan = cached
		}
	}
	m.setPlan(plan)
	switch {
	case out.Unchanged:
	case out.Offline:
		m.setStatus(status.Offline, m.day)
	case out.Err != nil:
		m.setStatus(status.FromError(out.Err), out.Err.Error())
	default:
		m.setStatus(status.Saved, m.day)
	}
	return m, nil
}

func (m Model) handleTransfer(msg transferMsg) (tea.Model, tea.Cmd) {
	switch {
	case errors.Is(msg.err, tracker.ErrEmptyPlan), errors.Is(msg.err, tracker.ErrNothingCompleted):
		m.setStatus(status.GenericError, "Нет данных для сохранения")
	case msg.err != nil:
		m.setStatus(status.FromError(msg.err), msg.err.Error())
	case msg.result.Offline:
		m.setStatus(status.Offline, m.day)
	default:
		m.setStatus(status.Saved, "результаты тренировки · "+m.day)
	}
	return m, nil
}

// setPlan stores plan and rebuilds the row list only when the change-detection gate says
// the plan renders differently.
func (m *Model) setPlan(plan workout.Plan) {
	m.plan = plan
	m.hasPlan = true
	if m.plans != nil && !m.plans.NeedsRebuild(plan) && m.rows != nil {
		return
	}
	m.rebuildRows()
}

func (m *Model) rebuildRows() {
	var current row
	hadSelection := false
	if r, ok := m.selected(); ok {
		current, hadSelection = r, true
	}

	rows := make([]row, 0, len(m.plan.Exercises)*4)
	for _, ex := range m.plan.Exercises {
		rows = append(rows, row{exercise: ex.Name})
		for _, s := range ex.Sets {
			rows = append(rows, row{exercise: ex.Name, set: s.Number})
		}
	}
	m.rows = rows

	m.cursor = 0
	if hadSelection {
		for i, r := range rows {
			if r == current {
				m.cursor = i
				break
			}
		}
	}
}

func (m *Model) setStatus(kind status.Kind, detail string) {
	m.statusKind = kind
	m.statusText = status.Message(kind, detail)
}

// Messages

type tickMsg time.Time

type planMsg struct {
	plan     workout.Plan
	snapshot state.Snapshot
	ok       bool
	fetched  bool
	err      error
}

type outcomeMsg struct {
	outcome tracker.Outcome
	err     error
}

type transferMsg struct {
	result tracker.TransferResult
	err    error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func loadPlanCmd(ctx context.Context, plans *state.Store, force bool) tea.Cmd {
	return func() tea.Msg {
		plan, err := plans.Plan(ctx, force)
		if err != nil {
			return planMsg{err: err}
		}
		return planMsg{plan: plan, snapshot: plans.Snapshot(), ok: true, fetched: true}
	}
}

func cachedPlanCmd(plans *state.Store) tea.Cmd {
	return func() tea.Msg {
		plan, ok := plans.Cached()
		return planMsg{plan: plan, snapshot: plans.Snapshot(), ok: ok}
	}
}

func toggleSetCmd(ctx context.Context, sets *tracker.Sets, exercise string, number int) tea.Cmd {
	return func() tea.Msg {
		out, err := sets.ToggleSet(ctx, exercise, number)
		return outcomeMsg{outcome: out, err: err}
	}
}

func toggleExerciseCmd(ctx context.Context, sets *tracker.Sets, exercise string) tea.Cmd {
	return func() tea.Msg {
		out, err := sets.ToggleExercise(ctx, exercise)
		return outcomeMsg{outcome: out, err: err}
	}
}

func setRepsCmd(ctx context.Context, sets *tracker.Sets, exercise string, number int, value string) tea.Cmd {
	return func() tea.Msg {
		out, err := sets.SetReps(ctx, exercise, number, value)
		return outcomeMsg{outcome: out, err: err}
	}
}

func transferCmd(ctx context.Context, plans *state.Store, notes *tracker.Notes, day string, now time.Time) tea.Cmd {
	return func() tea.Msg {
		res, err := tracker.TransferResults(ctx, plans, notes, day, now)
		return transferMsg{result: res, err: err}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	if opts.Plans == nil {
		return fmt.Errorf("ui requires a plan store")
	}
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}

func trimLabel(s string, width int) string {
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return strings.TrimSpace(string(r[:width-1])) + "…"
}
