package ui

import (
	"fmt"
	"strings"

	"github.com/five82/trainlog/internal/workout"
)

var stateGlyph = map[workout.SetState]string{
	workout.Pending:   "○",
	workout.Completed: "●",
	workout.Skipped:   "⊘",
}

// renderMain renders the header, the plan rows, the status line and the key hints.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderPlan())
	b.WriteString("\n")
	if m.editing {
		b.WriteString(m.repsInput.View())
		b.WriteString("\n")
	}
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	parts := []string{
		styles.Logo.Render("trainlog"),
		styles.Text.Render("Тренировка · " + m.day),
	}
	if done, total := m.plan.Progress(); total > 0 {
		parts = append(parts, styles.AccentText.Render(fmt.Sprintf("%d/%d подходов", done, total)))
	}
	if m.snapshot.IsOffline() {
		parts = append(parts, styles.WarningText.Render("офлайн"))
	}
	return styles.Header.Render(strings.Join(parts, styles.FaintText.Render(" · ")))
}

func (m Model) renderPlan() string {
	styles := m.theme.Styles()
	if !m.hasPlan {
		if m.loading {
			return m.spinner.View() + " " + styles.MutedText.Render("Загрузка плана…")
		}
		return styles.MutedText.Render("План ещё не загружен")
	}
	if len(m.rows) == 0 {
		return styles.MutedText.Render("На сегодня плана нет")
	}

	height := m.listHeight()
	start, end := visibleRange(len(m.rows), m.cursor, height)

	var b strings.Builder
	for i := start; i < end; i++ {
		line := m.renderRow(m.rows[i])
		if i == m.cursor {
			line = styles.Selected.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// listHeight is the number of plan rows that fit between header and footer.
func (m Model) listHeight() int {
	if m.height <= 0 {
		return len(m.rows)
	}
	h := m.height - 6
	if m.editing {
		h--
	}
	if h < 1 {
		h = 1
	}
	return h
}

// visibleRange returns the window of rows that keeps the cursor on screen.
func visibleRange(total, cursor, height int) (start, end int) {
	if height <= 0 || total <= height {
		return 0, total
	}
	start = cursor - height/2
	if start < 0 {
		start = 0
	}
	end = start + height
	if end > total {
		end = total
		start = end - height
	}
	return start, end
}

func (m Model) renderRow(r row) string {
	ex := m.plan.Exercise(r.exercise)
	if ex == nil {
		return ""
	}
	if r.isSet() {
		s := ex.Set(r.set)
		if s == nil {
			return ""
		}
		return m.renderSet(*s)
	}
	return m.renderExercise(*ex)
}

func (m Model) renderExercise(ex workout.Exercise) string {
	styles := m.theme.Styles()
	mark := styles.StateStyle(workout.Pending).Render("▸")
	if ex.Completed {
		mark = styles.StateStyle(workout.Completed).Render("✓")
	}
	name := trimLabel(ex.Name, m.width-24)
	line := mark + " " + styles.Text.Bold(true).Render(name)

	var meta []string
	if ex.WorkingWeight > 0 {
		meta = append(meta, workout.FormatWeight(ex.WorkingWeight)+" кг")
	}
	if ex.MaxWeight > 0 {
		meta = append(meta, "макс "+workout.FormatWeight(ex.MaxWeight)+" кг")
	}
	if len(ex.Sets) > 0 {
		done := 0
		for _, s := range ex.Sets {
			if s.Completed {
				done++
			}
		}
		meta = append(meta, fmt.Sprintf("%d/%d", done, len(ex.Sets)))
	}
	if len(meta) > 0 {
		line += "  " + styles.MutedText.Render(strings.Join(meta, " · "))
	}
	return line
}

func (m Model) renderSet(s workout.Set) string {
	styles := m.theme.Styles()
	st := s.State()
	glyph := styles.StateStyle(st).Render(stateGlyph[st])

	text := fmt.Sprintf("%d подход", s.Number)
	if s.WeightKG != nil && *s.WeightKG != 0 {
		text += " · " + workout.FormatWeight(*s.WeightKG) + "кг"
	}
	if planned := workout.PlannedReps(s); planned != "" {
		text += " · " + workout.FormatReps(planned)
	}
	line := "   " + glyph + " " + styles.Text.Render(text)

	if s.PerformedReps != nil && strings.TrimSpace(*s.PerformedReps) != "" {
		line += "  " + styles.InfoText.Render("→ "+strings.TrimSpace(*s.PerformedReps))
	}
	if st == workout.Skipped {
		line += "  " + styles.WarningText.Render("пропущен")
	}
	return line
}

func (m Model) renderStatus() string {
	styles := m.theme.Styles()
	text := m.statusText
	if m.loading && text != "" {
		text = m.spinner.View() + " " + text
	}
	switch {
	case m.statusKind.IsError():
		return styles.DangerText.Render(text)
	case m.statusText == "":
		return ""
	default:
		return styles.MutedText.Render(text)
	}
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	if m.editing {
		return styles.Footer.Render(m.help.View(editKeys{m.keys}))
	}
	return styles.Footer.Render(m.help.View(m.keys))
}
