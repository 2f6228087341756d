package workout

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	weightPattern    = regexp.MustCompile(`(?i)\d+\s*кг`)
	setWordPattern   = regexp.MustCompile(`(?i)\d+\s*подход[а-я]*`)
	leadingSeparator = regexp.MustCompile(`^[:\-]\s*`)
	repsWordPattern  = regexp.MustCompile(`(?i)повтор`)
	toFailurePattern = regexp.MustCompile(`(?i)до\s*отказа`)
	rangePattern     = regexp.MustCompile(`^\d+\s*-\s*\d+$`)
	weightOnlyInfo   = regexp.MustCompile(`(?i)^\d+\s*кг`)
)

// PlannedReps returns the planned reps of a set. Without an explicit value it is taken from
// the info text with the weight and the "N подход" words removed.
func PlannedReps(s Set) string {
	if s.Reps != nil && strings.TrimSpace(*s.Reps) != "" {
		return strings.TrimSpace(*s.Reps)
	}
	if s.Info == "" {
		return ""
	}
	reps := strings.TrimSpace(weightPattern.ReplaceAllString(s.Info, ""))
	reps = strings.TrimSpace(setWordPattern.ReplaceAllString(reps, ""))
	reps = strings.TrimSpace(leadingSeparator.ReplaceAllString(reps, ""))
	return reps
}

// RepsValue prefers the performed reps over the planned ones.
func RepsValue(s Set) string {
	if s.PerformedReps != nil {
		if v := strings.TrimSpace(*s.PerformedReps); v != "" {
			return v
		}
	}
	return PlannedReps(s)
}

// FormatReps renders a reps value for display, appending the unit word unless the text
// already carries one.
func FormatReps(value string) string {
	reps := strings.TrimSpace(value)
	switch {
	case reps == "":
		return ""
	case repsWordPattern.MatchString(reps), toFailurePattern.MatchString(reps):
		return reps
	case rangePattern.MatchString(reps):
		return strings.Join(strings.Fields(reps), "") + " повторений"
	}
	return reps + " повторений"
}

// FormatWeight renders kilograms without trailing zeros.
func FormatWeight(kg float64) string {
	return strconv.FormatFloat(kg, 'f', -1, 64)
}

// ResultsSeparator joins a new results block to existing workout notes.
const ResultsSeparator = "\n\n---\n\n"

// ExerciseResults renders one exercise for the workouts note. It returns "" for exercises
// that have nothing to report.
func ExerciseResults(ex Exercise) string {
	if strings.TrimSpace(ex.Name) == "" {
		return ""
	}
	var completed []Set
	skipped := 0
	for _, s := range ex.Sets {
		if s.Completed {
			completed = append(completed, s)
		}
		if s.Skipped {
			skipped++
		}
	}
	if !ex.Completed && len(completed) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s**", ex.Name)
	if len(completed) > 0 {
		parts := make([]string, 0, len(completed))
		for _, s := range completed {
			parts = append(parts, setResult(s))
		}
		b.WriteString("\n" + strings.Join(parts, ", "))
	} else {
		b.WriteString("\n✓ Выполнено")
	}
	if skipped > 0 && len(completed) > 0 {
		fmt.Fprintf(&b, "\n(Пропущено подходов: %d)", skipped)
	}
	return b.String()
}

func setResult(s Set) string {
	text := fmt.Sprintf("%d подход", s.Number)
	if s.WeightKG != nil && *s.WeightKG != 0 {
		text += " " + FormatWeight(*s.WeightKG) + "кг"
	}
	if reps := RepsValue(s); reps != "" {
		return text + " × " + reps
	}
	if info := strings.TrimSpace(s.Info); info != "" && !weightOnlyInfo.MatchString(info) {
		return text + " × " + info
	}
	return text
}

// ResultsText renders the completed part of a plan under a dated header. ok is false when
// no exercise has anything to report.
func ResultsText(p Plan, at time.Time) (text string, ok bool) {
	var blocks []string
	for _, ex := range p.Exercises {
		if block := ExerciseResults(ex); block != "" {
			blocks = append(blocks, block)
		}
	}
	if len(blocks) == 0 {
		return "", false
	}
	header := "Тренировка " + at.In(Moscow).Format("02.01.2006")
	return header + "\n\n" + strings.Join(blocks, "\n\n"), true
}

// AppendResults joins results to existing note text.
func AppendResults(existing, results string) string {
	existing = strings.TrimSpace(existing)
	if existing == "" {
		return results
	}
	return existing + ResultsSeparator + results
}
