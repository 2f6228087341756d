package api

import (
	"encoding/json"
	"strconv"
)

// Endpoint paths.
const (
	PathNotes         = "/api/notes"
	PathStats         = "/api/stats"
	PathPlanToday     = "/api/workout-plan/today"
	PathSetState      = "/api/workout-plan/set-state"
	PathProfile       = "/api/profile"
	PathReminders     = "/api/reminders/settings"
	PathNotifications = "/api/notifications/settings"
	PathGoals         = "/api/goals"
	PathExport        = "/api/export/data"
)

// Document is a free-form settings object such as the profile or goals.
type Document map[string]any

// Int reads a numeric field, returning def when it is absent or not a number.
func (d Document) Int(key string, def int) int {
	switch v := d[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// DefaultWeeklyWorkouts is the goal reported when none is stored.
const DefaultWeeklyWorkouts = 3

// Reminders is the daily reminder switch.
type Reminders struct {
	Enabled bool `json:"enabled"`
}

// NotifyOption is one selectable notification frequency.
type NotifyOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Notification frequencies.
const (
	FrequencyThreePerDay = "3_per_day"
	FrequencyDaily       = "1_per_day"
	FrequencyWeekly      = "1_per_week"
	FrequencyDisabled    = "disabled"
)

// NotifyOptions lists the frequencies in display order.
var NotifyOptions = []NotifyOption{
	{Value: FrequencyThreePerDay, Label: "3 раза в день"},
	{Value: FrequencyDaily, Label: "1 раз в день"},
	{Value: FrequencyWeekly, Label: "1 раз в неделю"},
	{Value: FrequencyDisabled, Label: "Отключено"},
}

// NormalizeFrequency coerces unknown values to the daily frequency.
func NormalizeFrequency(value string) string {
	for _, o := range NotifyOptions {
		if o.Value == value {
			return value
		}
	}
	return FrequencyDaily
}

// FrequencyLabel returns the display label of a frequency.
func FrequencyLabel(value string) string {
	value = NormalizeFrequency(value)
	for _, o := range NotifyOptions {
		if o.Value == value {
			return o.Label
		}
	}
	return ""
}

// Notifications are the notification settings.
type Notifications struct {
	Frequency      string         `json:"frequency"`
	FrequencyLabel string         `json:"frequency_label,omitempty"`
	IsEnabled      bool           `json:"is_enabled"`
	Options        []NotifyOption `json:"options,omitempty"`
}

// Streak summarizes consecutive training days.
type Streak struct {
	Current int `json:"current"`
	Max     int `json:"max"`
	Total   int `json:"total"`
}

// Stats is the training statistics report. Chart series are kept as raw JSON.
type Stats struct {
	ChartData           json.RawMessage `json:"chart_data"`
	PercentageChartData json.RawMessage `json:"percentage_chart_data,omitempty"`
	Summary             map[string]any  `json:"summary"`
	Streak              Streak          `json:"streak"`
	WorkoutPercentage   float64         `json:"workout_percentage"`
	AvgPerWeek          float64         `json:"avg_per_week"`
	WeekdayDistribution json.RawMessage `json:"weekday_distribution,omitempty"`
	AvgPrevPerWeek      float64         `json:"avg_prev_per_week"`
	AvgPercentage       float64         `json:"avg_percentage"`
	Workouts            int             `json:"workouts"`

	Offline bool `json:"-"`
}

func emptyStats() Stats {
	return Stats{
		ChartData: json.RawMessage("[]"),
		Summary:   map[string]any{},
		Offline:   true,
	}
}

// SetStateUpdate is a change to one set. Nil fields mean "no change".
type SetStateUpdate struct {
	ExerciseName string  `json:"exercise_name"`
	SetNumber    int     `json:"set_number"`
	Completed    *bool   `json:"completed"`
	Skipped      *bool   `json:"skipped"`
	Reps         *string `json:"reps,omitempty"`
}

// SetStateResult reports how a set update was stored. Offline results were written to the
// fallback store only; Cause holds the remote failure in that case.
type SetStateResult struct {
	OK      bool  `json:"ok"`
	Offline bool  `json:"-"`
	Cause   error `json:"-"`
}

// Export is the aggregate data snapshot.
type Export map[string]any
