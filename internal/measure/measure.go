// Package measure encodes per-day body measurements and compares them across days.
package measure

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// PayloadVersion is written into every saved payload.
const PayloadVersion = 1

// Field is one measured body part.
type Field struct {
	Key   string
	Label string
}

// Fields lists the measured body parts in display order.
var Fields = []Field{
	{Key: "waist_cm", Label: "Талия"},
	{Key: "hips_cm", Label: "Бедра"},
	{Key: "chest_cm", Label: "Грудь"},
	{Key: "shoulders_cm", Label: "Плечи"},
	{Key: "biceps_cm", Label: "Бицепс"},
	{Key: "glutes_cm", Label: "Ягодицы"},
}

// KnownField reports whether key is a measured field.
func KnownField(key string) bool {
	for _, f := range Fields {
		if f.Key == key {
			return true
		}
	}
	return false
}

// Values maps field keys to centimeters. Missing fields are absent.
type Values map[string]float64

// Payload is the JSON document stored in a measurements note.
type Payload struct {
	Version   int        `json:"version"`
	UpdatedAt *time.Time `json:"updated_at"`
	Values    Values     `json:"values"`
}

// NewPayload builds a payload for saving, dropping unknown fields.
func NewPayload(values Values, at time.Time) Payload {
	clean := Values{}
	for k, v := range values {
		if KnownField(k) && !math.IsNaN(v) && !math.IsInf(v, 0) {
			clean[k] = v
		}
	}
	ts := at.UTC()
	return Payload{Version: PayloadVersion, UpdatedAt: &ts, Values: clean}
}

// Encode renders the payload as note text.
func (p Payload) Encode() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Parse reads note text. It accepts the current payload, the legacy updatedAt key and a bare
// values object. ok is false for empty or unreadable text.
func Parse(text string) (Payload, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Payload{}, false
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &top); err != nil || top == nil {
		return Payload{}, false
	}

	rawValues, wrapped := top["values"]
	if wrapped {
		var obj map[string]json.RawMessage
		wrapped = json.Unmarshal(rawValues, &obj) == nil && obj != nil
	}
	if !wrapped {
		return Payload{Version: PayloadVersion, Values: numericValues(top)}, true
	}

	var fields map[string]json.RawMessage
	_ = json.Unmarshal(rawValues, &fields)
	p := Payload{Version: PayloadVersion, Values: numericValues(fields)}
	if raw, ok := top["version"]; ok {
		_ = json.Unmarshal(raw, &p.Version)
	}
	for _, key := range []string{"updated_at", "updatedAt"} {
		var s string
		if raw, ok := top[key]; ok && json.Unmarshal(raw, &s) == nil {
			if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
				p.UpdatedAt = &ts
				break
			}
		}
	}
	return p, true
}

func numericValues(fields map[string]json.RawMessage) Values {
	out := Values{}
	for k, raw := range fields {
		if !KnownField(k) {
			continue
		}
		var f float64
		if json.Unmarshal(raw, &f) == nil {
			out[k] = f
			continue
		}
		var s string
		if json.Unmarshal(raw, &s) == nil {
			if v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64); err == nil {
				out[k] = v
			}
		}
	}
	return out
}

// Trend classifies a delta.
type Trend string

const (
	TrendEmpty    Trend = "empty"
	TrendNeutral  Trend = "neutral"
	TrendPositive Trend = "positive"
	TrendNegative Trend = "negative"
)

// Delta is the rendered change of one field.
type Delta struct {
	Field Field
	Text  string
	Trend Trend
}

// Deltas compares current values with a previous entry, field by field in display order.
func Deltas(current, previous Values) []Delta {
	out := make([]Delta, 0, len(Fields))
	for _, f := range Fields {
		out = append(out, fieldDelta(f, current, previous))
	}
	return out
}

func fieldDelta(f Field, current, previous Values) Delta {
	cur, okCur := current[f.Key]
	prev, okPrev := previous[f.Key]
	if !okCur || !okPrev {
		return Delta{Field: f, Text: "—", Trend: TrendEmpty}
	}
	diff := round1(cur - prev)
	switch {
	case diff == 0:
		return Delta{Field: f, Text: "0 см", Trend: TrendNeutral}
	case diff > 0:
		return Delta{Field: f, Text: "+" + FormatNumber(diff) + " см", Trend: TrendPositive}
	default:
		return Delta{Field: f, Text: FormatNumber(diff) + " см", Trend: TrendNegative}
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// FormatNumber rounds to one decimal and drops it for whole numbers.
func FormatNumber(v float64) string {
	r := round1(v)
	if r == math.Trunc(r) {
		return strconv.FormatFloat(r, 'f', 0, 64)
	}
	return strconv.FormatFloat(r, 'f', 1, 64)
}

// Summary renders values as "талия: 80 см · бедра: 95.5 см", or "" when empty.
func Summary(values Values) string {
	parts := make([]string, 0, len(values))
	for _, f := range Fields {
		if v, ok := values[f.Key]; ok {
			parts = append(parts, strings.ToLower(f.Label)+": "+FormatNumber(v)+" см")
		}
	}
	return strings.Join(parts, " · ")
}

// Entry is the measurement of one day.
type Entry struct {
	Day    string `json:"day"`
	Values Values `json:"values"`
}
