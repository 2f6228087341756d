package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Read returns at most maxLines from the end of the file at path. maxLines <= 0 returns
// every line. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Entry is one decoded JSON log line.
type Entry struct {
	Time    string
	Level   log.Level
	Prefix  string
	Message string
	Fields  map[string]string
}

// Parse decodes a line written by a JSON logger. ok is false for anything else.
func Parse(line string) (Entry, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") {
		return Entry{}, false
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{}, false
	}
	e := Entry{Level: log.InfoLevel, Fields: map[string]string{}}
	for k, v := range raw {
		text := fmt.Sprint(v)
		switch k {
		case log.TimestampKey:
			e.Time = text
		case log.LevelKey:
			if lvl, err := log.ParseLevel(text); err == nil {
				e.Level = lvl
			}
		case log.PrefixKey:
			e.Prefix = text
		case log.MessageKey:
			e.Message = text
		default:
			e.Fields[k] = text
		}
	}
	return e, true
}

// Filter keeps lines at or above min. Lines that are not JSON log entries are kept.
func Filter(lines []string, min log.Level) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if e, ok := Parse(line); ok && e.Level < min {
			continue
		}
		out = append(out, line)
	}
	return out
}

var (
	timeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4"))
	fieldStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BE9FD"))
	levelStyle = map[log.Level]lipgloss.Style{
		log.DebugLevel: lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Bold(true),
		log.InfoLevel:  lipgloss.NewStyle().Foreground(lipgloss.Color("#5FD75F")).Bold(true),
		log.WarnLevel:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true),
		log.ErrorLevel: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		log.FatalLevel: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
	}
)

// FormatLine renders a JSON log line for the terminal as
// "time LEVEL [component] message key=value ...". Other lines are returned unchanged.
func FormatLine(line string) string {
	e, ok := Parse(line)
	if !ok {
		return line
	}

	parts := make([]string, 0, 4+len(e.Fields))
	if e.Time != "" {
		parts = append(parts, timeStyle.Render(e.Time))
	}
	parts = append(parts, levelStyle[e.Level].Render(strings.ToUpper(e.Level.String())))
	if c, ok := e.Fields["component"]; ok {
		parts = append(parts, fieldStyle.Render("["+c+"]"))
	}
	parts = append(parts, e.Message)

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		if k != "component" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fieldStyle.Render(k+"=")+e.Fields[k])
	}
	return strings.Join(parts, " ")
}

// FormatLines applies FormatLine to every line.
func FormatLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = FormatLine(line)
	}
	return out
}
