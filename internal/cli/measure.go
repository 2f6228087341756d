package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/trainlog/internal/measure"
)

func init() {
	measureCmd := &cobra.Command{
		Use:   "measure",
		Short: "Body measurements",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the day's measurements with changes since the previous entry",
		Run:   runMeasureShow,
	}

	saveCmd := &cobra.Command{
		Use:   "save <field=cm>...",
		Short: "Save the day's measurements (fields: waist, hips, chest, shoulders, biceps, glutes)",
		Args:  cobra.MinimumNArgs(1),
		Run:   runMeasureSave,
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recent days with measurements",
		Run:   runMeasureHistory,
	}

	measureCmd.AddCommand(showCmd, saveCmd, historyCmd)
	RootCmd.AddCommand(measureCmd)
}

// parseValues reads "waist=80" or "waist_cm=80.5" arguments. A comma decimal separator
// is accepted.
func parseValues(args []string) (measure.Values, error) {
	values := measure.Values{}
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected field=value, got %q", arg)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if !strings.HasSuffix(key, "_cm") {
			key += "_cm"
		}
		if !measure.KnownField(key) {
			return nil, fmt.Errorf("unknown field %q", strings.TrimSuffix(key, "_cm"))
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(raw), ",", "."), 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("invalid value for %s: %q", key, raw)
		}
		values[key] = v
	}
	return values, nil
}

func runMeasureShow(cmd *cobra.Command, args []string) {
	a := openApp()
	defer a.Close()
	day := resolveDay(a)

	ov, err := a.Measurements.Overview(cmd.Context(), day)
	if err != nil {
		exitErr("load measurements", err)
	}

	if jsonOutput() {
		deltas := make(map[string]string, len(ov.Deltas))
		for _, d := range ov.Deltas {
			deltas[d.Field.Key] = d.Text
		}
		printJSON(cmd.OutOrStdout(), map[string]any{
			"day":      day,
			"current":  ov.Current,
			"previous": ov.Previous,
			"deltas":   deltas,
		})
		return
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Замеры · %s\n", day)
	for _, d := range ov.Deltas {
		value := "—"
		if v, ok := ov.Current[d.Field.Key]; ok {
			value = measure.FormatNumber(v) + " см"
		}
		fmt.Fprintf(w, "  %-8s %10s   %s\n", d.Field.Label, value, d.Text)
	}
	if ov.Previous != nil {
		fmt.Fprintf(w, "\nПредыдущие: %s\n", ov.Previous.Day)
	}
}

func runMeasureSave(cmd *cobra.Command, args []string) {
	values, err := parseValues(args)
	if err != nil {
		exitErr("parse measurements", err)
	}

	a := openApp()
	defer a.Close()
	day := resolveDay(a)

	// Fields not given on the command line keep their stored values.
	current, err := a.Measurements.Load(cmd.Context(), day)
	if err != nil {
		exitErr("load measurements", err)
	}
	for k, v := range values {
		current[k] = v
	}

	note, err := a.Measurements.Save(cmd.Context(), day, current)
	if err != nil {
		exitErr("save measurements", err)
	}

	if jsonOutput() {
		printJSON(cmd.OutOrStdout(), map[string]any{
			"day":     day,
			"values":  current,
			"offline": note.Offline,
		})
		return
	}
	offlineNote(cmd, note.Offline)
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Сохранено · %s\n%s\n", day, measure.Summary(current))
}

func runMeasureHistory(cmd *cobra.Command, args []string) {
	a := openApp()
	defer a.Close()
	day := resolveDay(a)

	entries, err := a.Measurements.History(cmd.Context(), day)
	if err != nil {
		exitErr("load history", err)
	}

	if jsonOutput() {
		printJSON(cmd.OutOrStdout(), entries)
		return
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Замеров пока нет")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", e.Day, measure.Summary(e.Values))
	}
}
