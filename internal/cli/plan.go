package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/trainlog/internal/state"
	"github.com/five82/trainlog/internal/workout"
)

func init() {
	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Today's structured workout plan",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print today's plan with set states",
		Run:   runPlanShow,
	}
	showCmd.Flags().Bool("force", false, "Skip the short-lived cache")

	planCmd.AddCommand(showCmd)
	RootCmd.AddCommand(planCmd)
}

func runPlanShow(cmd *cobra.Command, args []string) {
	force, _ := cmd.Flags().GetBool("force")

	a := openApp()
	defer a.Close()

	plan, err := a.Plans.Plan(cmd.Context(), force)
	if err != nil {
		exitErr("load plan", err)
	}
	snap := a.Plans.Snapshot()

	if jsonOutput() {
		printJSON(cmd.OutOrStdout(), map[string]any{
			"plan":   plan,
			"origin": snap.Origin.String(),
		})
		return
	}
	if snap.Degraded() {
		fmt.Fprintf(cmd.ErrOrStderr(), "⚠ план из источника: %s\n", originLabel(snap.Origin))
	}
	writePlan(cmd.OutOrStdout(), plan)
}

var planGlyph = map[workout.SetState]string{
	workout.Pending:   "[ ]",
	workout.Completed: "[x]",
	workout.Skipped:   "[-]",
}

func writePlan(w io.Writer, plan workout.Plan) {
	if plan.Empty() {
		fmt.Fprintln(w, "На сегодня плана нет")
		return
	}
	for _, ex := range plan.Exercises {
		mark := " "
		if ex.Completed {
			mark = "✓"
		}
		header := fmt.Sprintf("%s %s", mark, ex.Name)
		if ex.WorkingWeight > 0 {
			header += " · " + workout.FormatWeight(ex.WorkingWeight) + " кг"
		}
		fmt.Fprintln(w, header)
		for _, s := range ex.Sets {
			fmt.Fprintf(w, "    %s %s\n", planGlyph[s.State()], setLine(s))
		}
	}
	done, total := plan.Progress()
	fmt.Fprintf(w, "\n%d/%d подходов\n", done, total)
}

func setLine(s workout.Set) string {
	parts := []string{fmt.Sprintf("%d подход", s.Number)}
	if s.WeightKG != nil && *s.WeightKG != 0 {
		parts = append(parts, workout.FormatWeight(*s.WeightKG)+"кг")
	}
	if planned := workout.PlannedReps(s); planned != "" {
		parts = append(parts, workout.FormatReps(planned))
	}
	line := strings.Join(parts, " · ")
	if s.PerformedReps != nil && strings.TrimSpace(*s.PerformedReps) != "" {
		line += " → " + strings.TrimSpace(*s.PerformedReps)
	}
	return line
}

func originLabel(o state.Origin) string {
	switch o {
	case state.OriginStale:
		return "кэш"
	case state.OriginFallback:
		return "устройство"
	default:
		return "сервер"
	}
}
