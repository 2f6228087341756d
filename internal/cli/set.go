package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/five82/trainlog/internal/status"
	"github.com/five82/trainlog/internal/tracker"
)

func init() {
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Change one set of today's plan",
	}

	toggleCmd := &cobra.Command{
		Use:   "toggle <exercise> <number>",
		Short: "Advance a set: pending → completed → skipped → pending",
		Args:  cobra.ExactArgs(2),
		Run:   runSetToggle,
	}

	repsCmd := &cobra.Command{
		Use:   "reps <exercise> <number> <reps>",
		Short: "Record the performed reps of a set",
		Args:  cobra.ExactArgs(3),
		Run:   runSetReps,
	}

	exerciseCmd := &cobra.Command{
		Use:   "exercise",
		Short: "Change a whole exercise of today's plan",
	}

	exerciseToggleCmd := &cobra.Command{
		Use:   "toggle <exercise>",
		Short: "Complete every set, or reset them all when already complete",
		Args:  cobra.ExactArgs(1),
		Run:   runExerciseToggle,
	}

	setCmd.AddCommand(toggleCmd, repsCmd)
	exerciseCmd.AddCommand(exerciseToggleCmd)
	RootCmd.AddCommand(setCmd, exerciseCmd)
}

func parseSetNumber(arg string) int {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		exitErr("parse set number", fmt.Errorf("invalid set number %q", arg))
	}
	return n
}

func runSetToggle(cmd *cobra.Command, args []string) {
	number := parseSetNumber(args[1])

	a := openApp()
	defer a.Close()

	out, err := a.Sets.ToggleSet(cmd.Context(), args[0], number)
	if err != nil {
		exitErr("toggle set", err)
	}
	printOutcome(cmd, a.Today(), out)
}

func runSetReps(cmd *cobra.Command, args []string) {
	number := parseSetNumber(args[1])

	a := openApp()
	defer a.Close()

	out, err := a.Sets.SetReps(cmd.Context(), args[0], number, args[2])
	if err != nil {
		exitErr("set reps", err)
	}
	printOutcome(cmd, a.Today(), out)
}

func runExerciseToggle(cmd *cobra.Command, args []string) {
	a := openApp()
	defer a.Close()

	out, err := a.Sets.ToggleExercise(cmd.Context(), args[0])
	if err != nil {
		exitErr("toggle exercise", err)
	}
	printOutcome(cmd, a.Today(), out)
}

func printOutcome(cmd *cobra.Command, day string, out tracker.Outcome) {
	kind := outcomeKind(out)
	msg := status.Message(kind, day)
	if kind.IsError() && out.Err != nil {
		msg = status.ForError(out.Err)
	}

	if jsonOutput() {
		printJSON(cmd.OutOrStdout(), map[string]any{
			"exercise":  out.Exercise,
			"sets":      out.Sets,
			"state":     out.State.String(),
			"offline":   out.Offline,
			"unchanged": out.Unchanged,
			"status":    kind.String(),
		})
		return
	}

	w := cmd.OutOrStdout()
	for _, n := range out.Sets {
		fmt.Fprintf(w, "%s · подход %d: %s\n", out.Exercise, n, out.State)
	}
	fmt.Fprintln(w, msg)
}

func outcomeKind(out tracker.Outcome) status.Kind {
	switch {
	case out.Offline:
		return status.Offline
	case out.Err != nil:
		return status.FromError(out.Err)
	default:
		return status.Saved
	}
}
