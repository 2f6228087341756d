package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/trainlog/internal/workout"
)

func init() {
	noteCmd := &cobra.Command{
		Use:   "note",
		Short: "Read or write a daily note",
	}

	getCmd := &cobra.Command{
		Use:   "get <plan|meals|workouts|measurements>",
		Short: "Print a daily note",
		Args:  cobra.ExactArgs(1),
		Run:   runNoteGet,
	}

	putCmd := &cobra.Command{
		Use:   "put <plan|meals|workouts> [text]",
		Short: "Write a daily note (text from stdin when omitted or \"-\")",
		Args:  cobra.RangeArgs(1, 2),
		Run:   runNotePut,
	}

	noteCmd.AddCommand(getCmd, putCmd)
	RootCmd.AddCommand(noteCmd)
}

func parseKind(arg string) workout.Kind {
	kind := workout.Kind(strings.ToLower(strings.TrimSpace(arg)))
	if !kind.Valid() {
		exitErr("parse kind", fmt.Errorf("unknown note kind %q", arg))
	}
	return kind
}

func runNoteGet(cmd *cobra.Command, args []string) {
	kind := parseKind(args[0])

	a := openApp()
	defer a.Close()
	day := resolveDay(a)

	var (
		note   workout.Note
		source = kind
	)
	if kind == workout.KindPlan {
		loaded, err := a.Notes.LoadPlan(cmd.Context(), day)
		if err != nil {
			exitErr("get note", err)
		}
		note, source = loaded.Note, loaded.Source
	} else {
		n, err := a.Notes.Load(cmd.Context(), day, kind)
		if err != nil {
			exitErr("get note", err)
		}
		note = n
	}

	if jsonOutput() {
		printJSON(cmd.OutOrStdout(), map[string]any{
			"day":     day,
			"kind":    kind,
			"source":  source,
			"text":    note.Text,
			"offline": note.Offline,
		})
		return
	}
	offlineNote(cmd, note.Offline)
	fmt.Fprintln(cmd.OutOrStdout(), note.Text)
}

func runNotePut(cmd *cobra.Command, args []string) {
	kind := parseKind(args[0])
	if kind == workout.KindMeasurements {
		exitErr("put note", fmt.Errorf("use \"trainlog measure save\" for measurements"))
	}

	var text string
	if len(args) == 2 && args[1] != "-" {
		text = args[1]
	} else {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			exitErr("read stdin", err)
		}
		text = strings.TrimRight(string(b), "\n")
	}

	a := openApp()
	defer a.Close()
	day := resolveDay(a)

	res, err := a.Notes.Save(cmd.Context(), day, kind, text)
	if err != nil {
		exitErr("put note", err)
	}
	if res.ShadowErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: copy to workouts failed: %v\n", res.ShadowErr)
	}

	if jsonOutput() {
		printJSON(cmd.OutOrStdout(), map[string]any{
			"day":     day,
			"kind":    kind,
			"offline": res.Note.Offline,
		})
		return
	}
	offlineNote(cmd, res.Note.Offline)
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Сохранено · %s\n", day)
}
