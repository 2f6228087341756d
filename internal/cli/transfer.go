package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/trainlog/internal/tracker"
)

func init() {
	transferCmd := &cobra.Command{
		Use:   "transfer",
		Short: "Append completed exercises of today's plan to the workouts note",
		Run:   runTransfer,
	}
	RootCmd.AddCommand(transferCmd)
}

func runTransfer(cmd *cobra.Command, args []string) {
	a := openApp()
	defer a.Close()
	day := resolveDay(a)

	res, err := tracker.TransferResults(cmd.Context(), a.Plans, a.Notes, day, a.Now())
	if err != nil {
		exitErr("transfer results", err)
	}

	if jsonOutput() {
		printJSON(cmd.OutOrStdout(), map[string]any{
			"day":      day,
			"appended": res.Appended,
			"offline":  res.Offline,
		})
		return
	}
	offlineNote(cmd, res.Offline)
	fmt.Fprintln(cmd.OutOrStdout(), res.Appended)
}
