package cli

import (
	"github.com/spf13/cobra"

	"github.com/five82/trainlog/internal/app"
)

func init() {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open today's plan in the terminal UI",
		Run:   runTUI,
	}
	RootCmd.AddCommand(cmd)
}

func runTUI(cmd *cobra.Command, args []string) {
	// LogWriter stays nil so logs go to the log file instead of the screen.
	opts := app.Options{ConfigPath: configPath, PrefsPath: prefsPath}
	if err := app.Run(cmd.Context(), opts); err != nil {
		exitErr("tui", err)
	}
}
