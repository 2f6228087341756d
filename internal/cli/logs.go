package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/trainlog/internal/config"
	"github.com/five82/trainlog/internal/logging"
	"github.com/five82/trainlog/internal/logtail"
)

func init() {
	logsCmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the TUI log file",
		Run:   runLogs,
	}
	logsCmd.Flags().IntP("lines", "n", 50, "Number of lines to show (0 for all)")
	logsCmd.Flags().String("level", "", "Minimum level: debug, info, warn, error")
	RootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) {
	lines, _ := cmd.Flags().GetInt("lines")
	level, _ := cmd.Flags().GetString("level")

	cfg, err := config.Load(configPath)
	if err != nil {
		exitErr("load config", err)
	}

	out, err := logtail.Read(cfg.LogPath(), lines)
	if err != nil {
		exitErr("read logs", err)
	}
	if strings.TrimSpace(level) != "" {
		out = logtail.Filter(out, logging.ParseLevel(level))
	}
	if len(out) == 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "no log entries in %s\n", cfg.LogPath())
		return
	}

	if jsonOutput() {
		for _, line := range out {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return
	}
	for _, line := range logtail.FormatLines(out) {
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
}
