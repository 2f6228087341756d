// Package cli implements the trainlog CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/trainlog/internal/app"
	"github.com/five82/trainlog/internal/config"
	"github.com/five82/trainlog/internal/workout"
)

var (
	configPath string
	prefsPath  string
	formatFlag string
	dayFlag    string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "trainlog",
	Short: "Workout tracker client",
	Long:  "Daily notes, body measurements and today's workout plan. Keeps working offline.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := config.LoadEnv(); err != nil {
			exitErr("load .env", err)
		}
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config path (default: ~/.config/trainlog/config.toml)")
	RootCmd.PersistentFlags().StringVar(&prefsPath, "prefs", "", "Preferences path (default: ~/.config/trainlog/prefs.toml)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "text", "Output format: json or text")
	RootCmd.PersistentFlags().StringVar(&dayFlag, "day", "", "Day as YYYY-MM-DD (default: today, Moscow time)")
}

func appOptions() app.Options {
	return app.Options{ConfigPath: configPath, PrefsPath: prefsPath, LogWriter: os.Stderr}
}

func openApp() *app.App {
	a, err := app.Open(appOptions())
	if err != nil {
		exitErr("open", err)
	}
	return a
}

// resolveDay returns the --day flag, or today.
func resolveDay(a *app.App) string {
	day := strings.TrimSpace(dayFlag)
	if day == "" {
		return a.Today()
	}
	if _, err := workout.ParseDay(day); err != nil {
		exitErr("parse --day", err)
	}
	return day
}

func jsonOutput() bool {
	return strings.EqualFold(formatFlag, "json")
}

func printJSON(w io.Writer, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		exitErr("encode output", err)
	}
	fmt.Fprintln(w, string(b))
}

// offlineNote prints a hint on stderr when a result came from local storage.
func offlineNote(cmd *cobra.Command, offline bool) {
	if offline {
		fmt.Fprintln(cmd.ErrOrStderr(), "⚠ офлайн: данные с этого устройства")
	}
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
