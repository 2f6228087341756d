package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Training statistics for a period",
		Run:   runStats,
	}
	statsCmd.Flags().Int("days", 7, "Period length in days")
	statsCmd.Flags().Bool("previous", false, "Report the preceding period of the same length")
	RootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) {
	days, _ := cmd.Flags().GetInt("days")
	previous, _ := cmd.Flags().GetBool("previous")

	a := openApp()
	defer a.Close()

	stats, err := a.Client.GetStats(cmd.Context(), days, previous)
	if err != nil {
		exitErr("get stats", err)
	}

	if jsonOutput() {
		printJSON(cmd.OutOrStdout(), stats)
		return
	}
	if stats.Offline {
		fmt.Fprintln(cmd.ErrOrStderr(), "⚠ статистика недоступна офлайн")
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Тренировок:        %d\n", stats.Workouts)
	fmt.Fprintf(w, "В среднем в неделю: %.1f\n", stats.AvgPerWeek)
	fmt.Fprintf(w, "Выполнение плана:   %.0f%%\n", stats.WorkoutPercentage)
	fmt.Fprintf(w, "Серия:              %d (лучшая %d, всего %d)\n",
		stats.Streak.Current, stats.Streak.Max, stats.Streak.Total)
}
