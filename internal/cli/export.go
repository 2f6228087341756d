package cli

import (
	"os"

	"github.com/spf13/cobra"
)

func init() {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write all stored data as JSON",
		Run:   runExport,
	}
	exportCmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")
	RootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) {
	output, _ := cmd.Flags().GetString("output")

	a := openApp()
	defer a.Close()

	data, err := a.Client.Export(cmd.Context())
	if err != nil {
		exitErr("export", err)
	}

	if output == "" {
		printJSON(cmd.OutOrStdout(), data)
		return
	}
	f, err := os.Create(output)
	if err != nil {
		exitErr("create output", err)
	}
	defer f.Close()
	printJSON(f, data)
}
