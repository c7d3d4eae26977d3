package commands

import (
	"errors"
	"fmt"

	"blockverity/pkg/exporter"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history <data-file>",
	Short: "List recorded generations and verification runs of a data file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Verity.Registry == nil {
			return errors.New("no registry configured (set registry.driver to sqlite or postgres)")
		}
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		dataPath, err := dataPathArg(args[0])
		if err != nil {
			return err
		}

		gens, err := Verity.Registry.ListGenerations(ctx, dataPath, historyLimit)
		if err != nil {
			return err
		}
		runs, err := Verity.Registry.ListRuns(ctx, dataPath, historyLimit)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Generations of %s\n", dataPath)
		exporter.PrintGenerations(gens, out)
		fmt.Fprintf(out, "\nVerification runs\n")
		exporter.PrintRuns(runs, out)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of entries per section (0 = all)")
	rootCmd.AddCommand(historyCmd)
}
