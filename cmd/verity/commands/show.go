package commands

import (
	"fmt"

	"blockverity/pkg/exporter"
	"blockverity/pkg/types"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <object-id>",
	Short: "Show a stored seal or manifest",
	Long:  `Decode and print an object from the object store. The id may be a unique prefix of at least 4 characters.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		hash, err := Verity.Store.ExpandHash(ctx, types.HashPrefix(args[0]))
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", args[0], err)
		}
		return exporter.NewExporter(Verity.Store).PrintObject(ctx, hash, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
