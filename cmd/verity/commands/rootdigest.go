package commands

import (
	"fmt"

	"blockverity/pkg/engine"
	"blockverity/pkg/manifest"
	"blockverity/pkg/merkle"

	"github.com/spf13/cobra"
)

var rootDigestCmd = &cobra.Command{
	Use:         "root [data-file]",
	Short:       "Recompute the Merkle root digest from a manifest",
	Long:        `Read the manifest of the data file (or the file given by --manifest) and print its Merkle root.`,
	Annotations: map[string]string{noAppAnnotation: "true"},
	Args:        cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := Verity.Config.Manifest.Path
		if path == "" {
			if len(args) == 0 {
				return fmt.Errorf("either a data file or --manifest is required")
			}
			dataPath, err := dataPathArg(args[0])
			if err != nil {
				return err
			}
			path = dataPath + engine.ManifestSuffix
		}

		digests, err := manifest.Load(Verity.Fs, path)
		if err != nil {
			return err
		}
		root, err := merkle.BuildRoot(digests)
		if err != nil {
			return fmt.Errorf("manifest %s: %w", path, err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), root)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rootDigestCmd)
}
