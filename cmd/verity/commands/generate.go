package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	generateNoSeal bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <data-file>",
	Short: "Hash every block, build the Merkle root and save the manifest",
	Long: `Compute the SHA-256 digest of every block of the data file, fold them into a Merkle root,
and write the manifest next to the data file (or to --manifest).
Unless --no-seal is given, the manifest and a seal recording the root are stored in the object
store, the seal is pinned for this data file, and the generation is recorded in the registry.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		dataPath, err := dataPathArg(args[0])
		if err != nil {
			return err
		}
		eng, err := newEngine(dataPath)
		if err != nil {
			return err
		}

		gen, err := eng.GenerateHashes(ctx)
		if err != nil {
			return fmt.Errorf("generate failed: %w", err)
		}
		if err := eng.SaveHashes(gen); err != nil {
			return fmt.Errorf("save manifest failed: %w", err)
		}

		fmt.Fprintf(out, "Root hash: %s\n", gen.Root)
		fmt.Fprintf(out, "Blocks:    %d x %d bytes\n", gen.BlockCount(), gen.BlockSize)
		fmt.Fprintf(out, "Manifest:  %s\n", eng.ManifestPath())

		if generateNoSeal {
			return nil
		}

		seal, err := Verity.Commit(ctx, eng, gen)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Seal:      %s\n", seal.ID())
		return nil
	},
}

func init() {
	generateCmd.Flags().BoolVar(&generateNoSeal, "no-seal", false, "only write the manifest; skip the object store, pin and registry")
	rootCmd.AddCommand(generateCmd)
}
