package commands

import (
	"errors"
	"fmt"

	"blockverity/pkg/engine"
	"blockverity/pkg/exporter"
	"blockverity/pkg/types"

	"github.com/spf13/cobra"
)

var restoreSeal string

var restoreCmd = &cobra.Command{
	Use:   "restore <data-file>",
	Short: "Restore the manifest of a data file from a stored seal",
	Long: `Fetch the manifest referenced by a seal (the pinned seal by default), check that it hashes to
the seal's Merkle root, and overwrite the local manifest with it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		dataPath, err := dataPathArg(args[0])
		if err != nil {
			return err
		}
		eng, err := newEngine(dataPath)
		if err != nil {
			return err
		}

		id := types.HashPrefix(restoreSeal)
		if id == "" {
			pinned, err := Verity.Refs.GetPin(dataPath)
			if err != nil {
				return fmt.Errorf("no --seal given: %w", err)
			}
			id = types.HashPrefix(pinned)
		}

		seal, err := engine.LoadSeal(ctx, Verity.Store, id)
		if err != nil {
			return err
		}
		if seal.BlockSize != int64(eng.BlockSize()) {
			return errors.New("seal block size differs from the configured block size (use --block-size)")
		}

		n, err := exporter.NewExporter(Verity.Store).RestoreManifest(ctx, seal, Verity.Fs, eng.ManifestPath())
		if err != nil {
			return fmt.Errorf("restore failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored %d block digests to %s (root %s)\n",
			n, eng.ManifestPath(), seal.Root.Hash.Short())
		return nil
	},
}

func init() {
	restoreCmd.Flags().StringVar(&restoreSeal, "seal", "", "seal id or unique prefix (default is the pinned seal)")
	rootCmd.AddCommand(restoreCmd)
}
