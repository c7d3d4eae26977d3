package commands

import (
	"fmt"

	verityrpc "blockverity/pkg/api/verityrpc/v1"
	"blockverity/pkg/client"

	"github.com/spf13/cobra"
)

var (
	remoteAddr  string
	remoteBlock int
	remoteAudit bool
	remoteRoot  string
	remoteSeal  bool
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Run generate / verify on a verity-server",
	Long: `Ask a running verity-server to hash or verify a file on the server's own filesystem.
Paths are server paths and must be absolute.`,
	Annotations: map[string]string{noAppAnnotation: "true"},
}

func dialRemote() (*client.VerityClient, error) {
	addr := remoteAddr
	if addr == "" {
		addr = Verity.Config.Server.Addr
	}
	return client.NewVerityClient(addr)
}

var remoteGenerateCmd = &cobra.Command{
	Use:         "generate <server-path>",
	Short:       "Generate the manifest of a server-side file",
	Annotations: map[string]string{noAppAnnotation: "true"},
	Args:        cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := dialRemote()
		if err != nil {
			return err
		}
		defer c.Close()

		resp, err := c.Verity.Generate(cmd.Context(), &verityrpc.GenerateRequest{DataPath: args[0], Seal: remoteSeal})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Root hash: %s\n", resp.Root)
		fmt.Fprintf(out, "Blocks:    %d x %d bytes\n", resp.BlockCount, resp.BlockSize)
		fmt.Fprintf(out, "Manifest:  %s\n", resp.Manifest)
		if resp.SealID != "" {
			fmt.Fprintf(out, "Seal:      %s\n", resp.SealID)
		}
		return nil
	},
}

var remoteVerifyCmd = &cobra.Command{
	Use:         "verify <server-path>",
	Short:       "Verify a server-side file against its manifest",
	Annotations: map[string]string{noAppAnnotation: "true"},
	Args:        cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		c, err := dialRemote()
		if err != nil {
			return err
		}
		defer c.Close()

		switch {
		case cmd.Flags().Changed("block"):
			resp, err := c.Verity.VerifyBlock(ctx, &verityrpc.VerifyBlockRequest{
				DataPath: args[0], Index: remoteBlock, TrustedRoot: remoteRoot,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Block %d verification: %t\n", remoteBlock, resp.OK)
			if !resp.OK {
				return ErrVerificationFailed
			}
			return nil

		case remoteAudit:
			resp, err := c.Verity.Audit(ctx, &verityrpc.AuditRequest{DataPath: args[0], TrustedRoot: remoteRoot})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Checked %d of %d blocks (manifest has %d)\n", resp.Checked, resp.FileBlocks, resp.ManifestBlocks)
			if len(resp.FailedBlocks) > 0 {
				fmt.Fprintf(out, "Failed blocks: %v\n", resp.FailedBlocks)
			}
			if !resp.OK {
				return ErrVerificationFailed
			}
			fmt.Fprintln(out, "OK")
			return nil

		default:
			resp, err := c.Verity.VerifyAll(ctx, &verityrpc.VerifyAllRequest{DataPath: args[0], TrustedRoot: remoteRoot})
			if err != nil {
				return err
			}
			if !resp.OK {
				fmt.Fprintln(out, "FAILED")
				return ErrVerificationFailed
			}
			fmt.Fprintln(out, "OK")
			return nil
		}
	},
}

func init() {
	remoteCmd.PersistentFlags().StringVar(&remoteAddr, "addr", "", "server address (default is server.addr from config)")

	remoteGenerateCmd.Flags().BoolVar(&remoteSeal, "seal", false, "also store, pin and record a seal on the server")

	remoteVerifyCmd.Flags().IntVar(&remoteBlock, "block", 0, "verify only this block index")
	remoteVerifyCmd.Flags().BoolVar(&remoteAudit, "audit", false, "check every block and report all failures")
	remoteVerifyCmd.Flags().StringVar(&remoteRoot, "root", "", "authenticate the manifest against this trusted root digest")
	remoteVerifyCmd.MarkFlagsMutuallyExclusive("block", "audit")

	remoteCmd.AddCommand(remoteGenerateCmd, remoteVerifyCmd)
	rootCmd.AddCommand(remoteCmd)
}
