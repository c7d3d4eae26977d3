package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const configTemplate = `# BlockVerity configuration
block_size: 4096
log:
  level: info
storage:
  type: disk          # disk | s3
registry:
  driver: none        # none | sqlite | postgres
  # dsn: %s
`

var initCmd = &cobra.Command{
	Use:         "init",
	Short:       "Initialize the verity state directory",
	Long:        `Create the .verity directory with an object store, a pins directory and a config template.`,
	Annotations: map[string]string{noAppAnnotation: "true"},
	Args:        cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		home := Verity.Config.Home
		fs := Verity.Fs
		out := cmd.OutOrStdout()

		if ok, _ := afero.DirExists(fs, home); ok {
			fmt.Fprintf(out, "Verity state directory already exists in %s\n", home)
			return nil
		}

		for _, dir := range []string{Verity.Config.ObjectsPath(), filepath.Join(home, "pins")} {
			if err := fs.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create %s: %w", dir, err)
			}
		}

		cfgPath := filepath.Join(home, "config.yaml")
		content := fmt.Sprintf(configTemplate, filepath.Join(home, "registry.db"))
		if err := afero.WriteFile(fs, cfgPath, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}

		fmt.Fprintf(out, "Initialized verity state directory in %s\n", home)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
