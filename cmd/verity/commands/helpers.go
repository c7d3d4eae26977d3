package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"blockverity/pkg/engine"
	"blockverity/pkg/meta"
	"blockverity/pkg/refs"
	"blockverity/pkg/types"

	"github.com/spf13/cobra"
)

// dataPathArg 统一成绝对路径，钉住和注册表都以它为键
func dataPathArg(arg string) (string, error) {
	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", fmt.Errorf("invalid data path %q: %w", arg, err)
	}
	return abs, nil
}

func newEngine(dataPath string) (*engine.Engine, error) {
	return Verity.Engine(dataPath, "")
}

// trustFlags 是 verify 和 restore 共用的信任来源
type trustFlags struct {
	root   string
	seal   string
	pinned bool
}

func (f *trustFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.root, "root", "", "authenticate the manifest against this trusted root digest")
	cmd.Flags().StringVar(&f.seal, "seal", "", "authenticate the manifest against a stored seal (id or unique prefix)")
	cmd.Flags().BoolVar(&f.pinned, "pinned", false, "authenticate the manifest against the seal pinned for this data file")
	cmd.MarkFlagsMutuallyExclusive("root", "seal", "pinned")
}

func (f *trustFlags) set() bool {
	return f.root != "" || f.seal != "" || f.pinned
}

// resolve 返回受信任的根；没有指定信任来源时返回空
func (f *trustFlags) resolve(ctx context.Context, dataPath string) (types.Hash, error) {
	switch {
	case f.root != "":
		root := types.Hash(types.HashPrefix(f.root).Normalize())
		if !root.IsValid() {
			return "", fmt.Errorf("--root must be a full 64-character hex digest")
		}
		return root, nil
	case f.seal != "":
		seal, err := engine.LoadSeal(ctx, Verity.Store, types.HashPrefix(f.seal))
		if err != nil {
			return "", fmt.Errorf("failed to load seal %s: %w", f.seal, err)
		}
		return seal.Root.Hash, nil
	case f.pinned:
		id, err := Verity.Refs.GetPin(dataPath)
		if errors.Is(err, refs.ErrNoPin) {
			return "", fmt.Errorf("%w (run 'verity generate' first)", err)
		}
		if err != nil {
			return "", err
		}
		seal, err := engine.LoadSeal(ctx, Verity.Store, types.HashPrefix(id))
		if err != nil {
			return "", fmt.Errorf("failed to load pinned seal %s: %w", id.Short(), err)
		}
		return seal.Root.Hash, nil
	}
	return "", nil
}

func recordRun(ctx context.Context, rec meta.RunRecord, start time.Time) {
	Verity.RecordRun(ctx, rec, start)
}
