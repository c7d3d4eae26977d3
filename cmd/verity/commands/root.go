package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"blockverity/pkg/app"
	"blockverity/pkg/config"
	"blockverity/pkg/logging"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ErrVerificationFailed 完整性校验没有通过；main 据此返回退出码 1
var ErrVerificationFailed = errors.New("verification failed")

// noAppAnnotation 标记不需要组装 App 的命令 (init / root / demo)
const noAppAnnotation = "verity/no-app"

var (
	cfgFile string
	// 全局应用实例，供子命令使用
	Verity *app.App
	// 测试可以替换成 MemMapFs
	appFs afero.Fs = afero.NewOsFs()
)

var rootCmd = &cobra.Command{
	Use:           "verity",
	Short:         "BlockVerity: block-level integrity verification with Merkle manifests",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := config.Load(cfgFile); err != nil {
			return err
		}
		cfg, err := config.FromViper()
		if err != nil {
			return err
		}

		level, err := logging.ParseLevel(cfg.Log.Level)
		if err != nil {
			return err
		}
		logger := logging.New(cmd.ErrOrStderr(), level)
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debugf("using config file %s", used)
		}

		if cmd.Annotations[noAppAnnotation] != "" {
			Verity = &app.App{Config: cfg, Logger: logger, Fs: appFs}
			return nil
		}
		// 测试里预先注入的 App 直接使用
		if Verity != nil && Verity.Store != nil {
			return nil
		}
		Verity, err = app.NewApp(cmd.Context(), cfg, appFs, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize verity: %w\n(Did you run 'verity init'?)", err)
		}
		return nil
	},
}

// Execute 是入口；无论命令成败都会关闭 App
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if Verity != nil && Verity.Store != nil {
		if cerr := Verity.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ./.verity/config.yaml or $HOME/.verity/config.yaml)")

	pf.Int("block-size", 4096, "block size in bytes")
	pf.Int("workers", 0, "parallel hashing workers (default is the number of CPUs)")
	pf.String("manifest", "", "manifest path (default is <data-file>.hashtree)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("storage-path", "", "directory to store seals and manifests")
	pf.String("home", "", "verity state directory (default is ./.verity)")

	bindings := map[string]string{
		"block_size":    "block-size",
		"workers":       "workers",
		"manifest.path": "manifest",
		"log.level":     "log-level",
		"storage.path":  "storage-path",
		"home":          "home",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, pf.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", flag, err))
		}
	}
}
