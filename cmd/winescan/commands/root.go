// Package commands winescan CLIのサブコマンド
package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"winescan-app/cmd/winescan/ui"
	"winescan-app/internal/config"
	"winescan-app/internal/logger"
	"winescan-app/internal/presentation/di"
	httpHandler "winescan-app/internal/presentation/http/handler"
)

// rootOptions 全サブコマンド共通のフラグ
type rootOptions struct {
	configPath string
	verbose    bool
	noColor    bool
	noRedis    bool
	noMySQL    bool

	// containerOpts テストでAIゲートウェイ等を差し替える
	containerOpts []di.Option
}

// NewRootCmd ルートコマンドを作成
func NewRootCmd(containerOpts ...di.Option) *cobra.Command {
	opts := &rootOptions{containerOpts: containerOpts}

	cmd := &cobra.Command{
		Use:   "winescan",
		Short: "WineScan - scan wine labels from the command line",
		Long: `WineScan reads a wine label photo, recognizes the text, and produces
metadata, a taste profile, and serving notes. The same pipeline backs the HTTP API.`,
		Version:       httpHandler.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("load .env: %w", err)
			}

			ui.Init(opts.noColor)

			// ログは標準エラーへ
			logger.SetOutput(cmd.ErrOrStderr())
			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			logger.Configure(level, "text")
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file path (default $WINESCAN_CONFIG or ~/.winescan/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	cmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	cmd.PersistentFlags().BoolVar(&opts.noRedis, "no-redis", false, "run without the Redis cache tier")
	cmd.PersistentFlags().BoolVar(&opts.noMySQL, "no-mysql", false, "run without the MySQL cache tier")

	cmd.AddCommand(
		newScanCmd(opts),
		newMetersCmd(),
		newHashCmd(opts),
	)

	return cmd
}

// Execute ルートコマンドを実行
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig 設定ファイルを読み込む（読めない場合はデフォルト）
func (o *rootOptions) loadConfig() *config.Config {
	path := o.configPath
	if path == "" {
		path = os.Getenv("WINESCAN_CONFIG")
	}
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, ".winescan", "config.yaml")
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		logger.WithError(err).Warn("Failed to load config, using defaults")
		return config.DefaultConfig()
	}
	return cfg
}

// newContainer フラグに従ってDIコンテナを作成
func (o *rootOptions) newContainer() (*di.Container, error) {
	opts := append([]di.Option{}, o.containerOpts...)
	if o.noRedis {
		opts = append(opts, di.WithoutRedis())
	}
	if o.noMySQL {
		opts = append(opts, di.WithoutMySQL())
	}

	container, err := di.NewContainer(o.loadConfig(), opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize container: %w", err)
	}
	return container, nil
}
