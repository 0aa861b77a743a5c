// Command vecvogue-index builds and inspects the catalog index artifacts.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecvogue/internal/config"
	logpkg "github.com/kailas-cloud/vecvogue/internal/logger"
	"github.com/kailas-cloud/vecvogue/internal/version"
)

var (
	env    string
	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "vecvogue-index",
	Short: "Build and inspect the vecvogue catalog index",
	Long: `vecvogue-index turns a product dump into the paired index and metadata
files served by the vecvogue API.

Example usage:
  vecvogue-index build                          # paths from config / env
  vecvogue-index build --data products.parquet  # parquet dump
  vecvogue-index inspect                        # check an existing build`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "config environment (default: $ENV or local)")
}

func initConfig() error {
	// .env is optional; real env vars win
	_ = godotenv.Load()

	if env == "" {
		env = config.GetEnv()
	}

	var err error
	cfg, err = config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err = logpkg.NewLogger(env, cfg.Logging.Level, "indexer")
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	return nil
}

func main() {
	err := rootCmd.ExecuteContext(context.Background())
	if logger != nil {
		_ = logger.Sync()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
