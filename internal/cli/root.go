package cli

import (
	"fmt"
	"os"

	"github.com/mvp-joe/dryjin/internal/config"
	"github.com/mvp-joe/dryjin/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	projectDir string
	logLevel   string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dryjin",
	Short: "Dryjin - native call graph importer",
	Long: `Dryjin imports native-code call graph facts produced by a binary
analysis oracle into a Java program model. It synthesizes method bodies for
native methods, merges the oracle's call edges into the call graph, keeps the
taint source/sink specification in sync and records inter-component links.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&projectDir, "dir", "C", ".", "project directory containing .dryjin/config.yml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "development logging (console encoder, debug level)")
}

// loadConfig loads the project configuration and applies the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigFromDir(projectDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if verbose {
		cfg.Log.Level = "debug"
		cfg.Log.Development = true
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}
