package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Hollywood0805/Validation-engine-Backend/internal/core/config"
)

const Version = "0.1.0"

var (
	configFile string
	logLevel   string
	logFormat  string

	cfg    *config.Config
	logger = zap.NewNop()
)

// errReported marks errors already shown to the user.
var errReported = errors.New("reported")

var rootCmd = &cobra.Command{
	Use:           "editcheck",
	Short:         "Clinical form edit-check resolution and validation",
	Long:          `editcheck resolves the edit-check rules that apply to a clinical trial form submission and validates the submission against them.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if logger, err = newLogger(logLevel, logFormat); err != nil {
			return err
		}
		if cfg, err = config.LoadConfig(configFile, cmd.Flags()); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file path")
	flags.StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	flags.StringVar(&logFormat, "log-format", "text", "log format (json, text)")
	flags.String("rules-root", "", "rule corpus root directory")
	flags.String("llm-provider", "", "collaborator provider (local, openai, anthropic)")
	flags.String("llm-model", "", "language model name")
	flags.String("db-url", "", "API key database URL (sqlite://path or postgres://...)")
}

// Execute runs the root command and prints errors not yet reported.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errReported) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

// newLogger builds a zap logger writing to stderr. json selects the
// production encoder, text the console encoder.
func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var zc zap.Config
	switch strings.ToLower(format) {
	case "json":
		zc = zap.NewProductionConfig()
	case "text", "console":
		zc = zap.NewDevelopmentConfig()
		zc.Development = false
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("invalid log format %q (expected json or text)", format)
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}
