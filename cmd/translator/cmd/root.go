package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"media-translator/internal/config"
	"media-translator/internal/domain"
	"media-translator/internal/logger"
	"media-translator/internal/services"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "translator",
	Short: "Transcribe, translate, and export media to PDF",
	Long: `translator turns speech, video, and documents into text,
translates it into an Indian language, and exports the result as a PDF.

Commands:
  process      - run one input through the pipeline
  serve        - start the browser front end
  languages    - list transcription and translation languages
  diagnostics  - check tools, credentials, and paths`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $MEDIA_TRANSLATOR_CONFIG or ./config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// loadServices reads the config file and builds the pipeline.
func loadServices(ctx context.Context) (*services.Services, error) {
	cfg, err := config.LoadAppConfig(config.ResolveConfigPath(cfgFile))
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: os.Stderr})
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return services.Build(ctx, cfg, log)
}

// loadSettings returns the saved desktop settings, or defaults.
func loadSettings() domain.Settings {
	settings, err := config.NewJSONStore(config.DefaultSettingsPath()).Load()
	if err != nil {
		return config.DefaultSettings()
	}
	return settings
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
}
