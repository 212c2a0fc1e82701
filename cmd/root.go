package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kamusis/talkrec/internal/config"
	"github.com/kamusis/talkrec/internal/logging"
	"github.com/kamusis/talkrec/internal/recommend"
	"github.com/kamusis/talkrec/internal/recommend/artifact"
)

// skipConfigAnnotation marks commands that must run without a valid config.
const skipConfigAnnotation = "talkrec/skip-config"

var (
	flagConfig    string
	flagArtifacts string
	flagLogLevel  string
	flagLogFormat string

	// appCfg is resolved once per invocation by PersistentPreRunE.
	appCfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:          "talkrec",
	Short:        "talkrec: content-based TED talk recommendations",
	SilenceUsage: true, // don't print usage on operational errors
	// Errors are printed once by Execute.
	SilenceErrors: true,
	Long: `talkrec suggests TED talks similar to one you liked, using a precomputed
talk-to-talk similarity matrix stored in an artifacts directory (default ./models).`,
	PersistentPreRunE: loadAppConfig,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "Config file (default $TALKREC_CONFIG or ~/.talkrec/talkrec.yaml)")
	pf.StringVar(&flagArtifacts, "artifacts", "", "Artifacts directory (overrides artifacts_dir)")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level: trace, debug, info, warn, error, disabled")
	pf.StringVar(&flagLogFormat, "log-format", "", "Log format: console or json")
}

// loadAppConfig resolves the layered config, applies flag overrides and configures logging.
func loadAppConfig(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[skipConfigAnnotation] == "true" {
		appCfg = config.DefaultConfig()
		applyFlagOverrides(appCfg)
		initLogging(appCfg)
		return nil
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("cannot load config: %w\nRun 'talkrec init' to create one.", err)
	}
	applyFlagOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	appCfg = cfg
	initLogging(cfg)
	logging.Debug().Str("artifacts_dir", cfg.ArtifactsDir).Msg("config resolved")
	return nil
}

func applyFlagOverrides(cfg *config.Config) {
	if flagArtifacts != "" {
		cfg.ArtifactsDir = flagArtifacts
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if flagLogFormat != "" {
		cfg.Log.Format = flagLogFormat
	}
}

func initLogging(cfg *config.Config) {
	lc := logging.DefaultConfig()
	lc.Level = cfg.Log.Level
	lc.Format = cfg.Log.Format
	logging.Init(lc)
}

// loadRecommender loads and validates the artifacts under the configured directory.
func loadRecommender() (*recommend.Recommender, error) {
	dir, err := config.ExpandPath(appCfg.ArtifactsDir)
	if err != nil {
		return nil, err
	}
	set, err := artifact.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot load artifacts: %w\nRun 'talkrec doctor' for details.", err)
	}
	return recommend.New(set)
}

// Execute is called by main.go.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		printErr("", err.Error())
		return 1
	}
	return 0
}
