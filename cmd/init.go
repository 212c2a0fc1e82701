package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamusis/talkrec/internal/config"
)

var flagInitForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file and dotenv template",
	Long: `Create ~/.talkrec/talkrec.yaml (or the --config path) with default settings, and
~/.talkrec/.env listing the TALKREC_* overrides. Existing files are left alone unless --force.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipConfigAnnotation: "true"},
	RunE:        runInit,
}

func init() {
	initCmd.Flags().BoolVar(&flagInitForce, "force", false, "Overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, _ []string) error {
	cfgPath := flagConfig
	if cfgPath == "" {
		p, err := config.ConfigPath()
		if err != nil {
			return err
		}
		cfgPath = p
	} else {
		p, err := config.ExpandPath(cfgPath)
		if err != nil {
			return err
		}
		cfgPath = p
	}

	_, statErr := os.Stat(cfgPath)
	switch {
	case statErr == nil && !flagInitForce:
		printInfo("", fmt.Sprintf("config already exists: %s (use --force to overwrite)", cfgPath))
	case statErr != nil && !os.IsNotExist(statErr):
		return fmt.Errorf("cannot stat %s: %w", cfgPath, statErr)
	default:
		cfg := config.DefaultConfig()
		if flagArtifacts != "" {
			cfg.ArtifactsDir = flagArtifacts
		}
		if err := config.Save(cfgPath, cfg); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("config written: %s", cfgPath))
	}

	if err := config.EnsureDotEnvTemplate(); err != nil {
		return err
	}
	if p, err := config.DotEnvPath(); err == nil {
		printOK("", fmt.Sprintf("dotenv ready: %s", p))
	}

	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Next: put artifacts in the configured directory, or build them with")
	fmt.Fprintln(stdout, "  talkrec artifacts build --catalog talks.csv --embeddings vectors.f32 --dim 384")
	return nil
}
