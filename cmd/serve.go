package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kamusis/talkrec/internal/config"
	"github.com/kamusis/talkrec/internal/logging"
	"github.com/kamusis/talkrec/internal/server"
	"github.com/kamusis/talkrec/internal/tracing"
)

var flagServeAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve recommendations over HTTP",
	Long: `Start the JSON HTTP API (see /api/v1/talks and /api/v1/recommendations).

Artifacts are loaded and validated before the listener opens; the server refuses to start
when they are missing or inconsistent.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "Listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	// Request logs are info-level; raise the untouched CLI default so they show.
	if flagLogLevel == "" && appCfg.Log.Level == config.DefaultConfig().Log.Level {
		appCfg.Log.Level = "info"
		initLogging(appCfg)
	}

	rec, err := loadRecommender()
	if err != nil {
		return err
	}

	scfg := appCfg.Server
	if flagServeAddr != "" {
		scfg.Addr = flagServeAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.NewProvider(ctx, tracingConfig(appCfg))
	if err != nil {
		return fmt.Errorf("cannot start tracing: %w", err)
	}
	defer func() {
		// ctx is already cancelled here; flush with a fresh deadline.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logging.Warn().Err(err).Msg("trace flush failed")
		}
	}()

	printOK("", fmt.Sprintf("%d talks loaded, listening on %s (Ctrl+C to stop)", rec.Len(), scfg.Addr))
	return server.New(rec, scfg, appCfg.DefaultK).ListenAndServe(ctx)
}

func tracingConfig(cfg *config.Config) tracing.Config {
	tc := cfg.Tracing
	return tracing.Config{
		Enabled:        tc.Enabled,
		ServiceName:    tc.ServiceName,
		ServiceVersion: version,
		Exporter:       tc.Exporter,
		Endpoint:       tc.Endpoint,
		SamplingRate:   tc.SamplingRate,
		Insecure:       tc.Insecure,
	}
}
