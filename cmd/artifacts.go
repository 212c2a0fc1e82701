package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/kamusis/talkrec/internal/config"
	"github.com/kamusis/talkrec/internal/logging"
	"github.com/kamusis/talkrec/internal/recommend/artifact"
)

type artifactsBuildFlags struct {
	catalog     string
	embeddings  string
	dim         int
	out         string
	metric      string
	normalize   bool
	modelID     string
	lockTimeout time.Duration
}

var flagBuild artifactsBuildFlags

var artifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: "Manage the artifact set (catalog, index map, similarity matrix)",
}

var artifactsBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build artifacts from a talk catalog and precomputed embeddings",
	Long: `Compute the full talk-to-talk similarity matrix from precomputed sentence
embeddings and write a complete artifact set.

--catalog is a CSV with title, main_speaker and url columns (or JSON lines with the
same keys). --embeddings holds one little-endian float32 vector of --dim values per
catalog row, in catalog order. The new set is written to a temp dir, verified, and
swapped into --out atomically.`,
	Args: cobra.NoArgs,
	RunE: runArtifactsBuild,
}

func init() {
	f := artifactsBuildCmd.Flags()
	f.StringVar(&flagBuild.catalog, "catalog", "", "Talk catalog (.csv or .jsonl)")
	f.StringVar(&flagBuild.embeddings, "embeddings", "", "Raw float32 embeddings, one vector per catalog row")
	f.IntVar(&flagBuild.dim, "dim", 0, "Embedding dimension")
	f.StringVar(&flagBuild.out, "out", "", "Output directory (default: artifacts_dir)")
	f.StringVar(&flagBuild.metric, "metric", artifact.MetricCosine, "Similarity metric: cosine or dot")
	f.BoolVar(&flagBuild.normalize, "normalize", false, "L2-normalize vectors before scoring")
	f.StringVar(&flagBuild.modelID, "model-id", "", "Embedding model identifier recorded in the manifest")
	f.DurationVar(&flagBuild.lockTimeout, "lock-timeout", 10*time.Second, "How long to wait for a concurrent build")
	_ = artifactsBuildCmd.MarkFlagRequired("catalog")
	_ = artifactsBuildCmd.MarkFlagRequired("embeddings")
	_ = artifactsBuildCmd.MarkFlagRequired("dim")

	artifactsCmd.AddCommand(artifactsBuildCmd)
	rootCmd.AddCommand(artifactsCmd)
}

func runArtifactsBuild(cmd *cobra.Command, _ []string) error {
	out := flagBuild.out
	if out == "" {
		out = appCfg.ArtifactsDir
	}
	out, err := config.ExpandPath(out)
	if err != nil {
		return err
	}
	if out, err = filepath.Abs(out); err != nil {
		return err
	}

	parent := filepath.Dir(out)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", parent, err)
	}
	unlock, err := acquireBuildLock(out+".lock", flagBuild.lockTimeout)
	if err != nil {
		return err
	}
	defer unlock()

	// Same parent as out so the final rename stays on one filesystem.
	tmpDir, err := os.MkdirTemp(parent, ".talkrec-build-*")
	if err != nil {
		return fmt.Errorf("cannot create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	printInfo("", fmt.Sprintf("building similarity matrix (%s, dim %d)", flagBuild.metric, flagBuild.dim))
	start := time.Now()
	set, err := artifact.Build(ctx, artifact.BuildOptions{
		CatalogPath:    flagBuild.catalog,
		EmbeddingsPath: flagBuild.embeddings,
		Dim:            flagBuild.dim,
		Metric:         flagBuild.metric,
		Normalize:      flagBuild.normalize,
		ModelID:        flagBuild.modelID,
	})
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	if err := artifact.Write(tmpDir, set); err != nil {
		return fmt.Errorf("cannot write artifacts: %w", err)
	}
	// Never install a set the loader would reject.
	if _, err := artifact.Load(tmpDir); err != nil {
		return fmt.Errorf("built artifacts failed verification: %w", err)
	}
	if err := artifact.AtomicSwap(tmpDir, out); err != nil {
		return fmt.Errorf("cannot install artifacts: %w", err)
	}
	logging.Info().Str("dir", out).Int("talks", set.Len()).Dur("took", time.Since(start)).Msg("artifacts installed")
	printOK("", fmt.Sprintf("%d talks written to %s", set.Len(), out))
	return nil
}

// acquireBuildLock takes an exclusive file lock, polling until timeout.
func acquireBuildLock(lockPath string, timeout time.Duration) (func(), error) {
	l := flock.New(lockPath)
	deadline := time.Now().Add(timeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return func() {}, fmt.Errorf("cannot acquire build lock: %w", err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return func() {}, fmt.Errorf("another build is in progress (lock: %s)", lockPath)
		}
		time.Sleep(200 * time.Millisecond)
	}
}
