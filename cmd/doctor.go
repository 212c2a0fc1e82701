package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kamusis/talkrec/internal/config"
	"github.com/kamusis/talkrec/internal/recommend/artifact"
)

// symmetryTolerance bounds |s(i,j) - s(j,i)| before doctor warns.
const symmetryTolerance = 1e-4

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run pre-flight checks on config and artifacts",
	Long: `Check that the configuration resolves and that the artifacts directory holds a
consistent catalog, index map and similarity matrix. Run this when 'recommend' or
'serve' refuses to start.`,
	Args: cobra.NoArgs,
	// doctor reports config problems itself instead of failing in PersistentPreRunE.
	Annotations: map[string]string{skipConfigAnnotation: "true"},
	RunE:        runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(_ *cobra.Command, _ []string) error {
	allOK := true
	fail := func(format string, args ...any) {
		printErr("", fmt.Sprintf(format, args...))
		allOK = false
	}

	printSection("talkrec doctor")

	// ── Check 1: config resolves ──────────────────────────────────────────────
	printGroup("config")
	cfgPath := flagConfig
	if cfgPath == "" {
		cfgPath, _ = config.ConfigPath()
	}
	if _, err := os.Stat(cfgPath); err != nil {
		printMiss("", fmt.Sprintf("%s not found, using defaults (run 'talkrec init')", cfgPath))
	} else {
		printOK("", fmt.Sprintf("config file: %s", cfgPath))
	}
	cfg, err := config.Load(flagConfig)
	if err != nil {
		fail("%v", err)
		cfg = config.DefaultConfig()
	} else {
		applyFlagOverrides(cfg)
		if err := cfg.Validate(); err != nil {
			fail("%v", err)
		} else {
			printOK("", fmt.Sprintf("valid (default_k=%d, ui k %d-%d)", cfg.DefaultK, cfg.UI.MinK, cfg.UI.MaxK))
		}
	}

	// ── Check 2: artifacts directory ──────────────────────────────────────────
	printGroup("artifacts directory")
	dir, err := config.ExpandPath(cfg.ArtifactsDir)
	if err != nil {
		fail("%v", err)
		return doctorResult(allOK)
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		fail("%s is not a directory", dir)
		return doctorResult(allOK)
	}
	printOK("", dir)

	// ── Check 3: files present ────────────────────────────────────────────────
	printGroup("files")
	if _, err := os.Stat(filepath.Join(dir, artifact.ManifestFile)); err != nil {
		printMiss(artifact.ManifestFile, "absent, default file names assumed")
	} else {
		printOK(artifact.ManifestFile, "present")
	}
	for _, name := range []string{artifact.DefaultCatalogFile, artifact.DefaultIndexFile, artifact.DefaultSimilarityFile} {
		if st, err := os.Stat(filepath.Join(dir, name)); err != nil {
			printWarn(name, "not found under the default name")
		} else {
			printOK(name, humanBytes(st.Size()))
		}
	}

	// ── Check 4: integrity ────────────────────────────────────────────────────
	printGroup("integrity")
	set, err := artifact.Load(dir)
	if err != nil {
		var ie *artifact.IntegrityError
		if errors.As(err, &ie) && ie.Path != "" {
			fail("%s: %s", filepath.Base(ie.Path), ie.Reason)
		} else {
			fail("%v", err)
		}
		return doctorResult(allOK)
	}
	printOK("", fmt.Sprintf("%d talks, index map and %dx%d matrix agree", set.Len(), set.Len(), set.Len()))

	// ── Check 5: matrix quality (advisory) ────────────────────────────────────
	printGroup("matrix quality")
	rep := artifact.Inspect(set)
	printInfo("", fmt.Sprintf("scores range %.4f .. %.4f", rep.MinScore, rep.MaxScore))
	if rep.Symmetric(symmetryTolerance) {
		printOK("", "symmetric")
	} else {
		printWarn("", fmt.Sprintf("asymmetric: max deviation %.6f at (%d,%d)",
			rep.MaxAsymmetry, rep.AsymmetricAt[0], rep.AsymmetricAt[1]))
	}
	if n := len(rep.DiagonalNotMax); n == 0 {
		printOK("", "every talk is most similar to itself")
	} else {
		printWarn("", fmt.Sprintf("%d row(s) where another talk outscores the talk itself (first: %q)",
			n, set.Talks[rep.DiagonalNotMax[0]].Title))
	}

	return doctorResult(allOK)
}

func doctorResult(ok bool) error {
	fmt.Fprintln(stdout)
	if !ok {
		return fmt.Errorf("doctor found problems")
	}
	fmt.Fprintln(stdout, "  ✓  all checks passed")
	return nil
}
