package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kamusis/talkrec/internal/config"
)

var flagInfoJSON bool

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the loaded artifact set: manifest, files and counts",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

func init() {
	infoCmd.Flags().BoolVar(&flagInfoJSON, "json", false, "Print as JSON")
	rootCmd.AddCommand(infoCmd)
}

type infoFile struct {
	Name  string `json:"name"`
	Bytes int64  `json:"bytes"`
}

type infoOut struct {
	Dir             string     `json:"dir"`
	ArtifactVersion int        `json:"artifact_version"`
	CreatedAt       string     `json:"created_at,omitempty"`
	ModelID         string     `json:"model_id,omitempty"`
	Talks           int        `json:"talks"`
	Files           []infoFile `json:"files"`
}

func runInfo(_ *cobra.Command, _ []string) error {
	dir, err := config.ExpandPath(appCfg.ArtifactsDir)
	if err != nil {
		return err
	}
	rec, err := loadRecommender()
	if err != nil {
		return err
	}
	man := rec.Manifest()

	out := infoOut{
		Dir:             dir,
		ArtifactVersion: man.ArtifactVersion,
		CreatedAt:       man.CreatedAt,
		ModelID:         man.ModelID,
		Talks:           rec.Len(),
	}
	for _, name := range []string{man.CatalogFile, man.IndexFile, man.SimilarityFile} {
		f := infoFile{Name: name, Bytes: -1}
		if st, err := os.Stat(filepath.Join(dir, name)); err == nil {
			f.Bytes = st.Size()
		}
		out.Files = append(out.Files, f)
	}

	if flagInfoJSON {
		return printJSON(out)
	}

	printSection("talkrec info")
	fmt.Fprintf(stdout, "\n  Artifacts:  %s\n", out.Dir)
	fmt.Fprintf(stdout, "  Version:    %d\n", out.ArtifactVersion)
	fmt.Fprintf(stdout, "  Created:    %s\n", emptyAsNA(out.CreatedAt))
	fmt.Fprintf(stdout, "  Model:      %s\n", emptyAsNA(out.ModelID))
	fmt.Fprintf(stdout, "  Talks:      %d\n\n", out.Talks)
	for _, f := range out.Files {
		if f.Bytes < 0 {
			printMiss(f.Name, "not found")
			continue
		}
		printInfo(f.Name, humanBytes(f.Bytes))
	}
	return nil
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
