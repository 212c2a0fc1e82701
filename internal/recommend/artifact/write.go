package artifact

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
)

// Write writes the artifacts of set to dir.
func Write(dir string, set *Set) error {
	if set == nil || set.Len() == 0 {
		return fmt.Errorf("no talks to write")
	}
	manifest := set.Manifest
	manifest.applyDefaults()
	manifest.Count = set.Len()
	if manifest.CreatedAt == "" {
		manifest.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create artifact dir %s: %w", dir, err)
	}

	// manifest
	mb, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), mb, 0o644); err != nil {
		return fmt.Errorf("cannot write manifest: %w", err)
	}

	if err := writeTalks(filepath.Join(dir, manifest.CatalogFile), set.Talks); err != nil {
		return err
	}

	// index map
	ib, err := json.MarshalIndent(set.Index.Map(), "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, manifest.IndexFile), ib, 0o644); err != nil {
		return fmt.Errorf("cannot write index map: %w", err)
	}

	// similarity matrix
	vf, err := os.Create(filepath.Join(dir, manifest.SimilarityFile))
	if err != nil {
		return fmt.Errorf("cannot create similarity file: %w", err)
	}
	bw := bufio.NewWriter(vf)
	if err := binary.Write(bw, binary.LittleEndian, set.Matrix.data); err != nil {
		_ = vf.Close()
		return fmt.Errorf("cannot write similarity matrix: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = vf.Close()
		return err
	}
	return vf.Close()
}

func writeTalks(path string, talks []Talk) error {
	sf, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create catalog file: %w", err)
	}
	bw := bufio.NewWriter(sf)
	for _, t := range talks {
		line, err := json.Marshal(t)
		if err != nil {
			_ = sf.Close()
			return err
		}
		if _, err := bw.Write(line); err != nil {
			_ = sf.Close()
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			_ = sf.Close()
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		_ = sf.Close()
		return err
	}
	return sf.Close()
}

// AtomicSwap replaces destDir with srcDir by renaming.
func AtomicSwap(srcDir, destDir string) error {
	parent := filepath.Dir(destDir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return err
	}
	backup := destDir + ".bak"
	if err := os.RemoveAll(backup); err != nil {
		return fmt.Errorf("cannot remove stale backup %s: %w", backup, err)
	}
	if _, err := os.Stat(destDir); err == nil {
		if err := os.Rename(destDir, backup); err != nil {
			return err
		}
	}
	if err := os.Rename(srcDir, destDir); err != nil {
		// rollback best-effort
		if _, stErr := os.Stat(backup); stErr == nil {
			_ = os.Rename(backup, destDir)
		}
		return err
	}
	_ = os.RemoveAll(backup)
	return nil
}
