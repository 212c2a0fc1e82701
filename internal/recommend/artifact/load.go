package artifact

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/kamusis/talkrec/internal/logging"
)

// Load reads and validates the artifact set stored in dir.
//
// Any missing file, decode failure or cross-artifact inconsistency is reported as an
// *IntegrityError; a partially loaded set is never returned.
func Load(dir string) (*Set, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, integrityErr(dir, "cannot open artifact directory", err)
	}
	if !info.IsDir() {
		return nil, integrityErr(dir, "not a directory", nil)
	}

	m, err := loadManifest(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}

	talks, err := loadTalks(filepath.Join(dir, m.CatalogFile))
	if err != nil {
		return nil, err
	}
	n := len(talks)
	if m.Count != 0 && m.Count != n {
		return nil, integrityErr(filepath.Join(dir, m.CatalogFile),
			fmt.Sprintf("catalog has %d rows, manifest declares %d", n, m.Count), nil)
	}

	index, err := loadIndex(filepath.Join(dir, m.IndexFile))
	if err != nil {
		return nil, err
	}

	matrix, err := loadMatrix(filepath.Join(dir, m.SimilarityFile), n)
	if err != nil {
		return nil, err
	}

	set, err := NewSet(m, talks, index, matrix)
	if err != nil {
		return nil, err
	}

	log := logging.With("artifact")
	log.Debug().
		Str("dir", dir).
		Int("talks", set.Len()).
		Str("model_id", set.Manifest.ModelID).
		Msg("artifacts loaded")
	return set, nil
}

func loadManifest(path string) (Manifest, error) {
	var m Manifest
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Manifest is optional; fall back to the default file names.
	case err != nil:
		return Manifest{}, integrityErr(path, "cannot read manifest", err)
	default:
		if err := json.Unmarshal(b, &m); err != nil {
			return Manifest{}, integrityErr(path, "invalid manifest JSON", err)
		}
		if m.Count < 0 {
			return Manifest{}, integrityErr(path, fmt.Sprintf("invalid count in manifest: %d", m.Count), nil)
		}
	}
	m.applyDefaults()
	for _, name := range []string{m.CatalogFile, m.IndexFile, m.SimilarityFile} {
		if !filepath.IsLocal(name) {
			return Manifest{}, integrityErr(path, fmt.Sprintf("file name %q escapes the artifact directory", name), nil)
		}
	}
	return m, nil
}

func loadTalks(path string) ([]Talk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, integrityErr(path, "cannot open catalog", err)
	}
	defer f.Close()

	var out []Talk
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		b := scanner.Bytes()
		if len(b) == 0 {
			continue
		}
		var t Talk
		if err := json.Unmarshal(b, &t); err != nil {
			return nil, integrityErr(path, fmt.Sprintf("invalid catalog JSONL at line %d", line), err)
		}
		out = append(out, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, integrityErr(path, "cannot read catalog", err)
	}
	if len(out) == 0 {
		return nil, integrityErr(path, "catalog is empty", nil)
	}
	return out, nil
}

func loadIndex(path string) (IndexMap, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return IndexMap{}, integrityErr(path, "cannot read index map", err)
	}
	var raw map[string]int
	if err := json.Unmarshal(b, &raw); err != nil {
		return IndexMap{}, integrityErr(path, "invalid index map JSON", err)
	}
	idx, err := NewIndexMap(raw)
	if err != nil {
		return IndexMap{}, integrityErr(path, "index map is not a bijection", err)
	}
	return idx, nil
}

func loadMatrix(path string, n int) (Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return Matrix{}, integrityErr(path, "cannot open similarity matrix", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return Matrix{}, integrityErr(path, "cannot stat similarity matrix", err)
	}
	if st.Size()%4 != 0 {
		return Matrix{}, integrityErr(path, fmt.Sprintf("file size is not a multiple of 4 bytes: %d", st.Size()), nil)
	}

	expected := int64(n) * int64(n) * 4
	if st.Size() != expected {
		reason := fmt.Sprintf("size mismatch: got %d bytes want %d (%dx%d)", st.Size(), expected, n, n)
		if side := squareSide(st.Size() / 4); side > 0 {
			reason = fmt.Sprintf("matrix is %dx%d but catalog has %d rows", side, side, n)
		}
		return Matrix{}, integrityErr(path, reason, nil)
	}

	data := make([]float32, n*n)
	if err := binary.Read(io.LimitReader(f, expected), binary.LittleEndian, data); err != nil {
		return Matrix{}, integrityErr(path, "cannot read similarity matrix", err)
	}
	m, err := NewMatrix(n, data)
	if err != nil {
		return Matrix{}, integrityErr(path, "invalid similarity matrix", err)
	}
	return m, nil
}

// squareSide returns s when count == s*s, or 0.
func squareSide(count int64) int64 {
	if count <= 0 {
		return 0
	}
	s := int64(math.Sqrt(float64(count)))
	for _, c := range []int64{s - 1, s, s + 1} {
		if c > 0 && c*c == count {
			return c
		}
	}
	return 0
}
