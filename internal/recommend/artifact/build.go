package artifact

import (
	"context"
	"encoding/binary"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kamusis/talkrec/internal/logging"
)

// Similarity metrics supported by Build.
const (
	MetricCosine = "cosine"
	MetricDot    = "dot"
)

// BuildOptions controls offline artifact building from precomputed embeddings.
type BuildOptions struct {
	CatalogPath    string // .csv with title,main_speaker,url columns, or .jsonl
	EmbeddingsPath string // N*Dim little-endian float32, one vector per catalog row
	Dim            int
	Metric         string // MetricCosine (default) or MetricDot
	Normalize      bool   // L2-normalize vectors before scoring
	ModelID        string
}

// Build computes a full similarity matrix from precomputed embeddings and joins it with
// the catalog. Later duplicate titles are dropped together with their vectors.
//
// It is the caller's responsibility to Write the result and swap it into place.
func Build(ctx context.Context, opts BuildOptions) (*Set, error) {
	if opts.CatalogPath == "" {
		return nil, fmt.Errorf("catalog path is required")
	}
	if opts.EmbeddingsPath == "" {
		return nil, fmt.Errorf("embeddings path is required")
	}
	if opts.Dim <= 0 {
		return nil, fmt.Errorf("invalid embedding dim: %d", opts.Dim)
	}
	metric := opts.Metric
	if metric == "" {
		metric = MetricCosine
	}
	if metric != MetricCosine && metric != MetricDot {
		return nil, fmt.Errorf("unsupported metric: %s", metric)
	}

	rows, err := readCatalog(opts.CatalogPath)
	if err != nil {
		return nil, err
	}
	vectors, err := readEmbeddings(opts.EmbeddingsPath, len(rows), opts.Dim)
	if err != nil {
		return nil, err
	}

	log := logging.With("artifact.build")
	talks := make([]Talk, 0, len(rows))
	vecs := make([][]float32, 0, len(rows))
	index := make(map[string]int, len(rows))
	for i, t := range rows {
		t.Title = strings.TrimSpace(t.Title)
		if t.Title == "" {
			return nil, fmt.Errorf("catalog row %d has an empty title", i)
		}
		if first, dup := index[t.Title]; dup {
			log.Warn().Str("title", t.Title).Int("row", i).Int("kept_row", first).Msg("duplicate title dropped")
			continue
		}
		v := vectors[i*opts.Dim : (i+1)*opts.Dim]
		if opts.Normalize {
			v = normalizeL2(v)
		}
		index[t.Title] = len(talks)
		talks = append(talks, t)
		vecs = append(vecs, v)
	}

	data, err := similarityMatrix(ctx, vecs, metric)
	if err != nil {
		return nil, err
	}

	im, err := NewIndexMap(index)
	if err != nil {
		return nil, err
	}
	matrix, err := NewMatrix(len(talks), data)
	if err != nil {
		return nil, err
	}
	manifest := Manifest{
		ArtifactVersion: 1,
		CreatedAt:       time.Now().UTC().Format(time.RFC3339),
		ModelID:         opts.ModelID,
	}
	log.Info().Int("talks", len(talks)).Int("dim", opts.Dim).Str("metric", metric).Msg("similarity matrix built")
	return NewSet(manifest, talks, im, matrix)
}

// similarityMatrix scores every pair once and mirrors it, so the result is exactly symmetric.
func similarityMatrix(ctx context.Context, vecs [][]float32, metric string) ([]float32, error) {
	n := len(vecs)
	norms := make([]float64, n)
	for i, v := range vecs {
		var sum float64
		for _, x := range v {
			sum += float64(x) * float64(x)
		}
		norms[i] = math.Sqrt(sum)
	}

	data := make([]float32, n*n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j := i; j < n; j++ {
			if len(vecs[i]) != len(vecs[j]) {
				return nil, ErrVectorLengthMismatch
			}
			var dot float64
			for d := range vecs[i] {
				dot += float64(vecs[i][d]) * float64(vecs[j][d])
			}
			s := dot
			if metric == MetricCosine {
				den := norms[i] * norms[j]
				if den == 0 {
					s = 0
				} else {
					s = dot / den
				}
			}
			data[i*n+j] = float32(s)
			data[j*n+i] = float32(s)
		}
	}
	return data, nil
}

func normalizeL2(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	copy(out, v)
	if sum == 0 {
		return out
	}
	inv := float32(1.0 / math.Sqrt(sum))
	for i := range out {
		out[i] *= inv
	}
	return out
}

func readCatalog(path string) ([]Talk, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCatalogCSV(path)
	case ".jsonl", ".ndjson":
		return loadTalks(path)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q (want .csv or .jsonl)", filepath.Ext(path))
	}
}

func readCatalogCSV(path string) ([]Talk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open catalog %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("cannot read catalog header %s: %w", path, err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	titleCol, ok := col["title"]
	if !ok {
		return nil, fmt.Errorf("catalog %s has no title column", path)
	}
	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []Talk
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("cannot parse catalog %s: %w", path, err)
		}
		if titleCol >= len(rec) {
			return nil, fmt.Errorf("catalog %s row %d has no title", path, len(out)+1)
		}
		out = append(out, Talk{
			Title:       rec[titleCol],
			MainSpeaker: field(rec, "main_speaker"),
			URL:         field(rec, "url"),
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("catalog %s is empty", path)
	}
	return out, nil
}

func readEmbeddings(path string, rows, dim int) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open embeddings file %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("cannot stat embeddings file %s: %w", path, err)
	}
	expected := int64(rows) * int64(dim) * 4
	if st.Size() != expected {
		return nil, fmt.Errorf("embeddings file size mismatch: got %d want %d (rows=%d dim=%d): %w",
			st.Size(), expected, rows, dim, ErrVectorLengthMismatch)
	}

	out := make([]float32, rows*dim)
	if err := binary.Read(io.LimitReader(f, expected), binary.LittleEndian, out); err != nil {
		return nil, fmt.Errorf("cannot read embeddings from %s: %w", path, err)
	}
	return out, nil
}
