package artifact

import (
	"fmt"
	"math"
)

// Default artifact file names, used when the manifest is absent or leaves them empty.
const (
	ManifestFile          = "manifest.json"
	DefaultCatalogFile    = "talks.jsonl"
	DefaultIndexFile      = "indices.json"
	DefaultSimilarityFile = "similarity.f32"
)

// Manifest describes an artifact set and how to interpret it.
type Manifest struct {
	ArtifactVersion int    `json:"artifact_version"`
	CreatedAt       string `json:"created_at"`
	ModelID         string `json:"model_id"`
	Count           int    `json:"count"`
	SimilarityFile  string `json:"similarity_file"`
	CatalogFile     string `json:"catalog_file"`
	IndexFile       string `json:"index_file"`
}

func (m *Manifest) applyDefaults() {
	if m.ArtifactVersion == 0 {
		m.ArtifactVersion = 1
	}
	if m.SimilarityFile == "" {
		m.SimilarityFile = DefaultSimilarityFile
	}
	if m.CatalogFile == "" {
		m.CatalogFile = DefaultCatalogFile
	}
	if m.IndexFile == "" {
		m.IndexFile = DefaultIndexFile
	}
}

// Talk is one catalog row.
type Talk struct {
	Title       string `json:"title"`
	MainSpeaker string `json:"main_speaker"`
	URL         string `json:"url"`
}

// IndexMap is a validated bijection between talk titles and row indices 0..N-1.
type IndexMap struct {
	byTitle map[string]int
	titles  []string
}

// NewIndexMap validates m and returns it as an IndexMap.
//
// Every index in 0..len(m)-1 must appear exactly once and titles must be non-empty.
func NewIndexMap(m map[string]int) (IndexMap, error) {
	n := len(m)
	titles := make([]string, n)
	byTitle := make(map[string]int, n)
	for title, i := range m {
		if title == "" {
			return IndexMap{}, fmt.Errorf("empty title in index map")
		}
		if i < 0 || i >= n {
			return IndexMap{}, fmt.Errorf("index %d for %q out of range [0,%d)", i, title, n)
		}
		if titles[i] != "" {
			return IndexMap{}, fmt.Errorf("index %d assigned to both %q and %q", i, titles[i], title)
		}
		titles[i] = title
		byTitle[title] = i
	}
	return IndexMap{byTitle: byTitle, titles: titles}, nil
}

// Lookup returns the row index of title. Matching is exact.
func (m IndexMap) Lookup(title string) (int, bool) {
	i, ok := m.byTitle[title]
	return i, ok
}

// Title returns the title stored at row i.
func (m IndexMap) Title(i int) string {
	return m.titles[i]
}

// Len returns the number of entries.
func (m IndexMap) Len() int {
	return len(m.titles)
}

// Map returns a copy of the mapping.
func (m IndexMap) Map() map[string]int {
	out := make(map[string]int, len(m.byTitle))
	for k, v := range m.byTitle {
		out[k] = v
	}
	return out
}

// Matrix is a square row-major similarity matrix.
type Matrix struct {
	n    int
	data []float32
}

// NewMatrix wraps data as an n×n matrix. data is not copied and must not be modified afterwards.
func NewMatrix(n int, data []float32) (Matrix, error) {
	if n <= 0 {
		return Matrix{}, fmt.Errorf("invalid matrix size: %d", n)
	}
	if len(data) != n*n {
		return Matrix{}, fmt.Errorf("matrix data length mismatch: got %d want %d (n=%d)", len(data), n*n, n)
	}
	for i, v := range data {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Matrix{}, fmt.Errorf("non-finite score at (%d,%d)", i/n, i%n)
		}
	}
	return Matrix{n: n, data: data}, nil
}

// Size returns N.
func (m Matrix) Size() int {
	return m.n
}

// Row returns row i. The slice aliases the matrix and is read-only.
func (m Matrix) Row(i int) []float32 {
	start := i * m.n
	end := start + m.n
	return m.data[start:end:end]
}

// At returns the score between rows i and j.
func (m Matrix) At(i, j int) float32 {
	return m.data[i*m.n+j]
}

// Set is a loaded, validated artifact triple. It is immutable once constructed.
type Set struct {
	Manifest Manifest
	Talks    []Talk
	Index    IndexMap
	Matrix   Matrix
}

// Len returns the number of talks in the set.
func (s *Set) Len() int {
	return len(s.Talks)
}
