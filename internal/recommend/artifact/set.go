package artifact

import "fmt"

// NewSet cross-checks an in-memory artifact triple and returns it as a Set.
//
// The catalog, index map and matrix must agree on N, and the index map must place
// every catalog title at its own row.
func NewSet(manifest Manifest, talks []Talk, index IndexMap, matrix Matrix) (*Set, error) {
	n := len(talks)
	if n == 0 {
		return nil, integrityErr("", "catalog is empty", nil)
	}
	if index.Len() != n {
		return nil, integrityErr("", fmt.Sprintf("index map has %d entries, catalog has %d rows", index.Len(), n), nil)
	}
	if matrix.Size() != n {
		return nil, integrityErr("", fmt.Sprintf("similarity matrix is %dx%d, catalog has %d rows", matrix.Size(), matrix.Size(), n), nil)
	}
	if manifest.Count != 0 && manifest.Count != n {
		return nil, integrityErr("", fmt.Sprintf("manifest count %d, catalog has %d rows", manifest.Count, n), nil)
	}

	seen := make(map[string]int, n)
	for i, t := range talks {
		if t.Title == "" {
			return nil, integrityErr("", fmt.Sprintf("catalog row %d has an empty title", i), nil)
		}
		if prev, ok := seen[t.Title]; ok {
			return nil, integrityErr("", fmt.Sprintf("duplicate title %q at rows %d and %d", t.Title, prev, i), nil)
		}
		seen[t.Title] = i

		j, ok := index.Lookup(t.Title)
		if !ok {
			return nil, integrityErr("", fmt.Sprintf("title %q missing from index map", t.Title), nil)
		}
		if j != i {
			return nil, integrityErr("", fmt.Sprintf("title %q is catalog row %d but index %d", t.Title, i, j), nil)
		}
	}

	manifest.applyDefaults()
	manifest.Count = n
	return &Set{Manifest: manifest, Talks: talks, Index: index, Matrix: matrix}, nil
}
