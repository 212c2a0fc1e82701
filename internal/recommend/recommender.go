// Package recommend ranks talks by precomputed similarity to a selected talk.
package recommend

import (
	"fmt"
	"sort"

	"github.com/kamusis/talkrec/internal/recommend/artifact"
)

// Recommendation is one ranked result.
type Recommendation struct {
	Rank  int // 1-based
	Talk  artifact.Talk
	Score float64
}

// Recommender answers top-K queries over an immutable artifact set.
// It holds no mutable state and is safe for concurrent use.
type Recommender struct {
	set *artifact.Set
}

// New returns a Recommender serving set.
func New(set *artifact.Set) (*Recommender, error) {
	if set == nil || set.Len() == 0 {
		return nil, &artifact.IntegrityError{Reason: "no artifacts loaded"}
	}
	return &Recommender{set: set}, nil
}

type candidate struct {
	index int
	score float32
}

// Recommend returns the k talks most similar to title, most similar first.
//
// The result has exactly min(k, N-1) entries and never contains title itself.
// Equal scores keep ascending catalog order.
func (r *Recommender) Recommend(title string, k int) ([]Recommendation, error) {
	if k < 1 {
		return nil, &InvalidArgumentError{Arg: "k", Reason: fmt.Sprintf("must be >= 1, got %d", k)}
	}
	if title == "" {
		return nil, &InvalidArgumentError{Arg: "title", Reason: "must not be empty"}
	}
	idx, ok := r.set.Index.Lookup(title)
	if !ok {
		return nil, &NotFoundError{Title: title}
	}

	row := r.set.Matrix.Row(idx)
	cands := make([]candidate, len(row))
	for j, s := range row {
		cands[j] = candidate{index: j, score: s}
	}
	sort.SliceStable(cands, func(a, b int) bool {
		return cands[a].score > cands[b].score
	})

	n := min(k, len(row)-1)
	out := make([]Recommendation, 0, n)
	for _, c := range cands {
		if len(out) == n {
			break
		}
		if c.index == idx {
			continue
		}
		out = append(out, Recommendation{
			Rank:  len(out) + 1,
			Talk:  r.set.Talks[c.index],
			Score: float64(c.score),
		})
	}
	return out, nil
}

// Len returns the number of talks.
func (r *Recommender) Len() int {
	return r.set.Len()
}

// Manifest returns the manifest of the served artifacts.
func (r *Recommender) Manifest() artifact.Manifest {
	return r.set.Manifest
}

// Talks returns the catalog in row order.
func (r *Recommender) Talks() []artifact.Talk {
	out := make([]artifact.Talk, len(r.set.Talks))
	copy(out, r.set.Talks)
	return out
}

// Titles returns every talk title in row order.
func (r *Recommender) Titles() []string {
	out := make([]string, len(r.set.Talks))
	for i, t := range r.set.Talks {
		out[i] = t.Title
	}
	return out
}

// Talk returns the catalog entry for title.
func (r *Recommender) Talk(title string) (artifact.Talk, bool) {
	i, ok := r.set.Index.Lookup(title)
	if !ok {
		return artifact.Talk{}, false
	}
	return r.set.Talks[i], true
}
