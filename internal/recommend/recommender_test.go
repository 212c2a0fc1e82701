package recommend

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/kamusis/talkrec/internal/recommend/artifact"
)

func newTestSet(t *testing.T, titles []string, scores []float32) *artifact.Set {
	t.Helper()
	talks := make([]artifact.Talk, len(titles))
	index := make(map[string]int, len(titles))
	for i, title := range titles {
		talks[i] = artifact.Talk{Title: title, MainSpeaker: "speaker " + title, URL: "https://example.org/" + title}
		index[title] = i
	}
	im, err := artifact.NewIndexMap(index)
	if err != nil {
		t.Fatal(err)
	}
	m, err := artifact.NewMatrix(len(titles), scores)
	if err != nil {
		t.Fatal(err)
	}
	set, err := artifact.NewSet(artifact.Manifest{ModelID: "test"}, talks, im, m)
	if err != nil {
		t.Fatal(err)
	}
	return set
}

func abcdRecommender(t *testing.T) *Recommender {
	t.Helper()
	set := newTestSet(t, []string{"A", "B", "C", "D"}, []float32{
		1.0, 0.2, 0.9, 0.5,
		0.2, 1.0, 0.3, 0.4,
		0.9, 0.3, 1.0, 0.6,
		0.5, 0.4, 0.6, 1.0,
	})
	r, err := New(set)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func titlesOf(recs []Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Talk.Title
	}
	return out
}

func TestRecommend_ConcreteScenario(t *testing.T) {
	r := abcdRecommender(t)
	recs, err := r.Recommend("A", 2)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if got := titlesOf(recs); !reflect.DeepEqual(got, []string{"C", "D"}) {
		t.Fatalf("got %v want [C D]", got)
	}
	if recs[0].Rank != 1 || recs[1].Rank != 2 {
		t.Fatalf("ranks not 1-based: %+v", recs)
	}
	if recs[0].Talk.MainSpeaker != "speaker C" || recs[0].Talk.URL != "https://example.org/C" {
		t.Fatalf("metadata not joined: %+v", recs[0].Talk)
	}
	if recs[0].Score != float64(float32(0.9)) {
		t.Fatalf("score = %v", recs[0].Score)
	}
}

func TestRecommend_Properties(t *testing.T) {
	r := abcdRecommender(t)
	for _, title := range r.Titles() {
		idx, _ := r.set.Index.Lookup(title)
		for k := 1; k <= 6; k++ {
			recs, err := r.Recommend(title, k)
			if err != nil {
				t.Fatalf("Recommend(%s,%d): %v", title, k, err)
			}
			if want := min(k, r.Len()-1); len(recs) != want {
				t.Fatalf("Recommend(%s,%d) len=%d want %d", title, k, len(recs), want)
			}
			seen := map[string]bool{}
			for i, rec := range recs {
				if rec.Talk.Title == title {
					t.Fatalf("Recommend(%s,%d) contains the query", title, k)
				}
				if seen[rec.Talk.Title] {
					t.Fatalf("Recommend(%s,%d) duplicate %s", title, k, rec.Talk.Title)
				}
				seen[rec.Talk.Title] = true
				if i > 0 {
					prev, _ := r.set.Index.Lookup(recs[i-1].Talk.Title)
					cur, _ := r.set.Index.Lookup(rec.Talk.Title)
					if r.set.Matrix.At(idx, prev) < r.set.Matrix.At(idx, cur) {
						t.Fatalf("Recommend(%s,%d) not ordered at %d", title, k, i)
					}
				}
			}
		}
	}
}

func TestRecommend_TiesKeepIndexOrder(t *testing.T) {
	set := newTestSet(t, []string{"q", "e1", "e2", "top", "e3"}, []float32{
		1, 0.5, 0.5, 0.8, 0.5,
		0.5, 1, 0, 0, 0,
		0.5, 0, 1, 0, 0,
		0.8, 0, 0, 1, 0,
		0.5, 0, 0, 0, 1,
	})
	r, err := New(set)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"top", "e1", "e2", "e3"}
	for i := 0; i < 20; i++ {
		recs, err := r.Recommend("q", 10)
		if err != nil {
			t.Fatal(err)
		}
		if got := titlesOf(recs); !reflect.DeepEqual(got, want) {
			t.Fatalf("run %d: got %v want %v", i, got, want)
		}
	}
}

func TestRecommend_SelfNotFirstStillExcluded(t *testing.T) {
	// Self-similarity below another score must not leak the query into results.
	set := newTestSet(t, []string{"A", "B", "C"}, []float32{
		0.1, 0.9, 0.5,
		0.9, 1, 0,
		0.5, 0, 1,
	})
	r, _ := New(set)
	recs, err := r.Recommend("A", 5)
	if err != nil {
		t.Fatal(err)
	}
	if got := titlesOf(recs); !reflect.DeepEqual(got, []string{"B", "C"}) {
		t.Fatalf("got %v", got)
	}
}

func TestRecommend_Errors(t *testing.T) {
	r := abcdRecommender(t)

	_, err := r.Recommend("nonexistent-item-xyz", 5)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Title != "nonexistent-item-xyz" {
		t.Fatalf("expected *NotFoundError, got %#v", err)
	}

	if _, err := r.Recommend("a", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("lookup must be case-sensitive, got %v", err)
	}

	for _, k := range []int{0, -3} {
		if _, err := r.Recommend("A", k); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("k=%d: expected ErrInvalidArgument, got %v", k, err)
		}
	}
	if _, err := r.Recommend("", 3); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("empty title: expected ErrInvalidArgument, got %v", err)
	}
}

func TestNew_NilSet(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, artifact.ErrIntegrity) {
		t.Fatalf("expected integrity error, got %v", err)
	}
}

func TestRecommender_Catalog(t *testing.T) {
	r := abcdRecommender(t)
	if got := r.Titles(); !reflect.DeepEqual(got, []string{"A", "B", "C", "D"}) {
		t.Fatalf("Titles = %v", got)
	}
	talks := r.Talks()
	talks[0].Title = "mutated"
	if r.Titles()[0] != "A" {
		t.Fatalf("Talks must return a copy")
	}
	if tk, ok := r.Talk("D"); !ok || tk.MainSpeaker != "speaker D" {
		t.Fatalf("Talk(D) = %+v, %v", tk, ok)
	}
	if _, ok := r.Talk("Z"); ok {
		t.Fatalf("Talk(Z) should be missing")
	}
	if r.Manifest().Count != 4 {
		t.Fatalf("manifest count = %d", r.Manifest().Count)
	}
}

func ExampleRecommender_Recommend() {
	talks := []artifact.Talk{{Title: "A"}, {Title: "B"}, {Title: "C"}, {Title: "D"}}
	im, _ := artifact.NewIndexMap(map[string]int{"A": 0, "B": 1, "C": 2, "D": 3})
	m, _ := artifact.NewMatrix(4, []float32{
		1.0, 0.2, 0.9, 0.5,
		0.2, 1.0, 0.3, 0.4,
		0.9, 0.3, 1.0, 0.6,
		0.5, 0.4, 0.6, 1.0,
	})
	set, _ := artifact.NewSet(artifact.Manifest{}, talks, im, m)
	r, _ := New(set)

	recs, _ := r.Recommend("A", 2)
	for _, rec := range recs {
		fmt.Printf("%d. %s %.1f\n", rec.Rank, rec.Talk.Title, rec.Score)
	}
	// Output:
	// 1. C 0.9
	// 2. D 0.5
}
