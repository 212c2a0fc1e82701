package artifact

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeEmbeddings(t *testing.T, path string, vecs []float32) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := binary.Write(f, binary.LittleEndian, vecs); err != nil {
		_ = f.Close()
		t.Fatal(err)
	}
	_ = f.Close()
}

func TestBuild_FromCSV(t *testing.T) {
	dir := t.TempDir()
	catalog := filepath.Join(dir, "ted_main.csv")
	csv := "comments,title,main_speaker,url\n" +
		"4553,Do schools kill creativity?,Ken Robinson,https://www.ted.com/talks/ken_robinson_says_schools_kill_creativity\n" +
		"265,Averting the climate crisis,Al Gore,https://www.ted.com/talks/al_gore_on_averting_climate_crisis\n" +
		"124,\"Simplicity sells, again\",David Pogue,https://www.ted.com/talks/david_pogue_says_simplicity_sells\n"
	if err := os.WriteFile(catalog, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}
	emb := filepath.Join(dir, "embeddings.f32")
	writeEmbeddings(t, emb, []float32{
		1, 0,
		0, 2,
		1, 1,
	})

	set, err := Build(context.Background(), BuildOptions{
		CatalogPath:    catalog,
		EmbeddingsPath: emb,
		Dim:            2,
		ModelID:        "sbert:all-MiniLM-L6-v2",
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if set.Len() != 3 {
		t.Fatalf("expected 3 talks, got %d", set.Len())
	}
	if set.Talks[2].Title != "Simplicity sells, again" || set.Talks[0].MainSpeaker != "Ken Robinson" {
		t.Fatalf("catalog columns not mapped: %+v", set.Talks)
	}
	if got := set.Matrix.At(0, 1); got != 0 {
		t.Fatalf("orthogonal vectors should score 0, got %v", got)
	}
	want := float32(1 / math.Sqrt2)
	if got := set.Matrix.At(0, 2); math.Abs(float64(got-want)) > 1e-6 {
		t.Fatalf("cosine(0,2) = %v want %v", got, want)
	}
	for i := 0; i < 3; i++ {
		if got := set.Matrix.At(i, i); math.Abs(float64(got)-1) > 1e-6 {
			t.Fatalf("self-similarity of row %d = %v", i, got)
		}
	}
	if r := Inspect(set); !r.Symmetric(0) || len(r.DiagonalNotMax) != 0 {
		t.Fatalf("built matrix should be symmetric with maximal diagonal: %+v", r)
	}
}

func TestBuild_DropsDuplicateTitles(t *testing.T) {
	dir := t.TempDir()
	catalog := filepath.Join(dir, "talks.jsonl")
	body := `{"title":"A","main_speaker":"Ann","url":"u1"}` + "\n" +
		`{"title":"B","main_speaker":"Bob","url":"u2"}` + "\n" +
		`{"title":"A","main_speaker":"Ann again","url":"u3"}` + "\n"
	if err := os.WriteFile(catalog, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	emb := filepath.Join(dir, "embeddings.f32")
	writeEmbeddings(t, emb, []float32{1, 0, 0, 1, 5, 5})

	set, err := Build(context.Background(), BuildOptions{CatalogPath: catalog, EmbeddingsPath: emb, Dim: 2, Metric: MetricDot})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if set.Len() != 2 || set.Talks[0].MainSpeaker != "Ann" {
		t.Fatalf("expected first occurrence kept: %+v", set.Talks)
	}
	if got := set.Matrix.At(0, 0); got != 1 {
		t.Fatalf("dot metric should use the kept vector, got %v", got)
	}
}

func TestBuild_RejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	catalog := filepath.Join(dir, "talks.jsonl")
	if err := os.WriteFile(catalog, []byte(`{"title":"A"}`+"\n"+`{"title":"B"}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	emb := filepath.Join(dir, "embeddings.f32")
	writeEmbeddings(t, emb, []float32{1, 2, 3})

	_, err := Build(context.Background(), BuildOptions{CatalogPath: catalog, EmbeddingsPath: emb, Dim: 2})
	if !errors.Is(err, ErrVectorLengthMismatch) {
		t.Fatalf("expected vector length mismatch, got %v", err)
	}

	_, err = Build(context.Background(), BuildOptions{CatalogPath: catalog, EmbeddingsPath: emb, Dim: 2, Metric: "euclid"})
	if err == nil {
		t.Fatalf("expected unsupported metric error")
	}

	_, err = Build(context.Background(), BuildOptions{CatalogPath: filepath.Join(dir, "talks.xlsx"), EmbeddingsPath: emb, Dim: 2})
	if err == nil {
		t.Fatalf("expected unsupported catalog format error")
	}
}

func TestBuild_Cancelled(t *testing.T) {
	dir := t.TempDir()
	catalog := filepath.Join(dir, "talks.jsonl")
	if err := os.WriteFile(catalog, []byte(`{"title":"A"}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	emb := filepath.Join(dir, "embeddings.f32")
	writeEmbeddings(t, emb, []float32{1, 0})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Build(ctx, BuildOptions{CatalogPath: catalog, EmbeddingsPath: emb, Dim: 2}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestInspect_ReportsAsymmetryAndDiagonal(t *testing.T) {
	talks, index, scores := abcd()
	scores[1] = 0.25 // (0,1) vs (1,0) = 0.2
	scores[3*4+2] = 1.5
	im, _ := NewIndexMap(index)
	m, _ := NewMatrix(4, scores)
	set, err := NewSet(Manifest{}, talks, im, m)
	if err != nil {
		t.Fatal(err)
	}
	r := Inspect(set)
	if r.Symmetric(0.01) {
		t.Fatalf("expected asymmetry to be reported: %+v", r)
	}
	if len(r.DiagonalNotMax) != 1 || r.DiagonalNotMax[0] != 3 {
		t.Fatalf("expected row 3 flagged, got %v", r.DiagonalNotMax)
	}
	if r.MaxScore != 1.5 || r.MinScore != 0.2 {
		t.Fatalf("range = [%v,%v]", r.MinScore, r.MaxScore)
	}
}
