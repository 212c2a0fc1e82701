package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kamusis/talkrec/internal/recommend"
	"github.com/kamusis/talkrec/internal/recommend/artifact"
)

type fakeRec struct {
	talks []artifact.Talk
	calls []string
	fail  error
}

func (f *fakeRec) Talks() []artifact.Talk { return f.talks }

func (f *fakeRec) Recommend(title string, k int) ([]recommend.Recommendation, error) {
	f.calls = append(f.calls, title)
	if f.fail != nil {
		return nil, f.fail
	}
	var out []recommend.Recommendation
	for _, t := range f.talks {
		if t.Title == title || len(out) == k {
			continue
		}
		out = append(out, recommend.Recommendation{Rank: len(out) + 1, Talk: t, Score: 0.5})
	}
	return out, nil
}

func newFake() *fakeRec {
	return &fakeRec{talks: []artifact.Talk{
		{Title: "A", MainSpeaker: "Ann"},
		{Title: "B", MainSpeaker: "Bob"},
		{Title: "C", MainSpeaker: "Cid", URL: "https://example.org/c"},
	}}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press feeds msg to m and, if a command comes back, runs it and feeds its result too.
func press(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd != nil {
		if res, ok := cmd().(ResultsMsg); ok {
			next, _ = m.Update(res)
			m = next.(Model)
		}
	}
	return m
}

func TestNewModel_ClampsK(t *testing.T) {
	m := NewModel(newFake(), Options{DefaultK: 50, MinK: 1, MaxK: 2})
	if m.K() != 2 {
		t.Fatalf("k = %d want 2", m.K())
	}
	m = NewModel(newFake(), Options{DefaultK: 0, MinK: 0, MaxK: 0})
	if m.K() != 1 {
		t.Fatalf("k = %d want 1", m.K())
	}
}

func TestEnter_RecommendsSelected(t *testing.T) {
	rec := newFake()
	m := NewModel(rec, Options{DefaultK: 1, MinK: 1, MaxK: 2})
	m = press(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.Selected() != "B" {
		t.Fatalf("selected = %q want B", m.Selected())
	}
	if len(m.Results()) != 1 || m.Results()[0].Talk.Title != "A" {
		t.Fatalf("unexpected results: %+v", m.Results())
	}
	if !strings.Contains(m.View(), "Because you picked \"B\"") {
		t.Fatalf("results view not shown:\n%s", m.View())
	}
}

func TestKeys_AdjustK(t *testing.T) {
	rec := newFake()
	m := NewModel(rec, Options{DefaultK: 1, MinK: 1, MaxK: 2})
	m = press(t, m, runes("-"))
	if m.K() != 1 {
		t.Fatalf("k went below min: %d", m.K())
	}
	m = press(t, m, runes("+"))
	m = press(t, m, runes("+"))
	if m.K() != 2 {
		t.Fatalf("k = %d want 2", m.K())
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if len(m.Results()) != 2 {
		t.Fatalf("want 2 results, got %d", len(m.Results()))
	}
	m = press(t, m, runes("-"))
	if m.K() != 1 || len(m.Results()) != 1 {
		t.Fatalf("results page should rerun with k=1: k=%d n=%d", m.K(), len(m.Results()))
	}
	if len(rec.calls) != 2 {
		t.Fatalf("calls = %v", rec.calls)
	}
}

func TestError_RenderedAndBack(t *testing.T) {
	rec := newFake()
	rec.fail = errors.New("boom")
	m := NewModel(rec, Options{DefaultK: 1, MinK: 1, MaxK: 3})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.Err() == nil || !strings.Contains(m.View(), "boom") {
		t.Fatalf("error not surfaced:\n%s", m.View())
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if !strings.Contains(m.View(), "enter: recommend") {
		t.Fatalf("esc should return to picker:\n%s", m.View())
	}
}

func TestQuit(t *testing.T) {
	m := NewModel(newFake(), Options{DefaultK: 1, MinK: 1, MaxK: 3})
	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatalf("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected QuitMsg")
	}
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatalf("ctrl+c should quit")
	}
}
