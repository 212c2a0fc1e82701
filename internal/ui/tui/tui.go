// Package tui is the interactive talk picker behind `talkrec browse`.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kamusis/talkrec/internal/recommend"
	"github.com/kamusis/talkrec/internal/recommend/artifact"
)

// Recommender is the subset of *recommend.Recommender the browser needs.
type Recommender interface {
	Recommend(title string, k int) ([]recommend.Recommendation, error)
	Talks() []artifact.Talk
}

// Options bounds the k control.
type Options struct {
	DefaultK int
	MinK     int
	MaxK     int
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#777777"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000"))
)

type talkItem struct{ talk artifact.Talk }

func (i talkItem) Title() string       { return i.talk.Title }
func (i talkItem) Description() string { return i.talk.MainSpeaker }
func (i talkItem) FilterValue() string { return i.talk.Title + " " + i.talk.MainSpeaker }

type screen int

const (
	screenPick screen = iota
	screenResults
)

// ResultsMsg carries the outcome of one recommendation request.
type ResultsMsg struct {
	Title   string
	K       int
	Results []recommend.Recommendation
	Err     error
}

// Model is the bubbletea model: a filterable talk list and a results page.
type Model struct {
	rec  Recommender
	opts Options

	list    list.Model
	screen  screen
	k       int
	title   string
	results []recommend.Recommendation
	err     error

	width    int
	height   int
	quitting bool
}

// NewModel builds a Model over every talk rec knows about.
func NewModel(rec Recommender, opts Options) Model {
	if opts.MinK < 1 {
		opts.MinK = 1
	}
	if opts.MaxK < opts.MinK {
		opts.MaxK = opts.MinK
	}
	k := min(max(opts.DefaultK, opts.MinK), opts.MaxK)

	talks := rec.Talks()
	items := make([]list.Item, len(talks))
	for i, t := range talks {
		items[i] = talkItem{talk: t}
	}
	l := list.New(items, list.NewDefaultDelegate(), 80, 20)
	l.Title = "TED talks"
	l.DisableQuitKeybindings()
	l.SetStatusBarItemName("talk", "talks")

	return Model{rec: rec, opts: opts, list: l, k: k, width: 80, height: 24}
}

// K returns the current result count.
func (m Model) K() int { return m.k }

// Selected returns the title the last results were computed for.
func (m Model) Selected() string { return m.title }

// Results returns the last successful results.
func (m Model) Results() []recommend.Recommendation { return m.results }

// Err returns the last recommendation error, if any.
func (m Model) Err() error { return m.err }

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) recommendCmd(title string, k int) tea.Cmd {
	rec := m.rec
	return func() tea.Msg {
		res, err := rec.Recommend(title, k)
		return ResultsMsg{Title: title, K: k, Results: res, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, max(msg.Height-4, 5))
		return m, nil

	case ResultsMsg:
		m.title = msg.Title
		m.err = msg.Err
		if msg.Err != nil {
			m.results = nil
		} else {
			m.results = msg.Results
		}
		m.screen = screenResults
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}
		if m.screen == screenResults {
			return m.updateResults(msg)
		}
		if m.list.FilterState() != list.Filtering {
			switch msg.String() {
			case "q":
				m.quitting = true
				return m, tea.Quit
			case "+", "=":
				m.k = min(m.k+1, m.opts.MaxK)
				return m, nil
			case "-":
				m.k = max(m.k-1, m.opts.MinK)
				return m, nil
			case "enter":
				if it, ok := m.list.SelectedItem().(talkItem); ok {
					return m, m.recommendCmd(it.talk.Title, m.k)
				}
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "esc", "backspace":
		m.screen = screenPick
		return m, nil
	case "+", "=":
		if m.k < m.opts.MaxK {
			m.k++
			return m, m.recommendCmd(m.title, m.k)
		}
	case "-":
		if m.k > m.opts.MinK {
			m.k--
			return m, m.recommendCmd(m.title, m.k)
		}
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	header := titleStyle.Render(" talkrec ") + infoStyle.Render(fmt.Sprintf(" k=%d (%d-%d) ", m.k, m.opts.MinK, m.opts.MaxK))

	if m.screen == screenPick {
		help := dimStyle.Render("enter: recommend  +/-: change k  /: filter  q: quit")
		return header + "\n\n" + m.list.View() + "\n" + help
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Because you picked %q:\n\n", m.title)
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}
	for _, r := range m.results {
		fmt.Fprintf(&b, "%2d. %s\n", r.Rank, r.Talk.Title)
		line := r.Talk.MainSpeaker
		if r.Talk.URL != "" {
			line += "  " + r.Talk.URL
		}
		b.WriteString("    " + dimStyle.Render(line) + "\n")
	}
	b.WriteString("\n" + dimStyle.Render("esc: back  +/-: change k  q: quit"))
	return b.String()
}
