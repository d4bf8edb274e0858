package main

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/cluso-louvain/pkg/louvain"
	"github.com/dd0wney/cluso-louvain/pkg/session"
)

type view int

const (
	stepView view = iota
	matrixView
	levelsView
	viewCount
)

var viewNames = [...]string{"Step", "Matrix", "Levels"}

type model struct {
	session     *session.Session
	current     *session.View
	currentView view
	candidates  table.Model
	levels      table.Model
	help        help.Model
	keys        keyMap
	width       int
	height      int
	message     string
	messageErr  bool
	running     bool
}

// runDoneMsg carries the result of a level run started in the background
type runDoneMsg struct {
	view *session.View
	err  error
}

func newTable(columns []table.Column, height int) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#FF00FF")).
		Bold(false)
	t.SetStyles(s)
	return t
}

func initialModel(s *session.Session) model {
	m := model{
		session: s,
		current: s.Snapshot(),
		candidates: newTable([]table.Column{
			{Title: "Community", Width: 10},
			{Title: "Members", Width: 24},
			{Title: "ΔQ", Width: 12},
		}, 8),
		levels: newTable([]table.Column{
			{Title: "Level", Width: 6},
			{Title: "Nodes", Width: 6},
			{Title: "Communities", Width: 12},
			{Title: "Ticks", Width: 6},
			{Title: "Passes", Width: 7},
			{Title: "Modularity", Width: 12},
		}, 8),
		help: help.New(),
		keys: keys,
	}
	m.refreshTables()
	return m
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case runDoneMsg:
		m.running = false
		m.apply(msg.view, msg.err, "level converged")
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.currentView = (m.currentView + 1) % viewCount
		case key.Matches(msg, m.keys.ShiftTab):
			m.currentView = (m.currentView + viewCount - 1) % viewCount
		case m.running:
			// Ignore session keys until the run finishes
		case key.Matches(msg, m.keys.Step):
			v, err := m.session.Step()
			m.apply(v, err, "")
		case key.Matches(msg, m.keys.Back):
			v, err := m.session.Back()
			m.apply(v, err, "")
		case key.Matches(msg, m.keys.Run):
			m.running = true
			m.message, m.messageErr = "running level...", false
			return m, runLevel(m.session)
		case key.Matches(msg, m.keys.Aggregate):
			v, err := m.session.Aggregate()
			m.apply(v, err, "aggregated into the next level")
		case key.Matches(msg, m.keys.Reset):
			v, err := m.session.Reset()
			m.apply(v, err, "reset to the input graph")
		}
	}

	return m, nil
}

func runLevel(s *session.Session) tea.Cmd {
	return func() tea.Msg {
		v, err := s.RunLevel(context.Background(), 0)
		return runDoneMsg{view: v, err: err}
	}
}

// apply installs the result of a session operation
func (m *model) apply(v *session.View, err error, success string) {
	if err != nil {
		m.message, m.messageErr = describe(err), true
		return
	}
	m.current = v
	m.message, m.messageErr = success, false
	if success == "" && v.LastMove != nil {
		m.message = moveMessage(v)
	}
	m.refreshTables()
}

func describe(err error) string {
	switch {
	case errors.Is(err, louvain.ErrFinished):
		return "level has converged: press a to aggregate"
	case errors.Is(err, session.ErrNotConverged):
		return "level has not converged yet: press r to run it"
	case errors.Is(err, session.ErrNothingToUndo):
		return "already at the first state of this level"
	default:
		return err.Error()
	}
}

func (m *model) refreshTables() {
	v := m.current

	rows := make([]table.Row, 0, len(v.Candidates))
	for i, c := range v.Candidates {
		gain := "-"
		if i < len(v.Gains) {
			gain = formatGain(v.Gains[i])
		}
		rows = append(rows, table.Row{
			louvain.CommunityNodeID(c),
			joinMembers(v.Communities[c]),
			gain,
		})
	}
	m.candidates.SetRows(rows)

	levelRows := make([]table.Row, 0, len(v.Levels))
	for _, l := range v.Levels {
		levelRows = append(levelRows, table.Row{
			itoa(l.Index),
			itoa(l.Nodes),
			itoa(l.Communities),
			itoa(l.Ticks),
			itoa(l.Passes),
			formatGain(l.Modularity),
		})
	}
	m.levels.SetRows(levelRows)
}
