package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/cluso-louvain/pkg/louvain"
	"github.com/dd0wney/cluso-louvain/pkg/session"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			MarginLeft(2).
			MarginTop(1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#FF00FF")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666")).
				Padding(0, 2)

	contentStyle = lipgloss.NewStyle().
			MarginLeft(2).
			MarginTop(1)

	statsBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(1, 2).
			MarginRight(2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)

	currentNodeStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFFF00"))
)

// palette colours communities by index in the matrix view
var palette = []lipgloss.Color{"#FF5F87", "#5FD7FF", "#AFFF5F", "#FFD75F", "#D787FF", "#5FFFD7", "#FF875F", "#87AFFF"}

func communityStyle(c int) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(palette[c%len(palette)])
}

func (m model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("Louvain community detection"))
	s.WriteString("\n\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n")

	switch m.currentView {
	case stepView:
		s.WriteString(m.renderStep())
	case matrixView:
		s.WriteString(m.renderMatrix())
	case levelsView:
		s.WriteString(m.renderLevels())
	}

	if m.message != "" {
		s.WriteString("\n")
		if m.messageErr {
			s.WriteString(contentStyle.Render(errorStyle.Render(m.message)))
		} else {
			s.WriteString(contentStyle.Render(successStyle.Render(m.message)))
		}
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return s.String()
}

func (m model) renderTabs() string {
	tabs := make([]string, 0, len(viewNames))
	for i, name := range viewNames {
		if view(i) == m.currentView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}
	return lipgloss.NewStyle().MarginLeft(2).Render(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
}

func (m model) renderStep() string {
	v := m.current

	stats := fmt.Sprintf(`Level:        %d
Pass:         %d
Phase:        %s
Current node: %s
Community:    %s
Modularity:   %s
History:      %d`,
		v.Level,
		v.Pass,
		v.Phase,
		currentNodeStyle.Render(v.CurrentNode),
		louvain.CommunityNodeID(v.CurrentCommunity),
		formatGain(v.Modularity),
		v.History,
	)

	var s strings.Builder
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		statsBoxStyle.Render(stats),
		statsBoxStyle.Render(renderCommunities(v)),
	))
	s.WriteString("\n\n")
	if len(v.Candidates) == 0 {
		s.WriteString("No adjacent communities: the node stays put")
	} else {
		s.WriteString("Candidate communities\n")
		s.WriteString(m.candidates.View())
	}
	return contentStyle.Render(s.String())
}

func renderCommunities(v *session.View) string {
	var s strings.Builder
	s.WriteString("Communities\n")
	for c, members := range v.Communities {
		if len(members) == 0 {
			continue
		}
		s.WriteString("\n")
		s.WriteString(communityStyle(c).Render(fmt.Sprintf("%-4s %s", louvain.CommunityNodeID(c), joinMembers(members))))
	}
	return s.String()
}

func (m model) renderMatrix() string {
	v := m.current

	community := make(map[string]int, len(v.Nodes))
	for c, members := range v.Communities {
		for _, id := range members {
			community[id] = c
		}
	}

	width := 6
	for _, id := range v.Nodes {
		width = max(width, len(id)+1)
	}

	var s strings.Builder
	s.WriteString(strings.Repeat(" ", width))
	for _, id := range v.Nodes {
		s.WriteString(communityStyle(community[id]).Render(fmt.Sprintf("%*s", width, id)))
	}
	for i, row := range v.Matrix {
		s.WriteString("\n")
		label := fmt.Sprintf("%-*s", width, v.Nodes[i])
		if v.Nodes[i] == v.CurrentNode {
			s.WriteString(currentNodeStyle.Render(label))
		} else {
			s.WriteString(communityStyle(community[v.Nodes[i]]).Render(label))
		}
		for j, w := range row {
			cell := fmt.Sprintf("%*s", width, strconv.FormatFloat(w, 'g', 4, 64))
			if w != 0 && community[v.Nodes[i]] == community[v.Nodes[j]] {
				cell = communityStyle(community[v.Nodes[i]]).Render(cell)
			}
			s.WriteString(cell)
		}
	}
	return contentStyle.Render(s.String())
}

func (m model) renderLevels() string {
	if len(m.current.Levels) == 0 {
		return contentStyle.Render(helpStyle.Render("No completed levels yet\n\nRun a level with r, then aggregate with a"))
	}
	return contentStyle.Render(m.levels.View())
}

func moveMessage(v *session.View) string {
	mv := v.LastMove
	return fmt.Sprintf("moved %s from %s to %s (ΔQ %s)",
		v.Nodes[mv.Node],
		louvain.CommunityNodeID(mv.From),
		louvain.CommunityNodeID(mv.To),
		formatGain(mv.Gain),
	)
}

func formatGain(g float64) string {
	return strconv.FormatFloat(g, 'f', 5, 64)
}

func joinMembers(members []string) string {
	return strings.Join(members, " ")
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
