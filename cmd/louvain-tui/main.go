package main

import (
	"context"
	"flag"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dd0wney/cluso-louvain/pkg/graphfile"
	"github.com/dd0wney/cluso-louvain/pkg/logging"
	"github.com/dd0wney/cluso-louvain/pkg/louvain"
	"github.com/dd0wney/cluso-louvain/pkg/metrics"
	"github.com/dd0wney/cluso-louvain/pkg/session"
)

func main() {
	graphPath := flag.String("graph", "", "Graph file or s3://bucket/key (.json, .yaml, optionally .sz); the built-in sample graph when empty")
	history := flag.Int("history", 0, "Snapshots kept for stepping back (0 keeps all)")
	flag.Parse()

	g := louvain.SampleGraph()
	if *graphPath != "" {
		loaded, err := graphfile.Open(context.Background(), *graphPath)
		if err != nil {
			log.Fatalf("Failed to load graph: %v", err)
		}
		g = loaded
	}

	store := session.NewStore(session.Options{HistorySize: *history}, logging.NopLogger{}, metrics.NewRegistry())
	s, err := store.Create(g)
	if err != nil {
		log.Fatalf("Failed to open session: %v", err)
	}

	p := tea.NewProgram(initialModel(s), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}
}
