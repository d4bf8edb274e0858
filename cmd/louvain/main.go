package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/dd0wney/cluso-louvain/pkg/auth"
	"github.com/dd0wney/cluso-louvain/pkg/events"
	"github.com/dd0wney/cluso-louvain/pkg/graphfile"
	"github.com/dd0wney/cluso-louvain/pkg/logging"
	"github.com/dd0wney/cluso-louvain/pkg/louvain"
	"github.com/dd0wney/cluso-louvain/pkg/results"
	"github.com/dd0wney/cluso-louvain/pkg/validation"
)

type options struct {
	graphPath string
	outPath   string
	maxLevels int
	maxTicks  int
	maxNodes  int
	token     string
	tokenTTL  time.Duration
	hashPass  bool
	logLevel  string

	resultsDir string
	pgDSN      string
	watchAddr  string
}

func main() {
	var opts options
	flag.StringVar(&opts.graphPath, "graph", "", "Graph file or s3://bucket/key (.json, .yaml, optionally .sz); the built-in sample graph when empty")
	flag.StringVar(&opts.outPath, "out", "", "Write the input graph grouped by final community to this file or s3:// URI")
	flag.IntVar(&opts.maxLevels, "max-levels", 0, "Maximum number of levels (0 = until nothing merges)")
	flag.IntVar(&opts.maxTicks, "max-ticks", 0, "Maximum ticks per level (0 = no bound)")
	flag.IntVar(&opts.maxNodes, "max-nodes", 0, "Reject graphs with more nodes than this (0 = no limit)")
	flag.StringVar(&opts.token, "token", "", "Print a bearer token for this subject, signed with LOUVAIN_JWT_SECRET, and exit")
	flag.DurationVar(&opts.tokenTTL, "token-ttl", 24*time.Hour, "Lifetime of a token printed with -token")
	flag.BoolVar(&opts.hashPass, "hash-password", false, "Read a password from stdin, print its bcrypt hash for the users config section, and exit")
	flag.StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flag.StringVar(&opts.resultsDir, "results-dir", "", "Save the run to a JSON run store in this directory")
	flag.StringVar(&opts.pgDSN, "pg-dsn", os.Getenv("LOUVAIN_PG_DSN"), "Save the run to PostgreSQL (wins over -results-dir)")
	flag.StringVar(&opts.watchAddr, "watch", "", "Print session events from a server's event feed (e.g. tcp://127.0.0.1:5557) until interrupted")
	flag.Parse()

	logger := logging.NewJSONLogger(os.Stderr, logging.ParseLevel(opts.logLevel))

	if opts.token != "" {
		if err := printToken(os.Stdout, os.Getenv("LOUVAIN_JWT_SECRET"), opts.token, opts.tokenTTL); err != nil {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			os.Exit(1)
		}
		return
	}

	if opts.hashPass {
		if err := printHash(os.Stdout, os.Stdin); err != nil {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if opts.watchAddr != "" {
		if err := watch(ctx, os.Stdout, opts.watchAddr); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(ctx, os.Stdout, logger, opts); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func printToken(w io.Writer, secret, subject string, ttl time.Duration) error {
	if secret == "" {
		return errors.New("LOUVAIN_JWT_SECRET is not set")
	}
	jm, err := auth.NewJWTManager(secret, ttl)
	if err != nil {
		return err
	}
	token, err := jm.GenerateToken(subject)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, token)
	return nil
}

func printHash(w io.Writer, r io.Reader) error {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	hash, err := auth.HashPassword(strings.TrimRight(line, "\r\n"))
	if err != nil {
		return err
	}
	fmt.Fprintln(w, hash)
	return nil
}

func run(ctx context.Context, w io.Writer, logger logging.Logger, opts options) error {
	g := louvain.SampleGraph()
	source := "sample graph"
	if opts.graphPath != "" {
		loaded, err := graphfile.Open(ctx, opts.graphPath)
		if err != nil {
			return err
		}
		g, source = loaded, opts.graphPath
	}

	if err := validation.ValidateGraph(g, opts.maxNodes); err != nil {
		return err
	}
	cg, err := louvain.ToWeightedGraph(g)
	if err != nil {
		return err
	}

	timer := logging.StartTimer(logger, "louvain run", logging.Path(source), logging.Int("nodes", cg.Len()))
	h, err := louvain.Run(ctx, cg, louvain.Options{
		MaxLevels: opts.maxLevels,
		MaxTicks:  opts.maxTicks,
		OnTick: func(level int, s *louvain.State) {
			if m := s.LastMove; m != nil {
				logger.Debug("node moved",
					logging.LevelIndex(level),
					logging.Node(s.Graph.Node(m.Node)),
					logging.Community(m.To),
					logging.Gain(m.Gain),
				)
			}
		},
	})
	if err != nil {
		timer.EndError(err)
		return err
	}
	elapsed := timer.End(logging.Int("levels", len(h.Levels)))

	printHierarchy(w, source, h, elapsed)

	if opts.outPath != "" {
		flat, err := h.Flatten()
		if err != nil {
			return err
		}
		out := louvain.ToEdgeListGraph(flat)
		if err := graphfile.Write(ctx, opts.outPath, out); err != nil {
			return err
		}
		fmt.Fprintf(w, "\n✅ Wrote %s\n", opts.outPath)
	}

	store, err := openResults(ctx, opts)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		saved := results.NewRun(source, g, h)
		if err := store.SaveRun(ctx, saved); err != nil {
			return err
		}
		fmt.Fprintf(w, "\n💾 Saved run %s\n", saved.ID)
	}
	return nil
}

// openResults returns the configured run store, or nil when none is set
func openResults(ctx context.Context, opts options) (results.Store, error) {
	switch {
	case opts.pgDSN != "":
		pg, err := results.NewPGStore(ctx, opts.pgDSN)
		if err != nil {
			return nil, err
		}
		return pg, nil
	case opts.resultsDir != "":
		fs, err := results.NewFileStore(opts.resultsDir)
		if err != nil {
			return nil, err
		}
		return fs, nil
	default:
		return nil, nil
	}
}

func watch(ctx context.Context, w io.Writer, addr string) error {
	sub, err := events.Subscribe(addr)
	if err != nil {
		return err
	}
	defer sub.Close()

	fmt.Fprintf(w, "👀 Watching %s\n", addr)
	return sub.Watch(ctx, 250*time.Millisecond, func(e events.Event) {
		fmt.Fprintln(w, formatEvent(e))
	})
}

func formatEvent(e events.Event) string {
	line := fmt.Sprintf("%s %-15s session=%s level=%d", e.Time.Format("15:04:05.000"), e.Type, e.Session, e.Level)
	switch e.Type {
	case events.TypeMoved:
		if m := e.Move; m != nil {
			line += fmt.Sprintf(" node=%s %s->%s gain=%.5f", m.Node,
				louvain.CommunityNodeID(m.From), louvain.CommunityNodeID(m.To), m.Gain)
		}
	case events.TypeLevelConverged:
		line += fmt.Sprintf(" ticks=%d passes=%d modularity=%.5f", e.Ticks, e.Pass, e.Modularity)
	case events.TypeAggregated:
		line += fmt.Sprintf(" nodes=%d modularity=%.5f", e.Nodes, e.Modularity)
	case events.TypeCreated, events.TypeReset:
		line += fmt.Sprintf(" nodes=%d", e.Nodes)
	}
	return line
}

func printHierarchy(w io.Writer, source string, h *louvain.Hierarchy, elapsed time.Duration) {
	fmt.Fprintf(w, "📊 Louvain on %s (%s)\n\n", source, elapsed)
	fmt.Fprintf(w, "%-6s %-6s %-12s %-6s %-7s %s\n", "Level", "Nodes", "Communities", "Ticks", "Passes", "Modularity")
	for _, l := range h.Levels {
		fmt.Fprintf(w, "%-6d %-6d %-12d %-6d %-7d %.5f\n", l.Index, l.Nodes, l.Communities, l.Ticks, l.Passes, l.Modularity)
	}

	groups := make(map[int][]string)
	for id, c := range h.Membership() {
		groups[c] = append(groups[c], id)
	}
	ids := make([]int, 0, len(groups))
	for c := range groups {
		ids = append(ids, c)
	}
	sort.Ints(ids)

	fmt.Fprintf(w, "\nCommunities (%d):\n", len(ids))
	for _, c := range ids {
		members := groups[c]
		sort.Strings(members)
		fmt.Fprintf(w, "  %-5s %s\n", louvain.CommunityNodeID(c), strings.Join(members, " "))
	}
}
