package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/dd0wney/cluso-louvain/pkg/api"
	"github.com/dd0wney/cluso-louvain/pkg/config"
	"github.com/dd0wney/cluso-louvain/pkg/events"
	"github.com/dd0wney/cluso-louvain/pkg/logging"
	"github.com/dd0wney/cluso-louvain/pkg/metrics"
	"github.com/dd0wney/cluso-louvain/pkg/results"
	"github.com/dd0wney/cluso-louvain/pkg/session"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	port := flag.Int("port", 0, "HTTP server port (overrides config and LOUVAIN_PORT)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.ErrorLog("failed to load config", logging.Error(err))
		os.Exit(1)
	}
	if err := cfg.ApplyEnv(); err != nil {
		logging.ErrorLog("invalid environment", logging.Error(err))
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		logging.ErrorLog("invalid config", logging.Error(err))
		os.Exit(1)
	}

	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(cfg.Logging.Level))
	logging.SetDefaultLogger(logger)

	logger.Info("Louvain server starting",
		logging.String("version", version),
		logging.Int("max_sessions", cfg.Sessions.MaxSessions),
		logging.Int("max_nodes", cfg.Louvain.MaxNodes),
	)

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := metrics.DefaultRegistry()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Events.Listen != "" {
		pub, err := events.NewNNGPublisher(cfg.Events.Listen, cfg.Events.QueueSize, logger, reg)
		if err != nil {
			logger.Error("failed to start event publisher", logging.Error(err))
			os.Exit(1)
		}
		defer pub.Close()
		publisher = pub
	}

	runs, err := openResults(ctx, cfg.Results)
	if err != nil {
		logger.Error("failed to open results store", logging.Error(err))
		os.Exit(1)
	}
	if runs != nil {
		defer runs.Close()
	}

	store := session.NewStore(session.Options{
		MaxSessions: cfg.Sessions.MaxSessions,
		TTL:         cfg.Sessions.TTL,
		HistorySize: cfg.Louvain.HistorySize,
		MaxTicks:    cfg.Louvain.MaxTicks,
		MaxNodes:    cfg.Louvain.MaxNodes,
		Events:      publisher,
	}, logger, reg)

	server, err := api.NewServer(api.Options{
		Config:  cfg,
		Store:   store,
		Metrics: reg,
		Logger:  logger,
		Version: version,
		Results: runs,
	})
	if err != nil {
		logger.Error("failed to create server", logging.Error(err))
		os.Exit(1)
	}

	go store.RunSweeper(ctx, cfg.Sessions.SweepInterval)

	if err := server.Start(ctx); err != nil {
		logger.Error("server error", logging.Error(err))
		os.Exit(1)
	}
	logger.Info("server exited")
}

// openResults opens PostgreSQL when a DSN is set, else a file store when a
// directory is set, else nothing
func openResults(ctx context.Context, cfg config.ResultsConfig) (results.Store, error) {
	switch {
	case cfg.PostgresDSN != "":
		pg, err := results.NewPGStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return pg, nil
	case cfg.Dir != "":
		fs, err := results.NewFileStore(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return fs, nil
	default:
		return nil, nil
	}
}
