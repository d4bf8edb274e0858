package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/dd0wney/cluso-louvain/pkg/auth"
	"github.com/dd0wney/cluso-louvain/pkg/config"
	"github.com/dd0wney/cluso-louvain/pkg/graphql"
	"github.com/dd0wney/cluso-louvain/pkg/health"
	"github.com/dd0wney/cluso-louvain/pkg/logging"
	"github.com/dd0wney/cluso-louvain/pkg/metrics"
)

// NewServer creates a new API server
func NewServer(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("session store is required")
	}
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.DefaultRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = logging.DefaultLogger()
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	s := &Server{
		cfg:       opts.Config,
		store:     opts.Store,
		metrics:   opts.Metrics,
		results:   opts.Results,
		health:    health.NewHealthChecker(),
		logger:    opts.Logger.With(logging.Component("api")),
		startTime: time.Now(),
		version:   opts.Version,
	}
	s.metrics.SetBuildInfo(s.version)

	if secret := s.cfg.Server.JWTSecret; secret != "" {
		jm, err := auth.NewJWTManager(secret, s.cfg.Server.TokenTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize auth: %w", err)
		}
		s.jwtManager = jm

		if len(s.cfg.Server.Users) > 0 {
			users, err := auth.NewCredentials(s.cfg.Server.Users)
			if err != nil {
				return nil, fmt.Errorf("failed to initialize users: %w", err)
			}
			s.users = users
		}
	}

	schema, err := graphql.GenerateSchema(graphql.Config{Sessions: s.store, Runs: s.results})
	if err != nil {
		return nil, fmt.Errorf("failed to build graphql schema: %w", err)
	}
	s.graphql = graphql.NewGraphQLHandler(schema, s.cfg.Server.GraphQLMaxDepth)

	s.initHealthChecks()
	s.handler = s.routes()
	return s, nil
}

func (s *Server) initHealthChecks() {
	s.health.Register(health.Liveness, "server", func() health.Check {
		return health.Check{
			Status:  health.StatusHealthy,
			Details: map[string]any{"version": s.version},
		}
	})
	s.health.Register(health.Readiness, "sessions",
		health.CapacityCheck(s.store.Len, s.cfg.Sessions.MaxSessions))
	if s.results != nil {
		s.health.Register(health.Readiness, "results", health.PingCheck(s.results.Ping, 2*time.Second))
	}
}
