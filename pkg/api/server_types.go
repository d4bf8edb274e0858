package api

import (
	"net/http"
	"time"

	"github.com/dd0wney/cluso-louvain/pkg/auth"
	"github.com/dd0wney/cluso-louvain/pkg/config"
	"github.com/dd0wney/cluso-louvain/pkg/health"
	"github.com/dd0wney/cluso-louvain/pkg/logging"
	"github.com/dd0wney/cluso-louvain/pkg/metrics"
	"github.com/dd0wney/cluso-louvain/pkg/results"
	"github.com/dd0wney/cluso-louvain/pkg/session"
)

// Server represents the HTTP API server
type Server struct {
	cfg        *config.Config
	store      *session.Store
	metrics    *metrics.Registry
	health     *health.HealthChecker
	jwtManager *auth.JWTManager  // nil when auth is disabled
	users      *auth.Credentials // nil when no users are configured
	results    results.Store     // nil when runs are not persisted
	graphql    http.Handler
	logger     logging.Logger

	handler    http.Handler
	httpServer *http.Server
	startTime  time.Time
	version    string
}

// Options wires a server. Nil fields get defaults; Store is required.
type Options struct {
	Config  *config.Config
	Store   *session.Store
	Metrics *metrics.Registry
	Logger  logging.Logger
	Version string

	// Results persists /communities runs and enables /results when set
	Results results.Store
}
