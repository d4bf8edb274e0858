package api

import (
	"time"

	"github.com/dd0wney/cluso-louvain/pkg/louvain"
	"github.com/dd0wney/cluso-louvain/pkg/results"
	"github.com/dd0wney/cluso-louvain/pkg/session"
)

// API Request/Response Types

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// SessionListResponse lists live sessions, oldest first
type SessionListResponse struct {
	Sessions []session.Summary `json:"sessions"`
	Count    int               `json:"count"`
}

// CommunitiesRequest runs the full hierarchy on a graph in one call
type CommunitiesRequest struct {
	Graph     louvain.Graph `json:"graph"`
	MaxLevels int           `json:"max_levels,omitempty"`
}

// CommunitiesResponse is the result of a one-shot run
type CommunitiesResponse struct {
	Levels     []louvain.Level `json:"levels"`
	Membership map[string]int  `json:"membership"`
	Modularity float64         `json:"modularity"`
	Time       string          `json:"time"`
	RunID      string          `json:"run_id,omitempty"`
}

// RunListResponse lists stored runs, newest first
type RunListResponse struct {
	Runs  []*results.Run `json:"runs"`
	Count int            `json:"count"`
}

// TokenResponse carries a freshly minted bearer token
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
