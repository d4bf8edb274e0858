package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dd0wney/cluso-louvain/pkg/auth"
	"github.com/dd0wney/cluso-louvain/pkg/config"
	"github.com/dd0wney/cluso-louvain/pkg/logging"
	"github.com/dd0wney/cluso-louvain/pkg/louvain"
	"github.com/dd0wney/cluso-louvain/pkg/metrics"
	"github.com/dd0wney/cluso-louvain/pkg/results"
	"github.com/dd0wney/cluso-louvain/pkg/session"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// setupTestServer creates a server over a fresh store and registry
func setupTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	return setupServerWithResults(t, mutate, nil)
}

// setupServerWithResults is setupTestServer with a run store
func setupServerWithResults(t *testing.T, mutate func(*config.Config), runs results.Store) *Server {
	t.Helper()

	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	reg := metrics.NewRegistry()
	store := session.NewStore(session.Options{
		MaxSessions: cfg.Sessions.MaxSessions,
		HistorySize: cfg.Louvain.HistorySize,
		MaxTicks:    cfg.Louvain.MaxTicks,
		MaxNodes:    cfg.Louvain.MaxNodes,
	}, logging.NopLogger{}, reg)

	s, err := NewServer(Options{Config: cfg, Store: store, Metrics: reg, Logger: logging.NopLogger{}, Results: runs})
	require.NoError(t, err)
	return s
}

func sampleGraphJSON(t *testing.T) []byte {
	t.Helper()
	data, err := json.Marshal(louvain.SampleGraph())
	require.NoError(t, err)
	return data
}

func do(t *testing.T, s *Server, method, path string, body []byte, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func decodeView(t *testing.T, rr *httptest.ResponseRecorder) session.View {
	t.Helper()
	var v session.View
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func createSession(t *testing.T, s *Server) session.View {
	t.Helper()
	rr := do(t, s, "POST", "/sessions", sampleGraphJSON(t))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	v := decodeView(t, rr)
	assert.Equal(t, "/sessions/"+v.ID, rr.Header().Get("Location"))
	return v
}

func TestNewServer_RequiresStore(t *testing.T) {
	_, err := NewServer(Options{})
	assert.Error(t, err)
}

func TestNewServer_ShortSecret(t *testing.T) {
	cfg := config.Default()
	cfg.Server.JWTSecret = "short"
	store := session.NewStore(session.Options{}, nil, metrics.NewRegistry())
	_, err := NewServer(Options{Config: cfg, Store: store, Metrics: metrics.NewRegistry()})
	assert.ErrorIs(t, err, auth.ErrShortSecret)
}

func TestSessionLifecycle(t *testing.T) {
	s := setupTestServer(t, nil)

	v := createSession(t, s)
	assert.Equal(t, "computing_gains", v.Phase)
	assert.Len(t, v.Nodes, 6)
	assert.Equal(t, 1, v.History)

	// Gains beat, then the decision beat moves A into B's community
	rr := do(t, s, "POST", "/sessions/"+v.ID+"/step", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	v = decodeView(t, rr)
	assert.Equal(t, "ready_to_decide", v.Phase)
	assert.Len(t, v.Gains, 3)

	v = decodeView(t, do(t, s, "POST", "/sessions/"+v.ID+"/step", nil))
	require.NotNil(t, v.LastMove)
	assert.Equal(t, 1, v.LastMove.To)

	v = decodeView(t, do(t, s, "POST", "/sessions/"+v.ID+"/back", nil))
	assert.Equal(t, "ready_to_decide", v.Phase)
	assert.Equal(t, 2, v.History)

	rr = do(t, s, "GET", "/sessions/"+v.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 2, decodeView(t, rr).History)

	// Aggregating an unconverged level is a conflict
	rr = do(t, s, "POST", "/sessions/"+v.ID+"/aggregate", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, s, "POST", "/sessions/"+v.ID+"/run", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	v = decodeView(t, rr)
	assert.True(t, v.Finished)
	assert.Equal(t, "finished", v.Phase)

	rr = do(t, s, "POST", "/sessions/"+v.ID+"/step", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, s, "POST", "/sessions/"+v.ID+"/aggregate", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	v = decodeView(t, rr)
	assert.Equal(t, 1, v.Level)
	assert.Equal(t, []string{"ac1", "ac3", "ac5"}, v.Nodes)
	require.Len(t, v.Levels, 1)
	assert.Equal(t, 3, v.Levels[0].Communities)

	rr = do(t, s, "POST", "/sessions/"+v.ID+"/reset", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	v = decodeView(t, rr)
	assert.Equal(t, 0, v.Level)
	assert.Len(t, v.Nodes, 6)

	rr = do(t, s, "DELETE", "/sessions/"+v.ID, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = do(t, s, "GET", "/sessions/"+v.ID, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSessionGraph(t *testing.T) {
	s := setupTestServer(t, nil)
	v := createSession(t, s)
	do(t, s, "POST", "/sessions/"+v.ID+"/run", nil)

	rr := do(t, s, "GET", "/sessions/"+v.ID+"/graph", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var g louvain.Graph
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &g))

	parents := map[string]string{}
	for _, n := range g.Nodes {
		if n.Parent != "" {
			parents[n.ID] = n.Parent
		}
	}
	assert.Len(t, parents, 6)
	assert.Equal(t, parents["A"], parents["B"])
	assert.Equal(t, parents["E"], parents["F"])
	assert.NotEqual(t, parents["A"], parents["E"])
}

func TestBackWithoutHistory(t *testing.T) {
	s := setupTestServer(t, nil)
	v := createSession(t, s)

	rr := do(t, s, "POST", "/sessions/"+v.ID+"/back", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, session.ErrNothingToUndo.Error(), resp.Message)
}

func TestRun_TickBound(t *testing.T) {
	s := setupTestServer(t, nil)
	v := createSession(t, s)

	rr := do(t, s, "POST", "/sessions/"+v.ID+"/run", []byte(`{"max_ticks": 3}`))
	assert.Equal(t, http.StatusConflict, rr.Code)

	// The ticks taken before the bound are kept
	v = decodeView(t, do(t, s, "GET", "/sessions/"+v.ID, nil))
	assert.Equal(t, 4, v.History)

	rr = do(t, s, "POST", "/sessions/"+v.ID+"/run", []byte(`{"max_ticks": -1}`))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, s, "POST", "/sessions/"+v.ID+"/run", []byte(`{"max_ticks": `))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateSession_BadRequests(t *testing.T) {
	s := setupTestServer(t, func(c *config.Config) { c.Louvain.MaxNodes = 3 })

	tests := []struct {
		name string
		body string
		want int
	}{
		{"not json", `{"nodes": [`, http.StatusBadRequest},
		{"no edges", `{"nodes": ["A"], "edges": []}`, http.StatusBadRequest},
		{"missing target", `{"edges": [{"source": "A"}]}`, http.StatusBadRequest},
		{"negative weight", `{"edges": [{"source": "A", "target": "B", "weight": -1}]}`, http.StatusBadRequest},
		{"unknown node", `{"nodes": ["A"], "edges": [{"source": "A", "target": "B"}]}`, http.StatusBadRequest},
		{"too many nodes", `{"edges": [{"source": "A", "target": "B"}, {"source": "C", "target": "D"}]}`, http.StatusBadRequest},
		{"zero weight", `{"edges": [{"source": "A", "target": "B", "weight": 0}]}`, http.StatusBadRequest},
		{"ok", `{"edges": [{"source": "A", "target": "B"}]}`, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, s, "POST", "/sessions", []byte(tt.body))
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
		})
	}
}

func TestCreateSession_Limit(t *testing.T) {
	s := setupTestServer(t, func(c *config.Config) { c.Sessions.MaxSessions = 1 })

	createSession(t, s)
	rr := do(t, s, "POST", "/sessions", sampleGraphJSON(t))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	rr = do(t, s, "GET", "/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestBodyTooLarge(t *testing.T) {
	s := setupTestServer(t, func(c *config.Config) { c.Server.MaxBodyBytes = 16 })

	rr := do(t, s, "POST", "/sessions", sampleGraphJSON(t))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestListSessions(t *testing.T) {
	s := setupTestServer(t, nil)
	first := createSession(t, s)
	second := createSession(t, s)

	rr := do(t, s, "GET", "/sessions", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp SessionListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)
	ids := []string{resp.Sessions[0].ID, resp.Sessions[1].ID}
	assert.ElementsMatch(t, []string{first.ID, second.ID}, ids)
}

func TestCommunities(t *testing.T) {
	s := setupTestServer(t, nil)

	body, err := json.Marshal(CommunitiesRequest{Graph: *louvain.SampleGraph()})
	require.NoError(t, err)

	rr := do(t, s, "POST", "/communities", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp CommunitiesResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.Levels, 3)
	assert.Len(t, resp.Membership, 6)
	assert.Equal(t, resp.Membership["A"], resp.Membership["D"])
	assert.NotEqual(t, resp.Membership["A"], resp.Membership["F"])
	assert.Greater(t, resp.Modularity, 0.0)

	body, err = json.Marshal(CommunitiesRequest{Graph: *louvain.SampleGraph(), MaxLevels: 1})
	require.NoError(t, err)
	rr = do(t, s, "POST", "/communities", body)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.Levels, 1)
}

func TestCommunities_StoresRuns(t *testing.T) {
	runs, err := results.NewFileStore(t.TempDir())
	require.NoError(t, err)
	s := setupServerWithResults(t, nil, runs)

	body, err := json.Marshal(CommunitiesRequest{Graph: *louvain.SampleGraph()})
	require.NoError(t, err)

	var ids []string
	for i := 0; i < 3; i++ {
		rr := do(t, s, "POST", "/communities", body)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var resp CommunitiesResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.NotEmpty(t, resp.RunID)
		ids = append(ids, resp.RunID)
	}

	rr := do(t, s, "GET", "/results/"+ids[0], nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var run results.Run
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &run))
	assert.Equal(t, ids[0], run.ID)
	assert.Equal(t, "api", run.Source)
	assert.Equal(t, 2, run.Communities())

	rr = do(t, s, "GET", "/results?limit=2", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var list RunListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Count)

	assert.Equal(t, http.StatusNotFound, do(t, s, "GET", "/results/nope", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, "GET", "/results?limit=zero", nil).Code)

	rr = do(t, s, "GET", "/health/ready", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"results"`)
}

func TestResults_DisabledWithoutStore(t *testing.T) {
	s := setupTestServer(t, nil)
	assert.Equal(t, http.StatusNotFound, do(t, s, "GET", "/results", nil).Code)
}

func TestGraphQL(t *testing.T) {
	s := setupTestServer(t, nil)
	v := createSession(t, s)

	body, err := json.Marshal(map[string]any{
		"query":     `query($id: ID!) { sessions { id } session(id: $id) { phase nodes } }`,
		"variables": map[string]any{"id": v.ID},
	})
	require.NoError(t, err)

	rr := do(t, s, "POST", "/graphql", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Data struct {
			Sessions []struct{ ID string } `json:"sessions"`
			Session  struct {
				Phase string   `json:"phase"`
				Nodes []string `json:"nodes"`
			} `json:"session"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Sessions, 1)
	assert.Equal(t, v.ID, resp.Data.Sessions[0].ID)
	assert.Equal(t, "computing_gains", resp.Data.Session.Phase)
	assert.Equal(t, []string{"A", "B", "C", "D", "E", "F"}, resp.Data.Session.Nodes)

	// The query API sits behind the same auth as the session routes
	s = setupTestServer(t, func(c *config.Config) { c.Server.JWTSecret = testSecret })
	assert.Equal(t, http.StatusUnauthorized, do(t, s, "POST", "/graphql", body).Code)
}

func TestAuth(t *testing.T) {
	s := setupTestServer(t, func(c *config.Config) { c.Server.JWTSecret = testSecret })

	rr := do(t, s, "POST", "/sessions", sampleGraphJSON(t))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("WWW-Authenticate"))

	rr = do(t, s, "GET", "/sessions", nil, "Authorization", "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	jm, err := auth.NewJWTManager(testSecret, time.Hour)
	require.NoError(t, err)
	token, err := jm.GenerateToken("tester")
	require.NoError(t, err)

	rr = do(t, s, "POST", "/sessions", sampleGraphJSON(t), "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	// Health and metrics stay open
	assert.Equal(t, http.StatusOK, do(t, s, "GET", "/health", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, s, "GET", "/metrics", nil).Code)

	assert.Contains(t, scrape(t, s), "louvain_auth_failures_total 2")
}

func TestTokenExchange(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	s := setupTestServer(t, func(c *config.Config) {
		c.Server.JWTSecret = testSecret
		c.Server.Users = map[string]string{"ops": string(hash)}
	})

	rr := do(t, s, "POST", "/auth/token", []byte(`{"username": "ops", "password": "wrong"}`))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(t, s, "POST", "/auth/token", []byte(`{"username": "ops"}`))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, s, "POST", "/auth/token", []byte(`{"username": "ops", "password": "correct horse"}`))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp TokenResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), resp.ExpiresAt, time.Minute)

	rr = do(t, s, "GET", "/sessions", nil, "Authorization", "Bearer "+resp.Token)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestTokenExchange_DisabledWithoutUsers(t *testing.T) {
	s := setupTestServer(t, nil)
	rr := do(t, s, "POST", "/auth/token", []byte(`{"username": "ops", "password": "x"}`))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestNewServer_BadUserHash(t *testing.T) {
	cfg := config.Default()
	cfg.Server.JWTSecret = testSecret
	cfg.Server.Users = map[string]string{"ops": "plaintext"}
	store := session.NewStore(session.Options{}, nil, metrics.NewRegistry())
	_, err := NewServer(Options{Config: cfg, Store: store, Metrics: metrics.NewRegistry()})
	assert.ErrorIs(t, err, auth.ErrInvalidHash)
}

func scrape(t *testing.T, s *Server) string {
	t.Helper()
	rr := do(t, s, "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupTestServer(t, nil)
	v := createSession(t, s)
	do(t, s, "POST", "/sessions/"+v.ID+"/run", nil)
	do(t, s, "GET", "/sessions/does-not-exist", nil)

	body := scrape(t, s)
	assert.Contains(t, body, `louvain_http_requests_total{method="POST",path="POST /sessions/{id}/run",status="200"} 1`)
	assert.Contains(t, body, `path="GET /sessions/{id}",status="404"`)
	assert.Contains(t, body, "louvain_sessions_active 1")
	assert.Contains(t, body, "louvain_moves_total 3")
}

func TestHealth(t *testing.T) {
	s := setupTestServer(t, nil)

	for _, path := range []string{"/health", "/health/ready"} {
		rr := do(t, s, "GET", path, nil)
		require.Equal(t, http.StatusOK, rr.Code, path)

		var resp struct {
			Status string `json:"status"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp.Status)
	}
}

func TestRequestIDAndCORS(t *testing.T) {
	s := setupTestServer(t, func(c *config.Config) { c.Server.CORSOrigins = []string{"http://viz.local"} })

	rr := do(t, s, "GET", "/health", nil, "X-Request-ID", "abc", "Origin", "http://viz.local")
	assert.Equal(t, "abc", rr.Header().Get("X-Request-ID"))
	assert.Equal(t, "http://viz.local", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestServe_GracefulShutdown(t *testing.T) {
	s := setupTestServer(t, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
