package api

import (
	"net/http"
	"time"

	"github.com/dd0wney/cluso-louvain/pkg/louvain"
	"github.com/dd0wney/cluso-louvain/pkg/results"
	"github.com/dd0wney/cluso-louvain/pkg/session"
	"github.com/dd0wney/cluso-louvain/pkg/validation"
)

// Page bounds for GET /results
const (
	defaultRunLimit = 20
	maxRunLimit     = 100
)

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var g louvain.Graph
	if err := decodeJSON(r, &g, false); err != nil {
		s.respondErr(w, r, "create session", err)
		return
	}

	sess, err := s.store.Create(&g)
	if err != nil {
		s.respondErr(w, r, "create session", err)
		return
	}
	w.Header().Set("Location", "/sessions/"+sess.ID())
	s.respondJSON(w, http.StatusCreated, sess.Snapshot())
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	list := s.store.List()
	s.respondJSON(w, http.StatusOK, SessionListResponse{Sessions: list, Count: len(list)})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, "get session", func(sess *session.Session) (any, error) {
		return sess.Snapshot(), nil
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.PathValue("id")); err != nil {
		s.respondErr(w, r, "delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSessionGraph(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, "session graph", func(sess *session.Session) (any, error) {
		return sess.Graph(), nil
	})
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, "step", func(sess *session.Session) (any, error) {
		return sess.Step()
	})
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, "back", func(sess *session.Session) (any, error) {
		return sess.Back()
	})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req validation.RunRequest
	if err := decodeJSON(r, &req, true); err != nil {
		s.respondErr(w, r, "run", err)
		return
	}
	if err := validation.ValidateRunRequest(&req); err != nil {
		s.respondErr(w, r, "run", err)
		return
	}

	s.withSession(w, r, "run", func(sess *session.Session) (any, error) {
		return sess.RunLevel(r.Context(), req.MaxTicks)
	})
}

func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, "aggregate", func(sess *session.Session) (any, error) {
		return sess.Aggregate()
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, "reset", func(sess *session.Session) (any, error) {
		return sess.Reset()
	})
}

// handleCommunities runs every level on the posted graph without keeping a session
func (s *Server) handleCommunities(w http.ResponseWriter, r *http.Request) {
	var req CommunitiesRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.respondErr(w, r, "communities", err)
		return
	}
	if err := validation.ValidateGraph(&req.Graph, s.cfg.Louvain.MaxNodes); err != nil {
		s.respondErr(w, r, "communities", err)
		return
	}
	cg, err := louvain.ToWeightedGraph(&req.Graph)
	if err != nil {
		s.respondErr(w, r, "communities", err)
		return
	}

	maxLevels := s.cfg.Louvain.MaxLevels
	if req.MaxLevels > 0 && req.MaxLevels < maxLevels {
		maxLevels = req.MaxLevels
	}

	start := time.Now()
	h, err := louvain.Run(r.Context(), cg, louvain.Options{
		MaxLevels: maxLevels,
		MaxTicks:  s.cfg.Louvain.MaxTicks,
		OnTick: func(_ int, st *louvain.State) {
			if st.LastMove != nil {
				s.metrics.RecordMove(st.LastMove.Gain)
			}
		},
	})
	if err != nil {
		s.respondErr(w, r, "communities", err)
		return
	}

	resp := CommunitiesResponse{
		Levels:     h.Levels,
		Membership: h.Membership(),
		Modularity: h.Final().Modularity,
		Time:       time.Since(start).String(),
	}
	if s.results != nil {
		run := results.NewRun("api", &req.Graph, h)
		if err := s.results.SaveRun(r.Context(), run); err != nil {
			s.respondErr(w, r, "save run", err)
			return
		}
		resp.RunID = run.ID
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	limit, err := validation.ParseLimit(r.URL.Query().Get("limit"), defaultRunLimit, maxRunLimit)
	if err != nil {
		s.respondErr(w, r, "list results", err)
		return
	}
	runs, err := s.results.ListRuns(r.Context(), limit)
	if err != nil {
		s.respondErr(w, r, "list results", err)
		return
	}
	if runs == nil {
		runs = []*results.Run{}
	}
	s.respondJSON(w, http.StatusOK, RunListResponse{Runs: runs, Count: len(runs)})
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	run, err := s.results.GetRun(r.Context(), r.PathValue("id"))
	if err != nil {
		s.respondErr(w, r, "get result", err)
		return
	}
	s.respondJSON(w, http.StatusOK, run)
}

// withSession resolves the {id} path value and responds with op's result
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, operation string, op func(*session.Session) (any, error)) {
	sess, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		s.respondErr(w, r, operation, err)
		return
	}
	result, err := op(sess)
	if err != nil {
		s.respondErr(w, r, operation, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}
