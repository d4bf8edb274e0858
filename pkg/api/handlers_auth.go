package api

import (
	"net/http"
	"time"

	"github.com/dd0wney/cluso-louvain/pkg/api/middleware"
	"github.com/dd0wney/cluso-louvain/pkg/logging"
	"github.com/dd0wney/cluso-louvain/pkg/validation"
)

// handleToken exchanges configured credentials for a bearer token
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req validation.LoginRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.respondErr(w, r, "login", err)
		return
	}
	if err := validation.ValidateLoginRequest(&req); err != nil {
		s.respondErr(w, r, "login", err)
		return
	}

	if err := s.users.Verify(req.Username, req.Password); err != nil {
		s.metrics.RecordAuthFailure()
		s.logger.Warn("login failed",
			logging.String("username", req.Username),
			logging.String("request_id", middleware.GetRequestID(r)),
		)
		s.respondError(w, http.StatusUnauthorized, err.Error())
		return
	}

	issued := time.Now()
	token, err := s.jwtManager.GenerateToken(req.Username)
	if err != nil {
		s.respondErr(w, r, "login", err)
		return
	}
	s.respondJSON(w, http.StatusOK, TokenResponse{
		Token:     token,
		ExpiresAt: issued.Add(s.cfg.Server.TokenTTL),
	})
}
