package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dd0wney/cluso-louvain/pkg/api/middleware"
	"github.com/dd0wney/cluso-louvain/pkg/logging"
	"github.com/dd0wney/cluso-louvain/pkg/louvain"
	"github.com/dd0wney/cluso-louvain/pkg/results"
	"github.com/dd0wney/cluso-louvain/pkg/session"
	"github.com/dd0wney/cluso-louvain/pkg/validation"
)

// errBadBody marks a request body that is not valid JSON for its target
var errBadBody = errors.New("invalid request body")

// decodeJSON decodes the request body into v. An empty body is allowed
// when optional is set.
func decodeJSON(r *http.Request, v any, optional bool) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return nil
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadBody),
		errors.Is(err, validation.ErrInvalidRequest),
		errors.Is(err, louvain.ErrEmptyGraph),
		errors.Is(err, louvain.ErrUnknownNode),
		errors.Is(err, louvain.ErrDuplicateNode),
		errors.Is(err, louvain.ErrInvalidWeight),
		errors.Is(err, louvain.ErrNoEdges):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, results.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, louvain.ErrFinished),
		errors.Is(err, louvain.ErrTickLimit),
		errors.Is(err, session.ErrNotConverged),
		errors.Is(err, session.ErrNothingToUndo):
		return http.StatusConflict
	case errors.Is(err, session.ErrTooManySessions):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode JSON response", logging.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}

// respondErr maps err to a status. Internal details are logged, not returned.
func (s *Server) respondErr(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			logging.Operation(operation),
			logging.String("request_id", middleware.GetRequestID(r)),
			logging.Error(err),
		)
		s.respondError(w, status, operation+" failed")
		return
	}
	s.respondError(w, status, err.Error())
}
