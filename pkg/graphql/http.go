package graphql

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/graphql-go/graphql"
)

// GraphQLRequest is a query with its optional variables and operation
type GraphQLRequest struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

// GraphQLResponse is the JSON envelope written back
type GraphQLResponse struct {
	Data   any            `json:"data,omitempty"`
	Errors []GraphQLError `json:"errors,omitempty"`
}

// GraphQLError is one error message in a response
type GraphQLError struct {
	Message string `json:"message"`
}

var errNoQuery = errors.New("request must carry a query")

// GraphQLHandler serves queries against a schema. POST takes a JSON body;
// GET takes query, variables and operationName URL parameters.
type GraphQLHandler struct {
	schema   graphql.Schema
	maxDepth int
}

// NewGraphQLHandler creates a handler; maxDepth <= 0 uses DefaultMaxDepth
func NewGraphQLHandler(schema graphql.Schema, maxDepth int) *GraphQLHandler {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &GraphQLHandler{schema: schema, maxDepth: maxDepth}
}

// ServeHTTP answers 400 for a malformed request and 200 otherwise, with
// execution errors reported in the body
func (h *GraphQLHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	req, err := readRequest(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(GraphQLResponse{
			Errors: []GraphQLError{{Message: err.Error()}},
		})
		return
	}

	result := Execute(r.Context(), h.schema, req, h.maxDepth)

	response := GraphQLResponse{Data: result.Data}
	for _, e := range result.Errors {
		response.Errors = append(response.Errors, GraphQLError{Message: e.Message})
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

func readRequest(r *http.Request) (GraphQLRequest, error) {
	var req GraphQLRequest

	if r.Method == http.MethodGet {
		q := r.URL.Query()
		req.Query = q.Get("query")
		req.OperationName = q.Get("operationName")
		if raw := q.Get("variables"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &req.Variables); err != nil {
				return req, errors.New("variables must be a JSON object")
			}
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, errors.New("request body must be JSON with a query")
	}

	if req.Query == "" {
		return req, errNoQuery
	}
	return req, nil
}
