package graphql

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphQLHandler(t *testing.T) {
	schema, s, _ := setupSchema(t)
	h := NewGraphQLHandler(schema, 0)

	body := `{"query": "query($id: ID!) { session(id: $id) { id phase } }", "variables": {"id": "` + s.ID() + `"}}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		Data struct {
			Session struct {
				ID    string `json:"id"`
				Phase string `json:"phase"`
			} `json:"session"`
		} `json:"data"`
		Errors []GraphQLError `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Errors)
	assert.Equal(t, s.ID(), resp.Data.Session.ID)
	assert.Equal(t, "computing_gains", resp.Data.Session.Phase)
}

func TestGraphQLHandler_Errors(t *testing.T) {
	schema, _, _ := setupSchema(t)
	h := NewGraphQLHandler(schema, 2)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"not json", `nope`, http.StatusBadRequest, "request body"},
		{"empty query", `{"query": ""}`, http.StatusBadRequest, "must carry a query"},
		{"too deep", `{"query": "{ session(id: \"x\") { levels { index } } }"}`, http.StatusOK, "exceeds maximum"},
		{"unknown field", `{"query": "{ nope }"}`, http.StatusOK, "nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(tt.body)))
			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp GraphQLResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.NotEmpty(t, resp.Errors)
			assert.Contains(t, resp.Errors[0].Message, tt.wantError)
		})
	}
}

func TestGraphQLHandler_Get(t *testing.T) {
	schema, s, _ := setupSchema(t)
	h := NewGraphQLHandler(schema, 0)

	q := url.Values{}
	q.Set("query", `query other { health } query byID($id: ID!) { session(id: $id) { id } }`)
	q.Set("operationName", "byID")
	q.Set("variables", `{"id": "`+s.ID()+`"}`)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/graphql?"+q.Encode(), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Data, "session")
	assert.NotContains(t, resp.Data, "health")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/graphql?query=%7Bhealth%7D&variables=nope", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
