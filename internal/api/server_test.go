package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/rohankatakam/relfinder/internal/errors"
	"github.com/rohankatakam/relfinder/internal/graph"
	"github.com/rohankatakam/relfinder/internal/sparql"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	testKey = "secret"
	iriA    = "http://example.org/A"
	iriB    = "http://example.org/B"
	company = "http://w3id.org/um/cbcm/eu-cm-ontology#Company"
	person  = "http://w3id.org/um/cbcm/eu-cm-ontology#Person"
)

type fakeFinder struct {
	err   error
	calls int
	got   []any
}

func (f *fakeFinder) FindRelationships(_ context.Context, e1, e2 string, d int) (*graph.RelationshipGraph, error) {
	f.calls++
	f.got = []any{e1, e2, d}
	if f.err != nil {
		return nil, f.err
	}
	return &graph.RelationshipGraph{
		Nodes: []graph.Node{
			{ID: 0, IRI: e1, Label: "A", IsEndpoint: true},
			{ID: 1, IRI: e2, Label: "B", IsEndpoint: true},
		},
		Edges: []graph.MergedEdge{
			{SourceID: 0, TargetID: 1, IRIs: []string{"http://example.org/p"}, Labels: []string{"p"}, Label: "p"},
		},
	}, nil
}

type fakeStore struct {
	counts map[string]int
	err    error
}

func (s *fakeStore) Entities(_ context.Context, classes []string) ([]sparql.Entity, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []sparql.Entity{{IRI: iriA, Label: "A", Class: classes[0]}}, nil
}

func (s *fakeStore) EntityCountForClass(_ context.Context, class string) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.counts[class], nil
}

func (s *fakeStore) EntityDataProperties(_ context.Context, iri string, _ int) ([]sparql.DataProperty, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []sparql.DataProperty{{IRI: "http://example.org/name", Label: "name", Value: iri}}, nil
}

type fakeEnricher struct{ err error }

func (e fakeEnricher) Enrich(_ context.Context, g *graph.RelationshipGraph) error {
	if e.err != nil {
		return e.err
	}
	for i := range g.Nodes {
		g.Nodes[i].Class = "Company"
	}
	return nil
}

func newTestServer(t *testing.T, f *fakeFinder, s *fakeStore, e Enricher) *Server {
	t.Helper()
	srv, err := NewServer(Config{
		APIKey:           testKey,
		MaxDistanceLimit: 3,
		EntityClasses:    []string{company, person},
		Finder:           f,
		Store:            s,
		Enricher:         e,
		Gatherer:         prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	return srv
}

func do(t *testing.T, srv *Server, method, path string, body any, key string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Api-Key", key)
	}

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	var out map[string]any
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestNewServer_RequiresKey(t *testing.T) {
	_, err := NewServer(Config{Finder: &fakeFinder{}, Store: &fakeStore{}})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfig))
}

func TestAPIKey(t *testing.T) {
	srv := newTestServer(t, &fakeFinder{}, &fakeStore{}, nil)

	tests := []struct {
		name string
		key  string
		want int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "nope", http.StatusUnauthorized},
		{"valid", testKey, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := do(t, srv, http.MethodGet, "/", nil, tt.key)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Equal(t, "Invalid API key", body["message"])
			} else {
				assert.Equal(t, "ok", body["message"])
			}
		})
	}
}

func TestQuery(t *testing.T) {
	f := &fakeFinder{}
	srv := newTestServer(t, f, &fakeStore{}, fakeEnricher{})

	w, body := do(t, srv, http.MethodPost, "/query", gin.H{"entities": []string{iriA, iriB}, "maxDistance": 2}, testKey)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, []any{iriA, iriB, 2}, f.got)
	assert.Len(t, body["nodes"], 2)
	assert.Len(t, body["edges"], 1)
	assert.Equal(t, []any{"Company"}, body["classes"])
}

func TestQuery_EnrichmentFailureStillResponds(t *testing.T) {
	srv := newTestServer(t, &fakeFinder{}, &fakeStore{}, fakeEnricher{err: errors.New("labels down")})

	w, body := do(t, srv, http.MethodPost, "/query", gin.H{"entities": []string{iriA, iriB}, "maxDistance": 1}, testKey)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, body["classes"])
}

func TestQuery_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{"one entity", gin.H{"entities": []string{iriA}, "maxDistance": 1}},
		{"relative iri", gin.H{"entities": []string{iriA, "B"}, "maxDistance": 1}},
		{"missing distance", gin.H{"entities": []string{iriA, iriB}}},
		{"negative distance", gin.H{"entities": []string{iriA, iriB}, "maxDistance": -1}},
		{"distance over limit", gin.H{"entities": []string{iriA, iriB}, "maxDistance": 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeFinder{}
			srv := newTestServer(t, f, &fakeStore{}, nil)

			w, body := do(t, srv, http.MethodPost, "/query", tt.body, testKey)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, body["message"])
			assert.Zero(t, f.calls)
		})
	}
}

func TestQuery_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"same entity", apperrors.ConfigError("entities must differ"), http.StatusBadRequest},
		{"store failure", apperrors.ExecutionError(errors.New("503"), "query failed"), http.StatusBadGateway},
		{"unreachable store", apperrors.NetworkErrorf(errors.New("refused"), "dial"), http.StatusBadGateway},
		{"broken binding", apperrors.InternalError("unknown variable"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeFinder{err: tt.err}, &fakeStore{}, nil)

			w, body := do(t, srv, http.MethodPost, "/query", gin.H{"entities": []string{iriA, iriB}, "maxDistance": 1}, testKey)
			assert.Equal(t, tt.want, w.Code)
			assert.Contains(t, body["message"], tt.err.Error())
		})
	}
}

func TestEntities(t *testing.T) {
	srv := newTestServer(t, &fakeFinder{}, &fakeStore{}, nil)

	w, body := do(t, srv, http.MethodGet, "/entities", nil, testKey)
	require.Equal(t, http.StatusOK, w.Code)

	entities := body["entities"].([]any)
	require.Len(t, entities, 1)
	assert.Equal(t, company, entities[0].(map[string]any)["class"])
}

func TestTriplesCount(t *testing.T) {
	srv := newTestServer(t, &fakeFinder{}, &fakeStore{counts: map[string]int{company: 3, person: 4}}, nil)

	w, body := do(t, srv, http.MethodGet, "/triples-count", nil, testKey)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(7), body["count"])

	failing := newTestServer(t, &fakeFinder{}, &fakeStore{err: apperrors.ExecutionError(errors.New("boom"), "count failed")}, nil)
	w, _ = do(t, failing, http.MethodGet, "/triples-count", nil, testKey)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestProperties(t *testing.T) {
	srv := newTestServer(t, &fakeFinder{}, &fakeStore{}, nil)

	w, body := do(t, srv, http.MethodPost, "/entities/properties", gin.H{"iri": iriA}, testKey)
	require.Equal(t, http.StatusOK, w.Code)
	props := body["properties"].([]any)
	require.Len(t, props, 1)
	assert.Equal(t, iriA, props[0].(map[string]any)["value"])

	w, _ = do(t, srv, http.MethodPost, "/entities/properties", gin.H{"iri": "not an iri"}, testKey)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsUnauthenticated(t *testing.T) {
	srv := newTestServer(t, &fakeFinder{}, &fakeStore{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
