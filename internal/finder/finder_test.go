package finder

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/rohankatakam/relfinder/internal/errors"
	"github.com/rohankatakam/relfinder/internal/sparql"
)

const (
	src  = "http://example.org/Src"
	dest = "http://example.org/Dest"
	mid  = "http://example.org/Mid"
	p1   = "http://example.org/p1"
	p2   = "http://example.org/p2"
)

func uri(v string) sparql.Term {
	return sparql.Term{Type: "uri", Value: v}
}

// fakeExecutor answers every query whose text contains a key of rows
type fakeExecutor struct {
	rows map[string][]sparql.RawBinding
	fail string

	mu      sync.Mutex
	queries []string
}

func (f *fakeExecutor) Execute(_ context.Context, query string) ([]sparql.RawBinding, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()

	if f.fail != "" && strings.Contains(query, f.fail) {
		return nil, errors.New("503 Service Unavailable")
	}
	for fragment, rows := range f.rows {
		if strings.Contains(query, fragment) {
			return rows, nil
		}
	}
	return nil, nil
}

func (f *fakeExecutor) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

type fakeRecorder struct {
	traces []Trace
	err    error
}

func (r *fakeRecorder) Record(_ context.Context, trace Trace) error {
	r.traces = append(r.traces, trace)
	return r.err
}

func newFinder(t *testing.T, exec Executor, settings Settings, opts ...Option) *Finder {
	t.Helper()
	if settings.AllowedProperties == nil {
		settings.AllowedProperties = []string{p1, p2}
	}
	f, err := New(exec, settings, opts...)
	require.NoError(t, err)
	return f
}

func TestFindRelationships_SingleHop(t *testing.T) {
	exec := &fakeExecutor{rows: map[string][]sparql.RawBinding{
		"<" + src + "> ?pf1 <" + dest + ">": {{"pf1": uri(p1)}},
	}}

	g, err := newFinder(t, exec, Settings{}).FindRelationships(context.Background(), src, dest, 1)
	require.NoError(t, err)

	require.Len(t, g.Nodes, 2)
	assert.Equal(t, src, g.Nodes[0].IRI)
	assert.Equal(t, dest, g.Nodes[1].IRI)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, 0, g.Edges[0].SourceID)
	assert.Equal(t, 1, g.Edges[0].TargetID)
	assert.Equal(t, "p1", g.Edges[0].Label)
	assert.Equal(t, 2, exec.count())
}

func TestFindRelationships_ConcurrentMatchesSequential(t *testing.T) {
	rows := map[string][]sparql.RawBinding{
		"<" + src + "> ?pf1 ?pivot": {{"pf1": uri(p1), "pb1": uri(p2), "pivot": uri(mid)}},
		"<" + dest + "> ?pf1 ?of1": {{
			"pf1": uri(p2), "of1": uri("http://example.org/Other"), "pf2": uri(p1),
		}},
	}

	sequential, err := newFinder(t, &fakeExecutor{rows: rows}, Settings{}).
		FindRelationships(context.Background(), src, dest, 3)
	require.NoError(t, err)

	exec := &fakeExecutor{rows: rows}
	concurrent, err := newFinder(t, exec, Settings{Concurrency: 4}).
		FindRelationships(context.Background(), src, dest, 3)
	require.NoError(t, err)

	assert.Equal(t, sequential, concurrent)
	assert.Equal(t, sparql.DescriptorCount(3), exec.count())
	// the direct backward match at distance 2 precedes the pivot match
	assert.Equal(t, "http://example.org/Other", concurrent.Nodes[2].IRI)
	assert.Equal(t, mid, concurrent.Nodes[3].IRI)
}

func TestFindRelationships_QueryFailure(t *testing.T) {
	for _, concurrency := range []int{1, 4} {
		exec := &fakeExecutor{fail: "?pivot"}
		g, err := newFinder(t, exec, Settings{Concurrency: concurrency}).
			FindRelationships(context.Background(), src, dest, 2)

		require.Error(t, err)
		assert.Nil(t, g)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExecution))
		assert.Contains(t, err.Error(), "503")
	}
}

func TestFindRelationships_ConfigErrors(t *testing.T) {
	tests := []struct {
		name     string
		e1, e2   string
		distance int
		sentinel error
	}{
		{"same entity", src, src, 2, sparql.ErrSameEntity},
		{"zero distance", src, dest, 0, sparql.ErrInvalidDistance},
		{"bad iri", "not an iri", dest, 1, sparql.ErrInvalidIRI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &fakeExecutor{}
			_, err := newFinder(t, exec, Settings{}).FindRelationships(context.Background(), tt.e1, tt.e2, tt.distance)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfig))
			assert.Zero(t, exec.count())
		})
	}
}

func TestFindRelationships_MalformedBinding(t *testing.T) {
	exec := &fakeExecutor{rows: map[string][]sparql.RawBinding{
		"<" + src + "> ?pf1 <" + dest + ">": {{"pf1": uri(p1), "bogus": uri(mid)}},
	}}

	_, err := newFinder(t, exec, Settings{}).FindRelationships(context.Background(), src, dest, 1)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
}

func TestFindRelationships_Recorder(t *testing.T) {
	exec := &fakeExecutor{rows: map[string][]sparql.RawBinding{
		"<" + src + "> ?pf1 <" + dest + ">": {{"pf1": uri(p1)}},
	}}
	rec := &fakeRecorder{err: errors.New("disk full")}

	g, err := newFinder(t, exec, Settings{}, WithRecorder(rec)).
		FindRelationships(context.Background(), src, dest, 1)
	require.NoError(t, err, "recorder failures must not fail the request")

	require.Len(t, rec.traces, 1)
	trace := rec.traces[0]
	assert.Equal(t, src, trace.Source)
	assert.Equal(t, 1, trace.MaxDistance)
	assert.Len(t, trace.Results, 2)
	assert.Len(t, trace.Raw[0], 1)
	assert.Same(t, g, trace.Graph)
}

func TestFindRelationships_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	exec := &fakeExecutor{}
	_, err := newFinder(t, exec, Settings{}, WithMetrics(metrics)).
		FindRelationships(context.Background(), src, dest, 2)
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.queries.WithLabelValues("direct_forward", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.queries.WithLabelValues("pivot_inward", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues("success")))
}

func TestFindRelationships_MetricsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	exec := &fakeExecutor{fail: "?pivot"}
	f := newFinder(t, exec, Settings{}, WithMetrics(metrics))

	_, err := f.FindRelationships(context.Background(), src, src, 2)
	require.Error(t, err)
	_, err = f.FindRelationships(context.Background(), src, dest, 0)
	require.Error(t, err)
	_, err = f.FindRelationships(context.Background(), src, dest, 2)
	require.Error(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.requests.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues("error")))
	assert.Zero(t, testutil.ToFloat64(metrics.requests.WithLabelValues("success")))
}

func TestNew_InvalidCycleStrategy(t *testing.T) {
	_, err := New(&fakeExecutor{}, Settings{CycleStrategy: "sometimes"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfig))
}

func TestQueries(t *testing.T) {
	f := newFinder(t, &fakeExecutor{}, Settings{Limit: 100})

	descriptors, err := f.Queries(src, dest, 2)
	require.NoError(t, err)
	require.Len(t, descriptors, 6)
	for i, d := range descriptors {
		assert.Equal(t, i, d.Index)
		assert.True(t, strings.HasSuffix(d.Query, "LIMIT 100"))
		assert.Contains(t, d.Query, "rdf:type")
	}
}
