// Package finder answers "how are these two resources related?" by generating
// every path pattern up to a maximum distance, running them against a triple
// store and folding the rows into one relationship graph.
package finder

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/rohankatakam/relfinder/internal/errors"
	"github.com/rohankatakam/relfinder/internal/graph"
	"github.com/rohankatakam/relfinder/internal/sparql"
)

// DefaultIgnoredProperties are excluded from every path unless overridden
var DefaultIgnoredProperties = []string{
	"http://www.w3.org/1999/02/22-rdf-syntax-ns#type",
	"http://www.w3.org/2004/02/skos/core#subject",
}

// Executor runs one SELECT query. Implemented by sparql.Endpoint.
type Executor interface {
	Execute(ctx context.Context, query string) ([]sparql.RawBinding, error)
}

// Recorder receives every completed request
type Recorder interface {
	Record(ctx context.Context, trace Trace) error
}

// Trace is the full input and output of one request
type Trace struct {
	Source      string                   `json:"source"`
	Destination string                   `json:"destination"`
	MaxDistance int                      `json:"max_distance"`
	Results     []graph.QueryResult      `json:"results"`
	Raw         [][]sparql.RawBinding    `json:"raw"`
	Graph       *graph.RelationshipGraph `json:"graph"`
	Stats       *graph.BuildStats        `json:"stats"`
	Duration    time.Duration            `json:"duration"`
}

// Settings configures a Finder
type Settings struct {
	// AllowedProperties is the whitelist of predicates that may appear on an edge
	AllowedProperties []string
	// IgnoredProperties defaults to DefaultIgnoredProperties when nil
	IgnoredProperties []string
	IgnoredObjects    []string
	// CycleStrategy is parsed with sparql.ParseCycleStrategy
	CycleStrategy string
	Limit         int
	// Concurrency > 1 runs that many queries at once
	Concurrency  int
	QueryTimeout time.Duration // slow-query threshold (default: 60s)
	Prefixes     sparql.Prefixes
	Separator    string
}

// Finder is the path-finding facade
type Finder struct {
	exec     Executor
	settings Settings
	cycles   sparql.CycleStrategy
	builder  *graph.Builder
	monitor  *queryMonitor
	metrics  *Metrics
	recorder Recorder
	logger   *slog.Logger
}

// Option customizes a Finder
type Option func(*Finder)

// WithRecorder captures every successful request
func WithRecorder(r Recorder) Option {
	return func(f *Finder) { f.recorder = r }
}

// WithMetrics records query counts and latencies
func WithMetrics(m *Metrics) Option {
	return func(f *Finder) { f.metrics = m }
}

// New creates a Finder. An unknown cycle strategy is a configuration error.
func New(exec Executor, settings Settings, opts ...Option) (*Finder, error) {
	cycles, err := sparql.ParseCycleStrategy(settings.CycleStrategy)
	if err != nil {
		return nil, apperrors.WrapConfig(err, "invalid finder settings")
	}
	if settings.IgnoredProperties == nil {
		settings.IgnoredProperties = DefaultIgnoredProperties
	}
	if settings.QueryTimeout <= 0 {
		settings.QueryTimeout = 60 * time.Second
	}

	var builderOpts []graph.BuilderOption
	if settings.Separator != "" {
		builderOpts = append(builderOpts, graph.WithSeparator(settings.Separator))
	}

	f := &Finder{
		exec:     exec,
		settings: settings,
		cycles:   cycles,
		builder:  graph.NewBuilder(settings.AllowedProperties, builderOpts...),
		monitor:  newQueryMonitor(settings.QueryTimeout),
		logger:   slog.Default().With("component", "finder"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// QueryConfig builds the immutable request configuration for two endpoints
func (f *Finder) QueryConfig(entity1, entity2 string, maxDistance int) (sparql.QueryConfig, error) {
	return sparql.NewQueryConfig(sparql.QueryOptions{
		Source:            entity1,
		Destination:       entity2,
		IgnoredProperties: f.settings.IgnoredProperties,
		IgnoredObjects:    f.settings.IgnoredObjects,
		Cycles:            f.cycles,
		MaxDistance:       maxDistance,
		Limit:             f.settings.Limit,
		Prefixes:          f.settings.Prefixes,
	})
}

// Queries returns the descriptors a request would execute, without running them
func (f *Finder) Queries(entity1, entity2 string, maxDistance int) ([]sparql.QueryDescriptor, error) {
	cfg, err := f.QueryConfig(entity1, entity2, maxDistance)
	if err != nil {
		return nil, err
	}
	return sparql.Generate(cfg), nil
}

// FindRelationships returns every whitelisted path of at most maxDistance
// hops between entity1 and entity2 as one graph. Any failed query fails the
// whole request.
func (f *Finder) FindRelationships(ctx context.Context, entity1, entity2 string, maxDistance int) (*graph.RelationshipGraph, error) {
	start := time.Now()

	descriptors, err := f.Queries(entity1, entity2, maxDistance)
	if err != nil {
		f.metrics.requestDone("rejected", time.Since(start))
		return nil, err
	}

	raw, err := f.executeAll(ctx, descriptors)
	if err != nil {
		f.metrics.requestDone("error", time.Since(start))
		return nil, err
	}

	results := make([]graph.QueryResult, len(descriptors))
	for i, d := range descriptors {
		results[i] = graph.QueryResult{Descriptor: d}
		for _, row := range raw[i] {
			binding, err := sparql.DecodeBinding(row)
			if err != nil {
				f.metrics.requestDone("error", time.Since(start))
				return nil, err
			}
			results[i].Bindings = append(results[i].Bindings, binding)
		}
	}

	g, stats, err := f.builder.Build(entity1, entity2, results)
	if err != nil {
		f.metrics.requestDone("error", time.Since(start))
		return nil, err
	}

	duration := time.Since(start)
	f.metrics.requestDone("success", duration)

	f.logger.Info("relationships found",
		"source", entity1,
		"destination", entity2,
		"max_distance", maxDistance,
		"queries", len(descriptors),
		"bindings", stats.Bindings,
		"discarded", stats.Discarded,
		"nodes", stats.Nodes,
		"edges", stats.MergedEdges,
		"duration_ms", duration.Milliseconds())

	if f.recorder != nil {
		trace := Trace{
			Source:      entity1,
			Destination: entity2,
			MaxDistance: maxDistance,
			Results:     results,
			Raw:         raw,
			Graph:       g,
			Stats:       stats,
			Duration:    duration,
		}
		if err := f.recorder.Record(ctx, trace); err != nil {
			f.logger.Warn("failed to record request", "error", err)
		}
	}

	return g, nil
}

// executeAll runs every descriptor and returns the rows indexed like descriptors
func (f *Finder) executeAll(ctx context.Context, descriptors []sparql.QueryDescriptor) ([][]sparql.RawBinding, error) {
	raw := make([][]sparql.RawBinding, len(descriptors))

	if f.settings.Concurrency <= 1 {
		for i, d := range descriptors {
			rows, err := f.execute(ctx, d)
			if err != nil {
				return nil, err
			}
			raw[i] = rows
		}
		return raw, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.settings.Concurrency)

	for i, d := range descriptors {
		g.Go(func() error {
			rows, err := f.execute(gctx, d)
			if err != nil {
				return err
			}
			raw[i] = rows
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return raw, nil
}

func (f *Finder) execute(ctx context.Context, d sparql.QueryDescriptor) ([]sparql.RawBinding, error) {
	var rows []sparql.RawBinding
	var err error

	duration := f.monitor.observe(ctx, d, func() error {
		rows, err = f.exec.Execute(ctx, d.Query)
		return err
	})
	f.metrics.queryDone(d, err, duration)

	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeExecution) {
			return nil, err
		}
		return nil, apperrors.ExecutionErrorf(err, "query %d (%s, distance %d) failed", d.Index, d.Kind, d.Distance)
	}
	return rows, nil
}
