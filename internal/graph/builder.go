package graph

import (
	"log/slog"

	apperrors "github.com/rohankatakam/relfinder/internal/errors"
	"github.com/rohankatakam/relfinder/internal/sparql"
)

// DefaultSeparator joins the labels of a merged edge
const DefaultSeparator = " | "

// Builder turns query results into a RelationshipGraph.
// It holds no per-request state and is safe for concurrent use.
type Builder struct {
	allowed   map[string]struct{}
	separator string
	logger    *slog.Logger
}

// BuilderOption customizes a Builder
type BuilderOption func(*Builder)

// WithSeparator overrides DefaultSeparator
func WithSeparator(sep string) BuilderOption {
	return func(b *Builder) { b.separator = sep }
}

// NewBuilder creates a builder that only emits edges for allowedProperties
func NewBuilder(allowedProperties []string, opts ...BuilderOption) *Builder {
	allowed := make(map[string]struct{}, len(allowedProperties))
	for _, p := range allowedProperties {
		allowed[p] = struct{}{}
	}

	b := &Builder{
		allowed:   allowed,
		separator: DefaultSeparator,
		logger:    slog.Default().With("component", "graph_builder"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildStats tracks graph construction statistics
type BuildStats struct {
	Queries     int
	Bindings    int
	Discarded   int // bindings with a predicate outside the whitelist
	Edges       int // decoded edges after deduplication
	MergedEdges int
	Nodes       int
}

// Build assigns node ids over every binding, then decodes edges, dedupes and
// merges them. results must be in canonical generation order; ids are a
// function of that order.
func (b *Builder) Build(source, destination string, results []QueryResult) (*RelationshipGraph, *BuildStats, error) {
	stats := &BuildStats{Queries: len(results)}

	nodes := newNodeTable(source, destination)
	for _, r := range results {
		for _, binding := range r.Bindings {
			for _, iri := range binding.Objects() {
				nodes.assign(iri)
			}
		}
	}

	var edges []Edge
	seen := make(map[Edge]struct{})
	for _, r := range results {
		stats.Bindings += len(r.Bindings)

		for _, binding := range r.Bindings {
			if !b.allowedPath(binding) {
				stats.Discarded++
				continue
			}

			decoded, err := b.decode(nodes, r.Descriptor, binding)
			if err != nil {
				return nil, stats, err
			}

			for _, e := range decoded {
				if _, dup := seen[e]; dup {
					continue
				}
				seen[e] = struct{}{}
				edges = append(edges, e)
			}
		}
	}

	graph := &RelationshipGraph{
		Nodes: nodes.materialize(source, destination),
		Edges: MergeParallelEdges(edges, b.separator),
	}

	stats.Edges = len(edges)
	stats.MergedEdges = len(graph.Edges)
	stats.Nodes = len(graph.Nodes)

	b.logger.Debug("relationship graph built",
		"queries", stats.Queries,
		"bindings", stats.Bindings,
		"discarded", stats.Discarded,
		"edges", stats.Edges,
		"merged_edges", stats.MergedEdges,
		"nodes", stats.Nodes)

	return graph, stats, nil
}

// allowedPath reports whether every predicate of the binding is whitelisted
func (b *Builder) allowedPath(binding sparql.PathBinding) bool {
	for _, p := range binding.Predicates() {
		if _, ok := b.allowed[p]; !ok {
			return false
		}
	}
	return true
}

func (b *Builder) decode(nodes *nodeTable, d sparql.QueryDescriptor, binding sparql.PathBinding) ([]Edge, error) {
	srcID, err := nodes.lookup(d.Source)
	if err != nil {
		return nil, err
	}
	destID, err := nodes.lookup(d.Destination)
	if err != nil {
		return nil, err
	}

	forward, err := walk(nodes, srcID, destID, binding.Forward, binding.Pivot)
	if err != nil {
		return nil, err
	}
	backward, err := walk(nodes, destID, srcID, binding.Backward, binding.Pivot)
	if err != nil {
		return nil, err
	}

	edges := append(forward, backward...)

	// Outward pivot chains are matched against reversed triples.
	if d.Kind == sparql.PatternPivotOutward {
		for i := range edges {
			edges[i].SourceID, edges[i].TargetID = edges[i].TargetID, edges[i].SourceID
		}
	}

	return edges, nil
}

// walk follows one chain from start. A hop with a bound object advances to
// it; otherwise the hop ends at the pivot, if any, or at end.
func walk(nodes *nodeTable, start, end int, hops []sparql.Hop, pivot string) ([]Edge, error) {
	edges := make([]Edge, 0, len(hops))
	current := start

	for _, h := range hops {
		edge := Edge{SourceID: current, IRI: h.Predicate, Label: sparql.LocalName(h.Predicate)}

		switch {
		case h.Object != "":
			id, err := nodes.lookup(h.Object)
			if err != nil {
				return nil, err
			}
			edge.TargetID = id
			edges = append(edges, edge)
			current = id
			continue
		case pivot != "":
			id, err := nodes.lookup(pivot)
			if err != nil {
				return nil, err
			}
			edge.TargetID = id
		default:
			edge.TargetID = end
		}

		edges = append(edges, edge)
		break
	}

	return edges, nil
}

// nodeTable assigns dense ids in first-seen order
type nodeTable struct {
	ids  map[string]int
	iris []string
}

func newNodeTable(source, destination string) *nodeTable {
	t := &nodeTable{ids: make(map[string]int)}
	t.assign(source)
	t.assign(destination)
	return t
}

func (t *nodeTable) assign(iri string) int {
	if id, ok := t.ids[iri]; ok {
		return id
	}
	id := len(t.iris)
	t.ids[iri] = id
	t.iris = append(t.iris, iri)
	return id
}

func (t *nodeTable) lookup(iri string) (int, error) {
	id, ok := t.ids[iri]
	if !ok {
		return 0, apperrors.InternalErrorf("no node id assigned to %s", iri)
	}
	return id, nil
}

func (t *nodeTable) materialize(source, destination string) []Node {
	nodes := make([]Node, len(t.iris))
	for id, iri := range t.iris {
		nodes[id] = Node{
			ID:         id,
			IRI:        iri,
			Label:      sparql.LocalName(iri),
			IsEndpoint: iri == source || iri == destination,
		}
	}
	return nodes
}
