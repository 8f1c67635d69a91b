package graph

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"
)

// Labeler resolves display labels and classes for IRIs.
// Implemented by sparql.Endpoint and cache.CachingLabeler.
type Labeler interface {
	LabelsFor(ctx context.Context, iris []string) (map[string]string, error)
	TypesFor(ctx context.Context, iris []string) (map[string]string, error)
}

// DefaultTransactionClasses prefix transaction labels with their type, e.g. "CrossBorderMerger#1234"
var DefaultTransactionClasses = map[string]string{
	"http://w3id.org/um/cbcm/eu-cm-ontology#CrossBorderConversion": "CrossBorderConversion",
	"http://w3id.org/um/cbcm/eu-cm-ontology#CrossBorderDivision":   "CrossBorderDivision",
	"http://w3id.org/um/cbcm/eu-cm-ontology#CrossBorderMerger":     "CrossBorderMerger",
}

// EnricherConfig controls enrichment batching
type EnricherConfig struct {
	ChunkSize          int // IRIs per lookup (default: 50)
	Concurrency        int // concurrent lookups (default: 4)
	DefaultClass       string
	TransactionClasses map[string]string
	Separator          string
}

// Enricher fills in labels and classes of a built graph in place.
// Node ids and edge endpoints are never changed.
type Enricher struct {
	labeler Labeler
	cfg     EnricherConfig
	logger  *slog.Logger
}

// NewEnricher creates an enricher; zero config fields take their defaults
func NewEnricher(labeler Labeler, cfg EnricherConfig) *Enricher {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 50
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.DefaultClass == "" {
		cfg.DefaultClass = "Thing"
	}
	if cfg.TransactionClasses == nil {
		cfg.TransactionClasses = DefaultTransactionClasses
	}
	if cfg.Separator == "" {
		cfg.Separator = DefaultSeparator
	}

	return &Enricher{
		labeler: labeler,
		cfg:     cfg,
		logger:  slog.Default().With("component", "enricher"),
	}
}

// Enrich labels every node and edge property and classifies every node
func (e *Enricher) Enrich(ctx context.Context, g *RelationshipGraph) error {
	nodeIRIs := make([]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		nodeIRIs = append(nodeIRIs, n.IRI)
	}

	labelIRIs := unique(nodeIRIs)
	for _, edge := range g.Edges {
		labelIRIs = unique(append(labelIRIs, edge.IRIs...))
	}

	labels, err := e.lookup(ctx, labelIRIs, e.labeler.LabelsFor)
	if err != nil {
		return fmt.Errorf("label lookup failed: %w", err)
	}
	types, err := e.lookup(ctx, nodeIRIs, e.labeler.TypesFor)
	if err != nil {
		return fmt.Errorf("type lookup failed: %w", err)
	}

	for i := range g.Nodes {
		n := &g.Nodes[i]
		if label, ok := labels[n.IRI]; ok {
			n.Label = label
		}

		n.Class = e.cfg.DefaultClass
		if class, ok := types[n.IRI]; ok {
			n.Class = class
		}

		if prefix, ok := e.cfg.TransactionClasses[n.Class]; ok {
			n.Label = prefix + "#" + n.Label
		}
	}

	for i := range g.Edges {
		relabel(&g.Edges[i], labels, e.cfg.Separator)
	}

	e.logger.Debug("graph enriched",
		"nodes", len(g.Nodes),
		"edges", len(g.Edges),
		"labels", len(labels),
		"types", len(types))

	return nil
}

// lookup fetches iris in chunks, at most Concurrency at a time. Later chunks
// overwrite earlier ones on conflicting keys, matching sequential order.
func (e *Enricher) lookup(
	ctx context.Context,
	iris []string,
	fetch func(context.Context, []string) (map[string]string, error),
) (map[string]string, error) {
	chunks := slices.Collect(slices.Chunk(iris, e.cfg.ChunkSize))
	results := make([]map[string]string, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)

	for i, chunk := range chunks {
		g.Go(func() error {
			res, err := fetch(gctx, chunk)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]string)
	for _, res := range results {
		for k, v := range res {
			out[k] = v
		}
	}
	return out, nil
}

func unique(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := items[:0:0]
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
