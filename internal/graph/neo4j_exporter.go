package graph

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	apperrors "github.com/rohankatakam/relfinder/internal/errors"
)

// Neo4jConfig holds connection and write settings for the exporter
type Neo4jConfig struct {
	URI       string
	Username  string
	Password  string
	Database  string        // default: neo4j
	NodeLabel string        // default: Entity
	EdgeLabel string        // default: RELATED
	BatchSize int           // rows per UNWIND (default: 500)
	Timeout   time.Duration // per batch (default: 30s)
}

func (c *Neo4jConfig) applyDefaults() {
	if c.Database == "" {
		c.Database = "neo4j"
	}
	if c.NodeLabel == "" {
		c.NodeLabel = "Entity"
	}
	if c.EdgeLabel == "" {
		c.EdgeLabel = "RELATED"
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 500
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
}

// QueryRunner executes one write query and returns the "created" count
type QueryRunner func(ctx context.Context, query string, params map[string]any) (int64, error)

// ExportStats summarizes one export
type ExportStats struct {
	Nodes    int
	Edges    int
	Batches  int
	Duration time.Duration
}

// Neo4jExporter writes relationship graphs into Neo4j with idempotent MERGEs.
// Nodes are keyed on iri; relationships on their endpoints and label.
type Neo4jExporter struct {
	driver neo4j.DriverWithContext
	run    QueryRunner
	cfg    Neo4jConfig
	logger *slog.Logger
}

// NewNeo4jExporter connects to Neo4j and verifies connectivity
func NewNeo4jExporter(ctx context.Context, cfg Neo4jConfig) (*Neo4jExporter, error) {
	if cfg.URI == "" || cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("neo4j credentials missing: uri=%s, user=%s", cfg.URI, cfg.Username)
	}
	cfg.applyDefaults()

	driver, err := neo4j.NewDriverWithContext(cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
		func(config *neo4j.Config) {
			config.MaxConnectionPoolSize = 10
			config.ConnectionAcquisitionTimeout = 60 * time.Second
			config.SocketConnectTimeout = 5 * time.Second
			config.SocketKeepalive = true
		})
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	// Fail fast on startup
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, apperrors.NetworkErrorf(err, "failed to connect to neo4j at %s", cfg.URI)
	}

	e := newExporter(nil, cfg)
	e.driver = driver
	e.run = e.executeQuery

	e.logger.Info("neo4j exporter connected",
		"uri", cfg.URI,
		"user", cfg.Username,
		"database", cfg.Database)

	return e, nil
}

// NewNeo4jExporterWithRunner creates an exporter that sends every query to run
func NewNeo4jExporterWithRunner(run QueryRunner, cfg Neo4jConfig) *Neo4jExporter {
	cfg.applyDefaults()
	return newExporter(run, cfg)
}

func newExporter(run QueryRunner, cfg Neo4jConfig) *Neo4jExporter {
	return &Neo4jExporter{
		run:    run,
		cfg:    cfg,
		logger: slog.Default().With("component", "neo4j"),
	}
}

// Close closes the Neo4j driver connection, if any
func (e *Neo4jExporter) Close(ctx context.Context) error {
	if e.driver == nil {
		return nil
	}
	if err := e.driver.Close(ctx); err != nil {
		return fmt.Errorf("failed to close neo4j driver: %w", err)
	}
	e.logger.Info("neo4j exporter closed")
	return nil
}

// Export merges all nodes of g, then all of its edges
func (e *Neo4jExporter) Export(ctx context.Context, g *RelationshipGraph) (*ExportStats, error) {
	start := time.Now()
	stats := &ExportStats{Nodes: len(g.Nodes), Edges: len(g.Edges)}

	nodeRows := make([]map[string]any, len(g.Nodes))
	for i, n := range g.Nodes {
		nodeRows[i] = map[string]any{
			"iri":         n.IRI,
			"label":       n.Label,
			"class":       n.Class,
			"is_endpoint": n.IsEndpoint,
		}
	}

	edgeRows := make([]map[string]any, len(g.Edges))
	for i, edge := range g.Edges {
		from, _ := g.Node(edge.SourceID)
		to, _ := g.Node(edge.TargetID)
		edgeRows[i] = map[string]any{
			"from": from.IRI,
			"to":   to.IRI,
			"props": map[string]any{
				"label": edge.Label,
				"iris":  edge.IRIs,
			},
		}
	}

	for batch := range slices.Chunk(nodeRows, e.cfg.BatchSize) {
		cb := NewCypherBuilder()
		query, err := cb.BuildMergeNodes(e.cfg.NodeLabel, "iri", batch)
		if err != nil {
			return stats, err
		}
		if err := e.write(ctx, "nodes", query, cb.Params(), len(batch)); err != nil {
			return stats, err
		}
		stats.Batches++
	}

	for batch := range slices.Chunk(edgeRows, e.cfg.BatchSize) {
		cb := NewCypherBuilder()
		query, err := cb.BuildMergeEdges(e.cfg.NodeLabel, "iri", e.cfg.EdgeLabel, "label", batch)
		if err != nil {
			return stats, err
		}
		if err := e.write(ctx, "edges", query, cb.Params(), len(batch)); err != nil {
			return stats, err
		}
		stats.Batches++
	}

	stats.Duration = time.Since(start)
	e.logger.Info("graph exported to neo4j",
		"nodes", stats.Nodes,
		"edges", stats.Edges,
		"batches", stats.Batches,
		"duration_ms", stats.Duration.Milliseconds())

	return stats, nil
}

func (e *Neo4jExporter) write(ctx context.Context, kind, query string, params map[string]any, size int) error {
	queryCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	created, err := e.run(queryCtx, query, params)
	if err != nil {
		return apperrors.StorageErrorf(err, "batch %s export failed", kind)
	}
	if created < int64(size) {
		e.logger.Warn("fewer rows merged than sent",
			"kind", kind,
			"created", created,
			"sent", size)
	}
	return nil
}

func (e *Neo4jExporter) executeQuery(ctx context.Context, query string, params map[string]any) (int64, error) {
	result, err := neo4j.ExecuteQuery(ctx, e.driver, query, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(e.cfg.Database))
	if err != nil {
		return 0, err
	}

	if len(result.Records) == 0 {
		return 0, nil
	}
	created, ok := result.Records[0].Get("created")
	if !ok {
		return 0, nil
	}
	count, ok := created.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected type for created: %T (expected int64)", created)
	}
	return count, nil
}
