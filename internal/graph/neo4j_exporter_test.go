package graph

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/rohankatakam/relfinder/internal/errors"
)

type recordedQuery struct {
	query  string
	params map[string]any
}

func TestNeo4jExporter_Export(t *testing.T) {
	var queries []recordedQuery
	run := func(_ context.Context, query string, params map[string]any) (int64, error) {
		queries = append(queries, recordedQuery{query, params})
		rows := params["p0"].([]map[string]any)
		return int64(len(rows)), nil
	}

	exporter := NewNeo4jExporterWithRunner(run, Neo4jConfig{BatchSize: 2})
	stats, err := exporter.Export(context.Background(), sampleGraph())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Nodes)
	assert.Equal(t, 1, stats.Edges)
	assert.Equal(t, 3, stats.Batches)
	require.Len(t, queries, 3)

	assert.Equal(t,
		"UNWIND $p0 AS row MERGE (n:Entity {iri: row.iri}) SET n += row RETURN count(n) AS created",
		queries[0].query)
	assert.Len(t, queries[0].params["p0"], 2)
	assert.Len(t, queries[1].params["p0"], 1)

	assert.True(t, strings.Contains(queries[2].query, "MERGE (from)-[r:RELATED {label: row.props.label}]->(to)"))
	edgeRows := queries[2].params["p0"].([]map[string]any)
	assert.Equal(t, "http://example.org/jane", edgeRows[0]["from"])
	assert.Equal(t, "http://example.org/acme", edgeRows[0]["to"])

	require.NoError(t, exporter.Close(context.Background()))
}

func TestNeo4jExporter_Failure(t *testing.T) {
	run := func(context.Context, string, map[string]any) (int64, error) {
		return 0, errors.New("connection refused")
	}

	_, err := NewNeo4jExporterWithRunner(run, Neo4jConfig{}).Export(context.Background(), sampleGraph())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch nodes export failed")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeStorage))
}

func TestNeo4jExporter_InvalidLabel(t *testing.T) {
	run := func(context.Context, string, map[string]any) (int64, error) { return 0, nil }

	_, err := NewNeo4jExporterWithRunner(run, Neo4jConfig{NodeLabel: "Entity) DETACH DELETE (x"}).
		Export(context.Background(), sampleGraph())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid node label")
}

func TestNewNeo4jExporter_MissingCredentials(t *testing.T) {
	_, err := NewNeo4jExporter(context.Background(), Neo4jConfig{URI: "bolt://localhost:7687"})
	assert.Error(t, err)
}

func TestIsValidIdentifier(t *testing.T) {
	assert.True(t, isValidIdentifier("RELATED"))
	assert.True(t, isValidIdentifier("_iri2"))
	assert.False(t, isValidIdentifier(""))
	assert.False(t, isValidIdentifier("2iri"))
	assert.False(t, isValidIdentifier("a-b"))
}
