package graph

import (
	"fmt"
	"regexp"
)

var identifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// CypherBuilder builds parameterized Cypher queries.
// Values always travel as parameters; only validated identifiers are inlined.
type CypherBuilder struct {
	params  map[string]any
	counter int
}

// NewCypherBuilder creates a query builder
func NewCypherBuilder() *CypherBuilder {
	return &CypherBuilder{
		params: make(map[string]any),
	}
}

// AddParam adds a parameter and returns its placeholder
func (b *CypherBuilder) AddParam(value any) string {
	paramName := fmt.Sprintf("p%d", b.counter)
	b.counter++
	b.params[paramName] = value
	return "$" + paramName
}

// Params returns all parameters for the query
func (b *CypherBuilder) Params() map[string]any {
	return b.params
}

// BuildMergeNodes creates an UNWIND query that merges one node per row on
// uniqueKey and overwrites its remaining properties.
func (b *CypherBuilder) BuildMergeNodes(label, uniqueKey string, rows []map[string]any) (string, error) {
	if !isValidIdentifier(label) {
		return "", fmt.Errorf("invalid node label: %s (must be alphanumeric + underscore)", label)
	}
	if !isValidIdentifier(uniqueKey) {
		return "", fmt.Errorf("invalid unique key: %s (must be alphanumeric + underscore)", uniqueKey)
	}

	rowsParam := b.AddParam(rows)

	return fmt.Sprintf(
		"UNWIND %s AS row MERGE (n:%s {%s: row.%s}) SET n += row RETURN count(n) AS created",
		rowsParam, label, uniqueKey, uniqueKey,
	), nil
}

// BuildMergeEdges creates an UNWIND query that merges one relationship per
// row between nodes matched on uniqueKey. Rows carry from, to and props.
// A relationship is identified by its endpoints and mergeKey.
func (b *CypherBuilder) BuildMergeEdges(nodeLabel, uniqueKey, edgeLabel, mergeKey string, rows []map[string]any) (string, error) {
	for _, id := range []string{nodeLabel, uniqueKey, edgeLabel, mergeKey} {
		if !isValidIdentifier(id) {
			return "", fmt.Errorf("invalid identifier: %s", id)
		}
	}

	rowsParam := b.AddParam(rows)

	return fmt.Sprintf(
		"UNWIND %s AS row "+
			"MATCH (from:%s {%s: row.from}) "+
			"MATCH (to:%s {%s: row.to}) "+
			"MERGE (from)-[r:%s {%s: row.props.%s}]->(to) "+
			"SET r += row.props RETURN count(r) AS created",
		rowsParam,
		nodeLabel, uniqueKey,
		nodeLabel, uniqueKey,
		edgeLabel, mergeKey, mergeKey,
	), nil
}

// isValidIdentifier validates that a string can be safely used as a Cypher identifier
func isValidIdentifier(s string) bool {
	return identifierRe.MatchString(s)
}
