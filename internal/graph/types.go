package graph

import (
	"sort"

	"github.com/rohankatakam/relfinder/internal/sparql"
)

// Node is a resource on a path between the two endpoints.
// Class stays empty until enrichment.
type Node struct {
	ID         int    `json:"id"`
	IRI        string `json:"iri"`
	Label      string `json:"label"`
	Class      string `json:"class"`
	IsEndpoint bool   `json:"isEndpoint"`
}

// Edge is one decoded hop, directed from the triple's subject to its object
type Edge struct {
	SourceID int    `json:"sid"`
	TargetID int    `json:"tid"`
	IRI      string `json:"iri"`
	Label    string `json:"label"`
}

// MergedEdge carries every distinct property between one ordered node pair
type MergedEdge struct {
	SourceID int      `json:"sid"`
	TargetID int      `json:"tid"`
	IRIs     []string `json:"iris"`
	Labels   []string `json:"labels"`
	// Label is Labels joined with the builder's separator
	Label string `json:"label"`
}

// RelationshipGraph is the result of one path-finding request.
// Both endpoints are always present, as ids 0 and 1.
type RelationshipGraph struct {
	Nodes []Node       `json:"nodes"`
	Edges []MergedEdge `json:"edges"`
}

// Classes returns the sorted distinct non-empty node classes
func (g *RelationshipGraph) Classes() []string {
	seen := make(map[string]struct{})
	classes := []string{}
	for _, n := range g.Nodes {
		if n.Class == "" {
			continue
		}
		if _, ok := seen[n.Class]; ok {
			continue
		}
		seen[n.Class] = struct{}{}
		classes = append(classes, n.Class)
	}
	sort.Strings(classes)
	return classes
}

// Node returns the node with the given id
func (g *RelationshipGraph) Node(id int) (Node, bool) {
	if id < 0 || id >= len(g.Nodes) || g.Nodes[id].ID != id {
		return Node{}, false
	}
	return g.Nodes[id], true
}

// QueryResult pairs one generated query with the decoded rows the store returned for it
type QueryResult struct {
	Descriptor sparql.QueryDescriptor `json:"descriptor"`
	Bindings   []sparql.PathBinding   `json:"bindings"`
}
