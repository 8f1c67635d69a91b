package graph

import (
	"slices"
	"strings"
)

// MergeParallelEdges collapses edges sharing an ordered (source, target) pair.
// Within a pair, an edge whose label is already present is dropped; groups
// keep the order in which their pair was first seen.
func MergeParallelEdges(edges []Edge, separator string) []MergedEdge {
	type pair struct{ sid, tid int }

	index := make(map[pair]int)
	merged := []MergedEdge{}

	for _, e := range edges {
		key := pair{e.SourceID, e.TargetID}

		i, ok := index[key]
		if !ok {
			index[key] = len(merged)
			merged = append(merged, MergedEdge{
				SourceID: e.SourceID,
				TargetID: e.TargetID,
				IRIs:     []string{e.IRI},
				Labels:   []string{e.Label},
			})
			continue
		}

		if slices.Contains(merged[i].Labels, e.Label) {
			continue
		}
		merged[i].IRIs = append(merged[i].IRIs, e.IRI)
		merged[i].Labels = append(merged[i].Labels, e.Label)
	}

	for i := range merged {
		merged[i].Label = strings.Join(merged[i].Labels, separator)
	}
	return merged
}

// relabel rebuilds a merged edge from per-IRI labels, applying the same
// first-label-wins rule as MergeParallelEdges.
func relabel(e *MergedEdge, labels map[string]string, separator string) {
	iris := make([]string, 0, len(e.IRIs))
	names := make([]string, 0, len(e.IRIs))

	for i, iri := range e.IRIs {
		label, ok := labels[iri]
		if !ok {
			label = e.Labels[i]
		}
		if slices.Contains(names, label) {
			continue
		}
		iris = append(iris, iri)
		names = append(names, label)
	}

	e.IRIs = iris
	e.Labels = names
	e.Label = strings.Join(names, separator)
}
