package sparql

type termKind int

const (
	termNotEqual termKind = iota
	termNotLiteral
)

type filterTerm struct {
	kind  termKind
	left  string
	right string
}

func (t filterTerm) render() string {
	switch t.kind {
	case termNotLiteral:
		return "!isLiteral(" + t.left + ")"
	default:
		return t.left + " != " + t.right
	}
}

// FilterBuilder accumulates typed FILTER terms for one pattern and renders them once
type FilterBuilder struct {
	prefixes Prefixes
	terms    []filterTerm
}

// NewFilterBuilder creates a builder that abbreviates IRIs with the given prefixes
func NewFilterBuilder(prefixes Prefixes) *FilterBuilder {
	return &FilterBuilder{prefixes: prefixes}
}

// NotEqualIRI requires v to differ from iri
func (b *FilterBuilder) NotEqualIRI(v Variable, iri string) *FilterBuilder {
	b.terms = append(b.terms, filterTerm{kind: termNotEqual, left: v.String(), right: b.prefixes.Abbreviate(iri)})
	return b
}

// NotLiteral requires v to bind a resource
func (b *FilterBuilder) NotLiteral(v Variable) *FilterBuilder {
	b.terms = append(b.terms, filterTerm{kind: termNotLiteral, left: v.String()})
	return b
}

// PairwiseDistinct adds one inequality per unordered pair of vars
func (b *FilterBuilder) PairwiseDistinct(vars []Variable) *FilterBuilder {
	for i := 0; i < len(vars); i++ {
		for j := i + 1; j < len(vars); j++ {
			b.terms = append(b.terms, filterTerm{kind: termNotEqual, left: vars[i].String(), right: vars[j].String()})
		}
	}
	return b
}

// Len returns the number of accumulated terms
func (b *FilterBuilder) Len() int {
	return len(b.terms)
}

// Terms renders every term individually, in insertion order
func (b *FilterBuilder) Terms() []string {
	out := make([]string, len(b.terms))
	for i, t := range b.terms {
		out[i] = t.render()
	}
	return out
}

// Render returns the FILTER clause, or "" when there are no terms
func (b *FilterBuilder) Render() string {
	if len(b.terms) == 0 {
		return ""
	}
	return "FILTER " + ConjoinTerms(b.Terms())
}

// pathFilter applies the ignore-lists and the cycle policy of cfg to one pattern's variables
func pathFilter(cfg QueryConfig, predicates, objects []Variable) *FilterBuilder {
	b := NewFilterBuilder(cfg.prefixes)

	for _, p := range predicates {
		for _, ignored := range cfg.ignoredProperties {
			b.NotEqualIRI(p, ignored)
		}
	}

	for _, o := range objects {
		b.NotLiteral(o)
		for _, ignored := range cfg.ignoredObjects {
			b.NotEqualIRI(o, ignored)
		}
		if cfg.cycles != CycleNone {
			b.NotEqualIRI(o, cfg.source)
			b.NotEqualIRI(o, cfg.destination)
		}
	}

	if cfg.cycles == CycleNoIntermediateDuplicates {
		b.PairwiseDistinct(objects)
	}

	return b
}
