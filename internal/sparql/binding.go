package sparql

import (
	"errors"
	"fmt"
	"sort"

	apperrors "github.com/rohankatakam/relfinder/internal/errors"
)

// ErrMalformedBinding is returned for rows whose variables cannot form a path
var ErrMalformedBinding = errors.New("malformed path binding")

// Term is one bound value in the SPARQL 1.1 JSON results format
type Term struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

// IsLiteral reports whether the term is a literal rather than a resource
func (t Term) IsLiteral() bool {
	return t.Type == "literal" || t.Type == "typed-literal"
}

// RawBinding is one result row keyed by variable name (without "?")
type RawBinding map[string]Term

// Hop is one predicate of a chain and, for every hop but the last, the object it reaches
type Hop struct {
	Predicate string `json:"predicate"`
	Object    string `json:"object,omitempty"`
}

// PathBinding is the typed form of a path row: the chain rooted at the
// descriptor's source, the chain rooted at its destination, and the pivot
// joining them, if any.
type PathBinding struct {
	Forward  []Hop  `json:"forward,omitempty"`
	Backward []Hop  `json:"backward,omitempty"`
	Pivot    string `json:"pivot,omitempty"`
}

// HasPivot reports whether the row came from a pivot pattern
func (b PathBinding) HasPivot() bool {
	return b.Pivot != ""
}

// Predicates returns every predicate IRI, forward chain first
func (b PathBinding) Predicates() []string {
	out := make([]string, 0, len(b.Forward)+len(b.Backward))
	for _, h := range b.Forward {
		out = append(out, h.Predicate)
	}
	for _, h := range b.Backward {
		out = append(out, h.Predicate)
	}
	return out
}

// Objects returns bound resources in node-assignment order:
// forward objects, backward objects, then the pivot.
func (b PathBinding) Objects() []string {
	var out []string
	for _, h := range b.Forward {
		if h.Object != "" {
			out = append(out, h.Object)
		}
	}
	for _, h := range b.Backward {
		if h.Object != "" {
			out = append(out, h.Object)
		}
	}
	if b.Pivot != "" {
		out = append(out, b.Pivot)
	}
	return out
}

// DecodeBinding converts a store row into a PathBinding. Hops are ordered by
// numeric index. Predicates of a chain must be numbered 1..n without gaps and
// every hop before the last must carry its object; the last hop ends at the
// pivot when one is bound and at the chain's opposite endpoint otherwise.
// Violations are internal errors wrapping ErrUnknownVariable or ErrMalformedBinding.
func DecodeBinding(raw RawBinding) (PathBinding, error) {
	preds := map[VariableKind]map[int]string{
		ForwardPredicate:  {},
		BackwardPredicate: {},
	}
	objs := map[VariableKind]map[int]string{
		ForwardObject:  {},
		BackwardObject: {},
	}

	var out PathBinding
	for name, term := range raw {
		v, err := ParseVariable(name)
		if err != nil {
			return PathBinding{}, apperrors.WrapInternal(err, "decode binding")
		}

		switch v.Kind {
		case PivotObject:
			out.Pivot = term.Value
		case ForwardPredicate, BackwardPredicate:
			preds[v.Kind][v.Index] = term.Value
		default:
			objs[v.Kind][v.Index] = term.Value
		}
	}

	var err error
	if out.Forward, err = hops(preds[ForwardPredicate], objs[ForwardObject]); err != nil {
		return PathBinding{}, apperrors.WrapInternal(err, "decode forward chain")
	}
	if out.Backward, err = hops(preds[BackwardPredicate], objs[BackwardObject]); err != nil {
		return PathBinding{}, apperrors.WrapInternal(err, "decode backward chain")
	}

	return out, nil
}

func hops(preds, objs map[int]string) ([]Hop, error) {
	n := len(preds)
	indices := make([]int, 0, n)
	for i := range preds {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	for pos, i := range indices {
		if i != pos+1 {
			return nil, fmt.Errorf("%w: predicate index %d out of sequence", ErrMalformedBinding, i)
		}
	}
	for i := range objs {
		if i >= n {
			return nil, fmt.Errorf("%w: object index %d has no following predicate", ErrMalformedBinding, i)
		}
	}
	if n == 0 {
		return nil, nil
	}

	out := make([]Hop, n)
	for i := 1; i <= n; i++ {
		out[i-1].Predicate = preds[i]
		if i < n {
			obj, ok := objs[i]
			if !ok {
				return nil, fmt.Errorf("%w: hop %d of %d has no object", ErrMalformedBinding, i, n)
			}
			out[i-1].Object = obj
		}
	}
	return out, nil
}
