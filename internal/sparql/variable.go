package sparql

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownVariable is returned when a store row binds a variable no generated pattern declares
var ErrUnknownVariable = errors.New("unknown path variable")

// VariableKind identifies the role of a positional query variable
type VariableKind int

const (
	ForwardPredicate VariableKind = iota
	ForwardObject
	BackwardPredicate
	BackwardObject
	PivotObject
)

var kindPrefixes = [...]string{
	ForwardPredicate:  "pf",
	ForwardObject:     "of",
	BackwardPredicate: "pb",
	BackwardObject:    "ob",
}

const pivotName = "pivot"

// Variable is a typed positional variable. Index is 1-based and unused for the pivot.
type Variable struct {
	Kind  VariableKind
	Index int
}

// Pivot is the shared variable of pivot patterns
var Pivot = Variable{Kind: PivotObject}

// Name returns the variable name without the leading "?", e.g. "pf2"
func (v Variable) Name() string {
	if v.Kind == PivotObject {
		return pivotName
	}
	return kindPrefixes[v.Kind] + strconv.Itoa(v.Index)
}

// String returns the query form, e.g. "?pf2"
func (v Variable) String() string {
	return "?" + v.Name()
}

// IsPredicate reports whether the variable binds a property
func (v Variable) IsPredicate() bool {
	return v.Kind == ForwardPredicate || v.Kind == BackwardPredicate
}

// ParseVariable is the inverse of Variable.Name. A leading "?" is accepted.
func ParseVariable(name string) (Variable, error) {
	name = strings.TrimPrefix(name, "?")
	if name == pivotName {
		return Pivot, nil
	}

	for kind, prefix := range kindPrefixes {
		rest, ok := strings.CutPrefix(name, prefix)
		if !ok {
			continue
		}
		index, err := strconv.Atoi(rest)
		if err != nil || index < 1 || strconv.Itoa(index) != rest {
			break
		}
		return Variable{Kind: VariableKind(kind), Index: index}, nil
	}

	return Variable{}, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
}
