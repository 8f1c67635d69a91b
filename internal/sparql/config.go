package sparql

import (
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/rohankatakam/relfinder/internal/errors"
)

var (
	// ErrInvalidDistance is returned for a max distance below 1
	ErrInvalidDistance = errors.New("max distance must be at least 1")
	// ErrSameEntity is returned when both endpoints are the same resource
	ErrSameEntity = errors.New("source and destination must differ")
	// ErrInvalidIRI is returned for endpoints or ignore-list entries that cannot be embedded in a query
	ErrInvalidIRI = errors.New("invalid IRI")
	// ErrInvalidLimit is returned for a negative per-query limit
	ErrInvalidLimit = errors.New("limit must not be negative")
)

// CycleStrategy controls which intermediate objects a path may revisit
type CycleStrategy int

const (
	// CycleNone allows intermediates to be the endpoints or each other
	CycleNone CycleStrategy = iota
	// CycleNoIntermediateObject forbids intermediates equal to either endpoint
	CycleNoIntermediateObject
	// CycleNoIntermediateDuplicates additionally forbids repeated intermediates
	CycleNoIntermediateDuplicates
)

func (c CycleStrategy) String() string {
	switch c {
	case CycleNone:
		return "none"
	case CycleNoIntermediateObject:
		return "no_intermediate_object"
	case CycleNoIntermediateDuplicates:
		return "no_intermediate_duplicates"
	default:
		return fmt.Sprintf("CycleStrategy(%d)", int(c))
	}
}

// ParseCycleStrategy parses the names produced by CycleStrategy.String, case insensitively.
// An empty string selects no_intermediate_duplicates.
func ParseCycleStrategy(s string) (CycleStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return CycleNone, nil
	case "no_intermediate_object":
		return CycleNoIntermediateObject, nil
	case "no_intermediate_duplicates", "":
		return CycleNoIntermediateDuplicates, nil
	default:
		return CycleNone, fmt.Errorf("unknown cycle strategy %q", s)
	}
}

// QueryOptions are the inputs of NewQueryConfig
type QueryOptions struct {
	Source            string
	Destination       string
	IgnoredProperties []string
	IgnoredObjects    []string
	Cycles            CycleStrategy
	MaxDistance       int
	// Limit caps the rows of every generated query; 0 means no LIMIT clause
	Limit int
	// Prefixes defaults to DefaultPrefixes
	Prefixes Prefixes
}

// QueryConfig describes one path-finding request. It is immutable once built.
type QueryConfig struct {
	source            string
	destination       string
	ignoredProperties []string
	ignoredObjects    []string
	cycles            CycleStrategy
	maxDistance       int
	limit             int
	prefixes          Prefixes
}

// NewQueryConfig validates opts and returns an independent copy of them.
// Every failure is a configuration error wrapping one of the Err* sentinels.
func NewQueryConfig(opts QueryOptions) (QueryConfig, error) {
	if opts.MaxDistance < 1 {
		return QueryConfig{}, apperrors.WrapConfig(ErrInvalidDistance, "max distance %d", opts.MaxDistance)
	}
	if opts.Limit < 0 {
		return QueryConfig{}, apperrors.WrapConfig(ErrInvalidLimit, "limit %d", opts.Limit)
	}
	if opts.Cycles < CycleNone || opts.Cycles > CycleNoIntermediateDuplicates {
		return QueryConfig{}, apperrors.ConfigErrorf("unknown cycle strategy %d", int(opts.Cycles))
	}

	for _, field := range []struct {
		name string
		iris []string
	}{
		{"source", []string{opts.Source}},
		{"destination", []string{opts.Destination}},
		{"ignored property", opts.IgnoredProperties},
		{"ignored object", opts.IgnoredObjects},
	} {
		for _, iri := range field.iris {
			if err := ValidateIRI(iri); err != nil {
				return QueryConfig{}, apperrors.WrapConfig(fmt.Errorf("%w: %v", ErrInvalidIRI, err), "%s", field.name)
			}
		}
	}

	if opts.Source == opts.Destination {
		return QueryConfig{}, apperrors.WrapConfig(ErrSameEntity, "%s", opts.Source)
	}

	prefixes := opts.Prefixes
	if prefixes == nil {
		prefixes = DefaultPrefixes
	}

	return QueryConfig{
		source:            opts.Source,
		destination:       opts.Destination,
		ignoredProperties: append([]string(nil), opts.IgnoredProperties...),
		ignoredObjects:    append([]string(nil), opts.IgnoredObjects...),
		cycles:            opts.Cycles,
		maxDistance:       opts.MaxDistance,
		limit:             opts.Limit,
		prefixes:          append(Prefixes(nil), prefixes...),
	}, nil
}

func (c QueryConfig) Source() string { return c.source }
func (c QueryConfig) Destination() string { return c.destination }
func (c QueryConfig) Cycles() CycleStrategy { return c.cycles }
func (c QueryConfig) MaxDistance() int { return c.maxDistance }
func (c QueryConfig) Limit() int { return c.limit }
func (c QueryConfig) Prefixes() Prefixes { return append(Prefixes(nil), c.prefixes...) }
func (c QueryConfig) IgnoredProperties() []string { return append([]string(nil), c.ignoredProperties...) }
func (c QueryConfig) IgnoredObjects() []string { return append([]string(nil), c.ignoredObjects...) }
