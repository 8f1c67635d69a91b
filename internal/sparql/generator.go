package sparql

import (
	"strconv"
	"strings"
)

// PatternKind identifies the shape of a generated query
type PatternKind int

const (
	// PatternDirectForward chains source -> ... -> destination
	PatternDirectForward PatternKind = iota
	// PatternDirectBackward chains destination -> ... -> source
	PatternDirectBackward
	// PatternPivotInward is source -> ... -> ?pivot <- ... <- destination
	PatternPivotInward
	// PatternPivotOutward is source <- ... <- ?pivot -> ... -> destination
	PatternPivotOutward
)

func (k PatternKind) String() string {
	switch k {
	case PatternDirectForward:
		return "direct_forward"
	case PatternDirectBackward:
		return "direct_backward"
	case PatternPivotInward:
		return "pivot_inward"
	case PatternPivotOutward:
		return "pivot_outward"
	default:
		return "unknown"
	}
}

// QueryDescriptor is one generated query plus the logical direction of the
// edges it discovers. Index is its position in the canonical enumeration.
type QueryDescriptor struct {
	Query       string      `json:"query"`
	Source      string      `json:"source"`
	Destination string      `json:"destination"`
	Distance    int         `json:"distance"`
	Kind        PatternKind `json:"kind"`
	// ForwardHops and BackwardHops are the chain lengths on either side of the pivot
	ForwardHops  int `json:"forward_hops"`
	BackwardHops int `json:"backward_hops"`
	Index        int `json:"index"`
}

// DescriptorCount is the number of descriptors Generate returns for maxDistance:
// per distance d, two direct patterns plus two per split d = a + b.
func DescriptorCount(maxDistance int) int {
	if maxDistance < 1 {
		return 0
	}
	return maxDistance * (maxDistance + 1)
}

// Generate enumerates, for d = 1..MaxDistance, the direct forward, direct
// backward, and (for every a + b = d in ascending a) inward and outward pivot
// patterns of cfg.
func Generate(cfg QueryConfig) []QueryDescriptor {
	descriptors := make([]QueryDescriptor, 0, DescriptorCount(cfg.maxDistance))

	add := func(d QueryDescriptor) {
		d.Index = len(descriptors)
		descriptors = append(descriptors, d)
	}

	for d := 1; d <= cfg.maxDistance; d++ {
		add(directQuery(cfg, d, PatternDirectForward))
		add(directQuery(cfg, d, PatternDirectBackward))

		for a := 1; a < d; a++ {
			b := d - a
			add(pivotQuery(cfg, a, b, PatternPivotInward))
			add(pivotQuery(cfg, a, b, PatternPivotOutward))
		}
	}

	return descriptors
}

// pattern collects the triples and variables of one query body
type pattern struct {
	triples    []string
	predicates []Variable
	objects    []Variable
}

func directQuery(cfg QueryConfig, distance int, kind PatternKind) QueryDescriptor {
	from, to := cfg.source, cfg.destination
	if kind == PatternDirectBackward {
		from, to = to, from
	}

	var p pattern
	subject := cfg.prefixes.Abbreviate(from)
	for i := 1; i <= distance; i++ {
		pred := Variable{Kind: ForwardPredicate, Index: i}
		p.predicates = append(p.predicates, pred)

		object := cfg.prefixes.Abbreviate(to)
		if i < distance {
			obj := Variable{Kind: ForwardObject, Index: i}
			p.objects = append(p.objects, obj)
			object = obj.String()
		}

		p.triples = append(p.triples, TriplePattern(subject, pred.String(), object, true))
		subject = object
	}

	return QueryDescriptor{
		Query:       render(cfg, p),
		Source:      from,
		Destination: to,
		Distance:    distance,
		Kind:        kind,
		ForwardHops: distance,
	}
}

func pivotQuery(cfg QueryConfig, a, b int, kind PatternKind) QueryDescriptor {
	toObject := kind == PatternPivotInward

	p := pattern{objects: []Variable{Pivot}}
	p.chain(cfg.prefixes.Abbreviate(cfg.source), ForwardPredicate, ForwardObject, a, toObject)
	p.chain(cfg.prefixes.Abbreviate(cfg.destination), BackwardPredicate, BackwardObject, b, toObject)

	return QueryDescriptor{
		Query:        render(cfg, p),
		Source:       cfg.source,
		Destination:  cfg.destination,
		Distance:     a + b,
		Kind:         kind,
		ForwardHops:  a,
		BackwardHops: b,
	}
}

// chain appends root -p1-> o1 -p2-> ... -pn-> ?pivot, with every arrow
// reversed when toObject is false.
func (p *pattern) chain(root string, predKind, objKind VariableKind, n int, toObject bool) {
	subject := root
	for i := 1; i <= n; i++ {
		pred := Variable{Kind: predKind, Index: i}
		p.predicates = append(p.predicates, pred)

		object := Pivot.String()
		if i < n {
			obj := Variable{Kind: objKind, Index: i}
			p.objects = append(p.objects, obj)
			object = obj.String()
		}

		p.triples = append(p.triples, TriplePattern(subject, pred.String(), object, toObject))
		subject = object
	}
}

func render(cfg QueryConfig, p pattern) string {
	var sb strings.Builder

	sb.WriteString(cfg.prefixes.Declarations())
	sb.WriteString("SELECT * WHERE {\n")
	for _, t := range p.triples {
		sb.WriteString(t)
		sb.WriteString("\n")
	}
	if filter := pathFilter(cfg, p.predicates, p.objects).Render(); filter != "" {
		sb.WriteString(filter)
		sb.WriteString("\n")
	}
	sb.WriteString("}")

	if cfg.limit > 0 {
		sb.WriteString("\nLIMIT ")
		sb.WriteString(strconv.Itoa(cfg.limit))
	}

	return sb.String()
}
