package sparql

import (
	"fmt"
	"net/url"
	"strings"
)

// Prefix is a namespace abbreviation used both in PREFIX declarations and IRI shortening
type Prefix struct {
	Name      string
	Namespace string
}

// Prefixes is an ordered prefix map; the first matching namespace wins
type Prefixes []Prefix

// DefaultPrefixes are declared in every generated query
var DefaultPrefixes = Prefixes{
	{Name: "cbcm", Namespace: "http://w3id.org/um/cbcm/eu-cm-ontology#"},
	{Name: "db", Namespace: "http://dbpedia.org/resource/"},
	{Name: "rdf", Namespace: "http://www.w3.org/1999/02/22-rdf-syntax-ns#"},
	{Name: "rdfs", Namespace: "http://www.w3.org/2000/01/rdf-schema#"},
}

// Lookup returns the namespace bound to name
func (p Prefixes) Lookup(name string) (string, bool) {
	for _, prefix := range p {
		if prefix.Name == name {
			return prefix.Namespace, true
		}
	}
	return "", false
}

// Abbreviate renders an IRI for use inside a query:
//  1. an IRI inside a known namespace becomes name:local
//  2. a prefixed name with a known prefix is returned as is
//  3. anything else is wrapped as <iri>
//
// Local parts that would not form a legal prefixed name (e.g. db:Foo_(bar))
// fall through to the bracketed form.
func (p Prefixes) Abbreviate(iri string) string {
	for _, prefix := range p {
		if strings.HasPrefix(iri, prefix.Namespace) {
			local := strings.TrimPrefix(iri, prefix.Namespace)
			if isPrefixedLocal(local) {
				return prefix.Name + ":" + local
			}
			return "<" + iri + ">"
		}
	}

	if i := strings.Index(iri, ":"); i > 0 {
		if _, ok := p.Lookup(iri[:i]); ok {
			return iri
		}
	}

	return "<" + iri + ">"
}

// Expand is the inverse of Abbreviate for known prefixes; other values are returned unchanged
func (p Prefixes) Expand(name string) string {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(name, "<"), ">")
	if trimmed != name {
		return trimmed
	}
	if i := strings.Index(name, ":"); i > 0 {
		if ns, ok := p.Lookup(name[:i]); ok {
			return ns + name[i+1:]
		}
	}
	return name
}

// Declarations renders one PREFIX line per entry, in order
func (p Prefixes) Declarations() string {
	var sb strings.Builder
	for _, prefix := range p {
		fmt.Fprintf(&sb, "PREFIX %s: <%s>\n", prefix.Name, prefix.Namespace)
	}
	return sb.String()
}

func isPrefixedLocal(local string) bool {
	if local == "" {
		return true
	}
	if strings.HasSuffix(local, ".") || local[0] == '-' || local[0] == '.' {
		return false
	}
	for _, r := range local {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == '-', r == '.':
		case r > 0x7f:
		default:
			return false
		}
	}
	return true
}

// LocalName returns the substring after the final "/" of an IRI
func LocalName(iri string) string {
	return iri[strings.LastIndex(iri, "/")+1:]
}

// ValidateIRI checks that a value is absolute and can be embedded in a query
// between angle brackets. Prefixed names such as rdf:type pass as well, since
// their prefix parses as a scheme.
func ValidateIRI(iri string) error {
	if iri == "" {
		return fmt.Errorf("empty IRI")
	}
	if i := strings.IndexAny(iri, " \t\n<>\"{}|^`\\"); i >= 0 {
		return fmt.Errorf("IRI %q contains illegal character %q", iri, iri[i])
	}

	u, err := url.Parse(iri)
	if err != nil {
		return fmt.Errorf("IRI %q: %w", iri, err)
	}
	if u.Scheme == "" {
		return fmt.Errorf("IRI %q is not absolute", iri)
	}
	return nil
}
