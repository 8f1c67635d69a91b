package sparql

import "strings"

// TriplePattern renders "s p o ." when toObject is set and "o p s ." otherwise
func TriplePattern(subject, predicate, object string, toObject bool) string {
	if toObject {
		return subject + " " + predicate + " " + object + " ."
	}
	return object + " " + predicate + " " + subject + " ."
}

// ConjoinTerms renders ((t1) && (t2) && ...). An empty list renders "".
func ConjoinTerms(terms []string) string {
	if len(terms) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("(")
	for i, term := range terms {
		if i > 0 {
			sb.WriteString(" &&\n")
		}
		sb.WriteString("(")
		sb.WriteString(term)
		sb.WriteString(")")
	}
	sb.WriteString(")")
	return sb.String()
}
