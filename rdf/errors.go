package rdf

import "fmt"

// InvariantError reports a term in a position that well-formed RDF never
// allows, such as a DefaultGraph object or a nil subject. It is raised with
// panic: it signals a bug in the caller that built the quad, not bad input
// data that could be recovered from.
type InvariantError struct {
	Op   string
	Term Term
}

func (e *InvariantError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Term == nil {
		return fmt.Sprintf("rdf: %s: nil term", e.Op)
	}
	return fmt.Sprintf("rdf: %s: unexpected %s term %q", e.Op, e.Term.Kind(), e.Term.String())
}
