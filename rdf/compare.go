package rdf

import (
	"cmp"
	"slices"
	"strings"
)

// Compare defines the total order used to sort canonical output: subject,
// then predicate, then object, then (when includeGraph is set) graph.
//
// Resources: the default graph sorts first, then IRIs by their full string,
// then blank nodes by label. Values: literals sort before resources.
func Compare(a, b Quad, includeGraph bool) int {
	if c := compareResources(a.Subject, b.Subject); c != 0 {
		return c
	}
	if c := strings.Compare(string(a.Predicate), string(b.Predicate)); c != 0 {
		return c
	}
	if c := CompareTerms(a.Object, b.Object); c != 0 {
		return c
	}
	if includeGraph {
		return compareResources(a.GraphName(), b.GraphName())
	}
	return 0
}

// Sort orders quads in place using Compare.
func Sort(quads []Quad, includeGraph bool) {
	slices.SortFunc(quads, func(a, b Quad) int { return Compare(a, b, includeGraph) })
}

// CompareTerms orders two values in object position. Literals sort before
// resources; two literals follow compareLiterals; two resources follow the
// resource order.
//
// A term that is neither a literal nor a resource cannot appear in object
// position, so meeting one panics with an *InvariantError.
func CompareTerms(a, b Term) int {
	la, aLit := a.(Literal)
	lb, bLit := b.(Literal)
	switch {
	case aLit && bLit:
		return compareLiterals(la, lb)
	case aLit && IsResource(b):
		return -1
	case IsResource(a) && bLit:
		return 1
	case IsResource(a) && IsResource(b):
		return compareResources(a, b)
	}
	if !aLit && !IsResource(a) {
		panic(&InvariantError{Op: "compare", Term: a})
	}
	panic(&InvariantError{Op: "compare", Term: b})
}

func resourceRank(t Term) int {
	switch t.(type) {
	case DefaultGraph:
		return 0
	case IRI:
		return 1
	case BlankNode:
		return 2
	default:
		panic(&InvariantError{Op: "compare", Term: t})
	}
}

func compareResources(a, b Term) int {
	ra, rb := resourceRank(a), resourceRank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch va := a.(type) {
	case IRI:
		return strings.Compare(string(va), string(b.(IRI)))
	case BlankNode:
		return strings.Compare(string(va), string(b.(BlankNode)))
	default:
		return 0
	}
}

// compareLiterals orders literals in the XSD namespace by value and before
// any other literal; the rest compare by datatype IRI, then lexical form,
// then language tag.
func compareLiterals(a, b Literal) int {
	da, db := a.DatatypeIRI(), b.DatatypeIRI()
	xa := da.Namespace() == XSD
	xb := db.Namespace() == XSD
	switch {
	case xa && xb:
		return compareXSD(a, b)
	case xa:
		return -1
	case xb:
		return 1
	default:
		return compareLexical(a, b)
	}
}

func compareLexical(a, b Literal) int {
	if c := strings.Compare(string(a.DatatypeIRI()), string(b.DatatypeIRI())); c != 0 {
		return c
	}
	if c := strings.Compare(a.Lexical, b.Lexical); c != 0 {
		return c
	}
	return strings.Compare(a.Language, b.Language)
}
