// Package rdf defines the RDF term and quad model used by the canonicalization
// engine, the canonical N-Quads line encoding, and the total quad ordering used
// to sort canonical output.
//
// The model is deliberately small: terms are comparable values, so quads can be
// used as map keys and compared with ==.
package rdf

import "strings"

// Namespaces used by literal datatypes.
const (
	XSD = "http://www.w3.org/2001/XMLSchema#"
	RDF = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
)

// Well-known datatype IRIs.
const (
	XSDString     IRI = XSD + "string"
	RDFLangString IRI = RDF + "langString"
)

// Kind identifies the variant of a Term.
type Kind uint8

const (
	KindIRI Kind = iota + 1
	KindBlankNode
	KindLiteral
	KindDefaultGraph
)

func (k Kind) String() string {
	switch k {
	case KindIRI:
		return "IRI"
	case KindBlankNode:
		return "BlankNode"
	case KindLiteral:
		return "Literal"
	case KindDefaultGraph:
		return "DefaultGraph"
	default:
		return "Unknown"
	}
}

// Term is an RDF value. The set of implementations is closed: IRI, BlankNode,
// Literal and DefaultGraph.
type Term interface {
	// Kind reports the term variant.
	Kind() Kind
	// String returns the canonical N-Quads form of the term.
	String() string
}

// IRI is an absolute IRI reference, stored without angle brackets.
type IRI string

func (IRI) Kind() Kind { return KindIRI }

func (i IRI) String() string { return "<" + string(i) + ">" }

// Namespace returns the IRI up to and including the last '#', '/' or ':'.
func (i IRI) Namespace() string {
	s := string(i)
	if idx := strings.LastIndexAny(s, "#/:"); idx >= 0 {
		return s[:idx+1]
	}
	return ""
}

// BlankNode is a dataset-local node identified by its label, stored without
// the "_:" prefix.
type BlankNode string

func (BlankNode) Kind() Kind { return KindBlankNode }

func (b BlankNode) String() string { return "_:" + string(b) }

// ID returns the blank node label.
func (b BlankNode) ID() string { return string(b) }

// Literal is a lexical value with a datatype and an optional language tag.
//
// A zero Datatype means xsd:string, or rdf:langString when Language is set.
type Literal struct {
	Lexical  string
	Datatype IRI
	Language string
}

func (Literal) Kind() Kind { return KindLiteral }

func (l Literal) String() string { return string(appendLiteral(nil, l)) }

// DatatypeIRI returns the effective datatype of the literal.
func (l Literal) DatatypeIRI() IRI {
	switch {
	case l.Language != "":
		return RDFLangString
	case l.Datatype == "":
		return XSDString
	default:
		return l.Datatype
	}
}

// NewLiteral returns a plain xsd:string literal.
func NewLiteral(lexical string) Literal {
	return Literal{Lexical: lexical, Datatype: XSDString}
}

// NewTypedLiteral returns a literal with an explicit datatype.
func NewTypedLiteral(lexical string, datatype IRI) Literal {
	return Literal{Lexical: lexical, Datatype: datatype}
}

// NewLangLiteral returns a language-tagged string literal.
func NewLangLiteral(lexical, language string) Literal {
	return Literal{Lexical: lexical, Datatype: RDFLangString, Language: language}
}

// DefaultGraph is the graph name of the unnamed graph. It is a distinct
// variant and never equal to any IRI.
type DefaultGraph struct{}

func (DefaultGraph) Kind() Kind { return KindDefaultGraph }

func (DefaultGraph) String() string { return "" }

// IsResource reports whether t is an IRI or a blank node.
func IsResource(t Term) bool {
	if t == nil {
		return false
	}
	k := t.Kind()
	return k == KindIRI || k == KindBlankNode
}

// IsBlank reports whether t is a blank node.
func IsBlank(t Term) bool {
	_, ok := t.(BlankNode)
	return ok
}

// IsDefaultGraph reports whether t names the default graph. A nil term is
// treated as the default graph.
func IsDefaultGraph(t Term) bool {
	if t == nil {
		return true
	}
	_, ok := t.(DefaultGraph)
	return ok
}
