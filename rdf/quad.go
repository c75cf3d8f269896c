package rdf

import (
	"strconv"
	"strings"
)

// Quad is a subject-predicate-object statement scoped to a graph.
//
// Subject is an IRI or BlankNode, Predicate an IRI, Object any term other than
// DefaultGraph, and Graph an IRI, BlankNode or DefaultGraph.
type Quad struct {
	Subject   Term
	Predicate IRI
	Object    Term
	Graph     Term
}

// NewQuad builds a quad. A nil graph places the statement in the default graph.
func NewQuad(s Term, p IRI, o Term, g Term) Quad {
	if g == nil {
		g = DefaultGraph{}
	}
	return Quad{Subject: s, Predicate: p, Object: o, Graph: g}
}

// Triple builds a statement in the default graph.
func Triple(s Term, p IRI, o Term) Quad {
	return Quad{Subject: s, Predicate: p, Object: o, Graph: DefaultGraph{}}
}

// GraphName returns the graph term, mapping nil to DefaultGraph.
func (q Quad) GraphName() Term {
	if q.Graph == nil {
		return DefaultGraph{}
	}
	return q.Graph
}

// AsTriple returns the statement moved into the default graph.
func (q Quad) AsTriple() Quad {
	return Triple(q.Subject, q.Predicate, q.Object)
}

// HasBlankNode reports whether any position of the quad holds a blank node.
func (q Quad) HasBlankNode() bool {
	return IsBlank(q.Subject) || IsBlank(q.Object) || IsBlank(q.Graph)
}

// String returns the canonical N-Quads line without the trailing newline.
func (q Quad) String() string {
	return string(appendQuad(nil, q))
}

// AppendQuad appends the canonical N-Quads line for q, including the trailing
// "\n", to dst. This exact text is the input to every hash in the
// canonicalization algorithm.
func AppendQuad(dst []byte, q Quad) []byte {
	dst = appendQuad(dst, q)
	return append(dst, '\n')
}

// Line returns the canonical N-Quads line for q including the trailing "\n".
func Line(q Quad) string {
	return string(AppendQuad(nil, q))
}

// Serialize returns the canonical N-Quads document for quads in the given
// order, one line per quad.
func Serialize(quads []Quad) []byte {
	var out []byte
	for _, q := range quads {
		out = AppendQuad(out, q)
	}
	return out
}

func appendQuad(dst []byte, q Quad) []byte {
	dst = appendTerm(dst, q.Subject)
	dst = append(dst, ' ')
	dst = appendTerm(dst, q.Predicate)
	dst = append(dst, ' ')
	dst = appendTerm(dst, q.Object)
	dst = append(dst, ' ')
	if !IsDefaultGraph(q.Graph) {
		dst = appendTerm(dst, q.Graph)
		dst = append(dst, ' ')
	}
	return append(dst, '.')
}

func appendTerm(dst []byte, t Term) []byte {
	switch v := t.(type) {
	case IRI:
		dst = append(dst, '<')
		dst = append(dst, v...)
		return append(dst, '>')
	case BlankNode:
		dst = append(dst, "_:"...)
		return append(dst, v...)
	case Literal:
		return appendLiteral(dst, v)
	default:
		panic(&InvariantError{Op: "serialize", Term: t})
	}
}

func appendLiteral(dst []byte, l Literal) []byte {
	dst = append(dst, '"')
	dst = appendEscaped(dst, l.Lexical)
	dst = append(dst, '"')
	switch {
	case l.Language != "":
		dst = append(dst, '@')
		dst = append(dst, l.Language...)
	case l.Datatype != "" && l.Datatype != XSDString:
		dst = append(dst, "^^<"...)
		dst = append(dst, l.Datatype...)
		dst = append(dst, '>')
	}
	return dst
}

// appendEscaped writes s using the canonical N-Quads string escapes: ECHAR
// for \b \t \n \f \r " and \, UCHAR for the other C0 controls and DEL, and
// every other code point verbatim.
func appendEscaped(dst []byte, s string) []byte {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\b':
			dst = append(dst, `\b`...)
		case '\t':
			dst = append(dst, `\t`...)
		case '\n':
			dst = append(dst, `\n`...)
		case '\f':
			dst = append(dst, `\f`...)
		case '\r':
			dst = append(dst, `\r`...)
		case '"':
			dst = append(dst, `\"`...)
		case '\\':
			dst = append(dst, `\\`...)
		default:
			if c < 0x20 || c == 0x7f {
				hex := strings.ToUpper(strconv.FormatUint(uint64(c), 16))
				dst = append(dst, `\u`...)
				dst = append(dst, strings.Repeat("0", 4-len(hex))...)
				dst = append(dst, hex...)
				continue
			}
			dst = append(dst, c)
		}
	}
	return dst
}
