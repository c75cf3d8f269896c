// Package nquads reads and writes RDF datasets in the N-Quads line format.
// N-Triples is accepted as the subset without graph labels.
package nquads

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"xdao.co/rdfc/rdf"
)

// Decoder reads statements one at a time.
type Decoder struct {
	r    *bufio.Reader
	line int
	eof  bool
}

// NewDecoder returns a pull-style decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next returns the next statement. It returns io.EOF once the input is
// exhausted. Blank lines and comments are skipped.
func (d *Decoder) Next() (rdf.Quad, error) {
	for !d.eof {
		raw, err := d.r.ReadString('\n')
		if errors.Is(err, io.EOF) {
			d.eof = true
		} else if err != nil {
			return rdf.Quad{}, err
		}
		if raw == "" && d.eof {
			break
		}
		d.line++
		q, ok, err := parseLine(strings.TrimRight(raw, "\r\n"), d.line)
		if err != nil {
			return rdf.Quad{}, err
		}
		if ok {
			return q, nil
		}
	}
	return rdf.Quad{}, io.EOF
}

// Parse reads every statement from r.
func Parse(r io.Reader) ([]rdf.Quad, error) {
	dec := NewDecoder(r)
	var out []rdf.Quad
	for {
		q, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
}

// ParseBytes parses an in-memory document.
func ParseBytes(data []byte) ([]rdf.Quad, error) {
	return Parse(bytes.NewReader(data))
}

type lexer struct {
	src  string
	pos  int
	line int
}

func parseLine(src string, line int) (rdf.Quad, bool, error) {
	l := &lexer{src: src, line: line}
	l.skipSpace()
	if l.done() || l.peek() == '#' {
		return rdf.Quad{}, false, nil
	}

	subject, err := l.resource("NQ-SUBJ-001", "subject")
	if err != nil {
		return rdf.Quad{}, false, err
	}
	l.skipSpace()
	if l.peek() != '<' {
		return rdf.Quad{}, false, l.errorf("NQ-PRED-001", "predicate must be an IRI")
	}
	predicate, err := l.iri()
	if err != nil {
		return rdf.Quad{}, false, err
	}
	l.skipSpace()
	object, err := l.object()
	if err != nil {
		return rdf.Quad{}, false, err
	}
	l.skipSpace()

	var graph rdf.Term = rdf.DefaultGraph{}
	if !l.done() && l.peek() != '.' {
		graph, err = l.resource("NQ-GRAPH-001", "graph label")
		if err != nil {
			return rdf.Quad{}, false, err
		}
		l.skipSpace()
	}
	if l.peek() != '.' {
		return rdf.Quad{}, false, l.errorf("NQ-EOS-001", "expected '.'")
	}
	l.pos++
	l.skipSpace()
	if !l.done() && l.peek() != '#' {
		return rdf.Quad{}, false, l.errorf("NQ-EOS-002", "unexpected content after '.'")
	}
	return rdf.Quad{Subject: subject, Predicate: predicate, Object: object, Graph: graph}, true, nil
}

func (l *lexer) done() bool { return l.pos >= len(l.src) }

func (l *lexer) peek() byte {
	if l.done() {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) skipSpace() {
	for !l.done() && (l.src[l.pos] == ' ' || l.src[l.pos] == '\t') {
		l.pos++
	}
}

func (l *lexer) errorf(ruleID, msg string) error {
	return &SyntaxError{
		Line:    l.line,
		Column:  utf8.RuneCountInString(l.src[:min(l.pos, len(l.src))]) + 1,
		RuleID:  ruleID,
		Message: msg,
	}
}

func (l *lexer) resource(ruleID, what string) (rdf.Term, error) {
	switch {
	case l.peek() == '<':
		return l.iri()
	case strings.HasPrefix(l.src[l.pos:], "_:"):
		return l.blank()
	default:
		return nil, l.errorf(ruleID, what+" must be an IRI or blank node")
	}
}

func (l *lexer) object() (rdf.Term, error) {
	switch {
	case l.peek() == '"':
		return l.literal()
	case l.peek() == '<':
		return l.iri()
	case strings.HasPrefix(l.src[l.pos:], "_:"):
		return l.blank()
	default:
		return nil, l.errorf("NQ-OBJ-001", "object must be an IRI, blank node or literal")
	}
}

func (l *lexer) iri() (rdf.IRI, error) {
	l.pos++ // '<'
	var sb strings.Builder
	for {
		if l.done() {
			return "", l.errorf("NQ-IRI-001", "unterminated IRI")
		}
		c := l.src[l.pos]
		switch {
		case c == '>':
			l.pos++
			if sb.Len() == 0 {
				return "", l.errorf("NQ-IRI-002", "empty IRI")
			}
			return rdf.IRI(sb.String()), nil
		case c == '\\':
			r, err := l.uchar()
			if err != nil {
				return "", err
			}
			sb.WriteRune(r)
		case c <= 0x20 || strings.IndexByte("<\"{}|^`", c) >= 0:
			return "", l.errorf("NQ-IRI-003", "invalid character in IRI")
		default:
			sb.WriteByte(c)
			l.pos++
		}
	}
}

func (l *lexer) blank() (rdf.BlankNode, error) {
	l.pos += 2 // "_:"
	start := l.pos
	first := true
	for !l.done() {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !labelRune(r, first) {
			break
		}
		first = false
		l.pos += size
	}
	// a label never ends with '.'; the dot terminates the statement
	for l.pos > start && l.src[l.pos-1] == '.' {
		l.pos--
	}
	if l.pos == start {
		return "", l.errorf("NQ-BNODE-001", "empty blank node label")
	}
	return rdf.BlankNode(l.src[start:l.pos]), nil
}

func labelRune(r rune, first bool) bool {
	switch {
	case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
		return true
	case first:
		return false
	default:
		return r == '-' || r == '.' || r == 0xB7 || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Pc, r)
	}
}

func (l *lexer) literal() (rdf.Term, error) {
	l.pos++ // '"'
	var sb strings.Builder
	for {
		if l.done() {
			return nil, l.errorf("NQ-LIT-001", "unterminated literal")
		}
		c := l.src[l.pos]
		if c == '"' {
			l.pos++
			break
		}
		if c != '\\' {
			sb.WriteByte(c)
			l.pos++
			continue
		}
		if l.pos+1 >= len(l.src) {
			return nil, l.errorf("NQ-LIT-002", "dangling escape")
		}
		if esc, ok := echar[l.src[l.pos+1]]; ok {
			sb.WriteByte(esc)
			l.pos += 2
			continue
		}
		r, err := l.uchar()
		if err != nil {
			return nil, err
		}
		sb.WriteRune(r)
	}
	lexical := sb.String()

	switch {
	case strings.HasPrefix(l.src[l.pos:], "^^"):
		l.pos += 2
		if l.peek() != '<' {
			return nil, l.errorf("NQ-LIT-003", "datatype must be an IRI")
		}
		dt, err := l.iri()
		if err != nil {
			return nil, err
		}
		return rdf.NewTypedLiteral(lexical, dt), nil
	case l.peek() == '@':
		l.pos++
		start := l.pos
		for !l.done() && (isAlnum(l.src[l.pos]) || l.src[l.pos] == '-') {
			l.pos++
		}
		tag := l.src[start:l.pos]
		if !validLangTag(tag) {
			return nil, l.errorf("NQ-LIT-004", "invalid language tag")
		}
		return rdf.NewLangLiteral(lexical, tag), nil
	default:
		return rdf.NewLiteral(lexical), nil
	}
}

var echar = map[byte]byte{
	't': '\t', 'b': '\b', 'n': '\n', 'r': '\r', 'f': '\f',
	'"': '"', '\'': '\'', '\\': '\\',
}

// uchar decodes \uXXXX or \UXXXXXXXX at the cursor.
func (l *lexer) uchar() (rune, error) {
	if l.pos+1 >= len(l.src) {
		return 0, l.errorf("NQ-ESC-001", "invalid escape")
	}
	var n int
	switch l.src[l.pos+1] {
	case 'u':
		n = 4
	case 'U':
		n = 8
	default:
		return 0, l.errorf("NQ-ESC-001", "invalid escape")
	}
	end := l.pos + 2 + n
	if end > len(l.src) {
		return 0, l.errorf("NQ-ESC-002", "truncated unicode escape")
	}
	v, err := strconv.ParseUint(l.src[l.pos+2:end], 16, 32)
	if err != nil || !utf8.ValidRune(rune(v)) {
		return 0, l.errorf("NQ-ESC-002", "invalid unicode escape")
	}
	l.pos = end
	return rune(v), nil
}

func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isAlnum(c byte) bool { return isAlpha(c) || (c >= '0' && c <= '9') }

func validLangTag(tag string) bool {
	parts := strings.Split(tag, "-")
	for i, part := range parts {
		if part == "" {
			return false
		}
		for j := 0; j < len(part); j++ {
			if i == 0 && !isAlpha(part[j]) {
				return false
			}
		}
	}
	return true
}
