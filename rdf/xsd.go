package rdf

import (
	"cmp"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// valueClass groups XSD datatypes whose values are mutually comparable.
// Classes sort in declaration order; literals that fail to parse for their
// datatype fall into classOther and order lexically.
type valueClass uint8

const (
	classNumeric valueClass = iota
	classDateTime
	classDate
	classTime
	classOther
)

var decimalTypes = map[IRI]bool{
	XSD + "decimal":            true,
	XSD + "integer":            true,
	XSD + "long":               true,
	XSD + "int":                true,
	XSD + "short":              true,
	XSD + "byte":               true,
	XSD + "nonNegativeInteger": true,
	XSD + "nonPositiveInteger": true,
	XSD + "positiveInteger":    true,
	XSD + "negativeInteger":    true,
	XSD + "unsignedLong":       true,
	XSD + "unsignedInt":        true,
	XSD + "unsignedShort":      true,
	XSD + "unsignedByte":       true,
}

var floatTypes = map[IRI]bool{
	XSD + "float":  true,
	XSD + "double": true,
}

var temporalLayouts = map[valueClass][]string{
	classDateTime: {"2006-01-02T15:04:05.999999999Z07:00", "2006-01-02T15:04:05.999999999"},
	classDate:     {"2006-01-02Z07:00", "2006-01-02"},
	classTime:     {"15:04:05.999999999Z07:00", "15:04:05.999999999"},
}

var temporalTypes = map[IRI]valueClass{
	XSD + "dateTime":      classDateTime,
	XSD + "dateTimeStamp": classDateTime,
	XSD + "date":          classDate,
	XSD + "time":          classTime,
}

// number is an XSD numeric value: either ±infinity or a finite rational.
type number struct {
	inf int
	rat *big.Rat
}

func (n number) compare(o number) int {
	if n.inf != 0 || o.inf != 0 {
		return cmp.Compare(n.inf, o.inf)
	}
	return n.rat.Cmp(o.rat)
}

type xsdValue struct {
	class valueClass
	num   number
	t     time.Time
}

func parseXSD(l Literal) xsdValue {
	dt := l.DatatypeIRI()
	lex := strings.TrimSpace(l.Lexical)
	switch {
	case decimalTypes[dt]:
		if r, ok := parseDecimal(lex); ok {
			return xsdValue{class: classNumeric, num: number{rat: r}}
		}
	case floatTypes[dt]:
		if n, ok := parseFloat(lex); ok {
			return xsdValue{class: classNumeric, num: n}
		}
	default:
		if class, ok := temporalTypes[dt]; ok {
			for _, layout := range temporalLayouts[class] {
				if t, err := time.Parse(layout, lex); err == nil {
					return xsdValue{class: class, t: t}
				}
			}
		}
	}
	return xsdValue{class: classOther}
}

// parseDecimal accepts the xsd:decimal lexical space: optional sign, digits,
// optional fraction. Exponents and fractions of the form a/b are rejected.
func parseDecimal(s string) (*big.Rat, bool) {
	s = strings.TrimPrefix(s, "+")
	body := strings.TrimPrefix(s, "-")
	if body == "" || body == "." {
		return nil, false
	}
	dot := false
	for i := 0; i < len(body); i++ {
		switch c := body[i]; {
		case c == '.' && !dot:
			dot = true
		case c >= '0' && c <= '9':
		default:
			return nil, false
		}
	}
	r, ok := new(big.Rat).SetString(s)
	return r, ok
}

func parseFloat(s string) (number, bool) {
	switch s {
	case "INF", "+INF":
		return number{inf: 1}, true
	case "-INF":
		return number{inf: -1}, true
	case "NaN":
		return number{}, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return number{}, false
	}
	if math.IsInf(f, 0) {
		if f > 0 {
			return number{inf: 1}, true
		}
		return number{inf: -1}, true
	}
	return number{rat: new(big.Rat).SetFloat64(f)}, true
}

// compareXSD orders two XSD literals by value within a comparable class.
// Equal values (for example "1" and "01") fall back to the lexical order so
// the result stays total over distinct literals.
func compareXSD(a, b Literal) int {
	va, vb := parseXSD(a), parseXSD(b)
	if va.class != vb.class {
		return cmp.Compare(va.class, vb.class)
	}
	var c int
	switch va.class {
	case classNumeric:
		c = va.num.compare(vb.num)
	case classDateTime, classDate, classTime:
		c = va.t.Compare(vb.t)
	}
	if c != 0 {
		return c
	}
	return compareLexical(a, b)
}
