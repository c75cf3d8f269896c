package canon

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xdao.co/rdfc/nquads"
	"xdao.co/rdfc/rdf"
)

const (
	p = rdf.IRI("http://example.org/p")
	q = rdf.IRI("http://example.org/q")
)

func bnode(id string) rdf.BlankNode { return rdf.BlankNode(id) }

func cycle(a, b, c string) []rdf.Quad {
	return []rdf.Quad{
		rdf.Triple(bnode(a), p, bnode(b)),
		rdf.Triple(bnode(b), p, bnode(c)),
		rdf.Triple(bnode(c), p, bnode(a)),
	}
}

func document(t *testing.T, quads []rdf.Quad, opts Options) string {
	t.Helper()
	out, err := Document(quads, opts)
	require.NoError(t, err)
	return string(out)
}

// relabel maps every blank node through a fresh random naming.
func relabel(quads []rdf.Quad, rng *rand.Rand) []rdf.Quad {
	names := make(map[rdf.BlankNode]rdf.BlankNode)
	rename := func(t rdf.Term) rdf.Term {
		b, ok := t.(rdf.BlankNode)
		if !ok {
			return t
		}
		if n, ok := names[b]; ok {
			return n
		}
		n := rdf.BlankNode(fmt.Sprintf("r%d_%d", rng.Intn(1000), len(names)))
		names[b] = n
		return n
	}
	out := make([]rdf.Quad, len(quads))
	for i, qd := range quads {
		out[i] = rdf.NewQuad(rename(qd.Subject), qd.Predicate, rename(qd.Object), rename(qd.GraphName()))
	}
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func TestCanonizeCycle(t *testing.T) {
	want := "_:c14n0 <http://example.org/p> _:c14n1 .\n" +
		"_:c14n1 <http://example.org/p> _:c14n2 .\n" +
		"_:c14n2 <http://example.org/p> _:c14n0 .\n"

	assert.Equal(t, want, document(t, cycle("x", "y", "z"), Options{}))
	assert.Equal(t, want, document(t, []rdf.Quad{
		rdf.Triple(bnode("n2"), p, bnode("n0")),
		rdf.Triple(bnode("n1"), p, bnode("n2")),
		rdf.Triple(bnode("n0"), p, bnode("n1")),
	}, Options{}))
}

func TestCanonizeWithoutBlankNodes(t *testing.T) {
	s := rdf.IRI("http://example.org/s")
	in := []rdf.Quad{
		rdf.Triple(s, q, rdf.IRI("http://example.org/o")),
		rdf.Triple(s, p, rdf.NewLiteral("v")),
		rdf.Triple(s, p, rdf.IRI("http://example.org/o")),
	}
	out, err := Canonize(in, Options{})
	require.NoError(t, err)

	want := []rdf.Quad{in[1], in[2], in[0]}
	assert.Equal(t, want, out)

	// normalization alone keeps the input order
	normalized, err := Normalize(in, Options{})
	require.NoError(t, err)
	assert.Equal(t, in, normalized)
}

func TestCanonizeAutomorphicNodes(t *testing.T) {
	s := rdf.IRI("http://example.org/s")
	want := "_:c14n0 <http://example.org/p> <http://example.org/s> .\n" +
		"_:c14n1 <http://example.org/p> <http://example.org/s> .\n"

	a := document(t, []rdf.Quad{rdf.Triple(bnode("e0"), p, s), rdf.Triple(bnode("e1"), p, s)}, Options{})
	b := document(t, []rdf.Quad{rdf.Triple(bnode("e1"), p, s), rdf.Triple(bnode("e0"), p, s)}, Options{})
	assert.Equal(t, want, a)
	assert.Equal(t, want, b)
}

func TestCanonizeMixedDegrees(t *testing.T) {
	in := []rdf.Quad{
		rdf.Triple(bnode("s"), p, bnode("a")),
		rdf.Triple(bnode("s"), p, bnode("b")),
		rdf.Triple(bnode("a"), q, rdf.NewLiteral("x")),
	}
	want := "_:c14n1 <http://example.org/q> \"x\" .\n" +
		"_:c14n2 <http://example.org/p> _:c14n0 .\n" +
		"_:c14n2 <http://example.org/p> _:c14n1 .\n"
	assert.Equal(t, want, document(t, in, Options{}))
}

func TestCanonizeSelfLoop(t *testing.T) {
	in := []rdf.Quad{rdf.Triple(bnode("x"), p, bnode("x"))}
	assert.Equal(t, "_:c14n0 <http://example.org/p> _:c14n0 .\n", document(t, in, Options{}))
}

func TestCanonizeIncludeGraph(t *testing.T) {
	o := rdf.IRI("http://example.org/o")
	in := []rdf.Quad{
		rdf.NewQuad(bnode("x"), p, bnode("y"), bnode("g")),
		rdf.NewQuad(bnode("y"), p, o, bnode("g")),
	}

	withGraph := "_:c14n1 <http://example.org/p> _:c14n2 _:c14n0 .\n" +
		"_:c14n2 <http://example.org/p> <http://example.org/o> _:c14n0 .\n"
	assert.Equal(t, withGraph, document(t, in, Options{IncludeGraph: true}))

	triples := "_:c14n0 <http://example.org/p> <http://example.org/o> .\n" +
		"_:c14n1 <http://example.org/p> _:c14n0 .\n"
	assert.Equal(t, triples, document(t, in, Options{}))
}

func TestCanonizeInvariantUnderRelabeling(t *testing.T) {
	s := rdf.IRI("http://example.org/s")
	inputs := map[string][]rdf.Quad{
		"cycle": cycle("a", "b", "c"),
		"two cycles": append(cycle("a", "b", "c"), cycle("d", "e", "f")...),
		"star": {
			rdf.Triple(bnode("hub"), p, bnode("l1")),
			rdf.Triple(bnode("hub"), p, bnode("l2")),
			rdf.Triple(bnode("hub"), p, bnode("l3")),
			rdf.Triple(bnode("l1"), q, s),
		},
		"graphs": {
			rdf.NewQuad(bnode("a"), p, bnode("b"), bnode("g1")),
			rdf.NewQuad(bnode("b"), p, bnode("a"), bnode("g2")),
			rdf.NewQuad(s, p, bnode("a"), nil),
		},
	}

	rng := rand.New(rand.NewSource(7))
	for name, in := range inputs {
		for _, includeGraph := range []bool{false, true} {
			t.Run(fmt.Sprintf("%s/graph=%v", name, includeGraph), func(t *testing.T) {
				opts := Options{IncludeGraph: includeGraph}
				want := document(t, in, opts)
				for i := 0; i < 10; i++ {
					assert.Equal(t, want, document(t, relabel(in, rng), opts))
				}
			})
		}
	}
}

func TestCanonizeIsIdempotent(t *testing.T) {
	in := append(cycle("a", "b", "c"), rdf.Triple(bnode("a"), q, rdf.NewLangLiteral("hi", "en")))
	first, err := Canonize(in, Options{})
	require.NoError(t, err)
	second, err := Canonize(first, Options{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCanonizeDistinctGraphsDiffer(t *testing.T) {
	a := cycle("a", "b", "c")
	b := []rdf.Quad{
		rdf.Triple(bnode("a"), p, bnode("b")),
		rdf.Triple(bnode("b"), p, bnode("a")),
		rdf.Triple(bnode("c"), p, bnode("c")),
	}
	same, err := Isomorphic(a, b, Options{})
	require.NoError(t, err)
	assert.False(t, same)

	same, err = Isomorphic(a, relabel(a, rand.New(rand.NewSource(1))), Options{})
	require.NoError(t, err)
	assert.True(t, same)
}

func TestNormalizeDropsDuplicates(t *testing.T) {
	in := []rdf.Quad{
		rdf.Triple(bnode("x"), p, rdf.NewLiteral("v")),
		rdf.Triple(bnode("x"), p, rdf.NewLiteral("v")),
		rdf.NewQuad(bnode("x"), p, rdf.NewLiteral("v"), rdf.IRI("http://example.org/g")),
	}
	out, err := Normalize(in, Options{})
	require.NoError(t, err)
	assert.Len(t, out, 1)

	out, err = Normalize(in, Options{IncludeGraph: true})
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestNormalizeEmpty(t *testing.T) {
	out, err := Normalize(nil, Options{})
	require.NoError(t, err)
	assert.Empty(t, out)

	doc, err := Document(nil, Options{})
	require.NoError(t, err)
	assert.Empty(t, doc)
}

func TestNDegreeBudget(t *testing.T) {
	_, err := Canonize(cycle("a", "b", "c"), Options{MaxNDegreeCalls: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBudgetExceeded))
	assert.True(t, IsKind(err, KindBudget))
	assert.Equal(t, "RDFC-BUDGET-001", RuleID(err))

	// nodes with unique first-degree hashes never reach the n-degree step
	in := []rdf.Quad{rdf.Triple(bnode("a"), p, bnode("b"))}
	_, err = Canonize(in, Options{MaxNDegreeCalls: 1})
	require.NoError(t, err)

	_, err = Canonize(cycle("a", "b", "c"), Options{MaxNDegreeCalls: 1000})
	require.NoError(t, err)
}

func TestCanonizeLargeSymmetricGraph(t *testing.T) {
	// a ring of eight identical nodes exercises deep recursion with pruning
	var in []rdf.Quad
	for i := 0; i < 8; i++ {
		in = append(in, rdf.Triple(bnode(fmt.Sprint("n", i)), p, bnode(fmt.Sprint("n", (i+1)%8))))
	}
	want := document(t, in, Options{})
	got := document(t, relabel(in, rand.New(rand.NewSource(3))), Options{})
	assert.Equal(t, want, got)
}

func TestNormalizeKeepsCanonicalLabels(t *testing.T) {
	in := []rdf.Quad{
		rdf.Triple(bnode("c14n5"), p, rdf.NewLiteral("x")),
		rdf.Triple(bnode("a"), p, bnode("b")),
		rdf.Triple(bnode("b"), q, rdf.NewLiteral("y")),
	}
	out, err := Normalize(in, Options{})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, rdf.Term(bnode("c14n5")), out[0].Subject)
	for _, qd := range out[1:] {
		assert.True(t, strings.HasPrefix(string(qd.Subject.(rdf.BlankNode)), CanonicalPrefix))
		assert.NotEqual(t, rdf.Term(bnode("a")), qd.Subject)
		assert.NotEqual(t, rdf.Term(bnode("b")), qd.Subject)
	}

	// a canonical document passes through untouched
	doc := document(t, in, Options{})
	assert.Contains(t, doc, "_:c14n5 <http://example.org/p> \"x\" .\n")
	again, err := nquads.ParseBytes([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, doc, document(t, again, Options{}))
}

func TestNormalizeDropsDuplicateImplicitStringLiterals(t *testing.T) {
	implicit := rdf.Triple(bnode("x"), p, rdf.Literal{Lexical: "v"})
	explicit := rdf.Triple(bnode("x"), p, rdf.NewLiteral("v"))

	out, err := Normalize([]rdf.Quad{implicit, explicit}, Options{})
	require.NoError(t, err)
	assert.Len(t, out, 1)

	want := document(t, []rdf.Quad{explicit}, Options{})
	assert.Equal(t, "_:c14n0 <http://example.org/p> \"v\" .\n", want)
	assert.Equal(t, want, document(t, []rdf.Quad{implicit, explicit}, Options{}))
	assert.Equal(t, want, document(t, []rdf.Quad{explicit, implicit}, Options{}))

	// language-tagged literals collapse the same way
	lang := rdf.Triple(bnode("x"), p, rdf.Literal{Lexical: "v", Language: "en"})
	out, err = Normalize([]rdf.Quad{lang, rdf.Triple(bnode("x"), p, rdf.NewLangLiteral("v", "en"))}, Options{})
	require.NoError(t, err)
	assert.Len(t, out, 1)
}
