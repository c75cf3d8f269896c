package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xdao.co/rdfc/nquads"
	"xdao.co/rdfc/rdf"
)

// Worked examples from the W3C RDF Dataset Canonicalization (RDFC-1.0)
// recommendation, with the published first-degree hashes and canonical
// output.

func firstDegreeHashes(t *testing.T, quads []rdf.Quad) map[string]string {
	t.Helper()
	n := &normalizer{index: make(map[string]*nodeInfo), canonical: NewIssuer(CanonicalPrefix)}
	n.collect(quads)
	out := make(map[string]string, len(n.order))
	for _, id := range n.order {
		out[id] = n.firstDegreeHash(id)
	}
	return out
}

func TestW3CExamples(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		hashes map[string]string
		want   string
	}{
		{
			name: "unique hashes",
			input: "<http://example.com/#p> <http://example.com/#q> _:e0 .\n" +
				"<http://example.com/#p> <http://example.com/#r> _:e1 .\n" +
				"_:e0 <http://example.com/#s> <http://example.com/#u> .\n" +
				"_:e1 <http://example.com/#t> <http://example.com/#u> .\n",
			hashes: map[string]string{
				"e0": "21d1dd5ba21f3dee9d76c0c00c260fa6f5d5d65315099e553026f4828d0dc77a",
				"e1": "6fa0b9bdb376852b5743ff39ca4cbf7ea14d34966b2828478fbf222e7c764473",
			},
			want: "<http://example.com/#p> <http://example.com/#q> _:c14n0 .\n" +
				"<http://example.com/#p> <http://example.com/#r> _:c14n1 .\n" +
				"_:c14n0 <http://example.com/#s> <http://example.com/#u> .\n" +
				"_:c14n1 <http://example.com/#t> <http://example.com/#u> .\n",
		},
		{
			name: "shared hashes",
			input: "<http://example.com/#p> <http://example.com/#q> _:e0 .\n" +
				"<http://example.com/#p> <http://example.com/#q> _:e1 .\n" +
				"_:e0 <http://example.com/#p> _:e2 .\n" +
				"_:e1 <http://example.com/#p> _:e3 .\n" +
				"_:e2 <http://example.com/#r> _:e3 .\n",
			hashes: map[string]string{
				"e0": "3b26142829b8887d011d779079a243bd61ab53c3990d550320a17b59ade6ba36",
				"e1": "3b26142829b8887d011d779079a243bd61ab53c3990d550320a17b59ade6ba36",
				"e2": "15973d39de079913dac841ac4fa8c4781c0febfba5e83e5c6e250869587f8659",
				"e3": "7e790a99273eed1dc57e43205d37ce232252c85b26ca4a6ff74ff3b5aea7bccd",
			},
			want: "<http://example.com/#p> <http://example.com/#q> _:c14n2 .\n" +
				"<http://example.com/#p> <http://example.com/#q> _:c14n3 .\n" +
				"_:c14n0 <http://example.com/#r> _:c14n1 .\n" +
				"_:c14n2 <http://example.com/#p> _:c14n1 .\n" +
				"_:c14n3 <http://example.com/#p> _:c14n0 .\n",
		},
		{
			name: "next prev cycle",
			input: "_:e0 <http://example.org/vocab#next> _:e1 .\n" +
				"_:e0 <http://example.org/vocab#prev> _:e2 .\n" +
				"_:e1 <http://example.org/vocab#next> _:e2 .\n" +
				"_:e1 <http://example.org/vocab#prev> _:e0 .\n" +
				"_:e2 <http://example.org/vocab#next> _:e0 .\n" +
				"_:e2 <http://example.org/vocab#prev> _:e1 .\n",
			hashes: map[string]string{
				"e0": "60dc8fc7b5481014b6ea38efb05455676d1e93e19b99119ab294941dacc16b3b",
				"e1": "60dc8fc7b5481014b6ea38efb05455676d1e93e19b99119ab294941dacc16b3b",
				"e2": "60dc8fc7b5481014b6ea38efb05455676d1e93e19b99119ab294941dacc16b3b",
			},
			want: "_:c14n0 <http://example.org/vocab#next> _:c14n2 .\n" +
				"_:c14n0 <http://example.org/vocab#prev> _:c14n1 .\n" +
				"_:c14n1 <http://example.org/vocab#next> _:c14n0 .\n" +
				"_:c14n1 <http://example.org/vocab#prev> _:c14n2 .\n" +
				"_:c14n2 <http://example.org/vocab#next> _:c14n1 .\n" +
				"_:c14n2 <http://example.org/vocab#prev> _:c14n0 .\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quads, err := nquads.ParseBytes([]byte(tt.input))
			require.NoError(t, err)

			assert.Equal(t, tt.hashes, firstDegreeHashes(t, quads))
			assert.Equal(t, tt.want, document(t, quads, Options{}))
		})
	}
}
