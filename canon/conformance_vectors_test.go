package canon

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xdao.co/rdfc/cidutil"
	"xdao.co/rdfc/nquads"
)

// Vectors live in testdata as <name>.in.nq (input), <name>.out.nq (canonical
// document) and <name>.cid. Names ending in ".graph" are canonicalized with
// graph names kept.
func TestConformanceVectors_RDFC1(t *testing.T) {
	root := filepath.Join("..", "testdata", "conformance", "rdfc", "rdfc-1")
	inputs, err := filepath.Glob(filepath.Join(root, "*.in.nq"))
	require.NoError(t, err)
	require.NotEmpty(t, inputs)

	for _, in := range inputs {
		name := strings.TrimSuffix(filepath.Base(in), ".in.nq")
		t.Run(name, func(t *testing.T) {
			opts := Options{IncludeGraph: strings.HasSuffix(name, ".graph")}

			src, err := os.ReadFile(in)
			require.NoError(t, err)
			want, err := os.ReadFile(filepath.Join(root, name+".out.nq"))
			require.NoError(t, err)
			wantCID, err := os.ReadFile(filepath.Join(root, name+".cid"))
			require.NoError(t, err)

			quads, err := nquads.ParseBytes(src)
			require.NoError(t, err)
			got, err := Document(quads, opts)
			require.NoError(t, err)
			assert.Equal(t, string(want), string(got))
			assert.Equal(t, strings.TrimSpace(string(wantCID)), cidutil.CIDv1RawSHA256(got))

			// the expected document is its own canonical form
			again, err := nquads.ParseBytes(want)
			require.NoError(t, err)
			fixed, err := Document(again, opts)
			require.NoError(t, err)
			assert.Equal(t, string(want), string(fixed))
		})
	}
}
