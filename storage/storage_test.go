package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xdao.co/rdfc/canon"
	"xdao.co/rdfc/cidutil"
	"xdao.co/rdfc/rdf"
	"xdao.co/rdfc/storage"
	"xdao.co/rdfc/storage/testkit"
)

func TestMemory_Conformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS { return storage.NewMemory() })
}

func TestMulti_Conformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
		return storage.MultiCAS{Adapters: []storage.CAS{storage.NewMemory(), storage.NewMemory()}}
	})
}

func TestReplicating_Conformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
		return storage.ReplicatingCAS{Backends: []storage.NamedCAS{
			{Name: "a", CAS: storage.NewMemory()},
			{Name: "b", CAS: storage.NewMemory()},
		}}
	})
}

func TestMultiFallsBackInOrder(t *testing.T) {
	ctx := context.Background()
	first, second := storage.NewMemory(), storage.NewMemory()
	id, err := second.Put(ctx, []byte("only in second"))
	require.NoError(t, err)

	m := storage.MultiCAS{Adapters: []storage.CAS{first, second}}
	got, err := m.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "only in second", string(got))

	_, err = m.Put(ctx, []byte("new"))
	require.NoError(t, err)
	assert.Equal(t, 1, first.Len())
	assert.Equal(t, 1, second.Len())

	_, err = storage.MultiCAS{}.Put(ctx, []byte("x"))
	assert.Error(t, err)
}

type wrongCAS struct{ storage.CAS }

func (wrongCAS) Put(context.Context, []byte) (cid.Cid, error) {
	return cidutil.CIDv1RawSHA256CID([]byte("something else"))
}

func TestReplicatingDetectsMismatch(t *testing.T) {
	r := storage.ReplicatingCAS{Backends: []storage.NamedCAS{
		{Name: "good", CAS: storage.NewMemory()},
		{Name: "bad", CAS: wrongCAS{storage.NewMemory()}},
	}}
	_, ids, err := r.PutAll(context.Background(), []byte("payload"))
	assert.ErrorIs(t, err, storage.ErrCIDMismatch)
	assert.Len(t, ids, 2)
}

const p = rdf.IRI("http://example.org/p")

func TestDatasetStore(t *testing.T) {
	ctx := context.Background()
	store := storage.DatasetStore{CAS: storage.NewMemory()}

	a := []rdf.Quad{
		rdf.Triple(rdf.BlankNode("x"), p, rdf.BlankNode("y")),
		rdf.Triple(rdf.BlankNode("y"), p, rdf.NewLiteral("leaf")),
	}
	b := []rdf.Quad{
		rdf.Triple(rdf.BlankNode("m"), p, rdf.NewLiteral("leaf")),
		rdf.Triple(rdf.BlankNode("n"), p, rdf.BlankNode("m")),
	}

	idA, err := store.PutDataset(ctx, a)
	require.NoError(t, err)
	idB, err := store.PutDataset(ctx, b)
	require.NoError(t, err)
	assert.True(t, idA.Equals(idB))

	doc, err := store.GetDocument(ctx, idA)
	require.NoError(t, err)
	want, err := canon.Document(a, canon.Options{})
	require.NoError(t, err)
	assert.Equal(t, want, doc)

	quads, err := store.GetDataset(ctx, idA)
	require.NoError(t, err)
	assert.Len(t, quads, 2)

	id, err := store.PutDocument(ctx, doc)
	require.NoError(t, err)
	assert.True(t, id.Equals(idA))
}

func TestDatasetStoreRejectsNonCanonical(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	store := storage.DatasetStore{CAS: mem}

	_, err := store.PutDocument(ctx, []byte("_:x <http://example.org/p> \"v\" .\n"))
	assert.ErrorIs(t, err, storage.ErrNotCanonical)

	_, err = store.PutDocument(ctx, []byte("not n-quads\n"))
	assert.ErrorIs(t, err, storage.ErrNotCanonical)

	// bytes written around the dataset store are caught on read
	id, err := mem.Put(ctx, []byte("<http://example.org/b> <http://example.org/p> \"v\" .\n<http://example.org/a> <http://example.org/p> \"v\" .\n"))
	require.NoError(t, err)
	_, err = store.GetDataset(ctx, id)
	assert.True(t, errors.Is(err, storage.ErrNotCanonical))
}

func TestDatasetStoreBudget(t *testing.T) {
	store := storage.DatasetStore{CAS: storage.NewMemory(), Options: canon.Options{MaxNDegreeCalls: 1}}
	cycle := []rdf.Quad{
		rdf.Triple(rdf.BlankNode("a"), p, rdf.BlankNode("b")),
		rdf.Triple(rdf.BlankNode("b"), p, rdf.BlankNode("c")),
		rdf.Triple(rdf.BlankNode("c"), p, rdf.BlankNode("a")),
	}
	_, err := store.PutDataset(context.Background(), cycle)
	assert.ErrorIs(t, err, canon.ErrBudgetExceeded)
}

func TestDatasetStoreImplicitStringLiteral(t *testing.T) {
	ctx := context.Background()
	store := storage.DatasetStore{CAS: storage.NewMemory()}

	id, err := store.PutDataset(ctx, []rdf.Quad{
		rdf.Triple(rdf.BlankNode("x"), p, rdf.Literal{Lexical: "v"}),
		rdf.Triple(rdf.BlankNode("x"), p, rdf.NewLiteral("v")),
	})
	require.NoError(t, err)

	doc, err := store.GetDocument(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "_:c14n0 <http://example.org/p> \"v\" .\n", string(doc))
}
