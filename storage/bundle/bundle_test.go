package bundle_test

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xdao.co/rdfc/rdf"
	"xdao.co/rdfc/storage"
	"xdao.co/rdfc/storage/bundle"
	"xdao.co/rdfc/storage/localfs"
)

const p = rdf.IRI("http://example.org/p")

func datasets(t *testing.T, store storage.DatasetStore) (cid.Cid, cid.Cid) {
	t.Helper()
	ctx := context.Background()
	a, err := store.PutDataset(ctx, []rdf.Quad{
		rdf.Triple(rdf.BlankNode("x"), p, rdf.BlankNode("y")),
		rdf.Triple(rdf.BlankNode("y"), p, rdf.NewLiteral("a")),
	})
	require.NoError(t, err)
	b, err := store.PutDataset(ctx, []rdf.Quad{
		rdf.Triple(rdf.IRI("http://example.org/s"), p, rdf.NewLiteral("b")),
	})
	require.NoError(t, err)
	return a, b
}

func TestBundle_ExportIsDeterministic(t *testing.T) {
	ctx := context.Background()
	cas, err := localfs.New(t.TempDir())
	require.NoError(t, err)
	store := storage.DatasetStore{CAS: cas}
	id1, id2 := datasets(t, store)

	var outA, outB bytes.Buffer
	require.NoError(t, bundle.Export(ctx, &outA, store, []cid.Cid{id2, id1}, bundle.ExportOptions{IncludeIndex: true}))
	require.NoError(t, bundle.Export(ctx, &outB, store, []cid.Cid{id1, id2, id1}, bundle.ExportOptions{IncludeIndex: true}))
	assert.Equal(t, outA.Bytes(), outB.Bytes())

	tr := tar.NewReader(bytes.NewReader(outA.Bytes()))
	var names []string
	var index []byte
	for {
		h, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, h.Name)
		assert.Equal(t, int64(0), h.ModTime.Unix())
		if h.Name == "index.json" {
			index, err = io.ReadAll(tr)
			require.NoError(t, err)
		}
	}
	require.Len(t, names, 3)
	assert.Equal(t, "index.json", names[2])

	var idx struct {
		Version  int `json:"version"`
		Datasets []struct {
			CID   string `json:"cid"`
			Quads int    `json:"quads"`
		} `json:"datasets"`
	}
	require.NoError(t, json.Unmarshal(index, &idx))
	assert.Equal(t, bundle.FormatVersion, idx.Version)
	require.Len(t, idx.Datasets, 2)
	assert.Less(t, idx.Datasets[0].CID, idx.Datasets[1].CID)
}

func TestBundle_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := storage.DatasetStore{CAS: storage.NewMemory()}
	id1, id2 := datasets(t, src)

	var buf bytes.Buffer
	require.NoError(t, bundle.Export(ctx, &buf, src, []cid.Cid{id1, id2}, bundle.ExportOptions{
		IncludeIndex: true,
		Labels:       map[string]cid.Cid{"people": id1},
	}))

	dst := storage.DatasetStore{CAS: storage.NewMemory()}
	got, err := bundle.Import(ctx, &buf, dst, bundle.ImportOptions{})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	for _, id := range []cid.Cid{id1, id2} {
		want, err := src.GetDocument(ctx, id)
		require.NoError(t, err)
		doc, err := dst.GetDocument(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, doc)
	}
}

func tarOf(t *testing.T, files map[string][]byte) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(content)), Typeflag: tar.TypeReg}))
		_, err := tw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	return &buf
}

func TestBundle_ImportRejects(t *testing.T) {
	ctx := context.Background()
	store := storage.DatasetStore{CAS: storage.NewMemory()}
	doc := []byte("<http://example.org/s> <http://example.org/p> \"b\" .\n")
	other := []byte("<http://example.org/s> <http://example.org/p> \"c\" .\n")
	id, err := storage.NewMemory().Put(ctx, doc)
	require.NoError(t, err)

	_, err = bundle.Import(ctx, tarOf(t, map[string][]byte{"datasets/" + id.String() + ".nq": other}), store, bundle.ImportOptions{})
	assert.ErrorIs(t, err, storage.ErrCIDMismatch)

	_, err = bundle.Import(ctx, tarOf(t, map[string][]byte{"datasets/" + id.String() + ".nq": []byte("_:b <http://example.org/p> \"b\" .\n")}), store, bundle.ImportOptions{})
	assert.ErrorIs(t, err, storage.ErrNotCanonical)

	_, err = bundle.Import(ctx, tarOf(t, map[string][]byte{"extra.txt": doc}), store, bundle.ImportOptions{})
	assert.Error(t, err)
	got, err := bundle.Import(ctx, tarOf(t, map[string][]byte{"extra.txt": doc}), store, bundle.ImportOptions{IgnoreUnknown: true})
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = bundle.Import(ctx, tarOf(t, map[string][]byte{"../datasets/x.nq": doc}), store, bundle.ImportOptions{})
	assert.Error(t, err)
}
