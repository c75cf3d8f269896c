package localfs

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xdao.co/rdfc/cidutil"
	"xdao.co/rdfc/storage"
	"xdao.co/rdfc/storage/casregistry"
	"xdao.co/rdfc/storage/testkit"
)

func TestLocalFS_Conformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
		t.Helper()
		cas, err := New(t.TempDir())
		require.NoError(t, err)
		return cas
	})
}

func TestLocalFS_RejectMutationByOverwrite(t *testing.T) {
	ctx := context.Background()
	cas, err := New(t.TempDir())
	require.NoError(t, err)

	orig := []byte("_:c14n0 <http://example.org/p> \"original\" .\n")
	id, err := cas.Put(ctx, orig)
	require.NoError(t, err)

	// corrupt the stored object out-of-band
	path := cas.pathFor(id)
	require.NoError(t, os.Chmod(path, 0o644))
	require.NoError(t, os.WriteFile(path, []byte("corrupted"), 0o644))

	_, err = cas.Get(ctx, id)
	assert.ErrorIs(t, err, storage.ErrCIDMismatch)

	// Put must not repair or overwrite the corrupted object
	_, err = cas.Put(ctx, orig)
	assert.ErrorIs(t, err, storage.ErrImmutable)

	wantID, err := cidutil.CIDv1RawSHA256CID(orig)
	require.NoError(t, err)
	assert.True(t, id.Equals(wantID))
}

func TestLocalFS_CanceledContext(t *testing.T) {
	cas, err := New(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = cas.Put(ctx, []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalFS_OpenWithConfig(t *testing.T) {
	dir := t.TempDir()
	cas, closeFn, err := casregistry.OpenWithConfig("localfs", casregistry.UsageDaemon, map[string]string{"localfs-dir": dir})
	require.NoError(t, err)
	assert.Nil(t, closeFn)

	id, err := cas.Put(context.Background(), []byte("configured"))
	require.NoError(t, err)
	ok, err := cas.Has(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, ok)

	_, _, err = casregistry.OpenWithConfig("localfs", casregistry.UsageDaemon, nil)
	assert.Error(t, err)
}
