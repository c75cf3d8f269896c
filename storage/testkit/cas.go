// Package testkit holds a conformance suite shared by every storage.CAS
// implementation.
package testkit

import (
	"context"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xdao.co/rdfc/cidutil"
	"xdao.co/rdfc/storage"
)

// NewCAS constructs a fresh, empty CAS instance for a test.
// The returned CAS MUST be isolated from other tests.
type NewCAS func(t *testing.T) storage.CAS

func RunCASConformance(t *testing.T, newCAS NewCAS) {
	t.Helper()
	ctx := context.Background()

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		cas := newCAS(t)
		want := []byte("_:c14n0 <http://example.org/p> \"conformance\" .\n")

		id, err := cas.Put(ctx, want)
		require.NoError(t, err)
		wantID, err := cidutil.CIDv1RawSHA256CID(want)
		require.NoError(t, err)
		require.True(t, id.Equals(wantID), "Put CID mismatch: got %s want %s", id, wantID)

		got, err := cas.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("PutIdempotent", func(t *testing.T) {
		cas := newCAS(t)
		b := []byte("same bytes")

		id1, err := cas.Put(ctx, b)
		require.NoError(t, err)
		id2, err := cas.Put(ctx, b)
		require.NoError(t, err)
		assert.True(t, id1.Equals(id2), "Put not idempotent: %s vs %s", id1, id2)
	})

	t.Run("HasAndNotFound", func(t *testing.T) {
		cas := newCAS(t)
		b := []byte("missing")
		id, err := cidutil.CIDv1RawSHA256CID(b)
		require.NoError(t, err)

		ok, err := cas.Has(ctx, id)
		require.NoError(t, err)
		assert.False(t, ok, "Has returned true for missing CID")

		_, err = cas.Get(ctx, id)
		assert.True(t, storage.IsNotFound(err), "Get missing: got err=%v want ErrNotFound", err)

		_, err = cas.Put(ctx, b)
		require.NoError(t, err)
		ok, err = cas.Has(ctx, id)
		require.NoError(t, err)
		assert.True(t, ok, "Has returned false after Put")
	})

	t.Run("RejectUndefCID", func(t *testing.T) {
		cas := newCAS(t)
		var undef cid.Cid
		ok, err := cas.Has(ctx, undef)
		require.NoError(t, err)
		assert.False(t, ok)
		_, err = cas.Get(ctx, undef)
		assert.Error(t, err)
	})
}
