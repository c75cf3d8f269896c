// Package storage persists canonical RDF documents in content-addressed
// stores.
//
// Every object is addressed by the CIDv1 (raw codec, sha2-256) of its bytes.
// Datasets enter storage only through their canonical N-Quads form, so the
// address of a dataset is independent of blank node labels and statement
// order.
package storage

import (
	"context"

	"github.com/ipfs/go-cid"
)

// CAS is a minimal content-addressable storage interface.
//
// Contract:
// - Put MUST be idempotent.
// - Stored objects MUST be immutable.
// - CIDs MUST be derived from the bytes written.
// - Get MUST return ErrNotFound when the CID is absent and ErrInvalidCID for
//   an undefined CID.
type CAS interface {
	Put(ctx context.Context, data []byte) (cid.Cid, error)
	Get(ctx context.Context, id cid.Cid) ([]byte, error)
	Has(ctx context.Context, id cid.Cid) (bool, error)
}
