package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ipfs/go-cid"

	"xdao.co/rdfc/canon"
	"xdao.co/rdfc/nquads"
	"xdao.co/rdfc/rdf"
)

// DatasetStore stores RDF datasets by the CID of their canonical N-Quads
// document. Reads re-check that the stored bytes are still canonical.
type DatasetStore struct {
	CAS     CAS
	Options canon.Options
}

// PutDataset canonicalizes quads and stores the canonical document.
func (s DatasetStore) PutDataset(ctx context.Context, quads []rdf.Quad) (cid.Cid, error) {
	doc, err := canon.Document(quads, s.Options)
	if err != nil {
		return cid.Undef, err
	}
	return s.CAS.Put(ctx, doc)
}

// PutDocument stores an N-Quads document that must already be canonical.
// Anything else is rejected with ErrNotCanonical.
func (s DatasetStore) PutDocument(ctx context.Context, doc []byte) (cid.Cid, error) {
	if _, err := s.check(doc); err != nil {
		return cid.Undef, err
	}
	return s.CAS.Put(ctx, doc)
}

// GetDocument returns the canonical document stored under id.
func (s DatasetStore) GetDocument(ctx context.Context, id cid.Cid) ([]byte, error) {
	doc, err := s.CAS.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.check(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetDataset returns the canonical statements stored under id.
func (s DatasetStore) GetDataset(ctx context.Context, id cid.Cid) ([]rdf.Quad, error) {
	doc, err := s.CAS.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.check(doc)
}

// check parses doc and verifies that canonicalizing it reproduces it byte
// for byte.
func (s DatasetStore) check(doc []byte) ([]rdf.Quad, error) {
	quads, err := nquads.ParseBytes(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotCanonical, err)
	}
	out, err := canon.Canonize(quads, s.Options)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(rdf.Serialize(out), doc) {
		return nil, ErrNotCanonical
	}
	return out, nil
}
