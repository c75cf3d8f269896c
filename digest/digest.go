// Package digest hashes canonical RDF datasets and named graphs.
//
// A digest is taken over the canonical N-Quads document: every canonical
// line, in canonical order, terminated by "\n". Two datasets that differ only
// in blank node labels or statement order therefore digest identically.
package digest

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"

	"github.com/ipfs/go-cid"
	"golang.org/x/crypto/sha3"

	"xdao.co/rdfc/canon"
	"xdao.co/rdfc/cidutil"
	"xdao.co/rdfc/rdf"
)

// ErrEmptyScope is returned by Graph when the selected graph holds no
// statements.
var ErrEmptyScope = errors.New("digest: graph has no statements")

type Options struct {
	// IncludeGraph keeps graph names when digesting a whole dataset. Graph
	// always digests triples.
	IncludeGraph bool

	// HashAlg defaults to sha2-256.
	HashAlg cidutil.HashAlg

	MaxNDegreeCalls int
}

// Digest is the result of hashing a canonical document.
type Digest struct {
	Alg       cidutil.HashAlg
	Sum       []byte
	Canonical []byte
	Count     int
}

func (d Digest) Hex() string { return hex.EncodeToString(d.Sum) }

func (d Digest) Base64() string { return base64.StdEncoding.EncodeToString(d.Sum) }

// CID returns the raw CIDv1 addressing the canonical document.
func (d Digest) CID() (cid.Cid, error) {
	return cidutil.FromDigest(d.Alg, d.Sum)
}

// Dataset canonizes quads and hashes the canonical document.
func Dataset(quads []rdf.Quad, opts Options) (Digest, error) {
	out, err := canon.Canonize(quads, canon.Options{
		IncludeGraph:    opts.IncludeGraph,
		MaxNDegreeCalls: opts.MaxNDegreeCalls,
	})
	if err != nil {
		return Digest{}, err
	}
	return sum(opts.HashAlg, out)
}

// Graph digests the statements of one graph of a dataset. A nil graph selects
// the default graph. The selected statements are canonized as triples.
func Graph(quads []rdf.Quad, graph rdf.Term, opts Options) (Digest, error) {
	if graph == nil {
		graph = rdf.DefaultGraph{}
	}
	var scope []rdf.Quad
	for _, q := range quads {
		if q.GraphName() == graph {
			scope = append(scope, q.AsTriple())
		}
	}
	if len(scope) == 0 {
		return Digest{}, fmt.Errorf("%w: %s", ErrEmptyScope, graphName(graph))
	}
	opts.IncludeGraph = false
	return Dataset(scope, opts)
}

// Sum hashes data with alg.
func Sum(alg cidutil.HashAlg, data []byte) ([]byte, error) {
	h, err := New(alg)
	if err != nil {
		return nil, err
	}
	_, _ = h.Write(data)
	return h.Sum(nil), nil
}

// New returns a fresh hash for alg.
func New(alg cidutil.HashAlg) (hash.Hash, error) {
	switch alg {
	case cidutil.SHA2_256, "":
		return sha256.New(), nil
	case cidutil.SHA2_512:
		return sha512.New(), nil
	case cidutil.SHA3_256:
		return sha3.New256(), nil
	default:
		return nil, fmt.Errorf("digest: unsupported hash algorithm %q", string(alg))
	}
}

func sum(alg cidutil.HashAlg, quads []rdf.Quad) (Digest, error) {
	if alg == "" {
		alg = cidutil.SHA2_256
	}
	h, err := New(alg)
	if err != nil {
		return Digest{}, err
	}
	var doc []byte
	for _, q := range quads {
		start := len(doc)
		doc = rdf.AppendQuad(doc, q)
		_, _ = h.Write(doc[start:])
	}
	return Digest{Alg: alg, Sum: h.Sum(nil), Canonical: doc, Count: len(quads)}, nil
}

func graphName(t rdf.Term) string {
	if rdf.IsDefaultGraph(t) {
		return "default graph"
	}
	return t.String()
}
