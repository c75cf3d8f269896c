// Package proof signs canonical RDF datasets and verifies the resulting
// proof documents.
//
// The signed message is hash(canonical N-Quads document). Because the
// dataset is canonicalized first, a proof stays valid for any relabeling or
// reordering of the same statements.
package proof

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"

	"github.com/cloudflare/circl/sign/dilithium/mode3"

	"xdao.co/rdfc/cidutil"
	"xdao.co/rdfc/digest"
	"xdao.co/rdfc/rdf"
)

// Signer signs a dataset digest.
type Signer interface {
	Alg() string
	IssuerKey() (string, error)
	Sign(digest []byte) ([]byte, error)
}

type ed25519Signer struct{ key ed25519.PrivateKey }

func NewEd25519Signer(key ed25519.PrivateKey) Signer { return ed25519Signer{key: key} }

func (s ed25519Signer) Alg() string { return AlgEd25519 }

func (s ed25519Signer) IssuerKey() (string, error) {
	if len(s.key) != ed25519.PrivateKeySize {
		return "", newError(KindCrypto, "RDFC-PROOF-501", "missing private key")
	}
	pub, _ := s.key.Public().(ed25519.PublicKey)
	return IssuerKeyFromPublicKey(pub)
}

func (s ed25519Signer) Sign(digest []byte) ([]byte, error) {
	if len(s.key) != ed25519.PrivateKeySize {
		return nil, newError(KindCrypto, "RDFC-PROOF-501", "missing private key")
	}
	return ed25519.Sign(s.key, digest), nil
}

type dilithium3Signer struct{ key *mode3.PrivateKey }

func NewDilithium3Signer(key *mode3.PrivateKey) Signer { return dilithium3Signer{key: key} }

func (s dilithium3Signer) Alg() string { return AlgDilithium3 }

func (s dilithium3Signer) IssuerKey() (string, error) {
	if s.key == nil {
		return "", newError(KindCrypto, "RDFC-PROOF-501", "missing private key")
	}
	pub, _ := s.key.Public().(*mode3.PublicKey)
	return IssuerKeyFromDilithium3(pub)
}

func (s dilithium3Signer) Sign(digest []byte) ([]byte, error) {
	if s.key == nil {
		return nil, newError(KindCrypto, "RDFC-PROOF-501", "missing private key")
	}
	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(s.key, digest, sig)
	return sig, nil
}

// Options selects how the dataset is canonicalized and hashed.
type Options struct {
	HashAlg         cidutil.HashAlg
	IncludeGraph    bool
	MaxNDegreeCalls int
}

// Sign canonicalizes quads, hashes the canonical document and returns the
// rendered proof.
func Sign(quads []rdf.Quad, signer Signer, opts Options) ([]byte, error) {
	if signer == nil {
		return nil, newError(KindCrypto, "RDFC-PROOF-501", "missing signer")
	}
	alg := opts.HashAlg
	if alg == "" {
		alg = cidutil.SHA2_256
	}
	d, err := digest.Dataset(quads, digest.Options{
		IncludeGraph:    opts.IncludeGraph,
		HashAlg:         alg,
		MaxNDegreeCalls: opts.MaxNDegreeCalls,
	})
	if err != nil {
		return nil, err
	}
	c, err := d.CID()
	if err != nil {
		return nil, err
	}
	issuer, err := signer.IssuerKey()
	if err != nil {
		return nil, err
	}
	sig, err := signer.Sign(d.Sum)
	if err != nil {
		return nil, err
	}
	return Render(Document{
		DatasetCID:   c.String(),
		HashAlg:      string(alg),
		IncludeGraph: opts.IncludeGraph,
		IssuerKey:    issuer,
		Signature:    base64.StdEncoding.EncodeToString(sig),
		SignatureAlg: signer.Alg(),
	})
}

// Verify checks proof against quads. The dataset is canonicalized again with
// the proof's own Include-Graph and Hash-Alg; its CID must match Dataset-CID
// and the signature must verify under Issuer-Key. maxNDegreeCalls bounds the
// canonicalization (0 = unlimited).
func Verify(quads []rdf.Quad, proof []byte, maxNDegreeCalls int) (*Document, error) {
	doc, err := Parse(proof)
	if err != nil {
		return nil, err
	}
	alg, pub, err := issuerPublicKey(doc.IssuerKey)
	if err != nil {
		return nil, err
	}
	if alg != doc.SignatureAlg {
		return nil, newError(KindCrypto, "RDFC-PROOF-121", "Issuer-Key alg does not match Signature-Alg")
	}
	hashAlg, err := cidutil.ParseHashAlg(doc.HashAlg)
	if err != nil {
		return nil, wrapError(KindCrypto, "RDFC-PROOF-201", "unsupported Hash-Alg", err)
	}
	sig, err := decodeBase64(doc.Signature)
	if err != nil {
		return nil, wrapError(KindCrypto, "RDFC-PROOF-131", "invalid signature base64", err)
	}

	d, err := digest.Dataset(quads, digest.Options{
		IncludeGraph:    doc.IncludeGraph,
		HashAlg:         hashAlg,
		MaxNDegreeCalls: maxNDegreeCalls,
	})
	if err != nil {
		return nil, err
	}
	c, err := d.CID()
	if err != nil {
		return nil, err
	}
	if c.String() != doc.DatasetCID {
		return nil, newError(KindMismatch, "RDFC-PROOF-301",
			fmt.Sprintf("dataset CID %s does not match proof %s", c, doc.DatasetCID))
	}

	switch alg {
	case AlgEd25519:
		if len(sig) != ed25519.SignatureSize {
			return nil, newError(KindCrypto, "RDFC-PROOF-132", "invalid ed25519 signature length")
		}
		if !ed25519.Verify(ed25519.PublicKey(pub), d.Sum, sig) {
			return nil, newError(KindCrypto, "RDFC-PROOF-401", "signature invalid")
		}
	case AlgDilithium3:
		if len(sig) != mode3.SignatureSize {
			return nil, newError(KindCrypto, "RDFC-PROOF-133", "invalid dilithium3 signature length")
		}
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return nil, wrapError(KindCrypto, "RDFC-PROOF-115", "invalid dilithium3 public key", err)
		}
		if !mode3.Verify(&pk, d.Sum, sig) {
			return nil, newError(KindCrypto, "RDFC-PROOF-401", "signature invalid")
		}
	}
	return doc, nil
}
