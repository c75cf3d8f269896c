// Package cidutil derives content identifiers for canonical documents.
//
// Every identifier is a CIDv1 with the "raw" multicodec: the addressed bytes
// are the canonical N-Quads document itself.
package cidutil

import (
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// HashAlg names a supported multihash function.
type HashAlg string

const (
	SHA2_256 HashAlg = "sha2-256"
	SHA2_512 HashAlg = "sha2-512"
	SHA3_256 HashAlg = "sha3-256"
)

// Code returns the multihash code for alg.
func (a HashAlg) Code() (uint64, error) {
	switch a {
	case SHA2_256, "":
		return multihash.SHA2_256, nil
	case SHA2_512:
		return multihash.SHA2_512, nil
	case SHA3_256:
		return multihash.SHA3_256, nil
	default:
		return 0, fmt.Errorf("cidutil: unsupported hash algorithm %q", string(a))
	}
}

// ParseHashAlg validates a user-supplied algorithm name.
func ParseHashAlg(s string) (HashAlg, error) {
	a := HashAlg(s)
	if _, err := a.Code(); err != nil {
		return "", err
	}
	if a == "" {
		return SHA2_256, nil
	}
	return a, nil
}

// CIDv1RawSHA256 returns a CIDv1 string using the "raw" multicodec
// and a sha2-256 multihash.
func CIDv1RawSHA256(data []byte) string {
	c, err := CIDv1RawSHA256CID(data)
	if err != nil {
		// unreachable for SHA2_256 with default length
		return ""
	}
	return c.String()
}

// CIDv1RawSHA256CID returns a CIDv1 (raw + sha2-256) derived from data.
func CIDv1RawSHA256CID(data []byte) (cid.Cid, error) {
	return CIDv1Raw(data, SHA2_256)
}

// CIDv1Raw hashes data with alg and wraps the multihash in a raw CIDv1.
func CIDv1Raw(data []byte, alg HashAlg) (cid.Cid, error) {
	code, err := alg.Code()
	if err != nil {
		return cid.Undef, err
	}
	sum, err := multihash.Sum(data, code, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// FromDigest wraps an already computed digest in a raw CIDv1.
func FromDigest(alg HashAlg, digest []byte) (cid.Cid, error) {
	code, err := alg.Code()
	if err != nil {
		return cid.Undef, err
	}
	mh, err := multihash.Encode(digest, code)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, mh), nil
}

// Verify reports whether c addresses data, recomputing the digest with the
// hash function recorded in c.
func Verify(c cid.Cid, data []byte) (bool, error) {
	if !c.Defined() {
		return false, fmt.Errorf("cidutil: undefined CID")
	}
	got, err := c.Prefix().Sum(data)
	if err != nil {
		return false, err
	}
	return got.Equals(c), nil
}
