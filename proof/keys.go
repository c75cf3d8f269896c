package proof

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
)

const (
	AlgEd25519    = "ed25519"
	AlgDilithium3 = "dilithium3"
)

// IssuerKeyFromPublicKey encodes an Ed25519 public key as "ed25519:" +
// base64(pubkey).
func IssuerKeyFromPublicKey(pub ed25519.PublicKey) (string, error) {
	if l := len(pub); l != ed25519.PublicKeySize {
		return "", fmt.Errorf("ed25519 public key must be %d bytes, got %d", ed25519.PublicKeySize, l)
	}
	return AlgEd25519 + ":" + base64.StdEncoding.EncodeToString(pub), nil
}

// IssuerKeyFromDilithium3 encodes a Dilithium3 public key.
func IssuerKeyFromDilithium3(pub *mode3.PublicKey) (string, error) {
	if pub == nil {
		return "", fmt.Errorf("missing dilithium3 public key")
	}
	raw, err := pub.MarshalBinary()
	if err != nil {
		return "", err
	}
	return AlgDilithium3 + ":" + base64.StdEncoding.EncodeToString(raw), nil
}

// GenerateDilithium3Keypair returns a new Dilithium3 keypair.
func GenerateDilithium3Keypair(rand io.Reader) (*mode3.PublicKey, *mode3.PrivateKey, error) {
	return mode3.GenerateKey(rand)
}

// DeriveSeed deterministically derives a purpose-specific 32-byte seed from
// a root seed. The same seed feeds either signature scheme.
func DeriveSeed(rootSeed []byte, purpose string) ([]byte, error) {
	if len(rootSeed) != ed25519.SeedSize {
		return nil, fmt.Errorf("root seed must be %d bytes", ed25519.SeedSize)
	}
	if purpose == "" {
		return nil, fmt.Errorf("purpose cannot be empty")
	}
	h := sha256.New()
	_, _ = h.Write(rootSeed)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte("xdao-rdfc-proof-v1"))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(purpose))
	return h.Sum(nil), nil
}

// SignerFromSeed builds a signer for alg from a 32-byte seed.
func SignerFromSeed(alg string, seed []byte) (Signer, error) {
	switch alg {
	case AlgEd25519:
		if len(seed) != ed25519.SeedSize {
			return nil, fmt.Errorf("ed25519 seed must be %d bytes", ed25519.SeedSize)
		}
		return NewEd25519Signer(ed25519.NewKeyFromSeed(seed)), nil
	case AlgDilithium3:
		var s [mode3.SeedSize]byte
		if len(seed) != len(s) {
			return nil, fmt.Errorf("dilithium3 seed must be %d bytes", len(s))
		}
		copy(s[:], seed)
		_, sk := mode3.NewKeyFromSeed(&s)
		return NewDilithium3Signer(sk), nil
	default:
		return nil, fmt.Errorf("unsupported signature algorithm %q", alg)
	}
}

// issuerPublicKey decodes "alg:base64" and checks the key shape.
func issuerPublicKey(issuer string) (string, []byte, error) {
	alg, enc, ok := strings.Cut(issuer, ":")
	if !ok {
		return "", nil, newError(KindCrypto, "RDFC-PROOF-111", "invalid Issuer-Key encoding")
	}
	pub, err := decodeBase64(enc)
	if err != nil {
		return "", nil, wrapError(KindCrypto, "RDFC-PROOF-113", "invalid issuer key base64", err)
	}
	switch alg {
	case AlgEd25519:
		if len(pub) != ed25519.PublicKeySize {
			return "", nil, newError(KindCrypto, "RDFC-PROOF-114", "invalid ed25519 public key length")
		}
	case AlgDilithium3:
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return "", nil, wrapError(KindCrypto, "RDFC-PROOF-115", "invalid dilithium3 public key", err)
		}
	default:
		return "", nil, newError(KindCrypto, "RDFC-PROOF-112", "unsupported issuer key encoding")
	}
	return alg, pub, nil
}

func decodeBase64(s string) ([]byte, error) {
	// padded preferred, raw accepted
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}
