package proof

import (
	"crypto/ed25519"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xdao.co/rdfc/cidutil"
	"xdao.co/rdfc/rdf"
)

type deterministicReader struct{ b byte }

func (r *deterministicReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r.b
		r.b++
	}
	return len(p), nil
}

const pred = rdf.IRI("http://example.org/knows")

func dataset(a, b string) []rdf.Quad {
	return []rdf.Quad{
		rdf.Triple(rdf.BlankNode(a), pred, rdf.BlankNode(b)),
		rdf.Triple(rdf.BlankNode(b), pred, rdf.NewLiteral("leaf")),
	}
}

func seed() []byte {
	s := make([]byte, ed25519.SeedSize)
	for i := range s {
		s[i] = byte(i)
	}
	return s
}

func TestSignVerifyEd25519(t *testing.T) {
	signer, err := SignerFromSeed(AlgEd25519, seed())
	require.NoError(t, err)

	out, err := Sign(dataset("x", "y"), signer, Options{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), Preamble+"\nDataset-CID: "))
	assert.True(t, strings.HasSuffix(string(out), "\n"+Postamble))

	// relabeled and reordered statements verify against the same proof
	in := dataset("q", "r")
	in[0], in[1] = in[1], in[0]
	doc, err := Verify(in, out, 0)
	require.NoError(t, err)
	assert.Equal(t, AlgEd25519, doc.SignatureAlg)
	assert.Equal(t, string(cidutil.SHA2_256), doc.HashAlg)
	assert.False(t, doc.IncludeGraph)
}

func TestSignVerifyDilithium3(t *testing.T) {
	_, sk, err := GenerateDilithium3Keypair(&deterministicReader{})
	require.NoError(t, err)

	out, err := Sign(dataset("x", "y"), NewDilithium3Signer(sk), Options{HashAlg: cidutil.SHA3_256, IncludeGraph: true})
	require.NoError(t, err)

	doc, err := Verify(dataset("a", "b"), out, 0)
	require.NoError(t, err)
	assert.Equal(t, AlgDilithium3, doc.SignatureAlg)
	assert.Equal(t, "sha3-256", doc.HashAlg)
	assert.True(t, doc.IncludeGraph)
}

func TestVerifyRejectsDifferentDataset(t *testing.T) {
	signer, err := SignerFromSeed(AlgEd25519, seed())
	require.NoError(t, err)
	out, err := Sign(dataset("x", "y"), signer, Options{})
	require.NoError(t, err)

	other := append(dataset("x", "y"), rdf.Triple(rdf.IRI("http://example.org/s"), pred, rdf.NewLiteral("extra")))
	_, err = Verify(other, out, 0)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindMismatch))
	assert.Equal(t, "RDFC-PROOF-301", RuleID(err))
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	signer, err := SignerFromSeed(AlgEd25519, seed())
	require.NoError(t, err)
	out, err := Sign(dataset("x", "y"), signer, Options{})
	require.NoError(t, err)

	doc, err := Parse(out)
	require.NoError(t, err)
	other, err := SignerFromSeed(AlgEd25519, make([]byte, ed25519.SeedSize))
	require.NoError(t, err)
	doc.IssuerKey, err = other.IssuerKey()
	require.NoError(t, err)
	forged, err := Render(*doc)
	require.NoError(t, err)

	_, err = Verify(dataset("x", "y"), forged, 0)
	require.Error(t, err)
	assert.Equal(t, "RDFC-PROOF-401", RuleID(err))
}

func TestVerifyRejectsAlgMismatch(t *testing.T) {
	signer, err := SignerFromSeed(AlgEd25519, seed())
	require.NoError(t, err)
	out, err := Sign(dataset("x", "y"), signer, Options{})
	require.NoError(t, err)

	doc, err := Parse(out)
	require.NoError(t, err)
	doc.SignatureAlg = AlgDilithium3
	forged, err := Render(*doc)
	require.NoError(t, err)

	_, err = Verify(dataset("x", "y"), forged, 0)
	assert.Equal(t, "RDFC-PROOF-121", RuleID(err))
}

func TestRenderParseCanonical(t *testing.T) {
	doc := Document{
		DatasetCID:   "bafkreiexample",
		HashAlg:      "sha2-256",
		IncludeGraph: true,
		IssuerKey:    "ed25519:AAAA",
		Signature:    "c2ln",
		SignatureAlg: AlgEd25519,
	}
	out, err := Render(doc)
	require.NoError(t, err)
	want := Preamble + "\n" +
		"Dataset-CID: bafkreiexample\n" +
		"Hash-Alg: sha2-256\n" +
		"Include-Graph: true\n" +
		"Issuer-Key: ed25519:AAAA\n" +
		"Signature: c2ln\n" +
		"Signature-Alg: ed25519\n" +
		Postamble
	assert.Equal(t, want, string(out))

	parsed, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, doc, *parsed)

	doc.Signature = ""
	_, err = Render(doc)
	assert.Equal(t, "RDFC-PROOF-030", RuleID(err))
}

func TestParseRejectsNonCanonical(t *testing.T) {
	valid, err := Render(Document{
		DatasetCID: "c", HashAlg: "sha2-256", IssuerKey: "ed25519:AA",
		Signature: "s", SignatureAlg: AlgEd25519,
	})
	require.NoError(t, err)
	text := string(valid)

	tests := []struct {
		name  string
		input string
		rule  string
	}{
		{"trailing newline", text + "\n", "RDFC-PROOF-003"},
		{"crlf", strings.ReplaceAll(text, "\n", "\r\n"), "RDFC-PROOF-001"},
		{"bom", "\ufeff" + text, "RDFC-PROOF-002"},
		{"no preamble", strings.TrimPrefix(text, Preamble+"\n"), "RDFC-PROOF-010"},
		{"no postamble", strings.TrimSuffix(text, "\n"+Postamble), "RDFC-PROOF-010"},
		{"unsorted", strings.Replace(text, "Dataset-CID: c\nHash-Alg: sha2-256", "Hash-Alg: sha2-256\nDataset-CID: c", 1), "RDFC-PROOF-020"},
		{"missing key", strings.Replace(text, "Signature: s\n", "", 1), "RDFC-PROOF-040"},
		{"bad bool", strings.Replace(text, "Include-Graph: false", "Include-Graph: no", 1), "RDFC-PROOF-042"},
		{"bad pair", strings.Replace(text, "Signature: s", "Signature:s", 1), "RDFC-PROOF-030"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.input))
			require.Error(t, err)
			assert.Equal(t, tc.rule, RuleID(err))
		})
	}
}

func TestDeriveSeed(t *testing.T) {
	a, err := DeriveSeed(seed(), "datasets")
	require.NoError(t, err)
	b, err := DeriveSeed(seed(), "datasets")
	require.NoError(t, err)
	c, err := DeriveSeed(seed(), "other")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 32)

	_, err = DeriveSeed([]byte("short"), "datasets")
	assert.Error(t, err)

	signer, err := SignerFromSeed(AlgDilithium3, a)
	require.NoError(t, err)
	key, err := signer.IssuerKey()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "dilithium3:"))
}

func TestEd25519SignerWithoutKey(t *testing.T) {
	for _, key := range []ed25519.PrivateKey{nil, make(ed25519.PrivateKey, 16)} {
		signer := NewEd25519Signer(key)

		_, err := signer.IssuerKey()
		require.Error(t, err)
		assert.True(t, IsKind(err, KindCrypto))
		assert.Equal(t, "RDFC-PROOF-501", RuleID(err))

		_, err = Sign(dataset("a", "b"), signer, Options{})
		assert.Equal(t, "RDFC-PROOF-501", RuleID(err))
	}
}
