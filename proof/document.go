package proof

import (
	"sort"
	"strings"
)

const (
	Preamble  = "-----BEGIN RDFC PROOF-----"
	Postamble = "-----END RDFC PROOF-----"
)

const (
	keyDatasetCID   = "Dataset-CID"
	keyHashAlg      = "Hash-Alg"
	keyIncludeGraph = "Include-Graph"
	keyIssuerKey    = "Issuer-Key"
	keySignature    = "Signature"
	keySignatureAlg = "Signature-Alg"
)

var requiredKeys = []string{
	keyDatasetCID,
	keyHashAlg,
	keyIncludeGraph,
	keyIssuerKey,
	keySignature,
	keySignatureAlg,
}

// Document is the parsed form of a proof. Rendered bytes are canonical:
// fixed framing, keys in lexicographic order, LF line endings and no
// trailing newline.
type Document struct {
	DatasetCID   string
	HashAlg      string
	IncludeGraph bool
	IssuerKey    string
	Signature    string
	SignatureAlg string
}

func (d Document) pairs() map[string]string {
	include := "false"
	if d.IncludeGraph {
		include = "true"
	}
	return map[string]string{
		keyDatasetCID:   d.DatasetCID,
		keyHashAlg:      d.HashAlg,
		keyIncludeGraph: include,
		keyIssuerKey:    d.IssuerKey,
		keySignature:    d.Signature,
		keySignatureAlg: d.SignatureAlg,
	}
}

// Render produces canonical proof bytes.
func Render(d Document) ([]byte, error) {
	pairs := d.pairs()
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(Preamble)
	sb.WriteString("\n")
	for _, k := range keys {
		v := pairs[k]
		if err := checkValue(v); err != nil {
			return nil, err
		}
		sb.WriteString(k)
		sb.WriteString(": ")
		sb.WriteString(v)
		sb.WriteString("\n")
	}
	sb.WriteString(Postamble)
	return []byte(sb.String()), nil
}

func checkValue(v string) error {
	switch {
	case v == "":
		return newError(KindParse, "RDFC-PROOF-030", "empty value")
	case strings.HasPrefix(v, " "):
		return newError(KindParse, "RDFC-PROOF-030", "value must not start with a space")
	case strings.ContainsAny(v, "\r\n"):
		return newError(KindParse, "RDFC-PROOF-030", "value must not contain newlines")
	case strings.HasSuffix(v, " ") || strings.HasSuffix(v, "\t"):
		return newError(KindParse, "RDFC-PROOF-030", "trailing whitespace forbidden")
	}
	return nil
}

// Parse reads a proof, rejecting any non-canonical encoding.
func Parse(data []byte) (*Document, error) {
	text := string(data)
	switch {
	case strings.Contains(text, "\r"):
		return nil, newError(KindCanonical, "RDFC-PROOF-001", "CR line endings not allowed")
	case strings.HasPrefix(text, "\ufeff"):
		return nil, newError(KindCanonical, "RDFC-PROOF-002", "BOM not allowed")
	case strings.HasSuffix(text, "\n"):
		return nil, newError(KindCanonical, "RDFC-PROOF-003", "trailing newline not allowed")
	}

	lines := strings.Split(text, "\n")
	if len(lines) < 2 || lines[0] != Preamble {
		return nil, newError(KindParse, "RDFC-PROOF-010", "missing proof preamble")
	}
	if lines[len(lines)-1] != Postamble {
		return nil, newError(KindParse, "RDFC-PROOF-010", "missing proof postamble")
	}

	pairs := make(map[string]string, len(requiredKeys))
	prev := ""
	for _, line := range lines[1 : len(lines)-1] {
		k, v, ok := strings.Cut(line, ": ")
		if !ok || k == "" {
			return nil, newError(KindParse, "RDFC-PROOF-030", "invalid key-value formatting")
		}
		if err := checkValue(v); err != nil {
			return nil, err
		}
		if _, dup := pairs[k]; dup {
			return nil, newError(KindParse, "RDFC-PROOF-030", "duplicate key")
		}
		if k < prev {
			return nil, newError(KindCanonical, "RDFC-PROOF-020", "keys not sorted lexicographically")
		}
		prev = k
		pairs[k] = v
	}
	for _, k := range requiredKeys {
		if _, ok := pairs[k]; !ok {
			return nil, newError(KindParse, "RDFC-PROOF-040", "missing "+k)
		}
	}
	if len(pairs) != len(requiredKeys) {
		return nil, newError(KindParse, "RDFC-PROOF-041", "unknown key")
	}

	d := &Document{
		DatasetCID:   pairs[keyDatasetCID],
		HashAlg:      pairs[keyHashAlg],
		IssuerKey:    pairs[keyIssuerKey],
		Signature:    pairs[keySignature],
		SignatureAlg: pairs[keySignatureAlg],
	}
	switch pairs[keyIncludeGraph] {
	case "true":
		d.IncludeGraph = true
	case "false":
	default:
		return nil, newError(KindParse, "RDFC-PROOF-042", "Include-Graph must be true or false")
	}
	return d, nil
}
