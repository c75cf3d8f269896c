package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"xdao.co/rdfc/cidutil"
	"xdao.co/rdfc/keys"
	"xdao.co/rdfc/proof"
)

// keyDir overrides the key store directory; empty uses ~/.xdao/rdfc/keys.
var keyDir = os.Getenv("RDFC_KEY_DIR")

func openKeyStore(errOut io.Writer) (*keys.KeyStore, bool) {
	ks, err := keys.Open(keyDir)
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return nil, false
	}
	return ks, true
}

func cmdSign(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var cf canonFlags
	cf.add(fs)

	var seedHex, signer, purpose, keyFile, sigAlg, hashAlg string
	fs.StringVar(&seedHex, "seed-hex", "", "32-byte seed as 64 hex chars")
	fs.StringVar(&signer, "signer", "", "Stored key name")
	fs.StringVar(&purpose, "purpose", "", "Derived purpose key of --signer")
	fs.StringVar(&keyFile, "key-file", "", "Path to a hex seed file")
	fs.StringVar(&sigAlg, "sig-alg", proof.AlgEd25519, "Signature algorithm: ed25519, dilithium3")
	fs.StringVar(&hashAlg, "alg", string(cidutil.SHA2_256), "Dataset hash: sha2-256, sha2-512, sha3-256")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: rdfc sign (--seed-hex <64hex> | --signer <name> | --key-file <path>) [flags] <file|->")
		return 2
	}
	alg, err := cidutil.ParseHashAlg(hashAlg)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --alg: %v\n", err)
		return 2
	}

	ks, ok := openKeyStore(errOut)
	if !ok {
		return 1
	}
	seed, err := ks.LoadSeed(seedHex, keyFile, signer, purpose)
	if err != nil {
		if errors.Is(err, keys.ErrNoSigner) {
			fmt.Fprintln(errOut, "missing signer (use --seed-hex, --signer or --key-file)")
			return 2
		}
		fmt.Fprintf(errOut, "load key: %v\n", err)
		return 1
	}
	s, err := proof.SignerFromSeed(sigAlg, seed)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --sig-alg: %v\n", err)
		return 2
	}

	log := newLogger(errOut, cf.verbose)
	quads, ok := loadQuads(fs.Arg(0), log, errOut)
	if !ok {
		return 1
	}
	doc, err := proof.Sign(quads, s, proof.Options{
		HashAlg:         alg,
		IncludeGraph:    cf.includeGraph,
		MaxNDegreeCalls: cf.maxNDegree,
	})
	if err != nil {
		reportCanonError(errOut, err)
		return 1
	}
	_, _ = out.Write(doc)
	return 0
}

func cmdVerify(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var maxNDegree int
	var verbose bool
	var proofPath string
	fs.StringVar(&proofPath, "proof", "", "Proof document")
	fs.IntVar(&maxNDegree, "max-ndegree", 0, "Maximum n-degree hash invocations (0 = unlimited)")
	fs.BoolVar(&verbose, "v", false, "Verbose (debug) logging")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if proofPath == "" || fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: rdfc verify --proof <proof> <file|->")
		return 2
	}
	p, err := os.ReadFile(proofPath)
	if err != nil {
		fmt.Fprintf(errOut, "read --proof: %v\n", err)
		return 1
	}
	log := newLogger(errOut, verbose)
	quads, ok := loadQuads(fs.Arg(0), log, errOut)
	if !ok {
		return 1
	}
	doc, err := proof.Verify(quads, p, maxNDegree)
	if err != nil {
		if id := proof.RuleID(err); id != "" {
			log.Debug("verification failed", "rule_id", id)
		}
		fmt.Fprintf(errOut, "verify: %v\n", err)
		return 1
	}
	log.Debug("verified", "issuer", doc.IssuerKey, "cid", doc.DatasetCID)
	_, _ = fmt.Fprintln(out, doc.DatasetCID)
	return 0
}

func cmdKey(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printKeyUsage(errOut)
		return 2
	}
	switch args[0] {
	case "init":
		return cmdKeyInit(args[1:], out, errOut)
	case "derive":
		return cmdKeyDerive(args[1:], out, errOut)
	case "list":
		return cmdKeyList(args[1:], out, errOut)
	case "export":
		return cmdKeyExport(args[1:], out, errOut)
	case "help", "-h", "--help":
		printKeyUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown key subcommand: %s\n\n", args[0])
		printKeyUsage(errOut)
		return 2
	}
}

func printKeyUsage(w io.Writer) {
	fmt.Fprintln(w, "rdfc key: local signing seeds (RDFC_KEY_DIR or ~/.xdao/rdfc/keys)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  rdfc key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  rdfc key derive --name <name> --purpose <purpose> [--force]")
	fmt.Fprintln(w, "  rdfc key list")
	fmt.Fprintln(w, "  rdfc key export --name <name> [--purpose <purpose>] [--sig-alg ed25519|dilithium3]")
}

func cmdKeyInit(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key init", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var name, seedHex string
	var force bool
	fs.StringVar(&name, "name", "", "Key name")
	fs.StringVar(&seedHex, "seed-hex", "", "Optional seed as 64 hex chars (for reproducible demos)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := keys.CheckName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}

	var seed []byte
	if seedHex != "" {
		var err error
		seed, err = keys.ParseSeedHex(seedHex)
		if err != nil {
			fmt.Fprintf(errOut, "invalid --seed-hex: %v\n", err)
			return 2
		}
	} else {
		seed = make([]byte, ed25519.SeedSize)
		if _, err := rand.Read(seed); err != nil {
			fmt.Fprintf(errOut, "rand: %v\n", err)
			return 1
		}
	}

	ks, ok := openKeyStore(errOut)
	if !ok {
		return 1
	}
	path, err := ks.Init(name, seed, force)
	if err != nil {
		fmt.Fprintf(errOut, "write key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Stored at: %s\n", path)
	return 0
}

func cmdKeyDerive(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key derive", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var name, purpose string
	var force bool
	fs.StringVar(&name, "name", "", "Root key name")
	fs.StringVar(&purpose, "purpose", "", "Purpose identifier (e.g. datasets, releases)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := keys.CheckName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}
	if err := keys.CheckName(purpose); err != nil {
		fmt.Fprintf(errOut, "invalid --purpose: %v\n", err)
		return 2
	}
	ks, ok := openKeyStore(errOut)
	if !ok {
		return 1
	}
	path, err := ks.Derive(name, purpose, force)
	if err != nil {
		fmt.Fprintf(errOut, "derive key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Stored at: %s\n", path)
	return 0
}

func cmdKeyList(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key list", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	ks, ok := openKeyStore(errOut)
	if !ok {
		return 1
	}
	entries, err := ks.List()
	if err != nil {
		fmt.Fprintf(errOut, "list keys: %v\n", err)
		return 1
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s\n", e.Name)
		for _, p := range e.Purposes {
			fmt.Fprintf(out, "  - %s\n", p)
		}
	}
	return 0
}

func cmdKeyExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key export", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var name, purpose, sigAlg string
	fs.StringVar(&name, "name", "", "Key name")
	fs.StringVar(&purpose, "purpose", "", "Optional purpose (exports the derived key)")
	fs.StringVar(&sigAlg, "sig-alg", proof.AlgEd25519, "Signature algorithm: ed25519, dilithium3")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if err := keys.CheckName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}
	ks, ok := openKeyStore(errOut)
	if !ok {
		return 1
	}
	issuerKey, err := ks.IssuerKey(name, purpose, sigAlg)
	if err != nil {
		fmt.Fprintf(errOut, "export key: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, issuerKey)
	return 0
}
