package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"xdao.co/rdfc/canon"
	"xdao.co/rdfc/nquads"
	"xdao.co/rdfc/rdf"
)

// stdin is read when an input file argument is "-".
var stdin io.Reader = os.Stdin

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "canonize":
		return cmdCanonize(args[1:], out, errOut)
	case "normalize":
		return cmdNormalize(args[1:], out, errOut)
	case "digest":
		return cmdDigest(args[1:], out, errOut)
	case "cid":
		return cmdCID(args[1:], out, errOut)
	case "equal":
		return cmdEqual(args[1:], out, errOut)
	case "sign":
		return cmdSign(args[1:], out, errOut)
	case "verify":
		return cmdVerify(args[1:], out, errOut)
	case "key":
		return cmdKey(args[1:], out, errOut)
	case "put":
		return cmdPut(args[1:], out, errOut)
	case "get":
		return cmdGet(args[1:], out, errOut)
	case "bundle":
		return cmdBundle(args[1:], out, errOut)
	case "remote":
		return cmdRemote(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "rdfc: RDF dataset canonicalization")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  rdfc canonize [-include-graph] [-max-ndegree N] <file|->")
	fmt.Fprintln(w, "  rdfc normalize [-include-graph] [-max-ndegree N] <file|->")
	fmt.Fprintln(w, "  rdfc digest [-alg sha2-256|sha2-512|sha3-256] [-encoding hex|base64|cid] [-graph <iri>|-default-graph] <file|->")
	fmt.Fprintln(w, "  rdfc cid [-alg <alg>] [-include-graph] <file|->")
	fmt.Fprintln(w, "  rdfc equal [-include-graph] <a> <b>")
	fmt.Fprintln(w, "  rdfc sign (--seed-hex <64hex> | --signer <name> [--purpose <p>] | --key-file <path>) [--sig-alg ed25519|dilithium3] [--alg <alg>] <file|->")
	fmt.Fprintln(w, "  rdfc verify --proof <proof> <file|->")
	fmt.Fprintln(w, "  rdfc key init|derive|list|export ...")
	fmt.Fprintln(w, "  rdfc put [-backend localfs -localfs-dir <dir> | -config <cas.yaml>] <file|->")
	fmt.Fprintln(w, "  rdfc get [backend flags] --cid <cid> [--out <file>]")
	fmt.Fprintln(w, "  rdfc bundle export [backend flags] --out <bundle.tar> --cid <cid> [--cid ...]")
	fmt.Fprintln(w, "  rdfc bundle import [backend flags] <bundle.tar>")
	fmt.Fprintln(w, "  rdfc remote canonize|digest --target <host:port> <file|->")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - input is N-Quads; N-Triples is accepted as a subset")
	fmt.Fprintln(w, "  - without -include-graph statements are canonicalized as triples")
	fmt.Fprintln(w, "  - -max-ndegree bounds the n-degree hash work (0 = unlimited)")
	fmt.Fprintln(w, "  - put stores the canonical document; CIDs are CIDv1 raw + sha2-256")
	fmt.Fprintln(w, "  - -v on any command enables debug logging on stderr")
}

// canonFlags are shared by every command that canonicalizes.
type canonFlags struct {
	includeGraph bool
	maxNDegree   int
	verbose      bool
}

func (c *canonFlags) add(fs *flag.FlagSet) {
	fs.BoolVar(&c.includeGraph, "include-graph", false, "Keep graph names (canonicalize quads instead of triples)")
	fs.IntVar(&c.maxNDegree, "max-ndegree", 0, "Maximum n-degree hash invocations (0 = unlimited)")
	fs.BoolVar(&c.verbose, "v", false, "Verbose (debug) logging")
}

func (c *canonFlags) options() canon.Options {
	return canon.Options{IncludeGraph: c.includeGraph, MaxNDegreeCalls: c.maxNDegree}
}

func newLogger(errOut io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// loadQuads reads and parses an N-Quads file, printing a diagnostic on
// failure.
func loadQuads(path string, log *slog.Logger, errOut io.Writer) ([]rdf.Quad, bool) {
	b, err := readInput(path)
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", displayName(path), err)
		return nil, false
	}
	quads, err := nquads.ParseBytes(b)
	if err != nil {
		var se *nquads.SyntaxError
		if errors.As(err, &se) {
			log.Debug("parse failed", "file", path, "rule_id", se.RuleID)
		}
		fmt.Fprintf(errOut, "parse %s: %v\n", displayName(path), err)
		return nil, false
	}
	log.Debug("parsed input", "file", path, "quads", len(quads))
	return quads, true
}

func displayName(path string) string {
	if path == "-" {
		return "stdin"
	}
	return filepath.Base(path)
}

// reportCanonError prints a canonicalization failure. Budget overruns name
// the flag that controls them.
func reportCanonError(errOut io.Writer, err error) {
	if errors.Is(err, canon.ErrBudgetExceeded) {
		fmt.Fprintf(errOut, "canonicalize: %v (raise -max-ndegree)\n", err)
		return
	}
	fmt.Fprintf(errOut, "canonicalize: %v\n", err)
}
