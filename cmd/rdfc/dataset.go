package main

import (
	"flag"
	"fmt"
	"io"
	"time"

	"xdao.co/rdfc/canon"
	"xdao.co/rdfc/cidutil"
	"xdao.co/rdfc/digest"
	"xdao.co/rdfc/nquads"
	"xdao.co/rdfc/rdf"
)

func cmdCanonize(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("canonize", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var cf canonFlags
	cf.add(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: rdfc canonize [flags] <file|->")
		return 2
	}
	log := newLogger(errOut, cf.verbose)
	quads, ok := loadQuads(fs.Arg(0), log, errOut)
	if !ok {
		return 1
	}

	start := time.Now()
	doc, err := canon.Document(quads, cf.options())
	if err != nil {
		reportCanonError(errOut, err)
		return 1
	}
	log.Debug("canonized", "quads", len(quads), "duration", time.Since(start))
	_, _ = out.Write(doc)
	return 0
}

func cmdNormalize(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("normalize", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var cf canonFlags
	cf.add(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: rdfc normalize [flags] <file|->")
		return 2
	}
	log := newLogger(errOut, cf.verbose)
	quads, ok := loadQuads(fs.Arg(0), log, errOut)
	if !ok {
		return 1
	}
	relabeled, err := canon.Normalize(quads, cf.options())
	if err != nil {
		reportCanonError(errOut, err)
		return 1
	}
	if err := nquads.Write(out, relabeled); err != nil {
		fmt.Fprintf(errOut, "write: %v\n", err)
		return 1
	}
	return 0
}

func cmdDigest(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("digest", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var cf canonFlags
	cf.add(fs)
	var algName, encoding, graphIRI string
	var defaultGraph bool
	fs.StringVar(&algName, "alg", string(cidutil.SHA2_256), "Hash algorithm: sha2-256, sha2-512, sha3-256")
	fs.StringVar(&encoding, "encoding", "hex", "Output encoding: hex, base64, cid")
	fs.StringVar(&graphIRI, "graph", "", "Digest only the named graph with this IRI")
	fs.BoolVar(&defaultGraph, "default-graph", false, "Digest only the default graph")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: rdfc digest [flags] <file|->")
		return 2
	}
	if graphIRI != "" && defaultGraph {
		fmt.Fprintln(errOut, "-graph and -default-graph are mutually exclusive")
		return 2
	}
	alg, err := cidutil.ParseHashAlg(algName)
	if err != nil {
		fmt.Fprintf(errOut, "invalid -alg: %v\n", err)
		return 2
	}
	switch encoding {
	case "hex", "base64", "cid":
	default:
		fmt.Fprintf(errOut, "invalid -encoding: %q\n", encoding)
		return 2
	}

	log := newLogger(errOut, cf.verbose)
	quads, ok := loadQuads(fs.Arg(0), log, errOut)
	if !ok {
		return 1
	}
	opts := digest.Options{IncludeGraph: cf.includeGraph, HashAlg: alg, MaxNDegreeCalls: cf.maxNDegree}

	var d digest.Digest
	switch {
	case graphIRI != "":
		d, err = digest.Graph(quads, rdf.IRI(graphIRI), opts)
	case defaultGraph:
		d, err = digest.Graph(quads, rdf.DefaultGraph{}, opts)
	default:
		d, err = digest.Dataset(quads, opts)
	}
	if err != nil {
		reportCanonError(errOut, err)
		return 1
	}
	log.Debug("digested", "quads", d.Count, "alg", string(d.Alg))

	switch encoding {
	case "base64":
		_, _ = fmt.Fprintln(out, d.Base64())
	case "cid":
		c, err := d.CID()
		if err != nil {
			fmt.Fprintf(errOut, "cid: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintln(out, c.String())
	default:
		_, _ = fmt.Fprintln(out, d.Hex())
	}
	return 0
}

func cmdCID(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("cid", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var cf canonFlags
	cf.add(fs)
	var algName string
	fs.StringVar(&algName, "alg", string(cidutil.SHA2_256), "Multihash: sha2-256, sha2-512, sha3-256")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: rdfc cid [flags] <file|->")
		return 2
	}
	alg, err := cidutil.ParseHashAlg(algName)
	if err != nil {
		fmt.Fprintf(errOut, "invalid -alg: %v\n", err)
		return 2
	}
	log := newLogger(errOut, cf.verbose)
	quads, ok := loadQuads(fs.Arg(0), log, errOut)
	if !ok {
		return 1
	}
	doc, err := canon.Document(quads, cf.options())
	if err != nil {
		reportCanonError(errOut, err)
		return 1
	}
	c, err := cidutil.CIDv1Raw(doc, alg)
	if err != nil {
		fmt.Fprintf(errOut, "cid: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, c.String())
	return 0
}

// cmdEqual exits 0 when both inputs have the same canonical form and 1 when
// they do not.
func cmdEqual(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("equal", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var cf canonFlags
	cf.add(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(errOut, "usage: rdfc equal [flags] <a> <b>")
		return 2
	}
	log := newLogger(errOut, cf.verbose)
	a, ok := loadQuads(fs.Arg(0), log, errOut)
	if !ok {
		return 1
	}
	b, ok := loadQuads(fs.Arg(1), log, errOut)
	if !ok {
		return 1
	}
	same, err := canon.Isomorphic(a, b, cf.options())
	if err != nil {
		reportCanonError(errOut, err)
		return 1
	}
	_, _ = fmt.Fprintln(out, same)
	if !same {
		return 1
	}
	return 0
}
