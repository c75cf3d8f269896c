// rdfc_vector_gen regenerates the expected outputs of the conformance
// vectors: for every <name>.in.nq under -dir it writes <name>.out.nq and
// <name>.cid. Inputs whose name ends in ".graph" keep graph names.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"xdao.co/rdfc/canon"
	"xdao.co/rdfc/cidutil"
	"xdao.co/rdfc/nquads"
)

func main() {
	dir := flag.String("dir", filepath.Join("testdata", "conformance", "rdfc", "rdfc-1"), "vector directory")
	check := flag.Bool("check", false, "Only report vectors whose stored outputs differ")
	flag.Parse()

	inputs, err := filepath.Glob(filepath.Join(*dir, "*.in.nq"))
	if err != nil {
		panic(err)
	}
	if len(inputs) == 0 {
		fmt.Fprintf(os.Stderr, "no *.in.nq under %s\n", *dir)
		os.Exit(1)
	}

	stale := 0
	for _, in := range inputs {
		name := strings.TrimSuffix(filepath.Base(in), ".in.nq")
		src, err := os.ReadFile(in)
		if err != nil {
			panic(err)
		}
		quads, err := nquads.ParseBytes(src)
		if err != nil {
			panic(fmt.Sprintf("%s: %v", in, err))
		}
		doc, err := canon.Document(quads, canon.Options{IncludeGraph: strings.HasSuffix(name, ".graph")})
		if err != nil {
			panic(fmt.Sprintf("%s: %v", in, err))
		}
		id := cidutil.CIDv1RawSHA256(doc)

		outPath := filepath.Join(*dir, name+".out.nq")
		cidPath := filepath.Join(*dir, name+".cid")
		if *check {
			prev, _ := os.ReadFile(outPath)
			prevCID, _ := os.ReadFile(cidPath)
			if string(prev) != string(doc) || strings.TrimSpace(string(prevCID)) != id {
				fmt.Printf("STALE %s\n", name)
				stale++
			}
			continue
		}
		if err := os.WriteFile(outPath, doc, 0o644); err != nil {
			panic(err)
		}
		if err := os.WriteFile(cidPath, []byte(id+"\n"), 0o644); err != nil {
			panic(err)
		}
		fmt.Printf("%s\t%s\n", id, name)
	}
	if stale > 0 {
		os.Exit(1)
	}
}
