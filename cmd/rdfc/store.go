package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ipfs/go-cid"

	"xdao.co/rdfc/storage"
	"xdao.co/rdfc/storage/bundle"
	"xdao.co/rdfc/storage/casconfig"
	"xdao.co/rdfc/storage/casregistry"

	_ "xdao.co/rdfc/storage/grpccas"
	_ "xdao.co/rdfc/storage/ipfs"
	_ "xdao.co/rdfc/storage/localfs"
)

type storeFlags struct {
	canonFlags
	backend      string
	config       string
	listBackends bool
}

func (s *storeFlags) add(fs *flag.FlagSet) {
	s.canonFlags.add(fs)
	fs.StringVar(&s.backend, "backend", "localfs", "CAS backend name")
	fs.StringVar(&s.config, "config", "", "CAS config file (.json, .yaml); overrides backend flags")
	fs.BoolVar(&s.listBackends, "list-backends", false, "List supported backends and exit")
	casregistry.RegisterFlags(fs, casregistry.UsageCLI)
}

// open returns a DatasetStore over the configured CAS.
func (s *storeFlags) open() (storage.DatasetStore, func() error, error) {
	var (
		cas     storage.CAS
		closeFn func() error
		err     error
	)
	if s.config != "" {
		cfg, lerr := casconfig.LoadFile(s.config)
		if lerr != nil {
			return storage.DatasetStore{}, nil, lerr
		}
		cas, closeFn, err = cfg.Open(casregistry.UsageCLI, "")
	} else {
		cas, closeFn, err = casregistry.Open(s.backend, casregistry.UsageCLI)
	}
	if err != nil {
		return storage.DatasetStore{}, nil, err
	}
	return storage.DatasetStore{CAS: cas, Options: s.options()}, closeFn, nil
}

func printBackends(w io.Writer) {
	for _, b := range casregistry.List(casregistry.UsageCLI) {
		if b.Description == "" {
			_, _ = fmt.Fprintf(w, "%s\n", b.Name)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\n", b.Name, b.Description)
	}
}

func cmdPut(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("put", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var sf storeFlags
	sf.add(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if sf.listBackends {
		printBackends(out)
		return 0
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: rdfc put [flags] <file|->")
		return 2
	}
	log := newLogger(errOut, sf.verbose)
	quads, ok := loadQuads(fs.Arg(0), log, errOut)
	if !ok {
		return 1
	}

	store, closeFn, err := sf.open()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	if closeFn != nil {
		defer closeFn()
	}

	id, err := store.PutDataset(context.Background(), quads)
	if err != nil {
		reportCanonError(errOut, err)
		return 1
	}
	log.Debug("stored dataset", "cid", id.String(), "quads", len(quads), "backend", sf.backend)
	_, _ = fmt.Fprintln(out, id.String())
	return 0
}

func cmdGet(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var sf storeFlags
	sf.add(fs)
	var cidStr, outPath string
	fs.StringVar(&cidStr, "cid", "", "CID to fetch")
	fs.StringVar(&outPath, "out", "", "Output file (optional; default stdout)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if sf.listBackends {
		printBackends(out)
		return 0
	}
	if cidStr == "" || fs.NArg() != 0 {
		fmt.Fprintln(errOut, "usage: rdfc get [flags] --cid <cid> [--out <file>]")
		return 2
	}
	id, err := cid.Decode(cidStr)
	if err != nil {
		fmt.Fprintln(errOut, storage.ErrInvalidCID)
		return 2
	}

	store, closeFn, err := sf.open()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	if closeFn != nil {
		defer closeFn()
	}

	doc, err := store.GetDocument(context.Background(), id)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	if outPath == "" {
		_, _ = out.Write(doc)
		return 0
	}
	if err := os.WriteFile(outPath, doc, 0o600); err != nil {
		fmt.Fprintf(errOut, "write %s: %v\n", outPath, err)
		return 1
	}
	return 0
}

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func cmdBundle(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: rdfc bundle export|import ...")
		return 2
	}
	switch args[0] {
	case "export":
		return cmdBundleExport(args[1:], out, errOut)
	case "import":
		return cmdBundleImport(args[1:], out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown bundle subcommand: %s\n", args[0])
		return 2
	}
}

func cmdBundleExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("bundle export", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var sf storeFlags
	sf.add(fs)
	var outPath string
	var cids stringList
	var noIndex bool
	fs.StringVar(&outPath, "out", "", "Bundle file to write")
	fs.Var(&cids, "cid", "Dataset CID to include (repeatable)")
	fs.BoolVar(&noIndex, "no-index", false, "Omit index.json")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if outPath == "" || len(cids) == 0 {
		fmt.Fprintln(errOut, "usage: rdfc bundle export [flags] --out <bundle.tar> --cid <cid> [--cid ...]")
		return 2
	}
	ids := make([]cid.Cid, 0, len(cids))
	for _, s := range cids {
		id, err := cid.Decode(s)
		if err != nil {
			fmt.Fprintf(errOut, "invalid --cid %q\n", s)
			return 2
		}
		ids = append(ids, id)
	}

	store, closeFn, err := sf.open()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	if closeFn != nil {
		defer closeFn()
	}

	f, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		fmt.Fprintf(errOut, "create %s: %v\n", outPath, err)
		return 1
	}
	err = bundle.Export(context.Background(), f, store, ids, bundle.ExportOptions{IncludeIndex: !noIndex})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	return 0
}

func cmdBundleImport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("bundle import", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var sf storeFlags
	sf.add(fs)
	var ignoreUnknown bool
	fs.BoolVar(&ignoreUnknown, "ignore-unknown", false, "Skip unknown bundle entries")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: rdfc bundle import [flags] <bundle.tar>")
		return 2
	}

	store, closeFn, err := sf.open()
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	if closeFn != nil {
		defer closeFn()
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "open %s: %v\n", fs.Arg(0), err)
		return 1
	}
	defer f.Close()

	ids, err := bundle.Import(context.Background(), f, store, bundle.ImportOptions{IgnoreUnknown: ignoreUnknown})
	for _, id := range ids {
		_, _ = fmt.Fprintln(out, id.String())
	}
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	return 0
}

