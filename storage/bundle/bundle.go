// Package bundle moves canonical datasets between stores as deterministic
// TAR archives.
//
// Layout:
//
//	datasets/<cid>.nq   canonical N-Quads document addressed by <cid>
//	index.json          optional, non-authoritative listing and labels
//
// Export of the same set of datasets always yields identical bytes: entries
// are sorted and TAR headers carry no owner or time information.
package bundle

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"xdao.co/rdfc/storage"
)

// FormatVersion is the current bundle index schema version.
const FormatVersion = 1

const (
	datasetDir = "datasets/"
	datasetExt = ".nq"
	indexName  = "index.json"
)

var epoch0 = time.Unix(0, 0).UTC()

// ExportOptions controls bundle export behavior.
type ExportOptions struct {
	// Labels is optional, non-authoritative metadata mapping names to CIDs.
	Labels map[string]cid.Cid
	// IncludeIndex controls whether index.json is included.
	IncludeIndex bool
}

// Export writes the datasets identified by ids, read through store, as a
// bundle. Every document is re-checked for canonical form before it is
// written.
func Export(ctx context.Context, w io.Writer, store storage.DatasetStore, ids []cid.Cid, opts ExportOptions) (err error) {
	if store.CAS == nil {
		return errors.New("bundle: nil CAS")
	}

	uniq := make(map[string]cid.Cid, len(ids))
	for _, id := range ids {
		if !id.Defined() {
			return storage.ErrInvalidCID
		}
		uniq[id.String()] = id
	}
	names := make([]string, 0, len(uniq))
	for s := range uniq {
		names = append(names, s)
	}
	sort.Strings(names)

	tw := tar.NewWriter(w)
	defer func() {
		if cerr := tw.Close(); err == nil {
			err = cerr
		}
	}()

	entries := make([]indexEntry, 0, len(names))
	for _, name := range names {
		doc, err := store.GetDocument(ctx, uniq[name])
		if err != nil {
			return fmt.Errorf("bundle: %s: %w", name, err)
		}
		if err := writeFile(tw, datasetDir+name+datasetExt, doc); err != nil {
			return err
		}
		entries = append(entries, indexEntry{
			CID:   name,
			Size:  len(doc),
			Quads: bytes.Count(doc, []byte{'\n'}),
		})
	}

	if !opts.IncludeIndex {
		return nil
	}
	idx := indexJSON{
		Version:      FormatVersion,
		CIDCodec:     "raw",
		Multihash:    "sha2-256",
		IncludeGraph: store.Options.IncludeGraph,
		Datasets:     entries,
	}
	labels, err := sortedLabels(opts.Labels)
	if err != nil {
		return err
	}
	idx.Labels = labels

	b, err := json.Marshal(idx)
	if err != nil {
		return err
	}
	return writeFile(tw, indexName, append(b, '\n'))
}

func sortedLabels(in map[string]cid.Cid) ([]indexLabel, error) {
	if len(in) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(in))
	for k := range in {
		if k == "" {
			return nil, errors.New("bundle: empty label key")
		}
		if !in[k].Defined() {
			return nil, storage.ErrInvalidCID
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]indexLabel, 0, len(keys))
	for _, k := range keys {
		out = append(out, indexLabel{Name: k, CID: in[k].String()})
	}
	return out, nil
}

// ImportOptions controls bundle import behavior.
type ImportOptions struct {
	// IgnoreUnknown skips unknown TAR entries instead of failing.
	IgnoreUnknown bool
}

// Import reads a bundle and stores every dataset through store. It fails
// closed: unknown entries, duplicate entries, documents that are not
// canonical and documents whose CID does not match their entry name all
// abort the import. It returns the imported CIDs in bundle order.
func Import(ctx context.Context, r io.Reader, store storage.DatasetStore, opts ImportOptions) ([]cid.Cid, error) {
	if store.CAS == nil {
		return nil, errors.New("bundle: nil CAS")
	}

	tr := tar.NewReader(r)
	seen := map[string]struct{}{}
	var imported []cid.Cid
	for {
		h, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return imported, nil
		}
		if err != nil {
			return imported, err
		}
		name := cleanTarPath(h.Name)
		if name == "" {
			return imported, fmt.Errorf("bundle: invalid entry path: %q", h.Name)
		}
		if h.Typeflag != tar.TypeReg {
			if opts.IgnoreUnknown {
				continue
			}
			return imported, fmt.Errorf("bundle: unexpected tar entry type: %v (%s)", h.Typeflag, name)
		}
		if name == indexName {
			continue
		}
		if !strings.HasPrefix(name, datasetDir) || !strings.HasSuffix(name, datasetExt) {
			if opts.IgnoreUnknown {
				continue
			}
			return imported, fmt.Errorf("bundle: unknown entry: %s", name)
		}

		id, err := cid.Decode(strings.TrimSuffix(strings.TrimPrefix(name, datasetDir), datasetExt))
		if err != nil || !id.Defined() {
			return imported, storage.ErrInvalidCID
		}
		key := id.String()
		if _, ok := seen[key]; ok {
			return imported, fmt.Errorf("bundle: duplicate dataset entry: %s", key)
		}
		seen[key] = struct{}{}

		doc, err := io.ReadAll(tr)
		if err != nil {
			return imported, err
		}
		got, err := store.PutDocument(ctx, doc)
		if err != nil {
			return imported, fmt.Errorf("bundle: %s: %w", key, err)
		}
		if !got.Equals(id) {
			return imported, storage.ErrCIDMismatch
		}
		imported = append(imported, id)
	}
}

type indexJSON struct {
	Version      int          `json:"version"`
	CIDCodec     string       `json:"cidCodec"`
	Multihash    string       `json:"multihash"`
	IncludeGraph bool         `json:"includeGraph"`
	Datasets     []indexEntry `json:"datasets"`
	Labels       []indexLabel `json:"labels,omitempty"`
}

type indexEntry struct {
	CID   string `json:"cid"`
	Size  int    `json:"size"`
	Quads int    `json:"quads"`
}

type indexLabel struct {
	Name string `json:"name"`
	CID  string `json:"cid"`
}

func writeFile(tw *tar.Writer, name string, content []byte) error {
	hdr := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  epoch0,
		Typeflag: tar.TypeReg,
		Format:   tar.FormatUSTAR,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := tw.Write(content)
	return err
}

func cleanTarPath(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return ""
	}
	parts := strings.Split(name, "/")
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return ""
		}
	}
	return name
}
