// Package canon computes the canonical form of an RDF dataset: every blank
// node is relabeled c14n0, c14n1, ... so that datasets differing only in blank
// node labels or statement order serialize to identical bytes.
//
// The algorithm follows URDNA2015 (RDF Dataset Canonicalization): first-degree
// hashing of each blank node's incident quads, iterative issuance of labels to
// nodes with unique hashes, and N-degree hashing with a permutation search for
// the remaining symmetric nodes.
//
// A run is single-threaded and owns all of its state. Normalize and Canonize
// are safe to call concurrently on different inputs.
package canon

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"sort"
	"strings"

	"xdao.co/rdfc/rdf"
)

const (
	// CanonicalPrefix prefixes every canonical blank node label.
	CanonicalPrefix = "c14n"

	trialPrefix = "b"
)

// placeholders substituted while computing first-degree hashes
var (
	selfNode  = rdf.BlankNode("a")
	otherNode = rdf.BlankNode("z")
)

// Options controls a canonicalization run. The zero value canonicalizes
// triples (graph names are dropped) with no step budget.
type Options struct {
	// IncludeGraph keeps the graph position: quads are hashed and emitted
	// with their graph name. When false every statement is projected into the
	// default graph first.
	IncludeGraph bool

	// MaxNDegreeCalls bounds the number of N-degree hash invocations in one
	// run. Zero means unlimited. Exceeding the bound fails the run with an
	// error wrapping ErrBudgetExceeded.
	MaxNDegreeCalls int
}

type position string

const (
	positionSubject position = "s"
	positionObject  position = "o"
	positionGraph   position = "g"
)

type nodeInfo struct {
	quads  []rdf.Quad
	hash   string
	hashed bool
}

type normalizer struct {
	opts      Options
	index     map[string]*nodeInfo
	order     []string
	canonical *Issuer
	calls     int
}

// Normalize relabels every blank node in quads with its canonical label.
// Blank nodes whose label already starts with CanonicalPrefix are emitted
// unchanged. Duplicate statements are emitted once; otherwise the input order
// is kept.
func Normalize(quads []rdf.Quad, opts Options) ([]rdf.Quad, error) {
	n := &normalizer{
		opts:      opts,
		index:     make(map[string]*nodeInfo),
		canonical: NewIssuer(CanonicalPrefix),
	}
	return n.run(quads)
}

// Canonize normalizes quads and sorts the result with rdf.Compare.
func Canonize(quads []rdf.Quad, opts Options) ([]rdf.Quad, error) {
	out, err := Normalize(quads, opts)
	if err != nil {
		return nil, err
	}
	rdf.Sort(out, opts.IncludeGraph)
	return out, nil
}

// Document returns the canonical N-Quads serialization of quads: the
// canonized statements, one line each, every line terminated by "\n".
func Document(quads []rdf.Quad, opts Options) ([]byte, error) {
	out, err := Canonize(quads, opts)
	if err != nil {
		return nil, err
	}
	return rdf.Serialize(out), nil
}

// Isomorphic reports whether a and b have the same canonical form.
func Isomorphic(a, b []rdf.Quad, opts Options) (bool, error) {
	da, err := Document(a, opts)
	if err != nil {
		return false, err
	}
	db, err := Document(b, opts)
	if err != nil {
		return false, err
	}
	return bytes.Equal(da, db), nil
}

func (n *normalizer) run(input []rdf.Quad) ([]rdf.Quad, error) {
	quads := n.collect(input)

	pending := append([]string(nil), n.order...)
	var hashToNodes map[string][]string
	for simple := true; simple; {
		simple = false
		hashToNodes = make(map[string][]string)
		for _, id := range pending {
			h := n.firstDegreeHash(id)
			hashToNodes[h] = append(hashToNodes[h], id)
		}
		for _, h := range sortedKeys(hashToNodes) {
			ids := hashToNodes[h]
			if len(ids) != 1 {
				continue
			}
			n.canonical.Issue(ids[0])
			delete(hashToNodes, h)
			simple = true
		}
		remaining := pending[:0]
		for _, id := range pending {
			if !n.canonical.Has(id) {
				remaining = append(remaining, id)
			}
		}
		pending = remaining
	}

	type result struct {
		hash   string
		issuer *Issuer
	}
	for _, h := range sortedKeys(hashToNodes) {
		var results []result
		for _, id := range hashToNodes[h] {
			if n.canonical.Has(id) {
				continue
			}
			issuer := NewIssuer(trialPrefix)
			issuer.Issue(id)
			digest, issuer, err := n.hashNDegree(id, issuer)
			if err != nil {
				return nil, err
			}
			results = append(results, result{hash: digest, issuer: issuer})
		}
		sort.SliceStable(results, func(i, j int) bool { return results[i].hash < results[j].hash })
		for _, r := range results {
			n.canonical.Merge(r.issuer)
		}
	}

	out := make([]rdf.Quad, len(quads))
	for i, q := range quads {
		out[i] = rdf.Quad{
			Subject:   n.relabel(q.Subject),
			Predicate: q.Predicate,
			Object:    n.relabel(q.Object),
			Graph:     n.relabel(q.Graph),
		}
	}
	return out, nil
}

// collect deduplicates the input, projects it to triples unless graphs are
// included, and indexes every quad under each blank node it mentions.
func (n *normalizer) collect(input []rdf.Quad) []rdf.Quad {
	seen := make(map[rdf.Quad]struct{}, len(input))
	quads := make([]rdf.Quad, 0, len(input))
	for _, q := range input {
		if n.opts.IncludeGraph {
			q.Graph = q.GraphName()
		} else {
			q = q.AsTriple()
		}
		q.Object = effectiveLiteral(q.Object)
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}
		quads = append(quads, q)
		n.track(q.Subject, q)
		n.track(q.Object, q)
		n.track(q.Graph, q)
	}
	return quads
}

// effectiveLiteral spells out a literal's implied datatype so that statements
// serializing to the same line compare equal.
func effectiveLiteral(t rdf.Term) rdf.Term {
	l, ok := t.(rdf.Literal)
	if !ok {
		return t
	}
	l.Datatype = l.DatatypeIRI()
	return l
}

func (n *normalizer) track(t rdf.Term, q rdf.Quad) {
	b, ok := t.(rdf.BlankNode)
	if !ok {
		return
	}
	id := string(b)
	info, ok := n.index[id]
	if !ok {
		info = &nodeInfo{}
		n.index[id] = info
		n.order = append(n.order, id)
	}
	// a quad mentioning the node twice is indexed once
	if last := len(info.quads) - 1; last >= 0 && info.quads[last] == q {
		return
	}
	info.quads = append(info.quads, q)
}

func (n *normalizer) info(id string) *nodeInfo {
	info, ok := n.index[id]
	if !ok {
		invariant("RDFC-INV-001", fmt.Sprintf("blank node _:%s missing from index", id))
	}
	return info
}

// firstDegreeHash hashes the sorted canonical lines of id's incident quads,
// with id replaced by _:a and every other blank node by _:z.
func (n *normalizer) firstDegreeHash(id string) string {
	info := n.info(id)
	if info.hashed {
		return info.hash
	}
	lines := make([]string, 0, len(info.quads))
	for _, q := range info.quads {
		lines = append(lines, rdf.Line(rdf.Quad{
			Subject:   placeholder(q.Subject, id),
			Predicate: q.Predicate,
			Object:    placeholder(q.Object, id),
			Graph:     placeholder(q.Graph, id),
		}))
	}
	sort.Strings(lines)
	h := sha256.New()
	for _, line := range lines {
		_, _ = io.WriteString(h, line)
	}
	info.hash = hexSum(h)
	info.hashed = true
	return info.hash
}

func placeholder(t rdf.Term, id string) rdf.Term {
	b, ok := t.(rdf.BlankNode)
	if !ok {
		return t
	}
	if string(b) == id {
		return selfNode
	}
	return otherNode
}

// relatedHash hashes the relationship between a quad and the blank node
// related occupying pos in it.
func (n *normalizer) relatedHash(related string, q rdf.Quad, issuer *Issuer, pos position) string {
	h := sha256.New()
	_, _ = io.WriteString(h, string(pos))
	if pos != positionGraph {
		_, _ = io.WriteString(h, q.Predicate.String())
	}
	var id string
	if label, ok := n.canonical.Lookup(related); ok {
		id = "_:" + label
	} else if label, ok := issuer.Lookup(related); ok {
		id = "_:" + label
	} else {
		id = n.firstDegreeHash(related)
	}
	_, _ = io.WriteString(h, id)
	return hexSum(h)
}

func (n *normalizer) hashToRelated(id string, issuer *Issuer) map[string][]string {
	related := make(map[string][]string)
	add := func(q rdf.Quad, t rdf.Term, pos position) {
		b, ok := t.(rdf.BlankNode)
		if !ok || string(b) == id {
			return
		}
		h := n.relatedHash(string(b), q, issuer, pos)
		related[h] = append(related[h], string(b))
	}
	for _, q := range n.info(id).quads {
		add(q, q.Subject, positionSubject)
		add(q, q.Object, positionObject)
		add(q, q.Graph, positionGraph)
	}
	return related
}

// hashNDegree hashes id together with the blank nodes reachable from it,
// choosing for each group of related nodes the lexically smallest labeling
// path over all permutations of the group.
func (n *normalizer) hashNDegree(id string, issuer *Issuer) (string, *Issuer, error) {
	n.calls++
	if limit := n.opts.MaxNDegreeCalls; limit > 0 && n.calls > limit {
		return "", nil, wrapError(KindBudget, "RDFC-BUDGET-001",
			fmt.Sprintf("canon: n-degree hash budget of %d calls exceeded", limit), ErrBudgetExceeded)
	}

	related := n.hashToRelated(id, issuer)
	h := sha256.New()
	for _, key := range sortedKeys(related) {
		_, _ = io.WriteString(h, key)

		var chosenPath string
		var chosenIssuer *Issuer
		perm := NewPermuter(related[key])
		for perm.HasNext() {
			order, err := perm.Next()
			if err != nil {
				return "", nil, err
			}
			path, pathIssuer, ok, err := n.permutationPath(order, issuer, chosenPath)
			if err != nil {
				return "", nil, err
			}
			if !ok {
				continue
			}
			if chosenPath == "" || path < chosenPath {
				chosenPath = path
				chosenIssuer = pathIssuer
			}
		}

		_, _ = io.WriteString(h, chosenPath)
		issuer = chosenIssuer
	}
	return hexSum(h), issuer, nil
}

// permutationPath builds the labeling path for one ordering of related nodes
// on a clone of issuer. It reports ok=false as soon as the partial path is
// strictly greater than best; equal paths are kept going.
func (n *normalizer) permutationPath(order []string, issuer *Issuer, best string) (string, *Issuer, bool, error) {
	issuerCopy := issuer.Clone()
	worse := func(path string) bool { return best != "" && path > best }

	var path string
	var recursion []string
	for _, related := range order {
		if label, ok := n.canonical.Lookup(related); ok {
			path += "_:" + label
		} else {
			if !issuerCopy.Has(related) {
				recursion = append(recursion, related)
			}
			path += "_:" + issuerCopy.Issue(related)
		}
		if worse(path) {
			return "", nil, false, nil
		}
	}

	for _, related := range recursion {
		digest, next, err := n.hashNDegree(related, issuerCopy)
		if err != nil {
			return "", nil, false, err
		}
		path += "_:" + issuerCopy.Issue(related)
		path += "<" + digest + ">"
		issuerCopy = next
		if worse(path) {
			return "", nil, false, nil
		}
	}
	return path, issuerCopy, true, nil
}

func (n *normalizer) relabel(t rdf.Term) rdf.Term {
	b, ok := t.(rdf.BlankNode)
	if !ok {
		return t
	}
	// already canonical labels are kept as they are
	if strings.HasPrefix(string(b), CanonicalPrefix) {
		return b
	}
	label, ok := n.canonical.Lookup(string(b))
	if !ok {
		invariant("RDFC-INV-002", fmt.Sprintf("blank node %s was never issued a canonical label", b))
	}
	return rdf.BlankNode(label)
}

func hexSum(h hash.Hash) string {
	return hex.EncodeToString(h.Sum(nil))
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
