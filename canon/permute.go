package canon

import "sort"

// Permuter enumerates the orderings of a small set of blank node identifiers
// in minimal-change order: every permutation differs from the previous one by
// a single adjacent swap (Steinhaus-Johnson-Trotter with Even's speedup).
//
// Enumeration starts from the identifiers sorted ascending. Zero or one input
// identifiers yield exactly one permutation.
type Permuter struct {
	list []string
	left map[string]bool
	done bool
}

// NewPermuter returns a permuter over ids. The input slice is not modified.
func NewPermuter(ids []string) *Permuter {
	list := append([]string(nil), ids...)
	sort.Strings(list)
	left := make(map[string]bool, len(list))
	for _, id := range list {
		left[id] = true
	}
	return &Permuter{list: list, left: left}
}

// HasNext reports whether Next will produce another permutation.
func (p *Permuter) HasNext() bool { return !p.done }

// Next returns the current permutation and advances. After the last
// permutation it returns ErrExhausted.
func (p *Permuter) Next() ([]string, error) {
	if p.done {
		return nil, wrapError(KindExhausted, "RDFC-PERM-001", ErrExhausted.Error(), ErrExhausted)
	}
	out := make([]string, len(p.list))
	copy(out, p.list)

	// largest mobile element: greater than the neighbour it faces
	k, pos := "", -1
	for i, element := range p.list {
		if pos >= 0 && element <= k {
			continue
		}
		if p.left[element] {
			if i > 0 && element > p.list[i-1] {
				k, pos = element, i
			}
		} else if i < len(p.list)-1 && element > p.list[i+1] {
			k, pos = element, i
		}
	}

	if pos < 0 {
		p.done = true
		return out, nil
	}

	swap := pos + 1
	if p.left[k] {
		swap = pos - 1
	}
	p.list[pos], p.list[swap] = p.list[swap], k

	for _, element := range p.list {
		if element > k {
			p.left[element] = !p.left[element]
		}
	}
	return out, nil
}
