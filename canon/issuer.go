package canon

import "strconv"

// Issuer hands out labels of the form prefix+counter to blank node
// identifiers, in first-seen order. A label, once issued, never changes for
// the lifetime of the Issuer and the counter only grows.
//
// Issuers are not safe for concurrent use; each run owns its own.
type Issuer struct {
	prefix  string
	counter int
	issued  map[string]string
	order   []string
}

// NewIssuer returns an empty issuer for the given label prefix.
func NewIssuer(prefix string) *Issuer {
	return &Issuer{prefix: prefix, issued: make(map[string]string)}
}

// Issue returns the label for id, assigning the next one if id is new.
func (i *Issuer) Issue(id string) string {
	if label, ok := i.issued[id]; ok {
		return label
	}
	label := i.prefix + strconv.Itoa(i.counter)
	i.counter++
	i.issued[id] = label
	i.order = append(i.order, id)
	return label
}

// Lookup returns the label already issued for id.
func (i *Issuer) Lookup(id string) (string, bool) {
	label, ok := i.issued[id]
	return label, ok
}

// Has reports whether id has been issued a label.
func (i *Issuer) Has(id string) bool {
	_, ok := i.issued[id]
	return ok
}

// Len returns the number of issued labels.
func (i *Issuer) Len() int { return len(i.order) }

// Prefix returns the label prefix.
func (i *Issuer) Prefix() string { return i.prefix }

// Issued returns the tracked identifiers in the order they were first issued.
func (i *Issuer) Issued() []string {
	return append([]string(nil), i.order...)
}

// Clone returns a deep copy. Issuing on the clone never affects the receiver.
func (i *Issuer) Clone() *Issuer {
	c := &Issuer{
		prefix:  i.prefix,
		counter: i.counter,
		issued:  make(map[string]string, len(i.issued)),
		order:   append([]string(nil), i.order...),
	}
	for k, v := range i.issued {
		c.issued[k] = v
	}
	return c
}

// Merge issues a label on the receiver for every identifier tracked by other,
// in other's first-seen order. Identifiers the receiver already knows keep
// their label.
func (i *Issuer) Merge(other *Issuer) {
	for _, id := range other.order {
		i.Issue(id)
	}
}
