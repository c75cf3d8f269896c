package nquads

import (
	"bufio"
	"io"

	"xdao.co/rdfc/rdf"
)

// Encoder writes statements as N-Quads lines. Output is buffered; call Flush
// when done.
type Encoder struct {
	w   *bufio.Writer
	buf []byte
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

// Encode writes one statement followed by "\n".
func (e *Encoder) Encode(q rdf.Quad) error {
	e.buf = rdf.AppendQuad(e.buf[:0], q)
	_, err := e.w.Write(e.buf)
	return err
}

func (e *Encoder) Flush() error { return e.w.Flush() }

// Write encodes every statement in order and flushes.
func Write(w io.Writer, quads []rdf.Quad) error {
	enc := NewEncoder(w)
	for _, q := range quads {
		if err := enc.Encode(q); err != nil {
			return err
		}
	}
	return enc.Flush()
}
