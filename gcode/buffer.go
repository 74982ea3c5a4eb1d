package gcode

import (
	"bytes"
	"io"
)

// Buffer turns a Reader into an io.Reader of program text, one statement
// per line.
type Buffer struct {
	gr  Reader
	buf bytes.Buffer
	err error
}

var _ io.Reader = &Buffer{}

func NewBuffer(r Reader) *Buffer {
	return &Buffer{gr: r}
}

func (b *Buffer) Read(p []byte) (n int, err error) {
	for b.err == nil && b.buf.Len() < len(p) {
		var st Stmt
		st, b.err = b.gr.Read()
		if b.err != nil {
			break
		}
		b.buf.WriteString(st.String() + "\n")
	}
	if b.buf.Len() > 0 {
		return b.buf.Read(p)
	}

	return 0, b.err
}
