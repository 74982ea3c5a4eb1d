package gcode

import (
	"bufio"
	"io"
)

// Writer serializes statements, one per line.
type Writer struct {
	bw *bufio.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

func (w *Writer) Write(st Stmt) error {
	_, err := w.bw.WriteString(st.String() + "\n")
	return err
}

// WriteAll copies every statement from r.
func (w *Writer) WriteAll(r Reader) (int64, error) {
	return w.bw.ReadFrom(NewBuffer(r))
}

func (w *Writer) Flush() error {
	return w.bw.Flush()
}
