package gcode

import "io"

type Reader interface {
	Read() (Stmt, error)
}

type StmtsReader struct {
	Stmts []Stmt
	n     int
}

func (b *StmtsReader) Read() (Stmt, error) {
	if b.n == len(b.Stmts) {
		return Stmt{}, io.EOF
	}

	b.n++
	return b.Stmts[b.n-1], nil
}

// ReadAll drains r.
func ReadAll(r Reader) ([]Stmt, error) {
	var res []Stmt
	for {
		st, err := r.Read()
		if err == io.EOF {
			return res, nil
		}
		if err != nil {
			return nil, err
		}
		res = append(res, st)
	}
}
