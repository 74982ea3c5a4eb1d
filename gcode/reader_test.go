package gcode

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStmtsReader(t *testing.T) {
	stmts := []Stmt{
		{Block: Block{{W: 'G', Arg: 1}, {W: 'X', Arg: 2}}},
		{Block: Block{{W: 'M', Arg: 2}}},
	}

	gr := &StmtsReader{Stmts: stmts}

	b, err := gr.Read()
	assert.NoError(t, err)
	assert.Equal(t, Block{{W: 'G', Arg: 1}, {W: 'X', Arg: 2}}, b.Block)

	b, err = gr.Read()
	assert.NoError(t, err)
	assert.Equal(t, Block{{W: 'M', Arg: 2}}, b.Block)

	b, err = gr.Read()
	assert.Error(t, err)
	assert.Equal(t, io.EOF, err)
	assert.Empty(t, b.Block)
}
