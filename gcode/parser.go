package gcode

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrInvalidNumber is wrapped by a ParseError for a word whose argument
	// is not a number.
	ErrInvalidNumber = errors.New("invalid number")
	// ErrUnsupported is wrapped by a ParseError for a code the tracker
	// cannot follow without guessing the machine state.
	ErrUnsupported = errors.New("unsupported code")
)

// ParseError reports a fatal problem on one input line.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Text)
}
func (e *ParseError) Unwrap() error { return e.Err }

// Parser reads statements from line oriented G-code.
//
// Policy:
//   - ';' starts a comment, blank and comment-only lines are skipped
//   - N line numbers and trailing *checksums are dropped
//   - M codes without tracked state (M104, M117, M862.3 ...) keep their
//     text verbatim, whatever their arguments look like
//   - lines starting with a multi-letter identifier (PRINT_START, SET_FAN_SPEED ...)
//     are extended commands and pass through verbatim
//   - everything else must be letter+number words; a malformed number is fatal
type Parser struct {
	br   *bufio.Reader
	line int
}

func NewParser(r io.Reader) *Parser {
	if br, ok := r.(*bufio.Reader); ok {
		return &Parser{br: br}
	}

	return &Parser{br: bufio.NewReader(r)}
}

var (
	rx         = regexp.MustCompile(`^([A-Z][^A-Z]*)+$`)
	rxSplit    = regexp.MustCompile(`[A-Z][^A-Z]*`)
	rxExtended = regexp.MustCompile(`^[A-Z][A-Z_][A-Z0-9_]*(\s|$)`)
	rxMCode    = regexp.MustCompile(`^M(\d+(?:\.\d+)?)`)
	rxChecksum = regexp.MustCompile(`\*\d+$`)
)

// Line returns the number of the last line read.
func (p *Parser) Line() int { return p.line }

func (p *Parser) Read() (Stmt, error) {
	for {
		s, err := p.br.ReadString('\n')
		if err == io.EOF && s != "" {
			err = nil
		}
		if err != nil {
			return Stmt{}, err
		}
		p.line++

		st, ok, err := ParseLine(s)
		if err != nil {
			return Stmt{}, &ParseError{Line: p.line, Text: strings.TrimSpace(s), Err: err}
		}
		if !ok {
			continue
		}
		st.Line = p.line
		return st, nil
	}
}

// ParseLine parses a single line of text. ok is false for lines that hold
// no statement.
func ParseLine(s string) (st Stmt, ok bool, err error) {
	parts := strings.SplitN(s, ";", 2)
	s = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		st.Comment = strings.TrimSpace(parts[1])
	}
	s = strings.TrimSpace(rxChecksum.ReplaceAllString(s, ""))
	if s == "" {
		return st, false, nil
	}
	up := strings.ToUpper(s)

	if rxExtended.MatchString(up) {
		st.Raw = s
		return st, true, nil
	}
	if m := rxMCode.FindStringSubmatch(up); m != nil {
		n, _ := strconv.ParseFloat(m[1], 64)
		if _, tracked := mGroups[n]; !tracked {
			st.Block = Block{{W: 'M', Arg: n}}
			st.Raw = s
			return st, true, nil
		}
	}

	compact := strings.Join(strings.Fields(up), "")
	if !rx.MatchString(compact) {
		return st, false, errors.New("invalid or unhandled line")
	}

	codes := rxSplit.FindAllString(compact, -1)
	res := make(Block, 0, len(codes))
	for _, c := range codes {
		w := Word{W: c[0]}
		if w.W == 'N' {
			continue
		}
		num := c[1:]
		// G28 takes bare axis letters as flags
		if num == "" && len(res) > 0 && res[0].Is('G', 28) && w.IsAxis() {
			res = append(res, w)
			continue
		}
		w.Arg, err = strconv.ParseFloat(num, 64)
		if err != nil {
			return st, false, fmt.Errorf("%w %q for %c", ErrInvalidNumber, num, w.W)
		}
		res = append(res, w)
	}
	if len(res) == 0 {
		return st, false, nil
	}
	if err = res.Validate(); err != nil {
		return st, false, err
	}
	st.Block = res

	return st, true, nil
}

// Parse reads every statement in data.
func Parse(data string) ([]Stmt, error) {
	r := NewParser(bytes.NewBufferString(data))
	var b []Stmt
	for {
		st, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		b = append(b, st)
	}
	return b, nil
}

func MustParse(data string) []Stmt {
	b, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return b
}
