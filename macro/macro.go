// Package macro resolves the named G-code snippets emitted around and
// inside an exported program.
package macro

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"

	"github.com/mastercactapus/gribbon/ctxlog"
)

// DefaultStart homes, heats and switches to relative extrusion, which the
// exported program relies on.
const DefaultStart = `;gribbon
G28 ;homing
M104 S180 ;set hotend temp
M190 S50 ;wait for bed temp
M109 S200 ;wait for hotend temp
M83 ;relative extrusion mode (required)
`

const DefaultEnd = `G10 ;retract
M104 S0 ;deactivate hotend
M140 S0 ;deactivate bed
G28 ;homing
M84 ;turn off motors
`

// DefaultTool selects tool i.
func DefaultTool(i int) string {
	return "T" + strconv.Itoa(i) + " ;switch to extruder T" + strconv.Itoa(i) + "\n"
}

// A Store looks up macro text by name.
type Store interface {
	Lookup(name string) (string, bool)
}

// MapStore is a Store backed by a map.
type MapStore map[string]string

func (m MapStore) Lookup(name string) (string, bool) {
	s, ok := m[name]
	return s, ok
}

// Parse reads a YAML mapping of macro name to text.
func Parse(data []byte) (MapStore, error) {
	m := make(MapStore)
	if err := yaml.UnmarshalStrict(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadFile reads a YAML macro file.
func LoadFile(path string) (MapStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read macros %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse macros %s: %w", path, err)
	}
	return m, nil
}

// Names maps each role to a macro name.
type Names struct {
	Start string
	End   string
	// Tools holds one name per tool index.
	Tools []string
}

// Set is the resolved text of every role.
type Set struct {
	Start string
	End   string
	Tools []string
}

// Resolve looks up every name in s, falling back to the default text of
// the role. s may be nil.
func Resolve(ctx context.Context, s Store, n Names) Set {
	log := ctxlog.FromContext(ctx)
	lookup := func(name, def string) string {
		if s != nil && name != "" {
			if text, ok := s.Lookup(name); ok {
				return text
			}
		}
		log.Debug("using default macro", "name", name)
		return def
	}

	set := Set{
		Start: lookup(n.Start, DefaultStart),
		End:   lookup(n.End, DefaultEnd),
		Tools: make([]string, len(n.Tools)),
	}
	for i, name := range n.Tools {
		set.Tools[i] = lookup(name, DefaultTool(i))
	}
	return set
}
