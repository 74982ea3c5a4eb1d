// Package geometry is the boundary to the external mesh store: meshes of
// vertices, edges and per-vertex attribute channels, and the conversion
// between meshes and toolpath islands.
package geometry

import (
	"fmt"
	"strings"

	"github.com/mastercactapus/gribbon/coord"
)

// Channel identifies a per-vertex attribute.
type Channel int

const (
	Flow Channel = iota
	Speed
	Tool

	numChannels
)

var channelNames = [numChannels]string{"flow", "speed", "tool"}

func (c Channel) String() string {
	if c < 0 || c >= numChannels {
		return fmt.Sprintf("Channel(%d)", int(c))
	}
	return channelNames[c]
}

// ParseChannel resolves an attribute name, ignoring case.
func ParseChannel(name string) (Channel, bool) {
	for i, n := range channelNames {
		if strings.EqualFold(n, name) {
			return Channel(i), true
		}
	}
	return 0, false
}

// Error reports a mesh that cannot be turned into islands.
type Error struct {
	Object string
	Reason string
}

func (e *Error) Error() string {
	if e.Object == "" {
		return "geometry: " + e.Reason
	}
	return fmt.Sprintf("geometry: %s: %s", e.Object, e.Reason)
}

// Mesh is a set of vertices joined by edges. Attributes is indexed by
// Channel; a nil channel reads as 1 for every vertex.
type Mesh struct {
	Vertices   []coord.Point
	Edges      [][2]int
	Attributes [numChannels][]float64
}

// Attr returns channel c of vertex i.
func (m *Mesh) Attr(c Channel, i int) float64 {
	if m.Attributes[c] == nil {
		return 1
	}
	return m.Attributes[c][i]
}

// Append adds the vertices, edges and attributes of o to m.
func (m *Mesh) Append(o *Mesh) {
	base := len(m.Vertices)
	for c := range m.Attributes {
		if m.Attributes[c] == nil && o.Attributes[c] == nil {
			continue
		}
		if m.Attributes[c] == nil {
			m.Attributes[c] = ones(base)
		}
		for i := range o.Vertices {
			m.Attributes[c] = append(m.Attributes[c], o.Attr(Channel(c), i))
		}
	}
	m.Vertices = append(m.Vertices, o.Vertices...)
	for _, e := range o.Edges {
		m.Edges = append(m.Edges, [2]int{e[0] + base, e[1] + base})
	}
}

func ones(n int) []float64 {
	res := make([]float64, n)
	for i := range res {
		res[i] = 1
	}
	return res
}

// Validate checks that edges and attributes refer to existing vertices
// and that every value is finite.
func (m *Mesh) Validate() error {
	for i, v := range m.Vertices {
		if !v.IsFinite() {
			return &Error{Reason: fmt.Sprintf("vertex %d is not finite", i)}
		}
	}
	for i, e := range m.Edges {
		for _, idx := range e {
			if idx < 0 || idx >= len(m.Vertices) {
				return &Error{Reason: fmt.Sprintf("edge %d refers to missing vertex %d", i, idx)}
			}
		}
		if e[0] == e[1] {
			return &Error{Reason: fmt.Sprintf("edge %d is a loop on vertex %d", i, e[0])}
		}
	}
	for c, vals := range m.Attributes {
		if vals == nil {
			continue
		}
		if len(vals) != len(m.Vertices) {
			return &Error{Reason: fmt.Sprintf("%s has %d values for %d vertices", Channel(c), len(vals), len(m.Vertices))}
		}
		for i, v := range vals {
			if !(v >= 0 && v <= 1) {
				return &Error{Reason: fmt.Sprintf("%s of vertex %d is %g, outside [0,1]", Channel(c), i, v)}
			}
		}
	}
	return nil
}
