package geometry

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/mastercactapus/gribbon/coord"
	"github.com/mastercactapus/gribbon/toolpath"
)

// FromModel turns the classified islands of m into a document with one
// object, or one object per layer when split is set.
func FromModel(m *toolpath.Model, name string, split bool) *Document {
	if !split {
		var mesh Mesh
		for _, is := range m.Islands() {
			appendIsland(&mesh, is)
		}
		return &Document{Objects: []Object{{Name: name, Mesh: mesh}}}
	}

	doc := &Document{}
	for i, l := range m.Layers {
		o := Object{Name: fmt.Sprintf("%s_%d", name, i)}
		for _, is := range l.Islands {
			appendIsland(&o.Mesh, is)
		}
		doc.Objects = append(doc.Objects, o)
	}
	return doc
}

// appendIsland adds the centerline chain followed by the height chain.
// Each chain is joined by edges along the path, and every centerline
// vertex is joined to its height vertex.
func appendIsland(m *Mesh, is *toolpath.Island) {
	base := len(m.Vertices)
	n := len(is.Centerline)

	for c := range m.Attributes {
		if m.Attributes[c] == nil {
			m.Attributes[c] = []float64{}
		}
	}
	attrs := func(v toolpath.ExtrusionVertex) {
		m.Attributes[Flow] = append(m.Attributes[Flow], v.Flow)
		m.Attributes[Speed] = append(m.Attributes[Speed], v.Speed)
		m.Attributes[Tool] = append(m.Attributes[Tool], v.Tool)
	}
	for _, v := range is.Centerline {
		m.Vertices = append(m.Vertices, v.Point)
		attrs(v)
	}
	for i, p := range is.Height {
		m.Vertices = append(m.Vertices, p)
		attrs(is.Centerline[i])
	}

	for i := 0; i < n-1; i++ {
		m.Edges = append(m.Edges,
			[2]int{base + i, base + i + 1},
			[2]int{base + n + i, base + n + i + 1},
		)
	}
	if is.Closed {
		m.Edges = append(m.Edges,
			[2]int{base + n - 1, base},
			[2]int{base + 2*n - 1, base + n},
		)
	}
	for i := 0; i < n; i++ {
		m.Edges = append(m.Edges, [2]int{base + i, base + n + i})
	}
}

// components returns the connected components of m as ascending vertex
// indices, ordered by their smallest index.
func components(m *Mesh) ([][]int, *simple.UndirectedGraph) {
	g := simple.NewUndirectedGraph()
	for i := range m.Vertices {
		g.AddNode(simple.Node(i))
	}
	for _, e := range m.Edges {
		g.SetEdge(simple.Edge{F: simple.Node(e[0]), T: simple.Node(e[1])})
	}

	cc := topo.ConnectedComponents(g)
	res := make([][]int, len(cc))
	for i, c := range cc {
		idx := make([]int, len(c))
		for j, n := range c {
			idx[j] = int(n.ID())
		}
		sort.Ints(idx)
		res[i] = idx
	}
	sort.Slice(res, func(i, j int) bool { return res[i][0] < res[j][0] })
	return res, g
}

// chain checks that idx is joined edge to edge in order.
func chain(g *simple.UndirectedGraph, idx []int) (int, bool) {
	for k := 0; k+1 < len(idx); k++ {
		if !g.HasEdgeBetween(int64(idx[k]), int64(idx[k+1])) {
			return k, false
		}
	}
	return 0, true
}

// Islands rebuilds the islands of m from edge connectivity. Within a
// connected component the vertices, in ascending index order, split into
// the centerline (first half) and the height chain (second half). Both
// halves must be joined edge to edge and the centerline must have length.
//
// Islands are ordered by the Z of their first centerline vertex. Islands
// at the same Z keep the order of their smallest vertex index.
func Islands(m *Mesh) ([]*toolpath.Island, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	comps, g := components(m)
	res := make([]*toolpath.Island, 0, len(comps))
	for _, idx := range comps {
		r := idx[0]
		switch {
		case len(idx) == 1:
			return nil, &Error{Reason: fmt.Sprintf("vertex %d is not connected", r)}
		case len(idx)%2 != 0:
			return nil, &Error{Reason: fmt.Sprintf("island at vertex %d has an odd vertex count %d", r, len(idx))}
		case len(idx) < 4:
			return nil, &Error{Reason: fmt.Sprintf("island at vertex %d has fewer than 2 centerline vertices", r)}
		}

		half := len(idx) / 2
		if k, ok := chain(g, idx[:half]); !ok {
			return nil, &Error{Reason: fmt.Sprintf("island at vertex %d: centerline is broken between vertices %d and %d", r, idx[k], idx[k+1])}
		}
		if k, ok := chain(g, idx[half:]); !ok {
			return nil, &Error{Reason: fmt.Sprintf("island at vertex %d: height chain is broken between vertices %d and %d", r, idx[half+k], idx[half+k+1])}
		}

		is := &toolpath.Island{
			Closed: half >= 3 && g.HasEdgeBetween(int64(idx[half-1]), int64(idx[0])),
		}
		z := m.Vertices[idx[0]].Z
		var length float64
		for k, c := range idx[:half] {
			if k > 0 {
				length += m.Vertices[idx[k-1]].Distance(m.Vertices[c])
			}
			is.Centerline = append(is.Centerline, toolpath.ExtrusionVertex{
				Point:  m.Vertices[c],
				Flow:   m.Attr(Flow, c),
				Speed:  m.Attr(Speed, c),
				Tool:   m.Attr(Tool, c),
				LayerZ: z,
			})
			is.Height = append(is.Height, m.Vertices[idx[half+k]])
		}
		if length <= coord.Epsilon {
			return nil, &Error{Reason: fmt.Sprintf("island at vertex %d has zero length", r)}
		}
		res = append(res, is)
	}

	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Centerline[0].Z < res[j].Centerline[0].Z
	})
	return res, nil
}
