package geometry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mastercactapus/gribbon/coord"
	"github.com/mastercactapus/gribbon/ctxlog"
	"github.com/mastercactapus/gribbon/fsutil"
)

type Object struct {
	Name string
	Mesh
}

// Document is the interchange form of a set of named meshes:
//
//	{"objects":[{"name":"part","vertices":[[x,y,z]],"edges":[[0,1]],
//	  "attributes":{"flow":[1],"speed":[1],"tool":[1]}}]}
type Document struct {
	Objects []Object
}

type jsonObject struct {
	Name       string               `json:"name"`
	Vertices   [][3]float64         `json:"vertices"`
	Edges      [][2]int             `json:"edges"`
	Attributes map[string][]float64 `json:"attributes,omitempty"`
}

type jsonDocument struct {
	Objects []jsonObject `json:"objects"`
}

func (d *Document) MarshalJSON() ([]byte, error) {
	doc := jsonDocument{Objects: make([]jsonObject, len(d.Objects))}
	for i, o := range d.Objects {
		jo := jsonObject{
			Name:     o.Name,
			Vertices: make([][3]float64, len(o.Vertices)),
			Edges:    o.Edges,
		}
		if jo.Edges == nil {
			jo.Edges = [][2]int{}
		}
		for j, v := range o.Vertices {
			jo.Vertices[j] = [3]float64{v.X, v.Y, v.Z}
		}
		for c, vals := range o.Attributes {
			if vals == nil {
				continue
			}
			if jo.Attributes == nil {
				jo.Attributes = make(map[string][]float64)
			}
			jo.Attributes[Channel(c).String()] = vals
		}
		doc.Objects[i] = jo
	}
	return json.Marshal(doc)
}

// Decode reads a document. Attribute names are resolved to channels once
// here; unknown names are dropped.
func Decode(ctx context.Context, r io.Reader) (*Document, error) {
	log := ctxlog.FromContext(ctx)

	var doc jsonDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode geometry: %w", err)
	}

	res := &Document{Objects: make([]Object, len(doc.Objects))}
	for i, jo := range doc.Objects {
		o := Object{Name: jo.Name}
		o.Vertices = make([]coord.Point, len(jo.Vertices))
		for j, v := range jo.Vertices {
			o.Vertices[j] = coord.Point{X: v[0], Y: v[1], Z: v[2]}
		}
		o.Edges = jo.Edges
		for name, vals := range jo.Attributes {
			c, ok := ParseChannel(name)
			if !ok {
				log.Debug("ignoring attribute channel", "object", jo.Name, "name", name)
				continue
			}
			o.Attributes[c] = vals
		}
		if err := o.Validate(); err != nil {
			var ge *Error
			if errors.As(err, &ge) {
				ge.Object = o.Name
			}
			return nil, err
		}
		res.Objects[i] = o
	}
	return res, nil
}

// ReadFile decodes the document at path.
func ReadFile(ctx context.Context, path string) (*Document, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geometry %s: %w", path, err)
	}
	defer fd.Close()
	return Decode(ctx, fd)
}

func (d *Document) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	return enc.Encode(d)
}

// WriteFile writes the document to path, replacing it atomically.
func (d *Document) WriteFile(path string) error {
	return fsutil.WriteFileAtomic(path, d.Encode)
}

// Merge joins every object into one mesh.
func (d *Document) Merge() *Mesh {
	var m Mesh
	for i := range d.Objects {
		m.Append(&d.Objects[i].Mesh)
	}
	return &m
}
