package simplify

import (
	"errors"

	"github.com/gorustyt/navgen/boundary"
	"github.com/gorustyt/navgen/raster"
)

var (
	ErrDegenerate = errors.New("simplify: contour collapsed below three vertices")
	ErrBadOptions = errors.New("simplify: invalid tolerance")
)

type (
	EdgeID    int32
	ContourID int32
	PolygonID int32
)

const NoEdge EdgeID = -1

// Options bound how far a simplified edge may stray from the boundary it
// replaces. Horizontal is in pixels; Vertical in altitude units, and a
// negative Vertical ignores altitude.
type Options struct {
	Horizontal float64
	Vertical   float64
}

// PolylineVertex is a kept boundary vertex with the original edges
// entering and leaving it.
type PolylineVertex struct {
	Vertex boundary.VertexID
	In     boundary.EdgeID
	Out    boundary.EdgeID
}

// Polyline is the list of kept vertices of one run. A cyclic polyline
// closes on its first vertex.
type Polyline struct {
	Vertices []PolylineVertex
	Cycle    bool
}

// Edge replaces the original edges First..Last of one contour.
type Edge struct {
	From, To boundary.VertexID
	First    boundary.EdgeID
	Last     boundary.EdgeID
	Type     boundary.EdgeType
	Left     raster.Color
	Right    raster.Color
	Pair     EdgeID
	Contour  ContourID
	Next     EdgeID
}

type Contour struct {
	Begin     EdgeID
	EdgeCount int32
	Winding   boundary.Winding
	Left      raster.Color
	Hole      bool
	Source    boundary.ContourID
}

type Polygon struct {
	Exterior ContourID
	Holes    []ContourID
	Left     raster.Color
	Surface  int32
	Terrain  raster.TerrainMask
}

// Graph is the simplified counterpart of a boundary graph. Vertices are
// shared with Source.
type Graph struct {
	Source    *boundary.Graph
	Edges     []Edge
	Contours  []Contour
	Polygons  []Polygon
	Polylines []Polyline
}

func (g *Graph) Vertex(id boundary.VertexID) *boundary.Vertex {
	return &g.Source.Vertices[id]
}

// ContourEdges lists the edges of a simplified contour in order.
func (g *Graph) ContourEdges(id ContourID) []EdgeID {
	c := &g.Contours[id]
	edges := make([]EdgeID, 0, c.EdgeCount)
	e := c.Begin
	for i := int32(0); i < c.EdgeCount; i++ {
		edges = append(edges, e)
		e = g.Edges[e].Next
	}
	return edges
}

// Original re-walks the boundary edges a simplified edge stands for.
func (g *Graph) Original(e EdgeID) []boundary.EdgeID {
	ed := &g.Edges[e]
	var out []boundary.EdgeID
	for cur := ed.First; ; cur = g.Source.Edges[cur].Next {
		out = append(out, cur)
		if cur == ed.Last {
			return out
		}
	}
}
