package floor

import (
	"errors"
	"fmt"

	"github.com/gorustyt/navgen/boundary"
	"github.com/gorustyt/navgen/common"
	"github.com/gorustyt/navgen/raster"
	"github.com/gorustyt/navgen/simplify"
)

var (
	ErrNoEar      = errors.New("floor: no ear left to clip")
	ErrHoleBridge = errors.New("floor: no visible bridge to hole")
	ErrDegenerate = errors.New("floor: degenerate polygon")
	ErrInvalid    = errors.New("floor: invalid half-edge mesh")
)

type LinkType uint8

const (
	LinkNormal LinkType = iota
	LinkObstacle
	LinkFloorBoundary
	LinkCellBoundary
)

var linkTypeNames = [...]string{"normal", "obstacle", "floor-boundary", "cell-boundary"}

func (t LinkType) String() string {
	if int(t) >= len(linkTypeNames) {
		return fmt.Sprintf("LinkType(%d)", uint8(t))
	}
	return linkTypeNames[t]
}

// Link is what lies across a half-edge. Exactly one of Pair, Obstacle,
// FloorBoundary and CellBoundary.
type Link interface {
	Type() LinkType
	isLink()
}

// Pair is the twin half-edge inside the same floor.
type Pair struct {
	HalfEdge int32
}

// Obstacle is a wall or hole border.
type Obstacle struct{}

// FloorBoundary borders another floor of the cell. Link indexes the cell's
// floor links once the cell is assembled, -1 before or when unmatched.
type FloorBoundary struct {
	Link int32
}

// CellBoundary lies on the border of the cell facing Dir.
type CellBoundary struct {
	Dir raster.Dir
}

func (Pair) Type() LinkType          { return LinkNormal }
func (Obstacle) Type() LinkType      { return LinkObstacle }
func (FloorBoundary) Type() LinkType { return LinkFloorBoundary }
func (CellBoundary) Type() LinkType  { return LinkCellBoundary }

func (Pair) isLink()          {}
func (Obstacle) isLink()      {}
func (FloorBoundary) isLink() {}
func (CellBoundary) isLink()  {}

type HalfEdge struct {
	Start, End int32
	Face       int32
	Next       int32
	// Source is the simplified edge a border half-edge lies on, NoEdge inside.
	Source simplify.EdgeID
	Link   Link
}

type Triangle struct {
	HalfEdge int32
}

// Geometry places grid corners in the world: x east, y up, z north.
type Geometry struct {
	Origin        common.Vec3
	PixelSize     float32
	AltitudeScale float32
}

// Position returns the world position of a pixel corner of the grid,
// overlap ring included.
func (g Geometry) Position(x, y, altitude int32) common.Vec3 {
	return common.Vec3{
		g.Origin[0] + float32(x-raster.Overlap)*g.PixelSize,
		g.Origin[1] + float32(altitude)*g.AltitudeScale,
		g.Origin[2] + float32(y-raster.Overlap)*g.PixelSize,
	}
}

// Floor is the triangulated walkable area of one polygon.
type Floor struct {
	Color    raster.Color
	Terrain  raster.TerrainMask
	Surface  int32
	Vertices []common.Vec3
	// Sources maps each vertex back to the boundary vertex it was made from.
	Sources   []boundary.VertexID
	Triangles []Triangle
	HalfEdges []HalfEdge
	// FloorLinks and CellLinks list the half-edges of each boundary kind.
	FloorLinks []int32
	CellLinks  [4][]int32
	// Outline is the vertex count of the polygon after hole absorption.
	Outline int
}

// TriangleVertices returns the three vertex indices of triangle t.
func (f *Floor) TriangleVertices(t int) [3]int32 {
	h := f.Triangles[t].HalfEdge
	h1 := f.HalfEdges[h].Next
	h2 := f.HalfEdges[h1].Next
	return [3]int32{f.HalfEdges[h].Start, f.HalfEdges[h1].Start, f.HalfEdges[h2].Start}
}

func (f *Floor) point(v int32) common.Point2 {
	p := f.Vertices[v]
	return common.Point2{X: float64(p[0]), Y: float64(p[2])}
}

// Validate checks the half-edge invariants: each face is a counter-clockwise
// 3-cycle and pairs are mutual and reversed.
func (f *Floor) Validate() error {
	for i, v := range f.Vertices {
		if !common.Visfinite(v) {
			return fmt.Errorf("%w: vertex %d at %v", ErrInvalid, i, v)
		}
	}
	for t := range f.Triangles {
		h := f.Triangles[t].HalfEdge
		for k := 0; k < 3; k++ {
			if f.HalfEdges[h].Face != int32(t) {
				return fmt.Errorf("%w: half-edge %d not on face %d", ErrInvalid, h, t)
			}
			h = f.HalfEdges[h].Next
		}
		if h != f.Triangles[t].HalfEdge {
			return fmt.Errorf("%w: face %d is not a 3-cycle", ErrInvalid, t)
		}
		v := f.TriangleVertices(t)
		if common.Area2(f.point(v[0]), f.point(v[1]), f.point(v[2])) <= 0 {
			return fmt.Errorf("%w: face %d has no area", ErrInvalid, t)
		}
	}
	for i := range f.HalfEdges {
		he := &f.HalfEdges[i]
		if he.Link == nil {
			return fmt.Errorf("%w: half-edge %d has no link", ErrInvalid, i)
		}
		p, ok := he.Link.(Pair)
		if !ok {
			continue
		}
		tw := &f.HalfEdges[p.HalfEdge]
		pp, ok := tw.Link.(Pair)
		if !ok || pp.HalfEdge != int32(i) || tw.Start != he.End || tw.End != he.Start {
			return fmt.Errorf("%w: half-edge %d pair %d is not mutual", ErrInvalid, i, p.HalfEdge)
		}
	}
	return nil
}
