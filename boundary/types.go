package boundary

import (
	"fmt"

	"github.com/gorustyt/navgen/raster"
)

type (
	VertexID  int32
	EdgeID    int32
	ContourID int32
	PolygonID int32
)

const (
	NoVertex  VertexID  = -1
	NoEdge    EdgeID    = -1
	NoContour ContourID = -1
)

// Dir8 is one of the eight grid directions, counter-clockwise from east.
type Dir8 int8

const (
	Dir8East Dir8 = iota
	Dir8NorthEast
	Dir8North
	Dir8NorthWest
	Dir8West
	Dir8SouthWest
	Dir8South
	Dir8SouthEast
)

var dir8Names = [8]string{"E", "NE", "N", "NW", "W", "SW", "S", "SE"}

func (d Dir8) String() string {
	if d < 0 || d > 7 {
		return fmt.Sprintf("Dir8(%d)", int8(d))
	}
	return dir8Names[d]
}

func (d Dir8) Opposite() Dir8 { return (d + 4) & 7 }

// Rotate turns d by n eighths of a turn, counter-clockwise for positive n.
func (d Dir8) Rotate(n int) Dir8 {
	return Dir8((int(d) + n%8 + 8) & 7)
}

func (d Dir8) Offset() (dx, dy int32) {
	offX := [8]int32{1, 1, 0, -1, -1, -1, 0, 1}
	offY := [8]int32{0, 1, 1, 1, 0, -1, -1, -1}
	return offX[d&7], offY[d&7]
}

// Diagonal reports whether d is one of the four diagonal directions.
func (d Dir8) Diagonal() bool { return d&1 == 1 }

// EdgeType tells what lies on the right-hand side of a boundary edge.
type EdgeType uint8

const (
	EdgeWall EdgeType = iota
	EdgeHole
	EdgeCellLinkEast
	EdgeCellLinkNorth
	EdgeCellLinkWest
	EdgeCellLinkSouth
	EdgeFloorLink
)

var edgeTypeNames = [...]string{"wall", "hole", "cell-east", "cell-north", "cell-west", "cell-south", "floor-link"}

func (t EdgeType) String() string {
	if int(t) >= len(edgeTypeNames) {
		return fmt.Sprintf("EdgeType(%d)", uint8(t))
	}
	return edgeTypeNames[t]
}

// CellLink returns the edge type of a boundary facing the neighbour cell in direction d.
func CellLink(d raster.Dir) EdgeType {
	return EdgeCellLinkEast + EdgeType(d&3)
}

func (t EdgeType) IsCellLink() bool {
	return t >= EdgeCellLinkEast && t <= EdgeCellLinkSouth
}

// CellDir is only meaningful for cell-link types.
func (t EdgeType) CellDir() raster.Dir {
	return raster.Dir(t - EdgeCellLinkEast)
}

// Obstacle reports whether nothing walkable lies across the edge.
func (t EdgeType) Obstacle() bool {
	return t == EdgeWall || t == EdgeHole
}

type VertexStatus uint8

const (
	StatusStatic VertexStatus = 1 << iota
	StatusDynamic
	StatusNarrow
)

// Vertex is a pixel corner where boundary edges start, end or turn.
// In and Out are indexed by the direction of the incident edge.
type Vertex struct {
	X, Y     int32
	Altitude int32
	Surface  int32
	In       [8]EdgeID
	Out      [8]EdgeID
	Status   VertexStatus
	Index    VertexID
}

func (v *Vertex) Narrow() bool { return v.Status&StatusNarrow != 0 }

// Edge is a maximal straight run of unit boundary segments sharing type and
// colours. The region of colour Left lies on its left; Right is the colour
// across it, raster.Unset when nothing coloured is there.
type Edge struct {
	From, To VertexID
	Dir      Dir8
	Type     EdgeType
	Left     raster.Color
	Right    raster.Color
	Contour  ContourID
	Pair     EdgeID
	Next     EdgeID
	Length   int32
}

type Winding int8

const (
	WindingCW  Winding = -1
	WindingCCW Winding = 1
)

func (w Winding) String() string {
	if w == WindingCW {
		return "cw"
	}
	return "ccw"
}

// Contour is a closed cycle of edges: following Next EdgeCount times from
// Begin returns to Begin.
type Contour struct {
	Begin     EdgeID
	EdgeCount int32
	Winding   Winding
	Left      raster.Color
	Area      float64
	Hole      bool
}

// Polygon is the outline of one colour: an exterior contour and the hole
// contours wound the other way.
type Polygon struct {
	Exterior ContourID
	Holes    []ContourID
	Left     raster.Color
	Surface  int32
}
