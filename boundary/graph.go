package boundary

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/gorustyt/navgen/raster"
)

// Graph is the boundary of every region of one cell. All references are
// indices into its slices.
type Graph struct {
	Width, Height int
	Vertices      []Vertex
	Edges         []Edge
	Contours      []Contour
	Polygons      []Polygon
	// Terrain is indexed by colour.
	Terrain []raster.TerrainMask
}

// ComputeNextEdge picks the edge that continues the contour of e at its end
// vertex: the sharpest left turn among the outgoing edges of the same colour.
func (g *Graph) ComputeNextEdge(e EdgeID) EdgeID {
	ed := &g.Edges[e]
	v := &g.Vertices[ed.To]
	for turn := 3; turn >= -3; turn-- {
		n := v.Out[ed.Dir.Rotate(turn)]
		if n != NoEdge && g.Edges[n].Left == ed.Left {
			return n
		}
	}
	return NoEdge
}

// TraceContours links every coloured edge into a closed contour. Uncoloured
// twins of walls are left out.
func (g *Graph) TraceContours() error {
	g.Contours = g.Contours[:0]
	for i := range g.Edges {
		start := EdgeID(i)
		if g.Edges[start].Left == raster.Unset || g.Edges[start].Contour != NoContour {
			continue
		}
		id := ContourID(len(g.Contours))
		cur, count := start, int32(0)
		for {
			g.Edges[cur].Contour = id
			count++
			next := g.ComputeNextEdge(cur)
			if next == NoEdge {
				v := &g.Vertices[g.Edges[cur].To]
				return fmt.Errorf("%w: no continuation at (%d,%d) for colour %d", ErrContourOpen, v.X, v.Y, g.Edges[cur].Left)
			}
			g.Edges[cur].Next = next
			if next == start {
				break
			}
			if g.Edges[next].Contour != NoContour {
				v := &g.Vertices[g.Edges[next].From]
				return fmt.Errorf("%w: edge revisited at (%d,%d) for colour %d", ErrContourOpen, v.X, v.Y, g.Edges[cur].Left)
			}
			cur = next
		}
		c := Contour{Begin: start, EdgeCount: count, Left: g.Edges[start].Left}
		ring := g.Ring(&c)
		c.Area = planar.Area(ring)
		c.Winding = WindingCCW
		if ring.Orientation() == orb.CW {
			c.Winding = WindingCW
		}
		g.Contours = append(g.Contours, c)
	}
	return nil
}

// Ring returns the closed vertex ring of a contour.
func (g *Graph) Ring(c *Contour) orb.Ring {
	ring := make(orb.Ring, 0, c.EdgeCount+1)
	e := c.Begin
	for i := int32(0); i < c.EdgeCount; i++ {
		v := &g.Vertices[g.Edges[e].From]
		ring = append(ring, orb.Point{float64(v.X), float64(v.Y)})
		e = g.Edges[e].Next
	}
	return append(ring, ring[0])
}

// GroupPolygons gathers the contours of each colour into a polygon. The
// exterior winding is the one shared by most colours' largest contours;
// each colour needs exactly one contour wound that way.
func (g *Graph) GroupPolygons() error {
	byColor := make(map[raster.Color][]ContourID)
	for i := range g.Contours {
		c := &g.Contours[i]
		byColor[c.Left] = append(byColor[c.Left], ContourID(i))
	}
	colors := make([]raster.Color, 0, len(byColor))
	for c := range byColor {
		colors = append(colors, c)
	}
	sort.Slice(colors, func(i, j int) bool { return colors[i] < colors[j] })

	largest := make(map[raster.Color]ContourID, len(colors))
	votes := 0
	for _, col := range colors {
		best := byColor[col][0]
		for _, id := range byColor[col][1:] {
			if g.Contours[id].Area > g.Contours[best].Area {
				best = id
			}
		}
		largest[col] = best
		votes += int(g.Contours[best].Winding)
	}
	exterior := WindingCCW
	if votes < 0 {
		exterior = WindingCW
	}

	g.Polygons = g.Polygons[:0]
	for _, col := range colors {
		ext := largest[col]
		if g.Contours[ext].Winding != exterior {
			return fmt.Errorf("%w: colour %d outline is %s", ErrHoleWinding, col, g.Contours[ext].Winding)
		}
		p := Polygon{Exterior: ext, Left: col, Surface: g.Vertices[g.Edges[g.Contours[ext].Begin].From].Surface}
		for _, id := range byColor[col] {
			if id == ext {
				continue
			}
			if g.Contours[id].Winding == exterior {
				return fmt.Errorf("%w: colour %d has contours %d and %d", ErrExteriorCount, col, ext, id)
			}
			g.Contours[id].Hole = true
			p.Holes = append(p.Holes, id)
		}
		g.Polygons = append(g.Polygons, p)
	}
	return nil
}

// ContourEdges lists the edges of a contour in order.
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

// Positions returns every unit step corner of a contour, starting at the
// first vertex and without repeating it at the end.
func (g *Graph) Positions(id ContourID) [][2]int32 {
	var pts [][2]int32
	for _, e := range g.ContourEdges(id) {
		pts = append(pts, g.EdgePositions(e)...)
		pts = pts[:len(pts)-1]
	}
	return pts
}

// EdgePositions returns the Length+1 pixel corners along edge e.
func (g *Graph) EdgePositions(e EdgeID) [][2]int32 {
	ed := &g.Edges[e]
	v := &g.Vertices[ed.From]
	dx, dy := ed.Dir.Offset()
	pts := make([][2]int32, 0, ed.Length+1)
	for k := int32(0); k <= ed.Length; k++ {
		pts = append(pts, [2]int32{v.X + k*dx, v.Y + k*dy})
	}
	return pts
}

// ColorEdgeCount counts the coloured edges of colour c.
func (g *Graph) ColorEdgeCount(c raster.Color) int {
	n := 0
	for i := range g.Edges {
		if g.Edges[i].Left == c {
			n++
		}
	}
	return n
}
