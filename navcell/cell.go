package navcell

import (
	"sort"

	"github.com/gorustyt/navgen/common"
	"github.com/gorustyt/navgen/floor"
	"github.com/gorustyt/navgen/raster"
)

type Options struct {
	// Tolerance is the horizontal distance under which two link end points match.
	Tolerance float32
	// MaxStep is the largest altitude difference a floor link may bridge.
	MaxStep float32
	// Enlargement widens the cell bounds on the horizontal plane.
	Enlargement float32
}

// FloorLink joins two floor-boundary half-edges lying on the same segment.
type FloorLink struct {
	FloorA, EdgeA int32
	FloorB, EdgeB int32
}

// BoundaryEdge is a half-edge on the border of the cell.
type BoundaryEdge struct {
	Floor    int32
	HalfEdge int32
}

// Cell is the generated navigation data of one grid cell. Boundaries are
// indexed by raster.Dir and sorted along the border, ready to be stitched
// against the opposite list of the neighbour cell.
type Cell struct {
	X, Y           int32
	Floors         []*floor.Floor
	Links          []FloorLink
	Boundaries     [4][]BoundaryEdge
	BoundsMin      common.Vec3
	BoundsMax      common.Vec3
	UnmatchedLinks int
}

type linkEnd struct {
	floor, he  int32
	start, end common.Vec3
	matched    bool
}

func (o Options) matches(a, b *linkEnd) bool {
	if common.Vdist2D(a.start, b.end) > o.Tolerance || common.Vdist2D(a.end, b.start) > o.Tolerance {
		return false
	}
	return common.Abs(a.start.Y()-b.end.Y()) <= o.MaxStep && common.Abs(a.end.Y()-b.start.Y()) <= o.MaxStep
}

// Assemble gathers the floors of a cell, links floor boundaries running
// along the same segment in opposite directions and collects the cell
// border half-edges per direction. Floor boundaries left without a partner
// are counted, not reported as errors.
func Assemble(x, y int32, floors []*floor.Floor, opts Options) *Cell {
	c := &Cell{X: x, Y: y, Floors: floors}
	var ends []linkEnd
	for fi, f := range floors {
		for _, he := range f.FloorLinks {
			h := &f.HalfEdges[he]
			ends = append(ends, linkEnd{
				floor: int32(fi), he: he,
				start: f.Vertices[h.Start], end: f.Vertices[h.End],
			})
		}
	}
	for i := range ends {
		a := &ends[i]
		if a.matched {
			continue
		}
		for j := i + 1; j < len(ends); j++ {
			b := &ends[j]
			if b.matched || b.floor == a.floor || !opts.matches(a, b) {
				continue
			}
			k := int32(len(c.Links))
			c.Links = append(c.Links, FloorLink{FloorA: a.floor, EdgeA: a.he, FloorB: b.floor, EdgeB: b.he})
			floors[a.floor].HalfEdges[a.he].Link = floor.FloorBoundary{Link: k}
			floors[b.floor].HalfEdges[b.he].Link = floor.FloorBoundary{Link: k}
			a.matched, b.matched = true, true
			break
		}
		if !a.matched {
			c.UnmatchedLinks++
		}
	}

	for fi, f := range floors {
		for d := range f.CellLinks {
			for _, he := range f.CellLinks[d] {
				c.Boundaries[d] = append(c.Boundaries[d], BoundaryEdge{Floor: int32(fi), HalfEdge: he})
			}
		}
	}
	for d := range c.Boundaries {
		c.sortBoundary(raster.Dir(d))
	}
	c.computeBounds(opts.Enlargement)
	return c
}

// along returns the position of a border half-edge along its border.
func (c *Cell) along(d raster.Dir, b BoundaryEdge) float32 {
	f := c.Floors[b.Floor]
	h := &f.HalfEdges[b.HalfEdge]
	axis := 0
	if d == raster.DirEast || d == raster.DirWest {
		axis = 2
	}
	return min(f.Vertices[h.Start][axis], f.Vertices[h.End][axis])
}

func (c *Cell) sortBoundary(d raster.Dir) {
	list := c.Boundaries[d]
	sort.SliceStable(list, func(i, j int) bool {
		pi, pj := c.along(d, list[i]), c.along(d, list[j])
		if pi != pj {
			return pi < pj
		}
		if list[i].Floor != list[j].Floor {
			return list[i].Floor < list[j].Floor
		}
		return list[i].HalfEdge < list[j].HalfEdge
	})
}

func (c *Cell) computeBounds(enlargement float32) {
	first := true
	for _, f := range c.Floors {
		for _, v := range f.Vertices {
			if first {
				c.BoundsMin, c.BoundsMax = v, v
				first = false
				continue
			}
			c.BoundsMin = common.Vmin(c.BoundsMin, v)
			c.BoundsMax = common.Vmax(c.BoundsMax, v)
		}
	}
	if first {
		return
	}
	c.BoundsMin[0] -= enlargement
	c.BoundsMin[2] -= enlargement
	c.BoundsMax[0] += enlargement
	c.BoundsMax[2] += enlargement
}

// TriangleCount sums the triangles of every floor.
func (c *Cell) TriangleCount() int {
	n := 0
	for _, f := range c.Floors {
		n += len(f.Triangles)
	}
	return n
}
