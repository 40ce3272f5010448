package floor

import (
	"fmt"

	"github.com/gorustyt/navgen/boundary"
	"github.com/gorustyt/navgen/common"
	"github.com/gorustyt/navgen/simplify"
)

func contourRing(sg *simplify.Graph, id simplify.ContourID) []wvert {
	edges := sg.ContourEdges(id)
	ring := make([]wvert, 0, len(edges))
	for _, e := range edges {
		v := sg.Vertex(sg.Edges[e].From)
		ring = append(ring, wvert{
			pos:    common.Point2{X: float64(v.X), Y: float64(v.Y)},
			vertex: v.Index,
			edge:   e,
		})
	}
	return dropDuplicates(ring)
}

func signedArea(ring []wvert) float64 {
	area := 0.0
	for i := range ring {
		a, b := ring[i].pos, ring[(i+1)%len(ring)].pos
		area += a.X*b.Y - b.X*a.Y
	}
	return area / 2
}

// Triangulate turns one simplified polygon into a floor: holes are bridged
// into the outline, the outline is ear clipped and the triangles are
// linked into a half-edge mesh whose border half-edges carry the type of the
// simplified edge they lie on.
func Triangulate(sg *simplify.Graph, id simplify.PolygonID, geo Geometry) (*Floor, error) {
	p := &sg.Polygons[id]
	outer := contourRing(sg, p.Exterior)
	if len(outer) < 3 || signedArea(outer) <= 0 {
		return nil, fmt.Errorf("%w: outline of colour %d", ErrDegenerate, p.Left)
	}
	holes := make([][]wvert, 0, len(p.Holes))
	for _, h := range p.Holes {
		ring := contourRing(sg, h)
		if len(ring) < 3 || signedArea(ring) >= 0 {
			return nil, fmt.Errorf("%w: hole contour %d of colour %d", ErrDegenerate, h, p.Left)
		}
		holes = append(holes, ring)
	}
	work, err := absorbHoles(outer, holes)
	if err != nil {
		return nil, err
	}

	pts := make([]common.Point2, len(work))
	for i := range work {
		pts[i] = work[i].pos
	}
	tris, err := newClipper(pts).run()
	if err != nil {
		return nil, fmt.Errorf("colour %d: %w", p.Left, err)
	}

	f := &Floor{
		Color:   p.Left,
		Terrain: p.Terrain,
		Surface: p.Surface,
		Outline: len(work),
	}
	index := make(map[boundary.VertexID]int32, len(work))
	local := make([]int32, len(work))
	for i, w := range work {
		k, ok := index[w.vertex]
		if !ok {
			v := sg.Vertex(w.vertex)
			k = int32(len(f.Vertices))
			index[w.vertex] = k
			f.Vertices = append(f.Vertices, geo.Position(v.X, v.Y, v.Altitude))
			f.Sources = append(f.Sources, w.vertex)
		}
		local[i] = k
	}
	border := make(map[[2]int32]simplify.EdgeID, len(work))
	for i, w := range work {
		if w.edge == simplify.NoEdge {
			continue
		}
		border[[2]int32{local[i], local[(i+1)%len(work)]}] = w.edge
	}
	if err := f.link(sg, tris, local, border); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Floor) link(sg *simplify.Graph, tris [][3]int, local []int32, border map[[2]int32]simplify.EdgeID) error {
	f.Triangles = make([]Triangle, 0, len(tris))
	f.HalfEdges = make([]HalfEdge, 0, 3*len(tris))
	byEnds := make(map[[2]int32]int32, 3*len(tris))
	for t, tri := range tris {
		base := int32(len(f.HalfEdges))
		f.Triangles = append(f.Triangles, Triangle{HalfEdge: base})
		for k := 0; k < 3; k++ {
			a, b := local[tri[k]], local[tri[(k+1)%3]]
			f.HalfEdges = append(f.HalfEdges, HalfEdge{
				Start: a, End: b, Face: int32(t),
				Next:   base + int32((k+1)%3),
				Source: simplify.NoEdge,
			})
			byEnds[[2]int32{a, b}] = base + int32(k)
		}
	}
	for i := range f.HalfEdges {
		he := &f.HalfEdges[i]
		if tw, ok := byEnds[[2]int32{he.End, he.Start}]; ok {
			he.Link = Pair{HalfEdge: tw}
			continue
		}
		src, ok := border[[2]int32{he.Start, he.End}]
		if !ok {
			return fmt.Errorf("%w: half-edge %d -> %d is neither paired nor on the outline", ErrDegenerate, he.Start, he.End)
		}
		he.Source = src
		typ := sg.Edges[src].Type
		switch {
		case typ.Obstacle():
			he.Link = Obstacle{}
		case typ.IsCellLink():
			he.Link = CellBoundary{Dir: typ.CellDir()}
			f.CellLinks[typ.CellDir()] = append(f.CellLinks[typ.CellDir()], int32(i))
		default:
			he.Link = FloorBoundary{Link: -1}
			f.FloorLinks = append(f.FloorLinks, int32(i))
		}
	}
	return nil
}
