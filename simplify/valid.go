package simplify

import (
	"github.com/gorustyt/navgen/boundary"
	"github.com/gorustyt/navgen/common"
)

type ringEdge struct {
	id   EdgeID
	a, b common.Point2
	ring int
	pos  int
	n    int
}

func (g *Graph) point2(v boundary.VertexID) common.Point2 {
	vx := g.Vertex(v)
	return common.Point2{X: float64(vx.X), Y: float64(vx.Y)}
}

// offenders lists the edges keeping polygon p from being a set of simple
// rings: every edge of a ring whose area vanished or changed sign, edges
// folding back onto the previous one, and edges meeting anywhere but at a
// shared corner. An edge may be listed more than once.
func (g *Graph) offenders(p *Polygon) []EdgeID {
	var edges []ringEdge
	var bad []EdgeID
	for ri, c := range append([]ContourID{p.Exterior}, p.Holes...) {
		ids := g.ContourEdges(c)
		area := 0.0
		for pos, e := range ids {
			a, b := g.point2(g.Edges[e].From), g.point2(g.Edges[e].To)
			area += a.X*b.Y - b.X*a.Y
			edges = append(edges, ringEdge{id: e, a: a, b: b, ring: ri, pos: pos, n: len(ids)})
		}
		if area*float64(g.Contours[c].Winding) <= 0 {
			bad = append(bad, ids...)
		}
	}
	for i := range edges {
		for j := i + 1; j < len(edges); j++ {
			x, y := &edges[i], &edges[j]
			var hit bool
			switch {
			case x.ring == y.ring && y.pos == x.pos+1:
				hit = folds(x, y)
			case x.ring == y.ring && x.pos == 0 && y.pos == y.n-1:
				hit = folds(y, x)
			default:
				hit = meets(x, y)
			}
			if hit {
				bad = append(bad, x.id, y.id)
			}
		}
	}
	return bad
}

// folds reports whether out turns straight back along in.
func folds(in, out *ringEdge) bool {
	if !common.Collinear(in.a, in.b, out.b) {
		return false
	}
	u, v := in.b.Sub(in.a), out.b.Sub(out.a)
	return u.X*v.X+u.Y*v.Y < 0
}

// meets reports whether two non-consecutive edges touch other than at a
// common endpoint, or overlap along a common endpoint.
func meets(x, y *ringEdge) bool {
	if !common.Intersect(x.a, x.b, y.a, y.b) {
		return false
	}
	var p, q, r common.Point2
	switch {
	case x.a == y.a:
		p, q, r = x.a, x.b, y.b
	case x.a == y.b:
		p, q, r = x.a, x.b, y.a
	case x.b == y.a:
		p, q, r = x.b, x.a, y.b
	case x.b == y.b:
		p, q, r = x.b, x.a, y.a
	default:
		return true
	}
	if !common.Collinear(p, q, r) {
		return false
	}
	u, v := q.Sub(p), r.Sub(p)
	return u.X*v.X+u.Y*v.Y > 0
}
