package floor

import (
	"fmt"
	"sort"

	"github.com/gorustyt/navgen/boundary"
	"github.com/gorustyt/navgen/common"
	"github.com/gorustyt/navgen/simplify"
)

// wvert is a vertex of the working polygon. edge is the simplified edge
// leaving it, NoEdge for a bridge.
type wvert struct {
	pos    common.Point2
	vertex boundary.VertexID
	edge   simplify.EdgeID
}

func samePos(a, b common.Point2) bool {
	return common.Vequal2(a, b)
}

// dropDuplicates removes vertices sitting on their predecessor.
func dropDuplicates(ring []wvert) []wvert {
	out := ring[:0]
	for i, v := range ring {
		if i > 0 && samePos(v.pos, out[len(out)-1].pos) {
			out[len(out)-1].edge = v.edge
			continue
		}
		out = append(out, v)
	}
	for len(out) > 1 && samePos(out[0].pos, out[len(out)-1].pos) {
		out[len(out)-2].edge = out[len(out)-1].edge
		out = out[:len(out)-1]
	}
	return out
}

func rightmost(ring []wvert) int {
	best := 0
	for i := 1; i < len(ring); i++ {
		p, b := ring[i].pos, ring[best].pos
		if p.X > b.X || (p.X == b.X && p.Y < b.Y) {
			best = i
		}
	}
	return best
}

// crosses reports whether segment ab hits an edge of ring, edges touching
// a or b excepted.
func crosses(ring []wvert, a, b common.Point2) bool {
	n := len(ring)
	for i := 0; i < n; i++ {
		c, d := ring[i].pos, ring[(i+1)%n].pos
		if samePos(c, a) || samePos(c, b) || samePos(d, a) || samePos(d, b) {
			continue
		}
		if common.Intersect(a, b, c, d) {
			return true
		}
	}
	return false
}

// bridge finds the outer vertex closest to m that m can see without
// crossing the outline or any hole still to be absorbed.
func bridge(outer []wvert, holes [][]wvert, m common.Point2) int {
	n := len(outer)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	dist := func(i int) float64 { return outer[i].pos.Sub(m).Len() }
	sort.SliceStable(order, func(i, j int) bool { return dist(order[i]) < dist(order[j]) })
	for _, i := range order {
		p := outer[i].pos
		if samePos(p, m) {
			continue
		}
		if !common.InCone(outer[(i+n-1)%n].pos, p, outer[(i+1)%n].pos, m) {
			continue
		}
		if crosses(outer, p, m) {
			continue
		}
		blocked := false
		for _, h := range holes {
			if crosses(h, p, m) {
				blocked = true
				break
			}
		}
		if !blocked {
			return i
		}
	}
	return -1
}

// absorbHoles splices every hole into the outline through a bridge,
// rightmost hole first. The bridge vertices appear twice, so the result
// has len(outer) + sum(len(hole)) + 2*len(holes) vertices.
func absorbHoles(outer []wvert, holes [][]wvert) ([]wvert, error) {
	sort.SliceStable(holes, func(i, j int) bool {
		return holes[i][rightmost(holes[i])].pos.X > holes[j][rightmost(holes[j])].pos.X
	})
	for k, hole := range holes {
		mi := rightmost(hole)
		m := hole[mi].pos
		pi := bridge(outer, append([][]wvert{hole}, holes[k+1:]...), m)
		if pi < 0 {
			return nil, fmt.Errorf("%w: hole at (%v,%v)", ErrHoleBridge, m.X, m.Y)
		}
		spliced := make([]wvert, 0, len(outer)+len(hole)+2)
		spliced = append(spliced, outer[:pi+1]...)
		spliced[pi].edge = simplify.NoEdge
		for i := 0; i < len(hole); i++ {
			spliced = append(spliced, hole[(mi+i)%len(hole)])
		}
		mCopy := hole[mi]
		mCopy.edge = simplify.NoEdge
		spliced = append(spliced, mCopy, outer[pi])
		spliced = append(spliced, outer[pi+1:]...)
		outer = spliced
	}
	return outer, nil
}
