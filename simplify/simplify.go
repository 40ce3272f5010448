package simplify

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/gorustyt/navgen/boundary"
	"github.com/gorustyt/navgen/common"
)

// Simplify reduces every contour of src to straight edges within opts.
// Contours are cut at anchor vertices (narrow vertices, vertices a contour
// passes twice and changes of edge type or neighbour colour); each run is
// simplified in a direction fixed by its geometry, so both sides of a
// shared boundary keep the same vertices. When a polygon comes out with
// crossing, touching or inverted rings, the vertices under the offending
// edges are pinned as anchors and every contour is simplified again.
func Simplify(src *boundary.Graph, opts Options) (*Graph, error) {
	if opts.Horizontal < 0 || math.IsNaN(opts.Horizontal) || math.IsNaN(opts.Vertical) {
		return nil, fmt.Errorf("%w: horizontal %v vertical %v", ErrBadOptions, opts.Horizontal, opts.Vertical)
	}
	s := &simplifier{src: src, opts: opts, pinned: make(map[boundary.VertexID]bool)}
	for {
		g, err := s.pass()
		if err != nil {
			return nil, err
		}
		if !s.pin(g) {
			return g, nil
		}
	}
}

type simplifier struct {
	src    *boundary.Graph
	opts   Options
	g      *Graph
	edges  []boundary.EdgeID
	pinned map[boundary.VertexID]bool
}

func (s *simplifier) pass() (*Graph, error) {
	src := s.src
	s.g = &Graph{Source: src}
	for ci := range src.Contours {
		if err := s.contour(boundary.ContourID(ci)); err != nil {
			return nil, err
		}
	}
	s.g.resolvePairs()
	for _, p := range src.Polygons {
		sp := Polygon{Exterior: ContourID(p.Exterior), Left: p.Left, Surface: p.Surface}
		for _, h := range p.Holes {
			sp.Holes = append(sp.Holes, ContourID(h))
		}
		if int(p.Left) < len(src.Terrain) {
			sp.Terrain = src.Terrain[p.Left]
		}
		s.g.Polygons = append(s.g.Polygons, sp)
	}
	return s.g, nil
}

// pin anchors the inner vertices of every edge that breaks its polygon and
// reports whether any vertex was newly pinned.
func (s *simplifier) pin(g *Graph) bool {
	added := false
	for i := range g.Polygons {
		for _, e := range g.offenders(&g.Polygons[i]) {
			orig := g.Original(e)
			for _, o := range orig[:len(orig)-1] {
				if v := s.src.Edges[o].To; !s.pinned[v] {
					s.pinned[v] = true
					added = true
				}
			}
		}
	}
	return added
}

func (s *simplifier) vertex(k int) *boundary.Vertex {
	n := len(s.edges)
	return &s.src.Vertices[s.src.Edges[s.edges[((k%n)+n)%n]].From]
}

func (s *simplifier) point(k int) orb.Point {
	v := s.vertex(k)
	return orb.Point{float64(v.X), float64(v.Y)}
}

func (s *simplifier) edge(k int) *boundary.Edge {
	n := len(s.edges)
	return &s.src.Edges[s.edges[((k%n)+n)%n]]
}

func less(a, b orb.Point) bool {
	if a[0] != b[0] {
		return a[0] < b[0]
	}
	return a[1] < b[1]
}

// dist is the distance from p to the segment ab, the same whichever way
// the segment is given.
func dist(a, b, p orb.Point) float64 {
	if less(b, a) {
		a, b = b, a
	}
	return planar.DistanceFromSegment(a, b, p)
}

func point2(p orb.Point) common.Point2 {
	return common.Point2{X: p[0], Y: p[1]}
}

func (s *simplifier) anchors() []int {
	n := len(s.edges)
	visits := make(map[boundary.VertexID]int, n)
	for _, e := range s.edges {
		visits[s.src.Edges[e].From]++
	}
	var anchors []int
	for k := 0; k < n; k++ {
		prev, cur := s.edge(k-1), s.edge(k)
		if s.vertex(k).Narrow() || visits[cur.From] > 1 || s.pinned[cur.From] ||
			prev.Type != cur.Type || prev.Right != cur.Right {
			anchors = append(anchors, k)
		}
	}
	return anchors
}

// run simplifies the vertices a..b (b > a, indices modulo the contour
// length) and returns the kept indices, a included and b excluded.
func (s *simplifier) run(a, b int) []int {
	reversed := less(s.point(b), s.point(a)) ||
		(s.point(a) == s.point(b) && less(s.point(b-1), s.point(a+1)))
	order := make([]int, 0, b-a+1)
	for k := a; k <= b; k++ {
		order = append(order, k)
	}
	if reversed {
		for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
			order[i], order[j] = order[j], order[i]
		}
	}
	kept := s.greedy(order)
	out := make([]int, 0, len(kept))
	for _, i := range kept {
		if order[i] != b {
			out = append(out, order[i])
		}
	}
	return out
}

// cycle simplifies a contour without anchors. It starts from the smallest
// vertex towards its smaller neighbour and always keeps the vertex farthest
// from the start; ties go to the smaller point.
func (s *simplifier) cycle() []int {
	n := len(s.edges)
	start := 0
	for k := 1; k < n; k++ {
		if less(s.point(k), s.point(start)) {
			start = k
		}
	}
	step := 1
	if less(s.point(start-1), s.point(start+1)) {
		step = -1
	}
	order := make([]int, 0, n+1)
	for i := 0; i <= n; i++ {
		order = append(order, start+i*step)
	}
	far, best := 1, -1.0
	for i := 1; i < n; i++ {
		d := planar.Distance(s.point(order[0]), s.point(order[i]))
		if d > best || (d == best && less(s.point(order[i]), s.point(order[far]))) {
			far, best = i, d
		}
	}
	var out []int
	for _, i := range s.greedy(order[:far+1]) {
		out = append(out, order[i])
	}
	for _, i := range s.greedy(order[far:]) {
		if i > 0 && far+i < n {
			out = append(out, order[far+i])
		}
	}
	return out
}

// greedy keeps the first and last vertex of order and drops every vertex
// whose removal keeps the boundary within tolerance of the chord.
func (s *simplifier) greedy(order []int) []int {
	last := len(order) - 1
	kept := []int{0}
	for i := 0; i < last; {
		j := i + 1
		for j < last && s.fits(order, i, j+1) {
			j++
		}
		kept = append(kept, j)
		i = j
	}
	return kept
}

// fits checks the chord order[i] -> order[k] against the midpoint of every
// unit step in between and, when enabled, the altitude of every dropped
// vertex. Along walls and holes a dropped vertex farther than the tolerance
// must lie on the obstacle side of the chord.
func (s *simplifier) fits(order []int, i, k int) bool {
	a, b := s.point(order[i]), s.point(order[k])
	if a == b {
		return false
	}
	for e := i; e < k; e++ {
		for _, m := range unitMidpoints(s.point(order[e]), s.point(order[e+1])) {
			if dist(a, b, m) > s.opts.Horizontal {
				return false
			}
		}
	}
	if s.edge(min(order[i], order[i+1])).Type.Obstacle() {
		forward := order[k] > order[i]
		for l := i + 1; l < k; l++ {
			p := s.point(order[l])
			side := common.Area2(point2(a), point2(b), point2(p))
			if !forward {
				side = -side
			}
			if side > 0 && dist(a, b, p) > s.opts.Horizontal {
				return false
			}
		}
	}
	if s.opts.Vertical < 0 {
		return true
	}
	total := 0.0
	for e := i; e < k; e++ {
		total += planar.Distance(s.point(order[e]), s.point(order[e+1]))
	}
	altA, altB := float64(s.vertex(order[i]).Altitude), float64(s.vertex(order[k]).Altitude)
	walked := 0.0
	for l := i + 1; l < k; l++ {
		walked += planar.Distance(s.point(order[l-1]), s.point(order[l]))
		want := altA + (altB-altA)*walked/total
		if math.Abs(float64(s.vertex(order[l]).Altitude)-want) > s.opts.Vertical {
			return false
		}
	}
	return true
}

func unitMidpoints(a, b orb.Point) []orb.Point {
	steps := int(math.Max(math.Abs(b[0]-a[0]), math.Abs(b[1]-a[1])) + 0.5)
	if steps == 0 {
		return nil
	}
	pts := make([]orb.Point, steps)
	for t := 0; t < steps; t++ {
		f := (float64(t) + 0.5) / float64(steps)
		pts[t] = orb.Point{a[0] + f*(b[0]-a[0]), a[1] + f*(b[1]-a[1])}
	}
	return pts
}

func (s *simplifier) normalize(kept []int) []int {
	n := len(s.edges)
	for i := range kept {
		kept[i] = ((kept[i] % n) + n) % n
	}
	sort.Ints(kept)
	out := kept[:0]
	for i, k := range kept {
		if i == 0 || k != kept[i-1] {
			out = append(out, k)
		}
	}
	return out
}

// widen re-inserts the vertex farthest from its chord until the contour
// keeps three vertices. Ties go to the smaller point so that both sides of
// a shared boundary pick the same one.
func (s *simplifier) widen(kept []int) ([]int, error) {
	n := len(s.edges)
	for len(kept) < 3 {
		isKept := make(map[int]bool, len(kept))
		for _, k := range kept {
			isKept[k] = true
		}
		best, bestDist := -1, -1.0
		var bestPoint orb.Point
		for i, k := range kept {
			next := kept[(i+1)%len(kept)]
			end := next
			if end <= k {
				end += n
			}
			for l := k + 1; l < end; l++ {
				if isKept[l%n] {
					continue
				}
				p := s.point(l)
				d := dist(s.point(k), s.point(next), p)
				if d > bestDist || (d == bestDist && less(p, bestPoint)) {
					best, bestDist, bestPoint = l%n, d, p
				}
			}
		}
		if best < 0 {
			return nil, fmt.Errorf("%w: %d vertices", ErrDegenerate, n)
		}
		kept = s.normalize(append(kept, best))
	}
	return kept, nil
}

func (s *simplifier) contour(ci boundary.ContourID) error {
	src := s.src
	s.edges = src.ContourEdges(ci)
	n := len(s.edges)
	anchors := s.anchors()
	var kept []int
	if len(anchors) == 0 {
		kept = s.cycle()
	} else {
		for i, a := range anchors {
			b := anchors[(i+1)%len(anchors)]
			if b <= a {
				b += n
			}
			kept = append(kept, s.run(a, b)...)
		}
	}
	kept, err := s.widen(s.normalize(kept))
	if err != nil {
		return fmt.Errorf("contour %d: %w", ci, err)
	}

	c := &src.Contours[ci]
	id := ContourID(len(s.g.Contours))
	base := EdgeID(len(s.g.Edges))
	for i, k := range kept {
		next := kept[(i+1)%len(kept)]
		first := s.edges[k]
		last := s.edges[(next+n-1)%n]
		fe := &src.Edges[first]
		s.g.Edges = append(s.g.Edges, Edge{
			From: fe.From, To: src.Edges[last].To,
			First: first, Last: last,
			Type: fe.Type, Left: fe.Left, Right: fe.Right,
			Pair: NoEdge, Contour: id,
			Next: base + EdgeID((i+1)%len(kept)),
		})
	}
	s.g.Contours = append(s.g.Contours, Contour{
		Begin: base, EdgeCount: int32(len(kept)),
		Winding: c.Winding, Left: c.Left, Hole: c.Hole, Source: ci,
	})
	s.g.Polylines = append(s.g.Polylines, s.polylines(anchors, kept)...)
	return nil
}

// polylines groups the kept vertices by run for diagnostics.
func (s *simplifier) polylines(anchors, kept []int) []Polyline {
	n := len(s.edges)
	pv := func(k int) PolylineVertex {
		return PolylineVertex{
			Vertex: s.src.Edges[s.edges[k]].From,
			In:     s.edges[(k+n-1)%n],
			Out:    s.edges[k],
		}
	}
	if len(anchors) == 0 {
		line := Polyline{Cycle: true}
		for _, k := range kept {
			line.Vertices = append(line.Vertices, pv(k))
		}
		return []Polyline{line}
	}
	isAnchor := make(map[int]bool, len(anchors))
	for _, a := range anchors {
		isAnchor[a] = true
	}
	start := 0
	for i, k := range kept {
		if isAnchor[k] {
			start = i
			break
		}
	}
	var lines []Polyline
	var cur *Polyline
	for i := 0; i <= len(kept); i++ {
		k := kept[(start+i)%len(kept)]
		if isAnchor[k] || i == len(kept) {
			if cur != nil {
				cur.Vertices = append(cur.Vertices, pv(k))
				lines = append(lines, *cur)
			}
			cur = &Polyline{}
		}
		if i < len(kept) {
			cur.Vertices = append(cur.Vertices, pv(k))
		}
	}
	return lines
}

func (g *Graph) resolvePairs() {
	byFirst := make(map[boundary.EdgeID]EdgeID, len(g.Edges))
	for i := range g.Edges {
		byFirst[g.Edges[i].First] = EdgeID(i)
	}
	for i := range g.Edges {
		e := &g.Edges[i]
		p := g.Source.Edges[e.Last].Pair
		if p == boundary.NoEdge {
			continue
		}
		q, ok := byFirst[p]
		if !ok || g.Source.Edges[g.Edges[q].Last].Pair != e.First {
			continue
		}
		e.Pair = q
	}
}
