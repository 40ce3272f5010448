package boundary

import (
	"fmt"
	"sort"

	"github.com/gorustyt/navgen/painter"
	"github.com/gorustyt/navgen/raster"
)

type cornerKey struct {
	surface, x, y int32
}

type segKey struct {
	corner cornerKey
	dir    Dir8
}

type pairing uint8

const (
	pairNever pairing = iota
	pairOptional
	pairRequired
)

// segment is one unit step of boundary between two pixel corners.
type segment struct {
	from  cornerKey
	dir   Dir8
	typ   EdgeType
	left  raster.Color
	right raster.Color
	alt   int32
	want  pairing
	pair  int32
	edge  EdgeID
}

func (s *segment) to() cornerKey {
	dx, dy := s.dir.Offset()
	return cornerKey{s.from.surface, s.from.x + dx, s.from.y + dy}
}

func (s *segment) continues(o *segment) bool {
	return s.dir == o.dir && s.typ == o.typ && s.left == o.left && s.right == o.right &&
		(s.pair < 0) == (o.pair < 0)
}

type corner struct {
	ins, outs []int32
}

// Builder turns a painted grid into a boundary graph. Build runs every step
// in order; the steps are exported so tests and tools can stop in between.
type Builder struct {
	g        *raster.Grid
	paint    *painter.Result
	segments []segment
	bySeg    map[segKey]int32
	corners  map[cornerKey]*corner
	vertexAt map[cornerKey]VertexID
	lastSeg  []int32
	graph    *Graph
}

func NewBuilder(g *raster.Grid, paint *painter.Result) *Builder {
	return &Builder{
		g:     g,
		paint: paint,
		bySeg: make(map[segKey]int32),
		graph: &Graph{
			Width:   g.Width,
			Height:  g.Height,
			Terrain: paint.Terrain,
		},
	}
}

// Build extracts the boundary of every colour of a painted grid.
func Build(g *raster.Grid, paint *painter.Result) (*Graph, error) {
	b := NewBuilder(g, paint)
	if err := b.EmitSegments(); err != nil {
		return nil, err
	}
	b.BuildVertices()
	if err := b.BuildEdges(); err != nil {
		return nil, err
	}
	if err := b.graph.TraceContours(); err != nil {
		return nil, err
	}
	if err := b.graph.GroupPolygons(); err != nil {
		return nil, err
	}
	return b.graph, nil
}

func (b *Builder) Graph() *Graph {
	return b.graph
}

// sideSegment returns the corner a pixel side starts from, walking the side
// with the pixel on the left.
func sideSegment(x, y int32, s raster.Dir) (int32, int32, Dir8) {
	switch s {
	case raster.DirEast:
		return x + 1, y, Dir8North
	case raster.DirNorth:
		return x + 1, y + 1, Dir8West
	case raster.DirWest:
		return x, y + 1, Dir8South
	default:
		return x, y, Dir8East
	}
}

func (b *Builder) interior(i int32) bool {
	px := &b.g.Pixels[i]
	return b.g.IsInterior(int(px.X), int(px.Y))
}

func (b *Builder) classify(i int32, s raster.Dir, left raster.Color) (EdgeType, raster.Color, pairing, bool) {
	g := b.g
	n, tag := g.Neighbor(i, s)
	if n == raster.NotConnected || !g.Walkable(n) {
		return EdgeWall, raster.Unset, pairRequired, true
	}
	if !b.interior(n) {
		switch tag {
		case raster.TagWall:
			return EdgeWall, raster.Unset, pairRequired, true
		case raster.TagHole:
			return EdgeHole, raster.Unset, pairRequired, true
		}
		return CellLink(s), raster.Unset, pairNever, true
	}
	right := b.paint.ColorOf(g, n, s.Opposite())
	switch tag {
	case raster.TagWall:
		return EdgeWall, right, pairRequired, true
	case raster.TagHole:
		return EdgeHole, right, pairRequired, true
	case raster.TagStep:
		return EdgeFloorLink, right, pairOptional, true
	}
	if right == left {
		return 0, 0, pairNever, false
	}
	return EdgeFloorLink, right, pairOptional, true
}

func (b *Builder) addSegment(s segment) error {
	key := segKey{s.from, s.dir}
	if _, ok := b.bySeg[key]; ok {
		return fmt.Errorf("%w: %s from (%d,%d) on surface %d", ErrOverlap, s.dir, s.from.x, s.from.y, s.from.surface)
	}
	s.pair = -1
	s.edge = NoEdge
	b.bySeg[key] = int32(len(b.segments))
	b.segments = append(b.segments, s)
	return nil
}

// bevelDiagonal returns the outer cell corner of a bevel pixel and the
// direction towards the opposite pixel corner.
func bevelDiagonal(x, y int32, c painter.Corner) (int32, int32, Dir8) {
	switch c {
	case painter.CornerSW:
		return x, y, Dir8NorthEast
	case painter.CornerSE:
		return x + 1, y, Dir8NorthWest
	case painter.CornerNE:
		return x + 1, y + 1, Dir8SouthWest
	default:
		return x, y + 1, Dir8SouthEast
	}
}

// EmitSegments emits a unit segment for every pixel side separating two
// colours, a colour from something unwalkable, or a colour from the
// overlap ring, plus the diagonal of every split bevel. Wall segments
// without a walkable counterpart get an uncoloured twin so that every wall
// is paired.
func (b *Builder) EmitSegments() error {
	g := b.g
	for idx := range g.Pixels {
		i := int32(idx)
		if !g.Walkable(i) || !b.interior(i) {
			continue
		}
		px := &g.Pixels[i]
		surface := b.paint.Surface[i]
		for s := raster.DirEast; s <= raster.DirSouth; s++ {
			left := b.paint.ColorOf(g, i, s)
			typ, right, want, ok := b.classify(i, s, left)
			if !ok {
				continue
			}
			x, y, dir := sideSegment(px.X, px.Y, s)
			err := b.addSegment(segment{
				from: cornerKey{surface, x, y}, dir: dir, typ: typ,
				left: left, right: right, alt: px.Altitude, want: want,
			})
			if err != nil {
				return err
			}
		}
		bev, ok := b.paint.BevelAt(i)
		if !ok || !bev.Split() {
			continue
		}
		cx, cy, dir := bevelDiagonal(px.X, px.Y, bev.Corner)
		cw, ccw := bev.Colors[painter.HalfCW], bev.Colors[painter.HalfCCW]
		diag := segment{from: cornerKey{surface, cx, cy}, dir: dir, typ: EdgeFloorLink, left: cw, right: ccw, alt: px.Altitude, want: pairOptional}
		if err := b.addSegment(diag); err != nil {
			return err
		}
		back := segment{from: diag.to(), dir: dir.Opposite(), typ: EdgeFloorLink, left: ccw, right: cw, alt: px.Altitude, want: pairOptional}
		if err := b.addSegment(back); err != nil {
			return err
		}
	}
	b.resolveSegmentPairs()
	return nil
}

func (b *Builder) resolveSegmentPairs() {
	n := len(b.segments)
	for i := 0; i < n; i++ {
		s := &b.segments[i]
		if s.want == pairNever || s.pair >= 0 {
			continue
		}
		if j, ok := b.bySeg[segKey{s.to(), s.dir.Opposite()}]; ok {
			s.pair = j
			b.segments[j].pair = int32(i)
			continue
		}
		if s.want != pairRequired {
			continue
		}
		twin := segment{
			from: s.to(), dir: s.dir.Opposite(), typ: s.typ,
			left: raster.Unset, right: s.left, alt: s.alt, want: pairRequired,
			pair: int32(i), edge: NoEdge,
		}
		j := int32(len(b.segments))
		b.bySeg[segKey{twin.from, twin.dir}] = j
		b.segments = append(b.segments, twin)
		b.segments[i].pair = j
	}
}

func (b *Builder) passThrough(c *corner) bool {
	if len(c.ins) != len(c.outs) || len(c.ins) > 2 {
		return false
	}
	for _, in := range c.ins {
		found := false
		for _, out := range c.outs {
			if b.segments[in].continues(&b.segments[out]) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// BuildVertices creates a vertex at every corner where the boundary does
// anything but run straight on.
func (b *Builder) BuildVertices() {
	b.corners = make(map[cornerKey]*corner)
	get := func(k cornerKey) *corner {
		c, ok := b.corners[k]
		if !ok {
			c = &corner{}
			b.corners[k] = c
		}
		return c
	}
	for i := range b.segments {
		s := &b.segments[i]
		get(s.from).outs = append(get(s.from).outs, int32(i))
		get(s.to()).ins = append(get(s.to()).ins, int32(i))
	}
	keys := make([]cornerKey, 0, len(b.corners))
	for k := range b.corners {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, c := keys[i], keys[j]
		if a.surface != c.surface {
			return a.surface < c.surface
		}
		if a.y != c.y {
			return a.y < c.y
		}
		return a.x < c.x
	})
	b.vertexAt = make(map[cornerKey]VertexID)
	for _, k := range keys {
		c := b.corners[k]
		if b.passThrough(c) {
			continue
		}
		v := Vertex{X: k.x, Y: k.y, Surface: k.surface, Index: VertexID(len(b.graph.Vertices))}
		for d := range v.In {
			v.In[d], v.Out[d] = NoEdge, NoEdge
		}
		var lines [8]bool
		first := true
		visit := func(s *segment, away Dir8) {
			lines[away] = true
			if first || s.alt > v.Altitude {
				v.Altitude = s.alt
				first = false
			}
			switch s.typ {
			case EdgeWall:
				v.Status |= StatusStatic
			case EdgeHole:
				v.Status |= StatusDynamic
			}
		}
		for _, i := range c.ins {
			visit(&b.segments[i], b.segments[i].dir.Opposite())
		}
		for _, i := range c.outs {
			visit(&b.segments[i], b.segments[i].dir)
		}
		count := 0
		for _, l := range lines {
			if l {
				count++
			}
		}
		if count > 2 {
			v.Status |= StatusNarrow
		}
		b.vertexAt[k] = v.Index
		b.graph.Vertices = append(b.graph.Vertices, v)
	}
}

func (b *Builder) continuation(at cornerKey, s *segment) int32 {
	for _, out := range b.corners[at].outs {
		if s.continues(&b.segments[out]) {
			return out
		}
	}
	return -1
}

// BuildEdges merges the segments between two vertices into edges and
// resolves edge pairs.
func (b *Builder) BuildEdges() error {
	gr := b.graph
	for vi := range gr.Vertices {
		v := &gr.Vertices[vi]
		k := cornerKey{v.Surface, v.X, v.Y}
		outs := append([]int32(nil), b.corners[k].outs...)
		sort.Slice(outs, func(i, j int) bool { return b.segments[outs[i]].dir < b.segments[outs[j]].dir })
		for _, first := range outs {
			s := &b.segments[first]
			e := EdgeID(len(gr.Edges))
			cur, length := first, int32(1)
			b.segments[cur].edge = e
			for {
				at := b.segments[cur].to()
				if _, ok := b.vertexAt[at]; ok {
					break
				}
				next := b.continuation(at, &b.segments[cur])
				if next < 0 {
					return fmt.Errorf("%w: run broken at (%d,%d)", ErrContourOpen, at.x, at.y)
				}
				cur = next
				b.segments[cur].edge = e
				length++
			}
			to := b.vertexAt[b.segments[cur].to()]
			gr.Edges = append(gr.Edges, Edge{
				From: v.Index, To: to, Dir: s.dir, Type: s.typ,
				Left: s.left, Right: s.right,
				Contour: NoContour, Pair: NoEdge, Next: NoEdge, Length: length,
			})
			b.lastSeg = append(b.lastSeg, cur)
			gr.Vertices[vi].Out[s.dir] = e
			gr.Vertices[to].In[s.dir] = e
		}
	}
	for e := range gr.Edges {
		ed := &gr.Edges[e]
		p := b.segments[b.lastSeg[e]].pair
		if p >= 0 {
			ed.Pair = b.segments[p].edge
		}
		if ed.Type.Obstacle() && ed.Pair == NoEdge {
			from := &gr.Vertices[ed.From]
			return fmt.Errorf("%w: %s edge from (%d,%d)", ErrUnpairedEdge, ed.Type, from.X, from.Y)
		}
	}
	return nil
}
