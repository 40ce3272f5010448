package painter

import (
	"fmt"
	"math"
	"sort"

	"github.com/gorustyt/navgen/common"
	"github.com/gorustyt/navgen/raster"
	"github.com/zyedidia/generic/mapset"
)

// Result is what the painter leaves next to the grid: pixel colours are
// written into the grid itself, bevel halves and per-colour data live here.
type Result struct {
	Bevels []Bevel
	// Terrain is indexed by colour; entry 0 belongs to raster.Unset.
	Terrain []raster.TerrainMask
	// Surface is the surface index of each pixel, -1 outside the cell.
	Surface      []int32
	SurfaceCount int

	bevelOf map[int32]int
}

func (r *Result) ColorCount() int {
	return len(r.Terrain) - 1
}

// BevelAt returns the bevel recorded on pixel i.
func (r *Result) BevelAt(i int32) (*Bevel, bool) {
	k, ok := r.bevelOf[i]
	if !ok {
		return nil, false
	}
	return &r.Bevels[k], true
}

// ColorOf returns the colour of the part of pixel i that owns the given side.
func (r *Result) ColorOf(g *raster.Grid, i int32, side raster.Dir) raster.Color {
	if b, ok := r.BevelAt(i); ok {
		return b.Colors[b.HalfOf(side)]
	}
	return g.Pixels[i].Color
}

// Painter partitions the walkable interior pixels of a grid into regions.
// Paint runs every pass; the passes are exposed for inspection.
type Painter struct {
	g         *raster.Grid
	bevels    []Bevel
	bevelOf   map[int32]int
	forbidden mapset.Set[int32]
	surface   []int32
	surfaces  int
	colors    []raster.Color
	parent    []raster.Color
	reach     []uint8
	next      raster.Color
	stack     common.Stack[int32]
}

func NewPainter(g *raster.Grid) *Painter {
	return &Painter{g: g, stack: common.NewStackCap[int32](256)}
}

// Paint colours the grid in place and returns the bevel and colour tables.
func Paint(g *raster.Grid) (*Result, error) {
	p := NewPainter(g)
	if err := p.Fill(); err != nil {
		return nil, err
	}
	p.MergeBevelsCW()
	p.MergeBevelsCCW()
	return p.Finish()
}

func (p *Painter) interior(i int32) bool {
	px := &p.g.Pixels[i]
	return p.g.IsInterior(int(px.X), int(px.Y))
}

// buildSurfaces groups interior pixels connected through anything but a
// step. A surface never holds two pixels of the same column.
func (p *Painter) buildSurfaces() {
	g := p.g
	p.surface = make([]int32, len(g.Pixels))
	for i := range p.surface {
		p.surface[i] = -1
	}
	claimed := make([]int32, len(g.Columns))
	for i := range claimed {
		claimed[i] = -1
	}
	colOf := func(i int32) int {
		px := &g.Pixels[i]
		return int(px.X) + int(px.Y)*g.Width
	}
	for seed := range g.Pixels {
		s := int32(seed)
		if p.surface[s] != -1 || !g.Walkable(s) || !p.interior(s) {
			continue
		}
		cur := int32(p.surfaces)
		p.surfaces++
		p.surface[s] = cur
		claimed[colOf(s)] = cur
		p.stack.Clear()
		p.stack.Push(s)
		for !p.stack.Empty() {
			i := p.stack.Pop()
			for d := raster.DirEast; d <= raster.DirSouth; d++ {
				n, tag := g.Neighbor(i, d)
				if n == raster.NotConnected || tag == raster.TagStep || p.surface[n] != -1 {
					continue
				}
				if !g.Walkable(n) || !p.interior(n) || claimed[colOf(n)] == cur {
					continue
				}
				p.surface[n] = cur
				claimed[colOf(n)] = cur
				p.stack.Push(n)
			}
		}
	}
}

// node ids: pixel i is node i, the counter-clockwise half of bevel k is
// node len(pixels)+k.
func (p *Painter) nodeOf(i int32, side raster.Dir) int32 {
	if k, ok := p.bevelOf[i]; ok && p.bevels[k].HalfOf(side) == HalfCCW {
		return int32(len(p.g.Pixels) + k)
	}
	return i
}

func (p *Painter) pixelOf(n int32) int32 {
	if int(n) < len(p.g.Pixels) {
		return n
	}
	return p.bevels[int(n)-len(p.g.Pixels)].Pixel
}

func (p *Painter) sidesOf(n int32) []raster.Dir {
	if int(n) >= len(p.g.Pixels) {
		s := p.bevels[int(n)-len(p.g.Pixels)].Sides(HalfCCW)
		return s[:]
	}
	if k, ok := p.bevelOf[n]; ok {
		s := p.bevels[k].Sides(HalfCW)
		return s[:]
	}
	return []raster.Dir{raster.DirEast, raster.DirNorth, raster.DirWest, raster.DirSouth}
}

// sibling returns the other half of a bevel node, or -1.
func (p *Painter) sibling(n int32) int32 {
	if int(n) >= len(p.g.Pixels) {
		return p.bevels[int(n)-len(p.g.Pixels)].Pixel
	}
	if k, ok := p.bevelOf[n]; ok {
		return int32(len(p.g.Pixels) + k)
	}
	return -1
}

func (p *Painter) newColor() (raster.Color, error) {
	if p.next == math.MaxUint16 {
		return raster.Unset, ErrTooManyColors
	}
	p.next++
	p.parent = append(p.parent, p.next)
	p.reach = append(p.reach, 0)
	return p.next, nil
}

func (p *Painter) flood(seed int32) error {
	c, err := p.newColor()
	if err != nil {
		return err
	}
	g := p.g
	p.colors[seed] = c
	p.stack.Clear()
	p.stack.Push(seed)
	for !p.stack.Empty() {
		n := p.stack.Pop()
		i := p.pixelOf(n)
		for _, s := range p.sidesOf(n) {
			q, tag := g.Neighbor(i, s)
			if q == raster.NotConnected || tag != raster.TagNone {
				continue
			}
			if !g.Walkable(q) || !p.interior(q) || p.surface[q] != p.surface[i] {
				continue
			}
			if g.Pixels[q].Terrain != g.Pixels[i].Terrain {
				continue
			}
			m := p.nodeOf(q, s.Opposite())
			if p.colors[m] != raster.Unset {
				continue
			}
			if p.forbidden.Has(q) {
				if sib := p.sibling(m); p.colors[sib] == c {
					continue
				}
			}
			p.colors[m] = c
			p.stack.Push(m)
		}
	}
	return nil
}

func (p *Painter) seedBorder(x, y int, outward raster.Dir) error {
	col := p.g.Column(x, y)
	for i := col.Index; i < col.Index+col.Count; i++ {
		if !p.g.Walkable(i) {
			continue
		}
		n := p.nodeOf(i, outward)
		if p.colors[n] != raster.Unset {
			continue
		}
		if err := p.flood(n); err != nil {
			return err
		}
	}
	return nil
}

// Fill detects bevels, builds surfaces and floods every walkable interior
// pixel. Border pixels are seeded first, walking the cell counter-clockwise
// from its south-west corner, then the remaining interior in scan order.
func (p *Painter) Fill() error {
	g := p.g
	if err := g.Validate(); err != nil {
		return err
	}
	g.ResetColors()
	p.bevels = DetectForbiddenBorderMerges(g)
	p.bevelOf = make(map[int32]int, len(p.bevels))
	p.forbidden = mapset.New[int32]()
	for k := range p.bevels {
		p.bevelOf[p.bevels[k].Pixel] = k
		p.forbidden.Put(p.bevels[k].Pixel)
	}
	p.buildSurfaces()
	p.colors = make([]raster.Color, len(g.Pixels)+len(p.bevels))
	p.parent = []raster.Color{raster.Unset}
	p.reach = []uint8{0}
	p.next = raster.Unset

	lo, hiX, hiY := raster.Overlap, g.Width-1-raster.Overlap, g.Height-1-raster.Overlap
	type borderStep struct {
		x, y    int
		outward raster.Dir
	}
	var walk []borderStep
	for x := lo; x <= hiX; x++ {
		walk = append(walk, borderStep{x, lo, raster.DirSouth})
	}
	for y := lo; y <= hiY; y++ {
		walk = append(walk, borderStep{hiX, y, raster.DirEast})
	}
	for x := hiX; x >= lo; x-- {
		walk = append(walk, borderStep{x, hiY, raster.DirNorth})
	}
	for y := hiY; y >= lo; y-- {
		walk = append(walk, borderStep{lo, y, raster.DirWest})
	}
	for _, s := range walk {
		if err := p.seedBorder(s.x, s.y, s.outward); err != nil {
			return err
		}
	}
	for y := lo; y <= hiY; y++ {
		for x := lo; x <= hiX; x++ {
			col := g.Column(x, y)
			for i := col.Index; i < col.Index+col.Count; i++ {
				if !g.Walkable(i) {
					continue
				}
				if p.colors[i] == raster.Unset {
					if err := p.flood(i); err != nil {
						return err
					}
				}
				if sib := p.sibling(i); sib >= 0 && p.colors[sib] == raster.Unset {
					if err := p.flood(sib); err != nil {
						return err
					}
				}
			}
		}
	}
	p.collectReach()
	return nil
}

// collectReach records, per colour, the cell border sides it touches
// through a connection into the overlap ring.
func (p *Painter) collectReach() {
	g := p.g
	for n := range p.colors {
		c := p.colors[n]
		if c == raster.Unset {
			continue
		}
		i := p.pixelOf(int32(n))
		for _, s := range p.sidesOf(int32(n)) {
			q, ok := linked(g, i, s)
			if !ok || p.interior(q) {
				continue
			}
			p.reach[c] |= 1 << uint(s)
		}
	}
}

func (p *Painter) find(c raster.Color) raster.Color {
	for p.parent[c] != c {
		p.parent[c] = p.parent[p.parent[c]]
		c = p.parent[c]
	}
	return c
}

func (p *Painter) halves(b *Bevel) (cw, ccw raster.Color) {
	return p.find(p.colors[b.Pixel]), p.find(p.colors[len(p.g.Pixels)+p.bevelOf[b.Pixel]])
}

// canMerge reports whether joining a and b keeps every other split bevel split.
func (p *Painter) canMerge(skip int, a, b raster.Color) bool {
	for k := range p.bevels {
		if k == skip || p.bevels[k].Merged {
			continue
		}
		cw, ccw := p.halves(&p.bevels[k])
		if (cw == a && ccw == b) || (cw == b && ccw == a) {
			return false
		}
	}
	return true
}

func (p *Painter) union(a, b raster.Color) {
	if a > b {
		a, b = b, a
	}
	p.parent[b] = a
	p.reach[a] |= p.reach[b]
}

func (p *Painter) mergeBevels(order []Corner, half int) int {
	rank := make(map[Corner]int, len(order))
	for i, c := range order {
		rank[c] = i
	}
	idx := make([]int, len(p.bevels))
	for k := range idx {
		idx[k] = k
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return rank[p.bevels[idx[i]].Corner] < rank[p.bevels[idx[j]].Corner]
	})
	merged := 0
	for _, k := range idx {
		b := &p.bevels[k]
		if b.Merged {
			continue
		}
		cw, ccw := p.halves(b)
		if cw == ccw {
			b.Merged = true
			continue
		}
		own, other := cw, ccw
		if half == HalfCCW {
			own, other = ccw, cw
		}
		side := b.Sides(half)[0]
		if p.reach[other]&(1<<uint(side)) == 0 || !p.canMerge(k, own, other) {
			continue
		}
		p.union(own, other)
		b.Merged = true
		merged++
	}
	return merged
}

// MergeBevelsCW joins the clockwise half of a bevel with the other half
// when the other half's region already reaches the clockwise half's border
// side somewhere else. Returns the number of bevels merged.
func (p *Painter) MergeBevelsCW() int {
	return p.mergeBevels([]Corner{CornerSW, CornerNW, CornerNE, CornerSE}, HalfCW)
}

// MergeBevelsCCW is the counter-clockwise counterpart of MergeBevelsCW.
func (p *Painter) MergeBevelsCCW() int {
	return p.mergeBevels([]Corner{CornerSW, CornerSE, CornerNE, CornerNW}, HalfCCW)
}

// Finish resolves merged colours, renumbers them densely in node order
// and writes them back into the grid.
func (p *Painter) Finish() (*Result, error) {
	g := p.g
	for k := range p.bevels {
		b := &p.bevels[k]
		cw, ccw := p.halves(b)
		if cw == raster.Unset || ccw == raster.Unset {
			return nil, fmt.Errorf("%w: pixel %d at %s corner has an uncoloured half", ErrBevelInconsistent, b.Pixel, b.Corner)
		}
		if cw == ccw && !b.Merged {
			return nil, fmt.Errorf("%w: pixel %d at %s corner", ErrForbiddenMerge, b.Pixel, b.Corner)
		}
	}
	remap := make([]raster.Color, len(p.parent))
	res := &Result{
		Terrain:      []raster.TerrainMask{0},
		Surface:      p.surface,
		SurfaceCount: p.surfaces,
		bevelOf:      p.bevelOf,
	}
	for n, c := range p.colors {
		if c == raster.Unset {
			continue
		}
		root := p.find(c)
		if remap[root] == raster.Unset {
			remap[root] = raster.Color(len(res.Terrain))
			res.Terrain = append(res.Terrain, g.Pixels[p.pixelOf(int32(n))].Terrain)
		}
		p.colors[n] = remap[root]
	}
	for i := range g.Pixels {
		g.Pixels[i].Color = p.colors[i]
	}
	for k := range p.bevels {
		b := &p.bevels[k]
		b.Colors = [2]raster.Color{p.colors[b.Pixel], p.colors[len(g.Pixels)+k]}
	}
	res.Bevels = p.bevels
	return res, nil
}
