package raster

import (
	"errors"
	"fmt"
	"sort"
)

// Overlap is the width of the ring of neighbour-cell pixels around a cell.
const Overlap = 1

const NotConnected int32 = -1

var (
	ErrOutOfBounds  = errors.New("raster: position out of bounds")
	ErrBadNeighbour = errors.New("raster: neighbour index out of range")
	ErrBadFixture   = errors.New("raster: malformed ascii fixture")
)

// Color is a region id assigned by the painter. Unset marks unwalkable or
// not yet classified pixels.
type Color uint16

const Unset Color = 0

// TerrainMask is a bit set of terrain types; zero means unwalkable.
type TerrainMask uint32

// LinkTag qualifies a lateral connection. Tagged connections are never
// crossed by a region fill.
type LinkTag uint8

const (
	TagNone LinkTag = iota
	TagWall
	TagHole
	TagStep
)

func (t LinkTag) String() string {
	switch t {
	case TagNone:
		return "none"
	case TagWall:
		return "wall"
	case TagHole:
		return "hole"
	case TagStep:
		return "step"
	}
	return fmt.Sprintf("LinkTag(%d)", uint8(t))
}

// Dir is one of the four lateral directions.
type Dir int8

const (
	DirEast Dir = iota
	DirNorth
	DirWest
	DirSouth
)

var dirNames = [4]string{"east", "north", "west", "south"}

func (d Dir) String() string {
	if d < 0 || d > 3 {
		return fmt.Sprintf("Dir(%d)", int8(d))
	}
	return dirNames[d]
}

func (d Dir) Opposite() Dir { return (d + 2) & 3 }
func (d Dir) CCW() Dir      { return (d + 1) & 3 }
func (d Dir) CW() Dir       { return (d + 3) & 3 }

// Offset is the (x, y) step towards the neighbour in direction d.
func (d Dir) Offset() (dx, dy int) {
	offX := [4]int{1, 0, -1, 0}
	offY := [4]int{0, 1, 0, -1}
	return offX[d&3], offY[d&3]
}

// Pixel is one walkable (or explicitly blocked) sample of a column.
type Pixel struct {
	X, Y      int32
	Altitude  int32
	Color     Color
	Terrain   TerrainMask
	Neighbors [4]int32
	Tags      [4]LinkTag
}

// Column addresses the pixels stacked at one (x, y) position.
type Column struct {
	Index int32
	Count int32
}

// Grid is the raster of one generation cell plus its overlap ring.
// Pixels of a column are contiguous and sorted by altitude.
type Grid struct {
	Width   int
	Height  int
	Columns []Column
	Pixels  []Pixel
}

type sample struct {
	x, y     int32
	alt      int32
	terrain  TerrainMask
	position int
}

// Builder collects pixels in any order and lays them out column by column.
type Builder struct {
	width, height int
	samples       []sample
}

func NewBuilder(width, height int) *Builder {
	return &Builder{width: width, height: height}
}

func (b *Builder) Add(x, y int, altitude int32, terrain TerrainMask) error {
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return fmt.Errorf("%w: (%d,%d) in %dx%d", ErrOutOfBounds, x, y, b.width, b.height)
	}
	b.samples = append(b.samples, sample{x: int32(x), y: int32(y), alt: altitude, terrain: terrain, position: len(b.samples)})
	return nil
}

func (b *Builder) Build() *Grid {
	sort.SliceStable(b.samples, func(i, j int) bool {
		si, sj := b.samples[i], b.samples[j]
		if si.y != sj.y {
			return si.y < sj.y
		}
		if si.x != sj.x {
			return si.x < sj.x
		}
		return si.alt < sj.alt
	})
	g := &Grid{
		Width:   b.width,
		Height:  b.height,
		Columns: make([]Column, b.width*b.height),
		Pixels:  make([]Pixel, 0, len(b.samples)),
	}
	for _, s := range b.samples {
		col := &g.Columns[int(s.x)+int(s.y)*b.width]
		if col.Count == 0 {
			col.Index = int32(len(g.Pixels))
		}
		col.Count++
		g.Pixels = append(g.Pixels, Pixel{
			X:         s.x,
			Y:         s.y,
			Altitude:  s.alt,
			Terrain:   s.terrain,
			Neighbors: [4]int32{NotConnected, NotConnected, NotConnected, NotConnected},
		})
	}
	return g
}

func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.Width && y < g.Height
}

// IsInterior reports whether (x, y) belongs to the cell itself rather than
// to the overlap ring.
func (g *Grid) IsInterior(x, y int) bool {
	return x >= Overlap && y >= Overlap && x < g.Width-Overlap && y < g.Height-Overlap
}

func (g *Grid) Column(x, y int) Column {
	if !g.InBounds(x, y) {
		return Column{}
	}
	return g.Columns[x+y*g.Width]
}

func (g *Grid) Walkable(i int32) bool {
	return g.Pixels[i].Terrain != 0
}

// Neighbor returns the connected pixel in direction d and the tag of the
// connection, or NotConnected.
func (g *Grid) Neighbor(i int32, d Dir) (int32, LinkTag) {
	p := &g.Pixels[i]
	return p.Neighbors[d], p.Tags[d]
}

// Connect links a and b in both directions; b must lie next to a in direction d.
func (g *Grid) Connect(a int32, d Dir, b int32, tag LinkTag) error {
	if a < 0 || b < 0 || int(a) >= len(g.Pixels) || int(b) >= len(g.Pixels) {
		return fmt.Errorf("%w: %d -> %d", ErrBadNeighbour, a, b)
	}
	pa, pb := &g.Pixels[a], &g.Pixels[b]
	dx, dy := d.Offset()
	if pa.X+int32(dx) != pb.X || pa.Y+int32(dy) != pb.Y {
		return fmt.Errorf("%w: pixel %d is not %s of pixel %d", ErrBadNeighbour, b, d, a)
	}
	pa.Neighbors[d], pa.Tags[d] = b, tag
	pb.Neighbors[d.Opposite()], pb.Tags[d.Opposite()] = a, tag
	return nil
}

// Disconnect removes the connection of a in direction d on both sides.
func (g *Grid) Disconnect(a int32, d Dir) {
	b := g.Pixels[a].Neighbors[d]
	g.Pixels[a].Neighbors[d], g.Pixels[a].Tags[d] = NotConnected, TagNone
	if b != NotConnected {
		g.Pixels[b].Neighbors[d.Opposite()], g.Pixels[b].Tags[d.Opposite()] = NotConnected, TagNone
	}
}

// AutoConnect links each walkable pixel to the walkable pixel of the
// adjacent column with the closest altitude, provided the difference does not
// exceed maxClimb. Connections climbing more than stepHeight are tagged as steps.
func (g *Grid) AutoConnect(maxClimb, stepHeight int32) {
	for i := range g.Pixels {
		p := &g.Pixels[i]
		if p.Terrain == 0 {
			continue
		}
		for d := DirEast; d <= DirSouth; d++ {
			if p.Neighbors[d] != NotConnected {
				continue
			}
			dx, dy := d.Offset()
			col := g.Column(int(p.X)+dx, int(p.Y)+dy)
			best, bestDiff := NotConnected, int64(0)
			for k := col.Index; k < col.Index+col.Count; k++ {
				q := &g.Pixels[k]
				if q.Terrain == 0 || q.Neighbors[d.Opposite()] != NotConnected {
					continue
				}
				diff := int64(q.Altitude) - int64(p.Altitude)
				if diff < 0 {
					diff = -diff
				}
				if diff > int64(maxClimb) {
					continue
				}
				if best == NotConnected || diff < bestDiff {
					best, bestDiff = k, diff
				}
			}
			if best == NotConnected {
				continue
			}
			tag := TagNone
			if bestDiff > int64(stepHeight) {
				tag = TagStep
			}
			p.Neighbors[d], p.Tags[d] = best, tag
			q := &g.Pixels[best]
			q.Neighbors[d.Opposite()], q.Tags[d.Opposite()] = int32(i), tag
		}
	}
}

// ResetColors clears every colour so the grid can be painted again.
func (g *Grid) ResetColors() {
	for i := range g.Pixels {
		g.Pixels[i].Color = Unset
	}
}

// Validate checks that neighbour references are symmetric and adjacent.
func (g *Grid) Validate() error {
	if g.Width < 2*Overlap+1 || g.Height < 2*Overlap+1 {
		return fmt.Errorf("%w: grid %dx%d has no interior", ErrOutOfBounds, g.Width, g.Height)
	}
	for i := range g.Pixels {
		p := &g.Pixels[i]
		for d := DirEast; d <= DirSouth; d++ {
			n := p.Neighbors[d]
			if n == NotConnected {
				continue
			}
			if n < 0 || int(n) >= len(g.Pixels) {
				return fmt.Errorf("%w: pixel %d %s -> %d", ErrBadNeighbour, i, d, n)
			}
			q := &g.Pixels[n]
			dx, dy := d.Offset()
			if p.X+int32(dx) != q.X || p.Y+int32(dy) != q.Y || q.Neighbors[d.Opposite()] != int32(i) {
				return fmt.Errorf("%w: pixel %d %s -> %d is not reciprocal", ErrBadNeighbour, i, d, n)
			}
		}
	}
	return nil
}
