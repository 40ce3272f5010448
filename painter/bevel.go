package painter

import (
	"fmt"

	"github.com/gorustyt/navgen/raster"
)

// Corner names one of the four outer corners of a cell.
type Corner int8

const (
	CornerSW Corner = iota
	CornerSE
	CornerNE
	CornerNW
)

var cornerNames = [4]string{"south-west", "south-east", "north-east", "north-west"}

func (c Corner) String() string {
	if c < 0 || c > 3 {
		return fmt.Sprintf("Corner(%d)", int8(c))
	}
	return cornerNames[c]
}

// Outward returns the first of the two border sides meeting at the corner,
// walking the cell border counter-clockwise. The second one is Outward().CCW().
func (c Corner) Outward() raster.Dir {
	return [4]raster.Dir{raster.DirWest, raster.DirSouth, raster.DirEast, raster.DirNorth}[c&3]
}

// Halves of a bevel pixel, split along the diagonal through the cell corner.
const (
	HalfCW  = 0
	HalfCCW = 1
)

// Bevel is a corner pixel linked to two neighbour cells that do not see
// each other around the corner. Its halves must not share a colour unless a
// merge pass proves it safe.
type Bevel struct {
	Pixel  int32
	Corner Corner
	Colors [2]raster.Color
	Merged bool
}

// Split reports whether the pixel still carries two colours.
func (b *Bevel) Split() bool {
	return !b.Merged && b.Colors[HalfCW] != b.Colors[HalfCCW]
}

// HalfOf returns the half that owns the given side of the pixel.
func (b *Bevel) HalfOf(side raster.Dir) int {
	d := b.Corner.Outward()
	if side == d || side == d.CCW().Opposite() {
		return HalfCW
	}
	return HalfCCW
}

// Sides returns the two pixel sides bounding a half: the outward one first.
func (b *Bevel) Sides(half int) [2]raster.Dir {
	d := b.Corner.Outward()
	if half == HalfCW {
		return [2]raster.Dir{d, d.CCW().Opposite()}
	}
	return [2]raster.Dir{d.CCW(), d.Opposite()}
}

func cornerPixel(g *raster.Grid, c Corner) (x, y int) {
	lo, hiX, hiY := raster.Overlap, g.Width-1-raster.Overlap, g.Height-1-raster.Overlap
	switch c {
	case CornerSW:
		return lo, lo
	case CornerSE:
		return hiX, lo
	case CornerNE:
		return hiX, hiY
	default:
		return lo, hiY
	}
}

func linked(g *raster.Grid, i int32, d raster.Dir) (int32, bool) {
	n, tag := g.Neighbor(i, d)
	if n == raster.NotConnected || tag == raster.TagWall || tag == raster.TagHole {
		return raster.NotConnected, false
	}
	return n, true
}

// DetectForbiddenBorderMerges finds the corner pixels linked to both
// neighbour cells across the corner while those two neighbours are not
// joined through the diagonal overlap pixel. A single colour spanning such
// a pixel would connect the two neighbour cells through a path neither of
// them can see, so the pixel is split into two halves.
func DetectForbiddenBorderMerges(g *raster.Grid) []Bevel {
	if g.Width-2*raster.Overlap < 2 || g.Height-2*raster.Overlap < 2 {
		return nil
	}
	var bevels []Bevel
	for c := CornerSW; c <= CornerNW; c++ {
		x, y := cornerPixel(g, c)
		col := g.Column(x, y)
		d := c.Outward()
		for i := col.Index; i < col.Index+col.Count; i++ {
			if !g.Walkable(i) {
				continue
			}
			qa, okA := linked(g, i, d)
			qb, okB := linked(g, i, d.CCW())
			if !okA || !okB {
				continue
			}
			ra, okRA := linked(g, qa, d.CCW())
			rb, okRB := linked(g, qb, d)
			if okRA && okRB && ra == rb {
				continue
			}
			bevels = append(bevels, Bevel{Pixel: i, Corner: c})
		}
	}
	return bevels
}
