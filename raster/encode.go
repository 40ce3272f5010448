package raster

import (
	"fmt"

	"github.com/gorustyt/navgen/common/rw"
)

const (
	GRID_MAGIC   = 'R'<<24 | 'G'<<16 | 'R'<<8 | 'D'
	GRID_VERSION = 1

	pixelBlobSize = 4*4 + 2 + 4*4 + 4
)

// Encode writes the grid blob consumed by the command line tool.
func Encode(g *Grid, w *rw.ReaderWriter) {
	w.WriteUInt32(GRID_MAGIC)
	w.WriteInt32(GRID_VERSION)
	w.WriteInt32(int32(g.Width))
	w.WriteInt32(int32(g.Height))
	w.WriteInt32(int32(len(g.Pixels)))
	for i := range g.Pixels {
		p := &g.Pixels[i]
		w.WriteInt32(p.X)
		w.WriteInt32(p.Y)
		w.WriteInt32(p.Altitude)
		w.WriteUInt32(uint32(p.Terrain))
		w.WriteUInt16(uint16(p.Color))
		w.WriteInt32s(p.Neighbors[:])
		for _, t := range p.Tags {
			w.WriteUInt8(uint8(t))
		}
	}
}

func Decode(r *rw.ReaderWriter) (*Grid, error) {
	if err := r.ReadMagic(GRID_MAGIC); err != nil {
		return nil, err
	}
	if v := r.ReadInt32(); v != GRID_VERSION {
		return nil, fmt.Errorf("raster: unsupported grid version %d", v)
	}
	width, height := int(r.ReadInt32()), int(r.ReadInt32())
	n := r.ReadCount(pixelBlobSize)
	if err := r.Err(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: grid %dx%d", ErrOutOfBounds, width, height)
	}
	g := &Grid{Width: width, Height: height, Columns: make([]Column, width*height), Pixels: make([]Pixel, n)}
	for i := range g.Pixels {
		p := &g.Pixels[i]
		p.X = r.ReadInt32()
		p.Y = r.ReadInt32()
		p.Altitude = r.ReadInt32()
		p.Terrain = TerrainMask(r.ReadUInt32())
		p.Color = Color(r.ReadUInt16())
		r.ReadInt32s(p.Neighbors[:])
		for d := range p.Tags {
			p.Tags[d] = LinkTag(r.ReadUInt8())
		}
		if !g.InBounds(int(p.X), int(p.Y)) {
			return nil, fmt.Errorf("%w: pixel %d at (%d,%d)", ErrOutOfBounds, i, p.X, p.Y)
		}
		col := &g.Columns[int(p.X)+int(p.Y)*width]
		switch {
		case col.Count == 0:
			col.Index = int32(i)
		case col.Index+col.Count != int32(i):
			return nil, fmt.Errorf("raster: pixel %d breaks column (%d,%d) contiguity", i, p.X, p.Y)
		}
		col.Count++
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
