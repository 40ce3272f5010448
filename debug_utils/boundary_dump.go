package debug_utils

import (
	"errors"
	"fmt"

	"github.com/gorustyt/navgen/boundary"
	"github.com/gorustyt/navgen/common/rw"
	"github.com/gorustyt/navgen/raster"
)

const BGRAPH_MAGIC = 'b'<<24 | 'g'<<16 | 'r'<<8 | 'f'

const BGRAPH_VERSION = 1

var ErrBadVersion = errors.New("debug_utils: unsupported dump version")

// DumpBoundaryGraph writes every vertex, edge, contour and polygon of g.
func DumpBoundaryGraph(g *boundary.Graph, w *rw.ReaderWriter) {
	w.WriteUInt32(BGRAPH_MAGIC)
	w.WriteInt32(BGRAPH_VERSION)
	w.WriteInt32(int32(g.Width))
	w.WriteInt32(int32(g.Height))

	w.WriteInt32(int32(len(g.Vertices)))
	for i := range g.Vertices {
		v := &g.Vertices[i]
		w.WriteInt32s([]int32{v.X, v.Y, v.Altitude, v.Surface, int32(v.Index)})
		for d := range v.In {
			w.WriteInt32(int32(v.In[d]))
			w.WriteInt32(int32(v.Out[d]))
		}
		w.WriteUInt8(uint8(v.Status))
	}

	w.WriteInt32(int32(len(g.Edges)))
	for i := range g.Edges {
		e := &g.Edges[i]
		w.WriteInt32s([]int32{int32(e.From), int32(e.To), int32(e.Contour), int32(e.Pair), int32(e.Next), e.Length})
		w.WriteInt8(int8(e.Dir))
		w.WriteUInt8(uint8(e.Type))
		w.WriteUInt16(uint16(e.Left))
		w.WriteUInt16(uint16(e.Right))
	}

	w.WriteInt32(int32(len(g.Contours)))
	for i := range g.Contours {
		c := &g.Contours[i]
		w.WriteInt32(int32(c.Begin))
		w.WriteInt32(c.EdgeCount)
		w.WriteInt8(int8(c.Winding))
		w.WriteUInt16(uint16(c.Left))
		w.WriteFloat64(c.Area)
		w.WriteUInt8(boolByte(c.Hole))
	}

	w.WriteInt32(int32(len(g.Polygons)))
	for i := range g.Polygons {
		p := &g.Polygons[i]
		w.WriteInt32(int32(p.Exterior))
		w.WriteUInt16(uint16(p.Left))
		w.WriteInt32(p.Surface)
		w.WriteInt32(int32(len(p.Holes)))
		for _, h := range p.Holes {
			w.WriteInt32(int32(h))
		}
	}

	w.WriteInt32(int32(len(g.Terrain)))
	for _, t := range g.Terrain {
		w.WriteUInt32(uint32(t))
	}
}

// ReadBoundaryGraph reads a graph written by DumpBoundaryGraph.
func ReadBoundaryGraph(r *rw.ReaderWriter) (*boundary.Graph, error) {
	if err := r.ReadMagic(BGRAPH_MAGIC); err != nil {
		return nil, err
	}
	if v := r.ReadInt32(); v != BGRAPH_VERSION {
		return nil, fmt.Errorf("%w: boundary graph version %d", ErrBadVersion, v)
	}
	g := &boundary.Graph{Width: int(r.ReadInt32()), Height: int(r.ReadInt32())}

	g.Vertices = make([]boundary.Vertex, r.ReadCount(5*4+16*4+1))
	for i := range g.Vertices {
		v := &g.Vertices[i]
		var f [5]int32
		r.ReadInt32s(f[:])
		v.X, v.Y, v.Altitude, v.Surface, v.Index = f[0], f[1], f[2], f[3], boundary.VertexID(f[4])
		for d := range v.In {
			v.In[d] = boundary.EdgeID(r.ReadInt32())
			v.Out[d] = boundary.EdgeID(r.ReadInt32())
		}
		v.Status = boundary.VertexStatus(r.ReadUInt8())
	}

	g.Edges = make([]boundary.Edge, r.ReadCount(6*4+6))
	for i := range g.Edges {
		e := &g.Edges[i]
		var f [6]int32
		r.ReadInt32s(f[:])
		e.From, e.To = boundary.VertexID(f[0]), boundary.VertexID(f[1])
		e.Contour, e.Pair, e.Next = boundary.ContourID(f[2]), boundary.EdgeID(f[3]), boundary.EdgeID(f[4])
		e.Length = f[5]
		e.Dir = boundary.Dir8(r.ReadInt8())
		e.Type = boundary.EdgeType(r.ReadUInt8())
		e.Left = raster.Color(r.ReadUInt16())
		e.Right = raster.Color(r.ReadUInt16())
	}

	g.Contours = make([]boundary.Contour, r.ReadCount(2*4+1+2+8+1))
	for i := range g.Contours {
		c := &g.Contours[i]
		c.Begin = boundary.EdgeID(r.ReadInt32())
		c.EdgeCount = r.ReadInt32()
		c.Winding = boundary.Winding(r.ReadInt8())
		c.Left = raster.Color(r.ReadUInt16())
		c.Area = r.ReadFloat64()
		c.Hole = r.ReadUInt8() != 0
	}

	g.Polygons = make([]boundary.Polygon, r.ReadCount(4+2+4+4))
	for i := range g.Polygons {
		p := &g.Polygons[i]
		p.Exterior = boundary.ContourID(r.ReadInt32())
		p.Left = raster.Color(r.ReadUInt16())
		p.Surface = r.ReadInt32()
		if n := r.ReadCount(4); n > 0 {
			p.Holes = make([]boundary.ContourID, n)
			for j := range p.Holes {
				p.Holes[j] = boundary.ContourID(r.ReadInt32())
			}
		}
	}

	g.Terrain = make([]raster.TerrainMask, r.ReadCount(4))
	for i := range g.Terrain {
		g.Terrain[i] = raster.TerrainMask(r.ReadUInt32())
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return g, nil
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
