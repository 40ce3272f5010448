package navcell

import (
	"errors"
	"fmt"

	"github.com/gorustyt/navgen/boundary"
	"github.com/gorustyt/navgen/common"
	"github.com/gorustyt/navgen/common/rw"
	"github.com/gorustyt/navgen/floor"
	"github.com/gorustyt/navgen/raster"
	"github.com/gorustyt/navgen/simplify"
)

const (
	CELL_MAGIC   = 'N'<<24 | 'C'<<16 | 'E'<<8 | 'L'
	CELL_VERSION = 1

	halfEdgeBlobSize = 5*4 + 1 + 4
)

var ErrBadBlob = errors.New("navcell: malformed cell blob")

// Encode writes the cell blob. Multi-byte fields follow w's byte order.
func Encode(c *Cell, w *rw.ReaderWriter) {
	w.WriteUInt32(CELL_MAGIC)
	w.WriteInt32(CELL_VERSION)
	w.WriteInt32(c.X)
	w.WriteInt32(c.Y)
	w.WriteFloat32s(c.BoundsMin[:])
	w.WriteFloat32s(c.BoundsMax[:])
	w.WriteInt32(int32(c.UnmatchedLinks))
	w.WriteInt32(int32(len(c.Floors)))
	for _, f := range c.Floors {
		encodeFloor(f, w)
	}
	w.WriteInt32(int32(len(c.Links)))
	for _, l := range c.Links {
		w.WriteInt32s([]int32{l.FloorA, l.EdgeA, l.FloorB, l.EdgeB})
	}
	for d := range c.Boundaries {
		w.WriteInt32(int32(len(c.Boundaries[d])))
		for _, b := range c.Boundaries[d] {
			w.WriteInt32(b.Floor)
			w.WriteInt32(b.HalfEdge)
		}
	}
}

func encodeFloor(f *floor.Floor, w *rw.ReaderWriter) {
	w.WriteUInt16(uint16(f.Color))
	w.WriteUInt32(uint32(f.Terrain))
	w.WriteInt32(f.Surface)
	w.WriteInt32(int32(f.Outline))
	w.WriteInt32(int32(len(f.Vertices)))
	for i, v := range f.Vertices {
		w.WriteFloat32s(v[:])
		w.WriteInt32(int32(f.Sources[i]))
	}
	w.WriteInt32(int32(len(f.Triangles)))
	for _, t := range f.Triangles {
		w.WriteInt32(t.HalfEdge)
	}
	w.WriteInt32(int32(len(f.HalfEdges)))
	for i := range f.HalfEdges {
		he := &f.HalfEdges[i]
		w.WriteInt32s([]int32{he.Start, he.End, he.Face, he.Next, int32(he.Source)})
		w.WriteUInt8(uint8(he.Link.Type()))
		switch l := he.Link.(type) {
		case floor.Pair:
			w.WriteInt32(l.HalfEdge)
		case floor.FloorBoundary:
			w.WriteInt32(l.Link)
		case floor.CellBoundary:
			w.WriteInt32(int32(l.Dir))
		default:
			w.WriteInt32(-1)
		}
	}
	w.WriteInt32(int32(len(f.FloorLinks)))
	w.WriteInt32s(f.FloorLinks)
	for d := range f.CellLinks {
		w.WriteInt32(int32(len(f.CellLinks[d])))
		w.WriteInt32s(f.CellLinks[d])
	}
}

func Decode(r *rw.ReaderWriter) (*Cell, error) {
	if err := r.ReadMagic(CELL_MAGIC); err != nil {
		return nil, err
	}
	if v := r.ReadInt32(); v != CELL_VERSION {
		return nil, fmt.Errorf("%w: version %d", ErrBadBlob, v)
	}
	c := &Cell{X: r.ReadInt32(), Y: r.ReadInt32()}
	r.ReadFloat32s(c.BoundsMin[:])
	r.ReadFloat32s(c.BoundsMax[:])
	c.UnmatchedLinks = int(r.ReadInt32())
	c.Floors = make([]*floor.Floor, r.ReadCount(4))
	for i := range c.Floors {
		f, err := decodeFloor(r)
		if err != nil {
			return nil, fmt.Errorf("floor %d: %w", i, err)
		}
		c.Floors[i] = f
	}
	if n := r.ReadCount(16); n > 0 {
		c.Links = make([]FloorLink, n)
	}
	for i := range c.Links {
		var v [4]int32
		r.ReadInt32s(v[:])
		c.Links[i] = FloorLink{FloorA: v[0], EdgeA: v[1], FloorB: v[2], EdgeB: v[3]}
	}
	for d := range c.Boundaries {
		n := r.ReadCount(8)
		if n == 0 {
			continue
		}
		c.Boundaries[d] = make([]BoundaryEdge, n)
		for i := range c.Boundaries[d] {
			c.Boundaries[d][i] = BoundaryEdge{Floor: r.ReadInt32(), HalfEdge: r.ReadInt32()}
		}
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

func readInt32s(r *rw.ReaderWriter) []int32 {
	n := r.ReadCount(4)
	if n == 0 {
		return nil
	}
	v := make([]int32, n)
	r.ReadInt32s(v)
	return v
}

func decodeFloor(r *rw.ReaderWriter) (*floor.Floor, error) {
	f := &floor.Floor{
		Color:   raster.Color(r.ReadUInt16()),
		Terrain: raster.TerrainMask(r.ReadUInt32()),
		Surface: r.ReadInt32(),
		Outline: int(r.ReadInt32()),
	}
	nv := r.ReadCount(16)
	f.Vertices = make([]common.Vec3, nv)
	f.Sources = make([]boundary.VertexID, nv)
	for i := range f.Vertices {
		r.ReadFloat32s(f.Vertices[i][:])
		f.Sources[i] = boundary.VertexID(r.ReadInt32())
	}
	f.Triangles = make([]floor.Triangle, r.ReadCount(4))
	for i := range f.Triangles {
		f.Triangles[i].HalfEdge = r.ReadInt32()
	}
	f.HalfEdges = make([]floor.HalfEdge, r.ReadCount(halfEdgeBlobSize))
	for i := range f.HalfEdges {
		he := &f.HalfEdges[i]
		var v [5]int32
		r.ReadInt32s(v[:])
		he.Start, he.End, he.Face, he.Next, he.Source = v[0], v[1], v[2], v[3], simplify.EdgeID(v[4])
		typ := floor.LinkType(r.ReadUInt8())
		payload := r.ReadInt32()
		switch typ {
		case floor.LinkNormal:
			he.Link = floor.Pair{HalfEdge: payload}
		case floor.LinkObstacle:
			he.Link = floor.Obstacle{}
		case floor.LinkFloorBoundary:
			he.Link = floor.FloorBoundary{Link: payload}
		case floor.LinkCellBoundary:
			he.Link = floor.CellBoundary{Dir: raster.Dir(payload & 3)}
		default:
			if r.Err() == nil {
				return nil, fmt.Errorf("%w: half-edge %d has link type %d", ErrBadBlob, i, typ)
			}
		}
	}
	f.FloorLinks = readInt32s(r)
	for d := range f.CellLinks {
		f.CellLinks[d] = readInt32s(r)
	}
	return f, r.Err()
}
