package debug_utils

import (
	"fmt"

	"github.com/gorustyt/navgen/common/rw"
	"github.com/gorustyt/navgen/navcell"
)

// DumpCellToObj writes the triangles of every floor of c as a Wavefront OBJ
// mesh, one object per floor.
func DumpCellToObj(c *navcell.Cell, w *rw.ReaderWriter) {
	w.WriteString("# navgen cell\n")
	w.WriteString(fmt.Sprintf("# cell %d %d floors %d links %d\n", c.X, c.Y, len(c.Floors), len(c.Links)))
	base := 1
	for fi, f := range c.Floors {
		w.WriteString(fmt.Sprintf("\no floor_%d_color_%d\n", fi, f.Color))
		for _, v := range f.Vertices {
			w.WriteString(fmt.Sprintf("v %f %f %f\n", v[0], v[1], v[2]))
		}
		for t := range f.Triangles {
			tri := f.TriangleVertices(t)
			w.WriteString(fmt.Sprintf("f %d %d %d\n", base+int(tri[0]), base+int(tri[1]), base+int(tri[2])))
		}
		base += len(f.Vertices)
	}
}
