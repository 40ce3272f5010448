package debug_utils

import (
	"fmt"

	"github.com/gorustyt/navgen/common/rw"
	"github.com/gorustyt/navgen/simplify"
)

// DumpSimplified writes a readable listing of the simplified polygons. Each
// edge shows its end points, its type and the range of boundary edges it
// replaces.
func DumpSimplified(sg *simplify.Graph, w *rw.ReaderWriter) {
	w.WriteString("# simplified polygons\n")
	for pi := range sg.Polygons {
		p := &sg.Polygons[pi]
		w.WriteString(fmt.Sprintf("polygon %d color %d surface %d terrain %#x\n", pi, p.Left, p.Surface, p.Terrain))
		dumpContour(sg, p.Exterior, "exterior", w)
		for _, h := range p.Holes {
			dumpContour(sg, h, "hole", w)
		}
	}
}

func dumpContour(sg *simplify.Graph, id simplify.ContourID, kind string, w *rw.ReaderWriter) {
	c := &sg.Contours[id]
	w.WriteString(fmt.Sprintf("  %s %d winding %s edges %d\n", kind, id, c.Winding, c.EdgeCount))
	for _, e := range sg.ContourEdges(id) {
		edge := &sg.Edges[e]
		a, b := sg.Vertex(edge.From), sg.Vertex(edge.To)
		w.WriteString(fmt.Sprintf("    e%d (%d,%d,%d)->(%d,%d,%d) %s",
			e, a.X, a.Y, a.Altitude, b.X, b.Y, b.Altitude, edge.Type))
		if edge.Pair != simplify.NoEdge {
			w.WriteString(fmt.Sprintf(" pair e%d", edge.Pair))
		}
		w.WriteString(fmt.Sprintf(" original %d\n", len(sg.Original(e))))
	}
}
