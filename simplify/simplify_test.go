package simplify

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gorustyt/navgen/boundary"
	"github.com/gorustyt/navgen/painter"
	"github.com/gorustyt/navgen/raster"
)

func simplified(t *testing.T, opts Options, rows ...string) *Graph {
	t.Helper()
	g, err := raster.ParseASCII(raster.ParseOptions{MaxClimb: 4, StepHeight: 1}, raster.Layer{Rows: rows})
	require.NoError(t, err)
	res, err := painter.Paint(g)
	require.NoError(t, err)
	bg, err := boundary.Build(g, res)
	require.NoError(t, err)
	sg, err := Simplify(bg, opts)
	require.NoError(t, err)
	return sg
}

func point(sg *Graph, v boundary.VertexID) orb.Point {
	vx := sg.Vertex(v)
	return orb.Point{float64(vx.X), float64(vx.Y)}
}

// checkFidelity re-walks every simplified edge and compares it with the
// boundary it replaced.
func checkFidelity(t *testing.T, sg *Graph, tolerance float64) {
	t.Helper()
	src := sg.Source
	for ci := range sg.Contours {
		c := sg.Contours[ci]
		var walked []boundary.EdgeID
		for _, e := range sg.ContourEdges(ContourID(ci)) {
			ed := sg.Edges[e]
			orig := sg.Original(e)
			require.NotEmpty(t, orig)
			assert.Equal(t, ed.From, src.Edges[orig[0]].From)
			assert.Equal(t, ed.To, src.Edges[orig[len(orig)-1]].To)
			a, b := point(sg, ed.From), point(sg, ed.To)
			for _, o := range orig {
				pts := src.EdgePositions(o)
				for k := 0; k+1 < len(pts); k++ {
					mid := orb.Point{
						float64(pts[k][0]+pts[k+1][0]) / 2,
						float64(pts[k][1]+pts[k+1][1]) / 2,
					}
					assert.LessOrEqual(t, planar.DistanceFromSegment(a, b, mid), tolerance+1e-9)
				}
			}
			walked = append(walked, orig...)
		}
		original := src.ContourEdges(c.Source)
		require.Len(t, walked, len(original))
		offset := 0
		for original[offset] != walked[0] {
			offset++
		}
		for i := range walked {
			assert.Equal(t, original[(i+offset)%len(original)], walked[i])
		}
	}
}

func TestSquareKeepsCorners(t *testing.T) {
	sg := simplified(t, Options{Horizontal: 0.5, Vertical: -1},
		"......",
		".aaaa.",
		".aaaa.",
		".aaaa.",
		".aaaa.",
		"......",
	)
	require.Len(t, sg.Polygons, 1)
	ext := sg.Polygons[0].Exterior
	edges := sg.ContourEdges(ext)
	assert.Len(t, edges, 4)
	for _, e := range edges {
		assert.Equal(t, sg.Edges[e].First, sg.Edges[e].Last)
	}
	assert.Equal(t, boundary.WindingCCW, sg.Contours[ext].Winding)
	checkFidelity(t, sg, 0.5)
}

var staircase = []string{
	"..........",
	".aaaaaaaa.",
	".aaaaaaa..",
	".aaaaaa...",
	".aaaaa....",
	".aaaa.....",
	".aaa......",
	".aa.......",
	".a........",
	"..........",
}

func TestStaircaseBecomesOneEdge(t *testing.T) {
	sg := simplified(t, Options{Horizontal: 0.5, Vertical: -1}, staircase...)
	require.Len(t, sg.Polygons, 1)
	edges := sg.ContourEdges(sg.Polygons[0].Exterior)
	require.Len(t, edges, 3)

	diagonal := NoEdge
	for _, e := range edges {
		if point(sg, sg.Edges[e].From) == (orb.Point{1, 1}) {
			diagonal = e
		}
	}
	require.NotEqual(t, NoEdge, diagonal)
	assert.Equal(t, orb.Point{9, 9}, point(sg, sg.Edges[diagonal].To))
	assert.Len(t, sg.Original(diagonal), 16)
	checkFidelity(t, sg, 0.5)
}

func TestTightToleranceKeepsStaircase(t *testing.T) {
	sg := simplified(t, Options{Horizontal: 0.1, Vertical: -1}, staircase...)
	edges := sg.ContourEdges(sg.Polygons[0].Exterior)
	assert.Len(t, edges, 2+16)
	checkFidelity(t, sg, 0.1)
}

func TestSharedBoundarySimplifiesIdentically(t *testing.T) {
	sg := simplified(t, Options{Horizontal: 0.5, Vertical: -1},
		"........",
		".aaabbb.",
		".aabbbb.",
		".abbbbb.",
		"........",
	)
	require.Len(t, sg.Polygons, 2)
	links := 0
	for i, ed := range sg.Edges {
		if ed.Type != boundary.EdgeFloorLink {
			continue
		}
		links++
		require.NotEqual(t, NoEdge, ed.Pair, "edge %d", i)
		pair := sg.Edges[ed.Pair]
		assert.Equal(t, EdgeID(i), pair.Pair)
		assert.Equal(t, ed.From, pair.To)
		assert.Equal(t, ed.To, pair.From)
		assert.Len(t, sg.Original(EdgeID(i)), 5)
	}
	assert.Equal(t, 2, links)
	checkFidelity(t, sg, 0.5)
}

func TestHolesSimplifiedSeparately(t *testing.T) {
	sg := simplified(t, Options{Horizontal: 0.3, Vertical: -1},
		".......",
		".aaaaa.",
		".aaaaa.",
		".aa#aa.",
		".aaaaa.",
		".aaaaa.",
		".......",
	)
	require.Len(t, sg.Polygons, 1)
	p := sg.Polygons[0]
	require.Len(t, p.Holes, 1)
	assert.True(t, sg.Contours[p.Holes[0]].Hole)
	assert.Equal(t, boundary.WindingCW, sg.Contours[p.Holes[0]].Winding)
	assert.Len(t, sg.ContourEdges(p.Holes[0]), 4)
	assert.Equal(t, raster.TerrainMask(1), p.Terrain)
	require.Len(t, sg.Polylines, 2)
	assert.True(t, sg.Polylines[1].Cycle)
	assert.Len(t, sg.Polylines[1].Vertices, 4)
}

func TestVerticalToleranceKeepsSlopedStairs(t *testing.T) {
	// the staircase climbs two units per column
	b := raster.NewBuilder(10, 10)
	for y := 1; y <= 8; y++ {
		for x := 1; x <= y; x++ {
			require.NoError(t, b.Add(x, y, int32(2*x), 1))
		}
	}
	grid := b.Build()
	grid.AutoConnect(2, 2)
	res, err := painter.Paint(grid)
	require.NoError(t, err)
	bg, err := boundary.Build(grid, res)
	require.NoError(t, err)

	for _, tc := range []struct {
		vertical float64
		edges    int
	}{
		{vertical: -1, edges: 3},
		{vertical: 2, edges: 3},
	} {
		sg, err := Simplify(bg, Options{Horizontal: 0.5, Vertical: tc.vertical})
		require.NoError(t, err)
		assert.Len(t, sg.ContourEdges(0), tc.edges, "vertical %v", tc.vertical)
	}
	strict, err := Simplify(bg, Options{Horizontal: 0.5, Vertical: 0})
	require.NoError(t, err)
	assert.Greater(t, len(strict.ContourEdges(0)), 3)
	checkFidelity(t, strict, 0.5)
}

func TestRejectsNegativeTolerance(t *testing.T) {
	_, err := Simplify(&boundary.Graph{}, Options{Horizontal: -1})
	assert.ErrorIs(t, err, ErrBadOptions)
}

func TestEnclosedColourMatchesItsHole(t *testing.T) {
	sg := simplified(t, Options{Horizontal: 0.5, Vertical: -1},
		".......",
		".aaaaa.",
		".aaaaa.",
		".aabaa.",
		".aaaaa.",
		".aaaaa.",
		".......",
	)
	require.Len(t, sg.Polygons, 2)
	var inner, hole ContourID = -1, -1
	for _, p := range sg.Polygons {
		if len(p.Holes) == 1 {
			hole = p.Holes[0]
		} else {
			inner = p.Exterior
		}
	}
	require.NotEqual(t, ContourID(-1), inner)
	require.NotEqual(t, ContourID(-1), hole)

	points := func(c ContourID) []orb.Point {
		var out []orb.Point
		for _, e := range sg.ContourEdges(c) {
			out = append(out, point(sg, sg.Edges[e].From))
		}
		return out
	}
	assert.ElementsMatch(t, points(inner), points(hole))

	for i, ed := range sg.Edges {
		if ed.Type != boundary.EdgeFloorLink {
			continue
		}
		require.NotEqual(t, NoEdge, ed.Pair, "edge %d", i)
		assert.Equal(t, EdgeID(i), sg.Edges[ed.Pair].Pair)
	}
	checkFidelity(t, sg, 0.5)
}

var diagonalHoles = []string{
	"........",
	".aaaaaa.",
	".aaaaaa.",
	".aaa#aa.",
	".aa#aaa.",
	".aaaaaa.",
	"........",
}

func TestPinchVerticesAreKept(t *testing.T) {
	sg := simplified(t, Options{Horizontal: 0.5, Vertical: -1}, diagonalHoles...)
	src := sg.Source
	for ci := range sg.Contours {
		visits := map[boundary.VertexID]int{}
		for _, e := range src.ContourEdges(sg.Contours[ci].Source) {
			visits[src.Edges[e].From]++
		}
		kept := map[boundary.VertexID]bool{}
		for _, e := range sg.ContourEdges(ContourID(ci)) {
			kept[sg.Edges[e].From] = true
		}
		for v, n := range visits {
			if n > 1 {
				assert.True(t, kept[v], "contour %d dropped vertex %d", ci, v)
			}
		}
	}
	for i := range sg.Polygons {
		assert.Empty(t, sg.offenders(&sg.Polygons[i]), "polygon %d", i)
	}
	checkFidelity(t, sg, 0.5)
}

func TestHoleCornersSurviveDefaultTolerance(t *testing.T) {
	sg := simplified(t, Options{Horizontal: 0.5, Vertical: -1},
		".......",
		".aaaaa.",
		".aaaaa.",
		".aa#aa.",
		".aaaaa.",
		".aaaaa.",
		".......",
	)
	require.Len(t, sg.Polygons, 1)
	require.Len(t, sg.Polygons[0].Holes, 1)
	assert.Len(t, sg.ContourEdges(sg.Polygons[0].Holes[0]), 4)
	assert.Len(t, sg.ContourEdges(sg.Polygons[0].Exterior), 4)
}

// handRing appends a closed ring through pts to g, one fresh vertex per point.
func handRing(g *Graph, winding boundary.Winding, pts ...[2]int32) ContourID {
	src := g.Source
	first := boundary.VertexID(len(src.Vertices))
	base := EdgeID(len(g.Edges))
	id := ContourID(len(g.Contours))
	for _, p := range pts {
		src.Vertices = append(src.Vertices, boundary.Vertex{X: p[0], Y: p[1]})
	}
	n := len(pts)
	for i := range pts {
		g.Edges = append(g.Edges, Edge{
			From:    first + boundary.VertexID(i),
			To:      first + boundary.VertexID((i+1)%n),
			Pair:    NoEdge,
			Contour: id,
			Next:    base + EdgeID((i+1)%n),
		})
	}
	g.Contours = append(g.Contours, Contour{Begin: base, EdgeCount: int32(n), Winding: winding, Hole: winding == boundary.WindingCW})
	return id
}

func TestOffenders(t *testing.T) {
	t.Run("square", func(t *testing.T) {
		g := &Graph{Source: &boundary.Graph{}}
		ext := handRing(g, boundary.WindingCCW, [2]int32{0, 0}, [2]int32{2, 0}, [2]int32{2, 2}, [2]int32{0, 2})
		assert.Empty(t, g.offenders(&Polygon{Exterior: ext}))
	})
	t.Run("pinch", func(t *testing.T) {
		g := &Graph{Source: &boundary.Graph{}}
		ext := handRing(g, boundary.WindingCCW,
			[2]int32{0, 0}, [2]int32{2, 0}, [2]int32{2, 2}, [2]int32{4, 2},
			[2]int32{4, 4}, [2]int32{2, 4}, [2]int32{2, 2}, [2]int32{0, 2})
		assert.Empty(t, g.offenders(&Polygon{Exterior: ext}))
	})
	t.Run("crossing", func(t *testing.T) {
		g := &Graph{Source: &boundary.Graph{}}
		ext := handRing(g, boundary.WindingCCW, [2]int32{0, 0}, [2]int32{2, 2}, [2]int32{2, 0}, [2]int32{0, 2})
		bad := g.offenders(&Polygon{Exterior: ext})
		assert.Contains(t, bad, EdgeID(0))
		assert.Contains(t, bad, EdgeID(2))
	})
	t.Run("inverted", func(t *testing.T) {
		g := &Graph{Source: &boundary.Graph{}}
		ext := handRing(g, boundary.WindingCCW, [2]int32{0, 0}, [2]int32{0, 2}, [2]int32{2, 2}, [2]int32{2, 0})
		assert.Len(t, g.offenders(&Polygon{Exterior: ext}), 4)
	})
	t.Run("fold", func(t *testing.T) {
		g := &Graph{Source: &boundary.Graph{}}
		ext := handRing(g, boundary.WindingCCW,
			[2]int32{0, 0}, [2]int32{4, 0}, [2]int32{4, 4}, [2]int32{0, 4}, [2]int32{0, 6})
		bad := g.offenders(&Polygon{Exterior: ext})
		assert.Contains(t, bad, EdgeID(3))
		assert.Contains(t, bad, EdgeID(4))
		assert.NotContains(t, bad, EdgeID(0))
	})
	t.Run("hole on outline", func(t *testing.T) {
		g := &Graph{Source: &boundary.Graph{}}
		ext := handRing(g, boundary.WindingCCW, [2]int32{0, 0}, [2]int32{4, 0}, [2]int32{4, 4}, [2]int32{0, 4})
		hole := handRing(g, boundary.WindingCW, [2]int32{2, 0}, [2]int32{1, 1}, [2]int32{3, 1})
		bad := g.offenders(&Polygon{Exterior: ext, Holes: []ContourID{hole}})
		assert.Contains(t, bad, EdgeID(0))
		assert.Contains(t, bad, EdgeID(4))
		assert.NotContains(t, bad, EdgeID(1))
		assert.NotContains(t, bad, EdgeID(5))
	})
}
