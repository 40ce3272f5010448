package boundary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gorustyt/navgen/painter"
	"github.com/gorustyt/navgen/raster"
)

func build(t *testing.T, rows ...string) (*raster.Grid, *Graph) {
	t.Helper()
	g, err := raster.ParseASCII(raster.ParseOptions{MaxClimb: 4, StepHeight: 1}, raster.Layer{Rows: rows})
	require.NoError(t, err)
	res, err := painter.Paint(g)
	require.NoError(t, err)
	gr, err := Build(g, res)
	require.NoError(t, err)
	return g, gr
}

func requireClosed(t *testing.T, gr *Graph) {
	t.Helper()
	for id, c := range gr.Contours {
		e := c.Begin
		for i := int32(0); i < c.EdgeCount; i++ {
			require.Equal(t, ContourID(id), gr.Edges[e].Contour)
			require.Equal(t, gr.Edges[e].To, gr.Edges[gr.Edges[e].Next].From)
			e = gr.Edges[e].Next
		}
		require.Equal(t, c.Begin, e, "contour %d", id)
	}
	for _, p := range gr.Polygons {
		total := gr.Contours[p.Exterior].EdgeCount
		for _, h := range p.Holes {
			total += gr.Contours[h].EdgeCount
			assert.NotEqual(t, gr.Contours[p.Exterior].Winding, gr.Contours[h].Winding)
		}
		assert.Equal(t, gr.ColorEdgeCount(p.Left), int(total))
	}
}

func TestDir8(t *testing.T) {
	assert.Equal(t, Dir8SouthWest, Dir8NorthEast.Opposite())
	assert.Equal(t, Dir8SouthEast, Dir8East.Rotate(-1))
	assert.Equal(t, Dir8NorthWest, Dir8South.Rotate(11))
	dx, dy := Dir8NorthWest.Offset()
	assert.Equal(t, [2]int32{-1, 1}, [2]int32{dx, dy})
	assert.True(t, Dir8SouthEast.Diagonal())
	assert.Equal(t, EdgeCellLinkWest, CellLink(raster.DirWest))
	assert.Equal(t, raster.DirNorth, EdgeCellLinkNorth.CellDir())
}

func TestSquareBlock(t *testing.T) {
	_, gr := build(t,
		"......",
		".aaaa.",
		".aaaa.",
		".aaaa.",
		".aaaa.",
		"......",
	)
	requireClosed(t, gr)
	require.Len(t, gr.Polygons, 1)
	p := gr.Polygons[0]
	assert.Empty(t, p.Holes)
	ext := gr.Contours[p.Exterior]
	assert.Equal(t, int32(4), ext.EdgeCount)
	assert.Equal(t, WindingCCW, ext.Winding)
	assert.InDelta(t, 16, ext.Area, 1e-9)
	assert.Len(t, gr.Vertices, 4)

	for _, e := range gr.ContourEdges(p.Exterior) {
		ed := gr.Edges[e]
		assert.Equal(t, EdgeWall, ed.Type)
		assert.Equal(t, int32(4), ed.Length)
		require.NotEqual(t, NoEdge, ed.Pair)
		assert.Equal(t, raster.Unset, gr.Edges[ed.Pair].Left)
		assert.Equal(t, e, gr.Edges[ed.Pair].Pair)
		assert.Equal(t, StatusStatic, gr.Vertices[ed.From].Status)
	}
	pts := gr.Positions(p.Exterior)
	assert.Len(t, pts, 16)
}

func TestBlockWithHole(t *testing.T) {
	_, gr := build(t,
		".......",
		".aaaaa.",
		".aaaaa.",
		".aa#aa.",
		".aaaaa.",
		".aaaaa.",
		".......",
	)
	requireClosed(t, gr)
	require.Len(t, gr.Polygons, 1)
	p := gr.Polygons[0]
	require.Len(t, p.Holes, 1)
	hole := gr.Contours[p.Holes[0]]
	assert.True(t, hole.Hole)
	assert.Equal(t, int32(4), hole.EdgeCount)
	assert.Equal(t, WindingCW, hole.Winding)
	assert.Equal(t, WindingCCW, gr.Contours[p.Exterior].Winding)
	assert.Len(t, gr.Vertices, 8)
}

func TestTwoColoursSharePairedLink(t *testing.T) {
	_, gr := build(t,
		"......",
		".aabb.",
		".aabb.",
		"......",
	)
	requireClosed(t, gr)
	require.Len(t, gr.Polygons, 2)
	links := 0
	for i, ed := range gr.Edges {
		if ed.Type != EdgeFloorLink {
			continue
		}
		links++
		require.NotEqual(t, NoEdge, ed.Pair)
		pair := gr.Edges[ed.Pair]
		assert.Equal(t, EdgeID(i), pair.Pair)
		assert.Equal(t, ed.Right, pair.Left)
		assert.Equal(t, ed.From, pair.To)
		assert.Equal(t, int32(2), ed.Length)
	}
	assert.Equal(t, 2, links)

	narrow := 0
	for _, v := range gr.Vertices {
		if v.Narrow() {
			narrow++
		}
	}
	assert.Equal(t, 2, narrow)
}

func TestCellLinks(t *testing.T) {
	_, gr := build(t,
		"aaaaa",
		"aaaaa",
		"aaaaa",
		"aaaaa",
	)
	requireClosed(t, gr)
	require.Len(t, gr.Polygons, 1)
	types := map[EdgeType]bool{}
	for _, e := range gr.ContourEdges(gr.Polygons[0].Exterior) {
		ed := gr.Edges[e]
		types[ed.Type] = true
		assert.Equal(t, NoEdge, ed.Pair)
	}
	assert.Equal(t, map[EdgeType]bool{
		EdgeCellLinkEast: true, EdgeCellLinkNorth: true,
		EdgeCellLinkWest: true, EdgeCellLinkSouth: true,
	}, types)
	assert.Len(t, gr.Edges, 4)
}

func TestWallTagPairsBothSides(t *testing.T) {
	g, err := raster.ParseASCII(raster.ParseOptions{MaxClimb: 4}, raster.Layer{Rows: []string{
		"....",
		".aa.",
		"....",
	}})
	require.NoError(t, err)
	a, b := g.Column(1, 1).Index, g.Column(2, 1).Index
	require.NoError(t, g.Connect(a, raster.DirEast, b, raster.TagHole))
	res, err := painter.Paint(g)
	require.NoError(t, err)
	gr, err := Build(g, res)
	require.NoError(t, err)
	requireClosed(t, gr)

	holes := 0
	for _, ed := range gr.Edges {
		if ed.Type != EdgeHole {
			continue
		}
		holes++
		assert.NotEqual(t, raster.Unset, ed.Left)
		assert.Equal(t, ed.Right, gr.Edges[ed.Pair].Left)
		assert.NotZero(t, gr.Vertices[ed.From].Status&StatusDynamic)
	}
	assert.Equal(t, 2, holes)
}

func TestStepsSplitSurfaces(t *testing.T) {
	_, gr := build(t,
		"....",
		".03.",
		"....",
	)
	requireClosed(t, gr)
	require.Len(t, gr.Polygons, 2)
	assert.NotEqual(t, gr.Polygons[0].Surface, gr.Polygons[1].Surface)
	for _, ed := range gr.Edges {
		if ed.Type == EdgeFloorLink {
			assert.Equal(t, NoEdge, ed.Pair)
		}
	}
}

func TestSplitBevelEmitsDiagonal(t *testing.T) {
	_, gr := build(t,
		"....",
		".aa.",
		"aaa.",
		".a..",
	)
	requireClosed(t, gr)
	require.Len(t, gr.Polygons, 2)
	var diag []Edge
	for _, ed := range gr.Edges {
		if ed.Dir.Diagonal() {
			diag = append(diag, ed)
		}
	}
	require.Len(t, diag, 2)
	assert.Equal(t, EdgeFloorLink, diag[0].Type)
	assert.Equal(t, diag[0].Left, diag[1].Right)
	assert.Equal(t, diag[0].From, diag[1].To)

	for _, c := range gr.Contours {
		assert.Equal(t, WindingCCW, c.Winding)
	}
	tri := gr.Contours[gr.Polygons[0].Exterior]
	assert.Equal(t, int32(3), tri.EdgeCount)
	assert.InDelta(t, 0.5, tri.Area, 1e-9)
}

func handVertex(x, y int32) Vertex {
	v := Vertex{X: x, Y: y}
	for d := range v.In {
		v.In[d], v.Out[d] = NoEdge, NoEdge
	}
	return v
}

func TestTraceRejectsDeadEnd(t *testing.T) {
	gr := &Graph{Vertices: []Vertex{handVertex(0, 0), handVertex(1, 0)}}
	gr.Vertices[0].Index, gr.Vertices[1].Index = 0, 1
	gr.Edges = []Edge{{From: 0, To: 1, Dir: Dir8East, Left: 1, Contour: NoContour, Pair: NoEdge, Next: NoEdge, Length: 1}}
	gr.Vertices[0].Out[Dir8East] = 0
	gr.Vertices[1].In[Dir8East] = 0
	assert.ErrorIs(t, gr.TraceContours(), ErrContourOpen)
}

func TestGroupRejectsHoleWoundAsOutline(t *testing.T) {
	gr := &Graph{Contours: []Contour{
		{Left: 1, Winding: WindingCCW, Area: 4},
		{Left: 2, Winding: WindingCW, Area: 4},
		{Left: 3, Winding: WindingCW, Area: 1},
	}}
	assert.ErrorIs(t, gr.GroupPolygons(), ErrHoleWinding)
}

func TestGroupRejectsSecondOutline(t *testing.T) {
	gr := &Graph{
		Vertices: []Vertex{handVertex(0, 0)},
		Edges:    []Edge{{From: 0, To: 0, Left: 1, Pair: NoEdge, Next: 0}},
		Contours: []Contour{
			{Begin: 0, EdgeCount: 1, Left: 1, Winding: WindingCCW, Area: 4},
			{Begin: 0, EdgeCount: 1, Left: 1, Winding: WindingCCW, Area: 1},
		},
	}
	assert.ErrorIs(t, gr.GroupPolygons(), ErrExteriorCount)
}

func TestBuildEdgesRequiresWallPairs(t *testing.T) {
	g, err := raster.ParseASCII(raster.ParseOptions{MaxClimb: 4, StepHeight: 1}, raster.Layer{Rows: []string{
		".......",
		".aaaaa.",
		".aaaaa.",
		".aa#aa.",
		".aaaaa.",
		".aaaaa.",
		".......",
	}})
	require.NoError(t, err)
	res, err := painter.Paint(g)
	require.NoError(t, err)
	b := NewBuilder(g, res)
	require.NoError(t, b.EmitSegments())
	for i := range b.segments {
		b.segments[i].pair = -1
	}
	b.BuildVertices()
	assert.ErrorIs(t, b.BuildEdges(), ErrUnpairedEdge)
}
