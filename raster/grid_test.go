package raster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gorustyt/navgen/common/rw"
)

func TestDirRotation(t *testing.T) {
	assert.Equal(t, DirWest, DirEast.Opposite())
	assert.Equal(t, DirNorth, DirEast.CCW())
	assert.Equal(t, DirSouth, DirEast.CW())
	dx, dy := DirSouth.Offset()
	assert.Equal(t, [2]int{0, -1}, [2]int{dx, dy})
}

func TestParseASCIIConnectsColumns(t *testing.T) {
	g, err := ParseASCII(ParseOptions{MaxClimb: 2, StepHeight: 0},
		Layer{Rows: []string{
			"....",
			".aa.",
			".#0.",
			"....",
		}},
	)
	require.NoError(t, err)
	require.NoError(t, g.Validate())
	require.Len(t, g.Pixels, 4)

	// (1,1) is the '#' pixel, never connected.
	blocked := g.Column(1, 1)
	require.Equal(t, int32(1), blocked.Count)
	assert.False(t, g.Walkable(blocked.Index))
	assert.Equal(t, [4]int32{NotConnected, NotConnected, NotConnected, NotConnected}, g.Pixels[blocked.Index].Neighbors)

	a := g.Column(1, 2).Index
	b := g.Column(2, 2).Index
	n, tag := g.Neighbor(a, DirEast)
	assert.Equal(t, b, n)
	assert.Equal(t, TagNone, tag)

	// '0' sits at the same altitude as 'a' and connects flat.
	c := g.Column(2, 1).Index
	n, tag = g.Neighbor(b, DirSouth)
	assert.Equal(t, c, n)
	assert.Equal(t, TagNone, tag)
}

func TestAutoConnectTagsSteps(t *testing.T) {
	g, err := ParseASCII(ParseOptions{MaxClimb: 4, StepHeight: 1},
		Layer{Rows: []string{
			"...",
			"03.",
			"...",
		}},
	)
	require.NoError(t, err)
	lo := g.Column(0, 1).Index
	n, tag := g.Neighbor(lo, DirEast)
	assert.Equal(t, g.Column(1, 1).Index, n)
	assert.Equal(t, TagStep, tag)
}

func TestAutoConnectUnboundedClimb(t *testing.T) {
	g, err := ParseASCII(ParseOptions{MaxClimb: math.MaxInt32, StepHeight: 1},
		Layer{Rows: []string{"09"}},
	)
	require.NoError(t, err)
	lo, hi := g.Column(0, 0).Index, g.Column(1, 0).Index
	n, tag := g.Neighbor(lo, DirEast)
	assert.Equal(t, hi, n)
	assert.Equal(t, TagStep, tag)
	n, _ = g.Neighbor(hi, DirWest)
	assert.Equal(t, lo, n)
}

func TestAutoConnectPicksClosestLayer(t *testing.T) {
	g, err := ParseASCII(ParseOptions{MaxClimb: 3, StepHeight: 1},
		Layer{Altitude: 0, Rows: []string{"aa"}},
		Layer{Altitude: 10, Rows: []string{"a."}},
	)
	require.NoError(t, err)
	col := g.Column(0, 0)
	require.Equal(t, int32(2), col.Count)
	ground, bridge := col.Index, col.Index+1
	assert.Less(t, g.Pixels[ground].Altitude, g.Pixels[bridge].Altitude)

	n, _ := g.Neighbor(ground, DirEast)
	assert.Equal(t, g.Column(1, 0).Index, n)
	n, _ = g.Neighbor(bridge, DirEast)
	assert.Equal(t, NotConnected, n)
}

func TestParseASCIIRejectsRaggedRows(t *testing.T) {
	_, err := ParseASCII(ParseOptions{}, Layer{Rows: []string{"aaa", "aa"}})
	assert.ErrorIs(t, err, ErrBadFixture)
}

func TestConnectRejectsNonAdjacent(t *testing.T) {
	g, err := ParseASCII(ParseOptions{}, Layer{Rows: []string{"a.a"}})
	require.NoError(t, err)
	err = g.Connect(g.Column(0, 0).Index, DirEast, g.Column(2, 0).Index, TagNone)
	assert.ErrorIs(t, err, ErrBadNeighbour)
}

func TestGridBlobRoundTrip(t *testing.T) {
	g, err := ParseASCII(ParseOptions{MaxClimb: 1},
		Layer{Rows: []string{
			".....",
			".abb.",
			".a#b.",
			".....",
		}},
	)
	require.NoError(t, err)
	g.Pixels[0].Color = 7

	w := rw.NewBinWriter()
	Encode(g, w)
	got, err := Decode(rw.NewBinReader(w.GetWriteBytes()))
	require.NoError(t, err)
	assert.Equal(t, g.Width, got.Width)
	assert.Equal(t, g.Columns, got.Columns)
	assert.Equal(t, g.Pixels, got.Pixels)
}

func TestDecodeRejectsTruncatedBlob(t *testing.T) {
	g, err := ParseASCII(ParseOptions{}, Layer{Rows: []string{"aa"}})
	require.NoError(t, err)
	w := rw.NewBinWriter()
	Encode(g, w)
	data := w.GetWriteBytes()
	_, err = Decode(rw.NewBinReader(data[:len(data)-3]))
	assert.Error(t, err)
}
