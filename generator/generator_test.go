package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gorustyt/navgen/common/message"
	"github.com/gorustyt/navgen/config"
	"github.com/gorustyt/navgen/raster"
	"github.com/gorustyt/navgen/simplify"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.CellPixels = 4
	cfg.PixelSize = 1
	cfg.AltitudeScale = 0.5
	cfg.Enlargement = 0
	cfg.Workers = 2
	return cfg
}

func grid(t *testing.T, rows ...string) *raster.Grid {
	t.Helper()
	g, err := raster.ParseASCII(raster.ParseOptions{MaxClimb: 4, StepHeight: 1}, raster.Layer{Rows: rows})
	require.NoError(t, err)
	return g
}

var openCell = []string{
	"aaaaaa",
	"aaaaaa",
	"aaaaaa",
	"aaaaaa",
	"aaaaaa",
	"aaaaaa",
}

func TestGenerateCell(t *testing.T) {
	gen := New(testConfig(), nil)
	cell, rep, err := gen.GenerateCell(Input{X: 1, Y: 2, Grid: grid(t, openCell...)})
	require.NoError(t, err)
	require.Len(t, cell.Floors, 1)
	assert.Equal(t, 2, cell.TriangleCount())
	for d := range cell.Boundaries {
		assert.Len(t, cell.Boundaries[d], 1, "direction %s", raster.Dir(d))
	}
	assert.InDelta(t, 4, cell.BoundsMin[0], 1e-6)
	assert.InDelta(t, 8, cell.BoundsMin[2], 1e-6)
	assert.InDelta(t, 8, cell.BoundsMax[0], 1e-6)
	assert.InDelta(t, 12, cell.BoundsMax[2], 1e-6)

	assert.Equal(t, 1, rep.Colors)
	assert.Equal(t, 1, rep.Floors)
	assert.Equal(t, 2, rep.Triangles)
	assert.Empty(t, rep.Failed)
	assert.Len(t, rep.Timings, len(stages))
}

func TestGenerateCellTwice(t *testing.T) {
	gen := New(testConfig(), nil)
	g := grid(t, openCell...)
	_, first, err := gen.GenerateCell(Input{Grid: g})
	require.NoError(t, err)
	_, second, err := gen.GenerateCell(Input{Grid: g})
	require.NoError(t, err)
	assert.Equal(t, first.Triangles, second.Triangles)
	assert.Equal(t, first.Colors, second.Colors)
}

func TestGenerateCellWrongSize(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	gen := New(testConfig(), zap.New(core))
	_, rep, err := gen.GenerateCell(Input{X: 3, Y: 4, Grid: grid(t, "aaa", "aaa", "aaa")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGridSize)

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageInput, se.Stage)
	assert.Equal(t, int32(3), se.X)
	assert.Equal(t, int32(4), se.Y)
	assert.Equal(t, StageInput, rep.Failed)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "cell failed", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "input", fields["stage"])
	assert.EqualValues(t, 3, fields["cell_x"])
	assert.EqualValues(t, 4, fields["cell_y"])
}

func TestGenerateCellLaterStageFailure(t *testing.T) {
	cfg := testConfig()
	cfg.Simplify.Horizontal = -1
	core, logs := observer.New(zapcore.WarnLevel)
	gen := New(cfg, zap.New(core))
	cell, rep, err := gen.GenerateCell(Input{X: 7, Y: 1, Grid: grid(t, openCell...)})
	require.Error(t, err)
	assert.Nil(t, cell)
	assert.ErrorIs(t, err, simplify.ErrBadOptions)

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageSimplify, se.Stage)
	assert.Equal(t, int32(7), se.X)
	assert.Equal(t, StageSimplify, rep.Failed)
	assert.NotEmpty(t, rep.Error)

	// the stages before the failure still fill the report
	assert.Equal(t, 1, rep.Colors)
	assert.Equal(t, 1, rep.Polygons)
	assert.Zero(t, rep.Triangles)
	assert.Len(t, rep.Timings, 4)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "simplify", logs.All()[0].ContextMap()["stage"])
}

func TestGenerateAllKeepsGoing(t *testing.T) {
	gen := New(testConfig(), nil)
	inputs := []Input{
		{X: 0, Y: 0, Grid: grid(t, openCell...)},
		{X: 1, Y: 0, Grid: grid(t, "aaa", "aaa", "aaa")},
		{X: 2, Y: 0, Grid: grid(t, openCell...)},
		{X: 3, Y: 0},
	}
	out := gen.GenerateAll(context.Background(), inputs)
	require.Len(t, out, len(inputs))
	for i, o := range out {
		assert.Equal(t, inputs[i].X, o.X)
	}
	assert.NoError(t, out[0].Err)
	assert.NotNil(t, out[0].Cell)
	assert.ErrorIs(t, out[1].Err, ErrGridSize)
	assert.Nil(t, out[1].Cell)
	assert.NoError(t, out[2].Err)
	assert.ErrorIs(t, out[3].Err, ErrGridSize)

	data, err := EncodeBatch(out)
	require.NoError(t, err)
	fields, err := message.DecodeFields(data)
	require.NoError(t, err)
	assert.EqualValues(t, 2, fields["failed"])
	cells := fields["cells"].([]any)
	require.Len(t, cells, len(inputs))
	assert.Equal(t, "input", cells[1].(map[string]any)["failed_stage"])
	assert.EqualValues(t, 2, cells[2].(map[string]any)["triangles"])
}

func TestGenerateAllCancelled(t *testing.T) {
	gen := New(testConfig(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := gen.GenerateAll(ctx, []Input{{Grid: grid(t, openCell...)}, {X: 1, Grid: grid(t, openCell...)}})
	for _, o := range out {
		assert.ErrorIs(t, o.Err, context.Canceled)
		assert.Nil(t, o.Cell)
	}
}

func TestReportProto(t *testing.T) {
	gen := New(testConfig(), nil)
	_, rep, err := gen.GenerateCell(Input{X: 5, Y: 6, Grid: grid(t, openCell...)})
	require.NoError(t, err)
	s, err := rep.Proto()
	require.NoError(t, err)
	m := s.AsMap()
	assert.EqualValues(t, 5, m["cell_x"])
	assert.EqualValues(t, 2, m["triangles"])
	assert.NotContains(t, m, "failed_stage")
	assert.Len(t, m["timings_ms"], len(stages))
}
