// Package generator drives the per-cell pipeline: paint, boundary graph,
// simplification, triangulation and cell assembly.
package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gorustyt/navgen/boundary"
	"github.com/gorustyt/navgen/common"
	"github.com/gorustyt/navgen/config"
	"github.com/gorustyt/navgen/floor"
	"github.com/gorustyt/navgen/navcell"
	"github.com/gorustyt/navgen/painter"
	"github.com/gorustyt/navgen/raster"
	"github.com/gorustyt/navgen/simplify"
)

var ErrGridSize = errors.New("generator: grid does not match the cell size")

type Stage string

const (
	StageInput       Stage = "input"
	StagePaint       Stage = "paint"
	StageBoundary    Stage = "boundary"
	StageSimplify    Stage = "simplify"
	StageTriangulate Stage = "triangulate"
	StageAssemble    Stage = "assemble"
)

var stages = []Stage{StageInput, StagePaint, StageBoundary, StageSimplify, StageTriangulate, StageAssemble}

// StageError reports the cell and stage a generation failure happened in.
type StageError struct {
	X, Y  int32
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("cell (%d,%d) %s: %v", e.X, e.Y, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Input is the raster of one cell, overlap ring included.
type Input struct {
	X, Y int32
	Grid *raster.Grid
}

type Outcome struct {
	X, Y   int32
	Cell   *navcell.Cell
	Report *Report
	Err    error
}

type Generator struct {
	cfg *config.Config
	log *zap.Logger
}

func New(cfg *config.Config, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{cfg: cfg, log: log}
}

// Geometry returns the placement of the grid of cell (x, y) in world space.
func (gen *Generator) Geometry(x, y int32) floor.Geometry {
	span := float32(gen.cfg.CellPixels) * gen.cfg.PixelSize
	o := gen.cfg.Origin
	return floor.Geometry{
		Origin:        common.Vec3{o[0] + float32(x)*span, o[1], o[2] + float32(y)*span},
		PixelSize:     gen.cfg.PixelSize,
		AltitudeScale: gen.cfg.AltitudeScale,
	}
}

// cellRun carries the intermediate results of one cell through the stages.
type cellRun struct {
	in      Input
	report  *Report
	paint   *painter.Result
	graph   *boundary.Graph
	simple  *simplify.Graph
	floors  []*floor.Floor
	cell    *navcell.Cell
	started time.Time
}

func (gen *Generator) stage(run *cellRun, s Stage, fn func() error) error {
	start := time.Now()
	err := fn()
	took := time.Since(start)
	run.report.Timings[s] = took
	gen.log.Debug("stage done",
		zap.Int32("cell_x", run.in.X), zap.Int32("cell_y", run.in.Y),
		zap.String("stage", string(s)), zap.Duration("took", took))
	if err == nil {
		return nil
	}
	run.report.Failed = s
	run.report.Error = err.Error()
	gen.log.Warn("cell failed",
		zap.Int32("cell_x", run.in.X), zap.Int32("cell_y", run.in.Y),
		zap.String("stage", string(s)), zap.Error(err))
	return &StageError{X: run.in.X, Y: run.in.Y, Stage: s, Err: err}
}

func (gen *Generator) checkInput(run *cellRun) error {
	g := run.in.Grid
	want := gen.cfg.CellPixels + 2*raster.Overlap
	if g == nil {
		return fmt.Errorf("%w: no grid", ErrGridSize)
	}
	if g.Width != want || g.Height != want {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrGridSize, g.Width, g.Height, want, want)
	}
	if err := g.Validate(); err != nil {
		return err
	}
	g.ResetColors()
	return nil
}

func (gen *Generator) paintCell(run *cellRun) (err error) {
	run.paint, err = painter.Paint(run.in.Grid)
	if err != nil {
		return err
	}
	run.report.Colors = run.paint.ColorCount()
	run.report.Bevels = len(run.paint.Bevels)
	return nil
}

func (gen *Generator) traceBoundary(run *cellRun) (err error) {
	run.graph, err = boundary.Build(run.in.Grid, run.paint)
	if err != nil {
		return err
	}
	run.report.BoundaryEdges = len(run.graph.Edges)
	run.report.Contours = len(run.graph.Contours)
	run.report.Polygons = len(run.graph.Polygons)
	return nil
}

func (gen *Generator) simplifyCell(run *cellRun) (err error) {
	run.simple, err = simplify.Simplify(run.graph, simplify.Options{
		Horizontal: gen.cfg.Simplify.Horizontal,
		Vertical:   gen.cfg.Simplify.Vertical,
	})
	if err != nil {
		return err
	}
	run.report.SimplifiedEdges = len(run.simple.Edges)
	return nil
}

func (gen *Generator) triangulateCell(run *cellRun) error {
	geo := gen.Geometry(run.in.X, run.in.Y)
	run.floors = make([]*floor.Floor, 0, len(run.simple.Polygons))
	for i := range run.simple.Polygons {
		f, err := floor.Triangulate(run.simple, simplify.PolygonID(i), geo)
		if err != nil {
			return fmt.Errorf("polygon %d: %w", i, err)
		}
		run.floors = append(run.floors, f)
		run.report.Triangles += len(f.Triangles)
	}
	run.report.Floors = len(run.floors)
	return nil
}

func (gen *Generator) assembleCell(run *cellRun) error {
	run.cell = navcell.Assemble(run.in.X, run.in.Y, run.floors, navcell.Options{
		Tolerance:   gen.cfg.Link.Tolerance,
		MaxStep:     gen.cfg.Link.MaxStep,
		Enlargement: gen.cfg.Enlargement,
	})
	run.report.Links = len(run.cell.Links)
	run.report.UnmatchedLinks = run.cell.UnmatchedLinks
	if run.cell.UnmatchedLinks > 0 {
		gen.log.Debug("unmatched floor links",
			zap.Int32("cell_x", run.in.X), zap.Int32("cell_y", run.in.Y),
			zap.Int("count", run.cell.UnmatchedLinks))
	}
	return nil
}

// GenerateCell runs every stage on one cell. The report is always returned,
// filled up to the failing stage when err is a *StageError.
func (gen *Generator) GenerateCell(in Input) (*navcell.Cell, *Report, error) {
	run := &cellRun{in: in, report: newReport(in.X, in.Y), started: time.Now()}
	steps := map[Stage]func(*cellRun) error{
		StageInput:       gen.checkInput,
		StagePaint:       gen.paintCell,
		StageBoundary:    gen.traceBoundary,
		StageSimplify:    gen.simplifyCell,
		StageTriangulate: gen.triangulateCell,
		StageAssemble:    gen.assembleCell,
	}
	for _, s := range stages {
		step := steps[s]
		if err := gen.stage(run, s, func() error { return step(run) }); err != nil {
			run.report.Total = time.Since(run.started)
			return nil, run.report, err
		}
	}
	run.report.Total = time.Since(run.started)
	gen.log.Info("cell generated",
		zap.Int32("cell_x", in.X), zap.Int32("cell_y", in.Y),
		zap.Int("floors", run.report.Floors), zap.Int("triangles", run.report.Triangles),
		zap.Duration("took", run.report.Total))
	return run.cell, run.report, nil
}

// GenerateAll generates the cells concurrently, at most cfg.Workers at a
// time. Outcomes keep the order of inputs; a failed cell never stops the
// others, only ctx cancellation does.
func (gen *Generator) GenerateAll(ctx context.Context, inputs []Input) []Outcome {
	out := make([]Outcome, len(inputs))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(gen.cfg.Workers, 1))
	for i := range inputs {
		i := i
		eg.Go(func() error {
			in := inputs[i]
			out[i] = Outcome{X: in.X, Y: in.Y}
			if err := ctx.Err(); err != nil {
				out[i].Err = err
				return nil
			}
			out[i].Cell, out[i].Report, out[i].Err = gen.GenerateCell(in)
			return nil
		})
	}
	_ = eg.Wait()
	return out
}
