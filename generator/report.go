package generator

import (
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/gorustyt/navgen/common/message"
)

// Report sums up the generation of one cell.
type Report struct {
	X, Y            int32
	Colors          int
	Bevels          int
	BoundaryEdges   int
	Contours        int
	Polygons        int
	SimplifiedEdges int
	Floors          int
	Triangles       int
	Links           int
	UnmatchedLinks  int
	Timings         map[Stage]time.Duration
	Total           time.Duration
	// Failed is the stage that stopped the cell, empty on success.
	Failed Stage
	Error  string
}

func newReport(x, y int32) *Report {
	return &Report{X: x, Y: y, Timings: make(map[Stage]time.Duration, len(stages))}
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func (r *Report) fields() map[string]any {
	timings := make(map[string]any, len(r.Timings))
	for s, d := range r.Timings {
		timings[string(s)] = ms(d)
	}
	f := map[string]any{
		"cell_x":           r.X,
		"cell_y":           r.Y,
		"colors":           r.Colors,
		"bevels":           r.Bevels,
		"boundary_edges":   r.BoundaryEdges,
		"contours":         r.Contours,
		"polygons":         r.Polygons,
		"simplified_edges": r.SimplifiedEdges,
		"floors":           r.Floors,
		"triangles":        r.Triangles,
		"links":            r.Links,
		"unmatched_links":  r.UnmatchedLinks,
		"timings_ms":       timings,
		"total_ms":         ms(r.Total),
	}
	if r.Failed != "" {
		f["failed_stage"] = string(r.Failed)
		f["error"] = r.Error
	}
	return f
}

// Proto returns the report as a google.protobuf.Struct.
func (r *Report) Proto() (*structpb.Struct, error) {
	return structpb.NewStruct(r.fields())
}

// EncodeBatch encodes the reports of a GenerateAll run as one protobuf
// Struct holding a "cells" list and the failure count.
func EncodeBatch(outcomes []Outcome) ([]byte, error) {
	cells := make([]any, 0, len(outcomes))
	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
		if o.Report == nil {
			cells = append(cells, map[string]any{"cell_x": o.X, "cell_y": o.Y, "error": errString(o.Err)})
			continue
		}
		cells = append(cells, o.Report.fields())
	}
	return message.EncodeFields(map[string]any{
		"cells":  cells,
		"failed": failed,
	})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
