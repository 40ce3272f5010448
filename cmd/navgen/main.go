package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/gorustyt/navgen/common/logger"
	"github.com/gorustyt/navgen/common/rw"
	"github.com/gorustyt/navgen/config"
	"github.com/gorustyt/navgen/debug_utils"
	"github.com/gorustyt/navgen/generator"
	"github.com/gorustyt/navgen/navcell"
	"github.com/gorustyt/navgen/raster"
)

func main() {
	configPath := flag.String("config", "", "YAML generation config (defaults when empty)")
	outDir := flag.String("out", ".", "directory receiving the cell blobs")
	dumpObj := flag.Bool("obj", false, "also write a Wavefront OBJ per cell")
	reportPath := flag.String("report", "", "write a protobuf generation report to this file")
	maxClimb := flag.Int("max-climb", 4, "largest altitude difference connecting ASCII fixture pixels")
	stepHeight := flag.Int("step-height", 1, "altitude difference above which a connection is a step")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: navgen [flags] cell_X_Y.(txt|grd)...")
		flag.PrintDefaults()
		os.Exit(2)
	}
	os.Exit(run(*configPath, *outDir, *dumpObj, *reportPath,
		raster.ParseOptions{MaxClimb: int32(*maxClimb), StepHeight: int32(*stepHeight)}, flag.Args()))
}

func run(configPath, outDir string, dumpObj bool, reportPath string, opts raster.ParseOptions, files []string) int {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	inputs := make([]generator.Input, 0, len(files))
	for _, f := range files {
		in, err := loadInput(f, opts)
		if err != nil {
			log.Error("load input", zap.String("file", f), zap.Error(err))
			return 1
		}
		inputs = append(inputs, in)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Error("create output directory", zap.String("dir", outDir), zap.Error(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	outcomes := generator.New(cfg, log).GenerateAll(ctx, inputs)

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			continue
		}
		if err := writeCell(outDir, o.Cell, dumpObj); err != nil {
			log.Error("write cell", zap.Int32("cell_x", o.X), zap.Int32("cell_y", o.Y), zap.Error(err))
			failed++
		}
	}
	if reportPath != "" {
		data, err := generator.EncodeBatch(outcomes)
		if err == nil {
			err = os.WriteFile(reportPath, data, 0o644)
		}
		if err != nil {
			log.Error("write report", zap.String("file", reportPath), zap.Error(err))
			return 1
		}
	}
	log.Info("generation finished", zap.Int("cells", len(outcomes)), zap.Int("failed", failed))
	if failed > 0 {
		return 1
	}
	return 0
}

func writeCell(dir string, c *navcell.Cell, dumpObj bool) error {
	name := filepath.Join(dir, fmt.Sprintf("cell_%d_%d", c.X, c.Y))
	w := rw.NewBinWriter()
	navcell.Encode(c, w)
	if err := os.WriteFile(name+".ncel", w.GetWriteBytes(), 0o644); err != nil {
		return err
	}
	if !dumpObj {
		return nil
	}
	obj := rw.NewBinWriter()
	debug_utils.DumpCellToObj(c, obj)
	return os.WriteFile(name+".obj", obj.GetWriteBytes(), 0o644)
}
