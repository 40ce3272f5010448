package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/gorustyt/navgen/common/rw"
	"github.com/gorustyt/navgen/generator"
	"github.com/gorustyt/navgen/raster"
)

var errCellName = errors.New("navgen: file name carries no cell coordinates")

var cellNameRe = regexp.MustCompile(`(-?\d+)_(-?\d+)`)

// cellCoords extracts the cell position from names like "cell_3_-2.txt".
func cellCoords(path string) (int32, int32, error) {
	m := cellNameRe.FindAllStringSubmatch(filepath.Base(path), -1)
	if m == nil {
		return 0, 0, fmt.Errorf("%w: %s", errCellName, path)
	}
	last := m[len(m)-1]
	x, err := strconv.ParseInt(last[1], 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %s", errCellName, path)
	}
	y, err := strconv.ParseInt(last[2], 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %s", errCellName, path)
	}
	return int32(x), int32(y), nil
}

// parseLayers splits an ASCII fixture into layers. A line "@<altitude>"
// starts a new layer; blank lines and lines starting with ';' are skipped.
func parseLayers(data []byte) ([]raster.Layer, error) {
	var layers []raster.Layer
	cur := raster.Layer{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r")
		switch {
		case line == "" || strings.HasPrefix(line, ";"):
			continue
		case strings.HasPrefix(line, "@"):
			alt, err := strconv.ParseInt(strings.TrimSpace(line[1:]), 10, 32)
			if err != nil {
				return nil, fmt.Errorf("layer altitude %q: %w", line, err)
			}
			if len(cur.Rows) > 0 {
				layers = append(layers, cur)
			}
			cur = raster.Layer{Altitude: int32(alt)}
		default:
			cur.Rows = append(cur.Rows, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(cur.Rows) > 0 {
		layers = append(layers, cur)
	}
	return layers, nil
}

// loadInput reads one cell raster: an ASCII fixture for .txt files, a grid
// blob otherwise.
func loadInput(path string, opts raster.ParseOptions) (generator.Input, error) {
	x, y, err := cellCoords(path)
	if err != nil {
		return generator.Input{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return generator.Input{}, err
	}
	in := generator.Input{X: x, Y: y}
	if strings.EqualFold(filepath.Ext(path), ".txt") {
		layers, err := parseLayers(data)
		if err != nil {
			return in, fmt.Errorf("%s: %w", path, err)
		}
		in.Grid, err = raster.ParseASCII(opts, layers...)
		if err != nil {
			return in, fmt.Errorf("%s: %w", path, err)
		}
		return in, nil
	}
	in.Grid, err = raster.Decode(rw.NewBinReader(data))
	if err != nil {
		return in, fmt.Errorf("%s: %w", path, err)
	}
	return in, nil
}
