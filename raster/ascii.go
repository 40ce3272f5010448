package raster

import "fmt"

// Layer is one ASCII map drawn at a base altitude. Rows are listed from
// north to south.
//
//	'.'        no pixel
//	'#'        unwalkable pixel
//	'a'..'z'   walkable pixel with terrain bit c-'a'
//	'0'..'9'   walkable terrain 'a' raised by the digit
type Layer struct {
	Altitude int32
	Rows     []string
}

type ParseOptions struct {
	MaxClimb   int32
	StepHeight int32
}

// ParseASCII builds a connected grid from one or more ASCII layers. It is
// the fixture format used by the tests and accepted by the command line tool.
func ParseASCII(opts ParseOptions, layers ...Layer) (*Grid, error) {
	if len(layers) == 0 || len(layers[0].Rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrBadFixture)
	}
	height := len(layers[0].Rows)
	width := len(layers[0].Rows[0])
	b := NewBuilder(width, height)
	for li, layer := range layers {
		if len(layer.Rows) != height {
			return nil, fmt.Errorf("%w: layer %d has %d rows, want %d", ErrBadFixture, li, len(layer.Rows), height)
		}
		for r, row := range layer.Rows {
			if len(row) != width {
				return nil, fmt.Errorf("%w: layer %d row %d has %d columns, want %d", ErrBadFixture, li, r, len(row), width)
			}
			y := height - 1 - r
			for x, c := range []byte(row) {
				var err error
				switch {
				case c == '.':
					continue
				case c == '#':
					err = b.Add(x, y, layer.Altitude, 0)
				case c >= 'a' && c <= 'z':
					err = b.Add(x, y, layer.Altitude, TerrainMask(1)<<(c-'a'))
				case c >= '0' && c <= '9':
					err = b.Add(x, y, layer.Altitude+int32(c-'0'), 1)
				default:
					return nil, fmt.Errorf("%w: unexpected %q at layer %d row %d", ErrBadFixture, c, li, r)
				}
				if err != nil {
					return nil, err
				}
			}
		}
	}
	g := b.Build()
	g.AutoConnect(opts.MaxClimb, opts.StepHeight)
	return g, nil
}
