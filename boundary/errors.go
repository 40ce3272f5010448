package boundary

import "errors"

var (
	ErrContourOpen   = errors.New("boundary: contour does not close")
	ErrExteriorCount = errors.New("boundary: colour needs exactly one exterior contour")
	ErrHoleWinding   = errors.New("boundary: hole winding matches its exterior")
	ErrUnpairedEdge  = errors.New("boundary: wall edge without pair")
	ErrOverlap       = errors.New("boundary: overlapping boundary segments")
)
