package painter

import "errors"

var (
	// ErrBevelInconsistent reports a bevel pixel whose halves ended up with
	// a missing colour.
	ErrBevelInconsistent = errors.New("painter: inconsistent bevel")
	// ErrForbiddenMerge reports a split bevel whose two halves share a colour.
	ErrForbiddenMerge = errors.New("painter: forbidden border merge")
	ErrTooManyColors  = errors.New("painter: colour space exhausted")
)
