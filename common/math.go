package common

import (
	"cmp"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Vec3 is a world position: x east, y up, z north.
type Vec3 = mgl32.Vec3

type IT interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

func Abs[T IT](a T) T {
	if a < 0 {
		return -a
	}
	return a
}

// Clamp limits value to [lo, hi].
func Clamp[T cmp.Ordered](value, lo, hi T) T {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// Vdist2D is the distance between two positions projected on the xz-plane.
func Vdist2D(a, b Vec3) float32 {
	dx := b[0] - a[0]
	dz := b[2] - a[2]
	return float32(math.Sqrt(float64(dx*dx + dz*dz)))
}

func Vmin(a, b Vec3) Vec3 {
	return Vec3{min(a[0], b[0]), min(a[1], b[1]), min(a[2], b[2])}
}

func Vmax(a, b Vec3) Vec3 {
	return Vec3{max(a[0], b[0]), max(a[1], b[1]), max(a[2], b[2])}
}

// Visfinite reports whether no component of v is NaN or infinite.
func Visfinite(v Vec3) bool {
	return isFinite(v[0]) && isFinite(v[1]) && isFinite(v[2])
}

func isFinite(v float32) bool {
	return !math.IsInf(float64(v), 0) && !math.IsNaN(float64(v))
}
