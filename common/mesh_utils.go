package common

import "math"

// Point2 is a position on the grid plane (x east, y north).
type Point2 struct {
	X, Y float64
}

func (p Point2) Sub(o Point2) Point2 { return Point2{p.X - o.X, p.Y - o.Y} }
func (p Point2) Len() float64       { return math.Hypot(p.X, p.Y) }

// Prev and Next step around a ring of n indices.
func Prev[T IT](i, n T) T {
	if i-1 >= 0 {
		return i - 1
	}
	return n - 1
}

func Next[T IT](i, n T) T {
	if i+1 < n {
		return i + 1
	}
	return 0
}

// Area2 is twice the signed area of abc, positive when abc turns counter-clockwise.
func Area2(a, b, c Point2) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (c.X-a.X)*(b.Y-a.Y)
}

// Left reports whether c lies strictly left of the directed line a->b.
func Left(a, b, c Point2) bool {
	return Area2(a, b, c) > 0
}

func LeftOn(a, b, c Point2) bool {
	return Area2(a, b, c) >= 0
}

func Collinear(a, b, c Point2) bool {
	return Area2(a, b, c) == 0
}

// crossProper reports whether ab and cd cross at a point interior to both.
func crossProper(a, b, c, d Point2) bool {
	if Collinear(a, b, c) || Collinear(a, b, d) ||
		Collinear(c, d, a) || Collinear(c, d, b) {
		return false
	}
	return Left(a, b, c) != Left(a, b, d) && Left(c, d, a) != Left(c, d, b)
}

// Between reports whether c lies on the closed segment ab.
func Between(a, b, c Point2) bool {
	if !Collinear(a, b, c) {
		return false
	}
	if a.X != b.X {
		return ((a.X <= c.X) && (c.X <= b.X)) || ((a.X >= c.X) && (c.X >= b.X))
	}
	return ((a.Y <= c.Y) && (c.Y <= b.Y)) || ((a.Y >= c.Y) && (c.Y >= b.Y))
}

// Intersect reports whether segments ab and cd touch or cross.
func Intersect(a, b, c, d Point2) bool {
	if crossProper(a, b, c, d) {
		return true
	}
	return Between(a, b, c) || Between(a, b, d) ||
		Between(c, d, a) || Between(c, d, b)
}

func Vequal2(a, b Point2) bool {
	return a.X == b.X && a.Y == b.Y
}

// InCone reports whether the segment a->p leaves vertex a (with polygon
// neighbours prev and next, counter-clockwise) towards the polygon interior.
func InCone(prev, a, next, p Point2) bool {
	if LeftOn(prev, a, next) {
		return Left(a, p, prev) && Left(p, a, next)
	}
	// reflex
	return !(LeftOn(a, p, next) && LeftOn(p, a, prev))
}

// PointInTriangle reports whether p lies inside or on the border of the
// counter-clockwise triangle abc.
func PointInTriangle(a, b, c, p Point2) bool {
	return LeftOn(a, b, p) && LeftOn(b, c, p) && LeftOn(c, a, p)
}

// MinAngle returns the smallest interior angle of triangle abc in radians.
func MinAngle(a, b, c Point2) float64 {
	la := b.Sub(c).Len()
	lb := a.Sub(c).Len()
	lc := a.Sub(b).Len()
	if la == 0 || lb == 0 || lc == 0 {
		return 0
	}
	angle := func(opp, s1, s2 float64) float64 {
		cos := Clamp((s1*s1+s2*s2-opp*opp)/(2*s1*s2), -1, 1)
		return math.Acos(cos)
	}
	return min(angle(la, lb, lc), angle(lb, la, lc), angle(lc, la, lb))
}
