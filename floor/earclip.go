package floor

import (
	"fmt"

	"github.com/zyedidia/generic/heap"

	"github.com/gorustyt/navgen/common"
)

type earCandidate struct {
	node    int
	version int
	angle   float64
}

// clipper triangulates a simple counter-clockwise polygon by ear clipping,
// always cutting the ear with the widest smallest angle first.
type clipper struct {
	pts     []common.Point2
	prev    []int
	next    []int
	active  []bool
	version []int
	left    int
	queue   *heap.Heap[earCandidate]
}

func newClipper(pts []common.Point2) *clipper {
	n := len(pts)
	c := &clipper{
		pts:     pts,
		prev:    make([]int, n),
		next:    make([]int, n),
		active:  make([]bool, n),
		version: make([]int, n),
		left:    n,
	}
	for i := range pts {
		c.prev[i] = common.Prev(i, n)
		c.next[i] = common.Next(i, n)
		c.active[i] = true
	}
	c.queue = heap.New(func(a, b earCandidate) bool {
		if a.angle != b.angle {
			return a.angle > b.angle
		}
		return a.node < b.node
	})
	return c
}

// isEar reports whether the triangle at i is convex and holds no other
// vertex of the polygon. Vertices sharing a corner position are ignored.
func (c *clipper) isEar(i int) bool {
	a, b, d := c.pts[c.prev[i]], c.pts[i], c.pts[c.next[i]]
	if common.Area2(a, b, d) <= 0 {
		return false
	}
	for j := c.next[c.next[i]]; j != c.prev[i]; j = c.next[j] {
		p := c.pts[j]
		if samePos(p, a) || samePos(p, b) || samePos(p, d) {
			continue
		}
		if common.PointInTriangle(a, b, d, p) {
			return false
		}
	}
	return true
}

func (c *clipper) push(i int) {
	if !c.isEar(i) {
		return
	}
	c.queue.Push(earCandidate{
		node:    i,
		version: c.version[i],
		angle:   common.MinAngle(c.pts[c.prev[i]], c.pts[i], c.pts[c.next[i]]),
	})
}

func (c *clipper) rescan() {
	for i := range c.pts {
		if c.active[i] {
			c.push(i)
		}
	}
}

func (c *clipper) pop() (int, bool) {
	for {
		cand, ok := c.queue.Pop()
		if !ok {
			return 0, false
		}
		if c.active[cand.node] && cand.version == c.version[cand.node] {
			return cand.node, true
		}
	}
}

// run returns the triangles as index triples into pts. Zero-area
// triangles are left out.
func (c *clipper) run() ([][3]int, error) {
	if c.left < 3 {
		return nil, fmt.Errorf("%w: %d vertices", ErrDegenerate, c.left)
	}
	tris := make([][3]int, 0, c.left-2)
	c.rescan()
	for c.left > 3 {
		i, ok := c.pop()
		if !ok {
			c.rescan()
			if i, ok = c.pop(); !ok {
				return nil, fmt.Errorf("%w: %d vertices left", ErrNoEar, c.left)
			}
		}
		a, b := c.prev[i], c.next[i]
		tris = append(tris, [3]int{a, i, b})
		c.active[i] = false
		c.next[a], c.prev[b] = b, a
		c.version[a]++
		c.version[b]++
		c.left--
		c.push(a)
		c.push(b)
	}
	for i := range c.pts {
		if !c.active[i] {
			continue
		}
		a, b := c.prev[i], c.next[i]
		if common.Area2(c.pts[a], c.pts[i], c.pts[b]) > 0 {
			tris = append(tris, [3]int{a, i, b})
		}
		break
	}
	return tris, nil
}
