// Package spotindex provides an immutable nearest-neighbor index over free
// parking spots. An index is built from a snapshot and never mutated; callers
// rebuild from a fresh snapshot when occupancy may have changed.
package spotindex

import (
	"sort"

	"github.com/alfosobral/UniParking/core/model"
)

// Point is a location on the facility plane.
type Point struct {
	X float64
	Y float64
}

// Index is a 2-d kd-tree over free spots. Queries return spot codes ordered
// by Euclidean distance, ties broken by ascending code.
type Index struct {
	root *node
	size int
}

type node struct {
	spot        model.FreeSpot
	axis        int
	left, right *node
}

// Build constructs an index from a snapshot. The input slice is not retained.
func Build(spots []model.FreeSpot) *Index {
	own := make([]model.FreeSpot, len(spots))
	copy(own, spots)
	return &Index{root: build(own, 0), size: len(own)}
}

func build(spots []model.FreeSpot, axis int) *node {
	if len(spots) == 0 {
		return nil
	}
	sort.Slice(spots, func(i, j int) bool {
		a, b := coord(spots[i], axis), coord(spots[j], axis)
		if a != b {
			return a < b
		}
		return spots[i].Code < spots[j].Code
	})
	m := len(spots) / 2
	return &node{
		spot:  spots[m],
		axis:  axis,
		left:  build(spots[:m], 1-axis),
		right: build(spots[m+1:], 1-axis),
	}
}

func coord(s model.FreeSpot, axis int) float64 {
	if axis == 0 {
		return s.X
	}
	return s.Y
}

// Len reports how many spots the index holds.
func (ix *Index) Len() int { return ix.size }

type candidate struct {
	code  string
	dist2 float64
}

// better reports whether a ranks before b: closer first, equal distance
// resolved by ascending spot code.
func better(a, b candidate) bool {
	if a.dist2 != b.dist2 {
		return a.dist2 < b.dist2
	}
	return a.code < b.code
}

// Nearest returns the codes of up to k spots closest to ref.
func (ix *Index) Nearest(ref Point, k int) []string {
	if ix == nil || ix.root == nil || k <= 0 {
		return nil
	}
	best := make([]candidate, 0, k)
	ix.root.search(ref, k, &best)
	codes := make([]string, len(best))
	for i, c := range best {
		codes[i] = c.code
	}
	return codes
}

func (n *node) search(ref Point, k int, best *[]candidate) {
	if n == nil {
		return
	}
	d2 := dist2(ref, n.spot)
	offer(best, k, candidate{code: n.spot.Code, dist2: d2})

	var refAxis, nodeAxis float64
	if n.axis == 0 {
		refAxis, nodeAxis = ref.X, n.spot.X
	} else {
		refAxis, nodeAxis = ref.Y, n.spot.Y
	}
	near, far := n.left, n.right
	if refAxis > nodeAxis {
		near, far = far, near
	}
	near.search(ref, k, best)

	// The far side can only win if the splitting plane is not strictly
	// farther than the current worst candidate. On an exact tie it must
	// still be visited: a tied spot can rank ahead by code.
	plane := refAxis - nodeAxis
	if len(*best) < k || plane*plane <= (*best)[len(*best)-1].dist2 {
		far.search(ref, k, best)
	}
}

// offer inserts c into the sorted best list, keeping at most k entries.
func offer(best *[]candidate, k int, c candidate) {
	b := *best
	if len(b) == k && !better(c, b[len(b)-1]) {
		return
	}
	pos := sort.Search(len(b), func(i int) bool { return better(c, b[i]) })
	if len(b) < k {
		b = append(b, candidate{})
	}
	copy(b[pos+1:], b[pos:])
	b[pos] = c
	*best = b
}

func dist2(p Point, s model.FreeSpot) float64 {
	dx := p.X - s.X
	dy := p.Y - s.Y
	return dx*dx + dy*dy
}
