package kdtree

import (
	"cmp"
	"container/heap"
	"math"
	"slices"
)

// Match is one value returned by an approximate neighbour query.
type Match[T any] struct {
	X, Y            float64
	DistanceSquared float64
	Value           T
}

// FindApproxNearest returns at most maxCount values stored strictly within
// radius of (x, y), closest first. See the package documentation for how the
// result may differ from an exact k-nearest neighbour search.
func (t *Tree[T]) FindApproxNearest(x, y, radius float64, maxCount int) []Match[T] {
	var matches []Match[T]
	t.search(x, y, radius, maxCount, func(leaf *node[T], distSq float64, value T) {
		matches = append(matches, Match[T]{X: leaf.x, Y: leaf.y, DistanceSquared: distSq, Value: value})
	})
	return matches
}

// VisitApproxNearest calls visit once per value FindApproxNearest would return,
// in the same order, without building a result slice. It returns the number of
// values visited.
func (t *Tree[T]) VisitApproxNearest(x, y, radius float64, maxCount int, visit func(T)) int {
	visited := 0
	t.search(x, y, radius, maxCount, func(_ *node[T], _ float64, value T) {
		visit(value)
		visited++
	})
	return visited
}

func (t *Tree[T]) search(x, y, radius float64, maxCount int, emit func(*node[T], float64, T)) {
	root := t.root.Load()
	if root == nil || maxCount <= 0 || !(radius > 0) {
		return
	}
	c := &collector[T]{
		x:        x,
		y:        y,
		radius:   radius,
		radiusSq: radius * radius,
		capacity: maxCount,
		best:     make(candidateHeap[T], 0, min(maxCount, 16)),
	}
	c.descend(root, 0)
	c.emit(emit)
}

type candidate[T any] struct {
	leaf   *node[T]
	distSq float64
}

// candidateHeap is a max-heap on squared distance: the worst kept candidate
// sits at index 0.
type candidateHeap[T any] []candidate[T]

func (h candidateHeap[T]) Len() int           { return len(h) }
func (h candidateHeap[T]) Less(i, j int) bool { return h[i].distSq > h[j].distSq }
func (h candidateHeap[T]) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *candidateHeap[T]) Push(x any) { *h = append(*h, x.(candidate[T])) }

func (h *candidateHeap[T]) Pop() any {
	old := *h
	last := old[len(old)-1]
	*h = old[:len(old)-1]
	return last
}

// collector keeps the best leaves found so far, bounded by capacity.
type collector[T any] struct {
	x, y     float64
	radius   float64
	radiusSq float64
	capacity int
	best     candidateHeap[T]
}

func (c *collector[T]) full() bool {
	return len(c.best) >= c.capacity
}

func (c *collector[T]) offer(leaf *node[T]) {
	dx := c.x - leaf.x
	dy := c.y - leaf.y
	distSq := dx*dx + dy*dy
	// radius*radius can underflow to 0 for a tiny positive radius;
	// a leaf exactly at the query point is always within it.
	if distSq >= c.radiusSq && distSq != 0 {
		return
	}
	if !c.full() {
		heap.Push(&c.best, candidate[T]{leaf: leaf, distSq: distSq})
		return
	}
	if distSq < c.best[0].distSq {
		c.best[0] = candidate[T]{leaf: leaf, distSq: distSq}
		heap.Fix(&c.best, 0)
	}
}

// descend visits the query point's side of n first, then the other side only
// while the collector still has room and the split plane is within radius.
func (c *collector[T]) descend(n *node[T], depth int) {
	q := axisValue(c.x, c.y, depth)
	primary, secondary := &n.left, &n.right
	if q >= n.split {
		primary, secondary = secondary, primary
	}

	c.visit(primary.Load(), depth+1)
	if !c.full() && math.Abs(q-n.split) <= c.radius {
		c.visit(secondary.Load(), depth+1)
	}
}

func (c *collector[T]) visit(n *node[T], depth int) {
	switch {
	case n == nil:
	case n.isLeaf():
		c.offer(n)
	default:
		c.descend(n, depth)
	}
}

// emit hands out the collected values closest first, never more than capacity.
func (c *collector[T]) emit(fn func(*node[T], float64, T)) {
	sorted := []candidate[T](c.best)
	slices.SortStableFunc(sorted, func(a, b candidate[T]) int {
		return cmp.Compare(a.distSq, b.distSq)
	})

	remaining := c.capacity
	for _, cand := range sorted {
		for _, v := range cand.leaf.values {
			if remaining == 0 {
				return
			}
			fn(cand.leaf, cand.distSq, v)
			remaining--
		}
	}
}
