package kdtree

import (
	"go.uber.org/atomic"
)

// Tree is a point indexed kd-tree holding values of type T.
// The zero value is an empty tree ready to use.
type Tree[T any] struct {
	root  atomic.Pointer[node[T]]
	count atomic.Int64
}

// New returns an empty tree.
func New[T any]() *Tree[T] {
	return &Tree[T]{}
}

// Len returns the number of values inserted so far.
func (t *Tree[T]) Len() int {
	return int(t.count.Load())
}

// Insert adds value at (x, y). It is safe for concurrent use.
//
// Inner nodes are never replaced once published, so descending through them
// needs no lock. A slot that is empty or holds a leaf is only changed while
// holding the lock of the node that owns it, and is re-read after the lock is
// taken.
func (t *Tree[T]) Insert(x, y float64, value T) {
	leaf := newLeaf(x, y, value)
	n := t.rootFor(x)
	for depth := 0; ; depth++ {
		slot := n.childSlot(x, y, depth)
		if c := slot.Load(); c != nil && !c.isLeaf() {
			n = c
			continue
		}

		n.lock()
		c := slot.Load()
		switch {
		case c == nil:
			slot.Store(leaf)
		case !c.isLeaf():
			// another goroutine split this slot while we were waiting
			n.unlock()
			n = c
			continue
		case c.x == x && c.y == y:
			slot.Store(c.withValue(value))
		default:
			slot.Store(splitLeaves(c, leaf, depth+1))
		}
		n.unlock()
		t.count.Inc()
		return
	}
}

// rootFor returns the root, creating it on first use as an x-axis split
// at the first point's own x coordinate.
func (t *Tree[T]) rootFor(x float64) *node[T] {
	if r := t.root.Load(); r != nil {
		return r
	}
	t.root.CompareAndSwap(nil, newInnerNode[T](x))
	return t.root.Load()
}

// DepthDistribution returns, for every depth that holds leaves, the number of
// values stored at that depth. The root is at depth 0.
// It must not run concurrently with Insert.
func (t *Tree[T]) DepthDistribution() map[int]int {
	dist := make(map[int]int)
	root := t.root.Load()
	if root == nil {
		return dist
	}
	var walk func(n *node[T], depth int)
	walk = func(n *node[T], depth int) {
		if n == nil {
			return
		}
		if n.isLeaf() {
			dist[depth] += len(n.values)
			return
		}
		walk(n.left.Load(), depth+1)
		walk(n.right.Load(), depth+1)
	}
	walk(root, 0)
	return dist
}

// Stats summarizes the leaf depth distribution of a tree.
type Stats struct {
	MinDepth int
	MaxDepth int
	AvgDepth float64
	Values   int
}

// Stats computes depth statistics weighted by the number of values per leaf.
func (t *Tree[T]) Stats() Stats {
	var s Stats
	depthSum := 0
	first := true
	for depth, values := range t.DepthDistribution() {
		if first || depth < s.MinDepth {
			s.MinDepth = depth
		}
		if first || depth > s.MaxDepth {
			s.MaxDepth = depth
		}
		first = false
		depthSum += depth * values
		s.Values += values
	}
	if s.Values > 0 {
		s.AvgDepth = float64(depthSum) / float64(s.Values)
	}
	return s
}
