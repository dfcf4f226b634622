package kdtree

import (
	"math"
	"runtime"

	"go.uber.org/atomic"
)

type nodeKind uint8

const (
	innerNode nodeKind = iota
	singleValueLeaf
	multiValueLeaf
)

// node is either an inner node (split, left, right, locked)
// or a leaf (x, y, values).
type node[T any] struct {
	kind nodeKind

	split       float64
	left, right atomic.Pointer[node[T]]
	locked      atomic.Bool

	x, y   float64
	values []T
}

func newInnerNode[T any](split float64) *node[T] {
	return &node[T]{kind: innerNode, split: split}
}

func newLeaf[T any](x, y float64, value T) *node[T] {
	return &node[T]{kind: singleValueLeaf, x: x, y: y, values: []T{value}}
}

func (n *node[T]) isLeaf() bool {
	return n.kind != innerNode
}

// lock spins until the node is owned by the caller.
func (n *node[T]) lock() {
	for !n.locked.CompareAndSwap(false, true) {
		runtime.Gosched()
	}
}

func (n *node[T]) unlock() {
	n.locked.Store(false)
}

// axisValue returns the coordinate compared at the given depth:
// x on even depths, y on odd ones.
func axisValue(x, y float64, depth int) float64 {
	if depth%2 == 0 {
		return x
	}
	return y
}

// childSlot returns the slot a point at (x, y) belongs to below n.
func (n *node[T]) childSlot(x, y float64, depth int) *atomic.Pointer[node[T]] {
	if axisValue(x, y, depth) < n.split {
		return &n.left
	}
	return &n.right
}

// withValue returns the leaf that replaces n once value is attached to it.
// Single value leaves are upgraded; multi value leaves grow in place.
// The caller must hold the parent's lock.
func (n *node[T]) withValue(value T) *node[T] {
	if n.kind == multiValueLeaf {
		n.values = append(n.values, value)
		return n
	}
	values := make([]T, 0, 4)
	values = append(values, n.values...)
	values = append(values, value)
	return &node[T]{kind: multiValueLeaf, x: n.x, y: n.y, values: values}
}

// splitLeaves builds an unpublished subtree rooted at depth that holds
// both leaves. Leaves a and b must have different coordinates.
func splitLeaves[T any](a, b *node[T], depth int) *node[T] {
	inner := newInnerNode[T](midpoint(axisValue(a.x, a.y, depth), axisValue(b.x, b.y, depth)))
	inner.place(a, depth)
	inner.place(b, depth)
	return inner
}

// place attaches a leaf to a subtree no other goroutine can see yet.
func (n *node[T]) place(leaf *node[T], depth int) {
	slot := n.childSlot(leaf.x, leaf.y, depth)
	if existing := slot.Load(); existing != nil {
		slot.Store(splitLeaves(existing, leaf, depth+1))
		return
	}
	slot.Store(leaf)
}

// midpoint returns a split value that sends the smaller coordinate left and
// the larger one right, even for adjacent floats.
func midpoint(a, b float64) float64 {
	lo, hi := math.Min(a, b), math.Max(a, b)
	m := lo + (hi-lo)/2
	if m > hi {
		return hi
	}
	if m <= lo && lo != hi {
		return hi
	}
	return m
}
