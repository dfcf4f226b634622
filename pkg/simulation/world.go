package simulation

import (
	"iter"
	"math/rand/v2"
	"sync"

	"github.com/lao-tseu-is-alive/go-flocking-simulation/pkg/kdtree"
)

// NeighborSampleSize caps the number of boids a neighbour query returns.
// Flocking only needs a local sample, so per-boid cost stays independent of
// how crowded the neighbourhood is.
const NeighborSampleSize = 10

// World is one generation of the simulation: the boids in insertion order,
// the spatial index built from them and the parameters used to build it.
//
// Add is safe for concurrent use while a World is being built. Once a World
// has been returned by Simulation.Advance it is never modified again and
// every read method can be used from any goroutine.
type World struct {
	params Parameters

	mu    sync.Mutex
	boids []*Boid
	index *kdtree.Tree[*Boid]
}

// NewWorld returns an empty world.
func NewWorld(params Parameters) *World {
	return &World{
		params: params,
		boids:  make([]*Boid, 0, max(params.PopulationSize, 0)),
		index:  kdtree.New[*Boid](),
	}
}

// NewRandomWorld returns a world populated with params.PopulationSize random boids.
func NewRandomWorld(params Parameters, rng *rand.Rand) *World {
	w := NewWorld(params)
	for i := 0; i < params.PopulationSize; i++ {
		w.Add(NewRandomBoid(params, rng))
	}
	return w
}

// newGeneration returns a world whose boid list already has size slots,
// filled by set. It is how the stepper keeps a generation in the same
// order as the previous one.
func newGeneration(params Parameters, size int) *World {
	return &World{
		params: params,
		boids:  make([]*Boid, size),
		index:  kdtree.New[*Boid](),
	}
}

// set stores b at slot i. Concurrent calls must use distinct slots.
func (w *World) set(i int, b *Boid) {
	w.boids[i] = b
	w.index.Insert(b.location.X, b.location.Y, b)
}

// Add appends b to the world and indexes it at its location.
func (w *World) Add(b *Boid) {
	w.mu.Lock()
	w.boids = append(w.boids, b)
	w.mu.Unlock()

	w.index.Insert(b.location.X, b.location.Y, b)
}

// Parameters returns the parameters this world was built with.
func (w *World) Parameters() Parameters {
	return w.params
}

// Population returns the number of boids in the world.
func (w *World) Population() int {
	return len(w.boids)
}

// At returns the i-th boid in insertion order.
func (w *World) At(i int) *Boid {
	return w.boids[i]
}

// VisitAll calls visit for every boid, in insertion order.
func (w *World) VisitAll(visit func(*Boid)) {
	for _, b := range w.boids {
		visit(b)
	}
}

// All iterates over every boid, in insertion order.
func (w *World) All() iter.Seq[*Boid] {
	return func(yield func(*Boid) bool) {
		for _, b := range w.boids {
			if !yield(b) {
				return
			}
		}
	}
}

// VisitNeighbors calls visit for up to NeighborSampleSize boids strictly
// within radius of (x, y), closest first. The sample is approximate and may
// include a boid located exactly at (x, y). It returns the number of boids visited.
func (w *World) VisitNeighbors(x, y, radius float64, visit func(*Boid)) int {
	return w.index.VisitApproxNearest(x, y, radius, NeighborSampleSize, visit)
}

// IndexStats describes the shape of the world's spatial index.
func (w *World) IndexStats() kdtree.Stats {
	return w.index.Stats()
}
