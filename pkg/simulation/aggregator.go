package simulation

import "github.com/lao-tseu-is-alive/go-flocking-simulation/pkg/geometry"

// NeighborAggregator accumulates what one boid perceives of its neighbourhood.
// It is used by a single goroutine for a single boid and then dropped.
type NeighborAggregator struct {
	boid             *Boid
	separationRadius float64

	locationSum   geometry.MutableVector2D
	velocitySum   geometry.MutableVector2D
	separationSum geometry.MutableVector2D

	neighbours           int
	separationNeighbours int
}

// NewNeighborAggregator returns an aggregator for b.
func NewNeighborAggregator(b *Boid, separationRadius float64) *NeighborAggregator {
	return &NeighborAggregator{boid: b, separationRadius: separationRadius}
}

// Visit adds other to the aggregate. The aggregated boid itself is ignored.
// A neighbour counts for separation when its distance d satisfies
// 0 < d <= separationRadius: the radius itself is included, so two boids
// exactly one separation radius apart still push each other away.
func (a *NeighborAggregator) Visit(other *Boid) {
	if other == a.boid {
		return
	}
	a.neighbours++
	a.locationSum.Add(other.location)
	a.velocitySum.Add(other.velocity)

	d := other.location.DistanceTo(a.boid.location)
	if d > 0 && d <= a.separationRadius {
		away := a.boid.location.Sub(other.location).Normalize()
		a.separationSum.Add(away)
		a.separationNeighbours++
	}
}

// NeighborCount returns the number of boids visited, self excluded.
func (a *NeighborAggregator) NeighborCount() int {
	return a.neighbours
}

// AverageLocation is the cohesion target. ok is false without neighbours.
func (a *NeighborAggregator) AverageLocation() (avg geometry.MutableVector2D, ok bool) {
	if a.neighbours == 0 {
		return avg, false
	}
	avg = a.locationSum
	avg.Mul(1 / float64(a.neighbours))
	return avg, true
}

// AverageVelocity is the alignment vector, zero without neighbours.
func (a *NeighborAggregator) AverageVelocity() geometry.MutableVector2D {
	var avg geometry.MutableVector2D
	if a.neighbours == 0 {
		return avg
	}
	avg = a.velocitySum
	avg.Mul(1 / float64(a.neighbours))
	return avg
}

// AverageSeparationHeading is the mean of the unit vectors pointing away from
// every neighbour within the separation radius, zero if there is none.
func (a *NeighborAggregator) AverageSeparationHeading() geometry.MutableVector2D {
	var avg geometry.MutableVector2D
	if a.separationNeighbours == 0 {
		return avg
	}
	avg = a.separationSum
	avg.Mul(1 / float64(a.separationNeighbours))
	return avg
}
