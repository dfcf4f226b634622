package simulation

import (
	"errors"
	"fmt"

	"github.com/lao-tseu-is-alive/go-flocking-simulation/pkg/geometry"
)

// ErrNonFiniteBoid is returned when integrating a boid produced NaN or infinite state.
var ErrNonFiniteBoid = errors.New("boid state is not finite")

// easingDistance is the distance to the cohesion target below which the
// desired speed shrinks linearly.
const easingDistance = 100.0

// Flock computes the steering force acting on b from its neighbourhood in world.
func Flock(b *Boid, world *World, p Parameters) geometry.Vector2D {
	agg := NewNeighborAggregator(b, p.SeparationRadius)
	world.VisitNeighbors(b.location.X, b.location.Y, p.NeighbourRadius, agg.Visit)
	return Steer(b, agg, p)
}

// Steer combines cohesion, alignment, separation and border avoidance.
// The three flocking vectors are normalized before weighting, so the weights
// alone decide their relative influence.
func Steer(b *Boid, agg *NeighborAggregator, p Parameters) geometry.Vector2D {
	var force geometry.MutableVector2D

	if target, ok := agg.AverageLocation(); ok {
		cohesion := SteerTo(b, target.Freeze(), p)
		force.AddMutable(cohesion.Normalize().Mul(p.CohesionWeight))
	}

	alignment := agg.AverageVelocity()
	force.AddMutable(alignment.Normalize().Mul(p.AlignmentWeight))

	separation := agg.AverageSeparationHeading()
	force.AddMutable(separation.Normalize().Mul(p.SeparationWeight))

	force.Add(BorderForce(b.location, p).Mul(p.BorderForceWeight))

	return force.Freeze()
}

// SteerTo returns the steering force that turns b towards target.
// The desired speed is MaxSpeed, scaled down by distance/100 when closer than
// 100 units, and the result is capped at MaxSteeringForce.
func SteerTo(b *Boid, target geometry.Vector2D, p Parameters) geometry.MutableVector2D {
	desired := target.Mutable()
	desired.Sub(b.location)
	distance := desired.Len()
	if distance <= 0 {
		return geometry.MutableVector2D{}
	}

	desired.Normalize()
	if distance < easingDistance {
		desired.Mul(p.MaxSpeed * (distance / easingDistance))
	} else {
		desired.Mul(p.MaxSpeed)
	}
	desired.Sub(b.velocity).Limit(p.MaxSteeringForce)
	return desired
}

// BorderForce pushes boids back towards the interior when they are within
// BorderRadius of an edge. Each axis and each edge is handled on its own; the
// magnitude grows with the square of the penetration fraction.
func BorderForce(location geometry.Vector2D, p Parameters) geometry.Vector2D {
	return geometry.Vector2D{
		X: borderComponent(location.X, p),
		Y: borderComponent(location.Y, p),
	}
}

func borderComponent(c float64, p Parameters) float64 {
	if p.BorderRadius <= 0 {
		return 0
	}
	force := 0.0
	if c < p.BorderRadius {
		delta := (p.BorderRadius - c) / p.BorderRadius
		force += delta * delta
	}
	if far := p.DomainExtent - p.BorderRadius; c > far {
		delta := (c - far) / p.BorderRadius
		force -= delta * delta
	}
	return force
}

// Integrate applies force to b and returns its successor:
// velocity is capped at MaxSpeed and location wraps around the domain.
func Integrate(b *Boid, force geometry.Vector2D, p Parameters) *Boid {
	velocity := b.velocity.Add(force).Limit(p.MaxSpeed)
	location := b.location.Add(velocity).Wrap(p.DomainExtent)
	return NewBoid(location, velocity, force)
}

// nextBoid computes the successor of b from the previous generation.
func nextBoid(b *Boid, world *World, p Parameters) (*Boid, error) {
	next := Integrate(b, Flock(b, world, p), p)
	if !next.IsFinite() {
		return nil, fmt.Errorf("%w: %s", ErrNonFiniteBoid, next)
	}
	return next, nil
}
