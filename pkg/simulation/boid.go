package simulation

import (
	"fmt"
	"math/rand/v2"

	"github.com/lao-tseu-is-alive/go-flocking-simulation/pkg/geometry"
)

// Boid represents a single entity in the flock.
// Boids is an artificial life program, developed by Craig Reynolds in 1986,
// which simulates the flocking behaviour of birds. https://en.wikipedia.org/wiki/Boids
//
// A Boid is created once per generation and never modified afterwards, so it
// can be read from any goroutine. Two boids are the same boid only if they are
// the same pointer; equal values are still different boids.
type Boid struct {
	location     geometry.Vector2D
	velocity     geometry.Vector2D
	acceleration geometry.Vector2D
}

// NewBoid creates a boid from its state.
func NewBoid(location, velocity, acceleration geometry.Vector2D) *Boid {
	return &Boid{location: location, velocity: velocity, acceleration: acceleration}
}

// NewRandomBoid creates a boid somewhere inside the domain described by p,
// with velocity components in ±MaxSpeed/2 and acceleration components in
// ±MaxSteeringForce/2.
func NewRandomBoid(p Parameters, rng *rand.Rand) *Boid {
	return &Boid{
		location: geometry.NewVector(rng.Float64()*p.DomainExtent, rng.Float64()*p.DomainExtent),
		velocity: geometry.NewVector(
			(rng.Float64()-0.5)*p.MaxSpeed,
			(rng.Float64()-0.5)*p.MaxSpeed,
		),
		acceleration: geometry.NewVector(
			(rng.Float64()-0.5)*p.MaxSteeringForce,
			(rng.Float64()-0.5)*p.MaxSteeringForce,
		),
	}
}

// Location returns where the boid is.
func (b *Boid) Location() geometry.Vector2D { return b.location }

// Velocity returns the boid's velocity after its last integration.
func (b *Boid) Velocity() geometry.Vector2D { return b.velocity }

// Acceleration returns the steering force applied in the boid's last integration.
func (b *Boid) Acceleration() geometry.Vector2D { return b.acceleration }

// DistanceTo gives the cartesian distance from this Boid to the other
func (b *Boid) DistanceTo(other *Boid) float64 {
	return b.location.DistanceTo(other.location)
}

// IsFinite reports whether every component of the boid's state is finite.
func (b *Boid) IsFinite() bool {
	return b.location.IsFinite() && b.velocity.IsFinite() && b.acceleration.IsFinite()
}

// String describes the boid state for logs and test failures.
func (b *Boid) String() string {
	return fmt.Sprintf("Boid{loc: %s, vel: %s, acc: %s}", b.location, b.velocity, b.acceleration)
}
