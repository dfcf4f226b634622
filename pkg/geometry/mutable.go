package geometry

import "math"

// MutableVector2D is an accumulator for a single computation.
// Its operators work in place and return the receiver so calls can be chained.
// It must never be stored in shared state or handed to another goroutine:
// convert it with Freeze before it leaves the function that owns it.
type MutableVector2D struct {
	X, Y float64
}

// Set overwrites both components.
func (m *MutableVector2D) Set(x, y float64) *MutableVector2D {
	m.X, m.Y = x, y
	return m
}

// Add adds other in place.
func (m *MutableVector2D) Add(other Vector2D) *MutableVector2D {
	m.X += other.X
	m.Y += other.Y
	return m
}

// AddMutable adds another scratch vector in place.
func (m *MutableVector2D) AddMutable(other *MutableVector2D) *MutableVector2D {
	m.X += other.X
	m.Y += other.Y
	return m
}

// Sub subtracts other in place.
func (m *MutableVector2D) Sub(other Vector2D) *MutableVector2D {
	m.X -= other.X
	m.Y -= other.Y
	return m
}

// Mul scales in place.
func (m *MutableVector2D) Mul(scalar float64) *MutableVector2D {
	m.X *= scalar
	m.Y *= scalar
	return m
}

// Len calculates the magnitude.
func (m *MutableVector2D) Len() float64 {
	return math.Hypot(m.X, m.Y)
}

// Normalize scales to unit length; near-zero vectors become exactly zero.
func (m *MutableVector2D) Normalize() *MutableVector2D {
	l := m.Len()
	if l < Epsilon {
		m.X, m.Y = 0, 0
		return m
	}
	m.X /= l
	m.Y /= l
	return m
}

// Limit caps the length at max, keeping the heading.
func (m *MutableVector2D) Limit(max float64) *MutableVector2D {
	if m.Len() < max {
		return m
	}
	return m.Normalize().Mul(max)
}

// Freeze returns an immutable copy that is safe to share.
func (m *MutableVector2D) Freeze() Vector2D {
	return Vector2D{X: m.X, Y: m.Y}
}
