package simulation

import (
	"testing"

	"github.com/lao-tseu-is-alive/go-flocking-simulation/pkg/geometry"
)

func TestNeighborAggregator(t *testing.T) {
	me := NewBoid(geometry.NewVector(10, 10), geometry.NewVector(1, 0), geometry.Vector2D{})

	t.Run("without neighbours", func(t *testing.T) {
		agg := NewNeighborAggregator(me, 5)
		agg.Visit(me)

		if n := agg.NeighborCount(); n != 0 {
			t.Errorf("NeighborCount() = %d; want 0 when only self was visited", n)
		}
		if _, ok := agg.AverageLocation(); ok {
			t.Error("AverageLocation() ok = true; want false without neighbours")
		}
		if v := agg.AverageVelocity(); v.Freeze() != (geometry.Vector2D{}) {
			t.Errorf("AverageVelocity() = %s; want zero", v.Freeze())
		}
		if v := agg.AverageSeparationHeading(); v.Freeze() != (geometry.Vector2D{}) {
			t.Errorf("AverageSeparationHeading() = %s; want zero", v.Freeze())
		}
	})

	t.Run("averages", func(t *testing.T) {
		agg := NewNeighborAggregator(me, 5)
		agg.Visit(me)
		agg.Visit(NewBoid(geometry.NewVector(12, 10), geometry.NewVector(2, 0), geometry.Vector2D{}))
		agg.Visit(NewBoid(geometry.NewVector(10, 6), geometry.NewVector(0, 4), geometry.Vector2D{}))
		agg.Visit(NewBoid(geometry.NewVector(30, 30), geometry.NewVector(1, 2), geometry.Vector2D{}))

		if n := agg.NeighborCount(); n != 3 {
			t.Fatalf("NeighborCount() = %d; want 3", n)
		}

		avg, ok := agg.AverageLocation()
		if !ok || !avg.Freeze().Eq(geometry.NewVector(52.0/3, 46.0/3)) {
			t.Errorf("AverageLocation() = %s, %v; want (17.33, 15.33), true", avg.Freeze(), ok)
		}

		vel := agg.AverageVelocity()
		if !vel.Freeze().Eq(geometry.NewVector(1, 2)) {
			t.Errorf("AverageVelocity() = %s; want (1, 2)", vel.Freeze())
		}

		// (-1, 0) away from the first, (0, 1) away from the second; the third is too far.
		sep := agg.AverageSeparationHeading()
		if !sep.Freeze().Eq(geometry.NewVector(-0.5, 0.5)) {
			t.Errorf("AverageSeparationHeading() = %s; want (-0.5, 0.5)", sep.Freeze())
		}
	})

	t.Run("separation radius is inclusive", func(t *testing.T) {
		agg := NewNeighborAggregator(me, 2)
		agg.Visit(NewBoid(geometry.NewVector(12, 10), geometry.Vector2D{}, geometry.Vector2D{}))

		sep := agg.AverageSeparationHeading()
		if !sep.Freeze().Eq(geometry.NewVector(-1, 0)) {
			t.Errorf("AverageSeparationHeading() = %s; want (-1, 0)", sep.Freeze())
		}
	})

	t.Run("co-located neighbour adds no separation", func(t *testing.T) {
		agg := NewNeighborAggregator(me, 5)
		agg.Visit(NewBoid(geometry.NewVector(10, 10), geometry.Vector2D{}, geometry.Vector2D{}))

		if n := agg.NeighborCount(); n != 1 {
			t.Errorf("NeighborCount() = %d; want 1", n)
		}
		if sep := agg.AverageSeparationHeading(); sep.Freeze() != (geometry.Vector2D{}) {
			t.Errorf("AverageSeparationHeading() = %s; want zero", sep.Freeze())
		}
	})
}
