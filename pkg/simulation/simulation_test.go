package simulation

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lao-tseu-is-alive/go-flocking-simulation/pkg/geometry"
)

func randomSimulation(t *testing.T, population int, opts ...Option) *Simulation {
	t.Helper()
	p := DefaultParameters()
	p.PopulationSize = population
	p.DomainExtent = 500
	p.BorderRadius = 50
	rng := rand.New(rand.NewPCG(42, 1024))
	return New(NewRandomWorld(p, rng), append([]Option{WithRand(rng)}, opts...)...)
}

func TestSimulation_AdvancePreservesPopulation(t *testing.T) {
	s := randomSimulation(t, 500, WithWorkers(4))

	for step := range 5 {
		prev := s.World()
		next, err := s.Advance()
		if err != nil {
			t.Fatalf("Advance() step %d error = %v", step, err)
		}
		if next.Population() != prev.Population() {
			t.Fatalf("step %d: population = %d; want %d", step, next.Population(), prev.Population())
		}
		if s.World() != next {
			t.Fatalf("step %d: World() is not the generation Advance returned", step)
		}
		extent := next.Parameters().DomainExtent
		for b := range next.All() {
			if b == nil {
				t.Fatalf("step %d: nil boid in generation", step)
			}
			loc := b.Location()
			if loc.X < 0 || loc.X >= extent || loc.Y < 0 || loc.Y >= extent {
				t.Errorf("step %d: %s is outside [0, %v)", step, b, extent)
			}
			if b.Velocity().Len() > next.Parameters().MaxSpeed+tolerance {
				t.Errorf("step %d: %s is faster than MaxSpeed", step, b)
			}
		}
	}
	if got := s.Generation(); got != 5 {
		t.Errorf("Generation() = %d; want 5", got)
	}
}

func TestSimulation_AdvanceLeavesPreviousGeneration(t *testing.T) {
	s := randomSimulation(t, 200)
	prev := s.World()
	before := make([]Boid, 0, prev.Population())
	for b := range prev.All() {
		before = append(before, *b)
	}

	if _, err := s.Advance(); err != nil {
		t.Fatalf("Advance() error = %v", err)
	}

	for i, b := range before {
		if *prev.At(i) != b {
			t.Errorf("boid %d of the previous generation changed: %s; want %s", i, prev.At(i), &b)
		}
	}
}

func TestSimulation_ToroidalWrap(t *testing.T) {
	p := quietParameters()
	p.PopulationSize = 1
	w := worldOf(p, NewBoid(geometry.NewVector(p.DomainExtent-0.5, 300), geometry.NewVector(1, 0), geometry.Vector2D{}))

	next, err := New(w).Advance()
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}

	if got := next.At(0).Location(); !got.Eq(geometry.NewVector(0.5, 300)) {
		t.Errorf("location = %s; want (0.5, 300)", got)
	}
}

func TestSimulation_DeterministicAcrossWorkerCounts(t *testing.T) {
	p := DefaultParameters()
	p.PopulationSize = 2000
	p.DomainExtent = 800
	initial := NewRandomWorld(p, rand.New(rand.NewPCG(7, 7)))

	sequential, err := New(initial, WithWorkers(1), WithSliceCount(1)).Advance()
	if err != nil {
		t.Fatalf("sequential Advance() error = %v", err)
	}
	parallel, err := New(initial, WithWorkers(8), WithSliceCount(97)).Advance()
	if err != nil {
		t.Fatalf("parallel Advance() error = %v", err)
	}

	for i := range sequential.Population() {
		a, b := sequential.At(i), parallel.At(i)
		if a.Location() != b.Location() || a.Velocity() != b.Velocity() || a.Acceleration() != b.Acceleration() {
			t.Fatalf("boid %d differs: sequential %s, parallel %s", i, a, b)
		}
	}
}

func TestSimulation_TwoBoidsSeparate(t *testing.T) {
	p := quietParameters()
	p.NeighbourRadius = 10
	p.SeparationRadius = 1
	p.SeparationWeight = 1
	left, right := boidAt(0, 0), boidAt(1, 0)

	next, err := New(worldOf(p, left, right)).Advance()
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}

	if vx := next.At(0).Velocity().X; vx >= 0 {
		t.Errorf("left boid velocity x = %f; want < 0", vx)
	}
	if vx := next.At(1).Velocity().X; vx <= 0 {
		t.Errorf("right boid velocity x = %f; want > 0", vx)
	}
}

func TestSimulation_EmptyWorld(t *testing.T) {
	p := quietParameters()
	p.PopulationSize = 0

	next, err := New(NewWorld(p)).Advance()
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if next.Population() != 0 {
		t.Errorf("Population() = %d; want 0", next.Population())
	}
}

func TestSimulation_AdvanceFailures(t *testing.T) {
	t.Run("non finite boid", func(t *testing.T) {
		p := quietParameters()
		p.PopulationSize = 2
		w := worldOf(p, boidAt(10, 10), NewBoid(geometry.NewVector(500, 500), geometry.NewVector(math.Inf(1), 0), geometry.Vector2D{}))
		s := New(w)

		if _, err := s.Advance(); !errors.Is(err, ErrNonFiniteBoid) {
			t.Errorf("Advance() error = %v; want ErrNonFiniteBoid", err)
		}
		if s.World() != w || s.Generation() != 0 {
			t.Errorf("a failed Advance() published generation %d", s.Generation())
		}
	})

	t.Run("worker panic", func(t *testing.T) {
		s := randomSimulation(t, 100)
		initial := s.World()
		s.step = func(*Boid, *World, Parameters) (*Boid, error) {
			panic("boom")
		}

		if _, err := s.Advance(); !errors.Is(err, ErrWorkerPanic) {
			t.Errorf("Advance() error = %v; want ErrWorkerPanic", err)
		}
		if s.World() != initial || s.Generation() != 0 {
			t.Errorf("a failed Advance() published generation %d", s.Generation())
		}
	})
}

func TestSimulation_SetSimulationParameters(t *testing.T) {
	t.Run("shrink keeps the first boids", func(t *testing.T) {
		s := randomSimulation(t, 100)
		before := s.World()
		p := s.Parameters()
		p.PopulationSize = 40

		if err := s.SetSimulationParameters(p); err != nil {
			t.Fatalf("SetSimulationParameters() error = %v", err)
		}

		after := s.World()
		if after.Population() != 40 {
			t.Fatalf("Population() = %d; want 40", after.Population())
		}
		for i := range 40 {
			if after.At(i) != before.At(i) {
				t.Errorf("boid %d was not kept", i)
			}
		}
		if before.Population() != 100 {
			t.Errorf("the previous world was modified: population %d; want 100", before.Population())
		}
	})

	t.Run("grow pads with random boids", func(t *testing.T) {
		s := randomSimulation(t, 10)
		before := s.World()
		p := s.Parameters()
		p.PopulationSize = 25

		if err := s.SetSimulationParameters(p); err != nil {
			t.Fatalf("SetSimulationParameters() error = %v", err)
		}

		after := s.World()
		if after.Population() != 25 {
			t.Fatalf("Population() = %d; want 25", after.Population())
		}
		for i := range 10 {
			if after.At(i) != before.At(i) {
				t.Errorf("boid %d was not kept", i)
			}
		}
		if next, err := s.Advance(); err != nil || next.Population() != 25 {
			t.Errorf("Advance() after growing = %v, %v; want 25 boids", next, err)
		}
	})

	t.Run("same size keeps the world", func(t *testing.T) {
		s := randomSimulation(t, 10)
		before := s.World()
		p := s.Parameters()
		p.MaxSpeed = 3

		if err := s.SetSimulationParameters(p); err != nil {
			t.Fatalf("SetSimulationParameters() error = %v", err)
		}
		if s.World() != before {
			t.Error("World() changed although the population size did not")
		}
		if got := s.Parameters().MaxSpeed; got != 3 {
			t.Errorf("Parameters().MaxSpeed = %v; want 3", got)
		}
	})

	t.Run("invalid parameters are rejected", func(t *testing.T) {
		s := randomSimulation(t, 10)
		before := s.Parameters()
		p := before
		p.DomainExtent = -1

		if err := s.SetSimulationParameters(p); !errors.Is(err, ErrInvalidParameters) {
			t.Errorf("SetSimulationParameters() error = %v; want ErrInvalidParameters", err)
		}
		if s.Parameters() != before {
			t.Error("Parameters() changed after a rejected update")
		}
	})
}

func TestSimulation_Logging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := randomSimulation(t, 50, WithLogger(zap.New(core)))

	if n := logs.FilterMessage("simulation ready").Len(); n != 1 {
		t.Errorf("%d 'simulation ready' entries; want 1", n)
	}

	for range 2 * statsInterval {
		if _, err := s.Advance(); err != nil {
			t.Fatalf("Advance() error = %v", err)
		}
	}
	depth := logs.FilterMessage("index depth").All()
	if len(depth) != 2 {
		t.Fatalf("%d 'index depth' entries after %d generations; want 2", len(depth), 2*statsInterval)
	}
	if got := depth[0].ContextMap()["values"]; got != int64(50) {
		t.Errorf("logged values = %v; want 50", got)
	}

	p := s.Parameters()
	p.PopulationSize = 60
	if err := s.SetSimulationParameters(p); err != nil {
		t.Fatalf("SetSimulationParameters() error = %v", err)
	}
	if n := logs.FilterMessage("Changing simulation size").Len(); n != 1 {
		t.Errorf("%d 'Changing simulation size' entries; want 1", n)
	}
}

func TestPartition(t *testing.T) {
	tests := []struct {
		name     string
		n, count int
		want     []span
	}{
		{"even", 8, 4, []span{{0, 2}, {2, 4}, {4, 6}, {6, 8}}},
		{"balanced", 10, 4, []span{{0, 2}, {2, 5}, {5, 7}, {7, 10}}},
		{"more slices than boids", 3, 8, []span{{0, 1}, {1, 2}, {2, 3}}},
		{"nothing to do", 0, 8, []span{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := partition(tt.n, tt.count)
			if len(got) != len(tt.want) {
				t.Fatalf("partition(%d, %d) = %v; want %v", tt.n, tt.count, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("partition(%d, %d)[%d] = %v; want %v", tt.n, tt.count, i, got[i], tt.want[i])
				}
			}
		})
	}
}
