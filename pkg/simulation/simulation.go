package simulation

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrWorkerPanic is wrapped when computing a slice of the population panicked.
var ErrWorkerPanic = errors.New("simulation worker panicked")

const (
	// workUnitsPerWorker is how many slices each worker gets per generation.
	workUnitsPerWorker = 32
	// statsInterval is how often, in generations, index statistics are logged.
	statsInterval = 30
)

// Simulation owns the current World and the current Parameters and advances
// them one generation at a time. All methods are safe for concurrent use.
type Simulation struct {
	mu         sync.Mutex
	world      *World
	params     Parameters
	generation uint64

	workers    int
	sliceCount int
	rng        *rand.Rand
	logger     *zap.Logger

	// step computes one boid of the next generation.
	step func(b *Boid, world *World, p Parameters) (*Boid, error)
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithWorkers sets how many slices are computed at the same time.
// It defaults to runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(s *Simulation) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithSliceCount sets how many slices the population is cut into each
// generation. It defaults to runtime.NumCPU() * 32, whatever the population.
func WithSliceCount(n int) Option {
	return func(s *Simulation) {
		if n > 0 {
			s.sliceCount = n
		}
	}
}

// WithLogger sets the logger. Nothing is logged by default.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Simulation) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRand sets the random source used to create boids when the population grows.
func WithRand(rng *rand.Rand) Option {
	return func(s *Simulation) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// New returns a simulation starting from initial, using its parameters.
func New(initial *World, opts ...Option) *Simulation {
	s := &Simulation{
		world:      initial,
		params:     initial.Parameters(),
		workers:    runtime.NumCPU(),
		sliceCount: runtime.NumCPU() * workUnitsPerWorker,
		rng:        rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		logger:     zap.NewNop(),
		step:       nextBoid,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger.Info("simulation ready",
		zap.Int("workers", s.workers),
		zap.Int("slices", s.sliceCount),
		zap.Int("population", initial.Population()))
	return s
}

// Advance computes the next generation from the current one, publishes it as
// the current World and returns it. The returned World is never modified
// afterwards.
//
// Every boid of the new generation only depends on the previous World, which
// is read-only for the whole step. If computing any boid fails, the whole
// generation is dropped: the error is returned and the current World stays
// what it was.
//
// At most the configured number of workers run at once; their goroutines are
// started for each generation rather than kept alive between calls.
func (s *Simulation) Advance() (*World, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	current, params := s.world, s.params
	next := newGeneration(params, current.Population())

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(s.workers)
	for _, sl := range partition(current.Population(), s.sliceCount) {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: slice [%d, %d): %v", ErrWorkerPanic, sl.start, sl.end, r)
				}
			}()
			for i := sl.start; i < sl.end; i++ {
				if ctx.Err() != nil {
					return nil
				}
				b, err := s.step(current.boids[i], current, params)
				if err != nil {
					return fmt.Errorf("boid %d: %w", i, err)
				}
				next.set(i, b)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("generation aborted", zap.Uint64("generation", s.generation+1), zap.Error(err))
		return nil, fmt.Errorf("generation %d aborted: %w", s.generation+1, err)
	}

	s.world = next
	s.generation++
	if s.generation%statsInterval == 0 {
		stats := next.IndexStats()
		s.logger.Debug("index depth",
			zap.Uint64("generation", s.generation),
			zap.Int("minDepth", stats.MinDepth),
			zap.Int("maxDepth", stats.MaxDepth),
			zap.Float64("avgDepth", stats.AvgDepth),
			zap.Int("values", stats.Values),
			zap.Duration("step", time.Since(start)))
	}
	return next, nil
}

// SetSimulationParameters replaces the parameters used from the next call to
// Advance on. The current World is never modified: when the population size
// changes, a new World is built that keeps the first boids in their current
// order, padded with random boids when growing.
func (s *Simulation) SetSimulationParameters(p Parameters) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	population := s.world.Population()
	if p.PopulationSize != population {
		s.logger.Info("Changing simulation size",
			zap.Int("from", population),
			zap.Int("to", p.PopulationSize))

		world := NewWorld(p)
		for _, b := range s.world.boids[:min(population, p.PopulationSize)] {
			world.Add(b)
		}
		for i := population; i < p.PopulationSize; i++ {
			world.Add(NewRandomBoid(p, s.rng))
		}
		s.world = world
	}
	s.params = p
	return nil
}

// Parameters returns the parameters the next generation will be computed with.
func (s *Simulation) Parameters() Parameters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// World returns the current World.
func (s *Simulation) World() *World {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.world
}

// Generation returns how many generations have been computed.
func (s *Simulation) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

type span struct {
	start, end int
}

// partition cuts [0, n) into count contiguous spans whose sizes differ by at
// most one. Empty spans are left out.
func partition(n, count int) []span {
	spans := make([]span, 0, count)
	for i := 0; i < count; i++ {
		start, end := i*n/count, (i+1)*n/count
		if start < end {
			spans = append(spans, span{start: start, end: end})
		}
	}
	return spans
}
