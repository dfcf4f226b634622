package main

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/lao-tseu-is-alive/go-flocking-simulation/internal/render"
	"github.com/lao-tseu-is-alive/go-flocking-simulation/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-flocking-simulation/pkg/snapshot"
)

const windowSize = 900

func main() {
	configFile := flag.String("config", "", "parameters file (.json or .toml); defaults are used when empty")
	headless := flag.Bool("headless", false, "run without a window")
	steps := flag.Int("steps", 100, "generations to compute in headless mode")
	framesFile := flag.String("frames", "", "headless mode: write every generation as a snapshot frame to this file")
	jsonLogs := flag.Bool("json", false, "log in JSON")
	debug := flag.Bool("debug", false, "log at debug level")
	workers := flag.Int("workers", 0, "concurrent workers per generation (0 = number of CPUs)")
	seed := flag.Uint64("seed", 0, "random seed for the initial flock (0 = random)")
	flag.Parse()

	logger, err := newLogger(*jsonLogs, *debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(logger, *configFile, *headless, *steps, *framesFile, *workers, *seed); err != nil {
		logger.Fatal("flocking failed", zap.Error(err))
	}
}

func newLogger(jsonLogs, debug bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if jsonLogs {
		cfg = zap.NewProductionConfig()
	}
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func run(logger *zap.Logger, configFile string, headless bool, steps int, framesFile string, workers int, seed uint64) error {
	params := simulation.DefaultParameters()
	if configFile != "" {
		var err error
		if params, err = simulation.LoadParameters(configFile); err != nil {
			return err
		}
		logger.Info("parameters loaded", zap.String("file", configFile))
	}

	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed))
	logger.Info("creating flock", zap.Int("boids", params.PopulationSize), zap.Uint64("seed", seed))
	sim := simulation.New(simulation.NewRandomWorld(params, rng),
		simulation.WithLogger(logger),
		simulation.WithWorkers(workers),
		simulation.WithRand(rng))

	if headless {
		return runHeadless(logger, sim, steps, framesFile)
	}

	ebiten.SetWindowSize(windowSize, windowSize)
	ebiten.SetWindowTitle("Flocking")
	return ebiten.RunGame(render.NewGame(sim, windowSize, logger))
}

func runHeadless(logger *zap.Logger, sim *simulation.Simulation, steps int, framesFile string) (err error) {
	var frames *snapshot.Writer
	if framesFile != "" {
		f, createErr := os.Create(framesFile)
		if createErr != nil {
			return fmt.Errorf("failed to create frames file: %w", createErr)
		}
		w := bufio.NewWriter(f)
		defer func() {
			if ferr := w.Flush(); ferr != nil && err == nil {
				err = fmt.Errorf("failed to flush frames: %w", ferr)
			}
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("failed to close frames file: %w", cerr)
			}
		}()
		frames = snapshot.NewWriter(w)
		if err = frames.WriteWorld(sim.Generation(), sim.World()); err != nil {
			return err
		}
	}

	start := time.Now()
	for range steps {
		world, err := sim.Advance()
		if err != nil {
			return err
		}
		if frames != nil {
			if err := frames.WriteWorld(sim.Generation(), world); err != nil {
				return err
			}
		}
	}
	elapsed := time.Since(start)
	logger.Info("headless run finished",
		zap.Int("generations", steps),
		zap.Duration("elapsed", elapsed),
		zap.Duration("perGeneration", elapsed/time.Duration(max(steps, 1))))
	return nil
}
