// Package render shows a running simulation in an ebiten window.
// It only reads published worlds and hands new parameters to the simulation;
// it never touches simulation state directly.
package render

import (
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	"github.com/lao-tseu-is-alive/go-flocking-simulation/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-flocking-simulation/pkg/simulation"
)

const (
	// populationStep is how much the arrow keys change the population.
	populationStep = 1000
	// maxBoidsPerBatch keeps vertex indices within uint16.
	maxBoidsPerBatch = math.MaxUint16 / 3
)

var background = color.RGBA{R: 10, G: 10, B: 30, A: 255}

// Game implements ebiten.Game on top of a Simulation: every Update advances
// one generation and every Draw renders the latest published one.
type Game struct {
	sim    *simulation.Simulation
	logger *zap.Logger
	size   int

	panel     *Panel
	sliders   []boundSlider
	vsync     *Checkbox
	showPanel bool
	paused    bool

	lastStep time.Duration
	arrow    *ebiten.Image
	vertices []ebiten.Vertex
	indices  []uint16
}

// NewGame returns a game drawing sim in a square window of size pixels.
func NewGame(sim *simulation.Simulation, size int, logger *zap.Logger) *Game {
	arrow := ebiten.NewImage(3, 3)
	arrow.Fill(color.RGBA{R: 100, G: 200, B: 255, A: 255})

	panel := NewPanel(10, 10, 220, "Parameters (Tab hides)")
	g := &Game{
		sim:       sim,
		logger:    logger,
		size:      size,
		panel:     panel,
		sliders:   bindControls(panel, sim.Parameters()),
		vsync:     panel.AddCheckbox("VSync (V)", ebiten.IsVsyncEnabled()),
		showPanel: true,
		arrow:     arrow,
	}
	return g
}

func (g *Game) Update() error {
	changed := g.handleKeys()
	if g.showPanel && g.panel.Update() {
		changed = true
	}
	if changed {
		g.applyControls()
	}

	if g.paused {
		return nil
	}
	start := time.Now()
	if _, err := g.sim.Advance(); err != nil {
		return fmt.Errorf("simulation stopped: %w", err)
	}
	g.lastStep = time.Since(start)
	ebiten.SetWindowTitle(fmt.Sprintf("Flocking - %.0f FPS - step %s", ebiten.ActualFPS(), g.lastStep.Round(time.Microsecond)))
	return nil
}

// handleKeys reports whether a key changed a control.
func (g *Game) handleKeys() bool {
	changed := false
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.showPanel = !g.showPanel
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyV) {
		g.vsync.Value = !g.vsync.Value
		changed = true
	}
	population := g.sliders[0].slider
	if inpututil.IsKeyJustPressed(ebiten.KeyUp) {
		population.Value = clamp(population.Value+populationStep, population.Min, population.Max)
		changed = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyDown) {
		population.Value = clamp(population.Value-populationStep, population.Min, population.Max)
		changed = true
	}
	return changed
}

func (g *Game) applyControls() {
	if ebiten.IsVsyncEnabled() != g.vsync.Value {
		ebiten.SetVsyncEnabled(g.vsync.Value)
		g.logger.Info("vsync toggled", zap.Bool("enabled", g.vsync.Value))
	}

	current := g.sim.Parameters()
	next := applySliders(current, g.sliders)
	if next == current {
		return
	}
	if err := g.sim.SetSimulationParameters(next); err != nil {
		g.logger.Warn("rejected parameters", zap.Error(err))
		syncSliders(current, g.sliders)
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(background)

	world := g.sim.World()
	scale := float64(g.size) / world.Parameters().DomainExtent

	g.vertices, g.indices = g.vertices[:0], g.indices[:0]
	for b := range world.All() {
		g.appendArrow(b.Location(), b.Velocity(), scale)
		if len(g.vertices) >= 3*maxBoidsPerBatch {
			g.flush(screen)
		}
	}
	g.flush(screen)

	if g.showPanel {
		g.panel.Draw(screen)
	}
	ebitenutil.DebugPrintAt(screen,
		fmt.Sprintf("generation %d  boids %d  step %s  FPS %.0f  TPS %.0f",
			g.sim.Generation(), world.Population(), g.lastStep.Round(time.Microsecond), ebiten.ActualFPS(), ebiten.ActualTPS()),
		10, g.size-20)
}

func (g *Game) appendArrow(location, velocity geometry.Vector2D, scale float64) {
	base := uint16(len(g.vertices))
	for _, p := range arrowShape(location.Mul(scale), velocity) {
		g.vertices = append(g.vertices, ebiten.Vertex{
			DstX: float32(p.X), DstY: float32(p.Y),
			SrcX: 1, SrcY: 1,
			ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1,
		})
	}
	g.indices = append(g.indices, base, base+1, base+2)
}

func (g *Game) flush(screen *ebiten.Image) {
	if len(g.indices) == 0 {
		return
	}
	screen.DrawTriangles(g.vertices, g.indices, g.arrow, &ebiten.DrawTrianglesOptions{})
	g.vertices, g.indices = g.vertices[:0], g.indices[:0]
}

func (g *Game) Layout(int, int) (int, int) {
	return g.size, g.size
}

// arrowShape returns the tip and the two back corners of an arrow head
// centred on at and pointing along heading. A still boid points right.
func arrowShape(at, heading geometry.Vector2D) [3]geometry.Vector2D {
	angle := math.Atan2(heading.Y, heading.X)
	corner := func(a, length float64) geometry.Vector2D {
		return at.Add(geometry.NewVector(math.Cos(a), math.Sin(a)).Mul(length))
	}
	return [3]geometry.Vector2D{
		corner(angle, 6),
		corner(angle+2.5, 5),
		corner(angle-2.5, 5),
	}
}
