package render

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// widget is anything the parameter panel can stack vertically.
type widget interface {
	// update handles mouse input and reports whether the value changed.
	update(mx, my int, pressed bool) bool
	draw(screen *ebiten.Image)
	place(x, y float64)
	height() float64
}

func inside(mx, my int, x, y, w, h float64) bool {
	return float64(mx) >= x && float64(mx) <= x+w && float64(my) >= y && float64(my) <= y+h
}

// Slider picks a value in [Min, Max] by clicking or dragging along its bar.
type Slider struct {
	Label    string
	Value    float64
	Min, Max float64
	Integer  bool

	x, y, w, h float64
}

// NewSlider returns a slider over [min, max] starting at value.
func NewSlider(label string, min, max, value float64) *Slider {
	return &Slider{Label: label, Min: min, Max: max, Value: clamp(value, min, max), h: 12}
}

func (s *Slider) update(mx, my int, pressed bool) bool {
	if !pressed || !inside(mx, my, s.x, s.y, s.w, s.h) {
		return false
	}
	v := s.Min + (float64(mx)-s.x)/s.w*(s.Max-s.Min)
	if s.Integer {
		v = float64(int(v + 0.5))
	}
	v = clamp(v, s.Min, s.Max)
	if v == s.Value {
		return false
	}
	s.Value = v
	return true
}

func (s *Slider) draw(screen *ebiten.Image) {
	label := fmt.Sprintf("%s: %.2f", s.Label, s.Value)
	if s.Integer {
		label = fmt.Sprintf("%s: %d", s.Label, int(s.Value))
	}
	ebitenutil.DebugPrintAt(screen, label, int(s.x), int(s.y-16))

	vector.FillRect(screen, float32(s.x), float32(s.y), float32(s.w), float32(s.h), color.RGBA{R: 80, G: 80, B: 80, A: 255}, true)
	ratio := 0.0
	if s.Max > s.Min {
		ratio = (s.Value - s.Min) / (s.Max - s.Min)
	}
	vector.FillRect(screen, float32(s.x), float32(s.y), float32(s.w*ratio), float32(s.h), color.RGBA{R: 200, G: 200, B: 200, A: 255}, true)
}

func (s *Slider) place(x, y float64) { s.x, s.y = x, y+16 }
func (s *Slider) height() float64    { return s.h + 26 }

// Checkbox toggles a boolean once per click.
type Checkbox struct {
	Label string
	Value bool

	x, y, size float64
	held       bool
}

// NewCheckbox returns a checkbox in the given state.
func NewCheckbox(label string, value bool) *Checkbox {
	return &Checkbox{Label: label, Value: value, size: 14}
}

func (c *Checkbox) update(mx, my int, pressed bool) bool {
	if !pressed {
		c.held = false
		return false
	}
	if c.held || !inside(mx, my, c.x, c.y, c.size, c.size) {
		return false
	}
	c.held = true
	c.Value = !c.Value
	return true
}

func (c *Checkbox) draw(screen *ebiten.Image) {
	vector.StrokeRect(screen, float32(c.x), float32(c.y), float32(c.size), float32(c.size), 2, color.RGBA{R: 200, G: 200, B: 200, A: 255}, true)
	if c.Value {
		vector.FillRect(screen, float32(c.x+3), float32(c.y+3), float32(c.size-6), float32(c.size-6), color.RGBA{R: 100, G: 200, B: 100, A: 255}, true)
	}
	ebitenutil.DebugPrintAt(screen, c.Label, int(c.x+c.size+6), int(c.y))
}

func (c *Checkbox) place(x, y float64) { c.x, c.y = x, y }
func (c *Checkbox) height() float64    { return c.size + 10 }

// Panel is a column of widgets drawn over the simulation.
type Panel struct {
	X, Y, Width float64
	Title       string

	widgets []widget
}

// NewPanel returns an empty panel whose top left corner is at (x, y).
func NewPanel(x, y, width float64, title string) *Panel {
	return &Panel{X: x, Y: y, Width: width, Title: title}
}

// AddSlider appends a slider below the last widget and returns it.
func (p *Panel) AddSlider(label string, min, max, value float64) *Slider {
	s := NewSlider(label, min, max, value)
	s.w = p.Width - 20
	p.add(s)
	return s
}

// AddCheckbox appends a checkbox below the last widget and returns it.
func (p *Panel) AddCheckbox(label string, value bool) *Checkbox {
	c := NewCheckbox(label, value)
	p.add(c)
	return c
}

func (p *Panel) add(w widget) {
	w.place(p.X+10, p.Y+p.contentHeight())
	p.widgets = append(p.widgets, w)
}

func (p *Panel) contentHeight() float64 {
	h := 25.0
	for _, w := range p.widgets {
		h += w.height()
	}
	return h
}

// Update forwards the mouse state to every widget and reports whether any
// value changed.
func (p *Panel) Update() bool {
	mx, my := ebiten.CursorPosition()
	pressed := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	changed := false
	for _, w := range p.widgets {
		if w.update(mx, my, pressed) {
			changed = true
		}
	}
	return changed
}

// Draw renders the panel background, its title and every widget.
func (p *Panel) Draw(screen *ebiten.Image) {
	h := p.contentHeight()
	vector.FillRect(screen, float32(p.X), float32(p.Y), float32(p.Width), float32(h), color.RGBA{R: 40, G: 40, B: 45, A: 230}, true)
	vector.StrokeRect(screen, float32(p.X), float32(p.Y), float32(p.Width), float32(h), 2, color.RGBA{R: 100, G: 100, B: 110, A: 255}, true)
	ebitenutil.DebugPrintAt(screen, p.Title, int(p.X+10), int(p.Y+5))
	for _, w := range p.widgets {
		w.draw(screen)
	}
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
