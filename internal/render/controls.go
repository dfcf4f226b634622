package render

import "github.com/lao-tseu-is-alive/go-flocking-simulation/pkg/simulation"

// control binds one slider of the panel to one field of the parameters.
type control struct {
	label    string
	min, max float64
	integer  bool
	get      func(simulation.Parameters) float64
	set      func(*simulation.Parameters, float64)
}

var controls = []control{
	{
		label: "Population", min: 0, max: 50000, integer: true,
		get: func(p simulation.Parameters) float64 { return float64(p.PopulationSize) },
		set: func(p *simulation.Parameters, v float64) { p.PopulationSize = int(v) },
	},
	{
		label: "Max speed", min: 0, max: 50,
		get: func(p simulation.Parameters) float64 { return p.MaxSpeed },
		set: func(p *simulation.Parameters, v float64) { p.MaxSpeed = v },
	},
	{
		label: "Max steering force", min: 0, max: 20,
		get: func(p simulation.Parameters) float64 { return p.MaxSteeringForce },
		set: func(p *simulation.Parameters, v float64) { p.MaxSteeringForce = v },
	},
	{
		label: "Cohesion", min: 0, max: 2,
		get: func(p simulation.Parameters) float64 { return p.CohesionWeight },
		set: func(p *simulation.Parameters, v float64) { p.CohesionWeight = v },
	},
	{
		label: "Alignment", min: 0, max: 2,
		get: func(p simulation.Parameters) float64 { return p.AlignmentWeight },
		set: func(p *simulation.Parameters, v float64) { p.AlignmentWeight = v },
	},
	{
		label: "Separation", min: 0, max: 2,
		get: func(p simulation.Parameters) float64 { return p.SeparationWeight },
		set: func(p *simulation.Parameters, v float64) { p.SeparationWeight = v },
	},
	{
		label: "Border force", min: 0, max: 5,
		get: func(p simulation.Parameters) float64 { return p.BorderForceWeight },
		set: func(p *simulation.Parameters, v float64) { p.BorderForceWeight = v },
	},
	{
		label: "Neighbour radius", min: 0, max: 500,
		get: func(p simulation.Parameters) float64 { return p.NeighbourRadius },
		set: func(p *simulation.Parameters, v float64) { p.NeighbourRadius = v },
	},
	{
		label: "Separation radius", min: 0, max: 200,
		get: func(p simulation.Parameters) float64 { return p.SeparationRadius },
		set: func(p *simulation.Parameters, v float64) { p.SeparationRadius = v },
	},
	{
		label: "Border radius", min: 0, max: 1000,
		get: func(p simulation.Parameters) float64 { return p.BorderRadius },
		set: func(p *simulation.Parameters, v float64) { p.BorderRadius = v },
	},
}

// boundSlider is a panel slider together with the field it edits.
type boundSlider struct {
	control
	slider *Slider
}

func bindControls(panel *Panel, p simulation.Parameters) []boundSlider {
	bound := make([]boundSlider, 0, len(controls))
	for _, c := range controls {
		s := panel.AddSlider(c.label, c.min, max(c.max, c.get(p)), c.get(p))
		s.Integer = c.integer
		bound = append(bound, boundSlider{control: c, slider: s})
	}
	return bound
}

// applySliders returns p with every bound field set from its slider.
func applySliders(p simulation.Parameters, bound []boundSlider) simulation.Parameters {
	for _, b := range bound {
		b.set(&p, b.slider.Value)
	}
	return p
}

// syncSliders moves the sliders to the values of p.
func syncSliders(p simulation.Parameters, bound []boundSlider) {
	for _, b := range bound {
		b.slider.Value = clamp(b.get(p), b.slider.Min, b.slider.Max)
	}
}
