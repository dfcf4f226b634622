package simulation

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/multierr"
)

// ErrInvalidParameters is wrapped by every parameter validation failure.
var ErrInvalidParameters = errors.New("invalid simulation parameters")

//go:embed parameters.schema.json
var parametersSchema string

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return jsonschema.CompileString("parameters.schema.json", parametersSchema)
})

// Parameters is a snapshot of every tunable constant of the simulation.
// It is a plain value: changing the configuration means building a new
// Parameters and handing it to Simulation.SetSimulationParameters.
type Parameters struct {
	// Population
	PopulationSize int `json:"populationSize" toml:"populationSize"`

	// Coordinates live in [0, DomainExtent) on both axes and wrap around.
	DomainExtent float64 `json:"domainExtent" toml:"domainExtent"`

	// Physics
	MaxSteeringForce float64 `json:"maxSteeringForce" toml:"maxSteeringForce"`
	MaxSpeed         float64 `json:"maxSpeed" toml:"maxSpeed"`

	// Weights of the combined steering force
	CohesionWeight    float64 `json:"cohesionWeight" toml:"cohesionWeight"`
	AlignmentWeight   float64 `json:"alignmentWeight" toml:"alignmentWeight"`
	SeparationWeight  float64 `json:"separationWeight" toml:"separationWeight"`
	BorderForceWeight float64 `json:"borderForceWeight" toml:"borderForceWeight"`

	// Interaction Radii
	NeighbourRadius  float64 `json:"neighbourRadius" toml:"neighbourRadius"`
	SeparationRadius float64 `json:"separationRadius" toml:"separationRadius"`
	BorderRadius     float64 `json:"borderRadius" toml:"borderRadius"`
}

// DefaultParameters returns the parameters of the classic 10000 boid flock.
func DefaultParameters() Parameters {
	return Parameters{
		PopulationSize:    10000,
		DomainExtent:      2000,
		MaxSteeringForce:  5,
		MaxSpeed:          10,
		CohesionWeight:    0.33,
		AlignmentWeight:   0.33,
		SeparationWeight:  0.4,
		BorderForceWeight: 1,
		NeighbourRadius:   100,
		SeparationRadius:  20,
		BorderRadius:      500,
	}
}

// Validate reports every constraint p violates, not only the first one.
func (p Parameters) Validate() error {
	var errs error
	if p.PopulationSize < 0 {
		errs = multierr.Append(errs, fmt.Errorf("populationSize must be >= 0, got %d", p.PopulationSize))
	}
	if !(p.DomainExtent > 0) || math.IsInf(p.DomainExtent, 0) {
		errs = multierr.Append(errs, fmt.Errorf("domainExtent must be a finite number > 0, got %v", p.DomainExtent))
	}

	nonNegative := []struct {
		name  string
		value float64
	}{
		{"maxSteeringForce", p.MaxSteeringForce},
		{"maxSpeed", p.MaxSpeed},
		{"neighbourRadius", p.NeighbourRadius},
		{"separationRadius", p.SeparationRadius},
		{"borderRadius", p.BorderRadius},
	}
	for _, f := range nonNegative {
		if !(f.value >= 0) || math.IsInf(f.value, 0) {
			errs = multierr.Append(errs, fmt.Errorf("%s must be a finite number >= 0, got %v", f.name, f.value))
		}
	}

	weights := []struct {
		name  string
		value float64
	}{
		{"cohesionWeight", p.CohesionWeight},
		{"alignmentWeight", p.AlignmentWeight},
		{"separationWeight", p.SeparationWeight},
		{"borderForceWeight", p.BorderForceWeight},
	}
	for _, f := range weights {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			errs = multierr.Append(errs, fmt.Errorf("%s must be finite, got %v", f.name, f.value))
		}
	}

	if errs != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParameters, errs)
	}
	return nil
}

// LoadParameters loads parameters from a JSON or TOML file, chosen by extension.
// JSON files are validated against the embedded schema first. Fields absent
// from the file keep their DefaultParameters value.
func LoadParameters(path string) (Parameters, error) {
	p := DefaultParameters()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.DecodeFile(path, &p); err != nil {
			return Parameters{}, fmt.Errorf("failed to decode toml parameters: %w", err)
		}
	case ".json":
		if err := decodeJSONParameters(path, &p); err != nil {
			return Parameters{}, err
		}
	default:
		return Parameters{}, fmt.Errorf("unsupported parameters file extension %q", ext)
	}

	if err := p.Validate(); err != nil {
		return Parameters{}, err
	}
	return p, nil
}

func decodeJSONParameters(path string, p *Parameters) error {
	// 1. Compile Schema
	sch, err := compileSchema()
	if err != nil {
		return fmt.Errorf("failed to compile schema: %w", err)
	}

	// 2. Read Config File
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read parameters file: %w", err)
	}

	// 3. Validate
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("failed to decode parameters json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}

	// 4. Unmarshal into Struct
	if err := json.Unmarshal(b, p); err != nil {
		return fmt.Errorf("failed to unmarshal parameters: %w", err)
	}
	return nil
}
