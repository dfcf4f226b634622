// Package snapshot encodes published generations in the protobuf wire format
// so a renderer running in another process can follow the simulation.
//
// A frame is the message
//
//	message Frame {
//	  uint64 generation = 1;
//	  double domain_extent = 2;
//	  repeated Boid boids = 3;
//	}
//	message Boid {
//	  double x = 1;
//	  double y = 2;
//	  double vx = 3;
//	  double vy = 4;
//	}
//
// and a stream is a sequence of frames, each preceded by its varint length.
package snapshot

import (
	"errors"
	"fmt"
	"io"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/lao-tseu-is-alive/go-flocking-simulation/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-flocking-simulation/pkg/simulation"
)

// ErrTruncatedFrame is returned when a frame ends in the middle of a field.
var ErrTruncatedFrame = errors.New("truncated snapshot frame")

const (
	frameGeneration   protowire.Number = 1
	frameDomainExtent protowire.Number = 2
	frameBoids        protowire.Number = 3

	boidX  protowire.Number = 1
	boidY  protowire.Number = 2
	boidVX protowire.Number = 3
	boidVY protowire.Number = 4
)

// BoidState is what a frame keeps of a boid.
type BoidState struct {
	Location geometry.Vector2D
	Velocity geometry.Vector2D
}

// Frame is a decoded generation.
type Frame struct {
	Generation   uint64
	DomainExtent float64
	Boids        []BoidState
}

// AppendFrame appends the encoding of world as generation to b.
func AppendFrame(b []byte, generation uint64, world *simulation.World) []byte {
	b = protowire.AppendTag(b, frameGeneration, protowire.VarintType)
	b = protowire.AppendVarint(b, generation)
	b = protowire.AppendTag(b, frameDomainExtent, protowire.Fixed64Type)
	b = appendDouble(b, world.Parameters().DomainExtent)

	var boid []byte
	world.VisitAll(func(bd *simulation.Boid) {
		loc, vel := bd.Location(), bd.Velocity()
		boid = boid[:0]
		boid = appendDoubleField(boid, boidX, loc.X)
		boid = appendDoubleField(boid, boidY, loc.Y)
		boid = appendDoubleField(boid, boidVX, vel.X)
		boid = appendDoubleField(boid, boidVY, vel.Y)

		b = protowire.AppendTag(b, frameBoids, protowire.BytesType)
		b = protowire.AppendBytes(b, boid)
	})
	return b
}

// Encode returns the encoding of world as generation.
func Encode(generation uint64, world *simulation.World) []byte {
	// 2 tags and 4 doubles per boid
	return AppendFrame(make([]byte, 0, 16+world.Population()*38), generation, world)
}

// Decode parses a frame. Unknown fields are skipped.
func Decode(b []byte) (Frame, error) {
	var f Frame
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Frame{}, wireError("frame tag", n)
		}
		b = b[n:]

		switch {
		case num == frameGeneration && typ == protowire.VarintType:
			f.Generation, n = protowire.ConsumeVarint(b)
		case num == frameDomainExtent && typ == protowire.Fixed64Type:
			f.DomainExtent, n = consumeDouble(b)
		case num == frameBoids && typ == protowire.BytesType:
			var msg []byte
			msg, n = protowire.ConsumeBytes(b)
			if n >= 0 {
				boid, err := decodeBoid(msg)
				if err != nil {
					return Frame{}, fmt.Errorf("boid %d: %w", len(f.Boids), err)
				}
				f.Boids = append(f.Boids, boid)
			}
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return Frame{}, wireError(fmt.Sprintf("field %d", num), n)
		}
		b = b[n:]
	}
	return f, nil
}

func decodeBoid(b []byte) (BoidState, error) {
	var s BoidState
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return BoidState{}, wireError("boid tag", n)
		}
		b = b[n:]

		var target *float64
		switch num {
		case boidX:
			target = &s.Location.X
		case boidY:
			target = &s.Location.Y
		case boidVX:
			target = &s.Velocity.X
		case boidVY:
			target = &s.Velocity.Y
		}
		if target != nil && typ == protowire.Fixed64Type {
			*target, n = consumeDouble(b)
		} else {
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return BoidState{}, wireError(fmt.Sprintf("boid field %d", num), n)
		}
		b = b[n:]
	}
	return s, nil
}

func wireError(what string, n int) error {
	err := protowire.ParseError(n)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s", ErrTruncatedFrame, what)
	}
	return fmt.Errorf("invalid %s: %w", what, err)
}

func appendDouble(b []byte, v float64) []byte {
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendDoubleField(b []byte, num protowire.Number, v float64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return appendDouble(b, v)
}

func consumeDouble(b []byte) (float64, int) {
	v, n := protowire.ConsumeFixed64(b)
	return math.Float64frombits(v), n
}
