package snapshot

import (
	"bytes"
	"errors"
	"io"
	"math/rand/v2"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/lao-tseu-is-alive/go-flocking-simulation/pkg/simulation"
)

func testWorld(t *testing.T, population int) *simulation.World {
	t.Helper()
	p := simulation.DefaultParameters()
	p.PopulationSize = population
	p.DomainExtent = 640
	return simulation.NewRandomWorld(p, rand.New(rand.NewPCG(11, 13)))
}

func assertFrameMatches(t *testing.T, f Frame, generation uint64, world *simulation.World) {
	t.Helper()
	if f.Generation != generation {
		t.Errorf("Generation = %d; want %d", f.Generation, generation)
	}
	if f.DomainExtent != world.Parameters().DomainExtent {
		t.Errorf("DomainExtent = %v; want %v", f.DomainExtent, world.Parameters().DomainExtent)
	}
	if len(f.Boids) != world.Population() {
		t.Fatalf("len(Boids) = %d; want %d", len(f.Boids), world.Population())
	}
	for i, got := range f.Boids {
		b := world.At(i)
		if got.Location != b.Location() || got.Velocity != b.Velocity() {
			t.Errorf("boid %d = %+v; want location %s velocity %s", i, got, b.Location(), b.Velocity())
		}
	}
}

func TestEncodeDecode(t *testing.T) {
	tests := []struct {
		name       string
		population int
		generation uint64
	}{
		{"empty world", 0, 0},
		{"single boid", 1, 1},
		{"crowd", 250, 1 << 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			world := testWorld(t, tt.population)
			f, err := Decode(Encode(tt.generation, world))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			assertFrameMatches(t, f, tt.generation, world)
		})
	}
}

func TestDecode_SkipsUnknownFields(t *testing.T) {
	world := testWorld(t, 3)
	b := protowire.AppendTag(nil, 15, protowire.BytesType)
	b = protowire.AppendString(b, "renderer hint")
	b = AppendFrame(b, 9, world)

	f, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	assertFrameMatches(t, f, 9, world)
}

func TestDecode_Truncated(t *testing.T) {
	b := Encode(3, testWorld(t, 5))

	for _, cut := range []int{1, 5, len(b) / 2, len(b) - 1} {
		if _, err := Decode(b[:cut]); !errors.Is(err, ErrTruncatedFrame) {
			t.Errorf("Decode(first %d of %d bytes) error = %v; want ErrTruncatedFrame", cut, len(b), err)
		}
	}
}

func TestStream(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	worlds := []*simulation.World{testWorld(t, 4), testWorld(t, 0), testWorld(t, 17)}
	for i, world := range worlds {
		if err := w.WriteWorld(uint64(i), world); err != nil {
			t.Fatalf("WriteWorld(%d) error = %v", i, err)
		}
	}

	r := NewReader(bytes.NewReader(buf.Bytes()))
	for i, world := range worlds {
		f, err := r.Next()
		if err != nil {
			t.Fatalf("Next() frame %d error = %v", i, err)
		}
		assertFrameMatches(t, f, uint64(i), world)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Errorf("Next() after the last frame error = %v; want io.EOF", err)
	}

	t.Run("truncated stream", func(t *testing.T) {
		full := buf.Bytes()
		r := NewReader(bytes.NewReader(full[:len(full)-3]))
		var err error
		for err == nil {
			_, err = r.Next()
		}
		if !errors.Is(err, ErrTruncatedFrame) {
			t.Errorf("Next() error = %v; want ErrTruncatedFrame", err)
		}
	})
}

func BenchmarkEncode(b *testing.B) {
	p := simulation.DefaultParameters()
	world := simulation.NewRandomWorld(p, rand.New(rand.NewPCG(1, 1)))
	buf := make([]byte, 0, 64*p.PopulationSize)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf = AppendFrame(buf[:0], uint64(i), world)
	}
}
