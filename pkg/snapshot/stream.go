package snapshot

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/lao-tseu-is-alive/go-flocking-simulation/pkg/simulation"
)

// maxFrameSize bounds the length prefix a Reader accepts.
const maxFrameSize = 1 << 30

// Writer writes length-delimited frames to an underlying io.Writer.
// It is not safe for concurrent use.
type Writer struct {
	w   io.Writer
	buf []byte
}

// NewWriter returns a Writer writing frames to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteWorld writes world as one frame.
func (fw *Writer) WriteWorld(generation uint64, world *simulation.World) error {
	frame := Encode(generation, world)
	fw.buf = protowire.AppendVarint(fw.buf[:0], uint64(len(frame)))
	fw.buf = append(fw.buf, frame...)
	if _, err := fw.w.Write(fw.buf); err != nil {
		return fmt.Errorf("failed to write frame %d: %w", generation, err)
	}
	return nil
}

// Reader reads frames written by a Writer.
type Reader struct {
	r *bufio.Reader
}

// NewReader returns a Reader reading frames from r through a buffer.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Next returns the next frame, or io.EOF once the stream ended cleanly
// between two frames.
func (fr *Reader) Next() (Frame, error) {
	size, err := binary.ReadUvarint(fr.r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Frame{}, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, fmt.Errorf("%w: length prefix", ErrTruncatedFrame)
		}
		return Frame{}, fmt.Errorf("failed to read frame length: %w", err)
	}
	if size > maxFrameSize {
		return Frame{}, fmt.Errorf("frame of %d bytes exceeds the %d bytes limit", size, maxFrameSize)
	}

	b := make([]byte, size)
	if _, err := io.ReadFull(fr.r, b); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, fmt.Errorf("%w: %d bytes announced", ErrTruncatedFrame, size)
		}
		return Frame{}, fmt.Errorf("failed to read frame: %w", err)
	}
	return Decode(b)
}
