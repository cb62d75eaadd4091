package objstream

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/chazu/objstream/schema"
	"github.com/chazu/objstream/wire"
)

var ErrUnknownFormat = errors.New("objstream: unknown format")

// Format selects a concrete wire encoding.
type Format int

const (
	FormatText Format = iota
	FormatBinary
)

func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatBinary:
		return "binary"
	}
	return fmt.Sprintf("format%d", int(f))
}

// ParseFormat maps a format name to its selector.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "text":
		return FormatText, nil
	case "binary":
		return FormatBinary, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// DetectFormat inspects a stream prefix and reports which encoding wrote it.
func DetectFormat(prefix []byte) (Format, error) {
	if len(prefix) >= len(wire.BinaryMagic) {
		switch string(prefix[:3]) {
		case wire.BinaryMagic:
			return FormatBinary, nil
		case wire.TextMagic:
			return FormatText, nil
		}
	}
	return 0, fmt.Errorf("%w: unrecognized stream prefix", ErrUnknownFormat)
}

// ---------------------------------------------------------------------------
// Convenience entry points
// ---------------------------------------------------------------------------

// Marshal serializes root and its closure to a byte slice.
func Marshal(root *schema.Instance, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewWriter(&buf, format).Write(root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal reconstructs a graph from data, resolving class names through
// reg. The encoding is detected from the stream header.
func Unmarshal(data []byte, reg *schema.Registry) (*schema.Instance, error) {
	r, err := NewReader(bytes.NewReader(data), reg)
	if err != nil {
		return nil, err
	}
	return r.Read()
}

func newWireWriter(out io.Writer, format Format) wire.Writer {
	if format == FormatBinary {
		return wire.NewBinaryWriter(out)
	}
	return wire.NewTextWriter(out)
}

func newWireReader(in io.Reader) (wire.Reader, error) {
	br := bufio.NewReader(in)
	prefix, err := br.Peek(len(wire.BinaryMagic))
	if err != nil {
		return nil, fmt.Errorf("%w: stream too short", ErrUnknownFormat)
	}
	format, err := DetectFormat(prefix)
	if err != nil {
		return nil, err
	}
	if format == FormatBinary {
		return wire.NewBinaryReader(br)
	}
	return wire.NewTextReader(br)
}
