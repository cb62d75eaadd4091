package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"
)

// ---------------------------------------------------------------------------
// BinaryWriter tests
// ---------------------------------------------------------------------------

func TestBinaryWriterHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewBinaryWriter(&buf)
	if err := w.Err(); err != nil {
		t.Fatalf("header write failed: %v", err)
	}
	want := []byte{'O', 'S', 'B', 1}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("header = % x, want % x", buf.Bytes(), want)
	}
}

func TestBinaryHintsEmitNothing(t *testing.T) {
	var buf bytes.Buffer
	w := NewBinaryWriter(&buf)
	before := buf.Len()
	w.HintNextItem()
	w.HintIndentUp()
	w.HintIndentDown()
	if buf.Len() != before {
		t.Errorf("hints emitted %d bytes, want 0", buf.Len()-before)
	}
}

func TestBinaryWriterNegativeCount(t *testing.T) {
	var buf bytes.Buffer
	w := NewBinaryWriter(&buf)
	w.WriteCount(-1)
	if w.Err() == nil {
		t.Error("negative count did not fault the writer")
	}
}

func TestBinaryWriterStickyError(t *testing.T) {
	w := NewBinaryWriter(&failAfter{limit: 6})
	for i := 0; i < 8; i++ {
		w.WriteUint64(1)
	}
	if !errors.Is(w.Err(), errSink) {
		t.Errorf("Err() = %v, want %v", w.Err(), errSink)
	}
}

// ---------------------------------------------------------------------------
// Binary round-trip tests
// ---------------------------------------------------------------------------

func TestBinaryRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewBinaryWriter(&buf)
	w.WriteDataType(TagDeclare)
	w.WriteName("Node")
	w.WriteCount(3)
	w.WriteIdentifier(4294967295)
	w.WriteBool(true)
	w.WriteInt8(-1)
	w.WriteInt16(-2)
	w.WriteInt32(-3)
	w.WriteInt64(math.MaxInt64)
	w.WriteUint8(1)
	w.WriteUint16(2)
	w.WriteUint32(3)
	w.WriteUint64(math.MaxUint64)
	w.WriteFloat32(math.Pi)
	w.WriteFloat64(-math.SqrtPhi)
	w.WriteString("héllo")
	w.WriteBytes([]byte{0, 1, 2})
	if err := w.Err(); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	r, err := NewBinaryReader(&buf)
	if err != nil {
		t.Fatalf("NewBinaryReader failed: %v", err)
	}
	check := func(what string, got, want any, err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("%s read failed: %v", what, err)
		}
		if got != want {
			t.Errorf("%s = %v, want %v", what, got, want)
		}
	}
	tag, err := r.ReadDataType()
	check("data type", tag, TagDeclare, err)
	name, err := r.ReadName()
	check("name", name, "Node", err)
	n, err := r.ReadCount()
	check("count", n, 3, err)
	id, err := r.ReadIdentifier()
	check("identifier", id, Identifier(4294967295), err)
	b, err := r.ReadBool()
	check("bool", b, true, err)
	i8, err := r.ReadInt8()
	check("int8", i8, int8(-1), err)
	i16, err := r.ReadInt16()
	check("int16", i16, int16(-2), err)
	i32, err := r.ReadInt32()
	check("int32", i32, int32(-3), err)
	i64, err := r.ReadInt64()
	check("int64", i64, int64(math.MaxInt64), err)
	u8, err := r.ReadUint8()
	check("uint8", u8, uint8(1), err)
	u16, err := r.ReadUint16()
	check("uint16", u16, uint16(2), err)
	u32, err := r.ReadUint32()
	check("uint32", u32, uint32(3), err)
	u64, err := r.ReadUint64()
	check("uint64", u64, uint64(math.MaxUint64), err)
	f32, err := r.ReadFloat32()
	check("float32", f32, float32(math.Pi), err)
	f64, err := r.ReadFloat64()
	check("float64", f64, -math.SqrtPhi, err)
	s, err := r.ReadString()
	check("string", s, "héllo", err)
	p, err := r.ReadBytes()
	if err != nil {
		t.Fatalf("bytes read failed: %v", err)
	}
	if !bytes.Equal(p, []byte{0, 1, 2}) {
		t.Errorf("bytes = % x, want 00 01 02", p)
	}
	if _, err := r.ReadDataType(); err != io.EOF {
		t.Errorf("trailing read = %v, want io.EOF", err)
	}
}

func TestBinaryVarintBoundaries(t *testing.T) {
	values := []uint32{0, 1, 127, 128, 16383, 16384, 2097151, 2097152, math.MaxUint32}
	var buf bytes.Buffer
	w := NewBinaryWriter(&buf)
	for _, v := range values {
		w.WriteIdentifier(Identifier(v))
	}
	if err := w.Err(); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	r, err := NewBinaryReader(&buf)
	if err != nil {
		t.Fatalf("NewBinaryReader failed: %v", err)
	}
	for _, v := range values {
		got, err := r.ReadIdentifier()
		if err != nil {
			t.Fatalf("ReadIdentifier(%d) failed: %v", v, err)
		}
		if got != Identifier(v) {
			t.Errorf("ReadIdentifier = %d, want %d", got, v)
		}
	}
}

func TestBinaryEmptyBlobs(t *testing.T) {
	var buf bytes.Buffer
	w := NewBinaryWriter(&buf)
	w.WriteString("")
	w.WriteBytes(nil)
	r, err := NewBinaryReader(&buf)
	if err != nil {
		t.Fatalf("NewBinaryReader failed: %v", err)
	}
	s, err := r.ReadString()
	if err != nil || s != "" {
		t.Errorf("empty string = %q, %v", s, err)
	}
	p, err := r.ReadBytes()
	if err != nil || len(p) != 0 {
		t.Errorf("empty bytes = % x, %v", p, err)
	}
}

// ---------------------------------------------------------------------------
// BinaryReader error tests
// ---------------------------------------------------------------------------

func TestBinaryReaderHeaderErrors(t *testing.T) {
	cases := []struct {
		input []byte
		want  error
	}{
		{nil, ErrInvalidMagic},
		{[]byte{'O', 'S'}, ErrInvalidMagic},
		{[]byte{'X', 'Y', 'Z', 1}, ErrInvalidMagic},
		{[]byte{'O', 'S', 'T', 1}, ErrInvalidMagic},
		{[]byte{'O', 'S', 'B', 9}, ErrUnsupportedVersion},
	}
	for _, c := range cases {
		_, err := NewBinaryReader(bytes.NewReader(c.input))
		if !errors.Is(err, c.want) {
			t.Errorf("NewBinaryReader(% x) = %v, want %v", c.input, err, c.want)
		}
	}
}

func TestBinaryReaderTruncation(t *testing.T) {
	var buf bytes.Buffer
	w := NewBinaryWriter(&buf)
	w.WriteUint64(12345)
	full := buf.Bytes()

	for cut := len(full) - 1; cut > 4; cut-- {
		r, err := NewBinaryReader(bytes.NewReader(full[:cut]))
		if err != nil {
			t.Fatalf("NewBinaryReader failed at cut %d: %v", cut, err)
		}
		if _, err := r.ReadUint64(); err != io.ErrUnexpectedEOF {
			t.Errorf("cut %d: err = %v, want io.ErrUnexpectedEOF", cut, err)
		}
	}
}

func TestBinaryReaderCorruption(t *testing.T) {
	header := []byte{'O', 'S', 'B', 1}

	// Zero tag byte.
	r, err := NewBinaryReader(bytes.NewReader(append(append([]byte{}, header...), 0)))
	if err != nil {
		t.Fatalf("NewBinaryReader failed: %v", err)
	}
	if _, err := r.ReadDataType(); !errors.Is(err, ErrCorruptStream) {
		t.Errorf("zero tag = %v, want ErrCorruptStream", err)
	}

	// Bad bool byte.
	r, err = NewBinaryReader(bytes.NewReader(append(append([]byte{}, header...), 7)))
	if err != nil {
		t.Fatalf("NewBinaryReader failed: %v", err)
	}
	if _, err := r.ReadBool(); !errors.Is(err, ErrCorruptStream) {
		t.Errorf("bad bool = %v, want ErrCorruptStream", err)
	}

	// Oversized length prefix.
	huge := append([]byte{}, header...)
	huge = append(huge, binary.AppendUvarint(nil, uint64(maxBlobLen)+1)...)
	r, err = NewBinaryReader(bytes.NewReader(huge))
	if err != nil {
		t.Fatalf("NewBinaryReader failed: %v", err)
	}
	if _, err := r.ReadBytes(); !errors.Is(err, ErrCorruptStream) {
		t.Errorf("oversized blob = %v, want ErrCorruptStream", err)
	}

	// Identifier wider than 32 bits.
	wide := append([]byte{}, header...)
	wide = append(wide, binary.AppendUvarint(nil, uint64(math.MaxUint32)+1)...)
	r, err = NewBinaryReader(bytes.NewReader(wide))
	if err != nil {
		t.Fatalf("NewBinaryReader failed: %v", err)
	}
	if _, err := r.ReadIdentifier(); !errors.Is(err, ErrCorruptStream) {
		t.Errorf("wide identifier = %v, want ErrCorruptStream", err)
	}
}

func TestBinaryCleanEOF(t *testing.T) {
	var buf bytes.Buffer
	NewBinaryWriter(&buf)
	r, err := NewBinaryReader(&buf)
	if err != nil {
		t.Fatalf("NewBinaryReader failed: %v", err)
	}
	if _, err := r.ReadDataType(); err != io.EOF {
		t.Errorf("empty stream read = %v, want io.EOF", err)
	}
}
