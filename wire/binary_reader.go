package wire

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Length-prefixed fields larger than this are treated as corruption rather
// than allocated.
const maxBlobLen = 1 << 28

// BinaryReader consumes streams produced by BinaryWriter.
type BinaryReader struct {
	r *bufio.Reader
}

// NewBinaryReader validates the binary header and returns a reader
// positioned at the first record.
func NewBinaryReader(r io.Reader) (*BinaryReader, error) {
	br := &BinaryReader{r: asBuffered(r)}
	var header [4]byte
	if _, err := io.ReadFull(br.r, header[:]); err != nil {
		return nil, fmt.Errorf("%w: truncated header", ErrInvalidMagic)
	}
	if string(header[:3]) != BinaryMagic {
		return nil, fmt.Errorf("%w: % x", ErrInvalidMagic, header[:3])
	}
	if header[3] != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, header[3])
	}
	return br, nil
}

// noEOF converts a mid-field EOF into io.ErrUnexpectedEOF; only
// ReadDataType may observe a clean io.EOF.
func noEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

func (r *BinaryReader) full(n int) ([]byte, error) {
	p := make([]byte, n)
	if _, err := io.ReadFull(r.r, p); err != nil {
		return nil, noEOF(err)
	}
	return p, nil
}

func (r *BinaryReader) uvarint() (uint64, error) {
	v, err := binary.ReadUvarint(r.r)
	if err != nil {
		return 0, noEOF(err)
	}
	return v, nil
}

func (r *BinaryReader) blob() ([]byte, error) {
	n, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	if n > maxBlobLen {
		return nil, corruptf("length prefix %d exceeds limit", n)
	}
	if n == 0 {
		return nil, nil
	}
	return r.full(int(n))
}

// ---------------------------------------------------------------------------
// Reader contract
// ---------------------------------------------------------------------------

func (r *BinaryReader) ReadDataType() (Tag, error) {
	b, err := r.r.ReadByte()
	if err != nil {
		return TagInvalid, err
	}
	if Tag(b) == TagInvalid {
		return TagInvalid, corruptf("zero data type tag")
	}
	return Tag(b), nil
}

func (r *BinaryReader) ReadName() (string, error) { return r.ReadString() }

func (r *BinaryReader) ReadCount() (int, error) {
	n, err := r.uvarint()
	if err != nil {
		return 0, err
	}
	if n > maxBlobLen {
		return 0, corruptf("count %d exceeds limit", n)
	}
	return int(n), nil
}

func (r *BinaryReader) ReadIdentifier() (Identifier, error) {
	v, err := r.uvarint()
	if err != nil {
		return NullIdentifier, err
	}
	if v > math.MaxUint32 {
		return NullIdentifier, corruptf("identifier %d out of range", v)
	}
	return Identifier(v), nil
}

func (r *BinaryReader) ReadBool() (bool, error) {
	b, err := r.r.ReadByte()
	if err != nil {
		return false, noEOF(err)
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, corruptf("bad bool byte %#x", b)
}

func (r *BinaryReader) ReadInt8() (int8, error) {
	b, err := r.r.ReadByte()
	return int8(b), noEOF(err)
}

func (r *BinaryReader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

func (r *BinaryReader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

func (r *BinaryReader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

func (r *BinaryReader) ReadUint8() (uint8, error) {
	b, err := r.r.ReadByte()
	return b, noEOF(err)
}

func (r *BinaryReader) ReadUint16() (uint16, error) {
	p, err := r.full(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(p), nil
}

func (r *BinaryReader) ReadUint32() (uint32, error) {
	p, err := r.full(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(p), nil
}

func (r *BinaryReader) ReadUint64() (uint64, error) {
	p, err := r.full(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(p), nil
}

func (r *BinaryReader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	return math.Float32frombits(v), err
}

func (r *BinaryReader) ReadFloat64() (float64, error) {
	v, err := r.ReadUint64()
	return math.Float64frombits(v), err
}

func (r *BinaryReader) ReadString() (string, error) {
	p, err := r.blob()
	if err != nil {
		return "", err
	}
	return string(p), nil
}

func (r *BinaryReader) ReadBytes() ([]byte, error) { return r.blob() }
