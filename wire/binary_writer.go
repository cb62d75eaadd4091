package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// BinaryWriter renders the stream as a compact byte encoding: fixed-width
// little-endian primitives and unsigned varints for counts, identifiers and
// length prefixes. Layout hints are no-ops.
type BinaryWriter struct {
	w   io.Writer
	err error
	buf [binary.MaxVarintLen64]byte
}

// NewBinaryWriter starts a binary stream on w, emitting the magic and
// version bytes immediately.
func NewBinaryWriter(w io.Writer) *BinaryWriter {
	bw := &BinaryWriter{w: w}
	bw.raw([]byte{BinaryMagic[0], BinaryMagic[1], BinaryMagic[2], Version})
	return bw
}

func (w *BinaryWriter) raw(p []byte) {
	if w.err != nil {
		return
	}
	if _, err := w.w.Write(p); err != nil {
		w.err = err
	}
}

func (w *BinaryWriter) uvarint(v uint64) {
	n := binary.PutUvarint(w.buf[:], v)
	w.raw(w.buf[:n])
}

// ---------------------------------------------------------------------------
// Writer contract
// ---------------------------------------------------------------------------

func (w *BinaryWriter) WriteDataType(t Tag) { w.raw([]byte{byte(t)}) }

func (w *BinaryWriter) WriteName(name string) { w.WriteString(name) }

func (w *BinaryWriter) WriteCount(n int) {
	if n < 0 {
		if w.err == nil {
			w.err = fmt.Errorf("wire: negative count %d", n)
		}
		return
	}
	w.uvarint(uint64(n))
}

func (w *BinaryWriter) WriteIdentifier(id Identifier) { w.uvarint(uint64(id)) }

func (w *BinaryWriter) WriteBool(v bool) {
	b := byte(0)
	if v {
		b = 1
	}
	w.raw([]byte{b})
}

func (w *BinaryWriter) WriteInt8(v int8) { w.raw([]byte{byte(v)}) }

func (w *BinaryWriter) WriteInt16(v int16) { w.WriteUint16(uint16(v)) }

func (w *BinaryWriter) WriteInt32(v int32) { w.WriteUint32(uint32(v)) }

func (w *BinaryWriter) WriteInt64(v int64) { w.WriteUint64(uint64(v)) }

func (w *BinaryWriter) WriteUint8(v uint8) { w.raw([]byte{v}) }

func (w *BinaryWriter) WriteUint16(v uint16) {
	binary.LittleEndian.PutUint16(w.buf[:2], v)
	w.raw(w.buf[:2])
}

func (w *BinaryWriter) WriteUint32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[:4], v)
	w.raw(w.buf[:4])
}

func (w *BinaryWriter) WriteUint64(v uint64) {
	binary.LittleEndian.PutUint64(w.buf[:8], v)
	w.raw(w.buf[:8])
}

func (w *BinaryWriter) WriteFloat32(v float32) { w.WriteUint32(math.Float32bits(v)) }

func (w *BinaryWriter) WriteFloat64(v float64) { w.WriteUint64(math.Float64bits(v)) }

func (w *BinaryWriter) WriteString(v string) {
	w.uvarint(uint64(len(v)))
	w.raw([]byte(v))
}

func (w *BinaryWriter) WriteBytes(v []byte) {
	w.uvarint(uint64(len(v)))
	w.raw(v)
}

func (w *BinaryWriter) HintNextItem() {}

func (w *BinaryWriter) HintIndentUp() {}

func (w *BinaryWriter) HintIndentDown() {}

func (w *BinaryWriter) Err() error { return w.err }
