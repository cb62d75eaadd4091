// Package wire defines the format-level contract between the graph
// serializer and a concrete stream encoding. A Writer turns abstract
// emission steps (tags, names, counts, identifiers, primitive values,
// layout hints) into bytes; a Reader is its inverse. Two encodings are
// provided: a human-readable text form and a compact binary form. The
// grammar of each encoding belongs entirely to this package.
package wire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Identifier names one object within a serialized stream.
type Identifier uint32

// NullIdentifier encodes an absent reference. It is never assigned to an
// object.
const NullIdentifier Identifier = 0

// Version is the stream format version emitted by both encodings.
const Version = 1

// Stream header prefixes. The first three bytes of any stream select the
// encoding.
const (
	TextMagic   = "OST"
	BinaryMagic = "OSB"
)

var (
	ErrInvalidMagic       = errors.New("wire: invalid stream magic")
	ErrUnsupportedVersion = errors.New("wire: unsupported stream version")
	ErrCorruptStream      = errors.New("wire: corrupt stream")
)

// ---------------------------------------------------------------------------
// Data type tags
// ---------------------------------------------------------------------------

// Tag identifies the kind of the record or value that follows it in the
// stream.
type Tag byte

const (
	TagInvalid Tag = iota
	TagDeclare
	TagObject
	TagRef
	TagRefSlice
	TagBool
	TagInt8
	TagInt16
	TagInt32
	TagInt64
	TagUint8
	TagUint16
	TagUint32
	TagUint64
	TagFloat32
	TagFloat64
	TagString
	TagBytes
)

// TagUser is the first tag value available to caller-registered primitive
// kinds. Tags below it are reserved.
const TagUser Tag = 0x20

var tagNames = map[Tag]string{
	TagDeclare:  "declare",
	TagObject:   "object",
	TagRef:      "ref",
	TagRefSlice: "refs",
	TagBool:     "bool",
	TagInt8:     "int8",
	TagInt16:    "int16",
	TagInt32:    "int32",
	TagInt64:    "int64",
	TagUint8:    "uint8",
	TagUint16:   "uint16",
	TagUint32:   "uint32",
	TagUint64:   "uint64",
	TagFloat32:  "float32",
	TagFloat64:  "float64",
	TagString:   "string",
	TagBytes:    "bytes",
}

var tagValues = make(map[string]Tag, len(tagNames))

func init() {
	for t, name := range tagNames {
		tagValues[name] = t
	}
}

// String returns the token form of the tag, as used by the text encoding.
// Tags without a reserved name render as "tag<N>".
func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return "tag" + strconv.FormatUint(uint64(t), 10)
}

// ParseTag maps a token back to its Tag. It accepts both reserved names and
// the "tag<N>" form.
func ParseTag(s string) (Tag, bool) {
	if t, ok := tagValues[s]; ok {
		return t, true
	}
	if rest, ok := strings.CutPrefix(s, "tag"); ok {
		n, err := strconv.ParseUint(rest, 10, 8)
		if err == nil && Tag(n) != TagInvalid {
			return Tag(n), true
		}
	}
	return TagInvalid, false
}

// ---------------------------------------------------------------------------
// Format contracts
// ---------------------------------------------------------------------------

// Writer is the low-level emission contract driven by the graph serializer.
// Implementations latch the first underlying fault: once a write fails,
// every later call is a no-op and Err reports the fault. Hint methods carry
// no data; the binary encoding ignores them.
type Writer interface {
	WriteDataType(t Tag)
	WriteName(name string)
	WriteCount(n int)
	WriteIdentifier(id Identifier)

	WriteBool(v bool)
	WriteInt8(v int8)
	WriteInt16(v int16)
	WriteInt32(v int32)
	WriteInt64(v int64)
	WriteUint8(v uint8)
	WriteUint16(v uint16)
	WriteUint32(v uint32)
	WriteUint64(v uint64)
	WriteFloat32(v float32)
	WriteFloat64(v float64)
	WriteString(v string)
	WriteBytes(v []byte)

	HintNextItem()
	HintIndentUp()
	HintIndentDown()

	// Err returns the first fault encountered, or nil.
	Err() error
}

// Reader is the inverse contract. Each call consumes exactly what the
// matching Writer call produced. ReadDataType returns io.EOF at a clean end
// of stream; every other method treats end of input as corruption.
type Reader interface {
	ReadDataType() (Tag, error)
	ReadName() (string, error)
	ReadCount() (int, error)
	ReadIdentifier() (Identifier, error)

	ReadBool() (bool, error)
	ReadInt8() (int8, error)
	ReadInt16() (int16, error)
	ReadInt32() (int32, error)
	ReadInt64() (int64, error)
	ReadUint8() (uint8, error)
	ReadUint16() (uint16, error)
	ReadUint32() (uint32, error)
	ReadUint64() (uint64, error)
	ReadFloat32() (float32, error)
	ReadFloat64() (float64, error)
	ReadString() (string, error)
	ReadBytes() ([]byte, error)
}

func corruptf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptStream, fmt.Sprintf(format, args...))
}
