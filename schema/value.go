package schema

import (
	"fmt"
	"math"
	"strconv"
)

// ---------------------------------------------------------------------------
// Value: tagged slot representation
// ---------------------------------------------------------------------------

// Value is the runtime representation of one attribute slot. Every value
// carries its Kind plus a payload in one of the built-in representations;
// caller-defined kinds reuse a built-in representation via WithKind.
// Accessing a payload through the wrong representation panics.
type Value struct {
	kind Kind
	rep  Kind
	num  uint64
	str  string
	blob []byte
	ref  *Instance
	refs []*Instance
}

// Kind returns the declared kind of the value.
func (v Value) Kind() Kind { return v.kind }

// WithKind returns a copy of v tagged with kind k, keeping the payload
// representation. Codecs for caller-defined kinds use it to carry their
// values in a built-in representation.
func (v Value) WithKind(k Kind) Value {
	v.kind = k
	return v
}

func (v Value) require(rep Kind) {
	if v.rep != rep {
		panic(fmt.Sprintf("schema: value holds %s, not %s", v.rep, rep))
	}
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

func FromBool(b bool) Value {
	var n uint64
	if b {
		n = 1
	}
	return Value{kind: KindBool, rep: KindBool, num: n}
}

func FromInt8(n int8) Value {
	return Value{kind: KindInt8, rep: KindInt8, num: uint64(n)}
}

func FromInt16(n int16) Value {
	return Value{kind: KindInt16, rep: KindInt16, num: uint64(n)}
}

func FromInt32(n int32) Value {
	return Value{kind: KindInt32, rep: KindInt32, num: uint64(n)}
}

func FromInt64(n int64) Value {
	return Value{kind: KindInt64, rep: KindInt64, num: uint64(n)}
}

func FromUint8(n uint8) Value {
	return Value{kind: KindUint8, rep: KindUint8, num: uint64(n)}
}

func FromUint16(n uint16) Value {
	return Value{kind: KindUint16, rep: KindUint16, num: uint64(n)}
}

func FromUint32(n uint32) Value {
	return Value{kind: KindUint32, rep: KindUint32, num: uint64(n)}
}

func FromUint64(n uint64) Value {
	return Value{kind: KindUint64, rep: KindUint64, num: n}
}

func FromFloat32(f float32) Value {
	return Value{kind: KindFloat32, rep: KindFloat32, num: uint64(math.Float32bits(f))}
}

func FromFloat64(f float64) Value {
	return Value{kind: KindFloat64, rep: KindFloat64, num: math.Float64bits(f)}
}

func FromString(s string) Value {
	return Value{kind: KindString, rep: KindString, str: s}
}

func FromBytes(p []byte) Value {
	return Value{kind: KindBytes, rep: KindBytes, blob: p}
}

// FromRef builds a reference value; target may be nil for an absent
// reference.
func FromRef(target *Instance) Value {
	return Value{kind: KindRef, rep: KindRef, ref: target}
}

// FromRefs builds a reference-slice value. The slice is held, not copied.
func FromRefs(targets ...*Instance) Value {
	return Value{kind: KindRefSlice, rep: KindRefSlice, refs: targets}
}

// zeroOf returns the zero value for an attribute of kind k. Caller-defined
// kinds zero to an empty bytes representation.
func zeroOf(k Kind) Value {
	switch {
	case k >= KindUser:
		return Value{kind: k, rep: KindBytes}
	case k == KindString:
		return Value{kind: k, rep: KindString}
	case k == KindBytes:
		return Value{kind: k, rep: KindBytes}
	case k == KindRef:
		return Value{kind: k, rep: KindRef}
	case k == KindRefSlice:
		return Value{kind: k, rep: KindRefSlice}
	default:
		return Value{kind: k, rep: k}
	}
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (v Value) AsBool() bool {
	v.require(KindBool)
	return v.num != 0
}

func (v Value) AsInt8() int8 {
	v.require(KindInt8)
	return int8(v.num)
}

func (v Value) AsInt16() int16 {
	v.require(KindInt16)
	return int16(v.num)
}

func (v Value) AsInt32() int32 {
	v.require(KindInt32)
	return int32(v.num)
}

func (v Value) AsInt64() int64 {
	v.require(KindInt64)
	return int64(v.num)
}

func (v Value) AsUint8() uint8 {
	v.require(KindUint8)
	return uint8(v.num)
}

func (v Value) AsUint16() uint16 {
	v.require(KindUint16)
	return uint16(v.num)
}

func (v Value) AsUint32() uint32 {
	v.require(KindUint32)
	return uint32(v.num)
}

func (v Value) AsUint64() uint64 {
	v.require(KindUint64)
	return v.num
}

func (v Value) AsFloat32() float32 {
	v.require(KindFloat32)
	return math.Float32frombits(uint32(v.num))
}

func (v Value) AsFloat64() float64 {
	v.require(KindFloat64)
	return math.Float64frombits(v.num)
}

func (v Value) AsString() string {
	v.require(KindString)
	return v.str
}

func (v Value) AsBytes() []byte {
	v.require(KindBytes)
	return v.blob
}

func (v Value) AsRef() *Instance {
	v.require(KindRef)
	return v.ref
}

func (v Value) AsRefs() []*Instance {
	v.require(KindRefSlice)
	return v.refs
}

// String renders a debugging form; it is not the string payload accessor.
func (v Value) String() string {
	switch v.rep {
	case KindBool:
		return fmt.Sprintf("%s(%v)", v.kind, v.num != 0)
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return fmt.Sprintf("%s(%d)", v.kind, int64(v.num))
	case KindUint8, KindUint16, KindUint32, KindUint64:
		return fmt.Sprintf("%s(%d)", v.kind, v.num)
	case KindFloat32:
		return fmt.Sprintf("%s(%g)", v.kind, math.Float32frombits(uint32(v.num)))
	case KindFloat64:
		return fmt.Sprintf("%s(%g)", v.kind, math.Float64frombits(v.num))
	case KindString:
		return fmt.Sprintf("%s(%s)", v.kind, strconv.Quote(v.str))
	case KindBytes:
		return fmt.Sprintf("%s(%d bytes)", v.kind, len(v.blob))
	case KindRef:
		if v.ref == nil {
			return fmt.Sprintf("%s(nil)", v.kind)
		}
		return fmt.Sprintf("%s(%s)", v.kind, v.ref.typ.name)
	case KindRefSlice:
		return fmt.Sprintf("%s(%d refs)", v.kind, len(v.refs))
	}
	return fmt.Sprintf("%s(invalid)", v.kind)
}
