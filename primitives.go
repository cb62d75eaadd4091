package objstream

import (
	"fmt"

	"github.com/chazu/objstream/schema"
	"github.com/chazu/objstream/wire"
)

// ---------------------------------------------------------------------------
// Primitive codec registration
// ---------------------------------------------------------------------------

// PrimitiveCodec binds one value kind to its wire form: the data-type tag
// emitted in declarations, and the routines writing and reading one value.
// Write emits a boundary hint followed by the value.
type PrimitiveCodec struct {
	Tag   wire.Tag
	Write func(w wire.Writer, v schema.Value)
	Read  func(r wire.Reader) (schema.Value, error)
}

// PrimitiveSet is the kind -> codec table the serializer dispatches
// through. Build one at process initialization, register any caller-defined
// kinds, and pass it by reference to writers and readers; it holds no
// session state and must not be mutated afterwards.
type PrimitiveSet struct {
	byKind map[schema.Kind]PrimitiveCodec
	byTag  map[wire.Tag]schema.Kind
}

// NewPrimitiveSet creates an empty codec table.
func NewPrimitiveSet() *PrimitiveSet {
	return &PrimitiveSet{
		byKind: make(map[schema.Kind]PrimitiveCodec),
		byTag:  make(map[wire.Tag]schema.Kind),
	}
}

// Register binds a codec to a kind. Reference kinds are handled by the
// serializer itself and cannot take codecs; kinds and tags must be unique
// within the set.
func (ps *PrimitiveSet) Register(kind schema.Kind, codec PrimitiveCodec) error {
	if kind == schema.KindInvalid || kind.IsReference() {
		return fmt.Errorf("objstream: kind %s cannot take a codec", kind)
	}
	if codec.Tag == wire.TagInvalid || codec.Tag == wire.TagDeclare ||
		codec.Tag == wire.TagObject || codec.Tag == wire.TagRef || codec.Tag == wire.TagRefSlice {
		return fmt.Errorf("objstream: tag %s is reserved", codec.Tag)
	}
	if codec.Write == nil || codec.Read == nil {
		return fmt.Errorf("objstream: codec for %s lacks write or read", kind)
	}
	if _, dup := ps.byKind[kind]; dup {
		return fmt.Errorf("objstream: kind %s already registered", kind)
	}
	if prev, dup := ps.byTag[codec.Tag]; dup {
		return fmt.Errorf("objstream: tag %s already taken by kind %s", codec.Tag, prev)
	}
	ps.byKind[kind] = codec
	ps.byTag[codec.Tag] = kind
	return nil
}

// Lookup returns the codec for a kind.
func (ps *PrimitiveSet) Lookup(kind schema.Kind) (PrimitiveCodec, bool) {
	c, ok := ps.byKind[kind]
	return c, ok
}

// KindOf returns the kind a data-type tag was registered under.
func (ps *PrimitiveSet) KindOf(tag wire.Tag) (schema.Kind, bool) {
	k, ok := ps.byTag[tag]
	return k, ok
}

// DefaultPrimitives builds a fresh codec table covering every built-in
// primitive kind.
func DefaultPrimitives() *PrimitiveSet {
	ps := NewPrimitiveSet()
	reg := func(kind schema.Kind, codec PrimitiveCodec) {
		if err := ps.Register(kind, codec); err != nil {
			panic(err)
		}
	}
	reg(schema.KindBool, PrimitiveCodec{
		Tag:   wire.TagBool,
		Write: func(w wire.Writer, v schema.Value) { w.HintNextItem(); w.WriteBool(v.AsBool()) },
		Read: func(r wire.Reader) (schema.Value, error) {
			x, err := r.ReadBool()
			return schema.FromBool(x), err
		},
	})
	reg(schema.KindInt8, PrimitiveCodec{
		Tag:   wire.TagInt8,
		Write: func(w wire.Writer, v schema.Value) { w.HintNextItem(); w.WriteInt8(v.AsInt8()) },
		Read: func(r wire.Reader) (schema.Value, error) {
			x, err := r.ReadInt8()
			return schema.FromInt8(x), err
		},
	})
	reg(schema.KindInt16, PrimitiveCodec{
		Tag:   wire.TagInt16,
		Write: func(w wire.Writer, v schema.Value) { w.HintNextItem(); w.WriteInt16(v.AsInt16()) },
		Read: func(r wire.Reader) (schema.Value, error) {
			x, err := r.ReadInt16()
			return schema.FromInt16(x), err
		},
	})
	reg(schema.KindInt32, PrimitiveCodec{
		Tag:   wire.TagInt32,
		Write: func(w wire.Writer, v schema.Value) { w.HintNextItem(); w.WriteInt32(v.AsInt32()) },
		Read: func(r wire.Reader) (schema.Value, error) {
			x, err := r.ReadInt32()
			return schema.FromInt32(x), err
		},
	})
	reg(schema.KindInt64, PrimitiveCodec{
		Tag:   wire.TagInt64,
		Write: func(w wire.Writer, v schema.Value) { w.HintNextItem(); w.WriteInt64(v.AsInt64()) },
		Read: func(r wire.Reader) (schema.Value, error) {
			x, err := r.ReadInt64()
			return schema.FromInt64(x), err
		},
	})
	reg(schema.KindUint8, PrimitiveCodec{
		Tag:   wire.TagUint8,
		Write: func(w wire.Writer, v schema.Value) { w.HintNextItem(); w.WriteUint8(v.AsUint8()) },
		Read: func(r wire.Reader) (schema.Value, error) {
			x, err := r.ReadUint8()
			return schema.FromUint8(x), err
		},
	})
	reg(schema.KindUint16, PrimitiveCodec{
		Tag:   wire.TagUint16,
		Write: func(w wire.Writer, v schema.Value) { w.HintNextItem(); w.WriteUint16(v.AsUint16()) },
		Read: func(r wire.Reader) (schema.Value, error) {
			x, err := r.ReadUint16()
			return schema.FromUint16(x), err
		},
	})
	reg(schema.KindUint32, PrimitiveCodec{
		Tag:   wire.TagUint32,
		Write: func(w wire.Writer, v schema.Value) { w.HintNextItem(); w.WriteUint32(v.AsUint32()) },
		Read: func(r wire.Reader) (schema.Value, error) {
			x, err := r.ReadUint32()
			return schema.FromUint32(x), err
		},
	})
	reg(schema.KindUint64, PrimitiveCodec{
		Tag:   wire.TagUint64,
		Write: func(w wire.Writer, v schema.Value) { w.HintNextItem(); w.WriteUint64(v.AsUint64()) },
		Read: func(r wire.Reader) (schema.Value, error) {
			x, err := r.ReadUint64()
			return schema.FromUint64(x), err
		},
	})
	reg(schema.KindFloat32, PrimitiveCodec{
		Tag:   wire.TagFloat32,
		Write: func(w wire.Writer, v schema.Value) { w.HintNextItem(); w.WriteFloat32(v.AsFloat32()) },
		Read: func(r wire.Reader) (schema.Value, error) {
			x, err := r.ReadFloat32()
			return schema.FromFloat32(x), err
		},
	})
	reg(schema.KindFloat64, PrimitiveCodec{
		Tag:   wire.TagFloat64,
		Write: func(w wire.Writer, v schema.Value) { w.HintNextItem(); w.WriteFloat64(v.AsFloat64()) },
		Read: func(r wire.Reader) (schema.Value, error) {
			x, err := r.ReadFloat64()
			return schema.FromFloat64(x), err
		},
	})
	reg(schema.KindString, PrimitiveCodec{
		Tag:   wire.TagString,
		Write: func(w wire.Writer, v schema.Value) { w.HintNextItem(); w.WriteString(v.AsString()) },
		Read: func(r wire.Reader) (schema.Value, error) {
			x, err := r.ReadString()
			return schema.FromString(x), err
		},
	})
	reg(schema.KindBytes, PrimitiveCodec{
		Tag:   wire.TagBytes,
		Write: func(w wire.Writer, v schema.Value) { w.HintNextItem(); w.WriteBytes(v.AsBytes()) },
		Read: func(r wire.Reader) (schema.Value, error) {
			x, err := r.ReadBytes()
			return schema.FromBytes(x), err
		},
	})
	return ps
}
