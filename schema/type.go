// Package schema supplies the runtime type metadata that drives graph
// serialization: type descriptors with ordered attribute lists, the tagged
// value representation instances store in their slots, and a registry
// mapping stable on-wire names to types.
package schema

import (
	"fmt"
	"unicode"
)

// ---------------------------------------------------------------------------
// Kind: attribute value classification
// ---------------------------------------------------------------------------

// Kind tags the value classification of an attribute. Kinds below KindUser
// are built in; callers may define further kinds from KindUser upward and
// register codecs for them.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindString
	KindBytes
	KindRef
	KindRefSlice
)

// KindUser is the first kind value available for caller-defined primitives.
const KindUser Kind = 64

var kindNames = map[Kind]string{
	KindBool:     "bool",
	KindInt8:     "int8",
	KindInt16:    "int16",
	KindInt32:    "int32",
	KindInt64:    "int64",
	KindUint8:    "uint8",
	KindUint16:   "uint16",
	KindUint32:   "uint32",
	KindUint64:   "uint64",
	KindFloat32:  "float32",
	KindFloat64:  "float64",
	KindString:   "string",
	KindBytes:    "bytes",
	KindRef:      "ref",
	KindRefSlice: "refs",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind%d", uint8(k))
}

// IsReference reports whether values of this kind point at other instances.
func (k Kind) IsReference() bool {
	return k == KindRef || k == KindRefSlice
}

func (k Kind) valid() bool {
	return (k > KindInvalid && k <= KindRefSlice) || k >= KindUser
}

// ---------------------------------------------------------------------------
// Attribute and Type
// ---------------------------------------------------------------------------

// Attribute describes one named slot of a reflected type. Member names the
// target type for reference kinds; a nil Member leaves the reference open
// to any class, and BindMember can close it later. Transient attributes
// exist on instances but are excluded from serialized streams.
type Attribute struct {
	Name      string
	Kind      Kind
	Member    *Type
	Transient bool
}

// Type is a descriptor of a reflected type: a stable name plus an ordered
// attribute list. Construct with NewType; the attribute order given there
// is the declaration and data order on the wire. Once a type has been
// registered or handed to a writer it must not be changed.
type Type struct {
	name     string
	attrs    []Attribute
	index    map[string]int
	streamed int
}

// NewType validates and builds a type descriptor. Names must be non-empty
// single tokens and attribute names unique within the type.
func NewType(name string, attrs ...Attribute) (*Type, error) {
	if !nameOK(name) {
		return nil, fmt.Errorf("schema: bad type name %q", name)
	}
	t := &Type{
		name:  name,
		attrs: make([]Attribute, len(attrs)),
		index: make(map[string]int, len(attrs)),
	}
	copy(t.attrs, attrs)
	for i, a := range t.attrs {
		if !nameOK(a.Name) {
			return nil, fmt.Errorf("schema: %s: bad attribute name %q", name, a.Name)
		}
		if _, dup := t.index[a.Name]; dup {
			return nil, fmt.Errorf("schema: %s: duplicate attribute %q", name, a.Name)
		}
		if !a.Kind.valid() {
			return nil, fmt.Errorf("schema: %s.%s: invalid kind %s", name, a.Name, a.Kind)
		}
		if a.Member != nil && !a.Kind.IsReference() {
			return nil, fmt.Errorf("schema: %s.%s: member type on non-reference attribute", name, a.Name)
		}
		t.index[a.Name] = i
		if !a.Transient {
			t.streamed++
		}
	}
	return t, nil
}

// BindMember closes an open reference attribute to a member type. Self and
// mutually recursive classes need this, since their member types do not
// exist yet while the attribute list is being built. An attribute binds at
// most once.
func (t *Type) BindMember(name string, member *Type) error {
	i := t.Index(name)
	if i < 0 {
		return fmt.Errorf("schema: %s: no attribute %q", t.name, name)
	}
	a := &t.attrs[i]
	if !a.Kind.IsReference() {
		return fmt.Errorf("schema: %s.%s: member type on non-reference attribute", t.name, name)
	}
	if member == nil {
		return fmt.Errorf("schema: %s.%s: nil member type", t.name, name)
	}
	if a.Member != nil {
		return fmt.Errorf("schema: %s.%s: member type already bound to %s", t.name, name, a.Member.name)
	}
	a.Member = member
	return nil
}

// nameOK accepts names that survive as single tokens in the text encoding.
func nameOK(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if unicode.IsSpace(r) || unicode.IsControl(r) || r == '"' {
			return false
		}
	}
	return true
}

// Name returns the stable on-wire name.
func (t *Type) Name() string { return t.name }

// NumAttributes returns the attribute count, transient ones included.
func (t *Type) NumAttributes() int { return len(t.attrs) }

// Attribute returns the attribute at slot i.
func (t *Type) Attribute(i int) Attribute { return t.attrs[i] }

// Index returns the slot index for an attribute by name.
// Returns -1 if the attribute is not found.
func (t *Type) Index(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Streamed returns the number of non-transient attributes, which is the
// attribute count a declaration record carries.
func (t *Type) Streamed() int { return t.streamed }
