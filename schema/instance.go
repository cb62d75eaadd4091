package schema

import "fmt"

// ---------------------------------------------------------------------------
// Instance: one reflected object
// ---------------------------------------------------------------------------

// Instance is one live object of a reflected type: the type descriptor plus
// one value slot per attribute. Instance identity (the pointer) is what the
// serializer keys identifiers on, so instances must not be copied by value
// once they participate in a graph.
type Instance struct {
	typ   *Type
	slots []Value
}

// NewInstance allocates an instance with every slot set to its attribute's
// zero value.
func NewInstance(t *Type) *Instance {
	if t == nil {
		panic("schema: nil type")
	}
	slots := make([]Value, len(t.attrs))
	for i, a := range t.attrs {
		slots[i] = zeroOf(a.Kind)
	}
	return &Instance{typ: t, slots: slots}
}

// Type returns the instance's type descriptor.
func (in *Instance) Type() *Type { return in.typ }

// Get returns the value in slot i.
func (in *Instance) Get(i int) Value { return in.slots[i] }

// Set stores v into slot i. The value's kind must match the attribute's
// kind, and reference targets must match the attribute's member type when
// one is declared; violations are programming errors and panic.
func (in *Instance) Set(i int, v Value) {
	a := in.typ.attrs[i]
	if v.kind != a.Kind {
		panic(fmt.Sprintf("schema: attribute %s.%s holds %s, got %s",
			in.typ.name, a.Name, a.Kind, v.kind))
	}
	if a.Member != nil {
		switch a.Kind {
		case KindRef:
			in.checkMember(a, v.ref)
		case KindRefSlice:
			for _, target := range v.refs {
				in.checkMember(a, target)
			}
		}
	}
	in.slots[i] = v
}

func (in *Instance) checkMember(a Attribute, target *Instance) {
	if target != nil && target.typ != a.Member {
		panic(fmt.Sprintf("schema: attribute %s.%s references %s, got %s",
			in.typ.name, a.Name, a.Member.name, target.typ.name))
	}
}

// Field returns the value of the named attribute.
func (in *Instance) Field(name string) Value {
	i := in.typ.Index(name)
	if i < 0 {
		panic(fmt.Sprintf("schema: %s has no attribute %q", in.typ.name, name))
	}
	return in.slots[i]
}

// SetField stores v into the named attribute's slot.
func (in *Instance) SetField(name string, v Value) {
	i := in.typ.Index(name)
	if i < 0 {
		panic(fmt.Sprintf("schema: %s has no attribute %q", in.typ.name, name))
	}
	in.Set(i, v)
}
