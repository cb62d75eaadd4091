package schema

import (
	"errors"
	"testing"
)

func mustType(t *testing.T, name string, attrs ...Attribute) *Type {
	t.Helper()
	typ, err := NewType(name, attrs...)
	if err != nil {
		t.Fatalf("NewType(%s) failed: %v", name, err)
	}
	return typ
}

// ---------------------------------------------------------------------------
// Type construction tests
// ---------------------------------------------------------------------------

func TestNewType(t *testing.T) {
	point := mustType(t, "Point",
		Attribute{Name: "x", Kind: KindInt64},
		Attribute{Name: "y", Kind: KindInt64},
	)
	if point.Name() != "Point" {
		t.Errorf("Name() = %q, want %q", point.Name(), "Point")
	}
	if point.NumAttributes() != 2 {
		t.Errorf("NumAttributes() = %d, want 2", point.NumAttributes())
	}
	if point.Streamed() != 2 {
		t.Errorf("Streamed() = %d, want 2", point.Streamed())
	}
	if got := point.Attribute(1).Name; got != "y" {
		t.Errorf("Attribute(1).Name = %q, want %q", got, "y")
	}
	if i := point.Index("y"); i != 1 {
		t.Errorf("Index(y) = %d, want 1", i)
	}
	if i := point.Index("z"); i != -1 {
		t.Errorf("Index(z) = %d, want -1", i)
	}
}

func TestNewTypeValidation(t *testing.T) {
	point := mustType(t, "Point", Attribute{Name: "x", Kind: KindInt64})
	cases := []struct {
		label string
		name  string
		attrs []Attribute
	}{
		{"empty type name", "", nil},
		{"spacey type name", "two words", nil},
		{"control in type name", "a\nb", nil},
		{"empty attribute name", "T", []Attribute{{Name: "", Kind: KindBool}}},
		{"duplicate attribute", "T", []Attribute{
			{Name: "a", Kind: KindBool}, {Name: "a", Kind: KindInt8}}},
		{"invalid kind", "T", []Attribute{{Name: "a", Kind: KindInvalid}}},
		{"reserved kind value", "T", []Attribute{{Name: "a", Kind: KindRefSlice + 1}}},
		{"member on primitive", "T", []Attribute{
			{Name: "a", Kind: KindBool, Member: point}}},
	}
	for _, c := range cases {
		if _, err := NewType(c.name, c.attrs...); err == nil {
			t.Errorf("%s: NewType succeeded, want error", c.label)
		}
	}
}

func TestNewTypeTransientCount(t *testing.T) {
	typ := mustType(t, "T",
		Attribute{Name: "a", Kind: KindBool},
		Attribute{Name: "b", Kind: KindInt32, Transient: true},
		Attribute{Name: "c", Kind: KindString},
	)
	if typ.NumAttributes() != 3 {
		t.Errorf("NumAttributes() = %d, want 3", typ.NumAttributes())
	}
	if typ.Streamed() != 2 {
		t.Errorf("Streamed() = %d, want 2", typ.Streamed())
	}
}

func TestNewTypeUserKind(t *testing.T) {
	const kindColor = KindUser + 3
	typ, err := NewType("Pixel", Attribute{Name: "c", Kind: kindColor})
	if err != nil {
		t.Fatalf("NewType with user kind failed: %v", err)
	}
	if got := typ.Attribute(0).Kind; got != kindColor {
		t.Errorf("Attribute(0).Kind = %v, want %v", got, kindColor)
	}
}

func TestBindMember(t *testing.T) {
	node := mustType(t, "Node",
		Attribute{Name: "value", Kind: KindInt32},
		Attribute{Name: "next", Kind: KindRef},
	)
	if node.Attribute(1).Member != nil {
		t.Error("open reference has a member, want nil")
	}
	if err := node.BindMember("next", node); err != nil {
		t.Fatalf("BindMember failed: %v", err)
	}
	if node.Attribute(1).Member != node {
		t.Error("BindMember did not close the reference")
	}
}

func TestBindMemberErrors(t *testing.T) {
	node := mustType(t, "Node",
		Attribute{Name: "value", Kind: KindInt32},
		Attribute{Name: "next", Kind: KindRef},
	)
	if err := node.BindMember("missing", node); err == nil {
		t.Error("BindMember on unknown attribute succeeded")
	}
	if err := node.BindMember("value", node); err == nil {
		t.Error("BindMember on non-reference attribute succeeded")
	}
	if err := node.BindMember("next", nil); err == nil {
		t.Error("BindMember with nil member succeeded")
	}
	if err := node.BindMember("next", node); err != nil {
		t.Fatalf("BindMember failed: %v", err)
	}
	if err := node.BindMember("next", node); err == nil {
		t.Error("BindMember rebound an already bound attribute")
	}
}

// ---------------------------------------------------------------------------
// Registry tests
// ---------------------------------------------------------------------------

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	point := mustType(t, "Point", Attribute{Name: "x", Kind: KindInt64})
	if err := reg.Register(point); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if got := reg.Lookup("Point"); got != point {
		t.Errorf("Lookup(Point) = %v, want the registered type", got)
	}
	if reg.Lookup("Missing") != nil {
		t.Error("Lookup(Missing) returned a type, want nil")
	}
	if !reg.Has("Point") || reg.Has("Missing") {
		t.Error("Has() answers are wrong")
	}
	if reg.Len() != 1 {
		t.Errorf("Len() = %d, want 1", reg.Len())
	}
	if all := reg.All(); len(all) != 1 || all[0] != point {
		t.Errorf("All() = %v, want [Point]", all)
	}
}

func TestRegistryDuplicate(t *testing.T) {
	reg := NewRegistry()
	first := mustType(t, "Point", Attribute{Name: "x", Kind: KindInt64})
	second := mustType(t, "Point", Attribute{Name: "y", Kind: KindInt64})
	if err := reg.Register(first); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	err := reg.Register(second)
	if !errors.Is(err, ErrDuplicateType) {
		t.Errorf("duplicate Register = %v, want ErrDuplicateType", err)
	}
	if reg.Lookup("Point") != first {
		t.Error("duplicate Register displaced the original type")
	}
}

func TestRegistryNil(t *testing.T) {
	if err := NewRegistry().Register(nil); err == nil {
		t.Error("Register(nil) succeeded, want error")
	}
}

// ---------------------------------------------------------------------------
// Instance tests
// ---------------------------------------------------------------------------

func TestNewInstanceZeroSlots(t *testing.T) {
	node := mustType(t, "Node", Attribute{Name: "value", Kind: KindInt64})
	linked, err := NewType("Linked",
		Attribute{Name: "flag", Kind: KindBool},
		Attribute{Name: "label", Kind: KindString},
		Attribute{Name: "raw", Kind: KindBytes},
		Attribute{Name: "next", Kind: KindRef, Member: node},
		Attribute{Name: "kids", Kind: KindRefSlice, Member: node},
	)
	if err != nil {
		t.Fatalf("NewType failed: %v", err)
	}
	in := NewInstance(linked)
	if in.Type() != linked {
		t.Error("Type() does not return the constructing type")
	}
	if in.Get(0).AsBool() != false {
		t.Error("bool slot not zero")
	}
	if in.Get(1).AsString() != "" {
		t.Error("string slot not zero")
	}
	if in.Get(2).AsBytes() != nil {
		t.Error("bytes slot not zero")
	}
	if in.Get(3).AsRef() != nil {
		t.Error("ref slot not zero")
	}
	if len(in.Get(4).AsRefs()) != 0 {
		t.Error("refs slot not zero")
	}
}

func TestInstanceSetGet(t *testing.T) {
	point := mustType(t, "Point",
		Attribute{Name: "x", Kind: KindInt64},
		Attribute{Name: "y", Kind: KindInt64},
	)
	in := NewInstance(point)
	in.Set(0, FromInt64(-3))
	in.SetField("y", FromInt64(14))
	if got := in.Get(0).AsInt64(); got != -3 {
		t.Errorf("Get(0) = %d, want -3", got)
	}
	if got := in.Field("y").AsInt64(); got != 14 {
		t.Errorf("Field(y) = %d, want 14", got)
	}
}

func TestInstanceSetKindMismatch(t *testing.T) {
	point := mustType(t, "Point", Attribute{Name: "x", Kind: KindInt64})
	in := NewInstance(point)
	defer func() {
		if recover() == nil {
			t.Error("kind mismatch did not panic")
		}
	}()
	in.Set(0, FromString("not an int"))
}

func TestInstanceSetMemberMismatch(t *testing.T) {
	node := mustType(t, "Node", Attribute{Name: "value", Kind: KindInt64})
	other := mustType(t, "Other", Attribute{Name: "value", Kind: KindInt64})
	holder := mustType(t, "Holder", Attribute{Name: "next", Kind: KindRef, Member: node})
	in := NewInstance(holder)

	// Correct member type and nil are both fine.
	in.Set(0, FromRef(NewInstance(node)))
	in.Set(0, FromRef(nil))

	defer func() {
		if recover() == nil {
			t.Error("member mismatch did not panic")
		}
	}()
	in.Set(0, FromRef(NewInstance(other)))
}

func TestInstanceUnknownField(t *testing.T) {
	point := mustType(t, "Point", Attribute{Name: "x", Kind: KindInt64})
	in := NewInstance(point)
	defer func() {
		if recover() == nil {
			t.Error("unknown field did not panic")
		}
	}()
	in.Field("z")
}

func TestNewInstanceNilType(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewInstance(nil) did not panic")
		}
	}()
	NewInstance(nil)
}
