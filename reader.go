package objstream

import (
	"errors"
	"fmt"
	"io"

	"github.com/chazu/objstream/schema"
	"github.com/chazu/objstream/wire"
)

var (
	ErrUnknownClass        = errors.New("objstream: class not in registry")
	ErrUndeclaredClass     = errors.New("objstream: object precedes its class declaration")
	ErrSchemaMismatch      = errors.New("objstream: declaration does not match registered class")
	ErrDuplicateClass      = errors.New("objstream: class declared twice")
	ErrDuplicateIdentifier = errors.New("objstream: identifier written twice")
	ErrDanglingReference   = errors.New("objstream: reference to identifier never written")
	ErrNoRoot              = errors.New("objstream: stream holds no objects")
)

// ---------------------------------------------------------------------------
// Reader
// ---------------------------------------------------------------------------

// fixup defers one reference slot until every object in the stream has been
// materialized. Forward references and cycles resolve in a single pass at
// the end.
type fixup struct {
	inst  *schema.Instance
	slot  int
	slice bool
	ids   []wire.Identifier
}

// Reader reconstructs an object graph written by a Writer. Class names
// resolve through a Registry; in dynamic mode classes are synthesized from
// the stream's own declarations instead. The encoding is detected from the
// stream header.
//
// A Reader is single threaded and reads one stream.
type Reader struct {
	in      wire.Reader
	reg     *schema.Registry
	prims   *PrimitiveSet
	dynamic bool

	instances map[wire.Identifier]*schema.Instance
	classes   map[string]*schema.Type
	fixups    []fixup
	root      *schema.Instance
}

// NewReader creates a Reader resolving classes through reg with the
// built-in primitive codecs.
func NewReader(in io.Reader, reg *schema.Registry) (*Reader, error) {
	return NewReaderWith(in, reg, DefaultPrimitives())
}

// NewReaderWith creates a Reader dispatching through a caller-supplied
// codec table.
func NewReaderWith(in io.Reader, reg *schema.Registry, prims *PrimitiveSet) (*Reader, error) {
	wr, err := newWireReader(in)
	if err != nil {
		return nil, err
	}
	return &Reader{
		in:        wr,
		reg:       reg,
		prims:     prims,
		instances: make(map[wire.Identifier]*schema.Instance),
		classes:   make(map[string]*schema.Type),
	}, nil
}

// NewDynamicReader creates a Reader that trusts the stream's declarations,
// synthesizing a class for each one. Useful for inspecting or converting
// streams whose classes are not linked into the process.
func NewDynamicReader(in io.Reader) (*Reader, error) {
	r, err := NewReaderWith(in, schema.NewRegistry(), DefaultPrimitives())
	if err != nil {
		return nil, err
	}
	r.dynamic = true
	return r, nil
}

// Read consumes the stream to its end and returns the root object, the
// first object written. References are resolved after the last record, so
// cycles and forward references reconstruct correctly.
func (r *Reader) Read() (*schema.Instance, error) {
	for {
		tag, err := r.in.ReadDataType()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch tag {
		case wire.TagDeclare:
			err = r.readDeclaration()
		case wire.TagObject:
			err = r.readObject()
		default:
			err = fmt.Errorf("%w: unexpected record tag %s", wire.ErrCorruptStream, tag)
		}
		if err != nil {
			return nil, err
		}
	}
	if err := r.resolve(); err != nil {
		return nil, err
	}
	if r.root == nil {
		return nil, ErrNoRoot
	}
	return r.root, nil
}

func (r *Reader) readDeclaration() error {
	name, err := r.in.ReadName()
	if err != nil {
		return err
	}
	count, err := r.in.ReadCount()
	if err != nil {
		return err
	}
	if _, dup := r.classes[name]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateClass, name)
	}

	attrs := make([]schema.Attribute, 0, count)
	for i := 0; i < count; i++ {
		aname, err := r.in.ReadName()
		if err != nil {
			return err
		}
		tag, err := r.in.ReadDataType()
		if errors.Is(err, io.EOF) {
			// Clean end of stream is only clean between records.
			err = io.ErrUnexpectedEOF
		}
		if err != nil {
			return err
		}
		kind, err := r.kindOf(tag)
		if err != nil {
			return fmt.Errorf("%s attribute %s: %w", name, aname, err)
		}
		attrs = append(attrs, schema.Attribute{Name: aname, Kind: kind})
	}

	t, err := r.bindClass(name, attrs)
	if err != nil {
		return err
	}
	r.classes[name] = t
	return nil
}

// kindOf maps a declared data-type tag back to a value kind.
func (r *Reader) kindOf(tag wire.Tag) (schema.Kind, error) {
	switch tag {
	case wire.TagRef:
		return schema.KindRef, nil
	case wire.TagRefSlice:
		return schema.KindRefSlice, nil
	}
	if kind, ok := r.prims.KindOf(tag); ok {
		return kind, nil
	}
	return schema.KindInvalid, fmt.Errorf("%w: no codec registered for tag %s", wire.ErrCorruptStream, tag)
}

// bindClass turns one stream declaration into the *Type instances will be
// built from. Dynamic mode synthesizes the class; otherwise the registered
// class is looked up and its streamed shape checked against the stream.
func (r *Reader) bindClass(name string, attrs []schema.Attribute) (*schema.Type, error) {
	if r.dynamic {
		t, err := schema.NewType(name, attrs...)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", wire.ErrCorruptStream, err)
		}
		if err := r.reg.Register(t); err != nil {
			return nil, err
		}
		return t, nil
	}

	t := r.reg.Lookup(name)
	if t == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClass, name)
	}
	if t.Streamed() != len(attrs) {
		return nil, fmt.Errorf("%w: %s declares %d attributes, registry has %d",
			ErrSchemaMismatch, name, len(attrs), t.Streamed())
	}
	j := 0
	for i := 0; i < t.NumAttributes(); i++ {
		a := t.Attribute(i)
		if a.Transient {
			continue
		}
		got := attrs[j]
		j++
		if got.Name != a.Name || got.Kind != a.Kind {
			return nil, fmt.Errorf("%w: %s attribute %d is %s %s, registry has %s %s",
				ErrSchemaMismatch, name, j-1, got.Name, got.Kind, a.Name, a.Kind)
		}
	}
	return t, nil
}

func (r *Reader) readObject() error {
	name, err := r.in.ReadName()
	if err != nil {
		return err
	}
	t, ok := r.classes[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUndeclaredClass, name)
	}
	id, err := r.in.ReadIdentifier()
	if err != nil {
		return err
	}
	if id == wire.NullIdentifier {
		return fmt.Errorf("%w: object with null identifier", wire.ErrCorruptStream)
	}
	if _, dup := r.instances[id]; dup {
		return fmt.Errorf("%w: %d", ErrDuplicateIdentifier, id)
	}

	inst := schema.NewInstance(t)
	r.instances[id] = inst
	if r.root == nil {
		r.root = inst
	}

	for i := 0; i < t.NumAttributes(); i++ {
		a := t.Attribute(i)
		if a.Transient {
			continue
		}
		switch a.Kind {
		case schema.KindRef:
			rid, err := r.in.ReadIdentifier()
			if err != nil {
				return err
			}
			r.fixups = append(r.fixups, fixup{inst: inst, slot: i, ids: []wire.Identifier{rid}})
		case schema.KindRefSlice:
			n, err := r.in.ReadCount()
			if err != nil {
				return err
			}
			ids := make([]wire.Identifier, n)
			for j := range ids {
				if ids[j], err = r.in.ReadIdentifier(); err != nil {
					return err
				}
			}
			r.fixups = append(r.fixups, fixup{inst: inst, slot: i, slice: true, ids: ids})
		default:
			codec, ok := r.prims.Lookup(a.Kind)
			if !ok {
				panic(fmt.Sprintf("objstream: no codec for %s attribute %s.%s", a.Kind, name, a.Name))
			}
			v, err := codec.Read(r.in)
			if err != nil {
				return err
			}
			inst.Set(i, v)
		}
	}
	return nil
}

// resolve patches every deferred reference slot now that all identifiers
// are known.
func (r *Reader) resolve() error {
	for _, f := range r.fixups {
		a := f.inst.Type().Attribute(f.slot)
		if f.slice {
			targets := make([]*schema.Instance, len(f.ids))
			for j, id := range f.ids {
				target, err := r.lookupRef(id, a)
				if err != nil {
					return err
				}
				targets[j] = target
			}
			f.inst.Set(f.slot, schema.FromRefs(targets...))
			continue
		}
		target, err := r.lookupRef(f.ids[0], a)
		if err != nil {
			return err
		}
		f.inst.Set(f.slot, schema.FromRef(target))
	}
	r.fixups = nil
	return nil
}

func (r *Reader) lookupRef(id wire.Identifier, a schema.Attribute) (*schema.Instance, error) {
	if id == wire.NullIdentifier {
		return nil, nil
	}
	target, ok := r.instances[id]
	if !ok {
		return nil, fmt.Errorf("%w: identifier %d", ErrDanglingReference, id)
	}
	if a.Member != nil && target.Type() != a.Member {
		return nil, fmt.Errorf("%w: attribute %s holds %s, stream delivered %s",
			ErrSchemaMismatch, a.Name, a.Member.Name(), target.Type().Name())
	}
	return target, nil
}
