package objstream

import (
	"errors"
	"fmt"
	"io"

	"github.com/chazu/objstream/schema"
	"github.com/chazu/objstream/wire"
)

var ErrNilRoot = errors.New("objstream: nil root instance")

// ---------------------------------------------------------------------------
// Writer
// ---------------------------------------------------------------------------

type objectInfo struct {
	id  wire.Identifier
	typ *schema.Type
}

// Writer serializes object graphs onto a wire encoding. Reachable objects
// are discovered breadth first; every class declaration is emitted before
// the first record that depends on it, and every distinct object is written
// exactly once no matter how many references lead to it.
//
// A Writer is single threaded. Each call to Write is an independent
// session: identifiers restart at 1 and classes are re-declared.
type Writer struct {
	out   wire.Writer
	prims *PrimitiveSet

	seen       map[*schema.Instance]objectInfo
	declared   map[*schema.Type]struct{}
	objQueue   []*schema.Instance
	classQueue []*schema.Type
	nextID     wire.Identifier
}

// NewWriter creates a Writer emitting the chosen encoding with the built-in
// primitive codecs.
func NewWriter(out io.Writer, format Format) *Writer {
	return NewWriterWith(out, format, DefaultPrimitives())
}

// NewWriterWith creates a Writer dispatching through a caller-supplied
// codec table.
func NewWriterWith(out io.Writer, format Format, prims *PrimitiveSet) *Writer {
	return &Writer{out: newWireWriter(out, format), prims: prims}
}

// Write serializes root and everything reachable from it. Prior session
// state is discarded, so writing the same graph twice produces two complete
// copies. A failing output stream halts traversal early and the underlying
// error is returned.
func (w *Writer) Write(root *schema.Instance) error {
	if root == nil {
		return ErrNilRoot
	}

	w.seen = make(map[*schema.Instance]objectInfo)
	w.declared = make(map[*schema.Type]struct{})
	w.objQueue = w.objQueue[:0]
	w.classQueue = w.classQueue[:0]
	w.nextID = wire.NullIdentifier + 1

	w.assign(root)
	w.writeObject(root)
	for len(w.objQueue) > 0 && w.out.Err() == nil {
		next := w.objQueue[0]
		w.objQueue = w.objQueue[1:]
		w.writeObject(next)
	}

	if err := w.out.Err(); err != nil {
		return fmt.Errorf("objstream: write failed: %w", err)
	}
	return nil
}

// assign hands inst the next identifier.
func (w *Writer) assign(inst *schema.Instance) wire.Identifier {
	id := w.nextID
	w.nextID++
	w.seen[inst] = objectInfo{id: id, typ: inst.Type()}
	return id
}

func (w *Writer) writeObject(inst *schema.Instance) {
	info, ok := w.seen[inst]
	if !ok {
		panic("objstream: object written before identifier assignment")
	}

	w.queueDeclaration(info.typ)
	for len(w.classQueue) > 0 && w.out.Err() == nil {
		next := w.classQueue[0]
		w.classQueue = w.classQueue[1:]
		w.writeDeclaration(next)
	}

	w.out.HintNextItem()
	w.out.HintNextItem()
	w.out.WriteDataType(wire.TagObject)
	w.out.WriteName(info.typ.Name())
	w.out.WriteIdentifier(info.id)
	w.writeInstanceData(inst)
}

// queueDeclaration marks t declared and enqueues it unless the current
// session already has it.
func (w *Writer) queueDeclaration(t *schema.Type) {
	if _, done := w.declared[t]; done {
		return
	}
	w.declared[t] = struct{}{}
	w.classQueue = append(w.classQueue, t)
}

func (w *Writer) writeDeclaration(t *schema.Type) {
	w.out.HintNextItem()
	w.out.HintNextItem()
	w.out.WriteDataType(wire.TagDeclare)
	w.out.WriteName(t.Name())
	w.out.WriteCount(t.Streamed())

	w.out.HintIndentUp()
	for i := 0; i < t.NumAttributes(); i++ {
		a := t.Attribute(i)
		if a.Transient {
			continue
		}
		if a.Kind.IsReference() && a.Member != nil {
			w.queueDeclaration(a.Member)
		}
		w.out.HintNextItem()
		w.out.WriteName(a.Name)
		w.out.WriteDataType(w.tagFor(t, a))
	}
	w.out.HintIndentDown()
}

func (w *Writer) tagFor(t *schema.Type, a schema.Attribute) wire.Tag {
	switch a.Kind {
	case schema.KindRef:
		return wire.TagRef
	case schema.KindRefSlice:
		return wire.TagRefSlice
	}
	codec, ok := w.prims.Lookup(a.Kind)
	if !ok {
		panic(fmt.Sprintf("objstream: no codec for %s attribute %s.%s", a.Kind, t.Name(), a.Name))
	}
	return codec.Tag
}

func (w *Writer) writeInstanceData(inst *schema.Instance) {
	t := inst.Type()
	w.out.HintIndentUp()
	for i := 0; i < t.NumAttributes(); i++ {
		a := t.Attribute(i)
		if a.Transient {
			continue
		}
		v := inst.Get(i)
		switch a.Kind {
		case schema.KindRef:
			w.writeReference(v.AsRef())
		case schema.KindRefSlice:
			refs := v.AsRefs()
			w.out.HintNextItem()
			w.out.WriteCount(len(refs))
			for _, target := range refs {
				w.writeReference(target)
			}
		default:
			codec, ok := w.prims.Lookup(a.Kind)
			if !ok {
				panic(fmt.Sprintf("objstream: no codec for %s attribute %s.%s", a.Kind, t.Name(), a.Name))
			}
			codec.Write(w.out, v)
		}
	}
	w.out.HintIndentDown()
}

// writeReference resolves one referenced object to an identifier. A target
// never seen before gets the next identifier and joins the object queue; a
// target already assigned reuses its identifier, which is how shared and
// cyclic structure survives the round trip.
func (w *Writer) writeReference(target *schema.Instance) {
	w.out.HintNextItem()
	if target == nil {
		w.out.WriteIdentifier(wire.NullIdentifier)
		return
	}
	if info, ok := w.seen[target]; ok {
		w.out.WriteIdentifier(info.id)
		return
	}
	id := w.assign(target)
	w.objQueue = append(w.objQueue, target)
	w.out.WriteIdentifier(id)
}
