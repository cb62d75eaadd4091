package wire

import (
	"encoding/hex"
	"io"
	"strconv"
)

// TextWriter renders the stream as whitespace-delimited tokens, one record
// per line, using the layout hints for line breaks and indentation.
type TextWriter struct {
	w           io.Writer
	err         error
	indent      int
	atLineStart bool
}

// NewTextWriter starts a text stream on w, emitting the header immediately.
// The header line is terminated by the first record's own boundary hint.
func NewTextWriter(w io.Writer) *TextWriter {
	tw := &TextWriter{w: w, atLineStart: true}
	tw.token(TextMagic)
	tw.token(strconv.Itoa(Version))
	return tw
}

func (w *TextWriter) write(s string) {
	if w.err != nil {
		return
	}
	if _, err := io.WriteString(w.w, s); err != nil {
		w.err = err
	}
}

// token emits s, preceded by the current indentation at a line start or by
// a single space otherwise.
func (w *TextWriter) token(s string) {
	if w.err != nil {
		return
	}
	if w.atLineStart {
		for i := 0; i < w.indent; i++ {
			w.write("\t")
		}
		w.atLineStart = false
	} else {
		w.write(" ")
	}
	w.write(s)
}

// ---------------------------------------------------------------------------
// Writer contract
// ---------------------------------------------------------------------------

func (w *TextWriter) WriteDataType(t Tag) { w.token(t.String()) }

func (w *TextWriter) WriteName(name string) { w.token(name) }

func (w *TextWriter) WriteCount(n int) { w.token(strconv.Itoa(n)) }

func (w *TextWriter) WriteIdentifier(id Identifier) {
	w.token(strconv.FormatUint(uint64(id), 10))
}

func (w *TextWriter) WriteBool(v bool) { w.token(strconv.FormatBool(v)) }

func (w *TextWriter) WriteInt8(v int8) { w.token(strconv.FormatInt(int64(v), 10)) }

func (w *TextWriter) WriteInt16(v int16) { w.token(strconv.FormatInt(int64(v), 10)) }

func (w *TextWriter) WriteInt32(v int32) { w.token(strconv.FormatInt(int64(v), 10)) }

func (w *TextWriter) WriteInt64(v int64) { w.token(strconv.FormatInt(v, 10)) }

func (w *TextWriter) WriteUint8(v uint8) { w.token(strconv.FormatUint(uint64(v), 10)) }

func (w *TextWriter) WriteUint16(v uint16) { w.token(strconv.FormatUint(uint64(v), 10)) }

func (w *TextWriter) WriteUint32(v uint32) { w.token(strconv.FormatUint(uint64(v), 10)) }

func (w *TextWriter) WriteUint64(v uint64) { w.token(strconv.FormatUint(v, 10)) }

func (w *TextWriter) WriteFloat32(v float32) {
	w.token(strconv.FormatFloat(float64(v), 'g', -1, 32))
}

func (w *TextWriter) WriteFloat64(v float64) {
	w.token(strconv.FormatFloat(v, 'g', -1, 64))
}

func (w *TextWriter) WriteString(v string) { w.token(strconv.Quote(v)) }

func (w *TextWriter) WriteBytes(v []byte) { w.token("0x" + hex.EncodeToString(v)) }

func (w *TextWriter) HintNextItem() {
	w.write("\n")
	w.atLineStart = true
}

func (w *TextWriter) HintIndentUp() { w.indent++ }

func (w *TextWriter) HintIndentDown() {
	if w.indent > 0 {
		w.indent--
	}
}

func (w *TextWriter) Err() error { return w.err }
