package wire

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// TextReader consumes streams produced by TextWriter. Tokens are delimited
// by whitespace; layout produced by the hint methods is not significant on
// read.
type TextReader struct {
	r *bufio.Reader
}

// NewTextReader validates the text header and returns a reader positioned at
// the first record.
func NewTextReader(r io.Reader) (*TextReader, error) {
	tr := &TextReader{r: asBuffered(r)}
	magic, err := tr.next()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty stream", ErrInvalidMagic)
	}
	if err != nil {
		return nil, err
	}
	if magic != TextMagic {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMagic, magic)
	}
	version, err := tr.next()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: missing version", ErrUnsupportedVersion)
	}
	if err != nil {
		return nil, err
	}
	if version != strconv.Itoa(Version) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, version)
	}
	return tr, nil
}

func asBuffered(r io.Reader) *bufio.Reader {
	if br, ok := r.(*bufio.Reader); ok {
		return br
	}
	return bufio.NewReader(r)
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

// next returns the next token. Quoted string tokens are returned with their
// quotes intact. io.EOF is returned only at a clean token boundary.
func (r *TextReader) next() (string, error) {
	var b byte
	var err error
	for {
		b, err = r.r.ReadByte()
		if err != nil {
			return "", err
		}
		if !isSpace(b) {
			break
		}
	}

	var sb strings.Builder
	sb.WriteByte(b)
	if b == '"' {
		escaped := false
		for {
			b, err = r.r.ReadByte()
			if err != nil {
				return "", corruptf("unterminated string token")
			}
			sb.WriteByte(b)
			if escaped {
				escaped = false
				continue
			}
			switch b {
			case '\\':
				escaped = true
			case '"':
				return sb.String(), nil
			}
		}
	}
	for {
		b, err = r.r.ReadByte()
		if err == io.EOF {
			return sb.String(), nil
		}
		if err != nil {
			return "", err
		}
		if isSpace(b) {
			return sb.String(), nil
		}
		sb.WriteByte(b)
	}
}

// value reads a token that must exist; end of input mid-record is
// corruption, not a clean end.
func (r *TextReader) value() (string, error) {
	tok, err := r.next()
	if err == io.EOF {
		return "", io.ErrUnexpectedEOF
	}
	return tok, err
}

// ---------------------------------------------------------------------------
// Reader contract
// ---------------------------------------------------------------------------

func (r *TextReader) ReadDataType() (Tag, error) {
	tok, err := r.next()
	if err != nil {
		return TagInvalid, err
	}
	t, ok := ParseTag(tok)
	if !ok {
		return TagInvalid, corruptf("unknown data type %q", tok)
	}
	return t, nil
}

func (r *TextReader) ReadName() (string, error) {
	tok, err := r.value()
	if err != nil {
		return "", err
	}
	return tok, nil
}

func (r *TextReader) ReadCount() (int, error) {
	tok, err := r.value()
	if err != nil {
		return 0, err
	}
	n, convErr := strconv.Atoi(tok)
	if convErr != nil || n < 0 {
		return 0, corruptf("bad count %q", tok)
	}
	return n, nil
}

func (r *TextReader) ReadIdentifier() (Identifier, error) {
	tok, err := r.value()
	if err != nil {
		return NullIdentifier, err
	}
	id, convErr := strconv.ParseUint(tok, 10, 32)
	if convErr != nil {
		return NullIdentifier, corruptf("bad identifier %q", tok)
	}
	return Identifier(id), nil
}

func (r *TextReader) ReadBool() (bool, error) {
	tok, err := r.value()
	if err != nil {
		return false, err
	}
	v, convErr := strconv.ParseBool(tok)
	if convErr != nil {
		return false, corruptf("bad bool %q", tok)
	}
	return v, nil
}

func (r *TextReader) readInt(bits int) (int64, error) {
	tok, err := r.value()
	if err != nil {
		return 0, err
	}
	v, convErr := strconv.ParseInt(tok, 10, bits)
	if convErr != nil {
		return 0, corruptf("bad int%d %q", bits, tok)
	}
	return v, nil
}

func (r *TextReader) readUint(bits int) (uint64, error) {
	tok, err := r.value()
	if err != nil {
		return 0, err
	}
	v, convErr := strconv.ParseUint(tok, 10, bits)
	if convErr != nil {
		return 0, corruptf("bad uint%d %q", bits, tok)
	}
	return v, nil
}

func (r *TextReader) ReadInt8() (int8, error) {
	v, err := r.readInt(8)
	return int8(v), err
}

func (r *TextReader) ReadInt16() (int16, error) {
	v, err := r.readInt(16)
	return int16(v), err
}

func (r *TextReader) ReadInt32() (int32, error) {
	v, err := r.readInt(32)
	return int32(v), err
}

func (r *TextReader) ReadInt64() (int64, error) {
	return r.readInt(64)
}

func (r *TextReader) ReadUint8() (uint8, error) {
	v, err := r.readUint(8)
	return uint8(v), err
}

func (r *TextReader) ReadUint16() (uint16, error) {
	v, err := r.readUint(16)
	return uint16(v), err
}

func (r *TextReader) ReadUint32() (uint32, error) {
	v, err := r.readUint(32)
	return uint32(v), err
}

func (r *TextReader) ReadUint64() (uint64, error) {
	return r.readUint(64)
}

func (r *TextReader) ReadFloat32() (float32, error) {
	tok, err := r.value()
	if err != nil {
		return 0, err
	}
	v, convErr := strconv.ParseFloat(tok, 32)
	if convErr != nil {
		return 0, corruptf("bad float32 %q", tok)
	}
	return float32(v), nil
}

func (r *TextReader) ReadFloat64() (float64, error) {
	tok, err := r.value()
	if err != nil {
		return 0, err
	}
	v, convErr := strconv.ParseFloat(tok, 64)
	if convErr != nil {
		return 0, corruptf("bad float64 %q", tok)
	}
	return v, nil
}

func (r *TextReader) ReadString() (string, error) {
	tok, err := r.value()
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(tok, `"`) {
		return "", corruptf("bad string token %q", tok)
	}
	s, convErr := strconv.Unquote(tok)
	if convErr != nil {
		return "", corruptf("bad string token %q", tok)
	}
	return s, nil
}

func (r *TextReader) ReadBytes() ([]byte, error) {
	tok, err := r.value()
	if err != nil {
		return nil, err
	}
	digits, ok := strings.CutPrefix(tok, "0x")
	if !ok {
		return nil, corruptf("bad bytes token %q", tok)
	}
	v, convErr := hex.DecodeString(digits)
	if convErr != nil {
		return nil, corruptf("bad bytes token %q", tok)
	}
	return v, nil
}
