package syrup

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"math/big"
	"sort"
)

// Writer serializes Encodable values to an underlying io.Writer in
// canonical Syrup form. A Writer backed by a bytes.Buffer never fails;
// one backed by a streaming sink may surface I/O errors.
type Writer struct {
	w io.Writer
}

// NewWriter wraps w for Syrup encoding.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Encode serializes v, which must either implement Encodable or be one of
// the built-in Go types (bool, integers, float32/64, []byte, string) that
// map naturally onto a Syrup kind.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteValue(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeValue serializes an Encodable directly, skipping the Encode
// dispatcher's type switch.
func EncodeValue(v Encodable) ([]byte, error) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := v.EncodeSyrup(w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteValue dispatches v to the matching Encodable wrapper type and writes
// it, or calls v.EncodeSyrup directly if v already implements Encodable.
func (w *Writer) WriteValue(v any) error {
	if e, ok := v.(Encodable); ok {
		return e.EncodeSyrup(w)
	}
	switch x := v.(type) {
	case bool:
		return Bool(x).EncodeSyrup(w)
	case int:
		return IntFromInt64(int64(x)).EncodeSyrup(w)
	case int64:
		return IntFromInt64(x).EncodeSyrup(w)
	case uint64:
		return IntFromUint64(x).EncodeSyrup(w)
	case *big.Int:
		return Int{x}.EncodeSyrup(w)
	case float32:
		return Float32(x).EncodeSyrup(w)
	case float64:
		return Float64(x).EncodeSyrup(w)
	case []byte:
		return Bytes(x).EncodeSyrup(w)
	case string:
		return Text(x).EncodeSyrup(w)
	default:
		return fmt.Errorf("syrup: no Encodable mapping for %T", v)
	}
}

func (w *Writer) writeByte(b byte) error {
	_, err := w.w.Write([]byte{b})
	return err
}

func (w *Writer) writeSized(tag byte, payload []byte) error {
	if _, err := fmt.Fprintf(w.w, "%d%c", len(payload), tag); err != nil {
		return err
	}
	_, err := w.w.Write(payload)
	return err
}

// WriteBool writes the one-byte boolean literal.
func (w *Writer) WriteBool(b bool) error {
	if b {
		return w.writeByte('t')
	}
	return w.writeByte('f')
}

// WriteFloat32 writes the `F` + 4 big-endian byte literal.
func (w *Writer) WriteFloat32(f float32) error {
	var buf [5]byte
	buf[0] = 'F'
	bits := math.Float32bits(f)
	buf[1] = byte(bits >> 24)
	buf[2] = byte(bits >> 16)
	buf[3] = byte(bits >> 8)
	buf[4] = byte(bits)
	_, err := w.w.Write(buf[:])
	return err
}

// WriteFloat64 writes the `D` + 8 big-endian byte literal.
func (w *Writer) WriteFloat64(f float64) error {
	var buf [9]byte
	buf[0] = 'D'
	bits := math.Float64bits(f)
	for i := 0; i < 8; i++ {
		buf[8-i] = byte(bits)
		bits >>= 8
	}
	_, err := w.w.Write(buf[:])
	return err
}

// WriteInt writes the digits-then-sign integer literal. Zero is always
// emitted as the canonical "0+".
func (w *Writer) WriteInt(i *big.Int) error {
	digits := new(big.Int).Abs(i).String()
	sign := byte('+')
	if i.Sign() < 0 {
		sign = '-'
	}
	if _, err := io.WriteString(w.w, digits); err != nil {
		return err
	}
	return w.writeByte(sign)
}

// WriteBytes writes the length-prefixed byte-string literal.
func (w *Writer) WriteBytes(b []byte) error {
	return w.writeSized(':', b)
}

// WriteString writes the length-prefixed string literal. Length is the byte
// length, not the rune count.
func (w *Writer) WriteString(s string) error {
	return w.writeSized('"', []byte(s))
}

// WriteSymbol writes the length-prefixed symbol literal.
func (w *Writer) WriteSymbol(s string) error {
	return w.writeSized('\'', []byte(s))
}

// WriteRaw splices an already-encoded fragment into the output verbatim.
func (w *Writer) WriteRaw(b []byte) error {
	_, err := w.w.Write(b)
	return err
}

// WriteList writes an ordered sequence of values.
func (w *Writer) WriteList(items []Encodable) error {
	if err := w.writeByte('['); err != nil {
		return err
	}
	for _, it := range items {
		if err := it.EncodeSyrup(w); err != nil {
			return err
		}
	}
	return w.writeByte(']')
}

// WriteRecord writes a label followed by its fields.
func (w *Writer) WriteRecord(label Encodable, fields []Encodable) error {
	if err := w.writeByte('<'); err != nil {
		return err
	}
	if err := label.EncodeSyrup(w); err != nil {
		return err
	}
	for _, f := range fields {
		if err := f.EncodeSyrup(w); err != nil {
			return err
		}
	}
	return w.writeByte('>')
}

// WriteSet writes entries sorted in ascending order of their own encoded
// bytes, per the canonicalization invariant.
func (w *Writer) WriteSet(items []Encodable) error {
	encoded := make([][]byte, len(items))
	for i, it := range items {
		b, err := EncodeValue(it)
		if err != nil {
			return err
		}
		encoded[i] = b
	}
	sort.Slice(encoded, func(i, j int) bool { return bytes.Compare(encoded[i], encoded[j]) < 0 })
	if err := w.writeByte('#'); err != nil {
		return err
	}
	for _, b := range encoded {
		if err := w.WriteRaw(b); err != nil {
			return err
		}
	}
	return w.writeByte('$')
}

type encodedPair struct {
	key   []byte
	value []byte
}

// WriteDict writes entries sorted in ascending order of their key's encoded
// bytes, per the canonicalization invariant.
func (w *Writer) WriteDict(pairs []DictEntry) error {
	encoded := make([]encodedPair, len(pairs))
	for i, p := range pairs {
		k, err := EncodeValue(p.Key)
		if err != nil {
			return err
		}
		v, err := EncodeValue(p.Value)
		if err != nil {
			return err
		}
		encoded[i] = encodedPair{k, v}
	}
	sort.Slice(encoded, func(i, j int) bool { return bytes.Compare(encoded[i].key, encoded[j].key) < 0 })
	if err := w.writeByte('{'); err != nil {
		return err
	}
	for _, p := range encoded {
		if err := w.WriteRaw(p.key); err != nil {
			return err
		}
		if err := w.WriteRaw(p.value); err != nil {
			return err
		}
	}
	return w.writeByte('}')
}

func (b Bool) EncodeSyrup(w *Writer) error    { return w.WriteBool(bool(b)) }
func (i Int) EncodeSyrup(w *Writer) error     { return w.WriteInt(i.V) }
func (f Float32) EncodeSyrup(w *Writer) error { return w.WriteFloat32(float32(f)) }
func (f Float64) EncodeSyrup(w *Writer) error { return w.WriteFloat64(float64(f)) }
func (b Bytes) EncodeSyrup(w *Writer) error   { return w.WriteBytes([]byte(b)) }
func (t Text) EncodeSyrup(w *Writer) error    { return w.WriteString(string(t)) }
func (s Symbol) EncodeSyrup(w *Writer) error  { return w.WriteSymbol(string(s)) }
func (l List) EncodeSyrup(w *Writer) error    { return w.WriteList([]Encodable(l)) }
func (s Set) EncodeSyrup(w *Writer) error     { return w.WriteSet([]Encodable(s)) }
func (d Dict) EncodeSyrup(w *Writer) error    { return w.WriteDict([]DictEntry(d)) }
func (r Record) EncodeSyrup(w *Writer) error  { return w.WriteRecord(r.Label, r.Fields) }
func (r Raw) EncodeSyrup(w *Writer) error     { return w.WriteRaw([]byte(r)) }
