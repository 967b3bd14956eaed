package syrup

import (
	"bytes"
	"math/big"
)

// Decoder is implemented by application types that decode themselves from a
// Node, replacing the derive-macro machinery excluded from this core.
type Decoder interface {
	DecodeSyrup(n Node) error
}

// AsBool requires n to be a boolean.
func AsBool(n Node) (bool, error) {
	b, ok := n.(TBool)
	if !ok {
		return false, errUnexpected(n.Span().Start, "boolean")
	}
	return b.Value, nil
}

// AsInt requires n to be an integer and returns its arbitrary-precision
// value.
func AsInt(n Node) (*big.Int, error) {
	i, ok := n.(TInt)
	if !ok {
		return nil, errUnexpected(n.Span().Start, "integer")
	}
	return i.Value, nil
}

// AsInt64 decodes n as an integer and range-checks it against int64.
func AsInt64(n Node) (int64, error) {
	v, err := AsInt(n)
	if err != nil {
		return 0, err
	}
	if !v.IsInt64() {
		if v.Sign() > 0 {
			return 0, errPosOverflow(n.Span().Start)
		}
		return 0, errNegOverflow(n.Span().Start)
	}
	return v.Int64(), nil
}

// AsUint64 decodes n as an integer and range-checks it against uint64.
func AsUint64(n Node) (uint64, error) {
	v, err := AsInt(n)
	if err != nil {
		return 0, err
	}
	if v.Sign() < 0 {
		return 0, errNegOverflow(n.Span().Start)
	}
	if !v.IsUint64() {
		return 0, errPosOverflow(n.Span().Start)
	}
	return v.Uint64(), nil
}

// AsFloat32 requires n to be an f32.
func AsFloat32(n Node) (float32, error) {
	f, ok := n.(TFloat32)
	if !ok {
		return 0, errUnexpected(n.Span().Start, "f32")
	}
	return f.Value, nil
}

// AsFloat64 requires n to be an f64.
func AsFloat64(n Node) (float64, error) {
	f, ok := n.(TFloat64)
	if !ok {
		return 0, errUnexpected(n.Span().Start, "f64")
	}
	return f.Value, nil
}

// AsBytes requires n to be a byte-string.
func AsBytes(n Node) ([]byte, error) {
	b, ok := n.(TBytes)
	if !ok {
		return nil, errUnexpected(n.Span().Start, "byte-string")
	}
	return b.Value, nil
}

// AsString requires n to be a string and returns its raw bytes as a Go
// string without UTF-8 validation.
func AsString(n Node) (string, error) {
	s, ok := n.(TString)
	if !ok {
		return "", errUnexpected(n.Span().Start, "string")
	}
	return string(s.Value), nil
}

// AsSymbol requires n to be a symbol.
func AsSymbol(n Node) (string, error) {
	s, ok := n.(TSymbol)
	if !ok {
		return "", errUnexpected(n.Span().Start, "symbol")
	}
	return string(s.Value), nil
}

// AsList requires n to be a list and returns its items in order.
func AsList(n Node) ([]Node, error) {
	l, ok := n.(TList)
	if !ok {
		return nil, errUnexpected(n.Span().Start, "list")
	}
	return l.Items, nil
}

// AsSet requires n to be a set and returns its entries in wire order.
func AsSet(n Node) ([]Node, error) {
	s, ok := n.(TSet)
	if !ok {
		return nil, errUnexpected(n.Span().Start, "set")
	}
	return s.Items, nil
}

// AsDict requires n to be a dictionary and returns its pairs in wire order.
func AsDict(n Node) ([]TDictPair, error) {
	d, ok := n.(TDict)
	if !ok {
		return nil, errUnexpected(n.Span().Start, "dictionary")
	}
	return d.Pairs, nil
}

// AsRecord requires n to be a record whose label is the symbol label, and
// returns its fields. The label is checked literally; a mismatch is a
// decode error, never a panic.
func AsRecord(n Node, label string) ([]Node, error) {
	r, ok := n.(TRecord)
	if !ok {
		return nil, errUnexpected(n.Span().Start, "record <"+label+" ...>")
	}
	sym, ok := r.Label.(TSymbol)
	if !ok || !bytes.Equal(sym.Value, []byte(label)) {
		return nil, errUnexpected(r.Span().Start, "record labeled "+label)
	}
	return r.Fields, nil
}

// RecordLabel returns the label of a record Node as a string, without
// checking it against an expected value. Useful for dispatch-by-label.
func RecordLabel(n Node) (string, bool) {
	r, ok := n.(TRecord)
	if !ok {
		return "", false
	}
	sym, ok := r.Label.(TSymbol)
	if !ok {
		return "", false
	}
	return string(sym.Value), true
}
