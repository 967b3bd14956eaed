// Package syrup implements the Syrup self-describing binary serialization
// format: a deterministic, canonical encoder and an incremental, stack-based
// decoder producing a token tree that can then be decoded into typed values.
package syrup

import "math/big"

// Encodable is implemented by anything that can be written to the wire in
// canonical Syrup form. Built-in wrapper types below cover the grammar in
// full; application types implement it directly, the way a derive macro
// would generate in other languages.
type Encodable interface {
	EncodeSyrup(w *Writer) error
}

// Bool is the Syrup boolean: `t` or `f`.
type Bool bool

// Int is an arbitrary-precision Syrup integer.
type Int struct{ V *big.Int }

// IntFromInt64 wraps a fixed-width integer as an Int.
func IntFromInt64(i int64) Int { return Int{big.NewInt(i)} }

// IntFromUint64 wraps a fixed-width unsigned integer as an Int.
func IntFromUint64(i uint64) Int { return Int{new(big.Int).SetUint64(i)} }

// Float32 is the Syrup `F` literal.
type Float32 float32

// Float64 is the Syrup `D` literal.
type Float64 float64

// Bytes is the Syrup byte-string literal (length + `:` + raw bytes).
type Bytes []byte

// Text is the Syrup string literal (length + `"` + UTF-8 bytes). Decoding
// does not validate UTF-8, per spec.
type Text string

// Symbol is the Syrup symbol literal (length + `'` + raw bytes).
type Symbol string

// List is an ordered sequence of values.
type List []Encodable

// Set is a collection whose entries are canonically sorted by their encoded
// bytes on the wire; duplicates are a caller error, not deduplicated here.
type Set []Encodable

// DictEntry is one key/value pair of a Dict.
type DictEntry struct {
	Key   Encodable
	Value Encodable
}

// Dict is a mapping whose entries are canonically sorted by the encoded
// bytes of their key on the wire.
type Dict []DictEntry

// Record is a labeled list: a label followed by zero or more fields.
type Record struct {
	Label  Encodable
	Fields []Encodable
}

// Raw is a pre-encoded fragment spliced verbatim into the output, used to
// avoid re-encoding already-serialized arguments.
type Raw []byte
