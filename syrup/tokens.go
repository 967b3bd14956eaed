package syrup

import "math/big"

// Span records the byte offsets a Node was parsed from, for diagnostics.
type Span struct {
	Start, End int
}

// Node is one parsed-but-not-yet-typed value from the tree decoder. It is
// the intermediate representation between raw bytes and an application
// type: DecodeTree produces a Node, and the As* functions in
// decode_typed.go turn a Node into a concrete Go value.
type Node interface {
	Span() Span
	isNode()
}

// TBool is a decoded boolean.
type TBool struct {
	Value bool
	span  Span
}

func (n TBool) Span() Span { return n.span }
func (TBool) isNode()      {}

// TInt is a decoded arbitrary-precision integer.
type TInt struct {
	Value *big.Int
	span  Span
}

func (n TInt) Span() Span { return n.span }
func (TInt) isNode()      {}

// TFloat32 is a decoded f32.
type TFloat32 struct {
	Value float32
	span  Span
}

func (n TFloat32) Span() Span { return n.span }
func (TFloat32) isNode()      {}

// TFloat64 is a decoded f64.
type TFloat64 struct {
	Value float64
	span  Span
}

func (n TFloat64) Span() Span { return n.span }
func (TFloat64) isNode()      {}

// TBytes is a decoded byte-string.
type TBytes struct {
	Value []byte
	span  Span
}

func (n TBytes) Span() Span { return n.span }
func (TBytes) isNode()      {}

// TString is a decoded string; its bytes are not validated as UTF-8.
type TString struct {
	Value []byte
	span  Span
}

func (n TString) Span() Span { return n.span }
func (TString) isNode()      {}

// TSymbol is a decoded symbol.
type TSymbol struct {
	Value []byte
	span  Span
}

func (n TSymbol) Span() Span { return n.span }
func (TSymbol) isNode()      {}

// TList is a decoded ordered list.
type TList struct {
	Items []Node
	span  Span
}

func (n TList) Span() Span { return n.span }
func (TList) isNode()      {}

// TSet is a decoded set; entries are in the order they appeared on the
// wire, which is canonical-sorted order for well-formed input but is not
// re-checked by the decoder (per spec, decoders may tolerate unsorted
// input).
type TSet struct {
	Items []Node
	span  Span
}

func (n TSet) Span() Span { return n.span }
func (TSet) isNode()      {}

// TDictPair is one key/value pair of a decoded TDict.
type TDictPair struct {
	Key   Node
	Value Node
}

// TDict is a decoded dictionary.
type TDict struct {
	Pairs []TDictPair
	span  Span
}

func (n TDict) Span() Span { return n.span }
func (TDict) isNode()      {}

// TRecord is a decoded labeled list.
type TRecord struct {
	Label  Node
	Fields []Node
	span   Span
}

func (n TRecord) Span() Span { return n.span }
func (TRecord) isNode()      {}
