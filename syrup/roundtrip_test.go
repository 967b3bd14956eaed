package syrup

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripPrimitives(t *testing.T) {
	cases := []Encodable{
		Bool(true),
		Bool(false),
		IntFromInt64(0),
		IntFromInt64(-1),
		IntFromInt64(123456789),
		Int{big.NewInt(-123456789)},
		Float32(3.5),
		Float64(-2.25),
		Bytes("hello"),
		Text("hello, world"),
		Symbol("fetch"),
	}
	for _, c := range cases {
		b, err := EncodeValue(c)
		require.NoError(t, err)
		n, rest, err := DecodeTree(b)
		require.NoError(t, err)
		assert.Empty(t, rest)

		switch v := c.(type) {
		case Bool:
			got, err := AsBool(n)
			require.NoError(t, err)
			assert.Equal(t, bool(v), got)
		case Int:
			got, err := AsInt(n)
			require.NoError(t, err)
			assert.Equal(t, 0, v.V.Cmp(got))
		case Float32:
			got, err := AsFloat32(n)
			require.NoError(t, err)
			assert.Equal(t, float32(v), got)
		case Float64:
			got, err := AsFloat64(n)
			require.NoError(t, err)
			assert.Equal(t, float64(v), got)
		case Bytes:
			got, err := AsBytes(n)
			require.NoError(t, err)
			assert.Equal(t, []byte(v), got)
		case Text:
			got, err := AsString(n)
			require.NoError(t, err)
			assert.Equal(t, string(v), got)
		case Symbol:
			got, err := AsSymbol(n)
			require.NoError(t, err)
			assert.Equal(t, string(v), got)
		}
	}
}

func TestRoundTripNestedStructure(t *testing.T) {
	value := Record{
		Label: Symbol("op:deliver"),
		Fields: []Encodable{
			Record{Label: Symbol("desc:export"), Fields: []Encodable{IntFromUint64(7)}},
			List{Symbol("method"), IntFromInt64(1), Bytes("payload")},
			Set{IntFromInt64(3), IntFromInt64(1), IntFromInt64(2)},
			Dict{
				{Key: Symbol("a"), Value: IntFromInt64(1)},
				{Key: Symbol("b"), Value: IntFromInt64(2)},
			},
		},
	}
	b, err := EncodeValue(value)
	require.NoError(t, err)

	n, rest, err := DecodeTree(b)
	require.NoError(t, err)
	assert.Empty(t, rest)

	fields, err := AsRecord(n, "op:deliver")
	require.NoError(t, err)
	require.Len(t, fields, 4)

	toDescFields, err := AsRecord(fields[0], "desc:export")
	require.NoError(t, err)
	pos, err := AsUint64(toDescFields[0])
	require.NoError(t, err)
	assert.EqualValues(t, 7, pos)

	argItems, err := AsList(fields[1])
	require.NoError(t, err)
	require.Len(t, argItems, 3)

	setItems, err := AsSet(fields[2])
	require.NoError(t, err)
	require.Len(t, setItems, 3)

	dictPairs, err := AsDict(fields[3])
	require.NoError(t, err)
	require.Len(t, dictPairs, 2)
}

func TestCanonicalRoundTripIsStable(t *testing.T) {
	b, err := EncodeValue(Dict{
		{Key: Text("z"), Value: IntFromInt64(1)},
		{Key: Text("a"), Value: IntFromInt64(2)},
	})
	require.NoError(t, err)

	n, _, err := DecodeTree(b)
	require.NoError(t, err)
	pairs, err := AsDict(n)
	require.NoError(t, err)

	entries := make([]DictEntry, len(pairs))
	for i, p := range pairs {
		ks, _ := AsString(p.Key)
		vi, _ := AsInt64(p.Value)
		entries[i] = DictEntry{Key: Text(ks), Value: IntFromInt64(vi)}
	}
	b2, err := EncodeValue(Dict(entries))
	require.NoError(t, err)
	assert.Equal(t, b, b2)
}
