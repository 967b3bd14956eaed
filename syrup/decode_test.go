package syrup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeScenarios(t *testing.T) {
	t.Run("S1 bool", func(t *testing.T) {
		n, rest, err := DecodeTree([]byte("t"))
		require.NoError(t, err)
		assert.Empty(t, rest)
		v, err := AsBool(n)
		require.NoError(t, err)
		assert.True(t, v)
	})

	t.Run("S2 integer", func(t *testing.T) {
		n, rest, err := DecodeTree([]byte("17-"))
		require.NoError(t, err)
		assert.Empty(t, rest)
		v, err := AsInt64(n)
		require.NoError(t, err)
		assert.EqualValues(t, -17, v)
	})

	t.Run("S5 record", func(t *testing.T) {
		n, rest, err := DecodeTree([]byte(`<10'ocapn-node14"192.0.2.1:99995'tcpipf>`))
		require.NoError(t, err)
		assert.Empty(t, rest)
		fields, err := AsRecord(n, "ocapn-node")
		require.NoError(t, err)
		require.Len(t, fields, 3)
		designator, err := AsString(fields[0])
		require.NoError(t, err)
		assert.Equal(t, "192.0.2.1:9999", designator)
		transport, err := AsSymbol(fields[1])
		require.NoError(t, err)
		assert.Equal(t, "tcpip", transport)
		hintsFalse, err := AsBool(fields[2])
		require.NoError(t, err)
		assert.False(t, hintsFalse)
	})
}

func TestDecodeIncompleteEveryPrefix(t *testing.T) {
	full, err := EncodeValue(Record{
		Label: Symbol("op:deliver-only"),
		Fields: []Encodable{
			Record{Label: Symbol("desc:export"), Fields: []Encodable{IntFromUint64(3)}},
			List{Symbol("fetch"), Bytes("swiss-number")},
		},
	})
	require.NoError(t, err)

	for k := 0; k < len(full); k++ {
		_, _, err := DecodeTree(full[:k])
		require.Error(t, err, "prefix of length %d should be incomplete", k)
		var de *DecodeError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, KindIncomplete, de.Kind)
	}

	n, rest, err := DecodeTree(full)
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.NotNil(t, n)
}

func TestDecodeUnmatchedDelimiter(t *testing.T) {
	_, _, err := DecodeTree([]byte("[1+}"))
	require.Error(t, err)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, KindUnmatchedDelimiter, de.Kind)
}

func TestDecodeUnexpected(t *testing.T) {
	_, _, err := DecodeTree([]byte("Z"))
	require.Error(t, err)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, KindUnexpected, de.Kind)
}

func TestDecodeDictUnsortedTolerated(t *testing.T) {
	n, _, err := DecodeTree([]byte(`{1"b2+1"a1+}`))
	require.NoError(t, err)
	pairs, err := AsDict(n)
	require.NoError(t, err)
	require.Len(t, pairs, 2)
}
