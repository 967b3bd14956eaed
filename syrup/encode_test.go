package syrup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeScenarios(t *testing.T) {
	t.Run("S1 bool", func(t *testing.T) {
		b, err := Encode(true)
		require.NoError(t, err)
		assert.Equal(t, []byte("t"), b)

		b, err = Encode(false)
		require.NoError(t, err)
		assert.Equal(t, []byte("f"), b)
	})

	t.Run("S2 integer", func(t *testing.T) {
		b, err := Encode(IntFromInt64(-17))
		require.NoError(t, err)
		assert.Equal(t, []byte("17-"), b)

		b, err = Encode(IntFromInt64(0))
		require.NoError(t, err)
		assert.Equal(t, []byte("0+"), b)
	})

	t.Run("S3 string", func(t *testing.T) {
		b, err := Encode(Text("hi"))
		require.NoError(t, err)
		assert.Equal(t, []byte(`2"hi`), b)
	})

	t.Run("S4 dictionary canonicalization", func(t *testing.T) {
		insertOrder1 := Dict{
			{Key: Text("b"), Value: IntFromInt64(2)},
			{Key: Text("a"), Value: IntFromInt64(1)},
		}
		insertOrder2 := Dict{
			{Key: Text("a"), Value: IntFromInt64(1)},
			{Key: Text("b"), Value: IntFromInt64(2)},
		}
		b1, err := EncodeValue(insertOrder1)
		require.NoError(t, err)
		b2, err := EncodeValue(insertOrder2)
		require.NoError(t, err)
		assert.Equal(t, b1, b2)
		assert.Equal(t, []byte(`{1"a1+1"b2+}`), b1)
	})

	t.Run("S5 record", func(t *testing.T) {
		rec := Record{
			Label: Symbol("ocapn-node"),
			Fields: []Encodable{
				Text("192.0.2.1:9999"),
				Symbol("tcpip"),
				Bool(false),
			},
		}
		b, err := EncodeValue(rec)
		require.NoError(t, err)
		assert.Equal(t, []byte(`<10'ocapn-node14"192.0.2.1:99995'tcpipf>`), b)
	})
}

func TestEncodeSetCanonicalOrdering(t *testing.T) {
	s1 := Set{Text("zz"), Text("aa"), Text("mm")}
	s2 := Set{Text("mm"), Text("zz"), Text("aa")}
	b1, err := EncodeValue(s1)
	require.NoError(t, err)
	b2, err := EncodeValue(s2)
	require.NoError(t, err)
	assert.Equal(t, b1, b2)
}

func TestEncodeRawSplice(t *testing.T) {
	inner, err := Encode(IntFromInt64(42))
	require.NoError(t, err)
	outer := List{Raw(inner), Text("x")}
	b, err := EncodeValue(outer)
	require.NoError(t, err)
	assert.Equal(t, []byte(`[42+1"x]`), b)
}
