package captp

import (
	"testing"

	"github.com/SignalWalker/rexa-go/syrup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocatorEncodeDecodeRoundTrip(t *testing.T) {
	l := NodeLocator{
		Designator: "192.0.2.1:9999",
		Transport:  "tcpip",
		Hints:      nil,
	}
	b, err := syrup.EncodeValue(l)
	require.NoError(t, err)
	assert.Equal(t, `<10'ocapn-node14"192.0.2.1:99995'tcpipf>`, string(b))

	n, _, err := syrup.DecodeTree(b)
	require.NoError(t, err)
	got, err := DecodeNodeLocator(n)
	require.NoError(t, err)
	assert.Equal(t, l.Designator, got.Designator)
	assert.Equal(t, l.Transport, got.Transport)
	assert.Empty(t, got.Hints)
}

func TestLocatorEncodeDecodeWithHints(t *testing.T) {
	l := NodeLocator{
		Designator: "example.onion",
		Transport:  "onion",
		Hints:      map[string]string{"port": "1234", "rendezvous": "abc"},
	}
	b, err := syrup.EncodeValue(l)
	require.NoError(t, err)
	n, _, err := syrup.DecodeTree(b)
	require.NoError(t, err)
	got, err := DecodeNodeLocator(n)
	require.NoError(t, err)
	assert.Equal(t, l.Hints, got.Hints)
}

func TestParseLocatorURI(t *testing.T) {
	l, err := ParseLocatorURI("ocapn://alice.tcpip:9999?region=us")
	require.NoError(t, err)
	assert.Equal(t, "alice", l.Designator)
	assert.Equal(t, "tcpip", l.Transport)
	assert.Equal(t, "9999", l.Hints["port"])
	assert.Equal(t, "us", l.Hints["region"])
}

func TestParseLocatorURIWithSturdyRef(t *testing.T) {
	l, err := ParseLocatorURI("ocapn://bob.mock/s/hello-swiss")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello-swiss"), l.Swiss)
}

func TestParseLocatorURIRejectsWrongScheme(t *testing.T) {
	_, err := ParseLocatorURI("https://bob.mock")
	assert.Error(t, err)
}

func TestLocatorStringRoundTrip(t *testing.T) {
	l, err := ParseLocatorURI("ocapn://alice.tcpip:9999")
	require.NoError(t, err)
	again, err := ParseLocatorURI(l.String())
	require.NoError(t, err)
	assert.Equal(t, l, again)
}
