package netlayer

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMockTransportDialAccept(t *testing.T) {
	hub := NewMockHub()
	server := NewMockTransport(hub, "server")
	client := NewMockTransport(hub, "client")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	accepted := make(chan struct{})
	var remoteHint string
	var serverConn io.Reader
	go func() {
		sc, hint, err := server.Accept(ctx)
		serverConn = sc
		remoteHint = hint
		require.NoError(t, err)
		close(accepted)
	}()

	conn, err := client.Dial(ctx, "server")
	require.NoError(t, err)
	defer conn.Close()

	<-accepted
	require.Equal(t, "client", remoteHint)

	msg := []byte("hello")
	written := make(chan struct{})
	go func() {
		_, err := conn.Write(msg)
		require.NoError(t, err)
		close(written)
	}()
	got := make([]byte, len(msg))
	_, err = io.ReadFull(serverConn, got)
	require.NoError(t, err)
	require.Equal(t, msg, got)
	<-written
}

func TestMockTransportDialUnknownDesignator(t *testing.T) {
	hub := NewMockHub()
	client := NewMockTransport(hub, "client")
	_, err := client.Dial(context.Background(), "nobody")
	require.Error(t, err)
}
