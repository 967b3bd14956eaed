package captp

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/SignalWalker/rexa-go/syrup"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, conn net.Conn, designator string, bootstrap Object) *Session {
	t.Helper()
	signer, err := NewEd25519Signer()
	require.NoError(t, err)
	locator := NodeLocator{Designator: designator, Transport: "mock"}
	return NewSession(conn, signer, locator, bootstrap)
}

func TestSessionHandshake(t *testing.T) {
	connA, connB := net.Pipe()
	defer connA.Close()
	defer connB.Close()

	a := newTestSession(t, connA, "alice", nil)
	b := newTestSession(t, connB, "bob", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errs := make(chan error, 2)
	go func() { errs <- a.Handshake(ctx, true) }()
	go func() { errs <- b.Handshake(ctx, false) }()

	require.NoError(t, <-errs)
	require.NoError(t, <-errs)

	require.Equal(t, StateActive, a.State())
	require.Equal(t, StateActive, b.State())
	require.Equal(t, b.signer.PublicKey(), a.RemotePublicKey())
	require.Equal(t, a.signer.PublicKey(), b.RemotePublicKey())
}

func TestSessionDeliverAndAnswer(t *testing.T) {
	connA, connB := net.Pipe()
	defer connA.Close()
	defer connB.Close()

	echo := NewMethodObject(map[string]func(context.Context, []syrup.Node) (syrup.Encodable, error){
		"echo": func(_ context.Context, args []syrup.Node) (syrup.Encodable, error) {
			s, err := syrup.AsString(args[0])
			if err != nil {
				return nil, err
			}
			return syrup.Text(s), nil
		},
	})

	a := newTestSession(t, connA, "alice", nil)
	b := newTestSession(t, connB, "bob", echo)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hErrs := make(chan error, 2)
	go func() { hErrs <- a.Handshake(ctx, true) }()
	go func() { hErrs <- b.Handshake(ctx, false) }()
	require.NoError(t, <-hErrs)
	require.NoError(t, <-hErrs)

	go func() { _ = a.Run(ctx) }()
	go func() { _ = b.Run(ctx) }()

	result, err := a.Bootstrap().Call(ctx, "echo", syrup.Text("hello"))
	require.NoError(t, err)
	require.True(t, result.Resolved())
	got, err := syrup.AsString(result.Value)
	require.NoError(t, err)
	require.Equal(t, "hello", got)
}

func TestSessionDeliverOnly(t *testing.T) {
	connA, connB := net.Pipe()
	defer connA.Close()
	defer connB.Close()

	received := make(chan string, 1)
	sink := NewMethodObject(map[string]func(context.Context, []syrup.Node) (syrup.Encodable, error){
		"notify": func(_ context.Context, args []syrup.Node) (syrup.Encodable, error) {
			s, _ := syrup.AsString(args[0])
			received <- s
			return nil, nil
		},
	})

	a := newTestSession(t, connA, "alice", nil)
	b := newTestSession(t, connB, "bob", sink)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hErrs := make(chan error, 2)
	go func() { hErrs <- a.Handshake(ctx, true) }()
	go func() { hErrs <- b.Handshake(ctx, false) }()
	require.NoError(t, <-hErrs)
	require.NoError(t, <-hErrs)

	go func() { _ = a.Run(ctx) }()
	go func() { _ = b.Run(ctx) }()

	require.NoError(t, a.Bootstrap().CallOnly(ctx, "notify", syrup.Text("hi")))

	select {
	case got := <-received:
		require.Equal(t, "hi", got)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for deliver-only notification")
	}
}

func TestSessionAbortTerminatesPeer(t *testing.T) {
	connA, connB := net.Pipe()
	defer connA.Close()
	defer connB.Close()

	a := newTestSession(t, connA, "alice", nil)
	b := newTestSession(t, connB, "bob", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hErrs := make(chan error, 2)
	go func() { hErrs <- a.Handshake(ctx, true) }()
	go func() { hErrs <- b.Handshake(ctx, false) }()
	require.NoError(t, <-hErrs)
	require.NoError(t, <-hErrs)

	runErrs := make(chan error, 1)
	go func() { _ = a.Run(ctx) }()
	go func() { runErrs <- b.Run(ctx) }()

	require.NoError(t, a.Abort("done"))

	select {
	case err := <-runErrs:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for peer to observe abort")
	}
}

func TestSessionAbortLocallyReportsLocalReason(t *testing.T) {
	connA, connB := net.Pipe()
	defer connA.Close()
	defer connB.Close()

	a := newTestSession(t, connA, "alice", nil)
	b := newTestSession(t, connB, "bob", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hErrs := make(chan error, 2)
	go func() { hErrs <- a.Handshake(ctx, true) }()
	go func() { hErrs <- b.Handshake(ctx, false) }()
	require.NoError(t, <-hErrs)
	require.NoError(t, <-hErrs)

	go func() { _ = b.Run(ctx) }()

	require.NoError(t, a.Abort("bye"))

	err := a.Bootstrap().CallOnly(ctx, "whatever")
	require.Error(t, err)
	var se *SessionError
	require.ErrorAs(t, err, &se)
	require.False(t, se.Remote, "the side that called Abort itself should see a locally flagged error")
	require.Equal(t, "bye", se.Reason)
}

func TestSessionDeliverToUnknownExportAbortsSession(t *testing.T) {
	connA, connB := net.Pipe()
	defer connA.Close()
	defer connB.Close()

	a := newTestSession(t, connA, "alice", nil)
	b := newTestSession(t, connB, "bob", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hErrs := make(chan error, 2)
	go func() { hErrs <- a.Handshake(ctx, true) }()
	go func() { hErrs <- b.Handshake(ctx, false) }()
	require.NoError(t, <-hErrs)
	require.NoError(t, <-hErrs)

	go func() { _ = a.Run(ctx) }()
	runErrs := make(chan error, 1)
	go func() { runErrs <- b.Run(ctx) }()

	require.NoError(t, a.RemoteObjectAt(42).DeliverOnly(ctx, []syrup.Encodable{syrup.Symbol("anything")}))

	select {
	case err := <-runErrs:
		require.Error(t, err)
		var pe *ProtocolError
		require.ErrorAs(t, err, &pe)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session to abort on unknown target")
	}

	require.Equal(t, StateAborted, b.State())
}
