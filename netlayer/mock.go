package netlayer

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/SignalWalker/rexa-go/captp"
)

// MockHub is an in-process registry of MockTransport endpoints, letting
// tests and demos wire up CapTp sessions without a real network, per spec
// §6.4. Each endpoint is named by the designator other endpoints dial.
type MockHub struct {
	mu        sync.Mutex
	endpoints map[string]*MockTransport
}

// NewMockHub builds an empty hub.
func NewMockHub() *MockHub {
	return &MockHub{endpoints: make(map[string]*MockTransport)}
}

// pipeConn adapts an io.Reader/io.Writer pair (the two ends of an io.Pipe)
// into a captp.Conn.
type pipeConn struct {
	io.Reader
	io.Writer
	closer func() error
}

func (p pipeConn) Close() error {
	if p.closer != nil {
		return p.closer()
	}
	return nil
}

// MockTransport is one named endpoint on a MockHub.
type MockTransport struct {
	hub        *MockHub
	designator string
	incoming   chan acceptedConn
}

type acceptedConn struct {
	conn   captp.Conn
	remote string
}

// NewMockTransport registers a new endpoint named designator on hub.
func NewMockTransport(hub *MockHub, designator string) *MockTransport {
	t := &MockTransport{hub: hub, designator: designator, incoming: make(chan acceptedConn, 8)}
	hub.mu.Lock()
	hub.endpoints[designator] = t
	hub.mu.Unlock()
	return t
}

// Name identifies this transport kind on the wire, matching locators with
// transport "mock".
func (t *MockTransport) Name() string { return "mock" }

// Dial connects to another endpoint on the same hub by its designator.
func (t *MockTransport) Dial(ctx context.Context, designator string) (captp.Conn, error) {
	t.hub.mu.Lock()
	peer, ok := t.hub.endpoints[designator]
	t.hub.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("netlayer: mock: no endpoint registered for designator %q", designator)
	}

	toPeer, fromUs := io.Pipe()
	toUs, fromPeer := io.Pipe()

	ourConn := pipeConn{Reader: toUs, Writer: fromUs, closer: func() error {
		_ = fromUs.Close()
		return toUs.Close()
	}}
	peerConn := pipeConn{Reader: toPeer, Writer: fromPeer, closer: func() error {
		_ = fromPeer.Close()
		return toPeer.Close()
	}}

	select {
	case peer.incoming <- acceptedConn{conn: peerConn, remote: t.designator}:
	case <-ctx.Done():
		_ = ourConn.Close()
		_ = peerConn.Close()
		return nil, ctx.Err()
	}
	return ourConn, nil
}

// Accept blocks until another endpoint dials this one.
func (t *MockTransport) Accept(ctx context.Context) (captp.Conn, string, error) {
	select {
	case a := <-t.incoming:
		return a.conn, a.remote, nil
	case <-ctx.Done():
		return nil, "", ctx.Err()
	}
}
