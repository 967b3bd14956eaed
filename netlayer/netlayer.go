// Package netlayer provides the transport-generic session layer CapTp
// sessions are multiplexed over: connecting and accepting duplex byte
// streams, and deduplicating sessions against the same remote designator.
package netlayer

import (
	"context"
	"fmt"

	"github.com/SignalWalker/rexa-go/captp"
)

// Transport is the capability a concrete carrier (TCP/IP, onion routing, an
// in-process mock) provides to a netlayer: the ability to dial a locator's
// designator and to accept incoming connections, both yielding a duplex
// byte stream that a Session's framing takes over from there. Concrete
// transport implementations are outside this core; Transport is the
// boundary this core depends on.
type Transport interface {
	// Name identifies the transport, matching the `transport` field of the
	// locators it can dial (e.g. "tcpip", "onion", "mock").
	Name() string
	// Dial connects to the peer named by designator, returning a duplex
	// stream ready for a CapTp handshake.
	Dial(ctx context.Context, designator string) (captp.Conn, error)
	// Accept blocks until an incoming connection arrives, returning the
	// stream and whatever the transport knows about the remote party (may
	// be empty if the transport can't say before the handshake runs).
	Accept(ctx context.Context) (conn captp.Conn, remoteHint string, err error)
}

// Locator re-exports captp.NodeLocator so callers of this package don't
// need to import captp just to name a peer.
type Locator = captp.NodeLocator

// ErrUnknownTransport is returned when a locator names a transport this
// netlayer has no registered Transport for.
func ErrUnknownTransport(name string) error {
	return fmt.Errorf("netlayer: no transport registered for %q", name)
}
