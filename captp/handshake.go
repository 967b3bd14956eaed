package captp

import (
	"context"
	"fmt"

	"github.com/SignalWalker/rexa-go/syrup"
)

// Version is the CapTp version string this implementation speaks.
const Version = "1.0"

// ErrCrossedHellos is the abort reason sent to the losing side when two
// sessions race to the same peer and this core's crossed-hellos tiebreak
// (spec §12) picks a winner.
const ErrCrossedHellos = "crossed-hellos: superseded"

// Handshake performs the op:start-session exchange described in spec §4.4.
// The two sides must use opposite orderings: the connecting side sends its
// hello and then waits for the peer's, while the accepting side waits for
// the peer's hello before sending its own. Over a genuinely synchronous
// duplex stream (no internal buffering), having both sides write first
// deadlocks, since neither side's write can complete until the other side
// reaches its read. initiator is true for the dialing side (netlayer.Manager
// Connect) and false for the accepting side (netlayer.Manager Serve).
func (s *Session) Handshake(ctx context.Context, initiator bool) error {
	if initiator {
		if err := s.sendHello(); err != nil {
			return err
		}
		return s.recvHello(ctx)
	}
	if err := s.recvHello(ctx); err != nil {
		return err
	}
	return s.sendHello()
}

func (s *Session) sendHello() error {
	locatorBytes, err := syrup.EncodeValue(s.localLocator)
	if err != nil {
		return fmt.Errorf("captp: encoding local locator for signing: %w", err)
	}
	sig, err := s.signer.Sign(locatorBytes)
	if err != nil {
		return fmt.Errorf("captp: signing handshake: %w", err)
	}
	hello := StartSessionMessage(Version, s.signer.PublicKey(), s.localLocator, sig)
	if err := s.writer.WriteValue(hello); err != nil {
		return fmt.Errorf("captp: sending handshake: %w", err)
	}
	return nil
}

func (s *Session) recvHello(ctx context.Context) error {
	n, err := readValueCtx(ctx, s.reader)
	if err != nil {
		return fmt.Errorf("captp: receiving handshake: %w", err)
	}
	msg, err := DecodeMessage(n)
	if err != nil {
		return fmt.Errorf("captp: decoding handshake: %w", err)
	}
	peerHello, ok := msg.(StartSession)
	if !ok {
		if abort, ok := msg.(Abort); ok {
			return ErrRemoteAbort(abort.Reason)
		}
		return newProtocolError("handshake", fmt.Errorf("expected op:start-session, got %s", msg.Label()))
	}
	if peerHello.Version != Version {
		return newProtocolError("handshake", fmt.Errorf("unsupported captp version %q", peerHello.Version))
	}
	peerLocatorBytes, err := syrup.EncodeValue(peerHello.Location)
	if err != nil {
		return fmt.Errorf("captp: re-encoding peer locator for verification: %w", err)
	}
	if err := s.verifier.Verify(peerHello.PubKey, peerLocatorBytes, peerHello.Sig); err != nil {
		return newProtocolError("handshake", fmt.Errorf("verifying peer signature: %w", err))
	}

	s.mu.Lock()
	s.remotePubKey = peerHello.PubKey
	s.remoteLocator = peerHello.Location
	s.state = StateActive
	s.mu.Unlock()
	return nil
}
