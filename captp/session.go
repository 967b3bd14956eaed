package captp

import (
	"context"
	"fmt"
	"sync"

	"github.com/SignalWalker/rexa-go/syrup"
	"golang.org/x/crypto/ed25519"
)

// State tracks where a Session sits in its lifecycle, mirroring the shape
// of a typical connection state machine: handshake, then steady-state
// operation, then one of two terminal states.
type State int

const (
	// StateHandshaking means op:start-session has not yet completed in
	// both directions.
	StateHandshaking State = iota
	// StateActive means the handshake succeeded and the dispatch loop is
	// running.
	StateActive
	// StateAborted means the session ended via op:abort, local or remote.
	StateAborted
	// StateClosed means the underlying Conn was closed without an abort.
	StateClosed
)

// String returns a human-readable session state name.
func (s State) String() string {
	switch s {
	case StateHandshaking:
		return "Handshaking"
	case StateActive:
		return "Active"
	case StateAborted:
		return "Aborted"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Session is one established CapTp connection: a signed identity exchange
// followed by a bidirectional stream of op:deliver(-only) calls addressed
// through per-session export, import, and answer tables, per spec §3.3.
type Session struct {
	mu sync.Mutex

	state State

	signer       Signer
	verifier     Verifier
	localLocator NodeLocator

	remotePubKey ed25519.PublicKey
	remoteLocator NodeLocator

	conn   Conn
	reader *FrameReader
	writer *FrameWriter

	exports       map[uint64]Object
	nextExportPos uint64

	imports map[uint64]*RemoteObject

	bootstrap Object

	abortReason string
	abortRemote bool

	onAbort func(reason string, remote bool)
}

// NewSession constructs a Session around an already-connected Conn, before
// the handshake has run. Callers use Handshake next, with initiator true on
// the dialing side and false on the accepting side.
func NewSession(conn Conn, signer Signer, localLocator NodeLocator, bootstrap Object) *Session {
	s := &Session{
		signer:       signer,
		verifier:     DefaultVerifier,
		localLocator: localLocator,
		conn:         conn,
		reader:       NewFrameReader(conn),
		writer:       NewFrameWriter(conn),
		exports:      make(map[uint64]Object),
		imports:      make(map[uint64]*RemoteObject),
		bootstrap:    bootstrap,
	}
	s.nextExportPos = 1
	if bootstrap != nil {
		s.exports[0] = bootstrap
	}
	return s
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RemotePublicKey returns the peer's verifying key, valid once the
// handshake completes.
func (s *Session) RemotePublicKey() ed25519.PublicKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remotePubKey
}

// Bootstrap returns a RemoteObject handle to the peer's bootstrap object at
// position 0, per spec §4.7.
func (s *Session) Bootstrap() *RemoteObject {
	return s.remoteObjectLocked(0, false)
}

// RemoteObjectAt returns a RemoteObject handle to a peer export position
// already known to the caller, such as one returned by a bootstrap fetch.
func (s *Session) RemoteObjectAt(pos uint64) *RemoteObject {
	return s.remoteObjectLocked(pos, false)
}

// Export installs obj as a freshly exported object and returns its
// position.
func (s *Session) Export(obj Object) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos := s.nextExportPos
	s.nextExportPos++
	s.exports[pos] = obj
	return pos
}

// SetBootstrap installs obj as the session's bootstrap object at position
// 0, overwriting whatever was exported there (including one passed to
// NewSession). Used when the bootstrap object itself needs a reference to
// the session it belongs to, such as captp.BootstrapObject.
func (s *Session) SetBootstrap(obj Object) {
	s.exportAt(0, obj)
}

func (s *Session) exportAt(pos uint64, obj Object) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exports[pos] = obj
	if pos >= s.nextExportPos {
		s.nextExportPos = pos + 1
	}
}

// remoteObjectLocked returns the cached RemoteObject proxy for a peer
// export position, creating one if this is the first reference.
func (s *Session) remoteObjectLocked(pos uint64, isPromise bool) *RemoteObject {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.imports[pos]; ok {
		return r
	}
	r := &RemoteObject{session: s, Position: pos, IsPromise: isPromise}
	s.imports[pos] = r
	return r
}

// sendDeliverOnly writes an op:deliver-only for a call against a peer
// export position.
func (s *Session) sendDeliverOnly(ctx context.Context, toPos uint64, args []syrup.Encodable) error {
	if err := s.checkActive(); err != nil {
		return err
	}
	return s.writer.WriteValue(DeliverOnlyMessage(toPos, args))
}

// sendDeliver writes an op:deliver for a call expecting an answer. It
// exports a fresh resolver object for the response and returns an Answer
// the caller can wait on.
func (s *Session) sendDeliver(ctx context.Context, toPos uint64, args []syrup.Encodable) (*Answer, error) {
	if err := s.checkActive(); err != nil {
		return nil, err
	}
	answer, sink := newAnswer()
	resolverPos := s.Export(&resolverObject{sink: sink})
	msg := DeliverMessage(toPos, args, nil, resolverPos, true)
	if err := s.writer.WriteValue(msg); err != nil {
		return nil, err
	}
	return answer, nil
}

func (s *Session) checkActive() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateActive:
		return nil
	case StateAborted:
		return &SessionError{Reason: s.abortReason, Remote: s.abortRemote}
	case StateClosed:
		return fmt.Errorf("captp: session closed")
	default:
		return fmt.Errorf("captp: session not yet active (state %s)", s.state)
	}
}

// Abort sends op:abort to the peer with reason and transitions the session
// to StateAborted locally.
func (s *Session) Abort(reason string) error {
	s.mu.Lock()
	if s.state == StateAborted || s.state == StateClosed {
		s.mu.Unlock()
		return nil
	}
	s.state = StateAborted
	s.abortReason = reason
	s.abortRemote = false
	cb := s.onAbort
	s.mu.Unlock()
	if cb != nil {
		cb(reason, false)
	}
	err := s.writer.WriteValue(AbortMessage(reason))
	_ = s.conn.Close()
	return err
}

func (s *Session) handleRemoteAbort(reason string) {
	s.mu.Lock()
	if s.state == StateAborted || s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateAborted
	s.abortReason = reason
	s.abortRemote = true
	cb := s.onAbort
	s.mu.Unlock()
	if cb != nil {
		cb(reason, true)
	}
	_ = s.conn.Close()
}

// OnAbort registers a callback invoked once, whenever the session
// transitions to StateAborted, whether locally or peer initiated.
func (s *Session) OnAbort(f func(reason string, remote bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onAbort = f
}

func (s *Session) exportFor(pos uint64) (Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.exports[pos]
	return obj, ok
}
