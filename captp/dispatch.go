package captp

import (
	"context"
	"errors"
	"fmt"

	golog "github.com/SignalWalker/rexa-go/internal/log"
	"github.com/SignalWalker/rexa-go/syrup"
)

// listenerSet records op:listen registrations against local export
// positions. Distributed GC is an explicit non-goal, so this core never
// acts on a listener beyond bookkeeping it: op:listen exists on the wire,
// and peers are entitled to send it, but nothing here currently drops an
// export once its listeners are gone.
type listenerSet struct {
	positions map[uint64]int
}

func newListenerSet() *listenerSet {
	return &listenerSet{positions: make(map[uint64]int)}
}

func (l *listenerSet) add(pos uint64) {
	l.positions[pos]++
}

// Run starts the session's dispatch loop: it blocks reading and handling
// messages until the connection closes, the peer aborts, or ctx is done.
// Run assumes Handshake has already completed.
func (s *Session) Run(ctx context.Context) error {
	listeners := newListenerSet()
	for {
		n, err := readValueCtx(ctx, s.reader)
		if err != nil {
			s.mu.Lock()
			closed := s.state == StateAborted || s.state == StateClosed
			s.mu.Unlock()
			if closed {
				return nil
			}
			return fmt.Errorf("captp: dispatch read: %w", err)
		}
		msg, err := DecodeMessage(n)
		if err != nil {
			_ = s.Abort(fmt.Sprintf("malformed message: %v", err))
			return newProtocolError("dispatch", err)
		}
		if err := s.handleMessage(ctx, msg, listeners); err != nil {
			var se *SessionError
			if errors.As(err, &se) {
				return se
			}
			var pe *ProtocolError
			if errors.As(err, &pe) {
				// a protocol violation is fatal to the session, per spec §7:
				// UnknownTarget and friends abort rather than merely logging.
				_ = s.Abort(pe.Error())
				return pe
			}
			golog.Warn().Err(err).Str("label", msg.Label()).Msg("captp: dispatch error")
		}
	}
}

func (s *Session) handleMessage(ctx context.Context, msg Message, listeners *listenerSet) error {
	switch m := msg.(type) {
	case DeliverOnly:
		return s.handleDeliverOnly(ctx, m)
	case Deliver:
		return s.handleDeliver(ctx, m)
	case Abort:
		s.handleRemoteAbort(m.Reason)
		return &SessionError{Reason: m.Reason, Remote: true}
	case Listen:
		listeners.add(m.Position)
		return nil
	case Pick, GCExport, GCAnswer:
		// accepted and ignored: this core tracks neither promise pipelining
		// positions (Pick) nor distributed GC (GCExport/GCAnswer).
		return nil
	default:
		return fmt.Errorf("captp: unhandled message type %T", msg)
	}
}

func (s *Session) handleDeliverOnly(ctx context.Context, m DeliverOnly) error {
	obj, ok := s.exportFor(m.To)
	if !ok {
		return newProtocolError("deliver-only", fmt.Errorf("unknown export position %d", m.To))
	}
	_, err := obj.HandleDeliver(ctx, m.Args)
	if err != nil {
		golog.Debug().Err(err).Uint64("position", m.To).Msg("captp: deliver-only handler error")
	}
	return nil
}

func (s *Session) handleDeliver(ctx context.Context, m Deliver) error {
	obj, ok := s.exportFor(m.To)
	if !ok {
		return newProtocolError("deliver", fmt.Errorf("unknown export position %d", m.To))
	}
	result, err := obj.HandleDeliver(ctx, m.Args)
	return s.resolveToRemote(ctx, m.ResolveMePos, m.ResolveMePromise, result, err)
}

// resolveToRemote sends a fulfill or break call to the peer's resolver
// object named by resolveMePos, the position the peer itself exported for
// this purpose when it sent the original op:deliver (see the resolve_me_desc
// note in DESIGN.md).
func (s *Session) resolveToRemote(ctx context.Context, resolveMePos uint64, resolveMePromise bool, result syrup.Encodable, callErr error) error {
	resolver := s.remoteObjectLocked(resolveMePos, resolveMePromise)
	if callErr != nil {
		return resolver.CallOnly(ctx, "break", syrup.Text(callErr.Error()))
	}
	if result == nil {
		result = syrup.Bool(false)
	}
	return resolver.CallOnly(ctx, "fulfill", result)
}
