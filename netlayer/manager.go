package netlayer

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/SignalWalker/rexa-go/captp"
	golog "github.com/SignalWalker/rexa-go/internal/log"
	"golang.org/x/sync/errgroup"
)

// Manager owns one node identity across possibly several registered
// transports, dialing and accepting CapTp sessions and deduplicating them
// against a remote's designator, per spec §4.9.
type Manager struct {
	mu         sync.Mutex
	transports map[string]Transport
	sessions   map[string]*captp.Session

	signer       captp.Signer
	localLocator captp.NodeLocator
	registry     *captp.BootstrapRegistry

	group *errgroup.Group
}

// NewManager builds a Manager for a fixed local identity, with no
// transports registered yet. registry may be nil for a node that exports
// nothing (a pure client); otherwise every session this Manager
// establishes gets its own BootstrapObject resolving fetches against it.
func NewManager(signer captp.Signer, localLocator captp.NodeLocator, registry *captp.BootstrapRegistry) *Manager {
	return &Manager{
		transports:   make(map[string]Transport),
		sessions:     make(map[string]*captp.Session),
		signer:       signer,
		localLocator: localLocator,
		registry:     registry,
		group:        &errgroup.Group{},
	}
}

// RegisterTransport makes t available for locators naming t.Name().
func (m *Manager) RegisterTransport(t Transport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transports[t.Name()] = t
}

// Connect returns an active session to locator's designator, reusing one
// already open over the same transport+designator pair when present.
func (m *Manager) Connect(ctx context.Context, locator captp.NodeLocator) (*captp.Session, error) {
	key := sessionKey(locator.Transport, locator.Designator)

	m.mu.Lock()
	if existing, ok := m.sessions[key]; ok && existing.State() == captp.StateActive {
		m.mu.Unlock()
		return existing, nil
	}
	transport, ok := m.transports[locator.Transport]
	m.mu.Unlock()
	if !ok {
		return nil, ErrUnknownTransport(locator.Transport)
	}

	conn, err := transport.Dial(ctx, locator.Designator)
	if err != nil {
		return nil, fmt.Errorf("netlayer: dialing %s: %w", locator, err)
	}
	return m.establish(ctx, key, conn, true)
}

// Serve accepts connections from transportName until ctx is done,
// establishing and running a session for each.
func (m *Manager) Serve(ctx context.Context, transportName string) error {
	m.mu.Lock()
	transport, ok := m.transports[transportName]
	m.mu.Unlock()
	if !ok {
		return ErrUnknownTransport(transportName)
	}
	for {
		conn, remoteHint, err := transport.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("netlayer: accepting on %s: %w", transportName, err)
		}
		key := sessionKey(transportName, remoteHint)
		m.group.Go(func() error {
			session, err := m.establish(ctx, key, conn, false)
			if err != nil {
				golog.Warn().Err(err).Str("transport", transportName).Msg("netlayer: failed to establish accepted session")
				return nil
			}
			_ = session
			return nil
		})
	}
}

// Wait blocks until every session spawned via Serve/Connect's background
// dispatch loop has returned.
func (m *Manager) Wait() error {
	return m.group.Wait()
}

// establish builds, handshakes, and registers a session for conn. initiator
// selects the handshake ordering (spec §4.4): true for a dialed connection,
// false for one accepted from a transport's Accept.
func (m *Manager) establish(ctx context.Context, key string, conn captp.Conn, initiator bool) (*captp.Session, error) {
	session := captp.NewSession(conn, m.signer, m.localLocator, nil)
	if m.registry != nil {
		session.SetBootstrap(captp.NewBootstrapObject(session, m.registry))
	}
	if err := session.Handshake(ctx, initiator); err != nil {
		return nil, fmt.Errorf("netlayer: handshake: %w", err)
	}

	m.mu.Lock()
	if existing, ok := m.sessions[key]; ok && existing.State() == captp.StateActive {
		winner := ResolveCrossedHellos(existing, session)
		m.mu.Unlock()
		if winner == existing {
			_ = session.Abort(captp.ErrCrossedHellos)
			return existing, nil
		}
		_ = existing.Abort(captp.ErrCrossedHellos)
		m.mu.Lock()
		m.sessions[key] = session
		m.mu.Unlock()
	} else {
		m.sessions[key] = session
		m.mu.Unlock()
	}

	m.group.Go(func() error {
		err := session.Run(ctx)
		m.mu.Lock()
		if m.sessions[key] == session {
			delete(m.sessions, key)
		}
		m.mu.Unlock()
		return err
	})
	return session, nil
}

// ResolveCrossedHellos picks the surviving session when two sessions race
// to the same remote designator: the side whose remote verifying key
// sorts lexicographically smaller wins, per spec §12.
func ResolveCrossedHellos(a, b *captp.Session) *captp.Session {
	if bytes.Compare(a.RemotePublicKey(), b.RemotePublicKey()) <= 0 {
		return a
	}
	return b
}

func sessionKey(transport, designator string) string {
	return transport + "|" + designator
}
