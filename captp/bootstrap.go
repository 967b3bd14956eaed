package captp

import (
	"context"
	"fmt"
	"sync"

	"github.com/SignalWalker/rexa-go/syrup"
)

// BootstrapObject is the well-known object at export position 0 of every
// session, per spec §4.7: it resolves swiss numbers to exported object
// positions, and carries the gift table used by deposit_gift/withdraw_gift.
//
// withdraw_gift is part of the third-party handoff machinery, which this
// core models only at the data level (DescImport's import-object vs
// import-promise distinction); actually performing a handoff introduction
// is out of scope, so withdraw_gift always breaks with an explanatory
// reason rather than silently succeeding.
type BootstrapObject struct {
	registry *BootstrapRegistry
	session  *Session

	mu    sync.Mutex
	gifts map[uint64]syrup.Node
}

// NewBootstrapObject builds the bootstrap object for session, resolving
// fetches against registry.
func NewBootstrapObject(session *Session, registry *BootstrapRegistry) *BootstrapObject {
	return &BootstrapObject{
		session:  session,
		registry: registry,
		gifts:    make(map[uint64]syrup.Node),
	}
}

// HandleDeliver implements Object for the bootstrap well-known methods.
func (b *BootstrapObject) HandleDeliver(ctx context.Context, args []syrup.Node) (syrup.Encodable, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("captp: bootstrap delivery has no method symbol")
	}
	method, err := syrup.AsSymbol(args[0])
	if err != nil {
		return nil, fmt.Errorf("captp: decoding bootstrap method: %w", err)
	}
	switch method {
	case "fetch":
		return b.fetch(args[1:])
	case "deposit_gift":
		return nil, b.depositGift(args[1:])
	case "withdraw_gift":
		return nil, fmt.Errorf("captp: withdraw_gift unsupported: third-party handoff is out of scope")
	default:
		return nil, fmt.Errorf("captp: bootstrap object has no method %q", method)
	}
}

func (b *BootstrapObject) fetch(args []syrup.Node) (syrup.Encodable, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("captp: fetch expects 1 argument, got %d", len(args))
	}
	swiss, err := syrup.AsBytes(args[0])
	if err != nil {
		return nil, fmt.Errorf("captp: decoding fetch swiss number: %w", err)
	}
	obj, ok := b.registry.Lookup(swiss)
	if !ok {
		return nil, fmt.Errorf("captp: no object registered for swiss number")
	}
	pos := b.session.Export(obj)
	return DescExportRecord(pos), nil
}

func (b *BootstrapObject) depositGift(args []syrup.Node) error {
	if len(args) != 2 {
		return fmt.Errorf("captp: deposit_gift expects 2 arguments, got %d", len(args))
	}
	giftID, err := syrup.AsUint64(args[0])
	if err != nil {
		return fmt.Errorf("captp: decoding gift id: %w", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gifts[giftID] = args[1]
	return nil
}

// Gift returns a previously deposited gift descriptor, if any.
func (b *BootstrapObject) Gift(giftID uint64) (syrup.Node, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok := b.gifts[giftID]
	return n, ok
}
