package captp

import (
	"context"
	"fmt"

	"github.com/SignalWalker/rexa-go/syrup"
)

// PromiseResult is the outcome the peer sent back for an answer: either a
// fulfillment value or a broken-promise error value, per the "fulfill" /
// "break" convention on resolver objects documented in spec §4.6.
type PromiseResult struct {
	Value syrup.Node
	Break syrup.Node
}

// Resolved reports whether the answer fulfilled rather than broke.
func (r PromiseResult) Resolved() bool { return r.Break == nil }

// Answer is the one-shot awaitable half of an outstanding op:deliver call,
// bridging the wire's asynchronous resolution back to a blocking Go caller.
type Answer struct {
	ch chan PromiseResult
}

func newAnswer() (*Answer, *resolverSink) {
	ch := make(chan PromiseResult, 1)
	return &Answer{ch: ch}, &resolverSink{ch: ch}
}

// Wait blocks until the answer resolves or ctx is done.
func (a *Answer) Wait(ctx context.Context) (PromiseResult, error) {
	select {
	case r, ok := <-a.ch:
		if !ok {
			return PromiseResult{}, fmt.Errorf("captp: answer resolved with no result")
		}
		return r, nil
	case <-ctx.Done():
		return PromiseResult{}, ctx.Err()
	}
}

// resolverSink is the write side of an Answer, fed by the session's
// dispatch loop when a "fulfill" or "break" delivery targets the
// corresponding answer position.
type resolverSink struct {
	ch chan PromiseResult
}

func (s *resolverSink) fulfill(v syrup.Node) {
	select {
	case s.ch <- PromiseResult{Value: v}:
	default:
	}
	close(s.ch)
}

func (s *resolverSink) breakPromise(reason syrup.Node) {
	select {
	case s.ch <- PromiseResult{Break: reason}:
	default:
	}
	close(s.ch)
}

// resolverObject is the exported object a remote peer delivers "fulfill"
// or "break" calls to, installed at a position by Session.sendDeliver so
// the answer completes when the peer responds.
type resolverObject struct {
	sink *resolverSink
}

func (r *resolverObject) HandleDeliver(ctx context.Context, args []syrup.Node) (syrup.Encodable, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("captp: resolver delivery has no method symbol")
	}
	method, err := syrup.AsSymbol(args[0])
	if err != nil {
		return nil, fmt.Errorf("captp: decoding resolver method: %w", err)
	}
	switch method {
	case "fulfill":
		if len(args) < 2 {
			return nil, fmt.Errorf("captp: fulfill delivery missing value")
		}
		r.sink.fulfill(args[1])
		return nil, nil
	case "break":
		if len(args) < 2 {
			return nil, fmt.Errorf("captp: break delivery missing reason")
		}
		r.sink.breakPromise(args[1])
		return nil, nil
	default:
		return nil, fmt.Errorf("captp: resolver object has no method %q", method)
	}
}
