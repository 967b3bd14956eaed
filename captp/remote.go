package captp

import (
	"context"

	"github.com/SignalWalker/rexa-go/syrup"
)

// RemoteObject is a handle to an object exported by the peer at a fixed
// position in its export table. IsPromise records whether the position was
// introduced as a desc:import-promise (still settling) rather than a
// desc:import-object (already settled); this core does not track promise
// resolution notices for positions other than its own outstanding answers,
// so the flag is informational only.
type RemoteObject struct {
	session   *Session
	Position  uint64
	IsPromise bool
}

// DeliverOnly sends a fire-and-forget call to the remote object. args[0]
// should conventionally be a method Symbol, as built by Call.
func (r *RemoteObject) DeliverOnly(ctx context.Context, args []syrup.Encodable) error {
	return r.session.sendDeliverOnly(ctx, r.Position, args)
}

// Deliver sends a call expecting an answer, and returns an Answer the
// caller can Wait on once the peer resolves it.
func (r *RemoteObject) Deliver(ctx context.Context, args []syrup.Encodable) (*Answer, error) {
	return r.session.sendDeliver(ctx, r.Position, args)
}

// CallOnly builds a deliver-only message with method as the leading
// argument symbol.
func (r *RemoteObject) CallOnly(ctx context.Context, method string, args ...syrup.Encodable) error {
	full := make([]syrup.Encodable, 0, len(args)+1)
	full = append(full, syrup.Symbol(method))
	full = append(full, args...)
	return r.DeliverOnly(ctx, full)
}

// Call builds a deliver message with method as the leading argument
// symbol, and waits for the answer.
func (r *RemoteObject) Call(ctx context.Context, method string, args ...syrup.Encodable) (PromiseResult, error) {
	full := make([]syrup.Encodable, 0, len(args)+1)
	full = append(full, syrup.Symbol(method))
	full = append(full, args...)
	answer, err := r.Deliver(ctx, full)
	if err != nil {
		return PromiseResult{}, err
	}
	return answer.Wait(ctx)
}
