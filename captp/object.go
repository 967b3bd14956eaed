package captp

import (
	"context"
	"fmt"

	"github.com/SignalWalker/rexa-go/syrup"
)

// Object is a local capability exported into a session's export table. A
// delivery's first argument is conventionally a method symbol; everything
// after it is the method's own arguments, matching how RemoteObject.Call
// shapes outgoing deliveries.
type Object interface {
	// HandleDeliver processes a delivered call. A nil result is valid: not
	// every method produces one, and deliver-only calls discard whatever is
	// returned here.
	HandleDeliver(ctx context.Context, args []syrup.Node) (syrup.Encodable, error)
}

// ObjectFunc adapts a plain function to Object.
type ObjectFunc func(ctx context.Context, args []syrup.Node) (syrup.Encodable, error)

// HandleDeliver calls f.
func (f ObjectFunc) HandleDeliver(ctx context.Context, args []syrup.Node) (syrup.Encodable, error) {
	return f(ctx, args)
}

// MethodObject dispatches deliveries by their leading method symbol to a
// table of handlers, the common case for exported application objects.
type MethodObject struct {
	Methods map[string]func(ctx context.Context, args []syrup.Node) (syrup.Encodable, error)
}

// NewMethodObject builds a MethodObject from a method table.
func NewMethodObject(methods map[string]func(ctx context.Context, args []syrup.Node) (syrup.Encodable, error)) *MethodObject {
	return &MethodObject{Methods: methods}
}

// HandleDeliver extracts the leading method symbol and dispatches to the
// matching handler.
func (o *MethodObject) HandleDeliver(ctx context.Context, args []syrup.Node) (syrup.Encodable, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("captp: delivery has no method symbol")
	}
	method, err := syrup.AsSymbol(args[0])
	if err != nil {
		return nil, fmt.Errorf("captp: decoding method symbol: %w", err)
	}
	handler, ok := o.Methods[method]
	if !ok {
		return nil, fmt.Errorf("captp: object has no method %q", method)
	}
	return handler(ctx, args[1:])
}
