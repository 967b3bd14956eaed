package captp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/SignalWalker/rexa-go/syrup"
)

// Conn is the duplex byte stream a netlayer hands to a session. Unlike the
// framed, length-prefixed transports elsewhere in this ecosystem, CapTp
// needs no length header: every Syrup value is self-delimiting, so framing
// falls entirely out of the decoder's own incremental-read property.
type Conn interface {
	io.Reader
	io.Writer
	io.Closer
}

// FrameReader decodes a stream of Syrup values off a Conn, buffering across
// reads as needed to satisfy DecodeTree's incremental-decode contract.
type FrameReader struct {
	mu  sync.Mutex
	r   *bufio.Reader
	buf []byte
}

// NewFrameReader wraps r for incremental Syrup-value reads.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: bufio.NewReader(r)}
}

// ReadValue blocks until a complete Syrup value tree has arrived, decodes
// it, and retains any leftover bytes for the next call.
func (f *FrameReader) ReadValue() (syrup.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for {
		if len(f.buf) > 0 {
			n, rest, err := syrup.DecodeTree(f.buf)
			if err == nil {
				f.buf = rest
				return n, nil
			}
			var de *syrup.DecodeError
			if !asDecodeError(err, &de) || de.Kind != syrup.KindIncomplete {
				return nil, fmt.Errorf("captp: decoding frame: %w", err)
			}
		}
		chunk := make([]byte, 4096)
		n, err := f.r.Read(chunk)
		if n > 0 {
			f.buf = append(f.buf, chunk[:n]...)
		}
		if err != nil {
			if n > 0 {
				continue
			}
			return nil, fmt.Errorf("captp: reading frame: %w", err)
		}
	}
}

func asDecodeError(err error, target **syrup.DecodeError) bool {
	de, ok := err.(*syrup.DecodeError)
	if ok {
		*target = de
	}
	return ok
}

// FrameWriter serializes outgoing Syrup values to a Conn. Writes are
// serialized with a mutex since a session's dispatch loop and its call
// sites may write concurrently.
type FrameWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewFrameWriter wraps w for Syrup-value writes.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

// WriteValue encodes v and writes it in full, holding the writer lock for
// the duration so concurrent messages never interleave.
func (f *FrameWriter) WriteValue(v syrup.Encodable) error {
	b, err := syrup.EncodeValue(v)
	if err != nil {
		return fmt.Errorf("captp: encoding frame: %w", err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.w.Write(b); err != nil {
		return fmt.Errorf("captp: writing frame: %w", err)
	}
	return nil
}

// readValueCtx is a small helper giving ReadValue a context-cancellable
// wrapper for callers that need to bound the wait for the next frame. The
// underlying Conn is not itself interrupted; cancellation only stops this
// caller from waiting on it further.
func readValueCtx(ctx context.Context, fr *FrameReader) (syrup.Node, error) {
	type result struct {
		n   syrup.Node
		err error
	}
	done := make(chan result, 1)
	go func() {
		n, err := fr.ReadValue()
		done <- result{n, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.n, r.err
	}
}
