// Package captp implements the CapTp session protocol layer on top of the
// syrup wire codec: handshake, message framing, the per-session export,
// import, and answer tables, operation dispatch, and the resolver/answer
// bridge between the wire and local awaitables.
package captp

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/SignalWalker/rexa-go/syrup"
)

// RecordLabelNodeLocator is the Syrup record label for an encoded NodeLocator.
const RecordLabelNodeLocator = "ocapn-node"

// NodeLocator names a remote node as a (designator, transport, hints)
// triple. The designator is opaque to this package and interpreted by the
// transport named by Transport. Swiss carries the opaque swiss-number
// suffix of a sturdy-ref URI, when present.
type NodeLocator struct {
	Designator string
	Transport  string
	Hints      map[string]string
	Swiss      []byte
}

// EncodeSyrup writes the locator as a <ocapn-node designator transport
// hints> record, with hints serialized as false when empty.
func (l NodeLocator) EncodeSyrup(w *syrup.Writer) error {
	var hints syrup.Encodable
	if len(l.Hints) == 0 {
		hints = syrup.Bool(false)
	} else {
		keys := make([]string, 0, len(l.Hints))
		for k := range l.Hints {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		entries := make([]syrup.DictEntry, len(keys))
		for i, k := range keys {
			entries[i] = syrup.DictEntry{Key: syrup.Symbol(k), Value: syrup.Text(l.Hints[k])}
		}
		hints = syrup.Dict(entries)
	}
	rec := syrup.Record{
		Label: syrup.Symbol(RecordLabelNodeLocator),
		Fields: []syrup.Encodable{
			syrup.Text(l.Designator),
			syrup.Symbol(l.Transport),
			hints,
		},
	}
	return rec.EncodeSyrup(w)
}

// DecodeNodeLocator decodes a <ocapn-node ...> record into a NodeLocator.
func DecodeNodeLocator(n syrup.Node) (NodeLocator, error) {
	fields, err := syrup.AsRecord(n, RecordLabelNodeLocator)
	if err != nil {
		return NodeLocator{}, err
	}
	if len(fields) != 3 {
		return NodeLocator{}, fmt.Errorf("captp: ocapn-node record has %d fields, want 3", len(fields))
	}
	designator, err := syrup.AsString(fields[0])
	if err != nil {
		return NodeLocator{}, fmt.Errorf("captp: decoding locator designator: %w", err)
	}
	transport, err := syrup.AsSymbol(fields[1])
	if err != nil {
		return NodeLocator{}, fmt.Errorf("captp: decoding locator transport: %w", err)
	}
	hints := map[string]string{}
	if b, ok := fields[2].(syrup.TBool); ok {
		if b.Value {
			return NodeLocator{}, fmt.Errorf("captp: locator hints field is `true`, want dictionary or `false`")
		}
	} else {
		pairs, err := syrup.AsDict(fields[2])
		if err != nil {
			return NodeLocator{}, fmt.Errorf("captp: decoding locator hints: %w", err)
		}
		for _, p := range pairs {
			k, err := syrup.AsSymbol(p.Key)
			if err != nil {
				return NodeLocator{}, fmt.Errorf("captp: decoding locator hint key: %w", err)
			}
			v, err := syrup.AsString(p.Value)
			if err != nil {
				return NodeLocator{}, fmt.Errorf("captp: decoding locator hint value: %w", err)
			}
			hints[k] = v
		}
	}
	return NodeLocator{Designator: designator, Transport: transport, Hints: hints}, nil
}

// ParseLocatorURI parses an `ocapn://<designator>.<transport>[:port][?k=v]`
// URI, including its `/s/<swiss-bytes>` sturdy-ref suffix, per spec §6.2.
func ParseLocatorURI(raw string) (NodeLocator, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return NodeLocator{}, fmt.Errorf("captp: parsing ocapn uri: %w", err)
	}
	if !strings.EqualFold(u.Scheme, "ocapn") {
		return NodeLocator{}, fmt.Errorf("captp: uri scheme %q is not ocapn", u.Scheme)
	}
	host := u.Hostname()
	idx := strings.LastIndex(host, ".")
	if idx < 0 {
		return NodeLocator{}, fmt.Errorf("captp: uri host %q has no designator.transport split", host)
	}
	designator := host[:idx]
	transport := host[idx+1:]

	hints := map[string]string{}
	if port := u.Port(); port != "" {
		hints["port"] = port
	}
	for k, vs := range u.Query() {
		if len(vs) > 0 {
			hints[k] = vs[0]
		}
	}

	var swiss []byte
	if strings.HasPrefix(u.EscapedPath(), "/s/") {
		decoded, err := url.PathUnescape(strings.TrimPrefix(u.EscapedPath(), "/s/"))
		if err != nil {
			return NodeLocator{}, fmt.Errorf("captp: decoding sturdy-ref swiss bytes: %w", err)
		}
		swiss = []byte(decoded)
	}

	if len(hints) == 0 {
		hints = nil
	}
	return NodeLocator{Designator: designator, Transport: transport, Hints: hints, Swiss: swiss}, nil
}

// String reconstructs an ocapn:// URI for the locator. Hints other than
// "port" are emitted as query parameters in sorted key order, for
// determinism.
func (l NodeLocator) String() string {
	var b strings.Builder
	b.WriteString("ocapn://")
	b.WriteString(l.Designator)
	b.WriteByte('.')
	b.WriteString(l.Transport)
	if port, ok := l.Hints["port"]; ok {
		b.WriteByte(':')
		b.WriteString(port)
	}
	if len(l.Swiss) > 0 {
		b.WriteString("/s/")
		b.WriteString(url.PathEscape(string(l.Swiss)))
	}
	var keys []string
	for k := range l.Hints {
		if k == "port" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 0 {
		b.WriteByte('?')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(l.Hints[k]))
		}
	}
	return b.String()
}
