package captp

import (
	"fmt"

	"github.com/SignalWalker/rexa-go/syrup"
	"golang.org/x/crypto/ed25519"
)

// Message labels, per spec §4.5.
const (
	LabelStartSession      = "op:start-session"
	LabelDeliverOnly       = "op:deliver-only"
	LabelDeliver           = "op:deliver"
	LabelAbort             = "op:abort"
	LabelPick              = "op:pick"
	LabelListen            = "op:listen"
	LabelGCExport          = "op:gc-export"
	LabelGCAnswer          = "op:gc-answer"
	LabelDescExport        = "desc:export"
	LabelDescImportObject  = "desc:import-object"
	LabelDescImportPromise = "desc:import-promise"
	LabelPublicKey         = "public-key"
	LabelSigVal            = "sig-val"
)

// Message is implemented by every decoded op:* payload.
type Message interface {
	Label() string
}

// --- encode-side builders ---

// DescExportRecord encodes a local export position as a desc:export record.
func DescExportRecord(pos uint64) syrup.Record {
	return syrup.Record{Label: syrup.Symbol(LabelDescExport), Fields: []syrup.Encodable{syrup.IntFromUint64(pos)}}
}

// DescImportObjectRecord encodes a remote's export position as seen by us
// (an object descriptor).
func DescImportObjectRecord(pos uint64) syrup.Record {
	return syrup.Record{Label: syrup.Symbol(LabelDescImportObject), Fields: []syrup.Encodable{syrup.IntFromUint64(pos)}}
}

// DescImportPromiseRecord encodes a remote's export position as a promise
// descriptor.
func DescImportPromiseRecord(pos uint64) syrup.Record {
	return syrup.Record{Label: syrup.Symbol(LabelDescImportPromise), Fields: []syrup.Encodable{syrup.IntFromUint64(pos)}}
}

// PublicKeyRecord encodes a session verifying key.
func PublicKeyRecord(pub ed25519.PublicKey) syrup.Record {
	return syrup.Record{Label: syrup.Symbol(LabelPublicKey), Fields: []syrup.Encodable{syrup.Bytes(pub)}}
}

// SigValRecord encodes a signature over a serialized NodeLocator.
func SigValRecord(sig []byte) syrup.Record {
	return syrup.Record{Label: syrup.Symbol(LabelSigVal), Fields: []syrup.Encodable{syrup.Bytes(sig)}}
}

// StartSessionMessage builds the handshake record both peers send exactly
// once, per spec §4.4.
func StartSessionMessage(version string, pub ed25519.PublicKey, location NodeLocator, sig []byte) syrup.Record {
	return syrup.Record{
		Label: syrup.Symbol(LabelStartSession),
		Fields: []syrup.Encodable{
			syrup.Text(version),
			PublicKeyRecord(pub),
			location,
			SigValRecord(sig),
		},
	}
}

// DeliverOnlyMessage builds a fire-and-forget call, per spec §4.5.
func DeliverOnlyMessage(toPos uint64, args []syrup.Encodable) syrup.Record {
	return syrup.Record{
		Label:  syrup.Symbol(LabelDeliverOnly),
		Fields: []syrup.Encodable{DescExportRecord(toPos), syrup.List(args)},
	}
}

// DeliverMessage builds a call expecting an answer. answerPos is nil when
// the caller does not also want a chained answer position exported;
// resolveMePromise selects desc:import-promise over desc:import-object for
// the resolver descriptor.
func DeliverMessage(toPos uint64, args []syrup.Encodable, answerPos *uint64, resolveMePos uint64, resolveMePromise bool) syrup.Record {
	var answerField syrup.Encodable = syrup.Bool(false)
	if answerPos != nil {
		answerField = syrup.IntFromUint64(*answerPos)
	}
	var resolveMe syrup.Encodable
	if resolveMePromise {
		resolveMe = DescImportPromiseRecord(resolveMePos)
	} else {
		resolveMe = DescImportObjectRecord(resolveMePos)
	}
	return syrup.Record{
		Label:  syrup.Symbol(LabelDeliver),
		Fields: []syrup.Encodable{DescExportRecord(toPos), syrup.List(args), answerField, resolveMe},
	}
}

// AbortMessage builds a session-terminating abort record.
func AbortMessage(reason string) syrup.Record {
	return syrup.Record{Label: syrup.Symbol(LabelAbort), Fields: []syrup.Encodable{syrup.Text(reason)}}
}

// ListenMessage builds an op:listen registration for an export position.
func ListenMessage(pos uint64) syrup.Record {
	return syrup.Record{Label: syrup.Symbol(LabelListen), Fields: []syrup.Encodable{DescExportRecord(pos)}}
}

// GCExportMessage builds an op:gc-export notice for an export position.
func GCExportMessage(pos uint64) syrup.Record {
	return syrup.Record{Label: syrup.Symbol(LabelGCExport), Fields: []syrup.Encodable{DescExportRecord(pos)}}
}

// GCAnswerMessage builds an op:gc-answer notice for an answer position.
func GCAnswerMessage(pos uint64) syrup.Record {
	return syrup.Record{Label: syrup.Symbol(LabelGCAnswer), Fields: []syrup.Encodable{DescExportRecord(pos)}}
}

// --- decode-side types ---

// StartSession is the decoded op:start-session payload.
type StartSession struct {
	Version  string
	PubKey   ed25519.PublicKey
	Location NodeLocator
	Sig      []byte
}

func (StartSession) Label() string { return LabelStartSession }

// DeliverOnly is the decoded op:deliver-only payload.
type DeliverOnly struct {
	To   uint64
	Args []syrup.Node
}

func (DeliverOnly) Label() string { return LabelDeliverOnly }

// Deliver is the decoded op:deliver payload.
type Deliver struct {
	To               uint64
	Args             []syrup.Node
	AnswerPos        *uint64
	ResolveMePos     uint64
	ResolveMePromise bool
}

func (Deliver) Label() string { return LabelDeliver }

// Abort is the decoded op:abort payload.
type Abort struct {
	Reason string
}

func (Abort) Label() string { return LabelAbort }

// Listen is the decoded op:listen payload.
type Listen struct{ Position uint64 }

func (Listen) Label() string { return LabelListen }

// Pick is the decoded op:pick payload.
type Pick struct{ Position uint64 }

func (Pick) Label() string { return LabelPick }

// GCExport is the decoded op:gc-export payload.
type GCExport struct{ Position uint64 }

func (GCExport) Label() string { return LabelGCExport }

// GCAnswer is the decoded op:gc-answer payload.
type GCAnswer struct{ Position uint64 }

func (GCAnswer) Label() string { return LabelGCAnswer }

// DecodeMessage dispatches on n's record label and decodes the matching
// op:* payload.
func DecodeMessage(n syrup.Node) (Message, error) {
	label, ok := syrup.RecordLabel(n)
	if !ok {
		return nil, fmt.Errorf("captp: expected a labeled record message")
	}
	switch label {
	case LabelStartSession:
		return decodeStartSession(n)
	case LabelDeliverOnly:
		return decodeDeliverOnly(n)
	case LabelDeliver:
		return decodeDeliver(n)
	case LabelAbort:
		return decodeAbort(n)
	case LabelListen:
		pos, err := decodeDescExportField(n, label)
		return Listen{Position: pos}, err
	case LabelPick:
		pos, err := decodeDescExportField(n, label)
		return Pick{Position: pos}, err
	case LabelGCExport:
		pos, err := decodeDescExportField(n, label)
		return GCExport{Position: pos}, err
	case LabelGCAnswer:
		pos, err := decodeDescExportField(n, label)
		return GCAnswer{Position: pos}, err
	default:
		return nil, fmt.Errorf("captp: unknown message label %q", label)
	}
}

func decodeDescExport(n syrup.Node) (uint64, error) {
	fields, err := syrup.AsRecord(n, LabelDescExport)
	if err != nil {
		return 0, err
	}
	if len(fields) != 1 {
		return 0, fmt.Errorf("captp: desc:export record has %d fields, want 1", len(fields))
	}
	return syrup.AsUint64(fields[0])
}

func decodeDescExportField(n syrup.Node, label string) (uint64, error) {
	fields, err := syrup.AsRecord(n, label)
	if err != nil {
		return 0, err
	}
	if len(fields) != 1 {
		return 0, fmt.Errorf("captp: %s record has %d fields, want 1", label, len(fields))
	}
	return decodeDescExport(fields[0])
}

// decodeDescImport decodes either a desc:import-object or
// desc:import-promise descriptor.
func decodeDescImport(n syrup.Node) (pos uint64, isPromise bool, err error) {
	label, ok := syrup.RecordLabel(n)
	if !ok {
		return 0, false, fmt.Errorf("captp: expected desc:import-object or desc:import-promise")
	}
	switch label {
	case LabelDescImportObject:
		fields, err := syrup.AsRecord(n, label)
		if err != nil {
			return 0, false, err
		}
		pos, err := syrup.AsUint64(fields[0])
		return pos, false, err
	case LabelDescImportPromise:
		fields, err := syrup.AsRecord(n, label)
		if err != nil {
			return 0, false, err
		}
		pos, err := syrup.AsUint64(fields[0])
		return pos, true, err
	default:
		return 0, false, fmt.Errorf("captp: unexpected descriptor label %q", label)
	}
}

func decodeStartSession(n syrup.Node) (Message, error) {
	fields, err := syrup.AsRecord(n, LabelStartSession)
	if err != nil {
		return nil, err
	}
	if len(fields) != 4 {
		return nil, fmt.Errorf("captp: op:start-session record has %d fields, want 4", len(fields))
	}
	version, err := syrup.AsString(fields[0])
	if err != nil {
		return nil, fmt.Errorf("captp: decoding captp_version: %w", err)
	}
	pubFields, err := syrup.AsRecord(fields[1], LabelPublicKey)
	if err != nil {
		return nil, fmt.Errorf("captp: decoding session_pubkey: %w", err)
	}
	if len(pubFields) != 1 {
		return nil, fmt.Errorf("captp: public-key record has %d fields, want 1", len(pubFields))
	}
	pubBytes, err := syrup.AsBytes(pubFields[0])
	if err != nil {
		return nil, fmt.Errorf("captp: decoding session_pubkey.ecc: %w", err)
	}
	if len(pubBytes) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("captp: session_pubkey.ecc has %d bytes, want %d", len(pubBytes), ed25519.PublicKeySize)
	}
	location, err := DecodeNodeLocator(fields[2])
	if err != nil {
		return nil, fmt.Errorf("captp: decoding acceptable_location: %w", err)
	}
	sigFields, err := syrup.AsRecord(fields[3], LabelSigVal)
	if err != nil {
		return nil, fmt.Errorf("captp: decoding acceptable_location_sig: %w", err)
	}
	if len(sigFields) != 1 {
		return nil, fmt.Errorf("captp: sig-val record has %d fields, want 1", len(sigFields))
	}
	sig, err := syrup.AsBytes(sigFields[0])
	if err != nil {
		return nil, fmt.Errorf("captp: decoding acceptable_location_sig.eddsa: %w", err)
	}
	return StartSession{
		Version:  version,
		PubKey:   ed25519.PublicKey(pubBytes),
		Location: location,
		Sig:      sig,
	}, nil
}

func decodeDeliverOnly(n syrup.Node) (Message, error) {
	fields, err := syrup.AsRecord(n, LabelDeliverOnly)
	if err != nil {
		return nil, err
	}
	if len(fields) != 2 {
		return nil, fmt.Errorf("captp: op:deliver-only record has %d fields, want 2", len(fields))
	}
	to, err := decodeDescExport(fields[0])
	if err != nil {
		return nil, fmt.Errorf("captp: decoding to-desc: %w", err)
	}
	args, err := syrup.AsList(fields[1])
	if err != nil {
		return nil, fmt.Errorf("captp: decoding args: %w", err)
	}
	return DeliverOnly{To: to, Args: args}, nil
}

func decodeDeliver(n syrup.Node) (Message, error) {
	fields, err := syrup.AsRecord(n, LabelDeliver)
	if err != nil {
		return nil, err
	}
	if len(fields) != 4 {
		return nil, fmt.Errorf("captp: op:deliver record has %d fields, want 4", len(fields))
	}
	to, err := decodeDescExport(fields[0])
	if err != nil {
		return nil, fmt.Errorf("captp: decoding to-desc: %w", err)
	}
	args, err := syrup.AsList(fields[1])
	if err != nil {
		return nil, fmt.Errorf("captp: decoding args: %w", err)
	}
	var answerPos *uint64
	if b, ok := fields[2].(syrup.TBool); ok {
		if b.Value {
			return nil, fmt.Errorf("captp: answer-pos field is `true`, want integer or `false`")
		}
	} else {
		pos, err := syrup.AsUint64(fields[2])
		if err != nil {
			return nil, fmt.Errorf("captp: decoding answer-pos: %w", err)
		}
		answerPos = &pos
	}
	resolveMePos, isPromise, err := decodeDescImport(fields[3])
	if err != nil {
		return nil, fmt.Errorf("captp: decoding resolve-me-desc: %w", err)
	}
	return Deliver{To: to, Args: args, AnswerPos: answerPos, ResolveMePos: resolveMePos, ResolveMePromise: isPromise}, nil
}

func decodeAbort(n syrup.Node) (Message, error) {
	fields, err := syrup.AsRecord(n, LabelAbort)
	if err != nil {
		return nil, err
	}
	if len(fields) != 1 {
		return nil, fmt.Errorf("captp: op:abort record has %d fields, want 1", len(fields))
	}
	reason, err := syrup.AsString(fields[0])
	if err != nil {
		return nil, fmt.Errorf("captp: decoding abort reason: %w", err)
	}
	return Abort{Reason: reason}, nil
}
