package captp

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/ed25519"
)

// ErrBadSignature is returned by a Verifier when a signature does not
// verify against the claimed public key and message.
var ErrBadSignature = errors.New("captp: signature verification failed")

// Signer is the black-box capability this core requires for session
// identity: a private key it never inspects beyond asking it to sign. Ed25519
// signing primitives themselves are an explicit exclusion of this spec; only
// this interface is part of the core.
type Signer interface {
	PublicKey() ed25519.PublicKey
	Sign(message []byte) ([]byte, error)
}

// Verifier checks a signature against a claimed public key.
type Verifier interface {
	Verify(pub ed25519.PublicKey, message, sig []byte) error
}

// Ed25519Signer is the default Signer. Each NewEd25519Signer call generates
// a fresh key pair; a Session signs with whichever Signer it is given, so a
// caller that shares one Signer across sessions (as netlayer.Manager does
// for every session it establishes) gets the same key on all of them.
type Ed25519Signer struct {
	priv ed25519.PrivateKey
}

// NewEd25519Signer generates a fresh Ed25519 key pair.
func NewEd25519Signer() (*Ed25519Signer, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("captp: generating session signing key: %w", err)
	}
	return &Ed25519Signer{priv: priv}, nil
}

// PublicKey returns the verifying key paired with this signer.
func (s *Ed25519Signer) PublicKey() ed25519.PublicKey {
	return s.priv.Public().(ed25519.PublicKey)
}

// Sign signs message with the held private key.
func (s *Ed25519Signer) Sign(message []byte) ([]byte, error) {
	return ed25519.Sign(s.priv, message), nil
}

// DefaultVerifier verifies Ed25519 signatures.
var DefaultVerifier Verifier = ed25519Verifier{}

type ed25519Verifier struct{}

func (ed25519Verifier) Verify(pub ed25519.PublicKey, message, sig []byte) error {
	if !ed25519.Verify(pub, message, sig) {
		return ErrBadSignature
	}
	return nil
}
