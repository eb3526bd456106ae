package credstore

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

// Sealer protects payloads at rest.
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

type plain struct{}

func (plain) Seal(b []byte) ([]byte, error) { return b, nil }
func (plain) Open(b []byte) ([]byte, error) { return b, nil }

var errUnseal = errors.New("sealed payload could not be opened")

const nonceSize = 24

type SecretBox struct {
	key [32]byte
}

// NewSealer derives a secretbox key from secret. An empty secret returns a
// nil Sealer, meaning payloads are stored as plain JSON.
func NewSealer(secret string) (Sealer, error) {
	if secret == "" {
		return nil, nil
	}
	return NewSecretBox(secret)
}

func NewSecretBox(secret string) (*SecretBox, error) {
	sb := &SecretBox{}
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("tracker-parent credstore v1"))
	if _, err := io.ReadFull(kdf, sb.key[:]); err != nil {
		return nil, err
	}
	return sb, nil
}

func (s *SecretBox) Seal(plaintext []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, &s.key), nil
}

func (s *SecretBox) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return nil, errUnseal
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	out, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, errUnseal
	}
	return out, nil
}
