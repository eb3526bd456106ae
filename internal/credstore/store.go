// Package credstore keeps one credential per (namespace, account) pair.
package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrEncode    = errors.New("credstore: failed to encode credential")
	ErrDecode    = errors.New("credstore: failed to decode credential")
	ErrDuplicate = errors.New("credstore: duplicate item")
)

type Store interface {
	Save(ctx context.Context, namespace, account string, cred Credential) error
	Load(ctx context.Context, namespace, account string) (Credential, bool, error)
	Delete(ctx context.Context, namespace, account string) error
}

// Backend is the raw secure-storage primitive. Add must fail with
// ErrDuplicate when the key already holds a value; Delete of a missing key is
// not an error.
type Backend interface {
	Add(ctx context.Context, namespace, account string, data []byte) error
	Get(ctx context.Context, namespace, account string) ([]byte, bool, error)
	Delete(ctx context.Context, namespace, account string) error
}

type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("credstore: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Keychain is the Store used by the application: JSON payloads, optionally
// sealed, over any Backend.
type Keychain struct {
	backend Backend
	sealer  Sealer
	mu      sync.Mutex
}

func NewKeychain(backend Backend, sealer Sealer) *Keychain {
	if sealer == nil {
		sealer = plain{}
	}
	return &Keychain{backend: backend, sealer: sealer}
}

// saveAttempts bounds how often Save retries when another writer of the
// same backend adds the key between its delete and its add.
const saveAttempts = 5

// Save replaces whatever is stored for the pair: the old item is removed
// first so the backend never sees a duplicate add. The mutex only orders
// writers in this process; a duplicate from another process sharing the
// backend is retried, and the last write wins.
func (k *Keychain) Save(ctx context.Context, namespace, account string, cred Credential) error {
	raw, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	data, err := k.sealer.Seal(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	for attempt := 1; ; attempt++ {
		if err := k.backend.Delete(ctx, namespace, account); err != nil {
			return &StorageError{Op: "delete", Err: err}
		}
		err := k.backend.Add(ctx, namespace, account, data)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrDuplicate) || attempt == saveAttempts || ctx.Err() != nil {
			return &StorageError{Op: "add", Err: err}
		}
	}
}

func (k *Keychain) Load(ctx context.Context, namespace, account string) (Credential, bool, error) {
	data, ok, err := k.backend.Get(ctx, namespace, account)
	if err != nil {
		return Credential{}, false, &StorageError{Op: "get", Err: err}
	}
	if !ok {
		return Credential{}, false, nil
	}

	raw, err := k.sealer.Open(data)
	if err != nil {
		return Credential{}, false, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	var cred Credential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return Credential{}, false, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return cred, true, nil
}

func (k *Keychain) Delete(ctx context.Context, namespace, account string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if err := k.backend.Delete(ctx, namespace, account); err != nil {
		return &StorageError{Op: "delete", Err: err}
	}
	return nil
}
