// Package credstore persists the current bearer credential.
//
// A Store holds at most one opaque token. No validation of the token's shape
// is performed: any non-empty string is accepted and trusted. An absent
// credential is reported as "" with a nil error.
package credstore

import (
	"context"
	"errors"
	"sync"
)

// TokenKey is the fixed name the credential is stored under.
const TokenKey = "token"

// ErrEmptyCredential is returned by Set for an empty token; use Clear instead.
var ErrEmptyCredential = errors.New("empty credential")

// Store is the credential persistence contract.
//
// Implementations guarantee read-after-write consistency within a process
// and must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps the credential in process memory only.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get(ctx context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

func (m *MemoryStore) Set(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyCredential
	}
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return nil
}
