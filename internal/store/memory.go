package store

import (
	"context"
	"sync"

	"github.com/serroba/shortlink/internal/shortener"
)

// MemoryStore is an in-memory implementation of shortener.Repository.
type MemoryStore struct {
	mu     sync.RWMutex
	byCode map[shortener.Code]shortener.ShortURL
	byHash map[shortener.URLHash]shortener.Code
}

// NewMemoryStore creates a new in-memory URL store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byCode: make(map[shortener.Code]shortener.ShortURL),
		byHash: make(map[shortener.URLHash]shortener.Code),
	}
}

// Insert stores shortURL unless its hash or code is already present.
func (m *MemoryStore) Insert(_ context.Context, shortURL *shortener.ShortURL) (shortener.InsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byHash[shortURL.URLHash]; ok {
		return shortener.ConflictHash, nil
	}

	if _, ok := m.byCode[shortURL.Code]; ok {
		return shortener.ConflictCode, nil
	}

	m.byCode[shortURL.Code] = *shortURL
	m.byHash[shortURL.URLHash] = shortURL.Code

	return shortener.Inserted, nil
}

// GetByCode returns a copy of the record with code.
func (m *MemoryStore) GetByCode(_ context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	url, ok := m.byCode[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	return &url, nil
}

// GetByHash returns a copy of the record with hash.
func (m *MemoryStore) GetByHash(_ context.Context, hash shortener.URLHash) (*shortener.ShortURL, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	code, ok := m.byHash[hash]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	url := m.byCode[code]

	return &url, nil
}

// Len returns the number of stored records.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.byCode)
}

// Compile-time check.
var _ shortener.Repository = (*MemoryStore)(nil)
