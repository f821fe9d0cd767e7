package shortener_test

import (
	"context"
	"errors"
	"sync"

	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/store"
)

var errMock = errors.New("mock error")

const testURL = "https://example.com/page"

// mockStore wraps a MemoryStore and can be configured to fail or to run a hook before inserts.
type mockStore struct {
	*store.MemoryStore

	mu           sync.Mutex
	insertErr    error
	getByHashErr error
	getByCodeErr error
	beforeInsert func(shortURL *shortener.ShortURL)
	inserted     []shortener.Code
	getByHashes  int
	getByCodes   int
}

func newMockStore() *mockStore {
	return &mockStore{MemoryStore: store.NewMemoryStore()}
}

func (m *mockStore) Insert(ctx context.Context, shortURL *shortener.ShortURL) (shortener.InsertResult, error) {
	m.mu.Lock()
	m.inserted = append(m.inserted, shortURL.Code)
	hook := m.beforeInsert
	m.mu.Unlock()

	if m.insertErr != nil {
		return 0, m.insertErr
	}

	if hook != nil {
		hook(shortURL)
	}

	return m.MemoryStore.Insert(ctx, shortURL)
}

func (m *mockStore) GetByHash(ctx context.Context, hash shortener.URLHash) (*shortener.ShortURL, error) {
	m.mu.Lock()
	m.getByHashes++
	m.mu.Unlock()

	if m.getByHashErr != nil {
		return nil, m.getByHashErr
	}

	return m.MemoryStore.GetByHash(ctx, hash)
}

func (m *mockStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	m.mu.Lock()
	m.getByCodes++
	m.mu.Unlock()

	if m.getByCodeErr != nil {
		return nil, m.getByCodeErr
	}

	return m.MemoryStore.GetByCode(ctx, code)
}

func (m *mockStore) insertedCodes() []shortener.Code {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]shortener.Code(nil), m.inserted...)
}
