// ABOUTME: Mock ItemStore implementation for testing
// ABOUTME: Allows tests to run without SQLite and to count directory reads

package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MockStore is an in-memory ItemStore implementation for testing.
type MockStore struct {
	mu     sync.RWMutex
	items  map[int64]*Item
	nextID int64

	// Reads counts Count/FetchByOffset/FetchByID calls.
	Reads int
}

// NewMockStore creates a new MockStore seeded with items. Items keep
// their IDs when set.
func NewMockStore(items ...*Item) *MockStore {
	m := &MockStore{items: make(map[int64]*Item)}
	for _, it := range items {
		_ = m.CreateItem(context.Background(), it)
	}
	return m
}

// Count returns the number of items.
func (m *MockStore) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reads++
	return len(m.items), nil
}

// FetchByOffset returns the item at offset in id order.
func (m *MockStore) FetchByOffset(ctx context.Context, limit, offset int) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reads++
	sorted := m.sortedLocked()
	if offset < 0 || offset >= len(sorted) {
		return nil, ErrNotFound
	}
	cp := *sorted[offset]
	return &cp, nil
}

// FetchByID returns a copy of the item.
func (m *MockStore) FetchByID(ctx context.Context, id int64) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reads++
	it, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *it
	return &cp, nil
}

// CreateItem stores a copy of item, assigning an ID when zero.
func (m *MockStore) CreateItem(ctx context.Context, item *Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item.ID == 0 {
		m.nextID++
		item.ID = m.nextID
	} else if item.ID > m.nextID {
		m.nextID = item.ID
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	cp := *item
	m.items[cp.ID] = &cp
	return nil
}

// ListItems returns copies in id order.
func (m *MockStore) ListItems(ctx context.Context, limit int) ([]*Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sorted := m.sortedLocked()
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	out := make([]*Item, 0, len(sorted))
	for _, it := range sorted {
		cp := *it
		out = append(out, &cp)
	}
	return out, nil
}

// DeleteItem removes an item.
func (m *MockStore) DeleteItem(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

// Close is a no-op.
func (m *MockStore) Close() error { return nil }

func (m *MockStore) sortedLocked() []*Item {
	out := make([]*Item, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

var _ ItemStore = (*MockStore)(nil)
