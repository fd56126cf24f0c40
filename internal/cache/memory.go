package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	key    string
	value  []byte
	expiry time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiry.IsZero() && now.After(e.expiry)
}

// MemoryStore is a thread-safe LRU with per-entry TTL, used when no Redis
// address is configured.
type MemoryStore struct {
	capacity int
	items    map[string]*list.Element
	order    *list.List
	mu       sync.Mutex
	now      func() time.Time
}

func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = 256
	}
	return &MemoryStore{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	elem, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	entry := elem.Value.(*memoryEntry)
	if entry.expired(m.now()) {
		m.remove(elem)
		return nil, false, nil
	}
	m.order.MoveToFront(elem)
	return append([]byte(nil), entry.value...), true, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var expiry time.Time
	if ttl > 0 {
		expiry = m.now().Add(ttl)
	}
	value = append([]byte(nil), value...)
	if elem, ok := m.items[key]; ok {
		entry := elem.Value.(*memoryEntry)
		entry.value, entry.expiry = value, expiry
		m.order.MoveToFront(elem)
		return nil
	}
	m.items[key] = m.order.PushFront(&memoryEntry{key: key, value: value, expiry: expiry})
	for m.order.Len() > m.capacity {
		m.remove(m.order.Back())
	}
	return nil
}

// Len returns the number of entries, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

func (m *MemoryStore) remove(elem *list.Element) {
	m.order.Remove(elem)
	delete(m.items, elem.Value.(*memoryEntry).key)
}
