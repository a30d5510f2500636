package store

import (
	"context"
	"sync"

	"github.com/serroba/golinks/internal/links"
)

// MemoryStore is an in-memory implementation of links.Repository and links.AuditLog.
type MemoryStore struct {
	mu     sync.RWMutex
	links  map[string]*links.Link
	events []links.AuditEvent
}

// NewMemoryStore creates a new in-memory link store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		links: make(map[string]*links.Link),
	}
}

func (m *MemoryStore) Get(_ context.Context, name string) (*links.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, ok := m.links[name]
	if !ok {
		return nil, links.ErrNotFound
	}

	cp := *link

	return &cp, nil
}

func (m *MemoryStore) List(_ context.Context) ([]links.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]links.Link, 0, len(m.links))
	for _, link := range m.links {
		all = append(all, *link)
	}

	return all, nil
}

func (m *MemoryStore) IncrementCount(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if link, ok := m.links[name]; ok {
		link.VisitCount++
	}

	return nil
}

func (m *MemoryStore) Create(_ context.Context, name, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.links[name]; ok {
		return links.ErrDuplicateName
	}

	m.links[name] = &links.Link{Name: name, URL: url}

	return nil
}

func (m *MemoryStore) Update(_ context.Context, original, name, url string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[original]
	if !ok {
		return false, nil
	}

	if _, taken := m.links[name]; taken && name != original {
		return false, links.ErrDuplicateName
	}

	delete(m.links, original)
	m.links[name] = &links.Link{Name: name, URL: url, VisitCount: link.VisitCount}

	return true, nil
}

func (m *MemoryStore) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.links, name)

	return nil
}

// Log appends the event to the in-memory audit trail.
func (m *MemoryStore) Log(_ context.Context, event *links.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append(m.events, *event)

	return nil
}

// Events returns a copy of the audit trail in insertion order.
func (m *MemoryStore) Events() []links.AuditEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]links.AuditEvent, len(m.events))
	copy(out, m.events)

	return out
}

var (
	_ links.Repository = (*MemoryStore)(nil)
	_ links.AuditLog   = (*MemoryStore)(nil)
)
