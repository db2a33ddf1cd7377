package store

import (
	"context"
	"sync"

	"synapsesync/pkg/domain"
)

// MemoryIndex keeps metadata in-process. Used as the test double for the
// sync gateway and for local development without Postgres.
type MemoryIndex struct {
	mu       sync.RWMutex
	docs     map[string]domain.Document // key: document ID
	order    []string
	accounts map[string]domain.Account // key: owner ID
}

// NewMemoryIndex initializes an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		docs:     make(map[string]domain.Document),
		accounts: make(map[string]domain.Account),
	}
}

// ListDocuments returns lite records for the owner in insertion order.
func (m *MemoryIndex) ListDocuments(_ context.Context, ownerID string) ([]domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Document, 0)
	for _, id := range m.order {
		d, ok := m.docs[id]
		if !ok || d.OwnerID != ownerID {
			continue
		}
		res = append(res, liteRecord(d, false))
	}
	return res, nil
}

// GetDocument returns one record with the content mirror included.
func (m *MemoryIndex) GetDocument(_ context.Context, ownerID, documentID string) (domain.Document, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[documentID]
	if !ok || d.OwnerID != ownerID {
		return domain.Document{}, false, nil
	}
	return liteRecord(d, true), true, nil
}

// SaveDocument stores the record the way the real index does: content
// mirrored, version bodies dropped.
func (m *MemoryIndex) SaveDocument(_ context.Context, doc domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.docs[doc.ID]; !exists {
		m.order = append(m.order, doc.ID)
	}
	stored := doc
	stored.Versions = stripBodies(doc.Versions)
	m.docs[doc.ID] = stored
	return nil
}

// DeleteDocument removes a record; deleting an absent record is a no-op.
func (m *MemoryIndex) DeleteDocument(_ context.Context, ownerID, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.docs[documentID]; ok && d.OwnerID == ownerID {
		delete(m.docs, documentID)
	}
	return nil
}

// GetAccount returns the stored account, if any.
func (m *MemoryIndex) GetAccount(_ context.Context, ownerID string) (domain.Account, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acct, ok := m.accounts[ownerID]
	return acct, ok, nil
}

// SaveAccount stores or replaces the account record.
func (m *MemoryIndex) SaveAccount(_ context.Context, acct domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[acct.ID] = acct
	return nil
}

func liteRecord(d domain.Document, withContent bool) domain.Document {
	out := d
	out.Versions = stripBodies(d.Versions)
	out.Materialization = domain.MaterializationLite
	if withContent {
		out.Materialization = domain.MaterializationMirror
	} else {
		out.CurrentContent = ""
	}
	return out
}

func stripBodies(versions []domain.Version) []domain.Version {
	out := make([]domain.Version, 0, len(versions))
	for _, v := range versions {
		out = append(out, domain.Version{ID: v.ID, Timestamp: v.Timestamp, Label: v.Label})
	}
	return out
}
