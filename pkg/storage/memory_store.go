package storage

import (
	"context"
	"sync"

	"synapsesync/pkg/domain"
)

// MemoryBlobStore keeps full documents in-process. Used as the test double
// for the sync gateway and for local development without MinIO.
type MemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string]domain.Document // key: blob path
}

// NewMemoryBlobStore initializes an empty in-memory blob store.
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{blobs: make(map[string]domain.Document)}
}

// PutDocument stores the full document.
func (m *MemoryBlobStore) PutDocument(_ context.Context, doc domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[blobKey(doc.OwnerID, doc.ID)] = doc
	return nil
}

// GetDocument returns the full document or ErrBlobNotFound.
func (m *MemoryBlobStore) GetDocument(_ context.Context, ownerID, documentID string) (domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.blobs[blobKey(ownerID, documentID)]
	if !ok {
		return domain.Document{}, ErrBlobNotFound
	}
	return doc, nil
}

// DeleteDocument removes the blob; removing a missing blob is a no-op.
func (m *MemoryBlobStore) DeleteDocument(_ context.Context, ownerID, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, blobKey(ownerID, documentID))
	return nil
}
