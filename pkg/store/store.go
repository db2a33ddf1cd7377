// Package store implements the metadata index tier of the remote store: one
// lightweight record per document (version bodies stripped, live content
// mirrored for redundancy) plus the account records.
package store

import (
	"context"

	"synapsesync/pkg/domain"
)

// MetadataIndex defines the fast, list-oriented half of the remote store.
type MetadataIndex interface {
	// documents
	// ListDocuments returns lite records: no content, version entries
	// without bodies. An empty result is a valid outcome.
	ListDocuments(ctx context.Context, ownerID string) ([]domain.Document, error)
	// GetDocument returns one record including the mirrored live content.
	// Version bodies are not stored in the index and come back empty.
	GetDocument(ctx context.Context, ownerID, documentID string) (domain.Document, bool, error)
	SaveDocument(ctx context.Context, doc domain.Document) error
	DeleteDocument(ctx context.Context, ownerID, documentID string) error

	// accounts
	GetAccount(ctx context.Context, ownerID string) (domain.Account, bool, error)
	SaveAccount(ctx context.Context, acct domain.Account) error
}
