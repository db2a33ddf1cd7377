// Package cache is the durable local tier of the sync protocol: a Redis
// key-value store holding the last known account record and document list per
// owner. Cache reads and writes never reach the remote store and are expected
// to succeed even when connectivity is down.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"synapsesync/pkg/domain"
)

const opTimeout = 3 * time.Second

// Cache stores serialized accounts and document lists keyed by owner.
type Cache struct {
	client *redis.Client
}

// New builds a Redis-backed cache.
func New(addr, password string) *Cache {
	return &Cache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
	}
}

func profileKey(ownerID string) string   { return "profile_" + ownerID }
func documentsKey(ownerID string) string { return "documents_" + ownerID }

// Account returns the cached account record for the owner, if any.
func (c *Cache) Account(ownerID string) (domain.Account, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	raw, err := c.client.Get(ctx, profileKey(ownerID)).Bytes()
	if err == redis.Nil {
		return domain.Account{}, false, nil
	}
	if err != nil {
		return domain.Account{}, false, fmt.Errorf("cache get account: %w", err)
	}
	var acct domain.Account
	if err := json.Unmarshal(raw, &acct); err != nil {
		return domain.Account{}, false, fmt.Errorf("cache decode account: %w", err)
	}
	return acct, true, nil
}

// PutAccount overwrites the cached account record.
func (c *Cache) PutAccount(acct domain.Account) error {
	raw, err := json.Marshal(acct)
	if err != nil {
		return fmt.Errorf("cache encode account: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := c.client.Set(ctx, profileKey(acct.ID), raw, 0).Err(); err != nil {
		return fmt.Errorf("cache put account: %w", err)
	}
	return nil
}

// Documents returns the cached document list for the owner. A missing key
// yields an empty list, not an error.
func (c *Cache) Documents(ownerID string) ([]domain.Document, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	raw, err := c.client.Get(ctx, documentsKey(ownerID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get documents: %w", err)
	}
	var docs []domain.Document
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("cache decode documents: %w", err)
	}
	return docs, nil
}

// PutDocuments replaces the owner's cached list wholesale. Used by the
// cloud-refresh path; the last successful list wins.
func (c *Cache) PutDocuments(ownerID string, docs []domain.Document) error {
	if docs == nil {
		docs = []domain.Document{}
	}
	raw, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("cache encode documents: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := c.client.Set(ctx, documentsKey(ownerID), raw, 0).Err(); err != nil {
		return fmt.Errorf("cache put documents: %w", err)
	}
	return nil
}

// UpsertDocument replaces or appends one document inside the cached list.
// Used by the optimistic single-document save path.
func (c *Cache) UpsertDocument(ownerID string, doc domain.Document) error {
	docs, err := c.Documents(ownerID)
	if err != nil {
		return err
	}
	replaced := false
	for i := range docs {
		if docs[i].ID == doc.ID {
			docs[i] = doc
			replaced = true
			break
		}
	}
	if !replaced {
		docs = append(docs, doc)
	}
	return c.PutDocuments(ownerID, docs)
}

// RemoveDocument deletes one document from the cached list. Removing an
// absent document is a no-op.
func (c *Cache) RemoveDocument(ownerID, documentID string) error {
	docs, err := c.Documents(ownerID)
	if err != nil {
		return err
	}
	kept := docs[:0]
	for _, d := range docs {
		if d.ID != documentID {
			kept = append(kept, d)
		}
	}
	return c.PutDocuments(ownerID, kept)
}
