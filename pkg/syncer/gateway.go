// Package syncer reconciles the authoritative remote store (metadata index +
// bulk blob store) with the durable local cache under a cloud-first policy.
// Remote failures degrade to cache-only operation; they never surface as raw
// transport errors.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"synapsesync/pkg/cache"
	"synapsesync/pkg/domain"
	"synapsesync/pkg/storage"
	"synapsesync/pkg/store"
)

const (
	// DefaultReadTimeout bounds metadata and blob reads.
	DefaultReadTimeout = 15 * time.Second
	// DefaultWriteTimeout bounds the bulk blob write, which carries full
	// version bodies and can be large.
	DefaultWriteTimeout = 30 * time.Second
)

// Connectivity reports whether the remote store is currently reachable.
type Connectivity interface {
	Online() bool
}

// AlwaysOnline is the default probe for server-side deployments.
type AlwaysOnline struct{}

func (AlwaysOnline) Online() bool { return true }

// Config wires the gateway's storage tiers.
type Config struct {
	Index        store.MetadataIndex
	Blobs        storage.BlobStore
	Cache        *cache.Cache
	Connectivity Connectivity
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Gateway orchestrates cloud-first reads and optimistic dual writes.
type Gateway struct {
	index        store.MetadataIndex
	blobs        storage.BlobStore
	cache        *cache.Cache
	online       Connectivity
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// New constructs the gateway.
func New(cfg Config) (*Gateway, error) {
	if cfg.Index == nil {
		return nil, errors.New("metadata index required")
	}
	if cfg.Blobs == nil {
		return nil, errors.New("blob store required")
	}
	if cfg.Cache == nil {
		return nil, errors.New("local cache required")
	}
	if cfg.Connectivity == nil {
		cfg.Connectivity = AlwaysOnline{}
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	return &Gateway{
		index:        cfg.Index,
		blobs:        cfg.Blobs,
		cache:        cfg.Cache,
		online:       cfg.Connectivity,
		readTimeout:  cfg.ReadTimeout,
		writeTimeout: cfg.WriteTimeout,
	}, nil
}

type raceResult[T any] struct {
	val T
	err error
}

// race runs fn against a deadline. On timeout the eventual late result is
// discarded via the buffered channel.
func race[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ch := make(chan raceResult[T], 1)
	go func() {
		v, err := fn(ctx)
		ch <- raceResult[T]{val: v, err: err}
	}()
	select {
	case r := <-ch:
		return r.val, r.err
	case <-ctx.Done():
		var zero T
		return zero, ErrRemoteTimeout
	}
}

// ListDocuments returns the owner's documents, cloud-first. A successful
// remote query yields lite records and overwrites the cached list wholesale;
// an empty remote result is valid and distinct from a failed fetch. On
// failure the last cached list is returned verbatim.
func (g *Gateway) ListDocuments(ctx context.Context, ownerID string) ([]domain.Document, error) {
	if g.online.Online() {
		docs, err := race(ctx, g.readTimeout, func(ctx context.Context) ([]domain.Document, error) {
			return g.index.ListDocuments(ctx, ownerID)
		})
		if err == nil {
			if cacheErr := g.cache.PutDocuments(ownerID, docs); cacheErr != nil {
				slog.Warn("list refresh: cache overwrite failed", "owner", ownerID, "err", cacheErr)
			}
			return docs, nil
		}
		slog.Warn("list documents: remote fetch failed, falling back to cache", "owner", ownerID, "err", err)
	}
	return g.cache.Documents(ownerID)
}

// LoadFullDocument materializes a document with full content, trying an
// ordered chain of sources: the blob store, the live-content mirror in the
// metadata index, then a full record already in the local cache. Only the
// blob store and the cache yield full materialization; the mirror yields a
// record marked mirror, which callers must not write back over history.
func (g *Gateway) LoadFullDocument(ctx context.Context, ownerID, documentID string) (domain.Document, error) {
	type strategy struct {
		name string
		load func(context.Context) (domain.Document, bool, error)
	}
	online := g.online.Online()
	chain := []strategy{
		{name: "blob store", load: func(ctx context.Context) (domain.Document, bool, error) {
			if !online {
				return domain.Document{}, false, nil
			}
			doc, err := race(ctx, g.readTimeout, func(ctx context.Context) (domain.Document, error) {
				return g.blobs.GetDocument(ctx, ownerID, documentID)
			})
			if errors.Is(err, storage.ErrBlobNotFound) {
				return domain.Document{}, false, nil
			}
			if err != nil {
				return domain.Document{}, false, err
			}
			doc.Materialization = domain.MaterializationFull
			return doc, true, nil
		}},
		{name: "metadata content mirror", load: func(ctx context.Context) (domain.Document, bool, error) {
			if !online {
				return domain.Document{}, false, nil
			}
			type lookup struct {
				doc   domain.Document
				found bool
			}
			res, err := race(ctx, g.readTimeout, func(ctx context.Context) (lookup, error) {
				doc, found, err := g.index.GetDocument(ctx, ownerID, documentID)
				return lookup{doc: doc, found: found}, err
			})
			if err != nil {
				return domain.Document{}, false, err
			}
			// The mirror carries live content only; the record stays marked
			// mirror until the blob store is reachable again.
			return res.doc, res.found, nil
		}},
		{name: "local cache", load: func(context.Context) (domain.Document, bool, error) {
			docs, err := g.cache.Documents(ownerID)
			if err != nil {
				return domain.Document{}, false, err
			}
			for _, d := range docs {
				if d.ID == documentID && d.Materialization == domain.MaterializationFull {
					return d, true, nil
				}
			}
			return domain.Document{}, false, nil
		}},
	}
	for _, s := range chain {
		doc, found, err := s.load(ctx)
		if err != nil {
			slog.Warn("load full document: source failed", "source", s.name, "document", documentID, "err", err)
			continue
		}
		if found {
			return doc, nil
		}
	}
	return domain.Document{}, fmt.Errorf("document %s: %w", documentID, ErrNotFound)
}

// SaveDocument commits to the local cache first, then propagates to the two
// remote channels independently. The save is a hard failure only when both
// remote writes fail; a single surviving channel restores full consistency on
// the next successful write of the other.
func (g *Gateway) SaveDocument(ctx context.Context, doc domain.Document) error {
	if err := g.cache.UpsertDocument(doc.OwnerID, doc); err != nil {
		slog.Warn("save document: cache upsert failed", "document", doc.ID, "err", err)
	}
	if !g.online.Online() {
		return ErrOffline
	}

	var wg sync.WaitGroup
	var blobErr, indexErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, blobErr = race(ctx, g.writeTimeout, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, g.blobs.PutDocument(ctx, doc)
		})
	}()
	go func() {
		defer wg.Done()
		_, indexErr = race(ctx, g.readTimeout, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, g.index.SaveDocument(ctx, doc)
		})
	}()
	wg.Wait()

	if blobErr != nil && indexErr != nil {
		return fmt.Errorf("%w (blob: %v; index: %v)", ErrDualWriteFailure, blobErr, indexErr)
	}
	if blobErr != nil {
		slog.Warn("save document: blob write failed, index write succeeded", "document", doc.ID, "err", blobErr)
	}
	if indexErr != nil {
		slog.Warn("save document: index write failed, blob write succeeded", "document", doc.ID, "err", indexErr)
	}
	return nil
}

// DeleteDocument removes the document locally and best-effort remotely. The
// local removal is the authoritative user-facing result; remote errors are
// logged, never surfaced.
func (g *Gateway) DeleteDocument(ctx context.Context, ownerID, documentID string) error {
	if err := g.cache.RemoveDocument(ownerID, documentID); err != nil {
		slog.Warn("delete document: cache remove failed", "document", documentID, "err", err)
	}
	if !g.online.Online() {
		return nil
	}
	if _, err := race(ctx, g.readTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.blobs.DeleteDocument(ctx, ownerID, documentID)
	}); err != nil && !errors.Is(err, storage.ErrBlobNotFound) {
		slog.Warn("delete document: blob delete failed", "document", documentID, "err", err)
	}
	if _, err := race(ctx, g.readTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.index.DeleteDocument(ctx, ownerID, documentID)
	}); err != nil {
		slog.Warn("delete document: index delete failed", "document", documentID, "err", err)
	}
	return nil
}

// GetAccount fetches the owner's account, cloud-first with cache fallback.
// found=false with a nil error signals a first-ever login: the caller should
// create and persist a default account.
func (g *Gateway) GetAccount(ctx context.Context, ownerID string) (domain.Account, bool, error) {
	if g.online.Online() {
		type lookup struct {
			acct  domain.Account
			found bool
		}
		res, err := race(ctx, g.readTimeout, func(ctx context.Context) (lookup, error) {
			acct, found, err := g.index.GetAccount(ctx, ownerID)
			return lookup{acct: acct, found: found}, err
		})
		if err == nil {
			if !res.found {
				return domain.Account{}, false, nil
			}
			if cacheErr := g.cache.PutAccount(res.acct); cacheErr != nil {
				slog.Warn("get account: cache refresh failed", "owner", ownerID, "err", cacheErr)
			}
			return res.acct, true, nil
		}
		slog.Warn("get account: remote fetch failed, falling back to cache", "owner", ownerID, "err", err)
	}
	return g.cache.Account(ownerID)
}

// SaveAccount writes the cache unconditionally; the remote write is
// best-effort and never blocks the caller on sync failure.
func (g *Gateway) SaveAccount(ctx context.Context, acct domain.Account) error {
	if err := g.cache.PutAccount(acct); err != nil {
		slog.Warn("save account: cache write failed", "owner", acct.ID, "err", err)
	}
	if !g.online.Online() {
		return nil
	}
	if _, err := race(ctx, g.readTimeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, g.index.SaveAccount(ctx, acct)
	}); err != nil {
		slog.Warn("save account: remote write failed", "owner", acct.ID, "err", err)
	}
	return nil
}
