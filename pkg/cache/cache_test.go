package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"synapsesync/pkg/domain"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	redisSrv := miniredis.RunT(t)
	return New(redisSrv.Addr(), "")
}

func TestAccountRoundTrip(t *testing.T) {
	c := newTestCache(t)

	if _, ok, err := c.Account("owner-1"); err != nil || ok {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}

	acct := domain.Account{
		ID:                     "owner-1",
		DisplayName:            "Demo User",
		Tier:                   domain.TierMid,
		EditsUsed:              3,
		LastEditReset:          time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		AutoUpdateIntervalDays: 30,
	}
	if err := c.PutAccount(acct); err != nil {
		t.Fatalf("put account: %v", err)
	}
	got, ok, err := c.Account("owner-1")
	if err != nil || !ok {
		t.Fatalf("get account: ok=%v err=%v", ok, err)
	}
	if got.Tier != domain.TierMid || got.EditsUsed != 3 || got.AutoUpdateIntervalDays != 30 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestPutDocumentsOverwritesWholesale(t *testing.T) {
	c := newTestCache(t)

	first := []domain.Document{{ID: "a", OwnerID: "o"}, {ID: "b", OwnerID: "o"}}
	if err := c.PutDocuments("o", first); err != nil {
		t.Fatalf("put: %v", err)
	}
	second := []domain.Document{{ID: "c", OwnerID: "o"}}
	if err := c.PutDocuments("o", second); err != nil {
		t.Fatalf("put: %v", err)
	}
	docs, err := c.Documents("o")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "c" {
		t.Fatalf("refresh should replace the list, got %+v", docs)
	}
}

func TestUpsertDocument(t *testing.T) {
	c := newTestCache(t)

	if err := c.UpsertDocument("o", domain.Document{ID: "a", Title: "first"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := c.UpsertDocument("o", domain.Document{ID: "b", Title: "second"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := c.UpsertDocument("o", domain.Document{ID: "a", Title: "renamed"}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	docs, err := c.Documents("o")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("document count = %d, want 2", len(docs))
	}
	if docs[0].ID != "a" || docs[0].Title != "renamed" {
		t.Fatalf("upsert should replace in place, got %+v", docs[0])
	}
}

func TestRemoveDocument(t *testing.T) {
	c := newTestCache(t)

	_ = c.PutDocuments("o", []domain.Document{{ID: "a"}, {ID: "b"}})
	if err := c.RemoveDocument("o", "a"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	docs, _ := c.Documents("o")
	if len(docs) != 1 || docs[0].ID != "b" {
		t.Fatalf("after remove: %+v", docs)
	}
	if err := c.RemoveDocument("o", "missing"); err != nil {
		t.Fatalf("removing absent document should be a no-op, got %v", err)
	}
}

func TestOwnersAreIsolated(t *testing.T) {
	c := newTestCache(t)

	_ = c.PutDocuments("alice", []domain.Document{{ID: "a"}})
	_ = c.PutDocuments("bob", []domain.Document{{ID: "b"}})

	docs, _ := c.Documents("alice")
	if len(docs) != 1 || docs[0].ID != "a" {
		t.Fatalf("alice sees %+v", docs)
	}
}
