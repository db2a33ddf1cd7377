package profile

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"synapsesync/pkg/cache"
	"synapsesync/pkg/domain"
	"synapsesync/pkg/storage"
	"synapsesync/pkg/store"
	"synapsesync/pkg/syncer"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestReconcileEditWindowResetsAfterSevenDays(t *testing.T) {
	acct := domain.Account{EditsUsed: 4, LastEditReset: baseTime}

	got, changed := ReconcileEditWindow(acct, baseTime.Add(EditWindow))
	if !changed {
		t.Fatalf("expected reset at exactly seven days")
	}
	if got.EditsUsed != 0 {
		t.Fatalf("EditsUsed = %d, want 0", got.EditsUsed)
	}
	if !got.LastEditReset.Equal(baseTime.Add(EditWindow)) {
		t.Fatalf("LastEditReset not advanced: %v", got.LastEditReset)
	}
}

func TestReconcileEditWindowInsideWindowIsNoop(t *testing.T) {
	acct := domain.Account{EditsUsed: 4, LastEditReset: baseTime}

	got, changed := ReconcileEditWindow(acct, baseTime.Add(6*24*time.Hour))
	if changed {
		t.Fatalf("no reset expected inside the window")
	}
	if got.EditsUsed != 4 || !got.LastEditReset.Equal(baseTime) {
		t.Fatalf("account mutated: %+v", got)
	}
}

func TestReconcileEditWindowIdempotent(t *testing.T) {
	acct := domain.Account{EditsUsed: 4, LastEditReset: baseTime}
	now := baseTime.Add(8 * 24 * time.Hour)

	first, changed := ReconcileEditWindow(acct, now)
	if !changed {
		t.Fatalf("first call should reset")
	}
	second, changed := ReconcileEditWindow(first, now)
	if changed {
		t.Fatalf("second call with the same clock must be a no-op")
	}
	if second != first {
		t.Fatalf("second call mutated the account: %+v", second)
	}
}

func newManager(t *testing.T) (*Manager, *store.MemoryIndex) {
	t.Helper()
	redisSrv := miniredis.RunT(t)
	index := store.NewMemoryIndex()
	gw, err := syncer.New(syncer.Config{
		Index: index,
		Blobs: storage.NewMemoryBlobStore(),
		Cache: cache.New(redisSrv.Addr(), ""),
	})
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	return NewManager(gw), index
}

func TestLoadBootstrapsDefaultAccountOnFirstLogin(t *testing.T) {
	m, index := newManager(t)

	acct, err := m.Load(context.Background(), "owner-1", "Demo User", "demo@example.com")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if acct.Tier != domain.TierBase {
		t.Fatalf("default tier = %s, want BASE", acct.Tier)
	}
	if acct.AutoUpdateIntervalDays != 14 {
		t.Fatalf("default interval = %d, want 14", acct.AutoUpdateIntervalDays)
	}
	if acct.DisplayName != "Demo User" || acct.Email != "demo@example.com" {
		t.Fatalf("identity fields not applied: %+v", acct)
	}
	if _, found, _ := index.GetAccount(context.Background(), "owner-1"); !found {
		t.Fatalf("default account should be persisted remotely")
	}
}

func TestLoadReconcilesAndPersistsStaleWindow(t *testing.T) {
	m, index := newManager(t)
	ctx := context.Background()
	stale := domain.Account{
		ID:            "owner-1",
		Tier:          domain.TierBase,
		EditsUsed:     5,
		LastEditReset: time.Now().UTC().Add(-8 * 24 * time.Hour),
	}
	_ = index.SaveAccount(ctx, stale)

	acct, err := m.Load(ctx, "owner-1", "", "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if acct.EditsUsed != 0 {
		t.Fatalf("stale window should reset the counter, got %d", acct.EditsUsed)
	}
	persisted, found, _ := index.GetAccount(ctx, "owner-1")
	if !found || persisted.EditsUsed != 0 {
		t.Fatalf("reset not persisted: %+v", persisted)
	}
}

func TestRecordManualEdit(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	acct, err := m.Load(ctx, "owner-1", "", "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	acct, err = m.RecordManualEdit(ctx, acct)
	if err != nil {
		t.Fatalf("record edit: %v", err)
	}
	if acct.EditsUsed != 1 {
		t.Fatalf("EditsUsed = %d, want 1", acct.EditsUsed)
	}
}

func TestChangeTier(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	acct, _ := m.Load(ctx, "owner-1", "", "")
	acct.EditsUsed = 2

	acct, err := m.ChangeTier(ctx, acct, domain.TierMid)
	if err != nil {
		t.Fatalf("change tier: %v", err)
	}
	if acct.Tier != domain.TierMid || acct.AutoUpdateIntervalDays != 14 {
		t.Fatalf("tier change result: %+v", acct)
	}
	if acct.EditsUsed != 2 {
		t.Fatalf("tier change must not touch EditsUsed")
	}

	if _, err := m.ChangeTier(ctx, acct, "PLATINUM"); err == nil {
		t.Fatalf("unknown tier should be rejected")
	}
}

func TestSetAutoUpdateInterval(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	acct, _ := m.Load(ctx, "owner-1", "", "")

	if _, err := m.SetAutoUpdateInterval(ctx, acct, 30); err == nil {
		t.Fatalf("BASE tier must not allow 30-day cadence")
	}
	acct, _ = m.ChangeTier(ctx, acct, domain.TierTop)
	acct, err := m.SetAutoUpdateInterval(ctx, acct, 7)
	if err != nil {
		t.Fatalf("set interval: %v", err)
	}
	if acct.AutoUpdateIntervalDays != 7 {
		t.Fatalf("interval = %d, want 7", acct.AutoUpdateIntervalDays)
	}
}
