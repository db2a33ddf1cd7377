// Package profile manages the owner's account record: lazy creation on first
// login, the 7-day edit-window reset, and quota counter updates. Remote
// persistence is best-effort; the local copy is authoritative for quota
// decisions.
package profile

import (
	"context"
	"fmt"
	"time"

	"synapsesync/pkg/domain"
	"synapsesync/pkg/quota"
	"synapsesync/pkg/syncer"
)

// EditWindow is the rolling period after which the manual-edit counter
// resets.
const EditWindow = 7 * 24 * time.Hour

// ReconcileEditWindow applies the lazy weekly reset: when EditWindow or more
// has elapsed since LastEditReset, the counter returns to zero and the
// timestamp advances to now. Evaluated on every account load, never on a
// timer. The second return reports whether anything changed, so calling
// twice without time advancing is a no-op the second time.
func ReconcileEditWindow(acct domain.Account, now time.Time) (domain.Account, bool) {
	if now.Sub(acct.LastEditReset) < EditWindow {
		return acct, false
	}
	acct.EditsUsed = 0
	acct.LastEditReset = now.UTC()
	return acct, true
}

// Manager wraps the sync gateway's account operations.
type Manager struct {
	gw  *syncer.Gateway
	now func() time.Time
}

// NewManager constructs a profile manager over the gateway.
func NewManager(gw *syncer.Gateway) *Manager {
	return &Manager{gw: gw, now: time.Now}
}

// Load fetches the owner's account, creating and persisting a default BASE
// record on first login. The edit window is reconciled on every load; a
// reconciled account is written back so the reset survives restarts.
func (m *Manager) Load(ctx context.Context, ownerID, displayName, email string) (domain.Account, error) {
	acct, found, err := m.gw.GetAccount(ctx, ownerID)
	if err != nil {
		return domain.Account{}, fmt.Errorf("load account: %w", err)
	}
	if !found {
		acct = m.defaultAccount(ownerID, displayName, email)
		if err := m.gw.SaveAccount(ctx, acct); err != nil {
			return domain.Account{}, fmt.Errorf("bootstrap account: %w", err)
		}
		return acct, nil
	}
	reconciled, changed := ReconcileEditWindow(acct, m.now())
	if changed {
		if err := m.gw.SaveAccount(ctx, reconciled); err != nil {
			return domain.Account{}, fmt.Errorf("persist edit-window reset: %w", err)
		}
	}
	return reconciled, nil
}

// RecordManualEdit increments the manual-edit counter and persists it. The
// increment is optimistic: the local counter is authoritative and is not
// rolled back if the remote mirror write fails.
func (m *Manager) RecordManualEdit(ctx context.Context, acct domain.Account) (domain.Account, error) {
	acct.EditsUsed++
	if err := m.gw.SaveAccount(ctx, acct); err != nil {
		return acct, fmt.Errorf("persist edit counter: %w", err)
	}
	return acct, nil
}

// ChangeTier validates and applies a tier switch.
func (m *Manager) ChangeTier(ctx context.Context, acct domain.Account, tier domain.Tier) (domain.Account, error) {
	if !quota.ValidTier(tier) {
		return acct, fmt.Errorf("unknown tier %q", tier)
	}
	changed := quota.ApplyTierChange(acct, tier)
	if err := m.gw.SaveAccount(ctx, changed); err != nil {
		return acct, fmt.Errorf("persist tier change: %w", err)
	}
	return changed, nil
}

// SetAutoUpdateInterval changes the account's auto-update cadence, rejecting
// intervals the tier does not permit.
func (m *Manager) SetAutoUpdateInterval(ctx context.Context, acct domain.Account, days int) (domain.Account, error) {
	if !quota.IntervalAllowed(acct.Tier, days) {
		return acct, fmt.Errorf("interval %d days not allowed for tier %s", days, acct.Tier)
	}
	acct.AutoUpdateIntervalDays = days
	if err := m.gw.SaveAccount(ctx, acct); err != nil {
		return acct, fmt.Errorf("persist interval change: %w", err)
	}
	return acct, nil
}

func (m *Manager) defaultAccount(ownerID, displayName, email string) domain.Account {
	now := m.now().UTC()
	return domain.Account{
		ID:                     ownerID,
		DisplayName:            displayName,
		Email:                  email,
		Tier:                   domain.TierBase,
		EditsUsed:              0,
		LastEditReset:          now,
		AutoUpdateIntervalDays: quota.DefaultIntervalDays,
		CreatedAt:              now,
	}
}
