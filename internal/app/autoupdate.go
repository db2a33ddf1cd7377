package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"synapsesync/internal/identity"
	"synapsesync/pkg/domain"
	"synapsesync/pkg/version"
)

// sweepConcurrency bounds how many documents one sweep refreshes at a time.
const sweepConcurrency = 4

// SweepResult summarizes one auto-update pass over an owner's documents.
type SweepResult struct {
	Checked   int
	Refreshed int
	Skipped   int
	Failed    int
}

// RunAutoUpdateSweep re-snapshots every auto-update-enabled document whose
// refresh interval has elapsed. Each refresh is recorded as an auto-save, so
// the sweep never consumes the manual edit quota. Failures on one document
// do not stop the sweep; they are logged and counted.
func (a *App) RunAutoUpdateSweep(ctx context.Context, owner identity.Owner) (SweepResult, error) {
	acct, err := a.Profile(ctx, owner)
	if err != nil {
		return SweepResult{}, err
	}
	docs, err := a.gw.ListDocuments(ctx, owner.ID)
	if err != nil {
		return SweepResult{}, err
	}

	interval := time.Duration(acct.AutoUpdateIntervalDays) * 24 * time.Hour
	now := a.now()

	var result SweepResult
	result.Checked = len(docs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)

	refreshed := make(chan string, len(docs))
	failed := make(chan string, len(docs))

	for _, doc := range docs {
		if !doc.AutoUpdateEnabled || now.Sub(doc.LastUpdated) < interval {
			result.Skipped++
			continue
		}
		docID := doc.ID
		g.Go(func() error {
			if err := a.refreshDocument(gctx, owner, docID, now); err != nil {
				slog.Warn("auto-update: refresh failed", "document", docID, "err", err)
				failed <- docID
				return nil
			}
			refreshed <- docID
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}
	close(refreshed)
	close(failed)
	for range refreshed {
		result.Refreshed++
	}
	for range failed {
		result.Failed++
	}

	slog.Info("auto-update sweep finished",
		"owner", owner.ID,
		"checked", result.Checked,
		"refreshed", result.Refreshed,
		"failed", result.Failed)
	return result, nil
}

// refreshDocument snapshots the document's current content as an auto-save,
// which stamps a fresh "Auto-Save" version and bumps LastUpdated.
func (a *App) refreshDocument(ctx context.Context, owner identity.Owner, documentID string, now time.Time) error {
	doc, err := a.gw.LoadFullDocument(ctx, owner.ID, documentID)
	if err != nil {
		return err
	}
	if doc.Materialization != domain.MaterializationFull {
		return ErrNotMaterialized
	}
	doc, _ = version.ApplyEdit(doc, doc.CurrentContent, true, now)
	return a.gw.SaveDocument(ctx, doc)
}
