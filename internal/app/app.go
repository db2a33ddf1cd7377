// Package app wires the document core together: quota checks, version-store
// transformations, and persistence through the sync gateway. The view layer
// talks to this package only.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"synapsesync/internal/identity"
	"synapsesync/pkg/ai"
	"synapsesync/pkg/domain"
	"synapsesync/pkg/events"
	"synapsesync/pkg/ingest"
	"synapsesync/pkg/profile"
	"synapsesync/pkg/quota"
	"synapsesync/pkg/syncer"
	"synapsesync/pkg/version"
)

// Config holds the collaborators for the core application.
type Config struct {
	Gateway   *syncer.Gateway
	Profiles  *profile.Manager
	Assistant *ai.Assistant
	Events    events.Publisher
}

// App is the core application service.
type App struct {
	gw        *syncer.Gateway
	profiles  *profile.Manager
	assistant *ai.Assistant
	events    events.Publisher
	now       func() time.Time
}

// New constructs the application.
func New(cfg Config) (*App, error) {
	if cfg.Gateway == nil {
		return nil, errors.New("sync gateway required")
	}
	if cfg.Profiles == nil {
		return nil, errors.New("profile manager required")
	}
	if cfg.Events == nil {
		cfg.Events = events.NoopPublisher{}
	}
	return &App{
		gw:        cfg.Gateway,
		profiles:  cfg.Profiles,
		assistant: cfg.Assistant,
		events:    cfg.Events,
		now:       time.Now,
	}, nil
}

// Profile loads the owner's account, bootstrapping it on first login and
// applying the lazy edit-window reset.
func (a *App) Profile(ctx context.Context, owner identity.Owner) (domain.Account, error) {
	return a.profiles.Load(ctx, owner.ID, owner.DisplayName, owner.Email)
}

// ListDocuments returns the owner's documents, lite records when the remote
// fetch succeeds, the cached list otherwise.
func (a *App) ListDocuments(ctx context.Context, ownerID string) ([]domain.Document, error) {
	return a.gw.ListDocuments(ctx, ownerID)
}

// OpenDocument materializes the full document for viewing or editing.
func (a *App) OpenDocument(ctx context.Context, ownerID, documentID string) (domain.Document, error) {
	return a.gw.LoadFullDocument(ctx, ownerID, documentID)
}

// UploadDocument ingests a new file for the owner, enforcing the tier's
// document ceiling. An ErrOffline result still carries the created document:
// it is committed locally and will sync later.
func (a *App) UploadDocument(ctx context.Context, owner identity.Owner, filename string, data []byte) (domain.Document, error) {
	acct, err := a.Profile(ctx, owner)
	if err != nil {
		return domain.Document{}, err
	}
	existing, err := a.gw.ListDocuments(ctx, owner.ID)
	if err != nil {
		return domain.Document{}, fmt.Errorf("count documents: %w", err)
	}
	if !quota.CanCreateDocument(acct, len(existing)) {
		return domain.Document{}, ErrDocumentLimit
	}
	doc := ingest.FromUpload(owner.ID, filename, data, a.now())
	if err := a.gw.SaveDocument(ctx, doc); err != nil {
		return doc, err
	}
	return doc, nil
}

// EditDocument applies new content to a document. Manual edits consume the
// weekly quota; auto-saves never do. The quota counter is incremented
// optimistically and is not rolled back if the remote save fails.
func (a *App) EditDocument(ctx context.Context, owner identity.Owner, documentID, newContent string, isAutoSave bool) (domain.Document, error) {
	acct, err := a.Profile(ctx, owner)
	if err != nil {
		return domain.Document{}, err
	}
	if !isAutoSave && !quota.CanEdit(acct) {
		return domain.Document{}, ErrEditLimit
	}
	doc, err := a.gw.LoadFullDocument(ctx, owner.ID, documentID)
	if err != nil {
		return domain.Document{}, err
	}
	if doc.Materialization != domain.MaterializationFull {
		return domain.Document{}, ErrNotMaterialized
	}
	doc, counts := version.ApplyEdit(doc, newContent, isAutoSave, a.now())
	saveErr := a.gw.SaveDocument(ctx, doc)
	if saveErr != nil && !errors.Is(saveErr, syncer.ErrOffline) {
		return doc, saveErr
	}
	if counts {
		if _, err := a.profiles.RecordManualEdit(ctx, acct); err != nil {
			return doc, err
		}
	}
	a.events.Publish(ctx, events.Event{
		Type:       events.TypeDocumentUpdated,
		OwnerID:    owner.ID,
		OwnerEmail: owner.Email,
		DocumentID: doc.ID,
		Title:      doc.Title,
		OccurredAt: a.now().UTC(),
	})
	return doc, saveErr
}

// RestoreDocument rolls the live content back to a prior version, leaving a
// pre-restore backup in history. Restores do not consume the edit quota.
// Mirror records are refused: their version bodies are empty, and restoring
// one would write the emptied history over the blob store.
func (a *App) RestoreDocument(ctx context.Context, owner identity.Owner, documentID, versionID string) (domain.Document, error) {
	doc, err := a.gw.LoadFullDocument(ctx, owner.ID, documentID)
	if err != nil {
		return domain.Document{}, err
	}
	if doc.Materialization != domain.MaterializationFull {
		return domain.Document{}, ErrNotMaterialized
	}
	doc, err = version.RestoreVersion(doc, versionID, a.now())
	if err != nil {
		return domain.Document{}, fmt.Errorf("version %s: %w", versionID, syncer.ErrNotFound)
	}
	saveErr := a.gw.SaveDocument(ctx, doc)
	if saveErr != nil && !errors.Is(saveErr, syncer.ErrOffline) {
		return doc, saveErr
	}
	a.events.Publish(ctx, events.Event{
		Type:       events.TypeDocumentRestored,
		OwnerID:    owner.ID,
		OwnerEmail: owner.Email,
		DocumentID: doc.ID,
		Title:      doc.Title,
		OccurredAt: a.now().UTC(),
	})
	return doc, saveErr
}

// DeleteDocument removes a document. The local removal is authoritative;
// remote cleanup is best-effort inside the gateway.
func (a *App) DeleteDocument(ctx context.Context, owner identity.Owner, documentID string) error {
	if err := a.gw.DeleteDocument(ctx, owner.ID, documentID); err != nil {
		return err
	}
	a.events.Publish(ctx, events.Event{
		Type:       events.TypeDocumentDeleted,
		OwnerID:    owner.ID,
		OwnerEmail: owner.Email,
		DocumentID: documentID,
		OccurredAt: a.now().UTC(),
	})
	return nil
}

// ToggleAutoUpdate flips the document's auto-update flag without touching
// content or history. Like every write path it needs a fully materialized
// record, since the save propagates the whole document to both remotes.
func (a *App) ToggleAutoUpdate(ctx context.Context, owner identity.Owner, documentID string) (domain.Document, error) {
	doc, err := a.gw.LoadFullDocument(ctx, owner.ID, documentID)
	if err != nil {
		return domain.Document{}, err
	}
	if doc.Materialization != domain.MaterializationFull {
		return domain.Document{}, ErrNotMaterialized
	}
	doc = version.ToggleAutoUpdate(doc)
	saveErr := a.gw.SaveDocument(ctx, doc)
	if saveErr != nil && !errors.Is(saveErr, syncer.ErrOffline) {
		return doc, saveErr
	}
	return doc, saveErr
}

// Chat answers a question about a document. The document text is read-only
// context; assistant failures come back as an apology string, never an error.
func (a *App) Chat(ctx context.Context, owner identity.Owner, documentID string, history []ai.Turn, message string) (string, error) {
	doc, err := a.gw.LoadFullDocument(ctx, owner.ID, documentID)
	if err != nil {
		return "", err
	}
	if a.assistant == nil {
		return ai.FallbackReply, nil
	}
	return a.assistant.Reply(ctx, history, doc.CurrentContent, message), nil
}

// UpgradeTier switches the owner's subscription tier.
func (a *App) UpgradeTier(ctx context.Context, owner identity.Owner, tier domain.Tier) (domain.Account, error) {
	acct, err := a.Profile(ctx, owner)
	if err != nil {
		return domain.Account{}, err
	}
	return a.profiles.ChangeTier(ctx, acct, tier)
}

// SetAutoUpdateInterval changes the account-wide auto-update cadence.
func (a *App) SetAutoUpdateInterval(ctx context.Context, owner identity.Owner, days int) (domain.Account, error) {
	acct, err := a.Profile(ctx, owner)
	if err != nil {
		return domain.Account{}, err
	}
	return a.profiles.SetAutoUpdateInterval(ctx, acct, days)
}
