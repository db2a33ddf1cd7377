// Package version implements the document version store: pure
// transformations that produce new document values and snapshot the text
// being replaced. No I/O happens here.
package version

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"synapsesync/pkg/domain"
)

// MaxVersions bounds the retained history per document. The oldest entries
// are evicted first.
const MaxVersions = 10

// ErrVersionNotFound is returned when a restore targets an unknown version.
var ErrVersionNotFound = errors.New("version not found")

const timeLabelLayout = "3:04:05 PM"

// ApplyEdit replaces the live content and captures the pre-edit text as a new
// version. The second return value reports whether the edit counts against
// the manual-edit quota (auto-saves never do).
func ApplyEdit(doc domain.Document, newContent string, isAutoSave bool, now time.Time) (domain.Document, bool) {
	label := "Saved " + now.Format(timeLabelLayout)
	if isAutoSave {
		label = "Auto-Save " + now.Format(timeLabelLayout)
	}
	doc.Versions = PruneHistory(append(cloneVersions(doc.Versions), domain.Version{
		ID:        uuid.NewString(),
		Timestamp: now.UTC(),
		Content:   doc.CurrentContent,
		Label:     label,
	}))
	doc.CurrentContent = newContent
	doc.LastUpdated = now.UTC()
	doc.Materialization = domain.MaterializationFull
	return doc, !isAutoSave
}

// RestoreVersion sets the live content back to a prior version's snapshot.
// The current text is captured first as a "Pre-Restore Backup" version; the
// restored version itself stays in history. Restoring content identical to
// the live text is legal and still leaves an audit-trail backup.
func RestoreVersion(doc domain.Document, versionID string, now time.Time) (domain.Document, error) {
	target, ok := doc.FindVersion(versionID)
	if !ok {
		return doc, ErrVersionNotFound
	}
	doc.Versions = PruneHistory(append(cloneVersions(doc.Versions), domain.Version{
		ID:        uuid.NewString(),
		Timestamp: now.UTC(),
		Content:   doc.CurrentContent,
		Label:     "Pre-Restore Backup",
	}))
	doc.CurrentContent = target.Content
	doc.LastUpdated = now.UTC()
	return doc, nil
}

// PruneHistory drops versions from the front until at most MaxVersions
// remain. Order is chronological ascending and is never changed.
func PruneHistory(versions []domain.Version) []domain.Version {
	if len(versions) <= MaxVersions {
		return versions
	}
	return versions[len(versions)-MaxVersions:]
}

// ToggleAutoUpdate flips the auto-update flag. No version is created and
// LastUpdated is untouched, so the toggle never looks like a content change.
func ToggleAutoUpdate(doc domain.Document) domain.Document {
	doc.AutoUpdateEnabled = !doc.AutoUpdateEnabled
	return doc
}

func cloneVersions(versions []domain.Version) []domain.Version {
	out := make([]domain.Version, len(versions))
	copy(out, versions)
	return out
}
