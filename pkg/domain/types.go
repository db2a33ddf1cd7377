package domain

import "time"

type DocumentKind string

const (
	KindSheet DocumentKind = "sheet" // structured/tabular text (CSV-like)
	KindDoc   DocumentKind = "doc"   // prose text
	KindText  DocumentKind = "text"  // plain text (logs, markdown, JSON)
)

// Materialization reports which content fields are locally resident.
// Lite records carry metadata only. Mirror records are rebuilt from the
// metadata index: live content is present but version bodies are not, so
// they are readable yet must never be written back over a full record.
type Materialization string

const (
	MaterializationFull   Materialization = "full"
	MaterializationMirror Materialization = "mirror"
	MaterializationLite   Materialization = "lite"
)

type Tier string

const (
	TierBase Tier = "BASE"
	TierMid  Tier = "MID"
	TierTop  Tier = "TOP"
)

// Version is an immutable snapshot of a document's text taken immediately
// before the mutation that created it (a pre-image).
type Version struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Content   string    `json:"content"`
	Label     string    `json:"versionLabel"`
}

// Document is the aggregate root. Versions are ordered oldest first;
// CurrentContent is never a member of Versions.
type Document struct {
	ID                string          `json:"id"`
	Title             string          `json:"title"`
	Kind              DocumentKind    `json:"type"`
	OwnerID           string          `json:"ownerId"`
	CurrentContent    string          `json:"currentContent"`
	LastUpdated       time.Time       `json:"lastUpdated"`
	Versions          []Version       `json:"versions"`
	AutoUpdateEnabled bool            `json:"autoUpdateEnabled"`
	Materialization   Materialization `json:"materialization"`
}

// VersionRef is a version entry stripped of its body, as mirrored into the
// metadata index so list views stay cheap.
type VersionRef struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Label     string    `json:"versionLabel"`
}

// Account holds the owner's tier and quota counters. EditsUsed counts manual
// edits inside the current 7-day window starting at LastEditReset.
type Account struct {
	ID                     string    `json:"id"`
	DisplayName            string    `json:"displayName"`
	Email                  string    `json:"email"`
	Tier                   Tier      `json:"tier"`
	EditsUsed              int       `json:"editsUsed"`
	LastEditReset          time.Time `json:"lastEditReset"`
	AutoUpdateIntervalDays int       `json:"autoUpdateIntervalDays"`
	CreatedAt              time.Time `json:"createdAt"`
}

// Refs returns the stripped version summaries for a document.
func (d Document) Refs() []VersionRef {
	refs := make([]VersionRef, 0, len(d.Versions))
	for _, v := range d.Versions {
		refs = append(refs, VersionRef{ID: v.ID, Timestamp: v.Timestamp, Label: v.Label})
	}
	return refs
}

// FindVersion returns the version with the given ID, oldest-first scan.
func (d Document) FindVersion(id string) (Version, bool) {
	for _, v := range d.Versions {
		if v.ID == id {
			return v, true
		}
	}
	return Version{}, false
}
