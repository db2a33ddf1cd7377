package store

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"synapsesync/pkg/domain"
)

// GORM models used for persistence.
type DocumentModel struct {
	ID                string `gorm:"primaryKey"`
	OwnerID           string `gorm:"not null;index"`
	Title             string `gorm:"not null"`
	Kind              string `gorm:"not null"`
	CurrentContent    string `gorm:"type:text"` // live content mirror, never version bodies
	LastUpdated       time.Time
	AutoUpdateEnabled bool
	VersionHistory    datatypes.JSON `gorm:"type:jsonb"`
	LastSynced        time.Time
}

type AccountModel struct {
	ID                     string `gorm:"primaryKey"`
	DisplayName            string
	Email                  string `gorm:"index"`
	Tier                   string `gorm:"not null"`
	EditsUsed              int    `gorm:"not null"`
	LastEditReset          time.Time
	AutoUpdateIntervalDays int
	CreatedAt              time.Time `gorm:"not null"`
}

func documentToModel(d domain.Document, now time.Time) (DocumentModel, error) {
	history, err := json.Marshal(d.Refs())
	if err != nil {
		return DocumentModel{}, err
	}
	return DocumentModel{
		ID:                d.ID,
		OwnerID:           d.OwnerID,
		Title:             d.Title,
		Kind:              string(d.Kind),
		CurrentContent:    d.CurrentContent,
		LastUpdated:       d.LastUpdated,
		AutoUpdateEnabled: d.AutoUpdateEnabled,
		VersionHistory:    datatypes.JSON(history),
		LastSynced:        now,
	}, nil
}

// documentFromModel rebuilds a document record from the index. withContent
// controls whether the mirrored live content is included (single-record
// loads, marked mirror) or left empty (lite list views). Version bodies are
// never present either way, only the blob store holds them.
func documentFromModel(m DocumentModel, withContent bool) (domain.Document, error) {
	var refs []domain.VersionRef
	if len(m.VersionHistory) > 0 {
		if err := json.Unmarshal(m.VersionHistory, &refs); err != nil {
			return domain.Document{}, err
		}
	}
	versions := make([]domain.Version, 0, len(refs))
	for _, r := range refs {
		versions = append(versions, domain.Version{ID: r.ID, Timestamp: r.Timestamp, Label: r.Label})
	}
	doc := domain.Document{
		ID:                m.ID,
		OwnerID:           m.OwnerID,
		Title:             m.Title,
		Kind:              domain.DocumentKind(m.Kind),
		LastUpdated:       m.LastUpdated,
		Versions:          versions,
		AutoUpdateEnabled: m.AutoUpdateEnabled,
		Materialization:   domain.MaterializationLite,
	}
	if withContent {
		doc.CurrentContent = m.CurrentContent
		doc.Materialization = domain.MaterializationMirror
	}
	return doc, nil
}

func accountToModel(a domain.Account) AccountModel {
	return AccountModel{
		ID:                     a.ID,
		DisplayName:            a.DisplayName,
		Email:                  a.Email,
		Tier:                   string(a.Tier),
		EditsUsed:              a.EditsUsed,
		LastEditReset:          a.LastEditReset,
		AutoUpdateIntervalDays: a.AutoUpdateIntervalDays,
		CreatedAt:              a.CreatedAt,
	}
}

func accountFromModel(m AccountModel) domain.Account {
	return domain.Account{
		ID:                     m.ID,
		DisplayName:            m.DisplayName,
		Email:                  m.Email,
		Tier:                   domain.Tier(m.Tier),
		EditsUsed:              m.EditsUsed,
		LastEditReset:          m.LastEditReset,
		AutoUpdateIntervalDays: m.AutoUpdateIntervalDays,
		CreatedAt:              m.CreatedAt,
	}
}
