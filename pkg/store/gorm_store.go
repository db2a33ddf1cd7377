package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"synapsesync/pkg/domain"
)

// GormIndex implements MetadataIndex using GORM + Postgres.
type GormIndex struct {
	db *gorm.DB
}

// NewGormIndex opens the DB and runs auto-migrations.
func NewGormIndex(dsn string) (*GormIndex, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&DocumentModel{}, &AccountModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormIndex{db: db}, nil
}

// ListDocuments returns lite records for the owner, newest first.
func (s *GormIndex) ListDocuments(ctx context.Context, ownerID string) ([]domain.Document, error) {
	var models []DocumentModel
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("last_updated DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	res := make([]domain.Document, 0, len(models))
	for _, m := range models {
		doc, err := documentFromModel(m, false)
		if err != nil {
			return nil, fmt.Errorf("decode version history: %w", err)
		}
		res = append(res, doc)
	}
	return res, nil
}

// GetDocument retrieves one record including the mirrored live content.
func (s *GormIndex) GetDocument(ctx context.Context, ownerID, documentID string) (domain.Document, bool, error) {
	var model DocumentModel
	err := s.db.WithContext(ctx).
		First(&model, "id = ? AND owner_id = ?", documentID, ownerID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Document{}, false, nil
		}
		return domain.Document{}, false, err
	}
	doc, err := documentFromModel(model, true)
	if err != nil {
		return domain.Document{}, false, fmt.Errorf("decode version history: %w", err)
	}
	return doc, true, nil
}

// SaveDocument upserts the metadata record, mirroring the live content and
// the stripped version history.
func (s *GormIndex) SaveDocument(ctx context.Context, doc domain.Document) error {
	model, err := documentToModel(doc, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("encode version history: %w", err)
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"owner_id", "title", "kind", "current_content", "last_updated",
			"auto_update_enabled", "version_history", "last_synced",
		}),
	}).Create(&model).Error
}

// DeleteDocument removes the metadata record.
func (s *GormIndex) DeleteDocument(ctx context.Context, ownerID, documentID string) error {
	return s.db.WithContext(ctx).
		Delete(&DocumentModel{}, "id = ? AND owner_id = ?", documentID, ownerID).Error
}

// GetAccount returns the account record for an owner.
func (s *GormIndex) GetAccount(ctx context.Context, ownerID string) (domain.Account, bool, error) {
	var model AccountModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", ownerID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Account{}, false, nil
		}
		return domain.Account{}, false, err
	}
	return accountFromModel(model), true, nil
}

// SaveAccount upserts the account record.
func (s *GormIndex) SaveAccount(ctx context.Context, acct domain.Account) error {
	model := accountToModel(acct)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"display_name", "email", "tier", "edits_used",
			"last_edit_reset", "auto_update_interval_days",
		}),
	}).Create(&model).Error
}
