package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/civiclens/civiclens/internal/domain/ledger"
	"github.com/civiclens/civiclens/internal/infrastructure/persistence/mappers"
	"github.com/civiclens/civiclens/internal/infrastructure/persistence/models"
	"github.com/civiclens/civiclens/internal/shared/db"
)

// AuditLedgerRepositoryImpl only inserts and reads; ledger rows are never updated.
type AuditLedgerRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.AuditLedgerMapper
}

func NewAuditLedgerRepository(db *gorm.DB) ledger.Repository {
	return &AuditLedgerRepositoryImpl{
		db:     db,
		mapper: mappers.NewAuditLedgerMapper(),
	}
}

func (r *AuditLedgerRepositoryImpl) Append(ctx context.Context, entry *ledger.Entry) error {
	model := r.mapper.ToModel(entry)
	model.ID = 0

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}

	if err := entry.AssignID(model.ID); err != nil {
		return fmt.Errorf("failed to set ledger entry ID: %w", err)
	}

	return nil
}

// ListByIssue returns entries ordered by (timestamp, id).
func (r *AuditLedgerRepositoryImpl) ListByIssue(ctx context.Context, issueID string) ([]*ledger.Entry, error) {
	var modelList []*models.AuditLedgerModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("issue_id = ?", issueID).
		Order("created_at ASC").Order("id ASC").
		Find(&modelList).Error; err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}

	entries, err := r.mapper.ToEntities(modelList)
	if err != nil {
		return nil, fmt.Errorf("failed to map ledger models to entries: %w", err)
	}

	return entries, nil
}
