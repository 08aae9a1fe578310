package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/civiclens/civiclens/internal/domain/reputation"
	"github.com/civiclens/civiclens/internal/infrastructure/persistence/models"
	"github.com/civiclens/civiclens/internal/shared/db"
)

type CreditRepositoryImpl struct {
	db *gorm.DB
}

func NewCreditRepository(db *gorm.DB) reputation.Repository {
	return &CreditRepositoryImpl{db: db}
}

// Award inserts the grant row first; a conflict on (issue_id, reason) means the
// grant was already paid and the balance is left alone.
func (r *CreditRepositoryImpl) Award(ctx context.Context, g reputation.Grant) (bool, error) {
	applied := false

	err := db.GetTxFromContext(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		grant := &models.CreditGrantModel{
			UserID:    g.UserID,
			IssueID:   g.IssueID,
			Reason:    g.Reason,
			Amount:    g.Amount,
			CreatedAt: g.CreatedAt.UnixMilli(),
		}

		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "issue_id"}, {Name: "reason"}},
			DoNothing: true,
		}).Create(grant)
		if result.Error != nil {
			return fmt.Errorf("failed to insert credit grant: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}

		credit := &models.CivicCreditModel{
			UserID:    g.UserID,
			Balance:   g.Amount,
			UpdatedAt: g.CreatedAt.UnixMilli(),
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"balance":    gorm.Expr("balance + ?", g.Amount),
				"updated_at": g.CreatedAt.UnixMilli(),
			}),
		}).Create(credit).Error; err != nil {
			return fmt.Errorf("failed to credit balance: %w", err)
		}

		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return applied, nil
}

func (r *CreditRepositoryImpl) GetBalance(ctx context.Context, userID string) (int64, error) {
	var model models.CivicCreditModel

	err := db.GetTxFromContext(ctx, r.db).Where("user_id = ?", userID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get credit balance: %w", err)
	}

	return model.Balance, nil
}

func (r *CreditRepositoryImpl) TopBalances(ctx context.Context, limit int) ([]reputation.Balance, error) {
	if limit <= 0 {
		limit = 5
	}

	var modelList []models.CivicCreditModel
	if err := db.GetTxFromContext(ctx, r.db).
		Where("balance > 0").
		Order("balance DESC").Order("user_id ASC").
		Limit(limit).
		Find(&modelList).Error; err != nil {
		return nil, fmt.Errorf("failed to list top balances: %w", err)
	}

	balances := make([]reputation.Balance, 0, len(modelList))
	for _, m := range modelList {
		balances = append(balances, reputation.Balance{UserID: m.UserID, Balance: m.Balance})
	}

	return balances, nil
}
