package models

import (
	"gorm.io/datatypes"

	"github.com/civiclens/civiclens/internal/shared/constants"
)

// AuditLedgerModel is insert-only. CreatedAt holds the entry timestamp in unix milliseconds.
type AuditLedgerModel struct {
	ID         uint64            `gorm:"primaryKey;autoIncrement"`
	IssueID    string            `gorm:"size:36;not null"`
	Action     string            `gorm:"size:32;not null"`
	PrevStatus *string           `gorm:"size:32"`
	NewStatus  string            `gorm:"size:32;not null"`
	ActorID    *string           `gorm:"size:36"`
	Metadata   datatypes.JSONMap `gorm:"type:json"`
	CreatedAt  int64             `gorm:"autoCreateTime:false;not null"`
}

func (AuditLedgerModel) TableName() string {
	return constants.TableAuditLedger
}
