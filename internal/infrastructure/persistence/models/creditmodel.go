package models

import "github.com/civiclens/civiclens/internal/shared/constants"

type CivicCreditModel struct {
	UserID    string `gorm:"primaryKey;size:36"`
	Balance   int64  `gorm:"not null;default:0"`
	UpdatedAt int64  `gorm:"autoUpdateTime:false;not null"`
}

func (CivicCreditModel) TableName() string {
	return constants.TableCivicCredits
}

// CreditGrantModel is unique on (issue_id, reason).
type CreditGrantModel struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	UserID    string `gorm:"size:36;not null"`
	IssueID   string `gorm:"size:36;not null;uniqueIndex:uk_credit_grants_issue_reason"`
	Reason    string `gorm:"size:64;not null;uniqueIndex:uk_credit_grants_issue_reason"`
	Amount    int64  `gorm:"not null"`
	CreatedAt int64  `gorm:"autoCreateTime:false;not null"`
}

func (CreditGrantModel) TableName() string {
	return constants.TableCreditGrants
}
