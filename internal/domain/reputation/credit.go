// Package reputation tracks civic credit balances earned by reporters.
package reputation

import (
	"context"
	"fmt"
	"time"
)

// ReasonVerifiedResolution is granted once per issue when its repair is confirmed.
const ReasonVerifiedResolution = "verified_resolution"

// Grant is one credit award. (IssueID, Reason) is unique, which makes awarding idempotent.
type Grant struct {
	UserID    string
	IssueID   string
	Reason    string
	Amount    int64
	CreatedAt time.Time
}

func NewGrant(userID, issueID, reason string, amount int64, now time.Time) (Grant, error) {
	if userID == "" {
		return Grant{}, fmt.Errorf("user ID is required")
	}
	if issueID == "" {
		return Grant{}, fmt.Errorf("issue ID is required")
	}
	if amount <= 0 {
		return Grant{}, fmt.Errorf("grant amount must be positive")
	}
	return Grant{
		UserID:    userID,
		IssueID:   issueID,
		Reason:    reason,
		Amount:    amount,
		CreatedAt: now,
	}, nil
}

type Balance struct {
	UserID  string
	Balance int64
}

type Repository interface {
	// Award records g and credits the balance in one transaction. It reports
	// applied=false when a grant with the same (issue, reason) already exists.
	Award(ctx context.Context, g Grant) (applied bool, err error)
	GetBalance(ctx context.Context, userID string) (int64, error)
	TopBalances(ctx context.Context, limit int) ([]Balance, error)
}
