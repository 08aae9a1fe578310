package ledger

import "context"

// Repository appends and reads ledger entries. There is no update or delete.
type Repository interface {
	Append(ctx context.Context, entry *Entry) error
	ListByIssue(ctx context.Context, issueID string) ([]*Entry, error)
}
