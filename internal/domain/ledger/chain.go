package ledger

import (
	"fmt"
	"sort"

	vo "github.com/civiclens/civiclens/internal/domain/issue/valueobjects"
)

// ChainError pinpoints the first entry that breaks an issue's history.
type ChainError struct {
	Index  int
	Reason string
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("ledger chain broken at entry %d: %s", e.Index, e.Reason)
}

// SortEntries orders entries by (timestamp, id) in place.
func SortEntries(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.timestamp.Equal(b.timestamp) {
			return a.timestamp.Before(b.timestamp)
		}
		return a.id < b.id
	})
}

// ValidateChain checks that the entries of one issue replay as a legal walk
// through the status lifecycle: the first entry has no previous status, every
// later entry starts where its predecessor ended, and each status change is an
// allowed transition. Evidence entries must leave the status untouched.
func ValidateChain(entries []*Entry) error {
	if len(entries) == 0 {
		return nil
	}

	ordered := make([]*Entry, len(entries))
	copy(ordered, entries)
	SortEntries(ordered)

	issueID := ordered[0].issueID
	for i, e := range ordered {
		if e.issueID != issueID {
			return &ChainError{Index: i, Reason: "entries belong to different issues"}
		}

		if i == 0 {
			if e.prevStatus != nil {
				return &ChainError{Index: 0, Reason: "first entry must not have a previous status"}
			}
			continue
		}

		if e.prevStatus == nil {
			return &ChainError{Index: i, Reason: "missing previous status"}
		}
		if *e.prevStatus != ordered[i-1].newStatus {
			return &ChainError{Index: i, Reason: fmt.Sprintf("previous status %s does not match %s", *e.prevStatus, ordered[i-1].newStatus)}
		}
		if err := checkStep(e.action, *e.prevStatus, e.newStatus); err != "" {
			return &ChainError{Index: i, Reason: err}
		}
	}
	return nil
}

func checkStep(action Action, prev, next vo.IssueStatus) string {
	switch action {
	case ActionEvidenceUploaded:
		if prev != next {
			return "evidence entry must not change status"
		}
	case ActionIssueCreated:
		return "creation entry after the first position"
	default:
		if !prev.CanTransitionTo(next) {
			return fmt.Sprintf("illegal transition %s -> %s", prev, next)
		}
	}
	return ""
}
