// Package ledger models the append-only audit trail of an issue.
package ledger

import (
	"fmt"
	"time"

	vo "github.com/civiclens/civiclens/internal/domain/issue/valueobjects"
)

type Action string

const (
	ActionIssueCreated     Action = "ISSUE_CREATED"
	ActionStatusChange     Action = "STATUS_CHANGE"
	ActionAIAnalysis       Action = "AI_ANALYSIS"
	ActionEvidenceUploaded Action = "EVIDENCE_UPLOADED"
)

func (a Action) IsValid() bool {
	switch a {
	case ActionIssueCreated, ActionStatusChange, ActionAIAnalysis, ActionEvidenceUploaded:
		return true
	}
	return false
}

func (a Action) String() string {
	return string(a)
}

// Entry is one immutable fact about an issue. It has no mutators.
type Entry struct {
	id         uint64
	issueID    string
	action     Action
	prevStatus *vo.IssueStatus
	newStatus  vo.IssueStatus
	actorID    *string
	metadata   map[string]any
	timestamp  time.Time
}

func NewEntry(
	issueID string,
	action Action,
	prevStatus *vo.IssueStatus,
	newStatus vo.IssueStatus,
	actorID *string,
	metadata map[string]any,
	timestamp time.Time,
) (*Entry, error) {
	if issueID == "" {
		return nil, fmt.Errorf("issue ID is required")
	}
	if !action.IsValid() {
		return nil, fmt.Errorf("invalid ledger action: %s", action)
	}
	if !newStatus.IsValid() {
		return nil, fmt.Errorf("invalid new status: %s", newStatus)
	}
	if prevStatus != nil && !prevStatus.IsValid() {
		return nil, fmt.Errorf("invalid previous status: %s", *prevStatus)
	}
	if action == ActionIssueCreated && prevStatus != nil {
		return nil, fmt.Errorf("creation entry cannot have a previous status")
	}

	return &Entry{
		issueID:    issueID,
		action:     action,
		prevStatus: prevStatus,
		newStatus:  newStatus,
		actorID:    actorID,
		metadata:   copyMetadata(metadata),
		timestamp:  timestamp,
	}, nil
}

func ReconstructEntry(
	id uint64,
	issueID string,
	action Action,
	prevStatus *vo.IssueStatus,
	newStatus vo.IssueStatus,
	actorID *string,
	metadata map[string]any,
	timestamp time.Time,
) *Entry {
	return &Entry{
		id:         id,
		issueID:    issueID,
		action:     action,
		prevStatus: prevStatus,
		newStatus:  newStatus,
		actorID:    actorID,
		metadata:   copyMetadata(metadata),
		timestamp:  timestamp,
	}
}

func (e *Entry) ID() uint64 {
	return e.id
}

func (e *Entry) IssueID() string {
	return e.issueID
}

func (e *Entry) Action() Action {
	return e.action
}

func (e *Entry) PrevStatus() *vo.IssueStatus {
	return e.prevStatus
}

func (e *Entry) NewStatus() vo.IssueStatus {
	return e.newStatus
}

func (e *Entry) ActorID() *string {
	return e.actorID
}

func (e *Entry) Metadata() map[string]any {
	return copyMetadata(e.metadata)
}

func (e *Entry) Timestamp() time.Time {
	return e.timestamp
}

// AssignID is called once by the repository after insert.
func (e *Entry) AssignID(id uint64) error {
	if e.id != 0 {
		return fmt.Errorf("ledger entry ID is already set")
	}
	e.id = id
	return nil
}

func copyMetadata(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
