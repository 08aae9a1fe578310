package valueobjects

import "fmt"

type IssueStatus string

const (
	StatusPending     IssueStatus = "pending"
	StatusAIAnalyzing IssueStatus = "ai_analyzing"
	StatusValidated   IssueStatus = "validated"
	StatusAssigned    IssueStatus = "assigned"
	StatusInProgress  IssueStatus = "in_progress"
	StatusResolved    IssueStatus = "resolved"
	StatusRejected    IssueStatus = "rejected"
)

var issueStatusTransitions = map[IssueStatus][]IssueStatus{
	StatusPending: {
		StatusAIAnalyzing,
		StatusRejected,
	},
	StatusAIAnalyzing: {
		StatusValidated,
		StatusRejected,
	},
	StatusValidated: {
		StatusAssigned,
		StatusResolved,
		StatusRejected,
	},
	StatusAssigned: {
		StatusInProgress,
		StatusResolved,
		StatusRejected,
	},
	StatusInProgress: {
		StatusResolved,
		StatusRejected,
	},
	StatusResolved: {},
	StatusRejected: {},
}

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []IssueStatus{
	StatusPending,
	StatusAIAnalyzing,
	StatusValidated,
	StatusAssigned,
	StatusInProgress,
	StatusResolved,
	StatusRejected,
}

func (s IssueStatus) String() string {
	return string(s)
}

func (s IssueStatus) IsValid() bool {
	_, ok := issueStatusTransitions[s]
	return ok
}

func (s IssueStatus) CanTransitionTo(next IssueStatus) bool {
	for _, allowed := range issueStatusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s IssueStatus) IsTerminal() bool {
	return s == StatusResolved || s == StatusRejected
}

// IsOpen reports whether the issue still awaits work.
func (s IssueStatus) IsOpen() bool {
	return s.IsValid() && !s.IsTerminal()
}

// IsSystemOnly reports targets only the triage pipeline may move an issue into.
func (s IssueStatus) IsSystemOnly() bool {
	return s == StatusAIAnalyzing || s == StatusValidated
}

func (s IssueStatus) Ptr() *IssueStatus {
	return &s
}

func NewIssueStatus(s string) (IssueStatus, error) {
	status := IssueStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid issue status: %s", s)
	}
	return status, nil
}
