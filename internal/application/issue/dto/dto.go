package dto

import (
	"time"

	"github.com/civiclens/civiclens/internal/domain/issue"
	"github.com/civiclens/civiclens/internal/domain/ledger"
	"github.com/civiclens/civiclens/internal/domain/reputation"
	"github.com/civiclens/civiclens/internal/shared/mapper"
)

type IssueDTO struct {
	ID          string   `json:"id"`
	ReporterID  string   `json:"reporter_id"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	Address     string   `json:"address,omitempty"`
	Status      string   `json:"status"`
	BeforeImage string   `json:"before_image,omitempty"`
	AfterImage  *string  `json:"after_image"`
	AIScore     *float64 `json:"ai_score"`
	ReportCount int      `json:"report_count"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

type LedgerEntryDTO struct {
	ID         uint64         `json:"id"`
	Action     string         `json:"action"`
	PrevStatus *string        `json:"prev_status"`
	NewStatus  string         `json:"new_status"`
	ActorID    *string        `json:"actor_id"`
	Metadata   map[string]any `json:"metadata"`
	Timestamp  string         `json:"timestamp"`
}

// IssueDetailDTO carries the issue with its audit trail. ChainIntact is false
// when the trail does not replay as a legal sequence of transitions.
type IssueDetailDTO struct {
	Issue       *IssueDTO         `json:"issue"`
	AuditTrail  []*LedgerEntryDTO `json:"audit_trail"`
	ChainIntact bool              `json:"chain_intact"`
}

type LeaderDTO struct {
	UserID  string `json:"user_id"`
	Credits int64  `json:"civic_credits"`
}

type DashboardTotalsDTO struct {
	Total    int64 `json:"total"`
	Resolved int64 `json:"resolved"`
	Open     int64 `json:"open"`
}

type DashboardDTO struct {
	Totals   DashboardTotalsDTO `json:"totals"`
	ByStatus map[string]int64   `json:"by_status"`
	Leaders  []LeaderDTO        `json:"leaders"`
	Recent   []*IssueDTO        `json:"recent"`
}

func ToIssueDTO(i *issue.Issue) *IssueDTO {
	if i == nil {
		return nil
	}
	return &IssueDTO{
		ID:          i.ID(),
		ReporterID:  i.ReporterID(),
		Category:    i.Category().String(),
		Subcategory: i.Subcategory(),
		Title:       i.Title(),
		Description: i.Description(),
		Lat:         i.Location().Lat(),
		Lng:         i.Location().Lng(),
		Address:     i.Address(),
		Status:      i.Status().String(),
		BeforeImage: i.BeforeImage(),
		AfterImage:  i.AfterImage(),
		AIScore:     i.AIScore(),
		ReportCount: i.ReportCount(),
		CreatedAt:   i.CreatedAt().UTC().Format(time.RFC3339),
		UpdatedAt:   i.UpdatedAt().UTC().Format(time.RFC3339),
	}
}

func ToIssueDTOList(issues []*issue.Issue) []*IssueDTO {
	return mapper.MapSlicePtrSkipNil(issues, ToIssueDTO)
}

func ToLedgerEntryDTO(e *ledger.Entry) *LedgerEntryDTO {
	if e == nil {
		return nil
	}
	var prev *string
	if p := e.PrevStatus(); p != nil {
		s := p.String()
		prev = &s
	}
	return &LedgerEntryDTO{
		ID:         e.ID(),
		Action:     e.Action().String(),
		PrevStatus: prev,
		NewStatus:  e.NewStatus().String(),
		ActorID:    e.ActorID(),
		Metadata:   e.Metadata(),
		Timestamp:  e.Timestamp().UTC().Format(time.RFC3339Nano),
	}
}

func ToLedgerEntryDTOList(entries []*ledger.Entry) []*LedgerEntryDTO {
	out := mapper.MapSlicePtrSkipNil(entries, ToLedgerEntryDTO)
	if out == nil {
		out = []*LedgerEntryDTO{}
	}
	return out
}

func ToLeaderDTOList(balances []reputation.Balance) []LeaderDTO {
	out := mapper.MapSlice(balances, func(b reputation.Balance) LeaderDTO {
		return LeaderDTO{UserID: b.UserID, Credits: b.Balance}
	})
	if out == nil {
		out = []LeaderDTO{}
	}
	return out
}
