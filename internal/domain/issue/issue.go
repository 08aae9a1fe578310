package issue

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	vo "github.com/civiclens/civiclens/internal/domain/issue/valueobjects"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 5000
)

// Issue is a reported civic defect. Its status only moves through ApplyTransition.
type Issue struct {
	id          string
	reporterID  string
	category    vo.Category
	subcategory string
	title       string
	description string
	location    vo.Coordinates
	address     string
	status      vo.IssueStatus
	beforeImage string
	afterImage  *string
	aiScore     *float64
	reportCount int
	createdAt   time.Time
	updatedAt   time.Time
}

type NewIssueParams struct {
	ReporterID  string
	Category    vo.Category
	Subcategory string
	Title       string
	Description string
	Location    vo.Coordinates
	Address     string
	BeforeImage string
}

func NewIssue(p NewIssueParams, now time.Time) (*Issue, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if len(title) > maxTitleLength {
		return nil, fmt.Errorf("title exceeds maximum length of %d characters", maxTitleLength)
	}
	if len(p.Description) > maxDescriptionLength {
		return nil, fmt.Errorf("description exceeds maximum length of %d characters", maxDescriptionLength)
	}
	if !p.Category.IsValid() {
		return nil, fmt.Errorf("invalid category")
	}
	if p.ReporterID == "" {
		return nil, fmt.Errorf("reporter ID is required")
	}

	return &Issue{
		id:          uuid.NewString(),
		reporterID:  p.ReporterID,
		category:    p.Category,
		subcategory: p.Subcategory,
		title:       title,
		description: p.Description,
		location:    p.Location,
		address:     p.Address,
		status:      vo.StatusPending,
		beforeImage: p.BeforeImage,
		reportCount: 1,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

type ReconstructParams struct {
	ID          string
	ReporterID  string
	Category    vo.Category
	Subcategory string
	Title       string
	Description string
	Location    vo.Coordinates
	Address     string
	Status      vo.IssueStatus
	BeforeImage string
	AfterImage  *string
	AIScore     *float64
	ReportCount int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func ReconstructIssue(p ReconstructParams) (*Issue, error) {
	if p.ID == "" {
		return nil, fmt.Errorf("issue ID is required")
	}
	if !p.Status.IsValid() {
		return nil, fmt.Errorf("invalid status: %s", p.Status)
	}
	if p.ReportCount < 1 {
		return nil, fmt.Errorf("report count must be at least 1")
	}

	return &Issue{
		id:          p.ID,
		reporterID:  p.ReporterID,
		category:    p.Category,
		subcategory: p.Subcategory,
		title:       p.Title,
		description: p.Description,
		location:    p.Location,
		address:     p.Address,
		status:      p.Status,
		beforeImage: p.BeforeImage,
		afterImage:  p.AfterImage,
		aiScore:     p.AIScore,
		reportCount: p.ReportCount,
		createdAt:   p.CreatedAt,
		updatedAt:   p.UpdatedAt,
	}, nil
}

func (i *Issue) ID() string {
	return i.id
}

func (i *Issue) ReporterID() string {
	return i.reporterID
}

func (i *Issue) Category() vo.Category {
	return i.category
}

func (i *Issue) Subcategory() string {
	return i.subcategory
}

func (i *Issue) Title() string {
	return i.title
}

func (i *Issue) Description() string {
	return i.description
}

func (i *Issue) Location() vo.Coordinates {
	return i.location
}

func (i *Issue) Address() string {
	return i.address
}

func (i *Issue) Status() vo.IssueStatus {
	return i.status
}

func (i *Issue) BeforeImage() string {
	return i.beforeImage
}

func (i *Issue) AfterImage() *string {
	return i.afterImage
}

func (i *Issue) AIScore() *float64 {
	return i.aiScore
}

func (i *Issue) ReportCount() int {
	return i.reportCount
}

func (i *Issue) CreatedAt() time.Time {
	return i.createdAt
}

func (i *Issue) UpdatedAt() time.Time {
	return i.updatedAt
}

func (i *Issue) HasBeforeImage() bool {
	return i.beforeImage != ""
}

// TransitionChange carries the fields that may move together with a status change.
type TransitionChange struct {
	AIScore    *float64
	AfterImage *string
}

// ApplyTransition moves the issue to next. after_image may only be set when
// resolving, and ai_score must be a finite value in [0, 100].
func (i *Issue) ApplyTransition(next vo.IssueStatus, change TransitionChange, now time.Time) error {
	if !i.status.CanTransitionTo(next) {
		return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, i.status, next)
	}
	if change.AfterImage != nil && next != vo.StatusResolved {
		return fmt.Errorf("after image can only be recorded when resolving")
	}
	if change.AIScore != nil {
		if err := ValidateScore(*change.AIScore); err != nil {
			return err
		}
		score := *change.AIScore
		i.aiScore = &score
	}
	if change.AfterImage != nil {
		img := *change.AfterImage
		i.afterImage = &img
	}

	i.status = next
	i.updatedAt = now
	return nil
}

// RecordMergedReport folds another citizen's report of the same defect into this issue.
func (i *Issue) RecordMergedReport(now time.Time) {
	i.reportCount++
	i.updatedAt = now
}

// SetAddress stores the reverse-geocoded address.
func (i *Issue) SetAddress(address string) {
	i.address = address
}

func ValidateScore(score float64) error {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return fmt.Errorf("ai score must be finite")
	}
	if score < 0 || score > 100 {
		return fmt.Errorf("ai score %v out of range [0, 100]", score)
	}
	return nil
}
