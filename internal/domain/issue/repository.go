package issue

import (
	"context"
	"time"

	vo "github.com/civiclens/civiclens/internal/domain/issue/valueobjects"
	"github.com/civiclens/civiclens/internal/shared/geo"
)

// Candidate is a nearby open issue considered during duplicate detection.
type Candidate struct {
	ID          string
	Category    vo.Category
	Status      vo.IssueStatus
	Lat         float64
	Lng         float64
	BeforeImage string
	ReportCount int
}

type Repository interface {
	Create(ctx context.Context, issue *Issue) error
	GetByID(ctx context.Context, id string) (*Issue, error)
	// CompareAndSwapStatus persists issue's status, ai_score, after_image and
	// updated_at only if the stored status still equals expected. It returns
	// ErrStatusChanged when no row matched.
	CompareAndSwapStatus(ctx context.Context, issue *Issue, expected vo.IssueStatus) error
	IncrementReportCount(ctx context.Context, id string, now time.Time) (int, error)
	FindNearbyPending(ctx context.Context, box geo.BoundingBox) ([]Candidate, error)
	List(ctx context.Context, filter Filter) ([]*Issue, int64, error)
	ListStaleIDs(ctx context.Context, statuses []vo.IssueStatus, updatedBefore time.Time, limit int) ([]string, error)
	CountByStatus(ctx context.Context) (map[vo.IssueStatus]int64, error)
}

type Filter struct {
	Category   *vo.Category
	Status     *vo.IssueStatus
	ReporterID string
	Page       int
	PageSize   int
}
