package issue

import (
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gin-gonic/gin"

	"github.com/civiclens/civiclens/internal/application/issue/usecases"
	"github.com/civiclens/civiclens/internal/shared/errors"
)

const imageField = "image"

// CreateIssueRequest is the multipart form of POST /issues.
type CreateIssueRequest struct {
	Title       string   `form:"title" validate:"required,max=200"`
	Description string   `form:"description" validate:"max=5000"`
	Category    string   `form:"category" validate:"required,oneof=roads waste utilities safety environment"`
	Subcategory string   `form:"subcategory" validate:"max=100"`
	Lat         *float64 `form:"lat" validate:"required,gte=-90,lte=90"`
	Lng         *float64 `form:"lng" validate:"required,gte=-180,lte=180"`
}

func (r *CreateIssueRequest) ToCommand(reporterID string, upload *upload) usecases.CreateIssueCommand {
	cmd := usecases.CreateIssueCommand{
		ReporterID:  reporterID,
		Category:    r.Category,
		Subcategory: r.Subcategory,
		Title:       r.Title,
		Description: r.Description,
		Lat:         *r.Lat,
		Lng:         *r.Lng,
	}
	if upload != nil {
		cmd.Image = upload.data
		cmd.ImageName = upload.name
	}
	return cmd
}

// CheckDuplicateRequest is the multipart form of POST /issues/check-duplicate.
type CheckDuplicateRequest struct {
	Category string   `form:"category" validate:"required"`
	Lat      *float64 `form:"lat" validate:"required"`
	Lng      *float64 `form:"lng" validate:"required"`
}

type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason" validate:"required,max=1000"`
}

// SubmitResolutionRequest accepts either a multipart "image" upload or an
// after_image reference to an already stored photo.
type SubmitResolutionRequest struct {
	AfterImage string `form:"after_image" json:"after_image"`
}

type ListIssuesRequest struct {
	Category   string `form:"category"`
	Status     string `form:"status"`
	ReporterID string `form:"reporter_id"`
}

type CreateIssueResponse struct {
	Merged       bool   `json:"merged"`
	IssueID      string `json:"issue_id"`
	ReportCount  int    `json:"report_count"`
	TriageQueued bool   `json:"triage_queued,omitempty"`
}

type CheckDuplicateResponse struct {
	IsDuplicate bool   `json:"is_duplicate"`
	IssueID     string `json:"issue_id,omitempty"`
	Status      string `json:"status,omitempty"`
	ReportCount int    `json:"report_count,omitempty"`
}

type ResolutionResponse struct {
	Verified      bool   `json:"verified"`
	Outcome       string `json:"outcome"`
	Reason        string `json:"reason"`
	Status        string `json:"status,omitempty"`
	CreditAwarded bool   `json:"credit_awarded"`
}

type TriageResponse struct {
	IssueID      string   `json:"issue_id"`
	Status       string   `json:"status"`
	Queued       bool     `json:"queued"`
	Skipped      bool     `json:"skipped"`
	AIScore      *float64 `json:"ai_score,omitempty"`
	Summary      string   `json:"summary,omitempty"`
	Severity     string   `json:"severity,omitempty"`
	ManualReview bool     `json:"manual_review,omitempty"`
}

type upload struct {
	name string
	data []byte
}

// readUpload returns the "image" part of a multipart request, or nil when the
// field is absent.
func readUpload(c *gin.Context, maxBytes int64) (*upload, error) {
	fh, err := c.FormFile(imageField)
	if err != nil {
		return nil, nil
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, errors.NewValidationError(fmt.Sprintf("image exceeds maximum size of %d bytes", maxBytes))
	}
	data, err := readFile(fh, maxBytes)
	if err != nil {
		return nil, errors.NewValidationError("failed to read image upload")
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &upload{name: fh.Filename, data: data}, nil
}

func readFile(fh *multipart.FileHeader, maxBytes int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if maxBytes > 0 {
		r = io.LimitReader(f, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", maxBytes)
	}
	return data, nil
}
