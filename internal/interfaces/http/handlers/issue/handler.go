package issue

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/civiclens/civiclens/internal/application/issue/usecases"
	"github.com/civiclens/civiclens/internal/shared/authorization"
	"github.com/civiclens/civiclens/internal/shared/errors"
	"github.com/civiclens/civiclens/internal/shared/logger"
	"github.com/civiclens/civiclens/internal/shared/utils"
)

type Handler struct {
	createIssueUC      usecases.CreateIssueExecutor
	checkDuplicateUC   usecases.CheckDuplicateExecutor
	getIssueUC         usecases.GetIssueExecutor
	listIssuesUC       usecases.ListIssuesExecutor
	changeStatusUC     usecases.ChangeStatusExecutor
	triggerTriageUC    usecases.TriggerTriageExecutor
	submitResolutionUC usecases.SubmitResolutionExecutor
	maxImageBytes      int64
	logger             logger.Interface
}

func NewHandler(
	createIssueUC usecases.CreateIssueExecutor,
	checkDuplicateUC usecases.CheckDuplicateExecutor,
	getIssueUC usecases.GetIssueExecutor,
	listIssuesUC usecases.ListIssuesExecutor,
	changeStatusUC usecases.ChangeStatusExecutor,
	triggerTriageUC usecases.TriggerTriageExecutor,
	submitResolutionUC usecases.SubmitResolutionExecutor,
	maxImageBytes int64,
	logger logger.Interface,
) *Handler {
	return &Handler{
		createIssueUC:      createIssueUC,
		checkDuplicateUC:   checkDuplicateUC,
		getIssueUC:         getIssueUC,
		listIssuesUC:       listIssuesUC,
		changeStatusUC:     changeStatusUC,
		triggerTriageUC:    triggerTriageUC,
		submitResolutionUC: submitResolutionUC,
		maxImageBytes:      maxImageBytes,
		logger:             logger,
	}
}

// CreateIssue handles POST /issues
func (h *Handler) CreateIssue(c *gin.Context) {
	actor := authorization.ActorFromContext(c)
	if actor == nil {
		utils.ErrorResponseWithError(c, errors.NewUnauthorizedError("authentication required"))
		return
	}

	var req CreateIssueRequest
	if err := bindForm(c, &req); err != nil {
		h.logger.Warnw("invalid request body for create issue", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	img, err := readUpload(c, h.maxImageBytes)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.createIssueUC.Execute(c.Request.Context(), req.ToCommand(actor.UserID, img))
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	if result.Merged {
		utils.SuccessResponse(c, http.StatusOK, "Report merged into an existing issue", CreateIssueResponse{
			Merged:      true,
			IssueID:     result.MergedInto,
			ReportCount: result.ReportCount,
		})
		return
	}

	utils.CreatedResponse(c, result.Issue, "Issue reported successfully")
}

// CheckDuplicate handles POST /issues/check-duplicate
func (h *Handler) CheckDuplicate(c *gin.Context) {
	var req CheckDuplicateRequest
	if err := bindForm(c, &req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	img, err := readUpload(c, h.maxImageBytes)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if img == nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("image is required"))
		return
	}

	result, err := h.checkDuplicateUC.Execute(c.Request.Context(), usecases.CheckDuplicateCommand{
		Category: req.Category,
		Lat:      *req.Lat,
		Lng:      *req.Lng,
		Image:    img.data,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", CheckDuplicateResponse{
		IsDuplicate: result.IsDuplicate,
		IssueID:     result.IssueID,
		Status:      result.Status,
		ReportCount: result.ReportCount,
	})
}

// ListIssues handles GET /issues
func (h *Handler) ListIssues(c *gin.Context) {
	var req ListIssuesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("invalid query parameters", err.Error()))
		return
	}
	p := utils.ParsePagination(c)

	result, err := h.listIssuesUC.Execute(c.Request.Context(), usecases.ListIssuesQuery{
		Category:   req.Category,
		Status:     req.Status,
		ReporterID: req.ReporterID,
		Page:       p.Page,
		PageSize:   p.PageSize,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.ListSuccessResponse(c, result.Issues, result.Total, result.Page, result.PageSize)
}

// GetIssue handles GET /issues/:id
func (h *Handler) GetIssue(c *gin.Context) {
	issueID, err := utils.ParseUUIDParam(c, "id", "issue")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.getIssueUC.Execute(c.Request.Context(), usecases.GetIssueQuery{IssueID: issueID})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

// ChangeStatus handles PATCH /issues/:id/status
func (h *Handler) ChangeStatus(c *gin.Context) {
	issueID, err := utils.ParseUUIDParam(c, "id", "issue")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("invalid request body", err.Error()))
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.changeStatusUC.Execute(c.Request.Context(), usecases.ChangeStatusCommand{
		IssueID:   issueID,
		NewStatus: req.Status,
		Reason:    req.Reason,
		Actor:     authorization.ActorFromContext(c),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Issue status updated successfully", result.Issue)
}

// TriggerTriage handles POST /issues/:id/triage
func (h *Handler) TriggerTriage(c *gin.Context) {
	issueID, err := utils.ParseUUIDParam(c, "id", "issue")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	wait, _ := strconv.ParseBool(c.Query("wait"))

	result, err := h.triggerTriageUC.Execute(c.Request.Context(), usecases.TriggerTriageCommand{
		IssueID: issueID,
		Actor:   authorization.ActorFromContext(c),
		Wait:    wait,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	status := http.StatusOK
	if result.Queued {
		status = http.StatusAccepted
	}
	utils.SuccessResponse(c, status, "", TriageResponse{
		IssueID:      result.IssueID,
		Status:       result.Status,
		Queued:       result.Queued,
		Skipped:      result.Skipped,
		AIScore:      result.Score,
		Summary:      result.Summary,
		Severity:     result.Severity,
		ManualReview: result.ManualReview,
	})
}

// SubmitResolution handles POST /issues/:id/resolution
func (h *Handler) SubmitResolution(c *gin.Context) {
	issueID, err := utils.ParseUUIDParam(c, "id", "issue")
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	var req SubmitResolutionRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("invalid request body", err.Error()))
		return
	}

	cmd := usecases.SubmitResolutionCommand{
		IssueID:       issueID,
		Actor:         authorization.ActorFromContext(c),
		AfterImageURL: req.AfterImage,
	}
	img, err := readUpload(c, h.maxImageBytes)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}
	if img != nil {
		cmd.Image = img.data
		cmd.ImageName = img.name
	}

	result, err := h.submitResolutionUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	resp := ResolutionResponse{
		Verified:      result.Verified,
		Outcome:       result.Outcome,
		Reason:        result.Reason,
		CreditAwarded: result.CreditAwarded,
	}
	if result.Issue != nil {
		resp.Status = result.Issue.Status
	}
	utils.SuccessResponse(c, http.StatusOK, "", resp)
}

// bindForm binds a multipart or urlencoded form and validates it.
func bindForm(c *gin.Context, req any) error {
	if err := c.ShouldBind(req); err != nil {
		return errors.NewValidationError("invalid form data", err.Error())
	}
	return utils.ValidateStruct(req)
}
