package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/civiclens/civiclens/internal/application/issue/usecases"
	"github.com/civiclens/civiclens/internal/shared/logger"
	"github.com/civiclens/civiclens/internal/shared/utils"
)

// DashboardHandler serves the public civic dashboard.
type DashboardHandler struct {
	getDashboardUseCase usecases.GetDashboardExecutor
	logger              logger.Interface
}

func NewDashboardHandler(
	getDashboardUseCase usecases.GetDashboardExecutor,
	logger logger.Interface,
) *DashboardHandler {
	return &DashboardHandler{
		getDashboardUseCase: getDashboardUseCase,
		logger:              logger,
	}
}

// GetDashboard handles GET /dashboard
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	result, err := h.getDashboardUseCase.Execute(c.Request.Context())
	if err != nil {
		h.logger.Errorw("failed to get dashboard", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}
