package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiclens/civiclens/internal/application/issue/dto"
	"github.com/civiclens/civiclens/internal/interfaces/http/handlers/testutil"
	"github.com/civiclens/civiclens/internal/shared/errors"
)

type mockGetDashboardUC struct {
	result *dto.DashboardDTO
	err    error
}

func (m *mockGetDashboardUC) Execute(_ context.Context) (*dto.DashboardDTO, error) {
	return m.result, m.err
}

func TestDashboardHandler_GetDashboard(t *testing.T) {
	uc := &mockGetDashboardUC{result: &dto.DashboardDTO{
		Totals:   dto.DashboardTotalsDTO{Total: 4, Resolved: 1, Open: 3},
		ByStatus: map[string]int64{"pending": 3, "resolved": 1},
		Leaders:  []dto.LeaderDTO{{UserID: "officer-1", Credits: 50}},
	}}
	h := NewDashboardHandler(uc, testutil.NewMockLogger())

	c, w := testutil.NewTestContext(http.MethodGet, "/api/v1/dashboard", nil)
	h.GetDashboard(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, testutil.ParseResponse(w, &resp))
	assert.True(t, resp.Success)
	assert.Contains(t, string(resp.Data), `"civic_credits":50`)
}

func TestDashboardHandler_Error(t *testing.T) {
	uc := &mockGetDashboardUC{err: errors.NewInternalError("failed to load dashboard")}
	h := NewDashboardHandler(uc, testutil.NewMockLogger())

	c, w := testutil.NewTestContext(http.MethodGet, "/api/v1/dashboard", nil)
	h.GetDashboard(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
