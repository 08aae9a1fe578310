package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civiclens/civiclens/internal/application/issue/services"
	"github.com/civiclens/civiclens/internal/domain/issue"
	vo "github.com/civiclens/civiclens/internal/domain/issue/valueobjects"
	apperrors "github.com/civiclens/civiclens/internal/shared/errors"
)

func TestCheckDuplicateUseCase_Execute_Match(t *testing.T) {
	finder := &mockDuplicateFinder{result: services.DuplicateResult{
		IsDuplicate: true,
		Match:       &issue.Candidate{ID: "issue-9", Status: vo.StatusPending, ReportCount: 4},
	}}

	result, err := NewCheckDuplicateUseCase(finder, newTestLogger()).Execute(context.Background(), CheckDuplicateCommand{
		Category: "roads",
		Lat:      28.6139,
		Lng:      77.2090,
		Image:    jpegBytes,
	})

	require.NoError(t, err)
	assert.True(t, result.IsDuplicate)
	assert.Equal(t, "issue-9", result.IssueID)
	assert.Equal(t, "pending", result.Status)
	assert.Equal(t, 4, result.ReportCount)
	require.Len(t, finder.queries, 1)
	assert.Equal(t, 28.6139, finder.queries[0].Lat)
}

func TestCheckDuplicateUseCase_Execute_NoMatch(t *testing.T) {
	finder := &mockDuplicateFinder{}

	result, err := NewCheckDuplicateUseCase(finder, newTestLogger()).Execute(context.Background(), CheckDuplicateCommand{
		Category: "waste",
		Lat:      12.97,
		Lng:      77.59,
		Image:    jpegBytes,
	})

	require.NoError(t, err)
	assert.False(t, result.IsDuplicate)
	assert.Empty(t, result.IssueID)
}

func TestCheckDuplicateUseCase_Execute_Validation(t *testing.T) {
	finder := &mockDuplicateFinder{}
	useCase := NewCheckDuplicateUseCase(finder, newTestLogger())

	for _, cmd := range []CheckDuplicateCommand{
		{Category: "roads", Lat: 1, Lng: 1},
		{Category: "noise", Lat: 1, Lng: 1, Image: jpegBytes},
		{Category: "roads", Lat: 1, Lng: 200, Image: jpegBytes},
	} {
		_, err := useCase.Execute(context.Background(), cmd)
		assert.True(t, apperrors.IsValidationError(err))
	}
	assert.Empty(t, finder.queries)
}
