package issue

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "github.com/civiclens/civiclens/internal/domain/issue/valueobjects"
)

func newValidIssue(t *testing.T) *Issue {
	t.Helper()
	loc, err := vo.NewCoordinates(28.6139, 77.2090)
	require.NoError(t, err)
	iss, err := NewIssue(NewIssueParams{
		ReporterID:  "6f1c1e9e-0000-4000-8000-000000000001",
		Category:    vo.CategoryRoads,
		Title:       "Pothole near Connaught Place",
		Location:    loc,
		BeforeImage: "http://media/before.jpg",
	}, time.Now())
	require.NoError(t, err)
	return iss
}

func TestNewIssue_Defaults(t *testing.T) {
	iss := newValidIssue(t)

	assert.NotEmpty(t, iss.ID())
	assert.Equal(t, vo.StatusPending, iss.Status())
	assert.Equal(t, 1, iss.ReportCount())
	assert.Nil(t, iss.AfterImage())
	assert.Nil(t, iss.AIScore())
	assert.True(t, iss.HasBeforeImage())
}

func TestNewIssue_Validation(t *testing.T) {
	loc, _ := vo.NewCoordinates(0, 0)
	tests := []struct {
		name   string
		params NewIssueParams
	}{
		{"empty title", NewIssueParams{ReporterID: "u", Category: vo.CategoryRoads, Title: "  ", Location: loc}},
		{"long title", NewIssueParams{ReporterID: "u", Category: vo.CategoryRoads, Title: strings.Repeat("a", 201), Location: loc}},
		{"bad category", NewIssueParams{ReporterID: "u", Category: "parking", Title: "t", Location: loc}},
		{"no reporter", NewIssueParams{Category: vo.CategoryRoads, Title: "t", Location: loc}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewIssue(tt.params, time.Now())
			assert.Error(t, err)
		})
	}
}

func TestApplyTransition(t *testing.T) {
	iss := newValidIssue(t)
	now := time.Now()

	require.NoError(t, iss.ApplyTransition(vo.StatusAIAnalyzing, TransitionChange{}, now))

	score := 87.5
	require.NoError(t, iss.ApplyTransition(vo.StatusValidated, TransitionChange{AIScore: &score}, now))
	require.NotNil(t, iss.AIScore())
	assert.Equal(t, 87.5, *iss.AIScore())

	after := "http://media/after.jpg"
	require.NoError(t, iss.ApplyTransition(vo.StatusResolved, TransitionChange{AfterImage: &after}, now))
	assert.Equal(t, vo.StatusResolved, iss.Status())
	require.NotNil(t, iss.AfterImage())
	assert.Equal(t, after, *iss.AfterImage())

	err := iss.ApplyTransition(vo.StatusResolved, TransitionChange{}, now)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestApplyTransition_InvalidLeavesStateUntouched(t *testing.T) {
	iss := newValidIssue(t)
	before := iss.UpdatedAt()

	err := iss.ApplyTransition(vo.StatusResolved, TransitionChange{}, time.Now().Add(time.Hour))
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, vo.StatusPending, iss.Status())
	assert.Equal(t, before, iss.UpdatedAt())
}

func TestApplyTransition_AfterImageOnlyWhenResolving(t *testing.T) {
	iss := newValidIssue(t)
	after := "http://media/after.jpg"

	err := iss.ApplyTransition(vo.StatusAIAnalyzing, TransitionChange{AfterImage: &after}, time.Now())
	assert.Error(t, err)
	assert.Nil(t, iss.AfterImage())
}

func TestApplyTransition_RejectsBadScores(t *testing.T) {
	for _, bad := range []float64{-1, 100.5, math.NaN(), math.Inf(1)} {
		iss := newValidIssue(t)
		require.NoError(t, iss.ApplyTransition(vo.StatusAIAnalyzing, TransitionChange{}, time.Now()))

		score := bad
		err := iss.ApplyTransition(vo.StatusValidated, TransitionChange{AIScore: &score}, time.Now())
		assert.Error(t, err, bad)
		assert.Equal(t, vo.StatusAIAnalyzing, iss.Status())
	}
}

func TestRecordMergedReport(t *testing.T) {
	iss := newValidIssue(t)
	iss.RecordMergedReport(time.Now())
	iss.RecordMergedReport(time.Now())
	assert.Equal(t, 3, iss.ReportCount())
	assert.Equal(t, vo.StatusPending, iss.Status())
}

func TestReconstructIssue_Validation(t *testing.T) {
	_, err := ReconstructIssue(ReconstructParams{ID: "x", Status: "closed", ReportCount: 1})
	assert.Error(t, err)

	_, err = ReconstructIssue(ReconstructParams{ID: "x", Status: vo.StatusPending, ReportCount: 0})
	assert.Error(t, err)

	iss, err := ReconstructIssue(ReconstructParams{ID: "x", Status: vo.StatusAssigned, ReportCount: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, iss.ReportCount())
}
