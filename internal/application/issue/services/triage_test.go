package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "github.com/civiclens/civiclens/internal/domain/issue/valueobjects"
	"github.com/civiclens/civiclens/internal/domain/ledger"
	"github.com/civiclens/civiclens/internal/infrastructure/metrics"
	"github.com/civiclens/civiclens/internal/infrastructure/oracle"
)

func newPipeline(f *fixture, m *metrics.Metrics) *TriagePipeline {
	return NewTriagePipeline(f.sm, f.issues, f.fetcher, f.gateway, m, newTestLogger())
}

func TestTriagePipeline_ScoresPendingIssue(t *testing.T) {
	iss := newPendingIssue(t)
	f := newFixture(iss)
	f.oracle.GenerateFunc = func(ctx context.Context, req oracle.Request) (string, error) {
		return `{"verified": true, "confidence_score": 88, "summary": "Deep pothole in lane.", "severity": "high"}`, nil
	}

	out, err := newPipeline(f, nil).Triage(context.Background(), iss.ID())

	require.NoError(t, err)
	assert.False(t, out.Skipped)
	assert.Equal(t, 88.0, out.Score)
	assert.Equal(t, "high", out.Severity)

	stored, _ := f.issues.GetByID(context.Background(), iss.ID())
	assert.Equal(t, vo.StatusValidated, stored.Status())
	require.NotNil(t, stored.AIScore())
	assert.Equal(t, 88.0, *stored.AIScore())

	require.Len(t, f.ledger.entries, 2)
	first, second := f.ledger.entries[0], f.ledger.entries[1]
	assert.Equal(t, ledger.ActionStatusChange, first.Action())
	assert.Equal(t, vo.StatusAIAnalyzing, first.NewStatus())
	assert.Nil(t, first.ActorID())
	assert.Equal(t, "AI_PIPELINE", first.Metadata()["triggered_by"])
	assert.Equal(t, ledger.ActionAIAnalysis, second.Action())
	assert.Equal(t, vo.StatusValidated, second.NewStatus())
	assert.Equal(t, "gemini-test", second.Metadata()["model"])
	assert.Equal(t, "Deep pothole in lane.", second.Metadata()["summary"])

	require.Len(t, f.oracle.requests, 1)
	assert.True(t, f.oracle.requests[0].JSONResponse)
	assert.Equal(t, 0.1, f.oracle.requests[0].Temperature)
}

func TestTriagePipeline_IsIdempotent(t *testing.T) {
	iss := newPendingIssue(t)
	f := newFixture(iss)
	f.oracle.GenerateFunc = func(ctx context.Context, req oracle.Request) (string, error) {
		return `{"confidence_score": 40}`, nil
	}
	p := newPipeline(f, nil)
	ctx := context.Background()

	_, err := p.Triage(ctx, iss.ID())
	require.NoError(t, err)
	entriesAfterFirst := len(f.ledger.entries)

	out, err := p.Triage(ctx, iss.ID())
	require.NoError(t, err)
	assert.True(t, out.Skipped)
	assert.Equal(t, vo.StatusValidated, out.Status)
	assert.Len(t, f.ledger.entries, entriesAfterFirst)
	assert.Len(t, f.oracle.requests, 1)
}

func TestTriagePipeline_ResumesFromAIAnalyzing(t *testing.T) {
	iss := newPendingIssue(t)
	f := newFixture(iss)
	f.issues.set(t, iss.ID(), vo.StatusAIAnalyzing)

	out, err := newPipeline(f, nil).Triage(context.Background(), iss.ID())

	require.NoError(t, err)
	assert.Equal(t, vo.StatusValidated, out.Status)
	require.Len(t, f.ledger.entries, 1)
	assert.Equal(t, ledger.ActionAIAnalysis, f.ledger.entries[0].Action())
}

func TestTriagePipeline_NoImage(t *testing.T) {
	iss := newPendingIssue(t, withoutImage)
	f := newFixture(iss)

	out, err := newPipeline(f, nil).Triage(context.Background(), iss.ID())

	require.NoError(t, err)
	assert.Equal(t, 0.0, out.Score)
	assert.Equal(t, "No image provided for analysis.", out.Summary)
	assert.False(t, out.ManualReview)
	assert.Empty(t, f.oracle.requests)
}

func TestTriagePipeline_OracleFailureFlagsManualReview(t *testing.T) {
	failures := map[string]func(f *fixture){
		"oracle error": func(f *fixture) {
			f.oracle.GenerateFunc = func(ctx context.Context, req oracle.Request) (string, error) {
				return "", errors.New("503 from upstream")
			}
		},
		"unparseable reply": func(f *fixture) {
			f.oracle.GenerateFunc = func(ctx context.Context, req oracle.Request) (string, error) {
				return "I think it is a pothole", nil
			}
		},
		"score out of range": func(f *fixture) {
			f.oracle.GenerateFunc = func(ctx context.Context, req oracle.Request) (string, error) {
				return `{"confidence_score": 250}`, nil
			}
		},
		"not configured": func(f *fixture) {
			f.gateway = NewOracleGateway(oracle.Disabled{}, 0, nil)
		},
	}

	for name, setup := range failures {
		t.Run(name, func(t *testing.T) {
			iss := newPendingIssue(t)
			f := newFixture(iss)
			setup(f)
			m := metrics.New()

			out, err := newPipeline(f, m).Triage(context.Background(), iss.ID())

			require.NoError(t, err)
			assert.True(t, out.ManualReview)
			assert.Equal(t, 0.0, out.Score)
			assert.Equal(t, "AI analysis failed — manual review required.", out.Summary)

			stored, _ := f.issues.GetByID(context.Background(), iss.ID())
			assert.Equal(t, vo.StatusValidated, stored.Status())
			last := f.ledger.entries[len(f.ledger.entries)-1]
			assert.Equal(t, true, last.Metadata()["manual_review"])
			assert.Equal(t, 1.0, counterValue(t, m, "civiclens_triage_outcomes_total", "outcome", "manual_review"))
		})
	}
}

func TestTriagePipeline_RunDropsUnknownIssue(t *testing.T) {
	f := newFixture()

	assert.NoError(t, newPipeline(f, nil).Run(context.Background(), "nope"))
}

func TestTriagePipeline_SkipsTerminalIssue(t *testing.T) {
	iss := newPendingIssue(t)
	f := newFixture(iss)
	f.issues.set(t, iss.ID(), vo.StatusRejected)

	out, err := newPipeline(f, nil).Triage(context.Background(), iss.ID())

	require.NoError(t, err)
	assert.True(t, out.Skipped)
	assert.Empty(t, f.ledger.entries)
}
