package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "github.com/civiclens/civiclens/internal/domain/issue/valueobjects"
)

func entry(id uint64, action Action, prev *vo.IssueStatus, next vo.IssueStatus, ts time.Time) *Entry {
	return ReconstructEntry(id, "issue-1", action, prev, next, nil, nil, ts)
}

func TestValidateChain_ValidLifecycle(t *testing.T) {
	base := time.UnixMilli(1_700_000_000_000)
	entries := []*Entry{
		entry(1, ActionIssueCreated, nil, vo.StatusPending, base),
		entry(2, ActionEvidenceUploaded, vo.StatusPending.Ptr(), vo.StatusPending, base.Add(time.Second)),
		entry(3, ActionStatusChange, vo.StatusPending.Ptr(), vo.StatusAIAnalyzing, base.Add(2*time.Second)),
		entry(4, ActionAIAnalysis, vo.StatusAIAnalyzing.Ptr(), vo.StatusValidated, base.Add(3*time.Second)),
		entry(5, ActionStatusChange, vo.StatusValidated.Ptr(), vo.StatusResolved, base.Add(4*time.Second)),
	}

	assert.NoError(t, ValidateChain(entries))
}

func TestValidateChain_EqualTimestampsUseID(t *testing.T) {
	ts := time.UnixMilli(1_700_000_000_000)
	entries := []*Entry{
		entry(8, ActionAIAnalysis, vo.StatusAIAnalyzing.Ptr(), vo.StatusValidated, ts),
		entry(7, ActionStatusChange, vo.StatusPending.Ptr(), vo.StatusAIAnalyzing, ts),
		entry(6, ActionIssueCreated, nil, vo.StatusPending, ts),
	}

	require.NoError(t, ValidateChain(entries))
	assert.Equal(t, uint64(8), entries[0].ID(), "input slice must not be reordered")
}

func TestValidateChain_Broken(t *testing.T) {
	base := time.UnixMilli(1_700_000_000_000)
	tests := []struct {
		name      string
		entries   []*Entry
		wantIndex int
	}{
		{
			name: "first entry has previous status",
			entries: []*Entry{
				entry(1, ActionStatusChange, vo.StatusPending.Ptr(), vo.StatusAIAnalyzing, base),
			},
			wantIndex: 0,
		},
		{
			name: "gap in chain",
			entries: []*Entry{
				entry(1, ActionIssueCreated, nil, vo.StatusPending, base),
				entry(2, ActionAIAnalysis, vo.StatusAIAnalyzing.Ptr(), vo.StatusValidated, base.Add(time.Second)),
			},
			wantIndex: 1,
		},
		{
			name: "illegal transition",
			entries: []*Entry{
				entry(1, ActionIssueCreated, nil, vo.StatusPending, base),
				entry(2, ActionStatusChange, vo.StatusPending.Ptr(), vo.StatusResolved, base.Add(time.Second)),
			},
			wantIndex: 1,
		},
		{
			name: "evidence entry changes status",
			entries: []*Entry{
				entry(1, ActionIssueCreated, nil, vo.StatusPending, base),
				entry(2, ActionEvidenceUploaded, vo.StatusPending.Ptr(), vo.StatusAIAnalyzing, base.Add(time.Second)),
			},
			wantIndex: 1,
		},
		{
			name: "missing previous status mid chain",
			entries: []*Entry{
				entry(1, ActionIssueCreated, nil, vo.StatusPending, base),
				entry(2, ActionStatusChange, nil, vo.StatusAIAnalyzing, base.Add(time.Second)),
			},
			wantIndex: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChain(tt.entries)
			var chainErr *ChainError
			require.True(t, errors.As(err, &chainErr), "got %v", err)
			assert.Equal(t, tt.wantIndex, chainErr.Index)
		})
	}
}

func TestValidateChain_Empty(t *testing.T) {
	assert.NoError(t, ValidateChain(nil))
}

func TestNewEntry(t *testing.T) {
	now := time.Now()

	_, err := NewEntry("issue-1", ActionIssueCreated, vo.StatusPending.Ptr(), vo.StatusPending, nil, nil, now)
	assert.Error(t, err)

	_, err = NewEntry("", ActionStatusChange, nil, vo.StatusPending, nil, nil, now)
	assert.Error(t, err)

	_, err = NewEntry("issue-1", "DELETED", nil, vo.StatusPending, nil, nil, now)
	assert.Error(t, err)

	meta := map[string]any{"triggered_by": "AI_PIPELINE"}
	e, err := NewEntry("issue-1", ActionStatusChange, vo.StatusPending.Ptr(), vo.StatusAIAnalyzing, nil, meta, now)
	require.NoError(t, err)
	meta["triggered_by"] = "tampered"
	assert.Equal(t, "AI_PIPELINE", e.Metadata()["triggered_by"])

	require.NoError(t, e.AssignID(9))
	assert.Error(t, e.AssignID(10))
}
