package reputation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGrant(t *testing.T) {
	now := time.Now()

	g, err := NewGrant("user-1", "issue-1", ReasonVerifiedResolution, 50, now)
	require.NoError(t, err)
	assert.Equal(t, int64(50), g.Amount)
	assert.Equal(t, ReasonVerifiedResolution, g.Reason)

	_, err = NewGrant("", "issue-1", ReasonVerifiedResolution, 50, now)
	assert.Error(t, err)
	_, err = NewGrant("user-1", "", ReasonVerifiedResolution, 50, now)
	assert.Error(t, err)
	_, err = NewGrant("user-1", "issue-1", ReasonVerifiedResolution, 0, now)
	assert.Error(t, err)
}
