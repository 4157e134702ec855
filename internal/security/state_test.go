package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-travel-webapp/internal/models"
)

func TestClassify(t *testing.T) {
	now := time.Now()
	future := now.Add(10 * time.Minute)
	past := now.Add(-10 * time.Minute)

	tests := []struct {
		name string
		rec  *models.LoginAttempt
		want State
	}{
		{"nil record", nil, StateClear},
		{"fresh record", &models.LoginAttempt{}, StateClear},
		{"one failure", &models.LoginAttempt{AttemptCount: 1}, StateWarning},
		{"active block", &models.LoginAttempt{AttemptCount: 3, IsBlocked: true, BlockedUntil: &future}, StateBlocked},
		{"expired block", &models.LoginAttempt{AttemptCount: 3, IsBlocked: true, BlockedUntil: &past}, StateExpiredBlock},
		{"blocked without deadline", &models.LoginAttempt{IsBlocked: true}, StateExpiredBlock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.rec, now))
		})
	}
}

func TestApplyFailureBlocksAtThreshold(t *testing.T) {
	now := time.Now()
	rec := &models.LoginAttempt{}

	ApplyFailure(rec, testMeta, 3, 15*time.Minute, now)
	ApplyFailure(rec, testMeta, 3, 15*time.Minute, now)
	assert.Equal(t, 2, rec.AttemptCount)
	assert.False(t, rec.IsBlocked)

	ApplyFailure(rec, testMeta, 3, 15*time.Minute, now)
	assert.Equal(t, 3, rec.AttemptCount)
	assert.True(t, rec.IsBlocked)
	require.NotNil(t, rec.BlockedUntil)
	assert.Equal(t, now.Add(15*time.Minute), *rec.BlockedUntil)
}

func TestApplyFailureReconcilesExpiredBlock(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	rec := &models.LoginAttempt{AttemptCount: 7, IsBlocked: true, BlockedUntil: &past}

	ApplyFailure(rec, testMeta, 3, 15*time.Minute, now)

	assert.Equal(t, 1, rec.AttemptCount)
	assert.False(t, rec.IsBlocked)
	assert.Nil(t, rec.BlockedUntil)
}

func TestApplyFailureRecordsMetadata(t *testing.T) {
	now := time.Now()
	rec := &models.LoginAttempt{}

	ApplyFailure(rec, testMeta, 3, 15*time.Minute, now)

	assert.Equal(t, testMeta.IP, rec.IP)
	assert.Equal(t, testMeta.UserAgent, rec.UserAgentRaw)
	assert.Equal(t, now, rec.LastAttempt)
	require.NotNil(t, rec.Browser)
	assert.Equal(t, "Chrome", *rec.Browser)
	assert.JSONEq(t, `{"Accept-Language":"en-US"}`, string(rec.ExtraHeaders))
}

func TestApplySuccessResetsEverything(t *testing.T) {
	now := time.Now()
	until := now.Add(5 * time.Minute)
	rec := &models.LoginAttempt{AttemptCount: 3, IsBlocked: true, BlockedUntil: &until}

	ApplySuccess(rec, testMeta, now)

	assert.Equal(t, 0, rec.AttemptCount)
	assert.False(t, rec.IsBlocked)
	assert.Nil(t, rec.BlockedUntil)
	assert.Equal(t, now, rec.LastAttempt)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "clear", StateClear.String())
	assert.Equal(t, "warning", StateWarning.String())
	assert.Equal(t, "blocked", StateBlocked.String())
	assert.Equal(t, "expired_block", StateExpiredBlock.String())
	assert.Equal(t, "unknown", State(99).String())
}
