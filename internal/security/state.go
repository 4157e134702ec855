package security

import (
	"encoding/json"
	"time"

	"go-travel-webapp/internal/models"
)

// State is the guard's view of an attempt record at a point in time.
// Persisted as (attempt_count, is_blocked, blocked_until); classified here so
// every decision path shares one pure function of record plus clock.
type State int

const (
	// StateClear means no failures are being held against the client.
	StateClear State = iota
	// StateWarning means failures were recorded but the threshold is not reached.
	StateWarning
	// StateBlocked means a lockout is in effect.
	StateBlocked
	// StateExpiredBlock means a lockout was persisted but its window has
	// passed. Transient: reconciled to clear by the next write.
	StateExpiredBlock
)

func (s State) String() string {
	switch s {
	case StateClear:
		return "clear"
	case StateWarning:
		return "warning"
	case StateBlocked:
		return "blocked"
	case StateExpiredBlock:
		return "expired_block"
	default:
		return "unknown"
	}
}

// Classify returns the state of rec at time now. A nil record is clear.
func Classify(rec *models.LoginAttempt, now time.Time) State {
	if rec == nil {
		return StateClear
	}
	if rec.IsBlocked {
		if rec.BlockedUntil != nil && rec.BlockedUntil.After(now) {
			return StateBlocked
		}
		return StateExpiredBlock
	}
	if rec.AttemptCount >= 1 {
		return StateWarning
	}
	return StateClear
}

// ApplyFailure mutates rec for one recorded failure. Expired blocks are
// reconciled before counting so a stale lockout never inflates the counter.
// Store implementations must call this inside their atomic read-modify-write.
func ApplyFailure(rec *models.LoginAttempt, meta Metadata, threshold int, lockout time.Duration, now time.Time) {
	if Classify(rec, now) == StateExpiredBlock {
		rec.AttemptCount = 0
		rec.IsBlocked = false
		rec.BlockedUntil = nil
	}

	rec.AttemptCount++
	applyMetadata(rec, meta, now)

	if rec.AttemptCount >= threshold {
		until := now.Add(lockout)
		rec.IsBlocked = true
		rec.BlockedUntil = &until
	}
}

// ApplySuccess resets rec after a successful login, regardless of prior state.
func ApplySuccess(rec *models.LoginAttempt, meta Metadata, now time.Time) {
	rec.AttemptCount = 0
	rec.IsBlocked = false
	rec.BlockedUntil = nil
	applyMetadata(rec, meta, now)
}

func applyMetadata(rec *models.LoginAttempt, meta Metadata, now time.Time) {
	rec.IP = meta.IP
	rec.UserAgentRaw = meta.UserAgent
	rec.Browser, rec.OS, rec.Device = ParseUserAgent(meta.UserAgent)
	rec.LastAttempt = now

	// Retained for admin display only, never consulted by decision logic.
	if len(meta.Headers) > 0 {
		if blob, err := json.Marshal(meta.Headers); err == nil {
			rec.ExtraHeaders = blob
		}
	}
}
