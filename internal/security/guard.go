package security

import (
	"log"
	"math"
	"time"

	"go-travel-webapp/internal/config"
	"go-travel-webapp/internal/models"
)

// Store is the persistence contract the guard runs against. Implementations
// must make IncrementFailure atomic per fingerprint: concurrent calls for the
// same fingerprint may not lose increments.
type Store interface {
	// Find returns the record for a fingerprint, ErrNotFound when absent.
	Find(fingerprint string) (*models.LoginAttempt, error)
	// IncrementFailure applies ApplyFailure inside one atomic read-modify-write,
	// creating the row lazily on first failure.
	IncrementFailure(fingerprint string, meta Metadata, threshold int, lockout time.Duration, now time.Time) (*models.LoginAttempt, error)
	// RecordSuccess applies ApplySuccess, creating the row if needed.
	RecordSuccess(fingerprint string, meta Metadata, now time.Time) error
	// List returns records matching filter (all, blocked, active) ordered by
	// last attempt descending, plus the unpaginated total.
	List(filter string, limit, offset int) ([]models.LoginAttempt, int64, error)
	// Unblock clears counters and block state. ErrNotFound when absent.
	Unblock(id uint) error
	// Delete removes the record. ErrNotFound when absent.
	Delete(id uint) error
}

// CheckResult is the guard's answer for one authentication attempt.
type CheckResult struct {
	Blocked          bool `json:"blocked"`
	RemainingSeconds int  `json:"remaining_seconds"`
}

// ListResult is a page of attempt records for the admin back-office.
type ListResult struct {
	Records    []models.LoginAttempt `json:"records"`
	Total      int64                 `json:"total"`
	TotalPages int                   `json:"total_pages"`
}

// Guard decides whether authentication attempts are allowed and records their
// outcomes. Stateless apart from the store: every decision hits the
// authoritative record, so multiple server instances stay in agreement.
type Guard struct {
	store     Store
	threshold int
	lockout   time.Duration
	now       func() time.Time
}

func NewGuard(store Store, cfg *config.SecurityConfig) *Guard {
	threshold := cfg.MaxLoginAttempts
	if threshold < 1 {
		threshold = 3
	}
	lockout := time.Duration(cfg.LockoutDuration) * time.Second
	if lockout <= 0 {
		lockout = 15 * time.Minute
	}

	return &Guard{
		store:     store,
		threshold: threshold,
		lockout:   lockout,
		now:       time.Now,
	}
}

// Threshold returns the configured consecutive-failure limit.
func (g *Guard) Threshold() int {
	return g.threshold
}

// Check reports whether the client behind fingerprint is currently locked
// out. A missing record is permissive. An expired block reads as clear but is
// not written back here; reconciliation is persisted by the next write so
// Check stays read-only. Store errors propagate: fail closed, never report
// "not blocked" on the strength of an unreachable store.
func (g *Guard) Check(fingerprint string) (CheckResult, error) {
	rec, err := g.store.Find(fingerprint)
	if err == ErrNotFound {
		return CheckResult{}, nil
	}
	if err != nil {
		return CheckResult{}, err
	}

	if Classify(rec, g.now()) == StateBlocked {
		remaining := int(math.Ceil(rec.BlockedUntil.Sub(g.now()).Seconds()))
		if remaining < 1 {
			remaining = 1
		}
		return CheckResult{Blocked: true, RemainingSeconds: remaining}, nil
	}

	return CheckResult{}, nil
}

// RecordFailure counts one failed attempt and engages the lockout once the
// threshold is reached. Wrong-privilege attempts with valid credentials are
// counted the same as wrong passwords; privilege probing burns attempts too.
func (g *Guard) RecordFailure(fingerprint string, meta Metadata) error {
	rec, err := g.store.IncrementFailure(fingerprint, meta, g.threshold, g.lockout, g.now())
	if err != nil {
		return err
	}

	if rec.IsBlocked {
		log.Printf("bruteforce: fingerprint %.12s blocked after %d failures (ip=%s)", fingerprint, rec.AttemptCount, meta.IP)
	}
	return nil
}

// RecordSuccess resets the record after a successful login.
func (g *Guard) RecordSuccess(fingerprint string, meta Metadata) error {
	return g.store.RecordSuccess(fingerprint, meta, g.now())
}

// List returns a page of attempt records for the admin back-office.
// Filter is one of all, blocked, active; anything else reads as all.
func (g *Guard) List(filter string, page, limit int) (ListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	records, total, err := g.store.List(filter, limit, (page-1)*limit)
	if err != nil {
		return ListResult{}, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return ListResult{Records: records, Total: total, TotalPages: totalPages}, nil
}

// Unblock clears the lockout and counters for a record. Idempotent.
func (g *Guard) Unblock(id uint) error {
	return g.store.Unblock(id)
}

// Delete removes a record entirely.
func (g *Guard) Delete(id uint) error {
	return g.store.Delete(id)
}
