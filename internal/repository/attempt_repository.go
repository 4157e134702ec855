package repository

import (
	"errors"
	"fmt"
	"time"

	"go-travel-webapp/internal/models"
	"go-travel-webapp/internal/security"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AttemptRepository is the GORM-backed store behind the bruteforce guard.
// It owns the read-modify-write contract: failure increments run inside one
// transaction holding a row lock, so concurrent failures for the same
// fingerprint serialize and none are lost.
type AttemptRepository struct {
	db *Database
}

func NewAttemptRepository(db *Database) *AttemptRepository {
	return &AttemptRepository{db: db}
}

func (r *AttemptRepository) Find(fingerprint string) (*models.LoginAttempt, error) {
	var attempt models.LoginAttempt
	err := r.db.Where("fingerprint = ?", fingerprint).First(&attempt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, security.ErrNotFound
	}
	if err != nil {
		return nil, storeError(err)
	}
	return &attempt, nil
}

// IncrementFailure counts one failure for the fingerprint and engages the
// block once the post-increment count reaches the threshold. The row is
// locked FOR UPDATE for the duration of the transaction.
func (r *AttemptRepository) IncrementFailure(fingerprint string, meta security.Metadata, threshold int, lockout time.Duration, now time.Time) (*models.LoginAttempt, error) {
	var attempt models.LoginAttempt

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := r.ensureRow(tx, fingerprint, now); err != nil {
			return err
		}

		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("fingerprint = ?", fingerprint).
			First(&attempt).Error
		if err != nil {
			return err
		}

		security.ApplyFailure(&attempt, meta, threshold, lockout, now)
		return tx.Save(&attempt).Error
	})
	if err != nil {
		return nil, storeError(err)
	}

	return &attempt, nil
}

// ensureRow upserts an empty record so the SELECT ... FOR UPDATE that follows
// always has a real row to lock. Locking a missing row only takes a gap lock,
// and gap locks are compatible: two concurrent first failures would both read
// "absent" and then collide on the unique fingerprint index at insert time,
// dropping one increment. INSERT ... ON DUPLICATE KEY makes creation atomic.
func (r *AttemptRepository) ensureRow(tx *gorm.DB, fingerprint string, now time.Time) error {
	seed := models.LoginAttempt{Fingerprint: fingerprint, LastAttempt: now, CreatedAt: now}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "fingerprint"}},
		DoNothing: true,
	}).Create(&seed).Error
}

func (r *AttemptRepository) RecordSuccess(fingerprint string, meta security.Metadata, now time.Time) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := r.ensureRow(tx, fingerprint, now); err != nil {
			return err
		}

		var attempt models.LoginAttempt
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("fingerprint = ?", fingerprint).
			First(&attempt).Error
		if err != nil {
			return err
		}

		security.ApplySuccess(&attempt, meta, now)
		return tx.Save(&attempt).Error
	})
	return storeError(err)
}

func (r *AttemptRepository) List(filter string, limit, offset int) ([]models.LoginAttempt, int64, error) {
	var attempts []models.LoginAttempt
	var total int64

	query := r.db.Model(&models.LoginAttempt{})
	switch filter {
	case "blocked":
		query = query.Where("is_blocked = ?", true)
	case "active":
		query = query.Where("is_blocked = ?", false)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, storeError(err)
	}

	err := query.Order("last_attempt DESC").Limit(limit).Offset(offset).Find(&attempts).Error
	if err != nil {
		return nil, 0, storeError(err)
	}

	return attempts, total, nil
}

func (r *AttemptRepository) Unblock(id uint) error {
	result := r.db.Model(&models.LoginAttempt{}).
		Where("attemptID = ?", id).
		Updates(map[string]interface{}{
			"attempt_count": 0,
			"is_blocked":    false,
			"blocked_until": nil,
		})
	if result.Error != nil {
		return storeError(result.Error)
	}
	if result.RowsAffected == 0 {
		// Updates of an already-clear record still affect the row on MySQL
		// only when values change, so confirm existence before reporting 404.
		var count int64
		if err := r.db.Model(&models.LoginAttempt{}).Where("attemptID = ?", id).Count(&count).Error; err != nil {
			return storeError(err)
		}
		if count == 0 {
			return security.ErrNotFound
		}
	}
	return nil
}

func (r *AttemptRepository) Delete(id uint) error {
	result := r.db.Where("attemptID = ?", id).Delete(&models.LoginAttempt{})
	if result.Error != nil {
		return storeError(result.Error)
	}
	if result.RowsAffected == 0 {
		return security.ErrNotFound
	}
	return nil
}

// storeError translates driver-level failures into the guard's taxonomy so
// callers never see raw MySQL errors.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return security.ErrNotFound
	}
	return fmt.Errorf("%w: %v", security.ErrStoreUnavailable, err)
}
