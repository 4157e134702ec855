package repository

import (
	"encoding/json"
	"errors"

	"go-travel-webapp/internal/models"

	"gorm.io/gorm"
)

type TwoFactorRepository struct {
	db *Database
}

func NewTwoFactorRepository(db *Database) *TwoFactorRepository {
	return &TwoFactorRepository{db: db}
}

// Get returns the 2FA record for a user, nil when none is configured.
func (r *TwoFactorRepository) Get(userID uint) (*models.TwoFactorSecret, error) {
	var secret models.TwoFactorSecret
	err := r.db.Where("user_id = ?", userID).First(&secret).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &secret, nil
}

// ConsumeBackupCode removes a matching backup code and reports whether one matched.
func (r *TwoFactorRepository) ConsumeBackupCode(userID uint, code string) (bool, error) {
	secret, err := r.Get(userID)
	if err != nil || secret == nil || secret.BackupCodes == "" {
		return false, err
	}

	var codes []string
	if err := json.Unmarshal([]byte(secret.BackupCodes), &codes); err != nil {
		return false, nil
	}

	for i, backupCode := range codes {
		if backupCode == code {
			codes = append(codes[:i], codes[i+1:]...)
			remaining, _ := json.Marshal(codes)
			err := r.db.Model(&models.TwoFactorSecret{}).
				Where("user_id = ?", userID).
				Update("backup_codes", string(remaining)).Error
			return true, err
		}
	}
	return false, nil
}
