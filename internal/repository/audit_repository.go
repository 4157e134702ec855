package repository

import (
	"log"

	"go-travel-webapp/internal/models"
)

type AuditRepository struct {
	db *Database
}

func NewAuditRepository(db *Database) *AuditRepository {
	return &AuditRepository{db: db}
}

// Record persists an audit entry. Errors are logged, never propagated: an
// audit write must not break the admin operation it describes.
func (r *AuditRepository) Record(entry *models.AuditLog) {
	if err := r.db.Create(entry).Error; err != nil {
		log.Printf("ERROR: failed to write audit log entry (%s %s/%s): %v", entry.Action, entry.EntityType, entry.EntityID, err)
	}
}
