package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go-travel-webapp/internal/logger"
	"go-travel-webapp/internal/models"
	"go-travel-webapp/internal/security"

	"github.com/gin-gonic/gin"
)

// AuditRecorder persists admin actions for the audit trail.
type AuditRecorder interface {
	Record(entry *models.AuditLog)
}

// BruteforceHandler exposes the guard's attempt records to the admin
// back-office: paginated listing plus unblock and delete interventions.
type BruteforceHandler struct {
	guard *security.Guard
	audit AuditRecorder
	log   *logger.StructuredLogger
}

func NewBruteforceHandler(guard *security.Guard, audit AuditRecorder, log *logger.StructuredLogger) *BruteforceHandler {
	return &BruteforceHandler{guard: guard, audit: audit, log: log}
}

// List handles GET /admin/bruteforce?filter=all|blocked|active&page&limit.
func (h *BruteforceHandler) List(c *gin.Context) {
	filter := c.DefaultQuery("filter", "all")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	result, err := h.guard.List(filter, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch login attempts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records":     result.Records,
		"total":       result.Total,
		"total_pages": result.TotalPages,
		"page":        page,
		"limit":       limit,
		"filter":      filter,
	})
}

// Unblock handles POST /admin/bruteforce/:id/unblock. Idempotent: unblocking
// an already-clear record succeeds.
func (h *BruteforceHandler) Unblock(c *gin.Context) {
	id, err := parseAttemptID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid record ID"})
		return
	}

	if err := h.guard.Unblock(id); err != nil {
		if errors.Is(err, security.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unblock record"})
		return
	}

	h.logAdminAction(c, "unblock_attempt", id)
	c.JSON(http.StatusOK, gin.H{"message": "Record unblocked successfully"})
}

// Delete handles DELETE /admin/bruteforce/:id.
func (h *BruteforceHandler) Delete(c *gin.Context) {
	id, err := parseAttemptID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid record ID"})
		return
	}

	if err := h.guard.Delete(id); err != nil {
		if errors.Is(err, security.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete record"})
		return
	}

	h.logAdminAction(c, "delete_attempt", id)
	c.JSON(http.StatusOK, gin.H{"message": "Record deleted successfully"})
}

func (h *BruteforceHandler) logAdminAction(c *gin.Context, action string, id uint) {
	var adminID *uint
	adminName := ""
	if user, exists := GetCurrentUser(c); exists {
		adminID = &user.UserID
		adminName = user.Username
	}

	h.log.LogSecurityEvent(action, "medium", map[string]interface{}{
		"record_id": id,
		"admin":     adminName,
		"ip":        c.ClientIP(),
	})

	h.audit.Record(&models.AuditLog{
		UserID:     adminID,
		Action:     action,
		EntityType: "login_attempt",
		EntityID:   fmt.Sprintf("%d", id),
		IPAddress:  c.ClientIP(),
		UserAgent:  c.GetHeader("User-Agent"),
		Timestamp:  time.Now(),
	})
}

func parseAttemptID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return uint(id), nil
}
