package handlers

import (
	"net/http"
	"time"

	"go-travel-webapp/internal/models"
	"go-travel-webapp/internal/repository"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	db       *repository.Database
	bookings *repository.BookingRepository
}

func NewDashboardHandler(db *repository.Database, bookings *repository.BookingRepository) *DashboardHandler {
	return &DashboardHandler{db: db, bookings: bookings}
}

// Stats aggregates the numbers shown on the admin dashboard.
func (h *DashboardHandler) Stats(c *gin.Context) {
	var userCount, bookingCount, blockedCount, unreadMessages int64

	h.db.Model(&models.User{}).Where("is_active = ?", true).Count(&userCount)
	h.db.Model(&models.Booking{}).Count(&bookingCount)
	h.db.Model(&models.LoginAttempt{}).Where("is_blocked = ?", true).Count(&blockedCount)
	h.db.Model(&models.ContactMessage{}).Where("is_read = ?", false).Count(&unreadMessages)

	bookingsByStatus, err := h.bookings.CountByStatus()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate bookings"})
		return
	}

	var recentBookings []models.Booking
	h.db.Preload("User").Order("created_at DESC").Limit(10).Find(&recentBookings)

	var revenue float64
	h.db.Model(&models.Booking{}).
		Where("status = ? AND created_at >= ?", "confirmed", time.Now().AddDate(0, -1, 0)).
		Select("COALESCE(SUM(price), 0)").
		Scan(&revenue)

	c.JSON(http.StatusOK, gin.H{
		"active_users":       userCount,
		"total_bookings":     bookingCount,
		"blocked_clients":    blockedCount,
		"unread_messages":    unreadMessages,
		"bookings_by_status": bookingsByStatus,
		"recent_bookings":    recentBookings,
		"revenue_30d":        revenue,
	})
}
