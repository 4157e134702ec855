package handlers

import (
	"net/http"
	"strconv"
	"time"

	"go-travel-webapp/internal/models"
	"go-travel-webapp/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

type ProfileHandler struct {
	db    *repository.Database
	users *repository.UserRepository
}

func NewProfileHandler(db *repository.Database, users *repository.UserRepository) *ProfileHandler {
	return &ProfileHandler{db: db, users: users}
}

// GetProfile returns the current user's profile.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	user, exists := GetCurrentUser(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": sanitizeUser(user)})
}

// UpdateProfile updates name, email and optionally the password.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	user, exists := GetCurrentUser(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var profileData struct {
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Password  string `json:"password"`
	}
	if err := c.ShouldBindJSON(&profileData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if profileData.Email != "" {
		user.Email = profileData.Email
	}
	user.FirstName = profileData.FirstName
	user.LastName = profileData.LastName
	user.UpdatedAt = time.Now()

	if profileData.Password != "" {
		if len(profileData.Password) < 8 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 8 characters"})
			return
		}
		hashedPassword, err := HashPassword(profileData.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
			return
		}
		user.PasswordHash = hashedPassword
	}

	if err := h.users.Update(user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": sanitizeUser(user)})
}

// ListPaymentMethods returns the user's saved payment methods.
func (h *ProfileHandler) ListPaymentMethods(c *gin.Context) {
	user, exists := GetCurrentUser(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var methods []models.PaymentMethod
	if err := h.db.Where("userID = ?", user.UserID).Order("is_default DESC, created_at DESC").Find(&methods).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payment methods"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment_methods": methods})
}

// AddPaymentMethod stores a tokenized payment method. Raw card numbers are
// never accepted; the details blob holds whatever the payment provider
// returned and is typed at this boundary only.
func (h *ProfileHandler) AddPaymentMethod(c *gin.Context) {
	user, exists := GetCurrentUser(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var methodData struct {
		Label       string         `json:"label" binding:"required"`
		Provider    string         `json:"provider"`
		LastFour    *string        `json:"last_four"`
		ExpiryMonth *int           `json:"expiry_month"`
		ExpiryYear  *int           `json:"expiry_year"`
		IsDefault   bool           `json:"is_default"`
		Details     datatypes.JSON `json:"details"`
	}
	if err := c.ShouldBindJSON(&methodData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	method := models.PaymentMethod{
		UserID:      user.UserID,
		Label:       methodData.Label,
		Provider:    methodData.Provider,
		LastFour:    methodData.LastFour,
		ExpiryMonth: methodData.ExpiryMonth,
		ExpiryYear:  methodData.ExpiryYear,
		IsDefault:   methodData.IsDefault,
		Details:     methodData.Details,
		CreatedAt:   time.Now(),
	}

	if method.IsDefault {
		h.db.Model(&models.PaymentMethod{}).Where("userID = ?", user.UserID).Update("is_default", false)
	}

	if err := h.db.Create(&method).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save payment method"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"payment_method": method})
}

// DeletePaymentMethod removes one of the user's payment methods.
func (h *ProfileHandler) DeletePaymentMethod(c *gin.Context) {
	user, exists := GetCurrentUser(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment method ID"})
		return
	}

	result := h.db.Where("paymentMethodID = ? AND userID = ?", id, user.UserID).Delete(&models.PaymentMethod{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete payment method"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment method not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Payment method deleted"})
}
