package handlers

import (
	"log"
	"net/http"
	"time"

	"go-travel-webapp/internal/models"
	"go-travel-webapp/internal/repository"
	"go-travel-webapp/internal/services"

	"github.com/gin-gonic/gin"
)

type ContactHandler struct {
	db    *repository.Database
	email *services.EmailService
}

func NewContactHandler(db *repository.Database, email *services.EmailService) *ContactHandler {
	return &ContactHandler{db: db, email: email}
}

// Submit stores a contact form message and acknowledges it by mail.
func (h *ContactHandler) Submit(c *gin.Context) {
	var messageData struct {
		Name    string `json:"name" binding:"required"`
		Email   string `json:"email" binding:"required,email"`
		Subject string `json:"subject"`
		Body    string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&messageData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name, email and message are required"})
		return
	}

	message := models.ContactMessage{
		Name:      messageData.Name,
		Email:     messageData.Email,
		Subject:   messageData.Subject,
		Body:      messageData.Body,
		CreatedAt: time.Now(),
	}

	if err := h.db.Create(&message).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save message"})
		return
	}

	go func(message models.ContactMessage) {
		if err := h.email.SendContactAcknowledgement(&message); err != nil {
			log.Printf("DEBUG: contact acknowledgement mail failed: %v", err)
		}
	}(message)

	c.JSON(http.StatusCreated, gin.H{"message": "Thanks, we received your message"})
}

// AdminList returns contact messages for the back-office, unread first.
func (h *ContactHandler) AdminList(c *gin.Context) {
	var messages []models.ContactMessage
	if err := h.db.Order("is_read ASC, created_at DESC").Limit(200).Find(&messages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages, "total": len(messages)})
}

// AdminMarkRead flags a message as handled.
func (h *ContactHandler) AdminMarkRead(c *gin.Context) {
	result := h.db.Model(&models.ContactMessage{}).Where("messageID = ?", c.Param("id")).Update("is_read", true)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update message"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Marked as read"})
}
