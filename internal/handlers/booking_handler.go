package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go-travel-webapp/internal/models"
	"go-travel-webapp/internal/repository"
	"go-travel-webapp/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingHandler struct {
	bookings *repository.BookingRepository
	pdf      *services.PDFService
	qr       *services.QRCodeService
	email    *services.EmailService
}

func NewBookingHandler(bookings *repository.BookingRepository, pdf *services.PDFService, qr *services.QRCodeService, email *services.EmailService) *BookingHandler {
	return &BookingHandler{bookings: bookings, pdf: pdf, qr: qr, email: email}
}

// List returns the current user's bookings, filtered and paginated.
func (h *BookingHandler) List(c *gin.Context) {
	user, exists := GetCurrentUser(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var params models.FilterParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}
	params.Normalize()

	bookings, err := h.bookings.ListForUser(user.UserID, &params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bookings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": bookings, "total": len(bookings)})
}

// Create registers a new booking for the current user.
func (h *BookingHandler) Create(c *gin.Context) {
	user, exists := GetCurrentUser(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var bookingData struct {
		Kind        string     `json:"kind" binding:"required"`
		Title       string     `json:"title" binding:"required"`
		Origin      *string    `json:"origin"`
		Destination *string    `json:"destination"`
		StartDate   *time.Time `json:"start_date"`
		EndDate     *time.Time `json:"end_date"`
		Travelers   int        `json:"travelers"`
		Price       float64    `json:"price"`
		Currency    string     `json:"currency"`
		Notes       *string    `json:"notes"`
	}
	if err := c.ShouldBindJSON(&bookingData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch bookingData.Kind {
	case "flight", "hotel", "activity":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Kind must be flight, hotel or activity"})
		return
	}

	if bookingData.Travelers < 1 {
		bookingData.Travelers = 1
	}
	if bookingData.Currency == "" {
		bookingData.Currency = "EUR"
	}

	booking := models.Booking{
		Reference:   newBookingReference(),
		UserID:      user.UserID,
		Kind:        bookingData.Kind,
		Title:       bookingData.Title,
		Origin:      bookingData.Origin,
		Destination: bookingData.Destination,
		StartDate:   bookingData.StartDate,
		EndDate:     bookingData.EndDate,
		Travelers:   bookingData.Travelers,
		Price:       bookingData.Price,
		Currency:    bookingData.Currency,
		Status:      "confirmed",
		Notes:       bookingData.Notes,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := h.bookings.Create(&booking); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create booking"})
		return
	}

	// Confirmation mail with itinerary; never blocks the response.
	go func(booking models.Booking, user models.User) {
		pdfBytes, err := h.pdf.GenerateItineraryPDF(&booking, &user)
		if err != nil {
			log.Printf("ERROR: itinerary PDF for %s failed: %v", booking.Reference, err)
			pdfBytes = nil
		}
		if err := h.email.SendBookingConfirmation(&user, &booking, pdfBytes); err != nil {
			log.Printf("ERROR: confirmation mail for %s failed: %v", booking.Reference, err)
		}
	}(booking, *user)

	c.JSON(http.StatusCreated, gin.H{"booking": booking})
}

// Get returns one booking; users only see their own, admins see all.
func (h *BookingHandler) Get(c *gin.Context) {
	booking, ok := h.loadAuthorized(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// Cancel marks a booking cancelled.
func (h *BookingHandler) Cancel(c *gin.Context) {
	booking, ok := h.loadAuthorized(c)
	if !ok {
		return
	}

	if booking.Status == "cancelled" {
		c.JSON(http.StatusOK, gin.H{"booking": booking})
		return
	}

	booking.Status = "cancelled"
	booking.UpdatedAt = time.Now()
	if err := h.bookings.Update(booking); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel booking"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"booking": booking})
}

// DownloadItinerary streams the booking confirmation PDF.
func (h *BookingHandler) DownloadItinerary(c *gin.Context) {
	booking, ok := h.loadAuthorized(c)
	if !ok {
		return
	}

	pdfBytes, err := h.pdf.GenerateItineraryPDF(booking, booking.User)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate itinerary"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=Itinerary_%s.pdf", booking.Reference))
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

// QRCode serves the booking's check-in QR as PNG.
func (h *BookingHandler) QRCode(c *gin.Context) {
	booking, ok := h.loadAuthorized(c)
	if !ok {
		return
	}

	size, _ := strconv.Atoi(c.DefaultQuery("size", "256"))
	pngBytes, err := h.qr.GenerateBookingQR(booking.Reference, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate QR code"})
		return
	}

	c.Data(http.StatusOK, "image/png", pngBytes)
}

func (h *BookingHandler) loadAuthorized(c *gin.Context) (*models.Booking, bool) {
	user, exists := GetCurrentUser(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return nil, false
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return nil, false
	}

	booking, err := h.bookings.GetByID(uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch booking"})
		return nil, false
	}

	if booking.UserID != user.UserID && !user.IsAdmin() {
		// Same response as a missing row: bookings of other users are invisible.
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		return nil, false
	}

	return booking, true
}

// newBookingReference builds a short display reference like TB-4F9C21D8.
func newBookingReference() string {
	id := uuid.NewString()
	return "TB-" + strings.ToUpper(strings.ReplaceAll(id, "-", "")[:8])
}
