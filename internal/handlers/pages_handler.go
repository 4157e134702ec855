package handlers

import (
	"net/http"

	"go-travel-webapp/internal/models"
	"go-travel-webapp/internal/repository"

	"github.com/gin-gonic/gin"
)

// PagesHandler renders the server-side HTML pages. The pages are thin:
// they bootstrap the client views, all data flows through the JSON API.
type PagesHandler struct {
	db *repository.Database
}

func NewPagesHandler(db *repository.Database) *PagesHandler {
	return &PagesHandler{db: db}
}

func (h *PagesHandler) Home(c *gin.Context) {
	var destinations []string
	h.db.Model(&models.Booking{}).
		Distinct("destination").
		Where("destination IS NOT NULL").
		Limit(8).
		Pluck("destination", &destinations)

	c.HTML(http.StatusOK, "home.html", gin.H{
		"title":        "TravelBook - flights, hotels and activities",
		"destinations": destinations,
	})
}

func (h *PagesHandler) LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{
		"title": "Sign in",
	})
}

func (h *PagesHandler) AdminLoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{
		"title": "Admin sign in",
		"admin": true,
	})
}

func (h *PagesHandler) Privacy(c *gin.Context) {
	c.HTML(http.StatusOK, "legal.html", gin.H{
		"title": "Privacy Policy",
		"page":  "privacy",
	})
}

func (h *PagesHandler) Terms(c *gin.Context) {
	c.HTML(http.StatusOK, "legal.html", gin.H{
		"title": "Terms of Service",
		"page":  "terms",
	})
}
