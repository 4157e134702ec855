package handlers

import (
	"net/http"

	"go-travel-webapp/internal/services"

	"github.com/gin-gonic/gin"
)

// SearchHandler fronts the third-party travel catalogs. The services behind
// it degrade to static fallback data, so these endpoints do not fail on
// upstream outages.
type SearchHandler struct {
	airports   *services.AirportService
	activities *services.ActivityService
	translate  *services.TranslateService
}

func NewSearchHandler(airports *services.AirportService, activities *services.ActivityService, translate *services.TranslateService) *SearchHandler {
	return &SearchHandler{airports: airports, activities: activities, translate: translate}
}

// Airports handles GET /api/airports?query=.
func (h *SearchHandler) Airports(c *gin.Context) {
	query := c.Query("query")
	results := h.airports.Search(query)
	c.JSON(http.StatusOK, gin.H{"airports": results, "total": len(results)})
}

// Activities handles GET /api/activities?destination=.
func (h *SearchHandler) Activities(c *gin.Context) {
	destination := c.Query("destination")
	if destination == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "destination is required"})
		return
	}
	results := h.activities.Search(destination)
	c.JSON(http.StatusOK, gin.H{"activities": results, "total": len(results)})
}

// Translate handles POST /api/translate.
func (h *SearchHandler) Translate(c *gin.Context) {
	var translateData struct {
		Text   string `json:"text" binding:"required"`
		Source string `json:"source"`
		Target string `json:"target" binding:"required"`
	}
	if err := c.ShouldBindJSON(&translateData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text and target are required"})
		return
	}
	if translateData.Source == "" {
		translateData.Source = "en"
	}

	translated := h.translate.Translate(translateData.Text, translateData.Source, translateData.Target)
	c.JSON(http.StatusOK, gin.H{"translated_text": translated})
}
