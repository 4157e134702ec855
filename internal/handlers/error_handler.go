package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RecoveryHandler converts panics into a clean 500 without leaking internals.
func RecoveryHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Printf("PANIC recovered: %v (path=%s)", recovered, c.Request.URL.Path)
		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		c.Abort()
	})
}

// NotFoundHandler answers unmatched routes; HTML for pages, JSON for the API.
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(c.Request.URL.Path) >= 4 && c.Request.URL.Path[:4] == "/api" {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		c.HTML(http.StatusNotFound, "error.html", gin.H{
			"title":   "Page not found",
			"status":  http.StatusNotFound,
			"message": "The page you are looking for does not exist.",
		})
	}
}
