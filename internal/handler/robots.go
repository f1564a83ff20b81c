package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const robotsTxt = "User-agent: *\nDisallow: /admin\nDisallow: /api/admin\n"

// Robots handles GET /robots.txt
func Robots(c *gin.Context) {
	c.String(http.StatusOK, robotsTxt)
}

// Health handles GET /health
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
