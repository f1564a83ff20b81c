package middleware

import "github.com/gin-gonic/gin"

// NoIndex asks crawlers not to index or cache the response.
func NoIndex() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Robots-Tag", "noindex, nofollow, noarchive")
		c.Next()
	}
}
