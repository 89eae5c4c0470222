package middleware

import (
	"github.com/gin-gonic/gin"
)

// NoStoreByDefault marks API responses as private and uncacheable unless a handler
// sets its own Cache-Control header.
func NoStoreByDefault() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
