package middleware

import (
	"github.com/gin-gonic/gin"
)

const HeaderXAPIVersion = "X-API-Version"

// APIVersion stamps every response in the group with the API version.
func APIVersion(version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header(HeaderXAPIVersion, version)
		c.Set("api_version", version)
		c.Next()
	}
}
