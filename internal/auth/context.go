package auth

import "github.com/gin-gonic/gin"

const (
	ctxUserID   = "userID"
	ctxUserName = "userName"
)

// GetUserID returns the authenticated user's ID, or 0 outside AuthRequired.
func GetUserID(c *gin.Context) int64 {
	if v, ok := c.Get(ctxUserID); ok {
		if id, ok := v.(int64); ok {
			return id
		}
	}
	return 0
}

// GetUserName returns the authenticated user's name or empty string.
func GetUserName(c *gin.Context) string {
	return c.GetString(ctxUserName)
}
