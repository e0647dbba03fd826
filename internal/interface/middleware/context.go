package middleware

import "github.com/gin-gonic/gin"

// Gin context keys set by this package.
const (
	CtxUserIDKey    = "userID"
	CtxUsernameKey  = "username"
	CtxRealIPKey    = "real_ip"
	CtxRequestIDKey = "request_id"
)

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c *gin.Context) string { return c.GetString(CtxUserIDKey) }

func Username(c *gin.Context) string { return c.GetString(CtxUsernameKey) }
