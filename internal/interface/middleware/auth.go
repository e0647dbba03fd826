package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/taskhive/internal/domain/entity"
	"github.com/oksasatya/taskhive/pkg/helpers"
	"github.com/oksasatya/taskhive/pkg/response"
)

// SessionVerifier resolves an access token to a live session.
type SessionVerifier interface {
	Verify(ctx context.Context, accessToken string) (*entity.Identity, error)
}

func setIdentity(c *gin.Context, id *entity.Identity) {
	c.Set(CtxUserIDKey, id.UserID)
	c.Set(CtxUsernameKey, id.Username)
}

// Auth validates the access token cookie against its Redis session.
// It sets userID and username in the Gin context on success.
func Auth(sessions SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(helpers.AccessCookie)
		if err != nil || token == "" {
			response.Error[any](c, http.StatusUnauthorized, "missing access token", nil)
			return
		}
		id, err := sessions.Verify(c.Request.Context(), token)
		if err != nil {
			response.Error[any](c, http.StatusUnauthorized, "session not found or expired", nil)
			return
		}
		setIdentity(c, id)
		c.Next()
	}
}

// OptionalAuth sets the identity when a valid session cookie is present and
// never rejects the request.
func OptionalAuth(sessions SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := c.Cookie(helpers.AccessCookie); err == nil && token != "" {
			if id, err := sessions.Verify(c.Request.Context(), token); err == nil {
				setIdentity(c, id)
			}
		}
		c.Next()
	}
}
