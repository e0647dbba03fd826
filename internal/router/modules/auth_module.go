package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/taskhive/internal/interface/http"
	"github.com/oksasatya/taskhive/internal/interface/middleware"
)

// AuthModule serves /api/auth. register and login are limited per IP and
// route; the rest share a softer per-IP budget.
type AuthModule struct {
	Handler  *handlers.AuthHandler
	Sessions middleware.SessionVerifier
	Redis    *redis.Client
	Limit    int
	Window   time.Duration
}

func NewAuthModule(h *handlers.AuthHandler, sessions middleware.SessionVerifier, rdb *redis.Client, limit int, window time.Duration) *AuthModule {
	return &AuthModule{Handler: h, Sessions: sessions, Redis: rdb, Limit: limit, Window: window}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	credLimiter := middleware.RateLimit(m.Redis, m.Limit, m.Window, middleware.KeyByIPAndPath(), nil)
	sessionLimiter := middleware.RateLimit(m.Redis, m.Limit*3, m.Window, middleware.KeyByIP(), nil)

	auth := rg.Group("/auth")
	auth.POST("/register", credLimiter, m.Handler.Register)
	auth.POST("/login", credLimiter, m.Handler.Login)
	auth.POST("/refresh", sessionLimiter, m.Handler.Refresh)

	optional := auth.Group("/", middleware.OptionalAuth(m.Sessions))
	{
		optional.POST("/logout", m.Handler.Logout)
		optional.GET("/status", m.Handler.Status)
	}
}
