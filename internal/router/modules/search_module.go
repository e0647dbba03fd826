package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/taskhive/internal/interface/http"
	"github.com/oksasatya/taskhive/internal/interface/middleware"
)

type SearchModule struct {
	Handler  *handlers.SearchHandler
	Sessions middleware.SessionVerifier
	Limiter  gin.HandlerFunc
}

func NewSearchModule(h *handlers.SearchHandler, sessions middleware.SessionVerifier, limiter gin.HandlerFunc) *SearchModule {
	return &SearchModule{Handler: h, Sessions: sessions, Limiter: limiter}
}

func (m *SearchModule) Register(rg *gin.RouterGroup) {
	rg.GET("/search/tasks", middleware.Auth(m.Sessions), m.Limiter, m.Handler.Tasks)
}
