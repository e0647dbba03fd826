package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/taskhive/internal/interface/http"
	"github.com/oksasatya/taskhive/internal/interface/middleware"
)

type TabModule struct {
	Handler  *handlers.TabHandler
	Sessions middleware.SessionVerifier
	Limiter  gin.HandlerFunc
}

func NewTabModule(h *handlers.TabHandler, sessions middleware.SessionVerifier, limiter gin.HandlerFunc) *TabModule {
	return &TabModule{Handler: h, Sessions: sessions, Limiter: limiter}
}

func (m *TabModule) Register(rg *gin.RouterGroup) {
	protected := rg.Group("/", middleware.Auth(m.Sessions), m.Limiter)
	{
		protected.GET("/tabs", m.Handler.List)
		protected.POST("/tabs", m.Handler.Create)
		protected.DELETE("/tabs/:tabId", m.Handler.Delete)
		protected.GET("/preferences/active-tab", m.Handler.GetActive)
		protected.PUT("/preferences/active-tab", m.Handler.SetActive)
	}
}
