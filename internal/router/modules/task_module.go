package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/taskhive/internal/interface/http"
	"github.com/oksasatya/taskhive/internal/interface/middleware"
)

type TaskModule struct {
	Handler  *handlers.TaskHandler
	Sessions middleware.SessionVerifier
	Limiter  gin.HandlerFunc
}

func NewTaskModule(h *handlers.TaskHandler, sessions middleware.SessionVerifier, limiter gin.HandlerFunc) *TaskModule {
	return &TaskModule{Handler: h, Sessions: sessions, Limiter: limiter}
}

func (m *TaskModule) Register(rg *gin.RouterGroup) {
	tasks := rg.Group("/tasks", middleware.Auth(m.Sessions), m.Limiter)
	{
		tasks.POST("", m.Handler.Add)
		tasks.GET("/:tabId", m.Handler.List)
		tasks.GET("/:tabId/:taskId", m.Handler.Get)
		tasks.PUT("/:tabId/:taskId", m.Handler.Update)
		tasks.DELETE("/:tabId/:taskId", m.Handler.Delete)
	}
}
