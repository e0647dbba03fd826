package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/taskhive/internal/application"
	"github.com/oksasatya/taskhive/pkg/response"
	"github.com/oksasatya/taskhive/pkg/validation"
)

type SearchHandler struct {
	Search *application.SearchService
	Logger *logrus.Logger
}

func NewSearchHandler(search *application.SearchService, logger *logrus.Logger) *SearchHandler {
	return &SearchHandler{Search: search, Logger: logger}
}

type searchQuery struct {
	Q    string `form:"q" binding:"required"`
	Size int    `form:"size" binding:"omitempty,min=1,max=50"`
}

// Tasks GET /api/search/tasks?q=&size=
func (h *SearchHandler) Tasks(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid query", validation.ToDetails(err))
		return
	}
	hits, err := h.Search.Search(c.Request.Context(), uid, q.Q, q.Size)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", gin.H{"count": len(hits)})
}
