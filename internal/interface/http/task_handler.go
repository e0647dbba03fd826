package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/taskhive/internal/application"
	"github.com/oksasatya/taskhive/internal/domain/entity"
	"github.com/oksasatya/taskhive/pkg/response"
	"github.com/oksasatya/taskhive/pkg/validation"
)

type TaskHandler struct {
	Tasks  *application.TaskService
	Logger *logrus.Logger
}

func NewTaskHandler(tasks *application.TaskService, logger *logrus.Logger) *TaskHandler {
	return &TaskHandler{Tasks: tasks, Logger: logger}
}

type addTaskRequest struct {
	TabID       string `json:"tabId" binding:"required"`
	Text        string `json:"text" binding:"required"`
	Description string `json:"description"`
}

type updateTaskRequest struct {
	Text        *string `json:"text"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

func (r updateTaskRequest) patch() entity.TaskPatch {
	return entity.TaskPatch{Text: r.Text, Description: r.Description, Completed: r.Completed}
}

// Add POST /api/tasks
func (h *TaskHandler) Add(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var req addTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "missing tabId or text", validation.ToDetails(err))
		return
	}
	task, err := h.Tasks.Add(c.Request.Context(), uid, req.TabID, req.Text, req.Description)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, task, "task created", nil)
}

// List GET /api/tasks/:tabId
func (h *TaskHandler) List(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	tasks, err := h.Tasks.ListByTab(c.Request.Context(), uid, c.Param("tabId"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, tasks, "tasks", gin.H{"count": len(tasks)})
}

// Get GET /api/tasks/:tabId/:taskId
func (h *TaskHandler) Get(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	task, err := h.Tasks.Get(c.Request.Context(), uid, c.Param("tabId"), c.Param("taskId"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, task, "task", nil)
}

// Update PUT /api/tasks/:tabId/:taskId
func (h *TaskHandler) Update(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	patch := req.patch()
	if patch.Empty() {
		response.Error[any](c, http.StatusBadRequest, "no update fields provided", nil)
		return
	}
	task, err := h.Tasks.Update(c.Request.Context(), uid, c.Param("tabId"), c.Param("taskId"), patch)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, task, "task updated", nil)
}

// Delete DELETE /api/tasks/:tabId/:taskId. Deleting a missing task succeeds.
func (h *TaskHandler) Delete(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	if _, err := h.Tasks.Delete(c.Request.Context(), uid, c.Param("tabId"), c.Param("taskId")); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "task deleted successfully", nil)
}
