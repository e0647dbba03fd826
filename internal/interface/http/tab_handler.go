package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/taskhive/internal/application"
	"github.com/oksasatya/taskhive/pkg/response"
	"github.com/oksasatya/taskhive/pkg/validation"
)

type TabHandler struct {
	Profiles     *application.ProfileService
	Orchestrator *application.TabOrchestrator
	Logger       *logrus.Logger
}

func NewTabHandler(profiles *application.ProfileService, orch *application.TabOrchestrator, logger *logrus.Logger) *TabHandler {
	return &TabHandler{Profiles: profiles, Orchestrator: orch, Logger: logger}
}

type createTabRequest struct {
	TabName string `json:"tabName" binding:"required,tabname"`
}

type activeTabRequest struct {
	TabID string `json:"tabId" binding:"required"`
}

// List GET /api/tabs
func (h *TabHandler) List(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	tabs, err := h.Profiles.GetTabs(c.Request.Context(), uid)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, tabs, "tabs", nil)
}

// Create POST /api/tabs. Adding an existing tab returns it unchanged.
func (h *TabHandler) Create(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var req createTabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "tab name is invalid", validation.ToDetails(err))
		return
	}
	tab, err := h.Orchestrator.CreateTab(c.Request.Context(), uid, req.TabName)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, tab, "tab ready", nil)
}

// Delete DELETE /api/tabs/:tabId removes the tab and every task in it.
func (h *TabHandler) Delete(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	tabID := c.Param("tabId")
	if _, err := h.Orchestrator.DeleteTab(c.Request.Context(), uid, tabID); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"tabId": tabID, "deleted": true}, "tab deleted", nil)
}

// GetActive GET /api/preferences/active-tab
func (h *TabHandler) GetActive(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	tabID, err := h.Profiles.GetActiveTab(c.Request.Context(), uid)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"activeTabId": tabID}, "active tab", nil)
}

// SetActive PUT /api/preferences/active-tab
func (h *TabHandler) SetActive(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var req activeTabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "tabId is required", validation.ToDetails(err))
		return
	}
	if err := h.Profiles.SetActiveTab(c.Request.Context(), uid, req.TabID); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"activeTabId": req.TabID}, "active tab saved", nil)
}
