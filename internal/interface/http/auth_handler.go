package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/taskhive/internal/application"
	"github.com/oksasatya/taskhive/internal/domain/apperror"
	"github.com/oksasatya/taskhive/internal/interface/middleware"
	"github.com/oksasatya/taskhive/pkg/helpers"
	"github.com/oksasatya/taskhive/pkg/response"
	"github.com/oksasatya/taskhive/pkg/validation"
)

type AuthHandler struct {
	Creds    *application.CredentialService
	Sessions *application.SessionService
	Audit    application.AuditLog
	Logger   *logrus.Logger
	Cookies  *helpers.Manager
}

func NewAuthHandler(creds *application.CredentialService, sessions *application.SessionService, audit application.AuditLog, logger *logrus.Logger, cookies *helpers.Manager) *AuthHandler {
	if audit == nil {
		audit = application.NopAuditLog{}
	}
	return &AuthHandler{Creds: creds, Sessions: sessions, Audit: audit, Logger: logger, Cookies: cookies}
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required,uname"`
	Password string `json:"password" binding:"required,pwd"`
}

func clientIP(c *gin.Context) string {
	if ip := c.GetString(middleware.CtxRealIPKey); ip != "" {
		return ip
	}
	return c.ClientIP()
}

func (h *AuthHandler) audit(c *gin.Context, userID, username, action string, metadata map[string]any) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["request_id"] = c.GetString(middleware.CtxRequestIDKey)
	e := application.AuditEntry{
		UserID:    userID,
		Username:  username,
		Action:    action,
		IP:        clientIP(c),
		UserAgent: c.GetHeader("User-Agent"),
		Metadata:  metadata,
	}
	// detached so a cancelled request still leaves its trail
	if err := h.Audit.Record(context.WithoutCancel(c.Request.Context()), e); err != nil {
		h.Logger.WithError(err).WithField("action", action).Warn("audit record failed")
	}
}

// Register POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "username and password are required", validation.ToDetails(err))
		return
	}
	id, err := h.Creds.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, apperror.ErrAlreadyExists) {
			h.audit(c, "", req.Username, application.AuditRegisterConflict, nil)
		}
		writeError(c, h.Logger, err)
		return
	}
	h.audit(c, id.UserID, id.Username, application.AuditRegister, nil)
	response.Success(c, http.StatusCreated, id, "user registered successfully", nil)
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "username and password are required", validation.ToDetails(err))
		return
	}
	id, err := h.Creds.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if k := apperror.KindOf(err); k == apperror.KindInvalidCredentials || k == apperror.KindCorruptCredential {
			h.audit(c, "", req.Username, application.AuditLoginFailure, map[string]any{"reason": string(k)})
		}
		writeError(c, h.Logger, err)
		return
	}
	pair, err := h.Sessions.Issue(c.Request.Context(), *id)
	if err != nil {
		writeError(c, h.Logger, apperror.StoreUnavailable("issue session", err))
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessExpiresAt, pair.RefreshToken, pair.RefreshExpiresAt)
	h.audit(c, id.UserID, id.Username, application.AuditLoginSuccess, nil)
	h.Logger.WithFields(logrus.Fields{"user_id": id.UserID, "username": id.Username}).Info("user logged in")
	response.Success(c, http.StatusOK, id, "login successful", pair)
}

// Logout POST /api/auth/logout. Succeeds with or without a session.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.Cookies.Clear(c)
	uid := middleware.UserID(c)
	if uid == "" {
		response.Success[any](c, http.StatusOK, gin.H{"loggedOut": false}, "no active session to log out", nil)
		return
	}
	if err := h.Sessions.Revoke(c.Request.Context(), uid); err != nil {
		writeError(c, h.Logger, apperror.StoreUnavailable("revoke session", err))
		return
	}
	h.audit(c, uid, middleware.Username(c), application.AuditLogout, nil)
	h.Logger.WithField("user_id", uid).Info("user logged out")
	response.Success[any](c, http.StatusOK, gin.H{"loggedOut": true}, "logged out successfully", nil)
}

type authStatus struct {
	IsLoggedIn bool   `json:"isLoggedIn"`
	UserID     string `json:"userId,omitempty"`
	Username   string `json:"username,omitempty"`
}

// Status GET /api/auth/status
func (h *AuthHandler) Status(c *gin.Context) {
	uid := middleware.UserID(c)
	if uid == "" {
		response.Success(c, http.StatusOK, authStatus{}, "not logged in", nil)
		return
	}
	response.Success(c, http.StatusOK, authStatus{IsLoggedIn: true, UserID: uid, Username: middleware.Username(c)}, "logged in", nil)
}

// Refresh POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie(helpers.RefreshCookie)
	if err != nil || refresh == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	pair, id, err := h.Sessions.Refresh(c.Request.Context(), refresh)
	if err != nil {
		if errors.Is(err, application.ErrSessionInvalid) {
			h.Cookies.Clear(c)
			response.Error[any](c, http.StatusUnauthorized, "invalid refresh token", nil)
			return
		}
		writeError(c, h.Logger, apperror.StoreUnavailable("refresh session", err))
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessExpiresAt, pair.RefreshToken, pair.RefreshExpiresAt)
	response.Success(c, http.StatusOK, id, "token refreshed", pair)
}
