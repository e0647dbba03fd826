package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/taskhive/internal/domain/apperror"
	"github.com/oksasatya/taskhive/internal/interface/middleware"
	"github.com/oksasatya/taskhive/pkg/response"
)

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch apperror.KindOf(err) {
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindInvalidInput, apperror.KindInvalidName:
		return http.StatusBadRequest
	case apperror.KindAlreadyExists, apperror.KindTabConflict:
		return http.StatusConflict
	case apperror.KindInvalidCredentials, apperror.KindCorruptCredential:
		return http.StatusUnauthorized
	case apperror.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	status := StatusFor(err)
	msg := apperror.MessageOf(err)
	if status >= http.StatusInternalServerError {
		logger.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString(middleware.CtxRequestIDKey),
			"path":       c.FullPath(),
		}).Error("request failed")
		msg = "internal server error"
	}
	response.Error[any](c, status, msg, gin.H{"kind": apperror.KindOf(err)})
}

func requireUser(c *gin.Context) (string, bool) {
	uid := middleware.UserID(c)
	if uid == "" {
		response.Error[any](c, http.StatusUnauthorized, "unauthorized", nil)
		return "", false
	}
	return uid, true
}
