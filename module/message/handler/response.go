package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"PingUp/logger"
	"PingUp/tools/errs"
)

// ok writes {success:true, ...fields}.
func ok(c *gin.Context, fields gin.H) {
	body := gin.H{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// fail writes {success:false, message} with the status mapped from err's code.
func fail(c *gin.Context, err error) {
	status := StatusOf(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": errs.Message(err)})
}

func StatusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, errs.ErrArgs), errors.Is(err, errs.ErrInvalidMedia):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrTokenInvalid), errors.Is(err, errs.ErrTokenMissing):
		return http.StatusUnauthorized
	case errors.Is(err, errs.ErrNoPermission), errors.Is(err, errs.ErrTokenMismatch):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
