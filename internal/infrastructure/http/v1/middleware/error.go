package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rfidstock/internal/core/apperror"
	appctx "rfidstock/internal/core/context"
	"rfidstock/pkg/logger"
)

// ErrorHandler renders the last error a handler attached with c.Error.
// Responses a handler already wrote are left alone.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		writeError(c, c.Errors.Last().Err)
	}
}

// writeError maps err onto the JSON error body. Causes are logged, never sent.
func writeError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	appErr, ok := apperror.AsAppError(err)
	if !ok {
		logger.Error(ctx, "unhandled error", "route", c.FullPath(), "error", err)
		appErr = apperror.NewInternal(err)
	}

	switch {
	case appErr.HTTPStatus >= http.StatusInternalServerError:
		logger.Error(ctx, "request failed", "code", appErr.Code, "cause", appErr.Err)
	case appErr.Err != nil:
		logger.Debug(ctx, "request rejected", "code", appErr.Code, "cause", appErr.Err)
	}

	details := appErr.Details
	if appErr.Code == apperror.CodeInternal {
		details = map[string]any{"request_id": appctx.GetRequestID(ctx)}
	}

	c.AbortWithStatusJSON(appErr.HTTPStatus, gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
		"details": details,
	})
}
