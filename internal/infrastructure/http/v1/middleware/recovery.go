// Package middleware holds the gin middleware of the v1 API.
package middleware

import (
	"fmt"
	"io"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"rfidstock/internal/core/apperror"
	"rfidstock/pkg/logger"
)

// Recovery turns a handler panic into a 500 response.
// The stack goes to the log only.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logger.Error(c.Request.Context(), "handler panicked",
			"route", c.FullPath(),
			"panic", recovered,
			"stack", string(debug.Stack()))

		writeError(c, apperror.NewInternal(fmt.Errorf("panic: %v", recovered)))
	})
}
