package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "rfidstock/internal/core/context"
	"rfidstock/internal/i18n"
)

// Locale picks the response language from Accept-Language.
func Locale() gin.HandlerFunc {
	return func(c *gin.Context) {
		tag := i18n.Match(c.GetHeader("Accept-Language"))
		c.Request = c.Request.WithContext(appctx.WithLocale(c.Request.Context(), tag))
		c.Header("Content-Language", tag.String())
		c.Next()
	}
}
