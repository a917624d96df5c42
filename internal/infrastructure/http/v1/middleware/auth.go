package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"rfidstock/internal/core/apperror"
	appctx "rfidstock/internal/core/context"
)

// Authenticator resolves an access token to the user and the ERP key pair behind it.
type Authenticator interface {
	Authenticate(token string) (*appctx.UserContext, appctx.Credentials, error)
}

// Auth middleware validates bearer tokens and populates the user context.
// The user's ERP credentials are stored in the request context so the
// remote client acts on the ERP as that user.
func Auth(authenticator Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c, "missing or malformed authorization header")
			return
		}

		user, creds, err := authenticator.Authenticate(token)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		ctx := appctx.WithUser(c.Request.Context(), user)
		ctx = appctx.WithCredentials(ctx, creds)
		c.Request = c.Request.WithContext(ctx)

		c.Set("user_id", user.UserID)

		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
