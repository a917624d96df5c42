// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// UserContext identifies the ERP user a request acts for.
type UserContext struct {
	// UserID is the ERP login (usually an email)
	UserID string
	// SessionID is the login session id carried in the access token
	SessionID string
}

// Credentials is an ERP API key pair used for the token auth scheme.
type Credentials struct {
	APIKey    string
	APISecret string
}

// IsZero reports whether no key pair is set.
func (c Credentials) IsZero() bool {
	return c.APIKey == "" || c.APISecret == ""
}

type userContextKey struct{}
type credentialsKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// WithCredentials stores the ERP key pair the remote client must use.
func WithCredentials(ctx context.Context, creds Credentials) context.Context {
	return context.WithValue(ctx, credentialsKey{}, creds)
}

// GetCredentials returns the ERP key pair from context.
func GetCredentials(ctx context.Context) (Credentials, bool) {
	c, ok := ctx.Value(credentialsKey{}).(Credentials)
	return c, ok && !c.IsZero()
}
