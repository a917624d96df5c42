package auth

import (
	"context"

	appctx "rfidstock/internal/core/context"
)

// CredentialStore keeps the ERP key pair behind each login session.
// Entries expire together with the access token.
type CredentialStore interface {
	Put(sessionID string, creds appctx.Credentials)
	Get(sessionID string) (appctx.Credentials, bool)
	Delete(sessionID string)
}

// Verifier resolves the ERP user behind the credentials carried by ctx.
type Verifier interface {
	LoggedUser(ctx context.Context) (string, error)
}
