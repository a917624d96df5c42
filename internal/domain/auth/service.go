package auth

import (
	"context"
	"strings"

	"rfidstock/internal/core/apperror"
	appctx "rfidstock/internal/core/context"
	"rfidstock/internal/core/id"
	"rfidstock/pkg/logger"
)

// Service provides authentication logic.
type Service struct {
	verifier   Verifier
	jwtService *JWTService
	store      CredentialStore
}

// NewService creates a new auth service.
func NewService(verifier Verifier, jwtService *JWTService, store CredentialStore) *Service {
	return &Service{
		verifier:   verifier,
		jwtService: jwtService,
		store:      store,
	}
}

// Login verifies the key pair against the ERP and issues an access token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	creds := appctx.Credentials{
		APIKey:    strings.TrimSpace(req.APIKey),
		APISecret: strings.TrimSpace(req.APISecret),
	}
	if creds.IsZero() {
		return nil, apperror.NewValidation("api_key and api_secret are required")
	}

	user, err := s.verifier.LoggedUser(appctx.WithCredentials(ctx, creds))
	if err != nil {
		if appErr, ok := apperror.AsAppError(err); ok &&
			(appErr.Code == apperror.CodeUnauthorized || appErr.Code == apperror.CodeForbidden) {
			logger.Warn(ctx, "login rejected by ERP")
			return nil, apperror.NewUnauthorized("invalid api key or secret")
		}
		return nil, err
	}

	sessionID := id.New().String()
	token, expiresAt, err := s.jwtService.GenerateAccessToken(user, sessionID)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	s.store.Put(sessionID, creds)

	logger.Info(ctx, "user logged in", "user", user)

	return &LoginResult{
		Token:     token,
		User:      user,
		ExpiresAt: expiresAt,
	}, nil
}

// Authenticate validates an access token and returns the user and the ERP credentials behind it.
func (s *Service) Authenticate(token string) (*appctx.UserContext, appctx.Credentials, error) {
	user, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return nil, appctx.Credentials{}, apperror.NewUnauthorized("invalid or expired token").WithCause(err)
	}

	creds, ok := s.store.Get(user.SessionID)
	if !ok {
		return nil, appctx.Credentials{}, apperror.NewUnauthorized("session expired")
	}
	return user, creds, nil
}

// Logout forgets the credentials of the current login session.
func (s *Service) Logout(ctx context.Context) {
	if user := appctx.GetUser(ctx); user != nil && user.SessionID != "" {
		s.store.Delete(user.SessionID)
		logger.Info(ctx, "user logged out", "user", user.UserID)
	}
}
