package context

import (
	"context"

	"golang.org/x/text/language"
)

type localeKey struct{}

// WithLocale stores the negotiated user language.
func WithLocale(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, localeKey{}, tag)
}

// GetLocale returns the negotiated language, English when unset.
func GetLocale(ctx context.Context) language.Tag {
	if t, ok := ctx.Value(localeKey{}).(language.Tag); ok {
		return t
	}
	return language.English
}
