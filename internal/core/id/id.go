// Package id issues session and journal entry identifiers.
// They are UUIDv7, so journal rows keyed by id sort by creation time.
package id

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

type ID = uuid.UUID

var errNil = errors.New("nil uuid")

// New returns a UUIDv7, or a random UUID if the v7 clock read fails.
func New() ID {
	if v, err := uuid.NewV7(); err == nil {
		return v
	}
	return uuid.New()
}

// Parse accepts the canonical form with surrounding whitespace trimmed.
// The nil UUID is rejected.
func Parse(s string) (ID, error) {
	v, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, err
	}
	if v == uuid.Nil {
		return uuid.Nil, errNil
	}
	return v, nil
}

func IsNil(v ID) bool {
	return v == uuid.Nil
}
