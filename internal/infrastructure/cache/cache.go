// Package cache provides in-memory expiring caches.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	appctx "rfidstock/internal/core/context"
)

// LinkOptions caches link dropdown options (document names per doctype).
type LinkOptions struct {
	lru *expirable.LRU[string, []string]
}

// NewLinkOptions creates a cache holding at most size lists for ttl.
func NewLinkOptions(size int, ttl time.Duration) *LinkOptions {
	if size <= 0 {
		size = 256
	}
	return &LinkOptions{lru: expirable.NewLRU[string, []string](size, nil, ttl)}
}

// Get returns a copy of the cached names.
func (c *LinkOptions) Get(key string) ([]string, bool) {
	names, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	return append([]string(nil), names...), true
}

func (c *LinkOptions) Add(key string, names []string) {
	c.lru.Add(key, append([]string(nil), names...))
}

// Purge drops every entry.
func (c *LinkOptions) Purge() {
	c.lru.Purge()
}

func (c *LinkOptions) Len() int {
	return c.lru.Len()
}

// Credentials keeps the ERP key pair of each login session until the token expires.
type Credentials struct {
	lru *expirable.LRU[string, appctx.Credentials]
}

// NewCredentials creates a store for at most size sessions.
func NewCredentials(size int, ttl time.Duration) *Credentials {
	if size <= 0 {
		size = 4096
	}
	return &Credentials{lru: expirable.NewLRU[string, appctx.Credentials](size, nil, ttl)}
}

func (c *Credentials) Put(sessionID string, creds appctx.Credentials) {
	c.lru.Add(sessionID, creds)
}

func (c *Credentials) Get(sessionID string) (appctx.Credentials, bool) {
	return c.lru.Get(sessionID)
}

func (c *Credentials) Delete(sessionID string) {
	c.lru.Remove(sessionID)
}
