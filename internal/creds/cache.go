// Package creds holds the process-wide credential cache: a bearer token with
// expiry and the LLM connection settings. Writes overwrite unconditionally;
// last writer wins.
package creds

import (
	"sync"
	"time"
)

// tokenExpirySkew is subtracted from the issuer-reported lifetime so a token
// this cache already treats as expired still has real validity left.
const tokenExpirySkew = 300 * time.Second

// LLMConfig is the cached LLM connection configuration.
type LLMConfig struct {
	Endpoint string
	APIKey   string
	Model    string
}

// Cache is safe for concurrent use.
type Cache struct {
	mu        sync.RWMutex
	token     string
	expiresAt time.Time
	llm       LLMConfig

	now func() time.Time
}

func NewCache() *Cache {
	return &Cache{now: time.Now}
}

// NewCacheWithClock injects the clock used for expiry checks.
func NewCacheWithClock(now func() time.Time) *Cache {
	return &Cache{now: now}
}

// SetToken stores a token with expiry computed as now + expiresIn minus the
// safety skew. A lifetime at or below the skew yields a token that is
// already invalid.
func (c *Cache) SetToken(token string, expiresIn time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.expiresAt = c.now().Add(expiresIn - tokenExpirySkew)
}

// ValidToken returns the token only while the current time is strictly
// before the stored expiry. Callers cannot distinguish never-set from
// expired; both are "no usable token".
func (c *Cache) ValidToken() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == "" || c.expiresAt.IsZero() {
		return "", false
	}
	if !c.now().Before(c.expiresAt) {
		return "", false
	}
	return c.token, true
}

// TokenInfo exposes expiry state for status reporting.
func (c *Cache) TokenInfo() (expiresAt time.Time, hasToken bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.expiresAt, c.token != ""
}

// SetLLMConfig overwrites the LLM connection settings unconditionally. No
// reachability validation is performed.
func (c *Cache) SetLLMConfig(cfg LLMConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.llm = cfg
}

// GetLLMConfig returns the current settings, reporting false until an
// endpoint has been configured.
func (c *Cache) GetLLMConfig() (LLMConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.llm, c.llm.Endpoint != ""
}
