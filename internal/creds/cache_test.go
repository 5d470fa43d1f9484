package creds

import (
	"testing"
	"time"
)

// fixedClock returns a settable clock for expiry tests.
type fixedClock struct {
	t time.Time
}

func (c *fixedClock) Now() time.Time          { return c.t }
func (c *fixedClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache() (*Cache, *fixedClock) {
	clock := &fixedClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewCacheWithClock(clock.Now), clock
}

func TestValidTokenWithinSkewAdjustedLifetime(t *testing.T) {
	c, clock := newTestCache()

	c.SetToken("tok-1", 3600*time.Second)

	got, ok := c.ValidToken()
	if !ok || got != "tok-1" {
		t.Fatalf("expected valid token immediately after set, got %q ok=%v", got, ok)
	}

	// Effective lifetime is 3600s minus the 300s margin.
	clock.Advance(3299 * time.Second)
	if _, ok := c.ValidToken(); !ok {
		t.Error("token must remain valid one second before adjusted expiry")
	}

	clock.Advance(1 * time.Second)
	if _, ok := c.ValidToken(); ok {
		t.Error("token must be invalid at the adjusted expiry instant")
	}
}

func TestShortLivedTokenIsImmediatelyInvalid(t *testing.T) {
	tests := []struct {
		name      string
		expiresIn time.Duration
	}{
		{"lifetime equal to margin", 300 * time.Second},
		{"lifetime below margin", 120 * time.Second},
		{"zero lifetime", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCache()
			c.SetToken("tok", tt.expiresIn)
			if _, ok := c.ValidToken(); ok {
				t.Errorf("token with lifetime %v must not validate", tt.expiresIn)
			}
		})
	}
}

func TestValidTokenNeverSet(t *testing.T) {
	c, _ := newTestCache()
	if _, ok := c.ValidToken(); ok {
		t.Error("empty cache must not report a valid token")
	}
}

func TestSetTokenOverwrites(t *testing.T) {
	c, clock := newTestCache()

	c.SetToken("old", 400*time.Second)
	c.SetToken("new", 3600*time.Second)

	clock.Advance(200 * time.Second)
	got, ok := c.ValidToken()
	if !ok || got != "new" {
		t.Errorf("expected overwritten token, got %q ok=%v", got, ok)
	}
}

func TestTokenInfo(t *testing.T) {
	c, clock := newTestCache()

	if _, hasToken := c.TokenInfo(); hasToken {
		t.Error("empty cache must report no token")
	}

	c.SetToken("tok", 3600*time.Second)
	expiresAt, hasToken := c.TokenInfo()
	if !hasToken {
		t.Fatal("expected token present")
	}
	want := clock.Now().Add(3300 * time.Second)
	if !expiresAt.Equal(want) {
		t.Errorf("expiry %v, want %v", expiresAt, want)
	}

	// TokenInfo reports presence even after expiry; validity is ValidToken's
	// concern.
	clock.Advance(4000 * time.Second)
	if _, hasToken := c.TokenInfo(); !hasToken {
		t.Error("expired token still counts as stored")
	}
}

func TestLLMConfig(t *testing.T) {
	c, _ := newTestCache()

	if _, ok := c.GetLLMConfig(); ok {
		t.Error("LLM must start unconfigured")
	}

	c.SetLLMConfig(LLMConfig{Endpoint: "https://one.example/v1/chat", Model: "m1"})
	cfg, ok := c.GetLLMConfig()
	if !ok || cfg.Endpoint != "https://one.example/v1/chat" || cfg.Model != "m1" {
		t.Fatalf("unexpected config %+v ok=%v", cfg, ok)
	}

	// Reconfiguration replaces every field, including ones now empty.
	c.SetLLMConfig(LLMConfig{Endpoint: "https://two.example/v1/chat", APIKey: "k2", Model: "m2"})
	cfg, _ = c.GetLLMConfig()
	if cfg.Endpoint != "https://two.example/v1/chat" || cfg.APIKey != "k2" || cfg.Model != "m2" {
		t.Errorf("expected full overwrite, got %+v", cfg)
	}
}
