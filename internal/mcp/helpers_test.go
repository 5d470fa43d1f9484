package mcp

import (
	"testing"

	"intelligent-search-mcp-server/internal/browser"
)

func TestGetStringArg(t *testing.T) {
	args := map[string]interface{}{
		"s": "text",
		"n": float64(3),
	}
	if got := getStringArg(args, "s"); got != "text" {
		t.Errorf("got %q, want text", got)
	}
	if got := getStringArg(args, "n"); got != "3" {
		t.Errorf("non-strings stringify, got %q", got)
	}
	if got := getStringArg(args, "missing"); got != "" {
		t.Errorf("missing key must yield empty, got %q", got)
	}
}

func TestGetIntArg(t *testing.T) {
	args := map[string]interface{}{
		"json":   float64(7), // JSON numbers decode as float64
		"int":    5,
		"int64":  int64(9),
		"string": "12",
	}
	tests := []struct {
		key  string
		want int
	}{
		{"json", 7},
		{"int", 5},
		{"int64", 9},
		{"string", -1}, // unsupported type falls back
		{"missing", -1},
	}
	for _, tt := range tests {
		if got := getIntArg(args, tt.key, -1); got != tt.want {
			t.Errorf("getIntArg(%q) = %d, want %d", tt.key, got, tt.want)
		}
	}
}

func TestGetFloatArg(t *testing.T) {
	args := map[string]interface{}{
		"f": 0.3,
		"i": 2,
	}
	if got := getFloatArg(args, "f", 0.7); got != 0.3 {
		t.Errorf("got %v, want 0.3", got)
	}
	if got := getFloatArg(args, "i", 0.7); got != 2.0 {
		t.Errorf("got %v, want 2", got)
	}
	if got := getFloatArg(args, "missing", 0.7); got != 0.7 {
		t.Errorf("got %v, want fallback 0.7", got)
	}
}

func TestGetBoolArg(t *testing.T) {
	args := map[string]interface{}{
		"b": true,
		"s": "true",
	}
	if !getBoolArg(args, "b", false) {
		t.Error("expected true")
	}
	if getBoolArg(args, "s", false) {
		t.Error("string true must not coerce")
	}
	if !getBoolArg(args, "missing", true) {
		t.Error("expected fallback true")
	}
}

func TestOpenTargetMapping(t *testing.T) {
	tests := []struct {
		name string
		args map[string]interface{}
		want browser.OpenTarget
	}{
		{"absent id", map[string]interface{}{}, browser.TargetCurrent()},
		{"url string", map[string]interface{}{"id": "https://x.example"}, browser.TargetURL("https://x.example")},
		{"empty string", map[string]interface{}{"id": ""}, browser.TargetCurrent()},
		{"sentinel string", map[string]interface{}{"id": "-1"}, browser.TargetCurrent()},
		{"json number", map[string]interface{}{"id": float64(2)}, browser.TargetIndex(2)},
		{"int", map[string]interface{}{"id": 1}, browser.TargetIndex(1)},
		{"sentinel number", map[string]interface{}{"id": float64(-1)}, browser.TargetCurrent()},
		{"unsupported type", map[string]interface{}{"id": []string{"x"}}, browser.TargetCurrent()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := openTarget(tt.args); got != tt.want {
				t.Errorf("openTarget = %+v, want %+v", got, tt.want)
			}
		})
	}
}
