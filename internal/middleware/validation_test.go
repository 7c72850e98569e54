package middleware

import (
	"strings"
	"testing"
	"time"
)

func TestValidClientID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"simple", "acme", true},
		{"with dash and underscore", "acme-corp_01", true},
		{"digits only", "12345", true},
		{"empty", "", false},
		{"path traversal", "../etc", false},
		{"slash", "a/b", false},
		{"spaces", "acme corp", false},
		{"too long", strings.Repeat("a", 65), false},
		{"max length", strings.Repeat("a", 64), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidClientID(tt.id); got != tt.want {
				t.Errorf("ValidClientID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestValidPlatform(t *testing.T) {
	tests := []struct {
		platform string
		want     bool
	}{
		{"", true},
		{"instagram", true},
		{"youtube", true},
		{"twitter", true},
		{"facebook", true},
		{"myspace", false},
		{"Instagram", false},
	}
	for _, tt := range tests {
		if got := ValidPlatform(tt.platform); got != tt.want {
			t.Errorf("ValidPlatform(%q) = %v, want %v", tt.platform, got, tt.want)
		}
	}
}

func TestParseThreshold(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   float64
		wantOK bool
	}{
		{"empty uses fallback", "", 0.3, true},
		{"valid", "0.5", 0.5, true},
		{"one is allowed", "1", 1, true},
		{"zero", "0", 0, false},
		{"negative", "-0.2", 0, false},
		{"above one", "1.5", 0, false},
		{"garbage", "lots", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseThreshold(tt.raw, 0.3)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseThreshold(%q) = (%v, %v), want (%v, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/clients/acme-01/anomalies", "/api/clients/:clientId/anomalies"},
		{"/api/clients/x/models", "/api/clients/:clientId/models"},
		{"/health", "/health"},
	}
	for _, tt := range tests {
		if got := sanitizePath(tt.path); got != tt.want {
			t.Errorf("sanitizePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestLimiterWindow(t *testing.T) {
	l := newLimiter(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !l.allow("key") {
			t.Fatalf("request %d should pass", i+1)
		}
	}
	if l.allow("key") {
		t.Error("fourth request inside the window should be rejected")
	}
	if !l.allow("other") {
		t.Error("separate keys must not share a budget")
	}
}
