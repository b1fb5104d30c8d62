package session

import (
	"net/url"
	"testing"
)

func TestKeyForURL(t *testing.T) {
	tests := []struct {
		raw  string
		want Key
	}{
		{"http://example.com/", Key{"http", "example.com", 80}},
		{"http://example.com:8080/path", Key{"http", "example.com", 8080}},
		{"https://example.com/", Key{"https", "example.com", 443}},
		{"HTTP://Example.COM/x?y=z", Key{"http", "example.com", 80}},
		{"https://example.com:8443/", Key{"https", "example.com", 8443}},
	}
	for _, tt := range tests {
		u, err := url.Parse(tt.raw)
		if err != nil {
			t.Fatalf("parse %q: %v", tt.raw, err)
		}
		got, err := KeyForURL(u)
		if err != nil {
			t.Fatalf("KeyForURL(%q): %v", tt.raw, err)
		}
		if got != tt.want {
			t.Errorf("KeyForURL(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestKeyForURLRejectsBadInput(t *testing.T) {
	for _, raw := range []string{
		"ftp://example.com/",
		"mailto:user@example.com",
		"http:///no-host",
		"http://example.com:99999/",
	} {
		u, err := url.Parse(raw)
		if err != nil {
			continue
		}
		if _, err := KeyForURL(u); err == nil {
			t.Errorf("KeyForURL(%q) succeeded, want error", raw)
		}
	}
	if _, err := KeyForURL(nil); err == nil {
		t.Error("KeyForURL(nil) succeeded, want error")
	}
}

func TestParseURL(t *testing.T) {
	u, err := ParseURL("https://example.com/a/b")
	if err != nil {
		t.Fatalf("ParseURL: %v", err)
	}
	if u.Host != "example.com" {
		t.Errorf("host = %q, want example.com", u.Host)
	}
	if _, err := ParseURL("gopher://example.com/"); err == nil {
		t.Error("ParseURL accepted unsupported scheme")
	}
}

func TestKeyAddr(t *testing.T) {
	k := Key{"https", "example.com", 8443}
	if k.Addr() != "example.com:8443" {
		t.Errorf("Addr() = %q", k.Addr())
	}
	if !k.TLS() {
		t.Error("TLS() = false for https key")
	}
	if (Key{"http", "example.com", 80}).TLS() {
		t.Error("TLS() = true for http key")
	}
}
