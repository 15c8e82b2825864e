package browser

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCookieFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cookies.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCookies(t *testing.T) {
	path := writeCookieFile(t, `[
		{
			"name": "__Secure-session",
			"value": "abc123",
			"domain": ".example.com",
			"path": "/",
			"secure": true,
			"httpOnly": true,
			"sameSite": "lax",
			"expirationDate": 1767225600.5
		},
		{
			"name": "theme",
			"value": "dark",
			"domain": "example.com",
			"path": "/",
			"sameSite": "no_restriction"
		}
	]`)

	cookies, err := LoadCookies(path)
	if err != nil {
		t.Fatalf("LoadCookies failed: %v", err)
	}
	if len(cookies) != 2 {
		t.Fatalf("Expected 2 cookies, got %d", len(cookies))
	}

	first := cookies[0]
	if first.Name != "__Secure-session" || first.Value != "abc123" {
		t.Errorf("Unexpected first cookie: %+v", first)
	}
	if !first.Secure || !first.HTTPOnly {
		t.Error("Expected secure httpOnly cookie")
	}
	if first.SameSite != "Lax" {
		t.Errorf("Expected sameSite Lax, got %q", first.SameSite)
	}
	if first.Expires != 1767225600.5 {
		t.Errorf("Expected expiration to survive parsing, got %f", first.Expires)
	}

	// Browser exports write no_restriction for SameSite=None
	if cookies[1].SameSite != "None" {
		t.Errorf("Expected sameSite None, got %q", cookies[1].SameSite)
	}
}

func TestLoadCookiesNormalizesSameSite(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"strict", "Strict"},
		{"Strict", "Strict"},
		{"LAX", "Lax"},
		{"none", "None"},
		{"no_restriction", "None"},
		{"unspecified", ""},
		{"", ""},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			if got := normalizeSameSite(test.input); got != test.expected {
				t.Errorf("normalizeSameSite(%q): expected %q, got %q", test.input, test.expected, got)
			}
		})
	}
}

func TestLoadCookiesMissingFile(t *testing.T) {
	if _, err := LoadCookies(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing cookie file")
	}
}

func TestLoadCookiesInvalidJSON(t *testing.T) {
	path := writeCookieFile(t, `{"not": "an array"}`)
	if _, err := LoadCookies(path); err == nil {
		t.Error("Expected error for non-array cookie file")
	}
}
