package server

import (
	"strings"
	"testing"
)

func TestNewStoredName_TokenDelimiter(t *testing.T) {
	name := newStoredName("report.pdf")

	dash := strings.Index(name, "-")
	if dash <= 0 {
		t.Fatalf("Expected a token-filename separator in %q", name)
	}

	token := name[:dash]
	if strings.Contains(token, "-") {
		t.Errorf("Token %q must not contain the separator", token)
	}
	if len(token) != 32 {
		t.Errorf("Expected 32-char token, got %d chars", len(token))
	}

	if got := name[dash+1:]; got != "report.pdf" {
		t.Errorf("Expected original name after separator, got %q", got)
	}
}

func TestNewStoredName_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		name := newStoredName("a.txt")
		if seen[name] {
			t.Fatalf("Stored name %q generated twice", name)
		}
		seen[name] = true
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{
			name:     "plain name kept",
			in:       "photo.jpg",
			expected: "photo.jpg",
		},
		{
			name:     "unix path stripped",
			in:       "/etc/passwd",
			expected: "passwd",
		},
		{
			name:     "windows path stripped",
			in:       `C:\Users\me\doc.txt`,
			expected: "doc.txt",
		},
		{
			name:     "traversal collapses to fallback",
			in:       "../..",
			expected: "file",
		},
		{
			name:     "control characters removed",
			in:       "re\x00port\n.pdf",
			expected: "report.pdf",
		},
		{
			name:     "empty falls back",
			in:       "",
			expected: "file",
		},
		{
			name:     "whitespace only falls back",
			in:       "   ",
			expected: "file",
		},
		{
			name:     "spaces inside kept",
			in:       "my holiday photos.zip",
			expected: "my holiday photos.zip",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeFilename(tt.in); got != tt.expected {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.expected)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	single := []StoredFile{{StoredName: "tok-a.txt", OrigName: "a.txt"}}
	if got := displayName("id1", single); got != "a.txt" {
		t.Errorf("Expected original name for single file, got %q", got)
	}

	multi := []StoredFile{
		{StoredName: "tok1-a.txt", OrigName: "a.txt"},
		{StoredName: "tok2-b.txt", OrigName: "b.txt"},
	}
	if got := displayName("id1", multi); got != "files-id1.zip" {
		t.Errorf("Expected archive name for multiple files, got %q", got)
	}
}

func TestShareLink(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		id       string
		expected string
	}{
		{
			name:     "plain base",
			base:     "http://localhost:8080",
			id:       "abc",
			expected: "http://localhost:8080/file.html?id=abc",
		},
		{
			name:     "trailing slash trimmed",
			base:     "https://drop.example.com/",
			id:       "abc",
			expected: "https://drop.example.com/file.html?id=abc",
		},
		{
			name:     "id is query-escaped",
			base:     "http://localhost:8080",
			id:       "a&b",
			expected: "http://localhost:8080/file.html?id=a%26b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shareLink(tt.base, tt.id); got != tt.expected {
				t.Errorf("shareLink(%q, %q) = %q, want %q", tt.base, tt.id, got, tt.expected)
			}
		})
	}
}
