package httputil

import (
	"net/url"
	"testing"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid HTTPS", "https://example.com/path", false},
		{"HTTP rejected", "http://example.com/path", true},
		{"javascript scheme rejected", "javascript:alert(1)", true},
		{"data scheme rejected", "data:text/html,<h1>Hi</h1>", true},
		{"FTP rejected", "ftp://example.com/file", true},
		{"empty string", "", true},
		{"no host", "https://", true},
		{"valid with port", "https://example.com:8080/path", false},
		{"valid with query", "https://example.com/path?q=test&a=b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid slug ID", "frieren-beyond-journeys-end", false},
		{"valid path ID", "tv/1396", false},
		{"valid numeric", "12345", false},
		{"empty", "", true},
		{"path traversal dots", "../../etc/passwd", true},
		{"shell injection semicolon", "123; rm -rf /", true},
		{"shell injection backtick", "123`whoami`", true},
		{"shell injection dollar", "$(cat /etc/passwd)", true},
		{"newline injection", "123\n456", true},
		{"pipe injection", "123|ls", true},
		{"ampersand injection", "123&whoami", true},
		{"too long", string(make([]byte, 300)), true},
		{"spaces", "movie id with spaces", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestValidateNumericID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid", "12345", false},
		{"zero", "0", false},
		{"empty", "", true},
		{"letters", "abc", true},
		{"mixed", "123abc", true},
		{"negative", "-1", true},
		{"decimal", "1.5", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNumericID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNumericID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		query    url.Values
		segments []string
		expected string
	}{
		{"segments", "https://api.example.com/3/", nil, []string{"tv", "1396", "season", "2"}, "https://api.example.com/3/tv/1396/season/2"},
		{"escaped segment", "https://api.example.com", nil, []string{"a b/c"}, "https://api.example.com/a%20b%2Fc"},
		{"query", "https://api.example.com", url.Values{"page": {"2"}, "api_key": {"k"}}, []string{"movie", "popular"}, "https://api.example.com/movie/popular?api_key=k&page=2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildURL(tt.base, tt.query, tt.segments...)
			if got != tt.expected {
				t.Errorf("BuildURL() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestRedact(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://api.example.com/3/movie/1?api_key=secret", "https://api.example.com/3/movie/1?api_key=REDACTED"},
		{"https://api.example.com/3/movie/1?page=1", "https://api.example.com/3/movie/1?page=1"},
		{"https://api.example.com/?token=abc&q=x", "https://api.example.com/?q=x&token=REDACTED"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Redact(tt.input); got != tt.expected {
				t.Errorf("Redact(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
