package urlcheck_test

import (
	"strings"
	"testing"

	"github.com/serroba/shortlink/internal/shortener"
	"github.com/serroba/shortlink/internal/urlcheck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"adds https scheme", "example.com/page", "https://example.com/page"},
		{"strips trailing slash", "https://example.com/page/", "https://example.com/page"},
		{"trims whitespace", "  https://example.com/page \n", "https://example.com/page"},
		{"keeps http", "http://example.com/page", "http://example.com/page"},
		{"lowercases scheme and host", "HTTPS://Example.COM/Page", "https://example.com/Page"},
		{"drops default https port", "https://example.com:443/page", "https://example.com/page"},
		{"drops default http port", "http://example.com:80/page", "http://example.com/page"},
		{"keeps custom port", "https://example.com:8443/page", "https://example.com:8443/page"},
		{"drops fragment", "https://example.com/page#section", "https://example.com/page"},
		{"keeps trailing slash before query", "https://example.com/page/?q=1", "https://example.com/page/?q=1"},
		{"bare root", "https://example.com/", "https://example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hash, err := urlcheck.Normalize(tt.raw)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, shortener.HashURL(tt.want), hash)
		})
	}
}

func TestNormalize_EquivalentSpellingsShareHash(t *testing.T) {
	_, a, err := urlcheck.Normalize("example.com/page")
	require.NoError(t, err)

	_, b, err := urlcheck.Normalize("https://example.com/page/")
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestNormalize_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"empty", "", urlcheck.ErrEmptyURL},
		{"blank", "   ", urlcheck.ErrEmptyURL},
		{"too long", "https://example.com/" + strings.Repeat("a", shortener.MaxURLLength), urlcheck.ErrURLTooLong},
		{"javascript", "javascript:alert(1)", urlcheck.ErrUnsafeURL},
		{"data in query", "https://example.com/?next=data:text/html,x", urlcheck.ErrUnsafeURL},
		{"vbscript uppercase", "https://example.com/VBScript:run", urlcheck.ErrUnsafeURL},
		{"ftp scheme", "ftp://example.com/file", urlcheck.ErrInvalidURL},
		{"spaces in host", "https://exa mple.com", urlcheck.ErrInvalidURL},
		{"no host", "https://", urlcheck.ErrInvalidURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hash, err := urlcheck.Normalize(tt.raw)

			require.ErrorIs(t, err, tt.want)
			assert.Empty(t, got)
			assert.Empty(t, hash)
		})
	}
}
