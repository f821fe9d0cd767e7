// Package urlcheck turns user input into the normalized URL and content hash the shortener works on.
package urlcheck

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/serroba/shortlink/internal/shortener"
)

var (
	ErrEmptyURL   = errors.New("url must not be empty")
	ErrURLTooLong = fmt.Errorf("url must be at most %d characters", shortener.MaxURLLength)
	ErrUnsafeURL  = errors.New("url contains a dangerous pattern")
	ErrInvalidURL = errors.New("invalid url")
)

var dangerousPatterns = []string{"javascript:", "data:", "vbscript:"}

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

var validate = validator.New()

// Normalize validates raw and returns its canonical form together with the content hash.
// Equivalent spellings of one URL yield the same result.
func Normalize(raw string) (string, shortener.URLHash, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", ErrEmptyURL
	}

	if !hasHTTPScheme(raw) {
		if strings.Contains(raw, "://") {
			return "", "", fmt.Errorf("%w: only http and https are supported", ErrInvalidURL)
		}

		raw = "https://" + raw
	}

	if len(raw) > shortener.MaxURLLength {
		return "", "", ErrURLTooLong
	}

	lower := strings.ToLower(raw)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lower, pattern) {
			return "", "", ErrUnsafeURL
		}
	}

	if err := validate.Var(raw, "required,url"); err != nil {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidURL, raw)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	if u.Hostname() == "" {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidURL, raw)
	}

	normalized := canonical(u)
	if len(normalized) > shortener.MaxURLLength {
		return "", "", ErrURLTooLong
	}

	return normalized, shortener.HashURL(normalized), nil
}

func hasHTTPScheme(raw string) bool {
	lower := strings.ToLower(raw)

	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func canonical(u *url.URL) string {
	u.Scheme = strings.ToLower(u.Scheme)

	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" && port != defaultPorts[u.Scheme] {
		host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}

	u.Host = host
	u.Fragment = ""
	u.RawFragment = ""

	if u.RawQuery == "" && !u.ForceQuery {
		u.Path = strings.TrimRight(u.Path, "/")
		u.RawPath = strings.TrimRight(u.RawPath, "/")
	}

	return u.String()
}
