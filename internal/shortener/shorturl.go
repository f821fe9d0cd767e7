package shortener

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// MaxURLLength is the longest normalized URL the service accepts.
const MaxURLLength = 2048

// Code represents a short URL code.
type Code string

// URLHash represents a hash of a normalized URL.
type URLHash string

// ShortURL represents a shortened URL entity.
type ShortURL struct {
	Code        Code
	OriginalURL string
	URLHash     URLHash
	CreatedAt   time.Time
}

// HashURL computes the SHA-256 content hash of a normalized URL as lowercase hex.
func HashURL(normalizedURL string) URLHash {
	h := sha256.Sum256([]byte(normalizedURL))

	return URLHash(hex.EncodeToString(h[:]))
}

func validHash(hash URLHash) bool {
	if len(hash) != sha256.Size*2 {
		return false
	}

	for i := range len(hash) {
		c := hash[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}

	return true
}
