package shortener

import (
	"context"
	"time"
)

// Default cache lifetimes per index. Codes never change meaning so they live longest; the hash
// index only has to catch repeated submissions.
const (
	DefaultCodeTTL  = 7 * 24 * time.Hour
	DefaultHashTTL  = 24 * time.Hour
	DefaultClaimTTL = 7 * 24 * time.Hour
)

// Claim is the cached knowledge about whether a short code is taken.
type Claim int

const (
	// ClaimUnknown means the cache holds no entry. It is not evidence that the code is free.
	ClaimUnknown Claim = iota
	ClaimFree
	ClaimTaken
)

func (c Claim) String() string {
	switch c {
	case ClaimFree:
		return "free"
	case ClaimTaken:
		return "taken"
	default:
		return "unknown"
	}
}

// Cache is an advisory accelerator in front of the Repository. Implementations absorb backend
// failures and report them as misses; none of the methods return errors. A ttl of zero selects
// the index default.
type Cache interface {
	GetByCode(ctx context.Context, code Code) (*ShortURL, bool)
	SetByCode(ctx context.Context, code Code, shortURL *ShortURL, ttl time.Duration)
	InvalidateByCode(ctx context.Context, code Code)

	GetByHash(ctx context.Context, hash URLHash) (*ShortURL, bool)
	SetByHash(ctx context.Context, hash URLHash, shortURL *ShortURL, ttl time.Duration)
	InvalidateByHash(ctx context.Context, hash URLHash)

	CheckCodeClaimed(ctx context.Context, code Code) Claim
	MarkCodeClaimed(ctx context.Context, code Code, claimed bool, ttl time.Duration)

	// Warm populates the by-code, by-hash and claimed entries for a record.
	Warm(ctx context.Context, shortURL *ShortURL)
	// Clear drops the by-code and by-hash entries for a record.
	Clear(ctx context.Context, shortURL *ShortURL)
}
