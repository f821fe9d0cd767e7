package shortener

import "context"

// InsertResult tells the assigner how an insert attempt ended when the store itself worked.
type InsertResult int

const (
	// Inserted means the record was persisted.
	Inserted InsertResult = iota
	// ConflictHash means a record with the same URL hash already exists.
	ConflictHash
	// ConflictCode means the short code belongs to a different record.
	ConflictCode
)

func (r InsertResult) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case ConflictHash:
		return "conflict_hash"
	case ConflictCode:
		return "conflict_code"
	default:
		return "unknown"
	}
}

// Repository is the durable record store. It is the only authority on which codes and hashes
// exist.
type Repository interface {
	// Insert persists shortURL in one indivisible operation enforcing uniqueness of both Code and
	// URLHash. Uniqueness violations are reported through the result, never as an error; a
	// non-nil error means the store failed. When both constraints would fire, ConflictHash wins.
	Insert(ctx context.Context, shortURL *ShortURL) (InsertResult, error)

	// GetByCode returns ErrNotFound when no record has the code.
	GetByCode(ctx context.Context, code Code) (*ShortURL, error)

	// GetByHash returns ErrNotFound when no record has the hash.
	GetByHash(ctx context.Context, hash URLHash) (*ShortURL, error)
}
