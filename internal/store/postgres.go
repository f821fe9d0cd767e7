package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/shortlink/internal/shortener"
)

const (
	uniqueViolation    = "23505"
	codeConstraint     = "short_urls_code_key"
	urlHashConstraint  = "short_urls_url_hash_key"
	selectShortURLCols = "SELECT code, original_url, url_hash, created_at FROM short_urls"
)

//go:embed schema.sql
var schema string

// Migrate creates the short_urls table and its unique constraints when missing.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)

	return err
}

// PostgresStore is a PostgreSQL implementation of shortener.Repository.
type PostgresStore struct {
	pool      *pgxpool.Pool
	hashTaken func(ctx context.Context, hash shortener.URLHash) (bool, error)
}

// NewPostgresStore creates a new PostgreSQL-backed URL store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	p := &PostgresStore{pool: pool}
	p.hashTaken = p.urlHashExists

	return p
}

// Insert relies on the table's unique constraints; the constraint name on a unique violation
// tells which one fired. PostgreSQL stops at the first violated index, so a code violation is
// rechecked against the hash before it is reported.
func (p *PostgresStore) Insert(ctx context.Context, shortURL *shortener.ShortURL) (shortener.InsertResult, error) {
	query := `
		INSERT INTO short_urls (code, original_url, url_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := p.pool.Exec(ctx, query,
		string(shortURL.Code),
		shortURL.OriginalURL,
		string(shortURL.URLHash),
		shortURL.CreatedAt,
	)
	if err == nil {
		return shortener.Inserted, nil
	}

	return p.classifyInsertError(ctx, shortURL.URLHash, err)
}

func (p *PostgresStore) classifyInsertError(
	ctx context.Context,
	hash shortener.URLHash,
	err error,
) (shortener.InsertResult, error) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return 0, err
	}

	switch pgErr.ConstraintName {
	case urlHashConstraint:
		return shortener.ConflictHash, nil
	case codeConstraint:
		taken, lookupErr := p.hashTaken(ctx, hash)
		if lookupErr != nil {
			return 0, fmt.Errorf("check url hash after code conflict: %w", lookupErr)
		}

		if taken {
			return shortener.ConflictHash, nil
		}

		return shortener.ConflictCode, nil
	default:
		return 0, err
	}
}

func (p *PostgresStore) urlHashExists(ctx context.Context, hash shortener.URLHash) (bool, error) {
	var exists bool

	err := p.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM short_urls WHERE url_hash = $1)",
		string(hash),
	).Scan(&exists)

	return exists, err
}

// GetByCode returns shortener.ErrNotFound when no row has code.
func (p *PostgresStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.ShortURL, error) {
	return p.queryOne(ctx, selectShortURLCols+" WHERE code = $1", string(code))
}

// GetByHash returns shortener.ErrNotFound when no row has hash.
func (p *PostgresStore) GetByHash(ctx context.Context, hash shortener.URLHash) (*shortener.ShortURL, error) {
	return p.queryOne(ctx, selectShortURLCols+" WHERE url_hash = $1", string(hash))
}

func (p *PostgresStore) queryOne(ctx context.Context, query string, arg string) (*shortener.ShortURL, error) {
	var url shortener.ShortURL

	err := p.pool.QueryRow(ctx, query, arg).Scan(
		&url.Code,
		&url.OriginalURL,
		&url.URLHash,
		&url.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, err
	}

	return &url, nil
}

// Compile-time check.
var _ shortener.Repository = (*PostgresStore)(nil)
