package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxPool abstracts the subset of pgxpool.Pool used by the repository to allow mocking in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ PgxPool = (*pgxpool.Pool)(nil)

const insertCandidateQuery = `
	INSERT INTO captures (
		id, type, amount_base, original_amount, original_currency,
		category, description, merchant, origin, source_app, captured_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`

const recentBySourceQuery = `
	SELECT id, type, amount_base, original_amount, original_currency,
	       category, description, merchant, origin, source_app, captured_at, created_at
	FROM captures
	WHERE source_app = $1 AND captured_at >= $2
	ORDER BY captured_at DESC
	LIMIT $3
`

const spentSinceQuery = `
	SELECT COALESCE(SUM(amount_base), 0)
	FROM captures
	WHERE type = 'expense' AND captured_at >= $1
`

// PostgresCandidateRepository implements CandidateRepository on Postgres.
type PostgresCandidateRepository struct {
	pgpool PgxPool
}

// NewPostgresCandidateRepository creates a Postgres-backed candidate repository.
func NewPostgresCandidateRepository(pgpool PgxPool) *PostgresCandidateRepository {
	return &PostgresCandidateRepository{pgpool: pgpool}
}

// Insert commits one candidate, assigning an identifier when missing.
func (r *PostgresCandidateRepository) Insert(ctx context.Context, c *TransactionCandidate) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Origin == "" {
		c.Origin = OriginNotification
	}

	_, err := r.pgpool.Exec(ctx, insertCandidateQuery,
		c.ID, c.Type, c.Amount, c.OriginalAmount, c.OriginalCurrency,
		c.Category, c.Description, c.Merchant, c.Origin, c.SourceApp, c.CapturedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert candidate: %w", err)
	}
	return nil
}

// RecentBySource returns prior captures from the source inside the
// window, most recent first. The lower bound is inclusive.
func (r *PostgresCandidateRepository) RecentBySource(ctx context.Context, sourceApp string, since time.Time, limit int) ([]*TransactionCandidate, error) {
	rows, err := r.pgpool.Query(ctx, recentBySourceQuery, sourceApp, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent captures: %w", err)
	}

	candidates, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[TransactionCandidate])
	if err != nil {
		return nil, fmt.Errorf("failed to scan recent captures: %w", err)
	}
	return candidates, nil
}

// SpentSince sums base-currency expense amounts captured since the
// given instant.
func (r *PostgresCandidateRepository) SpentSince(ctx context.Context, since time.Time) (float64, error) {
	var total float64
	if err := r.pgpool.QueryRow(ctx, spentSinceQuery, since).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum spend: %w", err)
	}
	return total, nil
}
