// Package repository persists transaction candidates and answers the
// dedup window query. The pipeline itself never touches storage; only
// the recorder does, through the CandidateRepository interface.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OriginNotification marks records produced by the notification
// pipeline, as opposed to manual entry or statement import.
const OriginNotification = "notification-derived"

// TransactionCandidate is a fully extracted, not-yet-committed
// transaction. Amount is always in the base currency. OriginalAmount
// and OriginalCurrency are set only when a conversion happened; both
// nil means the notification was already in the base currency, and
// audit display relies on that distinction.
type TransactionCandidate struct {
	ID               uuid.UUID  `db:"id"`
	Type             string     `db:"type"` // expense | income
	Amount           float64    `db:"amount_base"`
	OriginalAmount   *float64   `db:"original_amount"`
	OriginalCurrency *string    `db:"original_currency"`
	Category         string     `db:"category"`
	Description      string     `db:"description"`
	Merchant         *string    `db:"merchant"`
	Origin           string     `db:"origin"`
	SourceApp        string     `db:"source_app"`
	CapturedAt       time.Time  `db:"captured_at"`
	CreatedAt        *time.Time `db:"created_at"`
}

// CandidateRepository is the persistence collaborator consumed by the
// recorder and the feedback builder.
type CandidateRepository interface {
	// Insert commits one candidate.
	Insert(ctx context.Context, c *TransactionCandidate) error

	// RecentBySource returns candidates captured by the given source at
	// or after since (the dedup window's inclusive lower bound), most
	// recent first, at most limit rows.
	RecentBySource(ctx context.Context, sourceApp string, since time.Time, limit int) ([]*TransactionCandidate, error)

	// SpentSince sums base-currency expense amounts captured at or
	// after since. Feeds the remaining-daily-allowance feedback line.
	SpentSince(ctx context.Context, since time.Time) (float64, error)
}
