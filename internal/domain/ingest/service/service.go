// Package service orchestrates the notification pipeline: normalize,
// classify, extract, categorize, and assemble a transaction candidate.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dinarko/dinarko/internal/domain/currency"
	"github.com/dinarko/dinarko/internal/domain/ingest/category"
	"github.com/dinarko/dinarko/internal/domain/ingest/classifier"
	"github.com/dinarko/dinarko/internal/domain/ingest/extractor"
	"github.com/dinarko/dinarko/internal/domain/ingest/repository"
	"github.com/dinarko/dinarko/internal/domain/rules"
	"github.com/dinarko/dinarko/pkg/observability"
)

// RawNotification is one notification as delivered by a capture client.
type RawNotification struct {
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	SourceApp  string    `json:"source_app"`
	ReceivedAt time.Time `json:"received_at"`
}

// Outcome is the pipeline's verdict on one notification. Candidate is
// non-nil exactly when Kind is Expense or Income: informational and
// unclassifiable notifications produce no candidate, and a monetary
// notification whose amount cannot be extracted is downgraded to
// Unknown.
type Outcome struct {
	Kind      classifier.Kind
	Candidate *repository.TransactionCandidate
}

// Notifier pushes feedback back to the device the capture came from.
type Notifier interface {
	Push(ctx context.Context, title, body string) error
}

// PipelineService runs the classification pipeline. Classify never
// returns an error: whatever the input looks like, the result is one
// of the four outcome kinds.
type PipelineService struct {
	rules      *rules.Tables
	currencies *currency.Table
	merchants  *extractor.MerchantExtractor
	repo       repository.CandidateRepository
	logger     *slog.Logger

	dailyAllowance float64
}

// NewPipelineService creates a pipeline over the given rule and
// currency tables. dailyAllowance is in the base currency; zero
// disables the remaining-allowance line in feedback messages.
func NewPipelineService(t *rules.Tables, c *currency.Table, repo repository.CandidateRepository, dailyAllowance float64, logger *slog.Logger) *PipelineService {
	return &PipelineService{
		rules:          t,
		currencies:     c,
		merchants:      extractor.NewMerchantExtractor(c),
		repo:           repo,
		logger:         logger,
		dailyAllowance: dailyAllowance,
	}
}

// Classify runs the full pipeline on one notification.
func (s *PipelineService) Classify(ctx context.Context, n RawNotification, autoTrackIncome bool) Outcome {
	_, span := otel.Tracer("IngestService").Start(ctx, "Classify", trace.WithAttributes(
		attribute.String("source_app", n.SourceApp),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		observability.ClassifyDuration.Observe(time.Since(start).Seconds())
	}()

	normalized := classifier.Normalize(n.Title, n.Body)
	kind := classifier.Classify(normalized, autoTrackIncome, s.rules.Classifier)

	switch kind {
	case classifier.Expense, classifier.Income:
		// fall through to extraction
	default:
		span.SetAttributes(attribute.String("outcome", kind.String()))
		observability.ClassificationsTotal.WithLabelValues(kind.String()).Inc()
		return Outcome{Kind: kind}
	}

	// Amount and merchant extraction work on the raw text: case is
	// preserved for currency tokens and merchant names.
	amount, ok := extractor.ExtractAmount(n.Title+" "+n.Body, s.currencies)
	if !ok {
		// Monetary text without a recoverable amount is not worth a
		// half-filled record.
		s.logger.Debug("amount extraction failed, downgrading",
			slog.String("source_app", n.SourceApp),
			slog.String("kind", kind.String()))
		observability.ExtractionFailures.Inc()
		observability.ClassificationsTotal.WithLabelValues(classifier.Unknown.String()).Inc()
		span.SetAttributes(attribute.String("outcome", classifier.Unknown.String()))
		return Outcome{Kind: classifier.Unknown}
	}

	c := s.buildCandidate(n, normalized, kind, amount)
	observability.ClassificationsTotal.WithLabelValues(kind.String()).Inc()
	span.SetAttributes(attribute.String("outcome", kind.String()))
	return Outcome{Kind: kind, Candidate: c}
}

func (s *PipelineService) buildCandidate(n RawNotification, normalized string, kind classifier.Kind, amount extractor.Amount) *repository.TransactionCandidate {
	merchant := s.merchants.Extract(n.Title + " " + n.Body)

	c := &repository.TransactionCandidate{
		ID:          uuid.New(),
		Type:        kind.String(),
		Amount:      s.currencies.ToBase(amount.Value, amount.Currency),
		Category:    category.Infer(normalized, merchant, s.rules),
		Description: normalized,
		Origin:      repository.OriginNotification,
		SourceApp:   n.SourceApp,
		CapturedAt:  n.ReceivedAt,
	}
	if merchant != "" {
		c.Merchant = &merchant
	}
	if amount.Currency.Code != s.currencies.Base().Code {
		orig := amount.Value
		code := amount.Currency.Code
		c.OriginalAmount = &orig
		c.OriginalCurrency = &code
	}
	return c
}

// Feedback renders the confirmation message for a committed candidate:
// what was recorded, and when an expense allowance is configured, how
// much of today's allowance remains.
func (s *PipelineService) Feedback(ctx context.Context, c *repository.TransactionCandidate) string {
	label := c.Category
	if c.Merchant != nil {
		label = *c.Merchant
	}
	base := s.currencies.Base().Code
	msg := fmt.Sprintf("Recorded %s: %.2f %s (%s)", c.Type, c.Amount, base, label)

	if s.dailyAllowance <= 0 || c.Type != "expense" {
		return msg
	}
	midnight := time.Date(c.CapturedAt.Year(), c.CapturedAt.Month(), c.CapturedAt.Day(), 0, 0, 0, 0, c.CapturedAt.Location())
	spent, err := s.repo.SpentSince(ctx, midnight)
	if err != nil {
		s.logger.Warn("allowance lookup failed", slog.Any("error", err))
		return msg
	}
	return fmt.Sprintf("%s. Remaining today: %.2f %s", msg, s.dailyAllowance-spent, base)
}
