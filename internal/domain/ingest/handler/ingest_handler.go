// Package handler exposes the notification intake endpoints.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dinarko/dinarko/internal/domain/common"
	"github.com/dinarko/dinarko/internal/domain/ingest/recorder"
	"github.com/dinarko/dinarko/internal/domain/ingest/service"
	"github.com/dinarko/dinarko/pkg/observability"
)

// batchWorkers bounds concurrent pipeline runs for one batch request.
const batchWorkers = 4

// maxBatchSize caps how many notifications one batch request may carry.
const maxBatchSize = 100

// Preferences answers per-user processing choices. Today the only one
// is whether income notifications become transactions or stay
// informational.
type Preferences interface {
	AutoTrackIncome(ctx context.Context) bool
}

// StaticPreferences is a Preferences backed by fixed configuration.
type StaticPreferences struct {
	TrackIncome bool
}

func (p StaticPreferences) AutoTrackIncome(context.Context) bool {
	return p.TrackIncome
}

// CaptureResult reports what the pipeline did with one notification.
type CaptureResult struct {
	Outcome    string     `json:"outcome"`
	Recorded   bool       `json:"recorded"`
	Suppressed bool       `json:"suppressed,omitempty"`
	Ignored    bool       `json:"ignored,omitempty"`
	ID         *uuid.UUID `json:"id,omitempty"`
	Message    string     `json:"message,omitempty"`
}

// IngestHandler handles notification intake over HTTP.
type IngestHandler struct {
	pipeline *service.PipelineService
	recorder *recorder.Recorder
	notifier service.Notifier
	prefs    Preferences
	sources  map[string]struct{}
	logger   *slog.Logger
}

// NewIngestHandler constructs the intake handler. allowedSources is the
// source-app whitelist; notifications from any other package name are
// counted and dropped without processing.
func NewIngestHandler(
	pipeline *service.PipelineService,
	rec *recorder.Recorder,
	notifier service.Notifier,
	prefs Preferences,
	allowedSources []string,
	logger *slog.Logger,
) *IngestHandler {
	sources := make(map[string]struct{}, len(allowedSources))
	for _, s := range allowedSources {
		sources[s] = struct{}{}
	}
	return &IngestHandler{
		pipeline: pipeline,
		recorder: rec,
		notifier: notifier,
		prefs:    prefs,
		sources:  sources,
		logger:   logger.With(slog.String("handler", "ingest")),
	}
}

// Capture processes a single notification.
func (h *IngestHandler) Capture(w http.ResponseWriter, r *http.Request) {
	var n service.RawNotification
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	if n.SourceApp == "" {
		respondError(w, h.logger, http.StatusBadRequest, errors.New("source_app is required"))
		return
	}

	result := h.process(r.Context(), n)
	respondJSON(w, http.StatusOK, result)
}

// CaptureBatch processes up to maxBatchSize notifications in one
// request, preserving input order in the response.
func (h *IngestHandler) CaptureBatch(w http.ResponseWriter, r *http.Request) {
	var batch []service.RawNotification
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	if len(batch) == 0 {
		respondError(w, h.logger, http.StatusBadRequest, errors.New("batch is empty"))
		return
	}
	if len(batch) > maxBatchSize {
		respondError(w, h.logger, http.StatusBadRequest, errors.New("batch exceeds 100 notifications"))
		return
	}
	for _, n := range batch {
		if n.SourceApp == "" {
			respondError(w, h.logger, http.StatusBadRequest, errors.New("source_app is required"))
			return
		}
	}

	results := make([]CaptureResult, len(batch))
	g, gctx := errgroup.WithContext(r.Context())
	g.SetLimit(batchWorkers)
	for i := range batch {
		g.Go(func() error {
			results[i] = h.process(gctx, batch[i])
			return nil
		})
	}
	// Workers never return errors; Wait only joins them.
	_ = g.Wait()

	respondJSON(w, http.StatusOK, results)
}

// process runs one notification through whitelist, pipeline, recorder,
// and feedback. It never fails: every path produces a result.
func (h *IngestHandler) process(ctx context.Context, n service.RawNotification) CaptureResult {
	if _, ok := h.sources[n.SourceApp]; !ok {
		observability.SourcesRejected.Inc()
		h.logger.Debug("source not whitelisted", slog.String("source_app", n.SourceApp))
		return CaptureResult{Outcome: "ignored", Ignored: true}
	}
	if n.ReceivedAt.IsZero() {
		n.ReceivedAt = time.Now()
	}

	out := h.pipeline.Classify(ctx, n, h.prefs.AutoTrackIncome(ctx))
	result := CaptureResult{Outcome: out.Kind.String()}
	if out.Candidate == nil {
		return result
	}

	if err := h.recorder.Record(ctx, out.Candidate); err != nil {
		if errors.Is(err, common.ErrDuplicate) {
			result.Suppressed = true
			return result
		}
		h.logger.Error("record failed",
			slog.String("source_app", n.SourceApp),
			slog.Any("error", err))
		return result
	}

	result.Recorded = true
	result.ID = &out.Candidate.ID
	result.Message = h.pipeline.Feedback(ctx, out.Candidate)

	if h.notifier != nil {
		if err := h.notifier.Push(ctx, "Dinarko", result.Message); err != nil {
			h.logger.Warn("feedback push failed", slog.Any("error", err))
		}
	}
	return result
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	logger.Debug("request rejected", slog.Int("status", status), slog.Any("error", err))
	respondJSON(w, status, map[string]string{"error": err.Error()})
}
