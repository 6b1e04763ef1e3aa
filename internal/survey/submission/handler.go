// internal/survey/submission/handler.go
package submission

import (
	"context"
	"fmt"
	"sync"
	"time"

	"rumble-survey/internal/common/errors"
	"rumble-survey/internal/common/logger"
	"rumble-survey/internal/common/metrics"
	"rumble-survey/internal/common/observability"
	"rumble-survey/internal/models"
	"rumble-survey/internal/survey/notify"
	"rumble-survey/internal/survey/store"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const notifyTimeout = 15 * time.Second

// Build assembles the submission for a finished session. It reads nothing but
// its input, so the same input always yields the same document.
func Build(in Input) (models.SessionSubmission, error) {
	if in.Session == nil || in.Log == nil {
		return models.SessionSubmission{}, errors.NewInvariantViolationError("build without a session")
	}
	if !in.Session.Done() {
		return models.SessionSubmission{}, errors.NewInvariantViolationError(
			fmt.Sprintf("build at position %d of %d", in.Session.Position, in.Session.Len()))
	}
	if in.Log.Len() != in.Session.Len() {
		return models.SessionSubmission{}, errors.NewInvariantViolationError(
			fmt.Sprintf("%d responses for %d questions", in.Log.Len(), in.Session.Len()))
	}
	if in.Keys.SubmissionID == "" || in.Keys.ValidationCode == "" {
		return models.SessionSubmission{}, errors.NewInvariantViolationError("session keys not drawn")
	}

	return models.SessionSubmission{
		SubmissionID:   in.Keys.SubmissionID,
		UserID:         in.UserID,
		Demographics:   in.Demographics,
		Responses:      in.Log.Records(),
		DeviceType:     ClassifyDevice(in.Device.UserAgent),
		Device:         in.Device,
		ValidationCode: in.Keys.ValidationCode,
	}, nil
}

// Handler delivers built submissions to the response store.
type Handler struct {
	config   Config
	store    store.Store
	notifier notify.Notifier
	obs      *observability.Observability
	logger   logger.Logger
	reporter *errors.Reporter
	wg       sync.WaitGroup
}

// NewHandler creates a Handler. A nil store puts the kiosk in degraded mode:
// submissions complete without being written anywhere.
func NewHandler(cfg Config, st store.Store, notifier notify.Notifier, obs *observability.Observability, log logger.Logger) *Handler {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if obs == nil {
		obs = observability.Noop()
	}
	if cfg.Collection == "" {
		cfg.Collection = store.Collection
	}
	h := &Handler{
		config:   cfg,
		store:    st,
		notifier: notifier,
		obs:      obs,
		logger:   log.WithFields(map[string]interface{}{"component": "submission"}),
	}
	h.reporter = errors.NewReporter(h.logger)
	return h
}

// Persisting reports whether a store is configured.
func (h *Handler) Persisting() bool {
	return h.store != nil
}

func (h *Handler) backend() string {
	if h.store == nil {
		return "none"
	}
	return h.store.Backend()
}

// Submit validates sub and appends it to the store once. It never retries and
// sets no deadline of its own; ctx governs the write.
func (h *Handler) Submit(ctx context.Context, sub models.SessionSubmission) (Outcome, error) {
	start := time.Now()
	backend := h.backend()

	ctx, span := h.obs.StartSpan(ctx, "survey.submit",
		attribute.String("backend", backend),
		attribute.String("submission.id", sub.SubmissionID),
		attribute.Int("responses", len(sub.Responses)),
	)
	defer span.End()

	fields := map[string]interface{}{
		"submissionId": sub.SubmissionID,
		"backend":      backend,
		"responses":    len(sub.Responses),
	}

	fail := func(err error) (Outcome, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.record(ctx, metrics.OutcomeFailed, backend, time.Since(start))
		h.reporter.Report("submission failed", err, fields)
		return Outcome{}, err
	}

	res, err := payloadValidator.Validate(sub)
	if err != nil {
		return fail(errors.NewPayloadInvalidError(err.Error()))
	}
	if !res.Valid {
		return fail(errors.NewPayloadInvalidError(res.Summary()))
	}

	if h.store == nil {
		elapsed := time.Since(start)
		h.record(ctx, metrics.OutcomeDegraded, backend, elapsed)
		span.SetAttributes(attribute.Bool("degraded", true))
		h.logger.Warn("no response store configured, submission completed without persistence", fields)
		return Outcome{Degraded: true, Backend: backend, Duration: elapsed}, nil
	}

	if sub.UserID == "" {
		return fail(errors.NewIdentityMissingError())
	}

	if err := h.store.AppendRecord(ctx, h.config.Collection, sub); err != nil {
		if _, ok := errors.As(err); !ok {
			err = errors.NewStoreUnavailableError(backend, err)
		}
		return fail(err)
	}

	elapsed := time.Since(start)
	metrics.SubmissionDuration.WithLabelValues(backend).Observe(elapsed.Seconds())
	h.record(ctx, metrics.OutcomePersisted, backend, elapsed)
	h.logger.Info("submission persisted", merge(fields, map[string]interface{}{
		"collection": h.config.Collection,
		"durationMs": elapsed.Milliseconds(),
	}))

	h.notify(sub)
	return Outcome{Persisted: true, Backend: backend, Duration: elapsed}, nil
}

func (h *Handler) record(ctx context.Context, outcome, backend string, d time.Duration) {
	metrics.SubmissionsTotal.WithLabelValues(outcome).Inc()
	h.obs.RecordSubmission(ctx, outcome, backend, d)
}

// notify runs in the background so a slow mail relay never holds the results screen.
func (h *Handler) notify(sub models.SessionSubmission) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := h.notifier.Notify(ctx, sub); err != nil {
			h.logger.Warn("completion notification failed", map[string]interface{}{
				"submissionId": sub.SubmissionID,
				"error":        err,
			})
		}
	}()
}

// Wait blocks until background notifications finish.
func (h *Handler) Wait() {
	h.wg.Wait()
}

func merge(base, extra map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
