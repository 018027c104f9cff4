// Package pipeline sequences identifier resolution, rendering and persistence
// for one citation request and enforces the per-session operation cap.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"ai-writing-be/internal/pkg/logger"
	"ai-writing-be/pkg/citation"
	"ai-writing-be/pkg/citation/csl"
	"ai-writing-be/pkg/citation/render"
	"ai-writing-be/pkg/citation/style"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Resolver interface {
	Resolve(ctx context.Context, identifier string) (csl.Metadata, error)
}

type Renderer interface {
	Render(ctx context.Context, src render.Source, styleKey string) (string, error)
}

// SessionTracker counts persisted operations per work session. Count and
// Increment return citation.ErrUnknownSession for a history id the user did
// not start.
type SessionTracker interface {
	Start(ctx context.Context, userID string) (string, error)
	Count(ctx context.Context, userID, historyID string) (int, error)
	Increment(ctx context.Context, userID, historyID string) (int, error)
}

// History stores finished citations and returns their id.
type History interface {
	SubmitCitation(ctx context.Context, rec *Record) (string, error)
}

type Orchestrator struct {
	resolver Resolver
	renderer Renderer
	sessions SessionTracker
	history  History
	logger   logger.ILogger
	tracer   trace.Tracer
	now      func() time.Time
}

func New(resolver Resolver, renderer Renderer, sessions SessionTracker, history History, logger logger.ILogger) *Orchestrator {
	return &Orchestrator{
		resolver: resolver,
		renderer: renderer,
		sessions: sessions,
		history:  history,
		logger:   logger,
		tracer:   otel.Tracer("ai-writing-be/citation"),
		now:      time.Now,
	}
}

// WithClock replaces the timestamp source for created records.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Run drives one request to a terminal state. A validation failure leaves the
// result in StateValidating; the cap leaves it in StateLimitReached. A
// persistence failure is not an error: the result is Done with a Warning.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	res := &Result{State: StateIdle, Transitions: []State{StateIdle}}

	ctx, span := o.tracer.Start(ctx, "citation.pipeline", trace.WithAttributes(
		attribute.String("citation.mode", string(req.Mode)),
		attribute.String("citation.style", req.Style),
	))
	defer span.End()

	res.enter(StateValidating)
	styleKey, err := validate(req)
	if err != nil {
		span.SetStatus(codes.Error, "validation")
		return res, err
	}

	historyID := req.HistoryID
	if historyID == "" {
		historyID, err = o.sessions.Start(ctx, req.UserID)
		if err != nil {
			return o.fail(span, res, req, "Failed to start work session", err)
		}
	}
	res.HistoryID = historyID
	span.SetAttributes(attribute.String("citation.history_id", historyID))

	used, err := o.sessions.Count(ctx, req.UserID, historyID)
	if errors.Is(err, citation.ErrUnknownSession) {
		span.SetStatus(codes.Error, "validation")
		return res, err
	}
	if err != nil {
		return o.fail(span, res, req, "Failed to read work session counter", err)
	}
	if used >= citation.SessionCap {
		res.enter(StateLimitReached)
		o.logger.Warn("CITATION", "Work session limit reached", map[string]interface{}{
			"history_id": historyID,
			"used":       used,
		})
		span.SetStatus(codes.Error, "limit reached")
		return res, citation.ErrLimitReached
	}

	var src render.Source
	var metadata csl.Metadata
	if req.Mode == ModeCreate {
		res.enter(StateResolving)
		metadata, err = o.resolve(ctx, req.Identifier)
		if err != nil {
			return o.fail(span, res, req, "Identifier resolution failed", err)
		}
		src = metadata
	} else {
		src = csl.RawText(req.Text)
	}

	res.enter(StateRendering)
	text, err := o.render(ctx, src, styleKey)
	if err != nil {
		return o.fail(span, res, req, "Citation rendering failed", err)
	}
	res.Text = text

	res.enter(StatePersisting)
	rec := &Record{
		HistoryID:  historyID,
		UserID:     req.UserID,
		Mode:       req.Mode,
		Identifier: strings.TrimSpace(req.Identifier),
		InputText:  req.Text,
		Metadata:   metadata,
		Style:      styleKey,
		Text:       text,
		CreatedAt:  o.now(),
	}
	citeID, err := o.persist(ctx, rec)
	if err != nil {
		res.Warning = &citation.PersistenceError{Cause: err}
		o.logger.Error("CITATION", "Citation rendered but not saved", map[string]interface{}{
			"history_id": historyID,
			"identifier": rec.Identifier,
			"style":      styleKey,
			"error":      err.Error(),
		})
		res.enter(StateDone)
		return res, nil
	}
	rec.CiteID = citeID
	res.Record = rec

	if _, err := o.sessions.Increment(ctx, req.UserID, historyID); err != nil {
		o.logger.Warn("CITATION", "Failed to increment work session counter", map[string]interface{}{
			"history_id": historyID,
			"error":      err.Error(),
		})
	}

	res.enter(StateDone)
	o.logger.Info("CITATION", "Citation created", map[string]interface{}{
		"cite_id":    citeID,
		"history_id": historyID,
		"style":      styleKey,
		"mode":       string(req.Mode),
	})
	return res, nil
}

func validate(req Request) (string, error) {
	switch req.Mode {
	case ModeCreate:
		if strings.TrimSpace(req.Identifier) == "" {
			return "", &citation.ValidationError{Field: "DOI or URL", Reason: "identifier is empty"}
		}
	case ModeConvert:
		if strings.TrimSpace(req.Text) == "" {
			return "", &citation.ValidationError{Field: "citation text", Reason: "text is empty"}
		}
	default:
		return "", &citation.ValidationError{Field: "mode", Reason: "unknown mode " + string(req.Mode)}
	}
	return style.Normalize(req.Style)
}

func (o *Orchestrator) resolve(ctx context.Context, identifier string) (csl.Metadata, error) {
	ctx, span := o.tracer.Start(ctx, "citation.resolve", trace.WithAttributes(attribute.String("citation.identifier", identifier)))
	defer span.End()

	md, err := o.resolver.Resolve(ctx, identifier)
	if err != nil {
		recordError(span, err)
	}
	return md, err
}

func (o *Orchestrator) render(ctx context.Context, src render.Source, styleKey string) (string, error) {
	ctx, span := o.tracer.Start(ctx, "citation.render")
	defer span.End()

	text, err := o.renderer.Render(ctx, src, styleKey)
	if err != nil {
		recordError(span, err)
	}
	return text, err
}

func (o *Orchestrator) persist(ctx context.Context, rec *Record) (string, error) {
	ctx, span := o.tracer.Start(ctx, "citation.persist")
	defer span.End()

	id, err := o.history.SubmitCitation(ctx, rec)
	if err != nil {
		recordError(span, err)
	}
	return id, err
}

func (o *Orchestrator) fail(span trace.Span, res *Result, req Request, message string, err error) (*Result, error) {
	res.enter(StateError)
	recordError(span, err)

	details := map[string]interface{}{
		"history_id": res.HistoryID,
		"identifier": strings.TrimSpace(req.Identifier),
		"style":      req.Style,
		"kind":       string(citation.KindOf(err)),
		"error":      err.Error(),
	}
	var upstream *citation.UpstreamError
	if errors.As(err, &upstream) {
		details["status"] = upstream.Status
	}
	o.logger.Error("CITATION", message, details)
	return res, err
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(citation.KindOf(err)))
}
