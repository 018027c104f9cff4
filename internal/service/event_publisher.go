package service

import (
	"context"
	"time"

	"ai-writing-be/internal/pkg/logger"
	pkgEvents "ai-writing-be/pkg/events"
)

// BusPublisher is the part of the NATS publisher the services need.
type BusPublisher interface {
	Publish(ctx context.Context, event pkgEvents.Event) error
}

// ICitationEventPublisher emits citation domain events. Publishing is best
// effort: failures are logged and never reach the caller.
type ICitationEventPublisher interface {
	CitationCreated(ctx context.Context, citeId, historyId, userId, style, mode string)
	SessionStarted(ctx context.Context, historyId, userId string)
}

type citationEventPublisher struct {
	bus    BusPublisher
	logger logger.ILogger
}

// NewCitationEventPublisher accepts a nil bus, in which case nothing is sent.
func NewCitationEventPublisher(bus BusPublisher, logger logger.ILogger) ICitationEventPublisher {
	return &citationEventPublisher{bus: bus, logger: logger}
}

func (p *citationEventPublisher) CitationCreated(ctx context.Context, citeId, historyId, userId, style, mode string) {
	p.publish(ctx, pkgEvents.NewCitationCreated(citeId, historyId, userId, style, mode, time.Now()))
}

func (p *citationEventPublisher) SessionStarted(ctx context.Context, historyId, userId string) {
	p.publish(ctx, pkgEvents.NewCitationSessionStarted(historyId, userId, time.Now()))
}

func (p *citationEventPublisher) publish(ctx context.Context, evt pkgEvents.BaseEvent) {
	if p.bus == nil {
		return
	}
	if err := p.bus.Publish(ctx, evt); err != nil {
		p.logger.Error("EVENTS", "Failed to publish "+evt.Type+" event", map[string]interface{}{"error": err.Error()})
	}
}
