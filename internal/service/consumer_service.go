package service

import (
	"context"
	"encoding/json"

	"ai-writing-be/internal/dto"
	"ai-writing-be/internal/pkg/logger"
	"ai-writing-be/pkg/citation"
	"ai-writing-be/pkg/citation/style"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// StyleLoader is satisfied by the style cache.
type StyleLoader interface {
	EnsureLoaded(ctx context.Context, key string) (*style.Definition, error)
}

// consumerService warms the style cache from queued StyleWarmupMessages.
type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	styles     StyleLoader
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	styles StyleLoader,
	logger logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		styles:     styles,
		logger:     logger,
	}
}

// Consume subscribes and processes messages in the background until ctx is
// cancelled or the subscriber is closed.
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.StyleWarmupMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("STYLE", "Dropping undecodable warmup message", map[string]interface{}{"error": err.Error()})
		msg.Ack()
		return
	}

	def, err := cs.styles.EnsureLoaded(ctx, payload.StyleKey)
	if err != nil {
		// Failed loads are not cached; the next request retries.
		if citation.KindOf(err) != citation.KindValidation {
			cs.logger.Warn("STYLE", "Style warmup failed", map[string]interface{}{
				"style": payload.StyleKey,
				"error": err.Error(),
			})
		}
		msg.Ack()
		return
	}

	cs.logger.Info("STYLE", "Style warmed up", map[string]interface{}{
		"style": def.Key,
		"title": def.Style.Title,
	})
	msg.Ack()
}
