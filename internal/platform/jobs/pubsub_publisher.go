// Package jobs publishes store events to Pub/Sub so back-office consumers
// (order fulfilment, booking confirmations) can react asynchronously.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub"

	"github.com/petshop-baronesa/api/internal/services"
)

// PubSubEventPublisher sends store events to one Pub/Sub topic. The event
// body travels as JSON; the type, id, user, and reference ride along as
// message attributes so subscribers can filter without decoding.
type PubSubEventPublisher struct {
	topic *pubsub.Topic
}

// NewPubSubEventPublisher wraps the topic. The topic must already exist.
func NewPubSubEventPublisher(topic *pubsub.Topic) (*PubSubEventPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub event publisher: topic is required")
	}
	return &PubSubEventPublisher{topic: topic}, nil
}

// PublishEvent enqueues the event and returns the server-assigned message id.
func (p *PubSubEventPublisher) PublishEvent(ctx context.Context, event services.StoreEvent) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("pubsub event publisher: not initialised")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal store event: %w", err)
	}

	attrs := make(map[string]string, 4)
	for key, value := range map[string]string{
		"eventType": event.Type,
		"eventId":   event.ID,
		"userId":    event.UserID,
		"reference": event.Reference,
	} {
		if value = strings.TrimSpace(value); value != "" {
			attrs[key] = value
		}
	}

	id, err := p.topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs}).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish store event: %w", err)
	}
	return id, nil
}

var _ services.EventPublisher = (*PubSubEventPublisher)(nil)
