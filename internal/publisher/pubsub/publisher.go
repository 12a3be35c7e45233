// Package pubsub implements a Google Cloud Pub/Sub publisher for job records.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
)

// Config identifies the target project and topic.
type Config struct {
	ProjectID string
	Topic     string
}

// Publisher wraps a Pub/Sub topic and publishes JSON payloads to it.
type Publisher struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// New connects to Pub/Sub and prepares the configured topic for publishing.
func New(ctx context.Context, cfg Config) (*Publisher, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("pubsub.project_id is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("pubsub.topic is required")
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("connect pubsub: %w", err)
	}
	return &Publisher{
		client: client,
		topic:  client.Topic(cfg.Topic),
	}, nil
}

// NewWithTopic constructs a Publisher around an existing topic (primarily for testing).
func NewWithTopic(topic *pubsub.Topic) *Publisher {
	return &Publisher{topic: topic}
}

// Publish marshals the payload to JSON and publishes it, returning the server
// message id. The topic argument is ignored; the topic is fixed at construction.
func (p *Publisher) Publish(ctx context.Context, _ string, payload any) (string, error) {
	if p == nil || p.topic == nil {
		return "", fmt.Errorf("pubsub publisher is not configured")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	result := p.topic.Publish(ctx, &pubsub.Message{Data: data})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish message: %w", err)
	}
	return id, nil
}

// Close stops the topic and releases the underlying client.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if p.topic != nil {
		p.topic.Stop()
	}
	if p.client != nil {
		_ = p.client.Close()
	}
}
