// Package memory offers an in-memory Publisher for tests and local runs.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
)

// Message is a published payload captured by the in-memory publisher.
type Message struct {
	Topic string
	Data  []byte
}

// Publisher records published payloads instead of sending them anywhere.
type Publisher struct {
	mu       sync.Mutex
	messages []Message
}

// New constructs an empty in-memory publisher.
func New() *Publisher {
	return &Publisher{}
}

// Publish marshals the payload to JSON and appends it to the captured list.
func (p *Publisher) Publish(_ context.Context, topic string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, Message{Topic: topic, Data: data})
	return strconv.Itoa(len(p.messages)), nil
}

// Messages returns a copy of everything published so far.
func (p *Publisher) Messages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Message, len(p.messages))
	copy(out, p.messages)
	return out
}
