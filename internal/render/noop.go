package render

import (
	"context"
	"errors"
	"time"
)

// Noop implements jobs.Renderer but always fails, signaling that headless
// rendering is unavailable in the current build.
type Noop struct{}

// NewNoop creates a Noop renderer.
func NewNoop() *Noop {
	return &Noop{}
}

// Render returns an error since this is a stub implementation.
func (Noop) Render(_ context.Context, _, _ string, _ time.Duration) (string, error) {
	return "", errors.New("renderer not configured")
}
