package jobs

import (
	"context"
	"time"
)

// Fetcher retrieves one page through the resilient request path.
type Fetcher interface {
	Fetch(ctx context.Context, req PageRequest) (PageResponse, error)
}

// Renderer loads a URL in a browser, waits for the given selector, and
// returns the rendered document. It is a collaborator: the pipeline only
// consumes its output.
type Renderer interface {
	Render(ctx context.Context, url, waitSelector string, timeout time.Duration) (string, error)
}

// RecordStore hands normalized records to the external storage/search layer.
// Upsert is keyed by JobID; writing the same record twice is a no-op update.
type RecordStore interface {
	Upsert(ctx context.Context, record JobRecord) error
}

// Publisher pushes ingestion events downstream (Pub/Sub or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Predictor is the opaque salary prediction service.
type Predictor interface {
	Predict(ctx context.Context, title, location string) (Estimate, error)
}

// Archive persists raw page bodies for replay and debugging.
type Archive interface {
	Put(ctx context.Context, path string, data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// Sleeper blocks for a duration or until the context is canceled. Throttle
// waits and retry backoff go through it so tests can run on a fake clock.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}
