// Package main hosts the job scraping service entrypoint.
//
// Architecture overview:
//   - Fetch pipeline: internal/client wraps a Colly collector with response
//     caching, proxy and user-agent rotation, and a retry schedule that
//     classifies failures (rate limited, client error, transient) before
//     deciding whether to spend another attempt.
//   - Throttling: internal/ratelimit keeps per-source counters in a KV store
//     bucketed by minute. Acquire blocks until the current bucket has budget,
//     so callers never race past a source's requests-per-minute ceiling.
//   - Extraction: internal/extract/indeed parses search result cards and
//     detail pages with goquery, tags description blocks into qualification,
//     responsibility, and benefit lists, and resolves relative posting dates.
//   - Rendering: detail pages that require JavaScript go through the
//     Chromedp renderer, capped by a slot semaphore sized from config.
//   - Normalization & delivery: internal/normalize merges search and detail
//     fields into a schema-complete record with a deterministic job id, then
//     internal/scrape upserts it into Postgres, optionally publishes it to
//     Pub/Sub, archives the raw HTML, and asks the salary service for an
//     estimate when the posting lists none.
//   - Configuration & plumbing: Viper populates config from env/files; zap
//     provides structured logging; Prometheus metrics and health probes are
//     served by the ops listener on its own port.
//
// Operational notes:
//   - Concurrency model: search pages are fetched sequentially; detail pages
//     fan out through an errgroup bounded by scrape.detail_workers. Shutdown
//     is coordinated via context cancellation from main.
//   - Per-listing failures are logged and skipped; a run only aborts when a
//     search page cannot be fetched or the context is canceled.
package main
