// Package scrape coordinates the full ingestion pipeline: throttled search
// fetches, rendered detail pages, extraction, normalization, and delivery to
// the record store and downstream consumers.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/im-caveman/yagaami/internal/jobs"
	"github.com/im-caveman/yagaami/internal/metrics"
	"github.com/im-caveman/yagaami/internal/normalize"
	"github.com/im-caveman/yagaami/internal/ratelimit"
)

// Extractor is the site-specific part of the pipeline. One implementation
// per job board.
type Extractor interface {
	SearchRequest(query, location string, page int) jobs.PageRequest
	SearchPage(html string) ([]jobs.Listing, error)
	DetailURL(sourceID string) string
	DetailWaitSelector() string
	DetailPage(html, pageURL string) (jobs.RawFields, error)
}

// Config tunes one Scraper instance.
type Config struct {
	// Source names the job board, and prefixes the rate limiter keys.
	Source string
	// DetailWorkers bounds concurrent detail-page processing.
	DetailWorkers int
	// Topic is the publisher topic for ingested records.
	Topic string
	// RenderTimeout bounds one headless page load.
	RenderTimeout time.Duration
}

// Query describes one search run.
type Query struct {
	Term     string
	Location string
	Pages    int
}

// Report summarizes a finished run.
type Report struct {
	RunID    string
	Pages    int
	Listings int
	Upserted int
	Skipped  int
}

// Scraper drives the search-then-detail pipeline. The renderer, publisher,
// predictor, and archive collaborators are optional; nil disables them.
type Scraper struct {
	cfg       Config
	fetcher   jobs.Fetcher
	renderer  jobs.Renderer
	extractor Extractor
	limiter   *ratelimit.Limiter
	store     jobs.RecordStore
	publisher jobs.Publisher
	predictor jobs.Predictor
	archive   jobs.Archive
	clock     jobs.Clock
	logger    *zap.Logger
}

// New wires a Scraper. Fetcher, extractor, limiter, store, and clock are
// required.
func New(
	cfg Config,
	fetcher jobs.Fetcher,
	renderer jobs.Renderer,
	extractor Extractor,
	limiter *ratelimit.Limiter,
	store jobs.RecordStore,
	publisher jobs.Publisher,
	predictor jobs.Predictor,
	archive jobs.Archive,
	clock jobs.Clock,
	logger *zap.Logger,
) (*Scraper, error) {
	if cfg.Source == "" {
		return nil, fmt.Errorf("scrape source is required")
	}
	if fetcher == nil || extractor == nil || limiter == nil || store == nil || clock == nil {
		return nil, fmt.Errorf("fetcher, extractor, limiter, store, and clock are required")
	}
	if cfg.DetailWorkers <= 0 {
		cfg.DetailWorkers = 4
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scraper{
		cfg:       cfg,
		fetcher:   fetcher,
		renderer:  renderer,
		extractor: extractor,
		limiter:   limiter,
		store:     store,
		publisher: publisher,
		predictor: predictor,
		archive:   archive,
		clock:     clock,
		logger:    logger,
	}, nil
}

// Run executes the query page by page. Failures on individual listings are
// logged and skipped; the run only aborts when the context is canceled or a
// search page cannot be fetched at all.
func (s *Scraper) Run(ctx context.Context, q Query) (Report, error) {
	if q.Term == "" {
		return Report{}, fmt.Errorf("query term is required")
	}
	pages := q.Pages
	if pages <= 0 {
		pages = 1
	}

	report := Report{RunID: uuid.NewString()}
	logger := s.logger.With(
		zap.String("run_id", report.RunID),
		zap.String("source", s.cfg.Source),
		zap.String("term", q.Term),
	)
	logger.Info("starting scrape run", zap.Int("pages", pages))

	var upserted, skipped atomic.Int64
	for page := 1; page <= pages; page++ {
		listings, err := s.searchPage(ctx, q, page, report.RunID, logger)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return report, err
			}
			logger.Error("search page failed", zap.Int("page", page), zap.Error(err))
			break
		}
		report.Pages++
		report.Listings += len(listings)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.cfg.DetailWorkers)
		for _, listing := range listings {
			g.Go(func() error {
				if err := s.processListing(gctx, listing, report.RunID, logger); err != nil {
					if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
						return err
					}
					skipped.Add(1)
					metrics.ListingSkipped(s.cfg.Source)
					logger.Warn("listing skipped",
						zap.String("source_id", listing.SourceID),
						zap.Error(err))
					return nil
				}
				upserted.Add(1)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return report, err
		}

		// Fewer cards than a full page means the result set is exhausted.
		if len(listings) == 0 {
			break
		}
	}

	report.Upserted = int(upserted.Load())
	report.Skipped = int(skipped.Load())
	logger.Info("scrape run finished",
		zap.Int("pages", report.Pages),
		zap.Int("listings", report.Listings),
		zap.Int("upserted", report.Upserted),
		zap.Int("skipped", report.Skipped))
	return report, nil
}

func (s *Scraper) searchPage(ctx context.Context, q Query, page int, runID string, logger *zap.Logger) ([]jobs.Listing, error) {
	if err := s.limiter.Acquire(ctx, s.cfg.Source); err != nil {
		return nil, err
	}
	resp, err := s.fetcher.Fetch(ctx, s.extractor.SearchRequest(q.Term, q.Location, page))
	if err != nil {
		return nil, fmt.Errorf("fetch search page %d: %w", page, err)
	}
	s.archivePage(ctx, fmt.Sprintf("%s/search/%s-page-%d.html", s.cfg.Source, runID, page), resp.Body, logger)

	listings, err := s.extractor.SearchPage(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("extract search page %d: %w", page, err)
	}
	for range listings {
		metrics.ListingExtracted(s.cfg.Source)
	}
	logger.Info("search page extracted",
		zap.Int("page", page),
		zap.Int("listings", len(listings)),
		zap.Bool("from_cache", resp.FromCache))
	return listings, nil
}

func (s *Scraper) processListing(ctx context.Context, listing jobs.Listing, runID string, logger *zap.Logger) error {
	if listing.SourceID == "" {
		return fmt.Errorf("listing has no source id")
	}
	if err := s.limiter.Acquire(ctx, s.cfg.Source+"_details"); err != nil {
		return err
	}

	detailURL := s.extractor.DetailURL(listing.SourceID)
	html, err := s.detailHTML(ctx, detailURL)
	if err != nil {
		return fmt.Errorf("load detail page: %w", err)
	}
	s.archivePage(ctx, fmt.Sprintf("%s/detail/%s-%s.html", s.cfg.Source, runID, listing.SourceID), html, logger)

	detail, err := s.extractor.DetailPage(html, detailURL)
	if err != nil {
		return fmt.Errorf("extract detail page: %w", err)
	}

	merged := normalize.Merge(normalize.FromListing(listing, s.cfg.Source), detail)
	record := normalize.Normalize(merged, s.clock.Now())

	if record.SalaryRange == nil && s.predictor != nil {
		if est, predictErr := s.predictor.Predict(ctx, record.Title, record.Location); predictErr != nil {
			logger.Debug("salary prediction unavailable",
				zap.String("job_id", record.JobID),
				zap.Error(predictErr))
		} else if est.Max > 0 {
			record.SalaryRange = &jobs.SalaryRange{Min: est.Min, Max: est.Max}
		}
	}

	if err := s.store.Upsert(ctx, record); err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	metrics.RecordUpserted(s.cfg.Source)

	if s.publisher != nil {
		if _, err := s.publisher.Publish(ctx, s.cfg.Topic, record); err != nil {
			// The record is already stored; delivery is at-least-once on rerun.
			logger.Warn("publish failed",
				zap.String("job_id", record.JobID),
				zap.Error(err))
		}
	}
	return nil
}

// detailHTML prefers the headless renderer and falls back to the plain
// fetcher when rendering is disabled.
func (s *Scraper) detailHTML(ctx context.Context, detailURL string) (string, error) {
	if s.renderer != nil {
		return s.renderer.Render(ctx, detailURL, s.extractor.DetailWaitSelector(), s.cfg.RenderTimeout)
	}
	resp, err := s.fetcher.Fetch(ctx, jobs.PageRequest{URL: detailURL})
	if err != nil {
		return "", err
	}
	return resp.Body, nil
}

func (s *Scraper) archivePage(ctx context.Context, path, body string, logger *zap.Logger) {
	if s.archive == nil || body == "" {
		return
	}
	if _, err := s.archive.Put(ctx, path, []byte(body)); err != nil {
		logger.Warn("archive write failed", zap.String("path", path), zap.Error(err))
	}
}
