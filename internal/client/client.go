// Package client implements the resilient request client: cache lookup,
// proxy and identity rotation, retry with backoff, and persistence of
// successful responses. Transport is a Colly collector cloned per attempt.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/im-caveman/yagaami/internal/cache"
	"github.com/im-caveman/yagaami/internal/jobs"
	"github.com/im-caveman/yagaami/internal/metrics"
	"github.com/im-caveman/yagaami/internal/rotation"
)

// Config controls transport behavior.
type Config struct {
	Timeout time.Duration
	Policy  RetryPolicy
}

// Client is safe for concurrent use; every in-flight fetch clones its own
// collector and the shared rings advance atomically.
type Client struct {
	cfg        Config
	cache      *cache.Responses
	proxies    *rotation.ProxyRing
	identities *rotation.IdentityRing
	clock      jobs.Clock
	sleeper    jobs.Sleeper
	base       *colly.Collector
	logger     *zap.Logger
}

// New constructs a Client.
func New(
	cfg Config,
	responses *cache.Responses,
	proxies *rotation.ProxyRing,
	identities *rotation.IdentityRing,
	clock jobs.Clock,
	sleeper jobs.Sleeper,
	logger *zap.Logger,
) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Policy.MaxAttempts <= 0 {
		cfg.Policy = DefaultRetryPolicy()
	}
	base := colly.NewCollector(
		colly.Async(false),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	)
	return &Client{
		cfg:        cfg,
		cache:      responses,
		proxies:    proxies,
		identities: identities,
		clock:      clock,
		sleeper:    sleeper,
		base:       base,
		logger:     logger,
	}
}

// Fetch retrieves one page. A cache hit returns immediately and consumes no
// rotation or rate budget. Otherwise attempts run sequentially: 429s are
// waited out without spending an attempt, other 4xx fail at once, and
// transient failures back off exponentially until the budget is gone.
func (c *Client) Fetch(ctx context.Context, req jobs.PageRequest) (jobs.PageResponse, error) {
	if cached, ok, err := c.cache.Get(ctx, req.URL, req.Params); err != nil {
		c.logger.Warn("cache lookup failed", zap.String("url", req.URL), zap.Error(err))
	} else if ok {
		metrics.CacheLookup(true)
		c.logger.Debug("cache hit", zap.String("url", req.URL))
		return cached, nil
	}
	metrics.CacheLookup(false)

	fullURL := cache.NormalizeURL(req.URL, req.Params)
	maxAttempts := req.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = c.cfg.Policy.MaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, done, err := c.runAttempt(ctx, req, fullURL)
		if done {
			return resp, err
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}
		delay := c.cfg.Policy.Backoff(attempt)
		c.logger.Info("fetch attempt failed, backing off",
			zap.String("url", fullURL),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		metrics.RetryAttempt("transient")
		if serr := c.sleeper.Sleep(ctx, delay); serr != nil {
			return jobs.PageResponse{}, serr
		}
	}

	c.logger.Error("all fetch attempts failed",
		zap.String("url", fullURL),
		zap.Int("attempts", maxAttempts),
		zap.Error(lastErr),
	)
	return jobs.PageResponse{}, fmt.Errorf("%w for %s: %w", ErrExhausted, fullURL, lastErr)
}

// runAttempt executes one attempt slot. Rate-limited responses are retried
// in place after the server-requested wait; they never consume the slot.
// done reports that the fetch finished (success or terminal failure) and the
// outer loop must not continue.
func (c *Client) runAttempt(ctx context.Context, req jobs.PageRequest, fullURL string) (jobs.PageResponse, bool, error) {
	for {
		proxy := c.proxies.Next()
		identity := c.identities.Next()

		resp, err := c.do(ctx, fullURL, c.mergeHeaders(req.Headers, identity), proxy)
		if err != nil {
			if ctx.Err() != nil {
				return jobs.PageResponse{}, true, fmt.Errorf("fetch canceled: %w", ctx.Err())
			}
			return jobs.PageResponse{}, false, err
		}

		if resp.StatusCode == http.StatusOK {
			if perr := c.cache.Put(ctx, req.URL, req.Params, resp); perr != nil {
				c.logger.Warn("cache write failed", zap.String("url", fullURL), zap.Error(perr))
			}
			return resp, true, nil
		}

		switch Classify(resp.StatusCode) {
		case KindRateLimited:
			wait := c.cfg.Policy.RetryAfter(resp.Headers)
			c.logger.Warn("rate limited by remote, waiting",
				zap.String("url", fullURL),
				zap.Duration("wait", wait),
			)
			metrics.RetryAttempt("rate_limited")
			if serr := c.sleeper.Sleep(ctx, wait); serr != nil {
				return jobs.PageResponse{}, true, serr
			}
			continue
		case KindClientError:
			return jobs.PageResponse{}, true, fmt.Errorf("fetch %s: %w", fullURL, &StatusError{StatusCode: resp.StatusCode})
		default:
			return jobs.PageResponse{}, false, &StatusError{StatusCode: resp.StatusCode}
		}
	}
}

// do issues a single HTTP GET through a cloned collector.
func (c *Client) do(ctx context.Context, fullURL string, headers http.Header, proxy rotation.Proxy) (jobs.PageResponse, error) {
	collector := c.base.Clone()
	collector.SetRequestTimeout(c.cfg.Timeout)
	if !proxy.IsZero() {
		if err := collector.SetProxy(proxy.URL); err != nil {
			return jobs.PageResponse{}, fmt.Errorf("set proxy: %w", err)
		}
	}

	var (
		result   jobs.PageResponse
		fetchErr error
	)
	collector.OnRequest(func(r *colly.Request) {
		for key, values := range headers {
			for _, v := range values {
				r.Headers.Set(key, v)
			}
		}
	})
	collector.OnResponse(func(r *colly.Response) {
		result = c.toResponse(r)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			// An HTTP-level failure still carries a usable response; the
			// caller classifies the status.
			result = c.toResponse(r)
			return
		}
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(fullURL)
	}()

	select {
	case <-ctx.Done():
		return jobs.PageResponse{}, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if fetchErr != nil {
			return jobs.PageResponse{}, fmt.Errorf("transport: %w", fetchErr)
		}
		if result.StatusCode != 0 {
			return result, nil
		}
		if err != nil {
			return jobs.PageResponse{}, fmt.Errorf("transport: %w", err)
		}
		return jobs.PageResponse{}, errors.New("no response received")
	}
}

func (c *Client) toResponse(r *colly.Response) jobs.PageResponse {
	headers := http.Header{}
	if r.Headers != nil {
		headers = r.Headers.Clone()
	}
	return jobs.PageResponse{
		URL:        r.Request.URL.String(),
		StatusCode: r.StatusCode,
		Headers:    headers,
		Body:       string(r.Body),
		FetchedAt:  c.clock.Now(),
	}
}

// mergeHeaders layers caller headers over the rotated identity. The identity
// user-agent applies only when the caller did not supply one.
func (c *Client) mergeHeaders(callerHeaders http.Header, identity rotation.Identity) http.Header {
	merged := http.Header{}
	for key, values := range identity.Headers {
		for _, v := range values {
			merged.Add(key, v)
		}
	}
	for key, values := range callerHeaders {
		merged.Del(key)
		for _, v := range values {
			merged.Add(key, v)
		}
	}
	if merged.Get("User-Agent") == "" && identity.UserAgent != "" {
		merged.Set("User-Agent", identity.UserAgent)
	}
	return merged
}
