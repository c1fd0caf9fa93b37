package source

import (
	"context"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HTTPLoader downloads payloads with per-host rate limiting and retries
// on transport errors, 429 and 5xx responses.
type HTTPLoader struct {
	client *http.Client
	opts   Options

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHTTPLoader creates an HTTPLoader, filling unset options with defaults.
func NewHTTPLoader(opts Options) *HTTPLoader {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "roster-cli/1.0"
	}
	if opts.BackoffBase == 0 {
		opts.BackoffBase = time.Second
	}
	return &HTTPLoader{
		client:   &http.Client{Timeout: opts.Timeout},
		opts:     opts,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (h *HTTPLoader) limiterFor(req *http.Request) *rate.Limiter {
	if h.opts.RatePerSec <= 0 {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	lim, ok := h.limiters[req.URL.Host]
	if !ok {
		burst := int(math.Ceil(h.opts.RatePerSec))
		lim = rate.NewLimiter(rate.Limit(h.opts.RatePerSec), burst)
		h.limiters[req.URL.Host] = lim
	}
	return lim
}

// Open fetches rawURL and returns the response body. The caller closes it.
func (h *HTTPLoader) Open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return nil, eris.Wrap(err, "source: parse url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "source: create request")
	}
	req.Header.Set("User-Agent", h.opts.UserAgent)

	resp, err := h.doWithRetry(ctx, req)
	if err != nil {
		return nil, eris.Wrapf(err, "source: download %s", rawURL)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, eris.Errorf("source: unexpected status %d from %s", resp.StatusCode, rawURL)
	}
	return resp.Body, nil
}

func (h *HTTPLoader) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	lim := h.limiterFor(req)

	var lastErr error
	for attempt := range h.opts.MaxRetries {
		if lim != nil {
			if err := lim.Wait(ctx); err != nil {
				return nil, eris.Wrap(err, "rate limiter wait")
			}
		}

		resp, err := h.client.Do(req.Clone(ctx))
		if err != nil {
			lastErr = err
			zap.L().Warn("http request failed, retrying",
				zap.String("url", req.URL.String()),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			h.backoffUnlessLast(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			lastErr = eris.Errorf("http %d from %s", resp.StatusCode, req.URL.String())
			zap.L().Warn("retryable status",
				zap.String("url", req.URL.String()),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			h.backoffUnlessLast(ctx, attempt)
			continue
		}
		return resp, nil
	}

	if ctx.Err() != nil {
		return nil, eris.Wrap(ctx.Err(), "all retries exhausted")
	}
	return nil, eris.Wrap(lastErr, "all retries exhausted")
}

// backoffUnlessLast sleeps before the next attempt; after the final attempt
// there is nothing to wait for.
func (h *HTTPLoader) backoffUnlessLast(ctx context.Context, attempt int) {
	if attempt >= h.opts.MaxRetries-1 {
		return
	}
	h.backoff(ctx, attempt)
}

func (h *HTTPLoader) backoff(ctx context.Context, attempt int) {
	maxBackoff := 30 * time.Second
	d := time.Duration(float64(h.opts.BackoffBase) * math.Pow(2, float64(attempt)))
	if d > maxBackoff {
		d = maxBackoff
	}
	if half := int64(d) / 2; half > 0 {
		d += time.Duration(rand.Int64N(half))
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
