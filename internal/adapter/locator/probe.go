package locator

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/couchcryptid/seaice-catalog/internal/observability"
)

// Prober reports whether a file exists at href.
type Prober interface {
	Exists(ctx context.Context, href string) (bool, error)
}

// HTTPProber checks for files with HEAD requests.
type HTTPProber struct {
	httpClient *http.Client
	metrics    *observability.Metrics
}

// NewHTTPProber creates a prober whose requests are bounded by timeout.
func NewHTTPProber(timeout time.Duration, metrics *observability.Metrics) *HTTPProber {
	return &HTTPProber{
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
	}
}

// Exists returns true on 200 and false on 404, 403 or 410. Other statuses are
// errors.
func (p *HTTPProber) Exists(ctx context.Context, href string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, href, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.metrics.ProbeRequests.WithLabelValues("error").Inc()
		return false, fmt.Errorf("probe %s: %w", href, err)
	}
	resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		p.metrics.ProbeRequests.WithLabelValues("found").Inc()
		return true, nil
	case http.StatusNotFound, http.StatusForbidden, http.StatusGone:
		p.metrics.ProbeRequests.WithLabelValues("missing").Inc()
		return false, nil
	default:
		p.metrics.ProbeRequests.WithLabelValues("error").Inc()
		return false, fmt.Errorf("probe %s: status %d", href, resp.StatusCode)
	}
}

// CachedProber wraps a Prober with an in-memory LRU cache of misses.
type CachedProber struct {
	inner   Prober
	cache   *lruCache[string, struct{}]
	metrics *observability.Metrics
}

// NewCachedProber creates a cache decorator around a prober.
func NewCachedProber(inner Prober, maxEntries int, metrics *observability.Metrics) *CachedProber {
	return &CachedProber{
		inner:   inner,
		cache:   newLRUCache[string, struct{}](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedProber) Exists(ctx context.Context, href string) (bool, error) {
	if _, ok := c.cache.get(href); ok {
		c.metrics.ProbeCache.WithLabelValues("hit").Inc()
		return false, nil
	}
	c.metrics.ProbeCache.WithLabelValues("miss").Inc()

	found, err := c.inner.Exists(ctx, href)
	if err != nil {
		return false, err
	}
	// Found files are stored and move the resume date past them, so only
	// misses are worth remembering. Callers only route settled dates here.
	if !found {
		c.cache.put(href, struct{}{})
	}
	return found, nil
}
