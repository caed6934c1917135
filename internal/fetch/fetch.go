// Package fetch is the single HTTP door to the outside world. Every page the
// pipeline reads goes through Client, which enforces the politeness contract:
// rate-limited requests with jitter, a realistic User-Agent, backoff after
// throttling responses, and an optional Redis page cache so repeated runs do
// not re-hit the same directories.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/octobees/orgscout/internal/config"
)

// ErrNotFound marks an HTTP 404; pagination loops treat it as end-of-pages.
var ErrNotFound = errors.New("page not found")

// ErrThrottled marks a 429/503. The client has already scheduled a backoff
// before its next request; the current URL is not retried.
var ErrThrottled = errors.New("target throttled request")

const (
	maxBodyBytes    = 4 << 20
	cacheKeyPrefix  = "orgscout:page:"
	defaultCacheTTL = 12 * time.Hour
)

var uaPool = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/125 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_5) AppleWebKit/605.1.15 Version/16.5 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 Chrome/124 Safari/537.36",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 16_4 like Mac OS X) AppleWebKit/605.1.15 Version/16.4 Mobile/15E148 Safari/604.1",
}

// Page is one fetched document.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	Body       string
	FromCache  bool
}

// Client fetches pages politely. Safe for concurrent use; the limiter and
// backoff state are shared so concurrent enrichment workers cannot stampede.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	cache   *redis.Client

	rotateUA bool
	backoff  time.Duration
	retries  int

	mu         sync.Mutex
	penaltyTil time.Time
}

// Option tweaks a Client at construction.
type Option func(*Client)

// WithCache enables the Redis page cache. A nil client disables it.
func WithCache(rdb *redis.Client) Option {
	return func(c *Client) { c.cache = rdb }
}

// WithTimeout overrides the per-request timeout (8s website fetches vs 5s
// contact-page fetches).
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New builds a Client from scraper config. delayMS controls the steady-state
// request interval; the limiter adds jitter on top.
func New(cfg config.ScraperConfig, opts ...Option) *Client {
	delay := time.Duration(cfg.DelayMS) * time.Millisecond
	if delay <= 0 {
		delay = 1200 * time.Millisecond
	}
	transport := http.DefaultTransport
	if cfg.Proxy != "" {
		if proxyURL, err := url.Parse(cfg.Proxy); err == nil {
			t := http.DefaultTransport.(*http.Transport).Clone()
			t.Proxy = http.ProxyURL(proxyURL)
			transport = t
		}
	}
	c := &Client{
		http: &http.Client{
			Timeout:   15 * time.Second,
			Transport: transport,
		},
		limiter:  rate.NewLimiter(rate.Every(delay), 1),
		rotateUA: cfg.UARotation,
		backoff:  time.Duration(cfg.BackoffMS) * time.Millisecond,
		retries:  cfg.MaxRetries,
	}
	if c.retries < 0 {
		c.retries = 0
	}
	if c.backoff <= 0 {
		c.backoff = 1500 * time.Millisecond
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches one URL. Transport failures are retried up to the configured
// retry count, then returned as errors; HTTP status is reported through
// Page.StatusCode plus ErrNotFound/ErrThrottled sentinels. A 429/503 is
// never retried here; it only delays the next request.
func (c *Client) Get(ctx context.Context, pageURL string) (*Page, error) {
	if cached := c.fromCache(ctx, pageURL); cached != nil {
		return cached, nil
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent())
	req.Header.Set("Accept-Language", "en,fr;q=0.9,th;q=0.8")

	resp, err := c.do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body %s: %w", pageURL, err)
	}

	page := &Page{
		URL:        pageURL,
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return page, ErrNotFound
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		c.penalize()
		log.Printf("target throttled: url=%s status=%d backoff=%s", pageURL, resp.StatusCode, c.backoff)
		return page, ErrThrottled
	}
	if resp.StatusCode >= 400 {
		return page, fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}

	c.store(ctx, page)
	return page, nil
}

// do issues the request, retrying transport-level failures with the backoff
// interval in between. HTTP error statuses are not retried; a GET with no
// body is safe to reissue on a fresh connection.
func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		resp, err := c.http.Do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

// wait blocks for the rate limiter, a small jitter, and any pending
// throttling penalty. Honors context cancellation.
func (c *Client) wait(ctx context.Context) error {
	c.mu.Lock()
	penalty := time.Until(c.penaltyTil)
	c.penaltyTil = time.Time{}
	c.mu.Unlock()

	if penalty > 0 {
		select {
		case <-time.After(penalty):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	jitter := time.Duration(rand.Int63n(int64(300 * time.Millisecond)))
	select {
	case <-time.After(jitter):
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (c *Client) penalize() {
	c.mu.Lock()
	c.penaltyTil = time.Now().Add(c.backoff)
	c.mu.Unlock()
}

func (c *Client) userAgent() string {
	if !c.rotateUA {
		return uaPool[0]
	}
	return uaPool[rand.Intn(len(uaPool))]
}

func (c *Client) fromCache(ctx context.Context, pageURL string) *Page {
	if c.cache == nil {
		return nil
	}
	body, err := c.cache.Get(ctx, cacheKeyPrefix+pageURL).Result()
	if err != nil {
		return nil
	}
	return &Page{URL: pageURL, FinalURL: pageURL, StatusCode: http.StatusOK, Body: body, FromCache: true}
}

func (c *Client) store(ctx context.Context, page *Page) {
	if c.cache == nil || page.StatusCode != http.StatusOK {
		return
	}
	if !strings.HasPrefix(page.URL, "http") {
		return
	}
	if err := c.cache.Set(ctx, cacheKeyPrefix+page.URL, page.Body, defaultCacheTTL).Err(); err != nil {
		log.Printf("page cache write failed: url=%s error=%v", page.URL, err)
	}
}
