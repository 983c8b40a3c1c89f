// Package fetch provides the HTTP client shared by every source adapter:
// bounded retries with randomized backoff, rotating browser identities,
// heuristic block detection, and per-host politeness pacing.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// DefaultUserAgents is the rotating pool of realistic browser identity
// strings used when a Client does not supply its own.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:120.0) Gecko/20100101 Firefox/120.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Edge/120.0.0.0 Safari/537.36",
}

// ErrBlocked reports that a response looked like a CAPTCHA wall or an
// otherwise suppressed page. Blocked responses are retried, not accepted.
var ErrBlocked = errors.New("response looks blocked")

// Response is a successfully fetched page.
type Response struct {
	Body       []byte
	StatusCode int
	// FinalURL is the URL after redirects; adapters that care about
	// redirect targets (direct encyclopedia articles) read it.
	FinalURL string
}

// Client wraps http.Client with the shared adapter fetch policy. The zero
// value is usable; all fields are optional.
type Client struct {
	HTTPClient *http.Client
	UserAgents []string
	// MaxAttempts includes the initial attempt. Minimum 1, default 3.
	MaxAttempts int
	// PerRequestTimeout bounds each attempt. Default 15s.
	PerRequestTimeout time.Duration
	// RetryDelayMin/Max bound the randomized inter-attempt delay.
	// Defaults 1s–3s; tests shrink them to microseconds.
	RetryDelayMin time.Duration
	RetryDelayMax time.Duration
	// BlockMinBodyBytes treats a 200 response shorter than this as blocked.
	// Negative disables the size heuristic; zero means the 1000-byte default.
	BlockMinBodyBytes int
	// PerHostRPS paces requests per host. Zero disables pacing.
	PerHostRPS float64
	// RedirectMaxHops caps redirect following. Zero means 5.
	RedirectMaxHops int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// Option customizes a single Get call.
type Option func(*requestOptions)

type requestOptions struct {
	referer string
}

// WithReferer sets a site-appropriate Referer header for one request.
func WithReferer(referer string) Option {
	return func(o *requestOptions) { o.referer = referer }
}

// Get fetches rawURL with retries, a rotating user agent per attempt, and
// block detection. 5xx statuses, transport errors, and blocked-looking
// responses are retried up to MaxAttempts with a randomized inter-attempt
// delay; other non-2xx statuses fail immediately.
func (c *Client) Get(ctx context.Context, rawURL string, opts ...Option) (*Response, error) {
	var ro requestOptions
	for _, opt := range opts {
		opt(&ro)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if !isHTTPScheme(u) {
		return nil, fmt.Errorf("unsupported URL scheme: %q", u.Scheme)
	}

	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.delayMin()
	bo.MaxInterval = c.delayMax()
	bo.RandomizationFactor = 0.5

	operation := func() (*Response, error) {
		if err := c.wait(ctx, u.Host); err != nil {
			return nil, backoff.Permanent(err)
		}
		resp, err := c.tryOnce(ctx, rawURL, ro.referer)
		if err != nil {
			if !isTransient(err) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		if c.looksBlocked(resp) {
			log.Warn().Str("url", rawURL).Int("bytes", len(resp.Body)).Msg("possible blocking detected")
			return nil, ErrBlocked
		}
		return resp, nil
	}

	resp, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(attempts)),
	)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", rawURL, err)
	}
	return resp, nil
}

func (c *Client) tryOnce(ctx context.Context, rawURL, referer string) (*Response, error) {
	timeout := c.PerRequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", c.pickUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Cache-Control", "max-age=0")
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("server error: %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}
	return &Response{Body: body, StatusCode: resp.StatusCode, FinalURL: finalURL}, nil
}

func (c *Client) looksBlocked(resp *Response) bool {
	if bytes.Contains(bytes.ToLower(resp.Body), []byte("captcha")) {
		return true
	}
	min := c.BlockMinBodyBytes
	if min == 0 {
		min = 1000
	}
	return min > 0 && resp.StatusCode == http.StatusOK && len(resp.Body) < min
}

func (c *Client) pickUserAgent() string {
	agents := c.UserAgents
	if len(agents) == 0 {
		agents = DefaultUserAgents
	}
	return agents[rand.IntN(len(agents))]
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{CheckRedirect: c.checkRedirectFunc()}
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		if req.URL == nil || !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

// wait applies the per-host politeness limiter. Pacing is a pure
// optimization with no behavioral effect on results.
func (c *Client) wait(ctx context.Context, host string) error {
	if c.PerHostRPS <= 0 {
		return nil
	}
	c.mu.Lock()
	if c.limiters == nil {
		c.limiters = make(map[string]*rate.Limiter)
	}
	lim, ok := c.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(c.PerHostRPS), 1)
		c.limiters[host] = lim
	}
	c.mu.Unlock()
	return lim.Wait(ctx)
}

func (c *Client) delayMin() time.Duration {
	if c.RetryDelayMin > 0 {
		return c.RetryDelayMin
	}
	return time.Second
}

func (c *Client) delayMax() time.Duration {
	if c.RetryDelayMax > 0 {
		return c.RetryDelayMax
	}
	return 3 * time.Second
}

func isTransient(err error) bool {
	if errors.Is(err, ErrBlocked) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return true
	}
	return strings.Contains(err.Error(), "server error:")
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	s := strings.ToLower(u.Scheme)
	return s == "http" || s == "https"
}
