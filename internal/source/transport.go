package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	transportTimeout = 20 * time.Second

	// defaultRPS keeps the proxy under its externally imposed rate
	// limits; it is pacing, not a correctness mechanism.
	defaultRPS = 3
)

// Transport fetches pages through a rotating-key scraping proxy. The
// rotation cursor lives here, not in a package global, so each run owns
// its own and the transport is testable in isolation.
type Transport struct {
	proxyURL string
	keys     []string
	cur      int
	calls    int
	client   *http.Client
	limiter  *rate.Limiter
}

// NewTransport builds a Transport over the given proxy endpoint and key
// pool. The key pool must be non-empty.
func NewTransport(proxyURL string, keys []string) *Transport {
	return &Transport{
		proxyURL: proxyURL,
		keys:     keys,
		client:   &http.Client{Timeout: transportTimeout},
		limiter:  rate.NewLimiter(rate.Limit(defaultRPS), 1),
	}
}

// Fetch retrieves the target URL through the proxy. A rate-limited
// response rotates to the next key and retries once. Non-2xx responses
// return a nil body with the status code and no error: the unit failed
// but the run goes on.
func (t *Transport) Fetch(ctx context.Context, target string) ([]byte, int, error) {
	body, status, err := t.doFetch(ctx, target)
	if err != nil {
		return nil, 0, err
	}
	if status == http.StatusTooManyRequests {
		t.rotate()
		body, status, err = t.doFetch(ctx, target)
		if err != nil {
			return nil, 0, err
		}
	}
	if status < 200 || status > 299 {
		return nil, status, nil
	}
	return body, status, nil
}

func (t *Transport) doFetch(ctx context.Context, target string) ([]byte, int, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}

	q := url.Values{}
	q.Set("api_key", t.keys[t.cur])
	q.Set("url", target)
	q.Set("render_javascript", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.proxyURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating proxy request for %s: %w", target, err)
	}

	t.calls++
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("proxy fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading proxy response for %s: %w", target, err)
	}
	return body, resp.StatusCode, nil
}

func (t *Transport) rotate() {
	t.cur = (t.cur + 1) % len(t.keys)
}

// Calls returns the number of proxy requests issued so far.
func (t *Transport) Calls() int { return t.calls }

// KeyIndex returns the zero-based index of the key currently in use.
func (t *Transport) KeyIndex() int { return t.cur }
