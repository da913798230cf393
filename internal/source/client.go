package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dpaoloni/fundscan/internal/model"
)

const defaultUserAgent = "fundscan/1.0"

// client bundles the infrastructure every scraper shares: an HTTP
// client with timeout, the injected per-source rate limiter, a
// circuit breaker, and the retry policy. Adapters embed it and only
// provide endpoints and payload mapping.
type client struct {
	name    model.Source
	http    *http.Client
	limiter *RateLimiter
	breaker *Breaker
	retry   RetryConfig
}

func newClient(name model.Source, limiter *RateLimiter, timeout time.Duration) client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return client{
		name:    name,
		http:    &http.Client{Timeout: timeout},
		limiter: limiter,
		breaker: NewBreaker(string(name), DefaultBreakerSettings()),
		retry:   DefaultRetryConfig(),
	}
}

// getJSON fetches url and decodes the JSON body into out, honoring
// the rate limiter, circuit breaker, and retry policy in that order.
func (c *client) getJSON(ctx context.Context, url string, out any) error {
	return Retry(ctx, string(c.name), c.retry, func() error {
		if err := c.limiter.Wait(ctx, c.name); err != nil {
			return err
		}

		_, err := c.breaker.Execute(func() (any, error) {
			return nil, c.doGet(ctx, url, out)
		})
		return err
	})
}

func (c *client) doGet(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned HTTP %d", c.name, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", c.name, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", c.name, err)
	}
	return nil
}

// ping reports whether a GET on url answers with a 2xx status. Used
// by health checks; bypasses retry so a dead source fails fast.
func (c *client) ping(ctx context.Context, url string) bool {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
