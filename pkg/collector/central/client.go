package central

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/NVIDIA/cluster-inventory/pkg/defaults"
)

// ensureClient builds the HTTP client on first use unless one was injected.
func (c *Collector) ensureClient() error {
	if c.client != nil {
		return nil
	}

	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if c.proxyURL != "" {
		proxy, err := url.Parse(c.proxyURL)
		if err != nil {
			return fmt.Errorf("invalid proxy URL %q: %w", c.proxyURL, err)
		}
		transport.Proxy = http.ProxyURL(proxy)
	}
	if c.insecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	// Timeouts are per request via context; a client-wide timeout would cap
	// the long namespaces call.
	c.client = &http.Client{Transport: transport}
	return nil
}

// httpStatusError is a non-2xx response.
type httpStatusError struct {
	status int
	url    string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.status, e.url)
}

// retryable reports whether another attempt may succeed. Transport and body
// decode errors retry; HTTP statuses retry only on 429 and 5xx.
func retryable(err error) bool {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.status == http.StatusTooManyRequests || statusErr.status >= 500
	}
	return true
}

// getJSON performs one logical GET against the API: rate limited, bounded by
// a per-request timeout, retried with exponential backoff. A zero timeout
// means the default request timeout.
func (c *Collector) getJSON(ctx context.Context, path, endpoint string, params url.Values, timeout time.Duration, out any) error {
	if timeout <= 0 {
		timeout = defaults.RequestTimeout
	}

	var err error
	for attempt := 0; attempt < defaults.RetryAttempts; attempt++ {
		if attempt > 0 {
			delay := c.retryBaseDelay << (attempt - 1)
			slog.Warn("central API request failed, retrying",
				slog.String("path", path),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
				slog.String("error", err.Error()),
			)
			requestRetries.Inc()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err = c.doOnce(ctx, path, endpoint, params, timeout, out)
		if err == nil {
			return nil
		}
		// A cancelled parent context is a stop, not a transient failure.
		if ctx.Err() != nil {
			return err
		}
		if !retryable(err) {
			return err
		}
	}
	return fmt.Errorf("request to %s failed after %d attempts: %w", path, defaults.RetryAttempts, err)
}

func (c *Collector) doOnce(ctx context.Context, path, endpoint string, params url.Values, timeout time.Duration, out any) error {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := c.limiter.Wait(reqCtx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.baseURL()+path, nil)
	if err != nil {
		return err
	}
	if params != nil {
		req.URL.RawQuery = params.Encode()
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		requestsTotal.WithLabelValues(endpoint, "error").Inc()
		return err
	}
	defer resp.Body.Close()
	requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		requestsTotal.WithLabelValues(endpoint, "error").Inc()
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &httpStatusError{status: resp.StatusCode, url: req.URL.Redacted()}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		requestsTotal.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	requestsTotal.WithLabelValues(endpoint, "success").Inc()
	return nil
}

func (c *Collector) baseURL() string {
	return strings.TrimRight(c.endpoint, "/")
}

// list pages through a collection endpoint with offset pagination until a
// short page signals the end.
func list[T any](ctx context.Context, c *Collector, path, key string) ([]T, error) {
	items := []T{}
	for offset := 0; ; offset += defaults.PageLimit {
		params := url.Values{}
		params.Set("pagination.limit", strconv.Itoa(defaults.PageLimit))
		params.Set("pagination.offset", strconv.Itoa(offset))

		var doc map[string]json.RawMessage
		if err := c.getJSON(ctx, path, key, params, 0, &doc); err != nil {
			return nil, err
		}

		var page []T
		if raw, ok := doc[key]; ok {
			if err := json.Unmarshal(raw, &page); err != nil {
				return nil, fmt.Errorf("failed to decode %s page at offset %d: %w", key, offset, err)
			}
		}
		items = append(items, page...)

		if len(page) < defaults.PageLimit {
			return items, nil
		}
	}
}
