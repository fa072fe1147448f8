package appstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// fetcher performs HTTP GETs with a focused retry policy: transient
// DNS and timeout failures are retried with deterministic exponential
// backoff, HTTP error statuses are real responses and returned as-is.
type fetcher struct {
	client  *http.Client
	country string
	retries int
	backoff time.Duration
}

func newFetcher(timeout time.Duration, country string, retries int, backoff time.Duration) *fetcher {
	return &fetcher{
		client:  &http.Client{Timeout: timeout},
		country: country,
		retries: retries,
		backoff: backoff,
	}
}

// httpStatusError reports a non-2xx response. Not retried.
type httpStatusError struct {
	status int
	url    string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("HTTP %d fetching %s", e.status, e.url)
}

const maxBackoff = 8 * time.Second

func (f *fetcher) get(ctx context.Context, url string) (body []byte, finalURL string, header http.Header, err error) {
	retries := f.retries
	if retries < 0 {
		retries = 0
	}
	for attempt := 0; ; attempt++ {
		body, finalURL, header, err = f.getOnce(ctx, url)
		if err == nil {
			return body, finalURL, header, nil
		}
		var statusErr *httpStatusError
		if errors.As(err, &statusErr) {
			return nil, "", nil, err
		}
		if attempt >= retries || !isRetryableNetError(err) {
			return nil, "", nil, err
		}
		delay := f.backoff*(1<<attempt) + time.Duration(attempt)*50*time.Millisecond
		if delay > maxBackoff {
			delay = maxBackoff
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, "", nil, ctx.Err()
		}
	}
}

func (f *fetcher) getOnce(ctx context.Context, url string) ([]byte, string, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", nil, fmt.Errorf("creating request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "text/html,application/json;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", fmt.Sprintf("en-%s,en;q=0.9", strings.ToUpper(f.country)))

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, "", nil, &httpStatusError{status: resp.StatusCode, url: url}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", nil, fmt.Errorf("reading %s: %w", url, err)
	}
	return raw, resp.Request.URL.String(), resp.Header, nil
}

// isRetryableNetError recognizes transient name-resolution and timeout
// failures worth a retry. Everything else fails fast.
func isRetryableNetError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, needle := range []string{
		"no such host",
		"name or service not known",
		"temporary failure in name resolution",
		"timed out",
		"timeout",
	} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}
