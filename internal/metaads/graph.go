// Package metaads creates draft-safe (PAUSED) Meta ads from a JSON
// spec: media uploads, creatives, campaign/ad set resolution and ad
// creation against the Graph API.
package metaads

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Config carries Graph API credentials.
type Config struct {
	GraphVersion string
	AccessToken  string
	AppSecret    string
}

// Graph is a Meta Graph API client. In dry-run mode no network calls
// happen; requests are returned as redacted descriptions instead.
type Graph struct {
	cfg        Config
	dryRun     bool
	baseURL    string
	httpClient *http.Client
	log        *logrus.Logger

	retryTries int
	retryBase  time.Duration
}

// NewGraph builds a client for graph.facebook.com.
func NewGraph(cfg Config, dryRun bool, log *logrus.Logger) *Graph {
	return &Graph{
		cfg:        cfg,
		dryRun:     dryRun,
		baseURL:    "https://graph.facebook.com/" + cfg.GraphVersion,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		log:        log,
		retryTries: 5,
		retryBase:  time.Second,
	}
}

// NewGraphWithBaseURL builds a client against a non-default endpoint
// (tests). Retries run without sleeping.
func NewGraphWithBaseURL(cfg Config, dryRun bool, log *logrus.Logger, baseURL string) *Graph {
	g := NewGraph(cfg, dryRun, log)
	g.baseURL = baseURL
	g.retryBase = 0
	return g
}

// DryRun reports whether the client is in dry-run mode.
func (g *Graph) DryRun() bool {
	return g.dryRun
}

// commonParams returns the auth params attached to every request,
// including appsecret_proof when an app secret is configured.
func (g *Graph) commonParams() url.Values {
	p := url.Values{}
	p.Set("access_token", g.cfg.AccessToken)
	if g.cfg.AppSecret != "" {
		mac := hmac.New(sha256.New, []byte(g.cfg.AppSecret))
		mac.Write([]byte(g.cfg.AccessToken))
		p.Set("appsecret_proof", hex.EncodeToString(mac.Sum(nil)))
	}
	return p
}

var redactedParams = map[string]bool{
	"access_token":    true,
	"input_token":     true,
	"appsecret_proof": true,
}

// RedactURL replaces credential query params with a placeholder so URLs
// are safe to log.
func RedactURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "<redacted_url>"
	}
	q := parsed.Query()
	for k := range q {
		if redactedParams[k] {
			q.Set(k, "<redacted>")
		}
	}
	parsed.RawQuery = q.Encode()
	return parsed.String()
}

func redactValues(v url.Values) map[string]string {
	out := make(map[string]string, len(v))
	for k := range v {
		if redactedParams[k] {
			out[k] = "<redacted>"
		} else {
			out[k] = v.Get(k)
		}
	}
	return out
}

// Get performs a GET on path with the given params.
func (g *Graph) Get(ctx context.Context, path string, params url.Values) (map[string]any, error) {
	q := g.commonParams()
	for k, vs := range params {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	fullURL := g.baseURL + "/" + strings.TrimPrefix(path, "/") + "?" + q.Encode()
	if g.dryRun {
		return map[string]any{"dry_run": true, "method": "GET", "url": RedactURL(fullURL)}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	return g.do(req)
}

// PostForm performs a form-encoded POST on path.
func (g *Graph) PostForm(ctx context.Context, path string, data url.Values) (map[string]any, error) {
	d := g.commonParams()
	for k, vs := range data {
		for _, v := range vs {
			d.Set(k, v)
		}
	}
	fullURL := g.baseURL + "/" + strings.TrimPrefix(path, "/")
	if g.dryRun {
		return map[string]any{"dry_run": true, "method": "POST", "url": fullURL, "data": redactValues(d)}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, strings.NewReader(d.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return g.do(req)
}

// PostFile performs a multipart POST uploading one file field named
// "source" plus the auth fields.
func (g *Graph) PostFile(ctx context.Context, path, filePath string) (map[string]any, error) {
	fullURL := g.baseURL + "/" + strings.TrimPrefix(path, "/")
	if g.dryRun {
		return map[string]any{
			"dry_run": true, "method": "POST", "url": fullURL,
			"fields": redactValues(g.commonParams()),
			"files":  map[string]string{"source": filepath.Base(filePath)},
		}, nil
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filePath, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, vs := range g.commonParams() {
		for _, v := range vs {
			if err := w.WriteField(k, v); err != nil {
				return nil, fmt.Errorf("writing form field: %w", err)
			}
		}
	}
	part, err := w.CreateFormFile("source", filepath.Base(filePath))
	if err != nil {
		return nil, fmt.Errorf("building multipart form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("copying %s into form: %w", filePath, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing multipart form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, &buf)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	// Large uploads need a longer deadline than the default client.
	client := &http.Client{Timeout: 300 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed for %s: %w", RedactURL(fullURL), err)
	}
	return g.readJSON(resp, fullURL)
}

func (g *Graph) do(req *http.Request) (map[string]any, error) {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed for %s: %w", RedactURL(req.URL.String()), err)
	}
	return g.readJSON(resp, req.URL.String())
}

func (g *Graph) readJSON(resp *http.Response, rawURL string) (map[string]any, error) {
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response for %s: %w", RedactURL(rawURL), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body := string(raw)
		if len(body) > 5000 {
			body = body[:5000]
		}
		return nil, fmt.Errorf("HTTP %d for %s\n%s", resp.StatusCode, RedactURL(rawURL), body)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		body := string(raw)
		if len(body) > 5000 {
			body = body[:5000]
		}
		return nil, fmt.Errorf("non-JSON response for %s:\n%s", RedactURL(rawURL), body)
	}
	return out, nil
}

// retry runs fn with exponential backoff plus a small jitter.
func (g *Graph) retry(fn func() (map[string]any, error)) (map[string]any, error) {
	var lastErr error
	for i := 0; i < g.retryTries; i++ {
		out, err := fn()
		if err == nil {
			return out, nil
		}
		lastErr = err
		if i < g.retryTries-1 && g.retryBase > 0 {
			sleep := g.retryBase*(1<<i) + time.Duration(rand.Int63n(int64(250*time.Millisecond)))
			time.Sleep(sleep)
		}
	}
	return nil, lastErr
}

// pagedGet follows cursor pagination, collecting rows from each page's
// data array up to maxPages.
func (g *Graph) pagedGet(ctx context.Context, path string, params url.Values, maxPages int) ([]map[string]any, error) {
	var out []map[string]any
	after := ""
	for page := 0; page < maxPages; page++ {
		p := url.Values{}
		for k, vs := range params {
			for _, v := range vs {
				p.Set(k, v)
			}
		}
		if after != "" {
			p.Set("after", after)
		}
		resp, err := g.Get(ctx, path, p)
		if err != nil {
			return nil, err
		}
		if data, ok := resp["data"].([]any); ok {
			for _, row := range data {
				if m, ok := row.(map[string]any); ok {
					out = append(out, m)
				}
			}
		}
		after = ""
		if paging, ok := resp["paging"].(map[string]any); ok {
			if cursors, ok := paging["cursors"].(map[string]any); ok {
				after, _ = cursors["after"].(string)
			}
		}
		if after == "" {
			break
		}
	}
	return out, nil
}

// dryID builds a deterministic placeholder id for dry-run mode.
func dryID(prefix, name string) string {
	sum := sha1.Sum([]byte(name))
	return fmt.Sprintf("dry_%s_%s", prefix, hex.EncodeToString(sum[:])[:10])
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func jsonDumps(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
