package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/custodia-labs/docsrag/internal/core/domain"
	"github.com/custodia-labs/docsrag/internal/core/ports/driven"
	"github.com/custodia-labs/docsrag/internal/logger"
)

// Ensure Fetcher implements the interface.
var _ driven.PageFetcher = (*Fetcher)(nil)

// Default configuration values.
const (
	DefaultEndpoint = "https://api.allorigins.win/get"
	DefaultTimeout  = 20 * time.Second

	// maxEnvelopeBytes bounds how much of a proxy answer is read.
	maxEnvelopeBytes = 8 << 20
)

// Config holds configuration for the proxy fetcher.
type Config struct {
	// Endpoint is the proxy URL (default: https://api.allorigins.win/get).
	Endpoint string

	// Timeout bounds one proxy request (default: 20s).
	Timeout time.Duration

	// Rate is the request rate per second (default: 2, negative disables).
	Rate float64

	// HTTPClient overrides the client, mostly for tests. Timeout is
	// ignored when it is set.
	HTTPClient *http.Client
}

// Fetcher retrieves pages through the fetch proxy.
type Fetcher struct {
	client   *http.Client
	endpoint string
	limiter  *RateLimiter
}

// envelope is the proxy's JSON answer.
type envelope struct {
	Contents string `json:"contents"`
}

// New creates a proxy fetcher.
func New(cfg Config) (*Fetcher, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if _, err := url.ParseRequestURI(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("proxy: invalid endpoint %q: %w", cfg.Endpoint, domain.ErrInvalidInput)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Rate == 0 {
		cfg.Rate = DefaultRate
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &Fetcher{
		client:   client,
		endpoint: cfg.Endpoint,
		limiter:  NewRateLimiter(cfg.Rate),
	}, nil
}

// Fetch returns the raw HTML of target as wrapped by the proxy.
// Every failure is a *domain.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, target string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", &domain.FetchError{URL: target, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.requestURL(target), http.NoBody)
	if err != nil {
		return "", &domain.FetchError{URL: target, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &domain.FetchError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	f.limiter.Observe(resp)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Debug("proxy: %s answered %d", target, resp.StatusCode)
		return "", &domain.FetchError{URL: target, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxEnvelopeBytes))
	if err != nil {
		return "", &domain.FetchError{URL: target, Err: fmt.Errorf("read response: %w", err)}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", &domain.FetchError{URL: target, Err: fmt.Errorf("decode envelope: %w", err)}
	}
	return env.Contents, nil
}

// requestURL builds <endpoint>?url=<target>, keeping any query the
// endpoint already carries.
func (f *Fetcher) requestURL(target string) string {
	u, _ := url.Parse(f.endpoint)
	q := u.Query()
	q.Set("url", target)
	u.RawQuery = q.Encode()
	return u.String()
}
