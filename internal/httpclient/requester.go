package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/ontomap/errors"
	"github.com/teranos/ontomap/logger"
)

// maxErrorBody caps how much of a failed response is kept in HTTPError
const maxErrorBody = 512

// HTTPError is a non-2xx response from a remote service
type HTTPError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d: %s", e.URL, e.StatusCode, e.Body)
}

// Retryable reports whether the status is worth another attempt
func (e *HTTPError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// RequesterOptions configures throttling and retries
type RequesterOptions struct {
	RequestsPerSecond float64       // Default: 5
	MaxRetries        int           // Retries after the first attempt
	InitialInterval   time.Duration // First backoff delay (default: 500ms)
	UserAgent         string
}

// Requester performs rate-limited GET requests with exponential backoff.
// Transport errors and 5xx/429 responses are retried; other 4xx fail at once.
type Requester struct {
	client  *SaferClient
	limiter *rate.Limiter
	opts    RequesterOptions
	logger  *zap.SugaredLogger
}

// NewRequester creates a Requester on top of client
func NewRequester(client *SaferClient, opts RequesterOptions) *Requester {
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 5
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = 500 * time.Millisecond
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "ontomap"
	}
	return &Requester{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		opts:    opts,
		logger:  logger.ComponentLogger("http"),
	}
}

// Client returns the underlying guarded client
func (r *Requester) Client() *SaferClient {
	return r.client
}

// GetJSON fetches rawURL with query appended and decodes the JSON body into target
func (r *Requester) GetJSON(ctx context.Context, rawURL string, query url.Values, target any) error {
	body, err := r.Get(ctx, rawURL, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return errors.Wrapf(err, "decode response from %s", redact(rawURL))
	}
	return nil
}

// Get fetches rawURL with query appended and returns the response body
func (r *Requester) Get(ctx context.Context, rawURL string, query url.Values) ([]byte, error) {
	u, err := r.client.ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	target := u.String()

	var body []byte
	attempt := 0
	operation := func() error {
		attempt++
		if err := r.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(errors.Wrap(err, "rate limiter"))
		}

		started := time.Now()
		b, err := r.doOnce(ctx, target)
		r.logger.Debugw("Remote request",
			logger.FieldURL, redact(u.Scheme+"://"+u.Host+u.Path),
			"attempt", attempt,
			logger.FieldDurationMS, time.Since(started).Milliseconds(),
			logger.FieldError, err,
		)
		if err != nil {
			var httpErr *HTTPError
			if errors.As(err, &httpErr) && !httpErr.Retryable() {
				return backoff.Permanent(err)
			}
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		body = b
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.opts.InitialInterval
	retry := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(r.opts.MaxRetries)), ctx)

	if err := backoff.Retry(operation, retry); err != nil {
		return nil, errors.Mark(
			errors.Wrapf(err, "GET %s after %d attempt(s)", redact(u.Host+u.Path), attempt),
			errors.ErrServiceUnavailable,
		)
	}
	return body, nil
}

func (r *Requester) doOnce(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", r.opts.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(body)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: redact(target), Body: snippet}
	}
	return body, nil
}

// redact drops the apikey query parameter so keys never reach logs or errors
func redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	if q.Has("apikey") {
		q.Set("apikey", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
