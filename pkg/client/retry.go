package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Retry policy defaults.
const (
	DefaultRetries       = 5
	DefaultBackoffFactor = time.Second
	DefaultBackoffMax    = 120 * time.Second
)

// RetryPolicy controls how RetryTransport retries a request.
type RetryPolicy struct {
	Retries       int           // Retries after the first attempt
	BackoffFactor time.Duration // Base delay; retry n waits factor * 2^(n-1), the first retry is immediate
	BackoffMax    time.Duration // Upper bound for a single backoff delay
	StatusCodes   []int         // Response statuses that trigger a retry
	Methods       []string      // Methods that may be retried
}

// DefaultRetryPolicy returns the portal retry policy: 5 retries with doubling
// backoff on 429 and 5xx gateway errors, for HEAD, GET, POST and OPTIONS.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Retries:       DefaultRetries,
		BackoffFactor: DefaultBackoffFactor,
		BackoffMax:    DefaultBackoffMax,
		StatusCodes: []int{
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
		Methods: []string{http.MethodHead, http.MethodGet, http.MethodPost, http.MethodOptions},
	}
}

// Backoff returns the delay before retry n (1-based).
func (p RetryPolicy) Backoff(n int) time.Duration {
	if n <= 1 || p.BackoffFactor <= 0 {
		return 0
	}
	d := time.Duration(float64(p.BackoffFactor) * math.Pow(2, float64(n-1)))
	if p.BackoffMax > 0 && d > p.BackoffMax {
		return p.BackoffMax
	}
	return d
}

func (p RetryPolicy) retriesMethod(method string) bool {
	return slices.Contains(p.Methods, method)
}

func (p RetryPolicy) retriesStatus(status int) bool {
	return slices.Contains(p.StatusCodes, status)
}

type attemptTimeoutKey struct{}

// withAttemptTimeout bounds each attempt made by RetryTransport for requests
// built from ctx. Backoff sleeps are not counted against the timeout.
func withAttemptTimeout(ctx context.Context, d time.Duration) context.Context {
	return context.WithValue(ctx, attemptTimeoutKey{}, d)
}

func attemptTimeout(ctx context.Context) time.Duration {
	d, _ := ctx.Value(attemptTimeoutKey{}).(time.Duration)
	return d
}

// RetryTransport is an http.RoundTripper that retries transient failures
// through go-retryablehttp. When retries are exhausted the last response is
// returned as-is; callers must check its status.
type RetryTransport struct {
	base   http.RoundTripper
	policy RetryPolicy
	retry  *retryablehttp.Client

	// wait, when set, receives every non-zero backoff and returns the delay
	// actually slept.
	wait func(time.Duration) time.Duration
}

// NewRetryTransport wraps base (http.DefaultTransport when nil) with policy.
func NewRetryTransport(base http.RoundTripper, policy RetryPolicy, logger *slog.Logger) *RetryTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	t := &RetryTransport{
		base:   &attemptTransport{base: base},
		policy: policy,
	}
	t.retry = &retryablehttp.Client{
		HTTPClient: &http.Client{
			Transport: t.base,
			// Redirects are followed by the outer client so its cookie jar sees every hop.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		Logger:       logger,
		RetryMax:     policy.Retries,
		CheckRetry:   t.checkRetry,
		Backoff:      t.backoff,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
	}
	return t
}

// RoundTrip implements http.RoundTripper.
func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.policy.retriesMethod(req.Method) {
		return t.base.RoundTrip(req)
	}

	rreq, err := retryablehttp.FromRequest(req)
	if err != nil {
		return nil, err
	}
	resp, err := t.retry.Do(rreq)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, err
	}
	return resp, nil
}

func (t *RetryTransport) checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	if err != nil {
		return true, nil
	}
	return t.policy.retriesStatus(resp.StatusCode), nil
}

// backoff receives the zero-based index of the attempt that just failed.
func (t *RetryTransport) backoff(_, _ time.Duration, attempt int, resp *http.Response) time.Duration {
	d := t.policy.Backoff(attempt + 1)
	if resp != nil {
		if after := parseRetryAfter(resp); after > 0 {
			d = after
		}
	}
	if d > 0 && t.wait != nil {
		return t.wait(d)
	}
	return d
}

// attemptTransport applies the per-attempt timeout carried by the request context.
type attemptTransport struct {
	base http.RoundTripper
}

func (a *attemptTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	timeout := attemptTimeout(req.Context())
	if timeout <= 0 {
		return a.base.RoundTrip(req)
	}

	ctx, cancel := context.WithTimeout(req.Context(), timeout)
	resp, err := a.base.RoundTrip(req.WithContext(ctx))
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// parseRetryAfter reads a Retry-After header on 413, 429 and 503 responses.
func parseRetryAfter(resp *http.Response) time.Duration {
	switch resp.StatusCode {
	case http.StatusRequestEntityTooLarge, http.StatusTooManyRequests, http.StatusServiceUnavailable:
	default:
		return 0
	}

	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

// cancelOnClose releases the attempt context once the body is consumed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
