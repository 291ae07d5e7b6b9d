package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/usestring/verdicts/internal/query"
)

// Defaults for the portal client.
const (
	DefaultSearchPath      = "/Home/SearchVerdicts"
	DefaultSearchTimeout   = 30 * time.Second
	DefaultDownloadTimeout = 20 * time.Second
)

// downloadPath is the portal's fixed document download endpoint.
const downloadPath = "/Home/Download"

// Client is a session against the court portal. It owns the connection pool,
// the cookie jar and the retry state; it is not meant to be shared between runs.
type Client struct {
	baseURL         string
	searchPath      string
	httpClient      *http.Client
	headers         map[string]string
	cookies         map[string]string
	policy          RetryPolicy
	logger          *slog.Logger
	searchTimeout   time.Duration
	downloadTimeout time.Duration
	resultsQuery    string
	results         *query.Engine
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithBaseURL sets the portal base URL, e.g. https://supremedecisions.court.gov.il.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithSearchPath sets the search endpoint, resolved against the base URL.
func WithSearchPath(path string) Option {
	return func(c *Client) {
		c.searchPath = path
	}
}

// WithHTTPClient sets a custom HTTP client. The client is used as-is: no retry
// transport or cookie jar is installed on it.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeaders sets static headers sent with every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		c.headers = headers
	}
}

// WithCookies sets static cookies for the portal host.
func WithCookies(cookies map[string]string) Option {
	return func(c *Client) {
		c.cookies = cookies
	}
}

// WithRetryPolicy replaces DefaultRetryPolicy.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(c *Client) {
		c.policy = policy
	}
}

// WithLogger sets the logger for request logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSearchTimeout bounds each attempt of the search call.
func WithSearchTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.searchTimeout = d
	}
}

// WithDownloadTimeout bounds each attempt of a document download.
func WithDownloadTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.downloadTimeout = d
	}
}

// WithResultsQuery sets the JQ path of the result array in search responses.
func WithResultsQuery(expression string) Option {
	return func(c *Client) {
		c.resultsQuery = expression
	}
}

// New creates a portal session.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		searchPath:      DefaultSearchPath,
		policy:          DefaultRetryPolicy(),
		searchTimeout:   DefaultSearchTimeout,
		downloadTimeout: DefaultDownloadTimeout,
		resultsQuery:    query.DefaultResults,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}

	base, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base URL %q must be absolute", c.baseURL)
	}

	c.results, err = query.NewEngine(c.resultsQuery)
	if err != nil {
		return nil, fmt.Errorf("results query: %w", err)
	}

	if c.httpClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("creating cookie jar: %w", err)
		}
		jar.SetCookies(base, toCookies(c.cookies))

		c.httpClient = &http.Client{
			Transport: NewRetryTransport(http.DefaultTransport, c.policy, c.logger),
			Jar:       jar,
		}
	}

	c.logger.Debug("HTTP session initialized",
		slog.String("base_url", c.baseURL),
		slog.Int("headers", len(c.headers)),
		slog.Int("cookies", len(c.cookies)),
		slog.Int("retries", c.policy.Retries),
	)
	return c, nil
}

// BaseURL returns the portal base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return strings.TrimSuffix(c.baseURL, "/")
}

// SearchURL resolves the search path against the base URL. A path starting
// with "/" replaces the base URL's path.
func (c *Client) SearchURL() (string, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	ref, err := url.Parse(c.searchPath)
	if err != nil {
		return "", fmt.Errorf("parsing search path: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}

// DownloadURL builds the document download URL for a storage path, file name
// and type code. Parameters keep the portal's order: path, fileName, type.
func DownloadURL(baseURL, path, fileName string, typeCode int) string {
	return strings.TrimSuffix(baseURL, "/") + downloadPath +
		"?path=" + url.QueryEscape(path) +
		"&fileName=" + url.QueryEscape(fileName) +
		"&type=" + fmt.Sprint(typeCode)
}

// newRequest builds a request carrying the static headers.
func (c *Client) newRequest(ctx context.Context, method, rawURL string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

func toCookies(values map[string]string) []*http.Cookie {
	cookies := make([]*http.Cookie, 0, len(values))
	for name, value := range values {
		cookies = append(cookies, &http.Cookie{Name: name, Value: value, Path: "/"})
	}
	return cookies
}
