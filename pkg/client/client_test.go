package client

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastPolicy retries like the default policy but without sleeping.
func fastPolicy() RetryPolicy {
	p := DefaultRetryPolicy()
	p.BackoffFactor = 0
	return p
}

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{
		WithBaseURL(baseURL),
		WithRetryPolicy(fastPolicy()),
		WithSearchTimeout(2 * time.Second),
		WithDownloadTimeout(2 * time.Second),
	}, opts...)
	c, err := New(opts...)
	require.NoError(t, err)
	return c
}

func TestNew_RequiresAbsoluteBaseURL(t *testing.T) {
	_, err := New(WithBaseURL("/relative"))
	require.Error(t, err)

	_, err = New()
	require.Error(t, err)
}

func TestNew_InvalidResultsQuery(t *testing.T) {
	_, err := New(WithBaseURL("https://example.com"), WithResultsQuery(".data["))
	require.Error(t, err)
}

func TestSearchURL(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		path     string
		expected string
	}{
		{"absolute path replaces base path", "https://portal.example/app/", "/Home/SearchVerdicts", "https://portal.example/Home/SearchVerdicts"},
		{"relative path appends to directory", "https://portal.example/app/", "Search", "https://portal.example/app/Search"},
		{"relative path replaces last segment", "https://portal.example/app", "Search", "https://portal.example/Search"},
		{"root base", "https://portal.example", "/Home/SearchVerdicts", "https://portal.example/Home/SearchVerdicts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(WithBaseURL(tt.base), WithSearchPath(tt.path))
			require.NoError(t, err)

			got, err := c.SearchURL()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDownloadURL(t *testing.T) {
	got := DownloadURL("https://supremedecisions.court.gov.il", "EnglishVerdicts/20/440/021/v26", "20021440.V26", 4)
	assert.Equal(t,
		"https://supremedecisions.court.gov.il/Home/Download?path=EnglishVerdicts%2F20%2F440%2F021%2Fv26&fileName=20021440.V26&type=4",
		got,
	)
}

func TestDownloadURL_EscapesReservedCharacters(t *testing.T) {
	got := DownloadURL("https://portal.example/", "a b&c", "x=y?.pdf", 2)
	assert.Equal(t, "https://portal.example/Home/Download?path=a+b%26c&fileName=x%3Dy%3F.pdf&type=2", got)
}

func TestClient_SendsHeadersAndCookies(t *testing.T) {
	var gotAgent, gotCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		if c, err := r.Cookie("session"); err == nil {
			gotCookie = c.Value
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL,
		WithHeaders(map[string]string{"User-Agent": "verdicts-test"}),
		WithCookies(map[string]string{"session": "abc123"}),
	)

	_, err := c.Search(t.Context(), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "verdicts-test", gotAgent)
	assert.Equal(t, "abc123", gotCookie)
}

func TestBaseURL_TrimsSlash(t *testing.T) {
	c, err := New(WithBaseURL("https://portal.example/"))
	require.NoError(t, err)
	assert.Equal(t, "https://portal.example", c.BaseURL())
}
