package client

import (
	"fmt"
	"net/http"
)

// SearchRequestError is returned when the search call fails at the network
// level or the portal answers with a non-2xx status.
type SearchRequestError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *SearchRequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("search request to %s failed: status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("search request to %s failed: %v", e.URL, e.Err)
}

func (e *SearchRequestError) Unwrap() error {
	return e.Err
}

// ResponseFormatError is returned when the search response body is not the
// expected JSON document.
type ResponseFormatError struct {
	URL string
	Err error
}

func (e *ResponseFormatError) Error() string {
	return fmt.Sprintf("invalid search response from %s: %v", e.URL, e.Err)
}

func (e *ResponseFormatError) Unwrap() error {
	return e.Err
}

// DownloadError is returned when a single document could not be fetched or
// written to disk.
type DownloadError struct {
	URL        string
	StatusCode int // 0 when the failure was not an HTTP status
	Err        error
}

func (e *DownloadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download %s failed: status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("download %s failed: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
