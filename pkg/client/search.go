package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/usestring/verdicts/pkg/types"
)

// maxErrorBody caps how much of a failed response body is logged.
const maxErrorBody = 512

// Search posts payload to the search endpoint and returns the raw result records.
//
// On failure the returned slice is empty (never nil) and the error is a
// *SearchRequestError (network failure, timeout, non-2xx status) or a
// *ResponseFormatError (body is not the expected JSON). A response without a
// result array yields an empty slice and no error.
func (c *Client) Search(ctx context.Context, payload any) ([]types.RawRecord, error) {
	start := time.Now()
	none := []types.RawRecord{}

	searchURL, err := c.SearchURL()
	if err != nil {
		return none, &SearchRequestError{URL: c.baseURL + c.searchPath, Err: err}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return none, &SearchRequestError{URL: searchURL, Err: fmt.Errorf("encoding payload: %w", err)}
	}

	req, err := c.newRequest(withAttemptTimeout(ctx, c.searchTimeout), http.MethodPost, searchURL, bytes.NewReader(body))
	if err != nil {
		return none, &SearchRequestError{URL: searchURL, Err: err}
	}
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Info("search request started", slog.String("url", searchURL))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("search request failed",
			slog.String("url", searchURL),
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return none, &SearchRequestError{URL: searchURL, Err: err}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Error("search request failed",
			slog.String("url", searchURL),
			slog.Int("status", resp.StatusCode),
			slog.String("body", strings.ToValidUTF8(string(snippet), "")),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return none, &SearchRequestError{URL: searchURL, StatusCode: resp.StatusCode}
	}

	c.logger.Info("search request successful",
		slog.Int("status", resp.StatusCode),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("search response read failed", slog.String("error", err.Error()))
		return none, &SearchRequestError{URL: searchURL, StatusCode: resp.StatusCode, Err: err}
	}

	records, err := c.decodeResults(raw)
	if err != nil {
		c.logger.Error("invalid JSON response from server",
			slog.String("error", err.Error()),
			slog.String("body", previewBody(raw)),
		)
		return none, &ResponseFormatError{URL: searchURL, Err: err}
	}

	c.logger.Info("found documents in search results", slog.Int("count", len(records)))
	c.logger.Debug("search response", slog.String("body", previewBody(raw)))
	return records, nil
}

// decodeResults parses the body and extracts the result records with the
// results query. Items that are not JSON objects are logged and dropped.
func (c *Client) decodeResults(raw []byte) ([]types.RawRecord, error) {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	items, err := c.results.Results(decoded)
	if err != nil {
		return nil, err
	}

	records := make([]types.RawRecord, 0, len(items))
	for i, item := range items {
		b, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("result %d: %w", i, err)
		}
		var rec types.RawRecord
		if err := json.Unmarshal(b, &rec); err != nil {
			c.logger.Warn("skipping search result that is not an object",
				slog.Int("index", i),
				slog.String("value", truncateRunes(string(b), previewStringLen)),
			)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
