package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/renameio/v2"
)

// ChunkSize is the buffer size used when streaming a document to disk.
const ChunkSize = 8192

// DownloadResult describes a document written to disk.
type DownloadResult struct {
	Path        string
	Size        int64
	ContentType string
}

// Download streams rawURL to dest. On any failure no file is left at dest and
// the error is a *DownloadError.
func (c *Client) Download(ctx context.Context, rawURL, dest string) (*DownloadResult, error) {
	start := time.Now()
	c.logger.Debug("starting download", slog.String("url", rawURL))

	fail := func(status int, err error) (*DownloadResult, error) {
		if rmErr := os.Remove(dest); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			c.logger.Warn("removing stale file failed", slog.String("path", dest), slog.String("error", rmErr.Error()))
		}
		dlErr := &DownloadError{URL: rawURL, StatusCode: status, Err: err}
		c.logger.Error("failed to download",
			slog.String("url", rawURL),
			slog.String("error", dlErr.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil, dlErr
	}

	req, err := c.newRequest(withAttemptTimeout(ctx, c.downloadTimeout), http.MethodGet, rawURL, nil)
	if err != nil {
		return fail(0, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(0, err)
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return fail(resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	size, err := writeFile(resp.Body, dest)
	if err != nil {
		return fail(0, err)
	}

	c.logger.Info("downloaded file saved",
		slog.String("path", dest),
		slog.Int64("size", size),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return &DownloadResult{
		Path:        dest,
		Size:        size,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// writeFile copies r to dest in ChunkSize pieces through a pending file that
// atomically replaces dest once complete, and returns the size written.
func writeFile(r io.Reader, dest string) (int64, error) {
	f, err := renameio.NewPendingFile(dest, renameio.WithPermissions(0o644))
	if err != nil {
		return 0, fmt.Errorf("creating file: %w", err)
	}
	defer f.Cleanup()

	var size int64
	buf := make([]byte, ChunkSize)
	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			if _, err := f.Write(buf[:n]); err != nil {
				return 0, fmt.Errorf("writing file: %w", err)
			}
			size += int64(n)
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return 0, fmt.Errorf("reading body: %w", readErr)
		}
	}

	if err := f.CloseAtomicallyReplace(); err != nil {
		return 0, fmt.Errorf("replacing file: %w", err)
	}
	return size, nil
}
