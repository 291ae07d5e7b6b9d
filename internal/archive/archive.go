// Package archive mirrors a finished run to S3-compatible object storage.
package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/usestring/verdicts/internal/config"
	"github.com/usestring/verdicts/internal/ledger"
	"github.com/usestring/verdicts/pkg/types"
)

// Archiver uploads run outputs to a bucket.
type Archiver struct {
	client *minio.Client
	bucket string
	prefix string
	logger *slog.Logger
}

// New creates an Archiver. No network call is made until the first upload.
func New(cfg *config.ArchiveConfig, logger *slog.Logger) (*Archiver, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("archive bucket is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &Archiver{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		logger: logger,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (a *Archiver) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// Upload copies the ledger files and every successfully downloaded document
// of meta from dir to the bucket. It returns the number of uploaded objects;
// individual failures are joined into the returned error.
func (a *Archiver) Upload(ctx context.Context, dir string, meta types.RunMetadata) (int, error) {
	if err := a.EnsureBucket(ctx); err != nil {
		return 0, err
	}

	files := []string{ledger.MetadataFile, ledger.LogFile}
	for _, d := range meta.Documents {
		if d.DownloadStatus == types.StatusSuccess {
			files = append(files, path.Join(ledger.DocumentsDir, d.FileName()))
		}
	}

	var uploaded int
	var errs []error
	for _, name := range files {
		key := ObjectKey(a.prefix, meta, name)
		_, err := a.client.FPutObject(ctx, a.bucket, key, filepath.Join(dir, filepath.FromSlash(name)), minio.PutObjectOptions{
			ContentType: contentType(name),
		})
		if err != nil {
			a.logger.Warn("archive upload failed", slog.String("object", key), slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("uploading %s: %w", key, err))
			continue
		}
		uploaded++
	}

	a.logger.Info("run archived",
		slog.String("bucket", a.bucket),
		slog.Int("objects", uploaded),
		slog.Int("failed", len(errs)),
	)
	return uploaded, errors.Join(errs...)
}

// ObjectKey places name under <prefix>/<start>_<end>/.
func ObjectKey(prefix string, meta types.RunMetadata, name string) string {
	return path.Join(prefix, meta.StartDate+"_"+meta.EndDate, name)
}

func contentType(name string) string {
	switch path.Ext(name) {
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".txt":
		return "text/plain; charset=utf-8"
	}
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
