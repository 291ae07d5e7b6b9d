// Package pipeline runs one fetch: search, resolve, download each document in
// order, then write the ledger.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/usestring/verdicts/internal/ledger"
	"github.com/usestring/verdicts/internal/resolve"
	"github.com/usestring/verdicts/internal/search"
	"github.com/usestring/verdicts/pkg/client"
	"github.com/usestring/verdicts/pkg/contenttype"
	"github.com/usestring/verdicts/pkg/types"
)

// Portal is the subset of *client.Client the pipeline needs.
type Portal interface {
	Search(ctx context.Context, payload any) ([]types.RawRecord, error)
	Download(ctx context.Context, rawURL, dest string) (*client.DownloadResult, error)
}

// Pacer pauses between consecutive download attempts.
type Pacer interface {
	Pause(ctx context.Context) error
}

// Interval is a Pacer that sleeps a fixed duration. Zero or negative never sleeps.
type Interval time.Duration

// Pause sleeps for the interval or until ctx is done.
func (i Interval) Pause(ctx context.Context) error {
	if i <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(time.Duration(i))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// PageCounter reads the page count of a downloaded PDF.
type PageCounter interface {
	PageCount(path string) (int, error)
}

// Archiver mirrors a finished run elsewhere.
type Archiver interface {
	Upload(ctx context.Context, dir string, meta types.RunMetadata) (int, error)
}

// DefaultThrottle is the pause between the end of one download attempt and the
// start of the next.
const DefaultThrottle = time.Second

// Runner executes fetch runs. Downloads are strictly sequential.
type Runner struct {
	portal    Portal
	resolver  *resolve.Resolver
	outputDir string
	pacer     Pacer
	pages     PageCounter
	archiver  Archiver
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// Option is a functional option for configuring the Runner.
type Option func(*Runner)

// WithPacer replaces the default one-second pause between downloads.
func WithPacer(p Pacer) Option {
	return func(r *Runner) {
		r.pacer = p
	}
}

// WithThrottle pauses d after each download attempt that is followed by
// another. Zero disables pacing.
func WithThrottle(d time.Duration) Option {
	return WithPacer(Interval(d))
}

// WithPageCounter records page counts of downloaded PDFs.
func WithPageCounter(p PageCounter) Option {
	return func(r *Runner) {
		r.pages = p
	}
}

// WithArchiver uploads the run after the ledger is written.
func WithArchiver(a Archiver) Option {
	return func(r *Runner) {
		r.archiver = a
	}
}

// WithLogger sets the run logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithClock sets the time source for the ledger timestamp.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

// New creates a Runner writing into outputDir.
func New(portal Portal, resolver *resolve.Resolver, outputDir string, opts ...Option) *Runner {
	r := &Runner{
		portal:    portal,
		resolver:  resolver,
		outputDir: outputDir,
		pacer:     Interval(DefaultThrottle),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	return r
}

// Run executes one fetch for criteria.
//
// A failed search or an empty result set ends the run before anything is
// written and returns nil metadata with a nil error. Per-document failures are
// recorded in the ledger and never end the run. Consecutive download attempts
// are separated by the pacer. If ctx is cancelled mid-run, the documents
// attempted so far are written.
func (r *Runner) Run(ctx context.Context, criteria types.SearchCriteria) (*types.RunMetadata, error) {
	runID := r.newID()
	logger := r.logger.With(slog.String("run_id", runID))

	docsDir := filepath.Join(r.outputDir, ledger.DocumentsDir)
	if err := os.MkdirAll(docsDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating documents directory: %w", err)
	}

	logger.Info("searching for decisions",
		slog.String("from", criteria.From.Format(types.DateLayout)),
		slog.String("to", criteria.To.Format(types.DateLayout)),
		slog.Any("decision_types", criteria.DecisionTypes),
		slog.Any("case_types", criteria.CaseTypes),
	)

	records, err := r.portal.Search(ctx, search.BuildPayload(criteria))
	if err != nil {
		logger.Error("search failed, no documents retrieved", slog.String("error", err.Error()))
		records = nil
	}
	if len(records) == 0 {
		logger.Info("no documents found for the specified criteria")
		return nil, nil
	}

	docs := r.resolver.Resolve(records)
	logger.Info("resolved search results",
		slog.Int("records", len(records)),
		slog.Int("documents", len(docs)),
		slog.Int("skipped", len(records)-len(docs)),
	)

	processed := make([]types.Document, 0, len(docs))
	for i, doc := range docs {
		err := ctx.Err()
		if err == nil && i > 0 {
			err = r.pacer.Pause(ctx)
		}
		if err != nil {
			logger.Warn("run interrupted",
				slog.Int("attempted", i),
				slog.Int("remaining", len(docs)-i),
				slog.String("error", err.Error()),
			)
			break
		}
		processed = append(processed, r.fetch(ctx, logger, doc, docsDir))
	}

	meta := ledger.Build(runID, criteria, processed, r.now())
	if err := ledger.Write(r.outputDir, meta); err != nil {
		return &meta, fmt.Errorf("writing ledger: %w", err)
	}

	logger.Info("scraping complete",
		slog.Int("successful", meta.SuccessfulDownloads),
		slog.Int("failed", meta.FailedDownloads),
	)

	if r.archiver != nil {
		if _, err := r.archiver.Upload(ctx, r.outputDir, meta); err != nil {
			logger.Warn("archiving run failed", slog.String("error", err.Error()))
		}
	}

	return &meta, nil
}

// fetch downloads one document and returns it with its terminal status.
func (r *Runner) fetch(ctx context.Context, logger *slog.Logger, doc types.Document, dir string) types.Document {
	dest := filepath.Join(dir, doc.FileName())
	logger.Info("downloading document",
		slog.String("filename", doc.Filename),
		slog.String("url", doc.DownloadURL),
	)

	res, err := r.portal.Download(ctx, doc.DownloadURL, dest)
	if err != nil {
		doc.DownloadStatus = types.StatusFailed
		doc.FileSizeBytes = 0
		return doc
	}

	doc.DownloadStatus = types.StatusSuccess
	doc.FileSizeBytes = res.Size
	doc.ContentType = res.ContentType

	switch {
	case contenttype.IsErrorPage(res.ContentType):
		logger.Warn("document served as a page, not a file",
			slog.String("filename", doc.Filename),
			slog.String("content_type", res.ContentType),
		)
	case !contenttype.Matches(res.ContentType, doc.DocumentType):
		logger.Warn("content type does not match document type",
			slog.String("filename", doc.Filename),
			slog.String("content_type", res.ContentType),
			slog.String("document_type", doc.DocumentType),
		)
	}

	if r.pages != nil && doc.DocumentType == types.DocumentPDF {
		n, err := r.pages.PageCount(dest)
		if err != nil {
			logger.Warn("could not read page count",
				slog.String("filename", doc.Filename),
				slog.String("error", err.Error()),
			)
		} else {
			doc.PageCount = n
		}
	}

	return doc
}
