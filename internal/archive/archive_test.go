package archive

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/verdicts/internal/config"
	"github.com/usestring/verdicts/internal/ledger"
	"github.com/usestring/verdicts/pkg/types"
)

func testMeta() types.RunMetadata {
	return types.RunMetadata{
		StartDate: "2024-01-01",
		EndDate:   "2024-01-31",
		Documents: []types.Document{
			{Filename: "a_0001", DocumentType: "pdf", DownloadStatus: types.StatusSuccess},
			{Filename: "b_0002", DocumentType: "docx", DownloadStatus: types.StatusFailed},
		},
		TotalDocuments:      2,
		SuccessfulDownloads: 1,
		FailedDownloads:     1,
	}
}

func TestObjectKey(t *testing.T) {
	meta := testMeta()
	assert.Equal(t, "verdicts/2024-01-01_2024-01-31/metadata.json", ObjectKey("verdicts", meta, "metadata.json"))
	assert.Equal(t, "2024-01-01_2024-01-31/documents/a_0001.pdf", ObjectKey("", meta, "documents/a_0001.pdf"))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", contentType("documents/a.pdf"))
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", contentType("b.docx"))
	assert.Equal(t, "text/plain; charset=utf-8", contentType("download_log.txt"))
	assert.Equal(t, "application/json", contentType("metadata.json"))
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := New(&config.ArchiveConfig{Endpoint: "localhost:9000"}, nil)
	require.Error(t, err)
}

// fakeS3 accepts bucket HEAD and object PUT requests and records uploaded keys.
type fakeS3 struct {
	mu   sync.Mutex
	puts []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodHead:
		w.WriteHeader(http.StatusOK)
	case http.MethodPut:
		_, _ = io.Copy(io.Discard, r.Body)
		key, _ := url.PathUnescape(r.URL.Path)
		f.mu.Lock()
		f.puts = append(f.puts, key)
		f.mu.Unlock()
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestUpload(t *testing.T) {
	fake := &fakeS3{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ledger.DocumentsDir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ledger.DocumentsDir, "a_0001.pdf"), []byte("%PDF"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ledger.MetadataFile), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ledger.LogFile), []byte("a_0001 - success\n"), 0o644))

	a, err := New(&config.ArchiveConfig{
		Endpoint:  u.Host,
		AccessKey: "test",
		SecretKey: "testsecret",
		Bucket:    "runs",
		Region:    "us-east-1",
		Prefix:    "verdicts",
	}, nil)
	require.NoError(t, err)

	n, err := a.Upload(t.Context(), dir, testMeta())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	sort.Strings(fake.puts)
	assert.Equal(t, []string{
		"/runs/verdicts/2024-01-01_2024-01-31/documents/a_0001.pdf",
		"/runs/verdicts/2024-01-01_2024-01-31/download_log.txt",
		"/runs/verdicts/2024-01-01_2024-01-31/metadata.json",
	}, fake.puts)
}

func TestUpload_MissingFileIsReported(t *testing.T) {
	srv := httptest.NewServer(&fakeS3{})
	defer srv.Close()
	u, _ := url.Parse(srv.URL)

	a, err := New(&config.ArchiveConfig{
		Endpoint: u.Host, AccessKey: "k", SecretKey: "secretkey", Bucket: "runs", Region: "us-east-1",
	}, nil)
	require.NoError(t, err)

	n, err := a.Upload(t.Context(), t.TempDir(), testMeta())
	require.Error(t, err)
	assert.Equal(t, 0, n)
}
