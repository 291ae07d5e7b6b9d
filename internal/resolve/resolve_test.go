package resolve

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/verdicts/pkg/types"
)

const baseURL = "https://supremedecisions.court.gov.il"

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func record(caseNum, date string, code int) types.RawRecord {
	return types.RawRecord{
		CaseNum:    strPtr(caseNum),
		VerdictDt:  strPtr(date),
		CaseName:   strPtr("Plonit v. Almoni"),
		PathForWeb: strPtr("EnglishVerdicts/20/440/021/v26"),
		FileName:   strPtr("20021440.V26"),
		TypeCode:   intPtr(code),
	}
}

func TestDecodeDate(t *testing.T) {
	tests := []struct {
		marker   string
		expected string
	}{
		{"/Date(1650000000000)/", "2022-04-15"},
		{"/Date(0)/", "1970-01-01"},
		{"prefix /Date(1704067199000)/ suffix", "2023-12-31"},
		{"/Date()/", ""},
		{"/Date(abc)/", ""},
		{"2022-04-15", ""},
		{"", ""},
		{"/Date(99999999999999999999999)/", ""},
		{"/Date(253402300799999)/", "9999-12-31"},
		{"/Date(253402300800000)/", ""},
		{"/Date(10000000000000000)/", ""},
	}

	for _, tt := range tests {
		t.Run(tt.marker, func(t *testing.T) {
			assert.Equal(t, tt.expected, DecodeDate(tt.marker))
		})
	}
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "pdf", Extension(intPtr(2)))
	assert.Equal(t, "pdf", Extension(intPtr(4)))
	assert.Equal(t, "docx", Extension(intPtr(3)))
	assert.Equal(t, "", Extension(intPtr(7)))
	assert.Equal(t, "", Extension(intPtr(1)))
	assert.Equal(t, "", Extension(nil))
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"1234/20_2022-04-15_0001", "123420_2022-04-15_0001"},
		{"CrimA 5678/19", "crima_567819"},
		{"a  \t b", "a_b"},
		{"Case (No. 1)!", "case_no_1"},
		{"ע\"פ 1234/20", "עפ_123420"},
		{"a\vb", "a_b"},
		{"a\u0085b", "a_b"},
		{"a\u2028b\u2029c", "a_b_c"},
		{"a\x1cb\x1fc", "a_b_c"},
		{"a\u00a0\u3000b", "a_b"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.in))
		})
	}
}

func TestSanitizeFilename_Idempotent(t *testing.T) {
	inputs := []string{
		"CrimA 5678/19_2022-04-15_0003",
		"  Mixed Spaces and TABS\t",
		"İstanbul Ünïcode",
		"already_clean-name",
		"",
	}
	for _, in := range inputs {
		once := SanitizeFilename(in)
		assert.Equal(t, once, SanitizeFilename(once), "input %q", in)
	}
}

func TestResolve_Document(t *testing.T) {
	r := New(baseURL, nil)
	docs := r.Resolve([]types.RawRecord{record("1234/20", "/Date(1650000000000)/", 4)})

	require.Len(t, docs, 1)
	doc := docs[0]
	assert.Equal(t, "1234/20", doc.CaseNumber)
	assert.Equal(t, "2022-04-15", doc.DecisionDate)
	assert.Equal(t, "Plonit v. Almoni", doc.Parties)
	assert.Equal(t, "pdf", doc.DocumentType)
	assert.Equal(t, 4, doc.TypeCode)
	assert.Equal(t, "123420_2022-04-15_0001", doc.Filename)
	assert.Equal(t, types.StatusPending, doc.DownloadStatus)
	assert.Equal(t, int64(0), doc.FileSizeBytes)
	assert.Equal(t,
		baseURL+"/Home/Download?path=EnglishVerdicts%2F20%2F440%2F021%2Fv26&fileName=20021440.V26&type=4",
		doc.DownloadURL,
	)
}

func TestResolve_PassesThroughRecordTypeCode(t *testing.T) {
	docs := New(baseURL, nil).Resolve([]types.RawRecord{record("1", "", 3)})
	require.Len(t, docs, 1)
	assert.Equal(t, "docx", docs[0].DocumentType)
	assert.Contains(t, docs[0].DownloadURL, "&type=3")
}

func TestResolve_SkipsUnsupportedType(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	docs := New(baseURL, logger).Resolve([]types.RawRecord{
		record("1", "/Date(1650000000000)/", 7),
		record("2", "/Date(1650000000000)/", 4),
	})

	require.Len(t, docs, 1)
	assert.Equal(t, "2", docs[0].CaseNumber)
	assert.Equal(t, "2_2022-04-15_0001", docs[0].Filename, "skipped records do not consume a sequence number")
	assert.Contains(t, buf.String(), "level=INFO")
	assert.Contains(t, buf.String(), "skipping unsupported file type")
}

func TestResolve_SkipsMissingFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	noPath := record("1", "", 4)
	noPath.PathForWeb = nil
	noFile := record("2", "", 2)
	noFile.FileName = strPtr("  ")
	noType := record("3", "", 4)
	noType.TypeCode = nil

	docs := New(baseURL, logger).Resolve([]types.RawRecord{noPath, noFile, noType, record("4", "", 2)})

	require.Len(t, docs, 1)
	assert.Equal(t, "4", docs[0].CaseNumber)
	assert.Equal(t, "4__0001", docs[0].Filename)
	assert.Contains(t, buf.String(), "level=WARN")
}

func TestResolve_PlaceholderCaseNumber(t *testing.T) {
	first := record("10", "", 4)
	missing := record("", "", 4)
	missing.CaseNum = nil

	docs := New(baseURL, nil).Resolve([]types.RawRecord{first, missing})

	require.Len(t, docs, 2)
	assert.Equal(t, "case_2", docs[1].CaseNumber)
	assert.Equal(t, "case_2__0002", docs[1].Filename)
}

func TestResolve_FilenamesUnique(t *testing.T) {
	recs := []types.RawRecord{
		record("1234/20", "/Date(1650000000000)/", 4),
		record("1234/20", "/Date(1650000000000)/", 4),
		record("1234/20", "/Date(1650000000000)/", 3),
	}
	docs := New(baseURL, nil).Resolve(recs)

	seen := map[string]bool{}
	for _, d := range docs {
		assert.False(t, seen[d.Filename], "duplicate filename %s", d.Filename)
		seen[d.Filename] = true
	}
	assert.Len(t, seen, 3)
}

func TestResolve_Empty(t *testing.T) {
	docs := New(baseURL, nil).Resolve(nil)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}
