// Package resolve turns raw search results into downloadable documents.
package resolve

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/usestring/verdicts/pkg/client"
	"github.com/usestring/verdicts/pkg/types"
)

// Portal document type codes.
const (
	TypeCodePDF    = 2
	TypeCodeDOCX   = 3
	TypeCodeSigned = 4 // signed PDF
)

// typeUnsupported is the extension of a type code with no document format.
const typeUnsupported = ""

// space matches every Unicode whitespace character, including the separators
// outside \s: vertical tab, NEL, line/paragraph separators and \x1c-\x1f.
const space = `\s\v\x{85}\x{1c}-\x{1f}\p{Zs}\p{Zl}\p{Zp}`

var (
	dateMarker = regexp.MustCompile(`/Date\((\d+)\)/`)
	disallowed = regexp.MustCompile(`[^\p{L}\p{N}_` + space + `-]`)
	whitespace = regexp.MustCompile(`[` + space + `]+`)
)

// maxYear is the last year a YYYY-MM-DD date can hold.
const maxYear = 9999

// Resolver validates raw records and computes their download URL and filename.
type Resolver struct {
	baseURL string
	logger  *slog.Logger
}

// New creates a Resolver for the portal at baseURL.
func New(baseURL string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{baseURL: baseURL, logger: logger}
}

// Resolve converts records in order. Records with an unsupported type code or
// without a storage path or file name are dropped and do not consume a
// sequence number; the sequence used in filenames is dense over the returned
// documents and starts at 1.
func (r *Resolver) Resolve(records []types.RawRecord) []types.Document {
	docs := make([]types.Document, 0, len(records))
	seq := 1

	for _, rec := range records {
		caseNumber := value(rec.CaseNum)
		if caseNumber == "" {
			caseNumber = fmt.Sprintf("case_%d", seq)
		}

		decisionDate := DecodeDate(value(rec.VerdictDt))
		if decisionDate == "" {
			r.logger.Debug("decision date missing or malformed",
				slog.String("case", caseNumber),
				slog.String("raw", value(rec.VerdictDt)),
			)
		}

		ext := Extension(rec.TypeCode)
		if ext == typeUnsupported {
			r.logger.Info("skipping unsupported file type",
				slog.String("case", caseNumber),
				slog.String("type_code", typeCodeString(rec.TypeCode)),
			)
			continue
		}

		path, fileName := value(rec.PathForWeb), value(rec.FileName)
		if path == "" || fileName == "" {
			r.logger.Warn("missing path or filename, skipping", slog.String("case", caseNumber))
			continue
		}

		docs = append(docs, types.Document{
			CaseNumber:     caseNumber,
			DecisionDate:   decisionDate,
			Parties:        value(rec.CaseName),
			DocumentType:   ext,
			TypeCode:       *rec.TypeCode,
			Filename:       SanitizeFilename(fmt.Sprintf("%s_%s_%04d", caseNumber, decisionDate, seq)),
			DownloadURL:    client.DownloadURL(r.baseURL, path, fileName, *rec.TypeCode),
			DownloadStatus: types.StatusPending,
		})
		seq++
	}

	return docs
}

// DecodeDate converts a "/Date(<epoch ms>)/" marker to a UTC YYYY-MM-DD date.
// It returns "" when the marker is absent or malformed.
func DecodeDate(marker string) string {
	m := dateMarker.FindStringSubmatch(marker)
	if m == nil {
		return ""
	}
	ms, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return ""
	}
	t := time.UnixMilli(ms).UTC()
	if t.Year() > maxYear {
		return ""
	}
	return t.Format(types.DateLayout)
}

// Extension maps a portal type code to a file extension, "" when unsupported.
func Extension(code *int) string {
	if code == nil {
		return typeUnsupported
	}
	switch *code {
	case TypeCodePDF, TypeCodeSigned:
		return types.DocumentPDF
	case TypeCodeDOCX:
		return types.DocumentDOCX
	default:
		return typeUnsupported
	}
}

// SanitizeFilename lowercases s, keeps letters, digits, underscores, hyphens
// and whitespace, and joins whitespace runs with a single underscore.
// SanitizeFilename(SanitizeFilename(s)) == SanitizeFilename(s).
func SanitizeFilename(s string) string {
	s = cases.Lower(language.Und).String(norm.NFC.String(s))
	s = disallowed.ReplaceAllString(s, "")
	return norm.NFC.String(whitespace.ReplaceAllString(s, "_"))
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func typeCodeString(code *int) string {
	if code == nil {
		return "none"
	}
	return strconv.Itoa(*code)
}
