package types

import "time"

// DownloadStatus is the lifecycle state of a resolved document.
type DownloadStatus string

const (
	StatusPending DownloadStatus = "pending"
	StatusSuccess DownloadStatus = "success"
	StatusFailed  DownloadStatus = "failed"
)

// Document types the fetcher accepts.
const (
	DocumentPDF  = "pdf"
	DocumentDOCX = "docx"
)

// Document is a search result that passed resolution, plus its download outcome.
type Document struct {
	CaseNumber     string         `json:"case_number"`
	DecisionDate   string         `json:"decision_date"` // YYYY-MM-DD, empty when undecodable
	Parties        string         `json:"parties"`
	DocumentType   string         `json:"document_type"` // "pdf" or "docx"
	TypeCode       int            `json:"type_code"`
	FileSizeBytes  int64          `json:"file_size_bytes"`
	Filename       string         `json:"filename"` // sanitized, without extension
	DownloadURL    string         `json:"download_url"`
	DownloadStatus DownloadStatus `json:"download_status"`
	ContentType    string         `json:"content_type,omitempty"`
	PageCount      int            `json:"page_count,omitempty"`
}

// FileName returns the on-disk name of the document, extension included.
func (d Document) FileName() string {
	return d.Filename + "." + d.DocumentType
}

// RunMetadata is the ledger of one run. It is written once at the end of the run.
type RunMetadata struct {
	RunID               string     `json:"run_id"`
	StartDate           string     `json:"start_date"`
	EndDate             string     `json:"end_date"`
	DownloadTimestamp   time.Time  `json:"download_timestamp"`
	TotalDocuments      int        `json:"total_documents"`
	SuccessfulDownloads int        `json:"successful_downloads"`
	FailedDownloads     int        `json:"failed_downloads"`
	Documents           []Document `json:"documents"`
}
