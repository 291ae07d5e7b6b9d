// Package client provides a Go SDK for a court decisions portal.
//
// The portal exposes a JSON search endpoint that returns published decisions
// for a date range, and a download endpoint that serves each decision's
// document (PDF or DOCX). A Client is one session against the portal: static
// headers and cookies, and a retry policy applied to every call.
//
// # Quick Start
//
// Create a client and search:
//
//	c, err := client.New(
//	    client.WithBaseURL("https://supremedecisions.court.gov.il"),
//	    client.WithSearchPath("/Home/SearchVerdicts"),
//	)
//	records, err := c.Search(ctx, search.BuildPayload(criteria))
//
// # Retries
//
// Requests are retried by RetryTransport on 429, 500, 502, 503 and 504 and on
// network errors, with a doubling backoff. When retries run out the final
// response is returned, so Search and Download still inspect the status:
//
//	policy := client.DefaultRetryPolicy()
//	policy.Retries = 2
//	c, err := client.New(
//	    client.WithBaseURL(baseURL),
//	    client.WithRetryPolicy(policy),
//	)
//
// # Errors
//
// Search returns *SearchRequestError or *ResponseFormatError; Download returns
// *DownloadError. All three unwrap to the underlying cause:
//
//	var dlErr *client.DownloadError
//	if errors.As(err, &dlErr) && dlErr.StatusCode == http.StatusNotFound {
//	    // document withdrawn
//	}
//
// # Download URLs
//
// DownloadURL builds the portal download link from a result's storage path,
// file name and type code:
//
//	u := client.DownloadURL(baseURL, "EnglishVerdicts/20/440/021/v26", "20021440.V26", 4)
package client
