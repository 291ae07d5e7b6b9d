// Package types provides the shared data model for verdicts.
// These types flow between the search, resolve, download and ledger stages.
package types

import "time"

// DateLayout is the calendar-date layout used for criteria and decision dates.
const DateLayout = "2006-01-02"

// SearchCriteria contains the parameters of one search against the portal.
type SearchCriteria struct {
	From          time.Time // Start of the publish range (date only)
	To            time.Time // End of the publish range (date only)
	DecisionTypes []int     // Decision-type codes, e.g. 1=Decision, 2=Judgment
	CaseTypes     []int     // Case-type codes, e.g. 13=CrimA
	Keywords      string    // Free-text search
}
