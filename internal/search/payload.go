// Package search builds request payloads for the portal's verdict search API.
package search

import (
	"time"

	"github.com/usestring/verdicts/pkg/types"
)

// timestampLayout renders a date as an ISO-8601 instant with an explicit UTC designator.
const timestampLayout = "2006-01-02T15:04:05Z"

// Text operators understood by the portal.
const (
	OperatorAll = 1 // all words
	OperatorAny = 2 // any word
)

// Fixed enumerations of the portal search form.
const (
	dateTypeRange   = 2
	publishDateAny  = 8
	translationDate = 1
	judgesOperator  = 2
	optionExact     = "2"
	nearDistance    = 3
	languageEnglish = "2"
)

// Payload is the JSON body of a search request.
type Payload struct {
	Document Document `json:"document"`
	Lan      string   `json:"lan"`
}

// TextOperator is one structured text-match clause of the search form.
// A clause with empty Text matches everything.
type TextOperator struct {
	Text         string `json:"Text"`
	TextOperator int    `json:"textOperator"`
	Option       string `json:"option"`
	Inverted     bool   `json:"Inverted"`
	Synonym      bool   `json:"Synonym"`
	NearDistance int    `json:"NearDistance"`
	MatchOrder   bool   `json:"MatchOrder"`
}

// Subject is a subject-tree selector; all-nil means no subject filter.
type Subject struct {
	Subject       *string `json:"Subject"`
	SubSubject    *string `json:"SubSubject"`
	SubSubSubject *string `json:"SubSubSubject"`
}

// Document mirrors the portal's search form. Field order is fixed so that
// the marshalled payload is byte-stable for a given SearchCriteria.
type Document struct {
	Year                   *int           `json:"Year"`
	Month                  *int           `json:"Month"`
	CaseNum                *string        `json:"CaseNum"`
	Technical              *string        `json:"Technical"`
	FromPages              *int           `json:"fromPages"`
	ToPages                *int           `json:"toPages"`
	DateType               int            `json:"dateType"`
	PublishFrom            string         `json:"PublishFrom"`
	PublishTo              string         `json:"PublishTo"`
	PublishDate            int            `json:"publishDate"`
	TranslationDateType    int            `json:"translationDateType"`
	TranslationPublishFrom string         `json:"translationPublishFrom"`
	TranslationPublishTo   string         `json:"translationPublishTo"`
	TranslationPublishDate int            `json:"translationPublishDate"`
	SearchText             []TextOperator `json:"SearchText"`
	Judges                 *string        `json:"Judges"`
	Parties                []TextOperator `json:"Parties"`
	Counsel                []TextOperator `json:"Counsel"`
	Mador                  *string        `json:"Mador"`
	CodeMador              []int          `json:"CodeMador"`
	TypeCourts             *string        `json:"TypeCourts"`
	TypeCourts1            *string        `json:"TypeCourts1"`
	TerrestrialCourts      *string        `json:"TerrestrialCourts"`
	LastInyan              *string        `json:"LastInyan"`
	LastCourtsYear         *int           `json:"LastCourtsYear"`
	LastCourtsMonth        *int           `json:"LastCourtsMonth"`
	LastCourtCaseNum       *string        `json:"LastCourtCaseNum"`
	Old                    bool           `json:"Old"`
	JudgesOperator         int            `json:"JudgesOperator"`
	Judgment               *string        `json:"Judgment"`
	Type                   *string        `json:"Type"`
	CodeTypes              []int          `json:"CodeTypes"`
	CodeJudges             []int          `json:"CodeJudges"`
	Inyan                  *string        `json:"Inyan"`
	CodeInyan              []int          `json:"CodeInyan"`
	AllSubjects            []Subject      `json:"AllSubjects"`
	CodeSub2               []int          `json:"CodeSub2"`
	Category1              *string        `json:"Category1"`
	Category3              *string        `json:"Category3"`
	CodeCategory3          []int          `json:"CodeCategory3"`
	OldMainNumFormat       bool           `json:"OldMainNumFormat"`
	Volume                 *string        `json:"Volume"`
	Subjects               *string        `json:"Subjects"`
	SubSubjects            *string        `json:"SubSubjects"`
	SubSubSubjects         *string        `json:"SubSubSubjects"`
}

// BuildPayload constructs the search payload for the given criteria.
// It is pure: no clock reads, and nil code lists become empty arrays so the
// server applies no filter.
func BuildPayload(c types.SearchCriteria) Payload {
	from := FormatTimestamp(c.From)
	to := FormatTimestamp(c.To)

	return Payload{
		Document: Document{
			DateType:               dateTypeRange,
			PublishFrom:            from,
			PublishTo:              to,
			PublishDate:            publishDateAny,
			TranslationDateType:    translationDate,
			TranslationPublishFrom: from,
			TranslationPublishTo:   to,
			TranslationPublishDate: publishDateAny,
			SearchText:             []TextOperator{textClause(c.Keywords, OperatorAll)},
			Parties:                []TextOperator{textClause("", OperatorAny)},
			Counsel:                []TextOperator{textClause("", OperatorAny)},
			CodeMador:              []int{},
			JudgesOperator:         judgesOperator,
			CodeTypes:              codes(c.DecisionTypes),
			CodeJudges:             []int{},
			CodeInyan:              codes(c.CaseTypes),
			AllSubjects:            []Subject{{}},
			CodeSub2:               []int{},
			CodeCategory3:          []int{},
		},
		Lan: languageEnglish,
	}
}

// FormatTimestamp renders t as UTC with a trailing Z, e.g. 2024-01-31T00:00:00Z.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func textClause(text string, operator int) TextOperator {
	return TextOperator{
		Text:         text,
		TextOperator: operator,
		Option:       optionExact,
		NearDistance: nearDistance,
	}
}

// codes copies the list so the payload never aliases caller-owned slices.
func codes(in []int) []int {
	out := make([]int, len(in))
	copy(out, in)
	return out
}
