package types

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// RawRecord is a single search result as returned by the portal.
// Every field is optional; nil means the key was absent, null, or of an unusable shape.
type RawRecord struct {
	CaseNum    *string // "CaseNum"
	VerdictDt  *string // "VerdictDt", e.g. "/Date(1650000000000)/"
	CaseName   *string // "CaseName"
	PathForWeb *string // "PathForWeb", storage path of the document
	FileName   *string // "FileName"
	TypeCode   *int    // "TypeCode", document format code
}

// UnmarshalJSON decodes a record leniently. String fields accept JSON strings
// or numbers, TypeCode accepts a number or a numeric string. A field with any
// other shape is left nil instead of failing the whole search response.
func (r *RawRecord) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	r.CaseNum = looseString(fields["CaseNum"])
	r.VerdictDt = looseString(fields["VerdictDt"])
	r.CaseName = looseString(fields["CaseName"])
	r.PathForWeb = looseString(fields["PathForWeb"])
	r.FileName = looseString(fields["FileName"])
	r.TypeCode = looseInt(fields["TypeCode"])
	return nil
}

// MarshalJSON writes the record back in the portal's key naming, omitting absent fields.
func (r RawRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 6)
	if r.CaseNum != nil {
		out["CaseNum"] = *r.CaseNum
	}
	if r.VerdictDt != nil {
		out["VerdictDt"] = *r.VerdictDt
	}
	if r.CaseName != nil {
		out["CaseName"] = *r.CaseName
	}
	if r.PathForWeb != nil {
		out["PathForWeb"] = *r.PathForWeb
	}
	if r.FileName != nil {
		out["FileName"] = *r.FileName
	}
	if r.TypeCode != nil {
		out["TypeCode"] = *r.TypeCode
	}
	return json.Marshal(out)
}

func looseString(raw json.RawMessage) *string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		s = n.String()
		return &s
	}
	return nil
}

func looseInt(raw json.RawMessage) *int {
	s := looseString(raw)
	if s == nil {
		return nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(*s))
	if err != nil {
		return nil
	}
	return &i
}
