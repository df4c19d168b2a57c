package domain

import (
	"encoding/json"
	"strings"
)

// CallAnalysisResult is the immutable output of one analysis pass over a
// call transcript. It is produced once per analyzed call by the analysis
// collaborator and consumed read-only by the advancement policy.
type CallAnalysisResult struct {
	Summary       string
	ActionItems   []string
	NextStep      string
	Determination Determination
}

// StructuredDetermination holds the deal-status assessment fields when the
// upstream analysis produced parseable structure.
type StructuredDetermination struct {
	LikelihoodToClose  string   `json:"likelihood_to_close"`
	QualificationLevel string   `json:"prospect_qualification_level"`
	RedFlags           []string `json:"red_flags"`
}

type determinationKind int

const (
	determinationRaw determinationKind = iota
	determinationStructured
)

// Determination is a tagged variant: either the structured assessment
// fields, or the raw text blob when upstream parsing did not succeed.
// Callers must branch on Structured/Raw rather than probing optional
// fields.
type Determination struct {
	kind       determinationKind
	structured StructuredDetermination
	raw        string
}

// NewStructuredDetermination builds the structured variant.
func NewStructuredDetermination(fields StructuredDetermination) Determination {
	return Determination{kind: determinationStructured, structured: fields}
}

// NewRawDetermination builds the raw-text variant.
func NewRawDetermination(text string) Determination {
	return Determination{kind: determinationRaw, raw: text}
}

// Structured returns the structured fields when this determination carries
// them.
func (d Determination) Structured() (StructuredDetermination, bool) {
	return d.structured, d.kind == determinationStructured
}

// Raw returns the raw text when this determination is unstructured.
func (d Determination) Raw() (string, bool) {
	return d.raw, d.kind == determinationRaw
}

// Text renders the determination for display and persistence.
func (d Determination) Text() string {
	if d.kind == determinationRaw {
		return d.raw
	}
	parts := make([]string, 0, 3)
	if d.structured.LikelihoodToClose != "" {
		parts = append(parts, "likelihood to close: "+d.structured.LikelihoodToClose)
	}
	if d.structured.QualificationLevel != "" {
		parts = append(parts, "qualification: "+d.structured.QualificationLevel)
	}
	if len(d.structured.RedFlags) > 0 {
		parts = append(parts, "red flags: "+strings.Join(d.structured.RedFlags, "; "))
	}
	return strings.Join(parts, ", ")
}

// ParseDetermination interprets an upstream determination payload. JSON
// objects with the expected fields yield the structured variant; anything
// else degrades to the raw variant. It never fails — an unparseable payload
// simply carries no favorable signal.
func ParseDetermination(payload string) Determination {
	trimmed := strings.TrimSpace(payload)
	if !strings.HasPrefix(trimmed, "{") {
		return NewRawDetermination(trimmed)
	}

	var fields StructuredDetermination
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return NewRawDetermination(trimmed)
	}
	if fields.LikelihoodToClose == "" && fields.QualificationLevel == "" && len(fields.RedFlags) == 0 {
		return NewRawDetermination(trimmed)
	}
	return NewStructuredDetermination(fields)
}
