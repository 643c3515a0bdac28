package model

// Severity of a validation issue
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single validation finding, structured so it can be rendered
// without re-deriving context
type Issue struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Code     string   `json:"code" yaml:"code"`                       // Machine-readable, e.g. CLAIM_SOURCE_MISSING
	Message  string   `json:"message" yaml:"message"`                 // Human-readable description
	Field    string   `json:"field,omitempty" yaml:"field,omitempty"` // Offending field
	Kind     Kind     `json:"kind,omitempty" yaml:"kind,omitempty"`   // Table of the offending record
	RecordID string   `json:"record_id,omitempty" yaml:"record_id,omitempty"`
	Value    any      `json:"value,omitempty" yaml:"value,omitempty"` // Offending value
}

// IsError reports whether the issue blocks a pass
func (i Issue) IsError() bool { return i.Severity == SeverityError }

// Report is the result of a batch validation pass. It is a report, not an
// error: callers decide pass/fail through Passed.
type Report struct {
	OK           bool    `json:"ok" yaml:"ok"`
	Strict       bool    `json:"strict" yaml:"strict"`
	ErrorCount   int     `json:"error_count" yaml:"error_count"`
	WarningCount int     `json:"warning_count" yaml:"warning_count"`
	Checked      Counts  `json:"checked" yaml:"checked"`
	Issues       []Issue `json:"issues" yaml:"issues"`
}

// Counts of records per table
type Counts struct {
	Sources        int `json:"sources" yaml:"sources"`
	Claims         int `json:"claims" yaml:"claims"`
	Chains         int `json:"chains" yaml:"chains"`
	Predictions    int `json:"predictions" yaml:"predictions"`
	Contradictions int `json:"contradictions" yaml:"contradictions"`
	Definitions    int `json:"definitions" yaml:"definitions"`
}

// NewReport tallies issues and computes the pass/fail outcome
func NewReport(issues []Issue, checked Counts, strict bool) Report {
	if issues == nil {
		issues = []Issue{}
	}
	r := Report{Strict: strict, Checked: checked, Issues: issues}
	for _, is := range issues {
		if is.IsError() {
			r.ErrorCount++
		} else {
			r.WarningCount++
		}
	}
	r.OK = Passed(issues, strict)
	return r
}

// Passed computes the aggregate outcome. In strict mode warnings count as
// errors; the issue list itself is never altered.
func Passed(issues []Issue, strict bool) bool {
	for _, is := range issues {
		if is.IsError() || strict {
			return false
		}
	}
	return true
}

// HasErrors reports whether any issue has error severity
func HasErrors(issues []Issue) bool {
	for _, is := range issues {
		if is.IsError() {
			return true
		}
	}
	return false
}
