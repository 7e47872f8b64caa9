package errors

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/christaylor98/axis-core/internal/ast"
)

const schemaV1 = "axis.error/v1"

// Report is the canonical structured error type for AXIS. Every phase
// builds one via New and returns it wrapped as an error (ReportError),
// so a caller several layers up can recover the structure with AsReport
// instead of re-parsing Error() strings.
type Report struct {
	Schema  string         `json:"schema"`
	Code    string         `json:"code"`
	Phase   string         `json:"phase"`
	Message string         `json:"message"`
	Span    *ast.Pos       `json:"span,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
	Fix     *Fix           `json:"fix,omitempty"`
}

// Fix is a suggested remediation, carried but never populated by this
// repo's phases today (spec.md names no fix-suggestion feature).
type Fix struct {
	Suggestion string  `json:"suggestion"`
	Confidence float64 `json:"confidence"`
}

// New builds a Report for code in phase, with an optional source span.
// span may be the zero ast.Pos, in which case it is omitted from Error()
// and JSON output.
func New(phase, code, message string, span ast.Pos) *Report {
	r := &Report{Schema: schemaV1, Code: code, Phase: phase, Message: message}
	if span != (ast.Pos{}) {
		r.Span = &span
	}
	return r
}

func (r *Report) Error() string {
	if r.Span == nil {
		return fmt.Sprintf("%s: %s", r.Code, r.Message)
	}
	return fmt.Sprintf("%s: %s\n  at %s:%d:%d", r.Code, r.Message, r.Span.File, r.Span.Line, r.Span.Column)
}

// ToJSON renders the report deterministically (struct field order is
// fixed, so json.Marshal already emits a stable key order).
func (r *Report) ToJSON(compact bool) (string, error) {
	var data []byte
	var err error
	if compact {
		data, err = json.Marshal(r)
	} else {
		data, err = json.MarshalIndent(r, "", "  ")
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReportError wraps a Report as an error so it survives errors.As()
// unwrapping regardless of how many times a caller wraps it with
// fmt.Errorf("...: %w", err).
type ReportError struct {
	Rep *Report
}

func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown error"
	}
	return e.Rep.Error()
}

// WrapReport wraps r as an error. Returns nil if r is nil, so call sites
// can write `return errors.WrapReport(r)` unconditionally.
func WrapReport(r *Report) error {
	if r == nil {
		return nil
	}
	return &ReportError{Rep: r}
}

// AsReport extracts the *Report from err's chain, if any link is a
// *Report or a *ReportError.
func AsReport(err error) (*Report, bool) {
	var rep *Report
	if errors.As(err, &rep) {
		return rep, true
	}
	var re *ReportError
	if errors.As(err, &re) {
		return re.Rep, true
	}
	return nil, false
}

// NewGeneric wraps an arbitrary error from phase under a phase-qualified
// generic code, for call sites that haven't been assigned a specific one.
func NewGeneric(phase string, err error) *Report {
	return &Report{Schema: schemaV1, Code: phase + "_GENERIC", Phase: phase, Message: err.Error()}
}
