package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/christaylor98/axis-core/internal/ast"
)

func TestErrorCodeTaxonomy(t *testing.T) {
	tests := []struct {
		code     string
		phase    string
		category string
	}{
		{PAR001, PhaseParser, "syntax"},
		{REG003, PhaseRegistry, "namespace"},
		{LOW002, PhaseLower, "structure"},
		{EUnboundVar, PhaseValidate, "scope"},
		{COD001, PhaseCodec, "version"},
		{EMT001, PhaseEmit, "foreign"},
		{RUN003, PhaseRuntime, "application"},
		{BLD001, PhaseBuild, "toolchain"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			info, ok := GetErrorInfo(tt.code)
			if !ok {
				t.Fatalf("code %s not found in registry", tt.code)
			}
			if info.Phase != tt.phase {
				t.Errorf("phase mismatch for %s: got %s, want %s", tt.code, info.Phase, tt.phase)
			}
			if info.Category != tt.category {
				t.Errorf("category mismatch for %s: got %s, want %s", tt.code, info.Category, tt.category)
			}
			if info.Description == "" {
				t.Errorf("empty description for %s", tt.code)
			}
		})
	}
}

func TestErrorRegistryConsistency(t *testing.T) {
	for code, info := range ErrorRegistry {
		if info.Code != code {
			t.Errorf("registry key %s does not match info.Code %s", code, info.Code)
		}
	}
}

func TestReportErrorRoundTripsViaErrorsAs(t *testing.T) {
	rep := New(PhaseValidate, EUnboundVar, "unbound variable: x", ast.Pos{File: "m.axis", Line: 3, Column: 5})
	wrapped := fmt.Errorf("validating: %w", WrapReport(rep))

	got, ok := AsReport(wrapped)
	if !ok {
		t.Fatal("expected AsReport to recover the Report through fmt.Errorf wrapping")
	}
	if got.Code != EUnboundVar {
		t.Errorf("got code %s, want %s", got.Code, EUnboundVar)
	}
	if got.Span == nil || got.Span.Line != 3 {
		t.Errorf("span not preserved: %+v", got.Span)
	}

	var re *ReportError
	if !errors.As(wrapped, &re) {
		t.Error("expected errors.As to find *ReportError in the chain")
	}
}

func TestWrapReportNil(t *testing.T) {
	if err := WrapReport(nil); err != nil {
		t.Errorf("expected nil error for nil report, got %v", err)
	}
}

func TestReportZeroSpanOmitted(t *testing.T) {
	rep := New(PhaseRuntime, RUN003, "application of non-function", ast.Pos{})
	if rep.Span != nil {
		t.Errorf("expected zero span to be omitted, got %+v", rep.Span)
	}
	if rep.Error() != "RUN003: application of non-function" {
		t.Errorf("unexpected Error() string: %s", rep.Error())
	}
}

func TestReportToJSON(t *testing.T) {
	rep := New(PhaseEmit, EMT001, "no shim mapping for foo", ast.Pos{File: "m.axis", Line: 1, Column: 1})

	js, err := rep.ToJSON(true)
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(js), &decoded); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if decoded["code"] != EMT001 {
		t.Errorf("expected code %s, got %v", EMT001, decoded["code"])
	}
	if decoded["phase"] != PhaseEmit {
		t.Errorf("expected phase %s, got %v", PhaseEmit, decoded["phase"])
	}
	if decoded["schema"] != schemaV1 {
		t.Errorf("expected schema %s, got %v", schemaV1, decoded["schema"])
	}
}

func TestNewGeneric(t *testing.T) {
	rep := NewGeneric(PhaseBuild, fmt.Errorf("disk full"))
	if rep.Phase != PhaseBuild {
		t.Errorf("expected phase %s, got %s", PhaseBuild, rep.Phase)
	}
	if rep.Message != "disk full" {
		t.Errorf("expected message %q, got %q", "disk full", rep.Message)
	}
}
