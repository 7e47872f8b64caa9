// Package errors centralizes AXIS's structured error reporting: a
// phase-tagged code taxonomy and a canonical *Report type that survives
// errors.As() unwrapping, following the teacher's internal/errors
// (codes.go + report.go) pattern.
package errors

// Phase names a pipeline stage for Report.Phase and ErrorInfo.Phase.
// These line up with spec.md's component table (C1-C10): PAR is the
// surface parser (C3), REG the registry loader (C1), LOW surface
// lowering (C4), COD the bundle codec (C6), EMT the Rust emitter (C8),
// RUN the reference evaluator, BLD the build driver (C10). Core
// validation (C5) has no prefix: it reports under the validator phase
// with the E_UNBOUND_VAR and E_APPLY_NON_FUNCTION codes.
const (
	PhaseParser   = "parser"
	PhaseRegistry = "registry"
	PhaseLower    = "lower"
	PhaseValidate = "validator"
	PhaseCodec    = "codec"
	PhaseEmit     = "emitter"
	PhaseRuntime  = "runtime"
	PhaseBuild    = "build"
)

// Error codes already fixed by spec.md's testable properties (§7/§8):
// these strings are part of the wire contract and must not change shape.
const (
	EUnboundVar       = "E_UNBOUND_VAR"
	EApplyNonFunction = "E_APPLY_NON_FUNCTION"
	EMT001            = "EMT001" // unmapped foreign symbol, spec.md §4.8.3 step 3
)

// Codes introduced for phases spec.md left informal, following the
// teacher's PAR###/REG###/... numbering convention.
const (
	PAR001 = "PAR001" // unexpected token
	PAR002 = "PAR002" // missing closing delimiter
	PAR003 = "PAR003" // malformed pattern source

	REG001 = "REG001" // registry file unreadable
	REG002 = "REG002" // malformed registry line
	REG003 = "REG003" // duplicate function name

	LOW001 = "LOW001" // unsupported surface construct
	LOW002 = "LOW002" // match with no arms
	LOW003 = "LOW003" // malformed pattern string

	COD001 = "COD001" // unknown bundle version
	COD002 = "COD002" // unknown term/pattern tag during decode

	RUN001 = "RUN001" // unbound variable at runtime
	RUN002 = "RUN002" // non-exhaustive match
	RUN003 = "RUN003" // application of a non-function
	RUN004 = "RUN004" // value shape mismatch (projection, closure-where-value-expected, unsupported term)

	BLD001 = "BLD001" // cargo build failed
	BLD002 = "BLD002" // output copy failed
)

// ErrorInfo is introspectable metadata about an error code, following the
// teacher's ErrorRegistry map-of-ErrorInfo pattern.
type ErrorInfo struct {
	Code        string
	Phase       string
	Category    string
	Description string
}

// ErrorRegistry maps every code AXIS emits to its metadata.
var ErrorRegistry = map[string]ErrorInfo{
	EUnboundVar:       {EUnboundVar, PhaseValidate, "scope", "Unbound variable"},
	EApplyNonFunction: {EApplyNonFunction, PhaseValidate, "application", "Function position cannot denote a function"},
	EMT001:            {EMT001, PhaseEmit, "foreign", "Foreign symbol has no shim mapping"},

	PAR001: {PAR001, PhaseParser, "syntax", "Unexpected token"},
	PAR002: {PAR002, PhaseParser, "syntax", "Missing closing delimiter"},
	PAR003: {PAR003, PhaseParser, "syntax", "Malformed match-arm pattern source"},

	REG001: {REG001, PhaseRegistry, "io", "Registry file unreadable"},
	REG002: {REG002, PhaseRegistry, "syntax", "Malformed registry line"},
	REG003: {REG003, PhaseRegistry, "namespace", "Duplicate function name"},

	LOW001: {LOW001, PhaseLower, "structure", "Unsupported surface construct"},
	LOW002: {LOW002, PhaseLower, "structure", "Match with no arms"},
	LOW003: {LOW003, PhaseLower, "syntax", "Malformed pattern string"},

	COD001: {COD001, PhaseCodec, "version", "Unknown bundle version"},
	COD002: {COD002, PhaseCodec, "structure", "Unknown term or pattern tag"},

	RUN001: {RUN001, PhaseRuntime, "scope", "Unbound variable"},
	RUN002: {RUN002, PhaseRuntime, "pattern", "Non-exhaustive match"},
	RUN003: {RUN003, PhaseRuntime, "application", "Application of a non-function"},
	RUN004: {RUN004, PhaseRuntime, "type", "Value shape mismatch"},

	BLD001: {BLD001, PhaseBuild, "toolchain", "cargo build failed"},
	BLD002: {BLD002, PhaseBuild, "io", "Failed to copy build output"},
}

// GetErrorInfo returns the metadata registered for code, if any.
func GetErrorInfo(code string) (ErrorInfo, bool) {
	info, ok := ErrorRegistry[code]
	return info, ok
}
