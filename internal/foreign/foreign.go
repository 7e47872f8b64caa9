// Package foreign implements the Foreign Symbol Map (C9, spec.md §4.9): a
// static, exhaustive table from canonical (namespace-stripped) Core-IR
// foreign names to the shim identifiers internal/emit calls directly.
// Shim identifiers are Rust paths (`shim::str_len`, …) — cmd/axis-emit's
// C8 stage emits Rust source that links against the external runtime shim
// crate spec.md §1 names as an out-of-scope collaborator.
//
// Grounded on original_source/rust-bridge/src/runtime/emit_rust.rs's
// get_foreign_symbol_mapping(), pruned of the self-hosting-compiler-internal
// identity mappings (lexer/parser/emitter helper names the original's own
// Rust compiler used only when recompiling itself — axis_lexer_lex,
// parse_atom, emit_term, registry_entry_arity, and their siblings). Those
// names have no referent in this general-purpose pipeline: nothing in
// spec.md names a self-hosting compilation stage, so a Core IR module that
// calls e.g. "parse_atom" as a foreign function is a User-defined name here,
// not a shim the emitter should special-case.
package foreign

// table maps a canonical foreign name to the shim::* Rust path
// internal/emit emits a direct call to (spec.md §4.8.3 step 2).
var table = map[string]string{
	// Arithmetic
	"__add__": "shim::__add__",
	"__sub__": "shim::__sub__",
	"__mul__": "shim::__mul__",
	"__div__": "shim::__div__",
	"__mod__": "shim::__mod__",

	// Comparison
	"__eq__":  "shim::__eq__",
	"__neq__": "shim::__neq__",
	"__lt__":  "shim::__lt__",
	"__lte__": "shim::__lte__",
	"__gt__":  "shim::__gt__",
	"__gte__": "shim::__gte__",

	// Logical
	"__and__":    "shim::__and__",
	"__or__":     "shim::__or__",
	"__not__":    "shim::__not__",
	"__concat__": "shim::__concat__",

	// Tuple construction (surface tuple literal lowering, spec.md §4.4)
	"__tuple__": "shim::tuple",

	// String operations — checked/unchecked pairs kept distinct
	// (spec.md §4.7/§9: collapsing them is a bug).
	"str_len":     "shim::str_len",
	"str_char":    "shim::str_char",    // panics out-of-range
	"str_char_at": "shim::str_char_at", // returns Some/None
	"str_slice":   "shim::str_slice",
	"str_concat":  "shim::str_concat",
	"str_to_int":  "shim::str_to_int",
	"int_to_str":  "shim::int_to_str",

	// List operations
	"list_nil":          "shim::list_nil",
	"list_cons":         "shim::list_cons",
	"list_reverse":      "shim::list_reverse",
	"list_concat":       "shim::list_concat",
	"list_get":          "shim::list_get",    // panics out-of-range
	"list_get_at":       "shim::list_get_at", // returns Some/None
	"list_length":       "shim::list_length",
	"list_map":          "shim::list_map",
	"list_filter":       "shim::list_filter",
	"list_fold":         "shim::list_fold",
	"list_append":       "shim::list_append",
	"list_contains_str": "shim::list_contains_str",
	"list_index_of_str": "shim::list_index_of_str",

	// Tuple/constructor access
	"tuple_field":    "shim::tuple_field",
	"ctor_field":     "shim::ctor_field",
	"__ctor_field__": "shim::ctor_field",
	"proj":           "shim::tuple_field", // alias, spec.md §4.9

	// Value utilities
	"truthy": "shim::truthy",

	// I/O
	"io_print":  "shim::io_print",
	"io_eprint": "shim::io_eprint",
	"io_read":   "shim::io_read",

	// File I/O
	"fs_read_text":      "shim::fs_read_text",
	"fs_read_to_string": "shim::fs_read_text", // alias
	"fs_write_text":     "shim::fs_write_text",
	"fs_exists":         "shim::fs_exists",
	"fs_is_file":        "shim::fs_is_file",
	"fs_is_dir":         "shim::fs_is_dir",

	// Debug/trace
	"debug_trace": "shim::debug_trace",

	// Interning
	"intern_str":   "shim::intern_str",
	"get_str":      "shim::get_str",
	"intern_tag":   "shim::intern_tag",
	"get_tag_name": "shim::get_tag_name",

	// Init
	"init_runtime": "shim::init_runtime",

	// Bundle emission (a Core-defined module may itself call back into
	// the compiler's own bundle writer — spec.md §2's C6 share)
	"axis_emit_core_bundle_to_file": "shim::axis_emit_core_bundle_to_file",
}

// Lookup returns the shim path for a canonical (already
// namespace-stripped) foreign name. ok is false when no mapping exists;
// internal/emit treats that as the spec.md §4.8.3 step-3 hard abort —
// never synthesizing a stub.
func Lookup(name string) (shim string, ok bool) {
	shim, ok = table[name]
	return shim, ok
}

// Names returns every canonical name currently mapped, in map iteration
// (unsorted) order. No other package in this repository calls it.
func Names() []string {
	names := make([]string, 0, len(table))
	for k := range table {
		names = append(names, k)
	}
	return names
}
