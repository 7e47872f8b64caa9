// Package registry implements the Foreign Function Registry loader (C1,
// spec.md §4.1/§3.3): merging `.axreg` text files (and, as a DOMAIN
// supplement, `.axreg.yaml`/`.yml` files) into a single name→entry map,
// plus the Builtin/Foreign/User call classification C5 and C8 consume.
//
// Grounded on original_source/core-compiler/src/registry_loader.rs for the
// exact `.axreg` grammar and on validation_registry.rs for the canonical
// builtin allowlist (the authoritative copy, the one that includes
// debug_trace — registry_loader.rs's own copy is a known-divergent
// duplicate and is not reproduced here).
package registry

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/christaylor98/axis-core/internal/ast"
	axiserrors "github.com/christaylor98/axis-core/internal/errors"
	"gopkg.in/yaml.v3"
)

// Entry is one registered foreign function.
type Entry struct {
	Name          string
	Arity         uint32
	Deterministic bool
	Profiles      []string
}

// Kind classifies a call-site reference against the registry and the
// hardcoded builtin allowlist (spec.md §4.1).
type Kind int

const (
	KindUser Kind = iota
	KindBuiltin
	KindForeign
)

func (k Kind) String() string {
	switch k {
	case KindBuiltin:
		return "Builtin"
	case KindForeign:
		return "Foreign"
	default:
		return "User"
	}
}

// Registry is the merged set of loaded entries.
type Registry struct {
	entries map[string]Entry
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Entries returns the merged name→entry map. Callers must not mutate it.
func (r *Registry) Entries() map[string]Entry { return r.entries }

// Lookup returns the entry for name, if any.
func (r *Registry) Lookup(name string) (Entry, bool) {
	e, ok := r.entries[name]
	return e, ok
}

// LoadFiles loads and merges every path in order, stopping at the first
// error (spec.md §4.1: "an error describing the first offending
// file/line"). `.yaml`/`.yml` paths use the YAML supplement; everything
// else is parsed as `.axreg` text.
func (r *Registry) LoadFiles(paths []string) error {
	for _, p := range paths {
		if err := r.LoadFile(p); err != nil {
			return err
		}
	}
	return nil
}

// LoadFile loads a single registry file, dispatching on extension.
func (r *Registry) LoadFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		msg := fmt.Sprintf("failed to read registry file %s: %s", path, err)
		return axiserrors.WrapReport(axiserrors.New(axiserrors.PhaseRegistry, axiserrors.REG001, msg, ast.Pos{File: path}))
	}
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		return r.parseYAML(content, path)
	}
	return r.parseAxreg(string(content), path)
}

// yamlEntry is the `.axreg.yaml` wire shape: the same four fields as an
// `.axreg` fn block, bulk-authored as a YAML list (DOMAIN supplement,
// spec.md §3.3 addendum).
type yamlEntry struct {
	Name          string   `yaml:"name"`
	Arity         uint32   `yaml:"arity"`
	Deterministic bool     `yaml:"deterministic"`
	Profiles      []string `yaml:"profiles"`
}

func (r *Registry) parseYAML(content []byte, path string) error {
	var entries []yamlEntry
	if err := yaml.Unmarshal(content, &entries); err != nil {
		msg := fmt.Sprintf("failed to parse registry file %s: %s", path, err)
		return axiserrors.WrapReport(axiserrors.New(axiserrors.PhaseRegistry, axiserrors.REG002, msg, ast.Pos{File: path}))
	}
	for _, e := range entries {
		if _, exists := r.entries[e.Name]; exists {
			msg := fmt.Sprintf("duplicate function name %q in registry", e.Name)
			return axiserrors.WrapReport(axiserrors.New(axiserrors.PhaseRegistry, axiserrors.REG003, msg, ast.Pos{File: path}))
		}
		r.entries[e.Name] = Entry{
			Name:          e.Name,
			Arity:         e.Arity,
			Deterministic: e.Deterministic,
			Profiles:      e.Profiles,
		}
	}
	return nil
}

// parseAxreg parses the line-oriented `fn … end` grammar of spec.md §6.2.
func (r *Registry) parseAxreg(content, path string) error {
	lines := strings.Split(content, "\n")
	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])

		if line == "" || strings.HasPrefix(line, "//") {
			i++
			continue
		}

		if !strings.HasPrefix(line, "fn ") {
			msg := fmt.Sprintf("unexpected line in %s: %s", path, line)
			return axiserrors.WrapReport(axiserrors.New(axiserrors.PhaseRegistry, axiserrors.REG002, msg, ast.Pos{File: path, Line: i + 1}))
		}

		name := strings.TrimSpace(line[len("fn "):])
		i++

		var arity *uint32
		var deterministic *bool
		var profiles []string

		for i < len(lines) {
			field := strings.TrimSpace(lines[i])
			i++

			if field == "end" {
				break
			}
			switch {
			case strings.HasPrefix(field, "arity "):
				n, err := strconv.ParseUint(strings.TrimSpace(field[len("arity "):]), 10, 32)
				if err != nil {
					msg := fmt.Sprintf("invalid arity in %s: %s", path, field[len("arity "):])
					return axiserrors.WrapReport(axiserrors.New(axiserrors.PhaseRegistry, axiserrors.REG002, msg, ast.Pos{File: path, Line: i}))
				}
				a := uint32(n)
				arity = &a
			case strings.HasPrefix(field, "deterministic "):
				d := strings.TrimSpace(field[len("deterministic "):]) == "true"
				deterministic = &d
			case strings.HasPrefix(field, "profile "):
				profiles = append(profiles, strings.TrimSpace(field[len("profile "):]))
			}
		}

		if arity == nil {
			msg := fmt.Sprintf("missing 'arity' field for function %q in %s", name, path)
			return axiserrors.WrapReport(axiserrors.New(axiserrors.PhaseRegistry, axiserrors.REG002, msg, ast.Pos{File: path}))
		}
		if deterministic == nil {
			msg := fmt.Sprintf("missing 'deterministic' field for function %q in %s", name, path)
			return axiserrors.WrapReport(axiserrors.New(axiserrors.PhaseRegistry, axiserrors.REG002, msg, ast.Pos{File: path}))
		}
		if _, exists := r.entries[name]; exists {
			msg := fmt.Sprintf("duplicate function name %q in registry", name)
			return axiserrors.WrapReport(axiserrors.New(axiserrors.PhaseRegistry, axiserrors.REG003, msg, ast.Pos{File: path}))
		}

		r.entries[name] = Entry{
			Name:          name,
			Arity:         *arity,
			Deterministic: *deterministic,
			Profiles:      profiles,
		}
	}
	return nil
}

// Classify returns the call-site kind for name (spec.md §4.1): Builtin
// (hardcoded allowlist) takes priority, then a registry hit is Foreign
// (an arity mismatch is still reported as Foreign — validation surfaces
// the mismatch separately), otherwise User.
func (r *Registry) Classify(name string, callArity int) Kind {
	if IsBuiltin(name) {
		return KindBuiltin
	}
	if _, ok := r.entries[name]; ok {
		return KindForeign
	}
	return KindUser
}

// IsKnown reports whether name is either a builtin or a registry entry
// (spec.md §4.5's C1 unbound-variable rule consults exactly this test).
func (r *Registry) IsKnown(name string) bool {
	if _, ok := r.entries[name]; ok {
		return true
	}
	return IsBuiltin(name)
}

// IsBuiltin is the single canonical allowlist check, reconciling the
// teacher-observed divergent copies in registry_loader.rs (no
// debug_trace) and validation_registry.rs (has debug_trace): this
// implementation includes debug_trace, matching the validator's
// authoritative copy, since validation is the consumer that must agree
// with emission about what counts as builtin.
func IsBuiltin(name string) bool {
	switch name {
	case "+", "-", "*", "/", "%",
		"__add__", "__sub__", "__mul__", "__div__", "__mod__",
		"==", "!=", "<", "<=", ">", ">=",
		"__eq__", "__lt__", "__lte__", "__gt__", "__gte__",
		"&&", "||", "!",
		"__and__", "__or__", "__not__",
		"tuple_field",
		"str_len", "str_char", "str_char_at", "str_slice", "str_concat", "__concat__",
		"int_to_str", "str_to_int",
		"debug_trace":
		return true
	}
	if strings.HasSuffix(name, "___main") {
		return true
	}
	if strings.Contains(name, "__add__") || strings.Contains(name, "__sub__") ||
		strings.Contains(name, "__mul__") || strings.Contains(name, "__div__") {
		return true
	}
	return false
}
