// Command axisc is the core compiler CLI (C1-C7, spec.md §6.1): read
// sources, lower,
// validate, serialize to a `.coreir` bundle — or inspect an existing
// bundle's Core IR as a deterministic textual DAG.
//
// Flag handling follows cmd/ailang/main.go's idiom (stdlib `flag`,
// `fatih/color` for stderr/stdout diagnostics) per SPEC_FULL.md §2.1.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/christaylor98/axis-core/internal/bundle"
	"github.com/christaylor98/axis-core/internal/core"
	axiserrors "github.com/christaylor98/axis-core/internal/errors"
	"github.com/christaylor98/axis-core/internal/lexer"
	"github.com/christaylor98/axis-core/internal/lower"
	"github.com/christaylor98/axis-core/internal/parser"
	"github.com/christaylor98/axis-core/internal/registry"
	"github.com/christaylor98/axis-core/internal/runtime"
	"github.com/christaylor98/axis-core/internal/validate"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	var (
		sources     stringList
		registries  stringList
		out         = flag.String("out", "", "output .coreir path (default ./coreir/<stem>.coreir)")
		viewCoreIR  = flag.String("view-core-ir", "", "print a textual DAG of the bundle at this path and exit")
		traceParse  = flag.Bool("trace-parse", false, "toggle verbose parser/codec tracing")
		replMode    = flag.Bool("repl", false, "start the diagnostic REPL")
		versionFlag = flag.Bool("version", false, "print version information")
		jsonErrors  = flag.Bool("json-errors", false, "render a failing diagnostic as a JSON Report (SPEC_FULL.md §7) instead of plain text")
	)
	flag.Var(&sources, "sources", "source file (repeatable)")
	flag.Var(&registries, "registries", "registry file, .axreg/.axreg.yaml (repeatable)")
	flag.Parse()

	if *versionFlag {
		fmt.Println("axisc dev")
		return
	}

	if *traceParse {
		os.Setenv("AXIS_TRACE", "1")
	}

	modes := 0
	if len(sources) > 0 {
		modes++
	}
	if *viewCoreIR != "" {
		modes++
	}
	if *replMode {
		modes++
	}
	if modes != 1 {
		fmt.Fprintln(os.Stderr, red("Error")+": exactly one of --sources, --view-core-ir, --repl is required")
		printUsage()
		os.Exit(1)
	}

	switch {
	case *replMode:
		runREPL()
	case *viewCoreIR != "":
		if err := runViewCoreIR(*viewCoreIR); err != nil {
			reportErr(err, *jsonErrors)
			os.Exit(1)
		}
	default:
		if err := runCompile(sources, registries, *out); err != nil {
			reportErr(err, *jsonErrors)
			os.Exit(1)
		}
	}
}

// reportErr prints err to stderr, either as the usual "Error: ..." line
// or, with --json-errors, as the *axiserrors.Report it carries rendered
// via Report.ToJSON (spec.md §7's machine-readable diagnostic contract).
// Errors with no attached Report (bare os/io failures outside any
// pipeline phase) always fall back to plain text.
func reportErr(err error, asJSON bool) {
	if asJSON {
		if rep, ok := axiserrors.AsReport(err); ok {
			if js, jerr := rep.ToJSON(false); jerr == nil {
				fmt.Fprintln(os.Stderr, js)
				return
			}
		}
	}
	fmt.Fprintln(os.Stderr, red("Error")+": "+err.Error())
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  axisc --sources <f1> [--sources <f2> ...] --registries <r1> [--registries <r2> ...] [--out <path>]")
	fmt.Fprintln(os.Stderr, "  axisc --view-core-ir <file>")
	fmt.Fprintln(os.Stderr, "  axisc --repl")
}

// runCompile implements spec.md §6.1's first mode: concatenate sources
// in given order, load registries in order, lower, validate, serialize.
func runCompile(sources, registries_ []string, out string) error {
	var srcBuilder strings.Builder
	for i, path := range sources {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if i > 0 {
			srcBuilder.WriteString("\n")
		}
		srcBuilder.Write(lexer.Normalize(data))
	}

	file := "<sources>"
	if len(sources) > 0 {
		file = sources[0]
	}

	p := parser.New(srcBuilder.String(), file)
	mod, err := p.Parse()
	if err != nil {
		return err
	}

	prog, err := lower.Lower(mod)
	if err != nil {
		return err
	}

	reg := registry.New()
	if err := reg.LoadFiles(registries_); err != nil {
		return fmt.Errorf("loading registries: %w", err)
	}

	if err := validate.Validate(prog, reg); err != nil {
		return err
	}

	if out == "" {
		stem := "main"
		if len(sources) > 0 {
			base := filepath.Base(sources[0])
			stem = strings.TrimSuffix(base, filepath.Ext(base))
		}
		out = filepath.Join("coreir", stem+".coreir")
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	b := &bundle.Bundle{
		Version:        bundle.Version,
		EntrypointName: "main",
		EntrypointID:   0,
		Root:           prog.Root,
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	defer f.Close()
	if err := bundle.Serialize(f, b); err != nil {
		return fmt.Errorf("serializing bundle: %w", err)
	}

	fmt.Println(green("✓") + " wrote " + bold(out))
	return nil
}

// runViewCoreIR implements spec.md §6.1's second mode: load a bundle and
// print its Core IR as a deterministic textual DAG.
func runViewCoreIR(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	b, err := bundle.Deserialize(data)
	if err != nil {
		return fmt.Errorf("deserializing bundle: %w", err)
	}
	prog := &core.Program{Root: b.Root}
	fmt.Print(core.Inspect(prog))
	return nil
}

// runREPL implements SPEC_FULL.md §4.11's DOMAIN-stack addition: an
// interactive diagnostic shell over inline source text or a loaded
// bundle; :validate checks against an empty registry, so only builtin
// names are known. Grounded on the teacher's internal/repl's use of
// github.com/peterh/liner, rebuilt against this pipeline's own stages
// rather than the teacher's type-checked eval pipeline.
func runREPL() {
	line := liner.NewLiner()
	defer line.Close()
	line.SetMultiLineMode(true)

	fmt.Println(bold("axisc") + " diagnostic REPL")
	fmt.Println("Commands: :tokens <src>, :ast <src>, :core <src>, :validate <src>, :view <bundle>, :eval <src> <entry>, :quit")

	reg := registry.New()

	for {
		input, err := line.Prompt("axisc> ")
		if err != nil {
			return
		}
		line.AppendHistory(input)
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if input == ":quit" {
			return
		}
		handleREPLCommand(input, reg)
	}
}

func handleREPLCommand(input string, reg *registry.Registry) {
	parts := strings.SplitN(input, " ", 2)
	cmd := parts[0]
	rest := ""
	if len(parts) > 1 {
		rest = parts[1]
	}

	switch cmd {
	case ":tokens":
		toks := lexer.Tokenize(string(lexer.Normalize([]byte(rest))), "<repl>")
		for _, t := range toks {
			fmt.Printf("  %s %q\n", t.Type, t.Text)
		}
	case ":ast":
		mod, err := parser.New(rest, "<repl>").Parse()
		if err != nil {
			fmt.Println(red("parse error") + ": " + err.Error())
			return
		}
		fmt.Println(mod.String())
	case ":core":
		prog, err := lowerREPLSource(rest)
		if err != nil {
			fmt.Println(red("error") + ": " + err.Error())
			return
		}
		fmt.Print(core.Inspect(prog))
	case ":validate":
		prog, err := lowerREPLSource(rest)
		if err != nil {
			fmt.Println(red("error") + ": " + err.Error())
			return
		}
		if err := validate.Validate(prog, reg); err != nil {
			fmt.Println(red("invalid") + ": " + err.Error())
			return
		}
		fmt.Println(green("valid"))
	case ":view":
		data, err := os.ReadFile(rest)
		if err != nil {
			fmt.Println(red("error") + ": " + err.Error())
			return
		}
		b, err := bundle.Deserialize(data)
		if err != nil {
			fmt.Println(red("error") + ": " + err.Error())
			return
		}
		fmt.Print(core.Inspect(&core.Program{Root: b.Root}))
	case ":eval":
		args := strings.SplitN(rest, " ", 2)
		if len(args) < 2 {
			fmt.Println(yellow("usage") + ": :eval <src> <entry>")
			return
		}
		prog, err := lowerREPLSource(args[0])
		if err != nil {
			fmt.Println(red("error") + ": " + err.Error())
			return
		}
		result, err := runtime.RunEntry(prog, args[1], runtime.Unit())
		if err != nil {
			fmt.Println(red("eval error") + ": " + err.Error())
			return
		}
		fmt.Println(result.String())
	default:
		fmt.Println(yellow("unknown command") + ": " + cmd)
	}
}

func lowerREPLSource(src string) (*core.Program, error) {
	mod, err := parser.New(src, "<repl>").Parse()
	if err != nil {
		return nil, err
	}
	return lower.Lower(mod)
}
