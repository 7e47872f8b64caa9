// Command axis-emit is the code-emission stage (C8, using C9's foreign
// map) plus the thin build driver (C10, spec.md §4.10): load a Core
// bundle, emit Rust source via internal/emit, materialize a scratch
// Cargo package around it, and invoke `cargo build --release`.
//
// Grounded on original_source/rust-bridge/src/main.rs's `run_build` and
// its `inspect` companion, rebuilt on github.com/spf13/cobra per
// SPEC_FULL.md §2.1 (the teacher's go.mod lists cobra/pflag only as
// indirect dependencies; this binary is what makes them direct,
// exercised ones) in place of the original's hand-rolled arg loop.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/christaylor98/axis-core/internal/ast"
	"github.com/christaylor98/axis-core/internal/bundle"
	"github.com/christaylor98/axis-core/internal/core"
	"github.com/christaylor98/axis-core/internal/emit"
	axiserrors "github.com/christaylor98/axis-core/internal/errors"
)

var (
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	bold  = color.New(color.Bold).SprintFunc()
)

var jsonErrors bool

func main() {
	root := &cobra.Command{
		Use:   "axis-emit",
		Short: "Emit and build a Core bundle against the Axis Rust runtime shim",
	}
	root.PersistentFlags().BoolVar(&jsonErrors, "json-errors", false, "render a failing diagnostic as a JSON Report (SPEC_FULL.md §7) instead of plain text")
	root.AddCommand(newBuildCmd())
	root.AddCommand(newInspectCmd())

	if err := root.Execute(); err != nil {
		reportErr(err)
		os.Exit(1)
	}
}

// reportErr mirrors cmd/axisc's diagnostic rendering: plain "Error: ..."
// by default, or the underlying *axiserrors.Report as JSON when
// --json-errors is set and err carries one.
func reportErr(err error) {
	if jsonErrors {
		if rep, ok := axiserrors.AsReport(err); ok {
			if js, jerr := rep.ToJSON(false); jerr == nil {
				fmt.Fprintln(os.Stderr, js)
				return
			}
		}
	}
	fmt.Fprintln(os.Stderr, red("Error")+": "+err.Error())
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <path-to.coreir>",
		Short: "Print a deterministic textual DAG of a Core bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			b, err := bundle.Deserialize(data)
			if err != nil {
				return fmt.Errorf("deserializing bundle: %w", err)
			}
			fmt.Print(core.Inspect(&core.Program{Root: b.Root}))
			return nil
		},
	}
}

func newBuildCmd() *cobra.Command {
	var (
		outPath   string
		shimCrate string
	)
	cmd := &cobra.Command{
		Use:   "build <path-to.coreir>",
		Short: "Emit Rust from a Core bundle and build it with cargo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outPath == "" {
				return fmt.Errorf("--out is required")
			}
			return runBuild(args[0], outPath, shimCrate)
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "output binary path")
	cmd.Flags().StringVar(&shimCrate, "shim-crate", defaultShimCrate(), "path to the axis_rust_bridge runtime shim crate")
	return cmd
}

// defaultShimCrate resolves the runtime shim crate's path from the
// AXIS_SHIM_CRATE environment variable, falling back to a path relative
// to the current working directory. Unlike the original's hardcoded
// `/home/chris/dev/axis-lang/axis-rust-bridge` fallback, this never
// bakes a developer's home directory into the binary — every caller
// either sets the environment variable or passes --shim-crate
// explicitly in any environment other than a same-checkout smoke test.
func defaultShimCrate() string {
	if v := os.Getenv("AXIS_SHIM_CRATE"); v != "" {
		return v
	}
	return "./axis-rust-bridge"
}

// runBuild mirrors original_source/rust-bridge/src/main.rs's run_build:
// scratch build_dir removal+recreation, bundle load, Rust emission,
// generated Cargo.toml + axis_generated.rs + wrapper main.rs, `cargo
// build --release` with a heartbeat, binary copy to out.
func runBuild(corePath, outPath, shimCrate string) error {
	phaseStart := time.Now()
	eprintPhase("phase_axis_emit_run", "start", 0)
	defer func() {
		eprintPhase("phase_axis_emit_run", "end", time.Since(phaseStart).Milliseconds())
	}()

	buildDir := filepath.Join(os.TempDir(), fmt.Sprintf("axis_emit_build_%d", os.Getpid()))
	if err := os.RemoveAll(buildDir); err != nil {
		return fmt.Errorf("clearing scratch build dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(buildDir, "src"), 0o755); err != nil {
		return fmt.Errorf("creating scratch build dir: %w", err)
	}

	sub := time.Now()
	eprintPhase("phase_core_ir_load", "start", 0)
	data, err := os.ReadFile(corePath)
	if err != nil {
		return fmt.Errorf("Core IR file not found: %w", err)
	}
	b, err := bundle.Deserialize(data)
	if err != nil {
		return fmt.Errorf("failed to load Core IR bundle: %w", err)
	}
	eprintPhase("phase_core_ir_load", "end", time.Since(sub).Milliseconds())

	sub = time.Now()
	eprintPhase("phase_emit_rust", "start", 0)
	generated, err := emit.Emit(&core.Program{Root: b.Root})
	if err != nil {
		return fmt.Errorf("failed to emit Rust: %w", err)
	}
	eprintPhase("phase_emit_rust", "end", time.Since(sub).Milliseconds())

	cargoToml := fmt.Sprintf(`[package]
name = "axis_emitted"
version = "0.1.0"
edition = "2021"

[dependencies]
axis-rust-bridge = { path = %q }
`, shimCrate)
	if err := os.WriteFile(filepath.Join(buildDir, "Cargo.toml"), []byte(cargoToml), 0o644); err != nil {
		return fmt.Errorf("writing Cargo.toml: %w", err)
	}
	if err := os.WriteFile(filepath.Join(buildDir, "src", "axis_generated.rs"), []byte(generated), 0o644); err != nil {
		return fmt.Errorf("writing generated Rust: %w", err)
	}
	if err := os.WriteFile(filepath.Join(buildDir, "src", "main.rs"), []byte(wrapperMainRs), 0o644); err != nil {
		return fmt.Errorf("writing wrapper main.rs: %w", err)
	}

	fmt.Println("Building emitted Rust with cargo...")
	sub = time.Now()
	eprintPhase("phase_cargo_build", "start", 0)
	if err := runCargoBuildWithHeartbeat(buildDir); err != nil {
		return err
	}
	eprintPhase("phase_cargo_build", "end", time.Since(sub).Milliseconds())

	builtBin := filepath.Join(buildDir, "target", "release", "axis_emitted")
	if err := copyFile(builtBin, outPath); err != nil {
		msg := fmt.Sprintf("failed to copy binary to output: %s", err)
		return axiserrors.WrapReport(axiserrors.New(axiserrors.PhaseBuild, axiserrors.BLD002, msg, ast.Pos{File: corePath}))
	}

	fmt.Println(green("✓") + " wrote binary -> " + bold(outPath))
	return nil
}

// runCargoBuildWithHeartbeat spawns `cargo build --release` in dir and
// prints a progress line every second while it runs, matching the
// original's `[PROGRESS] phase=axis_rust_bridge loop=cargo_build_wait
// count=<ms>` cadence.
func runCargoBuildWithHeartbeat(dir string) error {
	cmd := exec.Command("cargo", "build", "--release")
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to spawn cargo build: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	start := time.Now()
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			if err != nil {
				msg := fmt.Sprintf("cargo build failed: %s", err)
				return axiserrors.WrapReport(axiserrors.New(axiserrors.PhaseBuild, axiserrors.BLD001, msg, ast.Pos{File: dir}))
			}
			return nil
		case <-ticker.C:
			elapsed := time.Since(start).Milliseconds()
			fmt.Fprintf(os.Stderr, "[PROGRESS] phase=axis_build loop=cargo_build_wait count=%d\n", elapsed)
		}
	}
}

func eprintPhase(phase, edge string, ms int64) {
	if edge == "start" {
		fmt.Fprintf(os.Stderr, "[PHASE] %s=start\n", phase)
		return
	}
	fmt.Fprintf(os.Stderr, "[PHASE] %s=end ms=%d\n", phase, ms)
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o755)
}

// wrapperMainRs is the thin executable entry point the generated
// axis_generated.rs module (which defines no `main`) is linked against:
// it initializes the runtime, converts host CLI args into the Cons/Nil
// list axis_entry expects, and maps the resulting Value::Int to a
// process exit code (spec.md §6.4).
const wrapperMainRs = `mod axis_generated;
use axis_rust_bridge::runtime::*;

fn main() {
    init_runtime();

    let cli_args: Vec<String> = std::env::args().skip(1).collect();

    let mut axis_args = Value::Ctor {
        tag: intern_tag("Nil"),
        fields: vec![],
    };
    for arg in cli_args.iter().rev() {
        axis_args = Value::Ctor {
            tag: intern_tag("Cons"),
            fields: vec![Value::Str(intern_str(arg)), axis_args],
        };
    }

    let result = axis_generated::axis_entry(axis_args);

    let exit_code = match result {
        Value::Int(n) => n as i32,
        _ => 0,
    };
    std::process::exit(exit_code);
}
`
