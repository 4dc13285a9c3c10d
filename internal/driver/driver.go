// Package driver is the external-to-the-core glue spec.md §6 describes:
// it reads a source file, drives the front end and the core compilation
// passes over every declared function, and shells out to `as`/`ld` to
// turn the emitted assembly into a binary. None of this is part of the
// core itself — the core's public surface succeeds or aborts, and the
// driver is what turns an abort or a front-end error into a reported
// diagnostic and a process exit code.
package driver

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/exp-lang/expc/internal/check"
	"github.com/exp-lang/expc/internal/diag"
	"github.com/exp-lang/expc/internal/emit"
	"github.com/exp-lang/expc/internal/ir"
	"github.com/exp-lang/expc/internal/parser"
	"github.com/exp-lang/expc/internal/x64"
)

// Options configures one compilation run.
type Options struct {
	SrcPath string
	OutPath string
	Trace   bool   // -trace: verbose compiler pass tracing via internal/diag
	DumpIR  string // -dump-ir <path>: write the YAML IR dump here; "" disables it
}

// Run compiles Options.SrcPath to Options.OutPath, returning a non-nil
// error for any lexing, parsing, type-checking, core-compilation, or
// external-tool failure (spec.md §6's exit-code contract; the caller in
// cmd/expc maps a non-nil error to a non-zero exit).
func Run(opts Options) error {
	src, err := os.ReadFile(opts.SrcPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", opts.SrcPath, err)
	}

	prog, err := parser.Parse(string(src))
	if err != nil {
		return fmt.Errorf("%s:%s", opts.SrcPath, err)
	}

	mod := ir.NewModule(opts.SrcPath)
	funcs, err := check.Check(mod, prog)
	if err != nil {
		return fmt.Errorf("%s:%s", opts.SrcPath, err)
	}

	log := diag.New(opts.Trace, os.Stderr)
	mach := x64.NewMachine(mod, log)

	var code []emit.FunctionCode
	for _, fn := range funcs {
		instr := mach.Select(fn)
		code = append(code, emit.FunctionCode{Name: fn.Name.String(), Instr: instr})
	}

	if opts.DumpIR != "" {
		if err := writeIRDump(mod, funcs, opts.DumpIR); err != nil {
			return err
		}
	}

	asmText := emit.Emit(mod, code)
	if err := assembleAndLink(asmText, opts.OutPath); err != nil {
		return err
	}
	for _, fn := range funcs {
		fn.State = ir.Emitted
	}
	return nil
}

func writeIRDump(mod *ir.Module, funcs []*ir.Function, path string) error {
	y, err := ir.DumpYAML(mod, funcs)
	if err != nil {
		return fmt.Errorf("BUG: marshalling IR dump: %v", err)
	}
	if err := os.WriteFile(path, y, 0o644); err != nil {
		return fmt.Errorf("writing IR dump to %s: %w", path, err)
	}
	return nil
}

// assembleAndLink shells out to `as` then `ld`, naming the intermediate
// `.s`/`.o` scratch files with a uuid suffix so that two driver
// invocations sharing a working directory never collide.
func assembleAndLink(asmText, outPath string) error {
	dir := filepath.Dir(outPath)
	if dir == "" {
		dir = "."
	}
	id := uuid.New().String()
	asmPath := filepath.Join(dir, fmt.Sprintf(".expc-%s.s", id))
	objPath := filepath.Join(dir, fmt.Sprintf(".expc-%s.o", id))
	defer os.Remove(asmPath)
	defer os.Remove(objPath)

	if err := os.WriteFile(asmPath, []byte(asmText), 0o644); err != nil {
		return fmt.Errorf("writing assembly scratch file: %w", err)
	}

	if out, err := exec.Command("as", "-o", objPath, asmPath).CombinedOutput(); err != nil {
		return fmt.Errorf("as failed: %w\n%s", err, out)
	}
	if out, err := exec.Command("ld", "-o", outPath, objPath).CombinedOutput(); err != nil {
		return fmt.Errorf("ld failed: %w\n%s", err, out)
	}
	return nil
}
