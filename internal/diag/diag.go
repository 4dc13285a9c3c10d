// Package diag is expc's compiler-internal tracing facility: a thin
// wrapper around log.Logger gated by a boolean switch, in the style of
// wazevoapi's debug consts (quickly flippable during development,
// silent by default) rather than a structured logging library — no repo
// in the retrieved pack pulls one in.
package diag

import (
	"io"
	"log"
	"os"
)

// Logger traces one compilation run's pass timings and register-
// allocation decisions when verbose tracing is enabled.
type Logger struct {
	enabled bool
	l       *log.Logger
}

// New returns a Logger that writes to w when enabled is true, and is a
// silent no-op otherwise (callers never need to branch on enabled
// themselves).
func New(enabled bool, w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{enabled: enabled, l: log.New(w, "expc: ", 0)}
}

// Enabled reports whether this Logger was constructed with tracing on.
func (d *Logger) Enabled() bool { return d != nil && d.enabled }

// Printf logs a formatted trace line; a no-op when tracing is disabled.
func (d *Logger) Printf(format string, args ...any) {
	if !d.Enabled() {
		return
	}
	d.l.Printf(format, args...)
}

// Pass logs entry into a named compiler pass for a given function, the
// granularity wazevo's FrontEndLoggingEnabled/SSALoggingEnabled/
// RegAllocLoggingEnabled switches trace at.
func (d *Logger) Pass(pass, fnName string) {
	d.Printf("%s: %s", pass, fnName)
}

// SpillVictim logs the local chosen as a spill victim during register
// allocation, along with the instruction index that forced the spill.
func (d *Logger) SpillVictim(at int, local uint32, lastUse int) {
	d.Printf("regalloc: spilling v%d (last use %d) at instruction %d", local, lastUse, at)
}
