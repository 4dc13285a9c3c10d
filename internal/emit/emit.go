// Package emit renders a compiled Module's x86-64 instruction streams and
// data symbols to a single UTF-8 buffer of GNU-as AT&T syntax (spec.md
// §4.5), the last stage of the pipeline before the driver shells out to
// `as`/`ld`.
package emit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/exp-lang/expc/internal/ir"
	"github.com/exp-lang/expc/internal/regalloc"
	"github.com/exp-lang/expc/internal/types"
	"github.com/exp-lang/expc/internal/x64"
)

// CompilerVersion is emitted in the trailing `.ident` directive.
const CompilerVersion = "expc"

// FunctionCode pairs one function's Symbol name with its selected
// instruction stream, since the instruction stream itself carries no
// back-reference to its owning symbol.
type FunctionCode struct {
	Name  string
	Instr []x64.Instruction
}

// Emit produces the full assembly text for mod, given the already
// selected (ir.Selected-state) code for each function symbol. It does
// not mutate mod; advancing functions to ir.Emitted is the caller's
// responsibility (internal/driver does so once the buffer has been
// written to a temp file), matching the state machine's ownership split
// in spec.md §4.4.
func Emit(mod *ir.Module, funcs []FunctionCode) string {
	var b strings.Builder

	fmt.Fprintf(&b, ".file %q\n", mod.SrcFile)

	sorted := make([]FunctionCode, len(funcs))
	copy(sorted, funcs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	for _, fc := range sorted {
		emitFunction(&b, mod, fc)
	}

	if hasMain(funcs) {
		emitStart(&b)
	}

	emitDataSymbols(&b, mod)

	fmt.Fprintf(&b, "\t.ident %q\n", CompilerVersion)
	b.WriteString("\t.section .note.GNU-stack,\"\",@progbits\n")

	return b.String()
}

// hasMain reports whether funcs includes the program's entry function.
func hasMain(funcs []FunctionCode) bool {
	for _, fc := range funcs {
		if fc.Name == "main" {
			return true
		}
	}
	return false
}

// emitStart synthesises the process entry point spec.md §1's "assembler
// driver" needs to turn a compiled `main` into a runnable executable:
// `as`/`ld` alone (no C runtime, no libc `_start`/`__libc_start_main`)
// leave nothing to call `main` or to end the process, so the emitter
// provides the minimal glue directly, in the raw-syscall idiom §4's
// GLOSSARY describes for System-V AMD64: load `main`'s i32 result into
// the low 32 bits of the exit-syscall argument register and invoke
// `exit` (syscall number 60) directly, which is what turns the compiled
// program's return value into the process exit status spec.md §8's
// round-trip property checks.
func emitStart(b *strings.Builder) {
	b.WriteString("\t.text\n")
	b.WriteString("\t.globl _start\n")
	b.WriteString("_start:\n")
	b.WriteString("\tcall\tmain\n")
	b.WriteString("\tmovl\t%eax, %edi\n")
	b.WriteString("\tmovl\t$60, %eax\n")
	b.WriteString("\tsyscall\n")
}

func emitFunction(b *strings.Builder, mod *ir.Module, fc FunctionCode) {
	b.WriteString("\t.text\n")
	fmt.Fprintf(b, "\t.globl %s\n", fc.Name)
	fmt.Fprintf(b, "\t.type %s, @function\n", fc.Name)
	fmt.Fprintf(b, "%s:\n", fc.Name)
	for _, in := range fc.Instr {
		emitInstruction(b, mod, in)
	}
	fmt.Fprintf(b, "\t.size %s, .-%s\n", fc.Name, fc.Name)
}

func emitInstruction(b *strings.Builder, mod *ir.Module, in x64.Instruction) {
	mnem := mnemonic(in)
	var operands string
	switch in.NumOperands {
	case 0:
		operands = ""
	case 1:
		operands = renderOperand(mod, in.A, in.Size)
	case 2:
		// AT&T order: source, destination.
		operands = renderOperand(mod, in.B, in.Size) + ", " + renderOperand(mod, in.A, in.Size)
	}
	line := "\t" + mnem
	if operands != "" {
		line += "\t" + operands
	}
	if in.Comment != "" {
		line += "\t# " + in.Comment
	}
	b.WriteString(line)
	b.WriteByte('\n')
}

// mnemonic appends the AT&T size suffix to in.Op's bare name, for the
// instructions whose encoding actually varies by operand width. Fixed-
// width and zero/size-agnostic instructions (CALL, RET, LEA, CDQ, CQO,
// PUSH, POP) are rendered bare.
func mnemonic(in x64.Instruction) string {
	base := in.Op.String()
	switch in.Op {
	case x64.OpCall, x64.OpRet, x64.OpLea, x64.OpCdq, x64.OpCqo, x64.OpPush, x64.OpPop:
		return base
	default:
		return base + sizeSuffix(in.Size)
	}
}

func sizeSuffix(size byte) string {
	switch size {
	case 1:
		return "b"
	case 2:
		return "w"
	case 4:
		return "l"
	case 8:
		return "q"
	default:
		panic(fmt.Sprintf("BUG: invalid operand size %d", size))
	}
}

// renderOperand renders one x64.Operand in AT&T syntax, resolving Label
// operands to their bare symbol name via mod's label table. A GPR operand
// is named at the instruction's operand size (%eax, %ax, %al, %r8d, ...).
func renderOperand(mod *ir.Module, op x64.Operand, size byte) string {
	switch op.Kind() {
	case x64.OperandGpr:
		n := op.Gpr().String()
		switch {
		case size != 1 && size != 2 && size != 4:
			return "%" + n
		case n[1] >= '0' && n[1] <= '9':
			return "%" + n + map[byte]string{1: "b", 2: "w", 4: "d"}[size]
		case size == 4:
			return "%e" + n[1:]
		case size == 2:
			return "%" + n[1:]
		case n[2] == 'x':
			return "%" + n[1:2] + "l"
		default:
			return "%" + n[1:] + "l"
		}
	case x64.OperandAddress:
		return renderAddress(op.Address())
	case x64.OperandImmediate:
		return "$" + renderImmediate(op.Imm())
	case x64.OperandLabel:
		return mod.Labels.Name(op.Label()).String()
	default:
		panic("BUG: invalid x64 operand")
	}
}

func renderAddress(a regalloc.Address) string {
	s := fmt.Sprintf("%d(%%%s", a.Offset, a.Base.String())
	if a.Index != regalloc.RegInvalid {
		s += fmt.Sprintf(",%%%s,%d", a.Index.String(), a.Scale)
	}
	return s + ")"
}

func renderImmediate(s types.Scalar) string {
	if s.Kind() == types.Bool {
		if s.Int64() != 0 {
			return "1"
		}
		return "0"
	}
	if s.Kind().IsSigned() {
		return fmt.Sprintf("%d", s.Int64())
	}
	return fmt.Sprintf("%d", s.Uint64())
}
