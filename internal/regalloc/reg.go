// Package regalloc implements expc's linear-scan register allocator
// (spec.md §4.3): per-function GPR assignment with spill-to-stack on
// exhaustion, exposed as the operation contract the instruction selector
// drives directly (Allocate, AllocateFromActive, AcquireGpr, ...).
package regalloc

import "fmt"

// RealReg identifies one of the 16 x86-64 general-purpose registers.
// Named and ordered exactly as the ISA encodes them, the same convention
// `backend/isa/amd64`'s register constants use in the teacher.
type RealReg byte

const (
	RAX RealReg = iota
	RCX
	RDX
	RBX
	RSP
	RBP
	RSI
	RDI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15

	NumGPR

	// RegInvalid marks "no register" (e.g. Address.Index when unused).
	RegInvalid RealReg = 0xff
)

var regNames = [NumGPR]string{
	RAX: "rax", RCX: "rcx", RDX: "rdx", RBX: "rbx", RSP: "rsp", RBP: "rbp", RSI: "rsi", RDI: "rdi",
	R8: "r8", R9: "r9", R10: "r10", R11: "r11", R12: "r12", R13: "r13", R14: "r14", R15: "r15",
}

// String implements fmt.Stringer, rendering AT&T-style register names
// (without the leading '%', which the emitter adds).
func (r RealReg) String() string {
	if r == RegInvalid {
		return "<none>"
	}
	if r >= NumGPR {
		panic(fmt.Sprintf("BUG: invalid real register %d", byte(r)))
	}
	return regNames[r]
}

// allocatable excludes RSP (stack pointer) and RBP (frame pointer, spec.md
// §4.4's Address base for every spilled local): neither ever holds an SSA
// value.
var allocatable = []RealReg{RAX, RCX, RDX, RBX, RSI, RDI, R8, R9, R10, R11, R12, R13, R14, R15}

// calleeSaved are the registers the System-V ABI requires a callee to
// preserve; the prologue/epilogue only needs to save ones this function
// actually clobbers.
var calleeSaved = map[RealReg]bool{RBX: true, R12: true, R13: true, R14: true, R15: true}

// IsCalleeSaved reports whether r must be preserved across a call per the
// System-V AMD64 ABI.
func IsCalleeSaved(r RealReg) bool { return calleeSaved[r] }

// argGPRs are the integer argument-passing registers in System-V order.
var argGPRs = []RealReg{RDI, RSI, RDX, RCX, R8, R9}

// ArgGPRs returns the System-V integer argument registers, in order.
func ArgGPRs() []RealReg { return argGPRs }

// CallerSavedRegs returns the allocatable GPRs a CALL clobbers per the
// System-V AMD64 ABI: every allocatable register except the callee-saved
// set, in ascending RealReg order.
func CallerSavedRegs() []RealReg {
	var out []RealReg
	for _, r := range allocatable {
		if !IsCalleeSaved(r) {
			out = append(out, r)
		}
	}
	return out
}
