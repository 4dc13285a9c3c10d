package regalloc

import "fmt"

// Interval is the [FirstUse, LastUse] instruction-index span a local is
// live over. It mirrors ir.Lifetime but lives in this package to keep
// regalloc decoupled from ir (the reverse dependency: ir.Local embeds a
// regalloc.Location).
type Interval struct {
	FirstUse int
	LastUse  int
}

// SizeAlign abstracts a local's spill-slot size/align so this package need
// not import ir/types; the selector supplies it whenever a local first
// becomes active, and the allocator retains it for as long as the local
// stays live — so that if some *other* local is later spilled to make
// room, its own (not the requester's) size/align sizes the new slot.
type SizeAlign struct {
	Size, Align int
}

type activeEntry struct {
	local    uint32
	interval Interval
	sa       SizeAlign
	loc      Location
}

// Allocator is the linear-scan register allocator of spec.md §4.3, scoped
// to one function. The instruction selector (internal/x64) drives it
// directly; it never runs as a standalone pass over the whole function up
// front, because later allocation decisions depend on choices the
// selector makes while lowering (e.g. which operand to reuse).
type Allocator struct {
	Frame Frame

	free   []RealReg // stack of unused GPRs, caller-saved preferred (LIFO: pop from the end)
	active map[RealReg]*activeEntry
	byLoc  map[uint32]*activeEntry // local -> its active entry, if resident in a GPR
	spills map[uint32]Address      // local -> its stack slot, if it has ever been spilled

	usedCalleeSaved map[RealReg]bool // every callee-saved GPR this function ever bound a local to

	// spillLog, if set, is called with the index currently being lowered
	// (as tracked by the last ReleaseExpired call) each time spillToStack
	// evicts a local, for internal/diag's "-trace" spill-victim tracing.
	spillLog  func(atIndex int, local uint32, lastUse int)
	lastIndex int
}

// NewAllocator returns a ready-to-use Allocator with the full allocatable
// GPR set free.
func NewAllocator() *Allocator {
	a := &Allocator{
		active:          make(map[RealReg]*activeEntry),
		byLoc:           make(map[uint32]*activeEntry),
		spills:          make(map[uint32]Address),
		usedCalleeSaved: make(map[RealReg]bool),
	}
	a.free = freeOrder()
	return a
}

// SetSpillLog installs f to be called whenever this allocator spills an
// active local to the stack. Passing nil disables logging.
func (a *Allocator) SetSpillLog(f func(atIndex int, local uint32, lastUse int)) {
	a.spillLog = f
}

// UsedCalleeSaved returns, in ascending RealReg order, every callee-saved
// GPR this allocator has ever bound a local to. The selector uses this to
// decide exactly which registers the prologue/epilogue must save and
// restore, rather than conservatively saving the whole callee-saved set.
func (a *Allocator) UsedCalleeSaved() []RealReg {
	var out []RealReg
	for r := RealReg(0); r < NumGPR; r++ {
		if a.usedCalleeSaved[r] {
			out = append(out, r)
		}
	}
	return out
}

// freeOrder returns the allocatable GPRs ordered so that repeated pop-
// from-the-end calls prefer caller-saved registers over callee-saved ones
// (spec.md §4.3's tie-break: "prefer caller-saved over callee-saved to
// avoid unnecessary prologue saves"), and exclude RAX/RDX, which are
// reserved for DIV/MOD, CALL and RET and only reachable via the
// forced-register operations (AcquireGpr, AllocateToGpr, ReallocateActive).
func freeOrder() []RealReg {
	var order []RealReg
	// Push callee-saved first so they sit at the bottom of the pop stack.
	for _, r := range allocatable {
		if IsCalleeSaved(r) {
			order = append(order, r)
		}
	}
	for _, r := range allocatable {
		if !IsCalleeSaved(r) && r != RAX && r != RDX {
			order = append(order, r)
		}
	}
	return order
}

func (a *Allocator) popFree() (RealReg, bool) {
	if len(a.free) == 0 {
		return RegInvalid, false
	}
	r := a.free[len(a.free)-1]
	a.free = a.free[:len(a.free)-1]
	return r, true
}

func (a *Allocator) pushFree(r RealReg) {
	a.free = append(a.free, r)
}

// spillVictim picks the active entry with the greatest LastUse (spec.md
// §4.3: "Spill victim = active local with the greatest last_use (latest
// expiry)"). It walks a.active in fixed RealReg order rather than
// ranging the map directly, so that two locals sharing the same LastUse
// always resolve to the same victim across runs — Go's map iteration
// order is randomized, and spec.md §5/§8 require byte-identical output
// from run to run.
func (a *Allocator) spillVictim() *activeEntry {
	var victim *activeEntry
	for r := RealReg(0); r < NumGPR; r++ {
		e, ok := a.active[r]
		if !ok {
			continue
		}
		if victim == nil || e.interval.LastUse > victim.interval.LastUse {
			victim = e
		}
	}
	return victim
}

// spillToStack evicts e from its register to a fresh stack slot, sized by
// e's own SizeAlign, and returns the register it freed.
func (a *Allocator) spillToStack(e *activeEntry) RealReg {
	if a.spillLog != nil {
		a.spillLog(a.lastIndex, e.local, e.interval.LastUse)
	}
	r := e.loc.Gpr()
	addr := a.Frame.NewSlot(e.sa.Size, e.sa.Align)
	a.spills[e.local] = addr
	e.loc = AddressLocation(addr)
	delete(a.active, r)
	delete(a.byLoc, e.local)
	return r
}

// Allocate reserves a Location for local, whose lifetime is interval,
// preferring a free GPR and spilling the latest-expiring active local if
// none is free.
func (a *Allocator) Allocate(local uint32, interval Interval, sa SizeAlign) Location {
	if r, ok := a.popFree(); ok {
		return a.bindGpr(local, interval, sa, r)
	}
	victim := a.spillVictim()
	if victim == nil {
		panic("BUG: no active register to spill but free list is empty")
	}
	r := a.spillToStack(victim)
	return a.bindGpr(local, interval, sa, r)
}

func (a *Allocator) bindGpr(local uint32, interval Interval, sa SizeAlign, r RealReg) Location {
	loc := GprLocation(r)
	e := &activeEntry{local: local, interval: interval, sa: sa, loc: loc}
	a.active[r] = e
	a.byLoc[local] = e
	if IsCalleeSaved(r) {
		a.usedCalleeSaved[r] = true
	}
	return loc
}

// AllocateFromActive allocates dst, which is initialised from source.
// sourceDies must be source's `LastUse == atIndex` test, computed by the
// caller from the function's lifetime table (spec.md §4.3: "If
// source_active.last_use == at_index (it dies now), reuse its location in
// place; else allocate afresh and the selector emits a copy"). When it
// dies, dst simply inherits source's register or stack slot in place — no
// copy is needed. Returns the chosen Location and whether a reuse
// happened.
func (a *Allocator) AllocateFromActive(dst uint32, dstInterval Interval, source uint32, sourceDies bool, sa SizeAlign) (loc Location, reused bool) {
	if !sourceDies {
		return a.Allocate(dst, dstInterval, sa), false
	}
	if e, ok := a.byLoc[source]; ok {
		delete(a.byLoc, source)
		if e.loc.IsGpr() {
			delete(a.active, e.loc.Gpr())
		}
		e.local, e.interval, e.sa = dst, dstInterval, sa
		a.byLoc[dst] = e
		if e.loc.IsGpr() {
			a.active[e.loc.Gpr()] = e
		}
		return e.loc, true
	}
	if addr, ok := a.spills[source]; ok {
		delete(a.spills, source)
		a.spills[dst] = addr
		return AddressLocation(addr), true
	}
	return a.Allocate(dst, dstInterval, sa), false
}

// AllocateToGpr forces local into gpr, relocating or spilling whatever
// currently occupies it.
func (a *Allocator) AllocateToGpr(local uint32, interval Interval, gpr RealReg, sa SizeAlign) Location {
	if occupant, ok := a.active[gpr]; ok {
		a.relocateOrSpill(occupant, gpr)
	} else {
		a.removeFree(gpr)
	}
	return a.bindGpr(local, interval, sa, gpr)
}

// relocateOrSpill moves occupant (currently in gpr) to any other free
// register if one exists, else spills it to the stack (sized by its own
// SizeAlign). Per spec.md §4.3: "the allocator first attempts relocation
// to any free GPR; only if impossible does it spill to stack."
func (a *Allocator) relocateOrSpill(occupant *activeEntry, gpr RealReg) {
	delete(a.active, gpr)
	delete(a.byLoc, occupant.local)
	if r, ok := a.popFree(); ok {
		occupant.loc = GprLocation(r)
		a.active[r] = occupant
		a.byLoc[occupant.local] = occupant
		if IsCalleeSaved(r) {
			a.usedCalleeSaved[r] = true
		}
		return
	}
	addr := a.Frame.NewSlot(occupant.sa.Size, occupant.sa.Align)
	a.spills[occupant.local] = addr
	occupant.loc = AddressLocation(addr)
}

func (a *Allocator) removeFree(r RealReg) {
	for i, f := range a.free {
		if f == r {
			a.free = append(a.free[:i], a.free[i+1:]...)
			return
		}
	}
	// r was neither active nor free: it is reserved (RAX/RDX) or already
	// pinned by a prior AcquireGpr; nothing further to do.
}

// AllocateToAddress pins local to an explicit memory location, used for
// outgoing call arguments beyond the register window and for incoming
// arguments per the System-V AMD64 ABI (spec.md §4.3).
func (a *Allocator) AllocateToAddress(local uint32, addr Address) Location {
	a.spills[local] = addr
	return AddressLocation(addr)
}

// AcquireGpr takes gpr for a scratch purpose, spilling its current
// occupant if any. The caller must ReleaseGpr when done.
func (a *Allocator) AcquireGpr(gpr RealReg) {
	if occupant, ok := a.active[gpr]; ok {
		a.relocateOrSpill(occupant, gpr)
		return
	}
	a.removeFree(gpr)
}

// ReleaseGpr returns gpr to the free pool. It is a no-op if gpr is
// currently occupied by a live local (spec.md §4.3: "release_gpr ... does
// nothing if unallocated" — read here as "unallocated for scratch use",
// i.e. still live, so releasing it would be a bug the caller must avoid
// by only releasing registers it itself acquired).
func (a *Allocator) ReleaseGpr(gpr RealReg) {
	if _, occupied := a.active[gpr]; occupied {
		return
	}
	for _, f := range a.free {
		if f == gpr {
			return // already free
		}
	}
	a.pushFree(gpr)
}

// AcquireAnyGpr returns an arbitrary free GPR for scratch use, spilling
// the latest-expiring active local if none is free.
func (a *Allocator) AcquireAnyGpr() RealReg {
	if r, ok := a.popFree(); ok {
		return r
	}
	victim := a.spillVictim()
	if victim == nil {
		panic("BUG: no active register to spill but free list is empty")
	}
	return a.spillToStack(victim)
}

// ReallocateActive moves the still-live local (currently resident
// wherever it is) to a different GPR, used when the selector needs to
// commandeer a specific register (e.g. %rax/%rdx for signed division).
func (a *Allocator) ReallocateActive(local uint32, to RealReg) Location {
	e, ok := a.byLoc[local]
	if !ok {
		panic(fmt.Sprintf("BUG: ReallocateActive on local v%d with no active entry", local))
	}
	if e.loc.IsGpr() && e.loc.Gpr() == to {
		return e.loc
	}
	if occupant, occupied := a.active[to]; occupied {
		a.relocateOrSpill(occupant, to)
	} else {
		a.removeFree(to)
	}
	if e.loc.IsGpr() {
		delete(a.active, e.loc.Gpr())
	}
	e.loc = GprLocation(to)
	a.active[to] = e
	if IsCalleeSaved(to) {
		a.usedCalleeSaved[to] = true
	}
	return e.loc
}

// ReleaseExpired sweeps the active set, releasing (returning to the free
// pool) any local whose LastUse is strictly before atIndex. Like
// spillVictim, this walks RealReg(0)..NumGPR in fixed order rather than
// ranging a.active directly: which order expired registers are pushed
// onto a.free in determines which one popFree hands back next, so a
// randomized map-iteration order would make subsequent allocation
// choices (and thus the emitted assembly) vary run to run.
func (a *Allocator) ReleaseExpired(atIndex int) {
	a.lastIndex = atIndex
	for r := RealReg(0); r < NumGPR; r++ {
		e, ok := a.active[r]
		if !ok {
			continue
		}
		if e.interval.LastUse < atIndex {
			delete(a.active, r)
			delete(a.byLoc, e.local)
			a.pushFree(r)
		}
	}
}

// LocationOf returns the current Location of local, if it has been
// allocated at all (either resident in a register or spilled).
func (a *Allocator) LocationOf(local uint32) (Location, bool) {
	if e, ok := a.byLoc[local]; ok {
		return e.loc, true
	}
	if addr, ok := a.spills[local]; ok {
		return AddressLocation(addr), true
	}
	return Location{}, false
}
