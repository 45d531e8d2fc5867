// Package concrete implements the fast, input-driven interpreter
// (spec.md §4.2): total concrete machine state plus a direct switch-based
// executor, designed to run millions of input vectors per second so it
// can dominate equivalence-check throughput (the random-testing phase,
// equiv package, and the stochastic search's correctness term both drive
// it in a tight loop).
package concrete

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"

	"github.com/gostoke/gostoke/isa"
)

// State is a total concrete machine state: every register holds a
// 64-bit word (two's-complement, read as either signed or unsigned by
// the caller) plus the four NZCV flags. XZR is constrained to read
// zero; writes to it are dropped at write time so no code has to
// remember to special-case it when reading.
type State struct {
	regs  [isa.NumRegisters]uint64
	flags isa.Flags
}

// NewState returns a state with every register zeroed.
func NewState() State {
	return State{}
}

// NewStateFromValues returns a state with the given register values;
// registers not present default to zero. XZR is forced to zero even if
// supplied.
func NewStateFromValues(values map[isa.Register]uint64) State {
	var s State
	for r, v := range values {
		s.Set(r, v)
	}
	return s
}

// Get returns the 64-bit value held in r. XZR always reads zero.
func (s State) Get(r isa.Register) uint64 {
	if r.IsZero() {
		return 0
	}
	return s.regs[r]
}

// GetSigned returns r's value reinterpreted as a signed two's-complement
// integer.
func (s State) GetSigned(r isa.Register) int64 {
	return int64(s.Get(r))
}

// Set writes v to r. Writes to XZR are silently discarded, matching the
// ISA invariant that XZR's value can never be observed to change
// (spec.md §3).
func (s *State) Set(r isa.Register, v uint64) {
	if r.IsZero() {
		return
	}
	s.regs[r] = v
}

// SetSigned writes the two's-complement bit pattern of v to r.
func (s *State) SetSigned(r isa.Register, v int64) {
	s.Set(r, uint64(v))
}

// Flags returns the current NZCV flags.
func (s State) Flags() isa.Flags {
	return s.flags
}

// SetFlags replaces the current NZCV flags.
func (s *State) SetFlags(f isa.Flags) {
	s.flags = f
}

// Equal reports whether two states agree on every register covered by
// AllRegisters (XZR included, trivially) and on flags.
func (s State) Equal(o State) bool {
	return s.regs == o.regs && s.flags == o.flags
}

// EqualOn reports whether s and o agree on every register in mask.
func (s State) EqualOn(o State, mask isa.LiveOutMask) bool {
	for r := range mask {
		if s.Get(r) != o.Get(r) {
			return false
		}
	}
	return true
}

// FirstDifference returns the first (in ascending register order)
// live-out register on which s and o disagree, and their two values —
// this is the counterexample data spec.md §4.4/§8 describes.
func (s State) FirstDifference(o State, mask isa.LiveOutMask) (reg isa.Register, a, b uint64, ok bool) {
	for _, r := range mask.Registers() {
		if va, vb := s.Get(r), o.Get(r); va != vb {
			return r, va, vb, true
		}
	}
	return 0, 0, 0, false
}

// String dumps every non-zero general-purpose register plus flags, for
// one-line debug logging.
func (s State) String() string {
	out := fmt.Sprintf("flags=%s", s.flags)
	for _, r := range isa.AllRegisters() {
		if v := s.Get(r); v != 0 {
			out += fmt.Sprintf(" %s=0x%016x", r, v)
		}
	}
	return out
}

// Dump renders the full register file, including zeroed registers, for
// the verbose case a one-line String isn't enough: a counterexample
// whose mismatch isn't obvious from the live-out registers alone.
func (s State) Dump() string {
	named := make(map[string]uint64, isa.NumRegisters)
	for _, r := range isa.AllRegisters() {
		named[r.String()] = s.Get(r)
	}
	return fmt.Sprintf("flags=%s\n%s", s.flags, spew.Sdump(named))
}
