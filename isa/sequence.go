package isa

import "strings"

// Sequence is an ordered list of instructions. It is the unit the
// search algorithms generate, mutate, and cost; the zero value is the
// empty sequence (cost 0, identity on every state).
type Sequence []Instruction

// Clone returns an independent copy of the sequence.
func (s Sequence) Clone() Sequence {
	out := make(Sequence, len(s))
	copy(out, s)
	return out
}

// Equal reports whether s and o contain the same instructions in the
// same order, including Unused slots.
func (s Sequence) Equal(o Sequence) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// Registers returns the set of registers mentioned anywhere in the
// sequence (read or written), excluding XZR, in first-seen order. This
// is the default register pool enumerative search draws from
// (spec.md §4.6).
func (s Sequence) Registers() []Register {
	seen := make(map[Register]struct{})
	var out []Register
	add := func(r Register) {
		if r.IsZero() {
			return
		}
		if _, ok := seen[r]; ok {
			return
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	for _, instr := range s {
		for _, r := range instr.Defs() {
			add(r)
		}
		for _, r := range instr.Uses() {
			add(r)
		}
	}
	return out
}

// Immediates returns the set of immediate values appearing anywhere in
// the sequence, in first-seen order. This is the default immediate pool
// enumerative search draws from, before adding {0, 1} (spec.md §4.6).
func (s Sequence) Immediates() []int64 {
	seen := make(map[int64]struct{})
	var out []int64
	for _, instr := range s {
		if instr.Op2.IsImmediate() {
			if _, ok := seen[instr.Op2.Imm]; !ok {
				seen[instr.Op2.Imm] = struct{}{}
				out = append(out, instr.Op2.Imm)
			}
		}
	}
	return out
}

// String renders the sequence as newline-separated assembly text.
func (s Sequence) String() string {
	lines := make([]string, len(s))
	for i, instr := range s {
		lines[i] = instr.String()
	}
	return strings.Join(lines, "\n")
}
