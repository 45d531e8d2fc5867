package isa

import "sort"

// LiveOutMask is the set of registers whose final value is observable.
// Registers outside the mask are don't-care: the optimizer is free to
// leave them in any state.
type LiveOutMask map[Register]struct{}

// NewLiveOutMask builds a mask from a list of registers.
func NewLiveOutMask(regs ...Register) LiveOutMask {
	m := make(LiveOutMask, len(regs))
	for _, r := range regs {
		m[r] = struct{}{}
	}
	return m
}

// Contains reports whether r is live-out.
func (m LiveOutMask) Contains(r Register) bool {
	_, ok := m[r]
	return ok
}

// Registers returns the live-out registers in ascending order, for
// deterministic iteration (equivalence checking, display, hashing).
func (m LiveOutMask) Registers() []Register {
	out := make([]Register, 0, len(m))
	for r := range m {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Empty reports whether the mask has no live-out registers. A search or
// equivalence check against an empty mask (with no caller-supplied
// default) is a configuration error, not a vacuous success (spec.md §7).
func (m LiveOutMask) Empty() bool {
	return len(m) == 0
}
