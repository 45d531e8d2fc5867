// Package isa defines the instruction algebra for the fixed-width 64-bit
// RISC window the superoptimizer operates over: registers, operands,
// condition codes, the 20-opcode instruction set, and the def/use and
// display helpers that every downstream package (concrete, symbolic,
// search, cost) builds on.
package isa

import "fmt"

// Register identifies one of the ISA's general-purpose or special
// registers. Registers are values, not references: comparison and
// hashing are just integer comparison.
type Register uint8

// The 33 addressable registers: X0-X30, the zero register, and the
// stack pointer. SP is treated as an ordinary general-purpose register
// for semantic purposes — no alignment constraints are modeled.
const (
	X0 Register = iota
	X1
	X2
	X3
	X4
	X5
	X6
	X7
	X8
	X9
	X10
	X11
	X12
	X13
	X14
	X15
	X16
	X17
	X18
	X19
	X20
	X21
	X22
	X23
	X24
	X25
	X26
	X27
	X28
	X29
	X30
	XZR
	SP
	numRegisters
)

// NumRegisters is the size of the register file, including XZR and SP.
const NumRegisters = int(numRegisters)

var registerNames = [numRegisters]string{
	X0: "x0", X1: "x1", X2: "x2", X3: "x3", X4: "x4", X5: "x5", X6: "x6", X7: "x7",
	X8: "x8", X9: "x9", X10: "x10", X11: "x11", X12: "x12", X13: "x13", X14: "x14", X15: "x15",
	X16: "x16", X17: "x17", X18: "x18", X19: "x19", X20: "x20", X21: "x21", X22: "x22", X23: "x23",
	X24: "x24", X25: "x25", X26: "x26", X27: "x27", X28: "x28", X29: "x29", X30: "x30",
	XZR: "xzr", SP: "sp",
}

// String returns the canonical lower-case assembly mnemonic for the
// register ("x0".."x30", "xzr", "sp").
func (r Register) String() string {
	if int(r) < len(registerNames) {
		return registerNames[r]
	}
	return fmt.Sprintf("reg<%d>", uint8(r))
}

// Valid reports whether r is one of the 33 known registers.
func (r Register) Valid() bool {
	return r < numRegisters
}

// IsZero reports whether r is the hard-wired zero register: reads
// observe zero and writes are silently discarded.
func (r Register) IsZero() bool {
	return r == XZR
}

// Index returns the X-register index (0..30) and true, or (0, false)
// for XZR/SP which have no X-register index.
func (r Register) Index() (int, bool) {
	if r <= X30 {
		return int(r), true
	}
	return 0, false
}

// AllRegisters returns every register in display order, XZR and SP
// included. Callers that build default register pools for search use
// this as the universe to filter down from.
func AllRegisters() []Register {
	regs := make([]Register, numRegisters)
	for i := range regs {
		regs[i] = Register(i)
	}
	return regs
}
