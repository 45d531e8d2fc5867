package isa

import "fmt"

// Opcode identifies the variant of an Instruction. The 20 opcodes below
// are the fixed, exhaustive set the core understands; Unused is a
// zero-cost identity marker used as a "no-op slot" by the stochastic
// search (spec.md §4.7), not a real ISA opcode.
type Opcode uint8

const (
	OpMovReg Opcode = iota
	OpMovImm
	OpAdd
	OpSub
	OpMul
	OpSdiv
	OpUdiv
	OpAnd
	OpOrr
	OpEor
	OpLsl
	OpLsr
	OpAsr
	OpCmp
	OpCmn
	OpTst
	OpCsel
	OpCsinc
	OpCsinv
	OpCsneg
	OpUnused
	numOpcodes
)

var opcodeNames = [numOpcodes]string{
	OpMovReg: "mov", OpMovImm: "mov",
	OpAdd: "add", OpSub: "sub",
	OpMul: "mul", OpSdiv: "sdiv", OpUdiv: "udiv",
	OpAnd: "and", OpOrr: "orr", OpEor: "eor",
	OpLsl: "lsl", OpLsr: "lsr", OpAsr: "asr",
	OpCmp: "cmp", OpCmn: "cmn", OpTst: "tst",
	OpCsel: "csel", OpCsinc: "csinc", OpCsinv: "csinv", OpCsneg: "csneg",
	OpUnused: "unused",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return fmt.Sprintf("opcode<%d>", uint8(op))
}

// Arity groups opcodes by operand shape, used by the stochastic search's
// opcode mutation (spec.md §4.7 item 1: "replace with another of the same
// arity") and by enumerative template generation.
type Arity uint8

const (
	// ArityMove is Rd, Rn or Rd, Imm.
	ArityMove Arity = iota
	// ArityBinaryRegImm is Rd, Rn, Operand (register-or-immediate).
	ArityBinaryRegImm
	// ArityBinaryRegReg is Rd, Rn, Rm (register only).
	ArityBinaryRegReg
	// ArityCompare is Rn, Operand, no destination.
	ArityCompare
	// ArityCondSelect is Rd, Rn, Rm, Cond.
	ArityCondSelect
	// ArityUnused is the zero-operand no-op marker.
	ArityUnused
)

// Arity returns the operand shape for op.
func (op Opcode) Arity() Arity {
	switch op {
	case OpMovReg, OpMovImm:
		return ArityMove
	case OpAdd, OpSub, OpAnd, OpOrr, OpEor, OpLsl, OpLsr, OpAsr:
		return ArityBinaryRegImm
	case OpMul, OpSdiv, OpUdiv:
		return ArityBinaryRegReg
	case OpCmp, OpCmn, OpTst:
		return ArityCompare
	case OpCsel, OpCsinc, OpCsinv, OpCsneg:
		return ArityCondSelect
	case OpUnused:
		return ArityUnused
	default:
		panic(fmt.Sprintf("isa: opcode %v has no arity", op))
	}
}

// WritesFlags reports whether op is one of the flag-setting compare/test
// opcodes. No other opcode touches NZCV (spec.md §3 invariants).
func (op Opcode) WritesFlags() bool {
	return op == OpCmp || op == OpCmn || op == OpTst
}

// ReadsFlags reports whether op is a conditional select, the only family
// that reads NZCV (spec.md §3 invariants).
func (op Opcode) ReadsFlags() bool {
	switch op {
	case OpCsel, OpCsinc, OpCsinv, OpCsneg:
		return true
	default:
		return false
	}
}

// HasDestination reports whether op writes a destination register (as
// opposed to the flag-only compare/test family, or Unused).
func (op Opcode) HasDestination() bool {
	switch op {
	case OpCmp, OpCmn, OpTst, OpUnused:
		return false
	default:
		return true
	}
}

// Instruction is a single instance of one of the 20 supported opcodes
// (or the Unused marker). It is a plain value: copyable, comparable with
// ==, usable as a map key.
//
// Every field is populated according to Op's arity; fields that don't
// apply to a given opcode are left at their zero value and ignored.
type Instruction struct {
	Op   Opcode
	Rd   Register // destination (Move, binary, conditional select)
	Rn   Register // first source (binary, compare, conditional select "true" value)
	Rm   Register // second source register (Mul/Sdiv/Udiv, conditional select "false" value)
	Op2  Operand  // second source operand (Add/Sub/And/Orr/Eor/Lsl/Lsr/Asr, Cmp/Cmn/Tst); also MovImm's immediate
	Cond Condition
}

// Constructors. Each mirrors the ISA's assembly mnemonic shape exactly
// (spec.md §3).

func MovReg(rd, rn Register) Instruction { return Instruction{Op: OpMovReg, Rd: rd, Rn: rn} }
func MovImm(rd Register, imm int64) Instruction {
	return Instruction{Op: OpMovImm, Rd: rd, Op2: Imm(imm)}
}
func Add(rd, rn Register, rm Operand) Instruction { return Instruction{Op: OpAdd, Rd: rd, Rn: rn, Op2: rm} }
func Sub(rd, rn Register, rm Operand) Instruction { return Instruction{Op: OpSub, Rd: rd, Rn: rn, Op2: rm} }
func Mul(rd, rn, rm Register) Instruction         { return Instruction{Op: OpMul, Rd: rd, Rn: rn, Rm: rm} }
func Sdiv(rd, rn, rm Register) Instruction        { return Instruction{Op: OpSdiv, Rd: rd, Rn: rn, Rm: rm} }
func Udiv(rd, rn, rm Register) Instruction        { return Instruction{Op: OpUdiv, Rd: rd, Rn: rn, Rm: rm} }
func And(rd, rn Register, rm Operand) Instruction { return Instruction{Op: OpAnd, Rd: rd, Rn: rn, Op2: rm} }
func Orr(rd, rn Register, rm Operand) Instruction { return Instruction{Op: OpOrr, Rd: rd, Rn: rn, Op2: rm} }
func Eor(rd, rn Register, rm Operand) Instruction { return Instruction{Op: OpEor, Rd: rd, Rn: rn, Op2: rm} }
func Lsl(rd, rn Register, shift Operand) Instruction {
	return Instruction{Op: OpLsl, Rd: rd, Rn: rn, Op2: shift}
}
func Lsr(rd, rn Register, shift Operand) Instruction {
	return Instruction{Op: OpLsr, Rd: rd, Rn: rn, Op2: shift}
}
func Asr(rd, rn Register, shift Operand) Instruction {
	return Instruction{Op: OpAsr, Rd: rd, Rn: rn, Op2: shift}
}
func Cmp(rn Register, rm Operand) Instruction { return Instruction{Op: OpCmp, Rn: rn, Op2: rm} }
func Cmn(rn Register, rm Operand) Instruction { return Instruction{Op: OpCmn, Rn: rn, Op2: rm} }
func Tst(rn Register, rm Operand) Instruction { return Instruction{Op: OpTst, Rn: rn, Op2: rm} }
func Csel(rd, rn, rm Register, cond Condition) Instruction {
	return Instruction{Op: OpCsel, Rd: rd, Rn: rn, Rm: rm, Cond: cond}
}
func Csinc(rd, rn, rm Register, cond Condition) Instruction {
	return Instruction{Op: OpCsinc, Rd: rd, Rn: rn, Rm: rm, Cond: cond}
}
func Csinv(rd, rn, rm Register, cond Condition) Instruction {
	return Instruction{Op: OpCsinv, Rd: rd, Rn: rn, Rm: rm, Cond: cond}
}
func Csneg(rd, rn, rm Register, cond Condition) Instruction {
	return Instruction{Op: OpCsneg, Rd: rd, Rn: rn, Rm: rm, Cond: cond}
}

// Unused returns the zero-cost no-op marker instruction used to pad
// stochastic-search sequences (spec.md §4.7).
func Unused() Instruction { return Instruction{Op: OpUnused} }

// Destination returns the instruction's destination register and true,
// or the zero Register and false for flag-only and Unused instructions.
func (i Instruction) Destination() (Register, bool) {
	if !i.Op.HasDestination() {
		return 0, false
	}
	return i.Rd, true
}

// Defs returns the registers this instruction writes — empty for
// flag-only compares and Unused, a single register otherwise. Per
// spec.md §3, a write to XZR is reported as a def (for liveness
// bookkeeping) even though it is observably discarded.
func (i Instruction) Defs() []Register {
	if rd, ok := i.Destination(); ok {
		return []Register{rd}
	}
	return nil
}

// Uses returns the registers this instruction reads, in no particular
// order, each register listed once even if read more than once.
func (i Instruction) Uses() []Register {
	var regs []Register
	add := func(r Register) {
		for _, have := range regs {
			if have == r {
				return
			}
		}
		regs = append(regs, r)
	}
	addOperand := func(op Operand) {
		if op.IsRegister() {
			add(op.Reg)
		}
	}
	switch i.Op.Arity() {
	case ArityMove:
		if i.Op == OpMovReg {
			add(i.Rn)
		}
	case ArityBinaryRegImm:
		add(i.Rn)
		addOperand(i.Op2)
	case ArityBinaryRegReg:
		add(i.Rn)
		add(i.Rm)
	case ArityCompare:
		add(i.Rn)
		addOperand(i.Op2)
	case ArityCondSelect:
		add(i.Rn)
		add(i.Rm)
	case ArityUnused:
	}
	return regs
}

// WritesFlags reports whether executing this instruction updates NZCV.
func (i Instruction) WritesFlags() bool { return i.Op.WritesFlags() }

// ReadsFlags reports whether executing this instruction consults NZCV.
func (i Instruction) ReadsFlags() bool { return i.Op.ReadsFlags() }

// String renders the instruction in the ISA's canonical assembly-text
// form, e.g. "add x0, x1, #1" or "csel x0, x1, x2, eq".
func (i Instruction) String() string {
	switch i.Op.Arity() {
	case ArityMove:
		if i.Op == OpMovReg {
			return fmt.Sprintf("mov %s, %s", i.Rd, i.Rn)
		}
		return fmt.Sprintf("mov %s, %s", i.Rd, i.Op2)
	case ArityBinaryRegImm:
		return fmt.Sprintf("%s %s, %s, %s", i.Op, i.Rd, i.Rn, i.Op2)
	case ArityBinaryRegReg:
		return fmt.Sprintf("%s %s, %s, %s", i.Op, i.Rd, i.Rn, i.Rm)
	case ArityCompare:
		return fmt.Sprintf("%s %s, %s", i.Op, i.Rn, i.Op2)
	case ArityCondSelect:
		return fmt.Sprintf("%s %s, %s, %s, %s", i.Op, i.Rd, i.Rn, i.Rm, i.Cond)
	case ArityUnused:
		return "unused"
	default:
		return fmt.Sprintf("<invalid instruction %+v>", i.Op)
	}
}

// encodabilityChecker is supplied by package asmenc (spec.md §6/§9): the
// encoder owns the bitmask-immediate search and machine-word field
// widths, and registers itself here the way image.RegisterFormat lets a
// codec register into the standard library's image package without the
// algebra importing the codec. Until a checker registers, every
// instruction is conservatively considered encodable so that code which
// only needs the algebra (not the encoder) keeps working.
var encodabilityChecker func(Instruction) bool = func(Instruction) bool { return true }

// RegisterEncodabilityChecker installs the function IsEncodable defers
// to. Called from asmenc's init().
func RegisterEncodabilityChecker(fn func(Instruction) bool) {
	encodabilityChecker = fn
}

// IsEncodable reports whether i can be emitted as a single ISA machine
// word. It defers to whatever encoder has registered itself (see
// RegisterEncodabilityChecker); search packages import asmenc for its
// side effect to get real encodability pruning (spec.md §4.1, §4.6).
func IsEncodable(i Instruction) bool {
	return encodabilityChecker(i)
}
