// Package asmenc is the outbound encoder boundary (spec.md §6): given an
// Instruction, produce exactly one 32-bit machine word, or report that no
// encoding exists. It owns the encodability rules spec.md §3/§9 describe
// at a design level — 12-bit unsigned arithmetic immediates, [0,63] shift
// amounts, and the AArch64-style rotated-bitmask encoding for logical
// immediates — and registers itself into isa.IsEncodable on import so
// search packages get real pruning without depending on this package's
// types directly.
//
// The word layout below is gostoke's own; it is not wire-compatible with
// real AArch64 object code (nothing in this repository decodes machine
// words back — see asmdec, which works from assembly text instead).
package asmenc

import (
	"fmt"
	"math/bits"

	"github.com/gostoke/gostoke/isa"
)

func init() {
	isa.RegisterEncodabilityChecker(func(i isa.Instruction) bool {
		_, err := Encode(i)
		return err == nil
	})
}

// EncodingUnavailable is returned when an Instruction cannot be expressed
// as a single machine word.
type EncodingUnavailable struct {
	Instr  isa.Instruction
	Reason string
}

func (e *EncodingUnavailable) Error() string {
	return fmt.Sprintf("asmenc: %s not encodable: %s", e.Instr, e.Reason)
}

const (
	opcodeShift = 27
	rdShift     = 21
	rnShift     = 15
	rmShift     = 9
	condShift   = 5

	mask4 = 0xF
	mask5 = 0x1F
	mask6 = 0x3F

	// arithImmMax bounds Add/Sub/Cmp/Cmn's immediate field: a 12-bit
	// unsigned value, matching the reference assembler's ADD/SUB/CMP/CMN
	// range.
	arithImmMax = 0xFFF
	// movImmMax bounds MovImm's 16-bit immediate field.
	movImmMax = 0xFFFF
	// shiftAmountMax bounds Lsl/Lsr/Asr's shift-amount operand.
	shiftAmountMax = 63
)

// Encode packs i into a 32-bit machine word, or returns
// *EncodingUnavailable describing why it can't be.
func Encode(i isa.Instruction) (uint32, error) {
	word := uint32(i.Op) << opcodeShift

	switch i.Op.Arity() {
	case isa.ArityMove:
		return encodeMove(i, word)
	case isa.ArityBinaryRegImm:
		return encodeBinaryRegImm(i, word)
	case isa.ArityBinaryRegReg:
		return word | regField(i.Rd, rdShift) | regField(i.Rn, rnShift) | regField(i.Rm, rmShift), nil
	case isa.ArityCompare:
		return encodeCompare(i, word)
	case isa.ArityCondSelect:
		word |= regField(i.Rd, rdShift) | regField(i.Rn, rnShift) | regField(i.Rm, rmShift)
		word |= (uint32(i.Cond) & mask4) << condShift
		return word, nil
	case isa.ArityUnused:
		return word, nil
	default:
		return 0, &EncodingUnavailable{i, "unrecognized arity"}
	}
}

func regField(r isa.Register, shift uint) uint32 {
	return (uint32(r) & mask6) << shift
}

func encodeMove(i isa.Instruction, word uint32) (uint32, error) {
	word |= regField(i.Rd, rdShift)
	if i.Op == isa.OpMovReg {
		return word | regField(i.Rn, rnShift), nil
	}
	// MovImm: no Rn operand, so the Rn field is free and the immediate
	// spans it plus the payload below.
	imm := i.Op2.Imm
	if imm < 0 || imm > movImmMax {
		return 0, &EncodingUnavailable{i, "immediate out of range for mov"}
	}
	return word | uint32(imm)<<condShift, nil
}

func encodeBinaryRegImm(i isa.Instruction, word uint32) (uint32, error) {
	word |= regField(i.Rd, rdShift) | regField(i.Rn, rnShift)
	if i.Op2.IsRegister() {
		return word | regField(i.Op2.Reg, rmShift), nil
	}

	switch i.Op {
	case isa.OpAdd, isa.OpSub:
		field, err := arithImmField(i)
		if err != nil {
			return 0, err
		}
		return word | field, nil
	case isa.OpLsl, isa.OpLsr, isa.OpAsr:
		amt := i.Op2.Imm
		if amt < 0 || amt > shiftAmountMax {
			return 0, &EncodingUnavailable{i, "shift amount out of range"}
		}
		return word | uint32(amt), nil
	case isa.OpAnd, isa.OpOrr, isa.OpEor:
		field, err := bitmaskImmField(i)
		if err != nil {
			return 0, err
		}
		return word | field, nil
	default:
		return 0, &EncodingUnavailable{i, "opcode has no immediate form"}
	}
}

func encodeCompare(i isa.Instruction, word uint32) (uint32, error) {
	word |= regField(i.Rn, rnShift)
	if i.Op2.IsRegister() {
		return word | regField(i.Op2.Reg, rmShift), nil
	}

	switch i.Op {
	case isa.OpCmp, isa.OpCmn:
		field, err := arithImmField(i)
		if err != nil {
			return 0, err
		}
		return word | field, nil
	case isa.OpTst:
		// Per the ISA's minimal encoder, Tst admits no immediate form.
		return 0, &EncodingUnavailable{i, "tst has no immediate encoding"}
	default:
		return 0, &EncodingUnavailable{i, "opcode has no immediate form"}
	}
}

func arithImmField(i isa.Instruction) (uint32, error) {
	imm := i.Op2.Imm
	if imm < 0 || imm > arithImmMax {
		return 0, &EncodingUnavailable{i, "immediate out of range for 12-bit arithmetic field"}
	}
	return uint32(imm), nil
}

func bitmaskImmField(i isa.Instruction) (uint32, error) {
	imm := i.Op2.Imm
	n, immr, imms, ok := encodeBitmask(uint64(imm))
	if !ok {
		return 0, &EncodingUnavailable{i, "value has no bitmask-immediate encoding"}
	}
	return uint32(n)<<12 | uint32(immr)<<6 | uint32(imms), nil
}

// encodeBitmask implements the logical-immediate search from spec.md §9:
// a 64-bit value is expressible iff it decomposes into identical
// 2/4/8/16/32/64-bit elements, each a contiguous run of s+1 ones rotated
// right by r. 0 and all-ones are never expressible.
func encodeBitmask(imm uint64) (n uint8, immr uint8, imms uint8, ok bool) {
	if imm == 0 || imm == ^uint64(0) {
		return 0, 0, 0, false
	}

	for _, size := range []uint{2, 4, 8, 16, 32, 64} {
		elt, mask := element(imm, size)
		if !isPeriodic(imm, elt, mask, size) || elt == 0 || elt == mask {
			continue
		}
		for r := uint(0); r < size; r++ {
			rotated := rotateRight(elt, r, size, mask)
			if rotated != 0 && rotated&(rotated+1) == 0 {
				s := uint8(bits.OnesCount64(rotated))
				return packBitmask(size, r, s)
			}
		}
	}
	return 0, 0, 0, false
}

func element(imm uint64, size uint) (elt, mask uint64) {
	if size == 64 {
		return imm, ^uint64(0)
	}
	mask = uint64(1)<<size - 1
	return imm & mask, mask
}

func isPeriodic(imm, elt, mask uint64, size uint) bool {
	for shift := size; shift < 64; shift += size {
		if (imm>>shift)&mask != elt {
			return false
		}
	}
	return true
}

func rotateRight(v uint64, r, size uint, mask uint64) uint64 {
	if r == 0 {
		return v
	}
	return ((v >> r) | (v << (size - r))) & mask
}

// packBitmask encodes the element size, rotation, and run length into
// (N, immr, imms), following the same leading-ones size trick the real
// AArch64 encoding uses to pack both fields into 6 bits.
func packBitmask(size, r uint, s uint8) (n, immr, imms uint8, ok bool) {
	immr = uint8(r) & mask6
	if size == 64 {
		return 1, immr, s - 1, true
	}
	lenBits := uint(bits.Len(size) - 1)
	top := uint8((uint(mask6) << (lenBits + 1)) & mask6)
	return 0, immr, top | (s - 1), true
}
