package asmenc_test

import (
	"errors"
	"testing"

	"github.com/gostoke/gostoke/asmenc"
	"github.com/gostoke/gostoke/isa"
)

func TestEncode_RegisterForms(t *testing.T) {
	cases := []isa.Instruction{
		isa.MovReg(isa.X0, isa.X1),
		isa.Add(isa.X0, isa.X1, isa.Reg(isa.X2)),
		isa.Mul(isa.X0, isa.X1, isa.X2),
		isa.Cmp(isa.X0, isa.Reg(isa.X1)),
		isa.Csel(isa.X0, isa.X1, isa.X2, isa.EQ),
		isa.Unused(),
	}
	for _, instr := range cases {
		word, err := asmenc.Encode(instr)
		if err != nil {
			t.Errorf("Encode(%v) = %v, want a word", instr, err)
			continue
		}
		if instr.Op != isa.OpUnused && word>>27 != uint32(instr.Op) {
			t.Errorf("Encode(%v): opcode field = %d, want %d", instr, word>>27, instr.Op)
		}
	}
}

func TestEncode_ArithmeticImmediateRange(t *testing.T) {
	if _, err := asmenc.Encode(isa.Add(isa.X0, isa.X1, isa.Imm(0xFFF))); err != nil {
		t.Errorf("Add with max 12-bit immediate should encode, got %v", err)
	}
	if _, err := asmenc.Encode(isa.Add(isa.X0, isa.X1, isa.Imm(0x1000))); err == nil {
		t.Error("Add with a 13-bit immediate should not encode")
	}
	if _, err := asmenc.Encode(isa.Sub(isa.X0, isa.X1, isa.Imm(-1))); err == nil {
		t.Error("Sub with a negative immediate should not encode")
	}
}

func TestEncode_ShiftAmountRange(t *testing.T) {
	if _, err := asmenc.Encode(isa.Lsl(isa.X0, isa.X1, isa.Imm(63))); err != nil {
		t.Errorf("Lsl by 63 should encode, got %v", err)
	}
	if _, err := asmenc.Encode(isa.Lsr(isa.X0, isa.X1, isa.Imm(64))); err == nil {
		t.Error("Lsr by 64 should not encode")
	}
}

func TestEncode_MovImmRange(t *testing.T) {
	if _, err := asmenc.Encode(isa.MovImm(isa.X0, 0xFFFF)); err != nil {
		t.Errorf("MovImm of 0xFFFF should encode, got %v", err)
	}
	if _, err := asmenc.Encode(isa.MovImm(isa.X0, 0x10000)); err == nil {
		t.Error("MovImm of 0x10000 should not encode")
	}
	if _, err := asmenc.Encode(isa.MovImm(isa.X0, -1)); err == nil {
		t.Error("MovImm of -1 should not encode (no MOVN form in the minimal encoder)")
	}
}

func TestEncode_TstImmediateNeverEncodes(t *testing.T) {
	if _, err := asmenc.Encode(isa.Tst(isa.X0, isa.Imm(1))); err == nil {
		t.Error("Tst with an immediate operand should never encode")
	}
	var unavailable *asmenc.EncodingUnavailable
	if _, err := asmenc.Encode(isa.Tst(isa.X0, isa.Imm(1))); !errors.As(err, &unavailable) {
		t.Errorf("expected *EncodingUnavailable, got %T", err)
	}
}

func TestEncode_BitmaskImmediate(t *testing.T) {
	// 0b0111 (3 ones, no rotation) is a valid bitmask immediate.
	if _, err := asmenc.Encode(isa.And(isa.X0, isa.X1, isa.Imm(0b0111))); err != nil {
		t.Errorf("And with a contiguous-ones immediate should encode, got %v", err)
	}
	// A rotated run (0xC000000000000001, i.e. three ones wrapping the top
	// and bottom of the word) is still a single contiguous run mod 64.
	if _, err := asmenc.Encode(isa.Orr(isa.X0, isa.X1, isa.Imm(int64(-1>>62)<<62|1))); err != nil {
		t.Errorf("Orr with a wrapped-rotation immediate should encode, got %v", err)
	}
	// 0 and all-ones have no bitmask encoding.
	if _, err := asmenc.Encode(isa.Eor(isa.X0, isa.X1, isa.Imm(0))); err == nil {
		t.Error("Eor with immediate 0 should not encode")
	}
	if _, err := asmenc.Encode(isa.Eor(isa.X0, isa.X1, isa.Imm(-1))); err == nil {
		t.Error("Eor with all-ones should not encode")
	}
	// A non-periodic, non-contiguous pattern has no bitmask encoding.
	if _, err := asmenc.Encode(isa.And(isa.X0, isa.X1, isa.Imm(0b1011))); err == nil {
		t.Error("And with a scattered-bits immediate should not encode")
	}
}

func TestIsEncodable_MatchesEncode(t *testing.T) {
	cases := []isa.Instruction{
		isa.Add(isa.X0, isa.X1, isa.Imm(4096)),
		isa.And(isa.X0, isa.X1, isa.Imm(0b0111)),
		isa.MovReg(isa.X0, isa.X1),
	}
	for _, instr := range cases {
		_, err := asmenc.Encode(instr)
		want := err == nil
		if got := isa.IsEncodable(instr); got != want {
			t.Errorf("IsEncodable(%v) = %v, want %v (Encode error: %v)", instr, got, want, err)
		}
	}
}
