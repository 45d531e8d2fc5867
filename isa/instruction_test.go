package isa_test

import (
	"testing"

	"github.com/gostoke/gostoke/isa"
)

func TestInstructionString(t *testing.T) {
	tests := []struct {
		instr isa.Instruction
		want  string
	}{
		{isa.MovReg(isa.X0, isa.X1), "mov x0, x1"},
		{isa.MovImm(isa.X0, 5), "mov x0, #5"},
		{isa.Add(isa.X0, isa.X1, isa.Imm(1)), "add x0, x1, #1"},
		{isa.Add(isa.X0, isa.X1, isa.Reg(isa.X2)), "add x0, x1, x2"},
		{isa.Cmp(isa.X0, isa.Imm(0)), "cmp x0, #0"},
		{isa.Csel(isa.X1, isa.X2, isa.X3, isa.EQ), "csel x1, x2, x3, eq"},
		{isa.Unused(), "unused"},
	}
	for _, tt := range tests {
		if got := tt.instr.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestDefsUses(t *testing.T) {
	instr := isa.Add(isa.X0, isa.X1, isa.Reg(isa.X2))
	if defs := instr.Defs(); len(defs) != 1 || defs[0] != isa.X0 {
		t.Errorf("Defs() = %v, want [x0]", defs)
	}
	uses := instr.Uses()
	if len(uses) != 2 || uses[0] != isa.X1 || uses[1] != isa.X2 {
		t.Errorf("Uses() = %v, want [x1 x2]", uses)
	}

	cmp := isa.Cmp(isa.X0, isa.Imm(0))
	if defs := cmp.Defs(); defs != nil {
		t.Errorf("Cmp.Defs() = %v, want nil", defs)
	}
	if !cmp.WritesFlags() {
		t.Error("Cmp should write flags")
	}

	csel := isa.Csel(isa.X0, isa.X1, isa.X2, isa.EQ)
	if !csel.ReadsFlags() {
		t.Error("Csel should read flags")
	}
	if csel.WritesFlags() {
		t.Error("Csel should not write flags")
	}
}

func TestFlagsHolds(t *testing.T) {
	allTrue := isa.Flags{N: true, Z: true, C: true, V: true}
	allFalse := isa.Flags{}
	for _, c := range []isa.Condition{isa.AL, isa.NV} {
		if !allTrue.Holds(c) || !allFalse.Holds(c) {
			t.Errorf("%s should always hold", c)
		}
	}
	if !(isa.Flags{Z: true}).Holds(isa.EQ) {
		t.Error("EQ should hold when Z set")
	}
	if (isa.Flags{Z: true}).Holds(isa.NE) {
		t.Error("NE should not hold when Z set")
	}
}

func TestSequenceRegistersAndImmediates(t *testing.T) {
	seq := isa.Sequence{
		isa.MovReg(isa.X0, isa.X1),
		isa.Add(isa.X0, isa.X0, isa.Imm(1)),
		isa.Eor(isa.XZR, isa.XZR, isa.Reg(isa.XZR)),
	}
	regs := seq.Registers()
	if len(regs) != 2 || regs[0] != isa.X0 || regs[1] != isa.X1 {
		t.Errorf("Registers() = %v, want [x0 x1]", regs)
	}
	imms := seq.Immediates()
	if len(imms) != 1 || imms[0] != 1 {
		t.Errorf("Immediates() = %v, want [1]", imms)
	}
}

func TestLiveOutMask(t *testing.T) {
	mask := isa.NewLiveOutMask(isa.X0, isa.X2)
	if !mask.Contains(isa.X0) || mask.Contains(isa.X1) {
		t.Error("mask membership wrong")
	}
	if regs := mask.Registers(); len(regs) != 2 || regs[0] != isa.X0 || regs[1] != isa.X2 {
		t.Errorf("Registers() = %v", regs)
	}
	if !(isa.LiveOutMask{}).Empty() {
		t.Error("empty mask should report Empty()")
	}
}
