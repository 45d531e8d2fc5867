package asmdec_test

import (
	"testing"

	"github.com/gostoke/gostoke/asmdec"
	"github.com/gostoke/gostoke/isa"
)

func TestDecode_MovRegAndImm(t *testing.T) {
	got, err := asmdec.Decode(0, "mov", "x0, x1")
	if err != nil {
		t.Fatalf("Decode(mov reg) = %v", err)
	}
	if want := isa.MovReg(isa.X0, isa.X1); got != want {
		t.Errorf("Decode(mov reg) = %v, want %v", got, want)
	}

	got, err = asmdec.Decode(0, "MOV", "x0, #42")
	if err != nil {
		t.Fatalf("Decode(mov imm) = %v", err)
	}
	if want := isa.MovImm(isa.X0, 42); got != want {
		t.Errorf("Decode(mov imm) = %v, want %v", got, want)
	}
}

func TestDecode_RegisterCaseAndAliases(t *testing.T) {
	got, err := asmdec.Decode(0, "mov", "X0, LR")
	if err != nil {
		t.Fatalf("Decode with uppercase/alias = %v", err)
	}
	if want := isa.MovReg(isa.X0, isa.X30); got != want {
		t.Errorf("Decode(mov X0, LR) = %v, want %v", got, want)
	}
}

func TestDecode_HexAndNegativeImmediates(t *testing.T) {
	got, err := asmdec.Decode(0, "add", "x0, x1, #0xff")
	if err != nil {
		t.Fatalf("Decode hex immediate = %v", err)
	}
	if want := isa.Add(isa.X0, isa.X1, isa.Imm(0xff)); got != want {
		t.Errorf("Decode(add hex) = %v, want %v", got, want)
	}

	got, err = asmdec.Decode(0, "sub", "x0, x1, #-1")
	if err != nil {
		t.Fatalf("Decode negative immediate = %v", err)
	}
	if want := isa.Sub(isa.X0, isa.X1, isa.Imm(-1)); got != want {
		t.Errorf("Decode(sub #-1) = %v, want %v", got, want)
	}
}

func TestDecode_Csel(t *testing.T) {
	got, err := asmdec.Decode(0, "csel", "x0, x1, x2, eq")
	if err != nil {
		t.Fatalf("Decode csel = %v", err)
	}
	if want := isa.Csel(isa.X0, isa.X1, isa.X2, isa.EQ); got != want {
		t.Errorf("Decode(csel) = %v, want %v", got, want)
	}
}

func TestDecode_UnknownMnemonic(t *testing.T) {
	if _, err := asmdec.Decode(0, "xyz", "x0, x1"); err == nil {
		t.Error("expected an error for an unknown mnemonic")
	}
}

func TestDecode_WrongOperandCount(t *testing.T) {
	if _, err := asmdec.Decode(0, "add", "x0, x1"); err == nil {
		t.Error("expected an error for add with too few operands")
	}
}

func TestDecode_InvalidRegister(t *testing.T) {
	if _, err := asmdec.Decode(0, "mov", "x0, r1"); err == nil {
		t.Error("expected an error for an invalid register token")
	}
}

func TestParseImmediate(t *testing.T) {
	cases := map[string]int64{
		"#42":   42,
		"42":    42,
		"#-1":   -1,
		"-1":    -1,
		"#0x10": 16,
		"0x10":  16,
		"#0xFF": 255,
		"-0x10": -16,
	}
	for in, want := range cases {
		got, err := asmdec.ParseImmediate(in)
		if err != nil {
			t.Errorf("ParseImmediate(%q) = %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseImmediate(%q) = %d, want %d", in, got, want)
		}
	}
}
