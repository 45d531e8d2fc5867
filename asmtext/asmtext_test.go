package asmtext_test

import (
	"testing"

	"github.com/gostoke/gostoke/asmtext"
	"github.com/gostoke/gostoke/isa"
)

func TestParseLine_SkipsNonInstructionLines(t *testing.T) {
	cases := []string{"", "   ", "// comment", "; comment", "@ comment", "label:", ".text", ".global _start"}
	for _, line := range cases {
		_, ok, err := asmtext.ParseLine(0, line)
		if err != nil {
			t.Errorf("ParseLine(%q) returned error %v, want a skip", line, err)
		}
		if ok {
			t.Errorf("ParseLine(%q) = ok, want skipped", line)
		}
	}
}

func TestParseLine_DecodesInstruction(t *testing.T) {
	instr, ok, err := asmtext.ParseLine(0, "add x0, x1, #1 // increment")
	if err != nil {
		t.Fatalf("ParseLine = %v", err)
	}
	if !ok {
		t.Fatal("ParseLine reported skip for a real instruction")
	}
	if want := isa.Add(isa.X0, isa.X1, isa.Imm(1)); instr != want {
		t.Errorf("ParseLine = %v, want %v", instr, want)
	}
}

func TestParse_FullSource(t *testing.T) {
	src := "\n.text\n.global _start\n_start:\nmov x0, x1          // copy\nadd x0, x0, #1      ; increment\n"
	seq, err := asmtext.Parse(src)
	if err != nil {
		t.Fatalf("Parse = %v", err)
	}
	if len(seq) != 2 {
		t.Fatalf("Parse produced %d instructions, want 2", len(seq))
	}
	if seq[0].Op != isa.OpMovReg {
		t.Errorf("seq[0].Op = %v, want OpMovReg", seq[0].Op)
	}
	if seq[1].Op != isa.OpAdd {
		t.Errorf("seq[1].Op = %v, want OpAdd", seq[1].Op)
	}
}

func TestParse_ReportsLineOfError(t *testing.T) {
	src := "mov x0, x1\nadd x0, x1\n"
	_, err := asmtext.Parse(src)
	if err == nil {
		t.Fatal("expected an error for a malformed second line")
	}
	var lineErr *asmtext.LineError
	if le, ok := err.(*asmtext.LineError); ok {
		lineErr = le
	} else {
		t.Fatalf("expected *asmtext.LineError, got %T", err)
	}
	if lineErr.Line != 2 {
		t.Errorf("error line = %d, want 2", lineErr.Line)
	}
}

func TestParse_EmptyResultIsNotAnError(t *testing.T) {
	seq, err := asmtext.Parse("// just a comment\n.text\n")
	if err != nil {
		t.Fatalf("Parse = %v", err)
	}
	if len(seq) != 0 {
		t.Errorf("Parse = %v, want empty", seq)
	}
}
