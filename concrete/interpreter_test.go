package concrete_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gostoke/gostoke/concrete"
	"github.com/gostoke/gostoke/isa"
)

func stateWith(values map[isa.Register]uint64) concrete.State {
	return concrete.NewStateFromValues(values)
}

func TestMovReg(t *testing.T) {
	s := stateWith(map[isa.Register]uint64{isa.X1: 42})
	s = concrete.Execute(s, isa.MovReg(isa.X0, isa.X1))
	if got := s.Get(isa.X0); got != 42 {
		t.Errorf("X0 = %d, want 42", got)
	}
}

func TestMovImmNegative(t *testing.T) {
	s := concrete.Execute(concrete.NewState(), isa.MovImm(isa.X0, -1))
	if got := s.Get(isa.X0); got != ^uint64(0) {
		t.Errorf("X0 = %#x, want all-ones", got)
	}
}

func TestAddWrapping(t *testing.T) {
	s := stateWith(map[isa.Register]uint64{isa.X1: ^uint64(0)})
	s = concrete.Execute(s, isa.Add(isa.X0, isa.X1, isa.Imm(1)))
	if got := s.Get(isa.X0); got != 0 {
		t.Errorf("X0 = %d, want 0 (wrapped)", got)
	}
}

func TestEorSelfClears(t *testing.T) {
	s := stateWith(map[isa.Register]uint64{isa.X0: 12345})
	s = concrete.Execute(s, isa.Eor(isa.X0, isa.X0, isa.Reg(isa.X0)))
	if got := s.Get(isa.X0); got != 0 {
		t.Errorf("X0 = %d, want 0", got)
	}
}

func TestShiftBoundaries(t *testing.T) {
	s := stateWith(map[isa.Register]uint64{isa.X1: 1})

	s0 := concrete.Execute(s, isa.Lsl(isa.X0, isa.X1, isa.Imm(0)))
	if got := s0.Get(isa.X0); got != 1 {
		t.Errorf("shift by 0 should be identity, got %d", got)
	}

	s63 := concrete.Execute(s, isa.Lsl(isa.X0, isa.X1, isa.Imm(63)))
	if got := s63.Get(isa.X0); got != 1<<63 {
		t.Errorf("shift by 63 = %#x, want bit 63 set", got)
	}

	s64 := concrete.Execute(s, isa.Lsl(isa.X0, isa.X1, isa.Imm(64)))
	if got := s64.Get(isa.X0); got != 1 {
		t.Errorf("shift by 64 should behave as shift by 0 (mod 64), got %d", got)
	}
}

func TestAsrSignExtends(t *testing.T) {
	s := stateWith(map[isa.Register]uint64{isa.X1: 1 << 63})
	s = concrete.Execute(s, isa.Asr(isa.X0, isa.X1, isa.Imm(1)))
	if got := s.GetSigned(isa.X0); got != -(1 << 62) {
		t.Errorf("ASR did not sign-extend: got %d", got)
	}
}

func TestLsrZeroFills(t *testing.T) {
	s := stateWith(map[isa.Register]uint64{isa.X1: 1 << 63})
	s = concrete.Execute(s, isa.Lsr(isa.X0, isa.X1, isa.Imm(1)))
	if got := s.Get(isa.X0); got != 1<<62 {
		t.Errorf("LSR did not zero-fill: got %#x", got)
	}
}

func TestSdivMinByNegOne(t *testing.T) {
	s := stateWith(map[isa.Register]uint64{isa.X1: uint64(minInt64Test), isa.X2: ^uint64(0)})
	s = concrete.Execute(s, isa.Sdiv(isa.X0, isa.X1, isa.X2))
	if got := s.GetSigned(isa.X0); got != minInt64Test {
		t.Errorf("SDIV(MIN,-1) = %d, want MIN", got)
	}
}

var minInt64Test int64 = -1 << 63

func TestDivisionByZero(t *testing.T) {
	s := stateWith(map[isa.Register]uint64{isa.X1: 7})
	sdiv := concrete.Execute(s, isa.Sdiv(isa.X0, isa.X1, isa.X2))
	if got := sdiv.Get(isa.X0); got != 0 {
		t.Errorf("SDIV(x,0) = %d, want 0", got)
	}
	udiv := concrete.Execute(s, isa.Udiv(isa.X0, isa.X1, isa.X2))
	if got := udiv.Get(isa.X0); got != 0 {
		t.Errorf("UDIV(x,0) = %d, want 0", got)
	}
}

func TestCmpSelf(t *testing.T) {
	s := stateWith(map[isa.Register]uint64{isa.X0: 42})
	s = concrete.Execute(s, isa.Cmp(isa.X0, isa.Reg(isa.X0)))
	want := isa.Flags{N: false, Z: true, C: true, V: false}
	if s.Flags() != want {
		t.Errorf("Cmp(x,x) flags = %s, want %s", s.Flags(), want)
	}
}

func TestTstZero(t *testing.T) {
	s := stateWith(map[isa.Register]uint64{isa.X0: 42})
	s = concrete.Execute(s, isa.Tst(isa.X0, isa.Imm(0)))
	want := isa.Flags{Z: true}
	if s.Flags() != want {
		t.Errorf("Tst(x,0) flags = %s, want %s", s.Flags(), want)
	}
}

func TestCselFamily(t *testing.T) {
	base := stateWith(map[isa.Register]uint64{isa.X1: 10, isa.X2: 20})
	base = concrete.Execute(base, isa.Cmp(isa.X0, isa.Imm(0))) // X0 default 0: EQ holds

	csel := concrete.Execute(base, isa.Csel(isa.X3, isa.X1, isa.X2, isa.EQ))
	if got := csel.Get(isa.X3); got != 10 {
		t.Errorf("Csel EQ(true) = %d, want 10", got)
	}

	csinc := concrete.Execute(base, isa.Csinc(isa.X3, isa.X1, isa.X2, isa.NE))
	if got := csinc.Get(isa.X3); got != 21 {
		t.Errorf("Csinc NE(false) = %d, want 21", got)
	}

	csinv := concrete.Execute(base, isa.Csinv(isa.X3, isa.X1, isa.X2, isa.NE))
	if got := csinv.Get(isa.X3); got != ^uint64(20) {
		t.Errorf("Csinv NE(false) = %#x, want ^20", got)
	}

	csneg := concrete.Execute(base, isa.Csneg(isa.X3, isa.X1, isa.X2, isa.NE))
	if got := csneg.GetSigned(isa.X3); got != -20 {
		t.Errorf("Csneg NE(false) = %d, want -20", got)
	}
}

func TestXZRInvariant(t *testing.T) {
	s := stateWith(map[isa.Register]uint64{isa.X1: 99})
	s = concrete.Execute(s, isa.MovReg(isa.XZR, isa.X1))
	if got := s.Get(isa.XZR); got != 0 {
		t.Errorf("XZR = %d, want 0 after write", got)
	}
	if got := s.Get(isa.X1); got != 99 {
		t.Errorf("X1 = %d, should be unaffected by write to XZR", got)
	}
}

func TestExecuteSequenceComposesLeftToRight(t *testing.T) {
	seq := isa.Sequence{
		isa.MovReg(isa.X0, isa.X1),
		isa.Add(isa.X0, isa.X0, isa.Imm(1)),
	}
	s := concrete.ExecuteSequence(stateWith(map[isa.Register]uint64{isa.X1: 41}), seq)
	if got := s.Get(isa.X0); got != 42 {
		t.Errorf("X0 = %d, want 42", got)
	}
}

func TestFirstDifference(t *testing.T) {
	a := stateWith(map[isa.Register]uint64{isa.X0: 1})
	b := stateWith(map[isa.Register]uint64{isa.X0: 2})
	mask := isa.NewLiveOutMask(isa.X0)
	reg, va, vb, ok := a.FirstDifference(b, mask)
	if !ok || reg != isa.X0 || va != 1 || vb != 2 {
		t.Errorf("FirstDifference = %v %v %v %v", reg, va, vb, ok)
	}
	if _, _, _, ok := a.FirstDifference(a, mask); ok {
		t.Error("identical states should report no difference")
	}
}

func TestExecuteSequenceMultiRegisterResult(t *testing.T) {
	seq := isa.Sequence{
		isa.MovImm(isa.X0, 10),
		isa.MovImm(isa.X1, 20),
		isa.Add(isa.X2, isa.X0, isa.Reg(isa.X1)),
		isa.Sub(isa.X3, isa.X1, isa.Reg(isa.X0)),
	}
	s := concrete.ExecuteSequence(concrete.NewState(), seq)

	got := map[isa.Register]uint64{
		isa.X0: s.Get(isa.X0),
		isa.X1: s.Get(isa.X1),
		isa.X2: s.Get(isa.X2),
		isa.X3: s.Get(isa.X3),
	}
	want := map[isa.Register]uint64{
		isa.X0: 10,
		isa.X1: 20,
		isa.X2: 30,
		isa.X3: 10,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("final registers mismatch (-want +got):\n%s", diff)
	}
}

func TestStateDumpIncludesRegisterName(t *testing.T) {
	s := stateWith(map[isa.Register]uint64{isa.X5: 7})
	dump := s.Dump()
	if !strings.Contains(dump, "x5") {
		t.Errorf("Dump() = %q, want it to mention x5", dump)
	}
}
