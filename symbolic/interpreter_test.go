package symbolic_test

import (
	"fmt"
	"testing"

	"github.com/gostoke/gostoke/isa"
	"github.com/gostoke/gostoke/symbolic"
)

// eval is a tiny recursive evaluator over symbolic.Expr, used only by
// these tests to check that Translate produces formulas that agree with
// concrete.Execute for a given assignment, without pulling in an SMT
// solver (that cross-check belongs to equiv + smt/z3).
func eval(e symbolic.Expr, env map[string]uint64) uint64 {
	switch e := e.(type) {
	case *symbolic.ConstExpr:
		return e.Value
	case *symbolic.VarExpr:
		v, ok := env[e.Name]
		if !ok {
			panic(fmt.Sprintf("unbound var %q", e.Name))
		}
		return v
	case *symbolic.UnaryExpr:
		x := eval(e.X, env)
		switch e.Op {
		case symbolic.NOT:
			return ^x
		case symbolic.NEG:
			return -x
		}
	case *symbolic.BinaryExpr:
		lhs, rhs := eval(e.LHS, env), eval(e.RHS, env)
		return evalBinary(e.Op, lhs, rhs)
	case *symbolic.ExtractExpr:
		return (eval(e.X, env) >> e.Bit) & 1
	case *symbolic.IteExpr:
		if eval(e.Cond, env) != 0 {
			return eval(e.Then, env)
		}
		return eval(e.Else, env)
	}
	panic(fmt.Sprintf("eval: unhandled expr %T", e))
}

func evalBinary(op symbolic.BinaryOp, lhs, rhs uint64) uint64 {
	b := func(v bool) uint64 {
		if v {
			return 1
		}
		return 0
	}
	switch op {
	case symbolic.ADD:
		return lhs + rhs
	case symbolic.SUB:
		return lhs - rhs
	case symbolic.MUL:
		return lhs * rhs
	case symbolic.UDIV:
		return lhs / rhs
	case symbolic.SDIV:
		return uint64(int64(lhs) / int64(rhs))
	case symbolic.AND:
		return lhs & rhs
	case symbolic.OR:
		return lhs | rhs
	case symbolic.XOR:
		return lhs ^ rhs
	case symbolic.SHL:
		return lhs << rhs
	case symbolic.LSHR:
		return lhs >> rhs
	case symbolic.ASHR:
		return uint64(int64(lhs) >> rhs)
	case symbolic.EQ:
		return b(lhs == rhs)
	case symbolic.NE:
		return b(lhs != rhs)
	case symbolic.ULT:
		return b(lhs < rhs)
	case symbolic.ULE:
		return b(lhs <= rhs)
	case symbolic.UGT:
		return b(lhs > rhs)
	case symbolic.UGE:
		return b(lhs >= rhs)
	case symbolic.SLT:
		return b(int64(lhs) < int64(rhs))
	case symbolic.SLE:
		return b(int64(lhs) <= int64(rhs))
	case symbolic.SGT:
		return b(int64(lhs) > int64(rhs))
	case symbolic.SGE:
		return b(int64(lhs) >= int64(rhs))
	case symbolic.BOOL_AND:
		return b(lhs != 0 && rhs != 0)
	case symbolic.BOOL_OR:
		return b(lhs != 0 || rhs != 0)
	}
	panic(fmt.Sprintf("evalBinary: unhandled op %v", op))
}

func TestTranslateAddMatchesConcrete(t *testing.T) {
	s := symbolic.NewFreshState("r")
	s = symbolic.Translate(s, isa.Add(isa.X0, isa.X1, isa.Imm(5)))

	env := map[string]uint64{"rx1": 37}
	got := eval(s.Get(isa.X0), env)
	if got != 42 {
		t.Errorf("ADD translation = %d, want 42", got)
	}
}

func TestTranslateCmpFlagsMatchConcrete(t *testing.T) {
	s := symbolic.NewFreshState("r")
	s = symbolic.Translate(s, isa.Cmp(isa.X0, isa.Reg(isa.X0)))

	env := map[string]uint64{"rx0": 7}
	flags := s.Flags()
	if z := eval(flags.Z, env); z != 1 {
		t.Errorf("Cmp(x,x) Z = %d, want 1", z)
	}
	if c := eval(flags.C, env); c != 1 {
		t.Errorf("Cmp(x,x) C = %d, want 1", c)
	}
	if n := eval(flags.N, env); n != 0 {
		t.Errorf("Cmp(x,x) N = %d, want 0", n)
	}
}

func TestTranslateDivisionByZeroFolds(t *testing.T) {
	s := symbolic.NewFreshState("r")
	s = s.Set(isa.X2, symbolic.NewConst(0))
	s = symbolic.Translate(s, isa.Sdiv(isa.X0, isa.X1, isa.X2))

	env := map[string]uint64{"rx1": 99}
	got := eval(s.Get(isa.X0), env)
	if got != 0 {
		t.Errorf("SDIV(x,0) translation = %d, want 0", got)
	}
}

func TestTranslateCselMatchesConcrete(t *testing.T) {
	s := symbolic.NewFreshState("r")
	s = symbolic.Translate(s, isa.Cmp(isa.X0, isa.Imm(0)))
	s = symbolic.Translate(s, isa.Csel(isa.X3, isa.X1, isa.X2, isa.EQ))

	env := map[string]uint64{"rx0": 0, "rx1": 10, "rx2": 20}
	got := eval(s.Get(isa.X3), env)
	if got != 10 {
		t.Errorf("Csel EQ(true) translation = %d, want 10", got)
	}
}

func TestTranslateXZRInvariant(t *testing.T) {
	s := symbolic.NewFreshState("r")
	s = symbolic.Translate(s, isa.MovReg(isa.XZR, isa.X1))
	if got, ok := symbolic.IsConst(s.Get(isa.XZR)); !ok || got != 0 {
		t.Errorf("XZR = %v, want constant 0", s.Get(isa.XZR))
	}
}

func TestTranslateSequenceComposesLeftToRight(t *testing.T) {
	seq := isa.Sequence{
		isa.MovReg(isa.X0, isa.X1),
		isa.Add(isa.X0, isa.X0, isa.Imm(1)),
	}
	s := symbolic.TranslateSequence(symbolic.NewFreshState("r"), seq)
	env := map[string]uint64{"rx1": 41}
	if got := eval(s.Get(isa.X0), env); got != 42 {
		t.Errorf("sequence translation = %d, want 42", got)
	}
}
