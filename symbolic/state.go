package symbolic

import (
	"bytes"
	"fmt"

	"github.com/benbjohnson/immutable"

	"github.com/gostoke/gostoke/isa"
)

// FlagExprs holds the four NZCV flags as independent width-1 expressions
// (spec.md §9: never folded into a single nibble, even symbolically).
type FlagExprs struct {
	N, Z, C, V Expr
}

// registerComparer orders isa.Register keys for the SortedMap, mirroring
// the teacher's uint64Comparer (execution_state.go).
type registerComparer struct{}

func (registerComparer) Compare(a, b interface{}) int {
	x, y := a.(isa.Register), b.(isa.Register)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

// State is a functional symbolic machine state: a register file backed by
// an immutable.SortedMap from Register to Expr, plus symbolic NZCV flags.
// Every instruction translation produces a new State value; prior states
// remain valid and share structure with it (spec.md §3, §4.3).
type State struct {
	regs  *immutable.SortedMap
	flags FlagExprs
}

// NewFreshState returns a symbolic state where every register other than
// XZR holds a fresh VarExpr named "<prefix><register>", XZR holds the
// constant zero, and flags are fresh width-1 variables.
func NewFreshState(prefix string) State {
	m := immutable.NewSortedMap(registerComparer{})
	for _, r := range isa.AllRegisters() {
		if r.IsZero() {
			m = m.Set(r, &ConstExpr{Value: 0, W: Width64})
			continue
		}
		m = m.Set(r, NewVar(fmt.Sprintf("%s%s", prefix, r)))
	}
	return State{
		regs: m,
		flags: FlagExprs{
			N: NewBoolVar(prefix + "N"),
			Z: NewBoolVar(prefix + "Z"),
			C: NewBoolVar(prefix + "C"),
			V: NewBoolVar(prefix + "V"),
		},
	}
}

// Get returns the expression bound to r. XZR always reads the constant
// zero regardless of what (if anything) was ever Set on it.
func (s State) Get(r isa.Register) Expr {
	if r.IsZero() {
		return &ConstExpr{Value: 0, W: Width64}
	}
	v, ok := s.regs.Get(r)
	if !ok {
		return &ConstExpr{Value: 0, W: Width64}
	}
	return v.(Expr)
}

// Set returns a new State with r bound to e. Writes to XZR are dropped,
// matching concrete.State.Set.
func (s State) Set(r isa.Register, e Expr) State {
	if r.IsZero() {
		return s
	}
	return State{regs: s.regs.Set(r, e), flags: s.flags}
}

// Flags returns the current symbolic NZCV flags.
func (s State) Flags() FlagExprs { return s.flags }

// SetFlags returns a new State with flags replaced by f.
func (s State) SetFlags(f FlagExprs) State {
	return State{regs: s.regs, flags: f}
}

// ConditionExpr builds a width-1 expression for whether cond holds given
// flags, implementing the same table as isa.Flags.Holds but over terms
// (spec.md §4.3). AL and NV are both always-true.
func ConditionExpr(cond isa.Condition, f FlagExprs) Expr {
	notN := NewUnary(NOT, f.N)
	notZ := NewUnary(NOT, f.Z)
	notC := NewUnary(NOT, f.C)
	notV := NewUnary(NOT, f.V)
	nEqV := NewBinary(EQ, f.N, f.V)
	nNeV := NewBinary(NE, f.N, f.V)

	switch cond {
	case isa.EQ:
		return f.Z
	case isa.NE:
		return notZ
	case isa.CS:
		return f.C
	case isa.CC:
		return notC
	case isa.MI:
		return f.N
	case isa.PL:
		return notN
	case isa.VS:
		return f.V
	case isa.VC:
		return notV
	case isa.HI:
		return NewBinary(BOOL_AND, f.C, notZ)
	case isa.LS:
		return NewBinary(BOOL_OR, notC, f.Z)
	case isa.GE:
		return nEqV
	case isa.LT:
		return nNeV
	case isa.GT:
		return NewBinary(BOOL_AND, notZ, nEqV)
	case isa.LE:
		return NewBinary(BOOL_OR, f.Z, nNeV)
	case isa.AL, isa.NV:
		return NewConstBool(true)
	default:
		panic(fmt.Sprintf("symbolic: unknown condition %v", cond))
	}
}

// String dumps every register binding plus flags, ordered by register
// index, for debug logging and test failure output.
func (s State) String() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "flags: N=%s Z=%s C=%s V=%s\n", s.flags.N, s.flags.Z, s.flags.C, s.flags.V)
	itr := s.regs.Iterator()
	for !itr.Done() {
		k, v := itr.Next()
		fmt.Fprintf(&buf, "%s = %s\n", k.(isa.Register), v.(Expr))
	}
	return buf.String()
}
