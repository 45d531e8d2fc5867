package z3

import (
	"github.com/gostoke/gostoke/isa"
	"github.com/gostoke/gostoke/symbolic"
)

// EquivChecker adapts Solver to equiv.DecisionProcedure: it builds one
// shared symbolic input state, translates both sequences against it, and
// asks the solver whether any input makes them disagree on a live-out
// register (spec.md §4.4 phase 2).
type EquivChecker struct {
	Solver *Solver
}

// CheckEquivalent implements equiv.DecisionProcedure.
func (c *EquivChecker) CheckEquivalent(regs []isa.Register, lhs, rhs isa.Sequence, mask isa.LiveOutMask) (proved bool, counterexample map[isa.Register]uint64, unknown bool, err error) {
	initial := symbolic.NewFreshState("in_")

	outLHS := symbolic.TranslateSequence(initial, lhs)
	outRHS := symbolic.TranslateSequence(initial, rhs)

	mismatch := mismatchExpr(outLHS, outRHS, mask)

	sat, model, err := c.Solver.Solve([]symbolic.Expr{mismatch})
	if err != nil {
		if err == ErrTimeout || err == ErrCanceled || err == ErrResourceLimit || err == ErrUnknown {
			return false, nil, true, nil
		}
		return false, nil, false, err
	}
	if !sat {
		return true, nil, false, nil
	}

	input := make(map[isa.Register]uint64, len(regs))
	for _, r := range regs {
		if r.IsZero() {
			continue
		}
		input[r] = model["in_"+r.String()]
	}
	return false, input, false, nil
}

// mismatchExpr builds "there exists a live-out register where lhs and
// rhs disagree" as a single width-1 formula: the disjunction of
// per-register inequalities across the live-out mask.
func mismatchExpr(lhs, rhs symbolic.State, mask isa.LiveOutMask) symbolic.Expr {
	var disjuncts symbolic.Expr
	for _, r := range mask.Registers() {
		neq := symbolic.NewBinary(symbolic.NE, lhs.Get(r), rhs.Get(r))
		if disjuncts == nil {
			disjuncts = neq
		} else {
			disjuncts = symbolic.NewBinary(symbolic.BOOL_OR, disjuncts, neq)
		}
	}
	if disjuncts == nil {
		return symbolic.NewConstBool(false)
	}
	return disjuncts
}
