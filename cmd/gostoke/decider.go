package main

import (
	"github.com/gostoke/gostoke/smt/z3"
	symb "github.com/gostoke/gostoke/symbolic"
)

// solverDecider adapts *z3.Solver to search/symbolic.Decider. z3.Solver
// returns its own named Model type; Decider wants a bare
// map[string]uint64, so this does the (free, same-underlying-type)
// conversion at the one call site that needs it.
type solverDecider struct {
	solver *z3.Solver
}

func (d *solverDecider) Solve(constraints []symb.Expr) (bool, map[string]uint64, error) {
	sat, model, err := d.solver.Solve(constraints)
	return sat, map[string]uint64(model), err
}
