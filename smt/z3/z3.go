// Package z3 adapts the teacher's cgo Z3 binding from its heap-array
// symbolic-execution model to the flat bit-vector register/flag terms
// produced by package symbolic, for the decision procedure phase of
// equivalence checking (spec.md §4.4).
package z3

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unsafe"

	"github.com/gostoke/gostoke/symbolic"
)

/*
#cgo LDFLAGS: -lz3
#include <z3.h>
#include <stdlib.h>
*/
import "C"

// Sentinel errors surfaced from a Z3_L_UNDEF result, mirroring the
// teacher's z3.Solver error classification.
var (
	ErrTimeout       = errors.New("z3: solver timed out")
	ErrCanceled      = errors.New("z3: solver canceled")
	ErrResourceLimit = errors.New("z3: solver resource limit reached")
	ErrUnknown       = errors.New("z3: solver returned unknown")
)

// Model maps free variable names to their assigned value. Width-1
// (boolean) variables are reported as 0 or 1.
type Model map[string]uint64

// Stats mirrors the teacher's z3.Stats: cheap counters a caller can log
// or export, without requiring a metrics dependency in this package.
type Stats struct {
	SolveN    int
	SolveTime time.Duration
}

// Solver wraps a single Z3 context configured with a decision timeout.
type Solver struct {
	ctx   *context
	stats Stats
}

// NewSolver returns a Solver whose checks give up after timeout and
// report ErrTimeout. A zero timeout means no limit.
func NewSolver(timeout time.Duration) *Solver {
	return &Solver{ctx: newContext(timeout)}
}

// Close deletes the underlying Z3 context.
func (s *Solver) Close() error {
	return s.ctx.close()
}

// Stats returns solve-call counters accumulated so far.
func (s *Solver) Stats() Stats {
	return s.stats
}

// Solve checks the conjunction of constraints for satisfiability. When
// satisfiable it also returns a model assigning every free variable that
// appeared in constraints — the counterexample register/flag values the
// equivalence checker reports back to the caller (spec.md §4.4).
func (s *Solver) Solve(constraints []symbolic.Expr) (sat bool, model Model, err error) {
	t := time.Now()
	defer func() {
		s.stats.SolveN++
		s.stats.SolveTime += time.Since(t)
	}()

	solver := C.Z3_mk_solver(s.ctx.raw)
	if err := s.ctx.err("Z3_mk_solver"); err != nil {
		return false, nil, err
	}
	C.Z3_solver_inc_ref(s.ctx.raw, solver)
	defer C.Z3_solver_dec_ref(s.ctx.raw, solver)

	for _, c := range constraints {
		ast, err := s.ctx.toAST(c)
		if err != nil {
			return false, nil, err
		}
		C.Z3_solver_assert(s.ctx.raw, solver, ast)
		if err := s.ctx.err("Z3_solver_assert"); err != nil {
			return false, nil, err
		}
	}

	ret := C.Z3_solver_check(s.ctx.raw, solver)
	if err := s.ctx.err("Z3_solver_check"); err != nil {
		return false, nil, err
	}
	switch ret {
	case C.Z3_L_FALSE:
		return false, nil, nil
	case C.Z3_L_UNDEF:
		reason := C.GoString(C.Z3_solver_get_reason_unknown(s.ctx.raw, solver))
		switch {
		case strings.Contains(reason, "timeout"):
			return false, nil, ErrTimeout
		case strings.Contains(reason, "canceled"):
			return false, nil, ErrCanceled
		case strings.Contains(reason, "resource limits reached"):
			return false, nil, ErrResourceLimit
		default:
			return false, nil, ErrUnknown
		}
	}

	if len(s.ctx.vars) == 0 {
		return true, Model{}, nil
	}

	m := C.Z3_solver_get_model(s.ctx.raw, solver)
	if err := s.ctx.err("Z3_solver_get_model"); err != nil {
		return true, nil, err
	}
	C.Z3_model_inc_ref(s.ctx.raw, m)
	defer C.Z3_model_dec_ref(s.ctx.raw, m)

	result := make(Model, len(s.ctx.vars))
	for name, v := range s.ctx.vars {
		val, err := s.ctx.evalVar(m, v)
		if err != nil {
			return true, nil, err
		}
		result[name] = val
	}
	return true, result, nil
}

// context wraps a Z3_context plus a cache of declared free-variable
// constants so that repeated references to the same symbolic.VarExpr
// name (shared, e.g., between two sequences translated from one common
// initial state) resolve to the same Z3 constant.
type context struct {
	raw  C.Z3_context
	vars map[string]declaredVar
}

type declaredVar struct {
	ast  C.Z3_ast
	bool bool // true if declared with Bool sort rather than a bit-vector sort
}

func newContext(timeout time.Duration) *context {
	cfg := C.Z3_mk_config()
	defer C.Z3_del_config(cfg)
	if timeout > 0 {
		k := C.CString("timeout")
		v := C.CString(fmt.Sprintf("%d", timeout.Milliseconds()))
		defer C.free(unsafe.Pointer(k))
		defer C.free(unsafe.Pointer(v))
		C.Z3_set_param_value(cfg, k, v)
	}

	raw := C.Z3_mk_context(cfg)
	C.Z3_set_error_handler(raw, nil)
	C.Z3_set_ast_print_mode(raw, C.Z3_PRINT_SMTLIB2_COMPLIANT)
	return &context{raw: raw, vars: make(map[string]declaredVar)}
}

func (ctx *context) close() error {
	C.Z3_del_context(ctx.raw)
	return ctx.err("Z3_del_context")
}

func (ctx *context) err(op string) error {
	if code := C.Z3_get_error_code(ctx.raw); code != C.Z3_OK {
		return &Error{Code: int(code), Op: op, Message: C.GoString(C.Z3_get_error_msg(ctx.raw, code))}
	}
	return nil
}

func (ctx *context) toAST(e symbolic.Expr) (C.Z3_ast, error) {
	switch e := e.(type) {
	case *symbolic.ConstExpr:
		return ctx.toConstAST(e)
	case *symbolic.VarExpr:
		return ctx.toVarAST(e)
	case *symbolic.UnaryExpr:
		return ctx.toUnaryAST(e)
	case *symbolic.BinaryExpr:
		return ctx.toBinaryAST(e)
	case *symbolic.ExtractExpr:
		return ctx.toExtractAST(e)
	case *symbolic.IteExpr:
		return ctx.toIteAST(e)
	default:
		return nil, fmt.Errorf("z3: unsupported expression type %T", e)
	}
}

func (ctx *context) isBoolWidth(w uint) bool { return w == symbolic.WidthBool }

func (ctx *context) toConstAST(e *symbolic.ConstExpr) (C.Z3_ast, error) {
	if ctx.isBoolWidth(e.W) {
		if e.Value != 0 {
			return C.Z3_mk_true(ctx.raw), ctx.err("Z3_mk_true")
		}
		return C.Z3_mk_false(ctx.raw), ctx.err("Z3_mk_false")
	}
	sort := C.Z3_mk_bv_sort(ctx.raw, C.uint(e.W))
	return C.Z3_mk_unsigned_int64(ctx.raw, C.uint64_t(e.Value), sort), ctx.err("Z3_mk_unsigned_int64")
}

func (ctx *context) toVarAST(e *symbolic.VarExpr) (C.Z3_ast, error) {
	if v, ok := ctx.vars[e.Name]; ok {
		return v.ast, nil
	}

	cname := C.CString(e.Name)
	defer C.free(unsafe.Pointer(cname))
	sym := C.Z3_mk_string_symbol(ctx.raw, cname)

	isBool := ctx.isBoolWidth(e.W)
	var sort C.Z3_sort
	if isBool {
		sort = C.Z3_mk_bool_sort(ctx.raw)
	} else {
		sort = C.Z3_mk_bv_sort(ctx.raw, C.uint(e.W))
	}
	ast := C.Z3_mk_const(ctx.raw, sym, sort)
	if err := ctx.err("Z3_mk_const"); err != nil {
		return nil, err
	}
	ctx.vars[e.Name] = declaredVar{ast: ast, bool: isBool}
	return ast, nil
}

func (ctx *context) toUnaryAST(e *symbolic.UnaryExpr) (C.Z3_ast, error) {
	x, err := ctx.toAST(e.X)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case symbolic.NOT:
		if ctx.isBoolWidth(e.X.Width()) {
			return C.Z3_mk_not(ctx.raw, x), ctx.err("Z3_mk_not")
		}
		return C.Z3_mk_bvnot(ctx.raw, x), ctx.err("Z3_mk_bvnot")
	case symbolic.NEG:
		return C.Z3_mk_bvneg(ctx.raw, x), ctx.err("Z3_mk_bvneg")
	default:
		return nil, fmt.Errorf("z3: unsupported unary op %v", e.Op)
	}
}

func (ctx *context) toExtractAST(e *symbolic.ExtractExpr) (C.Z3_ast, error) {
	src, err := ctx.toAST(e.X)
	if err != nil {
		return nil, err
	}
	bit := C.Z3_mk_extract(ctx.raw, C.uint(e.Bit), C.uint(e.Bit), src)
	if err := ctx.err("Z3_mk_extract"); err != nil {
		return nil, err
	}
	one := C.Z3_mk_unsigned_int64(ctx.raw, 1, C.Z3_mk_bv_sort(ctx.raw, 1))
	return C.Z3_mk_eq(ctx.raw, bit, one), ctx.err("Z3_mk_eq")
}

func (ctx *context) toIteAST(e *symbolic.IteExpr) (C.Z3_ast, error) {
	cond, err := ctx.toAST(e.Cond)
	if err != nil {
		return nil, err
	}
	then, err := ctx.toAST(e.Then)
	if err != nil {
		return nil, err
	}
	els, err := ctx.toAST(e.Else)
	if err != nil {
		return nil, err
	}
	return C.Z3_mk_ite(ctx.raw, cond, then, els), ctx.err("Z3_mk_ite")
}

func (ctx *context) toBinaryAST(e *symbolic.BinaryExpr) (C.Z3_ast, error) {
	lhs, err := ctx.toAST(e.LHS)
	if err != nil {
		return nil, err
	}
	rhs, err := ctx.toAST(e.RHS)
	if err != nil {
		return nil, err
	}
	boolOperands := ctx.isBoolWidth(e.LHS.Width())

	switch e.Op {
	case symbolic.ADD:
		return C.Z3_mk_bvadd(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvadd")
	case symbolic.SUB:
		return C.Z3_mk_bvsub(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvsub")
	case symbolic.MUL:
		return C.Z3_mk_bvmul(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvmul")
	case symbolic.UDIV:
		return C.Z3_mk_bvudiv(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvudiv")
	case symbolic.SDIV:
		return C.Z3_mk_bvsdiv(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvsdiv")
	case symbolic.AND:
		return C.Z3_mk_bvand(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvand")
	case symbolic.OR:
		return C.Z3_mk_bvor(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvor")
	case symbolic.XOR:
		return C.Z3_mk_bvxor(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvxor")
	case symbolic.SHL:
		return C.Z3_mk_bvshl(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvshl")
	case symbolic.LSHR:
		return C.Z3_mk_bvlshr(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvlshr")
	case symbolic.ASHR:
		return C.Z3_mk_bvashr(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvashr")
	case symbolic.EQ:
		if boolOperands {
			return C.Z3_mk_iff(ctx.raw, lhs, rhs), ctx.err("Z3_mk_iff")
		}
		return C.Z3_mk_eq(ctx.raw, lhs, rhs), ctx.err("Z3_mk_eq")
	case symbolic.NE:
		eq, err := func() (C.Z3_ast, error) {
			if boolOperands {
				return C.Z3_mk_iff(ctx.raw, lhs, rhs), ctx.err("Z3_mk_iff")
			}
			return C.Z3_mk_eq(ctx.raw, lhs, rhs), ctx.err("Z3_mk_eq")
		}()
		if err != nil {
			return nil, err
		}
		return C.Z3_mk_not(ctx.raw, eq), ctx.err("Z3_mk_not")
	case symbolic.ULT:
		return C.Z3_mk_bvult(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvult")
	case symbolic.ULE:
		return C.Z3_mk_bvule(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvule")
	case symbolic.UGT:
		return C.Z3_mk_bvugt(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvugt")
	case symbolic.UGE:
		return C.Z3_mk_bvuge(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvuge")
	case symbolic.SLT:
		return C.Z3_mk_bvslt(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvslt")
	case symbolic.SLE:
		return C.Z3_mk_bvsle(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvsle")
	case symbolic.SGT:
		return C.Z3_mk_bvsgt(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvsgt")
	case symbolic.SGE:
		return C.Z3_mk_bvsge(ctx.raw, lhs, rhs), ctx.err("Z3_mk_bvsge")
	case symbolic.BOOL_AND:
		args := [2]C.Z3_ast{lhs, rhs}
		return C.Z3_mk_and(ctx.raw, 2, &args[0]), ctx.err("Z3_mk_and")
	case symbolic.BOOL_OR:
		args := [2]C.Z3_ast{lhs, rhs}
		return C.Z3_mk_or(ctx.raw, 2, &args[0]), ctx.err("Z3_mk_or")
	default:
		return nil, fmt.Errorf("z3: unsupported binary op %v", e.Op)
	}
}

func (ctx *context) evalVar(model C.Z3_model, v declaredVar) (uint64, error) {
	var out C.Z3_ast
	ok := C.Z3_model_eval(ctx.raw, model, v.ast, C.bool(true), &out)
	if !bool(ok) {
		return 0, fmt.Errorf("z3: model evaluation failed")
	}
	if err := ctx.err("Z3_model_eval"); err != nil {
		return 0, err
	}

	if v.bool {
		switch C.Z3_get_bool_value(ctx.raw, out) {
		case C.Z3_L_TRUE:
			return 1, nil
		default:
			return 0, nil
		}
	}

	var u64 C.uint64_t
	if !bool(C.Z3_get_numeral_uint64(ctx.raw, out, &u64)) {
		return 0, fmt.Errorf("z3: could not extract numeral value from model")
	}
	return uint64(u64), ctx.err("Z3_get_numeral_uint64")
}

// Error represents an error reported by the Z3 API.
type Error struct {
	Code    int
	Op      string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (%d)", e.Op, e.Message, e.Code)
}
