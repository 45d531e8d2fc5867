// Package asmdec is the inbound decoder boundary (spec.md §6): given
// (address, opcode_mnemonic, operand_text), it produces exactly one of
// the 20 supported Instruction variants or reports a *DecodeError.
// Register tokens are case-insensitive (with the usual fp/lr/wzr
// aliases), immediates parse as decimal or hexadecimal, and condition
// mnemonics match the ISA's table.
package asmdec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gostoke/gostoke/isa"
)

// DecodeError reports why a decoder input could not be turned into an
// Instruction; Address carries the caller's context for diagnostics.
type DecodeError struct {
	Address  uint64
	Mnemonic string
	Reason   string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("asmdec: 0x%x %q: %s", e.Address, e.Mnemonic, e.Reason)
}

var registerNames = map[string]isa.Register{
	"x0": isa.X0, "x1": isa.X1, "x2": isa.X2, "x3": isa.X3,
	"x4": isa.X4, "x5": isa.X5, "x6": isa.X6, "x7": isa.X7,
	"x8": isa.X8, "x9": isa.X9, "x10": isa.X10, "x11": isa.X11,
	"x12": isa.X12, "x13": isa.X13, "x14": isa.X14, "x15": isa.X15,
	"x16": isa.X16, "x17": isa.X17, "x18": isa.X18, "x19": isa.X19,
	"x20": isa.X20, "x21": isa.X21, "x22": isa.X22, "x23": isa.X23,
	"x24": isa.X24, "x25": isa.X25, "x26": isa.X26, "x27": isa.X27,
	"x28": isa.X28, "x29": isa.X29, "x30": isa.X30,
	"xzr": isa.XZR, "wzr": isa.XZR,
	"sp": isa.SP,
	"fp": isa.X29, "lr": isa.X30,
}

var conditionNames = map[string]isa.Condition{
	"eq": isa.EQ, "ne": isa.NE,
	"cs": isa.CS, "hs": isa.CS,
	"cc": isa.CC, "lo": isa.CC,
	"mi": isa.MI, "pl": isa.PL,
	"vs": isa.VS, "vc": isa.VC,
	"hi": isa.HI, "ls": isa.LS,
	"ge": isa.GE, "lt": isa.LT,
	"gt": isa.GT, "le": isa.LE,
	"al": isa.AL, "nv": isa.NV,
}

// ParseRegister parses a case-insensitive register token, including the
// fp/lr/wzr aliases.
func ParseRegister(s string) (isa.Register, bool) {
	r, ok := registerNames[strings.ToLower(strings.TrimSpace(s))]
	return r, ok
}

// ParseCondition parses a case-insensitive condition mnemonic.
func ParseCondition(s string) (isa.Condition, bool) {
	c, ok := conditionNames[strings.ToLower(strings.TrimSpace(s))]
	return c, ok
}

// ParseImmediate parses a decimal or hexadecimal immediate, with or
// without a leading '#' and an optional '-' sign.
func ParseImmediate(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "#")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty immediate")
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	var v int64
	var err error
	if hex := trimHexPrefix(s); hex != s {
		v, err = strconv.ParseInt(hex, 16, 64)
	} else {
		v, err = strconv.ParseInt(s, 10, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid immediate %q: %w", s, err)
	}
	if neg {
		v = -v
	}
	return v, nil
}

func trimHexPrefix(s string) string {
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		return s[2:]
	}
	return s
}

// ParseOperand parses a register-or-immediate operand: '#'-prefixed
// tokens are always immediates, otherwise a register name is tried
// first and a bare number falls back to an immediate.
func ParseOperand(s string) (isa.Operand, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		v, err := ParseImmediate(s)
		if err != nil {
			return isa.Operand{}, err
		}
		return isa.Imm(v), nil
	}
	if r, ok := ParseRegister(s); ok {
		return isa.Reg(r), nil
	}
	v, err := ParseImmediate(s)
	if err != nil {
		return isa.Operand{}, fmt.Errorf("invalid operand %q", s)
	}
	return isa.Imm(v), nil
}

func splitOperands(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

// Decode maps one (address, mnemonic, operand text) triple to an
// Instruction, or returns a *DecodeError describing an unrecognized
// mnemonic, wrong operand count, or operand that doesn't parse.
func Decode(address uint64, mnemonic, operandText string) (isa.Instruction, error) {
	mnemonic = strings.ToLower(strings.TrimSpace(mnemonic))
	ops := splitOperands(operandText)

	build, ok := decoders[mnemonic]
	if !ok {
		return isa.Instruction{}, &DecodeError{address, mnemonic, "unknown mnemonic"}
	}
	return build(address, mnemonic, ops)
}

type decodeFunc func(address uint64, mnemonic string, ops []string) (isa.Instruction, error)

var decoders = map[string]decodeFunc{
	"mov":   decodeMov,
	"add":   binaryRegImm(isa.Add),
	"sub":   binaryRegImm(isa.Sub),
	"and":   binaryRegImm(isa.And),
	"orr":   binaryRegImm(isa.Orr),
	"eor":   binaryRegImm(isa.Eor),
	"lsl":   binaryRegImm(isa.Lsl),
	"lsr":   binaryRegImm(isa.Lsr),
	"asr":   binaryRegImm(isa.Asr),
	"mul":   binaryRegReg(isa.Mul),
	"sdiv":  binaryRegReg(isa.Sdiv),
	"udiv":  binaryRegReg(isa.Udiv),
	"cmp":   compare(isa.Cmp),
	"cmn":   compare(isa.Cmn),
	"tst":   compare(isa.Tst),
	"csel":  condSelect(isa.Csel),
	"csinc": condSelect(isa.Csinc),
	"csinv": condSelect(isa.Csinv),
	"csneg": condSelect(isa.Csneg),
}

func wantOperands(address uint64, mnemonic string, ops []string, n int) error {
	if len(ops) != n {
		return &DecodeError{address, mnemonic, fmt.Sprintf("expected %d operands, got %d", n, len(ops))}
	}
	return nil
}

func register(address uint64, mnemonic string, s string) (isa.Register, error) {
	r, ok := ParseRegister(s)
	if !ok {
		return 0, &DecodeError{address, mnemonic, fmt.Sprintf("invalid register %q", s)}
	}
	return r, nil
}

func operand(address uint64, mnemonic string, s string) (isa.Operand, error) {
	op, err := ParseOperand(s)
	if err != nil {
		return isa.Operand{}, &DecodeError{address, mnemonic, err.Error()}
	}
	return op, nil
}

func decodeMov(address uint64, mnemonic string, ops []string) (isa.Instruction, error) {
	if err := wantOperands(address, mnemonic, ops, 2); err != nil {
		return isa.Instruction{}, err
	}
	rd, err := register(address, mnemonic, ops[0])
	if err != nil {
		return isa.Instruction{}, err
	}
	src, err := operand(address, mnemonic, ops[1])
	if err != nil {
		return isa.Instruction{}, err
	}
	if src.IsRegister() {
		return isa.MovReg(rd, src.Reg), nil
	}
	return isa.MovImm(rd, src.Imm), nil
}

func binaryRegImm(ctor func(rd, rn isa.Register, rm isa.Operand) isa.Instruction) decodeFunc {
	return func(address uint64, mnemonic string, ops []string) (isa.Instruction, error) {
		if err := wantOperands(address, mnemonic, ops, 3); err != nil {
			return isa.Instruction{}, err
		}
		rd, err := register(address, mnemonic, ops[0])
		if err != nil {
			return isa.Instruction{}, err
		}
		rn, err := register(address, mnemonic, ops[1])
		if err != nil {
			return isa.Instruction{}, err
		}
		rm, err := operand(address, mnemonic, ops[2])
		if err != nil {
			return isa.Instruction{}, err
		}
		return ctor(rd, rn, rm), nil
	}
}

func binaryRegReg(ctor func(rd, rn, rm isa.Register) isa.Instruction) decodeFunc {
	return func(address uint64, mnemonic string, ops []string) (isa.Instruction, error) {
		if err := wantOperands(address, mnemonic, ops, 3); err != nil {
			return isa.Instruction{}, err
		}
		rd, err := register(address, mnemonic, ops[0])
		if err != nil {
			return isa.Instruction{}, err
		}
		rn, err := register(address, mnemonic, ops[1])
		if err != nil {
			return isa.Instruction{}, err
		}
		rm, err := register(address, mnemonic, ops[2])
		if err != nil {
			return isa.Instruction{}, err
		}
		return ctor(rd, rn, rm), nil
	}
}

func compare(ctor func(rn isa.Register, rm isa.Operand) isa.Instruction) decodeFunc {
	return func(address uint64, mnemonic string, ops []string) (isa.Instruction, error) {
		if err := wantOperands(address, mnemonic, ops, 2); err != nil {
			return isa.Instruction{}, err
		}
		rn, err := register(address, mnemonic, ops[0])
		if err != nil {
			return isa.Instruction{}, err
		}
		rm, err := operand(address, mnemonic, ops[1])
		if err != nil {
			return isa.Instruction{}, err
		}
		return ctor(rn, rm), nil
	}
}

func condSelect(ctor func(rd, rn, rm isa.Register, cond isa.Condition) isa.Instruction) decodeFunc {
	return func(address uint64, mnemonic string, ops []string) (isa.Instruction, error) {
		if err := wantOperands(address, mnemonic, ops, 4); err != nil {
			return isa.Instruction{}, err
		}
		rd, err := register(address, mnemonic, ops[0])
		if err != nil {
			return isa.Instruction{}, err
		}
		rn, err := register(address, mnemonic, ops[1])
		if err != nil {
			return isa.Instruction{}, err
		}
		rm, err := register(address, mnemonic, ops[2])
		if err != nil {
			return isa.Instruction{}, err
		}
		cond, ok := ParseCondition(ops[3])
		if !ok {
			return isa.Instruction{}, &DecodeError{address, mnemonic, fmt.Sprintf("invalid condition %q", ops[3])}
		}
		return ctor(rd, rn, rm, cond), nil
	}
}
